package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding-window limiter.
type RateLimitConfig struct {
	// Max requests per Window and key.
	Max    int
	Window time.Duration
	// KeyFunc picks the limited key; ClientIP when nil.
	KeyFunc func(*http.Request) string
}

// window counts requests in the current and the previous fixed window. The
// effective count weights the previous window by its overlap with the
// sliding one.
type window struct {
	prev, curr float64
	currStart  time.Time
}

func (w *window) advance(now time.Time, size time.Duration) {
	age := now.Sub(w.currStart)
	if age < size {
		return
	}
	if age < 2*size {
		w.prev = w.curr
	} else {
		w.prev = 0
	}
	w.curr = 0
	w.currStart = now.Truncate(size)
}

func (w *window) effective(now time.Time, size time.Duration) float64 {
	overlap := 1 - now.Sub(w.currStart).Seconds()/size.Seconds()
	return w.prev*max(overlap, 0) + w.curr
}

type limiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	windows map[string]*window
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	return &limiter{cfg: cfg, windows: make(map[string]*window)}
}

// take counts one request for key unless the limit is reached.
func (l *limiter) take(key string, now time.Time) (remaining int, reset time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[key]
	if w == nil {
		w = &window{currStart: now}
		l.windows[key] = w
	}
	w.advance(now, l.cfg.Window)
	reset = w.currStart.Add(l.cfg.Window)

	used := w.effective(now, l.cfg.Window)
	if used >= float64(l.cfg.Max) {
		return 0, reset, false
	}
	w.curr++
	return max(int(float64(l.cfg.Max)-used-1), 0), reset, true
}

// evict drops keys idle for two windows.
func (l *limiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, w := range l.windows {
		if now.Sub(w.currStart) >= 2*l.cfg.Window {
			delete(l.windows, k)
		}
	}
}

func (l *limiter) runEviction(ctx context.Context) {
	t := time.NewTicker(2 * l.cfg.Window)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			l.evict(now)
		}
	}
}

// RateLimit limits requests per key. Over-limit requests get 429 with a
// Retry-After header; every response carries the X-RateLimit-* headers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newLimiter(cfg).middleware
}

// RateLimitWithCleanup is RateLimit with idle keys evicted until ctx ends.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go l.runEviction(ctx)
	return l.middleware
}

func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining, reset, ok := l.take(l.cfg.KeyFunc(r), time.Now())

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Max))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		if !ok {
			wait := max(time.Until(reset), 0)
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP keys requests by the first X-Forwarded-For hop, then X-Real-IP,
// then the peer address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
