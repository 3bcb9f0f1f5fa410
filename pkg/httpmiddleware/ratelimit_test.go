package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remote string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.RemoteAddr = remote
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_OverLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	first := hit(h, "10.0.0.1:9999", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, first.Header().Get("X-RateLimit-Reset"))

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:9999", nil).Code)

	w := hit(h, "10.0.0.1:9999", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "rate limit exceeded", body.Message)
}

func TestRateLimit_Keys(t *testing.T) {
	tests := []struct {
		name   string
		cfg    RateLimitConfig
		first  func(http.Handler) int
		second func(http.Handler) int
		want   int
	}{
		{
			name:   "different peers are independent",
			first:  func(h http.Handler) int { return hit(h, "10.0.0.1:1", nil).Code },
			second: func(h http.Handler) int { return hit(h, "10.0.0.2:1", nil).Code },
			want:   http.StatusOK,
		},
		{
			name:   "same peer different port is limited",
			first:  func(h http.Handler) int { return hit(h, "10.0.0.1:1", nil).Code },
			second: func(h http.Handler) int { return hit(h, "10.0.0.1:2", nil).Code },
			want:   http.StatusTooManyRequests,
		},
		{
			name: "forwarded client wins over peer",
			first: func(h http.Handler) int {
				return hit(h, "192.168.1.1:1", map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}).Code
			},
			second: func(h http.Handler) int {
				return hit(h, "192.168.1.2:1", map[string]string{"X-Forwarded-For": "203.0.113.50"}).Code
			},
			want: http.StatusTooManyRequests,
		},
		{
			name: "custom key",
			cfg: RateLimitConfig{KeyFunc: func(r *http.Request) string {
				return r.Header.Get("Authorization")
			}},
			first: func(h http.Handler) int {
				return hit(h, "10.0.0.1:1", map[string]string{"Authorization": "Bearer a"}).Code
			},
			second: func(h http.Handler) int {
				return hit(h, "10.0.0.1:1", map[string]string{"Authorization": "Bearer b"}).Code
			},
			want: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Max, cfg.Window = 1, time.Minute
			h := RateLimit(cfg)(okHandler())
			require.Equal(t, http.StatusOK, tt.first(h))
			assert.Equal(t, tt.want, tt.second(h))
		})
	}
}

func TestLimiter_SlidingWindow(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 4, Window: time.Minute})
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	for range 4 {
		_, _, ok := l.take("k", start)
		require.True(t, ok)
	}
	_, _, ok := l.take("k", start.Add(30*time.Second))
	assert.False(t, ok)

	// Half of the previous window still overlaps: 4*0.5 = 2 used.
	remaining, _, ok := l.take("k", start.Add(90*time.Second))
	require.True(t, ok)
	assert.Equal(t, 1, remaining)

	// Two idle windows reset the key.
	remaining, _, ok = l.take("k", start.Add(5*time.Minute))
	require.True(t, ok)
	assert.Equal(t, 3, remaining)

	l.evict(start.Add(10 * time.Minute))
	assert.Empty(t, l.windows)
}
