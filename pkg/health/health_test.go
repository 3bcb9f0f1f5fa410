package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type body struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func serve(t *testing.T, handler http.HandlerFunc) (int, body) {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var b body
	require.NoError(t, json.NewDecoder(w.Body).Decode(&b))
	return w.Code, b
}

// upstream fails while down is set.
type upstream struct {
	mu   sync.Mutex
	down error
}

func (u *upstream) Ping(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.down
}

func (u *upstream) set(err error) {
	u.mu.Lock()
	u.down = err
	u.mu.Unlock()
}

func runN(p *probe, n int) {
	for range n {
		p.run(context.Background())
	}
}

func TestReadyEndpoint_UpstreamThresholds(t *testing.T) {
	up := &upstream{}
	h := New()
	h.AddReadinessCheck("upstream", time.Second, PingCheck(up))
	h.SetReady(true)

	code, b := serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", b.Status)
	assert.Empty(t, b.Checks)

	up.set(errors.New("connection refused"))
	runN(h.readiness[0], failureThreshold-1)
	assert.True(t, h.IsReady(), "below the failure threshold")

	runN(h.readiness[0], 1)
	code, b = serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", b.Status)
	assert.Equal(t, "ping: connection refused", b.Checks["upstream"])
	assert.False(t, h.IsReady())

	up.set(nil)
	runN(h.readiness[0], 1)
	assert.True(t, h.IsReady())
}

func TestReadyEndpoint_ManualSwitch(t *testing.T) {
	h := New()

	code, b := serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "service is not ready", b.Checks["_readiness"])

	h.SetReady(true)
	code, _ = serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(1_000_000))
	h.AddLivenessCheck("broken", time.Second, func(context.Context) error { return errors.New("stuck") })

	code, _ := serve(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code, "checks start healthy")

	runN(h.liveness[0], failureThreshold)
	runN(h.liveness[1], failureThreshold)
	code, b := serve(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, map[string]string{"broken": "stuck"}, b.Checks)

	// Liveness ignores the readiness switch.
	h.SetReady(false)
	_, b = serve(t, h.LiveEndpoint)
	assert.NotContains(t, b.Checks, "_readiness")
}

func TestStartRunsChecks(t *testing.T) {
	up := &upstream{down: errors.New("down")}
	h := New()
	h.AddReadinessCheck("upstream", time.Second, PingCheck(up))
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 5*time.Millisecond)
	defer h.Stop()

	require.Eventually(t, func() bool { return !h.IsReady() }, time.Second, 5*time.Millisecond)

	up.set(nil)
	require.Eventually(t, h.IsReady, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestCheckers(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
	require.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
