package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/salesledger/internal/client"
	"github.com/xenking/salesledger/internal/console"
	"github.com/xenking/salesledger/pkg/health"
)

type stack struct {
	handler http.Handler
	health  *health.Health
}

func newStack(t *testing.T, maxRequests int) *stack {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(upstream.Close)

	base, err := client.New(upstream.URL+"/api/v1", nil)
	require.NoError(t, err)
	srv, err := console.NewServer(base, tracenoop.NewTracerProvider(), noop.NewMeterProvider())
	require.NoError(t, err)

	hs := health.New()
	hs.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &Config{
		RateLimit: RateLimitConfig{Max: maxRequests, Window: time.Minute},
		CORS:      CORSConfig{Origins: []string{"*"}},
	}
	return &stack{
		handler: newHandler(ctx, cfg, tracenoop.NewTracerProvider(), noop.NewMeterProvider(), hs, srv),
		health:  hs,
	}
}

func (s *stack) do(method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "192.0.2.10:5000"
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func TestHandler_Health(t *testing.T) {
	s := newStack(t, 100)

	w := s.do(http.MethodGet, "/livez", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = s.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s.health.SetReady(false)
	w = s.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_RequestIDEchoed(t *testing.T) {
	s := newStack(t, 100)
	w := s.do(http.MethodGet, "/livez", map[string]string{"X-Request-ID": "custom-request-id-12345"})
	assert.Equal(t, "custom-request-id-12345", w.Header().Get("X-Request-ID"))
}

func TestHandler_CORSPreflight(t *testing.T) {
	s := newStack(t, 100)
	w := s.do(http.MethodOptions, "/api/me", map[string]string{
		"Origin":                        "http://example.com",
		"Access-Control-Request-Method": "GET",
	})
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}

func TestHandler_APIRequiresToken(t *testing.T) {
	s := newStack(t, 100)
	w := s.do(http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Message)
}

func TestHandler_RateLimited(t *testing.T) {
	s := newStack(t, 2)
	for range 2 {
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/livez", nil).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodGet, "/livez", nil).Code)
}
