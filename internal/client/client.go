// Package client talks to the sales backend REST API and maps its wire
// format onto the domain types.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/salesledger/internal/session"
)

// ErrSessionExpired is returned when a request was rejected as unauthorised
// and the token could not be refreshed. Stored credentials are cleared.
var ErrSessionExpired = errors.New("session expired")

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Credentials supplies the bearer token and takes part in the refresh cycle.
// *session.Session and session.StaticToken implement it.
type Credentials interface {
	Token() string
	BeginRefresh() (string, error)
	CompleteRefresh(t session.Tokens) error
	Expire() error
}

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	tracer     trace.TracerProvider
	meter      metric.MeterProvider
	timeout    time.Duration
}

// WithHTTPClient overrides the underlying HTTP client. Its transport is still
// wrapped with tracing.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTracerProvider sets the tracer provider for outgoing requests.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp }
}

// WithMeterProvider sets the meter provider for client metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meter = mp }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// Client is a backend API client.
type Client struct {
	base  *url.URL
	http  *http.Client
	creds Credentials

	refreshMu sync.Mutex
	refreshes metric.Int64Counter
	expiries  metric.Int64Counter
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, creds Credentials, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", baseURL)
	}

	o := options{timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if o.meter == nil {
		o.meter = noop.NewMeterProvider()
	}

	hc := &http.Client{Timeout: o.timeout}
	if o.httpClient != nil {
		cp := *o.httpClient
		hc = &cp
	}
	rt := hc.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	transportOpts := []otelhttp.Option{otelhttp.WithMeterProvider(o.meter)}
	if o.tracer != nil {
		transportOpts = append(transportOpts, otelhttp.WithTracerProvider(o.tracer))
	}
	hc.Transport = otelhttp.NewTransport(rt, transportOpts...)

	meter := o.meter.Meter("salesledger/client")
	refreshes, err := meter.Int64Counter("client.token.refreshes",
		metric.WithDescription("Access token refresh attempts"))
	if err != nil {
		return nil, errors.Wrap(err, "create refresh counter")
	}
	expiries, err := meter.Int64Counter("client.session.expired",
		metric.WithDescription("Sessions expired after a failed refresh"))
	if err != nil {
		return nil, errors.Wrap(err, "create expiry counter")
	}

	return &Client{
		base:      base,
		http:      hc,
		creds:     creds,
		refreshes: refreshes,
		expiries:  expiries,
	}, nil
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.base.String(), http.NoBody)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "ping")
	}
	return resp.Body.Close()
}

// WithCredentials returns a copy of c that authenticates with creds. The copy
// shares the transport.
func (c *Client) WithCredentials(creds Credentials) *Client {
	return &Client{
		base:      c.base,
		http:      c.http,
		creds:     creds,
		refreshes: c.refreshes,
		expiries:  c.expiries,
	}
}

// call sends a request and decodes the response data into out. A 401 on an
// authenticated request triggers one refresh and one retry.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return errors.Wrap(err, "encode request")
		}
	}

	token := c.token()
	resp, err := c.send(ctx, method, path, query, payload, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		_ = drain(resp)
		if err := c.refresh(ctx, token); err != nil {
			return err
		}
		if resp, err = c.send(ctx, method, path, query, payload, c.token()); err != nil {
			return err
		}
	}
	return decode(resp, out)
}

func (c *Client) token() string {
	if c.creds == nil {
		return ""
	}
	return c.creds.Token()
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (*http.Response, error) {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set(RequestIDHeader, requestID(ctx))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	return resp, nil
}

// refresh exchanges the refresh token for a new pair. Concurrent callers
// that saw the same stale token share one exchange.
func (c *Client) refresh(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if cur := c.token(); cur != "" && cur != stale {
		return nil
	}

	lg := zctx.From(ctx)
	c.refreshes.Add(ctx, 1)

	rt, err := c.creds.BeginRefresh()
	if err != nil {
		return c.expire(ctx, err)
	}
	tokens, err := c.exchange(ctx, rt)
	if err != nil {
		return c.expire(ctx, err)
	}
	if err := c.creds.CompleteRefresh(tokens); err != nil {
		return c.expire(ctx, err)
	}

	lg.Debug("Access token refreshed")
	return nil
}

func (c *Client) expire(ctx context.Context, cause error) error {
	c.expiries.Add(ctx, 1)
	zctx.From(ctx).Warn("Token refresh failed, expiring session", zap.Error(cause))
	if err := c.creds.Expire(); err != nil {
		zctx.From(ctx).Warn("Expire session", zap.Error(err))
	}
	return errors.Errorf("refresh: %v: %w", cause, ErrSessionExpired)
}

// exchange calls the refresh endpoint without any retry of its own.
func (c *Client) exchange(ctx context.Context, refreshToken string) (session.Tokens, error) {
	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return session.Tokens{}, errors.Wrap(err, "encode refresh")
	}
	resp, err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, payload, "")
	if err != nil {
		return session.Tokens{}, err
	}

	var out tokenPair
	if err := decode(resp, &out); err != nil {
		return session.Tokens{}, err
	}
	if out.Token == "" {
		return session.Tokens{}, errors.New("refresh response has no token")
	}
	return session.Tokens{Access: out.Token, Refresh: out.RefreshToken}, nil
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// decode reads resp and unwraps the {success, data} envelope when present.
func decode(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Success != nil && len(env.Data) > 0 {
		body = env.Data
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// decodeAPIError extracts the message of an error envelope. Bodies that are
// not JSON objects fall back to the status text.
func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	d := jx.DecodeBytes(body)
	if d.Next() == jx.Object {
		_ = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			switch string(key) {
			case "message":
				if d.Next() == jx.String {
					s, err := d.Str()
					apiErr.Message = s
					return err
				}
			case "error":
				if d.Next() == jx.String && apiErr.Message == "" {
					s, err := d.Str()
					apiErr.Message = s
					return err
				}
			}
			return d.Skip()
		})
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func drain(resp *http.Response) error {
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

type requestIDKey struct{}

// WithRequestID makes outgoing requests reuse id instead of a fresh one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
