// Package console serves the read-only JSON API of the dashboard: projected
// customer ledgers, the dashboard snapshot, order quotes and the caller's
// identity. Every upstream call carries the caller's own bearer token.
package console

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/salesledger/internal/client"
	"github.com/xenking/salesledger/internal/domain/dashboard"
	"github.com/xenking/salesledger/internal/domain/ledger"
	"github.com/xenking/salesledger/internal/domain/order"
	"github.com/xenking/salesledger/internal/domain/period"
	"github.com/xenking/salesledger/internal/session"
	"github.com/xenking/salesledger/internal/validate"
	"github.com/xenking/salesledger/pkg/httpmiddleware"
)

// maxQuoteBody bounds the quote request body.
const maxQuoteBody = 1 << 20

// Server holds the console handlers.
type Server struct {
	ledgers   *ledger.Service
	dashboard *dashboard.Aggregator
	orders    *order.Service
	now       func() time.Time
}

// NewServer creates a Server forwarding to the backend behind base.
func NewServer(base *client.Client, tp trace.TracerProvider, mp metric.MeterProvider) (*Server, error) {
	up := upstream{base: base}
	ledgers, err := ledger.NewService(up, tp, mp)
	if err != nil {
		return nil, errors.Wrap(err, "create ledger service")
	}
	return &Server{
		ledgers:   ledgers,
		dashboard: dashboard.NewAggregator(up),
		// Quotes never reach the backend.
		orders: order.NewService(nil),
		now:    time.Now,
	}, nil
}

// Register mounts the API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/customers/{id}/ledger", s.guard(session.RouteCustomers, s.customerLedger))
	mux.Handle("GET /api/dashboard", s.guard(session.RouteDashboard, s.dashboardSnapshot))
	mux.Handle("POST /api/orders/quote", s.guard(session.RouteOrders, s.quote))
	mux.Handle("GET /api/me", s.guard("", s.me))
}

// authedHandler is a handler behind guard.
type authedHandler func(w http.ResponseWriter, r *http.Request, id *session.Identity)

// guard authenticates the bearer token and checks the role may open route.
// An empty route only requires a valid token.
func (s *Server) guard(route session.Route, next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearer(r)
		if !ok {
			httpmiddleware.WriteError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		id, err := session.DecodeIdentity(token)
		if err != nil {
			httpmiddleware.WriteError(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}
		if id.Expired(s.now()) {
			httpmiddleware.WriteError(w, http.StatusUnauthorized, "token expired")
			return
		}
		if route != "" && !id.Can(route) {
			httpmiddleware.WriteError(w, http.StatusForbidden, "role "+string(id.Role)+" may not open "+string(route))
			return
		}

		ctx := withBearer(r.Context(), token)
		ctx = zctx.With(ctx, zap.String("user_id", id.ID), zap.String("role", string(id.Role)))
		next(w, r.WithContext(ctx), id)
	})
}

func bearer(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// fail maps err onto a response status.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		apiErr *client.APIError
		fields validate.FieldErrors
		qty    *order.InvalidQuantityError
		price  *order.InvalidPriceError
	)
	switch {
	case errors.Is(err, client.ErrSessionExpired):
		httpmiddleware.WriteError(w, http.StatusUnauthorized, "session expired")
	case errors.As(err, &apiErr):
		status := apiErr.Status
		switch status {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		default:
			status = http.StatusBadGateway
		}
		httpmiddleware.WriteError(w, status, apiErr.Message)
	case errors.As(err, &fields),
		errors.As(err, &qty),
		errors.As(err, &price),
		errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrInvalidDiscount),
		errors.Is(err, period.ErrInvertedRange),
		errors.Is(err, errBadRequest):
		httpmiddleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusBadGateway, "upstream request failed")
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return errors.Wrapf(errBadRequest, format, args...)
}

func (s *Server) customerLedger(w http.ResponseWriter, r *http.Request, _ *session.Identity) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(w, r, badRequest("invalid customer id %q", r.PathValue("id")))
		return
	}
	q := r.URL.Query()
	view, err := ledger.ParseView(q.Get("view"))
	if err != nil {
		fail(w, r, badRequest("%s", err.Error()))
		return
	}
	rng, err := period.Parse(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		fail(w, r, badRequest("%s", err.Error()))
		return
	}

	l, err := s.ledgers.Load(r.Context(), id, rng, view)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodeLedger(e, l, view) })
}

func (s *Server) dashboardSnapshot(w http.ResponseWriter, r *http.Request, _ *session.Identity) {
	q := r.URL.Query()
	rng, err := period.Parse(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		fail(w, r, badRequest("%s", err.Error()))
		return
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			fail(w, r, badRequest("invalid limit %q", v))
			return
		}
	}

	snap, err := s.dashboard.Snapshot(r.Context(), rng, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodeDashboard(e, snap) })
}

func (s *Server) quote(w http.ResponseWriter, r *http.Request, _ *session.Identity) {
	req, err := decodeQuote(jx.Decode(http.MaxBytesReader(w, r.Body, maxQuoteBody), 4096))
	if err != nil {
		fail(w, r, err)
		return
	}
	q, err := s.orders.Quote(req.Items, req.Discount)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodeQuote(e, q) })
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, id *session.Identity) {
	writeData(w, http.StatusOK, func(e *jx.Encoder) {
		encodeIdentity(e, id, session.Routes(id.Role))
	})
}
