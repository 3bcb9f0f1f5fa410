package ledger

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/salesledger/internal/domain/period"
)

// View selects one of the customer ledger feeds.
type View string

const (
	ViewActive  View = "active"
	ViewDeleted View = "deleted"
	ViewUpdates View = "updates"
)

// ParseView maps a query value onto a View; empty means active.
func ParseView(s string) (View, error) {
	switch View(s) {
	case "", ViewActive:
		return ViewActive, nil
	case ViewDeleted, ViewUpdates:
		return View(s), nil
	default:
		return "", errors.Errorf("unknown ledger view %q", s)
	}
}

// ReportedSummary is the backend's own aggregate for a customer.
type ReportedSummary struct {
	TotalOrders    decimal.Decimal
	TotalPaid      decimal.Decimal
	CurrentBalance decimal.Decimal
}

// History is the financial history of one customer.
type History struct {
	CustomerID   int64
	CustomerName string
	Summary      ReportedSummary
	Entries      []Entry
}

// DeletedSummary aggregates the deleted-history feed.
type DeletedSummary struct {
	TotalDeletedOrders   decimal.Decimal
	TotalDeletedPayments decimal.Decimal
	DeletedOrdersCount   int
	DeletedPaymentsCount int
}

// DeletedHistory is the soft-deleted audit trail of one customer.
type DeletedHistory struct {
	CustomerID   int64
	CustomerName string
	Summary      DeletedSummary
	Entries      []Entry
}

// UpdateHistory is the edit trail of one customer.
type UpdateHistory struct {
	CustomerID   int64
	CustomerName string
	Changes      []Change
}

// Source provides the customer history feeds.
type Source interface {
	FinancialHistory(ctx context.Context, customerID int64, r period.Range) (*History, error)
	DeletedHistory(ctx context.Context, customerID int64) (*DeletedHistory, error)
	UpdateHistory(ctx context.Context, customerID int64) (*UpdateHistory, error)
}

// CustomerLedger is the loaded and projected ledger of one customer.
type CustomerLedger struct {
	CustomerID   int64
	CustomerName string
	Range        period.Range

	Projection *Projection
	Reported   ReportedSummary
	// Mismatch is set when the projected balance disagrees with the backend.
	Mismatch error

	Deleted        []Record
	DeletedSummary DeletedSummary

	Updates []Update
}

// Service loads customer histories and projects them.
type Service struct {
	source    Source
	tracer    trace.Tracer
	projected metric.Int64Counter
	mismatch  metric.Int64Counter
}

// NewService creates a ledger Service.
func NewService(source Source, tp trace.TracerProvider, mp metric.MeterProvider) (*Service, error) {
	meter := mp.Meter("salesledger/ledger")
	projected, err := meter.Int64Counter("ledger.records.projected",
		metric.WithDescription("Ledger records folded into running balances"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create projected counter")
	}
	mismatch, err := meter.Int64Counter("ledger.balance.mismatch",
		metric.WithDescription("Projections whose balance disagreed with the backend"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create mismatch counter")
	}
	return &Service{
		source:    source,
		tracer:    tp.Tracer("salesledger/ledger"),
		projected: projected,
		mismatch:  mismatch,
	}, nil
}

// Load fetches the requested views concurrently and projects them.
func (s *Service) Load(ctx context.Context, customerID int64, r period.Range, views ...View) (*CustomerLedger, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if len(views) == 0 {
		views = []View{ViewActive}
	}

	ctx, span := s.tracer.Start(ctx, "ledger.Load", trace.WithAttributes(
		attribute.Int64("customer.id", customerID),
	))
	defer span.End()

	var (
		history *History
		deleted *DeletedHistory
		updates *UpdateHistory
	)
	seen := make(map[View]bool, len(views))
	g, gctx := errgroup.WithContext(ctx)
	for _, v := range views {
		if seen[v] {
			continue
		}
		seen[v] = true
		switch v {
		case ViewActive:
			g.Go(func() (err error) {
				history, err = s.source.FinancialHistory(gctx, customerID, r)
				if err != nil {
					return errors.Wrap(err, "financial history")
				}
				return nil
			})
		case ViewDeleted:
			g.Go(func() (err error) {
				deleted, err = s.source.DeletedHistory(gctx, customerID)
				if err != nil {
					return errors.Wrap(err, "deleted history")
				}
				return nil
			})
		case ViewUpdates:
			g.Go(func() (err error) {
				updates, err = s.source.UpdateHistory(gctx, customerID)
				if err != nil {
					return errors.Wrap(err, "update history")
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := &CustomerLedger{CustomerID: customerID, Range: r}
	if history != nil {
		out.CustomerName = history.CustomerName
		out.Reported = history.Summary
		out.Projection = s.project(ctx, customerID, history.Entries, !r.IsOpen())
		if want, ok := verifyAgainst(out.Projection, history.Summary, r); ok {
			if err := out.Projection.Verify(want); err != nil {
				out.Mismatch = err
				s.mismatch.Add(ctx, 1)
				zctx.From(ctx).Warn("Ledger balance mismatch",
					zap.Int64("customer_id", customerID),
					zap.Error(err),
				)
			}
		}
	}
	if deleted != nil {
		out.CustomerName = deleted.CustomerName
		out.DeletedSummary = deleted.Summary
		out.Deleted = Project(customerID, deleted.Entries).Deleted()
	}
	if updates != nil {
		out.CustomerName = updates.CustomerName
		out.Updates = Updates(updates.Changes)
	}
	return out, nil
}

// project folds the entries; for date-filtered feeds the opening balance is
// recovered from the first backend running balance.
func (s *Service) project(ctx context.Context, customerID int64, entries []Entry, filtered bool) *Projection {
	p := Project(customerID, entries)
	if filtered {
		if opening, ok := inferOpening(p); ok {
			p = Project(customerID, entries, WithOpeningBalance(opening))
		}
	}
	s.projected.Add(ctx, int64(len(entries)))
	return p
}

// verifyAgainst picks the backend balance to check the projection with. The
// summary balance is all-time, so a range with an end date is checked against
// the running balance the backend reported on the last counting record.
func verifyAgainst(p *Projection, reported ReportedSummary, r period.Range) (decimal.Decimal, bool) {
	if r.End.IsZero() {
		return reported.CurrentBalance, true
	}
	for i := len(p.records) - 1; i >= 0; i-- {
		rec := p.records[i]
		if rec.Struck {
			continue
		}
		if rec.ReportedBalance == nil {
			return decimal.Zero, false
		}
		return *rec.ReportedBalance, true
	}
	return decimal.Zero, false
}

// inferOpening derives the balance before the first record from the first
// counting record that carries a backend running balance.
func inferOpening(p *Projection) (decimal.Decimal, bool) {
	for _, r := range p.records {
		if r.Struck || r.ReportedBalance == nil {
			continue
		}
		return r.ReportedBalance.Sub(r.Balance.Sub(p.summary.Opening)), true
	}
	return decimal.Zero, false
}
