package dashboard

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/salesledger/internal/domain/period"
)

// DefaultLimit is the list size used when the caller passes zero.
const DefaultLimit = 10

// Snapshot is every dashboard panel for one period, as the backend sent it.
type Snapshot struct {
	Range       period.Range
	KPIs        *KPIs
	CashFlow    *CashFlow
	Alerts      *Alerts
	Debt        *CustomerDebt
	TopProducts []TopProduct
}

// Aggregator fetches the dashboard panels.
type Aggregator struct {
	source Source
}

// NewAggregator creates an Aggregator over the given Source.
func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// Snapshot fetches all panels concurrently. Any failing panel fails the
// whole snapshot.
func (a *Aggregator) Snapshot(ctx context.Context, r period.Range, limit int) (*Snapshot, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	s := &Snapshot{Range: r}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.KPIs, err = a.source.KPIs(ctx, r)
		if err != nil {
			return errors.Wrap(err, "kpis")
		}
		return nil
	})
	g.Go(func() (err error) {
		s.CashFlow, err = a.source.CashFlow(ctx, r)
		if err != nil {
			return errors.Wrap(err, "cash flow")
		}
		return nil
	})
	g.Go(func() (err error) {
		s.Alerts, err = a.source.Alerts(ctx, r)
		if err != nil {
			return errors.Wrap(err, "alerts")
		}
		return nil
	})
	g.Go(func() (err error) {
		s.Debt, err = a.source.CustomerDebt(ctx, limit)
		if err != nil {
			return errors.Wrap(err, "customer debt")
		}
		return nil
	})
	g.Go(func() (err error) {
		s.TopProducts, err = a.source.TopProducts(ctx, r, limit)
		if err != nil {
			return errors.Wrap(err, "top products")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

// LegendEntry is a payment method with its formatted share of the total.
type LegendEntry struct {
	Method  string
	Amount  decimal.Decimal
	Percent string
}

// Legend formats each method's share of the collected total, for example
// "42.5%". A zero total yields "0%" for every method.
func Legend(methods []MethodShare) []LegendEntry {
	total := decimal.Zero
	for _, m := range methods {
		total = total.Add(m.Amount)
	}

	out := make([]LegendEntry, len(methods))
	for i, m := range methods {
		pct := decimal.Zero
		if !total.IsZero() {
			pct = m.Amount.Mul(decimal.NewFromInt(100)).Div(total).Round(1)
		}
		out[i] = LegendEntry{
			Method:  m.Method,
			Amount:  m.Amount,
			Percent: pct.String() + "%",
		}
	}
	return out
}
