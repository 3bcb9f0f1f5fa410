package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Record is an entry placed in the feed with its running balance.
type Record struct {
	Entry
	// Balance is the running balance after this record. Struck records carry
	// the previous balance forward unchanged.
	Balance decimal.Decimal
	// Struck marks records rendered with their amount struck through:
	// deleted and reversed entries and reversal counter-entries whose
	// original is reversed in the same feed.
	Struck bool
}

// Summary aggregates a projected ledger.
type Summary struct {
	Opening        decimal.Decimal
	TotalOrders    decimal.Decimal
	TotalPaid      decimal.Decimal
	CurrentBalance decimal.Decimal
	OrderCount     int
	PaymentCount   int
	DeletedCount   int
	ReversedCount  int
}

// Projection is the chronological ledger of one customer.
type Projection struct {
	CustomerID int64
	records    []Record
	summary    Summary
}

// Option configures Project.
type Option func(*options)

type options struct {
	opening decimal.Decimal
}

// WithOpeningBalance starts the fold from a prior balance, for feeds that
// were filtered by date.
func WithOpeningBalance(d decimal.Decimal) Option {
	return func(o *options) { o.opening = d }
}

// Project merges the entries into a chronological feed and folds the signed
// deltas of counting entries into running balances. Entries with equal
// timestamps keep their creation order.
func Project(customerID int64, entries []Entry, opts ...Option) *Projection {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	for i := range sorted {
		if sorted[i].Seq == 0 {
			sorted[i].Seq = int64(i + 1)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(&sorted[i], &sorted[j])
	})

	// Reversal counter-entries net to zero with an original that is itself
	// excluded, so both sides leave the fold.
	reversedOriginals := make(map[int64]bool)
	for i := range sorted {
		if sorted[i].IsPayment() && sorted[i].Status == StatusReversed {
			reversedOriginals[sorted[i].ReferenceID] = true
		}
	}

	p := &Projection{
		CustomerID: customerID,
		records:    make([]Record, len(sorted)),
		summary:    Summary{Opening: o.opening},
	}

	balance := o.opening
	for i, e := range sorted {
		rec := Record{Entry: e}
		target := e.reversalTarget()
		pairedReversal := target != 0 && reversedOriginals[target]

		switch {
		case !e.Counts() || pairedReversal:
			rec.Struck = true
		case e.Kind == KindOrder:
			balance = balance.Add(e.Delta())
			p.summary.TotalOrders = p.summary.TotalOrders.Add(e.Amount)
			p.summary.OrderCount++
		default:
			balance = balance.Add(e.Delta())
			p.summary.TotalPaid = p.summary.TotalPaid.Add(e.Amount)
			p.summary.PaymentCount++
		}

		switch e.Status {
		case StatusDeleted:
			p.summary.DeletedCount++
		case StatusReversed:
			p.summary.ReversedCount++
		}

		rec.Balance = balance
		p.records[i] = rec
	}
	p.summary.CurrentBalance = balance

	return p
}

// reversalTarget returns the payment a counter-entry offsets, or zero. Feeds
// without an explicit link point the negative counter-entry at the original
// through its reference id.
func (e *Entry) reversalTarget() int64 {
	if e.ReversalOf != 0 {
		return e.ReversalOf
	}
	if !e.IsPayment() || e.Status == StatusReversed || !e.Amount.IsNegative() {
		return 0
	}
	if e.ReferenceID == 0 || e.ReferenceID == e.ID {
		return 0
	}
	return e.ReferenceID
}

// kindRank orders orders before payments when timestamps and sequence tie.
func kindRank(k Kind) int {
	if k == KindOrder {
		return 0
	}
	return 1
}

func less(a, b *Entry) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	if ra, rb := kindRank(a.Kind), kindRank(b.Kind); ra != rb {
		return ra < rb
	}
	return a.ID < b.ID
}

// Active returns the main feed: every record in chronological order, with
// excluded records flagged as struck.
func (p *Projection) Active() []Record {
	out := make([]Record, len(p.records))
	copy(out, p.records)
	return out
}

// Counted returns only the records that contributed to the balance.
func (p *Projection) Counted() []Record {
	out := make([]Record, 0, len(p.records))
	for _, r := range p.records {
		if !r.Struck {
			out = append(out, r)
		}
	}
	return out
}

// Deleted returns the soft-deleted records for the audit feed.
func (p *Projection) Deleted() []Record {
	out := make([]Record, 0, p.summary.DeletedCount)
	for _, r := range p.records {
		if r.Status == StatusDeleted {
			out = append(out, r)
		}
	}
	return out
}

// Summary returns the aggregates of the projection.
func (p *Projection) Summary() Summary {
	return p.summary
}

// MismatchError reports a balance the backend computed differently.
type MismatchError struct {
	Field    string
	Expected decimal.Decimal
	Reported decimal.Decimal
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s mismatch: projected %s, backend reported %s", e.Field, e.Expected, e.Reported)
}

// Verify compares the projection against the balance the backend reported
// for the customer.
func (p *Projection) Verify(reportedBalance decimal.Decimal) error {
	if !p.summary.CurrentBalance.Equal(reportedBalance) {
		return &MismatchError{
			Field:    "current balance",
			Expected: p.summary.CurrentBalance,
			Reported: reportedBalance,
		}
	}
	return nil
}

// Drift returns counting records whose backend running balance differs from
// the projected one.
func (p *Projection) Drift() []MismatchError {
	var out []MismatchError
	for _, r := range p.records {
		if r.Struck || r.ReportedBalance == nil {
			continue
		}
		if !r.ReportedBalance.Equal(r.Balance) {
			out = append(out, MismatchError{
				Field:    fmt.Sprintf("%s %d running balance", r.Kind, r.ReferenceID),
				Expected: r.Balance,
				Reported: *r.ReportedBalance,
			})
		}
	}
	return out
}
