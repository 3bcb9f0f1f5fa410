// Package ledger projects a customer's orders and payments into one
// chronological feed annotated with running balances.
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/salesledger/internal/domain/order"
	"github.com/xenking/salesledger/internal/domain/payment"
)

// Kind tags which variant a ledger entry carries.
type Kind string

const (
	KindOrder   Kind = "ORDER"
	KindPayment Kind = "PAYMENT"
	// KindRefund is money handed back to the customer; it folds like a payment.
	KindRefund Kind = "REFUND"
)

// Status is the lifecycle state of a ledger entry.
type Status string

const (
	StatusActive   Status = "active"
	StatusDeleted  Status = "deleted"
	StatusReversed Status = "reversed"
	StatusRestored Status = "restored"
)

// NormalizeStatus maps the backend's status spellings onto Status.
// Unknown and empty values are treated as active.
func NormalizeStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusDeleted:
		return StatusDeleted
	case StatusReversed, "voided":
		return StatusReversed
	case StatusRestored:
		return StatusRestored
	default:
		return StatusActive
	}
}

// Line is an order line as shown in the ledger.
type Line struct {
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Entry is one financial event for a customer: an order or a payment.
type Entry struct {
	ID          int64
	Kind        Kind
	ReferenceID int64
	// Seq is the creation order used to break timestamp ties. Zero means
	// "use the position in the input".
	Seq         int64
	Date        time.Time
	Description string
	// Amount is the order total or the signed payment amount.
	Amount decimal.Decimal
	Status Status

	Method         string
	Items          []Line
	DiscountAmount decimal.Decimal
	DiscountType   string
	// ReversalOf links a reversal payment to the payment it offsets.
	ReversalOf int64

	DeletedAt *time.Time
	DeletedBy string

	// ReportedBalance is the running balance the backend attached, if any.
	ReportedBalance *decimal.Decimal
}

// Delta is the signed change the entry applies to the customer's debt.
func (e *Entry) Delta() decimal.Decimal {
	if e.Kind == KindOrder {
		return e.Amount
	}
	return e.Amount.Neg()
}

// Counts reports whether the entry's status lets it enter the balance fold.
func (e *Entry) Counts() bool {
	return e.Status == StatusActive || e.Status == StatusRestored
}

// IsPayment reports whether the entry folds as a payment.
func (e *Entry) IsPayment() bool {
	return e.Kind == KindPayment || e.Kind == KindRefund
}

// FromOrder converts a backend order into a ledger entry.
func FromOrder(o *order.Order) Entry {
	e := Entry{
		ID:             o.ID,
		Kind:           KindOrder,
		ReferenceID:    o.ID,
		Date:           o.CreatedAt,
		Amount:         o.Total,
		Status:         NormalizeStatus(string(o.Status)),
		DiscountAmount: o.DiscountAmount,
		Items:          make([]Line, len(o.Items)),
	}
	if o.Discount != nil {
		e.DiscountType = string(o.Discount.Type)
	}
	for i, it := range o.Items {
		e.Items[i] = Line{ProductName: it.ProductName, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return e
}

// FromPayment converts a backend payment into a ledger entry.
func FromPayment(p *payment.Payment) Entry {
	return Entry{
		ID:          p.ID,
		Kind:        KindPayment,
		ReferenceID: p.ID,
		Date:        p.CreatedAt,
		Description: p.Notes,
		Amount:      p.Amount,
		Status:      NormalizeStatus(string(p.Status)),
		Method:      string(p.Method),
		ReversalOf:  p.ReversalOf,
	}
}
