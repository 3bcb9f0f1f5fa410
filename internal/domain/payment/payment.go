package payment

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Method enumerates the accepted payment channels.
type Method string

const (
	MethodCash         Method = "CASH"
	MethodInstapay     Method = "INSTAPAY"
	MethodVodafoneCash Method = "VODAFONE_CASH"
	MethodBankTransfer Method = "BANK_TRANSFER"
	MethodCheque       Method = "CHEQUE"
)

// Methods lists every accepted method in display order.
var Methods = []Method{MethodCash, MethodInstapay, MethodVodafoneCash, MethodBankTransfer, MethodCheque}

// ErrInvalidMethod is returned for a payment method outside Methods.
var ErrInvalidMethod = errors.New("invalid payment method")

// ParseMethod accepts the backend spelling in any letter case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidMethod, "%q", s)
}

// Status is the lifecycle state of a payment.
type Status string

const (
	StatusActive   Status = "active"
	StatusDeleted  Status = "deleted"
	StatusReversed Status = "reversed"
	StatusRestored Status = "restored"
)

// Payment is a recorded payment against a customer's debt. A negative Amount
// encodes a reversal of the payment referenced by ReversalOf.
type Payment struct {
	ID              int64
	CustomerID      int64
	Amount          decimal.Decimal
	Method          Method
	ReferenceNumber string
	Notes           string
	Status          Status
	// ReversalOf is the id of the payment this entry reverses, or zero.
	ReversalOf    int64
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsReversal reports whether p is the counter-entry of another payment.
func (p *Payment) IsReversal() bool {
	return p.ReversalOf != 0 || p.Amount.IsNegative()
}

// Counts reports whether p participates in the running balance.
func (p *Payment) Counts() bool {
	return p.Status == StatusActive || p.Status == StatusRestored
}

// Request is the input for recording a payment.
type Request struct {
	CustomerID      int64           `json:"customer_id" validate:"gt=0"`
	Amount          decimal.Decimal `json:"amount" validate:"gt=0"`
	Method          Method          `json:"payment_method" validate:"oneof=CASH INSTAPAY VODAFONE_CASH BANK_TRANSFER CHEQUE"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// UpdateRequest carries the editable payment fields. Nil fields are unchanged.
type UpdateRequest struct {
	Amount          *decimal.Decimal
	Method          *Method
	ReferenceNumber *string
	Notes           *string
}

// Repository defines the backend operations on payments.
type Repository interface {
	Create(ctx context.Context, req Request) (*Payment, error)
	Get(ctx context.Context, id int64) (*Payment, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Payment, error)
	Reverse(ctx context.Context, id int64, reason string) (*Payment, error)
	Delete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
}
