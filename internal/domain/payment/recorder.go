package payment

import (
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/salesledger/internal/validate"
)

// Sentinel errors for payment lifecycle transitions.
var (
	ErrReasonRequired  = errors.New("reversal reason is required")
	ErrNotReversible   = errors.New("payment cannot be reversed")
	ErrAlreadyDeleted  = errors.New("payment already deleted")
	ErrNotDeleted      = errors.New("payment is not deleted")
	ErrReversedPayment = errors.New("reversed payment cannot be deleted")
	ErrNotFound        = errors.New("payment not found")
)

// Validate checks a payment request before it is sent to the backend.
func Validate(req Request) error {
	return validate.Struct(req)
}

// Reverse builds the counter-entry for original: a new payment with the
// negated amount linked back to the original id. The returned original copy
// has its status set to reversed; the argument itself is not modified.
func Reverse(original Payment, reason string, now time.Time) (reversal, updated Payment, err error) {
	if strings.TrimSpace(reason) == "" {
		return Payment{}, Payment{}, ErrReasonRequired
	}
	switch {
	case original.Status == StatusDeleted:
		return Payment{}, Payment{}, errors.Wrapf(ErrNotReversible, "payment %d is deleted", original.ID)
	case original.Status == StatusReversed:
		return Payment{}, Payment{}, errors.Wrapf(ErrNotReversible, "payment %d is already reversed", original.ID)
	case original.IsReversal():
		return Payment{}, Payment{}, errors.Wrapf(ErrNotReversible, "payment %d is itself a reversal", original.ID)
	}

	reversal = Payment{
		CustomerID:      original.CustomerID,
		Amount:          original.Amount.Neg(),
		Method:          original.Method,
		ReferenceNumber: original.ReferenceNumber,
		Notes:           reason,
		Status:          StatusActive,
		ReversalOf:      original.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	updated = original
	updated.Status = StatusReversed
	updated.UpdatedAt = now
	return reversal, updated, nil
}

// Delete returns p soft-deleted. Amount and identity are preserved.
func Delete(p Payment, now time.Time) (Payment, error) {
	switch p.Status {
	case StatusDeleted:
		return p, errors.Wrapf(ErrAlreadyDeleted, "payment %d", p.ID)
	case StatusReversed:
		return p, errors.Wrapf(ErrReversedPayment, "payment %d", p.ID)
	}
	p.Status = StatusDeleted
	p.UpdatedAt = now
	return p, nil
}

// Restore flips a soft-deleted payment back into the ledger.
func Restore(p Payment, now time.Time) (Payment, error) {
	if p.Status != StatusDeleted {
		return p, errors.Wrapf(ErrNotDeleted, "payment %d has status %s", p.ID, p.Status)
	}
	p.Status = StatusRestored
	p.UpdatedAt = now
	return p, nil
}
