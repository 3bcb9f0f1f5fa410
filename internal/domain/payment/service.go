package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/salesledger/internal/validate"
)

// Service guards payment mutations with the local lifecycle rules before
// delegating them to the backend.
type Service struct {
	payments Repository
	now      func() time.Time
}

// NewService creates a payment Service backed by the given Repository.
func NewService(payments Repository) *Service {
	return &Service{payments: payments, now: time.Now}
}

// Record validates and submits a new payment.
func (s *Service) Record(ctx context.Context, req Request) (*Payment, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	p, err := s.payments.Create(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "create payment")
	}
	zctx.From(ctx).Info("Payment recorded",
		zap.Int64("payment_id", p.ID),
		zap.Int64("customer_id", p.CustomerID),
		zap.Stringer("amount", p.Amount),
	)
	return p, nil
}

// Update edits the mutable fields of a payment.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Payment, error) {
	if req.Amount != nil && !req.Amount.IsPositive() {
		return nil, validate.FieldErrors{"amount": "must be greater than 0"}
	}
	if req.Method != nil {
		if _, err := ParseMethod(string(*req.Method)); err != nil {
			return nil, validate.FieldErrors{"payment_method": err.Error()}
		}
	}
	p, err := s.payments.Update(ctx, id, req)
	if err != nil {
		return nil, errors.Wrapf(err, "update payment %d", id)
	}
	return p, nil
}

// Reverse records the counter-entry of payment id. The original stays in
// the ledger with status reversed.
func (s *Service) Reverse(ctx context.Context, id int64, reason string) (*Payment, error) {
	original, err := s.payments.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get payment %d", id)
	}
	if _, _, err := Reverse(*original, reason, s.now()); err != nil {
		return nil, err
	}
	reversal, err := s.payments.Reverse(ctx, id, reason)
	if err != nil {
		return nil, errors.Wrapf(err, "reverse payment %d", id)
	}
	zctx.From(ctx).Info("Payment reversed",
		zap.Int64("payment_id", id),
		zap.Stringer("amount", original.Amount),
	)
	return reversal, nil
}

// Delete soft-deletes payment id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	p, err := s.payments.Get(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "get payment %d", id)
	}
	if _, err := Delete(*p, s.now()); err != nil {
		return err
	}
	if err := s.payments.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete payment %d", id)
	}
	return nil
}

// Restore brings a soft-deleted payment back.
func (s *Service) Restore(ctx context.Context, id int64) error {
	p, err := s.payments.Get(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "get payment %d", id)
	}
	if _, err := Restore(*p, s.now()); err != nil {
		return err
	}
	if err := s.payments.Restore(ctx, id); err != nil {
		return errors.Wrapf(err, "restore payment %d", id)
	}
	return nil
}
