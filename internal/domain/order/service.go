package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/salesledger/internal/domain/payment"
)

// ErrNotDeleted is returned when restoring an order that is not deleted.
var ErrNotDeleted = errors.New("order is not deleted")

// ErrNotFound is returned when the backend has no such order.
var ErrNotFound = errors.New("order not found")

// ErrAlreadyDeleted is returned when deleting an order twice.
var ErrAlreadyDeleted = errors.New("order already deleted")

// PlaceOrderResult holds the backend order next to the locally computed quote.
type PlaceOrderResult struct {
	Order *Order
	Quote *Quote
}

// Service encapsulates order composition and lifecycle rules in front of the
// backend repository.
type Service struct {
	orders Repository
}

// NewService creates an order Service.
func NewService(orders Repository) *Service {
	return &Service{orders: orders}
}

// Quote prices the lines without contacting the backend.
func (s *Service) Quote(lines []LineInput, discount *Discount) (*Quote, error) {
	return Build(lines, discount)
}

// PlaceOrder validates the lines and the optional payment, then creates the
// order on the backend.
func (s *Service) PlaceOrder(ctx context.Context, req CreateRequest) (*PlaceOrderResult, error) {
	q, err := Build(req.Items, req.Discount)
	if err != nil {
		return nil, err
	}
	if req.Payment != nil {
		p := *req.Payment
		p.CustomerID = req.CustomerID
		if err := payment.Validate(p); err != nil {
			return nil, errors.Wrap(err, "order payment")
		}
		req.Payment = &p
	}

	o, err := s.orders.Create(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	lg := zctx.From(ctx)
	if !o.Total.Equal(q.Total) {
		// Backend total wins.
		lg.Warn("Order total differs from local quote",
			zap.Int64("order_id", o.ID),
			zap.Stringer("backend_total", o.Total),
			zap.Stringer("quote_total", q.Total),
		)
	}
	lg.Info("Order created",
		zap.Int64("order_id", o.ID),
		zap.Int64("customer_id", o.CustomerID),
		zap.Stringer("total", o.Total),
	)

	return &PlaceOrderResult{Order: o, Quote: q}, nil
}

// UpdateItems replaces the line items of an existing order.
func (s *Service) UpdateItems(ctx context.Context, id int64, req UpdateRequest) (*Order, error) {
	if _, err := Build(req.Items, nil); err != nil {
		return nil, err
	}
	o, err := s.orders.Update(ctx, id, req)
	if err != nil {
		return nil, errors.Wrapf(err, "update order %d", id)
	}
	return o, nil
}

// Delete soft-deletes order id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "get order %d", id)
	}
	if o.Status == StatusDeleted {
		return errors.Wrapf(ErrAlreadyDeleted, "order %d", id)
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete order %d", id)
	}
	return nil
}

// Restore brings a soft-deleted order back into the ledger.
func (s *Service) Restore(ctx context.Context, id int64) error {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "get order %d", id)
	}
	if o.Status != StatusDeleted {
		return errors.Wrapf(ErrNotDeleted, "order %d has status %s", id, o.Status)
	}
	if err := s.orders.Restore(ctx, id); err != nil {
		return errors.Wrapf(err, "restore order %d", id)
	}
	return nil
}
