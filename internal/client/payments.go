package client

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/salesledger/internal/domain/payment"
)

type paymentDTO struct {
	ID              flexID          `json:"id"`
	CustomerID      flexID          `json:"customer_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	Method          string          `json:"method"`
	ReferenceNumber *string         `json:"reference_number"`
	Notes           *string         `json:"notes"`
	Status          string          `json:"status"`
	IsDeleted       bool            `json:"is_deleted"`
	ReversalOf      flexID          `json:"reversal_of"`
	Invoice         *paymentInvoice `json:"invoice"`
	CreatedAt       wireTime        `json:"created_at"`
	UpdatedAt       wireTime        `json:"updated_at"`
}

// paymentInvoice carries the customer balance around a recorded payment.
type paymentInvoice struct {
	BalanceBefore decimal.Decimal `json:"balance_before_payment"`
	BalanceAfter  decimal.Decimal `json:"customer_balance"`
}

func (d *paymentDTO) domain() *payment.Payment {
	p := &payment.Payment{
		ID:         int64(d.ID),
		CustomerID: int64(d.CustomerID),
		Amount:     d.Amount,
		Method:     payment.Method(d.PaymentMethod),
		Status:     paymentStatus(d.Status, d.IsDeleted),
		ReversalOf: int64(d.ReversalOf),
		CreatedAt:  d.CreatedAt.Time,
		UpdatedAt:  d.UpdatedAt.Time,
	}
	if p.Method == "" {
		p.Method = payment.Method(d.Method)
	}
	if d.ReferenceNumber != nil {
		p.ReferenceNumber = *d.ReferenceNumber
	}
	if d.Notes != nil {
		p.Notes = *d.Notes
	}
	if d.Invoice != nil {
		p.BalanceBefore = d.Invoice.BalanceBefore
		p.BalanceAfter = d.Invoice.BalanceAfter
	}
	return p
}

func paymentStatus(s string, deleted bool) payment.Status {
	if deleted {
		return payment.StatusDeleted
	}
	switch payment.Status(s) {
	case payment.StatusDeleted, payment.StatusReversed, payment.StatusRestored:
		return payment.Status(s)
	case "voided":
		return payment.StatusReversed
	default:
		return payment.StatusActive
	}
}

type paymentRequest struct {
	CustomerID      int64          `json:"customer_id"`
	Amount          number         `json:"amount"`
	Method          payment.Method `json:"payment_method"`
	ReferenceNumber string         `json:"reference_number,omitempty"`
	Notes           string         `json:"notes,omitempty"`
}

type paymentPatch struct {
	Amount          *number         `json:"amount,omitempty"`
	Method          *payment.Method `json:"payment_method,omitempty"`
	ReferenceNumber *string         `json:"reference_number,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

type reverseRequest struct {
	Reason string `json:"reason"`
}

// Payments is the payment endpoint group.
type Payments struct {
	c *Client
}

// Payments returns the payment endpoints.
func (c *Client) Payments() *Payments { return &Payments{c: c} }

var _ payment.Repository = (*Payments)(nil)

func (r *Payments) Create(ctx context.Context, req payment.Request) (*payment.Payment, error) {
	body := paymentRequest{
		CustomerID:      req.CustomerID,
		Amount:          number(req.Amount),
		Method:          req.Method,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	}
	var d paymentDTO
	if err := r.c.call(ctx, http.MethodPost, "/payments", nil, body, &d); err != nil {
		return nil, errors.Wrap(err, "create payment")
	}
	return d.domain(), nil
}

func (r *Payments) Get(ctx context.Context, id int64) (*payment.Payment, error) {
	var d paymentDTO
	if err := r.c.call(ctx, http.MethodGet, idPath("/payments", id), nil, nil, &d); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, errors.Wrapf(payment.ErrNotFound, "id %d", id)
		}
		return nil, errors.Wrapf(err, "get payment %d", id)
	}
	return d.domain(), nil
}

// Update sends only the fields set in req.
func (r *Payments) Update(ctx context.Context, id int64, req payment.UpdateRequest) (*payment.Payment, error) {
	body := paymentPatch{
		Method:          req.Method,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	}
	if req.Amount != nil {
		amt := number(*req.Amount)
		body.Amount = &amt
	}
	var d paymentDTO
	if err := r.c.call(ctx, http.MethodPatch, idPath("/payments", id), nil, body, &d); err != nil {
		return nil, errors.Wrapf(err, "update payment %d", id)
	}
	return d.domain(), nil
}

// Reverse asks the backend to reverse payment id and returns the reversal.
func (r *Payments) Reverse(ctx context.Context, id int64, reason string) (*payment.Payment, error) {
	var d paymentDTO
	if err := r.c.call(ctx, http.MethodPost, idPath("/payments", id)+"/reverse", nil, reverseRequest{Reason: reason}, &d); err != nil {
		return nil, errors.Wrapf(err, "reverse payment %d", id)
	}
	p := d.domain()
	if p.ReversalOf == 0 && p.ID != id {
		p.ReversalOf = id
	}
	return p, nil
}

func (r *Payments) Delete(ctx context.Context, id int64) error {
	return r.c.exec(ctx, http.MethodDelete, idPath("/payments", id), "delete payment")
}

func (r *Payments) Restore(ctx context.Context, id int64) error {
	return r.c.exec(ctx, http.MethodPatch, idPath("/payments", id)+"/restore", "restore payment")
}
