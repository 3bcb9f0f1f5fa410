package client

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/salesledger/internal/domain/order"
	"github.com/xenking/salesledger/internal/domain/payment"
)

type orderItemDTO struct {
	ID          flexID          `json:"id"`
	ProductID   flexID          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type orderPaymentDTO struct {
	ID     flexID          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

type orderInvoiceDTO struct {
	ID     flexID `json:"id"`
	Number string `json:"number"`
	Status string `json:"status"`
}

type orderDTO struct {
	ID                  flexID           `json:"id"`
	CustomerID          flexID           `json:"customer_id"`
	TotalAmount         decimal.Decimal  `json:"total_amount"`
	PaidAmount          decimal.Decimal  `json:"paid_amount"`
	Balance             decimal.Decimal  `json:"balance"`
	DiscountAmount      decimal.Decimal  `json:"discount_amount"`
	DiscountValue       decimal.Decimal  `json:"discount_value"`
	DiscountType        string           `json:"discount_type"`
	Items               []orderItemDTO   `json:"items"`
	IsDeleted           bool             `json:"is_deleted"`
	Status              string           `json:"status"`
	Payment             *orderPaymentDTO `json:"payment"`
	Invoice             *orderInvoiceDTO `json:"invoice"`
	CurrentTotalBalance *decimal.Decimal `json:"currentTotalBalance"`
	CreatedAt           wireTime         `json:"created_at"`
	UpdatedAt           wireTime         `json:"updated_at"`
}

func (d *orderDTO) domain() *order.Order {
	o := &order.Order{
		ID:                  int64(d.ID),
		CustomerID:          int64(d.CustomerID),
		Items:               make([]order.Item, len(d.Items)),
		DiscountAmount:      d.DiscountAmount,
		Total:               d.TotalAmount,
		PaidAmount:          d.PaidAmount,
		Balance:             d.Balance,
		Status:              order.StatusActive,
		CurrentTotalBalance: d.CurrentTotalBalance,
		CreatedAt:           d.CreatedAt.Time,
		UpdatedAt:           d.UpdatedAt.Time,
	}
	switch {
	case d.IsDeleted || d.Status == string(order.StatusDeleted):
		o.Status = order.StatusDeleted
	case d.Status == string(order.StatusRestored):
		o.Status = order.StatusRestored
	}

	for i, it := range d.Items {
		o.Items[i] = order.Item{
			ID:          int64(it.ID),
			ProductID:   int64(it.ProductID),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		}
		o.Subtotal = o.Subtotal.Add(it.Subtotal)
	}
	if d.DiscountType != "" {
		if t, err := order.ParseDiscountType(d.DiscountType); err == nil {
			o.Discount = &order.Discount{Amount: d.DiscountValue, Type: t}
		}
	}
	if d.Payment != nil {
		o.Payment = &order.PaymentRef{
			ID:     int64(d.Payment.ID),
			Amount: d.Payment.Amount,
			Method: payment.Method(d.Payment.Method),
		}
	}
	if d.Invoice != nil {
		o.Invoice = &order.InvoiceRef{ID: int64(d.Invoice.ID), Number: d.Invoice.Number, Status: d.Invoice.Status}
	}
	return o
}

type orderLineRequest struct {
	ID          int64  `json:"id,omitempty"`
	ProductID   int64  `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   number `json:"unit_price"`
}

type orderPaymentRequest struct {
	Amount          number         `json:"amount"`
	Method          payment.Method `json:"method"`
	ReferenceNumber string         `json:"reference_number,omitempty"`
	Notes           string         `json:"notes,omitempty"`
}

type createOrderRequest struct {
	CustomerID     int64                `json:"customer_id"`
	Items          []orderLineRequest   `json:"items"`
	DiscountAmount *number              `json:"discount_amount,omitempty"`
	DiscountType   order.DiscountType   `json:"discount_type,omitempty"`
	Payment        *orderPaymentRequest `json:"payment,omitempty"`
}

type updateOrderRequest struct {
	Items []orderLineRequest `json:"items"`
}

func lineRequests(lines []order.LineInput) []orderLineRequest {
	out := make([]orderLineRequest, len(lines))
	for i, l := range lines {
		out[i] = orderLineRequest{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   number(l.UnitPrice),
		}
	}
	return out
}

// Orders is the order endpoint group.
type Orders struct {
	c *Client
}

// Orders returns the order endpoints.
func (c *Client) Orders() *Orders { return &Orders{c: c} }

var _ order.Repository = (*Orders)(nil)

func (r *Orders) Create(ctx context.Context, req order.CreateRequest) (*order.Order, error) {
	body := createOrderRequest{
		CustomerID: req.CustomerID,
		Items:      lineRequests(req.Items),
	}
	if req.Discount != nil {
		amt := number(req.Discount.Amount)
		body.DiscountAmount = &amt
		body.DiscountType = req.Discount.Type
	}
	if p := req.Payment; p != nil {
		body.Payment = &orderPaymentRequest{
			Amount:          number(p.Amount),
			Method:          p.Method,
			ReferenceNumber: p.ReferenceNumber,
			Notes:           p.Notes,
		}
	}

	var d orderDTO
	if err := r.c.call(ctx, http.MethodPost, "/orders", nil, body, &d); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return d.domain(), nil
}

func (r *Orders) Get(ctx context.Context, id int64) (*order.Order, error) {
	var d orderDTO
	if err := r.c.call(ctx, http.MethodGet, idPath("/orders", id), nil, nil, &d); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, errors.Wrapf(order.ErrNotFound, "id %d", id)
		}
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	return d.domain(), nil
}

func (r *Orders) Update(ctx context.Context, id int64, req order.UpdateRequest) (*order.Order, error) {
	var d orderDTO
	body := updateOrderRequest{Items: lineRequests(req.Items)}
	if err := r.c.call(ctx, http.MethodPut, idPath("/orders", id), nil, body, &d); err != nil {
		return nil, errors.Wrapf(err, "update order %d", id)
	}
	return d.domain(), nil
}

func (r *Orders) Delete(ctx context.Context, id int64) error {
	return r.c.exec(ctx, http.MethodDelete, idPath("/orders", id), "delete order")
}

func (r *Orders) Restore(ctx context.Context, id int64) error {
	return r.c.exec(ctx, http.MethodPatch, idPath("/orders", id)+"/restore", "restore order")
}
