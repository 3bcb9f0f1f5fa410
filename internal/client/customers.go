package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/salesledger/internal/domain/customer"
	"github.com/xenking/salesledger/internal/domain/page"
)

type customerDTO struct {
	ID                 flexID          `json:"id"`
	Name               string          `json:"name"`
	Phone              string          `json:"phone"`
	Email              *string         `json:"email"`
	Address            *string         `json:"address"`
	TotalOrders        decimal.Decimal `json:"total_orders"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	IsDeleted          bool            `json:"is_deleted"`
	CreatedBy          *actor          `json:"created_by"`
	CreatedAt          wireTime        `json:"created_at"`
}

func (d customerDTO) domain() customer.Customer {
	c := customer.Customer{
		ID:                 int64(d.ID),
		Name:               d.Name,
		Phone:              d.Phone,
		TotalOrders:        d.TotalOrders,
		TotalPaid:          d.TotalPaid,
		OutstandingBalance: d.OutstandingBalance,
		Deleted:            d.IsDeleted,
		CreatedBy:          d.CreatedBy.name(),
		CreatedAt:          d.CreatedAt.Time,
	}
	if d.Email != nil {
		c.Email = *d.Email
	}
	if d.Address != nil {
		c.Address = *d.Address
	}
	return c
}

type pricingDTO struct {
	ProductID   flexID          `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	LastPrice   decimal.Decimal `json:"last_price"`
	LastSoldAt  wireTime        `json:"last_sold_at"`
}

// Customers is the customer endpoint group.
type Customers struct {
	c *Client
}

// Customers returns the customer endpoints.
func (c *Client) Customers() *Customers { return &Customers{c: c} }

var _ customer.Repository = (*Customers)(nil)

func (r *Customers) List(ctx context.Context, q page.Query) (*page.Result[customer.Customer], error) {
	q = q.Normalize()
	v := pageValues(q)
	v.Set("is_deleted", strconv.FormatBool(q.Deleted))
	return list(ctx, r.c, "/customers", "customers", v, customerDTO.domain)
}

func (r *Customers) Get(ctx context.Context, id int64) (*customer.Customer, error) {
	var d customerDTO
	if err := r.c.call(ctx, http.MethodGet, idPath("/customers", id), nil, nil, &d); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, errors.Wrapf(customer.ErrNotFound, "id %d", id)
		}
		return nil, errors.Wrapf(err, "get customer %d", id)
	}
	v := d.domain()
	return &v, nil
}

func (r *Customers) Create(ctx context.Context, f customer.Form) (*customer.Customer, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var d customerDTO
	if err := r.c.call(ctx, http.MethodPost, "/customers", nil, f, &d); err != nil {
		return nil, errors.Wrap(err, "create customer")
	}
	v := d.domain()
	return &v, nil
}

func (r *Customers) Update(ctx context.Context, id int64, f customer.Form) (*customer.Customer, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var d customerDTO
	if err := r.c.call(ctx, http.MethodPut, idPath("/customers", id), nil, f, &d); err != nil {
		return nil, errors.Wrapf(err, "update customer %d", id)
	}
	v := d.domain()
	return &v, nil
}

func (r *Customers) Delete(ctx context.Context, id int64) error {
	return r.c.exec(ctx, http.MethodDelete, idPath("/customers", id), "delete customer")
}

func (r *Customers) Restore(ctx context.Context, id int64) error {
	return r.c.exec(ctx, http.MethodPatch, idPath("/customers", id)+"/restore", "restore customer")
}

// PricingHistory lists the last price the customer paid per product.
func (r *Customers) PricingHistory(ctx context.Context, id int64) ([]customer.PricingHistoryItem, error) {
	var ds []pricingDTO
	if err := r.c.call(ctx, http.MethodGet, idPath("/customers", id)+"/pricing-history", nil, nil, &ds); err != nil {
		return nil, errors.Wrapf(err, "pricing history of customer %d", id)
	}
	out := make([]customer.PricingHistoryItem, len(ds))
	for i, d := range ds {
		out[i] = customer.PricingHistoryItem{
			ProductID:   int64(d.ProductID),
			ProductName: d.ProductName,
			SKU:         d.SKU,
			LastPrice:   d.LastPrice,
			LastSoldAt:  d.LastSoldAt.Time,
		}
	}
	return out, nil
}
