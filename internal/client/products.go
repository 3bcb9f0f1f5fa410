package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/salesledger/internal/domain/page"
	"github.com/xenking/salesledger/internal/domain/product"
)

type productDTO struct {
	ID           flexID          `json:"id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	DefaultPrice decimal.Decimal `json:"default_price"`
	IsActive     bool            `json:"is_active"`
	IsDeleted    bool            `json:"is_deleted"`
	CreatedBy    *actor          `json:"created_by"`
	DeletedBy    *actor          `json:"deleted_by"`
	CreatedAt    wireTime        `json:"created_at"`
	UpdatedAt    wireTime        `json:"updated_at"`
	DeletedAt    wireTime        `json:"deleted_at"`
}

func (d productDTO) domain() product.Product {
	return product.Product{
		ID:           int64(d.ID),
		Name:         d.Name,
		SKU:          d.SKU,
		DefaultPrice: d.DefaultPrice,
		Active:       d.IsActive,
		Deleted:      d.IsDeleted,
		CreatedBy:    d.CreatedBy.name(),
		DeletedBy:    d.DeletedBy.name(),
		CreatedAt:    d.CreatedAt.Time,
		UpdatedAt:    d.UpdatedAt.Time,
		DeletedAt:    d.DeletedAt.ptr(),
	}
}

type productRequest struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	DefaultPrice number `json:"default_price"`
	IsActive     bool   `json:"is_active"`
}

func newProductRequest(f product.Form) productRequest {
	return productRequest{Name: f.Name, SKU: f.SKU, DefaultPrice: number(f.DefaultPrice), IsActive: f.Active}
}

// Products is the product catalog endpoint group.
type Products struct {
	c *Client
}

// Products returns the product endpoints.
func (c *Client) Products() *Products { return &Products{c: c} }

var _ product.Repository = (*Products)(nil)

func (r *Products) List(ctx context.Context, q page.Query) (*page.Result[product.Product], error) {
	q = q.Normalize()
	v := pageValues(q)
	v.Set("is_deleted", strconv.FormatBool(q.Deleted))
	return list(ctx, r.c, "/products", "products", v, productDTO.domain)
}

func (r *Products) Get(ctx context.Context, id int64) (*product.Product, error) {
	var d productDTO
	if err := r.c.call(ctx, http.MethodGet, idPath("/products", id), nil, nil, &d); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, errors.Wrapf(product.ErrNotFound, "id %d", id)
		}
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	v := d.domain()
	return &v, nil
}

func (r *Products) Create(ctx context.Context, f product.Form) (*product.Product, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var d productDTO
	if err := r.c.call(ctx, http.MethodPost, "/products", nil, newProductRequest(f), &d); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	v := d.domain()
	return &v, nil
}

func (r *Products) Update(ctx context.Context, id int64, f product.Form) (*product.Product, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var d productDTO
	if err := r.c.call(ctx, http.MethodPut, idPath("/products", id), nil, newProductRequest(f), &d); err != nil {
		return nil, errors.Wrapf(err, "update product %d", id)
	}
	v := d.domain()
	return &v, nil
}

func (r *Products) Delete(ctx context.Context, id int64) error {
	return r.c.exec(ctx, http.MethodDelete, idPath("/products", id), "delete product")
}
