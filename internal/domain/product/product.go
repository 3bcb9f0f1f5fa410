package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/salesledger/internal/domain/page"
	"github.com/xenking/salesledger/internal/validate"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for sale.
type Product struct {
	ID           int64
	Name         string
	SKU          string
	DefaultPrice decimal.Decimal
	Active       bool
	Deleted      bool
	CreatedBy    string
	DeletedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Form is the create/update input of a product.
type Form struct {
	Name         string          `json:"name" validate:"required,min=2"`
	SKU          string          `json:"sku" validate:"required,min=2"`
	DefaultPrice decimal.Decimal `json:"default_price" validate:"gte=0"`
	Active       bool            `json:"is_active"`
}

// Validate checks the form field by field.
func (f Form) Validate() error {
	return validate.Struct(f)
}

// Repository defines the backend operations on the product catalog.
type Repository interface {
	List(ctx context.Context, q page.Query) (*page.Result[Product], error)
	Get(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, f Form) (*Product, error)
	Update(ctx context.Context, id int64, f Form) (*Product, error)
	Delete(ctx context.Context, id int64) error
}
