package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/salesledger/internal/domain/page"
	"github.com/xenking/salesledger/internal/validate"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// Customer is a buyer with a running account at the business.
type Customer struct {
	ID      int64
	Name    string
	Phone   string
	Email   string
	Address string

	// Aggregates derived by the backend from the ledger.
	TotalOrders        decimal.Decimal
	TotalPaid          decimal.Decimal
	OutstandingBalance decimal.Decimal

	Deleted   bool
	CreatedBy string
	CreatedAt time.Time
}

// Form is the create/update input of a customer.
type Form struct {
	Name    string `json:"name" validate:"required,min=2"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Address string `json:"address,omitempty"`
}

// Validate checks the form field by field.
func (f Form) Validate() error {
	return validate.Struct(f)
}

// PricingHistoryItem is the last price a customer paid for a product.
type PricingHistoryItem struct {
	ProductID   int64
	ProductName string
	SKU         string
	LastPrice   decimal.Decimal
	LastSoldAt  time.Time
}

// Repository defines the backend operations on customers.
type Repository interface {
	List(ctx context.Context, q page.Query) (*page.Result[Customer], error)
	Get(ctx context.Context, id int64) (*Customer, error)
	Create(ctx context.Context, f Form) (*Customer, error)
	Update(ctx context.Context, id int64, f Form) (*Customer, error)
	Delete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	PricingHistory(ctx context.Context, id int64) ([]PricingHistoryItem, error)
}
