package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/salesledger/internal/domain/payment"
)

// DiscountType enumerates the supported order-level discount strategies.
type DiscountType string

const (
	// DiscountFixed subtracts a fixed monetary amount from the subtotal.
	DiscountFixed DiscountType = "FIXED"
	// DiscountPercentage subtracts a percentage of the subtotal.
	DiscountPercentage DiscountType = "PERCENTAGE"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusActive   Status = "active"
	StatusDeleted  Status = "deleted"
	StatusRestored Status = "restored"
)

// Discount is an order-level discount as entered by the operator.
type Discount struct {
	Amount decimal.Decimal
	Type   DiscountType
}

// Item represents a single line item in an order.
type Item struct {
	ID          int64
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// InvoiceRef identifies the invoice the backend issued for an order.
type InvoiceRef struct {
	ID     int64
	Number string
	Status string
}

// PaymentRef is the payment recorded together with an order, if any.
type PaymentRef struct {
	ID     int64
	Amount decimal.Decimal
	Method payment.Method
}

// Order represents a customer order with pricing, discount and settlement
// details as reported by the backend.
type Order struct {
	ID         int64
	CustomerID int64
	Items      []Item
	Discount   *Discount
	// DiscountAmount is the money value the discount removed from the subtotal.
	DiscountAmount decimal.Decimal
	Subtotal       decimal.Decimal
	Total          decimal.Decimal
	PaidAmount     decimal.Decimal
	Balance        decimal.Decimal
	Status         Status
	Payment        *PaymentRef
	Invoice        *InvoiceRef
	// CurrentTotalBalance is the customer's outstanding balance the backend
	// reported alongside this order. Nil when the backend omitted it.
	CurrentTotalBalance *decimal.Decimal
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Active reports whether the order contributes to the customer balance.
func (o *Order) Active() bool {
	return o.Status != StatusDeleted
}

// LineInput is one requested line of a new or edited order.
type LineInput struct {
	// ID is set when editing an existing line.
	ID          int64
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// CreateRequest holds the input for placing an order.
type CreateRequest struct {
	CustomerID int64
	Items      []LineInput
	Discount   *Discount
	// Payment is an optional payment taken together with the order.
	Payment *payment.Request
}

// UpdateRequest holds the replacement line items of an existing order.
type UpdateRequest struct {
	Items []LineInput
}

// Repository defines the backend operations on orders.
type Repository interface {
	Create(ctx context.Context, req CreateRequest) (*Order, error)
	Get(ctx context.Context, id int64) (*Order, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Order, error)
	Delete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
}
