package order

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Sentinel errors for order validation.
var (
	ErrEmptyItems      = errors.New("at least one item is required")
	ErrInvalidDiscount = errors.New("invalid discount")
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	Line     int
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("line %d: quantity must be at least 1, got %d", e.Line+1, e.Quantity)
}

// InvalidPriceError indicates a line item has a negative unit price.
type InvalidPriceError struct {
	Line  int
	Price decimal.Decimal
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("line %d: unit price must be non-negative, got %s", e.Line+1, e.Price)
}

// Quote is the priced result of composing an order.
type Quote struct {
	Items    []Item
	Subtotal decimal.Decimal
	// Discount is the amount actually removed from the subtotal.
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Build validates the lines and prices the order. The total is the subtotal
// minus the discount, floored at zero and rounded to 2 decimal places.
func Build(lines []LineInput, discount *Discount) (*Quote, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyItems
	}
	if err := validateDiscount(discount); err != nil {
		return nil, err
	}

	items := make([]Item, len(lines))
	subtotal := zero
	for i, l := range lines {
		if l.Quantity < 1 {
			return nil, &InvalidQuantityError{Line: i, Quantity: l.Quantity}
		}
		if l.UnitPrice.IsNegative() {
			return nil, &InvalidPriceError{Line: i, Price: l.UnitPrice}
		}

		line := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		items[i] = Item{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    line.Round(2),
		}
		subtotal = subtotal.Add(line)
	}

	total := applyDiscount(subtotal, discount)
	if total.IsNegative() {
		total = zero
	}
	total = total.Round(2)
	subtotal = subtotal.Round(2)

	return &Quote{
		Items:    items,
		Subtotal: subtotal,
		Discount: subtotal.Sub(total),
		Total:    total,
	}, nil
}

func applyDiscount(subtotal decimal.Decimal, d *Discount) decimal.Decimal {
	if d == nil {
		return subtotal
	}
	switch d.Type {
	case DiscountPercentage:
		return subtotal.Sub(subtotal.Mul(d.Amount).Div(hundred))
	default:
		return subtotal.Sub(d.Amount)
	}
}

func validateDiscount(d *Discount) error {
	if d == nil {
		return nil
	}
	if d.Amount.IsNegative() {
		return errors.Wrapf(ErrInvalidDiscount, "amount %s is negative", d.Amount)
	}
	switch d.Type {
	case DiscountFixed:
	case DiscountPercentage:
		if d.Amount.GreaterThan(hundred) {
			return errors.Wrapf(ErrInvalidDiscount, "percentage %s exceeds 100", d.Amount)
		}
	default:
		return errors.Wrapf(ErrInvalidDiscount, "unsupported type %q", d.Type)
	}
	return nil
}

// ParseDiscountType accepts the backend spelling in any letter case.
func ParseDiscountType(s string) (DiscountType, error) {
	switch DiscountType(strings.ToUpper(s)) {
	case DiscountFixed:
		return DiscountFixed, nil
	case DiscountPercentage:
		return DiscountPercentage, nil
	default:
		return "", errors.Wrapf(ErrInvalidDiscount, "unsupported type %q", s)
	}
}
