package order

import "github.com/shopspring/decimal"

// Invoice is the printable summary of a freshly created order.
type Invoice struct {
	// StatementValue is the order value before discount.
	StatementValue decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
	TotalQuantity  int
	// Remaining is the unpaid part of this order.
	Remaining decimal.Decimal
	// PreviousBalance is CurrentBalance minus Remaining. Whether the backend's
	// current balance already includes this order is not defined by the
	// backend contract, so this figure is informational only.
	PreviousBalance decimal.Decimal
	CurrentBalance  decimal.Decimal
}

// InvoiceFor derives the invoice figures from a backend order.
func InvoiceFor(o *Order) Invoice {
	inv := Invoice{
		StatementValue: o.DiscountAmount.Add(o.Total),
		Discount:       o.DiscountAmount,
		Total:          o.Total,
		Remaining:      o.Balance,
	}
	for _, it := range o.Items {
		inv.TotalQuantity += it.Quantity
	}
	if o.CurrentTotalBalance != nil {
		inv.CurrentBalance = *o.CurrentTotalBalance
		inv.PreviousBalance = o.CurrentTotalBalance.Sub(o.Balance)
	}
	return inv
}
