// Package dashboard gathers the pre-aggregated business KPIs the backend
// computes for a date range.
package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/salesledger/internal/domain/period"
)

// KPIs are the headline figures for a period.
type KPIs struct {
	GrossRevenue    decimal.Decimal
	CashCollected   decimal.Decimal
	OutstandingDebt decimal.Decimal
	TotalDiscounts  decimal.Decimal
	ActiveCustomers int
	Period          period.Range
}

// CashFlowPoint pairs the revenue and collected cash of one day.
type CashFlowPoint struct {
	Date    time.Time
	Revenue decimal.Decimal
	Cash    decimal.Decimal
}

// MethodShare is the amount collected through one payment method.
type MethodShare struct {
	Method string
	Amount decimal.Decimal
}

// CashFlow is the daily timeline plus the payment-method breakdown.
type CashFlow struct {
	Timeline []CashFlowPoint
	Methods  []MethodShare
}

// RiskMetrics counts operations worth an operator's attention.
type RiskMetrics struct {
	ReversedOrVoidedPayments int
	DeletedOrders            int
	ModifiedOrders           int
}

// ActivityLog is one suspicious audit event.
type ActivityLog struct {
	ID         int64
	Action     string
	EntityType string
	EntityID   int64
	User       string
	Date       time.Time
}

// Alerts are the operational alerts for a period.
type Alerts struct {
	Risk   RiskMetrics
	Recent []ActivityLog
}

// RiskLevel grades a debtor.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// Debtor is a customer with an outstanding balance.
type Debtor struct {
	CustomerID           int64
	Name                 string
	Phone                string
	TotalOrders          decimal.Decimal
	TotalPaid            decimal.Decimal
	OutstandingBalance   decimal.Decimal
	LastPaymentDate      *time.Time
	DaysSinceLastPayment int
	RiskLevel            RiskLevel
}

// CustomerDebt groups debtors by payment behaviour.
type CustomerDebt struct {
	TopDebtors        []Debtor
	SeverelyOverdue   []Debtor
	RegularGoodPayers []Debtor
}

// TopProduct is a best-selling product for a period.
type TopProduct struct {
	ProductID       int64
	Name            string
	SKU             string
	QuantitySold    int64
	Revenue         decimal.Decimal
	DiscountsOnItem decimal.Decimal
}

// Source provides the backend dashboard aggregates.
type Source interface {
	KPIs(ctx context.Context, r period.Range) (*KPIs, error)
	CashFlow(ctx context.Context, r period.Range) (*CashFlow, error)
	Alerts(ctx context.Context, r period.Range) (*Alerts, error)
	CustomerDebt(ctx context.Context, limit int) (*CustomerDebt, error)
	TopProducts(ctx context.Context, r period.Range, limit int) ([]TopProduct, error)
}
