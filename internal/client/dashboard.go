package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/salesledger/internal/domain/dashboard"
	"github.com/xenking/salesledger/internal/domain/period"
)

var _ dashboard.Source = (*Client)(nil)

func rangeValues(r period.Range) url.Values {
	q := url.Values{}
	if s := r.StartString(); s != "" {
		q.Set("startDate", s)
	}
	if s := r.EndString(); s != "" {
		q.Set("endDate", s)
	}
	return q
}

type kpisDTO struct {
	GrossRevenue    decimal.Decimal `json:"grossRevenue"`
	CashCollected   decimal.Decimal `json:"cashCollected"`
	OutstandingDebt decimal.Decimal `json:"outstandingDebt"`
	TotalDiscounts  decimal.Decimal `json:"totalDiscounts"`
	ActiveCustomers int             `json:"activeCustomers"`
	Period          struct {
		StartDate wireTime `json:"startDate"`
		EndDate   wireTime `json:"endDate"`
	} `json:"period"`
}

func (c *Client) KPIs(ctx context.Context, r period.Range) (*dashboard.KPIs, error) {
	var d kpisDTO
	if err := c.call(ctx, http.MethodGet, "/dashboard/kpis", rangeValues(r), nil, &d); err != nil {
		return nil, errors.Wrap(err, "kpis")
	}
	k := &dashboard.KPIs{
		GrossRevenue:    d.GrossRevenue,
		CashCollected:   d.CashCollected,
		OutstandingDebt: d.OutstandingDebt,
		TotalDiscounts:  d.TotalDiscounts,
		ActiveCustomers: d.ActiveCustomers,
		Period:          period.Range{Start: d.Period.StartDate.Time, End: d.Period.EndDate.Time},
	}
	if k.Period.IsOpen() {
		k.Period = r
	}
	return k, nil
}

type cashFlowDTO struct {
	Timeline []struct {
		Date    wireTime        `json:"date"`
		Revenue decimal.Decimal `json:"revenue"`
		Cash    decimal.Decimal `json:"cash"`
	} `json:"timeline"`
	PaymentMethods []struct {
		Method string          `json:"method"`
		Amount decimal.Decimal `json:"amount"`
	} `json:"paymentMethods"`
}

func (c *Client) CashFlow(ctx context.Context, r period.Range) (*dashboard.CashFlow, error) {
	var d cashFlowDTO
	if err := c.call(ctx, http.MethodGet, "/dashboard/financials/cash-flow", rangeValues(r), nil, &d); err != nil {
		return nil, errors.Wrap(err, "cash flow")
	}
	cf := &dashboard.CashFlow{
		Timeline: make([]dashboard.CashFlowPoint, len(d.Timeline)),
		Methods:  make([]dashboard.MethodShare, len(d.PaymentMethods)),
	}
	for i, p := range d.Timeline {
		cf.Timeline[i] = dashboard.CashFlowPoint{Date: p.Date.Time, Revenue: p.Revenue, Cash: p.Cash}
	}
	for i, m := range d.PaymentMethods {
		cf.Methods[i] = dashboard.MethodShare{Method: m.Method, Amount: m.Amount}
	}
	return cf, nil
}

type alertsDTO struct {
	RiskMetrics struct {
		ReversedOrVoidedPaymentsCount int `json:"reversedOrVoidedPaymentsCount"`
		DeletedOrdersCount            int `json:"deletedOrdersCount"`
		ModifiedOrdersCount           int `json:"modifiedOrdersCount"`
	} `json:"riskMetrics"`
	Recent []struct {
		ID         flexID   `json:"id"`
		Action     string   `json:"action"`
		EntityType string   `json:"entityType"`
		EntityID   flexID   `json:"entityId"`
		User       string   `json:"user"`
		Date       wireTime `json:"date"`
	} `json:"recentSuspiciousActivityLogs"`
}

func (c *Client) Alerts(ctx context.Context, r period.Range) (*dashboard.Alerts, error) {
	var d alertsDTO
	if err := c.call(ctx, http.MethodGet, "/dashboard/operations/alerts", rangeValues(r), nil, &d); err != nil {
		return nil, errors.Wrap(err, "alerts")
	}
	a := &dashboard.Alerts{
		Risk: dashboard.RiskMetrics{
			ReversedOrVoidedPayments: d.RiskMetrics.ReversedOrVoidedPaymentsCount,
			DeletedOrders:            d.RiskMetrics.DeletedOrdersCount,
			ModifiedOrders:           d.RiskMetrics.ModifiedOrdersCount,
		},
		Recent: make([]dashboard.ActivityLog, len(d.Recent)),
	}
	for i, l := range d.Recent {
		a.Recent[i] = dashboard.ActivityLog{
			ID:         int64(l.ID),
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   int64(l.EntityID),
			User:       l.User,
			Date:       l.Date.Time,
		}
	}
	return a, nil
}

type debtorDTO struct {
	CustomerID           flexID          `json:"customerId"`
	Name                 string          `json:"name"`
	Phone                string          `json:"phone"`
	TotalOrders          decimal.Decimal `json:"totalOrders"`
	TotalPaid            decimal.Decimal `json:"totalPaid"`
	OutstandingBalance   decimal.Decimal `json:"outstandingBalance"`
	LastPaymentDate      wireTime        `json:"lastPaymentDate"`
	DaysSinceLastPayment int             `json:"daysSinceLastPayment"`
	RiskLevel            string          `json:"riskLevel"`
}

func debtors(ds []debtorDTO) []dashboard.Debtor {
	out := make([]dashboard.Debtor, len(ds))
	for i, d := range ds {
		out[i] = dashboard.Debtor{
			CustomerID:           int64(d.CustomerID),
			Name:                 d.Name,
			Phone:                d.Phone,
			TotalOrders:          d.TotalOrders,
			TotalPaid:            d.TotalPaid,
			OutstandingBalance:   d.OutstandingBalance,
			LastPaymentDate:      d.LastPaymentDate.ptr(),
			DaysSinceLastPayment: d.DaysSinceLastPayment,
			RiskLevel:            dashboard.RiskLevel(d.RiskLevel),
		}
	}
	return out
}

func (c *Client) CustomerDebt(ctx context.Context, limit int) (*dashboard.CustomerDebt, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	var d struct {
		TopDebtors        []debtorDTO `json:"topDebtors"`
		SeverelyOverdue   []debtorDTO `json:"severelyOverdue"`
		RegularGoodPayers []debtorDTO `json:"regularGoodPayers"`
	}
	if err := c.call(ctx, http.MethodGet, "/dashboard/customers/debt", q, nil, &d); err != nil {
		return nil, errors.Wrap(err, "customer debt")
	}
	return &dashboard.CustomerDebt{
		TopDebtors:        debtors(d.TopDebtors),
		SeverelyOverdue:   debtors(d.SeverelyOverdue),
		RegularGoodPayers: debtors(d.RegularGoodPayers),
	}, nil
}

type topProductDTO struct {
	ProductID                 flexID          `json:"productId"`
	Name                      string          `json:"name"`
	SKU                       string          `json:"sku"`
	TotalQuantitySold         int64           `json:"totalQuantitySold"`
	TotalRevenue              decimal.Decimal `json:"totalRevenue"`
	TotalDiscountsGivenOnItem decimal.Decimal `json:"totalDiscountsGivenOnItem"`
}

func (c *Client) TopProducts(ctx context.Context, r period.Range, limit int) ([]dashboard.TopProduct, error) {
	q := rangeValues(r)
	q.Set("limit", strconv.Itoa(limit))
	var ds []topProductDTO
	if err := c.call(ctx, http.MethodGet, "/dashboard/products/top-performers", q, nil, &ds); err != nil {
		return nil, errors.Wrap(err, "top products")
	}
	out := make([]dashboard.TopProduct, len(ds))
	for i, d := range ds {
		out[i] = dashboard.TopProduct{
			ProductID:       int64(d.ProductID),
			Name:            d.Name,
			SKU:             d.SKU,
			QuantitySold:    d.TotalQuantitySold,
			Revenue:         d.TotalRevenue,
			DiscountsOnItem: d.TotalDiscountsGivenOnItem,
		}
	}
	return out, nil
}
