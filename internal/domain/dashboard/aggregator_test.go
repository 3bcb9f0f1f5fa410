package dashboard

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/salesledger/internal/domain/period"
)

type mockSource struct {
	calls     atomic.Int32
	lastLimit atomic.Int32
	alertsErr error
}

func (m *mockSource) KPIs(_ context.Context, r period.Range) (*KPIs, error) {
	m.calls.Add(1)
	return &KPIs{GrossRevenue: decimal.NewFromInt(1000), ActiveCustomers: 4, Period: r}, nil
}

func (m *mockSource) CashFlow(_ context.Context, _ period.Range) (*CashFlow, error) {
	m.calls.Add(1)
	return &CashFlow{Methods: []MethodShare{{Method: "CASH", Amount: decimal.NewFromInt(10)}}}, nil
}

func (m *mockSource) Alerts(_ context.Context, _ period.Range) (*Alerts, error) {
	m.calls.Add(1)
	if m.alertsErr != nil {
		return nil, m.alertsErr
	}
	return &Alerts{Risk: RiskMetrics{DeletedOrders: 2}}, nil
}

func (m *mockSource) CustomerDebt(_ context.Context, limit int) (*CustomerDebt, error) {
	m.calls.Add(1)
	m.lastLimit.Store(int32(limit))
	return &CustomerDebt{TopDebtors: []Debtor{{CustomerID: 1, RiskLevel: RiskHigh}}}, nil
}

func (m *mockSource) TopProducts(_ context.Context, _ period.Range, _ int) ([]TopProduct, error) {
	m.calls.Add(1)
	return []TopProduct{{ProductID: 9, QuantitySold: 3}}, nil
}

func TestSnapshot_FetchesEveryPanel(t *testing.T) {
	src := &mockSource{}
	r, err := period.Parse("2026-01-01", "2026-01-31")
	require.NoError(t, err)

	s, err := NewAggregator(src).Snapshot(context.Background(), r, 0)
	require.NoError(t, err)

	assert.Equal(t, int32(5), src.calls.Load())
	assert.Equal(t, int32(DefaultLimit), src.lastLimit.Load())
	assert.Equal(t, 4, s.KPIs.ActiveCustomers)
	assert.Equal(t, 2, s.Alerts.Risk.DeletedOrders)
	assert.Len(t, s.Debt.TopDebtors, 1)
	assert.Len(t, s.TopProducts, 1)
	assert.Equal(t, r, s.Range)
}

func TestSnapshot_PanelErrorFailsSnapshot(t *testing.T) {
	src := &mockSource{alertsErr: errors.New("boom")}
	_, err := NewAggregator(src).Snapshot(context.Background(), period.Range{}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alerts")
}

func TestSnapshot_InvalidRange(t *testing.T) {
	r := period.Range{}
	r2, err := period.Parse("2026-01-01", "")
	require.NoError(t, err)
	r.Start = r2.Start.AddDate(0, 1, 0)
	r.End = r2.Start

	_, err = NewAggregator(&mockSource{}).Snapshot(context.Background(), r, 5)
	require.ErrorIs(t, err, period.ErrInvertedRange)
}

func TestLegend(t *testing.T) {
	l := Legend([]MethodShare{
		{Method: "CASH", Amount: decimal.RequireFromString("85")},
		{Method: "CHEQUE", Amount: decimal.RequireFromString("85")},
		{Method: "INSTAPAY", Amount: decimal.RequireFromString("30")},
	})
	require.Len(t, l, 3)
	assert.Equal(t, "42.5%", l[0].Percent)
	assert.Equal(t, "42.5%", l[1].Percent)
	assert.Equal(t, "15%", l[2].Percent)
}

func TestLegend_ZeroTotal(t *testing.T) {
	l := Legend([]MethodShare{{Method: "CASH", Amount: decimal.Zero}})
	assert.Equal(t, "0%", l[0].Percent)
}
