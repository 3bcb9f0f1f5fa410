package console

import (
	"context"

	"github.com/xenking/salesledger/internal/client"
	"github.com/xenking/salesledger/internal/domain/dashboard"
	"github.com/xenking/salesledger/internal/domain/ledger"
	"github.com/xenking/salesledger/internal/domain/period"
	"github.com/xenking/salesledger/internal/session"
	"github.com/xenking/salesledger/pkg/httpmiddleware"
)

type bearerKey struct{}

func withBearer(ctx context.Context, token string) context.Context {
	ctx = context.WithValue(ctx, bearerKey{}, token)
	if id := httpmiddleware.RequestIDFromContext(ctx); id != "" {
		ctx = client.WithRequestID(ctx, id)
	}
	return ctx
}

// upstream forwards every call with the caller's own bearer token, so the
// backend enforces its permissions per user.
type upstream struct {
	base *client.Client
}

var (
	_ ledger.Source    = upstream{}
	_ dashboard.Source = upstream{}
)

func (u upstream) as(ctx context.Context) *client.Client {
	token, _ := ctx.Value(bearerKey{}).(string)
	return u.base.WithCredentials(session.StaticToken(token))
}

func (u upstream) FinancialHistory(ctx context.Context, customerID int64, r period.Range) (*ledger.History, error) {
	return u.as(ctx).FinancialHistory(ctx, customerID, r)
}

func (u upstream) DeletedHistory(ctx context.Context, customerID int64) (*ledger.DeletedHistory, error) {
	return u.as(ctx).DeletedHistory(ctx, customerID)
}

func (u upstream) UpdateHistory(ctx context.Context, customerID int64) (*ledger.UpdateHistory, error) {
	return u.as(ctx).UpdateHistory(ctx, customerID)
}

func (u upstream) KPIs(ctx context.Context, r period.Range) (*dashboard.KPIs, error) {
	return u.as(ctx).KPIs(ctx, r)
}

func (u upstream) CashFlow(ctx context.Context, r period.Range) (*dashboard.CashFlow, error) {
	return u.as(ctx).CashFlow(ctx, r)
}

func (u upstream) Alerts(ctx context.Context, r period.Range) (*dashboard.Alerts, error) {
	return u.as(ctx).Alerts(ctx, r)
}

func (u upstream) CustomerDebt(ctx context.Context, limit int) (*dashboard.CustomerDebt, error) {
	return u.as(ctx).CustomerDebt(ctx, limit)
}

func (u upstream) TopProducts(ctx context.Context, r period.Range, limit int) ([]dashboard.TopProduct, error) {
	return u.as(ctx).TopProducts(ctx, r, limit)
}
