package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/salesledger/internal/domain/payment"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	byID       map[int64]*Order
	lastCreate *CreateRequest
	deletedID  int64
	restoredID int64
	err        error
}

func (m *mockOrderRepo) Create(_ context.Context, req CreateRequest) (*Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastCreate = &req
	q, err := Build(req.Items, req.Discount)
	if err != nil {
		return nil, err
	}
	return &Order{ID: 1, CustomerID: req.CustomerID, Items: q.Items, Total: q.Total, Balance: q.Total, Status: StatusActive}, nil
}

func (m *mockOrderRepo) Get(_ context.Context, id int64) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return o, nil
}

func (m *mockOrderRepo) Update(_ context.Context, id int64, _ UpdateRequest) (*Order, error) {
	return m.byID[id], m.err
}

func (m *mockOrderRepo) Delete(_ context.Context, id int64) error {
	m.deletedID = id
	return m.err
}

func (m *mockOrderRepo) Restore(_ context.Context, id int64) error {
	m.restoredID = id
	return m.err
}

// --- Helpers ---

func line(qty int, price string) LineInput {
	return LineInput{ProductID: 1, ProductName: "Widget", Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// --- Builder ---

func TestBuild_FixedDiscount(t *testing.T) {
	q, err := Build([]LineInput{line(2, "50"), line(1, "30")}, &Discount{Amount: dec("10"), Type: DiscountFixed})
	require.NoError(t, err)

	assert.True(t, dec("130").Equal(q.Subtotal), "subtotal %s", q.Subtotal)
	assert.True(t, dec("120").Equal(q.Total), "total %s", q.Total)
	assert.True(t, dec("10").Equal(q.Discount))
	assert.True(t, dec("100").Equal(q.Items[0].Subtotal))
	assert.True(t, dec("30").Equal(q.Items[1].Subtotal))
}

func TestBuild_PercentageDiscount(t *testing.T) {
	q, err := Build([]LineInput{line(3, "33.33")}, &Discount{Amount: dec("15"), Type: DiscountPercentage})
	require.NoError(t, err)

	// 99.99 * 0.85 = 84.9915
	assert.True(t, dec("99.99").Equal(q.Subtotal))
	assert.True(t, dec("84.99").Equal(q.Total), "total %s", q.Total)
	assert.True(t, dec("15").Equal(q.Discount))
}

func TestBuild_NoDiscount(t *testing.T) {
	q, err := Build([]LineInput{line(4, "2.50")}, nil)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(q.Total))
	assert.True(t, q.Discount.IsZero())
}

func TestBuild_TotalNeverNegative(t *testing.T) {
	q, err := Build([]LineInput{line(1, "20")}, &Discount{Amount: dec("50"), Type: DiscountFixed})
	require.NoError(t, err)
	assert.True(t, q.Total.IsZero())
	assert.True(t, dec("20").Equal(q.Discount), "discount capped at subtotal")

	q, err = Build([]LineInput{line(1, "20")}, &Discount{Amount: dec("100"), Type: DiscountPercentage})
	require.NoError(t, err)
	assert.True(t, q.Total.IsZero())
}

func TestBuild_ZeroPriceAllowed(t *testing.T) {
	q, err := Build([]LineInput{line(1, "0")}, nil)
	require.NoError(t, err)
	assert.True(t, q.Total.IsZero())
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(nil, nil)
	require.ErrorIs(t, err, ErrEmptyItems)

	_, err = Build([]LineInput{line(1, "5"), line(0, "5")}, nil)
	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, 1, iqErr.Line)

	_, err = Build([]LineInput{line(1, "-1")}, nil)
	var ipErr *InvalidPriceError
	require.ErrorAs(t, err, &ipErr)

	_, err = Build([]LineInput{line(1, "5")}, &Discount{Amount: dec("101"), Type: DiscountPercentage})
	require.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = Build([]LineInput{line(1, "5")}, &Discount{Amount: dec("-1"), Type: DiscountFixed})
	require.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = Build([]LineInput{line(1, "5")}, &Discount{Amount: dec("1"), Type: "BOGO"})
	require.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestParseDiscountType(t *testing.T) {
	dt, err := ParseDiscountType("percentage")
	require.NoError(t, err)
	assert.Equal(t, DiscountPercentage, dt)

	_, err = ParseDiscountType("nope")
	require.ErrorIs(t, err, ErrInvalidDiscount)
}

// --- Invoice ---

func TestInvoiceFor(t *testing.T) {
	current := dec("500")
	o := &Order{
		Items:               []Item{{Quantity: 2}, {Quantity: 3}},
		DiscountAmount:      dec("10"),
		Total:               dec("120"),
		Balance:             dec("70"),
		CurrentTotalBalance: &current,
	}

	inv := InvoiceFor(o)
	assert.True(t, dec("130").Equal(inv.StatementValue))
	assert.Equal(t, 5, inv.TotalQuantity)
	assert.True(t, dec("430").Equal(inv.PreviousBalance))
	assert.True(t, dec("500").Equal(inv.CurrentBalance))
}

func TestInvoiceFor_WithoutCurrentBalance(t *testing.T) {
	inv := InvoiceFor(&Order{Total: dec("10"), Balance: dec("10")})
	assert.True(t, inv.PreviousBalance.IsZero())
	assert.True(t, inv.CurrentBalance.IsZero())
}

// --- Service ---

func TestPlaceOrder_ValidatesBeforeSending(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(repo)

	_, err := svc.PlaceOrder(context.Background(), CreateRequest{CustomerID: 3})
	require.ErrorIs(t, err, ErrEmptyItems)
	assert.Nil(t, repo.lastCreate)
}

func TestPlaceOrder_InvalidPayment(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(repo)

	_, err := svc.PlaceOrder(context.Background(), CreateRequest{
		CustomerID: 3,
		Items:      []LineInput{line(1, "10")},
		Payment:    &payment.Request{Amount: decimal.Zero, Method: payment.MethodCash},
	})
	require.Error(t, err)
	assert.Nil(t, repo.lastCreate)
}

func TestPlaceOrder_Success(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(repo)

	res, err := svc.PlaceOrder(context.Background(), CreateRequest{
		CustomerID: 3,
		Items:      []LineInput{line(2, "50"), line(1, "30")},
		Discount:   &Discount{Amount: dec("10"), Type: DiscountFixed},
		Payment:    &payment.Request{Amount: dec("50"), Method: payment.MethodInstapay},
	})
	require.NoError(t, err)
	assert.True(t, dec("120").Equal(res.Order.Total))
	assert.True(t, dec("120").Equal(res.Quote.Total))
	require.NotNil(t, repo.lastCreate.Payment)
	assert.Equal(t, int64(3), repo.lastCreate.Payment.CustomerID)
}

func TestPlaceOrder_RepoError(t *testing.T) {
	repo := &mockOrderRepo{err: errors.New("boom")}
	svc := NewService(repo)

	_, err := svc.PlaceOrder(context.Background(), CreateRequest{CustomerID: 3, Items: []LineInput{line(1, "1")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

func TestDeleteRestore(t *testing.T) {
	repo := &mockOrderRepo{byID: map[int64]*Order{
		1: {ID: 1, Status: StatusActive},
		2: {ID: 2, Status: StatusDeleted},
	}}
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, 1))
	assert.Equal(t, int64(1), repo.deletedID)
	require.ErrorIs(t, svc.Delete(ctx, 2), ErrAlreadyDeleted)

	require.NoError(t, svc.Restore(ctx, 2))
	assert.Equal(t, int64(2), repo.restoredID)
	require.ErrorIs(t, svc.Restore(ctx, 1), ErrNotDeleted)
}

func TestUpdateItems_Validates(t *testing.T) {
	svc := NewService(&mockOrderRepo{})
	_, err := svc.UpdateItems(context.Background(), 1, UpdateRequest{})
	require.ErrorIs(t, err, ErrEmptyItems)
}
