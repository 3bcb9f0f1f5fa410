package state

import (
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/salesledger/internal/domain/category"
	"github.com/xenking/salesledger/internal/domain/customer"
	"github.com/xenking/salesledger/internal/domain/ledger"
	"github.com/xenking/salesledger/internal/domain/page"
)

func TestReduceLoading(t *testing.T) {
	s0 := State{}
	s1 := Reduce(s0, LoadStarted{View: ViewCustomerList})
	assert.True(t, s1.IsLoading(ViewCustomerList))
	assert.False(t, s0.IsLoading(ViewCustomerList), "previous state must not change")

	res := page.Result[customer.Customer]{
		Items:      []customer.Customer{{ID: 1, Name: "Acme"}},
		Pagination: page.Pagination{Total: 1, Page: 1, Limit: 10, TotalPages: 1},
	}
	s2 := Reduce(s1, CustomersLoaded{Result: res})
	assert.False(t, s2.IsLoading(ViewCustomerList))
	assert.True(t, s1.IsLoading(ViewCustomerList))
	require.Len(t, s2.Customers.Items, 1)
	assert.Equal(t, "Acme", s2.Customers.Items[0].Name)
}

func TestReduceErrors(t *testing.T) {
	s := Reduce(State{}, LoadStarted{View: ViewLedger})
	s = Reduce(s, LoadFailed{View: ViewLedger, Err: errors.New("boom")})
	assert.False(t, s.IsLoading(ViewLedger))
	assert.Equal(t, "boom", s.Error)

	s = Reduce(s, ErrorDismissed{})
	assert.Empty(t, s.Error)

	s = Reduce(s, ActionFailed{Err: errors.New("write failed")})
	assert.Equal(t, "write failed", s.Error)

	s = Reduce(s, MutationAcknowledged{Mutation: PaymentRecorded})
	assert.Empty(t, s.Error)
	assert.Equal(t, PaymentRecorded, s.LastMutation)
}

func TestReduceCustomerSwitchDropsFeeds(t *testing.T) {
	s := Reduce(State{}, CustomerLoaded{Customer: &customer.Customer{ID: 1}})
	s = Reduce(s, LedgerLoaded{Ledger: &ledger.CustomerLedger{CustomerID: 1}})
	s = Reduce(s, PricingLoaded{Items: []customer.PricingHistoryItem{{ProductName: "Tea"}}})

	same := Reduce(s, CustomerLoaded{Customer: &customer.Customer{ID: 1, Name: "renamed"}})
	assert.NotNil(t, same.Ledger)
	assert.Len(t, same.Pricing, 1)

	other := Reduce(s, CustomerLoaded{Customer: &customer.Customer{ID: 2}})
	assert.Nil(t, other.Ledger)
	assert.Nil(t, other.Pricing)

	closed := Reduce(s, CustomerClosed{})
	assert.Nil(t, closed.Customer)
	assert.Nil(t, closed.Ledger)
}

func TestReduceCategories(t *testing.T) {
	a := category.Category{ID: "a", NameEn: "Drinks"}
	b := category.Category{ID: "b", NameEn: "Snacks"}

	s1 := Reduce(State{}, CategoryAdded{Category: a})
	s2 := Reduce(s1, CategoryAdded{Category: b})
	require.Len(t, s1.Categories, 1)
	require.Len(t, s2.Categories, 2)

	s3 := Reduce(s2, CategoryUpdated{Category: category.Category{ID: "a", NameEn: "Beverages"}})
	assert.Equal(t, "Beverages", s3.Categories[0].NameEn)
	assert.Equal(t, "Drinks", s2.Categories[0].NameEn)

	s4 := Reduce(s3, CategoryDeleted{ID: "a"})
	require.Len(t, s4.Categories, 1)
	assert.Equal(t, "b", s4.Categories[0].ID)
	assert.Len(t, s3.Categories, 2)
}

func TestMutationInvalidates(t *testing.T) {
	for _, m := range []Mutation{
		OrderCreated, OrderUpdated, OrderDeleted, OrderRestored,
		PaymentRecorded, PaymentUpdated, PaymentReversed, PaymentDeleted, PaymentRestored,
	} {
		t.Run(string(m), func(t *testing.T) {
			views := m.Invalidates()
			for _, v := range []View{ViewLedger, ViewCustomerDetail, ViewCustomerList, ViewDashboard} {
				assert.Contains(t, views, v)
			}
			assert.NotContains(t, views, ViewProducts)
			assert.NotContains(t, views, ViewUsers)
		})
	}

	assert.Contains(t, OrderDeleted.Invalidates(), ViewDeletedHistory)
	assert.Contains(t, PaymentUpdated.Invalidates(), ViewUpdateHistory)
	assert.Equal(t, []View{ViewProducts}, ProductSaved.Invalidates())

	views := PaymentRecorded.Invalidates()
	views[0] = ViewUsers
	assert.NotEqual(t, ViewUsers, PaymentRecorded.Invalidates()[0], "Invalidates returns a copy")
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache(0)
	c.MarkFresh(KeyFor(ViewLedger, 7))
	c.MarkFresh(KeyFor(ViewLedger, 8))
	c.MarkFresh(KeyFor(ViewCustomerList, 7))
	c.MarkFresh(KeyFor(ViewProducts, 0))

	assert.Equal(t, Key{View: ViewCustomerList}, KeyFor(ViewCustomerList, 7))

	stale := c.Invalidate(PaymentRecorded, 7)
	assert.ElementsMatch(t, []Key{
		{View: ViewLedger, CustomerID: 7},
		{View: ViewCustomerList},
	}, stale)
	assert.False(t, c.Fresh(KeyFor(ViewLedger, 7)))
	assert.True(t, c.Fresh(KeyFor(ViewLedger, 8)))
	assert.True(t, c.Fresh(KeyFor(ViewProducts, 0)))

	stale = c.Invalidate(PaymentRecorded, 0)
	assert.ElementsMatch(t, []Key{{View: ViewLedger, CustomerID: 8}}, stale)
}

func TestCacheTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache(time.Minute)
	c.now = func() time.Time { return now }

	k := KeyFor(ViewDashboard, 0)
	c.MarkFresh(k)
	assert.True(t, c.Fresh(k))
	assert.Empty(t, c.Stale(k))

	now = now.Add(2 * time.Minute)
	assert.False(t, c.Fresh(k))
	assert.Equal(t, []Key{k}, c.Stale(k, KeyFor(ViewUsers, 0))[:1])
}
