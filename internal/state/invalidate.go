package state

import (
	"sync"
	"time"
)

// View is a piece of fetched data the UI shows.
type View string

const (
	ViewCustomerList   View = "customer-list"
	ViewCustomerDetail View = "customer-detail"
	ViewLedger         View = "customer-ledger"
	ViewDeletedHistory View = "customer-deleted-history"
	ViewUpdateHistory  View = "customer-update-history"
	ViewPricingHistory View = "customer-pricing-history"
	ViewProducts       View = "products"
	ViewUsers          View = "users"
	ViewDashboard      View = "dashboard"
)

// Scoped reports whether the view belongs to a single customer.
func (v View) Scoped() bool {
	switch v {
	case ViewCustomerDetail, ViewLedger, ViewDeletedHistory, ViewUpdateHistory, ViewPricingHistory:
		return true
	default:
		return false
	}
}

// Key identifies one cached view. CustomerID is zero for unscoped views.
type Key struct {
	View       View
	CustomerID int64
}

// KeyFor builds the key of v for customerID, dropping the id for unscoped
// views.
func KeyFor(v View, customerID int64) Key {
	if !v.Scoped() {
		customerID = 0
	}
	return Key{View: v, CustomerID: customerID}
}

// Mutation is a write the backend acknowledged.
type Mutation string

const (
	OrderCreated     Mutation = "order.created"
	OrderUpdated     Mutation = "order.updated"
	OrderDeleted     Mutation = "order.deleted"
	OrderRestored    Mutation = "order.restored"
	PaymentRecorded  Mutation = "payment.recorded"
	PaymentUpdated   Mutation = "payment.updated"
	PaymentReversed  Mutation = "payment.reversed"
	PaymentDeleted   Mutation = "payment.deleted"
	PaymentRestored  Mutation = "payment.restored"
	CustomerSaved    Mutation = "customer.saved"
	CustomerDeleted  Mutation = "customer.deleted"
	CustomerRestored Mutation = "customer.restored"
	ProductSaved     Mutation = "product.saved"
	ProductDeleted   Mutation = "product.deleted"
	UserSaved        Mutation = "user.saved"
	UserDeleted      Mutation = "user.deleted"
	UserRestored     Mutation = "user.restored"
)

// Every money movement changes the customer's balance, the list's
// aggregates and the dashboard figures.
var balanceViews = []View{ViewLedger, ViewCustomerDetail, ViewCustomerList, ViewDashboard}

var invalidates = map[Mutation][]View{
	OrderCreated:     append([]View{ViewPricingHistory}, balanceViews...),
	OrderUpdated:     append([]View{ViewUpdateHistory, ViewPricingHistory}, balanceViews...),
	OrderDeleted:     append([]View{ViewDeletedHistory}, balanceViews...),
	OrderRestored:    append([]View{ViewDeletedHistory}, balanceViews...),
	PaymentRecorded:  balanceViews,
	PaymentUpdated:   append([]View{ViewUpdateHistory}, balanceViews...),
	PaymentReversed:  balanceViews,
	PaymentDeleted:   append([]View{ViewDeletedHistory}, balanceViews...),
	PaymentRestored:  append([]View{ViewDeletedHistory}, balanceViews...),
	CustomerSaved:    {ViewCustomerDetail, ViewCustomerList},
	CustomerDeleted:  {ViewCustomerDetail, ViewCustomerList, ViewDashboard},
	CustomerRestored: {ViewCustomerDetail, ViewCustomerList, ViewDashboard},
	ProductSaved:     {ViewProducts},
	ProductDeleted:   {ViewProducts},
	UserSaved:        {ViewUsers},
	UserDeleted:      {ViewUsers},
	UserRestored:     {ViewUsers},
}

// Invalidates lists the views a mutation makes stale.
func (m Mutation) Invalidates() []View {
	return append([]View(nil), invalidates[m]...)
}

// Cache tracks when each view was last fetched. Entries older than the TTL
// and entries hit by a mutation are stale. A zero TTL never ages entries.
type Cache struct {
	mu      sync.Mutex
	fetched map[Key]time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		fetched: make(map[Key]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// MarkFresh records that k was just fetched.
func (c *Cache) MarkFresh(k Key) {
	c.mu.Lock()
	c.fetched[k] = c.now()
	c.mu.Unlock()
}

// Fresh reports whether k is cached and not yet stale.
func (c *Cache) Fresh(k Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.freshLocked(k)
}

func (c *Cache) freshLocked(k Key) bool {
	at, ok := c.fetched[k]
	if !ok {
		return false
	}
	return c.ttl <= 0 || c.now().Sub(at) < c.ttl
}

// Invalidate drops every view m touches for customerID and returns the keys
// that were cached before, which are the ones a caller must refetch.
func (c *Cache) Invalidate(m Mutation, customerID int64) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stale []Key
	for _, v := range invalidates[m] {
		if v.Scoped() && customerID == 0 {
			stale = append(stale, c.dropScopedLocked(v)...)
			continue
		}
		k := KeyFor(v, customerID)
		if _, ok := c.fetched[k]; ok {
			delete(c.fetched, k)
			stale = append(stale, k)
		}
	}
	return stale
}

// dropScopedLocked drops v for every customer.
func (c *Cache) dropScopedLocked(v View) []Key {
	var out []Key
	for k := range c.fetched {
		if k.View == v {
			delete(c.fetched, k)
			out = append(out, k)
		}
	}
	return out
}

// Stale filters keys down to those that need fetching.
func (c *Cache) Stale(keys ...Key) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Key
	for _, k := range keys {
		if !c.freshLocked(k) {
			out = append(out, k)
		}
	}
	return out
}
