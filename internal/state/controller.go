package state

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/salesledger/internal/domain/category"
	"github.com/xenking/salesledger/internal/domain/customer"
	"github.com/xenking/salesledger/internal/domain/dashboard"
	"github.com/xenking/salesledger/internal/domain/ledger"
	"github.com/xenking/salesledger/internal/domain/order"
	"github.com/xenking/salesledger/internal/domain/page"
	"github.com/xenking/salesledger/internal/domain/payment"
	"github.com/xenking/salesledger/internal/domain/period"
	"github.com/xenking/salesledger/internal/domain/product"
	"github.com/xenking/salesledger/internal/domain/user"
)

// LedgerLoader loads and projects a customer's ledger feeds.
type LedgerLoader interface {
	Load(ctx context.Context, customerID int64, r period.Range, views ...ledger.View) (*ledger.CustomerLedger, error)
}

// DashboardLoader fetches the dashboard panels.
type DashboardLoader interface {
	Snapshot(ctx context.Context, r period.Range, limit int) (*dashboard.Snapshot, error)
}

// Deps holds the collaborators of a Controller.
type Deps struct {
	Customers customer.Repository
	Products  product.Repository
	Users     user.Repository
	Orders    *order.Service
	Payments  *payment.Service
	Ledger    LedgerLoader
	Dashboard DashboardLoader

	// CacheTTL ages cached views; zero keeps them until a mutation.
	CacheTTL time.Duration
	// OnChange is called with every new state.
	OnChange func(State)
}

// ledgerParams remembers what the mounted ledger was loaded with.
type ledgerParams struct {
	customerID int64
	r          period.Range
	views      []ledger.View
}

type dashboardParams struct {
	r     period.Range
	limit int
}

// Controller owns the State. Loads dispatch reducer actions; writes go to
// the backend, invalidate the views they touch and refetch the mounted ones.
type Controller struct {
	deps  Deps
	cache *Cache

	mu        sync.Mutex
	state     State
	customers page.Query
	products  page.Query
	users     page.Query
	ledger    ledgerParams
	dashboard dashboardParams

	now   func() time.Time
	newID func() string
}

// NewController creates a Controller with an empty state.
func NewController(deps Deps) *Controller {
	return &Controller{
		deps:  deps,
		cache: NewCache(deps.CacheTTL),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies a to the state.
func (c *Controller) Dispatch(a Action) {
	c.mu.Lock()
	c.state = Reduce(c.state, a)
	s := c.state
	c.mu.Unlock()

	if c.deps.OnChange != nil {
		c.deps.OnChange(s)
	}
}

// DismissError clears the error banner.
func (c *Controller) DismissError() {
	c.Dispatch(ErrorDismissed{})
}

// fail records a failed load and returns err.
func (c *Controller) fail(v View, err error) error {
	c.Dispatch(LoadFailed{View: v, Err: err})
	return err
}

// LoadCustomers fetches a customer list page. A fresh page for the same
// query is served from state.
func (c *Controller) LoadCustomers(ctx context.Context, q page.Query) error {
	q = q.Normalize()
	key := KeyFor(ViewCustomerList, 0)

	c.mu.Lock()
	same := c.customers == q
	c.customers = q
	c.mu.Unlock()
	if same && c.cache.Fresh(key) {
		return nil
	}

	c.Dispatch(LoadStarted{View: ViewCustomerList})
	res, err := c.deps.Customers.List(ctx, q)
	if err != nil {
		return c.fail(ViewCustomerList, errors.Wrap(err, "load customers"))
	}
	c.cache.MarkFresh(key)
	c.Dispatch(CustomersLoaded{Result: *res})
	return nil
}

// LoadProducts fetches a product list page.
func (c *Controller) LoadProducts(ctx context.Context, q page.Query) error {
	q = q.Normalize()
	key := KeyFor(ViewProducts, 0)

	c.mu.Lock()
	same := c.products == q
	c.products = q
	c.mu.Unlock()
	if same && c.cache.Fresh(key) {
		return nil
	}

	c.Dispatch(LoadStarted{View: ViewProducts})
	res, err := c.deps.Products.List(ctx, q)
	if err != nil {
		return c.fail(ViewProducts, errors.Wrap(err, "load products"))
	}
	c.cache.MarkFresh(key)
	c.Dispatch(ProductsLoaded{Result: *res})
	return nil
}

// LoadUsers fetches a user list page.
func (c *Controller) LoadUsers(ctx context.Context, q page.Query) error {
	q = q.Normalize()
	key := KeyFor(ViewUsers, 0)

	c.mu.Lock()
	same := c.users == q
	c.users = q
	c.mu.Unlock()
	if same && c.cache.Fresh(key) {
		return nil
	}

	c.Dispatch(LoadStarted{View: ViewUsers})
	res, err := c.deps.Users.List(ctx, q)
	if err != nil {
		return c.fail(ViewUsers, errors.Wrap(err, "load users"))
	}
	c.cache.MarkFresh(key)
	c.Dispatch(UsersLoaded{Result: *res})
	return nil
}

// OpenCustomer selects a customer and fetches its detail.
func (c *Controller) OpenCustomer(ctx context.Context, id int64) error {
	key := KeyFor(ViewCustomerDetail, id)
	if cur := c.State().Customer; cur != nil && cur.ID == id && c.cache.Fresh(key) {
		return nil
	}

	c.Dispatch(LoadStarted{View: ViewCustomerDetail})
	cu, err := c.deps.Customers.Get(ctx, id)
	if err != nil {
		return c.fail(ViewCustomerDetail, errors.Wrapf(err, "load customer %d", id))
	}
	c.cache.MarkFresh(key)
	c.Dispatch(CustomerLoaded{Customer: cu})
	return nil
}

// CloseCustomer deselects the customer.
func (c *Controller) CloseCustomer() {
	c.Dispatch(CustomerClosed{})
}

// LoadPricing fetches the selected customer's pricing history.
func (c *Controller) LoadPricing(ctx context.Context, customerID int64) error {
	c.Dispatch(LoadStarted{View: ViewPricingHistory})
	items, err := c.deps.Customers.PricingHistory(ctx, customerID)
	if err != nil {
		return c.fail(ViewPricingHistory, errors.Wrapf(err, "load pricing of customer %d", customerID))
	}
	c.cache.MarkFresh(KeyFor(ViewPricingHistory, customerID))
	c.Dispatch(PricingLoaded{Items: items})
	return nil
}

// ledgerView maps ledger feeds onto cached views.
var ledgerView = map[ledger.View]View{
	ledger.ViewActive:  ViewLedger,
	ledger.ViewDeleted: ViewDeletedHistory,
	ledger.ViewUpdates: ViewUpdateHistory,
}

// LoadLedger fetches and projects the customer's ledger feeds.
func (c *Controller) LoadLedger(ctx context.Context, customerID int64, r period.Range, views ...ledger.View) error {
	if len(views) == 0 {
		views = []ledger.View{ledger.ViewActive}
	}

	c.mu.Lock()
	c.ledger = ledgerParams{customerID: customerID, r: r, views: slices.Clone(views)}
	c.mu.Unlock()

	c.Dispatch(LoadStarted{View: ViewLedger})
	l, err := c.deps.Ledger.Load(ctx, customerID, r, views...)
	if err != nil {
		return c.fail(ViewLedger, errors.Wrapf(err, "load ledger of customer %d", customerID))
	}
	for _, v := range views {
		c.cache.MarkFresh(KeyFor(ledgerView[v], customerID))
	}
	c.Dispatch(LedgerLoaded{Ledger: l})
	return nil
}

// LoadDashboard fetches every dashboard panel for r.
func (c *Controller) LoadDashboard(ctx context.Context, r period.Range, limit int) error {
	c.mu.Lock()
	c.dashboard = dashboardParams{r: r, limit: limit}
	c.mu.Unlock()

	c.Dispatch(LoadStarted{View: ViewDashboard})
	snap, err := c.deps.Dashboard.Snapshot(ctx, r, limit)
	if err != nil {
		return c.fail(ViewDashboard, errors.Wrap(err, "load dashboard"))
	}
	c.cache.MarkFresh(KeyFor(ViewDashboard, 0))
	c.Dispatch(DashboardLoaded{Snapshot: snap})
	return nil
}

// acknowledge invalidates what m touched and refetches the views that were
// mounted. Refetch failures surface as load errors; the write itself stands.
func (c *Controller) acknowledge(ctx context.Context, m Mutation, customerID int64) {
	stale := c.cache.Invalidate(m, customerID)
	c.Dispatch(MutationAcknowledged{Mutation: m})
	if err := c.refetch(ctx, stale); err != nil {
		zctx.From(ctx).Warn("Refetch after mutation failed",
			zap.String("mutation", string(m)),
			zap.Int64("customer_id", customerID),
			zap.Error(err),
		)
	}
}

// refetch reloads the given keys with the parameters they were last loaded
// with. Customer keys are refetched only while that customer is still
// selected; ledger keys follow the customer the ledger was loaded for.
func (c *Controller) refetch(ctx context.Context, keys []Key) error {
	c.mu.Lock()
	var (
		customers = c.customers
		products  = c.products
		users     = c.users
		lp        = c.ledger
		dp        = c.dashboard
		selected  int64
	)
	if c.state.Customer != nil {
		selected = c.state.Customer.ID
	}
	c.mu.Unlock()

	var (
		g          errgroup.Group
		ledgerOnce bool
	)
	for _, k := range keys {
		if k.View.Scoped() && !ledgerKey(k.View) && k.CustomerID != selected {
			continue
		}
		switch k.View {
		case ViewCustomerList:
			g.Go(func() error { return c.LoadCustomers(ctx, customers) })
		case ViewProducts:
			g.Go(func() error { return c.LoadProducts(ctx, products) })
		case ViewUsers:
			g.Go(func() error { return c.LoadUsers(ctx, users) })
		case ViewDashboard:
			g.Go(func() error { return c.LoadDashboard(ctx, dp.r, dp.limit) })
		case ViewCustomerDetail:
			g.Go(func() error { return c.OpenCustomer(ctx, k.CustomerID) })
		case ViewPricingHistory:
			g.Go(func() error { return c.LoadPricing(ctx, k.CustomerID) })
		case ViewLedger, ViewDeletedHistory, ViewUpdateHistory:
			if ledgerOnce || lp.customerID != k.CustomerID {
				continue
			}
			ledgerOnce = true
			g.Go(func() error { return c.LoadLedger(ctx, lp.customerID, lp.r, lp.views...) })
		}
	}
	return g.Wait()
}

func ledgerKey(v View) bool {
	return v == ViewLedger || v == ViewDeletedHistory || v == ViewUpdateHistory
}

// write runs a backend write, reporting its failure in state.
func (c *Controller) write(err error) error {
	if err != nil {
		c.Dispatch(ActionFailed{Err: err})
	}
	return err
}

// PlaceOrder creates an order for req.CustomerID.
func (c *Controller) PlaceOrder(ctx context.Context, req order.CreateRequest) (*order.PlaceOrderResult, error) {
	res, err := c.deps.Orders.PlaceOrder(ctx, req)
	if err := c.write(err); err != nil {
		return nil, err
	}
	c.acknowledge(ctx, OrderCreated, req.CustomerID)
	return res, nil
}

// UpdateOrder replaces the items of an order.
func (c *Controller) UpdateOrder(ctx context.Context, id int64, req order.UpdateRequest) (*order.Order, error) {
	o, err := c.deps.Orders.UpdateItems(ctx, id, req)
	if err := c.write(err); err != nil {
		return nil, err
	}
	c.acknowledge(ctx, OrderUpdated, o.CustomerID)
	return o, nil
}

// DeleteOrder soft-deletes an order of customerID.
func (c *Controller) DeleteOrder(ctx context.Context, customerID, id int64) error {
	if err := c.write(c.deps.Orders.Delete(ctx, id)); err != nil {
		return err
	}
	c.acknowledge(ctx, OrderDeleted, customerID)
	return nil
}

// RestoreOrder restores a soft-deleted order of customerID.
func (c *Controller) RestoreOrder(ctx context.Context, customerID, id int64) error {
	if err := c.write(c.deps.Orders.Restore(ctx, id)); err != nil {
		return err
	}
	c.acknowledge(ctx, OrderRestored, customerID)
	return nil
}

// RecordPayment records a payment against req.CustomerID's debt.
func (c *Controller) RecordPayment(ctx context.Context, req payment.Request) (*payment.Payment, error) {
	p, err := c.deps.Payments.Record(ctx, req)
	if err := c.write(err); err != nil {
		return nil, err
	}
	c.acknowledge(ctx, PaymentRecorded, req.CustomerID)
	return p, nil
}

// UpdatePayment edits a payment.
func (c *Controller) UpdatePayment(ctx context.Context, id int64, req payment.UpdateRequest) (*payment.Payment, error) {
	p, err := c.deps.Payments.Update(ctx, id, req)
	if err := c.write(err); err != nil {
		return nil, err
	}
	c.acknowledge(ctx, PaymentUpdated, p.CustomerID)
	return p, nil
}

// ReversePayment reverses a payment and returns the counter-entry.
func (c *Controller) ReversePayment(ctx context.Context, id int64, reason string) (*payment.Payment, error) {
	p, err := c.deps.Payments.Reverse(ctx, id, reason)
	if err := c.write(err); err != nil {
		return nil, err
	}
	c.acknowledge(ctx, PaymentReversed, p.CustomerID)
	return p, nil
}

// DeletePayment soft-deletes a payment of customerID.
func (c *Controller) DeletePayment(ctx context.Context, customerID, id int64) error {
	if err := c.write(c.deps.Payments.Delete(ctx, id)); err != nil {
		return err
	}
	c.acknowledge(ctx, PaymentDeleted, customerID)
	return nil
}

// RestorePayment restores a soft-deleted payment of customerID.
func (c *Controller) RestorePayment(ctx context.Context, customerID, id int64) error {
	if err := c.write(c.deps.Payments.Restore(ctx, id)); err != nil {
		return err
	}
	c.acknowledge(ctx, PaymentRestored, customerID)
	return nil
}

// SaveCustomer creates a customer when id is zero and updates it otherwise.
func (c *Controller) SaveCustomer(ctx context.Context, id int64, f customer.Form) (*customer.Customer, error) {
	if err := c.write(f.Validate()); err != nil {
		return nil, err
	}
	var (
		cu  *customer.Customer
		err error
	)
	if id == 0 {
		cu, err = c.deps.Customers.Create(ctx, f)
	} else {
		cu, err = c.deps.Customers.Update(ctx, id, f)
	}
	if err := c.write(err); err != nil {
		return nil, err
	}
	c.acknowledge(ctx, CustomerSaved, cu.ID)
	return cu, nil
}

// DeleteCustomer soft-deletes a customer.
func (c *Controller) DeleteCustomer(ctx context.Context, id int64) error {
	if err := c.write(c.deps.Customers.Delete(ctx, id)); err != nil {
		return err
	}
	c.acknowledge(ctx, CustomerDeleted, id)
	return nil
}

// RestoreCustomer restores a soft-deleted customer.
func (c *Controller) RestoreCustomer(ctx context.Context, id int64) error {
	if err := c.write(c.deps.Customers.Restore(ctx, id)); err != nil {
		return err
	}
	c.acknowledge(ctx, CustomerRestored, id)
	return nil
}

// SaveProduct creates a product when id is zero and updates it otherwise.
func (c *Controller) SaveProduct(ctx context.Context, id int64, f product.Form) (*product.Product, error) {
	if err := c.write(f.Validate()); err != nil {
		return nil, err
	}
	var (
		p   *product.Product
		err error
	)
	if id == 0 {
		p, err = c.deps.Products.Create(ctx, f)
	} else {
		p, err = c.deps.Products.Update(ctx, id, f)
	}
	if err := c.write(err); err != nil {
		return nil, err
	}
	c.acknowledge(ctx, ProductSaved, 0)
	return p, nil
}

// DeleteProduct soft-deletes a product.
func (c *Controller) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.write(c.deps.Products.Delete(ctx, id)); err != nil {
		return err
	}
	c.acknowledge(ctx, ProductDeleted, 0)
	return nil
}

// SaveUser registers a user when id is zero and updates it otherwise.
func (c *Controller) SaveUser(ctx context.Context, id int64, f user.Form) (*user.User, error) {
	validate := f.Validate
	if id == 0 {
		validate = f.ValidateRegistration
	}
	if err := c.write(validate()); err != nil {
		return nil, err
	}
	var (
		u   *user.User
		err error
	)
	if id == 0 {
		u, err = c.deps.Users.Register(ctx, f)
	} else {
		u, err = c.deps.Users.Update(ctx, id, f)
	}
	if err := c.write(err); err != nil {
		return nil, err
	}
	c.acknowledge(ctx, UserSaved, 0)
	return u, nil
}

// DeleteUser deactivates a user.
func (c *Controller) DeleteUser(ctx context.Context, id int64) error {
	if err := c.write(c.deps.Users.Delete(ctx, id)); err != nil {
		return err
	}
	c.acknowledge(ctx, UserDeleted, 0)
	return nil
}

// RestoreUser reactivates a user.
func (c *Controller) RestoreUser(ctx context.Context, id int64) error {
	if err := c.write(c.deps.Users.Restore(ctx, id)); err != nil {
		return err
	}
	c.acknowledge(ctx, UserRestored, 0)
	return nil
}

// AddCategory adds a category to the local catalog.
func (c *Controller) AddCategory(f category.Form) (category.Category, error) {
	if err := c.write(f.Validate()); err != nil {
		return category.Category{}, err
	}
	cat := category.Category{
		ID:        c.newID(),
		NameEn:    f.NameEn,
		NameAr:    f.NameAr,
		ImageURL:  f.ImageURL,
		Status:    f.Status,
		CreatedAt: c.now(),
	}
	c.Dispatch(CategoryAdded{Category: cat})
	return cat, nil
}

// UpdateCategory replaces the fields of a local category.
func (c *Controller) UpdateCategory(id string, f category.Form) (category.Category, error) {
	if err := c.write(f.Validate()); err != nil {
		return category.Category{}, err
	}
	cat, ok := c.findCategory(id)
	if !ok {
		return category.Category{}, c.write(errors.Wrapf(category.ErrNotFound, "category %s", id))
	}
	cat.NameEn, cat.NameAr, cat.ImageURL, cat.Status = f.NameEn, f.NameAr, f.ImageURL, f.Status
	c.Dispatch(CategoryUpdated{Category: cat})
	return cat, nil
}

// DeleteCategory removes a local category.
func (c *Controller) DeleteCategory(id string) error {
	if _, ok := c.findCategory(id); !ok {
		return c.write(errors.Wrapf(category.ErrNotFound, "category %s", id))
	}
	c.Dispatch(CategoryDeleted{ID: id})
	return nil
}

func (c *Controller) findCategory(id string) (category.Category, bool) {
	for _, cat := range c.State().Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return category.Category{}, false
}
