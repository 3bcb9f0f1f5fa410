// Package state holds the dashboard's application state, the pure reducers
// that move it forward and the cache-invalidation contract that decides what
// to refetch after a write.
package state

import (
	"maps"
	"slices"

	"github.com/xenking/salesledger/internal/domain/category"
	"github.com/xenking/salesledger/internal/domain/customer"
	"github.com/xenking/salesledger/internal/domain/dashboard"
	"github.com/xenking/salesledger/internal/domain/ledger"
	"github.com/xenking/salesledger/internal/domain/page"
	"github.com/xenking/salesledger/internal/domain/product"
	"github.com/xenking/salesledger/internal/domain/user"
)

// State is everything the UI renders. Values are replaced, never mutated in
// place, so a State handed out stays valid.
type State struct {
	Customers  page.Result[customer.Customer]
	Products   page.Result[product.Product]
	Users      page.Result[user.User]
	Categories []category.Category

	// Customer is the selected customer with its ledger feeds.
	Customer *customer.Customer
	Ledger   *ledger.CustomerLedger
	Pricing  []customer.PricingHistoryItem

	Dashboard *dashboard.Snapshot

	Loading map[View]bool
	// Error is the message of the last failed action until dismissed.
	Error string
	// LastMutation is the most recent acknowledged write.
	LastMutation Mutation
}

// IsLoading reports whether v has a fetch in flight.
func (s State) IsLoading(v View) bool {
	return s.Loading[v]
}

// Action is an event that moves State forward.
type Action interface {
	action()
}

type (
	// LoadStarted marks a view as fetching.
	LoadStarted struct{ View View }
	// LoadFailed ends a fetch with an error banner.
	LoadFailed struct {
		View View
		Err  error
	}
	// ActionFailed reports a failed write.
	ActionFailed struct{ Err error }
	// ErrorDismissed clears the error banner.
	ErrorDismissed struct{}

	CustomersLoaded struct{ Result page.Result[customer.Customer] }
	ProductsLoaded  struct{ Result page.Result[product.Product] }
	UsersLoaded     struct{ Result page.Result[user.User] }
	CustomerLoaded  struct{ Customer *customer.Customer }
	LedgerLoaded    struct{ Ledger *ledger.CustomerLedger }
	PricingLoaded   struct{ Items []customer.PricingHistoryItem }
	DashboardLoaded struct{ Snapshot *dashboard.Snapshot }
	// CustomerClosed drops the selected customer and its feeds.
	CustomerClosed struct{}

	CategoryAdded   struct{ Category category.Category }
	CategoryUpdated struct{ Category category.Category }
	CategoryDeleted struct{ ID string }

	// MutationAcknowledged records a write the backend accepted.
	MutationAcknowledged struct{ Mutation Mutation }
)

func (LoadStarted) action()          {}
func (LoadFailed) action()           {}
func (ActionFailed) action()         {}
func (ErrorDismissed) action()       {}
func (CustomersLoaded) action()      {}
func (ProductsLoaded) action()       {}
func (UsersLoaded) action()          {}
func (CustomerLoaded) action()       {}
func (LedgerLoaded) action()         {}
func (PricingLoaded) action()        {}
func (DashboardLoaded) action()      {}
func (CustomerClosed) action()       {}
func (CategoryAdded) action()        {}
func (CategoryUpdated) action()      {}
func (CategoryDeleted) action()      {}
func (MutationAcknowledged) action() {}

// Reduce applies a to s and returns the next state. It performs no I/O and
// never modifies s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case LoadStarted:
		s.Loading = setLoading(s.Loading, a.View, true)
	case LoadFailed:
		s.Loading = setLoading(s.Loading, a.View, false)
		s.Error = errorText(a.Err)
	case ActionFailed:
		s.Error = errorText(a.Err)
	case ErrorDismissed:
		s.Error = ""

	case CustomersLoaded:
		s.Customers = a.Result
		s.Loading = setLoading(s.Loading, ViewCustomerList, false)
	case ProductsLoaded:
		s.Products = a.Result
		s.Loading = setLoading(s.Loading, ViewProducts, false)
	case UsersLoaded:
		s.Users = a.Result
		s.Loading = setLoading(s.Loading, ViewUsers, false)
	case CustomerLoaded:
		if s.Customer == nil || a.Customer == nil || s.Customer.ID != a.Customer.ID {
			s.Ledger, s.Pricing = nil, nil
		}
		s.Customer = a.Customer
		s.Loading = setLoading(s.Loading, ViewCustomerDetail, false)
	case LedgerLoaded:
		s.Ledger = a.Ledger
		s.Loading = setLoading(s.Loading, ViewLedger, false)
	case PricingLoaded:
		s.Pricing = a.Items
		s.Loading = setLoading(s.Loading, ViewPricingHistory, false)
	case DashboardLoaded:
		s.Dashboard = a.Snapshot
		s.Loading = setLoading(s.Loading, ViewDashboard, false)
	case CustomerClosed:
		s.Customer, s.Ledger, s.Pricing = nil, nil, nil

	case CategoryAdded:
		s.Categories = append(slices.Clone(s.Categories), a.Category)
	case CategoryUpdated:
		s.Categories = slices.Clone(s.Categories)
		for i := range s.Categories {
			if s.Categories[i].ID == a.Category.ID {
				s.Categories[i] = a.Category
			}
		}
	case CategoryDeleted:
		s.Categories = slices.DeleteFunc(slices.Clone(s.Categories), func(c category.Category) bool {
			return c.ID == a.ID
		})

	case MutationAcknowledged:
		s.LastMutation = a.Mutation
		s.Error = ""
	}
	return s
}

func setLoading(m map[View]bool, v View, on bool) map[View]bool {
	out := maps.Clone(m)
	if out == nil {
		out = make(map[View]bool)
	}
	if on {
		out[v] = true
	} else {
		delete(out, v)
	}
	return out
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
