package session

import (
	"slices"

	"github.com/xenking/salesledger/internal/domain/user"
)

// Route is a top-level area of the dashboard.
type Route string

const (
	RouteDashboard  Route = "dashboard"
	RouteUsers      Route = "users"
	RouteCategories Route = "categories"
	RouteProducts   Route = "products"
	RouteCustomers  Route = "customers"
	RouteOrders     Route = "orders"
	RoutePayments   Route = "payments"
)

var everyone = []user.Role{user.RoleAdmin, user.RoleManager, user.RoleStaff}

var routeRoles = map[Route][]user.Role{
	RouteDashboard:  {user.RoleAdmin},
	RouteUsers:      {user.RoleAdmin},
	RouteCategories: {user.RoleAdmin, user.RoleManager},
	RouteProducts:   {user.RoleAdmin, user.RoleManager},
	RouteCustomers:  everyone,
	RouteOrders:     everyone,
	RoutePayments:   everyone,
}

// Allowed reports whether role may open route r. Unknown routes are denied.
func Allowed(role user.Role, r Route) bool {
	return slices.Contains(routeRoles[r], role)
}

// Landing is the first route a role is sent to after signing in.
func Landing(role user.Role) Route {
	if role == user.RoleAdmin {
		return RouteDashboard
	}
	return RouteCustomers
}

// menu is the navigation order of the routes.
var menu = []Route{
	RouteDashboard, RouteCustomers, RouteOrders, RoutePayments,
	RouteProducts, RouteCategories, RouteUsers,
}

// Routes lists the routes role may open, in navigation order.
func Routes(role user.Role) []Route {
	var out []Route
	for _, r := range menu {
		if Allowed(role, r) {
			out = append(out, r)
		}
	}
	return out
}
