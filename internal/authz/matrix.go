package authz

// Route names for the system area.
const (
	RouteDashboard  = "dashboard"
	RouteInvoices   = "invoices"
	RouteQuotes     = "quotes"
	RouteCustomers  = "customers"
	RouteProducts   = "products"
	RoutePayments   = "payments"
	RouteReminders  = "reminders"
	RouteReports    = "reports"
	RouteSettings   = "settings"
	RouteBilling    = "billing"
	RouteOnboarding = "onboarding"
)

// Route names for the platform-admin area.
const (
	RouteTenants = "tenants"
	RoutePlans   = "plans"
)

// matrix maps (area, route) to the roles permitted to access it. Entries are
// static; a route absent from its area is inaccessible to everyone. Any
// change requires a redeploy, which keeps authorization auditable.
var matrix = map[Area]map[string][]Role{
	AreaSystem: {
		RouteDashboard:  {RoleTenantAdmin, RoleAccountant, RoleViewer},
		RouteInvoices:   {RoleTenantAdmin, RoleAccountant, RoleViewer},
		RouteQuotes:     {RoleTenantAdmin, RoleAccountant, RoleViewer},
		RouteCustomers:  {RoleTenantAdmin, RoleAccountant, RoleViewer},
		RouteProducts:   {RoleTenantAdmin, RoleAccountant},
		RoutePayments:   {RoleTenantAdmin, RoleAccountant},
		RouteReminders:  {RoleTenantAdmin, RoleAccountant},
		RouteReports:    {RoleTenantAdmin, RoleAccountant, RoleViewer},
		RouteSettings:   {RoleTenantAdmin},
		RouteBilling:    {RoleTenantAdmin},
		RouteOnboarding: {RoleTenantAdmin},
	},
	AreaPlatformAdmin: {
		RouteDashboard: {RoleSuperAdmin},
		RouteTenants:   {RoleSuperAdmin},
		RoutePlans:     {RoleSuperAdmin},
		RouteBilling:   {RoleSuperAdmin},
		RouteSettings:  {RoleSuperAdmin},
	},
}

// AreaRoutes returns the declared routes for an area. Unknown areas yield an
// empty slice.
func AreaRoutes(area Area) []string {
	routes := make([]string, 0, len(matrix[area]))
	for route := range matrix[area] {
		routes = append(routes, route)
	}
	return routes
}
