// Package nav builds the navigation menus shown to a signed-in user. Links
// are filtered through the same authorization matrix that protects the routes
// themselves, so the menu never advertises a destination the guard would
// bounce.
package nav

import (
	"github.com/ledgerly/ledgerly/internal/authz"
)

// Link is a single navigation entry.
type Link struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Route string `json:"route"`
}

// Ordered link catalogs per area. Order here is display order.
var systemLinks = []Link{
	{Label: "Dashboard", Path: "/system/dashboard", Route: authz.RouteDashboard},
	{Label: "Invoices", Path: "/system/invoices", Route: authz.RouteInvoices},
	{Label: "Quotes", Path: "/system/quotes", Route: authz.RouteQuotes},
	{Label: "Customers", Path: "/system/customers", Route: authz.RouteCustomers},
	{Label: "Products", Path: "/system/products", Route: authz.RouteProducts},
	{Label: "Payments", Path: "/system/payments", Route: authz.RoutePayments},
	{Label: "Reminders", Path: "/system/reminders", Route: authz.RouteReminders},
	{Label: "Reports", Path: "/system/reports", Route: authz.RouteReports},
	{Label: "Settings", Path: "/system/settings", Route: authz.RouteSettings},
	{Label: "Billing", Path: "/system/billing", Route: authz.RouteBilling},
}

var platformLinks = []Link{
	{Label: "Dashboard", Path: "/platform-admin/dashboard", Route: authz.RouteDashboard},
	{Label: "Tenants", Path: "/platform-admin/tenants", Route: authz.RouteTenants},
	{Label: "Plans", Path: "/platform-admin/plans", Route: authz.RoutePlans},
	{Label: "Billing", Path: "/platform-admin/billing", Route: authz.RouteBilling},
	{Label: "Settings", Path: "/platform-admin/settings", Route: authz.RouteSettings},
}

// VisibleLinks returns the links in an area the given role may open,
// preserving catalog order. Unknown roles or areas see nothing.
func VisibleLinks(area authz.Area, role authz.Role) []Link {
	var catalog []Link
	switch area {
	case authz.AreaSystem:
		catalog = systemLinks
	case authz.AreaPlatformAdmin:
		catalog = platformLinks
	default:
		return nil
	}
	visible := make([]Link, 0, len(catalog))
	for _, link := range catalog {
		if authz.CanAccess(area, link.Route, role) {
			visible = append(visible, link)
		}
	}
	return visible
}
