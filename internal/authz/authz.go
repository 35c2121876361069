package authz

// CanAccess reports whether role may access route within area. The decision
// is a pure table lookup: it never errors, and absence of an area, a route,
// or a role resolves to false. An empty role means "no session".
func CanAccess(area Area, route string, role Role) bool {
	if role == "" {
		return false
	}
	routes, ok := matrix[area]
	if !ok {
		return false
	}
	permitted, ok := routes[route]
	if !ok {
		return false
	}
	for _, candidate := range permitted {
		if candidate == role {
			return true
		}
	}
	return false
}

// Derived predicates. These add naming only; every decision still runs
// through CanAccess against a fixed (area, route) pair.

// CanManageTenants reports whether role may administer tenants platform-wide.
func CanManageTenants(role Role) bool {
	return CanAccess(AreaPlatformAdmin, RouteTenants, role)
}

// CanManageSettings reports whether role may change tenant settings.
func CanManageSettings(role Role) bool {
	return CanAccess(AreaSystem, RouteSettings, role)
}

// CanRecordPayments reports whether role may record invoice payments.
func CanRecordPayments(role Role) bool {
	return CanAccess(AreaSystem, RoutePayments, role)
}

// CanManageBilling reports whether role may manage the tenant's plan.
func CanManageBilling(role Role) bool {
	return CanAccess(AreaSystem, RouteBilling, role)
}

// CanViewReports reports whether role may open tenant reports.
func CanViewReports(role Role) bool {
	return CanAccess(AreaSystem, RouteReports, role)
}
