package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/ledgerly/ledgerly/internal/auth"
	"github.com/ledgerly/ledgerly/internal/authz"
	"github.com/ledgerly/ledgerly/internal/guard"
	"github.com/ledgerly/ledgerly/internal/nav"
	"github.com/ledgerly/ledgerly/internal/observability"
	"github.com/ledgerly/ledgerly/internal/platform/httpx"
	"github.com/ledgerly/ledgerly/internal/shared"
	"github.com/ledgerly/ledgerly/internal/tenants"
	"github.com/ledgerly/ledgerly/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	TenantsHandler *tenants.Handler
	NavHandler     *nav.Handler
	Guard          guard.Middleware
	OnboardingGate *guard.OnboardingGate
	JobsHandler    *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Ledgerly defaults. The area guards
// wrap whole route groups; per-route permissions are checked again inside the
// handlers through the authorization matrix.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Root sends anonymous visitors to login and signed-in users to the
	// dashboard their role belongs on.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if !sess.Authenticated() {
			http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, guard.LandingPath(sess.Role()), http.StatusSeeOther)
	})

	r.Route("/auth", func(r chi.Router) {
		// Credential endpoints get a tighter per-IP budget than the rest
		// of the app.
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		params.AuthHandler.MountRoutes(r)
	})

	r.Route("/system", func(r chi.Router) {
		r.Use(params.Guard.RequireTenant())
		if params.OnboardingGate != nil {
			r.Use(params.OnboardingGate.Middleware())
		}
		params.NavHandler.MountSystemRoutes(r)
		params.TenantsHandler.MountSystemRoutes(r)
		for _, route := range []string{
			authz.RouteDashboard,
			authz.RouteInvoices,
			authz.RouteQuotes,
			authz.RouteCustomers,
			authz.RouteProducts,
			authz.RoutePayments,
			authz.RouteReminders,
			authz.RouteReports,
			authz.RouteBilling,
		} {
			r.Get("/"+route, areaPage(authz.AreaSystem, route))
		}
	})

	r.Route("/platform-admin", func(r chi.Router) {
		r.Use(params.Guard.RequirePlatformAdmin())
		params.NavHandler.MountPlatformRoutes(r)
		params.TenantsHandler.MountPlatformRoutes(r)
		for _, route := range []string{
			authz.RouteDashboard,
			authz.RoutePlans,
			authz.RouteBilling,
			authz.RouteSettings,
		} {
			r.Get("/"+route, areaPage(authz.AreaPlatformAdmin, route))
		}
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// areaPage serves a page shell after the per-route permission check. The area
// guard already vouched for authentication, so a failure here is purely a
// role short of the route's requirement.
func areaPage(area authz.Area, route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if !authz.CanAccess(area, route, sess.Role()) {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "role not permitted on this page")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{
			"area":  string(area),
			"route": route,
			"role":  string(sess.Role()),
		})
	}
}
