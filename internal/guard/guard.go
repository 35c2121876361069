// Package guard enforces authorization at the point where a protected route
// group is about to serve. The decision itself is pure and lives in Evaluate;
// the middleware layer only translates a Decision into a redirect or a pass.
package guard

import (
	"log/slog"
	"net/http"

	"github.com/ledgerly/ledgerly/internal/authz"
	"github.com/ledgerly/ledgerly/internal/observability"
	"github.com/ledgerly/ledgerly/internal/shared"
)

// Redirect destinations used by the guards.
const (
	LoginPath             = "/auth/login"
	SystemDashboardPath   = "/system/dashboard"
	PlatformDashboardPath = "/platform-admin/dashboard"
	OnboardingPath        = "/system/onboarding"
)

// Action is the outcome kind of a guard decision.
type Action int

const (
	// ActionRender lets the guarded content serve.
	ActionRender Action = iota
	// ActionRedirect suppresses the guarded content and navigates away.
	ActionRedirect
)

// Decision is the result of evaluating a session against a requirement.
type Decision struct {
	Action     Action
	Location   string
	SaveIntent bool
}

// Requirement describes what a protected area demands from the session. A
// zero Role admits any authenticated role (tenant-area guard); a concrete
// Role demands an exact match (platform-admin guard).
type Requirement struct {
	Area authz.Area
	Role authz.Role
}

// SessionInfo is the read-only view of the session the guard consults.
type SessionInfo interface {
	Token() string
	Role() authz.Role
}

// Evaluate decides whether a session may enter the guarded area. The
// authentication check strictly precedes the role check: a missing token
// always resolves to the login redirect, whatever role the session claims,
// so the redirect target never reveals how the area is role-gated.
func Evaluate(sess SessionInfo, req Requirement) Decision {
	if sess == nil || sess.Token() == "" || !sess.Role().Valid() {
		return Decision{Action: ActionRedirect, Location: LoginPath, SaveIntent: true}
	}
	if req.Role != "" && sess.Role() != req.Role {
		return Decision{Action: ActionRedirect, Location: LandingPath(sess.Role())}
	}
	return Decision{Action: ActionRender}
}

// LandingPath returns the dashboard a role belongs on.
func LandingPath(role authz.Role) string {
	if role == authz.RoleSuperAdmin {
		return PlatformDashboardPath
	}
	return SystemDashboardPath
}

// Middleware wires guard decisions into the HTTP layer.
type Middleware struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// RequireTenant guards the tenant workspace: any authenticated role may
// enter. Route-level filtering inside the area is left to authz.CanAccess at
// each page, so e.g. an accountant enters the area but gets no settings link.
func (m Middleware) RequireTenant() func(http.Handler) http.Handler {
	return m.require(Requirement{Area: authz.AreaSystem})
}

// RequirePlatformAdmin guards the platform area: authenticated and exactly
// SUPER_ADMIN. Any other role is redirected out of the whole area.
func (m Middleware) RequirePlatformAdmin() func(http.Handler) http.Handler {
	return m.require(Requirement{Area: authz.AreaPlatformAdmin, Role: authz.RoleSuperAdmin})
}

func (m Middleware) require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			decision := Evaluate(sess, req)

			if decision.Action == ActionRender {
				m.observe(req.Area, "render")
				next.ServeHTTP(w, r)
				return
			}

			if decision.SaveIntent && sess != nil {
				sess.SetIntent(r.URL.Path)
			}
			// The consumer may be gone by the time the decision lands; a
			// canceled request gets no navigation side effect.
			if r.Context().Err() != nil {
				m.observe(req.Area, "abandoned")
				return
			}
			if decision.SaveIntent {
				m.observe(req.Area, "redirect_login")
			} else {
				m.observe(req.Area, "redirect_role")
				if m.Logger != nil {
					m.Logger.Warn("guard denied role",
						slog.String("area", string(req.Area)),
						slog.String("path", r.URL.Path),
						slog.String("role", string(sess.Role())))
				}
			}
			http.Redirect(w, r, decision.Location, http.StatusSeeOther)
		})
	}
}

func (m Middleware) observe(area authz.Area, outcome string) {
	if m.Metrics != nil {
		m.Metrics.ObserveGuardDecision(string(area), outcome)
	}
}
