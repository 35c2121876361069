package guard

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/ledgerly/ledgerly/internal/shared"
)

// SettingsSource resolves the tenant-level onboarding flag. The gate does
// not know or care how the flag is fetched or cached.
type SettingsSource interface {
	OnboardingCompleted(ctx context.Context, tenantID string) (bool, error)
}

// OnboardingGate forces fresh tenants through the onboarding flow and keeps
// onboarded tenants out of it. It layers after authentication: sessions
// without a tenant (platform admins, anonymous requests) pass through
// untouched.
type OnboardingGate struct {
	settings SettingsSource
	logger   *slog.Logger
	metrics  decisionObserver
	group    singleflight.Group
}

type decisionObserver interface {
	ObserveGuardDecision(area, outcome string)
}

// NewOnboardingGate constructs the gate.
func NewOnboardingGate(settings SettingsSource, logger *slog.Logger, metrics decisionObserver) *OnboardingGate {
	return &OnboardingGate{settings: settings, logger: logger, metrics: metrics}
}

// EvaluateOnboarding is the pure decision for a resolved onboarding flag:
// incomplete tenants are pinned to the onboarding destination, complete
// tenants are bounced off it.
func EvaluateOnboarding(completed bool, path string) Decision {
	onOnboarding := path == OnboardingPath || strings.HasPrefix(path, OnboardingPath+"/")
	if !completed && !onOnboarding {
		return Decision{Action: ActionRedirect, Location: OnboardingPath}
	}
	if completed && onOnboarding {
		return Decision{Action: ActionRedirect, Location: SystemDashboardPath}
	}
	return Decision{Action: ActionRender}
}

// Middleware returns the HTTP wrapper for the gate.
func (g *OnboardingGate) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			tenantID, _ := sess.Tenant()
			if !sess.Authenticated() || tenantID == "" {
				next.ServeHTTP(w, r)
				return
			}

			completed, err, resolved := g.resolve(r.Context(), tenantID)
			if !resolved {
				// Request went away while the settings fetch was pending;
				// no redirect may fire for it.
				g.observe("abandoned")
				return
			}
			if err != nil {
				// The gate is a UX affordance, not a security control:
				// when settings cannot be resolved, content still serves.
				if g.logger != nil {
					g.logger.Warn("onboarding settings fetch failed",
						slog.String("tenant_id", tenantID), slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}

			decision := EvaluateOnboarding(completed, r.URL.Path)
			if decision.Action == ActionRender {
				g.observe("render")
				next.ServeHTTP(w, r)
				return
			}
			if r.Context().Err() != nil {
				g.observe("abandoned")
				return
			}
			if decision.Location == OnboardingPath {
				g.observe("redirect_onboarding")
			} else {
				g.observe("redirect_dashboard")
			}
			http.Redirect(w, r, decision.Location, http.StatusSeeOther)
		})
	}
}

// resolve fetches the onboarding flag, deduplicating concurrent lookups for
// the same tenant. The third return is false when the request context was
// canceled before the flag resolved. The fetch itself runs detached from the
// caller's context so one canceled request cannot poison the shared result
// for the waiters coalesced onto it.
func (g *OnboardingGate) resolve(ctx context.Context, tenantID string) (bool, error, bool) {
	fetchCtx := context.WithoutCancel(ctx)
	resultChan := g.group.DoChan("onboarding:"+tenantID, func() (interface{}, error) {
		return g.settings.OnboardingCompleted(fetchCtx, tenantID)
	})
	select {
	case <-ctx.Done():
		return false, ctx.Err(), false
	case res := <-resultChan:
		completed, _ := res.Val.(bool)
		return completed, res.Err, true
	}
}

func (g *OnboardingGate) observe(outcome string) {
	if g.metrics != nil {
		g.metrics.ObserveGuardDecision("onboarding", outcome)
	}
}
