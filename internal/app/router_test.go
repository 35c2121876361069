package app_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerly/ledgerly/internal/app"
	"github.com/ledgerly/ledgerly/internal/auth"
	"github.com/ledgerly/ledgerly/internal/authz"
	"github.com/ledgerly/ledgerly/internal/guard"
	"github.com/ledgerly/ledgerly/internal/nav"
	"github.com/ledgerly/ledgerly/internal/shared"
	"github.com/ledgerly/ledgerly/internal/tenants"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memTenantRepo struct {
	settings map[string]tenants.Settings
}

func (m *memTenantRepo) CreateTenant(ctx context.Context, tenant tenants.Tenant, settings tenants.Settings) error {
	m.settings[tenant.ID] = settings
	return nil
}

func (m *memTenantRepo) GetTenant(ctx context.Context, id string) (tenants.Tenant, error) {
	return tenants.Tenant{}, shared.ErrNotFound
}

func (m *memTenantRepo) DeleteTenant(ctx context.Context, id string) error {
	delete(m.settings, id)
	return nil
}

func (m *memTenantRepo) ListTenants(ctx context.Context, limit, offset int) ([]tenants.Tenant, error) {
	return nil, nil
}

func (m *memTenantRepo) CountTenants(ctx context.Context) (int, error) {
	return 0, nil
}

func (m *memTenantRepo) GetSettings(ctx context.Context, tenantID string) (tenants.Settings, error) {
	settings, ok := m.settings[tenantID]
	if !ok {
		return tenants.Settings{}, shared.ErrNotFound
	}
	return settings, nil
}

func (m *memTenantRepo) SaveSettings(ctx context.Context, settings tenants.Settings) error {
	m.settings[settings.TenantID] = settings
	return nil
}

type memAuthRepo struct{}

func (memAuthRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return nil, shared.ErrNotFound
}
func (memAuthRepo) CreateUser(ctx context.Context, user *auth.User) (int64, error) { return 1, nil }
func (memAuthRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}
func (memAuthRepo) DeleteSession(ctx context.Context, id string) error { return nil }
func (memAuthRepo) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type testEnv struct {
	router  http.Handler
	manager *shared.SessionManager
	repo    *memTenantRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := discardLogger()

	sessionManager := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")

	repo := &memTenantRepo{settings: make(map[string]tenants.Settings)}
	tenantsService := tenants.NewService(repo)
	authService := auth.NewService(memAuthRepo{}, tenantsService)

	cfg := &app.Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second}
	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    auth.NewHandler(logger, authService, sessionManager, csrfManager),
		TenantsHandler: tenants.NewHandler(logger, tenantsService),
		NavHandler:     nav.NewHandler(),
		Guard:          guard.Middleware{Logger: logger},
		OnboardingGate: guard.NewOnboardingGate(tenantsService, logger, nil),
	})
	return &testEnv{router: router, manager: sessionManager, repo: repo}
}

// signIn primes a committed session and returns its cookie.
func (e *testEnv) signIn(t *testing.T, role authz.Role, tenantID string) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := e.manager.Load(req.Context(), req)
	require.NoError(t, err)
	sess.SetSession("lt_test-token", role)
	if tenantID != "" {
		sess.SetTenant(tenantID, "acme")
	}
	rec := httptest.NewRecorder()
	require.NoError(t, e.manager.Commit(req.Context(), rec, req, sess))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func (e *testEnv) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) onboard(tenantID string, completed bool) {
	e.repo.settings[tenantID] = tenants.Settings{TenantID: tenantID, OnboardingCompleted: completed}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	res := env.get("/healthz", nil)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	env := newTestEnv(t)

	res := env.get("/system/dashboard", nil)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, guard.LoginPath, res.Header().Get("Location"))

	res = env.get("/platform-admin/tenants", nil)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, guard.LoginPath, res.Header().Get("Location"))

	res = env.get("/", nil)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, guard.LoginPath, res.Header().Get("Location"))
}

func TestTenantAreaAdmitsAnyAuthenticatedRole(t *testing.T) {
	env := newTestEnv(t)
	env.onboard("ten-1", true)

	cookie := env.signIn(t, authz.RoleViewer, "ten-1")
	res := env.get("/system/dashboard", cookie)
	assert.Equal(t, http.StatusOK, res.Code)

	// The area admits the viewer, the per-route matrix does not.
	res = env.get("/system/payments", cookie)
	assert.Equal(t, http.StatusForbidden, res.Code)
	res = env.get("/system/settings", cookie)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestPlatformAreaDemandsExactRole(t *testing.T) {
	env := newTestEnv(t)
	env.onboard("ten-1", true)

	admin := env.signIn(t, authz.RoleTenantAdmin, "ten-1")
	res := env.get("/platform-admin/dashboard", admin)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, guard.SystemDashboardPath, res.Header().Get("Location"))

	super := env.signIn(t, authz.RoleSuperAdmin, "")
	res = env.get("/platform-admin/dashboard", super)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestOnboardingGateRedirects(t *testing.T) {
	env := newTestEnv(t)
	env.onboard("ten-1", false)

	cookie := env.signIn(t, authz.RoleTenantAdmin, "ten-1")
	res := env.get("/system/dashboard", cookie)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, guard.OnboardingPath, res.Header().Get("Location"))

	// Completed tenants are bounced off the onboarding flow.
	env.onboard("ten-1", true)
	res = env.get("/system/onboarding", cookie)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, guard.SystemDashboardPath, res.Header().Get("Location"))
}

func TestNavEndpointFiltersByRole(t *testing.T) {
	env := newTestEnv(t)
	env.onboard("ten-1", true)

	cookie := env.signIn(t, authz.RoleViewer, "ten-1")
	res := env.get("/system/nav", cookie)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "/system/dashboard")
	assert.NotContains(t, res.Body.String(), "/system/settings")
}

func TestRoleWithoutTokenReadsAsAnonymous(t *testing.T) {
	env := newTestEnv(t)

	// Corrupt the stored payload so it carries a role with no token.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := env.manager.Load(req.Context(), req)
	require.NoError(t, err)
	sess.SetSession("lt_tok", authz.RoleTenantAdmin)
	rec := httptest.NewRecorder()
	require.NoError(t, env.manager.Commit(req.Context(), rec, req, sess))
	cookie := rec.Result().Cookies()[0]

	env2req := httptest.NewRequest(http.MethodGet, "/", nil)
	env2req.AddCookie(cookie)
	loaded, err := env.manager.Load(env2req.Context(), env2req)
	require.NoError(t, err)
	loaded.ClearSession()
	rec2 := httptest.NewRecorder()
	require.NoError(t, env.manager.Commit(env2req.Context(), rec2, env2req, loaded))

	res := env.get("/system/dashboard", cookie)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, guard.LoginPath, res.Header().Get("Location"))
}
