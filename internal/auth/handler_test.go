package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ledgerly/ledgerly/internal/auth"
	"github.com/ledgerly/ledgerly/internal/authz"
	"github.com/ledgerly/ledgerly/internal/guard"
	"github.com/ledgerly/ledgerly/internal/shared"
)

func newAuthRouter(t *testing.T, repo auth.Repository) (chi.Router, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	handler := auth.NewHandler(discardLogger(), auth.NewService(repo, &stubProvisioner{id: "ten-1", slug: "acme"}), sessionManager, shared.NewCSRFManager("csrfsecret"))

	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r, sessionManager
}

func serveWithSession(t *testing.T, router chi.Router, sm *shared.SessionManager, sess *shared.Session, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if err := sm.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return res
}

func decodeSessionResponse(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestLoginEstablishesPairedSession(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "admin@acme.test", "correct-horse", authz.RoleTenantAdmin, true)
	router, sm := newAuthRouter(t, repo)

	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("load session: %v", err)
	}

	res := serveWithSession(t, router, sm, sess, http.MethodPost, "/auth/login",
		map[string]string{"email": "admin@acme.test", "password": "correct-horse"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	if sess.Token() == "" || sess.Role() != authz.RoleTenantAdmin {
		t.Fatalf("token and role must be written together, got token=%q role=%q", sess.Token(), sess.Role())
	}
	id, slug := sess.Tenant()
	if id != "ten-1" || slug != "acme" {
		t.Fatalf("tenant pair not set: %q %q", id, slug)
	}

	payload := decodeSessionResponse(t, res)
	if payload["redirect_to"] != guard.SystemDashboardPath {
		t.Fatalf("expected landing redirect, got %v", payload["redirect_to"])
	}
}

func TestLoginSuperAdminCarriesNoTenant(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "root@ledgerly.test", "correct-horse", authz.RoleSuperAdmin, true)
	router, sm := newAuthRouter(t, repo)

	sess, _ := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	res := serveWithSession(t, router, sm, sess, http.MethodPost, "/auth/login",
		map[string]string{"email": "root@ledgerly.test", "password": "correct-horse"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	if id, slug := sess.Tenant(); id != "" || slug != "" {
		t.Fatalf("super admin session must be tenant-agnostic, got %q %q", id, slug)
	}
	payload := decodeSessionResponse(t, res)
	if payload["redirect_to"] != guard.PlatformDashboardPath {
		t.Fatalf("expected platform landing, got %v", payload["redirect_to"])
	}
}

func TestLoginConsumesRedirectIntent(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "admin@acme.test", "correct-horse", authz.RoleTenantAdmin, true)
	router, sm := newAuthRouter(t, repo)

	sess, _ := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	sess.SetIntent("/system/invoices")

	res := serveWithSession(t, router, sm, sess, http.MethodPost, "/auth/login",
		map[string]string{"email": "admin@acme.test", "password": "correct-horse"})
	payload := decodeSessionResponse(t, res)
	if payload["redirect_to"] != "/system/invoices" {
		t.Fatalf("expected intent redirect, got %v", payload["redirect_to"])
	}
	if sess.ConsumeIntent() != "" {
		t.Fatalf("intent must be consumed exactly once")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "admin@acme.test", "correct-horse", authz.RoleTenantAdmin, true)
	router, sm := newAuthRouter(t, repo)

	sess, _ := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	res := serveWithSession(t, router, sm, sess, http.MethodPost, "/auth/login",
		map[string]string{"email": "admin@acme.test", "password": "wrong-password"})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if sess.Authenticated() {
		t.Fatalf("failed login must leave the session anonymous")
	}
}

func TestLoginValidatesPayload(t *testing.T) {
	router, sm := newAuthRouter(t, newStubRepo())
	sess, _ := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))

	res := serveWithSession(t, router, sm, sess, http.MethodPost, "/auth/login",
		map[string]string{"email": "not-an-email", "password": "short"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestSignupLandsOnOnboarding(t *testing.T) {
	router, sm := newAuthRouter(t, newStubRepo())
	sess, _ := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))

	res := serveWithSession(t, router, sm, sess, http.MethodPost, "/auth/signup", map[string]string{
		"name": "Hank", "email": "hank@globex.test", "password": "volcano-lair", "company_name": "Globex",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if sess.Role() != authz.RoleTenantAdmin {
		t.Fatalf("signup must assign TENANT_ADMIN, got %q", sess.Role())
	}
	payload := decodeSessionResponse(t, res)
	if payload["redirect_to"] != guard.OnboardingPath {
		t.Fatalf("expected onboarding redirect, got %v", payload["redirect_to"])
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "admin@acme.test", "correct-horse", authz.RoleTenantAdmin, true)
	router, sm := newAuthRouter(t, repo)

	sess, _ := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	serveWithSession(t, router, sm, sess, http.MethodPost, "/auth/login",
		map[string]string{"email": "admin@acme.test", "password": "correct-horse"})

	res := serveWithSession(t, router, sm, sess, http.MethodPost, "/auth/logout", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if sess.Token() != "" || sess.Role() != "" {
		t.Fatalf("logout must clear token and role together")
	}
	if id, slug := sess.Tenant(); id != "" || slug != "" {
		t.Fatalf("logout must clear the tenant pair")
	}
}
