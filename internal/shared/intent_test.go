package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ledgerly/ledgerly/internal/authz"
)

func TestRedirectIntentRoundTrip(t *testing.T) {
	sm, _ := newManager(t)
	sess, _ := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/system/invoices", nil))
	sess.SetIntent("/system/invoices")

	loaded := roundTrip(t, sm, sess)
	if got := loaded.ConsumeIntent(); got != "/system/invoices" {
		t.Fatalf("expected stored intent, got %q", got)
	}
	if got := loaded.ConsumeIntent(); got != "" {
		t.Fatalf("second consume must return nothing, got %q", got)
	}

	// The consumed intent must stay consumed across a persist cycle.
	persisted := roundTrip(t, sm, loaded)
	if got := persisted.ConsumeIntent(); got != "" {
		t.Fatalf("intent leaked after consume: %q", got)
	}
}

func TestRedirectIntentIgnoresEmptyPath(t *testing.T) {
	sm, _ := newManager(t)
	sess, _ := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	sess.SetIntent("")
	if got := sess.ConsumeIntent(); got != "" {
		t.Fatalf("empty path must not be stored, got %q", got)
	}
}

func TestRedirectIntentSurvivesLoginWrite(t *testing.T) {
	sm, _ := newManager(t)
	sess, _ := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	sess.SetIntent("/system/reports")
	sess.SetSession("tok", authz.RoleAccountant)

	loaded := roundTrip(t, sm, sess)
	if got := loaded.ConsumeIntent(); got != "/system/reports" {
		t.Fatalf("intent must survive until consumed, got %q", got)
	}
}
