package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ledgerly/ledgerly/internal/authz"
)

// SessionManager orchestrates cookie based sessions backed by Redis. The
// cookie carries only the session ID; the session context itself lives in
// Redis with a fixed lifetime counted from the last write.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Session holds the per-request session context: the access token, the role
// assigned at login, and the tenant pair for non-platform roles. Token and
// role are written and cleared together; no caller can observe one without
// the other.
type Session struct {
	ID         string
	token      string
	role       authz.Role
	tenantID   string
	tenantSlug string
	intent     string
	values     map[string]string
	isNew      bool
	dirty      bool
	destroyed  bool
}

type sessionPayload struct {
	AccessToken string            `json:"access_token,omitempty"`
	Role        string            `json:"role,omitempty"`
	TenantID    string            `json:"tenant_id,omitempty"`
	TenantSlug  string            `json:"tenant_slug,omitempty"`
	Intent      string            `json:"intent,omitempty"`
	Values      map[string]string `json:"values,omitempty"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		secret:     []byte(secret),
	}
}

// Load resolves the session for a request. It never fails the request: an
// absent cookie, an expired entry, or an unavailable backend all yield an
// anonymous session. The returned error is advisory (for logging) and is
// non-nil only when the backend misbehaved.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		return sm.newSession(), nil
	}

	if sm.client == nil {
		return sm.newSession(), nil
	}

	payload, err := sm.client.Get(ctx, sm.redisKey(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			sess := sm.newSession()
			sess.ID = cookie.Value
			return sess, nil
		}
		return sm.newSession(), err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return sm.newSession(), err
	}

	sess := sm.newSession()
	sess.ID = cookie.Value
	sess.isNew = false
	sess.dirty = false
	sess.tenantID = stored.TenantID
	sess.tenantSlug = stored.TenantSlug
	sess.intent = stored.Intent
	if stored.Values != nil {
		sess.values = stored.Values
	}

	// Token and role travel as a pair. A payload carrying only one of them,
	// or an unknown role, reads as anonymous.
	role, roleErr := authz.ParseRole(stored.Role)
	if stored.AccessToken != "" && roleErr == nil {
		sess.token = stored.AccessToken
		sess.role = role
	}
	return sess, nil
}

// Commit persists the session and writes cookie headers as needed. Unchanged
// sessions are left alone so a plain read never refreshes the expiry.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil || sm.client == nil {
		return nil
	}

	if sess.destroyed {
		if err := sm.client.Del(ctx, sm.redisKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if !sess.dirty {
		return nil
	}

	if sess.ID == "" {
		sess.ID = sm.generateSessionID()
	}

	payload := sessionPayload{
		AccessToken: sess.token,
		Role:        string(sess.role),
		TenantID:    sess.tenantID,
		TenantSlug:  sess.tenantSlug,
		Intent:      sess.intent,
		Values:      sess.values,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.ID), data, sm.ttl).Err(); err != nil {
		return err
	}
	sess.dirty = false

	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(sm.ttl),
	})
	return nil
}

// Destroy marks the session for deletion on commit.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// Session accessors. Getters on a nil session return zero values so callers
// treat "no session" and "no storage" identically.

// SetSession records the access token and role together. Login and signup
// are the only call sites; the pairing invariant holds by construction.
func (s *Session) SetSession(token string, role authz.Role) {
	s.token = token
	s.role = role
	s.dirty = true
}

// Token returns the current access token, or "" for anonymous sessions.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

// Role returns the active role, or "" for anonymous sessions.
func (s *Session) Role() authz.Role {
	if s == nil {
		return ""
	}
	return s.role
}

// Authenticated reports whether the session carries a token/role pair.
func (s *Session) Authenticated() bool {
	return s.Token() != "" && s.Role().Valid()
}

// ClearSession drops the token/role pair.
func (s *Session) ClearSession() {
	s.token = ""
	s.role = ""
	s.dirty = true
}

// SetTenant records the tenant pair for the session.
func (s *Session) SetTenant(id, slug string) {
	s.tenantID = id
	s.tenantSlug = slug
	s.dirty = true
}

// Tenant returns the tenant pair, empty for platform sessions.
func (s *Session) Tenant() (id, slug string) {
	if s == nil {
		return "", ""
	}
	return s.tenantID, s.tenantSlug
}

// ClearTenant drops the tenant pair.
func (s *Session) ClearTenant() {
	s.tenantID = ""
	s.tenantSlug = ""
	s.dirty = true
}

// SetIntent remembers the path the user attempted before being sent to
// login. Empty paths are ignored.
func (s *Session) SetIntent(path string) {
	if path == "" {
		return
	}
	s.intent = path
	s.dirty = true
}

// ConsumeIntent returns the stored redirect intent and clears it. A second
// call returns "".
func (s *Session) ConsumeIntent() string {
	if s == nil || s.intent == "" {
		return ""
	}
	intent := s.intent
	s.intent = ""
	s.dirty = true
	return intent
}

// Set stores an auxiliary key-value pair (CSRF token and the like).
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves an auxiliary value.
func (s *Session) Get(key string) string {
	if s == nil || s.values == nil {
		return ""
	}
	return s.values[key]
}

// Delete removes an auxiliary value.
func (s *Session) Delete(key string) {
	if s.values == nil {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:     sm.generateSessionID(),
		values: make(map[string]string),
		isNew:  true,
		dirty:  true,
	}
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + id
}

func (sm *SessionManager) generateSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	if len(sm.secret) > 0 {
		for i := range b {
			b[i] ^= sm.secret[i%len(sm.secret)]
		}
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
