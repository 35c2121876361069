package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerly/ledgerly/internal/authz"
	"github.com/ledgerly/ledgerly/internal/guard"
	"github.com/ledgerly/ledgerly/internal/platform/httpx"
	"github.com/ledgerly/ledgerly/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/session", h.showSession)
	r.Get("/login", h.showSession)
	r.Post("/login", h.handleLogin)
	r.Post("/signup", h.handleSignup)
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type signupRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	CompanyName string `json:"company_name" validate:"required"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role,omitempty"`
	TenantID      string `json:"tenant_id,omitempty"`
	TenantSlug    string `json:"tenant_slug,omitempty"`
	CSRFToken     string `json:"csrf_token,omitempty"`
	RedirectTo    string `json:"redirect_to,omitempty"`
}

// showSession reports the current session context and primes a CSRF token so
// a fresh client can submit the login form.
func (h *Handler) showSession(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	resp := sessionResponse{Authenticated: sess.Authenticated()}
	if sess != nil {
		if token, err := h.csrfManager.EnsureToken(r.Context(), sess); err == nil {
			resp.CSRFToken = token
		}
	}
	if resp.Authenticated {
		resp.Role = string(sess.Role())
		resp.TenantID, resp.TenantSlug = sess.Tenant()
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form loginRequest
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if fields := h.validate(form); len(fields) > 0 {
		httpx.JSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		return
	}

	h.establishSession(r, sess, user)
	redirectTo := sess.ConsumeIntent()
	if redirectTo == "" {
		redirectTo = guard.LandingPath(user.Role)
	}

	tenantID, tenantSlug := sess.Tenant()
	httpx.JSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		Role:          string(user.Role),
		TenantID:      tenantID,
		TenantSlug:    tenantSlug,
		RedirectTo:    redirectTo,
	})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var form signupRequest
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if fields := h.validate(form); len(fields) > 0 {
		httpx.JSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during signup")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	user, err := h.service.Signup(r.Context(), SignupInput{
		Name:        form.Name,
		Email:       form.Email,
		Password:    form.Password,
		CompanyName: form.CompanyName,
	})
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrDuplicateEmail):
			httpx.Problem(w, http.StatusConflict, "Duplicate", "email already registered")
		case errors.Is(err, shared.ErrDuplicateSlug):
			httpx.Problem(w, http.StatusConflict, "Duplicate", "company name already taken")
		default:
			h.logger.Error("signup", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}

	h.establishSession(r, sess, user)
	tenantID, tenantSlug := sess.Tenant()
	httpx.JSON(w, http.StatusCreated, sessionResponse{
		Authenticated: true,
		Role:          string(user.Role),
		TenantID:      tenantID,
		TenantSlug:    tenantSlug,
		RedirectTo:    guard.OnboardingPath,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		sess.ClearSession()
		sess.ClearTenant()
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, sessionResponse{RedirectTo: guard.LoginPath})
}

// establishSession writes the token/role pair and, for tenant roles, the
// tenant pair. Platform admins are tenant-agnostic and carry none.
func (h *Handler) establishSession(r *http.Request, sess *shared.Session, user *User) {
	sess.SetSession(NewAccessToken(), user.Role)
	if user.Role == authz.RoleSuperAdmin {
		sess.ClearTenant()
	} else {
		sess.SetTenant(user.TenantID, user.TenantSlug)
	}

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
}

func (h *Handler) validate(form any) map[string]string {
	fields := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fields[fieldErr.Field()] = fieldErr.Tag()
			}
		} else {
			fields["general"] = "invalid payload"
		}
	}
	return fields
}
