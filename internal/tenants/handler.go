package tenants

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerly/ledgerly/internal/authz"
	"github.com/ledgerly/ledgerly/internal/platform/httpx"
	"github.com/ledgerly/ledgerly/internal/shared"
)

// Handler wires HTTP endpoints for tenant settings, onboarding, and platform
// tenant administration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountSystemRoutes registers tenant-facing routes. The router mounting these
// already requires an authenticated session.
func (h *Handler) MountSystemRoutes(r chi.Router) {
	r.Get("/settings", h.showSettings)
	r.Put("/settings", h.updateSettings)
	r.Get("/onboarding", h.showOnboarding)
	r.Post("/onboarding/complete", h.completeOnboarding)
}

// MountPlatformRoutes registers platform administration routes. The router
// mounting these already requires the platform role.
func (h *Handler) MountPlatformRoutes(r chi.Router) {
	r.Get("/tenants", h.listTenants)
}

// requireSettingsAccess enforces the per-route permission on top of the area
// guard. Accountants and viewers can reach the system area but not settings.
func (h *Handler) requireSettingsAccess(w http.ResponseWriter, r *http.Request) (string, bool) {
	sess := shared.SessionFromContext(r.Context())
	tenantID, _ := sess.Tenant()
	if tenantID == "" {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "no tenant in session")
		return "", false
	}
	if !authz.CanManageSettings(sess.Role()) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "settings require the tenant admin role")
		return "", false
	}
	return tenantID, true
}

func (h *Handler) showSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.requireSettingsAccess(w, r)
	if !ok {
		return
	}
	settings, err := h.service.GetSettings(r.Context(), tenantID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("load settings", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.requireSettingsAccess(w, r)
	if !ok {
		return
	}
	var patch SettingsPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(patch); err != nil {
		fields := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fields[fieldErr.Field()] = fieldErr.Tag()
			}
		} else {
			fields["general"] = "invalid payload"
		}
		httpx.JSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
		return
	}
	settings, err := h.service.UpdateSettings(r.Context(), tenantID, patch)
	if err != nil {
		h.logger.Error("update settings", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

type onboardingResponse struct {
	Completed bool `json:"completed"`
}

// showOnboarding reports whether the current tenant finished onboarding. Any
// tenant role may read it; the gate needs it before the dashboard renders.
func (h *Handler) showOnboarding(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	tenantID, _ := sess.Tenant()
	if tenantID == "" {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "no tenant in session")
		return
	}
	completed, err := h.service.OnboardingCompleted(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("onboarding status", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, onboardingResponse{Completed: completed})
}

func (h *Handler) completeOnboarding(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.requireSettingsAccess(w, r)
	if !ok {
		return
	}
	if err := h.service.CompleteOnboarding(r.Context(), tenantID); err != nil {
		h.logger.Error("complete onboarding", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, onboardingResponse{Completed: true})
}

func (h *Handler) listTenants(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	list, pagination, err := h.service.ListTenants(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list tenants", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tenants": list, "pagination": pagination})
}
