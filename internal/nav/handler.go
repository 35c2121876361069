package nav

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerly/ledgerly/internal/authz"
	"github.com/ledgerly/ledgerly/internal/platform/httpx"
	"github.com/ledgerly/ledgerly/internal/shared"
)

// Handler serves the navigation menus as JSON.
type Handler struct{}

// NewHandler constructs a Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// MountSystemRoutes registers the tenant-area menu endpoint.
func (h *Handler) MountSystemRoutes(r chi.Router) {
	r.Get("/nav", h.area(authz.AreaSystem))
}

// MountPlatformRoutes registers the platform-area menu endpoint.
func (h *Handler) MountPlatformRoutes(r chi.Router) {
	r.Get("/nav", h.area(authz.AreaPlatformAdmin))
}

func (h *Handler) area(area authz.Area) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		httpx.JSON(w, http.StatusOK, map[string]any{
			"links": VisibleLinks(area, sess.Role()),
		})
	}
}
