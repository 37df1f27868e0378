package http

import (
	"net/http"

	"github.com/nimbushost/vps-portal/internal/portal/service"
	"github.com/nimbushost/vps-portal/pkg/httpx"
)

// ProfileHandler serves the authenticated account's own record.
type ProfileHandler struct {
	Accounts *service.AccountService
}

// HandleProfile handles GET /api/auth/profile.
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		httpx.AuthenticationError("authentication required").Write(w)
		return
	}

	u, err := h.Accounts.Profile(ctx, id.UserID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteSuccess(w, http.StatusOK, "", map[string]any{"user": u.View()})
}
