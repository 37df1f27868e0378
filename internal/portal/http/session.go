package http

import (
	"net/http"

	"github.com/nimbushost/vps-portal/internal/portal/service"
	"github.com/nimbushost/vps-portal/pkg/httpx"
	"github.com/nimbushost/vps-portal/pkg/slogx"
)

// SessionHandler handles refresh rotation and logout.
type SessionHandler struct {
	Auth    *service.AuthService
	Metrics *Metrics
}

// HandleRefresh handles POST /api/auth/refresh-token. The presented refresh
// token is single-use: a replay gets 401 and must log in again.
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if apiErr := decode(r, &req); apiErr != nil {
		apiErr.Write(w)
		return
	}

	pair, err := h.Auth.Refresh(ctx, req.RefreshToken, clientInfo(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	h.Metrics.Refreshes.Inc()

	httpx.NoCache(w)
	httpx.WriteSuccess(w, http.StatusOK, "tokens refreshed", map[string]any{
		"tokens": pair,
	})
}

// HandleLogout handles POST /api/auth/logout for an authenticated request.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		httpx.AuthenticationError("authentication required").Write(w)
		return
	}

	if err := h.Auth.Logout(ctx, id.UserID, httpx.TokenFromContext(ctx), clientInfo(r)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	slogx.FromContext(ctx).Info("logout", "user_id", id.UserID)
	httpx.WriteSuccess(w, http.StatusOK, "logged out", nil)
}
