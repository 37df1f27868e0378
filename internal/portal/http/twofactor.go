package http

import (
	"net/http"

	"github.com/nimbushost/vps-portal/internal/portal/service"
	"github.com/nimbushost/vps-portal/pkg/httpx"
	"github.com/nimbushost/vps-portal/pkg/slogx"
)

// TwoFactorHandler handles TOTP enrollment for an authenticated account.
type TwoFactorHandler struct {
	TwoFactor *service.TwoFactorService
}

// HandleEnroll handles POST /api/auth/2fa/enroll. The secret is returned once
// and only enforced after HandleConfirm proves the authenticator has it.
func (h *TwoFactorHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		httpx.AuthenticationError("authentication required").Write(w)
		return
	}

	enrollment, err := h.TwoFactor.Enroll(ctx, id.UserID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteSuccess(w, http.StatusOK,
		"scan the secret with an authenticator app, then confirm with a code",
		enrollment)
}

// HandleConfirm handles POST /api/auth/2fa/confirm.
func (h *TwoFactorHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		httpx.AuthenticationError("authentication required").Write(w)
		return
	}

	var req twoFactorCodeRequest
	if apiErr := decode(r, &req); apiErr != nil {
		apiErr.Write(w)
		return
	}

	if err := h.TwoFactor.Confirm(ctx, id.UserID, req.Code, clientInfo(r)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	slogx.FromContext(ctx).Info("two-factor enabled", "user_id", id.UserID)
	httpx.WriteSuccess(w, http.StatusOK, "two-factor authentication enabled", nil)
}

// HandleDisable handles POST /api/auth/2fa/disable. A live code is required.
func (h *TwoFactorHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		httpx.AuthenticationError("authentication required").Write(w)
		return
	}

	var req twoFactorCodeRequest
	if apiErr := decode(r, &req); apiErr != nil {
		apiErr.Write(w)
		return
	}

	if err := h.TwoFactor.Disable(ctx, id.UserID, req.Code, clientInfo(r)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	slogx.FromContext(ctx).Info("two-factor disabled", "user_id", id.UserID)
	httpx.WriteSuccess(w, http.StatusOK, "two-factor authentication disabled", nil)
}
