package http

import (
	"net/http"

	"github.com/nimbushost/vps-portal/internal/portal/service"
	"github.com/nimbushost/vps-portal/pkg/httpx"
	"github.com/nimbushost/vps-portal/pkg/slogx"
)

// LoginHandler handles the credential and second-factor steps of login.
type LoginHandler struct {
	Auth    *service.AuthService
	Metrics *Metrics
}

// HandleLogin handles POST /api/auth/login. Accounts with two-factor enabled
// get a short-lived challenge token instead of a session; everyone else gets
// a token pair straight away.
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if apiErr := decode(r, &req); apiErr != nil {
		apiErr.Write(w)
		return
	}

	res, err := h.Auth.Login(ctx, req.Email, req.Password, req.RememberMe, clientInfo(r))
	if err != nil {
		h.Metrics.LoginAttempts.WithLabelValues("failure").Inc()
		writeServiceError(ctx, w, err)
		return
	}

	if res.Requires2FA {
		h.Metrics.LoginAttempts.WithLabelValues("challenge").Inc()
		httpx.NoCache(w)
		httpx.WriteSuccess(w, http.StatusOK, "two-factor code required", map[string]any{
			"user":        res.User.View(),
			"requires2FA": true,
			"tempToken":   res.TempToken,
		})
		return
	}

	h.Metrics.LoginAttempts.WithLabelValues("success").Inc()
	slogx.FromContext(ctx).Info("login", "user_id", res.User.ID)

	httpx.NoCache(w)
	httpx.WriteSuccess(w, http.StatusOK, "login successful", map[string]any{
		"user":        res.User.View(),
		"requires2FA": false,
		"tokens":      res.Tokens,
	})
}

// HandleVerifyTwoFactor handles POST /api/auth/verify-2fa, completing a login
// that answered with requires2FA.
func (h *LoginHandler) HandleVerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyTwoFactorRequest
	if apiErr := decode(r, &req); apiErr != nil {
		apiErr.Write(w)
		return
	}

	res, err := h.Auth.CompleteTwoFactor(ctx, req.TempToken, req.Code, clientInfo(r))
	if err != nil {
		h.Metrics.LoginAttempts.WithLabelValues("failure").Inc()
		writeServiceError(ctx, w, err)
		return
	}

	h.Metrics.LoginAttempts.WithLabelValues("success").Inc()
	slogx.FromContext(ctx).Info("login", "user_id", res.User.ID, "second_factor", true)

	httpx.NoCache(w)
	httpx.WriteSuccess(w, http.StatusOK, "login successful", map[string]any{
		"user":   res.User.View(),
		"tokens": res.Tokens,
	})
}
