package http

import (
	"net/http"

	"github.com/nimbushost/vps-portal/internal/portal/service"
	"github.com/nimbushost/vps-portal/pkg/httpx"
	"github.com/nimbushost/vps-portal/pkg/slogx"
)

// RegisterHandler handles account creation and email verification.
type RegisterHandler struct {
	Accounts *service.AccountService
	Metrics  *Metrics
}

// HandleRegister handles POST /api/auth/register.
func (h *RegisterHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if apiErr := decode(r, &req); apiErr != nil {
		apiErr.Write(w)
		return
	}

	u, err := h.Accounts.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}, clientInfo(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	h.Metrics.Registrations.Inc()
	slogx.FromContext(ctx).Info("account registered", "user_id", u.ID)

	httpx.WriteSuccess(w, http.StatusCreated,
		"registration successful, please verify your email address",
		map[string]any{"user": u.View()})
}

// HandleVerifyEmail handles POST /api/auth/verify-email.
func (h *RegisterHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyEmailRequest
	if apiErr := decode(r, &req); apiErr != nil {
		apiErr.Write(w)
		return
	}

	u, err := h.Accounts.VerifyEmail(ctx, req.Token, clientInfo(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	slogx.FromContext(ctx).Info("email verified", "user_id", u.ID)

	httpx.WriteSuccess(w, http.StatusOK, "email address verified",
		map[string]any{"user": u.View()})
}
