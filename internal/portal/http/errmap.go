package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/nimbushost/vps-portal/internal/portal/service"
	"github.com/nimbushost/vps-portal/pkg/httpx"
	"github.com/nimbushost/vps-portal/pkg/slogx"
)

// writeServiceError maps service sentinels onto the wire error taxonomy.
// Anything unrecognised is a 500 and gets logged; sentinel failures are the
// client's problem and are logged at debug only.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var apiErr *httpx.APIError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		apiErr = httpx.AuthenticationError("invalid email or password")
	case errors.Is(err, service.ErrSessionExpired):
		apiErr = httpx.AuthenticationError("session expired, please log in again")
	case errors.Is(err, service.ErrExpiredToken):
		apiErr = httpx.AuthenticationError("token has expired")
	case errors.Is(err, service.ErrInvalidToken):
		apiErr = httpx.AuthenticationError("invalid token")
	case errors.Is(err, service.ErrInvalidTwoFactor):
		apiErr = httpx.AuthenticationError("invalid two-factor code")
	case errors.Is(err, service.ErrAccountNotActive):
		apiErr = httpx.AuthorizationError("account is not active")
	case errors.Is(err, service.ErrEmailNotVerified):
		apiErr = httpx.AuthorizationError("email address not verified")
	case errors.Is(err, service.ErrEmailTaken):
		apiErr = httpx.ConflictError("email address already registered")
	case errors.Is(err, service.ErrTwoFactorEnabled):
		apiErr = httpx.ConflictError("two-factor authentication is already enabled")
	case errors.Is(err, service.ErrTwoFactorDisabled):
		apiErr = httpx.ValidationError("two-factor authentication is not enabled")
	case errors.Is(err, service.ErrUserNotFound):
		apiErr = httpx.NotFoundError("user not found")
	case errors.Is(err, service.ErrInvalidPlanConfig):
		apiErr = httpx.ValidationError("plan configuration is out of range")
	default:
		slogx.FromContext(ctx).Error("request failed", "err", err)
		apiErr = httpx.InternalError()
	}

	if apiErr.StatusCode < http.StatusInternalServerError {
		slogx.FromContext(ctx).Debug("request rejected", "err", err)
	}
	apiErr.Write(w)
}
