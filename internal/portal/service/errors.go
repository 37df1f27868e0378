package service

import "errors"

// Sentinel errors surfaced to the HTTP layer, which maps them onto the error
// taxonomy. Messages are wire-safe.
var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountNotActive   = errors.New("account_not_active")
	ErrEmailNotVerified   = errors.New("email_not_verified")
	ErrEmailTaken         = errors.New("email_taken")
	ErrSessionExpired     = errors.New("session_expired")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrExpiredToken       = errors.New("expired_token")
	ErrInvalidTwoFactor   = errors.New("invalid_2fa_code")
	ErrTwoFactorEnabled   = errors.New("2fa_already_enabled")
	ErrTwoFactorDisabled  = errors.New("2fa_not_enabled")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrInvalidPlanConfig  = errors.New("invalid_plan_config")
)
