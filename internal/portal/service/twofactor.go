package service

import (
	"context"
	"errors"

	"github.com/nimbushost/vps-portal/internal/portal/domain"
	"github.com/nimbushost/vps-portal/internal/portal/store"
)

// TwoFactorService manages TOTP enrollment for an authenticated account.
// Enrollment is two-step: Enroll stores a provisional secret, Confirm proves
// possession of it with a live code before the factor is enforced at login.
type TwoFactorService struct {
	Store  store.Store
	Tokens *TokenService
}

// Enrollment is what Enroll returns: the base32 secret and the otpauth:// URI
// an authenticator app can consume directly.
type Enrollment struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

// Enroll generates a fresh TOTP secret for the account and stores it
// unconfirmed. Re-enrolling before confirmation replaces the provisional
// secret; enrolling while already enabled is refused.
func (s *TwoFactorService) Enroll(ctx context.Context, userID string) (Enrollment, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return Enrollment{}, err
	}
	if u.TwoFactorEnabled {
		return Enrollment{}, ErrTwoFactorEnabled
	}

	secret, uri, err := s.Tokens.GenerateTwoFactorSecret(u.Email)
	if err != nil {
		return Enrollment{}, err
	}
	if err := s.Store.Users().SetTOTPSecret(ctx, u.ID, secret); err != nil {
		return Enrollment{}, err
	}
	return Enrollment{Secret: secret, URI: uri}, nil
}

// Confirm finishes enrollment: the code must match the provisional secret,
// after which two-factor is enforced on every login.
func (s *TwoFactorService) Confirm(ctx context.Context, userID, code string, client ClientInfo) error {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.TwoFactorEnabled {
		return ErrTwoFactorEnabled
	}
	if u.TOTPSecret == nil {
		return ErrTwoFactorDisabled
	}
	if !s.Tokens.VerifyTwoFactorCode(*u.TOTPSecret, code) {
		return ErrInvalidTwoFactor
	}

	if err := s.Store.Users().EnableTwoFactor(ctx, u.ID); err != nil {
		return err
	}
	appendAudit(ctx, s.Store, u.ID, domain.AuditActionTwoFactorOn, u.Email, client)
	return nil
}

// Disable turns the second factor off. A live code is required so a stolen
// session alone cannot weaken the account, and every open session is revoked
// so holders of older tokens must log in again without the factor.
func (s *TwoFactorService) Disable(ctx context.Context, userID, code string, client ClientInfo) error {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !u.TwoFactorEnabled || u.TOTPSecret == nil {
		return ErrTwoFactorDisabled
	}
	if !s.Tokens.VerifyTwoFactorCode(*u.TOTPSecret, code) {
		return ErrInvalidTwoFactor
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().DisableTwoFactor(ctx, u.ID); err != nil {
			return err
		}
		return tx.Sessions().DeleteUserSessions(ctx, u.ID)
	})
	if err != nil {
		return err
	}
	appendAudit(ctx, s.Store, u.ID, domain.AuditActionTwoFactorOff, u.Email, client)
	return nil
}

func (s *TwoFactorService) getUser(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}
