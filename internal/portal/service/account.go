package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nimbushost/vps-portal/internal/portal/domain"
	"github.com/nimbushost/vps-portal/internal/portal/mail"
	"github.com/nimbushost/vps-portal/internal/portal/store"
	"github.com/nimbushost/vps-portal/pkg/cryptox"
	"github.com/nimbushost/vps-portal/pkg/httpx"
	"github.com/nimbushost/vps-portal/pkg/idx"
)

// RegisterInput is the validated payload for account creation.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// AccountService owns account lifecycle outside of sessions: registration,
// email verification, and profile reads. It also backs the auth middleware's
// per-request identity lookup.
type AccountService struct {
	Store  store.Store
	Tokens *TokenService
	Mailer mail.Mailer
}

// Register creates a PENDING, unverified account and sends the verification
// email. The account row is kept even when the email fails to send; the
// caller sees the send error but the user can be re-verified later.
func (s *AccountService) Register(ctx context.Context, in RegisterInput, client ClientInfo) (domain.User, error) {
	u := domain.User{
		ID:        idx.New().String(),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Role:      domain.RoleCustomer,
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	appendAudit(ctx, s.Store, u.ID, domain.AuditActionRegister, u.Email, client)

	token, err := s.Tokens.GenerateEmailToken(u, time.Now())
	if err != nil {
		return u, fmt.Errorf("email token: %w", err)
	}
	if err := s.Mailer.SendVerificationEmail(ctx, u.Email, u.FirstName, token); err != nil {
		return u, fmt.Errorf("send verification email: %w", err)
	}
	return u, nil
}

// VerifyEmail consumes an email verification token, flipping the account to
// verified and promoting PENDING to ACTIVE. Verifying an already verified
// account is a no-op.
func (s *AccountService) VerifyEmail(ctx context.Context, token string, client ClientInfo) (domain.User, error) {
	claims, err := s.Tokens.VerifyEmailToken(token)
	if err != nil {
		return domain.User{}, err
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidToken
		}
		return domain.User{}, err
	}
	if u.EmailVerified {
		return u, nil
	}

	if err := s.Store.Users().MarkEmailVerified(ctx, u.ID); err != nil {
		return domain.User{}, err
	}
	u.EmailVerified = true
	if u.Status == domain.StatusPending {
		u.Status = domain.StatusActive
	}

	appendAudit(ctx, s.Store, u.ID, domain.AuditActionEmailVerified, u.Email, client)
	return u, nil
}

// Profile returns the account behind an authenticated request.
func (s *AccountService) Profile(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// LoadIdentity implements httpx.IdentityLoader. The middleware calls it on
// every authenticated request so that status changes (suspension,
// termination) take effect without waiting for token expiry.
func (s *AccountService) LoadIdentity(ctx context.Context, userID string) (httpx.Identity, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return httpx.Identity{}, httpx.ErrIdentityNotFound
		}
		return httpx.Identity{}, err
	}
	return httpx.Identity{
		UserID:        u.ID,
		Email:         u.Email,
		Role:          u.Role,
		Status:        u.Status,
		EmailVerified: u.EmailVerified,
	}, nil
}
