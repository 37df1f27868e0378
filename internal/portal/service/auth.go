package service

import (
	"context"
	"errors"
	"time"

	"github.com/nimbushost/vps-portal/internal/portal/domain"
	"github.com/nimbushost/vps-portal/internal/portal/store"
	"github.com/nimbushost/vps-portal/pkg/cryptox"
	"github.com/nimbushost/vps-portal/pkg/idx"
	"github.com/nimbushost/vps-portal/pkg/slogx"
)

// ClientInfo is the request metadata recorded on sessions and audit entries.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// LoginResult is the outcome of a successful credential check. Either Tokens
// is set (fully authenticated) or Requires2FA is true and TempToken carries
// the challenge credential for the verify-2fa endpoint.
type LoginResult struct {
	User        domain.User
	Tokens      *domain.TokenPair
	Requires2FA bool
	TempToken   string
}

// AuthService drives the session lifecycle: login, second factor completion,
// refresh rotation, and logout.
type AuthService struct {
	Store  store.Store
	Tokens *TokenService
}

// Login checks credentials and either opens a session or hands out a
// two-factor challenge. Account state is enforced before any token is
// issued: a non-ACTIVE or unverified account is refused regardless of
// password correctness. remember widens the refresh horizon of the opened
// session.
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool, client ClientInfo) (LoginResult, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.audit(ctx, "", domain.AuditActionLoginFailed, email, client)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := cryptox.ComparePassword(password, u.PasswordHash); err != nil {
		s.audit(ctx, u.ID, domain.AuditActionLoginFailed, u.Email, client)
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := checkAccountState(u); err != nil {
		return LoginResult{}, err
	}

	if u.TwoFactorEnabled {
		temp, err := s.Tokens.GenerateChallengeToken(u, time.Now())
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{User: u, Requires2FA: true, TempToken: temp}, nil
	}

	pair, err := s.openSession(ctx, u, remember, client, domain.AuditActionLogin)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: u, Tokens: &pair}, nil
}

// CompleteTwoFactor finishes an AwaitingSecondFactor login. The TOTP code is
// verified against the challenge token's subject, account state is
// re-checked at the transition boundary, and only then is a session opened.
// The challenge token does not carry the rememberMe choice, so second-factor
// sessions always get the full refresh horizon.
func (s *AuthService) CompleteTwoFactor(ctx context.Context, tempToken, code string, client ClientInfo) (LoginResult, error) {
	claims, err := s.Tokens.VerifyChallengeToken(tempToken)
	if err != nil {
		return LoginResult{}, err
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidToken
		}
		return LoginResult{}, err
	}

	if err := checkAccountState(u); err != nil {
		return LoginResult{}, err
	}

	if !u.TwoFactorEnabled || u.TOTPSecret == nil || !s.Tokens.VerifyTwoFactorCode(*u.TOTPSecret, code) {
		s.audit(ctx, u.ID, domain.AuditActionTwoFactorFailed, u.Email, client)
		return LoginResult{}, ErrInvalidTwoFactor
	}

	s.audit(ctx, u.ID, domain.AuditActionTwoFactorPassed, u.Email, client)

	pair, err := s.openSession(ctx, u, true, client, domain.AuditActionLogin)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: u, Tokens: &pair}, nil
}

// Refresh rotates a session: the presented refresh token is validated, its
// session row is compare-and-deleted, and a fresh session with a new token
// pair replaces it, all in one transaction. A replayed or raced refresh
// token finds no row to delete and fails with ErrSessionExpired.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (domain.TokenPair, error) {
	claims, err := s.Tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return domain.TokenPair{}, ErrSessionExpired
		}
		return domain.TokenPair{}, err
	}

	now := time.Now()
	fp := cryptox.FingerprintToken(refreshToken)

	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		sess, err := tx.Sessions().GetSessionByRefreshHash(ctx, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrSessionExpired
			}
			return err
		}

		// Expiry is checked lazily here rather than by a background reaper.
		if now.After(sess.RefreshExpiresAt) {
			_ = tx.Sessions().DeleteSessionByRefreshHash(ctx, fp)
			return ErrSessionExpired
		}

		u, err := tx.Users().GetUserByID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrSessionExpired
			}
			return err
		}
		if err := checkAccountState(u); err != nil {
			return err
		}

		// Compare-and-delete: zero rows means another refresh won the race.
		if err := tx.Sessions().DeleteSessionByRefreshHash(ctx, fp); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrSessionExpired
			}
			return err
		}

		pair, err = s.Tokens.GenerateTokenPair(u, now)
		if err != nil {
			return err
		}

		return tx.Sessions().CreateSession(ctx, domain.Session{
			ID:               idx.New().String(),
			UserID:           u.ID,
			TokenHash:        cryptox.FingerprintToken(pair.AccessToken),
			RefreshTokenHash: cryptox.FingerprintToken(pair.RefreshToken),
			ExpiresAt:        now.Add(s.Tokens.AccessTTL),
			RefreshExpiresAt: now.Add(s.Tokens.RefreshTTL),
			IPAddress:        client.IPAddress,
			UserAgent:        client.UserAgent,
		})
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	s.audit(ctx, claims.Subject, domain.AuditActionRefresh, "", client)
	return pair, nil
}

// Logout deletes the session matching the presented access token. Deleting a
// session that is already gone is not an error; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, userID, accessToken string, client ClientInfo) error {
	fp := cryptox.FingerprintToken(accessToken)
	if err := s.Store.Sessions().DeleteSessionByTokenHash(ctx, fp); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	s.audit(ctx, userID, domain.AuditActionLogout, "", client)
	return nil
}

// openSession persists a new session for u and stamps last_login_at.
func (s *AuthService) openSession(ctx context.Context, u domain.User, remember bool, client ClientInfo, action string) (domain.TokenPair, error) {
	now := time.Now()
	refreshTTL := s.Tokens.SessionRefreshTTL(remember)

	pair, err := s.Tokens.generatePair(u, now, refreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Sessions().CreateSession(ctx, domain.Session{
			ID:               idx.New().String(),
			UserID:           u.ID,
			TokenHash:        cryptox.FingerprintToken(pair.AccessToken),
			RefreshTokenHash: cryptox.FingerprintToken(pair.RefreshToken),
			ExpiresAt:        now.Add(s.Tokens.AccessTTL),
			RefreshExpiresAt: now.Add(refreshTTL),
			IPAddress:        client.IPAddress,
			UserAgent:        client.UserAgent,
		}); err != nil {
			return err
		}
		return tx.Users().UpdateLastLogin(ctx, u.ID)
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	s.audit(ctx, u.ID, action, u.Email, client)
	return pair, nil
}

// audit appends an entry without failing the request; audit write errors are
// logged and swallowed.
func (s *AuthService) audit(ctx context.Context, userID, action, resource string, client ClientInfo) {
	appendAudit(ctx, s.Store, userID, action, resource, client)
}

func appendAudit(ctx context.Context, st store.Store, userID, action, resource string, client ClientInfo) {
	err := st.Audit().Append(ctx, domain.AuditEntry{
		ID:        idx.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	})
	if err != nil {
		slogx.FromContext(ctx).Error("audit append failed", "action", action, "err", err)
	}
}

// checkAccountState enforces the transition-boundary rule: a non-ACTIVE or
// unverified account is refused regardless of credential or token validity.
func checkAccountState(u domain.User) error {
	if u.CanAuthenticate() {
		return nil
	}
	if u.Status != domain.StatusActive {
		return ErrAccountNotActive
	}
	return ErrEmailNotVerified
}
