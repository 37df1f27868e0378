package service

import (
	"errors"
	"time"

	"github.com/nimbushost/vps-portal/internal/portal/domain"
	"github.com/nimbushost/vps-portal/pkg/jwtx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// totpSkewSteps is the accepted clock-drift window in 30s TOTP steps on each
// side of now, i.e. codes generated within the last or next 60 seconds pass.
const totpSkewSteps = 2

// TokenService signs and verifies the portal's token classes. Access and
// refresh tokens use independent secrets, so a refresh token can never pass
// access verification (and vice versa). Challenge and email tokens are
// access-secret tokens pinned to a purpose claim; they are never persisted
// as sessions.
type TokenService struct {
	Issuer string

	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	ShortRefreshTTL time.Duration
	ChallengeTTL    time.Duration
	EmailVerifyTTL  time.Duration

	accessSigner    *jwtx.Signer
	refreshSigner   *jwtx.Signer
	accessVerifier  *jwtx.Verifier
	refreshVerifier *jwtx.Verifier
}

// NewTokenService wires signers and verifiers for the two secrets and applies
// TTL defaults.
func NewTokenService(accessSecret, refreshSecret []byte, issuer string) *TokenService {
	return &TokenService{
		Issuer:          issuer,
		AccessTTL:       jwtx.DefaultAccessTTL,
		RefreshTTL:      jwtx.DefaultRefreshTTL,
		ShortRefreshTTL: jwtx.DefaultShortRefreshTTL,
		ChallengeTTL:    jwtx.DefaultChallengeTTL,
		EmailVerifyTTL:  jwtx.DefaultEmailVerifyTTL,
		accessSigner:    jwtx.NewSigner(accessSecret),
		refreshSigner:   jwtx.NewSigner(refreshSecret),
		accessVerifier:  jwtx.NewVerifier(accessSecret, issuer),
		refreshVerifier: jwtx.NewVerifier(refreshSecret, issuer),
	}
}

// AccessVerifier exposes the access-secret verifier for the authentication
// middleware.
func (s *TokenService) AccessVerifier() *jwtx.Verifier {
	return s.accessVerifier
}

// GenerateTokenPair signs a fresh access/refresh pair for the user. No side
// effects beyond signing; persisting the session is the caller's job.
func (s *TokenService) GenerateTokenPair(u domain.User, now time.Time) (domain.TokenPair, error) {
	return s.generatePair(u, now, s.RefreshTTL)
}

// SessionRefreshTTL picks the refresh horizon for a new session: the full
// window for remembered logins, a day otherwise.
func (s *TokenService) SessionRefreshTTL(remember bool) time.Duration {
	if remember {
		return s.RefreshTTL
	}
	return s.ShortRefreshTTL
}

func (s *TokenService) generatePair(u domain.User, now time.Time, refreshTTL time.Duration) (domain.TokenPair, error) {
	access, err := s.accessSigner.Sign(
		jwtx.NewClaims(u.ID, u.Email, u.Role, jwtx.PurposeAccess, s.Issuer, s.AccessTTL, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.refreshSigner.Sign(
		jwtx.NewClaims(u.ID, u.Email, u.Role, jwtx.PurposeRefresh, s.Issuer, refreshTTL, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// VerifyAccessToken validates raw as a session access token, returning
// ErrExpiredToken or ErrInvalidToken so callers can distinguish "refresh"
// from "re-login".
func (s *TokenService) VerifyAccessToken(raw string) (jwtx.Claims, error) {
	return s.verify(s.accessVerifier, raw, jwtx.PurposeAccess)
}

// VerifyRefreshToken validates raw as a refresh token.
func (s *TokenService) VerifyRefreshToken(raw string) (jwtx.Claims, error) {
	return s.verify(s.refreshVerifier, raw, jwtx.PurposeRefresh)
}

// GenerateChallengeToken signs the temporary credential handed out between
// password verification and the second factor. Scoped to the verify-2fa
// endpoint via its purpose claim and never stored as a session.
func (s *TokenService) GenerateChallengeToken(u domain.User, now time.Time) (string, error) {
	return s.accessSigner.Sign(
		jwtx.NewClaims(u.ID, u.Email, u.Role, jwtx.PurposeTwoFactor, s.Issuer, s.ChallengeTTL, now))
}

// VerifyChallengeToken validates a two-factor challenge token.
func (s *TokenService) VerifyChallengeToken(raw string) (jwtx.Claims, error) {
	return s.verify(s.accessVerifier, raw, jwtx.PurposeTwoFactor)
}

// GenerateEmailToken signs the email verification token embedded in the
// verification link.
func (s *TokenService) GenerateEmailToken(u domain.User, now time.Time) (string, error) {
	return s.accessSigner.Sign(
		jwtx.NewClaims(u.ID, u.Email, u.Role, jwtx.PurposeEmailVerify, s.Issuer, s.EmailVerifyTTL, now))
}

// VerifyEmailToken validates an email verification token.
func (s *TokenService) VerifyEmailToken(raw string) (jwtx.Claims, error) {
	return s.verify(s.accessVerifier, raw, jwtx.PurposeEmailVerify)
}

func (s *TokenService) verify(v *jwtx.Verifier, raw, purpose string) (jwtx.Claims, error) {
	claims, err := v.Verify(raw)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return jwtx.Claims{}, ErrExpiredToken
		}
		return jwtx.Claims{}, ErrInvalidToken
	}
	if err := claims.ValidatePurpose(purpose); err != nil {
		return jwtx.Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// GenerateTwoFactorSecret creates a fresh TOTP key for the account. Returns
// the base32 secret and the otpauth:// provisioning URI for QR rendering.
func (s *TokenService) GenerateTwoFactorSecret(email string) (secret, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// VerifyTwoFactorCode checks a 6-digit TOTP code against the secret,
// tolerating +-2 steps (60s) of clock drift.
func (s *TokenService) VerifyTwoFactorCode(secret, code string) bool {
	return verifyTOTPAt(secret, code, time.Now())
}

func verifyTOTPAt(secret, code string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    30,
		Skew:      totpSkewSteps,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
