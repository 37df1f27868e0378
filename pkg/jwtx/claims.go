// Package jwtx wraps golang-jwt with the claim set and HS256 signing scheme
// used by the portal. Access and refresh tokens carry the same claims but are
// signed with independent secrets, so a token of one class never verifies as
// the other.
package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nimbushost/vps-portal/pkg/cryptox"
)

// Default token lifetimes. Overridable per service via config.
const (
	// DefaultAccessTTL is the default access token lifetime.
	DefaultAccessTTL = 15 * time.Minute

	// DefaultRefreshTTL is the default refresh token lifetime for remembered
	// sessions.
	DefaultRefreshTTL = 7 * 24 * time.Hour

	// DefaultShortRefreshTTL is the refresh token lifetime for sessions
	// opened without rememberMe.
	DefaultShortRefreshTTL = 24 * time.Hour

	// DefaultChallengeTTL is the lifetime of the temporary credential issued
	// between password verification and the second factor.
	DefaultChallengeTTL = 10 * time.Minute

	// DefaultEmailVerifyTTL is the lifetime of email verification tokens.
	DefaultEmailVerifyTTL = 24 * time.Hour
)

// Token purposes. The purpose claim pins ephemeral tokens to the single
// endpoint that may consume them.
const (
	PurposeAccess      = "access"
	PurposeRefresh     = "refresh"
	PurposeTwoFactor   = "2fa"
	PurposeEmailVerify = "email_verify"
)

// Claims is the claim set embedded in every portal JWT.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the subject user.
	Email string `json:"email,omitempty"`

	// Role of the subject user (CUSTOMER, ADMIN, SUPER_ADMIN).
	Role string `json:"role,omitempty"`

	// Purpose restricts what the token may be used for.
	Purpose string `json:"purpose,omitempty"`
}

// NewClaims builds minimally-correct claims for a user token.
func NewClaims(userID, email, role, purpose, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email:   email,
		Role:    role,
		Purpose: purpose,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	jti, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return jti
}

// ValidatePurpose checks the purpose claim against the expected value.
func (c *Claims) ValidatePurpose(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Purpose != expected {
		return ErrPurpose
	}
	return nil
}
