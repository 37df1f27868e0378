package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testIssuer = "portal-test"

var (
	accessSecret  = []byte("access-secret-0123456789abcdef-0123456789abcdef")
	refreshSecret = []byte("refresh-secret-0123456789abcdef-0123456789abcdef")
)

func signedToken(t *testing.T, secret []byte, purpose string, ttl time.Duration, now time.Time) string {
	t.Helper()

	claims := NewClaims("user-1", "user@example.com", "CUSTOMER", purpose, testIssuer, ttl, now)
	token, err := NewSigner(secret).Sign(claims)
	require.NoError(t, err)
	return token
}

func TestSignVerifyRoundTrip(t *testing.T) {
	now := time.Now()
	token := signedToken(t, accessSecret, PurposeAccess, time.Minute, now)

	claims, err := NewVerifier(accessSecret, testIssuer).Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "user@example.com", claims.Email)
	require.Equal(t, "CUSTOMER", claims.Role)
	require.NoError(t, claims.ValidatePurpose(PurposeAccess))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token := signedToken(t, accessSecret, PurposeAccess, time.Minute, time.Now())

	_, err := NewVerifier(refreshSecret, testIssuer).Verify(token)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRejectsExpired(t *testing.T) {
	token := signedToken(t, accessSecret, PurposeAccess, time.Minute, time.Now().Add(-time.Hour))

	_, err := NewVerifier(accessSecret, testIssuer).Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	token := signedToken(t, accessSecret, PurposeAccess, time.Minute, time.Now())

	_, err := NewVerifier(accessSecret, "someone-else").Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := NewVerifier(accessSecret, testIssuer).Verify("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestValidatePurpose(t *testing.T) {
	now := time.Now()
	token := signedToken(t, accessSecret, PurposeRefresh, time.Minute, now)

	claims, err := NewVerifier(accessSecret, testIssuer).Verify(token)
	require.NoError(t, err)
	require.ErrorIs(t, claims.ValidatePurpose(PurposeAccess), ErrPurpose)
}

func TestNewJTIUnique(t *testing.T) {
	require.NotEqual(t, NewJTI(), NewJTI())
}
