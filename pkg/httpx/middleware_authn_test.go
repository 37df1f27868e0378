package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nimbushost/vps-portal/pkg/jwtx"
)

const authnTestIssuer = "portal-test"

var authnTestSecret = []byte("authn-test-secret-0123456789abcdef-0123456789ab")

type fakeLoader struct {
	identities map[string]Identity
}

func (l *fakeLoader) LoadIdentity(_ context.Context, userID string) (Identity, error) {
	id, ok := l.identities[userID]
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	return id, nil
}

func mintToken(t *testing.T, userID, purpose string, ttl time.Duration) string {
	t.Helper()

	claims := jwtx.NewClaims(userID, userID+"@example.com", "CUSTOMER", purpose, authnTestIssuer, ttl, time.Now())
	token, err := jwtx.NewSigner(authnTestSecret).Sign(claims)
	require.NoError(t, err)
	return token
}

func authnTestHandler(t *testing.T, loader IdentityLoader) http.Handler {
	t.Helper()

	verifier := jwtx.NewVerifier(authnTestSecret, authnTestIssuer)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("X-User-ID", id.UserID)
		w.WriteHeader(http.StatusOK)
	})
	return Chain(inner, RequireAuth(verifier, loader))
}

func doAuthnRequest(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthAllowsActiveVerifiedUser(t *testing.T) {
	loader := &fakeLoader{identities: map[string]Identity{
		"u1": {UserID: "u1", Email: "u1@example.com", Role: "CUSTOMER", Status: "ACTIVE", EmailVerified: true},
	}}
	h := authnTestHandler(t, loader)

	rec := doAuthnRequest(h, mintToken(t, "u1", jwtx.PurposeAccess, time.Minute))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", rec.Header().Get("X-User-ID"))
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	h := authnTestHandler(t, &fakeLoader{})

	rec := doAuthnRequest(h, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	h := authnTestHandler(t, &fakeLoader{})

	claims := jwtx.NewClaims("u1", "u1@example.com", "CUSTOMER", jwtx.PurposeAccess, authnTestIssuer, time.Minute, time.Now().Add(-time.Hour))
	token, err := jwtx.NewSigner(authnTestSecret).Sign(claims)
	require.NoError(t, err)

	rec := doAuthnRequest(h, token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsRefreshToken(t *testing.T) {
	loader := &fakeLoader{identities: map[string]Identity{
		"u1": {UserID: "u1", Status: "ACTIVE", EmailVerified: true},
	}}
	h := authnTestHandler(t, loader)

	// Refresh tokens carry a different purpose and must never work as
	// access tokens.
	rec := doAuthnRequest(h, mintToken(t, "u1", jwtx.PurposeRefresh, time.Minute))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsUnknownUser(t *testing.T) {
	h := authnTestHandler(t, &fakeLoader{})

	rec := doAuthnRequest(h, mintToken(t, "ghost", jwtx.PurposeAccess, time.Minute))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsInactiveUser(t *testing.T) {
	loader := &fakeLoader{identities: map[string]Identity{
		"u1": {UserID: "u1", Status: "SUSPENDED", EmailVerified: true},
	}}
	h := authnTestHandler(t, loader)

	rec := doAuthnRequest(h, mintToken(t, "u1", jwtx.PurposeAccess, time.Minute))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAuthRejectsUnverifiedEmail(t *testing.T) {
	loader := &fakeLoader{identities: map[string]Identity{
		"u1": {UserID: "u1", Status: "ACTIVE", EmailVerified: false},
	}}
	h := authnTestHandler(t, loader)

	rec := doAuthnRequest(h, mintToken(t, "u1", jwtx.PurposeAccess, time.Minute))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole(t *testing.T) {
	loader := &fakeLoader{identities: map[string]Identity{
		"admin":    {UserID: "admin", Role: "ADMIN", Status: "ACTIVE", EmailVerified: true},
		"customer": {UserID: "customer", Role: "CUSTOMER", Status: "ACTIVE", EmailVerified: true},
	}}
	verifier := jwtx.NewVerifier(authnTestSecret, authnTestIssuer)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Chain(inner, RequireAuth(verifier, loader), RequireRole("ADMIN"))

	rec := doAuthnRequest(h, mintToken(t, "admin", jwtx.PurposeAccess, time.Minute))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doAuthnRequest(h, mintToken(t, "customer", jwtx.PurposeAccess, time.Minute))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
