package httpx

import (
	"context"
	"net/http"
	"strings"
)

// Identity is the authenticated caller attached to the request context by the
// authentication middleware.
type Identity struct {
	UserID        string
	Email         string
	Role          string
	Status        string
	EmailVerified bool
}

type ctxKey string

const (
	ctxKeyIdentity ctxKey = "identity"
	ctxKeyToken    ctxKey = "bearer_token"
)

// ContextWithIdentity attaches an authenticated identity and the raw bearer
// token that proved it.
func ContextWithIdentity(ctx context.Context, id Identity, rawToken string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyIdentity, id)
	return context.WithValue(ctx, ctxKeyToken, rawToken)
}

// IdentityFromContext returns the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(Identity)
	return id, ok
}

// TokenFromContext returns the raw bearer token the identity was derived
// from. Logout uses it to locate the session row to delete.
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(ctxKeyToken).(string)
	return tok
}

// BearerToken extracts the bearer token from the Authorization header.
// Returns "" when the header is absent or not a bearer scheme.
func BearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
}
