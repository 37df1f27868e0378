package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/nimbushost/vps-portal/pkg/jwtx"
	"github.com/nimbushost/vps-portal/pkg/slogx"
)

// ActiveStatus is the only account status allowed past the authentication
// middleware.
const ActiveStatus = "ACTIVE"

// IdentityLoader resolves a token subject to a current identity. The token
// alone is not trusted for account state: status and email verification are
// re-read from the store on every request so a suspension takes effect
// immediately, not at token expiry.
type IdentityLoader interface {
	LoadIdentity(ctx context.Context, userID string) (Identity, error)
}

// ErrIdentityNotFound is returned by IdentityLoader implementations when the
// token subject no longer exists.
var ErrIdentityNotFound = errors.New("httpx: identity not found")

// RequireAuth verifies the bearer token, loads the subject, enforces account
// state, and attaches the identity to the request context. Any failure
// short-circuits with a 401, except an inactive or unverified account which
// is a 403.
func RequireAuth(v *jwtx.Verifier, loader IdentityLoader) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			id, raw, apiErr := authenticate(ctx, r, v, loader)
			if apiErr != nil {
				if apiErr.StatusCode == http.StatusUnauthorized {
					log.Warn("authentication failed", "reason", apiErr.Message)
				}
				apiErr.Write(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(ctx, id, raw)))
		})
	}
}

// OptionalAuth behaves like RequireAuth but swallows every failure and
// proceeds without an identity. Used on public endpoints that personalise
// their response when a caller happens to be signed in.
func OptionalAuth(v *jwtx.Verifier, loader IdentityLoader) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id, raw, apiErr := authenticate(ctx, r, v, loader)
			if apiErr == nil {
				r = r.WithContext(ContextWithIdentity(ctx, id, raw))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole allows the request through only when the attached identity
// carries one of the listed roles. Must run inside RequireAuth.
func RequireRole(roles ...string) Middleware {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				AuthenticationError("authentication required").Write(w)
				return
			}
			if _, ok := allowed[id.Role]; !ok {
				AuthorizationError("insufficient permissions").Write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(
	ctx context.Context,
	r *http.Request,
	v *jwtx.Verifier,
	loader IdentityLoader,
) (Identity, string, *APIError) {
	raw := BearerToken(r)
	if raw == "" {
		return Identity{}, "", AuthenticationError("missing bearer token")
	}

	claims, err := v.Verify(raw)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return Identity{}, "", AuthenticationError("token expired")
		}
		return Identity{}, "", AuthenticationError("invalid token")
	}
	if err := claims.ValidatePurpose(jwtx.PurposeAccess); err != nil {
		return Identity{}, "", AuthenticationError("invalid token")
	}

	id, err := loader.LoadIdentity(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return Identity{}, "", AuthenticationError("unknown user")
		}
		return Identity{}, "", InternalError()
	}

	if id.Status != ActiveStatus {
		return Identity{}, "", AuthorizationError("account is not active")
	}
	if !id.EmailVerified {
		return Identity{}, "", AuthorizationError("email address not verified")
	}

	return id, raw, nil
}
