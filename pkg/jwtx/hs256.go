package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs Claims with an HMAC-SHA256 secret.
type Signer struct {
	secret []byte
}

// NewSigner returns a Signer for the given secret. The secret must be kept
// distinct per token class; access and refresh tokens never share one.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign produces a compact HS256 JWT for the claims.
func (s *Signer) Sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

// Verifier verifies HS256 tokens against a single secret and an expected
// issuer.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier returns a Verifier bound to the given secret and issuer.
// An empty issuer disables issuer enforcement.
func NewVerifier(secret []byte, issuer string) *Verifier {
	return &Verifier{secret: secret, issuer: issuer}
}

// Verify parses and validates raw, returning the embedded claims.
// Expiry failures surface as ErrExpired; every other failure (bad signature,
// wrong secret, malformed token, wrong algorithm) surfaces as ErrInvalid so
// callers can tell "prompt a refresh" apart from "reject outright".
func (v *Verifier) Verify(raw string) (Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, jwt.ErrTokenNotValidYet) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrInvalid
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return Claims{}, ErrIssuer
	}

	return claims, nil
}
