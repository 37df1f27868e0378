package jwtx

import "errors"

var (
	// ErrExpired reports a structurally valid token whose exp has passed (or
	// nbf not reached). Callers may treat this as "refresh and retry".
	ErrExpired = errors.New("jwtx: token expired")

	// ErrInvalid reports a malformed token, a bad signature, or a token signed
	// with a different secret. Callers should treat this as terminal.
	ErrInvalid = errors.New("jwtx: token invalid")

	// ErrIssuer reports an issuer claim mismatch.
	ErrIssuer = errors.New("jwtx: unexpected issuer")

	// ErrPurpose reports a purpose claim mismatch, e.g. an email verification
	// token presented to the two-factor endpoint.
	ErrPurpose = errors.New("jwtx: unexpected token purpose")
)
