package domain

import "time"

// Session is the persisted record binding a refresh token to a user and its
// validity window. Token columns hold SHA-256 fingerprints, never raw tokens.
// A session's refresh token is single-use: refresh deletes the row and
// creates a replacement (rotation).
type Session struct {
	ID               string
	UserID           string
	TokenHash        string // fingerprint of the access token
	RefreshTokenHash string // fingerprint of the refresh token, unique
	ExpiresAt        time.Time
	RefreshExpiresAt time.Time
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
}

// TokenPair is what authentication endpoints return: the short-lived access
// token and the longer-lived refresh token, both JWTs signed with distinct
// secrets.
type TokenPair struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    time.Duration `json:"-"`
}
