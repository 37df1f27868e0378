package cryptox

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor. 12 keeps hashing around the
// 100-250ms range on current hardware, which is slow enough for offline
// attack resistance without hurting login latency.
const PasswordCost = 12

// ErrPasswordMismatch is returned by ComparePassword when the plaintext does
// not match the stored hash.
var ErrPasswordMismatch = errors.New("cryptox: password does not match")

// HashPassword returns a salted bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword compares a plaintext password against a bcrypt hash in
// constant time. Returns ErrPasswordMismatch on any comparison failure so
// callers don't distinguish bad hashes from bad passwords.
func ComparePassword(password, encodedHash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
