package domain

import "time"

// Audit actions, one per session state transition.
const (
	AuditActionRegister        = "auth.register"
	AuditActionEmailVerified   = "auth.email_verified"
	AuditActionLogin           = "auth.login"
	AuditActionLoginFailed     = "auth.login_failed"
	AuditActionTwoFactorPassed = "auth.2fa_verified"
	AuditActionTwoFactorFailed = "auth.2fa_failed"
	AuditActionRefresh         = "auth.refresh"
	AuditActionLogout          = "auth.logout"
	AuditActionTwoFactorOn     = "auth.2fa_enabled"
	AuditActionTwoFactorOff    = "auth.2fa_disabled"
)

// AuditEntry is an append-only record of a security-relevant action. Entries
// are written once and never mutated or deleted by this code.
type AuditEntry struct {
	ID        string
	UserID    string // empty when the actor could not be resolved (failed login)
	Action    string
	Resource  string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}
