// Package mail delivers transactional email. The Mailer interface is
// constructed once at process start and injected into the services that need
// it; there is no package-level transport singleton.
package mail

import (
	"context"
	"log/slog"
)

// Mailer sends portal email. Implementations must be safe for concurrent use.
type Mailer interface {
	// SendVerificationEmail delivers the address-verification message
	// containing the verification token.
	SendVerificationEmail(ctx context.Context, to, firstName, token string) error
}

// LogMailer writes mail to the log instead of delivering it. Used in dev and
// in tests.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendVerificationEmail(ctx context.Context, to, firstName, token string) error {
	m.Logger.Info("verification email (log transport)",
		"to", to,
		"first_name", firstName,
		"token", token,
	)
	return nil
}
