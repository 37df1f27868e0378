package mail

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogMailerNeverFails(t *testing.T) {
	m := &LogMailer{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := m.SendVerificationEmail(context.Background(), "ada@example.com", "Ada", "token-123")
	require.NoError(t, err)
}

func TestNewSMTPMailerDefaults(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "mail.example.com"})

	require.Equal(t, 587, m.cfg.Port)
	require.Equal(t, 30*time.Second, m.cfg.Timeout)
	require.Equal(t, "Nimbushost", m.cfg.FromName)
}

func TestSMTPSendHonoursContextCancellation(t *testing.T) {
	// 192.0.2.0/24 is TEST-NET; nothing listens there, so the dial blocks
	// until the context fires.
	m := NewSMTPMailer(SMTPConfig{Host: "192.0.2.1", Timeout: 5 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.SendVerificationEmail(ctx, "ada@example.com", "Ada", "token-123")
	require.Error(t, err)
}
