package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTPConfig configures the SMTP transport.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	Timeout     time.Duration
	// VerifyURL is the portal page the token link points at; the token is
	// appended as a query parameter.
	VerifyURL string
}

// SMTPMailer delivers mail over SMTP with STARTTLS-capable plain auth.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.FromName == "" {
		cfg.FromName = "Nimbushost"
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, firstName, token string) error {
	subject := "Verify your email address"
	link := fmt.Sprintf("%s?token=%s", m.cfg.VerifyURL, token)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"Welcome to Nimbushost. Please confirm your email address by opening the link below:\r\n\r\n"+
			"%s\r\n\r\n"+
			"The link expires in 24 hours. If you did not create an account, ignore this message.\r\n",
		firstName, link,
	)
	return m.send(ctx, to, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.FromAddress)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	// net/smtp has no context support; bound the call with a timer so a stuck
	// SMTP server cannot hold a request open indefinitely.
	deadline := m.cfg.Timeout
	if d, ok := ctx.Deadline(); ok {
		if until := time.Until(d); until < deadline {
			deadline = until
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{to}, []byte(msg.String()))
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", to, err)
		}
		return nil
	case <-time.After(deadline):
		return fmt.Errorf("smtp send to %s: timeout after %s", to, deadline)
	case <-ctx.Done():
		return ctx.Err()
	}
}
