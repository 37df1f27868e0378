package app

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the process configuration, loaded from the environment.
type Config struct {
	Env       string `env:"ENV, default=dev"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogFormat string `env:"LOG_FORMAT, default=json"`
	Port      int    `env:"PORT, default=8080"`

	Issuer string `env:"PORTAL_ISSUER, default=nimbushost-portal"`

	// Signing secrets. Access and refresh secrets MUST differ so tokens can
	// never be replayed across purposes.
	AccessSecret  string `env:"PORTAL_ACCESS_SECRET, required"`
	RefreshSecret string `env:"PORTAL_REFRESH_SECRET, required"`

	AccessTTL  time.Duration `env:"PORTAL_ACCESS_TTL, default=15m"`
	RefreshTTL time.Duration `env:"PORTAL_REFRESH_TTL, default=168h"`

	DatabaseFile string `env:"PORTAL_DATABASE_FILE, default=portal.db"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT, default=587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM, default=no-reply@nimbushost.example"`
	MailFromName string `env:"MAIL_FROM_NAME, default=Nimbushost"`
	VerifyURL    string `env:"MAIL_VERIFY_URL, default=http://localhost:8080/verify-email"`

	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD, default=10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL, default=1h"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces constraints envconfig tags cannot express.
func (c Config) Validate() error {
	if len(c.AccessSecret) < 32 || len(c.RefreshSecret) < 32 {
		return errors.New("signing secrets must be at least 32 bytes")
	}
	if c.AccessSecret == c.RefreshSecret {
		return errors.New("access and refresh secrets must differ")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= c.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	return nil
}
