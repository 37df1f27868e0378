package store

import (
	"context"
	"errors"

	"github.com/nimbushost/vps-portal/internal/portal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today,
// postgres later) implement this. It exposes sub-repositories to keep
// concerns tidy and testable.
type Store interface {
	Users() Users
	Sessions() Sessions
	Audit() Audit

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error, the
	// transaction is rolled back; otherwise it is committed. This is the
	// recommended way to run multi-step operations that must be atomic
	// (e.g. refresh rotation).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and duplicate-registration checks.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// MarkEmailVerified flips email_verified and promotes a PENDING account
	// to ACTIVE.
	MarkEmailVerified(ctx context.Context, userID string) error

	// UpdateLastLogin stamps last_login_at with the current time.
	UpdateLastLogin(ctx context.Context, userID string) error

	// SetTOTPSecret stores the (not yet confirmed) TOTP secret. An empty
	// secret clears the column.
	SetTOTPSecret(ctx context.Context, userID string, secret string) error

	// EnableTwoFactor marks the stored TOTP secret as confirmed.
	EnableTwoFactor(ctx context.Context, userID string) error

	// DisableTwoFactor clears both the secret and the enabled flag.
	DisableTwoFactor(ctx context.Context, userID string) error

	// UpdateStatus moves the account to a new status (SUSPENDED, TERMINATED).
	UpdateStatus(ctx context.Context, userID string, status string) error
}

type Sessions interface {
	// CreateSession stores a new session record.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByRefreshHash returns the session owning a refresh token
	// fingerprint.
	GetSessionByRefreshHash(ctx context.Context, hash string) (domain.Session, error)

	// DeleteSessionByRefreshHash removes the session owning a refresh token
	// fingerprint. Returns ErrNotFound when no row was deleted; inside a
	// transaction this is the compare-and-delete that makes rotation
	// single-use under concurrent refreshes.
	DeleteSessionByRefreshHash(ctx context.Context, hash string) error

	// DeleteSessionByTokenHash removes the session matching an access token
	// fingerprint (logout).
	DeleteSessionByTokenHash(ctx context.Context, hash string) error

	// DeleteUserSessions removes every session belonging to a user.
	DeleteUserSessions(ctx context.Context, userID string) error

	// DeleteExpiredSessions removes sessions past refresh expiry
	// (housekeeping).
	DeleteExpiredSessions(ctx context.Context) error

	// CountUserSessions returns the number of live sessions for a user.
	CountUserSessions(ctx context.Context, userID string) (int, error)
}

type Audit interface {
	// Append writes one audit entry. Entries are write-once; there is no
	// update or delete.
	Append(ctx context.Context, e domain.AuditEntry) error

	// ListByUser returns a user's entries, newest first, capped at limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.AuditEntry, error)
}
