package sqlite

import (
	"context"
	"database/sql"

	"github.com/nimbushost/vps-portal/internal/portal/domain"
	"github.com/nimbushost/vps-portal/internal/portal/store"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, email, password_hash, first_name, last_name, phone,
	role, status, email_verified, totp_secret, two_factor_enabled,
	last_login_at, created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u           domain.User
		totpSecret  sql.NullString
		lastLoginAt sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone,
		&u.Role, &u.Status, &u.EmailVerified, &totpSecret, &u.TwoFactorEnabled,
		&lastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.TOTPSecret = mapNullStringPtr(totpSecret)
	u.LastLoginAt = mapNullTimePtr(lastLoginAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name,
			phone, role, status, email_verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.Phone, u.Role, u.Status, u.EmailVerified,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *usersRepo) MarkEmailVerified(ctx context.Context, userID string) error {
	return r.exec(ctx, `
		UPDATE users
		SET email_verified = 1,
		    status = CASE WHEN status = 'PENDING' THEN 'ACTIVE' ELSE status END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, userID)
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID string) error {
	return r.exec(ctx, `
		UPDATE users SET last_login_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, userID)
}

func (r *usersRepo) SetTOTPSecret(ctx context.Context, userID string, secret string) error {
	return r.exec(ctx, `
		UPDATE users SET totp_secret = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, mapStringNull(secret), userID)
}

func (r *usersRepo) EnableTwoFactor(ctx context.Context, userID string) error {
	return r.exec(ctx, `
		UPDATE users SET two_factor_enabled = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND totp_secret IS NOT NULL`, userID)
}

func (r *usersRepo) DisableTwoFactor(ctx context.Context, userID string) error {
	return r.exec(ctx, `
		UPDATE users
		SET two_factor_enabled = 0, totp_secret = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, userID)
}

func (r *usersRepo) UpdateStatus(ctx context.Context, userID string, status string) error {
	return r.exec(ctx, `
		UPDATE users SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, status, userID)
}

// exec runs an UPDATE that must touch exactly one row, mapping zero rows to
// ErrNotFound.
func (r *usersRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
