package sqlite

import (
	"context"
	"time"

	"github.com/nimbushost/vps-portal/internal/portal/domain"
	"github.com/nimbushost/vps-portal/internal/portal/store"
)

type sessionsRepo struct {
	q querier
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, token_hash, refresh_token_hash,
			expires_at, refresh_expires_at, ip_address, user_agent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.TokenHash, s.RefreshTokenHash,
		s.ExpiresAt.UTC(), s.RefreshExpiresAt.UTC(), s.IPAddress, s.UserAgent,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *sessionsRepo) GetSessionByRefreshHash(
	ctx context.Context,
	hash string,
) (domain.Session, error) {
	var s domain.Session
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, refresh_token_hash, expires_at,
			refresh_expires_at, ip_address, user_agent, created_at
		FROM sessions WHERE refresh_token_hash = ?`, hash).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.RefreshTokenHash, &s.ExpiresAt,
		&s.RefreshExpiresAt, &s.IPAddress, &s.UserAgent, &s.CreatedAt,
	)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}

// DeleteSessionByRefreshHash is the compare-and-delete half of refresh
// rotation: when two refreshes race on the same token, only one delete
// reports an affected row; the loser gets ErrNotFound.
func (r *sessionsRepo) DeleteSessionByRefreshHash(ctx context.Context, hash string) error {
	return r.deleteOne(ctx, `DELETE FROM sessions WHERE refresh_token_hash = ?`, hash)
}

func (r *sessionsRepo) DeleteSessionByTokenHash(ctx context.Context, hash string) error {
	return r.deleteOne(ctx, `DELETE FROM sessions WHERE token_hash = ?`, hash)
}

func (r *sessionsRepo) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	// The cutoff is bound from Go so both sides of the comparison use the
	// driver's timestamp encoding.
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM sessions WHERE refresh_expires_at < ?`, time.Now().UTC())
	return err
}

func (r *sessionsRepo) CountUserSessions(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func (r *sessionsRepo) deleteOne(ctx context.Context, query string, args ...any) error {
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
