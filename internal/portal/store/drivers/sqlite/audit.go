package sqlite

import (
	"context"
	"database/sql"

	"github.com/nimbushost/vps-portal/internal/portal/domain"
)

type auditRepo struct {
	q querier
}

func (r *auditRepo) Append(ctx context.Context, e domain.AuditEntry) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO audit_log (id, user_id, action, resource, ip_address, user_agent)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, mapStringNull(e.UserID), e.Action, e.Resource, e.IPAddress, e.UserAgent,
	)
	return err
}

func (r *auditRepo) ListByUser(
	ctx context.Context,
	userID string,
	limit int,
) ([]domain.AuditEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, action, resource, ip_address, user_agent, created_at
		FROM audit_log WHERE user_id = ?
		ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			e   domain.AuditEntry
			uid sql.NullString
		)
		if err := rows.Scan(&e.ID, &uid, &e.Action, &e.Resource,
			&e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		if uid.Valid {
			e.UserID = uid.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
