package postgres

import (
	"context"
	"database/sql"

	"signapi/internal/model"
	"signapi/internal/repository"
)

// AuditLogPostgres is a PostgreSQL implementation of
// repository.AuditLogRepository. The table is append-only; there are no
// update or delete statements here on purpose.
type AuditLogPostgres struct {
	db *sql.DB
}

// NewAuditLogPostgres creates a new AuditLogPostgres repository.
func NewAuditLogPostgres(db *sql.DB) *AuditLogPostgres {
	return &AuditLogPostgres{db: db}
}

var _ repository.AuditLogRepository = (*AuditLogPostgres)(nil)

const auditLogColumns = `id, document_id, type, recipient_id, actor_id, reason, ip_address, user_agent, created_at`

// Append writes one entry and returns the stored record.
func (r *AuditLogPostgres) Append(ctx context.Context, entry *model.AuditLogEntry) (*model.AuditLogEntry, error) {
	const q = `
		INSERT INTO audit_logs (id, document_id, type, recipient_id, actor_id, reason, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + auditLogColumns

	row := r.db.QueryRowContext(ctx, q,
		entry.ID,
		entry.DocumentID,
		entry.Type,
		entry.RecipientID,
		entry.ActorID,
		entry.Reason,
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt,
	)
	return scanAuditLogEntry(row)
}

// ListByDocument returns the entries in append order. The secondary sort on
// id keeps entries sharing a timestamp stable.
func (r *AuditLogPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.AuditLogEntry, error) {
	const q = `
		SELECT ` + auditLogColumns + `
		FROM audit_logs
		WHERE document_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AuditLogEntry, 0)
	for rows.Next() {
		e, err := scanAuditLogEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanAuditLogEntry(row interface{ Scan(...any) error }) (*model.AuditLogEntry, error) {
	var (
		e           model.AuditLogEntry
		recipientID sql.NullString
	)
	if err := row.Scan(
		&e.ID,
		&e.DocumentID,
		&e.Type,
		&recipientID,
		&e.ActorID,
		&e.Reason,
		&e.IPAddress,
		&e.UserAgent,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	if recipientID.Valid {
		e.RecipientID = &recipientID.String
	}
	return &e, nil
}
