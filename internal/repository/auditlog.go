package repository

import (
	"context"

	"signapi/internal/model"
)

// AuditLogRepository defines access to the append-only audit log.
// Entries are never updated or deleted; completion detection and the
// certificate are projections over the stream.
type AuditLogRepository interface {
	// Append writes one entry and returns the stored record.
	Append(ctx context.Context, entry *model.AuditLogEntry) (*model.AuditLogEntry, error)

	// ListByDocument returns the document's entries in append order
	// (created_at, then id, ascending).
	ListByDocument(ctx context.Context, documentID string) ([]model.AuditLogEntry, error)
}
