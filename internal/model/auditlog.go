package model

import "time"

// AuditLogType tags an audit log entry. The set is closed; projections
// switch over it exhaustively.
type AuditLogType string

const (
	AuditDocumentCreated            AuditLogType = "DOCUMENT_CREATED"
	AuditDocumentSent               AuditLogType = "DOCUMENT_SENT"
	AuditEmailSent                  AuditLogType = "EMAIL_SENT"
	AuditDocumentOpened             AuditLogType = "DOCUMENT_OPENED"
	AuditDocumentRecipientCompleted AuditLogType = "DOCUMENT_RECIPIENT_COMPLETED"
	AuditDocumentCompleted          AuditLogType = "DOCUMENT_COMPLETED"
	AuditDocumentCancelled          AuditLogType = "DOCUMENT_CANCELLED"
	AuditDocumentDeleted            AuditLogType = "DOCUMENT_DELETED"
)

// AuditLogEntry is an immutable, append-only record of a lifecycle event.
//
// Entries for a given recipient are appended in real-world chronological
// order; projections treat the earliest entry of a type as canonical, so a
// re-sent email does not move the displayed send time.
type AuditLogEntry struct {
	ID         string       `json:"id"`
	DocumentID string       `json:"document_id"`
	Type       AuditLogType `json:"type"`
	// RecipientID is set for per-recipient events (EMAIL_SENT,
	// DOCUMENT_OPENED, DOCUMENT_RECIPIENT_COMPLETED); nil otherwise.
	RecipientID *string   `json:"recipient_id,omitempty"`
	ActorID     string    `json:"actor_id,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
