package model

import "time"

// DocumentStatus is the lifecycle state of a document.
// Transitions only move forward: DRAFT -> PENDING -> COMPLETED.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "DRAFT"
	StatusPending   DocumentStatus = "PENDING"
	StatusCompleted DocumentStatus = "COMPLETED"
)

// AllStatuses lists every valid document status. Rule tables keyed by status
// are checked against this slice in tests so a new status cannot be added
// without updating every table.
var AllStatuses = []DocumentStatus{StatusDraft, StatusPending, StatusCompleted}

// IsValid reports whether s is a known document status.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusCompleted:
		return true
	}
	return false
}

// Document is the root aggregate of the signing workflow.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Document struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Status      DocumentStatus `json:"status"`
	OwnerUserID string         `json:"owner_user_id"`
	TeamID      *string        `json:"team_id,omitempty"`
	StoragePath string         `json:"storage_path"`
	ContentType string         `json:"content_type"`
	Size        int64          `json:"size"`
	// AuthOptions is the document-wide authentication requirement.
	// Nil means no explicit setting; recipients fall through to no requirement.
	AuthOptions *AuthOptions `json:"auth_options,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	// DeletedAt marks a soft-hidden document. Hidden documents are excluded
	// from listings but their rows and recipient copies remain intact.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
