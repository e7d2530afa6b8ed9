package repository

import (
	"context"

	"signapi/internal/model"
)

// DocumentRepository defines data access for documents.
type DocumentRepository interface {
	// Create inserts a new document row and returns the stored record.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, including soft-hidden rows
	// (visibility filtering is a listing concern).
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// ListByOwner returns the owner's visible (not soft-hidden) documents,
	// newest first, with a total count.
	ListByOwner(ctx context.Context, ownerUserID string, pq PageQuery) (*PageResult[model.Document], error)

	// UpdateStatus sets the document status unconditionally. Used for the
	// DRAFT -> PENDING transition, which is serialized by the send request.
	UpdateStatus(ctx context.Context, id string, status model.DocumentStatus) error

	// SetStatusIfCurrent performs a compare-and-swap on the status column:
	// the row is updated only if its current status equals from. It reports
	// whether the swap happened. Concurrent completion attempts race through
	// this method; at most one observes swapped=true.
	SetStatusIfCurrent(ctx context.Context, id string, from, to model.DocumentStatus) (bool, error)

	// SoftHide stamps deleted_at so the document disappears from listings
	// while the row and its children survive. Only the owner's hide touches
	// the shared row; anyone else goes through HideForUser.
	SoftHide(ctx context.Context, id string) error

	// HideForUser records that one user hid the document from their own
	// view. The shared row is untouched, so the owner's listing and every
	// other viewer are unaffected. Hiding twice is a no-op.
	HideForUser(ctx context.Context, id, userID string) error

	// Delete removes the document row. Child rows cascade at the schema
	// level. It returns nil if the row did not exist.
	Delete(ctx context.Context, id string) error
}
