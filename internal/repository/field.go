package repository

import (
	"context"

	"signapi/internal/model"
)

// FieldRepository defines data access for document fields.
type FieldRepository interface {
	// CreateMany inserts the given fields for a document.
	CreateMany(ctx context.Context, fields []model.Field) error

	// ListByDocument returns all fields of a document.
	ListByDocument(ctx context.Context, documentID string) ([]model.Field, error)

	// SetSignatureImage stores the object key of a rendered signature on the
	// field.
	SetSignatureImage(ctx context.Context, fieldID, imagePath string) error

	// VoidSignatures clears every signature artifact of the document. Used
	// when an in-flight signing is cancelled.
	VoidSignatures(ctx context.Context, documentID string) error
}
