package repository

import (
	"context"

	"signapi/internal/model"
)

// RecipientRepository defines data access for document recipients.
type RecipientRepository interface {
	// CreateMany inserts the given recipients for a document.
	CreateMany(ctx context.Context, recipients []model.Recipient) error

	// ListByDocument returns the document's recipients in signing order.
	ListByDocument(ctx context.Context, documentID string) ([]model.Recipient, error)

	// FindByToken resolves the opaque signing-session credential to its
	// recipient.
	FindByToken(ctx context.Context, token string) (*model.Recipient, error)
}
