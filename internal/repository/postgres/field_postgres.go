package postgres

import (
	"context"
	"database/sql"

	"signapi/internal/model"
	"signapi/internal/repository"
)

// FieldPostgres is a PostgreSQL implementation of repository.FieldRepository.
type FieldPostgres struct {
	db *sql.DB
}

// NewFieldPostgres creates a new FieldPostgres repository.
func NewFieldPostgres(db *sql.DB) *FieldPostgres {
	return &FieldPostgres{db: db}
}

var _ repository.FieldRepository = (*FieldPostgres)(nil)

// CreateMany inserts the fields inside a transaction.
func (r *FieldPostgres) CreateMany(ctx context.Context, fields []model.Field) error {
	if len(fields) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
		INSERT INTO fields (id, document_id, recipient_id, type, signature_image_path)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, f := range fields {
		if _, err := tx.ExecContext(ctx, q,
			f.ID,
			f.DocumentID,
			f.RecipientID,
			f.Type,
			f.SignatureImagePath,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListByDocument returns all fields of a document.
func (r *FieldPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.Field, error) {
	const q = `
		SELECT id, document_id, recipient_id, type, signature_image_path
		FROM fields
		WHERE document_id = $1
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Field, 0)
	for rows.Next() {
		var f model.Field
		if err := rows.Scan(&f.ID, &f.DocumentID, &f.RecipientID, &f.Type, &f.SignatureImagePath); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SetSignatureImage stores the rendered signature's object key.
func (r *FieldPostgres) SetSignatureImage(ctx context.Context, fieldID, imagePath string) error {
	const q = `UPDATE fields SET signature_image_path = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, q, imagePath, fieldID)
	return err
}

// VoidSignatures clears every signature artifact of a document. Cancelling
// an in-flight signing voids the inserted signatures.
func (r *FieldPostgres) VoidSignatures(ctx context.Context, documentID string) error {
	const q = `UPDATE fields SET signature_image_path = '' WHERE document_id = $1`
	_, err := r.db.ExecContext(ctx, q, documentID)
	return err
}
