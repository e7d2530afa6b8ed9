package postgres

import (
	"context"
	"database/sql"

	"signapi/internal/model"
	"signapi/internal/repository"
)

// RecipientPostgres is a PostgreSQL implementation of
// repository.RecipientRepository.
type RecipientPostgres struct {
	db *sql.DB
}

// NewRecipientPostgres creates a new RecipientPostgres repository.
func NewRecipientPostgres(db *sql.DB) *RecipientPostgres {
	return &RecipientPostgres{db: db}
}

var _ repository.RecipientRepository = (*RecipientPostgres)(nil)

const recipientColumns = `id, document_id, email, name, role, token, auth_options, signing_order`

func scanRecipient(row interface{ Scan(...any) error }) (*model.Recipient, error) {
	var (
		rcp     model.Recipient
		authRaw []byte
	)
	if err := row.Scan(
		&rcp.ID,
		&rcp.DocumentID,
		&rcp.Email,
		&rcp.Name,
		&rcp.Role,
		&rcp.Token,
		&authRaw,
		&rcp.SigningOrder,
	); err != nil {
		return nil, err
	}
	opts, err := unmarshalAuthOptions(authRaw)
	if err != nil {
		return nil, err
	}
	rcp.AuthOptions = opts
	return &rcp, nil
}

// CreateMany inserts the recipients one statement at a time inside a
// transaction, so a rejected row leaves nothing behind.
func (r *RecipientPostgres) CreateMany(ctx context.Context, recipients []model.Recipient) error {
	if len(recipients) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
		INSERT INTO recipients (id, document_id, email, name, role, token, auth_options, signing_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, rcp := range recipients {
		authRaw, err := marshalAuthOptions(rcp.AuthOptions)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q,
			rcp.ID,
			rcp.DocumentID,
			rcp.Email,
			rcp.Name,
			rcp.Role,
			rcp.Token,
			authRaw,
			rcp.SigningOrder,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListByDocument returns the document's recipients in signing order.
func (r *RecipientPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.Recipient, error) {
	const q = `
		SELECT ` + recipientColumns + `
		FROM recipients
		WHERE document_id = $1
		ORDER BY signing_order ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Recipient, 0)
	for rows.Next() {
		rcp, err := scanRecipient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rcp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByToken resolves a signing token to its recipient.
func (r *RecipientPostgres) FindByToken(ctx context.Context, token string) (*model.Recipient, error) {
	const q = `
		SELECT ` + recipientColumns + `
		FROM recipients
		WHERE token = $1
	`
	return scanRecipient(r.db.QueryRowContext(ctx, q, token))
}
