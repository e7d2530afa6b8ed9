package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"signapi/internal/model"
	"signapi/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of
// repository.DocumentRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, title, status, owner_user_id, team_id, storage_path, content_type, size, auth_options, created_at, deleted_at`

// marshalAuthOptions renders auth options for a JSONB column; nil stays NULL.
func marshalAuthOptions(opts *model.AuthOptions) (any, error) {
	if opts == nil {
		return nil, nil
	}
	return json.Marshal(opts)
}

func unmarshalAuthOptions(raw []byte) (*model.AuthOptions, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var opts model.AuthOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var (
		d        model.Document
		authRaw  []byte
		teamID   sql.NullString
		deleted  sql.NullTime
	)
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Status,
		&d.OwnerUserID,
		&teamID,
		&d.StoragePath,
		&d.ContentType,
		&d.Size,
		&authRaw,
		&d.CreatedAt,
		&deleted,
	); err != nil {
		return nil, err
	}
	if teamID.Valid {
		d.TeamID = &teamID.String
	}
	if deleted.Valid {
		t := deleted.Time
		d.DeletedAt = &t
	}
	opts, err := unmarshalAuthOptions(authRaw)
	if err != nil {
		return nil, err
	}
	d.AuthOptions = opts
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, title, status, owner_user_id, team_id, storage_path, content_type, size, auth_options, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + documentColumns

	authRaw, err := marshalAuthOptions(doc.AuthOptions)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Status,
		doc.OwnerUserID,
		doc.TeamID,
		doc.StoragePath,
		doc.ContentType,
		doc.Size,
		authRaw,
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID, including soft-hidden rows.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// ListByOwner returns the owner's visible documents, newest first.
func (r *DocumentPostgres) ListByOwner(ctx context.Context, ownerUserID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents WHERE owner_user_id = $1 AND deleted_at IS NULL`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, ownerUserID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, ownerUserID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

// UpdateStatus sets the status unconditionally.
func (r *DocumentPostgres) UpdateStatus(ctx context.Context, id string, status model.DocumentStatus) error {
	const q = `UPDATE documents SET status = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, q, status, id)
	return err
}

// SetStatusIfCurrent performs the compare-and-swap used to finalize a
// document: the UPDATE's WHERE clause carries the expected current status,
// so of two concurrent completion attempts only one sees a row affected.
func (r *DocumentPostgres) SetStatusIfCurrent(ctx context.Context, id string, from, to model.DocumentStatus) (bool, error) {
	const q = `UPDATE documents SET status = $1 WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SoftHide stamps deleted_at; listings filter on it.
func (r *DocumentPostgres) SoftHide(ctx context.Context, id string) error {
	const q = `UPDATE documents SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// HideForUser inserts a per-user hide record; the document row itself is
// never modified. The primary key makes a repeated hide a no-op.
func (r *DocumentPostgres) HideForUser(ctx context.Context, id, userID string) error {
	const q = `
		INSERT INTO document_hides (document_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (document_id, user_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, q, id, userID)
	return err
}

// Delete removes a document row. Recipients, fields and audit entries
// cascade at the schema level. Missing rows are not an error.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
