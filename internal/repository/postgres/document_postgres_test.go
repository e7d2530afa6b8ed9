package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"signapi/internal/model"
	"signapi/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func documentRows(doc *model.Document) *sqlmock.Rows {
	var authRaw []byte
	if doc.AuthOptions != nil {
		authRaw, _ = json.Marshal(doc.AuthOptions)
	}
	return sqlmock.NewRows([]string{
		"id", "title", "status", "owner_user_id", "team_id", "storage_path",
		"content_type", "size", "auth_options", "created_at", "deleted_at",
	}).AddRow(
		doc.ID, doc.Title, doc.Status, doc.OwnerUserID, nil, doc.StoragePath,
		doc.ContentType, doc.Size, authRaw, doc.CreatedAt, nil,
	)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	doc := &model.Document{
		ID:          "doc-1",
		Title:       "Contrato de servicios",
		Status:      model.StatusDraft,
		OwnerUserID: "user-1",
		StoragePath: "documents/doc-1.pdf",
		ContentType: "application/pdf",
		Size:        2048,
		AuthOptions: &model.AuthOptions{AccessAuth: model.AuthAccount},
		CreatedAt:   time.Now().UTC(),
	}

	mock.ExpectQuery("INSERT INTO documents").
		WillReturnRows(documentRows(doc))

	stored, err := repo.Create(ctx, doc)

	assert.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, doc.ID, stored.ID)
	assert.Equal(t, model.StatusDraft, stored.Status)
	require.NotNil(t, stored.AuthOptions)
	assert.Equal(t, model.AuthAccount, stored.AuthOptions.AccessAuth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		doc := &model.Document{
			ID: "doc-1", Title: "t", Status: model.StatusPending,
			OwnerUserID: "user-1", StoragePath: "documents/doc-1.pdf",
			ContentType: "application/pdf", Size: 1, CreatedAt: time.Now(),
		}
		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs("doc-1").
			WillReturnRows(documentRows(doc))

		got, err := repo.FindByID(ctx, "doc-1")

		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "doc-1", got.ID)
		assert.Nil(t, got.AuthOptions)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})
}

func TestDocumentPostgres_ListByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	doc := &model.Document{
		ID: "doc-1", Title: "t", Status: model.StatusDraft,
		OwnerUserID: "user-1", StoragePath: "p", ContentType: "application/pdf",
		Size: 1, CreatedAt: time.Now(),
	}
	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("user-1", 10, 0).
		WillReturnRows(documentRows(doc))

	res, err := repo.ListByOwner(ctx, "user-1", repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_SetStatusIfCurrent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("swap succeeds when status matches", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET status").
			WithArgs(model.StatusCompleted, "doc-1", model.StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		swapped, err := repo.SetStatusIfCurrent(ctx, "doc-1", model.StatusPending, model.StatusCompleted)

		assert.NoError(t, err)
		assert.True(t, swapped)
	})

	t.Run("swap is a no-op when another writer got there first", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET status").
			WithArgs(model.StatusCompleted, "doc-1", model.StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))

		swapped, err := repo.SetStatusIfCurrent(ctx, "doc-1", model.StatusPending, model.StatusCompleted)

		assert.NoError(t, err)
		assert.False(t, swapped)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET status").
			WillReturnError(errors.New("db fail"))

		_, err := repo.SetStatusIfCurrent(ctx, "doc-1", model.StatusPending, model.StatusCompleted)

		assert.Error(t, err)
	})
}

func TestDocumentPostgres_SoftHide(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)

	mock.ExpectExec("UPDATE documents SET deleted_at").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.SoftHide(context.Background(), "doc-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_HideForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)

	t.Run("records the hide", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO document_hides").
			WithArgs("doc-1", "user-2").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.HideForUser(context.Background(), "doc-1", "user-2"))
	})

	t.Run("repeated hide is a no-op", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO document_hides").
			WithArgs("doc-1", "user-2").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.HideForUser(context.Background(), "doc-1", "user-2"))
	})
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)

	t.Run("deletes existing row", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents").
			WithArgs("doc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), "doc-1"))
	})

	t.Run("missing row is not an error", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Delete(context.Background(), "missing"))
	})
}
