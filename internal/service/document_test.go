package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"signapi/internal/deletion"
	"signapi/internal/docauth"
	"signapi/internal/mail"
	mailMocks "signapi/internal/mail/mocks"
	"signapi/internal/model"
	"signapi/internal/repository"
	repoMocks "signapi/internal/repository/mocks"
	"signapi/internal/storage"
	storeMocks "signapi/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type serviceMocks struct {
	store      *storeMocks.MockStorage
	docs       *repoMocks.MockDocumentRepository
	recipients *repoMocks.MockRecipientRepository
	fields     *repoMocks.MockFieldRepository
	audit      *repoMocks.MockAuditLogRepository
	mailer     *mailMocks.MockMailer
}

func newTestService() (DocumentService, *serviceMocks) {
	m := &serviceMocks{
		store:      new(storeMocks.MockStorage),
		docs:       new(repoMocks.MockDocumentRepository),
		recipients: new(repoMocks.MockRecipientRepository),
		fields:     new(repoMocks.MockFieldRepository),
		audit:      new(repoMocks.MockAuditLogRepository),
		mailer:     new(mailMocks.MockMailer),
	}
	resolver := docauth.NewResolver(docauth.Config{AllowPasskey: true, AllowTwoFactor: true})
	svc := NewDocumentService(m.store, m.docs, m.recipients, m.fields, m.audit, m.mailer, resolver, "sign.example.com")
	return svc, m
}

func (m *serviceMocks) assertExpectations(t *testing.T) {
	t.Helper()
	m.store.AssertExpectations(t)
	m.docs.AssertExpectations(t)
	m.recipients.AssertExpectations(t)
	m.fields.AssertExpectations(t)
	m.audit.AssertExpectations(t)
	m.mailer.AssertExpectations(t)
}

// auditOfType matches an appended entry by its event type.
func auditOfType(t model.AuditLogType) any {
	return mock.MatchedBy(func(e *model.AuditLogEntry) bool { return e.Type == t })
}

func echoEntry(t model.AuditLogType, recipientID *string) *model.AuditLogEntry {
	return &model.AuditLogEntry{ID: "audit-id", Type: t, RecipientID: recipientID}
}

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name             string
		originalFilename string
		contentType      string
		size             int64
		authOpts         *model.AuthOptions
		setupMocks       func(m *serviceMocks) io.Reader
		wantErr          error
		wantErrMsg       string
	}{
		{
			name:             "happy path",
			originalFilename: "contrato.pdf",
			contentType:      "application/pdf",
			size:             11,
			setupMocks: func(m *serviceMocks) io.Reader {
				r := strings.NewReader("hello world")
				m.store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "documents/") && strings.HasSuffix(key, ".pdf")
				}), r, storage.PutObjectOptions{
					Size:        11,
					ContentType: "application/pdf",
					Metadata:    map[string]string{"original-filename": "contrato.pdf"},
				}).Return(storage.ObjectInfo{
					Key:         "documents/uuid.pdf",
					Size:        11,
					ContentType: "application/pdf",
				}, nil)

				m.docs.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.Status == model.StatusDraft &&
						doc.StoragePath == "documents/uuid.pdf" &&
						doc.OwnerUserID == "user-1"
				})).Return(&model.Document{ID: "gen-id", OwnerUserID: "user-1"}, nil)

				m.audit.On("Append", ctx, auditOfType(model.AuditDocumentCreated)).
					Return(echoEntry(model.AuditDocumentCreated, nil), nil)
				return r
			},
		},
		{
			name:             "nil reader",
			originalFilename: "contrato.pdf",
			setupMocks:       func(m *serviceMocks) io.Reader { return nil },
			wantErr:          ErrReaderNil,
		},
		{
			name:             "invalid document auth options",
			originalFilename: "contrato.pdf",
			authOpts:         &model.AuthOptions{AccessAuth: model.AuthPasskey},
			setupMocks: func(m *serviceMocks) io.Reader {
				return strings.NewReader("hello")
			},
			wantErrMsg: "access auth",
		},
		{
			name:             "storage error",
			originalFilename: "contrato.pdf",
			size:             5,
			setupMocks: func(m *serviceMocks) io.Reader {
				r := strings.NewReader("hello")
				m.store.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
				return r
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name:             "db error rolls back storage",
			originalFilename: "contrato.pdf",
			size:             5,
			setupMocks: func(m *serviceMocks) io.Reader {
				r := strings.NewReader("hello")
				m.store.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(storage.ObjectInfo{Key: "documents/uuid.pdf"}, nil)
				m.docs.On("Create", ctx, mock.Anything).
					Return(nil, errors.New("db down"))
				m.store.On("Delete", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "documents/")
				})).Return(nil)
				return r
			},
			wantErrMsg: "db save failed: db down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService()
			r := tt.setupMocks(m)

			doc, err := svc.Upload(ctx, r, tt.originalFilename, "Contrato", "user-1", tt.contentType, tt.size, tt.authOpts)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.ErrorContains(t, err, tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, doc)
			}
			m.assertExpectations(t)
		})
	}
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("owner sees the document", func(t *testing.T) {
		svc, m := newTestService()
		m.docs.On("FindByID", ctx, "doc-1").
			Return(&model.Document{ID: "doc-1", OwnerUserID: "user-1"}, nil)

		doc, err := svc.Get(ctx, "doc-1", "user-1")

		assert.NoError(t, err)
		assert.Equal(t, "doc-1", doc.ID)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		svc, m := newTestService()
		m.docs.On("FindByID", ctx, "doc-1").
			Return(&model.Document{ID: "doc-1", OwnerUserID: "user-1"}, nil)

		_, err := svc.Get(ctx, "doc-1", "user-2")

		var permErr *model.PermissionError
		assert.ErrorAs(t, err, &permErr)
	})

	t.Run("missing id", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Get(ctx, "", "user-1")
		assert.ErrorIs(t, err, ErrIDRequired)
	})
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService()

	m.docs.On("ListByOwner", ctx, "user-1", repository.PageQuery{Limit: 10, Offset: 0}).
		Return(&repository.PageResult[model.Document]{
			Items: []model.Document{{ID: "doc-1"}, {ID: "doc-2"}},
			Total: 2,
		}, nil)

	// Zero limit falls back to the default page size.
	res, err := svc.List(ctx, "user-1", 0, -5)

	assert.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Items, 2)
	m.assertExpectations(t)
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		doc        *model.Document
		req        DeleteRequest
		setupMocks func(m *serviceMocks)
		wantAction deletion.Action
		wantErr    bool
	}{
		{
			name: "owner deletes a draft permanently",
			doc:  &model.Document{ID: "doc-1", Status: model.StatusDraft, OwnerUserID: "user-1", StoragePath: "documents/a.pdf"},
			req:  DeleteRequest{ActorUserID: "user-1"},
			setupMocks: func(m *serviceMocks) {
				m.audit.On("Append", ctx, auditOfType(model.AuditDocumentDeleted)).
					Return(echoEntry(model.AuditDocumentDeleted, nil), nil)
				m.store.On("Delete", ctx, "documents/a.pdf").Return(nil)
				m.docs.On("Delete", ctx, "doc-1").Return(nil)
			},
			wantAction: deletion.HardDelete,
		},
		{
			name: "owner cancels a pending document",
			doc:  &model.Document{ID: "doc-1", Title: "Contrato", Status: model.StatusPending, OwnerUserID: "user-1", StoragePath: "documents/a.pdf"},
			req:  DeleteRequest{ActorUserID: "user-1", Confirmation: "eliminar"},
			setupMocks: func(m *serviceMocks) {
				m.recipients.On("ListByDocument", ctx, "doc-1").
					Return([]model.Recipient{{ID: "r1", Email: "ana@example.com", Name: "Ana"}}, nil)
				m.fields.On("VoidSignatures", ctx, "doc-1").Return(nil)
				m.audit.On("Append", ctx, auditOfType(model.AuditDocumentCancelled)).
					Return(echoEntry(model.AuditDocumentCancelled, nil), nil)
				m.mailer.On("Send", ctx, mock.MatchedBy(func(msg mail.Message) bool {
					return msg.To == "ana@example.com" && strings.Contains(msg.Subject, "cancelado")
				})).Return(nil)
				m.store.On("Delete", ctx, "documents/a.pdf").Return(nil)
				m.docs.On("Delete", ctx, "doc-1").Return(nil)
			},
			wantAction: deletion.CancelAndNotify,
		},
		{
			name:       "pending cancel without confirmation phrase",
			doc:        &model.Document{ID: "doc-1", Status: model.StatusPending, OwnerUserID: "user-1"},
			req:        DeleteRequest{ActorUserID: "user-1", Confirmation: "delete"},
			setupMocks: func(m *serviceMocks) {},
			wantErr:    true,
		},
		{
			name: "owner hides a completed document",
			doc:  &model.Document{ID: "doc-1", Status: model.StatusCompleted, OwnerUserID: "user-1"},
			req:  DeleteRequest{ActorUserID: "user-1"},
			setupMocks: func(m *serviceMocks) {
				m.docs.On("SoftHide", ctx, "doc-1").Return(nil)
			},
			wantAction: deletion.SoftHide,
		},
		{
			name: "non-manager only hides their view",
			doc:  &model.Document{ID: "doc-1", Status: model.StatusPending, OwnerUserID: "user-1"},
			req:  DeleteRequest{ActorUserID: "user-2"},
			setupMocks: func(m *serviceMocks) {
				m.docs.On("HideForUser", ctx, "doc-1", "user-2").Return(nil)
			},
			wantAction: deletion.SoftHide,
		},
		{
			name: "admin hard delete with reason",
			doc:  &model.Document{ID: "doc-1", Status: model.StatusCompleted, OwnerUserID: "user-1", StoragePath: "documents/a.pdf"},
			req:  DeleteRequest{ActorUserID: "admin-1", IsAdmin: true, Reason: "GDPR request"},
			setupMocks: func(m *serviceMocks) {
				m.audit.On("Append", ctx, mock.MatchedBy(func(e *model.AuditLogEntry) bool {
					return e.Type == model.AuditDocumentDeleted && e.Reason == "GDPR request"
				})).Return(echoEntry(model.AuditDocumentDeleted, nil), nil)
				m.store.On("Delete", ctx, "documents/a.pdf").Return(nil)
				m.docs.On("Delete", ctx, "doc-1").Return(nil)
			},
			wantAction: deletion.HardDelete,
		},
		{
			name:       "admin hard delete without reason",
			doc:        &model.Document{ID: "doc-1", Status: model.StatusCompleted, OwnerUserID: "user-1"},
			req:        DeleteRequest{ActorUserID: "admin-1", IsAdmin: true, Reason: "   "},
			setupMocks: func(m *serviceMocks) {},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService()
			m.docs.On("FindByID", ctx, tt.doc.ID).Return(tt.doc, nil)
			tt.setupMocks(m)

			decision, err := svc.Delete(ctx, tt.doc.ID, tt.req)

			if tt.wantErr {
				var valErr *model.ValidationError
				assert.ErrorAs(t, err, &valErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantAction, decision.Action)
			}
			m.assertExpectations(t)
		})
	}
}

// A stranger who knows a document id can hide it from their own view, but
// the shared row must stay untouched so the owner's dashboard keeps the
// document.
func TestDocumentService_Delete_StrangerNeverTouchesSharedRow(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService()

	m.docs.On("FindByID", ctx, "doc-1").
		Return(&model.Document{ID: "doc-1", Status: model.StatusPending, OwnerUserID: "owner-1"}, nil)
	m.docs.On("HideForUser", ctx, "doc-1", "total-stranger").Return(nil)

	decision, err := svc.Delete(ctx, "doc-1", DeleteRequest{ActorUserID: "total-stranger"})

	assert.NoError(t, err)
	assert.Equal(t, deletion.SoftHide, decision.Action)
	m.docs.AssertNotCalled(t, "SoftHide", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestDocumentService_Certificate(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService()

	doc := &model.Document{ID: "doc-1", OwnerUserID: "user-1", Status: model.StatusCompleted}
	rcpID := "r1"
	m.docs.On("FindByID", ctx, "doc-1").Return(doc, nil)
	m.recipients.On("ListByDocument", ctx, "doc-1").Return([]model.Recipient{
		{ID: rcpID, Name: "Ana", Email: "ana@example.com", Role: model.RoleSigner},
	}, nil)
	m.fields.On("ListByDocument", ctx, "doc-1").Return([]model.Field{
		{ID: "f1", RecipientID: rcpID, Type: model.FieldSignature, SignatureImagePath: "signatures/s1.png"},
	}, nil)
	m.audit.On("ListByDocument", ctx, "doc-1").Return([]model.AuditLogEntry{
		{Type: model.AuditDocumentRecipientCompleted, RecipientID: &rcpID},
	}, nil)
	m.store.On("PresignGet", ctx, "signatures/s1.png", signatureURLExpiry).
		Return("https://minio.example.com/signatures/s1.png?sig=abc", nil)

	rows, err := svc.Certificate(ctx, "doc-1", "user-1")

	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0].Name)
	assert.Contains(t, rows[0].SignatureURL, "sig=abc")
	m.assertExpectations(t)
}

func TestDocumentService_Certificate_NotOwner(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService()

	m.docs.On("FindByID", ctx, "doc-1").
		Return(&model.Document{ID: "doc-1", OwnerUserID: "user-1"}, nil)

	_, err := svc.Certificate(ctx, "doc-1", "intruder")

	var permErr *model.PermissionError
	assert.ErrorAs(t, err, &permErr)
}
