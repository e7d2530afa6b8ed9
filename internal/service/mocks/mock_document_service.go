package mocks

import (
	"context"
	"io"

	"signapi/internal/deletion"
	"signapi/internal/lifecycle"
	"signapi/internal/model"
	"signapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, r io.Reader, originalFilename, title, ownerUserID, contentType string, size int64, authOpts *model.AuthOptions) (*model.Document, error) {
	args := m.Called(ctx, r, originalFilename, title, ownerUserID, contentType, size, authOpts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id, actorUserID string) (*model.Document, error) {
	args := m.Called(ctx, id, actorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, ownerUserID string, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, ownerUserID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) AddRecipients(ctx context.Context, documentID, actorUserID string, inputs []service.RecipientInput) ([]model.Recipient, error) {
	args := m.Called(ctx, documentID, actorUserID, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipient), args.Error(1)
}

func (m *MockDocumentService) AddFields(ctx context.Context, documentID, actorUserID string, inputs []service.FieldInput) ([]model.Field, error) {
	args := m.Called(ctx, documentID, actorUserID, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Field), args.Error(1)
}

func (m *MockDocumentService) SendForSigning(ctx context.Context, documentID, actorUserID string) (lifecycle.Result, error) {
	args := m.Called(ctx, documentID, actorUserID)
	return args.Get(0).(lifecycle.Result), args.Error(1)
}

func (m *MockDocumentService) OpenByToken(ctx context.Context, token string, meta service.RequestMeta) (*service.SigningSession, error) {
	args := m.Called(ctx, token, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SigningSession), args.Error(1)
}

func (m *MockDocumentService) CompleteRecipient(ctx context.Context, token string, signature io.Reader, signatureSize int64, meta service.RequestMeta) (lifecycle.Result, error) {
	args := m.Called(ctx, token, signature, signatureSize, meta)
	return args.Get(0).(lifecycle.Result), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, documentID string, req service.DeleteRequest) (deletion.Decision, error) {
	args := m.Called(ctx, documentID, req)
	return args.Get(0).(deletion.Decision), args.Error(1)
}

func (m *MockDocumentService) Certificate(ctx context.Context, documentID, actorUserID string) ([]service.CertificateRow, error) {
	args := m.Called(ctx, documentID, actorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.CertificateRow), args.Error(1)
}
