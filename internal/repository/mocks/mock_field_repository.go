package mocks

import (
	"context"

	"signapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockFieldRepository struct {
	mock.Mock
}

func (m *MockFieldRepository) CreateMany(ctx context.Context, fields []model.Field) error {
	args := m.Called(ctx, fields)
	return args.Error(0)
}

func (m *MockFieldRepository) ListByDocument(ctx context.Context, documentID string) ([]model.Field, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Field), args.Error(1)
}

func (m *MockFieldRepository) SetSignatureImage(ctx context.Context, fieldID, imagePath string) error {
	args := m.Called(ctx, fieldID, imagePath)
	return args.Error(0)
}

func (m *MockFieldRepository) VoidSignatures(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}
