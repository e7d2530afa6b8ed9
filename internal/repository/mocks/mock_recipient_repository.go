package mocks

import (
	"context"

	"signapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockRecipientRepository struct {
	mock.Mock
}

func (m *MockRecipientRepository) CreateMany(ctx context.Context, recipients []model.Recipient) error {
	args := m.Called(ctx, recipients)
	return args.Error(0)
}

func (m *MockRecipientRepository) ListByDocument(ctx context.Context, documentID string) ([]model.Recipient, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipient), args.Error(1)
}

func (m *MockRecipientRepository) FindByToken(ctx context.Context, token string) (*model.Recipient, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipient), args.Error(1)
}
