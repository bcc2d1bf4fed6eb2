package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bturcotte520/FlashCards/internal/models"
)

// MockProgressStore is a mock implementation of repository.ProgressStore
type MockProgressStore struct {
	mock.Mock
}

func (m *MockProgressStore) Get(ctx context.Context, cardID string) (*models.ProgressRecord, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProgressRecord), args.Error(1)
}

func (m *MockProgressStore) Set(ctx context.Context, record models.ProgressRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockProgressStore) All(ctx context.Context) ([]models.ProgressRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProgressRecord), args.Error(1)
}
