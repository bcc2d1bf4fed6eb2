package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bturcotte520/FlashCards/internal/models"
)

// MockStatsRecorder is a mock implementation of repository.StatsRecorder
type MockStatsRecorder struct {
	mock.Mock
}

func (m *MockStatsRecorder) RecordSession(ctx context.Context, stats models.SessionStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

// MockSessionHistory is a mock implementation of repository.SessionHistory
type MockSessionHistory struct {
	mock.Mock
}

func (m *MockSessionHistory) RecentSessions(ctx context.Context, limit int) ([]models.SessionStats, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SessionStats), args.Error(1)
}
