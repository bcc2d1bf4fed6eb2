package services

import (
	"context"

	"github.com/bturcotte520/FlashCards/internal/errors"
	"github.com/bturcotte520/FlashCards/internal/logger"
	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/repository"
	"github.com/bturcotte520/FlashCards/internal/srs"
)

// StatsService handles statistics-related business logic
type StatsService interface {
	RecentSessions(ctx context.Context, limit int) ([]models.SessionStats, error)
	Summary(ctx context.Context, limit int) (*models.StatsSummary, error)
}

type statsService struct {
	history repository.SessionHistory
}

// NewStatsService creates a new StatsService
func NewStatsService(history repository.SessionHistory) StatsService {
	return &statsService{history: history}
}

func (s *statsService) RecentSessions(ctx context.Context, limit int) ([]models.SessionStats, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting recent sessions: limit=%d", limit)

	sessions, err := s.history.RecentSessions(ctx, limit)
	if err != nil {
		log.Error("failed to get recent sessions: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if sessions == nil {
		sessions = []models.SessionStats{}
	}
	return sessions, nil
}

// Summary totals the most recent sessions and grades their retention.
func (s *statsService) Summary(ctx context.Context, limit int) (*models.StatsSummary, error) {
	sessions, err := s.RecentSessions(ctx, limit)
	if err != nil {
		return nil, err
	}

	sum := &models.StatsSummary{Sessions: len(sessions)}
	for _, st := range sessions {
		sum.CardsStudied += st.CardsStudied
		sum.CorrectAnswers += st.CorrectAnswers
		sum.IncorrectAnswers += st.IncorrectAnswers
		sum.TimeSpent += st.TimeSpent
	}
	sum.RetentionRate = srs.RetentionRate(sum.CorrectAnswers, sum.CorrectAnswers+sum.IncorrectAnswers)
	sum.RetentionGrade = srs.RetentionGrade(sum.RetentionRate)
	return sum, nil
}
