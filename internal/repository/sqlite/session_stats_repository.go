package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/bturcotte520/FlashCards/internal/logger"
	"github.com/bturcotte520/FlashCards/internal/models"
)

const defaultHistoryLimit = 50

// SessionStatsRepository records completed study sessions in session_history.
type SessionStatsRepository struct {
	db *sql.DB
}

// NewSessionStatsRepository creates a repository that satisfies both
// repository.StatsRecorder and repository.SessionHistory.
func NewSessionStatsRepository(db *sql.DB) *SessionStatsRepository {
	return &SessionStatsRepository{db: db}
}

// RecordSession stores stats. A session id that was already recorded is
// ignored.
func (r *SessionStatsRepository) RecordSession(ctx context.Context, stats models.SessionStats) error {
	log := logger.FromContext(ctx).WithPrefix("session_stats_repo")
	log.Debug("recording session: id=%s studied=%d correct=%d", stats.SessionID, stats.CardsStudied, stats.CorrectAnswers)

	query, args, err := sqlBuilder.Insert("session_history").
		Options("OR IGNORE").
		Columns("session_id", "cards_studied", "correct_answers", "incorrect_answers", "time_spent_seconds", "started_at", "completed_at").
		Values(
			stats.SessionID,
			stats.CardsStudied,
			stats.CorrectAnswers,
			stats.IncorrectAnswers,
			stats.TimeSpent,
			stats.StartedAt.UTC().Format(time.RFC3339Nano),
			stats.CompletedAt.UTC().Format(time.RFC3339Nano),
		).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to record session: id=%s: %v", stats.SessionID, err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		log.Warn("session already recorded: id=%s", stats.SessionID)
	}
	return nil
}

// RecentSessions returns up to limit sessions, most recently completed first.
func (r *SessionStatsRepository) RecentSessions(ctx context.Context, limit int) ([]models.SessionStats, error) {
	log := logger.FromContext(ctx).WithPrefix("session_stats_repo")
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query, args, err := sqlBuilder.Select("session_id", "cards_studied", "correct_answers", "incorrect_answers", "time_spent_seconds", "started_at", "completed_at").
		From("session_history").
		OrderBy("completed_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query session history: %v", err)
		return nil, err
	}
	defer rows.Close()

	var sessions []models.SessionStats
	for rows.Next() {
		var (
			s                  models.SessionStats
			started, completed any
		)
		if err := rows.Scan(&s.SessionID, &s.CardsStudied, &s.CorrectAnswers, &s.IncorrectAnswers, &s.TimeSpent, &started, &completed); err != nil {
			log.Error("failed to scan session row: %v", err)
			return nil, err
		}
		if s.StartedAt, err = asTime(started); err != nil {
			log.Warn("skipping session with bad started_at: id=%s: %v", s.SessionID, err)
			continue
		}
		if s.CompletedAt, err = asTime(completed); err != nil {
			log.Warn("skipping session with bad completed_at: id=%s: %v", s.SessionID, err)
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
