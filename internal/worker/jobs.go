package worker

import (
	"context"

	"github.com/bturcotte520/FlashCards/internal/logger"
	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/repository"
)

// RecordSessionJob stores the summary of a completed study session.
type RecordSessionJob struct {
	Recorder repository.StatsRecorder
	Stats    models.SessionStats
}

func (j *RecordSessionJob) Name() string { return "record_session" }

func (j *RecordSessionJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("session_id", j.Stats.SessionID)
	log.Debug("recording session stats: studied=%d correct=%d", j.Stats.CardsStudied, j.Stats.CorrectAnswers)
	return j.Recorder.RecordSession(ctx, j.Stats)
}
