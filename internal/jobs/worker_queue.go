package jobs

import (
	"context"
	"fmt"

	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/repository"
	"github.com/bturcotte520/FlashCards/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	statsPool *worker.Pool
	recorder  repository.StatsRecorder
}

// NewWorkerQueue creates a WorkerQueue that hands session stats to recorder
// on statsPool.
func NewWorkerQueue(statsPool *worker.Pool, recorder repository.StatsRecorder) *WorkerQueue {
	return &WorkerQueue{
		statsPool: statsPool,
		recorder:  recorder,
	}
}

func (q *WorkerQueue) EnqueueSessionStats(stats models.SessionStats) error {
	if err := q.statsPool.Submit(&worker.RecordSessionJob{Recorder: q.recorder, Stats: stats}); err != nil {
		return fmt.Errorf("enqueue stats for session %s: %w", stats.SessionID, err)
	}
	return nil
}

// RecordSession lets the queue stand in for a StatsRecorder. Delivery is
// asynchronous; the returned error only reports whether the job was queued.
func (q *WorkerQueue) RecordSession(_ context.Context, stats models.SessionStats) error {
	return q.EnqueueSessionStats(stats)
}
