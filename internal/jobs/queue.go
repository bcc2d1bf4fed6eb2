package jobs

import "github.com/bturcotte520/FlashCards/internal/models"

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueSessionStats(stats models.SessionStats) error
}
