// Package housekeeping runs the periodic maintenance jobs of the server.
package housekeeping

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/bturcotte520/FlashCards/internal/logger"
)

// DueRefresher recomputes cached per-deck due counts.
type DueRefresher interface {
	RefreshDueCounts(ctx context.Context) (map[string]int, error)
}

// SessionPruner drops study sessions idle for longer than a given duration.
type SessionPruner interface {
	PruneSessions(ctx context.Context, idleFor time.Duration) int
}

// Scheduler manages scheduled maintenance tasks
type Scheduler struct {
	scheduler    *gocron.Scheduler
	refresher    DueRefresher
	pruner       SessionPruner
	refreshEvery time.Duration
	sessionTTL   time.Duration
	ctx          context.Context
	log          *logger.Logger
}

// New creates a scheduler that refreshes due counts every refreshEvery and
// prunes sessions idle for sessionTTL.
func New(refresher DueRefresher, pruner SessionPruner, refreshEvery, sessionTTL time.Duration) *Scheduler {
	return &Scheduler{
		scheduler:    gocron.NewScheduler(time.UTC),
		refresher:    refresher,
		pruner:       pruner,
		refreshEvery: refreshEvery,
		sessionTTL:   sessionTTL,
		ctx:          context.Background(),
		log:          logger.Default().WithPrefix("housekeeping"),
	}
}

// Start schedules the jobs and runs them in the background. Both jobs run
// once immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = logger.NewContext(ctx, s.log)

	if _, err := s.scheduler.Every(s.refreshEvery).Do(s.RefreshDueCounts); err != nil {
		return fmt.Errorf("schedule due refresh: %w", err)
	}
	pruneEvery := s.sessionTTL / 4
	if pruneEvery < time.Minute {
		pruneEvery = time.Minute
	}
	if _, err := s.scheduler.Every(pruneEvery).Do(s.PruneSessions); err != nil {
		return fmt.Errorf("schedule session pruning: %w", err)
	}

	s.log.Info("starting: refresh_every=%s session_ttl=%s", s.refreshEvery, s.sessionTTL)
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.log.Info("stopped")
}

// RefreshDueCounts runs the due-count job once.
func (s *Scheduler) RefreshDueCounts() {
	start := time.Now()
	counts, err := s.refresher.RefreshDueCounts(s.ctx)
	if err != nil {
		s.log.Error("due count refresh failed: %v", err)
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	s.log.Debug("due counts refreshed in %v: decks=%d due=%d", time.Since(start), len(counts), total)
}

// PruneSessions runs the session pruning job once.
func (s *Scheduler) PruneSessions() {
	if n := s.pruner.PruneSessions(s.ctx, s.sessionTTL); n > 0 {
		s.log.Info("pruned %d idle sessions", n)
	}
}
