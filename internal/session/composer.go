// Package session selects due cards and drives progress updates for study
// sessions. It is the only writer of progress records.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bturcotte520/FlashCards/internal/logger"
	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/repository"
	"github.com/bturcotte520/FlashCards/internal/srs"
)

var (
	// ErrPersistenceFailed marks a progress write that did not reach storage.
	// The record returned alongside it is still the correct new state.
	ErrPersistenceFailed = errors.New("session: progress not persisted")
	// ErrSessionNotActive rejects answers outside an in-progress session.
	ErrSessionNotActive = errors.New("session: not in progress")
	// ErrStatsNotRecorded means a session completed but its summary was
	// rejected by the stats recorder.
	ErrStatsNotRecorded = errors.New("session: stats not recorded")
)

// Composer bridges stored progress records to card selection.
type Composer struct {
	store  repository.ProgressStore
	params srs.Parameters
	now    func() time.Time
}

// Option configures a Composer.
type Option func(*Composer)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		c.now = now
	}
}

// NewComposer creates a Composer over store using params.
func NewComposer(store repository.ProgressStore, params srs.Parameters, opts ...Option) *Composer {
	c := &Composer{
		store:  store,
		params: params,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the composer's current time.
func (c *Composer) Now() time.Time {
	return c.now()
}

// Parameters returns the scheduling parameters in use.
func (c *Composer) Parameters() srs.Parameters {
	return c.params
}

// getOrInit returns the stored record for cardID, or the initial record
// when none exists. It never writes.
func (c *Composer) getOrInit(ctx context.Context, cardID string) (models.ProgressRecord, bool, error) {
	rec, err := c.store.Get(ctx, cardID)
	if err != nil {
		return models.ProgressRecord{}, false, fmt.Errorf("load progress %s: %w", cardID, err)
	}
	if rec != nil {
		return *rec, true, nil
	}
	return srs.InitialProgress(cardID, c.params, c.now()), false, nil
}

// InitializeProgress returns the record for cardID, creating and storing the
// initial record if the card has never been seen.
func (c *Composer) InitializeProgress(ctx context.Context, cardID string) (models.ProgressRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("composer")

	rec, existed, err := c.getOrInit(ctx, cardID)
	if err != nil {
		return models.ProgressRecord{}, err
	}
	if existed {
		return rec, nil
	}

	log.Debug("initializing progress: card_id=%s", cardID)
	if err := c.store.Set(ctx, rec); err != nil {
		log.Error("failed to store initial progress: card_id=%s: %v", cardID, err)
		return rec, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return rec, nil
}

// Progress returns the stored record for cardID, or nil if there is none.
func (c *Composer) Progress(ctx context.Context, cardID string) (*models.ProgressRecord, error) {
	rec, err := c.store.Get(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("load progress %s: %w", cardID, err)
	}
	return rec, nil
}

// lookup reads the record of every card. Read failures are logged and
// treated as a missing record so that one bad entry cannot block the rest.
func (c *Composer) lookup(ctx context.Context, cards []models.Card) []*models.ProgressRecord {
	log := logger.FromContext(ctx).WithPrefix("composer")

	records := make([]*models.ProgressRecord, len(cards))
	for i, card := range cards {
		rec, err := c.store.Get(ctx, card.ID)
		if err != nil {
			log.Warn("treating card as new after progress read error: card_id=%s: %v", card.ID, err)
			continue
		}
		records[i] = rec
	}
	return records
}

// DueCards returns the cards that have no record or whose next review has
// passed. Input order is preserved.
func (c *Composer) DueCards(ctx context.Context, cards []models.Card) ([]models.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := c.now()
	records := c.lookup(ctx, cards)

	due := make([]models.Card, 0, len(cards))
	for i, card := range cards {
		if records[i] == nil || srs.IsDue(*records[i], now) {
			due = append(due, card)
		}
	}
	return due, nil
}

// NewCards returns the cards that have never been studied.
func (c *Composer) NewCards(ctx context.Context, cards []models.Card) ([]models.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := c.lookup(ctx, cards)

	fresh := make([]models.Card, 0, len(cards))
	for i, card := range cards {
		if records[i] == nil {
			fresh = append(fresh, card)
		}
	}
	return fresh, nil
}

// SubmitAnswer records a review of cardID graded q and returns the new
// record. If the write fails the new record is returned together with an
// error wrapping ErrPersistenceFailed.
func (c *Composer) SubmitAnswer(ctx context.Context, cardID string, q srs.Quality) (models.ProgressRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("composer")

	if !q.Valid() {
		return models.ProgressRecord{}, fmt.Errorf("%w: got %d", srs.ErrInvalidQuality, int(q))
	}

	current, _, err := c.getOrInit(ctx, cardID)
	if err != nil {
		return models.ProgressRecord{}, err
	}

	now := c.now()
	res, err := srs.ComputeNext(current, q, c.params, now)
	if err != nil {
		return models.ProgressRecord{}, err
	}

	reviewed := now
	updated := models.ProgressRecord{
		CardID:      cardID,
		EaseFactor:  res.EaseFactor,
		Interval:    res.Interval,
		Repetitions: res.Repetitions,
		NextReview:  res.NextReview,
		LastReview:  &reviewed,
	}
	log.Debug("answer applied: card_id=%s quality=%d interval=%d ease=%.2f", cardID, q, updated.Interval, updated.EaseFactor)

	if err := c.store.Set(ctx, updated); err != nil {
		log.Error("failed to store progress: card_id=%s: %v", cardID, err)
		return updated, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return updated, nil
}

// MarkForReview makes cardID due again and restarts its graduation ladder
// while keeping its ease factor and last review time.
func (c *Composer) MarkForReview(ctx context.Context, cardID string) (models.ProgressRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("composer")

	current, _, err := c.getOrInit(ctx, cardID)
	if err != nil {
		return models.ProgressRecord{}, err
	}

	reset := models.ProgressRecord{
		CardID:     cardID,
		EaseFactor: current.EaseFactor,
		NextReview: c.now(),
		LastReview: current.LastReview,
	}
	if err := c.store.Set(ctx, reset); err != nil {
		log.Error("failed to store reset progress: card_id=%s: %v", cardID, err)
		return reset, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	log.Debug("card marked for review: card_id=%s", cardID)
	return reset, nil
}

// Restore stores rec unchanged after validating it. It is used to load
// previously exported progress. Records below the ease factor floor or
// with repetitions but no interval are rejected.
func (c *Composer) Restore(ctx context.Context, rec models.ProgressRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.EaseFactor < c.params.MinEaseFactor {
		return fmt.Errorf("progress record %s: ease factor %v below minimum %v", rec.CardID, rec.EaseFactor, c.params.MinEaseFactor)
	}
	if rec.Repetitions > 0 && rec.Interval == 0 {
		return fmt.Errorf("progress record %s: %d repetitions with a zero interval", rec.CardID, rec.Repetitions)
	}
	if err := c.store.Set(ctx, rec); err != nil {
		logger.FromContext(ctx).WithPrefix("composer").Error("failed to restore progress: card_id=%s: %v", rec.CardID, err)
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}
