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

// State is the lifecycle position of a study session.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateComplete
	// StateEmpty is terminal: nothing was due so nothing was graded.
	StateEmpty
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	case StateEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{StateNotStarted, StateInProgress, StateComplete, StateEmpty} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", text)
}

// Session walks a learner through the due cards of a candidate pool. A
// Session is owned by a single caller and is not safe for concurrent use.
type Session struct {
	id       string
	composer *Composer
	recorder repository.StatsRecorder
	order    func([]models.Card)

	state       State
	cards       []models.Card
	cursor      int
	correct     int
	incorrect   int
	startedAt   time.Time
	completedAt time.Time
	emitted     bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithOrder rearranges the due set in place before the session starts.
func WithOrder(order func([]models.Card)) SessionOption {
	return func(s *Session) {
		s.order = order
	}
}

// NewSession creates a session that reports its summary to recorder.
func (c *Composer) NewSession(id string, recorder repository.StatsRecorder, opts ...SessionOption) *Session {
	s := &Session{
		id:       id,
		composer: c,
		recorder: recorder,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return s.state }

// Total is the size of the due set.
func (s *Session) Total() int { return len(s.cards) }

// Position is the number of cards answered so far.
func (s *Session) Position() int { return s.cursor }

func (s *Session) StartedAt() time.Time { return s.startedAt }

// Cards returns a copy of the session's due set in study order.
func (s *Session) Cards() []models.Card {
	out := make([]models.Card, len(s.cards))
	copy(out, s.cards)
	return out
}

// Start computes the due set from candidates. Callers are expected to have
// removed duplicate card ids already.
func (s *Session) Start(ctx context.Context, candidates []models.Card) error {
	if s.state != StateNotStarted {
		return fmt.Errorf("%w: session %s already %s", ErrSessionNotActive, s.id, s.state)
	}
	log := logger.FromContext(ctx).WithPrefix("session").WithField("session_id", s.id)

	due, err := s.composer.DueCards(ctx, candidates)
	if err != nil {
		return err
	}
	if s.order != nil {
		s.order(due)
	}

	s.cards = due
	s.startedAt = s.composer.Now()
	if len(due) == 0 {
		s.state = StateEmpty
		log.Info("nothing to study: candidates=%d", len(candidates))
		return nil
	}
	s.state = StateInProgress
	log.Info("session started: due=%d candidates=%d", len(due), len(candidates))
	return nil
}

// Current returns the card awaiting an answer.
func (s *Session) Current() (models.Card, bool) {
	if s.state != StateInProgress {
		return models.Card{}, false
	}
	return s.cards[s.cursor], true
}

// Answer grades the current card and advances the session. The returned
// record is valid whenever the error is nil or wraps ErrPersistenceFailed;
// in the latter case the session has still advanced.
func (s *Session) Answer(ctx context.Context, q srs.Quality) (models.ProgressRecord, error) {
	card, ok := s.Current()
	if !ok {
		return models.ProgressRecord{}, fmt.Errorf("%w: session %s is %s", ErrSessionNotActive, s.id, s.state)
	}

	rec, err := s.composer.SubmitAnswer(ctx, card.ID, q)
	if err != nil && !errors.Is(err, ErrPersistenceFailed) {
		return models.ProgressRecord{}, err
	}

	if q.Correct() {
		s.correct++
	} else {
		s.incorrect++
	}
	s.cursor++

	if s.cursor >= len(s.cards) {
		if cerr := s.complete(ctx); cerr != nil {
			return rec, errors.Join(err, cerr)
		}
	}
	return rec, err
}

func (s *Session) complete(ctx context.Context) error {
	s.state = StateComplete
	s.completedAt = s.composer.Now()
	if s.emitted {
		return nil
	}
	s.emitted = true

	stats := s.Stats()
	log := logger.FromContext(ctx).WithPrefix("session").WithField("session_id", s.id)
	log.Info("session complete: studied=%d correct=%d incorrect=%d time=%ds",
		stats.CardsStudied, stats.CorrectAnswers, stats.IncorrectAnswers, stats.TimeSpent)

	if s.recorder == nil {
		return nil
	}
	if err := s.recorder.RecordSession(ctx, stats); err != nil {
		log.Error("failed to record session stats: %v", err)
		return fmt.Errorf("%w: session %s: %v", ErrStatsNotRecorded, s.id, err)
	}
	return nil
}

// Stats returns the running counts. CardsStudied counts answered cards and
// TimeSpent is measured up to completion, or up to now while the session
// is still open.
func (s *Session) Stats() models.SessionStats {
	end := s.completedAt
	if s.state != StateComplete {
		end = s.composer.Now()
	}
	spent := 0
	if !s.startedAt.IsZero() {
		spent = int(end.Sub(s.startedAt) / time.Second)
	}
	return models.SessionStats{
		SessionID:        s.id,
		CardsStudied:     s.cursor,
		CorrectAnswers:   s.correct,
		IncorrectAnswers: s.incorrect,
		TimeSpent:        spent,
		StartedAt:        s.startedAt,
		CompletedAt:      s.completedAt,
	}
}
