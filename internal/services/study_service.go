package services

import (
	"context"
	stderrors "errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bturcotte520/FlashCards/internal/errors"
	"github.com/bturcotte520/FlashCards/internal/logger"
	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/repository"
	"github.com/bturcotte520/FlashCards/internal/session"
	"github.com/bturcotte520/FlashCards/internal/srs"
)

// SessionView is the externally visible state of a study session.
type SessionView struct {
	ID       string              `json:"id"`
	State    session.State       `json:"state"`
	Total    int                 `json:"total"`
	Position int                 `json:"position"`
	Current  *models.Card        `json:"current,omitempty"`
	Stats    models.SessionStats `json:"stats"`
}

// AnswerResult is returned after grading the current card of a session.
type AnswerResult struct {
	Progress  models.ProgressRecord `json:"progress"`
	Persisted bool                  `json:"persisted"`
	Session   SessionView           `json:"session"`
}

// StudyService handles reviews and study sessions
type StudyService interface {
	DueCards(ctx context.Context, deckID string) ([]models.Card, error)
	NewCards(ctx context.Context, deckID string) ([]models.Card, error)
	Progress(ctx context.Context, cardID string) (*models.ProgressRecord, error)
	ReviewCard(ctx context.Context, cardID string, quality int) (models.ProgressRecord, error)
	ResetCard(ctx context.Context, cardID string) (models.ProgressRecord, error)
	StartSession(ctx context.Context, deckIDs []string) (*SessionView, error)
	GetSession(ctx context.Context, id string) (*SessionView, error)
	AnswerSession(ctx context.Context, id string, quality int) (*AnswerResult, error)
	PruneSessions(ctx context.Context, idleFor time.Duration) int
}

type sessionEntry struct {
	mu      sync.Mutex
	sess    *session.Session
	touched time.Time
}

type studyService struct {
	deckRepo repository.DeckRepository
	composer *session.Composer
	recorder repository.StatsRecorder
	shuffle  bool

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// StudyOption configures a StudyService.
type StudyOption func(*studyService)

// WithShuffle randomizes the order of due cards in new sessions.
func WithShuffle(enabled bool) StudyOption {
	return func(s *studyService) {
		s.shuffle = enabled
	}
}

// NewStudyService creates a new StudyService. Completed sessions are
// reported to recorder.
func NewStudyService(deckRepo repository.DeckRepository, composer *session.Composer, recorder repository.StatsRecorder, opts ...StudyOption) StudyService {
	s := &studyService{
		deckRepo: deckRepo,
		composer: composer,
		recorder: recorder,
		sessions: map[string]*sessionEntry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *studyService) deckCards(ctx context.Context, deckID string) ([]models.Card, error) {
	log := logger.FromContext(ctx)

	deck, err := s.deckRepo.GetDeck(ctx, deckID)
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", deckID)
	}
	cards, err := s.deckRepo.CardsForDeck(ctx, deckID)
	if err != nil {
		log.Error("failed to load cards: deck_id=%s: %v", deckID, err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

func (s *studyService) DueCards(ctx context.Context, deckID string) ([]models.Card, error) {
	cards, err := s.deckCards(ctx, deckID)
	if err != nil {
		return nil, err
	}
	due, err := s.composer.DueCards(ctx, cards)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	logger.FromContext(ctx).Debug("due cards: deck_id=%s due=%d of %d", deckID, len(due), len(cards))
	return due, nil
}

func (s *studyService) NewCards(ctx context.Context, deckID string) ([]models.Card, error) {
	cards, err := s.deckCards(ctx, deckID)
	if err != nil {
		return nil, err
	}
	fresh, err := s.composer.NewCards(ctx, cards)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return fresh, nil
}

func (s *studyService) Progress(ctx context.Context, cardID string) (*models.ProgressRecord, error) {
	rec, err := s.composer.Progress(ctx, cardID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load progress: card_id=%s: %v", cardID, err)
		return nil, errors.NewInternalError(err)
	}
	if rec == nil {
		return nil, errors.NewNotFoundError("progress", cardID)
	}
	return rec, nil
}

// ReviewCard grades a single card outside of a session. When the new
// record could not be stored it is returned together with a
// PERSISTENCE_FAILED error.
func (s *studyService) ReviewCard(ctx context.Context, cardID string, quality int) (models.ProgressRecord, error) {
	log := logger.FromContext(ctx)
	log.Debug("reviewing card: card_id=%s quality=%d", cardID, quality)

	rec, err := s.composer.SubmitAnswer(ctx, cardID, srs.Quality(quality))
	return rec, s.answerError(err)
}

func (s *studyService) answerError(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, srs.ErrInvalidQuality):
		return errors.NewInvalidQualityError(err)
	case stderrors.Is(err, session.ErrPersistenceFailed):
		return errors.NewPersistenceFailedError(err)
	default:
		return errors.FromError(err)
	}
}

func (s *studyService) ResetCard(ctx context.Context, cardID string) (models.ProgressRecord, error) {
	logger.FromContext(ctx).Info("resetting card: card_id=%s", cardID)
	rec, err := s.composer.MarkForReview(ctx, cardID)
	return rec, s.answerError(err)
}

// StartSession gathers the cards of every deck, drops duplicate card ids
// and starts a session over the result.
func (s *studyService) StartSession(ctx context.Context, deckIDs []string) (*SessionView, error) {
	log := logger.FromContext(ctx)

	if len(deckIDs) == 0 {
		return nil, errors.NewValidationError("deck_ids", "at least one deck is required")
	}

	seen := map[string]bool{}
	var candidates []models.Card
	for _, deckID := range deckIDs {
		cards, err := s.deckCards(ctx, deckID)
		if err != nil {
			return nil, err
		}
		for _, c := range cards {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			candidates = append(candidates, c)
		}
	}

	var opts []session.SessionOption
	if s.shuffle {
		opts = append(opts, session.WithOrder(func(cards []models.Card) {
			rand.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
		}))
	}

	id := uuid.NewString()
	sess := s.composer.NewSession(id, s.recorder, opts...)
	if err := sess.Start(ctx, candidates); err != nil {
		log.Error("failed to start session: %v", err)
		return nil, errors.FromError(err)
	}

	entry := &sessionEntry{sess: sess, touched: s.composer.Now()}
	if sess.State() == session.StateInProgress {
		s.mu.Lock()
		s.sessions[id] = entry
		s.mu.Unlock()
	}
	log.Info("session created: id=%s decks=%d candidates=%d due=%d", id, len(deckIDs), len(candidates), sess.Total())

	view := viewOf(sess)
	return &view, nil
}

func (s *studyService) entry(id string) (*sessionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError("session", id)
	}
	return e, nil
}

func (s *studyService) GetSession(ctx context.Context, id string) (*SessionView, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	view := viewOf(e.sess)
	return &view, nil
}

// AnswerSession grades the current card of session id. Completed sessions
// are dropped from the registry.
func (s *studyService) AnswerSession(ctx context.Context, id string, quality int) (*AnswerResult, error) {
	log := logger.FromContext(ctx).WithField("session_id", id)

	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	rec, answerErr := e.sess.Answer(ctx, srs.Quality(quality))
	e.touched = s.composer.Now()
	view := viewOf(e.sess)
	e.mu.Unlock()

	persisted := !stderrors.Is(answerErr, session.ErrPersistenceFailed)
	statsLost := stderrors.Is(answerErr, session.ErrStatsNotRecorded)
	switch {
	case answerErr == nil:
	case !persisted || statsLost:
		log.Warn("answer accepted with errors: %v", answerErr)
	default:
		return nil, s.answerError(answerErr)
	}

	if view.State == session.StateComplete {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		log.Info("session finished")
	}
	return &AnswerResult{Progress: rec, Persisted: persisted, Session: view}, nil
}

// PruneSessions drops open sessions that have not been touched for idleFor.
func (s *studyService) PruneSessions(ctx context.Context, idleFor time.Duration) int {
	log := logger.FromContext(ctx)
	cutoff := s.composer.Now().Add(-idleFor)

	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for id, e := range s.sessions {
		e.mu.Lock()
		idle := e.touched.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			pruned++
		}
	}
	if pruned > 0 {
		log.Info("pruned %d idle sessions", pruned)
	}
	return pruned
}

func viewOf(sess *session.Session) SessionView {
	view := SessionView{
		ID:       sess.ID(),
		State:    sess.State(),
		Total:    sess.Total(),
		Position: sess.Position(),
		Stats:    sess.Stats(),
	}
	if card, ok := sess.Current(); ok {
		view.Current = &card
	}
	return view
}
