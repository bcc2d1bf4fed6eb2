package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bturcotte520/FlashCards/internal/errors"
	"github.com/bturcotte520/FlashCards/internal/logger"
	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/repository"
	"github.com/bturcotte520/FlashCards/internal/session"
)

// DeckService handles deck and card business logic
type DeckService interface {
	CreateDeck(ctx context.Context, deck models.Deck) (*models.Deck, error)
	GetDeck(ctx context.Context, id string) (*models.Deck, error)
	ListDecks(ctx context.Context) ([]models.DeckSummary, error)
	AddCards(ctx context.Context, deckID string, cards []models.Card) ([]models.Card, error)
	Cards(ctx context.Context, deckID string) ([]models.Card, error)
	RefreshDueCounts(ctx context.Context) (map[string]int, error)
}

type deckService struct {
	deckRepo repository.DeckRepository
	composer *session.Composer

	mu        sync.RWMutex
	dueCounts map[string]int
}

// NewDeckService creates a new DeckService
func NewDeckService(deckRepo repository.DeckRepository, composer *session.Composer) DeckService {
	return &deckService{
		deckRepo:  deckRepo,
		composer:  composer,
		dueCounts: map[string]int{},
	}
}

func (s *deckService) CreateDeck(ctx context.Context, deck models.Deck) (*models.Deck, error) {
	log := logger.FromContext(ctx)

	deck.Name = strings.TrimSpace(deck.Name)
	if deck.Name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}
	if deck.ID == "" {
		deck.ID = uuid.NewString()
	}
	if deck.Difficulty == "" {
		deck.Difficulty = "beginner"
	}
	now := time.Now().UTC()
	deck.CreatedAt, deck.UpdatedAt = now, now

	log.Debug("creating deck: id=%s name=%s", deck.ID, deck.Name)
	if err := s.deckRepo.CreateDeck(ctx, deck); err != nil {
		log.Error("failed to create deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &deck, nil
}

func (s *deckService) GetDeck(ctx context.Context, id string) (*models.Deck, error) {
	log := logger.FromContext(ctx)

	deck, err := s.deckRepo.GetDeck(ctx, id)
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", id)
	}
	return deck, nil
}

// ListDecks returns every deck with the due counts of the last refresh.
func (s *deckService) ListDecks(ctx context.Context) ([]models.DeckSummary, error) {
	log := logger.FromContext(ctx)

	decks, err := s.deckRepo.ListDecks(ctx)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, errors.NewInternalError(err)
	}

	s.mu.RLock()
	for i := range decks {
		decks[i].DueCount = s.dueCounts[decks[i].ID]
	}
	s.mu.RUnlock()
	return decks, nil
}

// AddCards validates cards, assigns ids to those without one and appends
// them to the deck.
func (s *deckService) AddCards(ctx context.Context, deckID string, cards []models.Card) ([]models.Card, error) {
	log := logger.FromContext(ctx)

	if _, err := s.GetDeck(ctx, deckID); err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, errors.NewValidationError("cards", "at least one card is required")
	}

	out := make([]models.Card, len(cards))
	for i, c := range cards {
		c.Front = strings.TrimSpace(c.Front)
		c.Back = strings.TrimSpace(c.Back)
		if c.Front == "" || c.Back == "" {
			return nil, errors.NewValidationError("cards", "front and back are required")
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.Type == "" {
			c.Type = "vocabulary"
		}
		if c.Difficulty == 0 {
			c.Difficulty = 1
		}
		out[i] = c
	}

	if err := s.deckRepo.AddCards(ctx, deckID, out); err != nil {
		log.Error("failed to add cards: deck_id=%s: %v", deckID, err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("added %d cards: deck_id=%s", len(out), deckID)
	return out, nil
}

func (s *deckService) Cards(ctx context.Context, deckID string) ([]models.Card, error) {
	log := logger.FromContext(ctx)

	if _, err := s.GetDeck(ctx, deckID); err != nil {
		return nil, err
	}
	cards, err := s.deckRepo.CardsForDeck(ctx, deckID)
	if err != nil {
		log.Error("failed to load cards: deck_id=%s: %v", deckID, err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

// RefreshDueCounts recomputes how many cards of each deck are due now.
func (s *deckService) RefreshDueCounts(ctx context.Context) (map[string]int, error) {
	log := logger.FromContext(ctx)

	decks, err := s.deckRepo.ListDecks(ctx)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, errors.NewInternalError(err)
	}

	counts := make(map[string]int, len(decks))
	for _, d := range decks {
		cards, err := s.deckRepo.CardsForDeck(ctx, d.ID)
		if err != nil {
			log.Warn("skipping due count: deck_id=%s: %v", d.ID, err)
			continue
		}
		due, err := s.composer.DueCards(ctx, cards)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		counts[d.ID] = len(due)
	}

	s.mu.Lock()
	s.dueCounts = counts
	s.mu.Unlock()

	log.Debug("refreshed due counts for %d decks", len(counts))
	out := make(map[string]int, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out, nil
}
