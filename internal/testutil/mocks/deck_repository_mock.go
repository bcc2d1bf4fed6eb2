package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bturcotte520/FlashCards/internal/models"
)

// MockDeckRepository is a mock implementation of repository.DeckRepository
type MockDeckRepository struct {
	mock.Mock
}

func (m *MockDeckRepository) CreateDeck(ctx context.Context, deck models.Deck) error {
	args := m.Called(ctx, deck)
	return args.Error(0)
}

func (m *MockDeckRepository) GetDeck(ctx context.Context, id string) (*models.Deck, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deck), args.Error(1)
}

func (m *MockDeckRepository) ListDecks(ctx context.Context) ([]models.DeckSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DeckSummary), args.Error(1)
}

func (m *MockDeckRepository) UpsertCard(ctx context.Context, card models.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockDeckRepository) AddCardToDeck(ctx context.Context, deckID, cardID string) error {
	args := m.Called(ctx, deckID, cardID)
	return args.Error(0)
}

func (m *MockDeckRepository) AddCards(ctx context.Context, deckID string, cards []models.Card) error {
	args := m.Called(ctx, deckID, cards)
	return args.Error(0)
}

func (m *MockDeckRepository) CardsForDeck(ctx context.Context, deckID string) ([]models.Card, error) {
	args := m.Called(ctx, deckID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Card), args.Error(1)
}
