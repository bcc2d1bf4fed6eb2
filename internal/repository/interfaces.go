package repository

import (
	"context"

	"github.com/bturcotte520/FlashCards/internal/models"
)

// ProgressStore persists one ProgressRecord per card id.
// Get returns nil, nil when the card has no usable record.
// Set overwrites the stored record wholesale.
type ProgressStore interface {
	Get(ctx context.Context, cardID string) (*models.ProgressRecord, error)
	Set(ctx context.Context, record models.ProgressRecord) error
	All(ctx context.Context) ([]models.ProgressRecord, error)
}

// DeckRepository handles deck and card data access
type DeckRepository interface {
	CreateDeck(ctx context.Context, deck models.Deck) error
	GetDeck(ctx context.Context, id string) (*models.Deck, error)
	ListDecks(ctx context.Context) ([]models.DeckSummary, error)
	UpsertCard(ctx context.Context, card models.Card) error
	AddCardToDeck(ctx context.Context, deckID, cardID string) error
	// AddCards upserts cards and appends them to the deck in one transaction.
	AddCards(ctx context.Context, deckID string, cards []models.Card) error
	CardsForDeck(ctx context.Context, deckID string) ([]models.Card, error)
}

// StatsRecorder receives the summary of every completed study session.
type StatsRecorder interface {
	RecordSession(ctx context.Context, stats models.SessionStats) error
}

// SessionHistory reads back recorded session summaries
type SessionHistory interface {
	RecentSessions(ctx context.Context, limit int) ([]models.SessionStats, error)
}
