package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/bturcotte520/FlashCards/internal/logger"
	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/repository"
)

type deckRepository struct {
	db *sqlx.DB
}

// NewDeckRepository creates a new DeckRepository implementation
func NewDeckRepository(db *sql.DB) repository.DeckRepository {
	return &deckRepository{db: sqlx.NewDb(db, "sqlite3")}
}

func (r *deckRepository) CreateDeck(ctx context.Context, d models.Deck) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("creating deck: id=%s name=%s", d.ID, d.Name)

	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}

	query, args, err := sqlBuilder.Insert("decks").
		Columns("id", "name", "description", "category", "difficulty", "is_public", "created_at", "updated_at").
		Values(d.ID, d.Name, d.Description, d.Category, d.Difficulty, d.IsPublic, d.CreatedAt, d.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to create deck: %v", err)
		return err
	}
	return nil
}

func (r *deckRepository) GetDeck(ctx context.Context, id string) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	query, args, err := sqlBuilder.Select("id", "name", "description", "category", "difficulty", "is_public", "created_at", "updated_at").
		From("decks").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var d models.Deck
	err = sqlx.GetContext(ctx, r.db, &d, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("deck not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, err
	}
	return &d, nil
}

func (r *deckRepository) ListDecks(ctx context.Context) ([]models.DeckSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	query, args, err := sqlBuilder.Select(
		"d.id", "d.name", "d.description", "d.category", "d.difficulty", "d.is_public", "d.created_at", "d.updated_at",
		"COUNT(dc.card_id) AS card_count",
	).
		From("decks d").
		LeftJoin("deck_cards dc ON dc.deck_id = d.id").
		GroupBy("d.id").
		OrderBy("d.name").
		ToSql()
	if err != nil {
		return nil, err
	}

	var decks []models.DeckSummary
	if err := sqlx.SelectContext(ctx, r.db, &decks, query, args...); err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, err
	}
	log.Debug("listed %d decks", len(decks))
	return decks, nil
}

func (r *deckRepository) UpsertCard(ctx context.Context, c models.Card) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("saving card: id=%s", c.ID)

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	query, args, err := upsertCardQuery(c)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to save card: %v", err)
		return err
	}
	return nil
}

func upsertCardQuery(c models.Card) (string, []any, error) {
	return sqlBuilder.Insert("cards").
		Columns("id", "front", "back", "type", "pronunciation", "example", "notes", "difficulty", "created_at", "updated_at").
		Values(c.ID, c.Front, c.Back, c.Type, c.Pronunciation, c.Example, c.Notes, c.Difficulty, c.CreatedAt, c.UpdatedAt).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
    front = excluded.front,
    back = excluded.back,
    type = excluded.type,
    pronunciation = excluded.pronunciation,
    example = excluded.example,
    notes = excluded.notes,
    difficulty = excluded.difficulty,
    updated_at = excluded.updated_at`).
		ToSql()
}

// AddCardToDeck appends cardID to the end of the deck. Adding a card that
// is already in the deck is a no-op.
func (r *deckRepository) AddCardToDeck(ctx context.Context, deckID, cardID string) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("adding card to deck: deck_id=%s card_id=%s", deckID, cardID)

	_, err := r.db.ExecContext(ctx, appendCardSQL, deckID, cardID, deckID)
	if err != nil {
		log.Error("failed to add card to deck: %v", err)
	}
	return err
}

const appendCardSQL = `
INSERT OR IGNORE INTO deck_cards (deck_id, card_id, position)
SELECT ?, ?, COALESCE(MAX(position), 0) + 1 FROM deck_cards WHERE deck_id = ?
`

func (r *deckRepository) AddCards(ctx context.Context, deckID string, cards []models.Card) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Info("adding %d cards to deck: deck_id=%s", len(cards), deckID)

	now := time.Now().UTC()
	return tx(ctx, r.db.DB, func(tx *sql.Tx) error {
		for _, c := range cards {
			if c.CreatedAt.IsZero() {
				c.CreatedAt = now
			}
			c.UpdatedAt = now
			query, args, err := upsertCardQuery(c)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				log.Error("failed to save card: id=%s: %v", c.ID, err)
				return err
			}
			if _, err := tx.ExecContext(ctx, appendCardSQL, deckID, c.ID, deckID); err != nil {
				log.Error("failed to add card to deck: id=%s: %v", c.ID, err)
				return err
			}
		}
		return nil
	})
}

func (r *deckRepository) CardsForDeck(ctx context.Context, deckID string) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	query, args, err := sqlBuilder.Select(
		"c.id", "c.front", "c.back", "c.type", "c.pronunciation", "c.example", "c.notes", "c.difficulty", "c.created_at", "c.updated_at",
	).
		From("cards c").
		Join("deck_cards dc ON dc.card_id = c.id").
		Where(squirrel.Eq{"dc.deck_id": deckID}).
		OrderBy("dc.position").
		ToSql()
	if err != nil {
		return nil, err
	}

	var cards []models.Card
	if err := sqlx.SelectContext(ctx, r.db, &cards, query, args...); err != nil {
		log.Error("failed to load cards for deck: %v", err)
		return nil, err
	}
	log.Debug("loaded %d cards: deck_id=%s", len(cards), deckID)
	return cards, nil
}
