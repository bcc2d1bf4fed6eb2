package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/repository"
	"github.com/bturcotte520/FlashCards/internal/repository/sqlite"
	"github.com/bturcotte520/FlashCards/internal/testutil"
)

type DeckRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.DeckRepository
}

func (s *DeckRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewDeckRepository(s.db)
}

func (s *DeckRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *DeckRepositorySuite) TestCreateAndGet() {
	ctx := context.Background()
	deck := models.Deck{ID: "d1", Name: "Spanish Basics", Category: "language", Difficulty: "beginner", IsPublic: true}

	s.Require().NoError(s.repo.CreateDeck(ctx, deck))

	got, err := s.repo.GetDeck(ctx, "d1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("Spanish Basics", got.Name)
	s.True(got.IsPublic)
	s.False(got.CreatedAt.IsZero())
}

func (s *DeckRepositorySuite) TestGetMissing() {
	got, err := s.repo.GetDeck(context.Background(), "missing")
	s.NoError(err)
	s.Nil(got)
}

func (s *DeckRepositorySuite) TestCardsKeepInsertionOrder() {
	ctx := context.Background()
	s.Require().NoError(s.repo.CreateDeck(ctx, models.Deck{ID: "d1", Name: "Deck"}))

	for _, id := range []string{"c3", "c1", "c2"} {
		s.Require().NoError(s.repo.UpsertCard(ctx, models.Card{ID: id, Front: "f-" + id, Back: "b-" + id}))
		s.Require().NoError(s.repo.AddCardToDeck(ctx, "d1", id))
	}
	// Re-adding keeps the original position.
	s.Require().NoError(s.repo.AddCardToDeck(ctx, "d1", "c3"))

	cards, err := s.repo.CardsForDeck(ctx, "d1")
	s.Require().NoError(err)
	s.Require().Len(cards, 3)
	s.Equal("c3", cards[0].ID)
	s.Equal("c1", cards[1].ID)
	s.Equal("c2", cards[2].ID)
	s.Equal("f-c1", cards[1].Front)
}

func (s *DeckRepositorySuite) TestUpsertCardUpdates() {
	ctx := context.Background()
	s.Require().NoError(s.repo.CreateDeck(ctx, models.Deck{ID: "d1", Name: "Deck"}))
	s.Require().NoError(s.repo.UpsertCard(ctx, models.Card{ID: "c1", Front: "hola", Back: "hi"}))
	s.Require().NoError(s.repo.AddCardToDeck(ctx, "d1", "c1"))
	s.Require().NoError(s.repo.UpsertCard(ctx, models.Card{ID: "c1", Front: "hola", Back: "hello"}))

	cards, err := s.repo.CardsForDeck(ctx, "d1")
	s.Require().NoError(err)
	s.Require().Len(cards, 1)
	s.Equal("hello", cards[0].Back)
}

func (s *DeckRepositorySuite) TestAddCardsIsAtomic() {
	ctx := context.Background()
	s.Require().NoError(s.repo.CreateDeck(ctx, models.Deck{ID: "d1", Name: "Deck"}))

	err := s.repo.AddCards(ctx, "d1", []models.Card{
		{ID: "c1", Front: "a", Back: "b"},
		{ID: "c2", Front: "c", Back: "d"},
	})
	s.Require().NoError(err)

	// Unknown deck violates the foreign key, so nothing from the batch is kept.
	err = s.repo.AddCards(ctx, "missing", []models.Card{{ID: "c9", Front: "x", Back: "y"}})
	s.Error(err)

	var n int
	s.Require().NoError(s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE id = 'c9'`).Scan(&n))
	s.Equal(0, n)

	cards, err := s.repo.CardsForDeck(ctx, "d1")
	s.Require().NoError(err)
	s.Len(cards, 2)
}

func (s *DeckRepositorySuite) TestListDecksCountsCards() {
	ctx := context.Background()
	s.Require().NoError(s.repo.CreateDeck(ctx, models.Deck{ID: "d1", Name: "Beta"}))
	s.Require().NoError(s.repo.CreateDeck(ctx, models.Deck{ID: "d2", Name: "Alpha"}))
	s.Require().NoError(s.repo.AddCards(ctx, "d1", []models.Card{
		{ID: "c1", Front: "a", Back: "b"},
		{ID: "c2", Front: "c", Back: "d"},
	}))

	decks, err := s.repo.ListDecks(ctx)
	s.Require().NoError(err)
	s.Require().Len(decks, 2)
	s.Equal("Alpha", decks[0].Name)
	s.Equal(0, decks[0].CardCount)
	s.Equal("Beta", decks[1].Name)
	s.Equal(2, decks[1].CardCount)
}

func TestDeckRepositorySuite(t *testing.T) {
	suite.Run(t, new(DeckRepositorySuite))
}
