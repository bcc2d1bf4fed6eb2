package services_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bturcotte520/FlashCards/internal/errors"
	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/services"
	"github.com/bturcotte520/FlashCards/internal/session"
	"github.com/bturcotte520/FlashCards/internal/testutil/mocks"
)

func deckRepoWith(decks map[string][]models.Card) *mocks.MockDeckRepository {
	repo := new(mocks.MockDeckRepository)
	for id, cards := range decks {
		repo.On("GetDeck", mock.Anything, id).Return(&models.Deck{ID: id}, nil)
		repo.On("CardsForDeck", mock.Anything, id).Return(cards, nil)
	}
	return repo
}

func TestStudyService_DueCardsUnknownDeck(t *testing.T) {
	repo := new(mocks.MockDeckRepository)
	repo.On("GetDeck", mock.Anything, "nope").Return(nil, nil)

	svc := services.NewStudyService(repo, newComposer(new(mocks.MockProgressStore)), nil)
	_, err := svc.DueCards(context.Background(), "nope")
	requireCode(t, err, errors.ErrCodeNotFound)
}

func TestStudyService_ReviewCard(t *testing.T) {
	store := new(mocks.MockProgressStore)
	store.On("Get", mock.Anything, "c1").Return(nil, nil)
	store.On("Set", mock.Anything, mock.MatchedBy(func(r models.ProgressRecord) bool {
		return r.CardID == "c1" && r.Interval == 1 && r.Repetitions == 1
	})).Return(nil).Once()

	svc := services.NewStudyService(new(mocks.MockDeckRepository), newComposer(store), nil)
	rec, err := svc.ReviewCard(context.Background(), "c1", 4)

	require.NoError(t, err)
	assert.Equal(t, 1, rec.Interval)
	store.AssertExpectations(t)
}

func TestStudyService_ReviewCardInvalidQuality(t *testing.T) {
	store := new(mocks.MockProgressStore)
	svc := services.NewStudyService(new(mocks.MockDeckRepository), newComposer(store), nil)

	_, err := svc.ReviewCard(context.Background(), "c1", 9)
	requireCode(t, err, errors.ErrCodeInvalidQuality)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestStudyService_ReviewCardPersistenceFailure(t *testing.T) {
	store := new(mocks.MockProgressStore)
	store.On("Get", mock.Anything, "c1").Return(nil, nil)
	store.On("Set", mock.Anything, mock.Anything).Return(stderrors.New("disk"))

	svc := services.NewStudyService(new(mocks.MockDeckRepository), newComposer(store), nil)
	rec, err := svc.ReviewCard(context.Background(), "c1", 5)

	requireCode(t, err, errors.ErrCodePersistenceFailed)
	assert.ErrorIs(t, err, session.ErrPersistenceFailed)
	assert.Equal(t, 1, rec.Repetitions)
}

func TestStudyService_ProgressNotFound(t *testing.T) {
	store := new(mocks.MockProgressStore)
	store.On("Get", mock.Anything, "c1").Return(nil, nil)

	svc := services.NewStudyService(new(mocks.MockDeckRepository), newComposer(store), nil)
	_, err := svc.Progress(context.Background(), "c1")
	requireCode(t, err, errors.ErrCodeNotFound)
}

func TestStudyService_SessionLifecycle(t *testing.T) {
	repo := deckRepoWith(map[string][]models.Card{
		"d1": {{ID: "c1"}, {ID: "c2"}},
		"d2": {{ID: "c2"}, {ID: "c3"}},
	})
	store := new(mocks.MockProgressStore)
	store.On("Get", mock.Anything, mock.Anything).Return(nil, nil)
	store.On("Set", mock.Anything, mock.Anything).Return(nil)

	recorder := new(mocks.MockStatsRecorder)
	recorder.On("RecordSession", mock.Anything, mock.MatchedBy(func(s models.SessionStats) bool {
		return s.CardsStudied == 3 && s.CorrectAnswers == 2 && s.IncorrectAnswers == 1
	})).Return(nil).Once()

	svc := services.NewStudyService(repo, newComposer(store), recorder)
	ctx := context.Background()

	view, err := svc.StartSession(ctx, []string{"d1", "d2"})
	require.NoError(t, err)
	assert.Equal(t, session.StateInProgress, view.State)
	assert.Equal(t, 3, view.Total, "shared cards are studied once")
	require.NotNil(t, view.Current)
	assert.Equal(t, "c1", view.Current.ID)

	got, err := svc.GetSession(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, got.ID)

	var res *services.AnswerResult
	for _, q := range []int{5, 1, 3} {
		res, err = svc.AnswerSession(ctx, view.ID, q)
		require.NoError(t, err)
		assert.True(t, res.Persisted)
	}
	assert.Equal(t, session.StateComplete, res.Session.State)
	assert.Nil(t, res.Session.Current)
	recorder.AssertExpectations(t)

	_, err = svc.GetSession(ctx, view.ID)
	requireCode(t, err, errors.ErrCodeNotFound)
}

func TestStudyService_AnswerSessionInvalidQuality(t *testing.T) {
	repo := deckRepoWith(map[string][]models.Card{"d1": {{ID: "c1"}}})
	store := new(mocks.MockProgressStore)
	store.On("Get", mock.Anything, mock.Anything).Return(nil, nil)

	svc := services.NewStudyService(repo, newComposer(store), nil)
	view, err := svc.StartSession(context.Background(), []string{"d1"})
	require.NoError(t, err)

	_, err = svc.AnswerSession(context.Background(), view.ID, -1)
	requireCode(t, err, errors.ErrCodeInvalidQuality)

	got, err := svc.GetSession(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Position)
}

func TestStudyService_AnswerSessionPersistenceFailure(t *testing.T) {
	repo := deckRepoWith(map[string][]models.Card{"d1": {{ID: "c1"}, {ID: "c2"}}})
	store := new(mocks.MockProgressStore)
	store.On("Get", mock.Anything, mock.Anything).Return(nil, nil)
	store.On("Set", mock.Anything, mock.Anything).Return(stderrors.New("locked"))

	svc := services.NewStudyService(repo, newComposer(store), nil)
	view, err := svc.StartSession(context.Background(), []string{"d1"})
	require.NoError(t, err)

	res, err := svc.AnswerSession(context.Background(), view.ID, 4)
	require.NoError(t, err)
	assert.False(t, res.Persisted)
	assert.Equal(t, 1, res.Session.Position)
}

func TestStudyService_EmptySessionNotRegistered(t *testing.T) {
	repo := deckRepoWith(map[string][]models.Card{"d1": {}})
	svc := services.NewStudyService(repo, newComposer(new(mocks.MockProgressStore)), nil)

	view, err := svc.StartSession(context.Background(), []string{"d1"})
	require.NoError(t, err)
	assert.Equal(t, session.StateEmpty, view.State)

	_, err = svc.GetSession(context.Background(), view.ID)
	requireCode(t, err, errors.ErrCodeNotFound)
}

func TestStudyService_StartSessionRequiresDecks(t *testing.T) {
	svc := services.NewStudyService(new(mocks.MockDeckRepository), newComposer(new(mocks.MockProgressStore)), nil)
	_, err := svc.StartSession(context.Background(), nil)
	requireCode(t, err, errors.ErrCodeValidation)
}

func TestStudyService_ShuffleKeepsCards(t *testing.T) {
	cards := []models.Card{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	repo := deckRepoWith(map[string][]models.Card{"d1": cards})
	store := new(mocks.MockProgressStore)
	store.On("Get", mock.Anything, mock.Anything).Return(nil, nil)

	svc := services.NewStudyService(repo, newComposer(store), nil, services.WithShuffle(true))
	view, err := svc.StartSession(context.Background(), []string{"d1"})
	require.NoError(t, err)
	assert.Equal(t, 4, view.Total)
}

func TestStudyService_PruneSessions(t *testing.T) {
	repo := deckRepoWith(map[string][]models.Card{"d1": {{ID: "c1"}}})
	store := new(mocks.MockProgressStore)
	store.On("Get", mock.Anything, mock.Anything).Return(nil, nil)

	svc := services.NewStudyService(repo, newComposer(store), nil)
	view, err := svc.StartSession(context.Background(), []string{"d1"})
	require.NoError(t, err)

	assert.Equal(t, 0, svc.PruneSessions(context.Background(), time.Hour))
	// A negative idle window puts the cutoff in the future.
	assert.Equal(t, 1, svc.PruneSessions(context.Background(), -time.Second))

	_, err = svc.GetSession(context.Background(), view.ID)
	requireCode(t, err, errors.ErrCodeNotFound)
}
