package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/session"
	"github.com/bturcotte520/FlashCards/internal/srs"
	"github.com/bturcotte520/FlashCards/internal/testutil/mocks"
)

func TestSession_FullRun(t *testing.T) {
	store := newMemStore()
	c, clk := newComposer(store)
	ctx := context.Background()

	recorder := new(mocks.MockStatsRecorder)
	recorder.On("RecordSession", mock.Anything, mock.MatchedBy(func(s models.SessionStats) bool {
		return s.SessionID == "s1" &&
			s.CardsStudied == 3 &&
			s.CorrectAnswers == 2 &&
			s.IncorrectAnswers == 1 &&
			s.TimeSpent == 90 &&
			s.Streak == 0 &&
			s.RetentionRate == 0
	})).Return(nil).Once()

	sess := c.NewSession("s1", recorder)
	assert.Equal(t, session.StateNotStarted, sess.State())
	_, ok := sess.Current()
	assert.False(t, ok)

	require.NoError(t, sess.Start(ctx, cards("a", "b", "c")))
	assert.Equal(t, session.StateInProgress, sess.State())
	assert.Equal(t, 3, sess.Total())

	grades := []srs.Quality{srs.QualityPerfect, srs.QualityBlackout, srs.QualityCorrectDifficult}
	for i, q := range grades {
		card, ok := sess.Current()
		require.True(t, ok)
		assert.Equal(t, []string{"a", "b", "c"}[i], card.ID)

		clk.Advance(30 * time.Second)
		_, err := sess.Answer(ctx, q)
		require.NoError(t, err)
	}

	assert.Equal(t, session.StateComplete, sess.State())
	assert.Equal(t, 3, sess.Position())
	assert.Equal(t, 3, store.setCount())
	recorder.AssertExpectations(t)

	_, err := sess.Answer(ctx, srs.QualityPerfect)
	assert.ErrorIs(t, err, session.ErrSessionNotActive)
	recorder.AssertNumberOfCalls(t, "RecordSession", 1)
}

func TestSession_EmptyDueSet(t *testing.T) {
	store := newMemStore()
	store.records["a"] = models.ProgressRecord{CardID: "a", EaseFactor: 2.5, Interval: 6, Repetitions: 2, NextReview: day0.AddDate(0, 0, 6)}
	c, _ := newComposer(store)

	recorder := new(mocks.MockStatsRecorder)
	sess := c.NewSession("s1", recorder)

	require.NoError(t, sess.Start(context.Background(), cards("a")))
	assert.Equal(t, session.StateEmpty, sess.State())
	assert.Equal(t, "empty", sess.State().String())

	_, err := sess.Answer(context.Background(), srs.QualityPerfect)
	assert.ErrorIs(t, err, session.ErrSessionNotActive)
	recorder.AssertNotCalled(t, "RecordSession", mock.Anything, mock.Anything)
}

func TestSession_StartTwice(t *testing.T) {
	c, _ := newComposer(newMemStore())
	sess := c.NewSession("s1", nil)

	require.NoError(t, sess.Start(context.Background(), cards("a")))
	err := sess.Start(context.Background(), cards("a"))
	assert.ErrorIs(t, err, session.ErrSessionNotActive)
}

func TestSession_InvalidQualityDoesNotAdvance(t *testing.T) {
	store := newMemStore()
	c, _ := newComposer(store)
	sess := c.NewSession("s1", nil)
	require.NoError(t, sess.Start(context.Background(), cards("a", "b")))

	_, err := sess.Answer(context.Background(), 7)
	require.ErrorIs(t, err, srs.ErrInvalidQuality)
	assert.Equal(t, 0, sess.Position())
	card, _ := sess.Current()
	assert.Equal(t, "a", card.ID)
	assert.Equal(t, 0, sess.Stats().CorrectAnswers+sess.Stats().IncorrectAnswers)
}

func TestSession_PersistenceFailureStillAdvances(t *testing.T) {
	store := newMemStore()
	store.setErr = errors.New("locked")
	c, _ := newComposer(store)

	recorder := new(mocks.MockStatsRecorder)
	recorder.On("RecordSession", mock.Anything, mock.Anything).Return(nil).Once()

	sess := c.NewSession("s1", recorder)
	require.NoError(t, sess.Start(context.Background(), cards("a")))

	rec, err := sess.Answer(context.Background(), srs.QualityCorrectHesitation)
	require.ErrorIs(t, err, session.ErrPersistenceFailed)
	assert.Equal(t, 1, rec.Interval)
	assert.Equal(t, session.StateComplete, sess.State())
	assert.Equal(t, 1, sess.Stats().CorrectAnswers)
	recorder.AssertExpectations(t)
}

func TestSession_RecorderFailureReported(t *testing.T) {
	c, _ := newComposer(newMemStore())
	recorder := new(mocks.MockStatsRecorder)
	recorder.On("RecordSession", mock.Anything, mock.Anything).Return(errors.New("queue full")).Once()

	sess := c.NewSession("s1", recorder)
	require.NoError(t, sess.Start(context.Background(), cards("a")))

	_, err := sess.Answer(context.Background(), srs.QualityPerfect)
	require.ErrorIs(t, err, session.ErrStatsNotRecorded)
	assert.NotErrorIs(t, err, session.ErrPersistenceFailed)
	assert.Contains(t, err.Error(), "queue full")
	assert.Equal(t, session.StateComplete, sess.State())
}

func TestSession_WithOrder(t *testing.T) {
	c, _ := newComposer(newMemStore())
	reverse := func(cs []models.Card) {
		for i, j := 0, len(cs)-1; i < j; i, j = i+1, j-1 {
			cs[i], cs[j] = cs[j], cs[i]
		}
	}

	sess := c.NewSession("s1", nil, session.WithOrder(reverse))
	require.NoError(t, sess.Start(context.Background(), cards("a", "b", "c")))
	assert.Equal(t, []string{"c", "b", "a"}, ids(sess.Cards()))
}

func TestSession_StatsWhileOpen(t *testing.T) {
	c, clk := newComposer(newMemStore())
	sess := c.NewSession("s1", nil)
	require.NoError(t, sess.Start(context.Background(), cards("a", "b")))
	assert.Equal(t, 0, sess.Stats().CardsStudied)

	clk.Advance(1500 * time.Millisecond)
	_, err := sess.Answer(context.Background(), srs.QualityIncorrect)
	require.NoError(t, err)

	stats := sess.Stats()
	assert.Equal(t, 1, stats.CardsStudied, "only answered cards count as studied")
	assert.Equal(t, 1, stats.TimeSpent)
	assert.Equal(t, 1, stats.IncorrectAnswers)
	assert.True(t, stats.CompletedAt.IsZero())
}

func TestState_MarshalText(t *testing.T) {
	b, err := session.StateInProgress.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "in_progress", string(b))

	var st session.State
	require.NoError(t, st.UnmarshalText([]byte("complete")))
	assert.Equal(t, session.StateComplete, st)
	assert.Error(t, st.UnmarshalText([]byte("paused")))
}
