package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/session"
	"github.com/bturcotte520/FlashCards/internal/srs"
)

// memStore is an in-memory ProgressStore that can be told to fail.
type memStore struct {
	mu      sync.Mutex
	records map[string]models.ProgressRecord
	sets    int
	getErr  map[string]error
	setErr  error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]models.ProgressRecord{}, getErr: map[string]error{}}
}

func (m *memStore) Get(_ context.Context, cardID string) (*models.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.getErr[cardID]; err != nil {
		return nil, err
	}
	rec, ok := m.records[cardID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memStore) Set(_ context.Context, rec models.ProgressRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.records[rec.CardID] = rec
	return nil
}

func (m *memStore) All(context.Context) ([]models.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ProgressRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}

func (m *memStore) setCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var day0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func newComposer(store *memStore) (*session.Composer, *clock) {
	clk := &clock{now: day0}
	return session.NewComposer(store, srs.DefaultParameters, session.WithClock(clk.Now)), clk
}

func cards(ids ...string) []models.Card {
	out := make([]models.Card, len(ids))
	for i, id := range ids {
		out[i] = models.Card{ID: id, Front: "front " + id, Back: "back " + id}
	}
	return out
}

func ids(cs []models.Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestInitializeProgress_Idempotent(t *testing.T) {
	store := newMemStore()
	c, _ := newComposer(store)
	ctx := context.Background()

	first, err := c.InitializeProgress(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2.5, first.EaseFactor)
	assert.Equal(t, 0, first.Interval)
	assert.Equal(t, 0, first.Repetitions)
	assert.True(t, day0.Equal(first.NextReview))
	assert.Nil(t, first.LastReview)

	second, err := c.InitializeProgress(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.setCount(), "the initial record is written once")
}

func TestInitializeProgress_ExistingRecordUntouched(t *testing.T) {
	store := newMemStore()
	stored := models.ProgressRecord{CardID: "c1", EaseFactor: 1.9, Interval: 12, Repetitions: 4, NextReview: day0.AddDate(0, 0, 5)}
	store.records["c1"] = stored
	c, _ := newComposer(store)

	got, err := c.InitializeProgress(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, stored, got)
	assert.Equal(t, 0, store.setCount())
}

func TestInitializeProgress_WriteFailure(t *testing.T) {
	store := newMemStore()
	store.setErr = errors.New("disk full")
	c, _ := newComposer(store)

	rec, err := c.InitializeProgress(context.Background(), "c1")
	require.ErrorIs(t, err, session.ErrPersistenceFailed)
	assert.Equal(t, "c1", rec.CardID)
}

func TestDueCards_Selection(t *testing.T) {
	store := newMemStore()
	c, _ := newComposer(store)
	ctx := context.Background()

	// c2 due yesterday, c3 due exactly now, c4 due tomorrow, c1 has no record.
	store.records["c2"] = models.ProgressRecord{CardID: "c2", EaseFactor: 2.5, Interval: 1, Repetitions: 1, NextReview: day0.AddDate(0, 0, -1)}
	store.records["c3"] = models.ProgressRecord{CardID: "c3", EaseFactor: 2.5, Interval: 1, Repetitions: 1, NextReview: day0}
	store.records["c4"] = models.ProgressRecord{CardID: "c4", EaseFactor: 2.5, Interval: 1, Repetitions: 1, NextReview: day0.AddDate(0, 0, 1)}

	due, err := c.DueCards(ctx, cards("c4", "c3", "c1", "c2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c3", "c1", "c2"}, ids(due), "input order is preserved")

	fresh, err := c.NewCards(ctx, cards("c4", "c3", "c1", "c2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids(fresh))
	assert.Equal(t, 0, store.setCount(), "selection never writes")
}

func TestDueCards_EmptyInput(t *testing.T) {
	c, _ := newComposer(newMemStore())

	due, err := c.DueCards(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, due)

	fresh, err := c.NewCards(context.Background(), []models.Card{})
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestDueCards_ReadErrorFailsOpen(t *testing.T) {
	store := newMemStore()
	store.records["c1"] = models.ProgressRecord{CardID: "c1", EaseFactor: 2.5, Interval: 6, Repetitions: 2, NextReview: day0.AddDate(0, 0, 6)}
	store.getErr["c1"] = errors.New("corrupt")
	c, _ := newComposer(store)

	due, err := c.DueCards(context.Background(), cards("c1", "c2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, ids(due))
}

func TestDueCards_CancelledContext(t *testing.T) {
	c, _ := newComposer(newMemStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.DueCards(ctx, cards("c1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubmitAnswer_FirstAnswer(t *testing.T) {
	store := newMemStore()
	c, _ := newComposer(store)

	rec, err := c.SubmitAnswer(context.Background(), "c1", srs.QualityCorrectHesitation)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Interval)
	assert.Equal(t, 1, rec.Repetitions)
	assert.InDelta(t, 2.5, rec.EaseFactor, 1e-9)
	assert.True(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Equal(rec.NextReview))
	require.NotNil(t, rec.LastReview)
	assert.True(t, day0.Equal(*rec.LastReview))

	assert.Equal(t, 1, store.setCount(), "one write per answer")
	stored, err := c.Progress(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, rec.Interval, stored.Interval)
}

func TestSubmitAnswer_GraduationLadder(t *testing.T) {
	store := newMemStore()
	c, clk := newComposer(store)
	ctx := context.Background()

	var intervals []int
	for i := 0; i < 3; i++ {
		rec, err := c.SubmitAnswer(ctx, "c1", srs.QualityCorrectHesitation)
		require.NoError(t, err)
		intervals = append(intervals, rec.Interval)
		clk.Advance(time.Duration(rec.Interval) * 24 * time.Hour)
	}
	assert.Equal(t, []int{1, 6, 15}, intervals)
}

func TestSubmitAnswer_LapseAfterGraduation(t *testing.T) {
	store := newMemStore()
	c, _ := newComposer(store)
	ctx := context.Background()
	store.records["c1"] = models.ProgressRecord{CardID: "c1", EaseFactor: 2.5, Interval: 15, Repetitions: 3, NextReview: day0}

	rec, err := c.SubmitAnswer(ctx, "c1", srs.QualityIncorrect)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Repetitions)
	assert.Equal(t, 1, rec.Interval)
	assert.InDelta(t, 1.96, rec.EaseFactor, 1e-9)
}

func TestSubmitAnswer_InvalidQuality(t *testing.T) {
	store := newMemStore()
	c, _ := newComposer(store)

	for _, q := range []srs.Quality{-1, 6} {
		_, err := c.SubmitAnswer(context.Background(), "c1", q)
		assert.ErrorIs(t, err, srs.ErrInvalidQuality)
	}
	assert.Equal(t, 0, store.setCount())
}

func TestSubmitAnswer_PersistenceFailure(t *testing.T) {
	store := newMemStore()
	store.setErr = errors.New("read-only")
	c, _ := newComposer(store)

	rec, err := c.SubmitAnswer(context.Background(), "c1", srs.QualityPerfect)
	require.ErrorIs(t, err, session.ErrPersistenceFailed)
	assert.Equal(t, 1, rec.Repetitions, "computed record is still returned")
	assert.Equal(t, 1, rec.Interval)
}

func TestSubmitAnswer_ReadFailure(t *testing.T) {
	store := newMemStore()
	store.getErr["c1"] = errors.New("io")
	c, _ := newComposer(store)

	_, err := c.SubmitAnswer(context.Background(), "c1", srs.QualityPerfect)
	require.Error(t, err)
	assert.NotErrorIs(t, err, session.ErrPersistenceFailed)
	assert.Equal(t, 0, store.setCount())
}

func TestMarkForReview(t *testing.T) {
	store := newMemStore()
	c, _ := newComposer(store)
	last := day0.AddDate(0, 0, -3)
	store.records["c1"] = models.ProgressRecord{CardID: "c1", EaseFactor: 2.2, Interval: 15, Repetitions: 3, NextReview: day0.AddDate(0, 0, 12), LastReview: &last}

	rec, err := c.MarkForReview(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 2.2, rec.EaseFactor)
	assert.Equal(t, 0, rec.Interval)
	assert.Equal(t, 0, rec.Repetitions)
	assert.True(t, day0.Equal(rec.NextReview))
	require.NotNil(t, rec.LastReview)
	assert.True(t, last.Equal(*rec.LastReview))

	due, err := c.DueCards(context.Background(), cards("c1"))
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestRestore(t *testing.T) {
	store := newMemStore()
	c, _ := newComposer(store)
	rec := models.ProgressRecord{CardID: "c1", EaseFactor: 2.1, Interval: 9, Repetitions: 3, NextReview: day0}

	require.NoError(t, c.Restore(context.Background(), rec))
	assert.Equal(t, rec, store.records["c1"])

	err := c.Restore(context.Background(), models.ProgressRecord{CardID: "c2", EaseFactor: 0, NextReview: day0})
	assert.Error(t, err)
	_, ok := store.records["c2"]
	assert.False(t, ok)
}

func TestRestore_RejectsRecordsTheSchedulerCannotProduce(t *testing.T) {
	tests := []struct {
		name string
		rec  models.ProgressRecord
	}{
		{"ease below floor", models.ProgressRecord{CardID: "low", EaseFactor: 0.5, Interval: 3, Repetitions: 2, NextReview: day0}},
		{"repetitions without interval", models.ProgressRecord{CardID: "flat", EaseFactor: 2.5, Interval: 0, Repetitions: 3, NextReview: day0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			c, _ := newComposer(store)

			err := c.Restore(context.Background(), tt.rec)
			require.Error(t, err)
			assert.NotErrorIs(t, err, session.ErrPersistenceFailed)
			assert.Empty(t, store.records)
		})
	}
}

func TestRestore_ResetRecordAccepted(t *testing.T) {
	store := newMemStore()
	c, _ := newComposer(store)
	rec := models.ProgressRecord{CardID: "c1", EaseFactor: 1.3, Interval: 0, Repetitions: 0, NextReview: day0}

	require.NoError(t, c.Restore(context.Background(), rec))
	assert.Equal(t, rec, store.records["c1"])
}
