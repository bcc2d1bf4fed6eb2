// Package srs implements the SM-2 variant used to schedule flashcard reviews.
package srs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bturcotte520/FlashCards/internal/models"
)

var (
	// ErrInvalidQuality is returned for a grade outside 0-5.
	ErrInvalidQuality = errors.New("srs: quality must be between 0 and 5")
	// ErrInvalidParameters is wrapped by Parameters.Validate.
	ErrInvalidParameters = errors.New("srs: invalid scheduling parameters")
)

// PassThreshold is the lowest quality counted as a successful recall.
const PassThreshold = 3

// Quality grades how well a card was recalled.
type Quality int

const (
	// Complete blackout, unable to recall
	QualityBlackout Quality = 0
	// Incorrect, remembered upon seeing the answer
	QualityIncorrect Quality = 1
	// Incorrect, but the answer felt familiar
	QualityIncorrectFamiliar Quality = 2
	// Correct after significant effort
	QualityCorrectDifficult Quality = 3
	// Correct after some hesitation
	QualityCorrectHesitation Quality = 4
	// Perfect recall
	QualityPerfect Quality = 5
)

// Valid reports whether q is within 0-5.
func (q Quality) Valid() bool { return q >= QualityBlackout && q <= QualityPerfect }

// Correct reports whether q counts as a successful recall.
func (q Quality) Correct() bool { return q >= PassThreshold }

// Parameters are the tunable constants of the recurrence.
type Parameters struct {
	MinEaseFactor     float64 `json:"min_ease_factor"`
	DefaultEaseFactor float64 `json:"default_ease_factor"`
	EasyBonus         float64 `json:"easy_bonus"`
	IntervalModifier  float64 `json:"interval_modifier"`
}

// DefaultParameters are the classic SM-2 constants.
var DefaultParameters = Parameters{
	MinEaseFactor:     1.3,
	DefaultEaseFactor: 2.5,
	EasyBonus:         1.3,
	IntervalModifier:  1.0,
}

// Validate checks that the parameters keep intervals positive and the
// seed ease factor above the floor.
func (p Parameters) Validate() error {
	switch {
	case !(p.MinEaseFactor > 0):
		return fmt.Errorf("%w: min ease factor %v must be positive", ErrInvalidParameters, p.MinEaseFactor)
	case !(p.DefaultEaseFactor >= p.MinEaseFactor):
		return fmt.Errorf("%w: default ease factor %v below minimum %v", ErrInvalidParameters, p.DefaultEaseFactor, p.MinEaseFactor)
	case !(p.EasyBonus >= 1):
		return fmt.Errorf("%w: easy bonus %v must be at least 1", ErrInvalidParameters, p.EasyBonus)
	case !(p.IntervalModifier > 0):
		return fmt.Errorf("%w: interval modifier %v must be positive", ErrInvalidParameters, p.IntervalModifier)
	}
	return nil
}

// Result is the scheduling state produced by one review.
type Result struct {
	EaseFactor  float64   `json:"ease_factor"`
	Interval    int       `json:"interval"`
	Repetitions int       `json:"repetitions"`
	NextReview  time.Time `json:"next_review"`
}

// ComputeNext applies one review of quality q to progress and returns the
// next scheduling state. now only determines the calendar day the interval
// is counted from.
func ComputeNext(progress models.ProgressRecord, q Quality, p Parameters, now time.Time) (Result, error) {
	if !q.Valid() {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidQuality, int(q))
	}

	ef := progress.EaseFactor
	if ef == 0 {
		ef = p.DefaultEaseFactor
	}
	miss := float64(5 - q)
	ef = math.Max(p.MinEaseFactor, ef+(0.1-miss*(0.08+miss*0.02)))

	interval := progress.Interval
	repetitions := progress.Repetitions
	if !q.Correct() {
		repetitions = 0
		interval = 1
	} else {
		switch repetitions {
		case 0:
			interval = 1
		case 1:
			interval = 6
		default:
			// A passing review always moves the card at least one day out.
			interval = max(1, int(math.Round(float64(interval)*ef*p.IntervalModifier)))
		}
		repetitions++
	}

	// The bonus also scales the fixed 1 and 6 day steps.
	if q == QualityPerfect {
		interval = int(math.Round(float64(interval) * p.EasyBonus))
	}

	return Result{
		EaseFactor:  ef,
		Interval:    interval,
		Repetitions: repetitions,
		NextReview:  startOfDay(now).AddDate(0, 0, interval),
	}, nil
}

// InitialProgress is the record of a card that has never been reviewed.
// It is due immediately.
func InitialProgress(cardID string, p Parameters, now time.Time) models.ProgressRecord {
	return models.ProgressRecord{
		CardID:     cardID,
		EaseFactor: p.DefaultEaseFactor,
		NextReview: now,
	}
}

// IsDue reports whether the card behind progress should be reviewed at now.
func IsDue(progress models.ProgressRecord, now time.Time) bool {
	return !now.Before(progress.NextReview)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
