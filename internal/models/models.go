package models

import (
	"fmt"
	"math"
	"time"
)

type Card struct {
	ID            string    `json:"id" db:"id"`
	Front         string    `json:"front" db:"front"`
	Back          string    `json:"back" db:"back"`
	Type          string    `json:"type" db:"type"`
	Pronunciation string    `json:"pronunciation,omitempty" db:"pronunciation"`
	Example       string    `json:"example,omitempty" db:"example"`
	Notes         string    `json:"notes,omitempty" db:"notes"`
	Difficulty    int       `json:"difficulty" db:"difficulty"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type Deck struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	Difficulty  string    `json:"difficulty" db:"difficulty"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// DeckSummary is a deck annotated with its card and due counts.
type DeckSummary struct {
	Deck
	CardCount int `json:"card_count" db:"card_count"`
	DueCount  int `json:"due_count" db:"-"`
}

// ProgressRecord is the learning state of one card. The JSON and YAML
// field names are the persisted export shape.
type ProgressRecord struct {
	CardID      string     `json:"cardId" yaml:"cardId"`
	EaseFactor  float64    `json:"easeFactor" yaml:"easeFactor"`
	Interval    int        `json:"interval" yaml:"interval"`
	Repetitions int        `json:"repetitions" yaml:"repetitions"`
	NextReview  time.Time  `json:"nextReview" yaml:"nextReview"`
	LastReview  *time.Time `json:"lastReview,omitempty" yaml:"lastReview,omitempty"`
}

// Validate reports whether the record can be trusted by the scheduler.
func (p ProgressRecord) Validate() error {
	switch {
	case p.CardID == "":
		return fmt.Errorf("progress record: empty card id")
	case math.IsNaN(p.EaseFactor) || math.IsInf(p.EaseFactor, 0) || p.EaseFactor <= 0:
		return fmt.Errorf("progress record %s: invalid ease factor %v", p.CardID, p.EaseFactor)
	case p.Interval < 0:
		return fmt.Errorf("progress record %s: negative interval %d", p.CardID, p.Interval)
	case p.Repetitions < 0:
		return fmt.Errorf("progress record %s: negative repetitions %d", p.CardID, p.Repetitions)
	case p.NextReview.IsZero():
		return fmt.Errorf("progress record %s: missing next review", p.CardID)
	}
	return nil
}

// SessionStats summarizes one completed study session. Streak and
// RetentionRate are left at zero for the statistics side to fill in.
type SessionStats struct {
	SessionID        string    `json:"session_id"`
	CardsStudied     int       `json:"cards_studied"`
	CorrectAnswers   int       `json:"correct_answers"`
	IncorrectAnswers int       `json:"incorrect_answers"`
	TimeSpent        int       `json:"time_spent"` // seconds
	Streak           int       `json:"streak"`
	RetentionRate    int       `json:"retention_rate"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
}

// StatsSummary aggregates recent sessions.
type StatsSummary struct {
	Sessions         int    `json:"sessions"`
	CardsStudied     int    `json:"cards_studied"`
	CorrectAnswers   int    `json:"correct_answers"`
	IncorrectAnswers int    `json:"incorrect_answers"`
	TimeSpent        int    `json:"time_spent"`
	RetentionRate    int    `json:"retention_rate"`
	RetentionGrade   string `json:"retention_grade"`
}
