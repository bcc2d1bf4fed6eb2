package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/bturcotte520/FlashCards/internal/logger"
	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var progressColumns = []string{"card_id", "ease_factor", "interval_days", "repetitions", "next_review", "last_review"}

type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a ProgressStore backed by the progress table
func NewProgressRepository(db *sql.DB) repository.ProgressStore {
	return &progressRepository{db: db}
}

// progressRow holds the raw column values of a progress row. Values are
// scanned untyped so that a corrupt row can be rejected without failing
// the query.
type progressRow struct {
	cardID      string
	easeFactor  any
	interval    any
	repetitions any
	nextReview  any
	lastReview  any
}

func (r *progressRow) dest() []any {
	return []any{&r.cardID, &r.easeFactor, &r.interval, &r.repetitions, &r.nextReview, &r.lastReview}
}

func (r progressRow) decode() (models.ProgressRecord, error) {
	rec := models.ProgressRecord{CardID: r.cardID}

	var err error
	if rec.EaseFactor, err = asFloat(r.easeFactor); err != nil {
		return rec, fmt.Errorf("ease_factor: %w", err)
	}
	if rec.Interval, err = asInt(r.interval); err != nil {
		return rec, fmt.Errorf("interval_days: %w", err)
	}
	if rec.Repetitions, err = asInt(r.repetitions); err != nil {
		return rec, fmt.Errorf("repetitions: %w", err)
	}
	if rec.NextReview, err = asTime(r.nextReview); err != nil {
		return rec, fmt.Errorf("next_review: %w", err)
	}
	if r.lastReview != nil {
		last, err := asTime(r.lastReview)
		if err != nil {
			return rec, fmt.Errorf("last_review: %w", err)
		}
		rec.LastReview = &last
	}
	return rec, rec.Validate()
}

func (r *progressRepository) Get(ctx context.Context, cardID string) (*models.ProgressRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	query, args, err := sqlBuilder.Select(progressColumns...).
		From("progress").
		Where(squirrel.Eq{"card_id": cardID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row progressRow
	err = r.db.QueryRowContext(ctx, query, args...).Scan(row.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to query progress: card_id=%s: %v", cardID, err)
		return nil, err
	}

	rec, err := row.decode()
	if err != nil {
		log.Warn("ignoring malformed progress: card_id=%s: %v", cardID, err)
		return nil, nil
	}
	return &rec, nil
}

func (r *progressRepository) Set(ctx context.Context, rec models.ProgressRecord) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("saving progress: card_id=%s interval=%d ease=%.2f", rec.CardID, rec.Interval, rec.EaseFactor)

	var last sql.NullString
	if rec.LastReview != nil {
		last = sql.NullString{String: rec.LastReview.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	query, args, err := sqlBuilder.Insert("progress").
		Columns(progressColumns...).
		Values(rec.CardID, rec.EaseFactor, rec.Interval, rec.Repetitions, rec.NextReview.UTC().Format(time.RFC3339Nano), last).
		Suffix(`ON CONFLICT(card_id) DO UPDATE SET
    ease_factor = excluded.ease_factor,
    interval_days = excluded.interval_days,
    repetitions = excluded.repetitions,
    next_review = excluded.next_review,
    last_review = excluded.last_review,
    updated_at = CURRENT_TIMESTAMP`).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to save progress: card_id=%s: %v", rec.CardID, err)
		return err
	}
	return nil
}

func (r *progressRepository) All(ctx context.Context) ([]models.ProgressRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	query, args, err := sqlBuilder.Select(progressColumns...).
		From("progress").
		OrderBy("card_id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query progress: %v", err)
		return nil, err
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		var row progressRow
		if err := rows.Scan(row.dest()...); err != nil {
			log.Error("failed to scan progress row: %v", err)
			return nil, err
		}
		rec, err := row.decode()
		if err != nil {
			log.Warn("skipping malformed progress: card_id=%s: %v", row.cardID, err)
			continue
		}
		records = append(records, rec)
	}
	log.Debug("loaded %d progress records", len(records))
	return records, rows.Err()
}
