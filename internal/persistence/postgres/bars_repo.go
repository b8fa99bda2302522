package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stockpulse/stockpulse/internal/domain"
	"github.com/stockpulse/stockpulse/internal/persistence"
)

// barsRepo implements persistence.BarRepo for PostgreSQL.
type barsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewBarsRepo creates a PostgreSQL bar cache repository.
func NewBarsRepo(db *sqlx.DB, timeout time.Duration) persistence.BarRepo {
	return &barsRepo{db: db, timeout: timeout}
}

func (r *barsRepo) ListRange(ctx context.Context, tickerID int64, from, to time.Time) ([]domain.Bar, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var bars []domain.Bar
	err := r.db.SelectContext(ctx, &bars, `
		SELECT date, open, high, low, close, volume
		FROM price_cache
		WHERE ticker_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`, tickerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list bars for ticker %d: %w", tickerID, err)
	}
	return bars, nil
}

func (r *barsRepo) ListDates(ctx context.Context, tickerID int64, from, to time.Time) ([]time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var dates []time.Time
	err := r.db.SelectContext(ctx, &dates, `
		SELECT date
		FROM price_cache
		WHERE ticker_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`, tickerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached dates for ticker %d: %w", tickerID, err)
	}
	return dates, nil
}

// UpsertBatch writes fetched bars inside one transaction. The conflict
// target (ticker_id, date) makes re-fetching an already-cached historical
// date an idempotent overwrite and keeps "today" mutable until it ages
// past the freshness boundary.
func (r *barsRepo) UpsertBatch(ctx context.Context, tickerID int64, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_cache (ticker_id, date, open, high, low, close, volume, cached_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (ticker_id, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			cached_at = now()`)
	if err != nil {
		return fmt.Errorf("failed to prepare bar upsert: %w", err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		_, err := stmt.ExecContext(ctx, tickerID, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
		if err != nil {
			return fmt.Errorf("failed to upsert bar %s for ticker %d: %w",
				bar.Date.Format("2006-01-02"), tickerID, err)
		}
	}

	return tx.Commit()
}
