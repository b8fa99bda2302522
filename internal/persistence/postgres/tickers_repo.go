package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/stockpulse/stockpulse/internal/domain"
	"github.com/stockpulse/stockpulse/internal/persistence"
)

// pq unique_violation
const uniqueViolation = "23505"

// tickersRepo implements persistence.TickerRepo for PostgreSQL.
type tickersRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewTickersRepo creates a PostgreSQL watchlist repository.
func NewTickersRepo(db *sqlx.DB, timeout time.Duration) persistence.TickerRepo {
	return &tickersRepo{db: db, timeout: timeout}
}

func (r *tickersRepo) Add(ctx context.Context, symbol string) (domain.Ticker, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.Ticker{}, fmt.Errorf("symbol must not be empty")
	}

	var ticker domain.Ticker
	err := r.db.GetContext(ctx, &ticker, `
		INSERT INTO tickers (symbol)
		VALUES ($1)
		RETURNING id, symbol, added_date, is_active`, symbol)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.Ticker{}, fmt.Errorf("%s: %w", symbol, persistence.ErrDuplicateTicker)
		}
		return domain.Ticker{}, fmt.Errorf("failed to add ticker %s: %w", symbol, err)
	}
	return ticker, nil
}

// Remove deletes the ticker row; the FK cascade drops its cached bars and
// alerts with it.
func (r *tickersRepo) Remove(ctx context.Context, symbol string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM tickers WHERE symbol = $1`,
		strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return fmt.Errorf("failed to remove ticker %s: %w", symbol, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", symbol, persistence.ErrTickerNotFound)
	}
	return nil
}

func (r *tickersRepo) GetBySymbol(ctx context.Context, symbol string) (domain.Ticker, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var ticker domain.Ticker
	err := r.db.GetContext(ctx, &ticker, `
		SELECT id, symbol, added_date, is_active
		FROM tickers
		WHERE symbol = $1`, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Ticker{}, fmt.Errorf("%s: %w", symbol, persistence.ErrTickerNotFound)
		}
		return domain.Ticker{}, fmt.Errorf("failed to get ticker %s: %w", symbol, err)
	}
	return ticker, nil
}

func (r *tickersRepo) List(ctx context.Context, offset, limit int) ([]domain.Ticker, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var tickers []domain.Ticker
	err := r.db.SelectContext(ctx, &tickers, `
		SELECT id, symbol, added_date, is_active
		FROM tickers
		ORDER BY symbol ASC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tickers: %w", err)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM tickers`); err != nil {
		return nil, 0, fmt.Errorf("failed to count tickers: %w", err)
	}
	return tickers, total, nil
}

func (r *tickersRepo) ListActive(ctx context.Context) ([]domain.Ticker, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var tickers []domain.Ticker
	err := r.db.SelectContext(ctx, &tickers, `
		SELECT id, symbol, added_date, is_active
		FROM tickers
		WHERE is_active
		ORDER BY symbol ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tickers: %w", err)
	}
	return tickers, nil
}
