package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stockpulse/stockpulse/internal/domain"
	"github.com/stockpulse/stockpulse/internal/persistence"
)

// alertsRepo implements persistence.AlertRepo for PostgreSQL.
type alertsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewAlertsRepo creates a PostgreSQL alert repository.
func NewAlertsRepo(db *sqlx.DB, timeout time.Duration) persistence.AlertRepo {
	return &alertsRepo{db: db, timeout: timeout}
}

// ReplaceForTicker swaps the ticker's alert set in a single transaction.
// The delete and inserts either all land or none do, so a failure leaves
// the previous set visible.
func (r *alertsRepo) ReplaceForTicker(ctx context.Context, tickerID int64, symbol string, alerts []domain.Alert) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM alerts WHERE ticker_id = $1`, tickerID); err != nil {
		return fmt.Errorf("failed to delete alerts for ticker %d: %w", tickerID, err)
	}

	for _, alert := range alerts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO alerts (ticker_id, ticker_symbol, alert_type, signal_date, price)
			VALUES ($1, $2, $3, $4, $5)`,
			tickerID, symbol, alert.Kind, alert.SignalDate, alert.Price)
		if err != nil {
			return fmt.Errorf("failed to insert %s alert for %s: %w", alert.Kind, symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alert replacement: %w", err)
	}
	return nil
}

func (r *alertsRepo) ListByTicker(ctx context.Context, tickerID int64) ([]domain.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var alerts []domain.Alert
	err := r.db.SelectContext(ctx, &alerts, `
		SELECT id, ticker_id, ticker_symbol, alert_type, signal_date, price, created_at
		FROM alerts
		WHERE ticker_id = $1
		ORDER BY signal_date DESC, id DESC`, tickerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts for ticker %d: %w", tickerID, err)
	}
	return alerts, nil
}

func (r *alertsRepo) GetPage(ctx context.Context, offset, limit int, dir persistence.SortDir) ([]domain.Alert, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Sort direction is validated to a fixed token, never interpolated
	// from raw caller input.
	order := dir.Normalize()

	query := fmt.Sprintf(`
		SELECT id, ticker_id, ticker_symbol, alert_type, signal_date, price, created_at
		FROM alerts
		ORDER BY signal_date %s, created_at %s
		LIMIT $1 OFFSET $2`, order, order)

	var alerts []domain.Alert
	if err := r.db.SelectContext(ctx, &alerts, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to query alerts page: %w", err)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM alerts`); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	return alerts, total, nil
}
