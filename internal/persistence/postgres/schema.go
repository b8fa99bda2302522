package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema mirrors the source system's tables: a watchlist registry, the
// per-ticker bar cache, and the deduplicated alert set. Cascading FKs give
// a removed ticker cascading ownership of its bars and alerts.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tickers (
		id         BIGSERIAL PRIMARY KEY,
		symbol     TEXT NOT NULL UNIQUE,
		added_date TIMESTAMPTZ NOT NULL DEFAULT now(),
		is_active  BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS price_cache (
		id        BIGSERIAL PRIMARY KEY,
		ticker_id BIGINT NOT NULL REFERENCES tickers(id) ON DELETE CASCADE,
		date      DATE NOT NULL,
		open      DOUBLE PRECISION NOT NULL,
		high      DOUBLE PRECISION NOT NULL,
		low       DOUBLE PRECISION NOT NULL,
		close     DOUBLE PRECISION NOT NULL,
		volume    BIGINT NOT NULL,
		cached_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (ticker_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id            BIGSERIAL PRIMARY KEY,
		ticker_id     BIGINT NOT NULL REFERENCES tickers(id) ON DELETE CASCADE,
		ticker_symbol TEXT NOT NULL,
		alert_type    TEXT NOT NULL CHECK (alert_type IN ('LONG_OPEN', 'LONG_CLOSE', 'SHORT_OPEN', 'SHORT_CLOSE')),
		signal_date   DATE NOT NULL,
		price         DOUBLE PRECISION NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_signal_date ON alerts (signal_date, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_price_cache_ticker_date ON price_cache (ticker_id, date)`,
}

// Migrate creates the tables if they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
