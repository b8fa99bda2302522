package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/stockpulse/stockpulse/internal/domain"
)

// SortDir controls signal_date ordering on paged alert reads.
type SortDir string

const (
	SortAsc  SortDir = "ASC"
	SortDesc SortDir = "DESC"
)

// Normalize maps arbitrary caller input to a valid sort direction,
// defaulting to descending like the dashboard expects.
func (d SortDir) Normalize() SortDir {
	if d == SortAsc {
		return SortAsc
	}
	return SortDesc
}

var (
	// ErrTickerNotFound is returned when a symbol is not in the registry.
	ErrTickerNotFound = errors.New("ticker not found")
	// ErrDuplicateTicker is returned when adding a symbol that already exists.
	ErrDuplicateTicker = errors.New("ticker already exists")
)

// AlertRepo persists the deduplicated alert set per ticker.
type AlertRepo interface {
	// ReplaceForTicker atomically deletes the ticker's alerts and inserts
	// the new set. On failure the previous set remains intact.
	ReplaceForTicker(ctx context.Context, tickerID int64, symbol string, alerts []domain.Alert) error

	// ListByTicker retrieves a ticker's current alerts, newest first.
	ListByTicker(ctx context.Context, tickerID int64) ([]domain.Alert, error)

	// GetPage retrieves alerts across all tickers ordered by
	// (signal_date, created_at) in the requested direction, plus the
	// total row count for pagination.
	GetPage(ctx context.Context, offset, limit int, dir SortDir) ([]domain.Alert, int64, error)
}

// BarRepo persists the per-ticker daily bar cache.
type BarRepo interface {
	// ListRange retrieves stored bars within [from, to], ascending by date.
	ListRange(ctx context.Context, tickerID int64, from, to time.Time) ([]domain.Bar, error)

	// ListDates retrieves just the stored dates within [from, to], ascending.
	ListDates(ctx context.Context, tickerID int64, from, to time.Time) ([]time.Time, error)

	// UpsertBatch writes bars keyed by (ticker_id, date); re-writing an
	// existing date updates the row rather than duplicating it.
	UpsertBatch(ctx context.Context, tickerID int64, bars []domain.Bar) error
}

// TickerRepo manages the watchlist registry.
type TickerRepo interface {
	// Add registers a new symbol; ErrDuplicateTicker if it exists.
	Add(ctx context.Context, symbol string) (domain.Ticker, error)

	// Remove deletes a symbol; cascades to bars and alerts.
	Remove(ctx context.Context, symbol string) error

	// GetBySymbol looks up one ticker; ErrTickerNotFound when absent.
	GetBySymbol(ctx context.Context, symbol string) (domain.Ticker, error)

	// List retrieves tickers alphabetically with the total count.
	List(ctx context.Context, offset, limit int) ([]domain.Ticker, int64, error)

	// ListActive retrieves every active ticker for batch refresh.
	ListActive(ctx context.Context) ([]domain.Ticker, error)
}
