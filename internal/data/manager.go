package data

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stockpulse/stockpulse/internal/domain"
	"github.com/stockpulse/stockpulse/internal/metrics"
	"github.com/stockpulse/stockpulse/internal/persistence"
)

// Provider fetches daily bars from the upstream market-data API.
type Provider interface {
	FetchRange(ctx context.Context, symbol string, from, to time.Time) ([]domain.Bar, error)
}

// Manager owns the per-ticker bar cache and its freshness boundary: bars
// dated before "today" are immutable once stored and never re-fetched,
// while "today" is re-fetched on every call regardless of what the cache
// holds.
type Manager struct {
	bars      persistence.BarRepo
	provider  Provider
	snapshots *SnapshotCache
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithSnapshotCache enables the Redis read accelerator.
func WithSnapshotCache(c *SnapshotCache) Option {
	return func(m *Manager) { m.snapshots = c }
}

// WithClock overrides the "today" clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a cache manager over the bar store and provider.
func NewManager(bars persistence.BarRepo, provider Provider, opts ...Option) *Manager {
	m := &Manager{bars: bars, provider: provider, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetRange returns the ticker's bars for [from, to], fetching only the
// missing sub-ranges (plus today) from the provider. A provider failure
// surfaces to the caller and leaves existing cache contents untouched.
func (m *Manager) GetRange(ctx context.Context, ticker domain.Ticker, from, to time.Time) ([]domain.Bar, error) {
	from = civilDate(from)
	to = civilDate(to)
	today := civilDate(m.now())
	if to.After(today) {
		to = today
	}
	if from.After(to) {
		return nil, fmt.Errorf("invalid range for %s: %s after %s",
			ticker.Symbol, from.Format(snapshotKeyLayout), to.Format(snapshotKeyLayout))
	}

	storedDates, err := m.bars.ListDates(ctx, ticker.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list cached dates for %s: %w", ticker.Symbol, err)
	}
	stored := make(map[time.Time]struct{}, len(storedDates))
	for _, d := range storedDates {
		stored[civilDate(d)] = struct{}{}
	}

	gaps := missingRanges(tradingDays(from, to), stored, today)

	if len(gaps) == 0 {
		// Fully historical and fully cached: the provider is never
		// consulted, and the Redis snapshot may skip Postgres too.
		if m.snapshots != nil {
			if bars, ok := m.snapshots.Get(ctx, ticker.ID, from, to); ok {
				metrics.CacheLookups.WithLabelValues(metrics.TierRedisHit).Inc()
				return bars, nil
			}
			metrics.CacheLookups.WithLabelValues(metrics.TierRedisMiss).Inc()
		}
	} else {
		for _, gap := range gaps {
			metrics.CacheLookups.WithLabelValues(metrics.TierProvider).Inc()
			fetched, err := m.provider.FetchRange(ctx, ticker.Symbol, gap.from, gap.to)
			if err != nil {
				return nil, fmt.Errorf("fetch %s [%s, %s]: %w", ticker.Symbol,
					gap.from.Format(snapshotKeyLayout), gap.to.Format(snapshotKeyLayout), err)
			}
			if err := m.bars.UpsertBatch(ctx, ticker.ID, fetched); err != nil {
				return nil, fmt.Errorf("cache bars for %s: %w", ticker.Symbol, err)
			}
			log.Debug().
				Str("symbol", ticker.Symbol).
				Str("from", gap.from.Format(snapshotKeyLayout)).
				Str("to", gap.to.Format(snapshotKeyLayout)).
				Int("bars", len(fetched)).
				Msg("filled price cache gap")
		}
	}

	series, err := m.bars.ListRange(ctx, ticker.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("read bar series for %s: %w", ticker.Symbol, err)
	}

	if m.snapshots != nil && len(gaps) == 0 {
		m.snapshots.Set(ctx, ticker.ID, from, to, series)
	}

	return series, nil
}

// Forget drops any hot-tier state for a removed ticker. The Postgres rows
// go away through the FK cascade.
func (m *Manager) Forget(ctx context.Context, tickerID int64) {
	if m.snapshots != nil {
		m.snapshots.Clear(ctx, tickerID)
	}
}
