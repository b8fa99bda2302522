package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stockpulse/stockpulse/internal/domain"
	"github.com/stockpulse/stockpulse/internal/metrics"
	"github.com/stockpulse/stockpulse/internal/persistence"
)

// BarSource yields a ticker's bar series for a date range, fetching and
// caching whatever is missing.
type BarSource interface {
	GetRange(ctx context.Context, ticker domain.Ticker, from, to time.Time) ([]domain.Bar, error)
}

// Progress receives (current, total, symbol) after each ticker in a batch
// refresh completes, for external display only.
type Progress func(current, total int, symbol string)

// Failure records one ticker's refresh error inside a batch.
type Failure struct {
	Symbol string
	Err    error
}

// Result summarizes a batch refresh.
type Result struct {
	Total       int
	Succeeded   int
	TotalAlerts int
	Failed      []Failure
}

// Config tunes the refresher.
type Config struct {
	// Delay is the pause between tickers in a batch, protecting the
	// provider's shared rate allowance.
	Delay time.Duration
	// LookbackDays is the bar history window evaluated per ticker.
	LookbackDays int
	// TriggerTimeout bounds a fire-and-forget single-ticker refresh.
	TriggerTimeout time.Duration
}

// Refresher drives the fetch → evaluate → reconcile → persist pipeline,
// one ticker at a time. All alert-set writes for a ticker go through its
// keyed lock, so a background trigger and a running batch never interleave
// their replacements.
type Refresher struct {
	bars       BarSource
	indicators IndicatorSource
	alerts     persistence.AlertRepo
	tickers    persistence.TickerRepo
	locks      *keyedMutex
	cfg        Config
	now        func() time.Time
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithRefresherClock overrides the clock, for tests.
func WithRefresherClock(now func() time.Time) RefresherOption {
	return func(r *Refresher) { r.now = now }
}

// NewRefresher wires the pipeline.
func NewRefresher(bars BarSource, indicators IndicatorSource, alerts persistence.AlertRepo,
	tickers persistence.TickerRepo, cfg Config, opts ...RefresherOption) *Refresher {

	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 365
	}
	if cfg.TriggerTimeout <= 0 {
		cfg.TriggerTimeout = 2 * time.Minute
	}

	r := &Refresher{
		bars:       bars,
		indicators: indicators,
		alerts:     alerts,
		tickers:    tickers,
		locks:      newKeyedMutex(),
		cfg:        cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RefreshOne runs the full pipeline for a single ticker and replaces its
// alert set. It returns the number of alerts now current for the ticker.
func (r *Refresher) RefreshOne(ctx context.Context, ticker domain.Ticker) (int, error) {
	r.locks.Lock(ticker.ID)
	defer r.locks.Unlock(ticker.ID)

	start := time.Now()
	defer func() {
		metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	}()

	to := r.now()
	from := to.AddDate(0, 0, -r.cfg.LookbackDays)

	bars, err := r.bars.GetRange(ctx, ticker, from, to)
	if err != nil {
		metrics.RefreshOutcomes.WithLabelValues("fetch_failed").Inc()
		return 0, fmt.Errorf("refresh %s: %w", ticker.Symbol, err)
	}

	bars, err = r.indicators.Enrich(ctx, ticker, bars)
	if err != nil {
		metrics.RefreshOutcomes.WithLabelValues("indicators_failed").Inc()
		return 0, fmt.Errorf("indicators for %s: %w", ticker.Symbol, err)
	}

	events := domain.Evaluate(ticker.ID, bars)
	alerts := domain.Reconcile(events)

	if err := r.alerts.ReplaceForTicker(ctx, ticker.ID, ticker.Symbol, alerts); err != nil {
		metrics.RefreshOutcomes.WithLabelValues("persist_failed").Inc()
		return 0, fmt.Errorf("persist alerts for %s: %w", ticker.Symbol, err)
	}

	metrics.RefreshOutcomes.WithLabelValues("ok").Inc()
	log.Info().
		Str("symbol", ticker.Symbol).
		Int("bars", len(bars)).
		Int("signals", len(events)).
		Int("alerts", len(alerts)).
		Dur("elapsed", time.Since(start)).
		Msg("ticker refreshed")
	return len(alerts), nil
}

// RefreshAll sweeps every active ticker sequentially, pausing between
// tickers to respect the provider's rate allowance. A ticker's failure is
// recorded and never stops the batch; only context cancellation ends the
// sweep early, returning the partial result.
func (r *Refresher) RefreshAll(ctx context.Context, progress Progress) (Result, error) {
	tickers, err := r.tickers.ListActive(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list tickers for refresh: %w", err)
	}

	jobID := uuid.NewString()[:8]
	result := Result{Total: len(tickers)}
	log.Info().Str("job_id", jobID).Int("tickers", len(tickers)).Msg("batch refresh started")

	for i, ticker := range tickers {
		alertCount, err := r.RefreshOne(ctx, ticker)
		if err != nil {
			result.Failed = append(result.Failed, Failure{Symbol: ticker.Symbol, Err: err})
			log.Error().Err(err).
				Str("job_id", jobID).
				Str("symbol", ticker.Symbol).
				Msg("ticker refresh failed")
		} else {
			result.Succeeded++
			result.TotalAlerts += alertCount
		}

		if progress != nil {
			progress(i+1, len(tickers), ticker.Symbol)
		}

		if i < len(tickers)-1 && r.cfg.Delay > 0 {
			select {
			case <-time.After(r.cfg.Delay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}

	metrics.AlertsCurrent.Set(float64(result.TotalAlerts))
	log.Info().
		Str("job_id", jobID).
		Int("succeeded", result.Succeeded).
		Int("failed", len(result.Failed)).
		Int("alerts", result.TotalAlerts).
		Msg("batch refresh finished")
	return result, nil
}

// TriggerRefresh starts a background refresh for one ticker and returns
// immediately. The caller that added the ticker does not wait; failures
// are logged and otherwise silent.
func (r *Refresher) TriggerRefresh(ticker domain.Ticker) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.TriggerTimeout)
		defer cancel()

		if _, err := r.RefreshOne(ctx, ticker); err != nil {
			log.Error().Err(err).Str("symbol", ticker.Symbol).Msg("background refresh failed")
		}
	}()
}

// Summary renders a human-readable account of a batch result.
func (r *Refresher) Summary(result Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Processed %d ticker(s): %d successful, %d failed. Generated %d alert(s).",
		result.Total, result.Succeeded, len(result.Failed), result.TotalAlerts)

	if len(result.Failed) > 0 {
		fmt.Fprintf(&b, "\n\nErrors (%d):", len(result.Failed))
		for i, f := range result.Failed {
			if i == 5 {
				fmt.Fprintf(&b, "\n... and %d more", len(result.Failed)-5)
				break
			}
			fmt.Fprintf(&b, "\n- %s: %v", f.Symbol, f.Err)
		}
	}
	return b.String()
}
