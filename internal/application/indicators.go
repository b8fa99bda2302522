package application

import (
	"context"

	"github.com/stockpulse/stockpulse/internal/domain"
)

// IndicatorSource attaches per-bar indicator snapshots to a bar series.
// The indicator math itself lives outside this engine; the evaluator only
// consumes the resulting snapshots.
type IndicatorSource interface {
	Enrich(ctx context.Context, ticker domain.Ticker, bars []domain.Bar) ([]domain.Bar, error)
}

// PassthroughIndicators returns bars unchanged, for data sources that
// deliver indicator values inline with the bars.
type PassthroughIndicators struct{}

func (PassthroughIndicators) Enrich(_ context.Context, _ domain.Ticker, bars []domain.Bar) ([]domain.Bar, error) {
	return bars, nil
}
