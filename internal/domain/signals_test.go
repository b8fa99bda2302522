package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2025, 11, d, 0, 0, 0, 0, time.UTC)
}

// bullishSnapshot returns indicators that satisfy every long entry
// condition for a bar closing at c.
func bullishSnapshot(c float64) IndicatorSnapshot {
	return IndicatorSnapshot{
		MACD:          Float64(2.0),
		MACDSignal:    Float64(1.0),
		GannHiLo:      Float64(c - 10),
		RSI:           Float64(60),
		RSIMA:         Float64(50),
		Supertrend:    Float64(c - 5),
		IchimokuSpanA: Float64(c - 20),
		IchimokuSpanB: Float64(c - 30),
	}
}

func bearishSnapshot(c, prevMACD float64) IndicatorSnapshot {
	return IndicatorSnapshot{
		MACD:          Float64(prevMACD - 1),
		MACDSignal:    Float64(prevMACD),
		GannHiLo:      Float64(c + 10),
		RSI:           Float64(40),
		RSIMA:         Float64(50),
		Supertrend:    Float64(c + 5),
		IchimokuSpanA: Float64(c + 20),
		IchimokuSpanB: Float64(c + 30),
	}
}

func kinds(events []SignalEvent) []SignalKind {
	out := make([]SignalKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestEvaluateLongOpen(t *testing.T) {
	bars := []Bar{
		{Date: day(1), High: 100, Low: 90, Close: 95, Indicators: bullishSnapshot(95)},
		{Date: day(2), High: 105, Low: 98, Close: 104, Indicators: bullishSnapshot(104)},
	}

	events := Evaluate(7, bars)

	require.NotEmpty(t, events)
	assert.Contains(t, kinds(events), SignalLongOpen)
	for _, ev := range events {
		if ev.Kind == SignalLongOpen {
			assert.Equal(t, int64(7), ev.TickerID)
			assert.Equal(t, day(2), ev.Date)
			assert.Equal(t, 104.0, ev.Price)
		}
	}
}

func TestEvaluateLongOpenNeedsBreakout(t *testing.T) {
	// Close below previous high: every other condition holds but the
	// breakout condition fails.
	bars := []Bar{
		{Date: day(1), High: 110, Low: 90, Close: 95, Indicators: bullishSnapshot(95)},
		{Date: day(2), High: 108, Low: 98, Close: 104, Indicators: bullishSnapshot(104)},
	}

	events := Evaluate(1, bars)
	assert.NotContains(t, kinds(events), SignalLongOpen)
}

func TestEvaluateShortOpen(t *testing.T) {
	bars := []Bar{
		{Date: day(1), High: 100, Low: 90, Close: 95,
			Indicators: bearishSnapshot(95, 3.0)},
		{Date: day(2), High: 92, Low: 88, Close: 85,
			Indicators: bearishSnapshot(85, 2.0)},
	}
	// MACD must be falling bar-over-bar.
	require.Less(t, *bars[1].Indicators.MACD, *bars[0].Indicators.MACD)

	events := Evaluate(1, bars)
	assert.Contains(t, kinds(events), SignalShortOpen)
}

func TestEvaluateShortOpenNeedsFallingMACD(t *testing.T) {
	bars := []Bar{
		{Date: day(1), High: 100, Low: 90, Close: 95,
			Indicators: bearishSnapshot(95, 1.0)},
		{Date: day(2), High: 92, Low: 88, Close: 85,
			Indicators: bearishSnapshot(85, 2.0)},
	}
	// MACD rose from the prior bar, so no short entry.
	require.Greater(t, *bars[1].Indicators.MACD, *bars[0].Indicators.MACD)

	events := Evaluate(1, bars)
	assert.NotContains(t, kinds(events), SignalShortOpen)
}

func TestEvaluateCloseInsideCloud(t *testing.T) {
	ind := bullishSnapshot(100)
	ind.IchimokuSpanA = Float64(95)
	ind.IchimokuSpanB = Float64(105)

	bars := []Bar{{Date: day(1), High: 101, Low: 99, Close: 100, Indicators: ind}}

	events := Evaluate(1, bars)
	got := kinds(events)
	assert.Contains(t, got, SignalLongClose)
	assert.Contains(t, got, SignalShortClose)
}

func TestEvaluateCloudOrderDoesNotMatter(t *testing.T) {
	ind := IndicatorSnapshot{IchimokuSpanA: Float64(105), IchimokuSpanB: Float64(95)}
	bars := []Bar{{Date: day(1), Close: 100, Indicators: ind}}

	events := Evaluate(1, bars)
	assert.Contains(t, kinds(events), SignalLongClose)
}

func TestEvaluateWarmupBarsProduceNoSignals(t *testing.T) {
	// Bars before the indicator warmup window carry nil values and must
	// evaluate to no signal rather than erroring.
	bars := []Bar{
		{Date: day(1), High: 100, Low: 90, Close: 95},
		{Date: day(2), High: 105, Low: 98, Close: 104},
		{Date: day(3), High: 110, Low: 104, Close: 109},
	}

	events := Evaluate(1, bars)
	assert.Empty(t, events)
}

func TestEvaluatePartialSnapshotNeverTriggers(t *testing.T) {
	ind := bullishSnapshot(104)
	ind.Supertrend = nil

	bars := []Bar{
		{Date: day(1), High: 100, Low: 90, Close: 95, Indicators: bullishSnapshot(95)},
		{Date: day(2), High: 105, Low: 98, Close: 104, Indicators: ind},
	}

	events := Evaluate(1, bars)
	assert.NotContains(t, kinds(events), SignalLongOpen)
}

func TestEvaluateNonExclusiveKinds(t *testing.T) {
	// A bar can satisfy an OPEN for one side and a CLOSE for the other;
	// the evaluator does not arbitrate.
	bars := []Bar{
		{Date: day(1), High: 100, Low: 90, Close: 95, Indicators: bullishSnapshot(95)},
		{Date: day(2), High: 105, Low: 98, Close: 104, Indicators: bullishSnapshot(104)},
	}

	events := Evaluate(1, bars)
	got := kinds(events)
	assert.Contains(t, got, SignalLongOpen)
	assert.Contains(t, got, SignalShortClose)
}

func TestEvaluateStablePrefix(t *testing.T) {
	bars := []Bar{
		{Date: day(1), High: 100, Low: 90, Close: 95, Indicators: bullishSnapshot(95)},
		{Date: day(2), High: 105, Low: 98, Close: 104, Indicators: bullishSnapshot(104)},
		{Date: day(3), High: 110, Low: 104, Close: 109, Indicators: bullishSnapshot(109)},
	}

	short := Evaluate(1, bars[:2])
	full := Evaluate(1, bars)

	require.True(t, len(full) >= len(short))
	assert.Equal(t, short, full[:len(short)])

	again := Evaluate(1, bars)
	assert.Equal(t, full, again)
}
