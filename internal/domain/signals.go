package domain

// Evaluate derives signal events from an ascending, date-ordered bar
// series. It is pure: repeated calls over the same prefix produce the same
// events, and bars with missing indicator values (warmup window) never
// trigger. Multiple kinds may fire on the same bar; position consistency
// is the deduplicator's job, not the evaluator's.
func Evaluate(tickerID int64, bars []Bar) []SignalEvent {
	var events []SignalEvent

	emit := func(b Bar, kind SignalKind) {
		events = append(events, SignalEvent{
			TickerID: tickerID,
			Date:     b.Date,
			Kind:     kind,
			Price:    b.Close,
		})
	}

	for i := range bars {
		bar := bars[i]

		if i > 0 {
			prev := bars[i-1]
			if longOpen(bar, prev) {
				emit(bar, SignalLongOpen)
			}
			if shortOpen(bar, prev) {
				emit(bar, SignalShortOpen)
			}
		}
		if longClose(bar) {
			emit(bar, SignalLongClose)
		}
		if shortClose(bar) {
			emit(bar, SignalShortClose)
		}
	}

	return events
}

// longOpen requires every entry condition to hold:
// MACD above signal, close above Gann HiLo, RSI above its MA,
// close above Supertrend, close above the previous bar's high.
func longOpen(bar, prev Bar) bool {
	ind := bar.Indicators
	return ptrAbove(ind.MACD, ind.MACDSignal) &&
		closeAbove(bar, ind.GannHiLo) &&
		ptrAbove(ind.RSI, ind.RSIMA) &&
		closeAbove(bar, ind.Supertrend) &&
		bar.Close > prev.High
}

// shortOpen requires every entry condition to hold, including falling
// MACD momentum against the previous bar.
func shortOpen(bar, prev Bar) bool {
	ind := bar.Indicators
	return ptrBelow(ind.MACD, ind.MACDSignal) &&
		ptrBelow(ind.MACD, prev.Indicators.MACD) &&
		closeBelow(bar, ind.GannHiLo) &&
		ptrBelow(ind.RSI, ind.RSIMA) &&
		closeBelow(bar, ind.Supertrend) &&
		bar.Close < prev.Low
}

// longClose fires on any exit condition: close below Gann HiLo, MACD
// below signal, or the close sitting inside the Ichimoku cloud.
func longClose(bar Bar) bool {
	ind := bar.Indicators
	return closeBelow(bar, ind.GannHiLo) ||
		ptrBelow(ind.MACD, ind.MACDSignal) ||
		inCloud(bar)
}

func shortClose(bar Bar) bool {
	ind := bar.Indicators
	return closeAbove(bar, ind.GannHiLo) ||
		ptrAbove(ind.MACD, ind.MACDSignal) ||
		inCloud(bar)
}

// inCloud reports whether the close sits between the two Ichimoku span
// edges, in either order.
func inCloud(bar Bar) bool {
	a, b := bar.Indicators.IchimokuSpanA, bar.Indicators.IchimokuSpanB
	if a == nil || b == nil {
		return false
	}
	c := bar.Close
	return (c < *a && c > *b) || (c > *a && c < *b)
}

func ptrAbove(a, b *float64) bool {
	return a != nil && b != nil && *a > *b
}

func ptrBelow(a, b *float64) bool {
	return a != nil && b != nil && *a < *b
}

func closeAbove(bar Bar, v *float64) bool {
	return v != nil && bar.Close > *v
}

func closeBelow(bar Bar, v *float64) bool {
	return v != nil && bar.Close < *v
}
