package domain

import "time"

// Side identifies the direction of a position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// SignalKind identifies one of the four signal event types emitted by the
// evaluator and persisted on alerts.
type SignalKind string

const (
	SignalLongOpen   SignalKind = "LONG_OPEN"
	SignalLongClose  SignalKind = "LONG_CLOSE"
	SignalShortOpen  SignalKind = "SHORT_OPEN"
	SignalShortClose SignalKind = "SHORT_CLOSE"
)

// Side returns the position direction the signal belongs to.
func (k SignalKind) Side() Side {
	switch k {
	case SignalLongOpen, SignalLongClose:
		return SideLong
	default:
		return SideShort
	}
}

// IsOpen reports whether the signal opens a position.
func (k SignalKind) IsOpen() bool {
	return k == SignalLongOpen || k == SignalShortOpen
}

// OpenKind returns the OPEN signal kind for a side.
func OpenKind(s Side) SignalKind {
	if s == SideLong {
		return SignalLongOpen
	}
	return SignalShortOpen
}

// CloseKind returns the CLOSE signal kind for a side.
func CloseKind(s Side) SignalKind {
	if s == SideLong {
		return SignalLongClose
	}
	return SignalShortClose
}

// IndicatorSnapshot carries the per-bar indicator values the evaluator
// consumes. Fields are pointers: a nil value means the bar falls inside
// the indicator's warmup window and every rule referencing it is false.
type IndicatorSnapshot struct {
	MACD          *float64 `json:"macd,omitempty"`
	MACDSignal    *float64 `json:"macd_signal,omitempty"`
	GannHiLo      *float64 `json:"gann_hilo,omitempty"`
	RSI           *float64 `json:"rsi,omitempty"`
	RSIMA         *float64 `json:"rsi_ma,omitempty"`
	Supertrend    *float64 `json:"supertrend,omitempty"`
	IchimokuSpanA *float64 `json:"ichimoku_span_a,omitempty"`
	IchimokuSpanB *float64 `json:"ichimoku_span_b,omitempty"`
}

// Bar is one trading day's OHLCV for a ticker plus its indicator snapshot.
// Bars are keyed by (ticker, date) and immutable once the date is strictly
// before the cache's "today".
type Bar struct {
	Date       time.Time         `json:"date" db:"date"`
	Open       float64           `json:"open" db:"open"`
	High       float64           `json:"high" db:"high"`
	Low        float64           `json:"low" db:"low"`
	Close      float64           `json:"close" db:"close"`
	Volume     int64             `json:"volume" db:"volume"`
	Indicators IndicatorSnapshot `json:"indicators,omitempty" db:"-"`
}

// SignalEvent is a dated condition trigger derived from the bar series.
// Events are recomputed on every evaluation pass, never stored.
type SignalEvent struct {
	TickerID int64      `json:"ticker_id"`
	Date     time.Time  `json:"date"`
	Kind     SignalKind `json:"kind"`
	Price    float64    `json:"price"`
}

// Alert is a persisted, deduplicated record of the current position's open
// or close event. At most one OPEN and one CLOSE row exist per ticker.
type Alert struct {
	ID           int64      `json:"id" db:"id"`
	TickerID     int64      `json:"ticker_id" db:"ticker_id"`
	TickerSymbol string     `json:"ticker_symbol" db:"ticker_symbol"`
	Kind         SignalKind `json:"alert_type" db:"alert_type"`
	SignalDate   time.Time  `json:"signal_date" db:"signal_date"`
	Price        float64    `json:"price" db:"price"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Ticker is a watchlist entry. Removing a ticker cascades to its cached
// bars and alerts.
type Ticker struct {
	ID      int64     `json:"id" db:"id"`
	Symbol  string    `json:"symbol" db:"symbol"`
	AddedAt time.Time `json:"added_date" db:"added_date"`
	Active  bool      `json:"is_active" db:"is_active"`
}

// Float64 returns a pointer to v, for building indicator snapshots.
func Float64(v float64) *float64 { return &v }
