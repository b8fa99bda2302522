package fmp

// historicalResponse is the wire shape of the daily-bars endpoint. The
// provider returns bars newest-first; the client re-sorts ascending.
type historicalResponse struct {
	Symbol     string       `json:"symbol"`
	Historical []barPayload `json:"historical"`
}

type barPayload struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}
