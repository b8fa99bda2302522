package fmp

import "errors"

var (
	// ErrNotFound means the provider has no data for the symbol.
	ErrNotFound = errors.New("symbol not found")
	// ErrRateLimited means the provider rejected the call with HTTP 429
	// and retries were exhausted.
	ErrRateLimited = errors.New("provider rate limit exceeded")
	// ErrUnavailable means the circuit breaker is open and the call was
	// not attempted.
	ErrUnavailable = errors.New("provider unavailable")
)
