package fmp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		RateLimitRPS: 1000,
		Burst:        1000,
		MaxRetries:   2,
		BackoffBase:  time.Millisecond,
		BackoffMax:   5 * time.Millisecond,
	})
}

func TestFetchRangeParsesAndSortsAscending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-11-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2025-11-30", r.URL.Query().Get("to"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		// Provider returns newest-first.
		w.Write([]byte(`{
			"symbol": "AAPL",
			"historical": [
				{"date": "2025-11-21", "open": 2, "high": 3, "low": 1, "close": 2.5, "volume": 200},
				{"date": "2025-11-20", "open": 1, "high": 2, "low": 0.5, "close": 1.5, "volume": 100}
			]
		}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	bars, err := client.FetchRange(context.Background(), "AAPL",
		time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC), bars[1].Date)
	assert.Equal(t, 1.5, bars[0].Close)
	assert.Equal(t, int64(200), bars[1].Volume)
}

func TestFetchRangeNotFoundIsNotRetried(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	_, err := client.FetchRange(context.Background(), "NOPE", day(1), day(2))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestFetchRangeRetriesServerErrors(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"symbol": "AAPL", "historical": [{"date": "2025-11-20", "open": 1, "high": 2, "low": 0.5, "close": 1.5, "volume": 100}]}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	bars, err := client.FetchRange(context.Background(), "AAPL", day(1), day(30))

	require.NoError(t, err)
	assert.Len(t, bars, 1)
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}

func TestFetchRangeRateLimitedAfterRetries(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	_, err := client.FetchRange(context.Background(), "AAPL", day(1), day(30))

	assert.ErrorIs(t, err, ErrRateLimited)
	// Initial attempt plus MaxRetries.
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}

func TestFetchRangeBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	ctx := context.Background()

	// Each FetchRange is one breaker execution; five consecutive
	// failures trip it.
	for i := 0; i < 5; i++ {
		_, err := client.FetchRange(ctx, "AAPL", day(1), day(30))
		require.Error(t, err)
	}

	_, err := client.FetchRange(ctx, "AAPL", day(1), day(30))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func day(d int) time.Time {
	return time.Date(2025, 11, d, 0, 0, 0, 0, time.UTC)
}
