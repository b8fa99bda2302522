package fmp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/stockpulse/stockpulse/internal/domain"
	"github.com/stockpulse/stockpulse/internal/metrics"
)

const dateLayout = "2006-01-02"

// Config holds provider client configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	Burst          int
	MaxRetries     int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	UserAgent      string
}

// Client fetches daily bars from the market-data provider with rate
// limiting, bounded retries, and circuit breaking. The documented free
// allowance is ~250 calls/day, so the default limiter is deliberately
// slow.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	userAgent   string
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	maxRetries  int
	backoffBase time.Duration
	backoffMax  time.Duration
}

// NewClient creates a provider client, filling config defaults.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://financialmodelingprep.com/api/v3"
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 10 * time.Second
	}
	if config.RateLimitRPS == 0 {
		config.RateLimitRPS = 0.5
	}
	if config.Burst == 0 {
		config.Burst = 1
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.BackoffBase == 0 {
		config.BackoffBase = time.Second
	}
	if config.BackoffMax == 0 {
		config.BackoffMax = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "stockpulse/1.0"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "fmp",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("provider circuit state changed")
		},
	})

	return &Client{
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		baseURL:     config.BaseURL,
		apiKey:      config.APIKey,
		userAgent:   config.UserAgent,
		limiter:     rate.NewLimiter(rate.Limit(config.RateLimitRPS), config.Burst),
		breaker:     breaker,
		maxRetries:  config.MaxRetries,
		backoffBase: config.BackoffBase,
		backoffMax:  config.BackoffMax,
	}
}

// FetchRange retrieves daily bars for symbol within [from, to], ascending
// by date. One HTTP call covers the whole range, so callers should
// coalesce missing dates into as few ranges as possible before calling.
func (c *Client) FetchRange(ctx context.Context, symbol string, from, to time.Time) ([]domain.Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchWithRetry(ctx, symbol, from, to)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ProviderRequests.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, fmt.Errorf("%s: %w", symbol, ErrUnavailable)
		}
		return nil, err
	}

	return result.([]domain.Bar), nil
}

func (c *Client) fetchWithRetry(ctx context.Context, symbol string, from, to time.Time) ([]domain.Bar, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.ProviderRetries.Inc()
			select {
			case <-time.After(c.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		bars, retryable, err := c.fetchOnce(ctx, symbol, from, to)
		if err == nil {
			metrics.ProviderRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()
			return bars, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		log.Warn().Err(err).
			Str("symbol", symbol).
			Int("attempt", attempt+1).
			Msg("provider request failed, retrying")
	}

	outcome := metrics.OutcomeError
	if errors.Is(lastErr, ErrRateLimited) {
		outcome = metrics.OutcomeRateLimited
	}
	metrics.ProviderRequests.WithLabelValues(outcome).Inc()
	return nil, lastErr
}

// fetchOnce performs a single HTTP round trip. The second return value
// reports whether the failure is worth retrying.
func (c *Client) fetchOnce(ctx context.Context, symbol string, from, to time.Time) ([]domain.Bar, bool, error) {
	endpoint := fmt.Sprintf("%s/historical-price-full/%s", c.baseURL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}

	q := req.URL.Query()
	q.Set("from", from.Format(dateLayout))
	q.Set("to", to.Format(dateLayout))
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("provider request for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// parsed below
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("%s: %w", symbol, ErrRateLimited)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("provider returned HTTP %d for %s", resp.StatusCode, symbol)
	default:
		return nil, false, fmt.Errorf("provider returned HTTP %d for %s", resp.StatusCode, symbol)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response body: %w", err)
	}

	var payload historicalResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false, fmt.Errorf("decode response for %s: %w", symbol, err)
	}

	bars := make([]domain.Bar, 0, len(payload.Historical))
	for _, p := range payload.Historical {
		date, err := time.ParseInLocation(dateLayout, p.Date, time.UTC)
		if err != nil {
			return nil, false, fmt.Errorf("bad bar date %q for %s: %w", p.Date, symbol, err)
		}
		bars = append(bars, domain.Bar{
			Date:   date,
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, false, nil
}

// backoff returns the exponential delay for attempt n with jitter.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.backoffBase << (attempt - 1)
	if d > c.backoffMax {
		d = c.backoffMax
	}
	if quarter := int64(d) / 4; quarter > 0 {
		d += time.Duration(rand.Int63n(quarter))
	}
	return d
}
