package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/stockpulse/stockpulse/internal/application"
	"github.com/stockpulse/stockpulse/internal/domain"
	"github.com/stockpulse/stockpulse/internal/persistence"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	batchTimeout    = 30 * time.Minute
)

// BatchRefresher runs a full-watchlist refresh.
type BatchRefresher interface {
	RefreshAll(ctx context.Context, progress application.Progress) (application.Result, error)
	TriggerRefresh(ticker domain.Ticker)
}

// CacheEvictor drops hot-tier state for a removed ticker.
type CacheEvictor interface {
	Forget(ctx context.Context, tickerID int64)
}

// Handlers backs the HTTP surface.
type Handlers struct {
	alerts    persistence.AlertRepo
	tickers   persistence.TickerRepo
	refresher BatchRefresher
	evictor   CacheEvictor

	refreshing int32 // 1 while a batch refresh is running
}

// NewHandlers wires the handler dependencies. evictor may be nil when no
// hot cache is configured.
func NewHandlers(alerts persistence.AlertRepo, tickers persistence.TickerRepo,
	refresher BatchRefresher, evictor CacheEvictor) *Handlers {
	return &Handlers{alerts: alerts, tickers: tickers, refresher: refresher, evictor: evictor}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Alerts serves the paged alert list:
// GET /alerts?page=1&page_size=20&sort=desc
func (h *Handlers) Alerts(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(r, "page_size", defaultPageSize)
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	dir := persistence.SortDesc
	if strings.EqualFold(r.URL.Query().Get("sort"), "asc") {
		dir = persistence.SortAsc
	}

	alerts, total, err := h.alerts.GetPage(r.Context(), (page-1)*pageSize, pageSize, dir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load alerts")
		log.Error().Err(err).Msg("alerts page query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts":      emptyIfNil(alerts),
		"total_count": total,
		"page":        page,
		"page_size":   pageSize,
	})
}

// TickerAlerts serves one ticker's current alert set.
func (h *Handlers) TickerAlerts(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	ticker, err := h.tickers.GetBySymbol(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, persistence.ErrTickerNotFound) {
			writeError(w, http.StatusNotFound, "unknown ticker")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load ticker")
		return
	}

	alerts, err := h.alerts.ListByTicker(r.Context(), ticker.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load alerts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker.Symbol,
		"alerts": emptyIfNil(alerts),
	})
}

func (h *Handlers) ListTickers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(r, "page_size", defaultPageSize)
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	tickers, total, err := h.tickers.List(r.Context(), (page-1)*pageSize, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tickers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tickers":     tickers,
		"total_count": total,
	})
}

// AddTicker registers a symbol and kicks off its first refresh in the
// background; the response does not wait for it.
func (h *Handlers) AddTicker(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Symbol) == "" {
		writeError(w, http.StatusBadRequest, "body must be {\"symbol\": \"...\"}")
		return
	}

	ticker, err := h.tickers.Add(r.Context(), body.Symbol)
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicateTicker) {
			writeError(w, http.StatusConflict, "ticker already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to add ticker")
		return
	}

	h.refresher.TriggerRefresh(ticker)
	writeJSON(w, http.StatusCreated, ticker)
}

func (h *Handlers) RemoveTicker(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	ticker, err := h.tickers.GetBySymbol(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, persistence.ErrTickerNotFound) {
			writeError(w, http.StatusNotFound, "unknown ticker")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load ticker")
		return
	}

	if err := h.tickers.Remove(r.Context(), symbol); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove ticker")
		return
	}
	if h.evictor != nil {
		h.evictor.Forget(r.Context(), ticker.ID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh starts a batch refresh in the background and returns a job ID.
// Only one batch runs at a time.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if !atomic.CompareAndSwapInt32(&h.refreshing, 0, 1) {
		writeError(w, http.StatusConflict, "a refresh is already running")
		return
	}

	jobID := uuid.NewString()
	go func() {
		defer atomic.StoreInt32(&h.refreshing, 0)
		ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
		defer cancel()

		result, err := h.refresher.RefreshAll(ctx, nil)
		if err != nil {
			log.Error().Err(err).Str("job_id", jobID).Msg("batch refresh aborted")
			return
		}
		log.Info().
			Str("job_id", jobID).
			Int("succeeded", result.Succeeded).
			Int("failed", len(result.Failed)).
			Msg("batch refresh done")
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func emptyIfNil(alerts []domain.Alert) []domain.Alert {
	if alerts == nil {
		return []domain.Alert{}
	}
	return alerts
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
