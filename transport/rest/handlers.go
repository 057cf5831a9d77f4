package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taoreta-ed/redes2-25-2/internal/entity"
	"github.com/taoreta-ed/redes2-25-2/internal/repository"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)
	StatusHandler(w http.ResponseWriter, _ *http.Request)

	RecentResults(w http.ResponseWriter, r *http.Request)
	ResultByID(w http.ResponseWriter, r *http.Request)
	Leaderboard(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
}

type resultStore interface {
	GetByID(ctx context.Context, id string) (*entity.GameRecord, error)
	Recent(ctx context.Context, limit int) ([]*entity.GameRecord, error)
	Fastest(ctx context.Context, difficulty entity.Difficulty, limit int) ([]*entity.GameRecord, error)
	Stats(ctx context.Context, difficulty entity.Difficulty) (repository.Stats, error)
}

type statusSource interface {
	Status() string
}

type handlers struct {
	logger  *slog.Logger
	results resultStore
	status  statusSource
}

// NewHandlers - results may be nil when no Redis is configured; the result
// endpoints then answer 503.
func NewHandlers(logger *slog.Logger, results resultStore, status statusSource) Handlers {
	return &handlers{
		logger:  logger,
		results: results,
		status:  status,
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *handlers) StatusHandler(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, map[string]string{"status": that.status.Status()})
}

func (that *handlers) RecentResults(w http.ResponseWriter, r *http.Request) {
	if !that.available(w) {
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	records, err := that.results.Recent(r.Context(), limit)
	if err != nil {
		that.internalError(w, "failed to list results", err)
		return
	}

	that.writeJSON(w, http.StatusOK, records)
}

func (that *handlers) ResultByID(w http.ResponseWriter, r *http.Request) {
	if !that.available(w) {
		return
	}

	record, err := that.results.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrResultNotFound) {
		http.Error(w, "Result not found", http.StatusNotFound)
		return
	}

	if err != nil {
		that.internalError(w, "failed to get result", err)
		return
	}

	that.writeJSON(w, http.StatusOK, record)
}

func (that *handlers) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if !that.available(w) {
		return
	}

	difficulty, ok := parseDifficulty(w, r)
	if !ok {
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	records, err := that.results.Fastest(r.Context(), difficulty, limit)
	if err != nil {
		that.internalError(w, "failed to read leaderboard", err)
		return
	}

	that.writeJSON(w, http.StatusOK, records)
}

func (that *handlers) Stats(w http.ResponseWriter, r *http.Request) {
	if !that.available(w) {
		return
	}

	difficulty, ok := parseDifficulty(w, r)
	if !ok {
		return
	}

	stats, err := that.results.Stats(r.Context(), difficulty)
	if err != nil {
		that.internalError(w, "failed to read stats", err)
		return
	}

	that.writeJSON(w, http.StatusOK, stats)
}

func (that *handlers) available(w http.ResponseWriter) bool {
	if that.results == nil {
		http.Error(w, "Results storage is disabled", http.StatusServiceUnavailable)
		return false
	}

	return true
}

func (that *handlers) internalError(w http.ResponseWriter, msg string, err error) {
	that.logger.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxLimit {
		http.Error(w, "limit must be between 1 and 100", http.StatusBadRequest)
		return 0, false
	}

	return limit, true
}

func parseDifficulty(w http.ResponseWriter, r *http.Request) (entity.Difficulty, bool) {
	difficulty, err := entity.ParseDifficulty(chi.URLParam(r, "difficulty"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}

	return difficulty, true
}
