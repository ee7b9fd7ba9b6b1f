package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/contribtracker/internal/application"
	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunQueue is the subset of the ingestion worker the API drives.
type RunQueue interface {
	Enqueue(item application.QueueItem) error
	Schedules() []application.ScheduleInfo
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	db      Pinger
	stats   driven.StatisticsStore
	users   driven.UserStore
	queue   RunQueue
	metrics http.Handler
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. A nil
// metrics handler leaves /metrics unregistered.
func NewHandler(
	db Pinger,
	stats driven.StatisticsStore,
	users driven.UserStore,
	queue RunQueue,
	metrics http.Handler,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		db:      db,
		stats:   stats,
		users:   users,
		queue:   queue,
		metrics: metrics,
		logger:  logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/users", h.ListUsers)
	mux.HandleFunc("GET /api/v1/schedules", h.ListSchedules)
	mux.HandleFunc("POST /api/v1/users/{id}/sync", h.SyncUser)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health reports whether the service and its database are reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Error("database ping failed", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status: status,
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Stats returns contribution totals.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Statistics(r.Context())
	if err != nil {
		h.logger.Error("failed to load statistics", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toStatsResponse(stats))
}

// ListUsers returns all active tracked users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListSchedules returns the polling schedule of every known user and source.
func (h *Handler) ListSchedules(w http.ResponseWriter, _ *http.Request) {
	schedules := h.queue.Schedules()

	resp := make([]ScheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		resp = append(resp, toScheduleResponse(s))
	}

	writeJSON(w, http.StatusOK, resp)
}

// SyncUser queues an immediate ingestion run for one user. The source query
// parameter selects a single source; without it every source is queued.
func (h *Handler) SyncUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get user", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	sources := []string{application.SourceDrupal, application.SourceGitHub}
	if s := r.URL.Query().Get("source"); s != "" {
		sources = []string{s}
	}

	queued := make([]string, 0, len(sources))
	for _, source := range sources {
		err := h.queue.Enqueue(application.QueueItem{Source: source, UserID: id})
		switch {
		case err == nil:
			queued = append(queued, source)
		case errors.Is(err, application.ErrUnknownSource):
			// Unconfigured sources are skipped when none was named.
			if len(sources) == 1 {
				writeError(w, http.StatusBadRequest, "unknown source")
				return
			}
		case errors.Is(err, application.ErrQueueFull):
			writeError(w, http.StatusServiceUnavailable, "queue is full, retry later")
			return
		default:
			h.logger.Error("failed to queue sync", "user_id", id, "source", source, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	writeJSON(w, http.StatusAccepted, SyncResponse{UserID: id, Sources: queued})
}
