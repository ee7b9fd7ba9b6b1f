package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/ericfisherdev/contribtracker/internal/adapter/driving/http"
	"github.com/ericfisherdev/contribtracker/internal/application"
	"github.com/ericfisherdev/contribtracker/internal/domain/model"
)

// --- Mock implementations ---

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockStatsStore struct {
	stats model.Statistics
	err   error
}

func (m *mockStatsStore) Statistics(_ context.Context) (model.Statistics, error) {
	return m.stats, m.err
}

type mockUserStore struct {
	users []model.User
	err   error
}

func (m *mockUserStore) Upsert(_ context.Context, u model.User) (model.User, error) { return u, nil }
func (m *mockUserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}
func (m *mockUserStore) ListActive(_ context.Context) ([]model.User, error) {
	return m.users, m.err
}

// mockQueue accepts drupal and github items unless an error is forced.
type mockQueue struct {
	queued    []application.QueueItem
	err       error
	schedules []application.ScheduleInfo
}

func (m *mockQueue) Enqueue(item application.QueueItem) error {
	if m.err != nil {
		return m.err
	}
	if item.Source != application.SourceDrupal && item.Source != application.SourceGitHub {
		return fmt.Errorf("%w: %q", application.ErrUnknownSource, item.Source)
	}
	m.queued = append(m.queued, item)
	return nil
}

func (m *mockQueue) Schedules() []application.ScheduleInfo { return m.schedules }

// --- Test helpers ---

var testTime = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func testUsers() *mockUserStore {
	return &mockUserStore{users: []model.User{
		{ID: 1, Name: "Jane Doe", DrupalUsername: "jane", GitHubUsername: "janedoe", Active: true, LastContributionAt: testTime},
		{ID: 2, Name: "Sam Roe", DrupalUsername: "sam", Active: true},
	}}
}

func setupMux(stats *mockStatsStore, users *mockUserStore, queue *mockQueue, metrics http.Handler) http.Handler {
	h := httphandler.NewHandler(&mockPinger{}, stats, users, queue, metrics, slog.Default())
	return httphandler.NewServeMux(h, slog.Default())
}

func serve(t *testing.T, mux http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	err := json.NewDecoder(rec.Body).Decode(v)
	require.NoError(t, err)
}

// --- Tests ---

func TestHealth(t *testing.T) {
	mux := setupMux(&mockStatsStore{}, testUsers(), &mockQueue{}, nil)

	rec := serve(t, mux, http.MethodGet, "/api/v1/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body httphandler.HealthResponse
	decodeJSON(t, rec, &body)
	assert.Equal(t, "ok", body.Status)
	_, err := time.Parse(time.RFC3339, body.Time)
	assert.NoError(t, err)
}

func TestHealth_DatabaseDown(t *testing.T) {
	h := httphandler.NewHandler(&mockPinger{err: errors.New("disk I/O error")}, &mockStatsStore{}, testUsers(), &mockQueue{}, nil, slog.Default())
	mux := httphandler.NewServeMux(h, slog.Default())

	rec := serve(t, mux, http.MethodGet, "/api/v1/health")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body httphandler.HealthResponse
	decodeJSON(t, rec, &body)
	assert.Equal(t, "unavailable", body.Status)
}

func TestStats(t *testing.T) {
	tests := []struct {
		name       string
		store      *mockStatsStore
		wantStatus int
		want       httphandler.StatsResponse
	}{
		{
			name:       "totals",
			store:      &mockStatsStore{stats: model.Statistics{TotalContributions: 12, CodeContributions: 5, TotalContributors: 3}},
			wantStatus: http.StatusOK,
			want:       httphandler.StatsResponse{TotalContributions: 12, CodeContributions: 5, TotalContributors: 3},
		},
		{
			name:       "empty store",
			store:      &mockStatsStore{},
			wantStatus: http.StatusOK,
		},
		{
			name:       "store error",
			store:      &mockStatsStore{err: errors.New("db locked")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := setupMux(tt.store, testUsers(), &mockQueue{}, nil)

			rec := serve(t, mux, http.MethodGet, "/api/v1/stats")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got httphandler.StatsResponse
			decodeJSON(t, rec, &got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListUsers(t *testing.T) {
	mux := setupMux(&mockStatsStore{}, testUsers(), &mockQueue{}, nil)

	rec := serve(t, mux, http.MethodGet, "/api/v1/users")

	assert.Equal(t, http.StatusOK, rec.Code)
	var got []httphandler.UserResponse
	decodeJSON(t, rec, &got)
	require.Len(t, got, 2)
	assert.Equal(t, "jane", got[0].DrupalUsername)
	assert.Equal(t, "2026-02-10T12:00:00Z", got[0].LastContributionAt)
	assert.Empty(t, got[1].GitHubUsername)
	assert.Empty(t, got[1].LastContributionAt)
}

func TestListUsers_StoreError(t *testing.T) {
	mux := setupMux(&mockStatsStore{}, &mockUserStore{err: errors.New("boom")}, &mockQueue{}, nil)

	rec := serve(t, mux, http.MethodGet, "/api/v1/users")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListSchedules(t *testing.T) {
	queue := &mockQueue{schedules: []application.ScheduleInfo{
		{Source: application.SourceDrupal, UserID: 1, Tier: application.TierHot, NextPollAt: testTime},
	}}
	mux := setupMux(&mockStatsStore{}, testUsers(), queue, nil)

	rec := serve(t, mux, http.MethodGet, "/api/v1/schedules")

	assert.Equal(t, http.StatusOK, rec.Code)
	var got []httphandler.ScheduleResponse
	decodeJSON(t, rec, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "hot", got[0].Tier)
	assert.Equal(t, "2026-02-10T12:00:00Z", got[0].NextPollAt)
	assert.Empty(t, got[0].LastPolled)
}

func TestSyncUser(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		queue       *mockQueue
		wantStatus  int
		wantSources []string
	}{
		{
			name:        "all sources",
			target:      "/api/v1/users/1/sync",
			queue:       &mockQueue{},
			wantStatus:  http.StatusAccepted,
			wantSources: []string{application.SourceDrupal, application.SourceGitHub},
		},
		{
			name:        "single source",
			target:      "/api/v1/users/1/sync?source=github",
			queue:       &mockQueue{},
			wantStatus:  http.StatusAccepted,
			wantSources: []string{application.SourceGitHub},
		},
		{
			name:       "unknown source",
			target:     "/api/v1/users/1/sync?source=gitlab",
			queue:      &mockQueue{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid id",
			target:     "/api/v1/users/abc/sync",
			queue:      &mockQueue{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown user",
			target:     "/api/v1/users/99/sync",
			queue:      &mockQueue{},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "queue full",
			target:     "/api/v1/users/1/sync",
			queue:      &mockQueue{err: application.ErrQueueFull},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := setupMux(&mockStatsStore{}, testUsers(), tt.queue, nil)

			rec := serve(t, mux, http.MethodPost, tt.target)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusAccepted {
				return
			}
			var got httphandler.SyncResponse
			decodeJSON(t, rec, &got)
			assert.Equal(t, int64(1), got.UserID)
			assert.Equal(t, tt.wantSources, got.Sources)
		})
	}
}

func TestSyncUser_MethodNotAllowed(t *testing.T) {
	mux := setupMux(&mockStatsStore{}, testUsers(), &mockQueue{}, nil)

	rec := serve(t, mux, http.MethodGet, "/api/v1/users/1/sync")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("contribtracker_up 1\n"))
	})

	withMetrics := setupMux(&mockStatsStore{}, testUsers(), &mockQueue{}, metrics)
	rec := serve(t, withMetrics, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "contribtracker_up 1")

	without := setupMux(&mockStatsStore{}, testUsers(), &mockQueue{}, nil)
	rec = serve(t, without, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := httphandler.NewHandler(&mockPinger{}, &mockStatsStore{}, nil, &mockQueue{}, nil, slog.Default())
	mux := httphandler.NewServeMux(h, slog.Default())

	// A nil user store panics inside the handler.
	rec := serve(t, mux, http.MethodGet, "/api/v1/users")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	decodeJSON(t, rec, &body)
	assert.Equal(t, "internal server error", body["error"])
}
