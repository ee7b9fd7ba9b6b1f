package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/contribtracker/internal/application"
	"github.com/ericfisherdev/contribtracker/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// StatsResponse is the JSON representation of contribution totals.
type StatsResponse struct {
	TotalContributions int `json:"total_contributions"`
	CodeContributions  int `json:"code_contributions"`
	TotalContributors  int `json:"total_contributors"`
}

// UserResponse is the JSON representation of a tracked user.
type UserResponse struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	DrupalUsername     string `json:"drupal_username,omitempty"`
	GitHubUsername     string `json:"github_username,omitempty"`
	LastContributionAt string `json:"last_contribution_at,omitempty"`
}

// ScheduleResponse is the JSON representation of a user's polling schedule.
type ScheduleResponse struct {
	Source     string `json:"source"`
	UserID     int64  `json:"user_id"`
	Tier       string `json:"tier"`
	NextPollAt string `json:"next_poll_at"`
	LastPolled string `json:"last_polled,omitempty"`
}

// SyncResponse lists the sources queued for a user.
type SyncResponse struct {
	UserID  int64    `json:"user_id"`
	Sources []string `json:"sources"`
}

func toStatsResponse(s model.Statistics) StatsResponse {
	return StatsResponse{
		TotalContributions: s.TotalContributions,
		CodeContributions:  s.CodeContributions,
		TotalContributors:  s.TotalContributors,
	}
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Name:               u.Name,
		DrupalUsername:     u.DrupalUsername,
		GitHubUsername:     u.GitHubUsername,
		LastContributionAt: formatOptional(u.LastContributionAt),
	}
}

func toScheduleResponse(s application.ScheduleInfo) ScheduleResponse {
	return ScheduleResponse{
		Source:     s.Source,
		UserID:     s.UserID,
		Tier:       s.Tier.String(),
		NextPollAt: s.NextPollAt.UTC().Format(time.RFC3339),
		LastPolled: formatOptional(s.LastPolled),
	}
}

// formatOptional formats t as RFC 3339, or returns "" for the zero time.
func formatOptional(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
