package driven

import "time"

// MetricsRecorder defines the driven port for ingestion metrics.
type MetricsRecorder interface {
	IssueStored(source string)
	ContributionStored(source string)
	NotificationSent(source string, err error)
	// RunFinished records one user run. Outcome is one of "ok",
	// "user_not_found", "incomplete" or "error".
	RunFinished(source, outcome string, elapsed time.Duration)
}
