package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

// notificationWindow is how recent a contribution must be to be announced.
// Older ones come from backfills and stay quiet.
const notificationWindow = time.Hour

// RunResult counts what one user run stored.
type RunResult struct {
	IssuesStored        int
	ContributionsStored int
	Notifications       int
}

// ContributionManager drives the ingestion of one user's contributions from
// one source.
type ContributionManager struct {
	storage  *ContributionStorage
	notifier driven.Notifier
	metrics  driven.MetricsRecorder
	now      func() time.Time
}

// NewContributionManager creates a ContributionManager. notifier and metrics
// may be nil.
func NewContributionManager(storage *ContributionStorage, notifier driven.Notifier, metrics driven.MetricsRecorder) *ContributionManager {
	return &ContributionManager{
		storage:  storage,
		notifier: notifier,
		metrics:  metrics,
		now:      time.Now,
	}
}

// WithClock replaces the manager's time source.
func (m *ContributionManager) WithClock(now func() time.Time) *ContributionManager {
	m.now = now
	return m
}

// ProcessUser ingests new issues and contributions for user from source.
//
// Both sequences are newest first, and each loop ends at the first item that
// is already stored. Items with incomplete data are skipped. Any other error
// aborts the run; whatever was stored before it stays stored.
func (m *ContributionManager) ProcessUser(ctx context.Context, source ContributionSource, user model.User) (RunResult, error) {
	start := m.now()
	result, err := m.processUser(ctx, source, user)
	elapsed := m.now().Sub(start)

	if m.metrics != nil {
		m.metrics.RunFinished(source.Name(), runOutcome(err), elapsed)
	}

	if err != nil {
		return result, fmt.Errorf("process %s user %d: %w", source.Name(), user.ID, err)
	}

	slog.Info("user processed",
		"source", source.Name(),
		"user", user.ID,
		"issues", result.IssuesStored,
		"contributions", result.ContributionsStored,
		"notifications", result.Notifications,
		"duration", elapsed.Round(time.Millisecond),
	)
	return result, nil
}

func (m *ContributionManager) processUser(ctx context.Context, source ContributionSource, user model.User) (RunResult, error) {
	var result RunResult

	if err := source.ValidateUser(ctx, user); err != nil {
		return result, err
	}

	for issue, err := range source.UserIssues(ctx, user) {
		if err != nil {
			return result, err
		}

		existing, err := m.storage.IssueRecord(ctx, issue.URL)
		if err != nil {
			return result, err
		}
		if existing != nil {
			slog.Debug("skipping issue and all after it", "source", source.Name(), "issue", issue.URL)
			break
		}

		if _, err := m.storage.GetOrCreateIssue(ctx, issue, user); err != nil {
			return result, err
		}
		result.IssuesStored++
		if m.metrics != nil {
			m.metrics.IssueStored(source.Name())
		}
	}

	for contribution, err := range source.UserCodeContributions(ctx, user) {
		if err != nil {
			return result, err
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		existing, err := m.storage.ContributionRecord(ctx, contribution.URL)
		if err != nil {
			return result, err
		}
		if existing != nil {
			slog.Debug("skipping contribution and all after it", "source", source.Name(), "contribution", contribution.URL)
			break
		}

		err = m.store(ctx, contribution, user)
		if errors.Is(err, ErrDataIncomplete) {
			slog.Warn("skipping contribution", "source", source.Name(), "contribution", contribution.URL, "reason", err)
			continue
		}
		if err != nil {
			return result, err
		}
		result.ContributionsStored++
		if m.metrics != nil {
			m.metrics.ContributionStored(source.Name())
		}

		if m.notify(ctx, source, contribution, user) {
			result.Notifications++
		}
	}

	return result, nil
}

func (m *ContributionManager) store(ctx context.Context, contribution model.CodeContribution, user model.User) error {
	if contribution.Issue == nil || contribution.Issue.URL == "" {
		return fmt.Errorf("%w: no issue", ErrDataIncomplete)
	}
	if contribution.Project == "" {
		return fmt.Errorf("%w: no project", ErrDataIncomplete)
	}

	issue, err := m.storage.GetOrCreateIssue(ctx, *contribution.Issue, user)
	if err != nil {
		return err
	}
	project, err := m.storage.GetOrCreateProjectTerm(ctx, contribution.Project)
	if err != nil {
		return err
	}
	saved, err := m.storage.SaveContribution(ctx, contribution, issue, project, user)
	if err != nil {
		return err
	}

	slog.Info("contribution stored", "id", saved.ID, "link", saved.Link, "user", user.ID, "date", saved.Date)
	return nil
}

// notify announces a stored contribution when it is recent. Failures are
// logged and do not affect the run.
func (m *ContributionManager) notify(ctx context.Context, source ContributionSource, contribution model.CodeContribution, user model.User) bool {
	if m.notifier == nil {
		return false
	}
	if contribution.Date.Before(m.now().Add(-notificationWindow)) {
		return false
	}

	err := m.notifier.Notify(ctx, source.NotificationMessage(contribution, user))
	if m.metrics != nil {
		m.metrics.NotificationSent(source.Name(), err)
	}
	if err != nil {
		slog.Warn("notification failed", "source", source.Name(), "contribution", contribution.URL, "error", err)
		return false
	}
	return true
}

func runOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, driven.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrDataIncomplete):
		return "incomplete"
	default:
		return "error"
	}
}
