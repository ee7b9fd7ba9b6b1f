package application

import (
	"context"
	"iter"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
)

// Source names as used in configuration and queue items.
const (
	SourceDrupal = "drupal"
	SourceGitHub = "github"
)

// ContributionSource is a platform contributions are ingested from. Sequences
// yield items newest first; the first error ends a sequence.
type ContributionSource interface {
	Name() string
	// Users returns the active users with an account on this platform.
	Users(ctx context.Context) ([]model.User, error)
	// ValidateUser returns nil when the user's platform account exists,
	// ErrDataIncomplete when no username is set and driven.ErrUserNotFound
	// when the username does not resolve.
	ValidateUser(ctx context.Context, user model.User) error
	UserIssues(ctx context.Context, user model.User) iter.Seq2[model.Issue, error]
	UserCodeContributions(ctx context.Context, user model.User) iter.Seq2[model.CodeContribution, error]
	NotificationMessage(contribution model.CodeContribution, user model.User) string
}

// usersWith filters active users down to those with a non-empty username as
// selected by username.
func usersWith(users []model.User, username func(model.User) string) []model.User {
	var filtered []model.User
	for _, u := range users {
		if username(u) != "" {
			filtered = append(filtered, u)
		}
	}
	return filtered
}
