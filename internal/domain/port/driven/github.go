package driven

import (
	"context"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
)

// GitHubAPI defines the driven port for reading a user's GitHub activity.
type GitHubAPI interface {
	// UserExists reports whether the login belongs to a GitHub account.
	UserExists(ctx context.Context, login string) (bool, error)
	// FetchActivity returns the user's recent issues, pull request commits
	// and issue comments.
	FetchActivity(ctx context.Context, login string) (*model.GitHubActivity, error)
}
