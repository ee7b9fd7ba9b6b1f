package model

import "time"

// GitHubActivity is the recent activity of one GitHub user, as returned by a
// single contributions query.
type GitHubActivity struct {
	Issues   []Issue
	Commits  []GitHubCommit
	Comments []GitHubComment
}

// GitHubCommit is a commit on a pull request authored by the user.
type GitHubCommit struct {
	URL                 string
	Message             string
	CommittedAt         time.Time
	AuthoredByCommitter bool
	Repository          string
	PullRequest         Issue
}

// GitHubComment is an issue or pull request comment written by the user.
type GitHubComment struct {
	URL        string
	Body       string // Markdown.
	CreatedAt  time.Time
	Repository string
	Issue      Issue
}
