package driven

import (
	"context"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
)

// ContributionStore defines the driven port for persisting issues, code
// contributions and taxonomy terms. Lookups return (nil, nil) when nothing
// matches. The store does not enforce link uniqueness; callers look up
// before they create.
type ContributionStore interface {
	GetIssueByLink(ctx context.Context, link string) (*model.IssueRecord, error)
	CreateIssue(ctx context.Context, issue model.IssueRecord) (model.IssueRecord, error)

	GetContributionByLink(ctx context.Context, link string) (*model.ContributionRecord, error)
	CreateContribution(ctx context.Context, contribution model.ContributionRecord) (model.ContributionRecord, error)

	FindTerm(ctx context.Context, name, vocabulary string) (*model.Term, error)
	CreateTerm(ctx context.Context, name, vocabulary string) (model.Term, error)
}

// StatisticsStore defines the driven port for contribution statistics.
type StatisticsStore interface {
	Statistics(ctx context.Context) (model.Statistics, error)
}
