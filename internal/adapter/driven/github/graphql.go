package github

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shurcooL/githubv4"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

// Each connection is capped at 100 nodes, the GraphQL page size limit. Only
// the newest activity matters because ingestion stops at the first stored
// item.
type activityQuery struct {
	User *struct {
		Issues struct {
			Nodes []issueNode
		} `graphql:"issues(first: 100, orderBy: {field: CREATED_AT, direction: DESC})"`
		PullRequests struct {
			Nodes []struct {
				URL     string
				Title   string
				Commits struct {
					Nodes []struct {
						Commit struct {
							URL                 string
							Message             string
							CommittedDate       githubv4.DateTime
							AuthoredByCommitter bool
							Repository          struct {
								Name string
							}
						}
					}
				} `graphql:"commits(last: 100)"`
			}
		} `graphql:"pullRequests(first: 100, orderBy: {field: CREATED_AT, direction: DESC})"`
		IssueComments struct {
			Nodes []struct {
				URL       string
				Body      string
				CreatedAt githubv4.DateTime
				Issue     struct {
					URL        string
					Title      string
					Repository struct {
						Name string
					}
				}
			}
		} `graphql:"issueComments(last: 100)"`
	} `graphql:"user(login: $login)"`
}

type issueNode struct {
	URL   string
	Title string
}

// FetchActivity returns the user's newest issues, pull request commits and
// issue comments in a single GraphQL query.
func (c *Client) FetchActivity(ctx context.Context, login string) (*model.GitHubActivity, error) {
	start := time.Now()

	var q activityQuery
	err := c.v4.Query(ctx, &q, map[string]any{
		"login": githubv4.String(login),
	})
	if err != nil {
		return nil, &driven.RemoteFetchError{Op: "query activity of " + login, Err: err}
	}
	if q.User == nil {
		return nil, fmt.Errorf("%w: %q", driven.ErrUserNotFound, login)
	}

	activity := &model.GitHubActivity{}

	for _, n := range q.User.Issues.Nodes {
		activity.Issues = append(activity.Issues, model.Issue{Title: n.Title, URL: n.URL})
	}

	for _, pr := range q.User.PullRequests.Nodes {
		prIssue := model.Issue{Title: pr.Title, URL: pr.URL}
		for _, n := range pr.Commits.Nodes {
			activity.Commits = append(activity.Commits, model.GitHubCommit{
				URL:                 n.Commit.URL,
				Message:             n.Commit.Message,
				CommittedAt:         n.Commit.CommittedDate.Time,
				AuthoredByCommitter: n.Commit.AuthoredByCommitter,
				Repository:          n.Commit.Repository.Name,
				PullRequest:         prIssue,
			})
		}
	}

	for _, n := range q.User.IssueComments.Nodes {
		activity.Comments = append(activity.Comments, model.GitHubComment{
			URL:        n.URL,
			Body:       n.Body,
			CreatedAt:  n.CreatedAt.Time,
			Repository: n.Issue.Repository.Name,
			Issue:      model.Issue{Title: n.Issue.Title, URL: n.Issue.URL},
		})
	}

	slog.Debug("github activity fetched",
		"login", login,
		"issues", len(activity.Issues),
		"commits", len(activity.Commits),
		"comments", len(activity.Comments),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return activity, nil
}
