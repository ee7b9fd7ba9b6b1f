package application

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

const githubSiteURL = "https://github.com"

// activityCacheTTL bounds how long one activity query is reused. It spans a
// single user run, which reads issues and contributions separately.
const activityCacheTTL = 5 * time.Minute

// GitHubSource ingests issues, pull request commits and issue comments from
// GitHub.
type GitHubSource struct {
	api       driven.GitHubAPI
	users     driven.UserStore
	cache     driven.Cache
	namespace string
}

var _ ContributionSource = (*GitHubSource)(nil)

// NewGitHubSource creates a GitHubSource. A nil cache disables reuse of the
// activity query between the issue and contribution passes.
func NewGitHubSource(api driven.GitHubAPI, users driven.UserStore, cache driven.Cache, namespace string) *GitHubSource {
	if namespace == "" {
		namespace = DefaultCacheNamespace
	}
	return &GitHubSource{
		api:       api,
		users:     users,
		cache:     cache,
		namespace: namespace,
	}
}

func (s *GitHubSource) Name() string { return SourceGitHub }

func (s *GitHubSource) Users(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return usersWith(users, func(u model.User) string { return u.GitHubUsername }), nil
}

func (s *GitHubSource) ValidateUser(ctx context.Context, user model.User) error {
	if user.GitHubUsername == "" {
		return fmt.Errorf("%w: user %d has no GitHub username", ErrDataIncomplete, user.ID)
	}
	exists, err := s.api.UserExists(ctx, user.GitHubUsername)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %q", driven.ErrUserNotFound, user.GitHubUsername)
	}
	return nil
}

func (s *GitHubSource) activity(ctx context.Context, login string) (*model.GitHubActivity, error) {
	key := s.namespace + ":github:" + strings.ToLower(login)
	return fetchCached(ctx, s.cache, key, activityCacheTTL,
		func(ctx context.Context) (*model.GitHubActivity, error) {
			return s.api.FetchActivity(ctx, login)
		})
}

// UserIssues yields the issues the user opened, newest first.
func (s *GitHubSource) UserIssues(ctx context.Context, user model.User) iter.Seq2[model.Issue, error] {
	return func(yield func(model.Issue, error) bool) {
		activity, err := s.activity(ctx, user.GitHubUsername)
		if err != nil {
			yield(model.Issue{}, err)
			return
		}
		for _, issue := range activity.Issues {
			if !yield(issue, nil) {
				return
			}
		}
	}
}

// UserCodeContributions yields the user's own pull request commits and their
// issue comments merged newest first. Commits authored by someone else are
// left out.
func (s *GitHubSource) UserCodeContributions(ctx context.Context, user model.User) iter.Seq2[model.CodeContribution, error] {
	return func(yield func(model.CodeContribution, error) bool) {
		activity, err := s.activity(ctx, user.GitHubUsername)
		if err != nil {
			yield(model.CodeContribution{}, err)
			return
		}
		for _, c := range githubContributions(user.GitHubUsername, activity) {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func githubContributions(login string, activity *model.GitHubActivity) []model.CodeContribution {
	accountURL := githubSiteURL + "/" + login
	seen := make(map[string]bool)
	var out []model.CodeContribution

	for _, commit := range activity.Commits {
		if !commit.AuthoredByCommitter || seen[commit.URL] {
			continue
		}
		seen[commit.URL] = true
		pr := commit.PullRequest
		out = append(out, model.CodeContribution{
			Title:       firstLine(commit.Message),
			URL:         commit.URL,
			Date:        commit.CommittedAt,
			Description: RenderMarkdown(commit.Message),
			Project:     commit.Repository,
			ProjectURL:  repositoryURL(pr.URL),
			AccountURL:  accountURL,
			Issue:       &pr,
			PatchCount:  1,
		})
	}

	for _, comment := range activity.Comments {
		if seen[comment.URL] {
			continue
		}
		seen[comment.URL] = true
		issue := comment.Issue
		out = append(out, model.CodeContribution{
			Title:       "Comment on " + issue.Title,
			URL:         comment.URL,
			Date:        comment.CreatedAt,
			Description: RenderMarkdown(comment.Body),
			Project:     comment.Repository,
			ProjectURL:  repositoryURL(issue.URL),
			AccountURL:  accountURL,
			Issue:       &issue,
		})
	}

	slices.SortStableFunc(out, func(a, b model.CodeContribution) int {
		return cmp.Compare(b.Date.UnixNano(), a.Date.UnixNano())
	})
	return out
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

// repositoryURL derives https://github.com/owner/repo from an issue or pull
// request URL.
func repositoryURL(itemURL string) string {
	rest, ok := strings.CutPrefix(itemURL, githubSiteURL+"/")
	if !ok {
		return ""
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 {
		return ""
	}
	return githubSiteURL + "/" + parts[0] + "/" + parts[1]
}

// NotificationMessage announces a commit or comment.
func (s *GitHubSource) NotificationMessage(c model.CodeContribution, user model.User) string {
	msg := anchor(c.AccountURL, user.Name) + " contributed " + anchor(c.URL, c.Title)
	if c.Issue != nil && c.Issue.URL != "" {
		msg += " to " + anchor(c.Issue.URL, c.Issue.Title)
	}
	return msg + " in project " + anchor(c.ProjectURL, c.Project) + "."
}
