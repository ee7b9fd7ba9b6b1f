package application

import (
	"context"
	"errors"
	"fmt"
	"html"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

const (
	drupalSiteURL    = "https://www.drupal.org"
	drupalTechnology = "Drupal"
)

var errNotProjectIssue = errors.New("comment is not on a project issue")

// DrupalSource ingests comments posted on drupal.org issue queues.
type DrupalSource struct {
	retriever  *DrupalRetriever
	storage    *ContributionStorage
	users      driven.UserStore
	issueTTL   time.Duration
	projectTTL time.Duration
}

var _ ContributionSource = (*DrupalSource)(nil)

// NewDrupalSource creates a DrupalSource. Zero TTLs select the defaults.
func NewDrupalSource(
	retriever *DrupalRetriever,
	storage *ContributionStorage,
	users driven.UserStore,
	issueTTL, projectTTL time.Duration,
) *DrupalSource {
	if issueTTL <= 0 {
		issueTTL = DefaultIssueCacheTTL
	}
	if projectTTL <= 0 {
		projectTTL = DefaultProjectCacheTTL
	}
	return &DrupalSource{
		retriever:  retriever,
		storage:    storage,
		users:      users,
		issueTTL:   issueTTL,
		projectTTL: projectTTL,
	}
}

func (s *DrupalSource) Name() string { return SourceDrupal }

func (s *DrupalSource) Users(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return usersWith(users, func(u model.User) string { return u.DrupalUsername }), nil
}

func (s *DrupalSource) ValidateUser(ctx context.Context, user model.User) error {
	if user.DrupalUsername == "" {
		return fmt.Errorf("%w: user %d has no drupal.org username", ErrDataIncomplete, user.ID)
	}
	_, err := s.retriever.User(ctx, user.DrupalUsername)
	return err
}

// UserIssues yields nothing. Issues are recorded as a side effect of the
// comments posted on them.
func (s *DrupalSource) UserIssues(context.Context, model.User) iter.Seq2[model.Issue, error] {
	return func(func(model.Issue, error) bool) {}
}

// UserCodeContributions yields the user's issue comments newest first. It
// stops at the first comment that is already stored, so older comments are
// never fetched again. Comments whose issue or project cannot be resolved are
// skipped.
func (s *DrupalSource) UserCodeContributions(ctx context.Context, user model.User) iter.Seq2[model.CodeContribution, error] {
	return func(yield func(model.CodeContribution, error) bool) {
		account, err := s.retriever.User(ctx, user.DrupalUsername)
		if err != nil {
			yield(model.CodeContribution{}, err)
			return
		}

		for comment, err := range s.retriever.CommentsByAuthor(ctx, account.ID) {
			if err != nil {
				yield(model.CodeContribution{}, err)
				return
			}

			stored, err := s.storage.ContributionRecord(ctx, comment.URL)
			if err != nil {
				yield(model.CodeContribution{}, err)
				return
			}
			if stored != nil {
				slog.Info("skipping comment and all after it", "user", user.DrupalUsername, "comment", comment.URL)
				return
			}

			contribution, err := s.contribution(ctx, user, account, comment)
			switch {
			case errors.Is(err, errNotProjectIssue):
				slog.Debug("skipping comment", "comment", comment.URL, "reason", err)
				continue
			case errors.Is(err, ErrDataIncomplete):
				slog.Warn("skipping comment", "comment", comment.URL, "reason", err)
				continue
			case err != nil:
				yield(model.CodeContribution{}, err)
				return
			}

			if !yield(contribution, nil) {
				return
			}
		}
	}
}

// contribution resolves a comment's issue, files and project into a
// CodeContribution. The issue record is stored before the project is
// checked, so an issue is kept even when its comment is skipped for an
// untitled project.
func (s *DrupalSource) contribution(ctx context.Context, user model.User, account model.RemoteUser, comment model.Comment) (model.CodeContribution, error) {
	issue, err := s.retriever.Node(ctx, comment.IssueID, s.issueTTL)
	if driven.IsNotFound(err) {
		return model.CodeContribution{}, fmt.Errorf("%w: issue %d: %v", ErrDataIncomplete, comment.IssueID, err)
	}
	if err != nil {
		return model.CodeContribution{}, err
	}
	if !issue.IsProjectIssue() {
		return model.CodeContribution{}, fmt.Errorf("%w: node %d is a %s", errNotProjectIssue, issue.ID, issue.Type)
	}

	details, err := ResolveCommentDetails(ctx, s.retriever, comment, *issue)
	if err != nil {
		return model.CodeContribution{}, err
	}
	slog.Debug("resolved comment details",
		"comment", comment.URL,
		"files", details.TotalFiles,
		"patches", details.PatchFiles,
		"status", details.IssueStatus,
	)

	issueRef := model.Issue{
		Title: issue.Title,
		URL:   fmt.Sprintf("%s/node/%d", drupalSiteURL, issue.ID),
	}
	if _, err := s.storage.GetOrCreateIssue(ctx, issueRef, user); err != nil {
		return model.CodeContribution{}, err
	}

	project, err := s.retriever.Node(ctx, issue.ProjectID, s.projectTTL)
	if driven.IsNotFound(err) {
		return model.CodeContribution{}, fmt.Errorf("%w: project %d: %v", ErrDataIncomplete, issue.ProjectID, err)
	}
	if err != nil {
		return model.CodeContribution{}, err
	}
	if strings.TrimSpace(project.Title) == "" {
		return model.CodeContribution{}, fmt.Errorf("%w: project %d has no title", ErrDataIncomplete, issue.ProjectID)
	}

	return model.CodeContribution{
		URL:         comment.URL,
		Date:        comment.CreatedAt,
		Description: SanitizeHTML(AbsolutizeLinks(comment.Body, drupalSiteURL)),
		Project:     project.Title,
		ProjectURL:  project.URL,
		AccountURL:  fmt.Sprintf("%s/user/%d", drupalSiteURL, account.ID),
		Issue:       &issueRef,
		PatchCount:  details.PatchFiles,
		FilesCount:  details.TotalFiles,
		Status:      details.IssueStatus,
		Technology:  drupalTechnology,
	}, nil
}

// NotificationMessage announces a comment with its file and status changes.
// The issue title links to the comment itself.
func (s *DrupalSource) NotificationMessage(c model.CodeContribution, user model.User) string {
	var b strings.Builder
	b.WriteString(anchor(c.AccountURL, user.Name))
	b.WriteString(" posted a comment")
	if c.Issue != nil {
		b.WriteString(" on ")
		b.WriteString(anchor(c.URL, c.Issue.Title))
	}
	b.WriteString(" in project ")
	b.WriteString(anchor(c.ProjectURL, c.Project))
	if c.FilesCount > 0 {
		fmt.Fprintf(&b, " with %d files (%d patch(es))", c.FilesCount, c.PatchCount)
	}
	if c.Status != "" {
		fmt.Fprintf(&b, " and changed the status to %s", html.EscapeString(c.Status))
	}
	b.WriteString(".")
	if excerpt := Truncate(PlainText(c.Description)); excerpt != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(excerpt))
	}
	return b.String()
}
