package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

// missingIssueTitle is stored when an issue's title is unavailable.
const missingIssueTitle = "(not found)"

// ContributionStorage provides get-or-create semantics over a
// ContributionStore. Uniqueness of issues and contributions relies on callers
// looking up before creating; terms are looked up here.
type ContributionStorage struct {
	store driven.ContributionStore
}

// NewContributionStorage creates a ContributionStorage.
func NewContributionStorage(store driven.ContributionStore) *ContributionStorage {
	return &ContributionStorage{store: store}
}

// IssueRecord returns the stored issue with the given link, or nil.
func (s *ContributionStorage) IssueRecord(ctx context.Context, link string) (*model.IssueRecord, error) {
	rec, err := s.store.GetIssueByLink(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("get issue %s: %w", link, err)
	}
	return rec, nil
}

// ContributionRecord returns the stored contribution with the given link, or
// nil.
func (s *ContributionStorage) ContributionRecord(ctx context.Context, link string) (*model.ContributionRecord, error) {
	rec, err := s.store.GetContributionByLink(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("get contribution %s: %w", link, err)
	}
	return rec, nil
}

// GetOrCreateIssue returns the stored issue for issue.URL, creating it for
// user if absent.
func (s *ContributionStorage) GetOrCreateIssue(ctx context.Context, issue model.Issue, user model.User) (model.IssueRecord, error) {
	existing, err := s.IssueRecord(ctx, issue.URL)
	if err != nil {
		return model.IssueRecord{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	title := issue.Title
	if title == "" {
		title = missingIssueTitle
	}

	rec, err := s.store.CreateIssue(ctx, model.IssueRecord{
		Title:  title,
		Link:   issue.URL,
		UserID: user.ID,
	})
	if err != nil {
		return model.IssueRecord{}, fmt.Errorf("create issue %s: %w", issue.URL, err)
	}
	return rec, nil
}

// GetOrCreateProjectTerm returns the project term with the given name,
// creating it if absent.
func (s *ContributionStorage) GetOrCreateProjectTerm(ctx context.Context, name string) (model.Term, error) {
	return s.getOrCreateTerm(ctx, name, model.VocabularyProject)
}

// GetOrCreateTechnologyTerm returns the technology term with the given name,
// creating it if absent.
func (s *ContributionStorage) GetOrCreateTechnologyTerm(ctx context.Context, name string) (model.Term, error) {
	return s.getOrCreateTerm(ctx, name, model.VocabularyTechnology)
}

func (s *ContributionStorage) getOrCreateTerm(ctx context.Context, name, vocabulary string) (model.Term, error) {
	if name == "" {
		return model.Term{}, fmt.Errorf("%w: empty %s term name", ErrDataIncomplete, vocabulary)
	}

	existing, err := s.store.FindTerm(ctx, name, vocabulary)
	if err != nil {
		return model.Term{}, fmt.Errorf("find %s term %q: %w", vocabulary, name, err)
	}
	if existing != nil {
		return *existing, nil
	}

	term, err := s.store.CreateTerm(ctx, name, vocabulary)
	if err != nil {
		return model.Term{}, fmt.Errorf("create %s term %q: %w", vocabulary, name, err)
	}
	return term, nil
}

// SaveContribution persists a contribution that is known not to be stored.
func (s *ContributionStorage) SaveContribution(
	ctx context.Context,
	contribution model.CodeContribution,
	issue model.IssueRecord,
	project model.Term,
	user model.User,
) (model.ContributionRecord, error) {
	rec := model.ContributionRecord{
		Title:         ContributionTitle(contribution, issue.Title),
		Link:          contribution.URL,
		UserID:        user.ID,
		Date:          contribution.Date.UTC().Format(time.DateOnly),
		ContributedAt: contribution.Date,
		Description:   contribution.Description,
		IssueID:       issue.ID,
		ProjectTermID: project.ID,
		IssueStatus:   contribution.Status,
		FilesCount:    contribution.FilesCount,
		PatchesCount:  contribution.PatchCount,
	}

	if contribution.Technology != "" {
		tech, err := s.GetOrCreateTechnologyTerm(ctx, contribution.Technology)
		if err != nil {
			return model.ContributionRecord{}, err
		}
		rec.TechnologyTermID = &tech.ID
	}

	saved, err := s.store.CreateContribution(ctx, rec)
	if err != nil {
		return model.ContributionRecord{}, fmt.Errorf("create contribution %s: %w", contribution.URL, err)
	}
	return saved, nil
}

// ContributionTitle returns the contribution's own title when set. Otherwise
// it derives one from the plain text of the description, truncated, falling
// back to "Comment on <issue title>" when the description has no text.
func ContributionTitle(contribution model.CodeContribution, issueTitle string) string {
	if contribution.Title != "" {
		return contribution.Title
	}
	if text := PlainText(contribution.Description); text != "" {
		return Truncate(text)
	}
	return "Comment on " + issueTitle
}
