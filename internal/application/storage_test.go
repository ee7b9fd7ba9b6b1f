package application_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/contribtracker/internal/application"
	"github.com/ericfisherdev/contribtracker/internal/domain/model"
)

func TestGetOrCreateProjectTerm_Idempotent(t *testing.T) {
	store := &memoryStore{}
	storage := application.NewContributionStorage(store)
	ctx := context.Background()

	first, err := storage.GetOrCreateProjectTerm(ctx, "Views")
	require.NoError(t, err)
	second, err := storage.GetOrCreateProjectTerm(ctx, "Views")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.terms, 1)
	assert.Equal(t, model.VocabularyProject, first.Vocabulary)
}

func TestGetOrCreateTerm_VocabulariesAreDistinct(t *testing.T) {
	store := &memoryStore{}
	storage := application.NewContributionStorage(store)
	ctx := context.Background()

	project, err := storage.GetOrCreateProjectTerm(ctx, "Drupal")
	require.NoError(t, err)
	tech, err := storage.GetOrCreateTechnologyTerm(ctx, "Drupal")
	require.NoError(t, err)

	assert.NotEqual(t, project.ID, tech.ID)
	assert.Len(t, store.terms, 2)
}

func TestGetOrCreateTerm_EmptyNameIsIncomplete(t *testing.T) {
	storage := application.NewContributionStorage(&memoryStore{})

	_, err := storage.GetOrCreateProjectTerm(context.Background(), "")
	assert.ErrorIs(t, err, application.ErrDataIncomplete)
}

func TestGetOrCreateIssue(t *testing.T) {
	store := &memoryStore{}
	storage := application.NewContributionStorage(store)
	ctx := context.Background()
	user := model.User{ID: 3}

	created, err := storage.GetOrCreateIssue(ctx, model.Issue{URL: "https://www.drupal.org/node/1"}, user)
	require.NoError(t, err)
	assert.Equal(t, "(not found)", created.Title)
	assert.Equal(t, int64(3), created.UserID)

	again, err := storage.GetOrCreateIssue(ctx, model.Issue{Title: "Renamed", URL: "https://www.drupal.org/node/1"}, model.User{ID: 4})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, int64(3), again.UserID)
	assert.Len(t, store.issues, 1)
}

func TestSaveContribution(t *testing.T) {
	store := &memoryStore{}
	storage := application.NewContributionStorage(store)
	ctx := context.Background()

	date := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	saved, err := storage.SaveContribution(ctx, model.CodeContribution{
		URL:         "https://www.drupal.org/comment/1",
		Date:        date,
		Description: "<p>Short</p>",
		PatchCount:  1,
		FilesCount:  2,
		Status:      "needs review",
		Technology:  "Drupal",
	}, model.IssueRecord{ID: 5, Title: "Issue"}, model.Term{ID: 8}, model.User{ID: 3})
	require.NoError(t, err)

	assert.Equal(t, "Short", saved.Title)
	assert.Equal(t, "2024-03-09", saved.Date)
	assert.Equal(t, int64(5), saved.IssueID)
	assert.Equal(t, int64(8), saved.ProjectTermID)
	assert.Equal(t, int64(3), saved.UserID)
	assert.Equal(t, 2, saved.FilesCount)
	assert.Equal(t, 1, saved.PatchesCount)
	assert.Equal(t, "needs review", saved.IssueStatus)
	require.NotNil(t, saved.TechnologyTermID)
	assert.Equal(t, model.VocabularyTechnology, store.terms[*saved.TechnologyTermID-1].Vocabulary)
}

func TestContributionTitle(t *testing.T) {
	ninety := strings.Repeat("abcdefghij", 9)

	tests := []struct {
		name         string
		contribution model.CodeContribution
		want         string
	}{
		{
			name:         "explicit title wins",
			contribution: model.CodeContribution{Title: "Fix crash", Description: "<p>body</p>"},
			want:         "Fix crash",
		},
		{
			name:         "90 characters truncated to 80",
			contribution: model.CodeContribution{Description: "<p>" + ninety + "</p>"},
			want:         ninety[:77] + "...",
		},
		{
			name:         "80 characters kept",
			contribution: model.CodeContribution{Description: ninety[:80]},
			want:         ninety[:80],
		},
		{
			name:         "markup only falls back to issue",
			contribution: model.CodeContribution{Description: "<p></p>"},
			want:         "Comment on Broken widget",
		},
		{
			name:         "entities decoded",
			contribution: model.CodeContribution{Description: "<p>Tom &amp; Jerry</p>"},
			want:         "Tom & Jerry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := application.ContributionTitle(tt.contribution, "Broken widget")
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), 80)
		})
	}
}
