package model

import "time"

// Vocabulary names for taxonomy terms.
const (
	VocabularyProject    = "project"
	VocabularyTechnology = "technology"
)

// Issue is a source-neutral issue produced by a contribution source.
type Issue struct {
	Title       string
	URL         string
	Description string
}

// CodeContribution is a source-neutral contribution event (comment, patch,
// commit) produced by a contribution source. Sources yield them newest first.
type CodeContribution struct {
	Title       string // Optional; derived from Description when empty.
	URL         string
	Date        time.Time
	Description string // Sanitized HTML.
	Project     string
	ProjectURL  string
	AccountURL  string
	Issue       *Issue
	PatchCount  int
	FilesCount  int
	Status      string
	Technology  string
}

// IssueRecord is a persisted issue, unique by Link.
type IssueRecord struct {
	ID        int64
	Title     string
	Link      string
	UserID    int64 // User whose contribution first referenced the issue.
	CreatedAt time.Time
}

// ContributionRecord is a persisted code contribution, unique by Link.
type ContributionRecord struct {
	ID               int64
	Title            string
	Link             string
	UserID           int64
	Date             string // Date-only, YYYY-MM-DD.
	ContributedAt    time.Time
	Description      string
	IssueID          int64
	ProjectTermID    int64
	TechnologyTermID *int64
	IssueStatus      string
	FilesCount       int
	PatchesCount     int
	CreatedAt        time.Time
}

// Term is a taxonomy term, unique by (Name, Vocabulary).
type Term struct {
	ID         int64
	Name       string
	Vocabulary string
}

// Statistics summarizes stored contributions.
type Statistics struct {
	TotalContributions int // All stored code contributions.
	CodeContributions  int // Contributions with at least one patch.
	TotalContributors  int // Distinct contributing users.
}
