package model

import "time"

// NodeTypeProjectIssue is the drupal.org node type of issue queue entries.
// Comments on any other node type are not contributions.
const NodeTypeProjectIssue = "project_issue"

// Comment is a comment fetched from drupal.org. Its URL is globally unique
// and stable, and is used as the identity of the stored contribution.
type Comment struct {
	ID        int64
	URL       string
	IssueID   int64 // ID of the node the comment was posted on.
	AuthorID  int64
	CreatedAt time.Time
	Body      string // Raw comment body (HTML).
}

// Node is a drupal.org node. Issues and projects are both nodes; only the
// fields needed for contribution tracking are mapped.
type Node struct {
	ID         int64
	URL        string
	Title      string
	Type       string
	ProjectID  int64 // Set for issues; zero for projects.
	StatusCode int   // Issue status code; see IssueStatusLabel.
	CreatedAt  time.Time
	ChangedAt  time.Time
	FileIDs    []int64 // Attached files in the order they were attached.
}

// IsProjectIssue reports whether the node is an issue queue entry.
func (n Node) IsProjectIssue() bool {
	return n.Type == NodeTypeProjectIssue
}

// File is a file attached to a drupal.org issue.
type File struct {
	ID        int64
	Name      string
	URL       string
	MIME      string
	Timestamp time.Time
}

// RemoteUser is a user account on a remote platform.
type RemoteUser struct {
	ID   int64
	Name string
}

// CommentPage is one page of a paginated comment listing.
type CommentPage struct {
	Comments []Comment
	// NextLink is the URL of the next page, empty on the last page.
	NextLink string
}

// CommentDetails are facts derived from a comment and its issue. They are
// computed, never fetched.
type CommentDetails struct {
	TotalFiles  int
	PatchFiles  int // Always <= TotalFiles.
	IssueStatus string
}
