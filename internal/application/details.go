package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

type fileFetcher interface {
	File(ctx context.Context, id int64) (*model.File, error)
}

// ResolveCommentDetails attributes issue files to a comment and reports the
// issue status the comment set.
//
// A file belongs to the comment when its upload timestamp equals the
// comment's creation time. Files are walked newest first and the walk stops
// at the first non-matching file after a match. The status is reported only
// when the comment was the last change to the issue.
func ResolveCommentDetails(ctx context.Context, files fileFetcher, comment model.Comment, issue model.Node) (model.CommentDetails, error) {
	var details model.CommentDetails

	matched := false
	for i := len(issue.FileIDs) - 1; i >= 0; i-- {
		id := issue.FileIDs[i]
		f, err := files.File(ctx, id)
		if driven.IsNotFound(err) {
			slog.Warn("issue file missing", "issue", issue.ID, "file", id)
			continue
		}
		if err != nil {
			return model.CommentDetails{}, fmt.Errorf("fetch file %d: %w", id, err)
		}

		if !f.Timestamp.Equal(comment.CreatedAt) {
			if matched {
				break
			}
			continue
		}

		matched = true
		details.TotalFiles++
		if f.IsPatch() {
			details.PatchFiles++
		}
	}

	if comment.CreatedAt.Equal(issue.ChangedAt) {
		details.IssueStatus = model.IssueStatusLabel(issue.StatusCode)
	}

	return details, nil
}
