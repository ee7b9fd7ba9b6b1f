package driven

import (
	"context"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
)

// CommentQuery selects one page of a comment listing.
type CommentQuery struct {
	AuthorID  int64
	Sort      string // "created".
	Direction string // "DESC".
	Page      int
}

// DrupalOrgAPI defines the driven port for the drupal.org REST API.
// Every request carries the application's identifying User-Agent header.
// Failures are returned as *RemoteFetchError; a 404 wraps ErrNotFound.
type DrupalOrgAPI interface {
	FetchNode(ctx context.Context, id int64) (*model.Node, error)
	FetchFile(ctx context.Context, id int64) (*model.File, error)
	FetchComments(ctx context.Context, query CommentQuery) (model.CommentPage, error)
	// FetchUsersByName returns every account whose name matches exactly.
	FetchUsersByName(ctx context.Context, name string) ([]model.RemoteUser, error)
}
