package application

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"time"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

// DefaultCacheNamespace prefixes every cache key written by the retriever.
const DefaultCacheNamespace = "contrib_tracker"

// Cache lifetimes for drupal.org nodes. Files and user lookups never expire.
const (
	DefaultIssueCacheTTL   = 3 * time.Minute
	DefaultProjectCacheTTL = 6 * time.Hour
)

// DrupalRetriever reads drupal.org entities through a cache. Comment listings
// are never cached.
type DrupalRetriever struct {
	api       driven.DrupalOrgAPI
	cache     driven.Cache
	namespace string
}

// NewDrupalRetriever creates a DrupalRetriever. A nil cache disables caching.
func NewDrupalRetriever(api driven.DrupalOrgAPI, cache driven.Cache, namespace string) *DrupalRetriever {
	if namespace == "" {
		namespace = DefaultCacheNamespace
	}
	return &DrupalRetriever{
		api:       api,
		cache:     cache,
		namespace: namespace,
	}
}

func (r *DrupalRetriever) cacheKey(kind, id string) string {
	return r.namespace + ":" + kind + ":" + id
}

// CommentsByAuthor yields every comment by the given author, newest first,
// fetching one page at a time. The first error is yielded and ends the
// sequence. Breaking out of the loop stops further page fetches.
func (r *DrupalRetriever) CommentsByAuthor(ctx context.Context, authorID int64) iter.Seq2[model.Comment, error] {
	return func(yield func(model.Comment, error) bool) {
		page := 0
		for {
			result, err := r.api.FetchComments(ctx, driven.CommentQuery{
				AuthorID:  authorID,
				Sort:      "created",
				Direction: "DESC",
				Page:      page,
			})
			if err != nil {
				yield(model.Comment{}, err)
				return
			}

			for _, c := range result.Comments {
				if !yield(c, nil) {
					return
				}
			}

			next, ok := nextPage(result.NextLink)
			if !ok || next <= page {
				return
			}
			page = next
		}
	}
}

// nextPage extracts the page query parameter from a listing's next link.
func nextPage(link string) (int, bool) {
	if link == "" {
		return 0, false
	}
	u, err := url.Parse(link)
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Node returns the node with the given ID, cached for ttl.
func (r *DrupalRetriever) Node(ctx context.Context, id int64, ttl time.Duration) (*model.Node, error) {
	return fetchCached(ctx, r.cache, r.cacheKey("node", strconv.FormatInt(id, 10)), ttl,
		func(ctx context.Context) (*model.Node, error) {
			return r.api.FetchNode(ctx, id)
		})
}

// File returns the file with the given ID. Files are immutable once
// uploaded, so they are cached without expiry.
func (r *DrupalRetriever) File(ctx context.Context, id int64) (*model.File, error) {
	return fetchCached(ctx, r.cache, r.cacheKey("file", strconv.FormatInt(id, 10)), 0,
		func(ctx context.Context) (*model.File, error) {
			return r.api.FetchFile(ctx, id)
		})
}

// User resolves a drupal.org username to its account. Anything other than
// exactly one match is driven.ErrUserNotFound.
func (r *DrupalRetriever) User(ctx context.Context, name string) (model.RemoteUser, error) {
	return fetchCached(ctx, r.cache, r.cacheKey("user", name), 0,
		func(ctx context.Context) (model.RemoteUser, error) {
			users, err := r.api.FetchUsersByName(ctx, name)
			if err != nil {
				return model.RemoteUser{}, err
			}
			if len(users) != 1 {
				return model.RemoteUser{}, fmt.Errorf("%w: %q matched %d accounts", driven.ErrUserNotFound, name, len(users))
			}
			return users[0], nil
		})
}
