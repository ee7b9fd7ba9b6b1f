// Package drupalorg implements the DrupalOrgAPI port over the drupal.org
// REST API (api-d7).
package drupalorg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DrupalOrgAPI = (*Client)(nil)

const (
	// DefaultBaseURL is the drupal.org REST API root.
	DefaultBaseURL = "https://www.drupal.org/api-d7"

	// userAgent identifies this application on every request.
	userAgent = "Contribution Tracker"
)

// Client implements the driven.DrupalOrgAPI port.
type Client struct {
	http    *http.Client
	baseURL *url.URL
}

// NewClient creates a drupal.org API client. Responses are cached in memory
// honoring the server's cache headers.
func NewClient(baseURL string) (*Client, error) {
	return NewClientWithHTTPClient(&http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
		Timeout:   30 * time.Second,
	}, baseURL)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. An empty baseURL selects DefaultBaseURL.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	return &Client{http: httpClient, baseURL: u}, nil
}

// FetchNode retrieves a node (issue or project) by ID.
func (c *Client) FetchNode(ctx context.Context, id int64) (*model.Node, error) {
	var raw nodeJSON
	op := fmt.Sprintf("fetch node %d", id)
	if err := c.get(ctx, op, "node/"+strconv.FormatInt(id, 10)+".json", nil, &raw); err != nil {
		return nil, err
	}
	return raw.toModel(), nil
}

// FetchFile retrieves a file by ID.
func (c *Client) FetchFile(ctx context.Context, id int64) (*model.File, error) {
	var raw fileJSON
	op := fmt.Sprintf("fetch file %d", id)
	if err := c.get(ctx, op, "file/"+strconv.FormatInt(id, 10)+".json", nil, &raw); err != nil {
		return nil, err
	}
	return raw.toModel(), nil
}

// FetchComments retrieves one page of comments matching the query.
func (c *Client) FetchComments(ctx context.Context, q driven.CommentQuery) (model.CommentPage, error) {
	params := url.Values{}
	params.Set("author", strconv.FormatInt(q.AuthorID, 10))
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	if q.Direction != "" {
		params.Set("direction", q.Direction)
	}
	params.Set("page", strconv.Itoa(q.Page))

	var raw commentListJSON
	op := fmt.Sprintf("fetch comments by %d (page %d)", q.AuthorID, q.Page)
	if err := c.get(ctx, op, "comment.json", params, &raw); err != nil {
		return model.CommentPage{}, err
	}

	page := model.CommentPage{
		Comments: make([]model.Comment, 0, len(raw.List)),
		NextLink: raw.Next,
	}
	for _, rc := range raw.List {
		page.Comments = append(page.Comments, rc.toModel())
	}

	slog.Debug("drupal.org comments fetched",
		"author", q.AuthorID,
		"page", q.Page,
		"count", len(page.Comments),
		"has_next", page.NextLink != "",
	)

	return page, nil
}

// FetchUsersByName returns every account with the given name.
func (c *Client) FetchUsersByName(ctx context.Context, name string) ([]model.RemoteUser, error) {
	params := url.Values{}
	params.Set("name", name)

	var raw userListJSON
	if err := c.get(ctx, fmt.Sprintf("fetch user %q", name), "user.json", params, &raw); err != nil {
		return nil, err
	}

	users := make([]model.RemoteUser, 0, len(raw.List))
	for _, u := range raw.List {
		users = append(users, model.RemoteUser{ID: int64(u.UID), Name: u.Name})
	}
	return users, nil
}

// get performs a GET against path relative to the base URL and decodes the
// JSON body into v.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, v any) error {
	u := c.baseURL.JoinPath(path)
	if params != nil {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &driven.RemoteFetchError{Op: op, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &driven.RemoteFetchError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &driven.RemoteFetchError{Op: op, StatusCode: resp.StatusCode, Err: driven.ErrNotFound}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &driven.RemoteFetchError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &driven.RemoteFetchError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}
