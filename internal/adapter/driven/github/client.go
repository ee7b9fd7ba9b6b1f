// Package github implements the GitHubAPI port using go-github for REST calls
// and githubv4 for GraphQL queries.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubAPI = (*Client)(nil)

// Client implements the driven.GitHubAPI port.
type Client struct {
	gh *gh.Client
	v4 *githubv4.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (REST, PAT auth) and oauth2 + githubv4 (GraphQL)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	graphqlHTTP := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   rateLimitClient.Transport,
		},
		Timeout: 30 * time.Second,
	}

	return &Client{
		gh: client,
		v4: githubv4.NewClient(graphqlHTTP),
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
// GraphQL requests go to <baseURL>/graphql.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	graphqlU := *u
	graphqlU.Path = "/graphql"

	return &Client{
		gh: client,
		v4: githubv4.NewEnterpriseClient(graphqlU.String(), httpClient),
	}, nil
}

// UserExists reports whether login is a GitHub account. A 404 is not an
// error.
func (c *Client) UserExists(ctx context.Context, login string) (bool, error) {
	_, resp, err := c.gh.Users.Get(ctx, login)
	logRateLimit(resp, "users/"+login)

	if err != nil {
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, remoteError("get user "+login, resp, err)
	}

	return true, nil
}

// remoteError wraps a go-github failure as a RemoteFetchError.
func remoteError(op string, resp *gh.Response, err error) error {
	rfe := &driven.RemoteFetchError{Op: op, Err: err}
	if resp != nil && resp.Response != nil {
		rfe.StatusCode = resp.StatusCode
	}
	return rfe
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
