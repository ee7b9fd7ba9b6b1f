package application_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

// --- drupal.org API ---

type mockDrupalAPI struct {
	nodes     map[int64]*model.Node
	files     map[int64]*model.File
	pages     map[int]model.CommentPage
	users     map[string][]model.RemoteUser
	nodeErr   map[int64]error
	commentFn func(q driven.CommentQuery) (model.CommentPage, error)

	nodeCalls    []int64
	fileCalls    []int64
	commentCalls []driven.CommentQuery
	userCalls    []string
}

func newMockDrupalAPI() *mockDrupalAPI {
	return &mockDrupalAPI{
		nodes:   make(map[int64]*model.Node),
		files:   make(map[int64]*model.File),
		pages:   make(map[int]model.CommentPage),
		users:   make(map[string][]model.RemoteUser),
		nodeErr: make(map[int64]error),
	}
}

func (m *mockDrupalAPI) FetchNode(_ context.Context, id int64) (*model.Node, error) {
	m.nodeCalls = append(m.nodeCalls, id)
	if err, ok := m.nodeErr[id]; ok {
		return nil, err
	}
	n, ok := m.nodes[id]
	if !ok {
		return nil, notFound(fmt.Sprintf("fetch node %d", id))
	}
	cp := *n
	return &cp, nil
}

func (m *mockDrupalAPI) FetchFile(_ context.Context, id int64) (*model.File, error) {
	m.fileCalls = append(m.fileCalls, id)
	f, ok := m.files[id]
	if !ok {
		return nil, notFound(fmt.Sprintf("fetch file %d", id))
	}
	cp := *f
	return &cp, nil
}

func (m *mockDrupalAPI) FetchComments(_ context.Context, q driven.CommentQuery) (model.CommentPage, error) {
	m.commentCalls = append(m.commentCalls, q)
	if m.commentFn != nil {
		return m.commentFn(q)
	}
	return m.pages[q.Page], nil
}

func (m *mockDrupalAPI) FetchUsersByName(_ context.Context, name string) ([]model.RemoteUser, error) {
	m.userCalls = append(m.userCalls, name)
	return m.users[name], nil
}

func notFound(op string) error {
	return &driven.RemoteFetchError{Op: op, StatusCode: 404, Err: driven.ErrNotFound}
}

// --- cache ---

type cacheEntry struct {
	value []byte
	ttl   time.Duration
}

type mockCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	getErr  error
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]cacheEntry)}
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	e, ok := m.entries[key]
	return e.value, ok, nil
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = cacheEntry{value: value, ttl: ttl}
	return nil
}

// --- contribution store ---

type memoryStore struct {
	issues        []model.IssueRecord
	contributions []model.ContributionRecord
	terms         []model.Term
	createErr     error
}

func (m *memoryStore) GetIssueByLink(_ context.Context, link string) (*model.IssueRecord, error) {
	for _, rec := range m.issues {
		if rec.Link == link {
			cp := rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) CreateIssue(_ context.Context, issue model.IssueRecord) (model.IssueRecord, error) {
	issue.ID = int64(len(m.issues) + 1)
	m.issues = append(m.issues, issue)
	return issue, nil
}

func (m *memoryStore) GetContributionByLink(_ context.Context, link string) (*model.ContributionRecord, error) {
	for _, rec := range m.contributions {
		if rec.Link == link {
			cp := rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) CreateContribution(_ context.Context, c model.ContributionRecord) (model.ContributionRecord, error) {
	if m.createErr != nil {
		return model.ContributionRecord{}, m.createErr
	}
	c.ID = int64(len(m.contributions) + 1)
	m.contributions = append(m.contributions, c)
	return c, nil
}

func (m *memoryStore) FindTerm(_ context.Context, name, vocabulary string) (*model.Term, error) {
	for _, t := range m.terms {
		if t.Name == name && t.Vocabulary == vocabulary {
			cp := t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) CreateTerm(_ context.Context, name, vocabulary string) (model.Term, error) {
	t := model.Term{ID: int64(len(m.terms) + 1), Name: name, Vocabulary: vocabulary}
	m.terms = append(m.terms, t)
	return t, nil
}

func (m *memoryStore) links() []string {
	out := make([]string, 0, len(m.contributions))
	for _, c := range m.contributions {
		out = append(out, c.Link)
	}
	return out
}

// --- user store ---

type mockUserStore struct {
	users []model.User
}

func (m *mockUserStore) Upsert(_ context.Context, user model.User) (model.User, error) {
	user.ID = int64(len(m.users) + 1)
	m.users = append(m.users, user)
	return user, nil
}

func (m *mockUserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserStore) ListActive(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range m.users {
		if u.Active {
			out = append(out, u)
		}
	}
	return out, nil
}

// --- notifier ---

type mockNotifier struct {
	messages []string
	err      error
}

func (m *mockNotifier) Notify(_ context.Context, message string) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, message)
	return nil
}

// --- metrics ---

type mockMetrics struct {
	mu       sync.Mutex
	outcomes []string
	stored   int
}

func (m *mockMetrics) IssueStored(string) {}

func (m *mockMetrics) ContributionStored(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored++
}

func (m *mockMetrics) NotificationSent(string, error) {}

func (m *mockMetrics) RunFinished(_ string, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

// --- fixtures ---

const testNow = 1_700_000_000

func unix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func drupalComment(id, issueID int64, created int64, body string) model.Comment {
	return model.Comment{
		ID:        id,
		URL:       fmt.Sprintf("https://www.drupal.org/comment/%d", id),
		IssueID:   issueID,
		AuthorID:  42,
		CreatedAt: unix(created),
		Body:      body,
	}
}

func drupalIssue(id, projectID int64, title string) *model.Node {
	return &model.Node{
		ID:        id,
		URL:       fmt.Sprintf("https://www.drupal.org/project/p%d/issues/%d", projectID, id),
		Title:     title,
		Type:      model.NodeTypeProjectIssue,
		ProjectID: projectID,
		CreatedAt: unix(testNow - 86400),
		ChangedAt: unix(testNow - 86400),
	}
}

func drupalProject(id int64, title string) *model.Node {
	return &model.Node{
		ID:    id,
		URL:   fmt.Sprintf("https://www.drupal.org/project/%s", strings.ToLower(title)),
		Title: title,
		Type:  "project_module",
	}
}
