package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.ContributionStore = (*ContributionRepo)(nil)
	_ driven.StatisticsStore   = (*ContributionRepo)(nil)
)

// ContributionRepo is the SQLite implementation of the ContributionStore and
// StatisticsStore port interfaces.
type ContributionRepo struct {
	db *DB
}

// NewContributionRepo creates a new ContributionRepo backed by the given DB.
func NewContributionRepo(db *DB) *ContributionRepo {
	return &ContributionRepo{db: db}
}

// GetIssueByLink returns the oldest issue with the given link. Returns nil,
// nil if none exists.
func (r *ContributionRepo) GetIssueByLink(ctx context.Context, link string) (*model.IssueRecord, error) {
	const query = `
		SELECT id, title, link, COALESCE(user_id, 0), created_at
		FROM issues WHERE link = ? ORDER BY id LIMIT 1`

	var rec model.IssueRecord
	var createdAt string
	err := r.db.Reader.QueryRowContext(ctx, query, link).Scan(
		&rec.ID, &rec.Title, &rec.Link, &rec.UserID, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get issue %s: %w", link, err)
	}

	rec.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &rec, nil
}

// CreateIssue inserts an issue. A zero UserID is stored as NULL.
func (r *ContributionRepo) CreateIssue(ctx context.Context, issue model.IssueRecord) (model.IssueRecord, error) {
	const query = `INSERT INTO issues (title, link, user_id, created_at) VALUES (?, ?, ?, ?)`

	issue.CreatedAt = time.Now().UTC()

	var userID sql.NullInt64
	if issue.UserID != 0 {
		userID = sql.NullInt64{Int64: issue.UserID, Valid: true}
	}

	result, err := r.db.Writer.ExecContext(ctx, query, issue.Title, issue.Link, userID, formatTime(issue.CreatedAt))
	if err != nil {
		return model.IssueRecord{}, fmt.Errorf("create issue %s: %w", issue.Link, err)
	}

	issue.ID, err = result.LastInsertId()
	if err != nil {
		return model.IssueRecord{}, fmt.Errorf("issue id: %w", err)
	}
	return issue, nil
}

// GetContributionByLink returns the oldest contribution with the given link.
// Returns nil, nil if none exists.
func (r *ContributionRepo) GetContributionByLink(ctx context.Context, link string) (*model.ContributionRecord, error) {
	const query = `
		SELECT id, title, link, user_id, contribution_date, contributed_at, description,
		       issue_id, project_term_id, technology_term_id, issue_status,
		       files_count, patches_count, created_at
		FROM code_contributions WHERE link = ? ORDER BY id LIMIT 1`

	rec, err := scanContribution(r.db.Reader.QueryRowContext(ctx, query, link))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contribution %s: %w", link, err)
	}
	return rec, nil
}

// CreateContribution inserts a code contribution.
func (r *ContributionRepo) CreateContribution(ctx context.Context, c model.ContributionRecord) (model.ContributionRecord, error) {
	const query = `
		INSERT INTO code_contributions (
			title, link, user_id, contribution_date, contributed_at, description,
			issue_id, project_term_id, technology_term_id, issue_status,
			files_count, patches_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	c.CreatedAt = time.Now().UTC()

	var techID sql.NullInt64
	if c.TechnologyTermID != nil {
		techID = sql.NullInt64{Int64: *c.TechnologyTermID, Valid: true}
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		c.Title,
		c.Link,
		c.UserID,
		c.Date,
		formatTime(c.ContributedAt),
		c.Description,
		c.IssueID,
		c.ProjectTermID,
		techID,
		c.IssueStatus,
		c.FilesCount,
		c.PatchesCount,
		formatTime(c.CreatedAt),
	)
	if err != nil {
		return model.ContributionRecord{}, fmt.Errorf("create contribution %s: %w", c.Link, err)
	}

	c.ID, err = result.LastInsertId()
	if err != nil {
		return model.ContributionRecord{}, fmt.Errorf("contribution id: %w", err)
	}
	return c, nil
}

// FindTerm returns the term with the given name in vocabulary. Returns nil,
// nil if none exists.
func (r *ContributionRepo) FindTerm(ctx context.Context, name, vocabulary string) (*model.Term, error) {
	const query = `SELECT id, name, vocabulary FROM terms WHERE name = ? AND vocabulary = ?`

	var t model.Term
	err := r.db.Reader.QueryRowContext(ctx, query, name, vocabulary).Scan(&t.ID, &t.Name, &t.Vocabulary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find term %s/%s: %w", vocabulary, name, err)
	}
	return &t, nil
}

// CreateTerm inserts a term. If one with the same name and vocabulary
// already exists, that term is returned instead.
func (r *ContributionRepo) CreateTerm(ctx context.Context, name, vocabulary string) (model.Term, error) {
	const insert = `INSERT INTO terms (name, vocabulary) VALUES (?, ?) ON CONFLICT(name, vocabulary) DO NOTHING`
	const query = `SELECT id, name, vocabulary FROM terms WHERE name = ? AND vocabulary = ?`

	if _, err := r.db.Writer.ExecContext(ctx, insert, name, vocabulary); err != nil {
		return model.Term{}, fmt.Errorf("create term %s/%s: %w", vocabulary, name, err)
	}

	var t model.Term
	err := r.db.Writer.QueryRowContext(ctx, query, name, vocabulary).Scan(&t.ID, &t.Name, &t.Vocabulary)
	if err != nil {
		return model.Term{}, fmt.Errorf("read term %s/%s: %w", vocabulary, name, err)
	}
	return t, nil
}

// Statistics counts stored contributions, those carrying patches, and
// distinct contributors.
func (r *ContributionRepo) Statistics(ctx context.Context) (model.Statistics, error) {
	const query = `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN patches_count > 0 THEN 1 ELSE 0 END), 0),
		       COUNT(DISTINCT user_id)
		FROM code_contributions`

	var s model.Statistics
	err := r.db.Reader.QueryRowContext(ctx, query).Scan(&s.TotalContributions, &s.CodeContributions, &s.TotalContributors)
	if err != nil {
		return model.Statistics{}, fmt.Errorf("contribution statistics: %w", err)
	}
	return s, nil
}

func scanContribution(s scanner) (*model.ContributionRecord, error) {
	var c model.ContributionRecord
	var contributedAt, createdAt string
	var techID sql.NullInt64

	err := s.Scan(
		&c.ID,
		&c.Title,
		&c.Link,
		&c.UserID,
		&c.Date,
		&contributedAt,
		&c.Description,
		&c.IssueID,
		&c.ProjectTermID,
		&techID,
		&c.IssueStatus,
		&c.FilesCount,
		&c.PatchesCount,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if techID.Valid {
		c.TechnologyTermID = &techID.Int64
	}

	c.ContributedAt, err = parseTime(contributedAt)
	if err != nil {
		return nil, fmt.Errorf("parse contributed_at: %w", err)
	}
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &c, nil
}
