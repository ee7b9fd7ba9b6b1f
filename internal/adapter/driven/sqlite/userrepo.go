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

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port interface.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// userColumns selects a user with the time of their newest contribution.
const userColumns = `
	SELECT u.id, u.name, u.email, u.drupal_username, u.github_username, u.active,
	       COALESCE((SELECT MAX(c.contributed_at) FROM code_contributions c WHERE c.user_id = u.id), '')
	FROM users u`

// Upsert inserts a user or updates the one with the same email, and returns
// the stored row.
func (r *UserRepo) Upsert(ctx context.Context, user model.User) (model.User, error) {
	const query = `
		INSERT INTO users (name, email, drupal_username, github_username, active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			name = excluded.name,
			drupal_username = excluded.drupal_username,
			github_username = excluded.github_username,
			active = excluded.active,
			updated_at = excluded.updated_at
		RETURNING id`

	var id int64
	err := r.db.Writer.QueryRowContext(ctx, query,
		user.Name,
		user.Email,
		user.DrupalUsername,
		user.GitHubUsername,
		boolToInt(user.Active),
		formatTime(time.Now()),
	).Scan(&id)
	if err != nil {
		return model.User{}, fmt.Errorf("upsert user %s: %w", user.Email, err)
	}

	stored, err := r.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if stored == nil {
		return model.User{}, fmt.Errorf("upsert user %s: row %d vanished", user.Email, id)
	}
	return *stored, nil
}

// GetByID retrieves a user by ID. Returns nil, nil if the user does not exist.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, userColumns+` WHERE u.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

// ListActive returns active users ordered by ID.
func (r *UserRepo) ListActive(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Reader.QueryContext(ctx, userColumns+` WHERE u.active = 1 ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func scanUser(s scanner) (*model.User, error) {
	var user model.User
	var active int
	var lastContribution string

	err := s.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.DrupalUsername,
		&user.GitHubUsername,
		&active,
		&lastContribution,
	)
	if err != nil {
		return nil, err
	}

	user.Active = active != 0
	if lastContribution != "" {
		user.LastContributionAt, err = parseTime(lastContribution)
		if err != nil {
			return nil, fmt.Errorf("parse last contribution: %w", err)
		}
	}

	return &user, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
