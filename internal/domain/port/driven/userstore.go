package driven

import (
	"context"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
)

// UserStore defines the driven port for tracked user persistence.
type UserStore interface {
	// Upsert inserts a user or updates the one with the same email.
	Upsert(ctx context.Context, user model.User) (model.User, error)
	// GetByID returns nil, nil if the user does not exist.
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// ListActive returns active users ordered by ID, with
	// LastContributionAt populated.
	ListActive(ctx context.Context) ([]model.User, error)
}
