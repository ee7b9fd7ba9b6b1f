package model

import "time"

// User is an organization member whose contributions are tracked.
type User struct {
	ID             int64
	Name           string // Display name.
	Email          string
	DrupalUsername string
	GitHubUsername string
	Active         bool
	// LastContributionAt is the date of the newest stored contribution;
	// zero if none. Derived at query time, never written directly.
	LastContributionAt time.Time
}
