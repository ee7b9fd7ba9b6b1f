package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
)

// rosterFile is the YAML layout of the tracked user roster:
//
//	users:
//	  - name: Jane Doe
//	    email: jane@example.com
//	    drupal: jane
//	    github: janedoe
//	    active: false
type rosterFile struct {
	Users []rosterEntry `yaml:"users"`
}

type rosterEntry struct {
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Drupal string `yaml:"drupal"`
	GitHub string `yaml:"github"`
	Active *bool  `yaml:"active"`
}

// LoadUsers reads the roster at path. Entries are active unless marked
// otherwise. Email identifies a user and must be present and unique.
func LoadUsers(path string) ([]model.User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	return ParseUsers(data)
}

// ParseUsers decodes a YAML roster.
func ParseUsers(data []byte) ([]model.User, error) {
	var roster rosterFile
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("decode users file: %w", err)
	}

	users := make([]model.User, 0, len(roster.Users))
	seen := make(map[string]bool, len(roster.Users))
	var errs []error

	for i, e := range roster.Users {
		email := strings.ToLower(strings.TrimSpace(e.Email))
		switch {
		case email == "":
			errs = append(errs, fmt.Errorf("users[%d]: email is required", i))
			continue
		case seen[email]:
			errs = append(errs, fmt.Errorf("users[%d]: duplicate email %q", i, email))
			continue
		}
		seen[email] = true

		active := true
		if e.Active != nil {
			active = *e.Active
		}

		users = append(users, model.User{
			Name:           strings.TrimSpace(e.Name),
			Email:          email,
			DrupalUsername: strings.TrimSpace(e.Drupal),
			GitHubUsername: strings.TrimSpace(e.GitHub),
			Active:         active,
		})
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return users, nil
}
