package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
)

type recordingUserStore struct {
	upserted []model.User
	err      error
}

func (s *recordingUserStore) Upsert(_ context.Context, u model.User) (model.User, error) {
	if s.err != nil {
		return model.User{}, s.err
	}
	u.ID = int64(len(s.upserted) + 1)
	s.upserted = append(s.upserted, u)
	return u, nil
}

func (s *recordingUserStore) GetByID(_ context.Context, _ int64) (*model.User, error) {
	return nil, nil
}

func (s *recordingUserStore) ListActive(_ context.Context) ([]model.User, error) {
	return nil, nil
}

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSyncUsers(t *testing.T) {
	path := writeRoster(t, `
users:
  - name: Jane Doe
    email: jane@example.com
    drupal: jane
  - name: Sam Roe
    email: sam@example.com
    github: samroe
    active: false
`)
	store := &recordingUserStore{}

	require.NoError(t, syncUsers(context.Background(), store, path))

	require.Len(t, store.upserted, 2)
	assert.Equal(t, "jane", store.upserted[0].DrupalUsername)
	assert.False(t, store.upserted[1].Active)
	assert.Equal(t, 1, countActive(store.upserted))
}

func TestSyncUsers_StoreError(t *testing.T) {
	path := writeRoster(t, "users:\n  - email: jane@example.com\n")
	store := &recordingUserStore{err: errors.New("disk full")}

	err := syncUsers(context.Background(), store, path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync user jane@example.com")
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := rootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "run", "sync-users"}, names)
}
