package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime_SortsChronologically(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	earlier := formatTime(base)
	later := formatTime(base.Add(500 * time.Millisecond))
	whole := formatTime(base.Add(time.Second))

	assert.Less(t, earlier, later)
	assert.Less(t, later, whole)
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 4, 5, 123000000, time.UTC)

	got, err := parseTime(formatTime(want))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = parseTime("2024-03-01 10:04:05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 4, 5, 0, time.UTC), got)

	_, err = parseTime("yesterday")
	assert.Error(t, err)
}

func TestDB_PingAndClose(t *testing.T) {
	db, err := NewDB(context.Background(), t.TempDir()+"/test.db")
	require.NoError(t, err)

	assert.NoError(t, db.Ping(context.Background()))
	assert.Contains(t, db.Path(), "test.db")
	assert.NoError(t, db.Close())
}
