package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Entry{
		RequestID:    "req-1",
		Query:        "points on rent?",
		IntentJSON:   `{"categories":["rent"]}`,
		SnippetCount: 3,
		Answered:     true,
		DurationMs:   840,
	}))
	require.NoError(t, s.Record(ctx, Entry{
		RequestID: "req-2",
		Query:     "lounge access?",
		Answered:  false,
	}))

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Most recent first.
	assert.Equal(t, "req-2", entries[0].RequestID)
	assert.Equal(t, "req-1", entries[1].RequestID)
	assert.True(t, entries[1].Answered)
	assert.Equal(t, 3, entries[1].SnippetCount)
	assert.WithinDuration(t, time.Now().UTC(), entries[0].CreatedAt, time.Minute)
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, Entry{RequestID: "r", Query: "q"}))
	}

	entries, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported audit driver")
}
