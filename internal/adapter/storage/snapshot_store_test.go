// internal/adapter/storage/snapshot_store_test.go

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/domain/pulse"
)

func testTopics() []pulse.ComputedTopic {
	return []pulse.ComputedTopic{
		{Slug: "ai", MentionCount: 42, UniqueAuthors: 12},
		{Slug: "rust", MentionCount: 17, UniqueAuthors: 9},
	}
}

func newTestStore(t *testing.T, maxSnapshots int, minInterval time.Duration) *SnapshotStore {
	t.Helper()
	store, err := NewSnapshotStore(t.TempDir(), maxSnapshots, minInterval)
	require.NoError(t, err)
	return store
}

func TestSaveAndGetPreviousSnapshot(t *testing.T) {
	store := newTestStore(t, 24, time.Hour)

	snap, err := store.SaveSnapshot(testTopics(), false)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.NotEmpty(t, snap.Timestamp)

	previous, err := store.GetPreviousSnapshot()
	require.NoError(t, err)
	require.NotNil(t, previous)
	assert.Equal(t, snap.Timestamp, previous.Timestamp)
	assert.Equal(t, 42, previous.Topics["ai"].MentionCount)
	assert.Equal(t, 12, previous.Topics["ai"].UniqueAuthors)
	assert.Equal(t, 17, previous.Topics["rust"].MentionCount)
}

func TestGetPreviousSnapshotEmptyStore(t *testing.T) {
	store := newTestStore(t, 24, time.Hour)

	previous, err := store.GetPreviousSnapshot()
	require.NoError(t, err)
	assert.Nil(t, previous)
}

func TestSaveSnapshotIntervalGating(t *testing.T) {
	store := newTestStore(t, 24, time.Hour)

	base := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	first, err := store.SaveSnapshot(testTopics(), false)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Within the interval: skipped.
	store.now = func() time.Time { return base.Add(30 * time.Minute) }
	skipped, err := store.SaveSnapshot(testTopics(), false)
	require.NoError(t, err)
	assert.Nil(t, skipped)

	// Force overrides the gate.
	forced, err := store.SaveSnapshot(testTopics(), true)
	require.NoError(t, err)
	assert.NotNil(t, forced)

	// Past the interval: allowed again.
	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	later, err := store.SaveSnapshot(testTopics(), false)
	require.NoError(t, err)
	assert.NotNil(t, later)
}

func TestShouldSaveSnapshot(t *testing.T) {
	store := newTestStore(t, 24, time.Hour)

	assert.True(t, store.ShouldSaveSnapshot())

	base := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	_, err := store.SaveSnapshot(testTopics(), true)
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(10 * time.Minute) }
	assert.False(t, store.ShouldSaveSnapshot())

	store.now = func() time.Time { return base.Add(61 * time.Minute) }
	assert.True(t, store.ShouldSaveSnapshot())
}

func TestPruneOldSnapshots(t *testing.T) {
	store := newTestStore(t, 3, time.Hour)

	base := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tick := base.Add(time.Duration(i) * time.Hour)
		store.now = func() time.Time { return tick }
		_, err := store.SaveSnapshot(testTopics(), true)
		require.NoError(t, err)
	}

	files := store.snapshotFiles()
	assert.Len(t, files, 3)

	// The newest capture survives pruning.
	previous, err := store.GetPreviousSnapshot()
	require.NoError(t, err)
	require.NotNil(t, previous)
	last, err := time.Parse(time.RFC3339, previous.Timestamp)
	require.NoError(t, err)
	assert.Equal(t, base.Add(4*time.Hour), last)
}

func TestCorruptSnapshotTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSnapshotStore(dir, 24, time.Hour)
	require.NoError(t, err)

	path := filepath.Join(dir, "snapshot_2026-08-27T10-00-00.000000Z.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	previous, err := store.GetPreviousSnapshot()
	require.NoError(t, err)
	assert.Nil(t, previous)

	assert.True(t, store.ShouldSaveSnapshot())
}

func TestSnapshotFilenamesSortChronologically(t *testing.T) {
	store := newTestStore(t, 24, time.Hour)

	times := []time.Time{
		time.Date(2026, 8, 27, 9, 59, 59, 0, time.UTC),
		time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 27, 10, 0, 0, 500000000, time.UTC),
	}
	for _, tick := range times {
		tick := tick
		store.now = func() time.Time { return tick }
		_, err := store.SaveSnapshot(testTopics(), true)
		require.NoError(t, err)
	}

	files := store.snapshotFiles()
	require.Len(t, files, 3)

	previous, err := store.GetPreviousSnapshot()
	require.NoError(t, err)
	last, err := time.Parse(time.RFC3339, previous.Timestamp)
	require.NoError(t, err)
	assert.True(t, last.Equal(times[2]))
}

func TestSaveSnapshotSkipsEmptySlug(t *testing.T) {
	store := newTestStore(t, 24, time.Hour)

	snap, err := store.SaveSnapshot([]pulse.ComputedTopic{
		{Slug: "", MentionCount: 3},
		{Slug: "ai", MentionCount: 5},
	}, true)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Len(t, snap.Topics, 1)
	assert.Equal(t, 5, snap.Topics["ai"].MentionCount)
}
