// internal/adapter/storage/snapshot_store.go

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"pulse/internal/domain/pulse"
)

// Fixed-width timestamp layout so snapshot filenames sort chronologically.
const snapshotTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

const (
	// DefaultMaxSnapshots keeps roughly a day of hourly captures.
	DefaultMaxSnapshots = 24

	// DefaultMinInterval is the minimum spacing between captures.
	DefaultMinInterval = time.Hour
)

// SnapshotStore is a file-backed snapshot history, one JSON file per
// capture. Only the most recent N captures are retained. Writes are
// last-writer-wins; callers needing strict consistency must serialize
// externally.
type SnapshotStore struct {
	dir          string
	maxSnapshots int
	minInterval  time.Duration
	now          func() time.Time
}

// NewSnapshotStore creates the store, ensuring the directory exists.
func NewSnapshotStore(dir string, maxSnapshots int, minInterval time.Duration) (*SnapshotStore, error) {
	if maxSnapshots <= 0 {
		maxSnapshots = DefaultMaxSnapshots
	}
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot dir: %w", err)
	}
	return &SnapshotStore{
		dir:          dir,
		maxSnapshots: maxSnapshots,
		minInterval:  minInterval,
		now:          time.Now,
	}, nil
}

func (s *SnapshotStore) snapshotPath(timestamp string) string {
	safe := strings.NewReplacer(":", "-", "+", "_").Replace(timestamp)
	return filepath.Join(s.dir, "snapshot_"+safe+".json")
}

// snapshotFiles returns the snapshot file paths sorted oldest first.
func (s *SnapshotStore) snapshotFiles() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", s.dir).Msg("failed to list snapshot dir")
		return nil
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "snapshot_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		files = append(files, filepath.Join(s.dir, name))
	}
	sort.Strings(files)
	return files
}

// ShouldSaveSnapshot reports whether no snapshot exists yet or the minimum
// interval has elapsed since the latest one. An unreadable latest snapshot
// counts as absent.
func (s *SnapshotStore) ShouldSaveSnapshot() bool {
	files := s.snapshotFiles()
	if len(files) == 0 {
		return true
	}

	snap, err := readSnapshot(files[len(files)-1])
	if err != nil {
		log.Warn().Err(err).Msg("failed to read latest snapshot timestamp")
		return true
	}
	last, err := time.Parse(time.RFC3339, snap.Timestamp)
	if err != nil {
		log.Warn().Err(err).Str("timestamp", snap.Timestamp).
			Msg("unparsable snapshot timestamp")
		return true
	}
	return s.now().UTC().Sub(last) >= s.minInterval
}

// SaveSnapshot writes a new capture of the given topics. Unless force is
// set, the write is skipped (returning nil) when the minimum interval has
// not elapsed. After writing, captures beyond the retention limit are
// pruned oldest-first.
func (s *SnapshotStore) SaveSnapshot(topics []pulse.ComputedTopic, force bool) (*pulse.Snapshot, error) {
	if !force && !s.ShouldSaveSnapshot() {
		log.Debug().Msg("skipping snapshot, minimum interval not elapsed")
		return nil, nil
	}

	timestamp := s.now().UTC().Format(snapshotTimeLayout)
	snapshot := &pulse.Snapshot{
		Timestamp: timestamp,
		Topics:    make(map[string]pulse.TopicSnapshot, len(topics)),
	}
	for _, t := range topics {
		if t.Slug == "" {
			continue
		}
		snapshot.Topics[t.Slug] = pulse.TopicSnapshot{
			Slug:          t.Slug,
			MentionCount:  t.MentionCount,
			UniqueAuthors: t.UniqueAuthors,
			Timestamp:     timestamp,
		}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot: %w", err)
	}
	path := s.snapshotPath(timestamp)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing snapshot: %w", err)
	}

	log.Info().Int("topics", len(snapshot.Topics)).Str("path", path).
		Msg("saved snapshot")

	s.pruneOldSnapshots()

	return snapshot, nil
}

// GetPreviousSnapshot returns the most recently written snapshot. A corrupt
// or unreadable file is logged and treated as no snapshot.
func (s *SnapshotStore) GetPreviousSnapshot() (*pulse.Snapshot, error) {
	files := s.snapshotFiles()
	if len(files) == 0 {
		return nil, nil
	}

	latest := files[len(files)-1]
	snap, err := readSnapshot(latest)
	if err != nil {
		log.Warn().Err(err).Str("path", latest).Msg("failed to load snapshot")
		return nil, nil
	}
	return snap, nil
}

func (s *SnapshotStore) pruneOldSnapshots() {
	files := s.snapshotFiles()
	if len(files) <= s.maxSnapshots {
		return
	}
	for _, path := range files[:len(files)-s.maxSnapshots] {
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to remove old snapshot")
			continue
		}
		log.Debug().Str("path", path).Msg("removed old snapshot")
	}
}

func readSnapshot(path string) (*pulse.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap pulse.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Topics == nil {
		snap.Topics = map[string]pulse.TopicSnapshot{}
	}
	return &snap, nil
}
