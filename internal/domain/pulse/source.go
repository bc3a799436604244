package pulse

import (
	"context"
)

// PostSource defines the interface for community data sources. Implement
// this to add support for a new platform (Reddit, Lobsters, etc.).
type PostSource interface {
	// Name returns the unique identifier for this source
	Name() string

	// FetchPosts fetches up to limit posts from the platform
	FetchPosts(ctx context.Context, limit int) ([]RawPost, error)

	// PostURL generates the discussion URL for a specific post
	PostURL(postID string) string
}

// Computer defines the interface for running one pulse computation.
type Computer interface {
	// ComputePulse fetches posts and runs the full analysis pipeline.
	// Empty or partial post sets yield an empty result, never an error.
	ComputePulse(ctx context.Context, numPosts int) (*Result, error)
}

// SnapshotStore defines storage for periodic topic-metric snapshots.
type SnapshotStore interface {
	// ShouldSaveSnapshot reports whether enough time has passed since the
	// most recent snapshot (or no snapshot exists yet)
	ShouldSaveSnapshot() bool

	// SaveSnapshot persists a new snapshot unless the minimum interval has
	// not elapsed and force is false, in which case it returns nil
	SaveSnapshot(topics []ComputedTopic, force bool) (*Snapshot, error)

	// GetPreviousSnapshot returns the most recently written snapshot, or
	// nil when the store is empty or the latest file is unreadable
	GetPreviousSnapshot() (*Snapshot, error)
}
