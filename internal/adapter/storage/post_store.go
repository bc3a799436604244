// internal/adapter/storage/post_store.go

package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"pulse/internal/domain/pulse"
)

// PostStore archives fetched posts in Postgres. The pipeline itself never
// reads from here; the archive exists for offline analysis and backfills.
type PostStore struct {
	db *pgxpool.Pool
}

// NewPostStore creates a new post store.
func NewPostStore(db *pgxpool.Pool) *PostStore {
	return &PostStore{
		db: db,
	}
}

// SavePost upserts a single post keyed by its external ID.
func (s *PostStore) SavePost(ctx context.Context, p pulse.RawPost) error {
	query := `
		INSERT INTO posts (
			id, title, content, author, url, score, comment_count,
			posted_at, metadata
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (id) DO UPDATE
		SET
			title = $2,
			content = $3,
			author = $4,
			url = $5,
			score = $6,
			comment_count = $7,
			posted_at = $8,
			metadata = $9
	`

	metadataJSON, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("error marshaling metadata: %w", err)
	}

	_, err = s.db.Exec(
		ctx,
		query,
		p.ID,
		p.Title,
		p.Content,
		p.Author,
		p.URL,
		p.Score,
		p.CommentCount,
		p.PostedAt,
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

// SavePosts upserts a batch of posts, returning how many were written.
func (s *PostStore) SavePosts(ctx context.Context, posts []pulse.RawPost) (int, error) {
	saved := 0
	for _, p := range posts {
		if err := s.SavePost(ctx, p); err != nil {
			return saved, fmt.Errorf("saving post %s: %w", p.ID, err)
		}
		saved++
	}
	return saved, nil
}

// CountPosts returns the number of archived posts.
func (s *PostStore) CountPosts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting posts: %w", err)
	}
	return count, nil
}

// EnsureSchema creates the posts table when missing.
func (s *PostStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL DEFAULT 0,
			comment_count INTEGER NOT NULL DEFAULT 0,
			posted_at TIMESTAMPTZ,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb
		)
	`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("error creating posts table: %w", err)
	}
	return nil
}
