// internal/adapter/source/archive.go

package source

import (
	"context"

	"github.com/rs/zerolog/log"

	"pulse/internal/adapter/storage"
	"pulse/internal/domain/pulse"
)

// ArchivingSource wraps a PostSource and persists every fetched post to the
// post archive. Archive failures are logged and never fail the fetch.
type ArchivingSource struct {
	inner pulse.PostSource
	store *storage.PostStore
}

// NewArchivingSource wraps inner so fetched posts are archived in store.
func NewArchivingSource(inner pulse.PostSource, store *storage.PostStore) *ArchivingSource {
	return &ArchivingSource{inner: inner, store: store}
}

// Name returns the wrapped source's name
func (a *ArchivingSource) Name() string {
	return a.inner.Name()
}

// PostURL returns the wrapped source's discussion URL
func (a *ArchivingSource) PostURL(postID string) string {
	return a.inner.PostURL(postID)
}

// FetchPosts fetches from the wrapped source and archives the results
func (a *ArchivingSource) FetchPosts(ctx context.Context, limit int) ([]pulse.RawPost, error) {
	posts, err := a.inner.FetchPosts(ctx, limit)
	if err != nil {
		return nil, err
	}

	if saved, err := a.store.SavePosts(ctx, posts); err != nil {
		log.Warn().Err(err).Int("saved", saved).Msg("failed to archive fetched posts")
	}

	return posts, nil
}
