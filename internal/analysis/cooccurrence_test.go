package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/domain/pulse"
)

func tagged(author string, slugs ...string) TaggedPost {
	tags := make([]pulse.TopicTag, 0, len(slugs))
	for _, slug := range slugs {
		tags = append(tags, pulse.TopicTag{Slug: slug, Relevance: 1.0})
	}
	return TaggedPost{
		Post:   pulse.RawPost{Author: author},
		Topics: tags,
	}
}

func TestBuildCooccurrenceSharedPosts(t *testing.T) {
	posts := []TaggedPost{
		tagged("alice", "ai", "python"),
		tagged("bob", "ai", "python"),
		tagged("carol", "rust"),
	}

	edges := BuildCooccurrence(posts)

	require.Len(t, edges, 1)
	assert.Equal(t, "ai", edges[0].TopicA)
	assert.Equal(t, "python", edges[0].TopicB)
	assert.Equal(t, 2, edges[0].SharedPosts)
	assert.Equal(t, 2, edges[0].SharedAuthors)
}

func TestBuildCooccurrenceAllPairsPerPost(t *testing.T) {
	posts := []TaggedPost{
		tagged("alice", "ai", "python", "rust"),
	}

	edges := BuildCooccurrence(posts)

	// Three topics on one post yield all three unordered pairs.
	require.Len(t, edges, 3)
	for _, e := range edges {
		assert.Equal(t, 1, e.SharedPosts)
		assert.Equal(t, 1, e.SharedAuthors)
		assert.Less(t, e.TopicA, e.TopicB)
	}
}

func TestBuildCooccurrenceCanonicalPairOrder(t *testing.T) {
	// The same pair seen in both orders accumulates on one edge.
	posts := []TaggedPost{
		tagged("alice", "python", "ai"),
		tagged("bob", "ai", "python"),
	}

	edges := BuildCooccurrence(posts)

	require.Len(t, edges, 1)
	assert.Equal(t, "ai", edges[0].TopicA)
	assert.Equal(t, "python", edges[0].TopicB)
	assert.Equal(t, 2, edges[0].SharedPosts)
}

func TestBuildCooccurrenceDeduplicatesTagsPerPost(t *testing.T) {
	post := TaggedPost{
		Post: pulse.RawPost{Author: "alice"},
		Topics: []pulse.TopicTag{
			{Slug: "ai", Relevance: 1.0},
			{Slug: "ai", Relevance: 0.8},
			{Slug: "rust", Relevance: 0.8},
		},
	}

	edges := BuildCooccurrence([]TaggedPost{post})

	require.Len(t, edges, 1)
	assert.Equal(t, 1, edges[0].SharedPosts)
}

func TestBuildCooccurrenceAuthorsIndependentOfEdgePosts(t *testing.T) {
	// Shared authors intersect the topics' full author sets, including
	// authors whose posts mention only one of the two topics.
	posts := []TaggedPost{
		tagged("alice", "ai", "python"),
		tagged("bob", "ai"),
		tagged("bob", "python"),
	}

	edges := BuildCooccurrence(posts)

	require.Len(t, edges, 1)
	assert.Equal(t, 1, edges[0].SharedPosts)
	assert.Equal(t, 2, edges[0].SharedAuthors)
}

func TestBuildCooccurrenceSingleTopicPosts(t *testing.T) {
	posts := []TaggedPost{
		tagged("alice", "ai"),
		tagged("bob", "rust"),
	}

	edges := BuildCooccurrence(posts)
	assert.Empty(t, edges)
}

func TestBuildCooccurrenceDeterministicOrder(t *testing.T) {
	posts := []TaggedPost{
		tagged("alice", "rust", "python", "ai"),
	}

	first := BuildCooccurrence(posts)
	second := BuildCooccurrence(posts)
	assert.Equal(t, first, second)
}
