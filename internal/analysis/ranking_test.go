package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/domain/pulse"
)

func rankingFixture() []pulse.ComputedTopic {
	return []pulse.ComputedTopic{
		{Slug: "ai", Label: "AI / Machine Learning", MentionCount: 150, PulseScore: 0.85, Velocity: 1.1, UniqueAuthors: 40, Centrality: 0.5},
		{Slug: "rust", Label: "Rust", MentionCount: 89, PulseScore: 0.72, Velocity: 2.1, UniqueAuthors: 30, Centrality: 0.4},
		{Slug: "python", Label: "Python", MentionCount: 120, PulseScore: 0.65, Velocity: 0.9, UniqueAuthors: 25, Centrality: 0.3},
		{Slug: "javascript", Label: "JavaScript", MentionCount: 95, PulseScore: 0.58, Velocity: 0.8, UniqueAuthors: 20, Centrality: 0.2},
	}
}

func TestAssignRanks(t *testing.T) {
	topics := AssignRanks(rankingFixture())
	require.Len(t, topics, 4)

	// Output sorted by pulse score descending.
	assert.Equal(t, []string{"ai", "rust", "python", "javascript"}, slugsOf(topics))

	bySlug := make(map[string]pulse.ComputedTopic)
	for _, topic := range topics {
		assertRanksAssigned(t, topic)
		bySlug[topic.Slug] = topic
	}

	assert.Equal(t, 1, bySlug["ai"].MentionRank)
	assert.Equal(t, 2, bySlug["python"].MentionRank)
	assert.Equal(t, 3, bySlug["javascript"].MentionRank)
	assert.Equal(t, 4, bySlug["rust"].MentionRank)

	assert.Equal(t, 1, bySlug["ai"].PulseRank)
	assert.Equal(t, 2, bySlug["rust"].PulseRank)
	assert.Equal(t, 3, bySlug["python"].PulseRank)
	assert.Equal(t, 4, bySlug["javascript"].PulseRank)
}

func assertRanksAssigned(t *testing.T, topic pulse.ComputedTopic) {
	t.Helper()
	assert.GreaterOrEqual(t, topic.MentionRank, 1)
	assert.GreaterOrEqual(t, topic.PulseRank, 1)
}

func slugsOf(topics []pulse.ComputedTopic) []string {
	slugs := make([]string, 0, len(topics))
	for _, t := range topics {
		slugs = append(slugs, t.Slug)
	}
	return slugs
}

func TestAssignRanksStableTies(t *testing.T) {
	topics := AssignRanks([]pulse.ComputedTopic{
		{Slug: "a", MentionCount: 10, PulseScore: 0.5},
		{Slug: "b", MentionCount: 10, PulseScore: 0.5},
	})

	// Ties keep input order.
	assert.Equal(t, []string{"a", "b"}, slugsOf(topics))
	assert.Equal(t, 1, topics[0].MentionRank)
	assert.Equal(t, 2, topics[1].MentionRank)
}

func TestAssignRanksEmpty(t *testing.T) {
	assert.Empty(t, AssignRanks(nil))
}

func TestCompareRankingsDivergence(t *testing.T) {
	topics := AssignRanks(rankingFixture())
	comparison := CompareRankings(topics, DefaultThresholds())

	assert.Equal(t, []string{"ai", "python", "javascript", "rust"}, comparison.MentionOrder)
	assert.Equal(t, []string{"ai", "rust", "python", "javascript"}, comparison.PulseOrder)

	// Only rust moves by >= 2 positions: mention rank 4, pulse rank 2.
	require.Len(t, comparison.Divergences, 1)
	div := comparison.Divergences[0]
	assert.Equal(t, "rust", div.Slug)
	assert.Equal(t, 4, div.MentionRank)
	assert.Equal(t, 2, div.PulseRank)
	assert.Equal(t, 2, div.RankDifference)
	assert.Contains(t, div.Reason, "high velocity")

	assert.True(t, comparison.HypothesisSupported)
}

func TestCompareRankingsIdenticalOrders(t *testing.T) {
	topics := AssignRanks([]pulse.ComputedTopic{
		{Slug: "a", MentionCount: 100, PulseScore: 0.9},
		{Slug: "b", MentionCount: 50, PulseScore: 0.5},
	})

	comparison := CompareRankings(topics, DefaultThresholds())

	assert.Empty(t, comparison.Divergences)
	assert.False(t, comparison.HypothesisSupported)
}

func TestCompareRankingsOrdersDifferWithoutSignificantDivergence(t *testing.T) {
	// Adjacent swap: every rank difference is 1, below the threshold, but
	// the orders still differ so the hypothesis holds.
	topics := AssignRanks([]pulse.ComputedTopic{
		{Slug: "a", MentionCount: 100, PulseScore: 0.5},
		{Slug: "b", MentionCount: 50, PulseScore: 0.9},
	})

	comparison := CompareRankings(topics, DefaultThresholds())

	assert.Empty(t, comparison.Divergences)
	assert.True(t, comparison.HypothesisSupported)
}

func TestDivergenceReasons(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name  string
		topic pulse.ComputedTopic
		want  string
	}{
		{
			"velocity",
			pulse.ComputedTopic{Velocity: 2.0},
			"high velocity (2.00x baseline)",
		},
		{
			"centrality",
			pulse.ComputedTopic{Centrality: 0.45},
			"high network centrality (0.45)",
		},
		{
			"authors",
			pulse.ComputedTopic{UniqueAuthors: 8},
			"diverse author base (8 authors)",
		},
		{
			"fallback",
			pulse.ComputedTopic{Velocity: 1.0, Centrality: 0.1, UniqueAuthors: 2},
			"combined signal effect",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, divergenceReason(tt.topic, th))
		})
	}
}

func TestDivergenceReasonJoinsMultiple(t *testing.T) {
	reason := divergenceReason(pulse.ComputedTopic{
		Velocity:      3.0,
		Centrality:    0.6,
		UniqueAuthors: 12,
	}, DefaultThresholds())

	assert.Contains(t, reason, "high velocity")
	assert.Contains(t, reason, "high network centrality")
	assert.Contains(t, reason, "diverse author base")
	assert.Contains(t, reason, "; ")
}
