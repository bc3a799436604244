package analysis

import (
	"fmt"
	"sort"
	"strings"

	"pulse/internal/domain/pulse"
)

// Thresholds control when a ranking divergence is flagged and how it is
// explained.
type Thresholds struct {
	// SignificantRankDiff is the minimum |mention_rank - pulse_rank| to
	// surface a divergence
	SignificantRankDiff int

	// HighVelocity is the velocity above which momentum explains a
	// divergence
	HighVelocity float64

	// HighCentrality is the eigenvector centrality above which network
	// position explains a divergence
	HighCentrality float64

	// DiverseAuthors is the unique-author count at which author diversity
	// explains a divergence
	DiverseAuthors int
}

// DefaultThresholds returns the standard comparison thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SignificantRankDiff: 2,
		HighVelocity:        1.5,
		HighCentrality:      0.3,
		DiverseAuthors:      5,
	}
}

// AssignRanks populates MentionRank and PulseRank on every topic (both
// 1-indexed, descending) and returns the topics sorted by descending pulse
// score. Ties keep their input order.
func AssignRanks(topics []pulse.ComputedTopic) []pulse.ComputedTopic {
	byMentions := make([]*pulse.ComputedTopic, len(topics))
	for i := range topics {
		byMentions[i] = &topics[i]
	}
	sort.SliceStable(byMentions, func(i, j int) bool {
		return byMentions[i].MentionCount > byMentions[j].MentionCount
	})
	for i, t := range byMentions {
		t.MentionRank = i + 1
	}

	byPulse := make([]*pulse.ComputedTopic, len(topics))
	for i := range topics {
		byPulse[i] = &topics[i]
	}
	sort.SliceStable(byPulse, func(i, j int) bool {
		return byPulse[i].PulseScore > byPulse[j].PulseScore
	})

	out := make([]pulse.ComputedTopic, len(topics))
	for i, t := range byPulse {
		t.PulseRank = i + 1
		out[i] = *t
	}
	return out
}

// CompareRankings diffs the pulse-score ranking against the raw
// mention-count ranking. Topics whose ranks differ by at least the
// significance threshold are surfaced with a human-readable reason. The
// hypothesis flag is true when any significant divergence exists or the two
// orders are not element-wise identical — i.e. the pulse score actually
// ranked differently than mention counting would have.
func CompareRankings(topics []pulse.ComputedTopic, th Thresholds) pulse.RankComparison {
	if th.SignificantRankDiff < 1 {
		th.SignificantRankDiff = 1
	}

	byPulse := make([]pulse.ComputedTopic, len(topics))
	copy(byPulse, topics)
	sort.SliceStable(byPulse, func(i, j int) bool {
		return byPulse[i].PulseRank < byPulse[j].PulseRank
	})

	byMentions := make([]pulse.ComputedTopic, len(topics))
	copy(byMentions, topics)
	sort.SliceStable(byMentions, func(i, j int) bool {
		return byMentions[i].MentionRank < byMentions[j].MentionRank
	})

	comparison := pulse.RankComparison{
		MentionOrder: make([]string, 0, len(byMentions)),
		PulseOrder:   make([]string, 0, len(byPulse)),
	}
	for _, t := range byMentions {
		comparison.MentionOrder = append(comparison.MentionOrder, t.Slug)
	}
	for _, t := range byPulse {
		comparison.PulseOrder = append(comparison.PulseOrder, t.Slug)
	}

	for _, t := range byPulse {
		diff := t.MentionRank - t.PulseRank
		if abs(diff) < th.SignificantRankDiff {
			continue
		}
		comparison.Divergences = append(comparison.Divergences, pulse.RankDivergence{
			Slug:           t.Slug,
			Label:          t.Label,
			MentionRank:    t.MentionRank,
			PulseRank:      t.PulseRank,
			RankDifference: diff,
			Reason:         divergenceReason(t, th),
		})
	}

	ordersDiffer := false
	for i := range comparison.PulseOrder {
		if comparison.PulseOrder[i] != comparison.MentionOrder[i] {
			ordersDiffer = true
			break
		}
	}
	comparison.HypothesisSupported = len(comparison.Divergences) > 0 || ordersDiffer

	return comparison
}

// divergenceReason names the signals that pushed a topic away from its raw
// mention-count position.
func divergenceReason(t pulse.ComputedTopic, th Thresholds) string {
	var reasons []string
	if t.Velocity > th.HighVelocity {
		reasons = append(reasons, fmt.Sprintf("high velocity (%.2fx baseline)", t.Velocity))
	}
	if t.Centrality > th.HighCentrality {
		reasons = append(reasons, fmt.Sprintf("high network centrality (%.2f)", t.Centrality))
	}
	if t.UniqueAuthors >= th.DiverseAuthors {
		reasons = append(reasons, fmt.Sprintf("diverse author base (%d authors)", t.UniqueAuthors))
	}
	if len(reasons) == 0 {
		return "combined signal effect"
	}
	return strings.Join(reasons, "; ")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
