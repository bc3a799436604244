package analysis

import (
	"math"

	"github.com/rs/zerolog/log"
)

// DefaultVelocityCap is the velocity normalization cap: velocities at or
// above this value normalize to 1.0, capping growth at three times baseline
// so a single runaway topic cannot saturate the score.
const DefaultVelocityCap = 3.0

// DefaultMaxAuthors is the fallback author-diversity normalizer when a run
// has no observed authors to measure against.
const DefaultMaxAuthors = 100

// Fused score weights. Their sum being exactly 1.0 is an invariant of the
// formula, not a tunable.
const (
	weightVelocity    = 0.25
	weightEigenvector = 0.25
	weightBetweenness = 0.20
	weightPageRank    = 0.15
	weightAuthors     = 0.15
)

// VelocityData carries the inputs for one topic's velocity computation.
type VelocityData struct {
	TopicSlug        string
	CurrentMentions  int
	BaselineMentions float64
	UniqueAuthors    int
}

// ComputeVelocity computes the velocity ratio for a topic:
// current rate / baseline rate. 1.0 means stable, above 1.0 trending up,
// below 1.0 declining. With no baseline, a topic that has current mentions
// is treated as emerging (2.0); otherwise it is stable (1.0). Negative
// baselines are invalid input, coerced to zero with a warning. Current
// mentions are clamped to >= 0.
func ComputeVelocity(data VelocityData) float64 {
	current := data.CurrentMentions
	if current < 0 {
		current = 0
	}

	baseline := data.BaselineMentions
	if baseline < 0 {
		log.Warn().
			Str("topic", data.TopicSlug).
			Float64("baseline", baseline).
			Msg("negative baseline, treating as zero (emerging topic)")
		baseline = 0
	}

	if baseline <= 0 {
		if current > 0 {
			return 2.0
		}
		return 1.0
	}

	return float64(current) / baseline
}

// ComputeTemporalVelocity computes velocity against a historical baseline.
// A nil previous means no history exists, which yields nil — distinct from
// a confirmed zero baseline. A zero (or invalid negative) previous count
// with current mentions means the topic is newly emerging (2.0); with no
// current mentions there is still nothing to measure (nil).
func ComputeTemporalVelocity(currentMentions int, previousMentions *int) *float64 {
	if previousMentions == nil {
		return nil
	}

	if *previousMentions <= 0 {
		if currentMentions > 0 {
			v := 2.0
			return &v
		}
		return nil
	}

	v := float64(currentMentions) / float64(*previousMentions)
	return &v
}

// ScoreInputs carries the signals fused into one pulse score. A zero
// VelocityCap selects DefaultVelocityCap.
type ScoreInputs struct {
	Velocity      float64
	Eigenvector   float64
	Betweenness   float64
	PageRank      float64
	UniqueAuthors int
	MaxAuthors    int
	VelocityCap   float64
}

// ComputePulseScore fuses velocity, centrality and author diversity into a
// single score in [0,1], rounded to 4 decimal places.
//
// Weights: 25% velocity (momentum), 25% eigenvector (importance via
// connection to important topics), 20% betweenness (bridge topics), 15%
// PageRank (flow-based authority), 15% author spread (diversity of voices).
//
// All numeric inputs are clamped before use: negative signals become 0,
// centrality values are capped at 1.0, and max authors at or below zero is
// treated as 1 to avoid dividing by zero.
func ComputePulseScore(in ScoreInputs) float64 {
	velocity := math.Max(0, in.Velocity)
	eigenvector := math.Max(0, in.Eigenvector)
	betweenness := math.Max(0, in.Betweenness)
	pagerank := math.Max(0, in.PageRank)

	uniqueAuthors := in.UniqueAuthors
	if uniqueAuthors < 0 {
		uniqueAuthors = 0
	}
	maxAuthors := in.MaxAuthors
	if maxAuthors <= 0 {
		log.Warn().Int("max_authors", in.MaxAuthors).
			Msg("max authors not positive, treating as 1")
		maxAuthors = 1
	}
	velocityCap := in.VelocityCap
	if velocityCap <= 0 {
		velocityCap = DefaultVelocityCap
	}

	normVelocity := math.Min(velocity/velocityCap, 1.0)
	normEigen := math.Min(eigenvector, 1.0)
	normBetween := math.Min(betweenness, 1.0)
	normPageRank := math.Min(pagerank, 1.0)
	normAuthors := math.Min(float64(uniqueAuthors)/float64(maxAuthors), 1.0)

	score := weightVelocity*normVelocity +
		weightEigenvector*normEigen +
		weightBetweenness*normBetween +
		weightPageRank*normPageRank +
		weightAuthors*normAuthors

	return math.Round(score*10000) / 10000
}
