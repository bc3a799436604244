package pulse

import (
	"time"
)

// RawPost is normalized post data from any community platform. All sources
// convert their API payloads to this format before the pipeline sees them.
type RawPost struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	Author       string            `json:"author"`
	URL          string            `json:"url"`
	Score        int               `json:"score"`
	CommentCount int               `json:"comment_count"`
	PostedAt     *time.Time        `json:"posted_at,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// TopicTag is a topic extracted from a single post. Relevance is 1.0 when a
// trigger matched the title, 0.8 when it only matched body text.
type TopicTag struct {
	Slug      string  `json:"slug"`
	Relevance float64 `json:"relevance"`
}

// CooccurrenceEdge records two topics jointly mentioned by the same posts.
// TopicA sorts lexicographically before TopicB so each unordered pair has a
// single canonical form.
type CooccurrenceEdge struct {
	TopicA        string `json:"topic_a"`
	TopicB        string `json:"topic_b"`
	SharedPosts   int    `json:"shared_posts"`
	SharedAuthors int    `json:"shared_authors"`
}

// CentralityMetrics holds the per-node centrality measures. Nodes absent
// from a computation default every field to zero.
type CentralityMetrics struct {
	Betweenness float64 `json:"betweenness"`
	Eigenvector float64 `json:"eigenvector"`
	PageRank    float64 `json:"pagerank"`
}

// SamplePost is a trimmed post used for display in results.
type SamplePost struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Score        int    `json:"score"`
	CommentCount int    `json:"comment_count"`
}

// ComputedTopic is a topic with computed pulse metrics. TemporalVelocity is
// nil when no snapshot history exists for the topic; a zero value means a
// confirmed zero baseline, which is a different condition.
type ComputedTopic struct {
	Slug             string       `json:"slug"`
	Label            string       `json:"label"`
	PulseScore       float64      `json:"pulse_score"`
	Velocity         float64      `json:"velocity"`
	TemporalVelocity *float64     `json:"temporal_velocity,omitempty"`
	MentionCount     int          `json:"mention_count"`
	UniqueAuthors    int          `json:"unique_authors"`
	Centrality       float64      `json:"centrality"`
	MentionRank      int          `json:"mention_rank"`
	PulseRank        int          `json:"pulse_rank"`
	SamplePosts      []SamplePost `json:"sample_posts"`
}

// ClusterInfo describes a connected group of topics in the co-occurrence
// graph.
type ClusterInfo struct {
	ID                 string   `json:"id"`
	TopicSlugs         []string `json:"topic_slugs"`
	CollectiveVelocity float64  `json:"collective_velocity"`
	Size               int      `json:"size"`
}

// Result is the output of one pulse computation. Topics are sorted by
// descending pulse score with both rank fields populated.
type Result struct {
	Topics     []ComputedTopic    `json:"topics"`
	Edges      []CooccurrenceEdge `json:"edges"`
	Clusters   []ClusterInfo      `json:"clusters"`
	CapturedAt time.Time          `json:"captured_at"`
}

// TopicSnapshot is a single topic's metrics at a point in time.
type TopicSnapshot struct {
	Slug          string `json:"slug"`
	MentionCount  int    `json:"mention_count"`
	UniqueAuthors int    `json:"unique_authors"`
	Timestamp     string `json:"timestamp"`
}

// Snapshot is a complete capture of all topics at a point in time. It is the
// only entity that outlives a pipeline invocation.
type Snapshot struct {
	Timestamp string                   `json:"timestamp"`
	Topics    map[string]TopicSnapshot `json:"topics"`
}

// RankDivergence explains one topic whose pulse rank differs from its
// mention-count rank. RankDifference is mention rank minus pulse rank, so a
// positive value means the pulse score elevated the topic.
type RankDivergence struct {
	Slug           string `json:"slug"`
	Label          string `json:"label"`
	MentionRank    int    `json:"mention_rank"`
	PulseRank      int    `json:"pulse_rank"`
	RankDifference int    `json:"rank_difference"`
	Reason         string `json:"reason"`
}

// RankComparison is the pulse-vs-mentions ranking diff for one computation.
type RankComparison struct {
	Divergences         []RankDivergence `json:"divergences"`
	MentionOrder        []string         `json:"mention_order"`
	PulseOrder          []string         `json:"pulse_order"`
	HypothesisSupported bool             `json:"hypothesis_supported"`
}
