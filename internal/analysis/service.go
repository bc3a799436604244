package analysis

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pulse/internal/domain/pulse"
)

// ServiceConfig contains configuration for the compute service.
type ServiceConfig struct {
	NumPosts          int
	PageRankDamping   float64
	VelocityCap       float64
	MaxAuthorsDefault int
	MinClusterSize    int
}

// Service computes pulse scores from any community data source.
//
// The pipeline: fetch posts, extract topics, build the co-occurrence graph,
// compute centrality, fuse the signals into pulse scores, then rank by both
// pulse score and raw mention count. The algorithm is identical regardless
// of data source. The snapshot store is optional; without one topics simply
// carry no temporal velocity.
type Service struct {
	source    pulse.PostSource
	snapshots pulse.SnapshotStore
	cfg       ServiceConfig
}

// NewService creates a compute service. snapshots may be nil.
func NewService(source pulse.PostSource, snapshots pulse.SnapshotStore, cfg ServiceConfig) *Service {
	if cfg.NumPosts <= 0 {
		cfg.NumPosts = 100
	}
	if cfg.MaxAuthorsDefault <= 0 {
		cfg.MaxAuthorsDefault = DefaultMaxAuthors
	}
	if cfg.MinClusterSize <= 0 {
		cfg.MinClusterSize = 3
	}
	return &Service{source: source, snapshots: snapshots, cfg: cfg}
}

type relevantPost struct {
	post      pulse.RawPost
	relevance float64
}

// ComputePulse runs one full pulse computation. A failing or empty source
// and a post set with no extractable topics both yield an empty result, not
// an error; the only errors are graph-construction invariant violations.
func (s *Service) ComputePulse(ctx context.Context, numPosts int) (*pulse.Result, error) {
	if numPosts <= 0 {
		numPosts = s.cfg.NumPosts
	}

	capturedAt := time.Now().UTC()
	empty := &pulse.Result{
		Topics:     []pulse.ComputedTopic{},
		Edges:      []pulse.CooccurrenceEdge{},
		Clusters:   []pulse.ClusterInfo{},
		CapturedAt: capturedAt,
	}

	posts, err := s.source.FetchPosts(ctx, numPosts)
	if err != nil {
		log.Warn().Err(err).Str("source", s.source.Name()).
			Msg("post fetch failed, returning empty pulse")
		return empty, nil
	}
	if len(posts) == 0 {
		return empty, nil
	}

	// Tag every post and index posts and authors per topic.
	topicPosts := make(map[string][]relevantPost)
	topicAuthorSets := make(map[string]map[string]struct{})
	tagged := make([]TaggedPost, 0, len(posts))

	for _, post := range posts {
		tags := ExtractTopics(post.Content, post.Title)
		if len(tags) == 0 {
			continue
		}
		tagged = append(tagged, TaggedPost{Post: post, Topics: tags})
		for _, tag := range tags {
			topicPosts[tag.Slug] = append(topicPosts[tag.Slug], relevantPost{post, tag.Relevance})
			set := topicAuthorSets[tag.Slug]
			if set == nil {
				set = make(map[string]struct{})
				topicAuthorSets[tag.Slug] = set
			}
			set[post.Author] = struct{}{}
		}
	}
	if len(topicPosts) == 0 {
		return empty, nil
	}

	edges := BuildCooccurrence(tagged)

	reg := NewNodeRegistry()
	graph := BuildTopicGraph(edges, reg)
	directed, err := BuildDirectedGraph(edges, reg)
	if err != nil {
		return nil, err
	}
	centrality, err := ComputeAllCentrality(graph, directed, s.cfg.PageRankDamping)
	if err != nil {
		return nil, err
	}

	var previous *pulse.Snapshot
	if s.snapshots != nil {
		previous, _ = s.snapshots.GetPreviousSnapshot()
	}

	// Author-diversity normalizer: distinct authors across the whole run.
	allAuthors := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		allAuthors[p.Author] = struct{}{}
	}
	maxAuthors := len(allAuthors)
	if maxAuthors == 0 {
		maxAuthors = s.cfg.MaxAuthorsDefault
	}

	// Cross-sectional baseline: average mentions per topic, floored at one
	// so sparse runs do not inflate velocity.
	avgMentions := float64(len(posts)) / float64(len(topicPosts))
	if avgMentions < 1 {
		avgMentions = 1
	}

	slugs := make([]string, 0, len(topicPosts))
	for slug := range topicPosts {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	velocityBySlug := make(map[string]float64, len(slugs))
	topics := make([]pulse.ComputedTopic, 0, len(slugs))

	for _, slug := range slugs {
		postList := topicPosts[slug]
		mentionCount := len(postList)
		uniqueAuthors := len(topicAuthorSets[slug])

		var metrics pulse.CentralityMetrics
		if idx, ok := reg.Lookup(slug); ok {
			metrics = centrality[idx]
		}

		velocity := ComputeVelocity(VelocityData{
			TopicSlug:        slug,
			CurrentMentions:  mentionCount,
			BaselineMentions: avgMentions,
			UniqueAuthors:    uniqueAuthors,
		})
		velocityBySlug[slug] = velocity

		var temporal *float64
		if previous != nil {
			prevCount := previous.Topics[slug].MentionCount
			temporal = ComputeTemporalVelocity(mentionCount, &prevCount)
		}

		score := ComputePulseScore(ScoreInputs{
			Velocity:      velocity,
			Eigenvector:   metrics.Eigenvector,
			Betweenness:   metrics.Betweenness,
			PageRank:      metrics.PageRank,
			UniqueAuthors: uniqueAuthors,
			MaxAuthors:    maxAuthors,
			VelocityCap:   s.cfg.VelocityCap,
		})

		topics = append(topics, pulse.ComputedTopic{
			Slug:             slug,
			Label:            TopicLabel(slug),
			PulseScore:       score,
			Velocity:         velocity,
			TemporalVelocity: temporal,
			MentionCount:     mentionCount,
			UniqueAuthors:    uniqueAuthors,
			Centrality:       metrics.Eigenvector,
			SamplePosts:      samplePosts(postList, 3),
		})
	}

	topics = AssignRanks(topics)

	return &pulse.Result{
		Topics:     topics,
		Edges:      edges,
		Clusters:   s.detectClusters(graph, velocityBySlug),
		CapturedAt: capturedAt,
	}, nil
}

// samplePosts returns up to limit posts sorted by score descending.
func samplePosts(postList []relevantPost, limit int) []pulse.SamplePost {
	sorted := make([]relevantPost, len(postList))
	copy(sorted, postList)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].post.Score > sorted[j].post.Score
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	samples := make([]pulse.SamplePost, 0, len(sorted))
	for _, rp := range sorted {
		samples = append(samples, pulse.SamplePost{
			ID:           rp.post.ID,
			Title:        rp.post.Title,
			URL:          rp.post.URL,
			Score:        rp.post.Score,
			CommentCount: rp.post.CommentCount,
		})
	}
	return samples
}

// detectClusters groups topics by connected component, keeping components
// that reach the minimum cluster size. Collective velocity is the mean of
// the member topics' velocities.
func (s *Service) detectClusters(graph *TopicGraph, velocityBySlug map[string]float64) []pulse.ClusterInfo {
	clusters := []pulse.ClusterInfo{}
	for _, comp := range graph.ConnectedComponents() {
		if len(comp) < s.cfg.MinClusterSize {
			continue
		}
		slugs := make([]string, 0, len(comp))
		total := 0.0
		for _, idx := range comp {
			slug := graph.Registry().Slug(idx)
			slugs = append(slugs, slug)
			total += velocityBySlug[slug]
		}
		clusters = append(clusters, pulse.ClusterInfo{
			ID:                 uuid.NewString(),
			TopicSlugs:         slugs,
			CollectiveVelocity: total / float64(len(comp)),
			Size:               len(comp),
		})
	}
	return clusters
}
