package analysis

import (
	"sort"

	"pulse/internal/domain/pulse"
)

// TaggedPost is a post together with the topics extracted from it.
type TaggedPost struct {
	Post   pulse.RawPost
	Topics []pulse.TopicTag
}

// pairKey is the canonical form of an unordered topic pair.
type pairKey struct {
	a, b string
}

func canonicalPair(a, b string) pairKey {
	if a < b {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

// BuildCooccurrence computes co-occurrence edges from topic-tagged posts.
// Every unordered pair of distinct topics on the same post increments the
// pair's shared-post count, so a post tagging n topics contributes C(n,2)
// increments. Shared authors are the intersection of the two topics' full
// author sets, independent of which posts produced the edge. Pairs that
// never co-occur produce no edge.
func BuildCooccurrence(tagged []TaggedPost) []pulse.CooccurrenceEdge {
	authors := topicAuthors(tagged)
	counts := make(map[pairKey]int)

	for _, tp := range tagged {
		slugs := distinctSlugs(tp.Topics)
		for i := 0; i < len(slugs); i++ {
			for j := i + 1; j < len(slugs); j++ {
				counts[canonicalPair(slugs[i], slugs[j])]++
			}
		}
	}

	edges := make([]pulse.CooccurrenceEdge, 0, len(counts))
	for key, count := range counts {
		edges = append(edges, pulse.CooccurrenceEdge{
			TopicA:        key.a,
			TopicB:        key.b,
			SharedPosts:   count,
			SharedAuthors: intersectionSize(authors[key.a], authors[key.b]),
		})
	}

	// Map iteration order is random; fix it so graph node indices are
	// reproducible across runs of the same input.
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].TopicA != edges[j].TopicA {
			return edges[i].TopicA < edges[j].TopicA
		}
		return edges[i].TopicB < edges[j].TopicB
	})

	return edges
}

// topicAuthors builds the topic -> distinct author set mapping across all
// posts.
func topicAuthors(tagged []TaggedPost) map[string]map[string]struct{} {
	authors := make(map[string]map[string]struct{})
	for _, tp := range tagged {
		for _, tag := range tp.Topics {
			set := authors[tag.Slug]
			if set == nil {
				set = make(map[string]struct{})
				authors[tag.Slug] = set
			}
			set[tp.Post.Author] = struct{}{}
		}
	}
	return authors
}

func distinctSlugs(tags []pulse.TopicTag) []string {
	seen := make(map[string]struct{}, len(tags))
	slugs := make([]string, 0, len(tags))
	for _, tag := range tags {
		if _, dup := seen[tag.Slug]; dup {
			continue
		}
		seen[tag.Slug] = struct{}{}
		slugs = append(slugs, tag.Slug)
	}
	return slugs
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for author := range a {
		if _, ok := b[author]; ok {
			n++
		}
	}
	return n
}
