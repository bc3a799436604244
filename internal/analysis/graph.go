package analysis

import (
	"fmt"

	"pulse/internal/domain/pulse"
)

// NodeRegistry assigns stable node indices to topic slugs in first-seen
// order. Indices only ever append, never reassign, so two graphs built from
// the same registry cannot disagree about node identity.
type NodeRegistry struct {
	indexBySlug map[string]int
	slugs       []string
}

// NewNodeRegistry creates an empty registry.
func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{indexBySlug: make(map[string]int)}
}

// Index returns the node index for slug, assigning the next index if the
// slug has not been seen before.
func (r *NodeRegistry) Index(slug string) int {
	if idx, ok := r.indexBySlug[slug]; ok {
		return idx
	}
	idx := len(r.slugs)
	r.indexBySlug[slug] = idx
	r.slugs = append(r.slugs, slug)
	return idx
}

// Lookup returns the index for slug without assigning one.
func (r *NodeRegistry) Lookup(slug string) (int, bool) {
	idx, ok := r.indexBySlug[slug]
	return idx, ok
}

// Len returns the number of registered nodes.
func (r *NodeRegistry) Len() int { return len(r.slugs) }

// Slug returns the slug registered at index idx.
func (r *NodeRegistry) Slug(idx int) string { return r.slugs[idx] }

// Slugs returns all registered slugs in index order.
func (r *NodeRegistry) Slugs() []string { return r.slugs }

// graphEdge is one undirected edge with its payload. Weight carries shared
// authors; Posts carries shared posts.
type graphEdge struct {
	a, b   int
	weight float64
	posts  int
}

// TopicGraph is the undirected co-occurrence graph.
type TopicGraph struct {
	reg   *NodeRegistry
	adj   [][]int
	edges []graphEdge
}

// DirectedTopicGraph is the bidirectional directed rendering of the same
// co-occurrence data, built over the same registry. It exists solely so
// PageRank, which is defined over directed graphs, can run against an
// undirected topology.
type DirectedTopicGraph struct {
	reg *NodeRegistry
	out [][]int
}

// BuildTopicGraph builds the undirected topic graph from co-occurrence
// edges, registering nodes in first-seen order.
func BuildTopicGraph(data []pulse.CooccurrenceEdge, reg *NodeRegistry) *TopicGraph {
	g := &TopicGraph{reg: reg}
	for _, row := range data {
		a := reg.Index(row.TopicA)
		b := reg.Index(row.TopicB)
		g.grow(reg.Len())
		g.adj[a] = append(g.adj[a], b)
		g.adj[b] = append(g.adj[b], a)
		g.edges = append(g.edges, graphEdge{
			a:      a,
			b:      b,
			weight: float64(row.SharedAuthors),
			posts:  row.SharedPosts,
		})
	}
	g.grow(reg.Len())
	return g
}

func (g *TopicGraph) grow(n int) {
	for len(g.adj) < n {
		g.adj = append(g.adj, nil)
	}
}

// NumNodes returns the node count.
func (g *TopicGraph) NumNodes() int { return len(g.adj) }

// NumEdges returns the undirected edge count.
func (g *TopicGraph) NumEdges() int { return len(g.edges) }

// Registry returns the node registry the graph was built over.
func (g *TopicGraph) Registry() *NodeRegistry { return g.reg }

// BuildDirectedGraph builds the bidirectional directed graph over the same
// registry. Every slug must already be registered by the undirected build;
// encountering an unknown slug means the two graphs were constructed from
// different data, which is a construction bug and is reported as an error
// rather than tolerated.
func BuildDirectedGraph(data []pulse.CooccurrenceEdge, reg *NodeRegistry) (*DirectedTopicGraph, error) {
	d := &DirectedTopicGraph{
		reg: reg,
		out: make([][]int, reg.Len()),
	}
	for _, row := range data {
		a, okA := reg.Lookup(row.TopicA)
		b, okB := reg.Lookup(row.TopicB)
		if !okA || !okB {
			return nil, fmt.Errorf(
				"node index mismatch: edge %s-%s references a topic missing from the registry",
				row.TopicA, row.TopicB,
			)
		}
		d.out[a] = append(d.out[a], b)
		d.out[b] = append(d.out[b], a)
	}
	return d, nil
}

// NumNodes returns the node count.
func (d *DirectedTopicGraph) NumNodes() int { return len(d.out) }

// ConnectedComponents returns the connected components of the undirected
// graph as sets of node indices, in order of lowest contained index.
func (g *TopicGraph) ConnectedComponents() [][]int {
	n := g.NumNodes()
	visited := make([]bool, n)
	var components [][]int

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		var comp []int
		queue := []int{start}
		visited[start] = true
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			comp = append(comp, node)
			for _, next := range g.adj[node] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		components = append(components, comp)
	}

	return components
}
