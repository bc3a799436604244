package analysis

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"pulse/internal/domain/pulse"
)

const (
	// DefaultDamping is the standard PageRank damping factor.
	DefaultDamping = 0.85

	maxIterations  = 100
	convergenceTol = 1e-6
)

// ComputeAllCentrality computes betweenness, eigenvector and PageRank for
// every node. Both graphs must share the same node-index assignment; a size
// mismatch indicates a construction bug and is returned as an error, never
// silently recovered. An empty graph yields an empty map.
func ComputeAllCentrality(g *TopicGraph, d *DirectedTopicGraph, damping float64) (map[int]pulse.CentralityMetrics, error) {
	if g.NumNodes() != d.NumNodes() {
		return nil, fmt.Errorf(
			"graph invariant violation: undirected graph has %d nodes, directed has %d",
			g.NumNodes(), d.NumNodes(),
		)
	}

	n := g.NumNodes()
	if n == 0 {
		return map[int]pulse.CentralityMetrics{}, nil
	}

	betweenness := betweennessCentrality(g)
	eigenvector := eigenvectorCentrality(g)
	pagerank := pageRank(d, damping)

	metrics := make(map[int]pulse.CentralityMetrics, n)
	for i := 0; i < n; i++ {
		metrics[i] = pulse.CentralityMetrics{
			Betweenness: betweenness[i],
			Eigenvector: eigenvector[i],
			PageRank:    pagerank[i],
		}
	}
	return metrics, nil
}

// betweennessCentrality computes shortest-path betweenness via Brandes'
// algorithm, normalized to [0,1]. Graphs with no edges short-circuit to
// all-zero: there are no paths for any node to sit on.
func betweennessCentrality(g *TopicGraph) []float64 {
	n := g.NumNodes()
	bc := make([]float64, n)

	if g.NumEdges() == 0 {
		if n > 0 {
			log.Warn().Int("nodes", n).
				Msg("betweenness: graph has no edges, skipping computation")
		}
		return bc
	}

	dist := make([]int, n)
	sigma := make([]float64, n)
	delta := make([]float64, n)
	preds := make([][]int, n)

	for s := 0; s < n; s++ {
		for i := 0; i < n; i++ {
			dist[i] = -1
			sigma[i] = 0
			delta[i] = 0
			preds[i] = preds[i][:0]
		}

		// BFS from s counting shortest paths.
		order := make([]int, 0, n)
		queue := []int{s}
		dist[s] = 0
		sigma[s] = 1
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			order = append(order, v)
			for _, w := range g.adj[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		// Dependency accumulation in reverse BFS order.
		for i := len(order) - 1; i >= 0; i-- {
			w := order[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				bc[w] += delta[w]
			}
		}
	}

	// Each pair is counted from both endpoints; dividing by (n-1)(n-2)
	// both halves the double count and rescales to [0,1].
	if n > 2 {
		scale := 1.0 / float64((n-1)*(n-2))
		for i := range bc {
			bc[i] *= scale
		}
	} else {
		for i := range bc {
			bc[i] = 0
		}
	}

	return bc
}

// eigenvectorCentrality computes eigenvector centrality via the power
// method, capped at 100 iterations. Each step iterates x + A*x rather than
// the bare A*x: the shift leaves the eigenvectors unchanged but keeps the
// iteration from oscillating on bipartite topologies (stars, paths), which
// co-occurrence graphs produce all the time. The output vector is
// L2-normalized, so individual values can legitimately exceed 0.5 on small
// connected graphs. Failure to converge falls back to all-zero values.
func eigenvectorCentrality(g *TopicGraph) []float64 {
	n := g.NumNodes()
	if n == 0 {
		return nil
	}
	if g.NumEdges() == 0 {
		if n == 1 {
			// A lone node is trivially its own unit eigenvector.
			return []float64{1.0}
		}
		log.Warn().Int("nodes", n).
			Msg("eigenvector: no edges, falling back to zero centrality")
		return make([]float64, n)
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / math.Sqrt(float64(n))
	}
	next := make([]float64, n)

	for iter := 0; iter < maxIterations; iter++ {
		for i := range next {
			next[i] = x[i]
		}
		for i := 0; i < n; i++ {
			for _, j := range g.adj[i] {
				next[i] += x[j]
			}
		}

		norm := 0.0
		for _, v := range next {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			break
		}

		diff := 0.0
		for i := range next {
			next[i] /= norm
			diff += math.Abs(next[i] - x[i])
		}
		x, next = next, x

		if diff < float64(n)*convergenceTol {
			return x
		}
	}

	log.Warn().Int("nodes", n).
		Msg("eigenvector: power method failed to converge, falling back to zeros")
	return make([]float64, n)
}

// pageRank computes PageRank over the directed graph. Dangling mass is
// redistributed uniformly so the result always sums to 1.0. Failure to
// converge falls back to the uniform distribution.
func pageRank(d *DirectedTopicGraph, damping float64) []float64 {
	n := d.NumNodes()
	if n == 0 {
		return nil
	}
	if damping <= 0 || damping >= 1 {
		damping = DefaultDamping
	}

	pr := make([]float64, n)
	next := make([]float64, n)
	uniform := 1 / float64(n)
	for i := range pr {
		pr[i] = uniform
	}

	for iter := 0; iter < maxIterations; iter++ {
		dangling := 0.0
		for i := 0; i < n; i++ {
			if len(d.out[i]) == 0 {
				dangling += pr[i]
			}
		}

		base := (1-damping)/float64(n) + damping*dangling/float64(n)
		for i := range next {
			next[i] = base
		}
		for i := 0; i < n; i++ {
			if len(d.out[i]) == 0 {
				continue
			}
			share := damping * pr[i] / float64(len(d.out[i]))
			for _, j := range d.out[i] {
				next[j] += share
			}
		}

		diff := 0.0
		for i := range next {
			diff += math.Abs(next[i] - pr[i])
		}
		pr, next = next, pr

		if diff < float64(n)*convergenceTol {
			return pr
		}
	}

	log.Warn().Int("nodes", n).
		Msg("pagerank: failed to converge, falling back to uniform distribution")
	out := make([]float64, n)
	for i := range out {
		out[i] = uniform
	}
	return out
}
