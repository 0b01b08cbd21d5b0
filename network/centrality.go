package network

import (
	"math"

	"github.com/oceanwake/darkfleet/model"
)

// Centralities computes degree, betweenness, and closeness centrality for
// every node, per spec.md §4.8. Closeness is computed only over the largest
// connected component, per spec.md §4.8's explicit carve-out for
// disconnected graphs; nodes outside it get closeness 0. With zero or one
// node, every centrality is 0 (spec.md §4.8's failure semantics).
func Centralities(g *model.VesselGraph) []model.CentralityScores {
	n := g.NumNodes()
	out := make([]model.CentralityScores, n)
	for i := 0; i < n; i++ {
		out[i].MMSI = g.Nodes[i].MMSI
	}
	if n <= 1 {
		return out
	}

	degree := degreeCentrality(g)
	betweenness := betweennessCentrality(g)
	closeness := closenessCentralityOnLargestComponent(g)

	for i := 0; i < n; i++ {
		out[i].Degree = degree[i]
		out[i].Betweenness = betweenness[i]
		out[i].Closeness = closeness[i]
	}
	return out
}

func degreeCentrality(g *model.VesselGraph) []float64 {
	n := g.NumNodes()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(g.Degree(i)) / float64(n-1)
	}
	return out
}

// betweennessCentrality runs Brandes' algorithm over the unweighted graph
// (hop count, not edge weight, is the shortest-path metric) and normalizes
// by the number of node pairs excluding the node itself, matching the
// convention spec.md's suspicion thresholds (§8) are calibrated against.
func betweennessCentrality(g *model.VesselGraph) []float64 {
	n := g.NumNodes()
	betweenness := make([]float64, n)

	for s := 0; s < n; s++ {
		stack := make([]int, 0, n)
		predecessors := make([][]int, n)
		sigma := make([]float64, n)
		dist := make([]int, n)
		for i := range dist {
			dist[i] = -1
		}
		sigma[s] = 1
		dist[s] = 0

		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range g.Neighbors(v) {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					predecessors[w] = append(predecessors[w], v)
				}
			}
		}

		delta := make([]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range predecessors[w] {
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
			if w != s {
				betweenness[w] += delta[w]
			}
		}
	}

	// Undirected graph: each shortest path was counted from both endpoints.
	norm := 1.0
	if n > 2 {
		norm = 2.0 / float64((n-1)*(n-2))
	}
	for i := range betweenness {
		betweenness[i] = betweenness[i] / 2 * norm
	}
	return betweenness
}

func closenessCentralityOnLargestComponent(g *model.VesselGraph) []float64 {
	n := g.NumNodes()
	out := make([]float64, n)

	component := largestComponent(g)
	if len(component) <= 1 {
		return out
	}
	inComponent := make(map[int]struct{}, len(component))
	for _, i := range component {
		inComponent[i] = struct{}{}
	}

	for _, s := range component {
		dist := bfsDistances(g, s)
		var sum int
		reachable := 0
		for _, i := range component {
			if i == s {
				continue
			}
			if dist[i] >= 0 {
				sum += dist[i]
				reachable++
			}
		}
		if sum > 0 {
			out[s] = float64(reachable) / float64(sum)
		}
	}
	return out
}

func bfsDistances(g *model.VesselGraph, s int) []int {
	n := g.NumNodes()
	dist := make([]int, n)
	for i := range dist {
		dist[i] = -1
	}
	dist[s] = 0
	queue := []int{s}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range g.Neighbors(v) {
			if dist[w] < 0 {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
		}
	}
	return dist
}

// largestComponent returns the node indices of the largest connected
// component, breaking ties by the component containing the lowest-indexed
// node, for determinism.
func largestComponent(g *model.VesselGraph) []int {
	n := g.NumNodes()
	visited := make([]bool, n)
	var best []int

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		var component []int
		queue := []int{i}
		visited[i] = true
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			component = append(component, v)
			for _, w := range g.Neighbors(v) {
				if !visited[w] {
					visited[w] = true
					queue = append(queue, w)
				}
			}
		}
		if len(component) > len(best) {
			best = component
		}
	}
	return best
}

// density is an auxiliary used by both the community suspicion-level rule
// and the network summary: edges present over edges possible.
func density(numNodes, numEdges int) float64 {
	if numNodes < 2 {
		return 0
	}
	possible := float64(numNodes*(numNodes-1)) / 2
	return float64(numEdges) / math.Max(1, possible)
}
