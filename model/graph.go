package model

import (
	"time"

	"github.com/paulmach/orb"
)

// VesselNode is a graph node's payload, per spec.md §3.
type VesselNode struct {
	MMSI       uint32
	VesselType string
	EventCount int
	TotalRisk  float64
	AvgRisk    float64
	IsFishing  bool
}

// Encounter is a single co-occurrence event logged on a graph edge.
type Encounter struct {
	Timestamp time.Time
	Location  orb.Point
}

// VesselGraph is an undirected weighted graph over vessels, built once per
// run and read thereafter. It is represented as contiguous node and edge
// arrays plus a per-node list of incident edge indices — indices only, no
// back-references — so every algorithm operates over an immutable view with
// no cycles in ownership.
type VesselGraph struct {
	Nodes []VesselNode
	index map[uint32]int // MMSI -> index into Nodes/adjacency

	// edges is the deduplicated edge list; edgeOf maps an (i,j) index pair
	// (i<j) to its position in edges.
	edges  []edge
	edgeOf map[[2]int]int

	// adjacency[i] lists the edge indices incident to node i, appended to by
	// AddEncounter and consulted by every read-only graph algorithm.
	adjacency [][]int
}

type edge struct {
	a, b      int // node indices, a < b
	weight    int
	encounters []Encounter
}

// NewVesselGraph returns an empty graph ready for AddNode/AddEncounter calls.
func NewVesselGraph() *VesselGraph {
	return &VesselGraph{
		index:  make(map[uint32]int),
		edgeOf: make(map[[2]int]int),
	}
}

// NodeIndex returns the node's index, adding it if not already present.
func (g *VesselGraph) NodeIndex(node VesselNode) int {
	if i, ok := g.index[node.MMSI]; ok {
		return i
	}
	i := len(g.Nodes)
	g.Nodes = append(g.Nodes, node)
	g.index[node.MMSI] = i
	g.adjacency = append(g.adjacency, nil)
	return i
}

// Index returns the node index for an MMSI, and whether it exists.
func (g *VesselGraph) Index(mmsi uint32) (int, bool) {
	i, ok := g.index[mmsi]
	return i, ok
}

// AddEncounter increments the weight of the edge between two distinct
// vessels and appends to its encounter log. Self-loops are rejected, per
// spec.md's invariant that the graph has none.
func (g *VesselGraph) AddEncounter(mmsiA, mmsiB uint32, nodeA, nodeB VesselNode, enc Encounter) {
	if mmsiA == mmsiB {
		return
	}
	i := g.NodeIndex(nodeA)
	j := g.NodeIndex(nodeB)
	if i == j {
		return
	}
	if i > j {
		i, j = j, i
	}
	key := [2]int{i, j}
	if idx, ok := g.edgeOf[key]; ok {
		g.edges[idx].weight++
		g.edges[idx].encounters = append(g.edges[idx].encounters, enc)
		return
	}
	g.edgeOf[key] = len(g.edges)
	g.edges = append(g.edges, edge{a: i, b: j, weight: 1, encounters: []Encounter{enc}})
	g.adjacency[i] = append(g.adjacency[i], len(g.edges)-1)
	g.adjacency[j] = append(g.adjacency[j], len(g.edges)-1)
}

// NumNodes returns the number of vessel nodes in the graph.
func (g *VesselGraph) NumNodes() int { return len(g.Nodes) }

// NumEdges returns the number of distinct vessel-pair edges in the graph.
func (g *VesselGraph) NumEdges() int { return len(g.edges) }

// Neighbors returns the node indices adjacent to node i.
func (g *VesselGraph) Neighbors(i int) []int {
	out := make([]int, 0, len(g.adjacency[i]))
	for _, eidx := range g.adjacency[i] {
		e := g.edges[eidx]
		if e.a == i {
			out = append(out, e.b)
		} else {
			out = append(out, e.a)
		}
	}
	return out
}

// Degree returns the number of distinct neighbors of node i.
func (g *VesselGraph) Degree(i int) int {
	return len(g.adjacency[i])
}

// EdgeWeight returns the weight of the edge between nodes i and j, and
// whether the edge exists.
func (g *VesselGraph) EdgeWeight(i, j int) (int, bool) {
	if i > j {
		i, j = j, i
	}
	idx, ok := g.edgeOf[[2]int{i, j}]
	if !ok {
		return 0, false
	}
	return g.edges[idx].weight, true
}

// Encounters returns the encounter log for the edge between i and j.
func (g *VesselGraph) Encounters(i, j int) []Encounter {
	if i > j {
		i, j = j, i
	}
	idx, ok := g.edgeOf[[2]int{i, j}]
	if !ok {
		return nil
	}
	return g.edges[idx].encounters
}

// Edges returns every edge as (i, j, weight) triples, i < j.
func (g *VesselGraph) Edges() [][3]int {
	out := make([][3]int, len(g.edges))
	for k, e := range g.edges {
		out[k] = [3]int{e.a, e.b, e.weight}
	}
	return out
}

// Community is a set of vessel node indices produced by community detection,
// plus aggregate risk statistics, per spec.md §3.
type Community struct {
	Members []int // node indices into the owning VesselGraph

	Size            int
	TotalRiskScore  float64
	AvgRiskScore    float64
	TotalEvents     int
	Density         float64
	SuspicionLevel  string
}
