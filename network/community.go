package network

import (
	"sort"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/model"
)

const maxLouvainPasses = 100

// Communities detects vessel communities with a single-level greedy
// modularity optimization in the style of Louvain's first phase, per
// spec.md §4.8. No multi-level aggregation pass follows — the example
// corpus ships no graph/community-detection library (see DESIGN.md), so
// this is hand-rolled; nodes are visited in ascending index order, which
// keeps the result reproducible, and cfg.Network.LouvainSeed is passed to
// visitOrder but does not change that order. Singleton communities are
// discarded.
func Communities(cfg *config.Config, g *model.VesselGraph) []model.Community {
	n := g.NumNodes()
	if n == 0 {
		return nil
	}

	weightedDegree := make([]float64, n)
	var totalWeight float64
	for i := 0; i < n; i++ {
		for _, j := range g.Neighbors(i) {
			w, _ := g.EdgeWeight(i, j)
			weightedDegree[i] += float64(w)
		}
		totalWeight += weightedDegree[i]
	}
	m := totalWeight / 2
	if m == 0 {
		return nil
	}

	order := visitOrder(n, cfg.Network.LouvainSeed)

	comm := make([]int, n)
	commTotalDegree := make([]float64, n)
	for i := 0; i < n; i++ {
		comm[i] = i
		commTotalDegree[i] = weightedDegree[i]
	}

	for pass := 0; pass < maxLouvainPasses; pass++ {
		moved := false
		for _, i := range order {
			current := comm[i]
			commTotalDegree[current] -= weightedDegree[i]

			neighborWeight := make(map[int]float64)
			for _, j := range g.Neighbors(i) {
				w, _ := g.EdgeWeight(i, j)
				neighborWeight[comm[j]] += float64(w)
			}

			bestComm := current
			bestGain := neighborWeight[current] - commTotalDegree[current]*weightedDegree[i]/(2*m)

			candidates := make([]int, 0, len(neighborWeight))
			for c := range neighborWeight {
				candidates = append(candidates, c)
			}
			sort.Ints(candidates)

			for _, c := range candidates {
				gain := neighborWeight[c] - commTotalDegree[c]*weightedDegree[i]/(2*m)
				if gain > bestGain+1e-12 {
					bestGain = gain
					bestComm = c
				}
			}

			comm[i] = bestComm
			commTotalDegree[bestComm] += weightedDegree[i]
			if bestComm != current {
				moved = true
			}
		}
		if !moved {
			break
		}
	}

	return buildCommunities(g, comm)
}

// visitOrder returns node indices 0..n-1 in ascending order. The seed is
// accepted (and named in cfg) for API symmetry with original_source's
// seeded Louvain call, but ascending-index order is already fully
// deterministic, so no shuffling is applied.
func visitOrder(n int, _ int64) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func buildCommunities(g *model.VesselGraph, comm []int) []model.Community {
	byComm := make(map[int][]int)
	for i, c := range comm {
		byComm[c] = append(byComm[c], i)
	}

	commIDs := make([]int, 0, len(byComm))
	for c, members := range byComm {
		if len(members) < 2 {
			continue // discard singletons, per spec.md §4.8
		}
		commIDs = append(commIDs, c)
	}
	sort.Ints(commIDs)

	out := make([]model.Community, 0, len(commIDs))
	for _, c := range commIDs {
		members := byComm[c]
		sort.Ints(members)
		out = append(out, buildCommunity(g, members))
	}
	return out
}

func buildCommunity(g *model.VesselGraph, members []int) model.Community {
	inCommunity := make(map[int]struct{}, len(members))
	for _, i := range members {
		inCommunity[i] = struct{}{}
	}

	var totalRisk float64
	var totalEvents int
	internalEdges := 0
	for _, i := range members {
		totalRisk += g.Nodes[i].TotalRisk
		totalEvents += g.Nodes[i].EventCount
		for _, j := range g.Neighbors(i) {
			if j > i {
				if _, ok := inCommunity[j]; ok {
					internalEdges++
				}
			}
		}
	}

	size := len(members)
	avgRisk := totalRisk / float64(size)
	dens := density(size, internalEdges)

	return model.Community{
		Members:        members,
		Size:           size,
		TotalRiskScore: totalRisk,
		AvgRiskScore:   avgRisk,
		TotalEvents:    totalEvents,
		Density:        dens,
		SuspicionLevel: suspicionLevel(avgRisk, dens),
	}
}

// suspicionLevel applies the thresholds from spec.md §8.
func suspicionLevel(avgRiskPerVessel, dens float64) string {
	switch {
	case avgRiskPerVessel > 5 && dens > 0.5:
		return "VERY_HIGH"
	case avgRiskPerVessel > 3 || dens > 0.4:
		return "HIGH"
	case avgRiskPerVessel > 1.5 || dens > 0.25:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
