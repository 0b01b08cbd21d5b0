package network

import (
	"sort"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/model"
)

// Coordinators flags nodes with betweenness > cfg.Network.CoordinatorBetweennessThreshold
// or degree centrality > cfg.Network.CoordinatorDegreeThreshold, scores them, and
// assigns a role label, per spec.md §4.8 and the thresholds in §8.
func Coordinators(cfg *config.Config, g *model.VesselGraph, scores []model.CentralityScores) []model.Coordinator {
	var out []model.Coordinator
	for _, s := range scores {
		if s.Betweenness <= cfg.Network.CoordinatorBetweennessThreshold && s.Degree <= cfg.Network.CoordinatorDegreeThreshold {
			continue
		}
		out = append(out, model.Coordinator{
			MMSI:        s.MMSI,
			Betweenness: s.Betweenness,
			Degree:      s.Degree,
			Score:       100*s.Betweenness + 50*s.Degree,
			Role:        coordinatorRole(s.Betweenness, s.Degree),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].MMSI < out[j].MMSI
	})
	return out
}

func coordinatorRole(betweenness, degree float64) string {
	switch {
	case betweenness > 0.1 && degree > 0.2:
		return model.RoleCentral
	case betweenness > 0.05:
		return model.RoleBridge
	case degree > 0.15:
		return model.RoleHub
	default:
		return model.RoleMinor
	}
}

// Motherships flags non-fishing nodes with at least 2 neighbors, at least 2
// of which are fishing vessels, per spec.md §4.8.
func Motherships(g *model.VesselGraph) []model.Mothership {
	var out []model.Mothership
	for i := 0; i < g.NumNodes(); i++ {
		node := g.Nodes[i]
		if node.IsFishing {
			continue
		}

		neighbors := g.Neighbors(i)
		if len(neighbors) < 2 {
			continue
		}

		fishingConnections := 0
		totalEncounters := 0
		for _, j := range neighbors {
			if w, ok := g.EdgeWeight(i, j); ok {
				totalEncounters += w
			}
			if g.Nodes[j].IsFishing {
				fishingConnections++
			}
		}
		if fishingConnections < 2 {
			continue
		}

		out = append(out, model.Mothership{
			MMSI:               node.MMSI,
			FishingConnections: fishingConnections,
			TotalEncounters:    totalEncounters,
			Score:              10*float64(fishingConnections) + 5*float64(totalEncounters),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].MMSI < out[j].MMSI
	})
	return out
}
