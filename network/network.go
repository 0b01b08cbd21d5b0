package network

import (
	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/model"
)

// Result bundles every C8 output for one pipeline run.
type Result struct {
	Graph         *model.VesselGraph
	Centralities  []model.CentralityScores
	Communities   []model.Community
	Coordinators  []model.Coordinator
	Motherships   []model.Mothership
	Summary       model.NetworkSummary
}

// Analyze runs the full C8 pipeline stage: build the graph, compute
// centralities, detect communities, and classify coordinator/mothership
// roles, per spec.md §4.8.
func Analyze(cfg *config.Config, events []model.ScoredEvent, fixes []model.Fix, membership model.FishingFleetMembership) Result {
	g := Build(cfg, events, fixes, membership)
	centralities := Centralities(g)
	communities := Communities(cfg, g)
	coordinators := Coordinators(cfg, g, centralities)
	motherships := Motherships(g)

	avgDegree := 0.0
	if g.NumNodes() > 0 {
		var degreeSum int
		for i := 0; i < g.NumNodes(); i++ {
			degreeSum += g.Degree(i)
		}
		avgDegree = float64(degreeSum) / float64(g.NumNodes())
	}

	return Result{
		Graph:        g,
		Centralities: centralities,
		Communities:  communities,
		Coordinators: coordinators,
		Motherships:  motherships,
		Summary: model.NetworkSummary{
			NumNodes:        g.NumNodes(),
			NumEdges:        g.NumEdges(),
			Density:         density(g.NumNodes(), g.NumEdges()),
			AvgDegree:       avgDegree,
			NumCommunities:  len(communities),
			NumCoordinators: len(coordinators),
			NumMotherships:  len(motherships),
		},
	}
}
