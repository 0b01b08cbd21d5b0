// Package network implements C8: building the vessel coordination graph
// from scored-event co-occurrence, computing centralities, detecting
// communities, and classifying coordinator/mothership roles, per spec.md
// §4.8.
package network

import (
	"sort"
	"time"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/geo"
	"github.com/oceanwake/darkfleet/model"
	"github.com/oceanwake/darkfleet/record"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
)

// Build constructs the vessel graph described in spec.md §4.8: one node per
// MMSI appearing in any scored event, and an edge between two vessels for
// every event during which both had at least one fix within
// ProximityThresholdKM of the event's location during its [start, end]
// window. This reads the fix stream directly rather than the proximity
// index, since the event window and distance here are independent
// parameters from C3's.
func Build(cfg *config.Config, events []model.ScoredEvent, fixes []model.Fix, membership model.FishingFleetMembership) *model.VesselGraph {
	g := model.NewVesselGraph()
	if len(events) == 0 {
		return g
	}

	fixesByVessel := record.PerVessel(fixes)
	vesselTypes := representativeVesselTypes(fixes)

	eventCounts := make(map[uint32]int)
	riskSums := make(map[uint32]float64)
	for _, e := range events {
		eventCounts[e.MMSI]++
		if e.Enrichment != nil {
			riskSums[e.MMSI] += e.Enrichment.TotalScore
		}
	}

	nodeFor := func(mmsi uint32) model.VesselNode {
		count := eventCounts[mmsi]
		avg := 0.0
		if count > 0 {
			avg = riskSums[mmsi] / float64(count)
		}
		return model.VesselNode{
			MMSI:       mmsi,
			VesselType: vesselTypes[mmsi],
			EventCount: count,
			TotalRisk:  riskSums[mmsi],
			AvgRisk:    avg,
			IsFishing:  membership.IsFishingVessel(mmsi),
		}
	}

	// Ensure every scored-event vessel has a node even if it never gains an
	// edge, per spec.md §3 ("one node per MMSI appearing in any scored event").
	mmsis := lo.Keys(eventCounts)
	sort.Slice(mmsis, func(i, j int) bool { return mmsis[i] < mmsis[j] })
	for _, mmsi := range mmsis {
		g.NodeIndex(nodeFor(mmsi))
	}

	for _, e := range events {
		candidates := vesselsNearEvent(fixesByVessel, e, cfg.Network.ProximityThresholdKM)
		candidates[e.MMSI] = struct{}{}

		members := lo.Keys(candidates)
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })

		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := members[i], members[j]
				g.AddEncounter(a, b, nodeFor(a), nodeFor(b), model.Encounter{
					Timestamp: e.Start,
					Location:  e.MidpointLocation,
				})
			}
		}
	}

	return g
}

// representativeVesselTypes picks the first non-empty VesselType seen for
// each MMSI in the fix stream.
func representativeVesselTypes(fixes []model.Fix) map[uint32]string {
	out := make(map[uint32]string)
	for _, f := range fixes {
		if f.VesselType == "" {
			continue
		}
		if _, ok := out[f.MMSI]; !ok {
			out[f.MMSI] = f.VesselType
		}
	}
	return out
}

// vesselsNearEvent returns the distinct MMSIs (other than the event's own)
// with at least one fix inside the event's [start, end] window whose
// location falls within thresholdKM of the event's midpoint.
func vesselsNearEvent(fixesByVessel map[uint32][]model.Fix, event model.ScoredEvent, thresholdKM float64) map[uint32]struct{} {
	out := make(map[uint32]struct{})
	for mmsi, vesselFixes := range fixesByVessel {
		if mmsi == event.MMSI {
			continue
		}
		if fixInWindowNear(vesselFixes, event.Start, event.End, event.MidpointLocation, thresholdKM) {
			out[mmsi] = struct{}{}
		}
	}
	return out
}

func fixInWindowNear(fixes []model.Fix, start, end time.Time, location orb.Point, thresholdKM float64) bool {
	for _, f := range fixes {
		if f.Timestamp.Before(start) || f.Timestamp.After(end) {
			continue
		}
		if geo.HaversineKM(f.Point(), location) <= thresholdKM {
			return true
		}
	}
	return false
}
