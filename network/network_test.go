package network

import (
	"testing"
	"time"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/geo"
	"github.com/oceanwake/darkfleet/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cliqueFixes(mmsis []uint32, ts time.Time, lat, lon float32) []model.Fix {
	var out []model.Fix
	for _, mmsi := range mmsis {
		out = append(out, model.Fix{MMSI: mmsi, Timestamp: ts, Lat: lat, Lon: lon})
	}
	return out
}

func eventFor(mmsi uint32, ts time.Time, lat, lon float32) model.ScoredEvent {
	return model.ScoredEvent{
		MMSI:             mmsi,
		Start:            ts,
		End:              ts.Add(time.Hour),
		MidpointLocation: geo.Point(float64(lat), float64(lon)),
		Enrichment:       &model.Enrichment{TotalScore: 0.5},
	}
}

// twoCliquesWithBridge builds the synthetic graph named in spec.md §8's
// scenario 6: two 5-cliques connected by a single bridge edge.
func twoCliquesWithBridge(cfg *config.Config) (*model.VesselGraph, []model.ScoredEvent, []model.Fix) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cliqueA := []uint32{1, 2, 3, 4, 5}
	cliqueB := []uint32{6, 7, 8, 9, 10}

	var events []model.ScoredEvent
	var fixes []model.Fix

	// Each clique co-locates at its own coordinate so every member is mutually
	// within the proximity threshold during every other member's event.
	for _, mmsi := range cliqueA {
		events = append(events, eventFor(mmsi, ts, 10.0, 20.0))
		fixes = append(fixes, cliqueFixes(cliqueA, ts.Add(time.Minute), 10.0, 20.0)...)
	}
	for _, mmsi := range cliqueB {
		events = append(events, eventFor(mmsi, ts, 80.0, 170.0))
		fixes = append(fixes, cliqueFixes(cliqueB, ts.Add(time.Minute), 80.0, 170.0)...)
	}

	// Bridge: vessel 5 and vessel 6 additionally co-occur once, far from both
	// cliques' clusters but still within threshold of each other.
	bridgeEvent := eventFor(5, ts.Add(2*time.Hour), 45.0, 95.0)
	events = append(events, bridgeEvent)
	fixes = append(fixes, model.Fix{MMSI: 5, Timestamp: ts.Add(2*time.Hour + time.Minute), Lat: 45.0, Lon: 95.0})
	fixes = append(fixes, model.Fix{MMSI: 6, Timestamp: ts.Add(2*time.Hour + time.Minute), Lat: 45.0, Lon: 95.0})

	g := Build(cfg, events, fixes, nil)
	return g, events, fixes
}

func TestBuildGraphHasNoSelfLoops(t *testing.T) {
	cfg := config.Default()
	g, _, _ := twoCliquesWithBridge(&cfg)
	for _, e := range g.Edges() {
		assert.NotEqual(t, e[0], e[1])
		assert.Greater(t, e[2], 0)
	}
}

func TestCentralitiesSingleNodeAreZero(t *testing.T) {
	g := model.NewVesselGraph()
	g.NodeIndex(model.VesselNode{MMSI: 1})

	scores := Centralities(g)
	require.Len(t, scores, 1)
	assert.Equal(t, 0.0, scores[0].Degree)
	assert.Equal(t, 0.0, scores[0].Betweenness)
	assert.Equal(t, 0.0, scores[0].Closeness)
}

func TestCommunitiesFindsTwoCliques(t *testing.T) {
	cfg := config.Default()
	g, _, _ := twoCliquesWithBridge(&cfg)

	communities := Communities(&cfg, g)
	assert.Len(t, communities, 2)
	for _, c := range communities {
		assert.Equal(t, 5, c.Size)
	}
}

func TestBridgeNodeHasHighestBetweenness(t *testing.T) {
	cfg := config.Default()
	g, _, _ := twoCliquesWithBridge(&cfg)

	scores := Centralities(g)
	idx5, ok := g.Index(5)
	require.True(t, ok)
	idx6, ok := g.Index(6)
	require.True(t, ok)

	var maxBetweenness float64
	var maxMMSI uint32
	for _, s := range scores {
		if s.Betweenness > maxBetweenness {
			maxBetweenness = s.Betweenness
			maxMMSI = s.MMSI
		}
	}
	assert.Contains(t, []uint32{g.Nodes[idx5].MMSI, g.Nodes[idx6].MMSI}, maxMMSI)
}

func TestMothershipRequiresTwoFishingNeighbors(t *testing.T) {
	g := model.NewVesselGraph()
	mothership := model.VesselNode{MMSI: 100, IsFishing: false}
	fishA := model.VesselNode{MMSI: 1, IsFishing: true}
	fishB := model.VesselNode{MMSI: 2, IsFishing: true}

	g.AddEncounter(100, 1, mothership, fishA, model.Encounter{})
	g.AddEncounter(100, 2, mothership, fishB, model.Encounter{})

	motherships := Motherships(g)
	require.Len(t, motherships, 1)
	assert.Equal(t, uint32(100), motherships[0].MMSI)
}

func TestMothershipExcludesFishingNode(t *testing.T) {
	g := model.NewVesselGraph()
	fishHub := model.VesselNode{MMSI: 100, IsFishing: true}
	fishA := model.VesselNode{MMSI: 1, IsFishing: true}
	fishB := model.VesselNode{MMSI: 2, IsFishing: true}

	g.AddEncounter(100, 1, fishHub, fishA, model.Encounter{})
	g.AddEncounter(100, 2, fishHub, fishB, model.Encounter{})

	assert.Empty(t, Motherships(g))
}

func TestAnalyzeEmptyEventsProducesEmptyResult(t *testing.T) {
	cfg := config.Default()
	result := Analyze(&cfg, nil, nil, nil)
	assert.Equal(t, 0, result.Summary.NumNodes)
	assert.Empty(t, result.Communities)
	assert.Empty(t, result.Coordinators)
}
