package spatial

import (
	"testing"
	"time"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/geo"
	"github.com/oceanwake/darkfleet/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredEvent(mmsi uint32, lat, lon, score float64, start time.Time) model.ScoredEvent {
	return model.ScoredEvent{
		MMSI:             mmsi,
		Start:            start,
		MidpointLocation: geo.Point(lat, lon),
		Enrichment:       &model.Enrichment{TotalScore: score},
	}
}

func TestClusterGroupsNearbyEvents(t *testing.T) {
	cfg := config.Default()
	cfg.DBSCAN.MinSamples = 3
	now := time.Now()

	events := []model.ScoredEvent{
		scoredEvent(1, 10.0, 20.0, 0.5, now),
		scoredEvent(2, 10.01, 20.01, 0.6, now),
		scoredEvent(3, 10.02, 20.02, 0.7, now),
		scoredEvent(4, -40.0, 100.0, 0.2, now), // isolated, should be noise
	}

	out, clusters := Cluster(&cfg, events)
	require.Len(t, out, 4)
	require.Len(t, clusters, 1)
	assert.Equal(t, 3, clusters[0].EventCount)

	noiseCount := 0
	for _, e := range out {
		if e.Enrichment.ClusterID == -1 {
			noiseCount++
		}
	}
	assert.Equal(t, 1, noiseCount)
}

func TestClusterEmptyInput(t *testing.T) {
	cfg := config.Default()
	out, clusters := Cluster(&cfg, nil)
	assert.Empty(t, out)
	assert.Empty(t, clusters)
}

func TestClusterIsHotspotThresholds(t *testing.T) {
	cfg := config.Default()
	cfg.DBSCAN.MinSamples = 2
	cfg.Grid.MinEventsForHotspot = 10
	now := time.Now()

	var events []model.ScoredEvent
	for i := 0; i < 10; i++ {
		events = append(events, scoredEvent(uint32(i), 10.0, 20.0, 0.6, now))
	}

	_, clusters := Cluster(&cfg, events)
	require.Len(t, clusters, 1)
	assert.True(t, clusters[0].IsHotspot)
}

func TestGridAggregatesAndSortsByCount(t *testing.T) {
	cfg := config.Default()
	now := time.Now()
	events := []model.ScoredEvent{
		scoredEvent(1, 10.0, 20.0, 0.5, now),
		scoredEvent(2, 10.1, 20.1, 0.5, now),
		scoredEvent(3, 80.0, 170.0, 0.5, now),
	}

	cells := Grid(&cfg, events)
	require.Len(t, cells, 2)
	assert.Equal(t, 2, cells[0].EventCount)
}

func TestTemporalHotspotsGroupsByMonth(t *testing.T) {
	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	events := []model.ScoredEvent{
		scoredEvent(1, 10.0, 20.0, 0.5, jan),
		scoredEvent(2, 10.0, 20.0, 0.5, jan),
		scoredEvent(3, 10.0, 20.0, 0.5, feb),
	}

	patterns := TemporalHotspots(events)
	require.Len(t, patterns, 2)
	assert.Equal(t, 1, patterns[0].Month)
	assert.Equal(t, 2, patterns[0].EventCount)
}

func TestMPAHotspotsEmptyWithStubPredicate(t *testing.T) {
	now := time.Now()
	events := []model.ScoredEvent{scoredEvent(1, 10.0, 20.0, 0.9, now)}
	mpas := model.MPATable{"1": model.MPA{WDPAID: "1", Name: "Test MPA"}}

	hotspots := MPAHotspots(events, mpas)
	assert.Empty(t, hotspots, "InMPA is a truthful stub that always returns false")
}

func TestHeatmapNormalizesIntensity(t *testing.T) {
	cfg := config.Default()
	now := time.Now()
	var events []model.ScoredEvent
	for i := 0; i < 5; i++ {
		events = append(events, scoredEvent(uint32(i), 10.0, 20.0, 0.5, now))
	}
	events = append(events, scoredEvent(99, 50.0, 60.0, 0.5, now))

	cells := Heatmap(&cfg, events)
	require.NotEmpty(t, cells)
	assert.Equal(t, 1.0, cells[0].Intensity)
}
