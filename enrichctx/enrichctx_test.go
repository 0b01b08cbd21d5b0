package enrichctx

import (
	"testing"
	"time"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/geo"
	"github.com/oceanwake/darkfleet/model"
	"github.com/oceanwake/darkfleet/proximity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidenceScoreFromIndex(t *testing.T) {
	ctx := FromIndex(2, 2) // coverage = 1.0
	score := ctx.ConfidenceScore(6, true)
	assert.InDelta(t, 0.5*1.0+0.3*1.0+0.2*1.0, score, 1e-9)
}

func TestConfidenceScoreSyntheticDropsCoverageWeight(t *testing.T) {
	ctx := Synthetic(1)
	score := ctx.ConfidenceScore(3, true)
	assert.InDelta(t, 0.6*1.0+0.4*1.0, score, 1e-9)
}

func TestConfidenceScoreSyntheticIsDeterministic(t *testing.T) {
	a := Synthetic(99)
	b := Synthetic(99)
	assert.Equal(t, a.ContinuouslyTransmittingCount(), b.ContinuouslyTransmittingCount())
}

func TestCoverageReliabilityNoNearbyVessels(t *testing.T) {
	ctx := FromIndex(0, 0)
	assert.Equal(t, 0.0, ctx.CoverageReliability())
}

func TestEnrichFastModeDoesNotRequireIndex(t *testing.T) {
	cfg := config.Default()
	event := model.DarkEvent{
		MMSI:             1,
		Start:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:              time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
		DurationHours:    1,
		MidpointLocation: geo.Point(10, 20),
	}

	out := Enrich(&cfg, []model.DarkEvent{event}, nil, nil, nil, true)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Enrichment)
	assert.GreaterOrEqual(t, out[0].Enrichment.ConfidenceScore, 0.0)
}

func TestEnrichFromIndexFindsNearbyVessel(t *testing.T) {
	cfg := config.Default()
	loc := geo.Point(10.0, 20.0)
	event := model.DarkEvent{
		MMSI:             1,
		Start:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:              time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
		DurationHours:    1,
		MidpointLocation: loc,
	}

	idx := &proximity.Index{
		Encounters: []model.ProximityEncounter{
			{
				TimeBin:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				Vessel1MMSI:     2,
				Vessel2MMSI:     3,
				Vessel1Location: loc,
				Vessel2Location: loc,
				DistanceKM:      1,
			},
		},
	}

	fixes := []model.Fix{
		{MMSI: 2, Timestamp: time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC), Lat: 10, Lon: 20},
	}

	out := Enrich(&cfg, []model.DarkEvent{event}, idx, fixes, nil, false)
	require.Len(t, out, 1)
	assert.True(t, out[0].Enrichment.ContinuouslyTransmittingNearby)
	assert.Greater(t, out[0].Enrichment.CoverageReliability, 0.0)
}

func TestCountTransmissionsInWindowExcludesBoundaries(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	fixes := []model.Fix{
		{Timestamp: start},
		{Timestamp: start.Add(30 * time.Minute)},
		{Timestamp: end},
	}
	assert.Equal(t, 1, countTransmissionsInWindow(fixes, start, end))
}
