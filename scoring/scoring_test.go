package scoring

import (
	"testing"
	"time"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/geo"
	"github.com/oceanwake/darkfleet/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEvent(mmsi uint32, durationHours float64, start time.Time) model.DarkEvent {
	return model.DarkEvent{
		MMSI:             mmsi,
		Start:            start,
		End:              start.Add(time.Duration(durationHours * float64(time.Hour))),
		DurationHours:    durationHours,
		MidpointLocation: geo.Point(0, 0), // outside all EEZ bands except the [-10,10] one
		Enrichment:       &model.Enrichment{},
	}
}

func TestScoreSubScoresSumToTotal(t *testing.T) {
	cfg := config.Default()
	events := []model.DarkEvent{baseEvent(1, 2, time.Now())}

	scored, err := Score(&cfg, events)
	require.NoError(t, err)
	require.Len(t, scored, 1)

	s := scored[0].Enrichment.Scores
	sum := s.Duration + s.Coverage + s.EEZ + s.Fishing + s.Repeat
	assert.InDelta(t, scored[0].Enrichment.TotalScore, sum, 1e-9)
	assert.GreaterOrEqual(t, scored[0].Enrichment.TotalScore, 0.0)
	assert.LessOrEqual(t, scored[0].Enrichment.TotalScore, 1.0)
}

func TestScoreDurationMonotonicity(t *testing.T) {
	cfg := config.Default()

	low, err := Score(&cfg, []model.DarkEvent{baseEvent(1, 1, time.Now())})
	require.NoError(t, err)
	high, err := Score(&cfg, []model.DarkEvent{baseEvent(1, 6, time.Now())})
	require.NoError(t, err)
	beyond, err := Score(&cfg, []model.DarkEvent{baseEvent(1, 12, time.Now())})
	require.NoError(t, err)

	assert.Less(t, low[0].Enrichment.Scores.Duration, high[0].Enrichment.Scores.Duration)
	assert.InDelta(t, high[0].Enrichment.Scores.Duration, beyond[0].Enrichment.Scores.Duration, 1e-9)
	assert.InDelta(t, cfg.Scoring.Weights.Duration, high[0].Enrichment.Scores.Duration, 1e-9)
}

func TestScoreSortsDescendingByTotalScoreThenMMSIThenStart(t *testing.T) {
	cfg := config.Default()
	now := time.Now()
	events := []model.DarkEvent{
		baseEvent(2, 1, now),
		baseEvent(1, 10, now), // higher duration -> higher score
		baseEvent(1, 1, now.Add(-time.Hour)),
	}

	scored, err := Score(&cfg, events)
	require.NoError(t, err)
	require.Len(t, scored, 3)

	for i := 1; i < len(scored); i++ {
		assert.GreaterOrEqual(t, scored[i-1].Enrichment.TotalScore, scored[i].Enrichment.TotalScore)
	}
}

func TestScoreRepeatOffenderIncreasesRepeatSubScore(t *testing.T) {
	cfg := config.Default()
	now := time.Now()
	single := []model.DarkEvent{baseEvent(1, 1, now)}
	repeated := make([]model.DarkEvent, 10)
	for i := range repeated {
		repeated[i] = baseEvent(1, 1, now.Add(time.Duration(i)*time.Hour))
	}

	singleScored, err := Score(&cfg, single)
	require.NoError(t, err)
	repeatedScored, err := Score(&cfg, repeated)
	require.NoError(t, err)

	assert.Less(t, singleScored[0].Enrichment.Scores.Repeat, repeatedScored[0].Enrichment.Scores.Repeat)
}

func TestScoreHighlySuspiciousThreshold(t *testing.T) {
	cfg := config.Default()
	event := baseEvent(1, 100, time.Now())
	event.Enrichment = &model.Enrichment{IsFishingVessel: true, ContinuouslyTransmittingNearby: true}

	scored, err := Score(&cfg, []model.DarkEvent{event})
	require.NoError(t, err)
	assert.True(t, scored[0].Enrichment.IsHighlySuspicious)
}

func TestScoreEmptyInput(t *testing.T) {
	cfg := config.Default()
	scored, err := Score(&cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, scored)
}
