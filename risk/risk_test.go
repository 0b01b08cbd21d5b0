package risk

import (
	"context"
	"testing"
	"time"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32(v float32) *float32 { return &v }
func f64(v float64) *float64 { return &v }

func TestEvaluateMPAEscalation(t *testing.T) {
	cfg := config.Default()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	fixes := []model.Fix{
		{MMSI: 1, Timestamp: base, Lat: 10.0, Lon: 20.0, Speed: f32(5), IsFishing: model.FishingTrue},
		{MMSI: 1, Timestamp: base.Add(time.Hour), Lat: 10.01, Lon: 20.01, Speed: f32(5), IsFishing: model.FishingTrue},
	}

	mpas := stubInMPATable{}
	segments, _, err := Evaluate(context.Background(), &cfg, fixes, mpas)
	require.NoError(t, err)
	require.Len(t, segments, 1)

	s := segments[0]
	assert.Equal(t, 0.8, s.MPARisk)
	assert.Equal(t, 1.0, s.FishingRisk)
	assert.Equal(t, model.ViolationIllegalFishingInMPA, s.ViolationType)
	assert.GreaterOrEqual(t, s.TotalRisk, 0.30*0.8+0.20*1.0)
}

// stubInMPATable always reports true, standing in for a real MPA table in
// this one test that needs to exercise the escalation path; MPATable's
// production InMPA is a truthful stub that always returns false.
type stubInMPATable struct{}

func (stubInMPATable) InMPA(lat, lon float64) bool { return true }

func TestEvaluateNoSegmentBelowThreshold(t *testing.T) {
	cfg := config.Default()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	fixes := []model.Fix{
		{MMSI: 1, Timestamp: base, Lat: 10.0, Lon: 20.0, Speed: f32(10)},
		{MMSI: 1, Timestamp: base.Add(time.Minute), Lat: 10.001, Lon: 20.001, Speed: f32(10)},
	}

	segments, profiles, err := Evaluate(context.Background(), &cfg, fixes, model.MPATable{})
	require.NoError(t, err)
	assert.Empty(t, segments)
	assert.Empty(t, profiles)
}

func TestEvaluateShoreDistanceRisk(t *testing.T) {
	cfg := config.Default()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	fixes := []model.Fix{
		{MMSI: 1, Timestamp: base, Lat: 10.0, Lon: 20.0},
		{
			MMSI: 1, Timestamp: base.Add(24 * time.Hour), Lat: 10.5, Lon: 20.5,
			DistanceFromShoreMeters: f64(150_000), IsFishing: model.FishingTrue,
		},
	}

	segments, profiles, err := Evaluate(context.Background(), &cfg, fixes, model.MPATable{})
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, 0.3, segments[0].ShoreDistanceRisk)
	require.Len(t, profiles, 1)
	assert.Equal(t, uint32(1), profiles[0].MMSI)
	assert.Equal(t, 1, profiles[0].TotalEvents)
}

func TestSpeedAnomalyRiskTakesMax(t *testing.T) {
	cfg := config.Default()
	prev := model.Fix{Speed: f32(1)}
	curr := model.Fix{Speed: f32(20)} // > SpeedMax(15) -> 0.4; delta=19 > 10 -> 0.5

	risk := speedAnomalyRisk(&cfg, prev, curr)
	assert.Equal(t, 0.5, risk)
}

func TestClassifyViolationPrecedence(t *testing.T) {
	assert.Equal(t, model.ViolationIllegalFishingInMPA, classifyViolation(true, true, 1, 1, 1))
	assert.Equal(t, model.ViolationMPAIntrusion, classifyViolation(false, true, 1, 1, 1))
	assert.Equal(t, model.ViolationFishingWithAISOff, classifyViolation(true, false, 1, 0, 0))
	assert.Equal(t, model.ViolationSuspiciousAISSilence, classifyViolation(false, false, 1, 0, 0))
	assert.Equal(t, model.ViolationSuspiciousFishingBehavior, classifyViolation(true, false, 0, 1, 0))
	assert.Equal(t, model.ViolationGeneralSuspiciousActivity, classifyViolation(false, false, 0, 0, 0))
}
