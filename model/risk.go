package model

import (
	"time"

	"github.com/paulmach/orb"
)

// Violation type labels for RiskSegment, ordered by the precedence rule
// spec.md §4.7 classifies them with: earlier entries win.
const (
	ViolationIllegalFishingInMPA      = "ILLEGAL_FISHING_IN_MPA"
	ViolationMPAIntrusion             = "MPA_INTRUSION"
	ViolationFishingWithAISOff        = "FISHING_WITH_AIS_OFF"
	ViolationSuspiciousAISSilence     = "SUSPICIOUS_AIS_SILENCE"
	ViolationSuspiciousFishingBehavior = "SUSPICIOUS_FISHING_BEHAVIOR"
	ViolationGeneralSuspiciousActivity = "GENERAL_SUSPICIOUS_ACTIVITY"
)

// RiskSegment is C7's independent per-segment risk evaluation over one pair
// of consecutive fixes from the same vessel. Emitted only when TotalRisk
// clears the configured threshold, per spec.md §4.7.
type RiskSegment struct {
	MMSI uint32

	PrevTimestamp time.Time
	CurrTimestamp time.Time
	Location      orb.Point

	DarkPeriodRisk     float64
	SpeedAnomalyRisk   float64
	MPARisk            float64
	FishingRisk        float64
	DistanceRisk       float64
	NighttimeRisk      float64
	ShoreDistanceRisk  float64

	TotalRisk     float64
	ViolationType string
}

// VesselRiskProfile aggregates RiskSegments per MMSI, per spec.md §4.7.
type VesselRiskProfile struct {
	MMSI uint32

	TotalEvents           int
	TotalDarkHours        float64
	MeanRisk              float64
	MaxRisk               float64
	HighRiskCount         int
	MPAViolationCount     int
	FishingWhileDarkCount int
	NighttimeCount        int

	LastPosition orb.Point
	LastTime     time.Time

	PrimaryViolationType string
}
