package model

import (
	"time"

	"github.com/paulmach/orb"
)

// DarkEvent is a gap in a vessel's AIS transmissions longer than the
// configured threshold, produced by the gap detector (C2). Its Enrichment
// field is left nil until the context enricher (C4) and scorer (C5) fill it
// in — see spec.md §9's tagged-record design note: later stages produce a
// new value extending the prior one rather than mutating in place.
type DarkEvent struct {
	MMSI uint32

	Start time.Time
	End   time.Time

	StartLocation    orb.Point
	EndLocation      orb.Point
	MidpointLocation orb.Point

	DurationHours float64
	Region        string

	Enrichment *Enrichment
}

// Enrichment holds the fields later stages attach to a DarkEvent: fleet
// membership, context/confidence (C4), and scoring (C5).
type Enrichment struct {
	FishingGearTypes []GearCategory
	IsFishingVessel  bool

	CoverageReliability            float64
	ConfidenceScore                float64
	HighConfidence                 bool
	ContinuouslyTransmittingNearby bool

	Scores     SubScores
	TotalScore float64
	ClusterID  int

	IsHighlySuspicious bool
}

// SubScores are the five weighted factors that sum to a ScoredEvent's
// TotalScore, per spec.md §4.5.
type SubScores struct {
	Duration float64
	Coverage float64
	EEZ      float64
	Fishing  float64
	Repeat   float64
}

// WithEnrichment returns a copy of the event with Enrichment replaced,
// leaving the original untouched — the stage-chaining pattern spec.md §9
// calls for instead of in-place mutation.
func (e DarkEvent) WithEnrichment(enrichment *Enrichment) DarkEvent {
	e.Enrichment = enrichment
	return e
}

// ScoredEvent is a DarkEvent after the scorer has run: scoring.Score gives it
// a non-nil Enrichment with TotalScore populated, and spatial.Cluster later
// sets its ClusterID. The alias itself enforces neither.
type ScoredEvent = DarkEvent
