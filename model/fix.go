// Package model defines the typed records that flow through the pipeline:
// Fix, FishingFleetMembership, MPA, DarkEvent, ProximityEncounter,
// ScoredEvent, Cluster, GridCell, and the vessel coordination graph types.
// Every type here is produced once by its owning stage and is immutable
// thereafter, per spec.md §3's lifecycle rule.
package model

import (
	"time"

	"github.com/paulmach/orb"
)

// FishingState is the tri-state known-true/known-false/unknown flag carried
// on a Fix, matching spec.md's `is_fishing` attribute.
type FishingState int8

const (
	FishingUnknown FishingState = iota
	FishingTrue
	FishingFalse
)

// Fix is a single AIS position report, normalized by the record loader (C1).
// It is immutable once constructed.
type Fix struct {
	MMSI      uint32
	Timestamp time.Time // UTC
	Lat       float32   // WGS-84, -90..90
	Lon       float32   // WGS-84, -180..180

	Speed  *float32 // knots, >= 0
	Course *float32 // degrees, 0-360

	VesselName string
	VesselType string
	IsFishing  FishingState

	DistanceFromShoreMeters *float64
}

// Point returns the Fix's location as an orb.Point.
func (f Fix) Point() orb.Point {
	return orb.Point{float64(f.Lon), float64(f.Lat)}
}

// GearCategory is a fishing gear type, one of six reference categories a
// vessel's MMSI may be associated with.
type GearCategory string

const (
	DriftingLonglines GearCategory = "drifting_longlines"
	FixedGear         GearCategory = "fixed_gear"
	PoleAndLine       GearCategory = "pole_and_line"
	PurseSeines       GearCategory = "purse_seines"
	Trawlers          GearCategory = "trawlers"
	Trollers          GearCategory = "trollers"
)

// FishingFleetMembership maps an MMSI to the gear categories it belongs to.
// A vessel may belong to more than one category. Loaded once at startup and
// treated as read-only reference data thereafter.
type FishingFleetMembership map[uint32][]GearCategory

// GearTypes returns the gear categories registered for an MMSI, or nil if
// the vessel has no known fleet membership.
func (m FishingFleetMembership) GearTypes(mmsi uint32) []GearCategory {
	return m[mmsi]
}

// IsFishingVessel reports whether the MMSI has any registered gear category.
func (m FishingFleetMembership) IsFishingVessel(mmsi uint32) bool {
	return len(m[mmsi]) > 0
}
