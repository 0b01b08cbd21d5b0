package model

import (
	"time"

	"github.com/paulmach/orb"
)

// ProximityEncounter records that two vessels were within the configured
// distance threshold during the same time bin. Vessel1MMSI is always less
// than Vessel2MMSI (canonical ordering, used to deduplicate), per spec.md §3.
type ProximityEncounter struct {
	TimeBin time.Time

	Vessel1MMSI uint32
	Vessel2MMSI uint32

	Vessel1Location orb.Point
	Vessel2Location orb.Point

	DistanceKM float64
}

// Canonicalize returns e with Vessel1MMSI < Vessel2MMSI, swapping vessel
// fields as needed. Returns false if the two MMSIs are equal (invalid
// self-encounter, per spec.md's invariant that vessel1 != vessel2).
func (e ProximityEncounter) Canonicalize() (ProximityEncounter, bool) {
	switch {
	case e.Vessel1MMSI < e.Vessel2MMSI:
		return e, true
	case e.Vessel1MMSI > e.Vessel2MMSI:
		e.Vessel1MMSI, e.Vessel2MMSI = e.Vessel2MMSI, e.Vessel1MMSI
		e.Vessel1Location, e.Vessel2Location = e.Vessel2Location, e.Vessel1Location
		return e, true
	default:
		return e, false
	}
}
