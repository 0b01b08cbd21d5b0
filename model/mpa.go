package model

import "github.com/paulmach/orb"

// MPA is a Marine Protected Area reference record. It is consulted only
// through the InMPA predicate; geometry may be absent.
type MPA struct {
	WDPAID             string
	Name               string
	DesignationEnglish string
	IUCNCategory       string
	Geometry           orb.Geometry // nil if not loaded
}

// InMPA reports whether a coordinate falls within the MPA's protected area.
//
// This is a truthful stub. spec.md's open question documents that the
// original implementation's check_mpa_violation always returned false
// despite MPA polygons being loaded; real polygon containment is left as an
// explicit TODO rather than guessed at. Callers must not assume this ever
// returns true today.
//
// TODO: implement real point-in-polygon containment against m.Geometry once
// MPA polygon geometry is actually loaded end to end.
func (m MPA) InMPA(lat, lon float64) bool {
	if m.Geometry == nil {
		return false
	}
	return false
}

// MPATable is the loaded set of MPAs, keyed by WDPAID.
type MPATable map[string]MPA

// InMPA reports whether any MPA in the table contains the coordinate.
func (t MPATable) InMPA(lat, lon float64) bool {
	for _, mpa := range t {
		if mpa.InMPA(lat, lon) {
			return true
		}
	}
	return false
}
