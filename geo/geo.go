// Package geo provides the geodesic primitives shared by every pipeline
// stage: haversine distance, region classification, and grid-cell keys.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// EarthRadiusKM is the mean Earth radius used throughout the pipeline.
const EarthRadiusKM = 6371.0

// Region tags, in the order the cascading classification rule checks them.
const (
	RegionSouthernOcean      = "Southern Ocean"
	RegionNorthernPacAtl     = "Northern Pacific/Atlantic"
	RegionEasternPacific     = "Eastern Pacific"
	RegionAtlantic           = "Atlantic"
	RegionIndoPacific        = "Indo-Pacific"
	RegionHighLatitudeZone   = "High Latitude Zone"
	RegionOpenOcean          = "Open Ocean"
)

// Point returns an orb.Point for a (lat, lon) pair. orb.Point stores
// coordinates as [lon, lat], so the conversion happens in exactly one place.
func Point(lat, lon float64) orb.Point {
	return orb.Point{lon, lat}
}

// Lat and Lon recover the latitude/longitude components from an orb.Point.
func Lat(p orb.Point) float64 { return p[1] }
func Lon(p orb.Point) float64 { return p[0] }

// Midpoint returns the arithmetic mean of two points. This is deliberately
// not a great-circle midpoint: spec.md calls for the cheap flat average.
func Midpoint(a, b orb.Point) orb.Point {
	return orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
}

// HaversineKM computes the great-circle distance between two points in
// kilometers using the formula named in spec.md §4.3:
//
//	a = sin²(Δφ/2) + cos φ₁·cos φ₂·sin²(Δλ/2); d = 2R·asin(√a)
//
// This is computed by hand (rather than via orb/geo.Distance, which uses a
// more precise ellipsoidal approximation) because spec.md pins the exact
// spherical formula as a testable property — see DESIGN.md.
func HaversineKM(a, b orb.Point) float64 {
	lat1, lon1 := radians(Lat(a)), radians(Lon(a))
	lat2, lon2 := radians(Lat(b)), radians(Lon(b))

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	return 2 * EarthRadiusKM * math.Asin(math.Sqrt(h))
}

// OrbDistanceKM is a cross-check against HaversineKM using orb/geo's own
// distance function; used only in tests to bound the divergence between the
// two formulas (orb's underlying geometry differs slightly from a pure
// sphere).
func OrbDistanceKM(a, b orb.Point) float64 {
	return geo.Distance(a, b) / 1000.0
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ClassifyRegion assigns the region tag for a midpoint coordinate following
// the cascading rule in spec.md §4.2. Order matters: the first matching rule
// wins.
func ClassifyRegion(lat, lon float64) string {
	switch {
	case lat >= -90 && lat <= -30:
		return RegionSouthernOcean
	case lat >= 30 && lat <= 70:
		return RegionNorthernPacAtl
	case lat >= -30 && lat <= 30:
		switch {
		case lon >= -180 && lon <= -80:
			return RegionEasternPacific
		case lon >= -80 && lon <= 20:
			return RegionAtlantic
		case lon >= 20 && lon <= 180:
			return RegionIndoPacific
		}
	}

	if math.Abs(lat) > 60 {
		return RegionHighLatitudeZone
	}

	return RegionOpenOcean
}

// GridCellKey floors a (lat, lon) pair to a grid cell of the given size in
// degrees, returning the cell's lower-left corner coordinates.
func GridCellKey(lat, lon, size float64) (float64, float64) {
	return math.Floor(lat/size) * size, math.Floor(lon/size) * size
}
