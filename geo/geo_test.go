package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineKMKnownDistance(t *testing.T) {
	// London to Paris, a commonly cited reference distance (~344km).
	london := Point(51.5074, -0.1278)
	paris := Point(48.8566, 2.3522)

	d := HaversineKM(london, paris)
	assert.InDelta(t, 344.0, d, 5.0)
}

func TestHaversineKMZeroForIdenticalPoints(t *testing.T) {
	p := Point(10.0, 20.0)
	assert.InDelta(t, 0.0, HaversineKM(p, p), 1e-9)
}

func TestHaversineKMAgreesWithOrbWithinTolerance(t *testing.T) {
	// HaversineKM uses a pure sphere; orb/geo uses a more precise
	// ellipsoidal approximation. They must stay close, never diverge wildly.
	pairs := []struct{ a, b orb.Point }{
		{Point(0, 0), Point(0, 1)},
		{Point(45, 45), Point(-45, -45)},
		{Point(89, 0), Point(89, 180)},
	}
	for _, p := range pairs {
		got := HaversineKM(p.a, p.b)
		want := OrbDistanceKM(p.a, p.b)
		assert.InDelta(t, want, got, want*0.01+1.0)
	}
}

func TestPointRoundTripsLatLon(t *testing.T) {
	p := Point(12.5, -34.5)
	require.Equal(t, 12.5, Lat(p))
	require.Equal(t, -34.5, Lon(p))
}

func TestMidpointIsArithmeticMean(t *testing.T) {
	a := Point(10, 20)
	b := Point(20, 40)
	m := Midpoint(a, b)
	assert.Equal(t, 15.0, Lat(m))
	assert.Equal(t, 30.0, Lon(m))
}

func TestClassifyRegion(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{name: "deep south", lat: -60, lon: 0, want: RegionSouthernOcean},
		{name: "northern band", lat: 50, lon: -40, want: RegionNorthernPacAtl},
		{name: "equatorial eastern pacific", lat: 0, lon: -100, want: RegionEasternPacific},
		{name: "equatorial atlantic", lat: 0, lon: -30, want: RegionAtlantic},
		{name: "equatorial indo-pacific", lat: 0, lon: 100, want: RegionIndoPacific},
		{name: "high latitude fallback", lat: 75, lon: 0, want: RegionHighLatitudeZone},
		{name: "open ocean fallback", lat: 20, lon: -200, want: RegionOpenOcean},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRegion(tt.lat, tt.lon))
		})
	}
}

func TestGridCellKeyFloorsToCellOrigin(t *testing.T) {
	lat, lon := GridCellKey(10.7, 20.3, 1.0)
	assert.Equal(t, 10.0, lat)
	assert.Equal(t, 20.0, lon)

	lat, lon = GridCellKey(-10.1, -20.9, 1.0)
	assert.Equal(t, -11.0, lat)
	assert.Equal(t, -21.0, lon)
}
