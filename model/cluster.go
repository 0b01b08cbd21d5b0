package model

import "github.com/paulmach/orb"

// Cluster is a DBSCAN cluster of dark events, plus the grid-aggregation
// supplements (intensity, threat level) from the original implementation
// (see SPEC_FULL.md §6).
type Cluster struct {
	ClusterID   int
	EventCount  int
	Centroid    orb.Point
	AvgScore    float64
	ScoreStdDev float64
	MemberMMSIs map[uint32]struct{}

	IsHotspot bool

	Intensity   float64
	ThreatLevel string
}

// GridCell aggregates dark events falling into a fixed-size lat/lon cell.
type GridCell struct {
	LatGrid float64
	LonGrid float64

	EventCount   int
	UniqueMMSIs  map[uint32]struct{}
	TotalScore   float64
}

// TemporalPattern aggregates scored events by calendar month, a supplement
// carried over from the original implementation's find_temporal_hotspots.
type TemporalPattern struct {
	Year  int
	Month int

	EventCount  int
	UniqueMMSIs int
	Centroid    orb.Point
	AvgScore    float64
	TotalScore  float64
}

// MPAHotspot groups scored events known to intersect an MPA by MPA name,
// carried over from the original implementation's find_mpa_violations.
type MPAHotspot struct {
	MPAName string

	EventCount       int
	UniqueMMSIs      int
	AvgScore         float64
	TotalScore       float64
	Centroid         orb.Point
	ViolationSeverity string
}

// HeatmapCell is a visualization-resolution grid cell distinct from
// GridCell's hexbin output — see SPEC_FULL.md §6.
type HeatmapCell struct {
	Lat, Lon  float64
	Count     int
	AvgRisk   float64
	Intensity float64
}
