// Package spatial implements C6: DBSCAN clustering of scored dark events,
// fixed-cell grid binning, and the hotspot/heatmap/temporal supplements
// carried over from original_source's hotspot_analyzer (SPEC_FULL.md §6).
package spatial

import (
	"math"
	"sort"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/geo"
	"github.com/oceanwake/darkfleet/model"

	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
)

const noise = -1

// Cluster runs DBSCAN over the events' midpoint coordinates (Euclidean
// distance in degrees, per spec.md §4.6), stamps each event's ClusterID,
// and returns the non-noise clusters sorted by ClusterID. Processing order
// is a stable scan over events sorted by (lat, lon, mmsi, start), per
// spec.md §5's determinism requirement for cluster ID assignment.
func Cluster(cfg *config.Config, events []model.ScoredEvent) ([]model.ScoredEvent, []model.Cluster) {
	if len(events) == 0 {
		return events, nil
	}

	order := sortedIndices(events)
	epsDegrees := cfg.DBSCAN.EpsKM / 111.0
	minSamples := cfg.DBSCAN.MinSamples

	labels := make([]int, len(events))
	for i := range labels {
		labels[i] = noise
	}
	visited := make([]bool, len(events))

	nextClusterID := 0
	for _, p := range order {
		if visited[p] {
			continue
		}
		visited[p] = true

		neighbors := regionQuery(events, order, p, epsDegrees)
		if len(neighbors) < minSamples {
			continue // stays noise unless claimed as a border point below
		}

		clusterID := nextClusterID
		nextClusterID++
		labels[p] = clusterID
		expandCluster(events, order, labels, visited, neighbors, clusterID, epsDegrees, minSamples)
	}

	out := make([]model.ScoredEvent, len(events))
	for i, e := range events {
		enrichment := cloneEnrichment(e.Enrichment)
		enrichment.ClusterID = labels[i]
		out[i] = e.WithEnrichment(enrichment)
	}

	clusters := buildClusters(cfg, out, labels)
	return out, clusters
}

// sortedIndices returns event indices ordered by (lat, lon, mmsi, start) so
// DBSCAN's scan order — and therefore its cluster ID assignment — is
// reproducible regardless of input order.
func sortedIndices(events []model.ScoredEvent) []int {
	order := make([]int, len(events))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := events[order[i]], events[order[j]]
		if la, lb := geo.Lat(a.MidpointLocation), geo.Lat(b.MidpointLocation); la != lb {
			return la < lb
		}
		if lo, lb := geo.Lon(a.MidpointLocation), geo.Lon(b.MidpointLocation); lo != lb {
			return lo < lb
		}
		if a.MMSI != b.MMSI {
			return a.MMSI < b.MMSI
		}
		return a.Start.Before(b.Start)
	})
	return order
}

func regionQuery(events []model.ScoredEvent, order []int, p int, epsDegrees float64) []int {
	var neighbors []int
	for _, q := range order {
		if euclideanDegrees(events[p].MidpointLocation, events[q].MidpointLocation) <= epsDegrees {
			neighbors = append(neighbors, q)
		}
	}
	return neighbors
}

func euclideanDegrees(a, b orb.Point) float64 {
	dLat := geo.Lat(a) - geo.Lat(b)
	dLon := geo.Lon(a) - geo.Lon(b)
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

func expandCluster(events []model.ScoredEvent, order []int, labels []int, visited []bool, neighbors []int, clusterID int, epsDegrees float64, minSamples int) {
	queue := append([]int(nil), neighbors...)
	for i := 0; i < len(queue); i++ {
		q := queue[i]
		if labels[q] == noise {
			labels[q] = clusterID
		}
		if visited[q] {
			continue
		}
		visited[q] = true
		labels[q] = clusterID

		qNeighbors := regionQuery(events, order, q, epsDegrees)
		if len(qNeighbors) >= minSamples {
			queue = append(queue, qNeighbors...)
		}
	}
}

func buildClusters(cfg *config.Config, events []model.ScoredEvent, labels []int) []model.Cluster {
	type accum struct {
		lats, lons, scores []float64
		members            map[uint32]struct{}
	}
	byCluster := make(map[int]*accum)

	for i, e := range events {
		id := labels[i]
		if id == noise {
			continue
		}
		a, ok := byCluster[id]
		if !ok {
			a = &accum{members: make(map[uint32]struct{})}
			byCluster[id] = a
		}
		a.lats = append(a.lats, geo.Lat(e.MidpointLocation))
		a.lons = append(a.lons, geo.Lon(e.MidpointLocation))
		a.scores = append(a.scores, e.Enrichment.TotalScore)
		a.members[e.MMSI] = struct{}{}
	}

	ids := make([]int, 0, len(byCluster))
	for id := range byCluster {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	clusters := make([]model.Cluster, len(ids))
	for i, id := range ids {
		a := byCluster[id]
		eventCount := len(a.scores)
		centroidLat, _ := stats.Mean(a.lats)
		centroidLon, _ := stats.Mean(a.lons)
		avgScore, _ := stats.Mean(a.scores)
		scoreStdDev, _ := stats.StandardDeviation(a.scores)
		// the tolerance absorbs rounding in the mean, so an average of exactly
		// 0.6 counts as reaching the threshold
		isHotspot := eventCount >= cfg.Grid.MinEventsForHotspot && avgScore >= 0.6-1e-9
		vesselCount := len(a.members)

		clusters[i] = model.Cluster{
			ClusterID:    id,
			EventCount:   eventCount,
			Centroid:     geo.Point(centroidLat, centroidLon),
			AvgScore:     avgScore,
			ScoreStdDev:  scoreStdDev,
			MemberMMSIs:  a.members,
			IsHotspot:    isHotspot,
			Intensity:    hotspotIntensity(eventCount, vesselCount, avgScore),
			ThreatLevel:  threatLevel(eventCount, vesselCount, avgScore),
		}
	}
	return clusters
}

// hotspotIntensity is the weighted intensity score from
// original_source/backend/app/services/hotspot_analyzer.py's
// _calculate_intensity, reproduced verbatim (SPEC_FULL.md §6).
func hotspotIntensity(eventCount, vesselCount int, avgRisk float64) float64 {
	return float64(eventCount)*10 + float64(vesselCount)*5 + avgRisk*20
}

// threatLevel buckets a cluster's intensity into the four tiers
// _classify_threat_level uses, reproduced verbatim (SPEC_FULL.md §6).
func threatLevel(eventCount, vesselCount int, avgRisk float64) string {
	intensity := hotspotIntensity(eventCount, vesselCount, avgRisk)
	switch {
	case intensity > 100:
		return "CRITICAL"
	case intensity > 50:
		return "HIGH"
	case intensity > 20:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// mpaViolationSeverity classifies an MPA hotspot's severity from its event
// count and average risk, reproduced verbatim from
// _classify_mpa_severity (SPEC_FULL.md §6) — a distinct formula from
// threatLevel, not a relabeling of it.
func mpaViolationSeverity(eventCount int, avgRisk float64) string {
	switch {
	case eventCount >= 10 || avgRisk > 0.7:
		return "SEVERE"
	case eventCount >= 5 || avgRisk > 0.5:
		return "SERIOUS"
	case eventCount >= 2 || avgRisk > 0.3:
		return "MODERATE"
	default:
		return "MINOR"
	}
}

// Grid aggregates events into fixed-size (lat, lon) cells, sorted by event
// count descending, per spec.md §4.6.
func Grid(cfg *config.Config, events []model.ScoredEvent) []model.GridCell {
	byCell := make(map[[2]float64]*model.GridCell)

	for _, e := range events {
		latGrid, lonGrid := geo.GridCellKey(geo.Lat(e.MidpointLocation), geo.Lon(e.MidpointLocation), cfg.Grid.SizeDegrees)
		key := [2]float64{latGrid, lonGrid}
		cell, ok := byCell[key]
		if !ok {
			cell = &model.GridCell{LatGrid: latGrid, LonGrid: lonGrid, UniqueMMSIs: make(map[uint32]struct{})}
			byCell[key] = cell
		}
		cell.EventCount++
		cell.UniqueMMSIs[e.MMSI] = struct{}{}
		if e.Enrichment != nil {
			cell.TotalScore += e.Enrichment.TotalScore
		}
	}

	out := make([]model.GridCell, 0, len(byCell))
	for _, cell := range byCell {
		out = append(out, *cell)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventCount != out[j].EventCount {
			return out[i].EventCount > out[j].EventCount
		}
		if out[i].LatGrid != out[j].LatGrid {
			return out[i].LatGrid < out[j].LatGrid
		}
		return out[i].LonGrid < out[j].LonGrid
	})
	return out
}

// Heatmap bins events at Grid.HeatmapResolution — a finer, visualization-only
// resolution distinct from Grid's hexbin output — and normalizes intensity
// against the busiest cell, per original_source's heatmap generator
// (SPEC_FULL.md §6).
func Heatmap(cfg *config.Config, events []model.ScoredEvent) []model.HeatmapCell {
	type accum struct {
		count    int
		riskSum  float64
	}
	byCell := make(map[[2]float64]*accum)

	for _, e := range events {
		latGrid, lonGrid := geo.GridCellKey(geo.Lat(e.MidpointLocation), geo.Lon(e.MidpointLocation), cfg.Grid.HeatmapResolution)
		key := [2]float64{latGrid, lonGrid}
		a, ok := byCell[key]
		if !ok {
			a = &accum{}
			byCell[key] = a
		}
		a.count++
		if e.Enrichment != nil {
			a.riskSum += e.Enrichment.TotalScore
		}
	}

	maxCount := 0
	for _, a := range byCell {
		if a.count > maxCount {
			maxCount = a.count
		}
	}

	out := make([]model.HeatmapCell, 0, len(byCell))
	for key, a := range byCell {
		intensity := 0.0
		if maxCount > 0 {
			intensity = float64(a.count) / float64(maxCount)
		}
		out = append(out, model.HeatmapCell{
			Lat:       key[0],
			Lon:       key[1],
			Count:     a.count,
			AvgRisk:   a.riskSum / float64(a.count),
			Intensity: intensity,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Lat != out[j].Lat {
			return out[i].Lat < out[j].Lat
		}
		return out[i].Lon < out[j].Lon
	})
	return out
}

// TemporalHotspots aggregates events by calendar (year, month), a
// supplement grounded on original_source's find_temporal_hotspots
// (SPEC_FULL.md §6).
func TemporalHotspots(events []model.ScoredEvent) []model.TemporalPattern {
	type accum struct {
		lats, lons, scores []float64
		mmsis              map[uint32]struct{}
	}
	byMonth := make(map[[2]int]*accum)

	for _, e := range events {
		key := [2]int{e.Start.Year(), int(e.Start.Month())}
		a, ok := byMonth[key]
		if !ok {
			a = &accum{mmsis: make(map[uint32]struct{})}
			byMonth[key] = a
		}
		a.lats = append(a.lats, geo.Lat(e.MidpointLocation))
		a.lons = append(a.lons, geo.Lon(e.MidpointLocation))
		a.mmsis[e.MMSI] = struct{}{}
		if e.Enrichment != nil {
			a.scores = append(a.scores, e.Enrichment.TotalScore)
		}
	}

	out := make([]model.TemporalPattern, 0, len(byMonth))
	for key, a := range byMonth {
		centroidLat, _ := stats.Mean(a.lats)
		centroidLon, _ := stats.Mean(a.lons)
		var avgScore, totalScore float64
		if len(a.scores) > 0 {
			avgScore, _ = stats.Mean(a.scores)
			totalScore, _ = stats.Sum(a.scores)
		}

		out = append(out, model.TemporalPattern{
			Year:        key[0],
			Month:       key[1],
			EventCount:  len(a.lats),
			UniqueMMSIs: len(a.mmsis),
			Centroid:    geo.Point(centroidLat, centroidLon),
			AvgScore:    avgScore,
			TotalScore:  totalScore,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// MPAHotspots groups events whose midpoint falls inside a known MPA,
// a supplement grounded on original_source's find_mpa_violations
// (SPEC_FULL.md §6). With MPA.InMPA's truthful stub, this returns empty
// until real polygon containment is implemented (spec.md §9's open question).
func MPAHotspots(events []model.ScoredEvent, mpas model.MPATable) []model.MPAHotspot {
	type accum struct {
		lats, lons, scores []float64
		mmsis              map[uint32]struct{}
	}
	byMPA := make(map[string]*accum)

	for _, e := range events {
		for _, mpa := range mpas {
			if !mpa.InMPA(geo.Lat(e.MidpointLocation), geo.Lon(e.MidpointLocation)) {
				continue
			}
			a, ok := byMPA[mpa.Name]
			if !ok {
				a = &accum{mmsis: make(map[uint32]struct{})}
				byMPA[mpa.Name] = a
			}
			a.lats = append(a.lats, geo.Lat(e.MidpointLocation))
			a.lons = append(a.lons, geo.Lon(e.MidpointLocation))
			a.mmsis[e.MMSI] = struct{}{}
			if e.Enrichment != nil {
				a.scores = append(a.scores, e.Enrichment.TotalScore)
			}
		}
	}

	names := make([]string, 0, len(byMPA))
	for name := range byMPA {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.MPAHotspot, len(names))
	for i, name := range names {
		a := byMPA[name]
		centroidLat, _ := stats.Mean(a.lats)
		centroidLon, _ := stats.Mean(a.lons)
		var avgScore, totalScore float64
		if len(a.scores) > 0 {
			avgScore, _ = stats.Mean(a.scores)
			totalScore, _ = stats.Sum(a.scores)
		}
		out[i] = model.MPAHotspot{
			MPAName:           name,
			EventCount:        len(a.lats),
			UniqueMMSIs:       len(a.mmsis),
			AvgScore:          avgScore,
			TotalScore:        totalScore,
			Centroid:          geo.Point(centroidLat, centroidLon),
			ViolationSeverity: mpaViolationSeverity(len(a.lats), avgScore),
		}
	}
	return out
}

func cloneEnrichment(e *model.Enrichment) *model.Enrichment {
	if e == nil {
		return &model.Enrichment{}
	}
	clone := *e
	return &clone
}
