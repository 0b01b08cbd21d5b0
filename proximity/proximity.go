// Package proximity implements C3: the spatiotemporal join that finds pairs
// of vessels within DistanceThresholdKM of each other inside the same
// TimeWindowMinutes bucket, producing the ProximityEncounter stream C4's
// context enricher and C8's network analyzer both read from.
//
// Fixes are bucketed first by time window, then by a spatial grid cell
// sized to the distance threshold, so only fixes in the same or an adjacent
// cell are ever compared — a hand-rolled equivalent of a ball-tree radius
// query (see DESIGN.md: no such index ships in the example corpus).
package proximity

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/geo"
	"github.com/oceanwake/darkfleet/logger"
	"github.com/oceanwake/darkfleet/model"
	"github.com/oceanwake/darkfleet/util"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

// Index is the built proximity join result: the deduplicated, canonicalized
// encounter stream plus the lookups built on top of it.
type Index struct {
	Encounters []model.ProximityEncounter

	byVessel map[uint32][]int
}

// Near returns every encounter involving mmsi, in the order they were
// recorded.
func (idx *Index) Near(mmsi uint32) []model.ProximityEncounter {
	positions := idx.byVessel[mmsi]
	out := make([]model.ProximityEncounter, len(positions))
	for i, pos := range positions {
		out[i] = idx.Encounters[pos]
	}
	return out
}

// PairStats summarizes every encounter between one ordered pair of vessels,
// a supplement grounded on original_source/backend/app/services/proximity_index.py's
// per-pair aggregate (spec.md §6).
type PairStats struct {
	Vessel1MMSI    uint32
	Vessel2MMSI    uint32
	EncounterCount int
	MinDistanceKM  float64
	AvgDistanceKM  float64
	FirstSeen      time.Time
	LastSeen       time.Time
}

// AggregatePairStats rolls the encounter stream up into one PairStats per
// distinct vessel pair, sorted by descending encounter count then by MMSI.
func (idx *Index) AggregatePairStats() []PairStats {
	type accum struct {
		count       int
		distSum     float64
		minDist     float64
		first, last time.Time
	}
	byPair := make(map[[2]uint32]*accum)

	for _, enc := range idx.Encounters {
		key := [2]uint32{enc.Vessel1MMSI, enc.Vessel2MMSI}
		a, ok := byPair[key]
		if !ok {
			a = &accum{minDist: enc.DistanceKM, first: enc.TimeBin, last: enc.TimeBin}
			byPair[key] = a
		}
		a.count++
		a.distSum += enc.DistanceKM
		if enc.DistanceKM < a.minDist {
			a.minDist = enc.DistanceKM
		}
		if enc.TimeBin.Before(a.first) {
			a.first = enc.TimeBin
		}
		if enc.TimeBin.After(a.last) {
			a.last = enc.TimeBin
		}
	}

	out := make([]PairStats, 0, len(byPair))
	for key, a := range byPair {
		out = append(out, PairStats{
			Vessel1MMSI:    key[0],
			Vessel2MMSI:    key[1],
			EncounterCount: a.count,
			MinDistanceKM:  a.minDist,
			AvgDistanceKM:  a.distSum / float64(a.count),
			FirstSeen:      a.first,
			LastSeen:       a.last,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EncounterCount != out[j].EncounterCount {
			return out[i].EncounterCount > out[j].EncounterCount
		}
		if out[i].Vessel1MMSI != out[j].Vessel1MMSI {
			return out[i].Vessel1MMSI < out[j].Vessel1MMSI
		}
		return out[i].Vessel2MMSI < out[j].Vessel2MMSI
	})
	return out
}

// timeBin truncates a timestamp down to the start of its window.
func timeBin(ts time.Time, windowMinutes int) time.Time {
	window := time.Duration(windowMinutes) * time.Minute
	return ts.Truncate(window)
}

// cellSizeDegrees approximates DistanceThresholdKM in degrees of latitude,
// used only to size grid cells coarsely enough that true neighbors are never
// split across more than the 3x3 neighborhood checked below.
func cellSizeDegrees(distanceThresholdKM float64) float64 {
	return distanceThresholdKM / (geo.EarthRadiusKM * math.Pi / 180.0)
}

type bin struct {
	timeKey time.Time
	fixes   []model.Fix
}

// Build runs the spatiotemporal join described in spec.md §4.3: fixes are
// grouped into time bins, each bin is spatially grid-bucketed, and every
// pair of distinct vessels whose true haversine distance falls within
// DistanceThresholdKM is recorded as a ProximityEncounter. Oversized bins
// are deterministically downsampled using cfg.Proximity.RandomSeed so reruns
// over the same input are reproducible. Progress is checkpointed to afs
// every SaveEvery bins.
func Build(ctx context.Context, cfg *config.Config, fixes []model.Fix, afs afero.Fs, checkpointDir string) (*Index, error) {
	zlog := logger.GetLogger()

	bins := bucketByTime(fixes, cfg.Proximity.TimeWindowMinutes)
	cellSize := cellSizeDegrees(cfg.Proximity.DistanceThresholdKM)

	limiter := rate.NewLimiter(rate.Every(2*time.Second), 1)

	checkpointPath, err := checkpointFilePath(afs, checkpointDir, cfg)
	if err != nil {
		return nil, err
	}

	var encounters []model.ProximityEncounter
	processedBins := make(map[time.Time]struct{})
	seen := make(map[[2]uint32]map[time.Time]struct{})

	if checkpointPath != "" {
		prior, err := loadCheckpoint(afs, checkpointPath)
		if err != nil {
			zlog.Warn().Err(err).Str("path", checkpointPath).Msg("failed to load proximity checkpoint, starting fresh")
		} else if prior != nil {
			encounters = prior.Encounters
			for _, bk := range prior.ProcessedBins {
				processedBins[bk] = struct{}{}
			}
			for _, enc := range encounters {
				key := [2]uint32{enc.Vessel1MMSI, enc.Vessel2MMSI}
				if seen[key] == nil {
					seen[key] = make(map[time.Time]struct{})
				}
				seen[key][enc.TimeBin] = struct{}{}
			}
			zlog.Info().Int("processed_bins", len(processedBins)).Int("encounters", len(encounters)).Msg("resumed proximity index from checkpoint")
		}
	}

	for i, b := range bins {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if _, done := processedBins[b.timeKey]; done {
			continue
		}

		sampled := downsample(b.fixes, cfg.Proximity.MaxPointsPerBin, cfg.Proximity.RandomSeed, i)
		cells := bucketBySpatialCell(sampled, cellSize)

		for _, enc := range pairwiseWithinCells(b.timeKey, cells, cfg.Proximity.DistanceThresholdKM) {
			canon, ok := enc.Canonicalize()
			if !ok {
				continue
			}
			key := [2]uint32{canon.Vessel1MMSI, canon.Vessel2MMSI}
			if seen[key] == nil {
				seen[key] = make(map[time.Time]struct{})
			}
			if _, dup := seen[key][canon.TimeBin]; dup {
				continue
			}
			seen[key][canon.TimeBin] = struct{}{}
			encounters = append(encounters, canon)
		}

		processedBins[b.timeKey] = struct{}{}

		if (i+1)%cfg.Proximity.ProgressEveryBins == 0 && limiter.Allow() {
			zlog.Debug().Int("bin", i+1).Int("total_bins", len(bins)).Int("encounters", len(encounters)).Msg("proximity join progress")
		}

		if checkpointPath != "" && (i+1)%cfg.Proximity.SaveEvery == 0 {
			if err := writeCheckpoint(afs, checkpointPath, processedBinKeys(processedBins), encounters); err != nil {
				zlog.Warn().Err(err).Str("path", checkpointPath).Msg("failed to write proximity checkpoint")
			}
		}
	}

	if checkpointPath != "" {
		if err := writeCheckpoint(afs, checkpointPath, processedBinKeys(processedBins), encounters); err != nil {
			zlog.Warn().Err(err).Str("path", checkpointPath).Msg("failed to write final proximity checkpoint")
		}
	}

	idx := &Index{Encounters: encounters, byVessel: make(map[uint32][]int)}
	for i, enc := range idx.Encounters {
		idx.byVessel[enc.Vessel1MMSI] = append(idx.byVessel[enc.Vessel1MMSI], i)
		idx.byVessel[enc.Vessel2MMSI] = append(idx.byVessel[enc.Vessel2MMSI], i)
	}

	zlog.Info().Int("encounters", len(encounters)).Msg("proximity index built")
	return idx, nil
}

// processedBinKeys flattens the processed-bin set into a sorted slice for
// checkpoint serialization, so a checkpoint's bin list is stable across
// writes regardless of map iteration order.
func processedBinKeys(processed map[time.Time]struct{}) []time.Time {
	out := make([]time.Time, 0, len(processed))
	for k := range processed {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func bucketByTime(fixes []model.Fix, windowMinutes int) []bin {
	byBin := make(map[time.Time][]model.Fix)
	for _, f := range fixes {
		key := timeBin(f.Timestamp, windowMinutes)
		byBin[key] = append(byBin[key], f)
	}

	keys := make([]time.Time, 0, len(byBin))
	for k := range byBin {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make([]bin, len(keys))
	for i, k := range keys {
		out[i] = bin{timeKey: k, fixes: byBin[k]}
	}
	return out
}

// downsample deterministically reduces a bin to at most maxPoints fixes,
// seeded from the run's configured seed and the bin's position so repeated
// runs over identical input produce identical samples.
func downsample(fixes []model.Fix, maxPoints int, seed int64, binIndex int) []model.Fix {
	if len(fixes) <= maxPoints {
		return fixes
	}
	rng := rand.New(rand.NewSource(seed + int64(binIndex)))
	shuffled := make([]model.Fix, len(fixes))
	copy(shuffled, fixes)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:maxPoints]
}

type cellKey struct {
	latCell, lonCell float64
}

func bucketBySpatialCell(fixes []model.Fix, cellSize float64) map[cellKey][]model.Fix {
	cells := make(map[cellKey][]model.Fix)
	for _, f := range fixes {
		latCell, lonCell := geo.GridCellKey(float64(f.Lat), float64(f.Lon), cellSize)
		key := cellKey{latCell, lonCell}
		cells[key] = append(cells[key], f)
	}
	return cells
}

// pairwiseWithinCells compares every fix against the fixes in its own cell
// and the 8 neighboring cells, emitting an encounter for every distinct-MMSI
// pair within the distance threshold. Each unordered pair is checked once
// per cell combination by only comparing a cell against neighbors with a
// lexicographically greater key, plus itself.
func pairwiseWithinCells(timeKey time.Time, cells map[cellKey][]model.Fix, thresholdKM float64) []model.ProximityEncounter {
	var out []model.ProximityEncounter

	neighborOffsets := []cellKey{
		{0, 0}, {0, 1}, {0, -1}, {1, 0}, {-1, 0},
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	}

	for key, here := range cells {
		for _, off := range neighborOffsets {
			neighborKey := cellKey{key.latCell + off.latCell, key.lonCell + off.lonCell}
			if neighborKey.latCell < key.latCell || (neighborKey.latCell == key.latCell && neighborKey.lonCell < key.lonCell) {
				continue
			}
			there, ok := cells[neighborKey]
			if !ok {
				continue
			}
			out = append(out, comparePairs(timeKey, here, there, neighborKey == key, thresholdKM)...)
		}
	}
	return out
}

func comparePairs(timeKey time.Time, a, b []model.Fix, sameCell bool, thresholdKM float64) []model.ProximityEncounter {
	var out []model.ProximityEncounter
	for i, fa := range a {
		start := 0
		if sameCell {
			start = i + 1
		}
		for j := start; j < len(b); j++ {
			fb := b[j]
			if fa.MMSI == fb.MMSI {
				continue
			}
			dist := geo.HaversineKM(fa.Point(), fb.Point())
			if dist > thresholdKM {
				continue
			}
			out = append(out, model.ProximityEncounter{
				TimeBin:         timeKey,
				Vessel1MMSI:     fa.MMSI,
				Vessel2MMSI:     fb.MMSI,
				Vessel1Location: fa.Point(),
				Vessel2Location: fb.Point(),
				DistanceKM:      dist,
			})
		}
	}
	return out
}

func checkpointFilePath(afs afero.Fs, dir string, cfg *config.Config) (string, error) {
	if dir == "" {
		return "", nil
	}
	hash, err := util.NewFixedStringHash(
		fmt.Sprintf("%d", cfg.Proximity.TimeWindowMinutes),
		fmt.Sprintf("%f", cfg.Proximity.DistanceThresholdKM),
		fmt.Sprintf("%d", cfg.Proximity.RandomSeed),
	)
	if err != nil {
		return "", err
	}
	if err := afs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir + "/proximity-" + hash.Hex() + ".checkpoint", nil
}

// checkpointData is the on-disk shape of a proximity checkpoint: the bin
// keys already folded into Encounters, so Build can skip them on resume
// instead of recomputing the whole join from scratch, per spec.md §4.3's
// "mandatory" resumability requirement.
type checkpointData struct {
	ProcessedBins []time.Time                `json:"processed_bins"`
	Encounters    []model.ProximityEncounter `json:"encounters"`
}

// writeCheckpoint persists the accumulated encounters and the set of bin
// keys already processed, using a write-to-temp-then-rename sequence so a
// crash mid-write never leaves a truncated checkpoint file behind.
func writeCheckpoint(afs afero.Fs, path string, processedBins []time.Time, encounters []model.ProximityEncounter) error {
	encoded, err := json.Marshal(checkpointData{ProcessedBins: processedBins, Encounters: encounters})
	if err != nil {
		return fmt.Errorf("could not encode proximity checkpoint: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := afero.WriteFile(afs, tmpPath, encoded, 0o644); err != nil {
		return err
	}
	return afs.Rename(tmpPath, path)
}

// loadCheckpoint reads a prior checkpoint, if one exists at path. A missing
// file is not an error: it just means this is the first run for this
// configuration.
func loadCheckpoint(afs afero.Fs, path string) (*checkpointData, error) {
	exists, err := afero.Exists(afs, path)
	if err != nil {
		return nil, fmt.Errorf("could not stat proximity checkpoint: %w", err)
	}
	if !exists {
		return nil, nil
	}

	raw, err := afero.ReadFile(afs, path)
	if err != nil {
		return nil, fmt.Errorf("could not read proximity checkpoint: %w", err)
	}

	var data checkpointData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("could not decode proximity checkpoint: %w", err)
	}
	return &data, nil
}
