// Package risk implements C7: an independent per-segment risk evaluator run
// over every pair of consecutive fixes from the same vessel, complementary
// to the gap detector and scorer (C2/C5), per spec.md §4.7.
package risk

import (
	"context"
	"math"
	"runtime"
	"sort"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/geo"
	"github.com/oceanwake/darkfleet/logger"
	"github.com/oceanwake/darkfleet/model"
	"github.com/oceanwake/darkfleet/record"

	"github.com/alitto/pond"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// Evaluate walks every vessel's sorted fix sequence, computing the seven
// weighted risk factors from spec.md §4.7 for each consecutive pair, and
// returns the suspicious segments (total_risk at or above threshold) plus one
// VesselRiskProfile per vessel that produced at least one segment. Work is
// fanned out per-MMSI, matching C2's worker pool sizing.
func Evaluate(ctx context.Context, cfg *config.Config, fixes []model.Fix, mpas model.MPATable) ([]model.RiskSegment, []model.VesselRiskProfile, error) {
	zlog := logger.GetLogger()

	byVessel := record.PerVessel(fixes)
	mmsis := record.SortedMMSIs(byVessel)

	workers := int(math.Floor(math.Max(4, float64(runtime.NumCPU())/2)))
	pool := pond.New(workers, 0, pond.MinWorkers(workers), pond.Context(ctx))
	defer pool.StopAndWait()

	group, _ := errgroup.WithContext(ctx)
	results := make([][]model.RiskSegment, len(mmsis))

	for i, mmsi := range mmsis {
		i, mmsi := i, mmsi
		group.Go(func() error {
			pool.SubmitAndWait(func() {
				results[i] = evaluateVessel(cfg, mmsi, byVessel[mmsi], mpas)
			})
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	var segments []model.RiskSegment
	for _, s := range results {
		segments = append(segments, s...)
	}
	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].MMSI != segments[j].MMSI {
			return segments[i].MMSI < segments[j].MMSI
		}
		return segments[i].CurrTimestamp.Before(segments[j].CurrTimestamp)
	})

	profiles := buildProfiles(segments)

	zlog.Debug().Int("vessels", len(mmsis)).Int("segments", len(segments)).Msg("comprehensive risk evaluation complete")
	return segments, profiles, nil
}

func evaluateVessel(cfg *config.Config, mmsi uint32, fixes []model.Fix, mpas model.MPATable) []model.RiskSegment {
	var out []model.RiskSegment

	for i := 1; i < len(fixes); i++ {
		prev, curr := fixes[i-1], fixes[i]

		gapHours := curr.Timestamp.Sub(prev.Timestamp).Hours()

		darkRisk := 0.0
		if gapHours >= cfg.Comprehensive.DarkHoursThreshold {
			darkRisk = math.Min(gapHours/24, 1)
		}

		speedRisk := speedAnomalyRisk(cfg, prev, curr)
		inMPA := mpas.InMPA(float64(curr.Lat), float64(curr.Lon))
		mpaRisk := 0.0
		if inMPA {
			mpaRisk = 0.8
		}

		isFishing := curr.IsFishing == model.FishingTrue
		fishingRisk := 0.0
		switch {
		case isFishing && inMPA:
			fishingRisk = 1.0
		case isFishing:
			fishingRisk = 0.3
		}

		distanceKM := geo.HaversineKM(prev.Point(), curr.Point())
		distanceRisk := 0.0
		if gapHours > 0 {
			avgKMH := distanceKM / gapHours
			if avgKMH > 20 {
				distanceRisk = math.Min(avgKMH/40, 1)
			}
		}

		hour := curr.Timestamp.UTC().Hour()
		nighttimeRisk := 0.0
		if hour >= 20 || hour <= 5 {
			nighttimeRisk = 0.2
			if isFishing {
				nighttimeRisk = 0.5
			}
		}

		shoreRisk := 0.0
		if curr.DistanceFromShoreMeters != nil && *curr.DistanceFromShoreMeters > cfg.Comprehensive.ShoreDistanceKM*1000 {
			shoreRisk = 0.3
		}

		w := cfg.Comprehensive.Weights
		total := w.Dark*darkRisk + w.MPA*mpaRisk + w.Fishing*fishingRisk + w.Speed*speedRisk +
			w.Distance*distanceRisk + w.Nighttime*nighttimeRisk + w.Shore*shoreRisk

		if total < cfg.Comprehensive.TotalRiskThreshold {
			continue
		}

		out = append(out, model.RiskSegment{
			MMSI:              mmsi,
			PrevTimestamp:     prev.Timestamp,
			CurrTimestamp:     curr.Timestamp,
			Location:          curr.Point(),
			DarkPeriodRisk:    darkRisk,
			SpeedAnomalyRisk:  speedRisk,
			MPARisk:           mpaRisk,
			FishingRisk:       fishingRisk,
			DistanceRisk:      distanceRisk,
			NighttimeRisk:     nighttimeRisk,
			ShoreDistanceRisk: shoreRisk,
			TotalRisk:         total,
			ViolationType:     classifyViolation(isFishing, inMPA, darkRisk, speedRisk, nighttimeRisk),
		})
	}

	return out
}

// speedAnomalyRisk implements spec.md §4.7's "taking max" rule: every
// applicable condition's value is a candidate, and the highest wins.
func speedAnomalyRisk(cfg *config.Config, prev, curr model.Fix) float64 {
	risk := 0.0
	if curr.Speed != nil {
		speed := float64(*curr.Speed)
		if speed > 0 && speed < cfg.Comprehensive.SpeedMin {
			risk = math.Max(risk, 0.6)
		}
		if speed > cfg.Comprehensive.SpeedMax {
			risk = math.Max(risk, 0.4)
		}
		if prev.Speed != nil {
			delta := math.Abs(speed - float64(*prev.Speed))
			if delta > 10 {
				risk = math.Max(risk, 0.5)
			}
		}
	}
	return risk
}

// classifyViolation applies spec.md §4.7's precedence order: the first
// matching label wins.
func classifyViolation(isFishing, inMPA bool, darkRisk, speedRisk, nighttimeRisk float64) string {
	switch {
	case isFishing && inMPA:
		return model.ViolationIllegalFishingInMPA
	case inMPA:
		return model.ViolationMPAIntrusion
	case isFishing && darkRisk > 0:
		return model.ViolationFishingWithAISOff
	case darkRisk > 0:
		return model.ViolationSuspiciousAISSilence
	case isFishing && (speedRisk > 0 || nighttimeRisk > 0):
		return model.ViolationSuspiciousFishingBehavior
	default:
		return model.ViolationGeneralSuspiciousActivity
	}
}

func buildProfiles(segments []model.RiskSegment) []model.VesselRiskProfile {
	type accum struct {
		segments []model.RiskSegment
		violationCounts map[string]int
	}
	byVessel := make(map[uint32]*accum)

	for _, s := range segments {
		a, ok := byVessel[s.MMSI]
		if !ok {
			a = &accum{violationCounts: make(map[string]int)}
			byVessel[s.MMSI] = a
		}
		a.segments = append(a.segments, s)
		a.violationCounts[s.ViolationType]++
	}

	mmsis := make([]uint32, 0, len(byVessel))
	for mmsi := range byVessel {
		mmsis = append(mmsis, mmsi)
	}
	sort.Slice(mmsis, func(i, j int) bool { return mmsis[i] < mmsis[j] })

	profiles := make([]model.VesselRiskProfile, len(mmsis))
	for i, mmsi := range mmsis {
		a := byVessel[mmsi]
		profiles[i] = buildProfile(mmsi, a.segments, a.violationCounts)
	}
	return profiles
}

func buildProfile(mmsi uint32, segments []model.RiskSegment, violationCounts map[string]int) model.VesselRiskProfile {
	profile := model.VesselRiskProfile{MMSI: mmsi, TotalEvents: len(segments)}

	risks := make([]float64, 0, len(segments))
	for _, s := range segments {
		if s.DarkPeriodRisk > 0 {
			profile.TotalDarkHours += s.CurrTimestamp.Sub(s.PrevTimestamp).Hours()
		}
		risks = append(risks, s.TotalRisk)
		if s.TotalRisk > 0.7 {
			profile.HighRiskCount++
		}
		if s.MPARisk > 0 {
			profile.MPAViolationCount++
		}
		if s.FishingRisk == 1.0 {
			profile.FishingWhileDarkCount++
		}
		if s.NighttimeRisk > 0 {
			profile.NighttimeCount++
		}
		if s.CurrTimestamp.After(profile.LastTime) {
			profile.LastTime = s.CurrTimestamp
			profile.LastPosition = s.Location
		}
	}
	if mean, err := stats.Mean(risks); err == nil {
		profile.MeanRisk = mean
	}
	if max, err := stats.Max(risks); err == nil {
		profile.MaxRisk = max
	}
	profile.PrimaryViolationType = modeViolation(violationCounts)
	return profile
}

// modeViolation returns the most frequent violation type, breaking ties by
// the fixed precedence order so the result is deterministic.
func modeViolation(counts map[string]int) string {
	precedence := []string{
		model.ViolationIllegalFishingInMPA,
		model.ViolationMPAIntrusion,
		model.ViolationFishingWithAISOff,
		model.ViolationSuspiciousAISSilence,
		model.ViolationSuspiciousFishingBehavior,
		model.ViolationGeneralSuspiciousActivity,
	}

	best := ""
	bestCount := 0
	for _, v := range precedence {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}
