// Package scoring implements C5: combining duration, coverage, EEZ
// proximity, fishing-fleet membership, and repeat-offender counts into each
// event's weighted total_score, per spec.md §4.5.
package scoring

import (
	"math"
	"sort"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/geo"
	"github.com/oceanwake/darkfleet/logger"
	"github.com/oceanwake/darkfleet/model"

	"github.com/montanaflynn/stats"
)

// Score computes repeat-offender counts across all events first, then
// produces the five weighted sub-scores and total_score for every event,
// and returns them sorted by (-total_score, mmsi, start) per spec.md §5.
func Score(cfg *config.Config, events []model.DarkEvent) ([]model.ScoredEvent, error) {
	zlog := logger.GetLogger()

	repeatCounts := make(map[uint32]int, len(events))
	for _, e := range events {
		repeatCounts[e.MMSI]++
	}

	w := cfg.Scoring.Weights
	out := make([]model.ScoredEvent, len(events))
	totals := make([]float64, len(events))

	for i, e := range events {
		isFishingVessel := e.Enrichment != nil && e.Enrichment.IsFishingVessel
		coverageReliability := 0.0
		continuouslyTransmittingNearby := false
		if e.Enrichment != nil {
			coverageReliability = e.Enrichment.CoverageReliability
			continuouslyTransmittingNearby = e.Enrichment.ContinuouslyTransmittingNearby
		}

		sub := model.SubScores{
			Duration: math.Min(e.DurationHours/cfg.Scoring.DurationNormHours, 1) * w.Duration,
			Coverage: (1 - coverageReliability) * w.Coverage,
			EEZ:      (1 - eezProximity(geo.Lat(e.MidpointLocation))) * w.EEZ,
			Fishing:  fishingFactor(isFishingVessel, continuouslyTransmittingNearby) * w.Fishing,
			Repeat:   math.Min(float64(repeatCounts[e.MMSI])/cfg.Scoring.RepeatNormCount, 1) * w.Repeat,
		}

		total := sub.Duration + sub.Coverage + sub.EEZ + sub.Fishing + sub.Repeat
		totals[i] = total

		enrichment := cloneEnrichment(e.Enrichment)
		enrichment.Scores = sub
		enrichment.TotalScore = total
		enrichment.IsHighlySuspicious = total >= cfg.Scoring.HighlySuspicious

		out[i] = e.WithEnrichment(enrichment)
	}

	if len(totals) > 0 {
		if median, err := stats.Median(totals); err == nil {
			zlog.Debug().Float64("median_total_score", median).Int("events", len(totals)).Msg("scored dark events")
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Enrichment.TotalScore, out[j].Enrichment.TotalScore
		if si != sj {
			return si > sj
		}
		if out[i].MMSI != out[j].MMSI {
			return out[i].MMSI < out[j].MMSI
		}
		return out[i].Start.Before(out[j].Start)
	})

	return out, nil
}

// eezProximity implements spec.md §4.5's coarse EEZ-proximity heuristic:
// 0.1 near the latitude bands where most EEZ boundaries concentrate, else 1.0.
func eezProximity(lat float64) float64 {
	switch {
	case lat >= 35 && lat <= 45:
		return 0.1
	case lat >= -45 && lat <= -35:
		return 0.1
	case lat >= -10 && lat <= 10:
		return 0.1
	default:
		return 1.0
	}
}

func fishingFactor(isFishingVessel, continuouslyTransmittingNearby bool) float64 {
	factor := 0.0
	if isFishingVessel {
		factor += 0.5
	}
	if continuouslyTransmittingNearby {
		factor += 0.5
	}
	return factor
}

// cloneEnrichment returns a copy of e's Enrichment (or a zero-value one if
// nil) so Score never mutates the Enrichment a prior stage produced.
func cloneEnrichment(e *model.Enrichment) *model.Enrichment {
	if e == nil {
		return &model.Enrichment{}
	}
	clone := *e
	return &clone
}
