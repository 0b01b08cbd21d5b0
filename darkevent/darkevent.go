// Package darkevent implements C2: scanning each vessel's chronological fix
// stream for AIS transmission gaps longer than the configured threshold, and
// turning each gap into a DarkEvent with a classified region.
package darkevent

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
	"golang.org/x/sync/errgroup"
)

// Detect scans every vessel's sorted fix sequence for gaps longer than
// cfg.GapDetection.ThresholdMinutes and returns one DarkEvent per gap. Work
// is fanned out per-MMSI across a fixed-size pond.Pool, matching the worker
// count formula used by the comprehensive risk evaluator (C7).
func Detect(ctx context.Context, cfg *config.Config, fixes []model.Fix, membership model.FishingFleetMembership) ([]model.DarkEvent, error) {
	zlog := logger.GetLogger()

	byVessel := record.PerVessel(fixes)
	mmsis := record.SortedMMSIs(byVessel)

	workers := int(math.Floor(math.Max(4, float64(runtime.NumCPU())/2)))
	pool := pond.New(workers, 0, pond.MinWorkers(workers), pond.Context(ctx))
	defer pool.StopAndWait()

	group, _ := errgroup.WithContext(ctx)
	results := make([][]model.DarkEvent, len(mmsis))

	for i, mmsi := range mmsis {
		i, mmsi := i, mmsi
		group.Go(func() error {
			pool.SubmitAndWait(func() {
				events := detectVesselGaps(cfg, mmsi, byVessel[mmsi])
				results[i] = applyFleetMembership(events, membership)
			})
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	var out []model.DarkEvent
	for _, events := range results {
		out = append(out, events...)
	}

	zlog.Debug().Int("vessels", len(mmsis)).Int("dark_events", len(out)).Msg("gap detection complete")
	return sortByMMSIAndStart(out), nil
}

// detectVesselGaps walks a single vessel's chronologically sorted fixes and
// emits a DarkEvent for every consecutive pair separated by more than the
// configured threshold (a gap of exactly the threshold emits nothing), per
// spec.md §4.2.
func detectVesselGaps(cfg *config.Config, mmsi uint32, fixes []model.Fix) []model.DarkEvent {
	if len(fixes) < 2 {
		return nil
	}

	threshold := cfg.GapDetection.ThresholdMinutes

	var events []model.DarkEvent
	for i := 1; i < len(fixes); i++ {
		prev, curr := fixes[i-1], fixes[i]

		gapMinutes := curr.Timestamp.Sub(prev.Timestamp).Minutes()
		if gapMinutes <= threshold {
			continue
		}

		mid := geo.Midpoint(prev.Point(), curr.Point())
		events = append(events, model.DarkEvent{
			MMSI:             mmsi,
			Start:            prev.Timestamp,
			End:              curr.Timestamp,
			StartLocation:    prev.Point(),
			EndLocation:      curr.Point(),
			MidpointLocation: mid,
			DurationHours:    gapMinutes / 60.0,
			Region:           geo.ClassifyRegion(geo.Lat(mid), geo.Lon(mid)),
		})
	}
	return events
}

// applyFleetMembership stamps each event's Enrichment with the vessel's
// known gear categories, the one piece of context available before C4 runs.
func applyFleetMembership(events []model.DarkEvent, membership model.FishingFleetMembership) []model.DarkEvent {
	if len(events) == 0 {
		return events
	}

	out := make([]model.DarkEvent, len(events))
	for i, e := range events {
		gear := membership.GearTypes(e.MMSI)
		out[i] = e.WithEnrichment(&model.Enrichment{
			FishingGearTypes: gear,
			IsFishingVessel:  len(gear) > 0,
		})
	}
	return out
}

// sortByMMSIAndStart stably orders events by (mmsi, start) so downstream
// stages see deterministic ordering regardless of worker scheduling.
func sortByMMSIAndStart(events []model.DarkEvent) []model.DarkEvent {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].MMSI != events[j].MMSI {
			return events[i].MMSI < events[j].MMSI
		}
		return events[i].Start.Before(events[j].Start)
	})
	return events
}
