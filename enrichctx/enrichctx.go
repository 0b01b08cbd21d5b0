// Package enrichctx implements C4: for each dark event, gathering
// nearby-vessel evidence from the proximity index to derive a coverage
// reliability ratio and a confidence score, per spec.md §4.4.
package enrichctx

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/geo"
	"github.com/oceanwake/darkfleet/model"
	"github.com/oceanwake/darkfleet/proximity"
	"github.com/oceanwake/darkfleet/record"
)

// Mode distinguishes the two Context variants named in spec.md §9's design
// note: real evidence from a built proximity index, or a seeded stand-in
// used when the index was never built (--fast mode).
type Mode int

const (
	FromIndexMode Mode = iota
	SyntheticMode
)

// Context is the sum-type input to the confidence calculation. Enrich
// consumes it without branching on mode, and the scorer (C5) reads only the
// Enrichment fields Enrich derives from it; only ConfidenceScore's formula
// differs internally.
type Context struct {
	mode Mode

	uniqueNearbyVessels      int
	continuouslyTransmitting int
}

// FromIndex builds a Context from real proximity-index evidence: the count
// of distinct nearby vessels and how many of them transmitted at least once
// during the event window.
func FromIndex(uniqueNearby, continuouslyTransmitting int) Context {
	return Context{mode: FromIndexMode, uniqueNearbyVessels: uniqueNearby, continuouslyTransmitting: continuouslyTransmitting}
}

// Synthetic builds a degraded Context for --fast mode, drawing stand-in
// nearby-vessel counts from a seeded RNG instead of consulting a proximity
// index that was never built. Must be explicitly selected by the caller —
// never a silent fallback, per spec.md §4.4.
func Synthetic(seed int64) Context {
	rng := rand.New(rand.NewSource(seed))
	return Context{
		mode:                     SyntheticMode,
		uniqueNearbyVessels:      rng.Intn(5),
		continuouslyTransmitting: rng.Intn(5),
	}
}

// ContinuouslyTransmittingCount is the number of nearby vessels that kept
// transmitting during the event window — the scorer's "fishing" sub-score
// reads this as a boolean (count > 0).
func (c Context) ContinuouslyTransmittingCount() int { return c.continuouslyTransmitting }

// CoverageReliability is the ratio from spec.md §4.4. Computed in both
// modes so callers inspecting it get a value, even though ConfidenceScore
// ignores it in Synthetic mode.
func (c Context) CoverageReliability() float64 {
	return float64(c.continuouslyTransmitting) / math.Max(1, float64(c.uniqueNearbyVessels))
}

// ConfidenceScore implements spec.md §4.4's weighted formula in FromIndex
// mode. In Synthetic mode, no index was consulted to produce a coverage
// ratio, so its 0.5 weight is dropped and redistributed proportionally
// across the remaining duration (0.3) and fleet (0.2) terms — per spec.md
// §9's "compute confidence from duration and fleet flag only".
func (c Context) ConfidenceScore(durationHours float64, isFishingVessel bool) float64 {
	durationTerm := math.Min(durationHours/3, 1)
	fleetTerm := 0.0
	if isFishingVessel {
		fleetTerm = 1
	}

	if c.mode == SyntheticMode {
		return 0.6*durationTerm + 0.4*fleetTerm
	}
	return 0.5*c.CoverageReliability() + 0.3*durationTerm + 0.2*fleetTerm
}

// Enrich derives Context for every event and attaches CoverageReliability,
// ConfidenceScore, HighConfidence, and ContinuouslyTransmittingNearby to its
// Enrichment. When fast is true (or idx is nil), every event uses a
// Synthetic context seeded from cfg's proximity seed, the vessel's MMSI, and
// the event's start time, so reruns are reproducible without an index.
func Enrich(cfg *config.Config, events []model.DarkEvent, idx *proximity.Index, fixes []model.Fix, membership model.FishingFleetMembership, fast bool) []model.DarkEvent {
	fixesByVessel := record.PerVessel(fixes)

	out := make([]model.DarkEvent, len(events))
	for i, e := range events {
		var ctx Context

		if fast || idx == nil {
			ctx = Synthetic(cfg.Proximity.RandomSeed + int64(e.MMSI) + e.Start.Unix())
		} else {
			nearby := nearbyVesselsForEvent(idx, e, cfg.Context.WindowMinutes, cfg.Context.RadiusKM)
			transmitting := 0
			for mmsi := range nearby {
				if countTransmissionsInWindow(fixesByVessel[mmsi], e.Start, e.End) > 0 {
					transmitting++
				}
			}
			ctx = FromIndex(len(nearby), transmitting)
		}

		gear := membership.GearTypes(e.MMSI)
		isFishingVessel := membership.IsFishingVessel(e.MMSI)
		if e.Enrichment != nil {
			gear = e.Enrichment.FishingGearTypes
			isFishingVessel = e.Enrichment.IsFishingVessel
		}

		coverage := ctx.CoverageReliability()
		confidence := ctx.ConfidenceScore(e.DurationHours, isFishingVessel)

		out[i] = e.WithEnrichment(&model.Enrichment{
			FishingGearTypes:               gear,
			IsFishingVessel:                isFishingVessel,
			CoverageReliability:            coverage,
			ConfidenceScore:                confidence,
			HighConfidence:                 confidence >= 0.6,
			ContinuouslyTransmittingNearby: ctx.ContinuouslyTransmittingCount() > 0,
		})
	}
	return out
}

// nearbyVesselsForEvent scans the proximity index for encounters whose time
// bin falls within windowMinutes of either boundary of the event and whose
// location falls within radiusKM of the event's midpoint, per spec.md
// §4.4. Returns the distinct MMSIs found, excluding the event's own vessel.
func nearbyVesselsForEvent(idx *proximity.Index, event model.DarkEvent, windowMinutes int, radiusKM float64) map[uint32]struct{} {
	window := time.Duration(windowMinutes) * time.Minute
	startLo, startHi := event.Start.Add(-window), event.Start.Add(window)
	endLo, endHi := event.End.Add(-window), event.End.Add(window)

	nearby := make(map[uint32]struct{})
	for _, enc := range idx.Encounters {
		inStartWindow := !enc.TimeBin.Before(startLo) && !enc.TimeBin.After(startHi)
		inEndWindow := !enc.TimeBin.Before(endLo) && !enc.TimeBin.After(endHi)
		if !inStartWindow && !inEndWindow {
			continue
		}

		if enc.Vessel1MMSI != event.MMSI && geo.HaversineKM(enc.Vessel1Location, event.MidpointLocation) <= radiusKM {
			nearby[enc.Vessel1MMSI] = struct{}{}
		}
		if enc.Vessel2MMSI != event.MMSI && geo.HaversineKM(enc.Vessel2Location, event.MidpointLocation) <= radiusKM {
			nearby[enc.Vessel2MMSI] = struct{}{}
		}
	}
	return nearby
}

// countTransmissionsInWindow counts fixes strictly inside (start, end),
// assuming fixes is sorted ascending by timestamp (record.PerVessel's
// guarantee).
func countTransmissionsInWindow(fixes []model.Fix, start, end time.Time) int {
	lo := sort.Search(len(fixes), func(i int) bool { return !fixes[i].Timestamp.Before(start) })

	count := 0
	for i := lo; i < len(fixes) && fixes[i].Timestamp.Before(end); i++ {
		if fixes[i].Timestamp.After(start) {
			count++
		}
	}
	return count
}
