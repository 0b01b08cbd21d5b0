// Package pipeline wires the eight components together into the single
// orchestrating entry point spec.md §6 calls for: Run consumes a typed
// record source and produces every named output collection.
package pipeline

import (
	"context"
	"fmt"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/darkevent"
	"github.com/oceanwake/darkfleet/enrichctx"
	"github.com/oceanwake/darkfleet/logger"
	"github.com/oceanwake/darkfleet/model"
	"github.com/oceanwake/darkfleet/network"
	"github.com/oceanwake/darkfleet/proximity"
	"github.com/oceanwake/darkfleet/record"
	"github.com/oceanwake/darkfleet/risk"
	"github.com/oceanwake/darkfleet/scoring"
	"github.com/oceanwake/darkfleet/spatial"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Result bundles every canonical output collection named in spec.md §6, with
// JSON tags matching the canonical names external collaborators expect.
type Result struct {
	// RunID identifies this invocation of Run for log correlation across the
	// stage boundaries, following rita's per-import identifier pattern.
	RunID string `json:"run_id"`

	LoadStats record.Stats `json:"load_stats"`

	EnhancedDarkEvents []model.DarkEvent           `json:"enhanced_dark_events"`
	ProximityIndex     []model.ProximityEncounter  `json:"proximity_index"`
	ScoredDarkEvents   []model.ScoredEvent         `json:"scored_dark_events"`

	DarkZoneClusters []model.Cluster          `json:"dark_zone_clusters"`
	DarkZoneHexbins  []model.GridCell         `json:"dark_zone_hexbins"`
	Heatmap          []model.HeatmapCell      `json:"heatmap"`
	TemporalHotspots []model.TemporalPattern  `json:"temporal_hotspots"`
	MPAHotspots      []model.MPAHotspot       `json:"mpa_hotspots"`

	RiskSegments       []model.RiskSegment        `json:"risk_segments"`
	VesselRiskProfiles []model.VesselRiskProfile  `json:"vessel_risk_profiles"`

	VesselGraph    *model.VesselGraph         `json:"-"`
	Centralities   []model.CentralityScores   `json:"centrality_scores"`
	Communities    []model.Community          `json:"vessel_communities"`
	Coordinators   []model.Coordinator        `json:"coordinators"`
	Motherships    []model.Mothership         `json:"potential_motherships"`
	NetworkSummary model.NetworkSummary       `json:"network_summary"`
}

// Run executes every stage in spec.md §2's dataflow order: C1 loads and
// normalizes fixes; C2 and C3 run over that stream (C3 only in full mode);
// C4 enriches, C5 scores, C6 clusters and bins; C7 runs independently over
// the fix stream; C8 builds the coordination network from the scored events.
//
// fast selects the degraded C4 path (spec.md §6's CLI --fast flag) and
// skips building the proximity index entirely, since fast mode never
// consults it.
func Run(ctx context.Context, cfg *config.Config, source record.Source, fast bool) (*Result, error) {
	zlog := logger.GetLogger()
	runID := uuid.New().String()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	afs := source.Fs
	if afs == nil {
		afs = afero.NewOsFs()
	}

	fixes, loadStats, err := record.Load(afs, source.FixesPath)
	if err != nil {
		return nil, fmt.Errorf("could not load fix records: %w", err)
	}
	zlog.Info().Str("run_id", runID).Int("accepted", loadStats.Accepted).Int("dropped", loadStats.Dropped).Msg("loaded fix records")

	membership, err := loadFleetMembership(afs, source.FleetMembershipPaths)
	if err != nil {
		return nil, fmt.Errorf("could not load fleet membership: %w", err)
	}

	mpas, err := loadMPATable(afs, source.MPATablePath)
	if err != nil {
		return nil, fmt.Errorf("could not load MPA table: %w", err)
	}

	darkEvents, err := darkevent.Detect(ctx, cfg, fixes, membership)
	if err != nil {
		return nil, fmt.Errorf("gap detection failed: %w", err)
	}

	var idx *proximity.Index
	if !fast {
		idx, err = proximity.Build(ctx, cfg, fixes, afs, source.CheckpointDir)
		if err != nil {
			return nil, fmt.Errorf("proximity indexing failed: %w", err)
		}
	}

	enriched := enrichctx.Enrich(cfg, darkEvents, idx, fixes, membership, fast)

	scored, err := scoring.Score(cfg, enriched)
	if err != nil {
		return nil, fmt.Errorf("scoring failed: %w", err)
	}

	clustered, clusters := spatial.Cluster(cfg, scored)
	gridCells := spatial.Grid(cfg, clustered)
	heatmap := spatial.Heatmap(cfg, clustered)
	temporal := spatial.TemporalHotspots(clustered)
	mpaHotspots := spatial.MPAHotspots(clustered, mpas)

	riskSegments, riskProfiles, err := risk.Evaluate(ctx, cfg, fixes, mpas)
	if err != nil {
		return nil, fmt.Errorf("comprehensive risk evaluation failed: %w", err)
	}

	netResult := network.Analyze(cfg, clustered, fixes, membership)

	var encounters []model.ProximityEncounter
	if idx != nil {
		encounters = idx.Encounters
	}

	return &Result{
		RunID:              runID,
		LoadStats:          loadStats,
		EnhancedDarkEvents: darkEvents,
		ProximityIndex:     encounters,
		ScoredDarkEvents:   clustered,
		DarkZoneClusters:   clusters,
		DarkZoneHexbins:    gridCells,
		Heatmap:            heatmap,
		TemporalHotspots:   temporal,
		MPAHotspots:        mpaHotspots,
		RiskSegments:       riskSegments,
		VesselRiskProfiles: riskProfiles,
		VesselGraph:        netResult.Graph,
		Centralities:       netResult.Centralities,
		Communities:        netResult.Communities,
		Coordinators:       netResult.Coordinators,
		Motherships:        netResult.Motherships,
		NetworkSummary:     netResult.Summary,
	}, nil
}

func loadFleetMembership(afs afero.Fs, paths map[model.GearCategory]string) (model.FishingFleetMembership, error) {
	if len(paths) == 0 {
		return model.FishingFleetMembership{}, nil
	}
	return record.LoadFleetMembership(afs, paths)
}

func loadMPATable(afs afero.Fs, path string) (model.MPATable, error) {
	if path == "" {
		return model.MPATable{}, nil
	}
	return record.LoadMPATable(afs, path)
}
