package record

import (
	"github.com/oceanwake/darkfleet/model"

	"github.com/spf13/afero"
)

// Source names every input file the pipeline consumes and the filesystem to
// read them from, per spec.md §6's external-interface framing.
type Source struct {
	Fs afero.Fs

	// FixesPath is the CSV AIS fix stream C1 loads.
	FixesPath string

	// FleetMembershipPaths maps each gear category to its reference CSV,
	// consumed by LoadFleetMembership. Nil or empty skips fleet enrichment.
	FleetMembershipPaths map[model.GearCategory]string

	// MPATablePath is the MPA reference table consumed by LoadMPATable.
	// Empty skips MPA-hotspot aggregation.
	MPATablePath string

	// CheckpointDir, if set, is where C3 persists its resumable progress.
	CheckpointDir string
}
