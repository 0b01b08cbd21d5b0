// Package config loads and validates the single immutable configuration
// tree threaded by pointer into every pipeline stage, per spec.md §9's
// design note that all tunables live in one value with no globals.
package config

import (
	"errors"
	"fmt"

	"github.com/oceanwake/darkfleet/logger"
	"github.com/oceanwake/darkfleet/util"

	"github.com/go-playground/validator/v10"
	"github.com/hjson/hjson-go/v4"
	"github.com/spf13/afero"
)

// Version is populated by build flags with the current git tag.
var Version string

const DefaultConfigPath = "./config.hjson"

var errReadingConfigFile = errors.New("encountered an error while reading the config file")

type (
	Config struct {
		GapDetection  GapDetection  `json:"gap_detection" validate:"required"`
		Proximity     Proximity     `json:"proximity" validate:"required"`
		Context       ContextConfig `json:"context" validate:"required"`
		Scoring       Scoring       `json:"scoring" validate:"required"`
		DBSCAN        DBSCAN        `json:"dbscan" validate:"required"`
		Grid          Grid          `json:"grid" validate:"required"`
		Network       Network       `json:"network" validate:"required"`
		Comprehensive Comprehensive `json:"comprehensive" validate:"required"`
	}

	// GapDetection configures C2, the gap detector.
	GapDetection struct {
		ThresholdMinutes float64 `json:"threshold_minutes" validate:"gt=0"`
	}

	// Proximity configures C3, the proximity indexer.
	Proximity struct {
		TimeWindowMinutes   int     `json:"time_window_minutes" validate:"gt=0"`
		DistanceThresholdKM float64 `json:"distance_threshold_km" validate:"gt=0"`
		MaxPointsPerBin     int     `json:"max_points_per_bin" validate:"gt=0"`
		SaveEvery           int     `json:"save_every" validate:"gt=0"`
		RandomSeed          int64   `json:"random_seed"`
		ProgressEveryBins   int     `json:"progress_every_bins" validate:"gt=0"`
	}

	// ContextConfig configures C4, the context enricher.
	ContextConfig struct {
		RadiusKM      float64 `json:"radius_km" validate:"gt=0"`
		WindowMinutes int     `json:"window_minutes" validate:"gt=0"`
	}

	// Scoring configures C5, the multi-factor scorer.
	Scoring struct {
		Weights           ScoringWeights `json:"weights" validate:"required"`
		HighlySuspicious  float64        `json:"highly_suspicious_threshold" validate:"gte=0,lte=1"`
		DurationNormHours float64        `json:"duration_norm_hours" validate:"gt=0"`
		RepeatNormCount   float64        `json:"repeat_norm_count" validate:"gt=0"`
	}

	ScoringWeights struct {
		Duration float64 `json:"duration" validate:"gte=0,lte=1"`
		Coverage float64 `json:"coverage" validate:"gte=0,lte=1"`
		EEZ      float64 `json:"eez" validate:"gte=0,lte=1"`
		Fishing  float64 `json:"fishing" validate:"gte=0,lte=1"`
		Repeat   float64 `json:"repeat" validate:"gte=0,lte=1"`
	}

	// DBSCAN configures C6's clustering pass.
	DBSCAN struct {
		EpsKM      float64 `json:"eps_km" validate:"gt=0"`
		MinSamples int     `json:"min_samples" validate:"gt=0"`
	}

	// Grid configures C6's grid binning and heatmap generation.
	Grid struct {
		SizeDegrees          float64 `json:"size_degrees" validate:"gt=0"`
		HeatmapResolution    float64 `json:"heatmap_resolution" validate:"gt=0"`
		MinEventsForHotspot  int     `json:"min_events_for_hotspot" validate:"gt=0"`
	}

	// Network configures C8, the coordination network analyzer.
	Network struct {
		ProximityThresholdKM float64 `json:"proximity_threshold_km" validate:"gt=0"`
		LouvainSeed          int64   `json:"louvain_seed"`
		CoordinatorBetweennessThreshold float64 `json:"coordinator_betweenness_threshold" validate:"gte=0"`
		CoordinatorDegreeThreshold      float64 `json:"coordinator_degree_threshold" validate:"gte=0"`
	}

	// Comprehensive configures C7, the independent per-segment risk
	// evaluator.
	Comprehensive struct {
		DarkHoursThreshold float64                  `json:"dark_hours_threshold" validate:"gt=0"`
		SpeedMin           float64                  `json:"speed_min" validate:"gte=0"`
		SpeedMax           float64                  `json:"speed_max" validate:"gt=0"`
		Weights            ComprehensiveWeights      `json:"weights" validate:"required"`
		ShoreDistanceKM    float64                  `json:"shore_distance_km" validate:"gt=0"`
		TotalRiskThreshold float64                  `json:"total_risk_threshold" validate:"gte=0,lte=1"`
	}

	ComprehensiveWeights struct {
		Dark      float64 `json:"dark" validate:"gte=0,lte=1"`
		MPA       float64 `json:"mpa" validate:"gte=0,lte=1"`
		Fishing   float64 `json:"fishing" validate:"gte=0,lte=1"`
		Speed     float64 `json:"speed" validate:"gte=0,lte=1"`
		Distance  float64 `json:"distance" validate:"gte=0,lte=1"`
		Nighttime float64 `json:"nighttime" validate:"gte=0,lte=1"`
		Shore     float64 `json:"shore" validate:"gte=0,lte=1"`
	}
)

// EarthRadiusKM is the fixed constant named in spec.md §6.
const EarthRadiusKM = 6371.0

// Default returns the configuration's default values, matching the defaults
// named throughout spec.md §4 and §6.
func Default() Config {
	return Config{
		GapDetection: GapDetection{ThresholdMinutes: 10},
		Proximity: Proximity{
			TimeWindowMinutes:   10,
			DistanceThresholdKM: 20,
			MaxPointsPerBin:     5000,
			SaveEvery:           25,
			RandomSeed:          42,
			ProgressEveryBins:   10,
		},
		Context: ContextConfig{
			RadiusKM:      20,
			WindowMinutes: 10,
		},
		Scoring: Scoring{
			Weights: ScoringWeights{
				Duration: 0.30,
				Coverage: 0.20,
				EEZ:      0.20,
				Fishing:  0.20,
				Repeat:   0.10,
			},
			HighlySuspicious:  0.7,
			DurationNormHours: 6,
			RepeatNormCount:   10,
		},
		DBSCAN: DBSCAN{EpsKM: 50, MinSamples: 3},
		Grid: Grid{
			SizeDegrees:         1.0,
			HeatmapResolution:   0.5,
			MinEventsForHotspot: 10,
		},
		Network: Network{
			ProximityThresholdKM:            50,
			LouvainSeed:                     42,
			CoordinatorBetweennessThreshold: 0.01,
			CoordinatorDegreeThreshold:      0.1,
		},
		Comprehensive: Comprehensive{
			DarkHoursThreshold: 3,
			SpeedMin:           2,
			SpeedMax:           15,
			Weights: ComprehensiveWeights{
				Dark:      0.25,
				MPA:       0.30,
				Fishing:   0.20,
				Speed:     0.10,
				Distance:  0.08,
				Nighttime: 0.04,
				Shore:     0.03,
			},
			ShoreDistanceKM:    100,
			TotalRiskThreshold: 0.3,
		},
	}
}

// ReadFileConfig reads and validates the config file at the given path,
// falling back to Default for any field left unset in the file.
func ReadFileConfig(afs afero.Fs, path string) (*Config, error) {
	if err := util.ValidateFile(afs, path); err != nil {
		return nil, err
	}

	contents, err := afero.ReadFile(afs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errReadingConfigFile, err.Error())
	}

	cfg := Default()
	if err := hjson.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("%w, located at '%s': %w", errReadingConfigFile, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every configured weight/threshold invariant, per spec.md
// §7's "configuration invariant violation" fatal error kind.
func (cfg *Config) Validate() error {
	zlog := logger.GetLogger()
	zlog.Debug().Interface("config", cfg).Msg("validating config")

	validate, err := NewValidator()
	if err != nil {
		return err
	}

	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if err := validateWeightsSumToOne("scoring", cfg.Scoring.Weights.Duration, cfg.Scoring.Weights.Coverage, cfg.Scoring.Weights.EEZ, cfg.Scoring.Weights.Fishing, cfg.Scoring.Weights.Repeat); err != nil {
		return err
	}

	w := cfg.Comprehensive.Weights
	if err := validateWeightsSumToOne("comprehensive", w.Dark, w.MPA, w.Fishing, w.Speed, w.Distance, w.Nighttime, w.Shore); err != nil {
		return err
	}

	if cfg.Comprehensive.SpeedMin >= cfg.Comprehensive.SpeedMax {
		return fmt.Errorf("comprehensive.speed_min must be less than comprehensive.speed_max")
	}

	return nil
}

func validateWeightsSumToOne(name string, weights ...float64) error {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	// allow a small epsilon for floating point config values
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("%s weights must sum to 1, got %f", name, sum)
	}
	return nil
}

// NewValidator creates a validator with the field-level rules used above.
func NewValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	return v, nil
}
