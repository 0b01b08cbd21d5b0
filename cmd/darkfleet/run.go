package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/logger"
	"github.com/oceanwake/darkfleet/model"
	"github.com/oceanwake/darkfleet/pipeline"
	"github.com/oceanwake/darkfleet/record"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

var ErrBothModesSelected = errors.New("--full and --fast are mutually exclusive")
var ErrInvalidFleetMapping = errors.New("--fleet entries must be GEAR=PATH")

// RunCommand is darkfleet's single driver, per spec.md §6: --full runs the
// proximity indexer (C3); --fast skips it and falls back to C4's degraded
// synthetic enrichment. Exactly one of the two applies; --full is the
// default when neither is given.
var RunCommand = &cli.Command{
	Name:      "run",
	Usage:     "run the dark fleet detection pipeline over a fix stream",
	UsageText: "darkfleet run --fixes FILE [--full|--fast] [--fleet GEAR=FILE ...] [--mpa FILE] [--output FILE]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "fixes",
			Usage:    "path to the AIS fix CSV",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:  "fleet",
			Usage: "fishing fleet reference CSV as GEAR=FILE, repeatable",
		},
		&cli.StringFlag{
			Name:  "mpa",
			Usage: "path to the MPA reference table CSV",
		},
		&cli.StringFlag{
			Name:  "checkpoint-dir",
			Usage: "directory for proximity index checkpoints",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "write the JSON result to this file instead of stdout",
		},
		&cli.BoolFlag{
			Name:  "full",
			Usage: "run the full pipeline including the proximity indexer (C3)",
		},
		&cli.BoolFlag{
			Name:  "fast",
			Usage: "skip the proximity indexer and use degraded context enrichment",
		},
		ConfigFlag(),
	},
	Action: func(cCtx *cli.Context) error {
		afs := afero.NewOsFs()

		fast, err := resolveMode(cCtx.Bool("full"), cCtx.Bool("fast"))
		if err != nil {
			return err
		}

		cfg, err := config.ReadFileConfig(afs, cCtx.String("config"))
		if err != nil {
			return err
		}

		fleetPaths, err := parseFleetMappings(cCtx.StringSlice("fleet"))
		if err != nil {
			return err
		}

		result, err := pipeline.Run(context.Background(), cfg, record.Source{
			Fs:                   afs,
			FixesPath:            cCtx.String("fixes"),
			FleetMembershipPaths: fleetPaths,
			MPATablePath:         cCtx.String("mpa"),
			CheckpointDir:        cCtx.String("checkpoint-dir"),
		}, fast)
		if err != nil {
			return err
		}

		return writeResult(afs, cCtx.String("output"), result)
	},
}

func resolveMode(full, fast bool) (bool, error) {
	if full && fast {
		return false, ErrBothModesSelected
	}
	return fast, nil
}

func parseFleetMappings(entries []string) (map[model.GearCategory]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[model.GearCategory]string, len(entries))
	for _, entry := range entries {
		gear, path, ok := strings.Cut(entry, "=")
		if !ok || gear == "" || path == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFleetMapping, entry)
		}
		out[model.GearCategory(gear)] = path
	}
	return out, nil
}

func writeResult(afs afero.Fs, outputPath string, result *pipeline.Result) error {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode result: %w", err)
	}

	if outputPath == "" {
		fmt.Println(string(encoded))
		return nil
	}

	if err := afero.WriteFile(afs, outputPath, encoded, 0o644); err != nil {
		return fmt.Errorf("could not write result to %s: %w", outputPath, err)
	}

	zlog := logger.GetLogger()
	zlog.Info().Str("path", outputPath).Msg("wrote pipeline result")
	return nil
}
