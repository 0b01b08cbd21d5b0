package main

import (
	"fmt"

	"github.com/oceanwake/darkfleet/config"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

// ValidateConfigCommand checks a config.hjson file against the validator
// tags in config.Config without running the pipeline, per spec.md §9's
// config-loading description.
var ValidateConfigCommand = &cli.Command{
	Name:      "validate",
	Usage:     "validate a configuration file",
	UsageText: "darkfleet validate [--config FILE]",
	Flags: []cli.Flag{
		ConfigFlag(),
	},
	Action: func(cCtx *cli.Context) error {
		afs := afero.NewOsFs()

		_, err := config.ReadFileConfig(afs, cCtx.String("config"))
		if err != nil {
			fmt.Println("\n\t[!] configuration file is not valid")
			return err
		}

		fmt.Println("\n\t[OK] configuration file is valid")
		return nil
	},
}
