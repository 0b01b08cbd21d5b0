package main

import (
	"fmt"

	"github.com/oceanwake/darkfleet/config"

	"github.com/urfave/cli/v2"
)

var VersionCommand = &cli.Command{
	Name:      "version",
	Usage:     "print the darkfleet version",
	UsageText: "darkfleet version",
	Action: func(cCtx *cli.Context) error {
		v := config.Version
		if v == "" {
			v = "dev"
		}
		fmt.Println("darkfleet", v)
		return nil
	},
}
