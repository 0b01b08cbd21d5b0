package main

import (
	"github.com/urfave/cli/v2"
)

func Commands() []*cli.Command {
	return []*cli.Command{
		RunCommand,
		ValidateConfigCommand,
		VersionCommand,
	}
}

func ConfigFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "load configuration from `FILE`",
		Value:   "./config.hjson",
	}
}
