package main

import (
	"fmt"
	"os"

	"github.com/oceanwake/darkfleet/config"
	"github.com/oceanwake/darkfleet/logger"

	"github.com/urfave/cli/v2"
)

// Version is populated by build flags with the current git tag.
var Version string

func main() {
	config.Version = Version

	app := &cli.App{
		EnableBashCompletion: true,
		Commands:             Commands(),
		Name:                 "darkfleet",
		Usage:                "find dark vessels colluding at sea",
		UsageText:            "darkfleet [-d] command [command options]",
		Version:              Version,
		ExitErrHandler:       exitErrHandler,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:     "debug",
				Aliases:  []string{"d"},
				Usage:    "run in debug mode",
				Value:    false,
				Required: false,
			},
		},
		Before: func(cCtx *cli.Context) error {
			logger.DebugMode = os.Getenv("APP_ENV") == "dev"
			if cCtx.Bool("debug") {
				logger.DebugMode = true
			}
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		zlog := logger.GetLogger()
		zlog.Fatal().Err(err).Send()
	}
}

// exitErrHandler implements cli.ExitErrHandlerFunc.
func exitErrHandler(cCtx *cli.Context, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cCtx.App.ErrWriter, "\n[!] %s\n", err.Error())
	cli.OsExiter(1)
}
