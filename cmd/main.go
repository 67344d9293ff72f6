package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/sadl/config"
	"github.com/xeptore/sadl/constant"
	"github.com/xeptore/sadl/log"
	"github.com/xeptore/sadl/selection"
)

const (
	flagConfigFilePath = "config"
	flagLogLevel       = "log-level"
	flagLogJSON        = "log-json"
	flagOutputDir      = "dir"
	flagFlawReport     = "flaw-report"
	flagSelection      = "sel"
	flagRetries        = "retries"
	flagNonInteractive = "non-interactive"
	flagTrackID        = "id"
	flagFileName       = "name"

	envConfig = "SADL_CONFIG"
)

func main() {
	logger := log.NewPretty(os.Stderr).Level(zerolog.InfoLevel)
	defer func() {
		if r := recover(); nil != r {
			logger.Fatal().Func(log.Panic(r)).Msg("Application panicked")
		}
	}()

	if err := godotenv.Load(); nil != err {
		if errors.Is(err, os.ErrNotExist) {
			logger.Trace().Msg(".env file was not found")
		} else {
			logger.Fatal().Err(err).Msg("Failed to load .env file")
		}
	}

	app := newApp(&logger)

	if err := app.Run(os.Args); nil != err {
		switch {
		case errors.Is(err, context.Canceled):
			logger.Trace().Msg("Application was canceled")
			return
		case errors.Is(err, selection.ErrInvalidSelection):
			logger.Fatal().Err(err).Msg("No track was selected")
		}
		if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
			logger.Fatal().Func(log.Flaw(err)).Msg("Application exited with flaw")
			return
		}
		logger.Fatal().Err(err).Msg("Application exited with error")
	}
}

// newApp builds the CLI. logger is replaced by one honoring the global log flags once
// they are parsed, so failures after that point are reported in the requested format.
func newApp(logger *zerolog.Logger) *cli.App {
	//nolint:exhaustruct
	return &cli.App{
		Name:      constant.Name,
		Version:   constant.Version,
		Compiled:  constant.CompileTime,
		Suggest:   true,
		Usage:     "Search slavart and download a track",
		ArgsUsage: `<query>. Flags go before the query; quote a query starting with "search" or "fetch"`,
		Action:    run,
		Before: func(cliCtx *cli.Context) error {
			*logger = rootLogger(cliCtx)
			return nil
		},
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:    flagConfigFilePath,
				Aliases: []string{"c"},
				Usage:   "Config file path. Raw YAML can be passed via " + envConfig + " instead",
			},
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "Log level overriding the config (trace, debug, info, warn, error)",
			},
			//nolint:exhaustruct
			&cli.BoolFlag{
				Name:  flagLogJSON,
				Usage: "Write log lines as packed JSON",
			},
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:    flagOutputDir,
				Aliases: []string{"d"},
				Usage:   "Output directory overriding the config",
			},
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:  flagFlawReport,
				Usage: "Write a YAML report of the failure to this file",
			},
			//nolint:exhaustruct
			&cli.IntFlag{
				Name:    flagSelection,
				Aliases: []string{"s"},
				Usage:   "1-based index of the track to download. 0 prompts for it",
				Value:   0,
			},
			newRetriesFlag(),
			//nolint:exhaustruct
			&cli.BoolFlag{
				Name:  flagNonInteractive,
				Usage: "Fail on an invalid selection instead of prompting",
			},
		},
		Commands: []*cli.Command{
			//nolint:exhaustruct
			{
				Name:      "search",
				Usage:     "Search and print the results table",
				ArgsUsage: "<query>",
				Action:    runSearch,
			},
			//nolint:exhaustruct
			{
				Name:   "fetch",
				Usage:  "Download a track by its id",
				Action: runFetch,
				Flags: []cli.Flag{
					//nolint:exhaustruct
					&cli.Int64Flag{
						Name:     flagTrackID,
						Usage:    "Track id",
						Required: true,
					},
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:  flagFileName,
						Usage: "Output file name. Defaults to a random prefix followed by the track id",
					},
					newRetriesFlag(),
				},
			},
		},
	}
}

func rootLogger(cliCtx *cli.Context) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cliCtx.String(flagLogLevel))
	if nil != err || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return log.New(os.Stderr, cliCtx.Bool(flagLogJSON), lvl)
}

func newRetriesFlag() *cli.IntFlag {
	return &cli.IntFlag{ //nolint:exhaustruct
		Name:    flagRetries,
		Aliases: []string{"r"},
		Usage:   "Number of download attempts. 0 still makes one attempt",
		Value:   config.DefaultRetries,
	}
}
