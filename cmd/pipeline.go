package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/xeptore/sadl/config"
	"github.com/xeptore/sadl/download"
	"github.com/xeptore/sadl/errutil"
	"github.com/xeptore/sadl/log"
	"github.com/xeptore/sadl/progress"
	"github.com/xeptore/sadl/selection"
	"github.com/xeptore/sadl/slavart"
	"github.com/xeptore/sadl/view"
)

const progressRedrawInterval = 100 * time.Millisecond

type env struct {
	cfg    *config.Config
	logger zerolog.Logger
	client *slavart.Client
}

func setup(cliCtx *cli.Context) (*env, error) {
	bootLogger := log.New(os.Stderr, cliCtx.Bool(flagLogJSON), zerolog.InfoLevel)
	cfg, err := loadConfig(cliCtx, bootLogger)
	if nil != err {
		return nil, err
	}

	if lvl := cliCtx.String(flagLogLevel); lvl != "" {
		if _, err := zerolog.ParseLevel(lvl); nil != err {
			return nil, fmt.Errorf("invalid log level %q: %v", lvl, err)
		}
		cfg.LogLevel = lvl
	}
	if dir := cliCtx.String(flagOutputDir); dir != "" {
		cfg.OutputDir = dir
	}

	logger := log.New(os.Stderr, cliCtx.Bool(flagLogJSON), cfg.Level())
	client := slavart.NewClient(
		slavart.Options{
			SearchURL:       cfg.SearchURL,
			DownloadURL:     cfg.DownloadURL,
			UserAgent:       cfg.UserAgent,
			SearchTimeout:   cfg.SearchTimeout,
			DownloadTimeout: cfg.DownloadTimeout,
			Transport:       nil,
		},
		logger,
	)
	return &env{cfg: cfg, logger: logger, client: client}, nil
}

func loadConfig(cliCtx *cli.Context, logger zerolog.Logger) (*config.Config, error) {
	var (
		cfgFilePath = cliCtx.String(flagConfigFilePath)
		cfgEnv      = os.Getenv(envConfig)
	)
	switch {
	case cfgFilePath != "" && cfgEnv != "":
		return nil, errors.New("config file path and " + envConfig + " environment variable are both set. specify only one")
	case cfgFilePath != "":
		logger.Debug().Str("config_file_path", cfgFilePath).Msg("Loading config from file")
		return config.FromFile(cfgFilePath)
	case cfgEnv != "":
		logger.Debug().Msg("Loading config from environment variable")
		cfg, err := config.FromString(cfgEnv)
		if nil != err {
			return nil, fmt.Errorf("failed to load config from environment variable: %v", err)
		}
		return cfg, nil
	default:
		return config.Default(), nil
	}
}

func queryArg(cliCtx *cli.Context) (string, error) {
	return parseQuery(cliCtx.Args().Slice())
}

// parseQuery joins the positional arguments into the search query. Flag parsing stops
// at the first positional argument, so a flag-like token after it is a misplaced flag.
func parseQuery(args []string) (string, error) {
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			return "", cli.Exit(fmt.Sprintf("flag %q must be placed before the query", arg), 2)
		}
	}
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return "", cli.Exit("missing search query", 2)
	}
	return query, nil
}

func run(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	query, err := queryArg(cliCtx)
	if nil != err {
		return err
	}
	retries := cliCtx.Int(flagRetries)
	if retries < 0 {
		return cli.Exit("retries must not be negative", 2)
	}

	e, err := setup(cliCtx)
	if nil != err {
		return err
	}

	res, err := e.search(ctx, cliCtx, query)
	if nil != err {
		return err
	}

	sel := cliCtx.Int(flagSelection)
	if cliCtx.Bool(flagNonInteractive) {
		err = selection.Validate(res.Len(), sel)
	} else {
		sel, err = selection.Prompt(os.Stdin, os.Stdout, res.Len(), sel)
	}
	if nil != err {
		return err
	}

	track, _ := res.At(sel)
	e.logger.Info().Func(track.Log).Msg("Track selected")

	filePath := filepath.Join(e.cfg.OutputDir, track.FileName(slavart.RandomPrefix(), e.cfg.FileExtension))
	return e.download(ctx, cliCtx, download.Task{TrackID: track.ID, Path: filePath}, retries)
}

func runSearch(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	query, err := queryArg(cliCtx)
	if nil != err {
		return err
	}

	e, err := setup(cliCtx)
	if nil != err {
		return err
	}

	_, err = e.search(ctx, cliCtx, query)
	return err
}

func runFetch(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	retries := cliCtx.Int(flagRetries)
	if retries < 0 {
		return cli.Exit("retries must not be negative", 2)
	}
	id := cliCtx.Int64(flagTrackID)
	if id <= 0 {
		return cli.Exit("track id must be positive", 2)
	}

	e, err := setup(cliCtx)
	if nil != err {
		return err
	}

	name := cliCtx.String(flagFileName)
	if name == "" {
		name = slavart.TrackFileName(slavart.RandomPrefix(), id, e.cfg.FileExtension)
	}
	if filepath.Base(name) != name {
		return cli.Exit("file name must not contain a path separator", 2)
	}

	return e.download(ctx, cliCtx, download.Task{TrackID: id, Path: filepath.Join(e.cfg.OutputDir, name)}, retries)
}

func (e *env) search(ctx context.Context, cliCtx *cli.Context, query string) (*slavart.SearchResult, error) {
	res, err := e.client.Search(ctx, query)
	if nil != err {
		switch {
		case errutil.IsContext(ctx):
			return nil, ctx.Err()
		case errutil.IsFlaw(err):
			e.writeFlawReport(cliCtx, err)
			return nil, err
		default:
			panic(errutil.UnknownError(err))
		}
	}

	fmt.Fprintln(os.Stdout, view.Table(res.Tracks))
	return res, nil
}

// download runs task through the retry engine. Exhausting the budget is logged and
// otherwise ends the run normally.
func (e *env) download(ctx context.Context, cliCtx *cli.Context, task download.Task, retries int) error {
	if err := os.MkdirAll(filepath.Dir(task.Path), 0o0755); nil != err {
		return fmt.Errorf("failed to create output directory: %v", err)
	}

	trackURL, err := e.client.TrackURL(task.TrackID)
	if nil != err {
		return err
	}

	bar := progress.NewBar(os.Stderr, progressRedrawInterval)
	bar.Start(fmt.Sprintf("Downloading %s to %q", trackURL, task.Path))

	engine := download.NewEngine(e.client, e.cfg.RetryDelay, e.logger)
	engine.OnAttemptFailed(bar.Break)
	res, err := engine.Run(ctx, task, retries, bar.Observe)
	if nil != err {
		bar.Break()
		if errutil.IsContext(ctx) {
			return ctx.Err()
		}
		e.writeFlawReport(cliCtx, err)
		e.logger.
			Warn().
			Func(log.Flaw(err)).
			Int("attempts", res.Attempts).
			Dur("elapsed", res.Elapsed).
			Str("path", task.Path).
			Msg("Download failed after exhausting retries")
		return nil
	}

	bar.Finish(fmt.Sprintf("Downloaded %s to %q", trackURL, task.Path))
	e.logger.Debug().Int("attempts", res.Attempts).Dur("elapsed", res.Elapsed).Msg("Download completed")
	return nil
}

func (e *env) writeFlawReport(cliCtx *cli.Context, err error) {
	reportPath := cliCtx.String(flagFlawReport)
	if reportPath == "" || !errutil.IsFlaw(err) {
		return
	}

	b, marshalErr := errutil.FlawToYAML(err)
	if nil != marshalErr {
		e.logger.Error().Err(marshalErr).Msg("Failed to encode flaw report")
		return
	}
	if writeErr := os.WriteFile(reportPath, b, 0o0644); nil != writeErr {
		e.logger.Error().Err(writeErr).Str("path", reportPath).Msg("Failed to write flaw report")
		return
	}
	e.logger.Info().Str("path", reportPath).Msg("Flaw report written")
}
