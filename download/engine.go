// Package download drives a track transfer through its retry budget.
package download

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/xeptore/sadl/errutil"
	"github.com/xeptore/sadl/log"
	"github.com/xeptore/sadl/progress"
)

// Fetcher makes one attempt at downloading a track into filePath, truncating any
// content left there by a previous attempt.
type Fetcher interface {
	FetchTrack(ctx context.Context, id int64, filePath string, onProgress progress.Func) error
}

type Task struct {
	TrackID int64
	Path    string
}

type Result struct {
	Attempts int
	Elapsed  time.Duration
}

type Engine struct {
	fetcher  Fetcher
	delay    time.Duration
	logger   zerolog.Logger
	onFailed func()
}

func NewEngine(fetcher Fetcher, delay time.Duration, logger zerolog.Logger) *Engine {
	return &Engine{
		fetcher:  fetcher,
		delay:    delay,
		logger:   logger.With().Str("module", "download").Logger(),
		onFailed: nil,
	}
}

// OnAttemptFailed registers f to run before a failed attempt is logged.
func (e *Engine) OnAttemptFailed(f func()) {
	e.onFailed = f
}

// Run attempts task until an attempt succeeds or retries attempts were made, waiting
// the engine's constant delay between attempts. A budget of zero still makes one
// attempt. Every attempt failure is treated alike; the last one is returned once the
// budget is spent. Context errors end the loop immediately.
func (e *Engine) Run(ctx context.Context, task Task, retries int, onProgress progress.Func) (Result, error) {
	var (
		start    = time.Now()
		attempts int
		policy   = backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(e.delay), uint64(max(retries, 1)-1)),
			ctx,
		)
	)
	logger := e.logger.With().Int64("track_id", task.TrackID).Str("path", task.Path).Logger()

	operation := func() error {
		attempts++
		logger.Debug().Int("attempt", attempts).Msg("Starting download attempt")
		if err := e.fetcher.FetchTrack(ctx, task.TrackID, task.Path, onProgress); nil != err {
			if errutil.IsContext(ctx) {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		if nil != e.onFailed {
			e.onFailed()
		}
		logger.
			Warn().
			Func(log.Flaw(err)).
			Int("attempt", attempts).
			Int("remaining", max(retries, 1)-attempts).
			Dur("wait", wait).
			Msg("Download attempt failed. Retrying")
	}

	err := backoff.RetryNotify(operation, policy, notify)
	res := Result{Attempts: attempts, Elapsed: time.Since(start)}
	if nil != err {
		return res, err
	}
	return res, nil
}
