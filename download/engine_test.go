package download_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/sadl/download"
	"github.com/xeptore/sadl/progress"
	"github.com/xeptore/sadl/slavart"
)

const testDelay = time.Millisecond

var errTransient = errors.New("transient failure")

// flakyFetcher fails its first failures calls.
type flakyFetcher struct {
	failures int
	calls    atomic.Int64
}

func (f *flakyFetcher) FetchTrack(ctx context.Context, id int64, filePath string, onProgress progress.Func) error {
	n := f.calls.Add(1)
	if int(n) <= f.failures {
		return errTransient
	}
	return nil
}

func TestEngineRun(t *testing.T) {
	t.Parallel()

	t.Run("SucceedsOnLastAttempt", func(t *testing.T) {
		t.Parallel()

		for _, retries := range []int{1, 2, 5, 20} {
			fetcher := &flakyFetcher{failures: retries - 1}
			engine := download.NewEngine(fetcher, testDelay, zerolog.Nop())

			res, err := engine.Run(context.Background(), download.Task{TrackID: 1, Path: "unused"}, retries, nil)
			require.NoError(t, err, retries)
			assert.Equal(t, retries, res.Attempts, retries)
			assert.Equal(t, int64(retries), fetcher.calls.Load(), retries)
		}
	})

	t.Run("ZeroBudgetMakesOneAttempt", func(t *testing.T) {
		t.Parallel()

		for _, failures := range []int{0, 1, 100} {
			fetcher := &flakyFetcher{failures: failures}
			engine := download.NewEngine(fetcher, testDelay, zerolog.Nop())

			res, _ := engine.Run(context.Background(), download.Task{TrackID: 1, Path: "unused"}, 0, nil)
			assert.Equal(t, 1, res.Attempts)
			assert.Equal(t, int64(1), fetcher.calls.Load())
		}
	})

	t.Run("BudgetExhausted", func(t *testing.T) {
		t.Parallel()

		fetcher := &flakyFetcher{failures: 1_000}
		engine := download.NewEngine(fetcher, testDelay, zerolog.Nop())

		var (
			res download.Result
			err error
		)
		require.NotPanics(t, func() {
			res, err = engine.Run(context.Background(), download.Task{TrackID: 1, Path: "unused"}, 4, nil)
		})
		require.ErrorIs(t, err, errTransient)
		assert.Equal(t, 4, res.Attempts)
		assert.Equal(t, int64(4), fetcher.calls.Load())
	})

	t.Run("FailureHookRunsBetweenAttempts", func(t *testing.T) {
		t.Parallel()

		fetcher := &flakyFetcher{failures: 1_000}
		engine := download.NewEngine(fetcher, testDelay, zerolog.Nop())
		var hooked atomic.Int64
		engine.OnAttemptFailed(func() { hooked.Add(1) })

		res, err := engine.Run(context.Background(), download.Task{TrackID: 1, Path: "unused"}, 4, nil)
		require.Error(t, err)
		assert.Equal(t, 4, res.Attempts)
		assert.Equal(t, int64(3), hooked.Load())
	})

	t.Run("ConstantDelay", func(t *testing.T) {
		t.Parallel()

		fetcher := &flakyFetcher{failures: 2}
		engine := download.NewEngine(fetcher, 20*time.Millisecond, zerolog.Nop())

		res, err := engine.Run(context.Background(), download.Task{TrackID: 1, Path: "unused"}, 3, nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Elapsed, 40*time.Millisecond)
	})

	t.Run("CanceledStopsRetrying", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var calls atomic.Int64
		fetcher := fetchFunc(func(ctx context.Context, id int64, filePath string, onProgress progress.Func) error {
			calls.Add(1)
			cancel()
			return ctx.Err()
		})
		engine := download.NewEngine(fetcher, time.Hour, zerolog.Nop())

		res, err := engine.Run(ctx, download.Task{TrackID: 1, Path: "unused"}, 20, nil)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, res.Attempts)
		assert.Equal(t, int64(1), calls.Load())
	})
}

type fetchFunc func(ctx context.Context, id int64, filePath string, onProgress progress.Func) error

func (f fetchFunc) FetchTrack(ctx context.Context, id int64, filePath string, onProgress progress.Func) error {
	return f(ctx, id, filePath, onProgress)
}

func TestEngineRunTruncatesBetweenAttempts(t *testing.T) {
	t.Parallel()

	const (
		partial = "first attempt bytes that never complete"
		full    = "second"
	)

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.Header().Set("Content-Length", "4096")
			_, _ = io.WriteString(w, partial)
			return
		}
		_, _ = io.WriteString(w, full)
	}))
	defer srv.Close()

	client := slavart.NewClient(
		slavart.Options{
			SearchURL:       srv.URL + "/api/search",
			DownloadURL:     srv.URL + "/api/download/track",
			UserAgent:       "sadl-test",
			SearchTimeout:   5 * time.Second,
			DownloadTimeout: 5 * time.Second,
			Transport:       nil,
		},
		zerolog.Nop(),
	)
	engine := download.NewEngine(client, testDelay, zerolog.Nop())

	filePath := filepath.Join(t.TempDir(), "track.flac")
	var maxDone atomic.Int64
	res, err := engine.Run(context.Background(), download.Task{TrackID: 9, Path: filePath}, 3, func(s progress.Stat) {
		assert.LessOrEqual(t, s.Done, s.Total)
		if s.Done > maxDone.Load() {
			maxDone.Store(s.Done)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)

	got, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, full, string(got))
	assert.False(t, strings.Contains(string(got), "attempt"))
	assert.GreaterOrEqual(t, maxDone.Load(), int64(len(full)))
}
