// Package progress describes the byte progress of a single transfer and renders it.
package progress

import (
	"time"

	"github.com/xeptore/sadl/mathutil"
)

// Stat is a snapshot of a transfer taken at a chunk boundary.
type Stat struct {
	Done    int64
	Total   int64
	Elapsed time.Duration
}

// Func observes transfer progress. It must not block for long, it runs on the
// transfer's goroutine.
type Func func(Stat)

func (s Stat) Fraction() float64 {
	if s.Total <= 0 {
		return 0
	}
	return min(float64(s.Done)/float64(s.Total), 1)
}

// Rate returns the average throughput in bytes per second.
func (s Stat) Rate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Done) / s.Elapsed.Seconds()
}

// ETA estimates the remaining time from the average throughput so far. It is zero when
// nothing has been transferred yet or the transfer is complete.
func (s Stat) ETA() time.Duration {
	remaining := s.Total - s.Done
	if s.Done <= 0 || remaining <= 0 {
		return 0
	}
	elapsedMS := s.Elapsed.Milliseconds()
	return time.Duration(mathutil.CeilInts(remaining*elapsedMS, s.Done)) * time.Millisecond
}
