package pacing

import (
	"context"
	"sync"
	"time"
)

// Schedule holds the fixed delays applied between send attempts
type Schedule struct {
	// Between separates a successful send from the next contact
	Between time.Duration
	// AfterFailure follows a send that returned an error
	AfterFailure time.Duration
	// AfterSkip follows a contact whose image could not be resolved
	AfterSkip time.Duration
	// Settle follows a successful send before Between starts, giving the
	// upload time to leave the browser
	Settle time.Duration
}

// DefaultBase is the stock delay between messages
const DefaultBase = 15 * time.Second

// DefaultSettle is the stock pause after a successful send
const DefaultSettle = 5 * time.Second

// DefaultSchedule returns 15s between sends, 7s after a failure, 3s after a
// skip and a 5s settle pause
func DefaultSchedule() Schedule {
	return FromBase(DefaultBase)
}

// FromBase derives a schedule from a base delay: failures wait half the
// base and skips a quarter. Bases of a second or more are truncated to
// whole seconds, so 15s yields 7s and 3s.
func FromBase(base time.Duration) Schedule {
	if base < 0 {
		base = 0
	}
	half, quarter := base/2, base/4
	if base >= time.Second {
		half = half.Truncate(time.Second)
		quarter = quarter.Truncate(time.Second)
	}
	return Schedule{
		Between:      base,
		AfterFailure: half,
		AfterSkip:    quarter,
		Settle:       DefaultSettle,
	}
}

// Pacer pauses between send attempts
type Pacer interface {
	// Pause blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case
	Pause(ctx context.Context, d time.Duration) error
}

// SleepPacer pauses using a real timer
type SleepPacer struct{}

// Pause waits for the specified duration or until context is cancelled
func (SleepPacer) Pause(ctx context.Context, d time.Duration) error {
	return Wait(ctx, d)
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordingPacer records requested pauses without sleeping
type RecordingPacer struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (r *RecordingPacer) Pause(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.pauses = append(r.pauses, d)
	r.mu.Unlock()
	return ctx.Err()
}

// Pauses returns the durations requested so far, in order
func (r *RecordingPacer) Pauses() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.pauses))
	copy(out, r.pauses)
	return out
}

// Total returns the sum of every recorded pause
func (r *RecordingPacer) Total() time.Duration {
	var total time.Duration
	for _, d := range r.Pauses() {
		total += d
	}
	return total
}
