package listing

import (
	"context"
	"time"
)

// DefaultDebounceDelay is the quiet period applied to free-text search input.
const DefaultDebounceDelay = 300 * time.Millisecond

// Debouncer delays fetches until their input has stopped changing for a
// quiet period. Only the last trigger in a burst proceeds. Sequence numbers
// returned by the Debouncer come from its Sequencer, so callers publish
// results through the same Debouncer.
type Debouncer struct {
	Sequencer
	delay time.Duration
}

// NewDebouncer returns a Debouncer with the given quiet period. A
// non-positive delay selects DefaultDebounceDelay.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Debouncer{
		delay: delay,
	}
}

// Trigger waits out the quiet period and returns the sequence number the
// caller should fetch under. If another trigger arrives in the meantime it
// returns ErrSuperseded, and if the context is done first it returns the
// context's error.
func (d *Debouncer) Trigger(ctx context.Context) (uint64, error) {
	seq := d.Next()
	timer := time.NewTimer(d.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	if !d.Current(seq) {
		return 0, ErrSuperseded
	}
	return seq, nil
}

// TriggerNow returns a sequence number for a fetch that should start
// immediately. Any trigger still waiting out its quiet period is superseded.
func (d *Debouncer) TriggerNow() uint64 {
	return d.Next()
}

// Delay returns the Debouncer's quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}
