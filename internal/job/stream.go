package job

import (
	"context"
	"iter"
	"time"
)

// DefaultPollInterval is the delay between two progress snapshots
const DefaultPollInterval = 400 * time.Millisecond

// Event is one element of a progress stream
type Event struct {
	JobID    string
	Job      Job
	NotFound bool
}

// Terminal reports whether the stream ends after this event
func (e Event) Terminal() bool {
	return e.NotFound || e.Job.Status.IsTerminal()
}

// Streamer produces polled snapshot sequences for job ids
type Streamer struct {
	registry *Registry
	interval time.Duration
}

// NewStreamer creates a streamer polling every interval
func NewStreamer(registry *Registry, interval time.Duration) *Streamer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Streamer{registry: registry, interval: interval}
}

// Watch returns a lazy sequence of snapshots for id. The sequence ends after
// a terminal snapshot, after a not-found event, when the consumer stops
// ranging, or when ctx is done. Each call is independent.
func (s *Streamer) Watch(ctx context.Context, id string) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			job, ok := s.registry.Get(id)
			ev := Event{JobID: id, Job: job, NotFound: !ok}
			if !yield(ev) || ev.Terminal() {
				return
			}
			timer.Reset(s.interval)
		}
	}
}
