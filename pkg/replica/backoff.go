package replica

import "time"

// Backoff computes retry delays for failed replication attempts:
// start at Floor, double per consecutive failure, never exceed Cap.
// Reset after the first success.
type Backoff struct {
	Floor time.Duration
	Cap   time.Duration

	last time.Duration
}

// DefaultBackoff matches the replication retry bounds: at least 5s
// between attempts, at most 60s.
func DefaultBackoff() *Backoff {
	return &Backoff{Floor: 5 * time.Second, Cap: 60 * time.Second}
}

// Next returns the delay before the next attempt and advances the
// schedule.
func (b *Backoff) Next() time.Duration {
	next := b.last * 2
	if next < b.Floor {
		next = b.Floor
	}
	if next > b.Cap {
		next = b.Cap
	}
	b.last = next
	return next
}

// Reset returns the schedule to its starting point.
func (b *Backoff) Reset() {
	b.last = 0
}
