// Package throttle rate-limits consumer-facing updates per session.
//
// It is a leaky bucket of one, not a queue: a skipped update is dropped
// entirely, which loses nothing because session state is monotonic and the
// next accepted update carries the fully current state. Terminal updates
// always pass regardless of timing.
package throttle

import (
	"time"

	"github.com/alphadose/haxmap"
)

// DefaultInterval is the minimum spacing between non-terminal emits.
const DefaultInterval = 100 * time.Millisecond

// Throttle tracks last-emit timestamps keyed by session id. Safe for
// concurrent use across sessions; one instance is meant to serve many.
type Throttle struct {
	interval time.Duration
	last     *haxmap.Map[string, int64]

	// now is swapped out by tests
	now func() time.Time
}

func New(interval time.Duration) *Throttle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Throttle{
		interval: interval,
		last:     haxmap.New[string, int64](),
		now:      time.Now,
	}
}

// ShouldEmit reports whether an update for the session may reach the
// consumer. Terminal updates always pass and drop the session's timestamp
// entry, so the table does not grow across many sessions.
func (t *Throttle) ShouldEmit(sessionID string, terminal bool) bool {
	if terminal {
		t.last.Del(sessionID)
		return true
	}

	now := t.now().UnixNano()
	if prev, ok := t.last.Get(sessionID); ok && now-prev < int64(t.interval) {
		return false
	}
	t.last.Set(sessionID, now)
	return true
}

// Forget drops the session's timestamp entry. Called on cancellation,
// where no terminal emit will arrive.
func (t *Throttle) Forget(sessionID string) {
	t.last.Del(sessionID)
}

// Tracked reports whether the session currently has a timestamp entry.
func (t *Throttle) Tracked(sessionID string) bool {
	_, ok := t.last.Get(sessionID)
	return ok
}
