package monitor

import (
	"sync"
	"time"

	"github.com/hamed0406/botscope/internal/domain"
	"github.com/hamed0406/botscope/internal/probe"
)

// StateChange describes a transition in a target's classification.
type StateChange struct {
	URL  string
	From domain.HealthState
	To   domain.HealthState
}

// Tracker holds the latest health state per url.
type Tracker struct {
	increment int64

	mu     sync.RWMutex
	states map[string]domain.HealthState
}

// NewTracker credits heartbeat worth of uptime for every successful check.
func NewTracker(heartbeat time.Duration) *Tracker {
	return &Tracker{
		increment: heartbeat.Milliseconds(),
		states:    make(map[string]domain.HealthState),
	}
}

// Apply records outcome as the latest state for url. It reports a change
// when the classification (status and status code) differs from the
// previous one, including the first check ever seen.
func (t *Tracker) Apply(url string, o probe.Outcome, now time.Time) (StateChange, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, seen := t.states[url]
	if !seen {
		prev.Status = domain.StatusUnknown
	}
	next := domain.HealthState{
		Status:        o.Status,
		StatusCode:    o.StatusCode,
		Cause:         o.Cause,
		UptimeMS:      prev.UptimeMS,
		LastCheckedAt: now,
	}
	if o.Status.Healthy() {
		next.UptimeMS += t.increment
	}
	t.states[url] = next

	if seen && prev.Status == next.Status && prev.StatusCode == next.StatusCode {
		return StateChange{}, false
	}
	return StateChange{URL: url, From: prev, To: next}, true
}

func (t *Tracker) Get(url string) (domain.HealthState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.states[url]
	return s, ok
}

func (t *Tracker) Forget(url string) {
	t.mu.Lock()
	delete(t.states, url)
	t.mu.Unlock()
}
