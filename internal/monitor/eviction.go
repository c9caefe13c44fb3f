package monitor

import (
	"sync"
	"time"

	"github.com/hamed0406/botscope/internal/probe"
)

type pendingEviction struct {
	gen     uint64
	timer   Timer
	armedAt time.Time
}

// Evictor keeps at most one eviction timer per url. Each timer carries a
// generation; when it fires, expire is called with that generation and
// the callback must Claim it before acting. A timer that was disarmed or
// replaced in the meantime fails the claim.
type Evictor struct {
	clock     Clock
	threshold time.Duration
	expire    func(url string, gen uint64)

	mu      sync.Mutex
	gen     uint64
	pending map[string]*pendingEviction
}

func NewEvictor(clock Clock, threshold time.Duration, expire func(url string, gen uint64)) *Evictor {
	return &Evictor{
		clock:     clock,
		threshold: threshold,
		expire:    expire,
		pending:   make(map[string]*pendingEviction),
	}
}

// OnOutcome arms a timer for a failing url and disarms it on recovery.
func (e *Evictor) OnOutcome(url string, o probe.Outcome) (armed, disarmed bool) {
	if o.Status.Healthy() {
		return false, e.Disarm(url)
	}
	return e.Arm(url), false
}

// Arm starts the eviction timer for url unless one is already pending.
func (e *Evictor) Arm(url string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.pending[url]; ok {
		return false
	}
	e.gen++
	gen := e.gen
	e.pending[url] = &pendingEviction{
		gen:     gen,
		armedAt: e.clock.Now(),
		timer:   e.clock.AfterFunc(e.threshold, func() { e.expire(url, gen) }),
	}
	return true
}

func (e *Evictor) Disarm(url string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.pending[url]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(e.pending, url)
	return true
}

// Claim consumes the pending timer for url if it still has generation gen.
func (e *Evictor) Claim(url string, gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.pending[url]
	if !ok || p.gen != gen {
		return false
	}
	delete(e.pending, url)
	return true
}

// ArmedAt reports when the pending timer for url was started.
func (e *Evictor) ArmedAt(url string) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.pending[url]
	if !ok {
		return time.Time{}, false
	}
	return p.armedAt, true
}

func (e *Evictor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Stop cancels every pending timer.
func (e *Evictor) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for url, p := range e.pending {
		p.timer.Stop()
		delete(e.pending, url)
	}
}
