package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/botscope/internal/domain"
	"github.com/hamed0406/botscope/internal/events"
	"github.com/hamed0406/botscope/internal/metrics"
	"github.com/hamed0406/botscope/internal/probe"
	"github.com/hamed0406/botscope/internal/registry"
)

const defaultPersistTimeout = 10 * time.Second

type Options struct {
	Heartbeat         time.Duration
	DowntimeThreshold time.Duration
	// PersistTimeout bounds the store write made when an eviction fires.
	PersistTimeout time.Duration
	Clock          Clock
	Sink           events.Sink
	Metrics        *metrics.Collector
}

// Monitor ties the registry, the status tracker and the eviction timers
// together. Outcome application, eviction, registration and removal for
// one url all run under that url's lock, so they never interleave.
type Monitor struct {
	log      *zap.Logger
	registry *registry.Registry
	tracker  *Tracker
	evictor  *Evictor
	locks    keyLock
	clock    Clock
	sink     events.Sink
	metrics  *metrics.Collector

	persistTimeout time.Duration
}

func New(log *zap.Logger, reg *registry.Registry, opts Options) *Monitor {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Sink == nil {
		opts.Sink = events.Discard
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = defaultPersistTimeout
	}
	m := &Monitor{
		log:            log,
		registry:       reg,
		tracker:        NewTracker(opts.Heartbeat),
		clock:          opts.Clock,
		sink:           opts.Sink,
		metrics:        opts.Metrics,
		persistTimeout: opts.PersistTimeout,
	}
	m.evictor = NewEvictor(opts.Clock, opts.DowntimeThreshold, m.fire)
	return m
}

// Load populates the registry from its store.
func (m *Monitor) Load(ctx context.Context) int {
	n := m.registry.Load(ctx)
	m.metrics.SetTargets(n)
	return n
}

// Targets returns the registered entries for the scheduler to sweep.
func (m *Monitor) Targets() []registry.Entry {
	return m.registry.Entries()
}

// HandleOutcome applies a check result. Results for a registration that no
// longer exists are dropped, so a slow check can never bring an evicted
// target's state back.
func (m *Monitor) HandleOutcome(ctx context.Context, e registry.Entry, o probe.Outcome) {
	unlock := m.locks.Lock(e.URL)
	defer unlock()

	cur, ok := m.registry.Get(e.URL)
	if !ok || cur.Epoch != e.Epoch {
		m.log.Debug("outcome_discarded", zap.String("url", e.URL), zap.String("outcome", o.String()))
		return
	}
	m.metrics.ObserveProbe(o)

	if change, changed := m.tracker.Apply(e.URL, o, m.clock.Now()); changed {
		ev := events.New(events.KindStatusChanged, cur.Target, change.To.Cause)
		ev.Status, ev.Code = change.To.Status, change.To.StatusCode
		m.publish(ctx, ev)
	}

	armed, disarmed := m.evictor.OnOutcome(e.URL, o)
	switch {
	case armed:
		m.log.Debug("eviction_armed", zap.String("url", e.URL), zap.Duration("after", m.evictor.threshold))
	case disarmed:
		m.log.Info("eviction_disarmed", zap.String("url", e.URL))
	}
}

// fire runs when an eviction timer expires.
func (m *Monitor) fire(url string, gen uint64) {
	unlock := m.locks.Lock(url)
	defer unlock()

	if !m.evictor.Claim(url, gen) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.persistTimeout)
	defer cancel()

	removed, ok, err := m.registry.Remove(ctx, url)
	if err != nil {
		// Target stays registered; the next failing check re-arms the timer.
		m.log.Error("eviction_persist_failed", zap.String("url", url), zap.Error(err))
		return
	}
	if !ok {
		return
	}
	m.tracker.Forget(url)
	m.metrics.SetTargets(m.registry.Len())
	m.publish(ctx, events.New(events.KindDeleted, removed.Target, "prolonged downtime"))
}

// Register adds a target and starts it with a clean state.
func (m *Monitor) Register(ctx context.Context, name, url string) (domain.Target, error) {
	if err := registry.Validate(name, url); err != nil {
		return domain.Target{}, err
	}

	unlock := m.locks.Lock(url)
	defer unlock()

	e, err := m.registry.Register(ctx, name, url)
	if err != nil {
		return domain.Target{}, err
	}
	m.tracker.Forget(url)
	m.evictor.Disarm(url)
	m.metrics.SetTargets(m.registry.Len())
	m.publish(ctx, events.New(events.KindRegistered, e.Target, ""))
	return e.Target, nil
}

// Remove deletes the target registered under name.
func (m *Monitor) Remove(ctx context.Context, name string) (domain.Target, error) {
	e, ok := m.registry.Lookup(name)
	if !ok {
		return domain.Target{}, domain.ErrTargetNotFound
	}

	unlock := m.locks.Lock(e.URL)
	defer unlock()

	if cur, ok := m.registry.Get(e.URL); !ok || cur.Name != name {
		return domain.Target{}, domain.ErrTargetNotFound
	}
	removed, ok, err := m.registry.Remove(ctx, e.URL)
	if err != nil {
		return domain.Target{}, err
	}
	if !ok {
		return domain.Target{}, domain.ErrTargetNotFound
	}
	m.tracker.Forget(e.URL)
	m.evictor.Disarm(e.URL)
	m.metrics.SetTargets(m.registry.Len())
	m.publish(ctx, events.New(events.KindRemoved, removed.Target, ""))
	return removed.Target, nil
}

// Statuses returns the read model for every registered target in
// registration order. Targets that have never been checked report
// StatusUnknown with nil code, time and uptime.
func (m *Monitor) Statuses() []domain.TargetStatus {
	entries := m.registry.Entries()
	out := make([]domain.TargetStatus, 0, len(entries))
	for _, e := range entries {
		ts := domain.TargetStatus{Name: e.Name, URL: e.URL, Status: domain.StatusUnknown}
		if st, ok := m.tracker.Get(e.URL); ok {
			ts.Status = st.Status
			if st.StatusCode != 0 {
				code := st.StatusCode
				ts.StatusCode = &code
			}
			at := st.LastCheckedAt
			ts.LastCheckedAt = &at
			secs := float64(st.UptimeMS) / 1000
			ts.UptimeSeconds = &secs
		}
		out = append(out, ts)
	}
	return out
}

// State exposes the tracked state for url.
func (m *Monitor) State(url string) (domain.HealthState, bool) {
	return m.tracker.Get(url)
}

// PendingEviction reports when url's eviction timer was armed.
func (m *Monitor) PendingEviction(url string) (time.Time, bool) {
	return m.evictor.ArmedAt(url)
}

// Stop cancels all pending eviction timers.
func (m *Monitor) Stop() {
	m.evictor.Stop()
}

func (m *Monitor) publish(ctx context.Context, e events.Event) {
	if err := m.sink.Publish(context.WithoutCancel(ctx), e); err != nil {
		m.log.Warn("event_publish_failed", zap.String("kind", string(e.Kind)),
			zap.String("url", e.URL), zap.Error(err))
	}
}
