package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/botscope/internal/metrics"
	"github.com/hamed0406/botscope/internal/probe"
	"github.com/hamed0406/botscope/internal/registry"
)

// Monitor is the part of the monitor the scheduler drives.
type Monitor interface {
	Targets() []registry.Entry
	HandleOutcome(ctx context.Context, e registry.Entry, o probe.Outcome)
}

// Scheduler sweeps every registered target once per cadence. A sweep
// launches one check per target and returns without waiting for them.
// A target whose previous check on the same cadence is still running is
// skipped for that tick.
type Scheduler struct {
	Logger   *zap.Logger
	Monitor  Monitor
	Checker  probe.Checker
	Cadences []time.Duration
	Timeout  time.Duration
	Metrics  *metrics.Collector

	mu       sync.Mutex
	inflight map[checkKey]struct{}
	wg       sync.WaitGroup
}

type checkKey struct {
	cadence time.Duration
	url     string
}

func New(
	logger *zap.Logger,
	mon Monitor,
	checker probe.Checker,
	cadences []time.Duration,
	timeout time.Duration,
	m *metrics.Collector,
) *Scheduler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var valid []time.Duration
	for _, c := range cadences {
		if c > 0 {
			valid = append(valid, c)
		}
	}
	return &Scheduler{
		Logger:   logger,
		Monitor:  mon,
		Checker:  checker,
		Cadences: valid,
		Timeout:  timeout,
		Metrics:  m,
		inflight: make(map[checkKey]struct{}),
	}
}

// Run starts one loop per cadence. Each loop does an immediate pass, then
// sweeps on every tick. Run returns once ctx is cancelled and all running
// checks have finished.
func (s *Scheduler) Run(ctx context.Context) {
	if len(s.Cadences) == 0 {
		s.Logger.Info("scheduler_disabled")
		return
	}

	var loops sync.WaitGroup
	for _, c := range s.Cadences {
		loops.Add(1)
		go func(every time.Duration) {
			defer loops.Done()
			s.loop(ctx, every)
		}(c)
	}
	loops.Wait()
	s.wg.Wait()
	s.Logger.Info("scheduler_stopped")
}

func (s *Scheduler) loop(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	s.Logger.Info("sweep_loop_started", zap.Duration("every", every))
	s.Sweep(ctx, every)

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep(ctx, every)
		}
	}
}

// Sweep launches a check for every registered target and reports how many
// were started.
func (s *Scheduler) Sweep(ctx context.Context, cadence time.Duration) int {
	started := 0
	for _, e := range s.Monitor.Targets() {
		key := checkKey{cadence: cadence, url: e.URL}
		if !s.acquire(key) {
			s.Metrics.CheckSkipped()
			s.Logger.Debug("check_skipped", zap.String("url", e.URL), zap.Duration("cadence", cadence))
			continue
		}
		started++
		s.wg.Add(1)
		go func(e registry.Entry) {
			defer s.wg.Done()
			defer s.release(key)
			s.check(ctx, e)
		}(e)
	}
	return started
}

func (s *Scheduler) check(ctx context.Context, e registry.Entry) {
	s.Metrics.CheckStarted()
	defer s.Metrics.CheckFinished()

	cctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	start := time.Now()
	out := s.Checker.Check(cctx, e.URL)
	if out.Latency == 0 {
		out.Latency = time.Since(start)
	}

	if ctx.Err() != nil {
		// shutting down; the outcome reflects cancellation, not the target
		return
	}

	s.Logger.Debug("target_checked",
		zap.String("name", e.Name),
		zap.String("url", e.URL),
		zap.String("status", string(out.Status)),
		zap.Int("status_code", out.StatusCode),
		zap.Duration("latency", out.Latency),
		zap.String("cause", out.Cause),
	)
	s.Monitor.HandleOutcome(ctx, e, out)
}

func (s *Scheduler) acquire(k checkKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[k]; busy {
		return false
	}
	s.inflight[k] = struct{}{}
	return true
}

func (s *Scheduler) release(k checkKey) {
	s.mu.Lock()
	delete(s.inflight, k)
	s.mu.Unlock()
}

// Wait blocks until every check started so far has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
