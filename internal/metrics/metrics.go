package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamed0406/botscope/internal/events"
	"github.com/hamed0406/botscope/internal/probe"
)

// Collector owns a private registry so that tests and multiple instances
// never collide on the global one. A nil *Collector is a no-op.
type Collector struct {
	registry      *prometheus.Registry
	probes        *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	statusChanges *prometheus.CounterVec
	evictions     prometheus.Counter
	targets       prometheus.Gauge
	inflight      prometheus.Gauge
	skipped       prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		probes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botscope_probes_total",
				Help: "Total number of completed probes by outcome",
			},
			[]string{"outcome"},
		),
		probeDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "botscope_probe_duration_seconds",
				Help:    "Probe duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		statusChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botscope_status_changes_total",
				Help: "Status classification changes by new status",
			},
			[]string{"status"},
		),
		evictions: f.NewCounter(prometheus.CounterOpts{
			Name: "botscope_evictions_total",
			Help: "Targets removed after sustained downtime",
		}),
		targets: f.NewGauge(prometheus.GaugeOpts{
			Name: "botscope_targets",
			Help: "Number of registered targets",
		}),
		inflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "botscope_inflight_checks",
			Help: "Checks currently waiting on the network",
		}),
		skipped: f.NewCounter(prometheus.CounterOpts{
			Name: "botscope_checks_skipped_total",
			Help: "Checks not started because the previous one for the same target was still running",
		}),
	}
}

func (c *Collector) ObserveProbe(o probe.Outcome) {
	if c == nil {
		return
	}
	c.probes.WithLabelValues(string(o.Status)).Inc()
	c.probeDuration.WithLabelValues(string(o.Status)).Observe(o.Latency.Seconds())
}

// Publish lets the collector sit in an events.Multi.
func (c *Collector) Publish(_ context.Context, e events.Event) error {
	if c == nil {
		return nil
	}
	switch e.Kind {
	case events.KindStatusChanged:
		c.statusChanges.WithLabelValues(string(e.Status)).Inc()
	case events.KindDeleted:
		c.evictions.Inc()
	}
	return nil
}

func (c *Collector) SetTargets(n int) {
	if c == nil {
		return
	}
	c.targets.Set(float64(n))
}

func (c *Collector) CheckStarted() {
	if c == nil {
		return
	}
	c.inflight.Inc()
}

func (c *Collector) CheckFinished() {
	if c == nil {
		return
	}
	c.inflight.Dec()
}

func (c *Collector) CheckSkipped() {
	if c == nil {
		return
	}
	c.skipped.Inc()
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
