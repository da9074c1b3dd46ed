package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/reactive/pkg/reactive"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reactive").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for effect duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "reactive",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a reactive.Observer that records engine activity as Prometheus
// metrics:
//   - reactive_tracks_total: dependency links created
//   - reactive_triggers_total{kind}: writes that resolved dependents
//   - reactive_triggered_effects_total: effects resolved by those writes
//   - reactive_effect_runs_total{status}: tracked effect runs
//   - reactive_effect_duration_seconds: effect run duration
//   - reactive_readonly_violations_total{op}: refused writes and deletes
//
// ObserveRuntime adds gauges for the size of a Runtime's dependency store.
type Metrics struct {
	config MetricsConfig

	tracksTotal        prometheus.Counter
	triggersTotal      *prometheus.CounterVec
	triggeredEffects   prometheus.Counter
	effectRuns         *prometheus.CounterVec
	effectDuration     prometheus.Histogram
	readonlyViolations *prometheus.CounterVec
}

// NewMetrics registers the metrics and returns the observer. Registering
// twice against the same registry panics, as with promauto.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := observe.NewMetrics(observe.WithRegistry(reg))
//	rt := reactive.New(reactive.WithObserver(m))
//	m.ObserveRuntime(rt)
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		config: config,

		tracksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tracks_total",
			Help:        "Total number of dependency links created",
			ConstLabels: config.ConstLabels,
		}),

		triggersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "triggers_total",
			Help:        "Total number of writes that resolved at least one dependent",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		triggeredEffects: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "triggered_effects_total",
			Help:        "Total number of effects resolved by writes",
			ConstLabels: config.ConstLabels,
		}),

		effectRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of tracked effect runs by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		effectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_duration_seconds",
			Help:        "Effect run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		readonlyViolations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "readonly_violations_total",
			Help:        "Total number of writes and deletes refused by read-only proxies",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),
	}
}

// ObserveRuntime registers gauges reporting the size of rt's dependency
// store, sampled on every scrape.
func (m *Metrics) ObserveRuntime(rt *reactive.Runtime) {
	factory := promauto.With(m.config.Registry)
	gauge := func(name, help string, value func(reactive.Stats) int) {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   m.config.Namespace,
			Subsystem:   m.config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: m.config.ConstLabels,
		}, func() float64 {
			return float64(value(rt.Stats()))
		})
	}
	gauge("tracked_objects", "Number of objects with tracked dependencies",
		func(s reactive.Stats) int { return s.Targets })
	gauge("dependency_sets", "Number of (object, key) dependency sets",
		func(s reactive.Stats) int { return s.DepSets })
	gauge("dependency_links", "Number of (dependency set, effect) memberships",
		func(s reactive.Stats) int { return s.Links })
}

// Track implements reactive.Observer.
func (m *Metrics) Track(*reactive.Effect, *reactive.Object, reactive.TrackedKey) {
	m.tracksTotal.Inc()
}

// Trigger implements reactive.Observer.
func (m *Metrics) Trigger(_ *reactive.Object, _ reactive.Key, kind reactive.ChangeKind, effects []*reactive.Effect) {
	m.triggersTotal.WithLabelValues(kind.String()).Inc()
	m.triggeredEffects.Add(float64(len(effects)))
}

// EffectRun implements reactive.Observer.
func (m *Metrics) EffectRun(_ *reactive.Effect, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.effectRuns.WithLabelValues(status).Inc()
	m.effectDuration.Observe(elapsed.Seconds())
}

// ReadonlyViolation implements reactive.Observer.
func (m *Metrics) ReadonlyViolation(_ *reactive.Object, _ reactive.Key, op string) {
	m.readonlyViolations.WithLabelValues(op).Inc()
}
