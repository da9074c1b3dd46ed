package observe

import (
	"context"
	"time"

	"github.com/vango-dev/reactive/pkg/reactive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for reactive runtimes.
const defaultTracerName = "reactive"

// TracerConfig configures the OpenTelemetry observer.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "reactive").
	TracerName string

	// Provider supplies the tracer. Default: the global provider.
	Provider trace.TracerProvider

	// Filter determines which effect runs are traced.
	// If nil, all runs are traced.
	Filter func(e *reactive.Effect) bool

	// TraceTriggers records a span for every write that resolved dependents.
	// Disabled by default.
	TraceTriggers bool
}

// TracerOption configures the OpenTelemetry observer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(provider trace.TracerProvider) TracerOption {
	return func(c *TracerConfig) {
		c.Provider = provider
	}
}

// WithEffectFilter sets a filter function for effect runs.
func WithEffectFilter(filter func(e *reactive.Effect) bool) TracerOption {
	return func(c *TracerConfig) {
		c.Filter = filter
	}
}

// WithTriggerSpans enables spans for triggers.
func WithTriggerSpans(enabled bool) TracerOption {
	return func(c *TracerConfig) {
		c.TraceTriggers = enabled
	}
}

// Tracer is a reactive.Observer that records effect runs as OpenTelemetry
// spans. The engine is synchronous and has no context.Context, so spans are
// root spans created after the fact with the run's start and end times.
type Tracer struct {
	reactive.NopObserver

	config TracerConfig
	tracer trace.Tracer
}

// NewTracer creates the tracing observer.
//
// The tracer uses the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main() before creating the
// Runtime:
//
//	otel.SetTracerProvider(tp)
//	rt := reactive.New(reactive.WithObserver(observe.NewTracer()))
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Tracer{
		config: config,
		tracer: provider.Tracer(config.TracerName),
	}
}

// EffectRun implements reactive.Observer.
func (t *Tracer) EffectRun(e *reactive.Effect, elapsed time.Duration, err error) {
	if t.config.Filter != nil && !t.config.Filter(e) {
		return
	}

	end := time.Now()
	name := "reactive.effect"
	if e.Name() != "" {
		name = "reactive.effect " + e.Name()
	}

	_, span := t.tracer.Start(context.Background(), name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(end.Add(-elapsed)),
		trace.WithAttributes(
			attribute.Int64("reactive.effect_id", int64(e.ID())),
			attribute.String("reactive.effect_name", e.Name()),
		),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}

// Trigger implements reactive.Observer.
func (t *Tracer) Trigger(target *reactive.Object, key reactive.Key, kind reactive.ChangeKind, effects []*reactive.Effect) {
	if !t.config.TraceTriggers {
		return
	}
	_, span := t.tracer.Start(context.Background(), "reactive.trigger",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int64("reactive.object_id", int64(target.ID())),
			attribute.String("reactive.key", string(key)),
			attribute.String("reactive.change", kind.String()),
			attribute.Int("reactive.effects", len(effects)),
		),
	)
	span.End()
}
