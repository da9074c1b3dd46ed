// Package observe provides reactive.Observer implementations: Prometheus
// metrics, OpenTelemetry spans, structured logging, and fan-out to several
// observers at once.
package observe

import (
	"time"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// Multi returns an Observer that forwards every callback to each of
// observers in order. Nil observers are skipped.
func Multi(observers ...reactive.Observer) reactive.Observer {
	m := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

type multi []reactive.Observer

func (m multi) Track(e *reactive.Effect, target *reactive.Object, key reactive.TrackedKey) {
	for _, o := range m {
		o.Track(e, target, key)
	}
}

func (m multi) Trigger(target *reactive.Object, key reactive.Key, kind reactive.ChangeKind, effects []*reactive.Effect) {
	for _, o := range m {
		o.Trigger(target, key, kind, effects)
	}
}

func (m multi) EffectRun(e *reactive.Effect, elapsed time.Duration, err error) {
	for _, o := range m {
		o.EffectRun(e, elapsed, err)
	}
}

func (m multi) ReadonlyViolation(target *reactive.Object, key reactive.Key, op string) {
	for _, o := range m {
		o.ReadonlyViolation(target, key, op)
	}
}
