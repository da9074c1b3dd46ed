package reactive

import "time"

// Effect is a computation whose dependencies are recomputed on every run.
// Each run first leaves every dependency set it joined last time, then runs
// the wrapped function with itself as the active effect, so a key that is no
// longer read stops triggering it.
type Effect struct {
	id   uint64
	name string
	rt   *Runtime

	// fn is the wrapped function.
	fn func() (any, error)

	// deps are the dependency sets this effect is a member of.
	deps []*depSet

	// scheduler, when set, receives the effect on trigger instead of an
	// inline re-run.
	scheduler Scheduler

	lazy    bool
	stopped bool
	runs    uint64
}

// Scheduler decides when a triggered Effect re-runs. Schedule is called with
// the Runtime lock held by the writing goroutine; it may call e.Run inline,
// queue it, or hand it to another goroutine.
type Scheduler interface {
	Schedule(e *Effect)
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(e *Effect)

// Schedule calls f(e).
func (f SchedulerFunc) Schedule(e *Effect) { f(e) }

// EffectOption configures an Effect.
type EffectOption interface {
	applyEffect(e *Effect)
}

type effectOptionFunc func(*Effect)

func (f effectOptionFunc) applyEffect(e *Effect) { f(e) }

// WithScheduler routes triggered re-runs of the effect through s.
//
// Example:
//
//	var queue []*reactive.Effect
//	rt.CreateEffect(render, reactive.WithScheduler(reactive.SchedulerFunc(func(e *reactive.Effect) {
//	    queue = append(queue, e)
//	})))
func WithScheduler(s Scheduler) EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.scheduler = s
	})
}

// Lazy suppresses the run that normally happens when the effect is created.
// The effect has no dependencies until its first Run.
func Lazy() EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.lazy = true
	})
}

// EffectName sets a name used in logs, traces and metrics.
func EffectName(name string) EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.name = name
	})
}

// NewEffect registers fn as an Effect. Unless Lazy is given, fn runs once
// immediately to establish its dependencies, and the error of that run is
// returned alongside the (already registered) effect.
func (rt *Runtime) NewEffect(fn func() (any, error), opts ...EffectOption) (*Effect, error) {
	e := &Effect{
		id: nextID(),
		rt: rt,
		fn: fn,
	}
	for _, opt := range opts {
		opt.applyEffect(e)
	}
	if e.lazy {
		return e, nil
	}
	_, err := e.Run()
	return e, err
}

// CreateEffect registers fn as an Effect that cannot fail. See NewEffect.
//
// Example:
//
//	rt.CreateEffect(func() {
//	    fmt.Println("count is", p.Get("count"))
//	})
func (rt *Runtime) CreateEffect(fn func(), opts ...EffectOption) *Effect {
	e, _ := rt.NewEffect(func() (any, error) {
		fn()
		return nil, nil
	}, opts...)
	return e
}

// ID returns the unique identifier for this effect.
func (e *Effect) ID() uint64 {
	return e.id
}

// Name returns the name set with EffectName.
func (e *Effect) Name() string {
	return e.name
}

// Runtime returns the Runtime the effect belongs to.
func (e *Effect) Runtime() *Runtime {
	return e.rt
}

// Runs returns how many times the effect has run tracked.
func (e *Effect) Runs() uint64 {
	e.rt.guard.lock()
	defer e.rt.guard.unlock()
	return e.runs
}

// Stopped reports whether Stop has been called.
func (e *Effect) Stopped() bool {
	e.rt.guard.lock()
	defer e.rt.guard.unlock()
	return e.stopped
}

// Run executes the effect: it drops the previous dependencies, runs fn with
// the effect active, restores the previous active effect even if fn panics,
// and returns fn's result unchanged.
//
// A stopped effect still runs fn, but untracked.
func (e *Effect) Run() (result any, err error) {
	rt := e.rt
	rt.guard.lock()
	defer rt.guard.unlock()

	if e.stopped {
		rt.push(nil)
		defer rt.pop()
		return e.fn()
	}

	rt.cleanup(e)
	rt.push(e)
	e.runs++

	start := time.Now()
	completed := false
	defer func() {
		rt.pop()
		if !completed {
			err = ErrEffectPanicked
		}
		rt.observer.EffectRun(e, time.Since(start), err)
	}()

	result, err = e.fn()
	completed = true
	return result, err
}

// Stop removes the effect from every dependency set. It is never triggered
// again; dropping all references to it afterwards lets it be collected.
func (e *Effect) Stop() {
	e.rt.guard.lock()
	defer e.rt.guard.unlock()

	if e.stopped {
		return
	}
	e.stopped = true
	e.rt.cleanup(e)
	e.deps = nil
}
