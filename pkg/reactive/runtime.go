package reactive

import (
	"errors"
	"log/slog"
	"sync"
	"weak"
)

// Runtime owns the dependency store and the active-effect stack. Proxies and
// Effects belong to exactly one Runtime; independent Runtimes never see each
// other's reads or writes, even over the same Object.
type Runtime struct {
	guard guard

	store depStore

	// stack holds the running effects, innermost last. A nil entry marks an
	// Untracked section.
	stack []*Effect

	logger   *slog.Logger
	observer Observer
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for read-only diagnostics and failures of
// triggered effects. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithObserver sets the Observer notified of tracks, triggers, runs and
// read-only violations.
func WithObserver(o Observer) Option {
	return func(rt *Runtime) {
		if o != nil {
			rt.observer = o
		}
	}
}

// New creates a Runtime.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		store:    newDepStore(),
		logger:   slog.Default(),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

var defaultRuntime = sync.OnceValue(func() *Runtime { return New() })

// Default returns the process-wide Runtime used by the package-level
// functions.
func Default() *Runtime {
	return defaultRuntime()
}

// Logger returns the Runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Active returns the effect currently running on this Runtime, or nil.
func (rt *Runtime) Active() *Effect {
	rt.guard.lock()
	defer rt.guard.unlock()
	return rt.active()
}

// Untracked runs fn with no active effect, so reads inside fn create no
// dependencies.
//
// Example:
//
//	rt.CreateEffect(func() {
//	    a := p.Get("a") // tracked
//	    rt.Untracked(func() {
//	        _ = p.Get("b") // not tracked
//	    })
//	})
func (rt *Runtime) Untracked(fn func()) {
	rt.guard.lock()
	defer rt.guard.unlock()

	rt.push(nil)
	defer rt.pop()
	fn()
}

// Snapshot lists every live dependency slot and the IDs of the effects
// depending on it.
func (rt *Runtime) Snapshot() []DepEntry {
	rt.guard.lock()
	defer rt.guard.unlock()
	return rt.store.snapshot()
}

// Stats returns the current size of the dependency store.
func (rt *Runtime) Stats() Stats {
	rt.guard.lock()
	defer rt.guard.unlock()
	st := rt.store.stats()
	st.Depth = len(rt.stack)
	return st
}

func (rt *Runtime) active() *Effect {
	if len(rt.stack) == 0 {
		return nil
	}
	return rt.stack[len(rt.stack)-1]
}

func (rt *Runtime) push(e *Effect) {
	rt.stack = append(rt.stack, e)
}

func (rt *Runtime) pop() {
	rt.stack[len(rt.stack)-1] = nil
	rt.stack = rt.stack[:len(rt.stack)-1]
}

// track records that the active effect read (target, key). Reads with no
// active effect record nothing.
func (rt *Runtime) track(target *Object, key TrackedKey) {
	e := rt.active()
	if e == nil {
		return
	}
	set := rt.store.ensure(target, key, rt.collect)
	if set.add(e) {
		e.deps = append(e.deps, set)
		rt.observer.Track(e, target, key)
	}
}

// trigger runs or schedules every effect depending on (target, k), plus the
// iteration dependents when the change is structural. The active effect is
// skipped so an effect that writes what it reads does not re-enter itself.
// Errors returned by effects run inline are joined and returned.
func (rt *Runtime) trigger(target *Object, k Key, kind ChangeKind) error {
	td := rt.store.lookup(target)
	if td == nil {
		return nil
	}

	active := rt.active()
	var toRun []*Effect
	seen := make(map[*Effect]struct{})
	collect := func(set *depSet) {
		if set == nil {
			return
		}
		for _, e := range set.effects {
			if e == active {
				continue
			}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			toRun = append(toRun, e)
		}
	}

	collect(td.keys[propertyKey(k)])
	if kind.Structural() {
		collect(td.keys[iterateKey])
	}
	if len(toRun) == 0 {
		return nil
	}

	rt.observer.Trigger(target, k, kind, toRun)

	var errs []error
	for _, e := range toRun {
		// An earlier effect in this pass may have stopped e.
		if e.stopped {
			continue
		}
		if e.scheduler != nil {
			e.scheduler.Schedule(e)
			continue
		}
		if _, err := e.Run(); err != nil {
			rt.logger.Error("effect failed", "effect", e.id, "name", e.name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// cleanup removes e from every dependency set it belongs to.
func (rt *Runtime) cleanup(e *Effect) {
	for _, set := range e.deps {
		set.remove(e)
	}
	clear(e.deps)
	e.deps = e.deps[:0]
}

// collect prunes the store entry of an Object that became unreachable. It
// runs on the process-wide cleanup goroutine, which must not wait for the
// lock: when the Runtime is busy the pruning moves to its own goroutine.
func (rt *Runtime) collect(wp weak.Pointer[Object]) {
	if !rt.guard.tryLock() {
		go rt.forget(wp)
		return
	}
	defer rt.guard.unlock()
	rt.store.forget(wp)
}

func (rt *Runtime) forget(wp weak.Pointer[Object]) {
	rt.guard.lock()
	defer rt.guard.unlock()
	rt.store.forget(wp)
}

// readonlyViolation reports a refused write on the diagnostic channel.
func (rt *Runtime) readonlyViolation(target *Object, k Key, op string) {
	rt.logger.Warn("property "+string(k)+" is read-only",
		"object", target.id,
		"op", op,
		"error", ErrReadonly,
	)
	rt.observer.ReadonlyViolation(target, k, op)
}
