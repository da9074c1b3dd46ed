package reactive

// computedKey is the slot readers of a Computed depend on.
const computedKey Key = "value"

// Computed is a cached derived value. It is built from a lazy Effect whose
// scheduler only marks the cache dirty: the function re-runs on the next Get
// after a dependency changed, never eagerly, and only once no matter how many
// dependencies changed in between.
//
// A Computed is itself a dependency: effects that call Get re-run when it is
// invalidated.
type Computed[T any] struct {
	rt     *Runtime
	effect *Effect

	// holder is a private Object whose computedKey slot carries the
	// Computed's own dependents.
	holder *Object

	value T
	err   error
	dirty bool
}

// NewComputed creates a Computed over fn. fn does not run until the first Get.
//
// Example:
//
//	full := reactive.NewComputed(rt, func() (string, error) {
//	    return user.Get("first").(string) + " " + user.Get("last").(string), nil
//	})
//	name, _ := full.Get()
func NewComputed[T any](rt *Runtime, fn func() (T, error), opts ...EffectOption) *Computed[T] {
	c := &Computed[T]{
		rt:     rt,
		holder: NewObject(),
		dirty:  true,
	}

	effectOpts := make([]EffectOption, 0, len(opts)+2)
	effectOpts = append(effectOpts, opts...)
	effectOpts = append(effectOpts, Lazy(), WithScheduler(SchedulerFunc(c.invalidate)))

	c.effect, _ = rt.NewEffect(func() (any, error) {
		v, err := fn()
		c.value, c.err = v, err
		return v, err
	}, effectOpts...)
	return c
}

// Get returns the cached value, recomputing it first if a dependency changed
// since the last computation. The error is the one fn returned with the
// value.
func (c *Computed[T]) Get() (T, error) {
	c.rt.guard.lock()
	defer c.rt.guard.unlock()

	if c.dirty {
		c.effect.Run()
		c.dirty = false
	}
	c.rt.track(c.holder, propertyKey(computedKey))
	return c.value, c.err
}

// Effect returns the lazy effect backing the Computed.
func (c *Computed[T]) Effect() *Effect {
	return c.effect
}

// Stop detaches the Computed from its dependencies. Get keeps returning the
// last computed value.
func (c *Computed[T]) Stop() {
	c.effect.Stop()
}

// invalidate is the scheduler of the backing effect.
func (c *Computed[T]) invalidate(*Effect) {
	if c.dirty {
		return
	}
	c.dirty = true
	// Failures of inline readers are already logged by trigger.
	_ = c.rt.trigger(c.holder, computedKey, ChangeSet)
}
