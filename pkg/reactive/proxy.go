package reactive

// Proxy is a tracking façade over exactly one Object. Its two flags select
// one of four variants:
//
//   - shallow: nested Objects are returned raw instead of wrapped.
//   - readonly: writes and deletes are refused, and reads are not tracked
//     (values that cannot change through this Proxy need no dependents).
//
// Proxies are cheap; a deep Proxy creates a new Proxy for every nested
// Object it returns.
type Proxy struct {
	rt       *Runtime
	target   *Object
	shallow  bool
	readonly bool
}

// Wrap returns a Proxy over obj with the given flags. It returns nil for a
// nil obj.
func (rt *Runtime) Wrap(obj *Object, shallow, readonly bool) *Proxy {
	if obj == nil {
		return nil
	}
	return &Proxy{
		rt:       rt,
		target:   obj,
		shallow:  shallow,
		readonly: readonly,
	}
}

// Reactive returns a deep, mutable Proxy over obj.
func (rt *Runtime) Reactive(obj *Object) *Proxy {
	return rt.Wrap(obj, false, false)
}

// ShallowReactive returns a mutable Proxy that tracks only obj's own keys;
// nested Objects come back raw.
func (rt *Runtime) ShallowReactive(obj *Object) *Proxy {
	return rt.Wrap(obj, true, false)
}

// Readonly returns a deep read-only Proxy over obj. Nested Objects are
// returned as read-only Proxies as well.
func (rt *Runtime) Readonly(obj *Object) *Proxy {
	return rt.Wrap(obj, false, true)
}

// ShallowReadonly returns a Proxy that refuses writes to obj's own keys but
// returns nested Objects raw and unprotected.
func (rt *Runtime) ShallowReadonly(obj *Object) *Proxy {
	return rt.Wrap(obj, true, true)
}

// Raw returns the underlying Object without tracking.
func (p *Proxy) Raw() *Object {
	return p.target
}

// Shallow reports whether nested Objects are returned unwrapped.
func (p *Proxy) Shallow() bool {
	return p.shallow
}

// Readonly reports whether writes through p are refused.
func (p *Proxy) Readonly() bool {
	return p.readonly
}

// Runtime returns the Runtime p belongs to.
func (p *Proxy) Runtime() *Runtime {
	return p.rt
}

// Get reads k. The read is tracked against the active effect unless p is
// read-only. A nested Object is returned wrapped with p's flags unless p is
// shallow; other values pass through.
func (p *Proxy) Get(k Key) any {
	p.rt.guard.lock()
	defer p.rt.guard.unlock()

	if !p.readonly {
		p.rt.track(p.target, propertyKey(k))
	}
	v, _ := p.target.lookup(p.rt, k)
	if p.shallow {
		return v
	}
	if obj := rawObject(v); obj != nil {
		return p.rt.Wrap(obj, p.shallow, p.readonly)
	}
	return v
}

// Nested reads k and returns it as a Proxy, or nil if the value is not a
// wrapped Object. On a shallow Proxy it is always nil; Get returns the raw
// *Object there.
func (p *Proxy) Nested(k Key) *Proxy {
	np, _ := p.Get(k).(*Proxy)
	return np
}

// Has reports whether k is present on the target or its prototype chain,
// tracking k like a read.
func (p *Proxy) Has(k Key) bool {
	p.rt.guard.lock()
	defer p.rt.guard.unlock()

	if !p.readonly {
		p.rt.track(p.target, propertyKey(k))
	}
	return p.target.has(p.rt, k)
}

// Keys returns the target's own keys in insertion order. The effect becomes
// dependent on any key being added or deleted.
func (p *Proxy) Keys() []Key {
	p.rt.guard.lock()
	defer p.rt.guard.unlock()

	if !p.readonly {
		p.rt.track(p.target, iterateKey)
	}
	return p.target.Keys()
}

// Len returns the number of own keys, tracked like Keys.
func (p *Proxy) Len() int {
	p.rt.guard.lock()
	defer p.rt.guard.unlock()

	if !p.readonly {
		p.rt.track(p.target, iterateKey)
	}
	return p.target.Len()
}

// Set assigns v to k. When v differs from the previous value (inherited
// values count), the dependents of k are triggered, plus the iteration
// dependents when k was not an own key before. A Proxy value is
// stored as its raw Object.
//
// On a read-only Proxy the write is refused: nothing changes, nothing is
// triggered, a warning is logged, and Set still returns nil.
//
// Effects re-run inline by the write may fail; their errors are joined and
// returned. The assignment itself has already happened.
func (p *Proxy) Set(k Key, v any) error {
	return p.setWith(k, v, p)
}

// SetWithReceiver is Set with an explicit receiver, as when an assignment
// to receiver falls through to p as its prototype. The value is defined on
// the receiver's raw Object, and p only triggers when the receiver is p's
// own target.
func (p *Proxy) SetWithReceiver(k Key, v any, receiver any) error {
	return p.setWith(k, v, receiver)
}

func (p *Proxy) setWith(k Key, v any, receiver any) error {
	p.rt.guard.lock()
	defer p.rt.guard.unlock()

	if p.readonly {
		p.rt.readonlyViolation(p.target, k, "set")
		return nil
	}

	v = ToRaw(v)
	old, _ := p.target.lookupRaw(k)
	kind := ChangeSet
	if !p.target.HasOwn(k) {
		kind = ChangeAdd
	}

	if err := p.target.set(p.rt, k, v, receiver); err != nil {
		return err
	}

	// A write that reached p through a prototype chain belongs to the
	// receiver; the receiver's own Proxy triggers for it.
	if p.target != rawObject(receiver) {
		return nil
	}
	if sameValue(old, v) {
		return nil
	}
	return p.rt.trigger(p.target, k, kind)
}

// Delete removes the own key k. If it existed, the dependents of k and the
// iteration dependents are triggered. On a read-only Proxy the delete is
// refused like a write.
func (p *Proxy) Delete(k Key) error {
	p.rt.guard.lock()
	defer p.rt.guard.unlock()

	if p.readonly {
		p.rt.readonlyViolation(p.target, k, "delete")
		return nil
	}

	if !p.target.remove(k) {
		return nil
	}
	return p.rt.trigger(p.target, k, ChangeDelete)
}

// MarshalJSON encodes the target without tracking.
func (p *Proxy) MarshalJSON() ([]byte, error) {
	p.rt.guard.lock()
	defer p.rt.guard.unlock()
	return p.target.MarshalJSON()
}

// String renders the target without tracking.
func (p *Proxy) String() string {
	p.rt.guard.lock()
	defer p.rt.guard.unlock()
	return p.target.String()
}
