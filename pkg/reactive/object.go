package reactive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Key names a property of an Object.
type Key string

// Object is a mutable mapping from Key to value with insertion-ordered keys.
// Tracking is keyed by Object identity: two Objects with equal contents are
// distinct targets.
//
// Values are either primitives or references to other Objects. A value that
// is an *Object is what a deep Proxy wraps lazily on read; anything else is
// passed through unchanged.
//
// Object methods read and write the raw data directly. They never track and
// never trigger, and they are not safe for concurrent use. Go through a Proxy
// for both.
type Object struct {
	id    uint64
	keys  []Key
	vals  map[Key]any
	proto any // nil, *Object or *Proxy
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{
		id:   nextID(),
		vals: make(map[Key]any),
	}
}

// ObjectOf builds an Object from alternating keys and values. Keys may be
// Key or string. It panics on an odd number of arguments or a non-string key,
// the same way a malformed composite literal would fail to compile.
func ObjectOf(kv ...any) *Object {
	if len(kv)%2 != 0 {
		panic("reactive: ObjectOf requires key/value pairs")
	}
	o := NewObject()
	for i := 0; i < len(kv); i += 2 {
		switch k := kv[i].(type) {
		case Key:
			o.define(k, kv[i+1])
		case string:
			o.define(Key(k), kv[i+1])
		default:
			panic(fmt.Sprintf("reactive: ObjectOf key %d has type %T, want string", i/2, kv[i]))
		}
	}
	return o
}

// FromMap converts m into an Object. Nested map[string]any values become
// nested Objects. Keys are inserted in sorted order since map iteration
// order is random.
func FromMap(m map[string]any) *Object {
	o := NewObject()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m[k]
		if nested, ok := v.(map[string]any); ok {
			v = FromMap(nested)
		}
		o.define(Key(k), v)
	}
	return o
}

// ID returns the unique identifier for this Object.
func (o *Object) ID() uint64 {
	return o.id
}

// Get returns the value for k, following the prototype chain. Missing keys
// yield nil.
func (o *Object) Get(k Key) any {
	v, _ := o.lookup(nil, k)
	return v
}

// Lookup is like Get but also reports whether k was found anywhere on the
// prototype chain.
func (o *Object) Lookup(k Key) (any, bool) {
	return o.lookup(nil, k)
}

// Child returns the Object stored at k, or nil if the value is not an Object.
func (o *Object) Child(k Key) *Object {
	return rawObject(o.Get(k))
}

// HasOwn reports whether k is an own key of o.
func (o *Object) HasOwn(k Key) bool {
	_, ok := o.vals[k]
	return ok
}

// Has reports whether k is present on o or its prototype chain.
func (o *Object) Has(k Key) bool {
	return o.has(nil, k)
}

// Set assigns v to k using ordinary assignment semantics: an own key is
// overwritten, an inherited key is assigned through the prototype (which,
// for a Proxy prototype, runs its write interception with o as receiver),
// and the value always lands on o.
func (o *Object) Set(k Key, v any) {
	// A Proxy prototype never triggers for a foreign receiver, so no
	// effect can run and there is no error to report.
	_ = o.set(nil, k, v, o)
}

// Delete removes the own key k and reports whether it was present.
func (o *Object) Delete(k Key) bool {
	return o.remove(k)
}

// Keys returns a copy of the own keys in insertion order.
func (o *Object) Keys() []Key {
	keys := make([]Key, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Len returns the number of own keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// Prototype returns the prototype: nil, an *Object, or a *Proxy.
func (o *Object) Prototype() any {
	return o.proto
}

// SetPrototype sets the object reads and writes fall through to for keys
// that o does not own. p must be nil, an *Object, or a *Proxy.
//
// A Proxy prototype is intercepted only by operations of its own Runtime.
// Proxies of other Runtimes walk through it as a plain Object: they neither
// track nor trigger in the prototype's Runtime, and never take its lock.
func (o *Object) SetPrototype(p any) error {
	switch p.(type) {
	case nil, *Object, *Proxy:
	default:
		return fmt.Errorf("prototype of type %T: %w", p, ErrNotObject)
	}
	for cur := rawObject(p); cur != nil; cur = rawObject(cur.proto) {
		if cur == o {
			return ErrPrototypeCycle
		}
	}
	o.proto = p
	return nil
}

// MarshalJSON encodes o as a JSON object, preserving key order. Prototype
// keys are not included. o must not contain a reference cycle.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.vals[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders o as JSON, or a placeholder when it cannot be encoded.
func (o *Object) String() string {
	b, err := o.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Object#%d", o.id)
	}
	return string(b)
}

// protoFor returns o's prototype as seen by an operation of rt. A nil rt is
// a raw Object operation and sees every Proxy prototype.
func (o *Object) protoFor(rt *Runtime) any {
	if p, ok := o.proto.(*Proxy); ok && rt != nil && p.rt != rt {
		return p.target
	}
	return o.proto
}

// lookup walks the prototype chain. A Proxy prototype is read through its
// interception, so inherited reads are tracked against the prototype too.
func (o *Object) lookup(rt *Runtime, k Key) (any, bool) {
	if v, ok := o.vals[k]; ok {
		return v, true
	}
	switch p := o.protoFor(rt).(type) {
	case *Object:
		return p.lookup(rt, k)
	case *Proxy:
		if p.Has(k) {
			return p.Get(k), true
		}
	}
	return nil, false
}

func (o *Object) has(rt *Runtime, k Key) bool {
	if o.HasOwn(k) {
		return true
	}
	switch p := o.protoFor(rt).(type) {
	case *Object:
		return p.has(rt, k)
	case *Proxy:
		return p.Has(k)
	}
	return false
}

// lookupRaw is lookup without any interception.
func (o *Object) lookupRaw(k Key) (any, bool) {
	for cur := o; cur != nil; cur = rawObject(cur.proto) {
		if v, ok := cur.vals[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// set implements ordinary assignment with an explicit receiver.
func (o *Object) set(rt *Runtime, k Key, v any, receiver any) error {
	if !o.HasOwn(k) {
		switch p := o.protoFor(rt).(type) {
		case *Proxy:
			return p.setWith(k, v, receiver)
		case *Object:
			return p.set(rt, k, v, receiver)
		}
	}
	if r := rawObject(receiver); r != nil {
		r.define(k, v)
	}
	return nil
}

// define creates or overwrites an own key. Proxies are stored as their raw
// Object.
func (o *Object) define(k Key, v any) {
	v = ToRaw(v)
	if _, ok := o.vals[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.vals[k] = v
}

// remove deletes an own key, keeping the order of the remaining keys.
func (o *Object) remove(k Key) bool {
	if _, ok := o.vals[k]; !ok {
		return false
	}
	delete(o.vals, k)
	for i, existing := range o.keys {
		if existing == k {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// ToRaw returns the Object behind a Proxy. Any other value is returned
// unchanged.
func ToRaw(v any) any {
	if p, ok := v.(*Proxy); ok && p != nil {
		return p.target
	}
	return v
}

// rawObject returns the Object behind v, or nil if v is neither an *Object
// nor a *Proxy.
func rawObject(v any) *Object {
	switch x := v.(type) {
	case *Object:
		return x
	case *Proxy:
		if x != nil {
			return x.target
		}
	}
	return nil
}
