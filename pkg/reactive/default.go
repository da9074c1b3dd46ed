package reactive

// The functions below operate on Default().

// Wrap returns a Proxy over obj on the default Runtime.
func Wrap(obj *Object, shallow, readonly bool) *Proxy {
	return Default().Wrap(obj, shallow, readonly)
}

// Reactive returns a deep, mutable Proxy on the default Runtime.
func Reactive(obj *Object) *Proxy {
	return Default().Reactive(obj)
}

// ShallowReactive returns a shallow, mutable Proxy on the default Runtime.
func ShallowReactive(obj *Object) *Proxy {
	return Default().ShallowReactive(obj)
}

// Readonly returns a deep, read-only Proxy on the default Runtime.
func Readonly(obj *Object) *Proxy {
	return Default().Readonly(obj)
}

// ShallowReadonly returns a shallow, read-only Proxy on the default Runtime.
func ShallowReadonly(obj *Object) *Proxy {
	return Default().ShallowReadonly(obj)
}

// CreateEffect registers fn on the default Runtime.
func CreateEffect(fn func(), opts ...EffectOption) *Effect {
	return Default().CreateEffect(fn, opts...)
}

// NewEffect registers a fallible fn on the default Runtime.
func NewEffect(fn func() (any, error), opts ...EffectOption) (*Effect, error) {
	return Default().NewEffect(fn, opts...)
}

// Untracked runs fn without an active effect on the default Runtime.
func Untracked(fn func()) {
	Default().Untracked(fn)
}
