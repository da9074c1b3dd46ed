package reactive

import "errors"

// ErrReadonly is reported when a write or delete is attempted through a
// read-only Proxy. It is never returned to the writer: the operation reports
// success and the error only travels on the diagnostic channel (the Runtime's
// logger and Observer).
var ErrReadonly = errors.New("reactive: property is read-only")

// ErrNotObject is returned when a value that must be an *Object or *Proxy is
// something else, for example an invalid prototype.
var ErrNotObject = errors.New("reactive: value is not an object")

// ErrPrototypeCycle is returned by SetPrototype when the new prototype chain
// would contain the object itself.
var ErrPrototypeCycle = errors.New("reactive: cyclic prototype chain")

// ErrEffectPanicked is passed to Observer.EffectRun when an effect function
// panicked. The panic itself keeps propagating to the caller unchanged.
var ErrEffectPanicked = errors.New("reactive: effect panicked")
