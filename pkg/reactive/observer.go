package reactive

import "time"

// Observer receives notifications about engine activity. Observers are called
// synchronously while the Runtime lock is held, so they must be fast and must
// not call back into the Runtime.
type Observer interface {
	// Track is called when e starts depending on (target, key).
	Track(e *Effect, target *Object, key TrackedKey)

	// Trigger is called when a write to (target, key) resolves its
	// dependents, before any of them runs. effects excludes the active one.
	Trigger(target *Object, key Key, kind ChangeKind, effects []*Effect)

	// EffectRun is called after every tracked run of e. err is the error
	// returned by the effect function, or ErrEffectPanicked.
	EffectRun(e *Effect, elapsed time.Duration, err error)

	// ReadonlyViolation is called when a write or delete through a read-only
	// Proxy is refused. op is "set" or "delete".
	ReadonlyViolation(target *Object, key Key, op string)
}

// NopObserver implements Observer with no-ops. Embed it to implement only
// the callbacks you need.
type NopObserver struct{}

func (NopObserver) Track(*Effect, *Object, TrackedKey) {}
func (NopObserver) Trigger(*Object, Key, ChangeKind, []*Effect) {}
func (NopObserver) EffectRun(*Effect, time.Duration, error) {}
func (NopObserver) ReadonlyViolation(*Object, Key, string) {}
