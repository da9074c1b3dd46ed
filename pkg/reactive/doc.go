// Package reactive is a fine-grained dependency-tracking engine for plain
// data objects.
//
// An Object is a mutable, insertion-ordered mapping from Key to value. A
// Runtime wraps Objects in Proxies: reads through a Proxy are attributed to
// the Effect that is currently running, and writes through a Proxy re-run
// exactly the Effects that previously read the written key.
//
// # Core Types
//
// Object is the raw data:
//
//	state := reactive.ObjectOf("count", 0, "user", reactive.ObjectOf("name", "ada"))
//
// Proxy is the tracking façade over an Object:
//
//	rt := reactive.New()
//	p := rt.Reactive(state)
//	p.Get("count")              // tracked when an Effect is running
//	p.Nested("user").Get("name") // nested objects are wrapped lazily
//	p.Set("count", 1)           // re-runs dependents
//
// Effect is a computation whose dependencies are recomputed on every run:
//
//	rt.CreateEffect(func() {
//	    fmt.Println("count is", p.Get("count"))
//	})
//
// # Variants
//
// Four wrapping variants come from two independent flags:
//
//	rt.Reactive(obj)        // deep, mutable
//	rt.ShallowReactive(obj) // top level only, mutable
//	rt.Readonly(obj)        // deep, writes refused
//	rt.ShallowReadonly(obj) // top level refused, nested objects raw
//
// Writes and deletes through a read-only Proxy are refused without failing:
// they report success to the caller, change nothing, trigger nothing, and
// emit a "property <key> is read-only" warning on the Runtime's logger.
//
// # Scheduling
//
// By default a triggered Effect re-runs synchronously inside the write that
// triggered it. WithScheduler hands the Effect to a Scheduler instead, and
// Lazy skips the initial run. Computed is built from both.
//
// # Thread Safety
//
// A Runtime serializes all access through a goroutine-reentrant lock. Effects
// triggered by a write run on the writing goroutine while it holds the lock,
// so an Effect must not block on another goroutine that uses the same
// Runtime.
package reactive
