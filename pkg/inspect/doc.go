// Package inspect exposes a reactive Runtime for live inspection.
//
// A Hub is a reactive.Observer that turns tracks, triggers, effect runs and
// read-only violations into JSON events. A Server serves the dependency
// snapshot, store statistics, Prometheus metrics and the Hub's event stream
// over HTTP and WebSocket:
//
//	hub := inspect.NewHub()
//	rt := reactive.New(reactive.WithObserver(hub))
//	srv := inspect.NewServer(rt, hub, inspect.WithAddress(":7070"))
//	go srv.Run(ctx)
//
// The event stream is lossy. Observer callbacks run under the Runtime's
// lock, so a slow client loses events instead of stalling writes.
package inspect
