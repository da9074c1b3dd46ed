package inspect

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vango-dev/reactive/pkg/reactive"
)

var fixedTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receiveEvent(t *testing.T, ch <-chan []byte) Event {
	t.Helper()
	select {
	case data, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHubBroadcastsEngineEvents(t *testing.T) {
	hub := NewHub(WithClock(func() time.Time { return fixedTime }))
	events, cancel := hub.Subscribe(16)
	defer cancel()

	rt := reactive.New(reactive.WithObserver(hub), reactive.WithLogger(discardLogger()))
	obj := reactive.ObjectOf("n", 0)
	p := rt.Reactive(obj)

	errBoom := errors.New("boom")
	e, _ := rt.NewEffect(func() (any, error) {
		if p.Get("n").(int) > 0 {
			return nil, errBoom
		}
		return nil, nil
	}, reactive.EffectName("watch"))

	first := receiveEvent(t, events)
	if first.Type != EventRun || first.Effect != e.ID() || first.Name != "watch" {
		t.Errorf("first event = %+v, want run of effect %d", first, e.ID())
	}
	if !first.Time.Equal(fixedTime) {
		t.Errorf("Time = %v, want %v", first.Time, fixedTime)
	}

	_ = p.Set("n", 1)
	trig := receiveEvent(t, events)
	if trig.Type != EventTrigger || trig.Object != obj.ID() || trig.Key != "n" || trig.Kind != "set" {
		t.Errorf("trigger event = %+v", trig)
	}
	if len(trig.Effects) != 1 || trig.Effects[0] != e.ID() {
		t.Errorf("trigger effects = %v, want [%d]", trig.Effects, e.ID())
	}
	run := receiveEvent(t, events)
	if run.Type != EventRun || run.Error != "boom" {
		t.Errorf("run event = %+v, want failed run", run)
	}

	_ = rt.Readonly(obj).Delete("n")
	ro := receiveEvent(t, events)
	if ro.Type != EventReadonly || ro.Op != "delete" || ro.Key != "n" {
		t.Errorf("readonly event = %+v", ro)
	}
}

func TestHubTrackEventsOptIn(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		hub := NewHub(WithTrackEvents(enabled))
		events, cancel := hub.Subscribe(16)

		rt := reactive.New(reactive.WithObserver(hub))
		p := rt.Reactive(reactive.ObjectOf("a", 1))
		rt.CreateEffect(func() { _ = p.Get("a") })

		got := receiveEvent(t, events)
		if enabled && (got.Type != EventTrack || got.Key != "a") {
			t.Errorf("enabled: first event = %+v, want track of a", got)
		}
		if !enabled && got.Type != EventRun {
			t.Errorf("disabled: first event = %+v, want run", got)
		}
		cancel()
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Publish(Event{Type: EventRun})
	hub.Publish(Event{Type: EventRun})
	hub.Publish(Event{Type: EventRun})

	if got := hub.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
}

func TestHubCancelAndClose(t *testing.T) {
	hub := NewHub()
	a, cancelA := hub.Subscribe(1)
	b, _ := hub.Subscribe(1)
	if hub.ClientCount() != 2 {
		t.Fatalf("ClientCount() = %d, want 2", hub.ClientCount())
	}

	cancelA()
	cancelA()
	if _, ok := <-a; ok {
		t.Error("cancelled channel should be closed")
	}
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	hub.Close()
	if _, ok := <-b; ok {
		t.Error("Close should close remaining channels")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}

	late, _ := hub.Subscribe(1)
	if _, ok := <-late; ok {
		t.Error("subscribing after Close should return a closed channel")
	}
	hub.Publish(Event{Type: EventRun})
}
