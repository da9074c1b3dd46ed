package reactive

import (
	"errors"
	"testing"
)

func TestEffectRunsOnCreate(t *testing.T) {
	rt, _ := newTestRuntime()

	ran := false
	rt.CreateEffect(func() {
		ran = true
	})

	if !ran {
		t.Error("effect should run immediately on creation")
	}
}

func TestEffectRerunsOnTrackedWrite(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("count", 0))

	runs := 0
	rt.CreateEffect(func() {
		_ = p.Get("count")
		runs++
	})
	if runs != 1 {
		t.Fatalf("expected 1 run, got %d", runs)
	}

	_ = p.Set("count", 1)
	if runs != 2 {
		t.Errorf("expected 2 runs after write, got %d", runs)
	}

	// A key the effect never read.
	_ = p.Set("other", 1)
	if runs != 2 {
		t.Errorf("untracked key should not trigger, got %d runs", runs)
	}
}

func TestEffectNoTrackingOutsideEffect(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("a", 1))

	_ = p.Get("a")
	_ = p.Keys()

	if st := rt.Stats(); st.Targets != 0 || st.Links != 0 {
		t.Errorf("reads without an active effect should record nothing, got %+v", st)
	}
}

func TestEffectBranchPruning(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("ok", true, "a", 1, "b", 2))

	runs := 0
	rt.CreateEffect(func() {
		if p.Get("ok").(bool) {
			_ = p.Get("a")
		} else {
			_ = p.Get("b")
		}
		runs++
	})

	_ = p.Set("ok", false)
	if runs != 2 {
		t.Fatalf("expected 2 runs, got %d", runs)
	}

	_ = p.Set("a", 10)
	if runs != 2 {
		t.Errorf("stale branch should not trigger, got %d runs", runs)
	}

	_ = p.Set("b", 20)
	if runs != 3 {
		t.Errorf("current branch should trigger, got %d runs", runs)
	}
}

func TestEffectSelfTriggerSuppressed(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("n", 0))

	runs := 0
	rt.CreateEffect(func() {
		_ = p.Set("n", p.Get("n").(int)+1)
		runs++
	})
	if runs != 1 {
		t.Fatalf("expected 1 run, got %d", runs)
	}
	if got := p.Get("n"); got != 1 {
		t.Errorf("n = %v, want 1", got)
	}

	_ = p.Set("n", 10)
	if runs != 2 {
		t.Errorf("external write should re-run exactly once, got %d runs", runs)
	}
	if got := p.Get("n"); got != 11 {
		t.Errorf("n = %v, want 11", got)
	}
}

func TestEffectNestedRestoresOuter(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("foo", true, "bar", true))

	outerRuns, innerRuns := 0, 0
	rt.CreateEffect(func() {
		outerRuns++
		rt.CreateEffect(func() {
			innerRuns++
			_ = p.Get("bar")
		})
		// Read after the inner effect returned: must be attributed to the
		// outer effect.
		_ = p.Get("foo")
	})

	if outerRuns != 1 || innerRuns != 1 {
		t.Fatalf("outer=%d inner=%d, want 1 1", outerRuns, innerRuns)
	}

	_ = p.Set("foo", false)
	if outerRuns != 2 {
		t.Errorf("outer effect should re-run on foo, got %d", outerRuns)
	}
	if innerRuns != 2 {
		t.Errorf("re-running outer should create a new inner effect, got %d", innerRuns)
	}
	if rt.Active() != nil {
		t.Error("no effect should be active after the runs finish")
	}
}

func TestEffectRunsOncePerNotify(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(NewObject())

	runs := 0
	rt.CreateEffect(func() {
		_ = p.Keys()
		_ = p.Get("x")
		runs++
	})

	// The add hits both the x slot and the iteration slot.
	_ = p.Set("x", 1)
	if runs != 2 {
		t.Errorf("effect in two affected slots should run once, got %d runs", runs)
	}
}

func TestEffectScheduler(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("n", 0))

	var queue []*Effect
	runs := 0
	e := rt.CreateEffect(func() {
		_ = p.Get("n")
		runs++
	}, WithScheduler(SchedulerFunc(func(e *Effect) {
		queue = append(queue, e)
	})))

	if runs != 1 {
		t.Fatalf("scheduler should not affect the first run, got %d", runs)
	}

	_ = p.Set("n", 1)
	if runs != 1 {
		t.Errorf("scheduled effect should not run inline, got %d runs", runs)
	}
	if len(queue) != 1 || queue[0] != e {
		t.Fatalf("scheduler should receive the effect, queue = %v", queue)
	}

	if _, err := queue[0].Run(); err != nil {
		t.Fatal(err)
	}
	if runs != 2 {
		t.Errorf("expected 2 runs after flushing, got %d", runs)
	}
}

func TestEffectLazy(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("n", 2))

	runs := 0
	e, err := rt.NewEffect(func() (any, error) {
		runs++
		return p.Get("n").(int) * 2, nil
	}, Lazy())
	if err != nil {
		t.Fatal(err)
	}
	if runs != 0 {
		t.Fatalf("lazy effect should not run on creation, got %d", runs)
	}

	_ = p.Set("n", 3)
	if runs != 0 {
		t.Error("lazy effect has no dependencies before its first run")
	}

	v, err := e.Run()
	if err != nil {
		t.Fatal(err)
	}
	if v != 6 {
		t.Errorf("Run() = %v, want 6", v)
	}

	_ = p.Set("n", 4)
	if runs != 2 {
		t.Errorf("effect should be tracked after its first run, got %d runs", runs)
	}
}

func TestEffectErrorPropagates(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("fail", false))
	errBoom := errors.New("boom")

	e, err := rt.NewEffect(func() (any, error) {
		if p.Get("fail").(bool) {
			return nil, errBoom
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("first run should succeed, got %v", err)
	}

	err = p.Set("fail", true)
	if !errors.Is(err, errBoom) {
		t.Errorf("Set should return the triggered effect's error, got %v", err)
	}
	if rt.Active() != nil {
		t.Error("active stack should be restored after a failure")
	}

	// The failing run still tracked its reads.
	_, err = e.Run()
	if !errors.Is(err, errBoom) {
		t.Errorf("Run should return the error unchanged, got %v", err)
	}
	if err := p.Set("fail", false); err != nil {
		t.Errorf("recovered effect should not fail, got %v", err)
	}
}

func TestEffectPanicUnwindsStack(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("n", 0))

	e := rt.CreateEffect(func() {
		if p.Get("n").(int) > 0 {
			panic("boom")
		}
	})

	func() {
		defer func() {
			r := recover()
			if r != "boom" {
				t.Errorf("recovered %v, want boom", r)
			}
		}()
		_ = p.Set("n", 1)
	}()

	if rt.Active() != nil {
		t.Error("active stack should be empty after a panic")
	}
	if st := rt.Stats(); st.Depth != 0 {
		t.Errorf("stack depth = %d, want 0", st.Depth)
	}

	// The runtime is still usable and the lock was released.
	_ = p.Set("n", 0)
	if e.Runs() != 3 {
		t.Errorf("Runs() = %d, want 3", e.Runs())
	}
}

func TestEffectStop(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("n", 0))

	runs := 0
	e := rt.CreateEffect(func() {
		_ = p.Get("n")
		runs++
	})
	e.Stop()

	if !e.Stopped() {
		t.Error("Stopped() should be true")
	}
	if st := rt.Stats(); st.Links != 0 {
		t.Errorf("stopped effect should leave no links, got %d", st.Links)
	}

	_ = p.Set("n", 1)
	if runs != 1 {
		t.Errorf("stopped effect should not re-run, got %d runs", runs)
	}

	// Running a stopped effect is untracked.
	if _, err := e.Run(); err != nil {
		t.Fatal(err)
	}
	_ = p.Set("n", 2)
	if runs != 2 {
		t.Errorf("expected only the manual run, got %d runs", runs)
	}
	e.Stop()
}

func TestEffectStoppedByEarlierEffectInSamePass(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("n", 0))

	// Each effect stops the other, so whichever runs first must prevent the
	// second from running in the same notify pass.
	var first, second *Effect
	reruns := 0
	first = rt.CreateEffect(func() {
		if p.Get("n").(int) > 0 {
			reruns++
			second.Stop()
		}
	})
	second = rt.CreateEffect(func() {
		if p.Get("n").(int) > 0 {
			reruns++
			first.Stop()
		}
	})

	_ = p.Set("n", 1)
	if reruns != 1 {
		t.Errorf("effect stopped during the pass should not run, got %d reruns", reruns)
	}
}

func TestUntrackedReads(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("a", 1, "b", 1))

	runs := 0
	rt.CreateEffect(func() {
		_ = p.Get("a")
		rt.Untracked(func() {
			_ = p.Get("b")
		})
		runs++
	})

	_ = p.Set("b", 2)
	if runs != 1 {
		t.Errorf("untracked read should not subscribe, got %d runs", runs)
	}
	_ = p.Set("a", 2)
	if runs != 2 {
		t.Errorf("tracked read should still subscribe, got %d runs", runs)
	}
}

func TestEffectName(t *testing.T) {
	rt, _ := newTestRuntime()
	e := rt.CreateEffect(func() {}, EffectName("render"))

	if e.Name() != "render" {
		t.Errorf("Name() = %q, want render", e.Name())
	}
	if e.Runtime() != rt {
		t.Error("Runtime() should return the owning runtime")
	}
	if e.ID() == 0 {
		t.Error("ID() should be non-zero")
	}
}

func TestRuntimesAreIndependent(t *testing.T) {
	rt1, _ := newTestRuntime()
	rt2, _ := newTestRuntime()
	obj := ObjectOf("n", 0)

	p1 := rt1.Reactive(obj)
	p2 := rt2.Reactive(obj)

	runs := 0
	rt1.CreateEffect(func() {
		_ = p1.Get("n")
		runs++
	})

	_ = p2.Set("n", 1)
	if runs != 1 {
		t.Errorf("write through another runtime should not trigger, got %d runs", runs)
	}
	_ = p1.Set("n", 2)
	if runs != 2 {
		t.Errorf("write through the same runtime should trigger, got %d runs", runs)
	}
}

func TestDefaultRuntimeFunctions(t *testing.T) {
	p := Reactive(ObjectOf("n", 0))

	runs := 0
	e := CreateEffect(func() {
		_ = p.Get("n")
		runs++
	})
	defer e.Stop()

	_ = p.Set("n", 1)
	if runs != 2 {
		t.Errorf("expected 2 runs, got %d", runs)
	}
	if p.Runtime() != Default() {
		t.Error("package-level Reactive should use the default runtime")
	}
	if !Readonly(NewObject()).Readonly() || !ShallowReadonly(NewObject()).Shallow() {
		t.Error("package-level variants should set their flags")
	}
}
