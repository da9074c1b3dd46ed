package reactive

import (
	"errors"
	"testing"
)

func TestComputedIsLazyAndCached(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("a", 1, "b", 2))

	calls := 0
	sum := NewComputed(rt, func() (int, error) {
		calls++
		return p.Get("a").(int) + p.Get("b").(int), nil
	})
	if calls != 0 {
		t.Fatalf("computed should not run before Get, calls = %d", calls)
	}

	v, err := sum.Get()
	if err != nil || v != 3 {
		t.Fatalf("Get() = %d, %v, want 3, nil", v, err)
	}
	_, _ = sum.Get()
	if calls != 1 {
		t.Errorf("second Get should hit the cache, calls = %d", calls)
	}

	_ = p.Set("a", 10)
	_ = p.Set("b", 20)
	if calls != 1 {
		t.Errorf("invalidation should not recompute eagerly, calls = %d", calls)
	}

	v, _ = sum.Get()
	if v != 30 {
		t.Errorf("Get() = %d, want 30", v)
	}
	if calls != 2 {
		t.Errorf("expected a single recompute for two changes, calls = %d", calls)
	}
}

func TestComputedNotifiesReaders(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("n", 2))

	double := NewComputed(rt, func() (int, error) {
		return p.Get("n").(int) * 2, nil
	})

	var seen []int
	rt.CreateEffect(func() {
		v, _ := double.Get()
		seen = append(seen, v)
	})

	_ = p.Set("n", 5)
	if len(seen) != 2 || seen[0] != 4 || seen[1] != 10 {
		t.Errorf("effect saw %v, want [4 10]", seen)
	}
}

func TestComputedError(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("d", 0))
	errDivide := errors.New("divide by zero")

	ratio := NewComputed(rt, func() (int, error) {
		d := p.Get("d").(int)
		if d == 0 {
			return 0, errDivide
		}
		return 100 / d, nil
	})

	if _, err := ratio.Get(); !errors.Is(err, errDivide) {
		t.Errorf("Get() error = %v, want %v", err, errDivide)
	}

	_ = p.Set("d", 4)
	v, err := ratio.Get()
	if err != nil || v != 25 {
		t.Errorf("Get() = %d, %v, want 25, nil", v, err)
	}
}

func TestComputedStop(t *testing.T) {
	rt, _ := newTestRuntime()
	p := rt.Reactive(ObjectOf("n", 1))

	c := NewComputed(rt, func() (int, error) {
		return p.Get("n").(int), nil
	})
	_, _ = c.Get()
	c.Stop()

	_ = p.Set("n", 2)
	if v, _ := c.Get(); v != 1 {
		t.Errorf("stopped computed should keep its last value, got %d", v)
	}
	if !c.Effect().Stopped() {
		t.Error("backing effect should be stopped")
	}
}
