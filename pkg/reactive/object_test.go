package reactive

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestObjectOfKeepsOrder(t *testing.T) {
	obj := ObjectOf("b", 1, Key("a"), 2, "c", 3)

	want := []Key{"b", "a", "c"}
	if diff := cmp.Diff(want, obj.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if obj.Len() != 3 {
		t.Errorf("Len() = %d, want 3", obj.Len())
	}
}

func TestObjectOfPanicsOnMalformedPairs(t *testing.T) {
	for _, args := range [][]any{{"a"}, {1, 2}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("ObjectOf(%v) should panic", args)
				}
			}()
			ObjectOf(args...)
		}()
	}
}

func TestFromMapConvertsNested(t *testing.T) {
	obj := FromMap(map[string]any{
		"z": 1,
		"a": map[string]any{"x": true},
	})

	if diff := cmp.Diff([]Key{"a", "z"}, obj.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	child := obj.Child("a")
	if child == nil || child.Get("x") != true {
		t.Errorf("nested map should become an Object, got %v", obj.Get("a"))
	}
}

func TestObjectDelete(t *testing.T) {
	obj := ObjectOf("a", 1, "b", 2, "c", 3)

	if !obj.Delete("b") {
		t.Error("Delete(b) should report the key was present")
	}
	if obj.Delete("b") {
		t.Error("second Delete(b) should report absence")
	}
	if diff := cmp.Diff([]Key{"a", "c"}, obj.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	obj.Set("b", 4)
	if diff := cmp.Diff([]Key{"a", "c", "b"}, obj.Keys()); diff != "" {
		t.Errorf("re-added key should go last (-want +got):\n%s", diff)
	}
}

func TestObjectPrototypeChain(t *testing.T) {
	base := ObjectOf("greeting", "hi")
	mid := NewObject()
	leaf := NewObject()

	if err := mid.SetPrototype(base); err != nil {
		t.Fatal(err)
	}
	if err := leaf.SetPrototype(mid); err != nil {
		t.Fatal(err)
	}

	if got := leaf.Get("greeting"); got != "hi" {
		t.Errorf("inherited Get = %v, want hi", got)
	}
	if !leaf.Has("greeting") || leaf.HasOwn("greeting") {
		t.Error("greeting should be inherited, not own")
	}
	if _, ok := leaf.Lookup("missing"); ok {
		t.Error("Lookup(missing) should report absence")
	}

	leaf.Set("greeting", "hello")
	if !leaf.HasOwn("greeting") || base.Get("greeting") != "hi" {
		t.Error("assignment should shadow the inherited key on the receiver")
	}
}

func TestObjectStoresProxiesRaw(t *testing.T) {
	rt, _ := newTestRuntime()
	inner := ObjectOf("n", 1)

	o := ObjectOf("b", rt.Readonly(inner))
	o.Set("a", rt.Reactive(inner))
	if o.Get("a") != inner || o.Get("b") != inner {
		t.Fatalf("stored values = %T, %T; want the raw *Object", o.Get("a"), o.Get("b"))
	}

	p := rt.Reactive(o)
	runs := 0
	rt.CreateEffect(func() {
		_ = p.Get("a")
		runs++
	})
	if err := p.Set("a", inner); err != nil {
		t.Fatal(err)
	}
	if runs != 1 {
		t.Errorf("re-assigning the same object should not trigger, runs = %d", runs)
	}
}

func TestObjectSetPrototypeErrors(t *testing.T) {
	a := NewObject()
	b := NewObject()

	if err := a.SetPrototype("nope"); !errors.Is(err, ErrNotObject) {
		t.Errorf("SetPrototype(string) = %v, want ErrNotObject", err)
	}
	if err := a.SetPrototype(b); err != nil {
		t.Fatal(err)
	}
	if err := b.SetPrototype(a); !errors.Is(err, ErrPrototypeCycle) {
		t.Errorf("cyclic SetPrototype = %v, want ErrPrototypeCycle", err)
	}
	if err := a.SetPrototype(a); !errors.Is(err, ErrPrototypeCycle) {
		t.Errorf("self prototype = %v, want ErrPrototypeCycle", err)
	}
	if err := a.SetPrototype(nil); err != nil {
		t.Errorf("clearing the prototype should succeed, got %v", err)
	}
}

func TestObjectMarshalJSON(t *testing.T) {
	obj := ObjectOf("name", "ada", "tags", []string{"x"}, "nested", ObjectOf("n", 1))

	b, err := obj.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `{"name":"ada","tags":["x"],"nested":{"n":1}}`; got != want {
		t.Errorf("MarshalJSON = %s, want %s", got, want)
	}

	bad := ObjectOf("ch", make(chan int))
	if _, err := bad.MarshalJSON(); err == nil {
		t.Error("unencodable value should fail")
	}
	if got := bad.String(); got == "" {
		t.Error("String should fall back to a placeholder")
	}
}
