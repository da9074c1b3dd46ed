package reactive

import (
	"cmp"
	"runtime"
	"slices"
	"weak"
)

// ChangeKind classifies a write for notification purposes.
type ChangeKind uint8

const (
	// ChangeSet overwrites an existing own key.
	ChangeSet ChangeKind = iota + 1

	// ChangeAdd creates a key that was not an own key before.
	ChangeAdd

	// ChangeDelete removes an own key.
	ChangeDelete
)

// String returns a human-readable name for the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeSet:
		return "set"
	case ChangeAdd:
		return "add"
	case ChangeDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Structural reports whether the change alters the key set of the object.
func (k ChangeKind) Structural() bool {
	return k == ChangeAdd || k == ChangeDelete
}

// TrackedKey identifies a dependency slot on an Object: either an ordinary
// Key, or the iteration slot that stands for "any change to the key set".
// The iteration slot cannot be named by any Key value.
type TrackedKey struct {
	Key     Key
	Iterate bool
}

// iterateKey is the dependency slot for enumeration and structural changes.
var iterateKey = TrackedKey{Iterate: true}

func propertyKey(k Key) TrackedKey {
	return TrackedKey{Key: k}
}

// String returns the key name, or "[[iterate]]" for the iteration slot.
func (k TrackedKey) String() string {
	if k.Iterate {
		return "[[iterate]]"
	}
	return string(k.Key)
}

// depSet is the set of effects depending on one (object, key) slot.
// Iteration order is deterministic for a given history of adds and removes.
type depSet struct {
	key     TrackedKey
	effects []*Effect
	index   map[*Effect]int
}

func newDepSet(key TrackedKey) *depSet {
	return &depSet{
		key:   key,
		index: make(map[*Effect]int),
	}
}

// add inserts e and reports whether it was not already present.
func (s *depSet) add(e *Effect) bool {
	if _, ok := s.index[e]; ok {
		return false
	}
	s.index[e] = len(s.effects)
	s.effects = append(s.effects, e)
	return true
}

// remove deletes e by swapping with the last element.
func (s *depSet) remove(e *Effect) {
	i, ok := s.index[e]
	if !ok {
		return
	}
	last := len(s.effects) - 1
	if i != last {
		moved := s.effects[last]
		s.effects[i] = moved
		s.index[moved] = i
	}
	s.effects[last] = nil
	s.effects = s.effects[:last]
	delete(s.index, e)
}

// clear drops every member. Effects still holding the set in their
// membership list remove themselves harmlessly on their next cleanup.
func (s *depSet) clear() {
	s.effects = nil
	s.index = make(map[*Effect]int)
}

// targetDeps holds the dependency sets of one Object.
type targetDeps struct {
	objectID uint64
	keys     map[TrackedKey]*depSet
}

// depStore maps Objects to their dependency sets. Objects are held weakly:
// once user code drops an Object, its entry is pruned by a runtime cleanup.
type depStore struct {
	targets map[weak.Pointer[Object]]*targetDeps
}

func newDepStore() depStore {
	return depStore{targets: make(map[weak.Pointer[Object]]*targetDeps)}
}

// lookup returns the dependency sets of target, or nil.
func (s *depStore) lookup(target *Object) *targetDeps {
	return s.targets[weak.Make(target)]
}

// ensure returns the dependency set for (target, key), creating the nested
// structure on demand. onCollect is registered to run once target becomes
// unreachable.
func (s *depStore) ensure(target *Object, key TrackedKey, onCollect func(weak.Pointer[Object])) *depSet {
	wp := weak.Make(target)
	td, ok := s.targets[wp]
	if !ok {
		td = &targetDeps{
			objectID: target.id,
			keys:     make(map[TrackedKey]*depSet),
		}
		s.targets[wp] = td
		runtime.AddCleanup(target, onCollect, wp)
	}
	set, ok := td.keys[key]
	if !ok {
		set = newDepSet(key)
		td.keys[key] = set
	}
	return set
}

// forget drops the entry of a collected Object.
func (s *depStore) forget(wp weak.Pointer[Object]) {
	td, ok := s.targets[wp]
	if !ok {
		return
	}
	for _, set := range td.keys {
		set.clear()
	}
	delete(s.targets, wp)
}

// DepEntry is one dependency slot in a Snapshot.
type DepEntry struct {
	Object  uint64   `json:"object"`
	Key     string   `json:"key"`
	Iterate bool     `json:"iterate,omitempty"`
	Effects []uint64 `json:"effects"`
}

// Stats summarizes the size of a Runtime's dependency store.
type Stats struct {
	// Targets is the number of Objects with at least one tracked slot.
	Targets int `json:"targets"`

	// DepSets is the number of (object, key) slots.
	DepSets int `json:"depSets"`

	// Links is the total number of (slot, effect) memberships.
	Links int `json:"links"`

	// Depth is the current depth of the active-effect stack.
	Depth int `json:"depth"`
}

// snapshot lists every non-empty slot, ordered by object ID and then key,
// with the iteration slot last.
func (s *depStore) snapshot() []DepEntry {
	var entries []DepEntry
	for _, td := range s.targets {
		for key, set := range td.keys {
			if len(set.effects) == 0 {
				continue
			}
			ids := make([]uint64, len(set.effects))
			for i, e := range set.effects {
				ids[i] = e.id
			}
			slices.Sort(ids)
			entries = append(entries, DepEntry{
				Object:  td.objectID,
				Key:     key.String(),
				Iterate: key.Iterate,
				Effects: ids,
			})
		}
	}
	slices.SortFunc(entries, func(a, b DepEntry) int {
		if c := cmp.Compare(a.Object, b.Object); c != 0 {
			return c
		}
		if a.Iterate != b.Iterate {
			if a.Iterate {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return entries
}

func (s *depStore) stats() Stats {
	var st Stats
	st.Targets = len(s.targets)
	for _, td := range s.targets {
		st.DepSets += len(td.keys)
		for _, set := range td.keys {
			st.Links += len(set.effects)
		}
	}
	return st
}
