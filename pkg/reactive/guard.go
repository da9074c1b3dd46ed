package reactive

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// guard is a goroutine-reentrant lock. The first lock from a goroutine takes
// the mutex; nested locks from the same goroutine only bump the depth. This
// lets an Effect triggered by a write read and write the same Runtime while
// other goroutines wait their turn.
type guard struct {
	mu sync.Mutex

	// owner is the goroutine ID holding mu, or 0.
	owner atomic.Uint64

	// depth is only touched by the owning goroutine.
	depth int
}

func (g *guard) lock() {
	gid := goroutineID()
	if g.owner.Load() == gid {
		g.depth++
		return
	}
	g.mu.Lock()
	g.owner.Store(gid)
	g.depth = 1
}

// tryLock is lock without waiting for another goroutine.
func (g *guard) tryLock() bool {
	gid := goroutineID()
	if g.owner.Load() == gid {
		g.depth++
		return true
	}
	if !g.mu.TryLock() {
		return false
	}
	g.owner.Store(gid)
	g.depth = 1
	return true
}

func (g *guard) unlock() {
	g.depth--
	if g.depth == 0 {
		g.owner.Store(0)
		g.mu.Unlock()
	}
}

// held reports whether the calling goroutine holds the lock.
func (g *guard) held() bool {
	return g.owner.Load() == goroutineID()
}

// goroutineID returns the numeric ID of the calling goroutine, parsed from
// the "goroutine <id> [" header of runtime.Stack. IDs start at 1.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
