// Package arena implements the bump allocator of spec §4.2: a single
// pre-sized region that hands out elements with a bump index,
// spilling to the Go heap once the region is exhausted, and can be
// reset as a whole to drop every arena-backed allocation in one step.
package arena

import "unsafe"

// Arena is a thread-confined bump allocator over a single contiguous,
// pre-sized slice of T. Handing out &pool[i] keeps every allocation
// inside ordinary Go memory laid out by the compiler, so any pointers
// embedded in T are traced by the garbage collector like any other
// heap value — unlike a []byte region carved up with unsafe.Pointer
// casts, which the GC treats as opaque, pointer-free data.
type Arena[T any] struct {
	pool []T
	used int
}

// New allocates the arena's backing slice up front.
func New[T any](capacity int) *Arena[T] {
	a := &Arena[T]{}
	a.Grow(capacity)
	return a
}

// Grow replaces the arena's backing slice with a fresh one of the
// given capacity and resets the bump index. Used when restoring from
// a memory profile that pre-computed the exact element count
// required.
func (a *Arena[T]) Grow(capacity int) {
	a.pool = make([]T, capacity)
	a.used = 0
}

// Allocate returns a pointer to the next free element, bumping the
// index; if the region is exhausted it spills to an ordinary Go heap
// allocation.
func (a *Arena[T]) Allocate() *T {
	if a.used < len(a.pool) {
		p := &a.pool[a.used]
		a.used++
		return p
	}
	return new(T)
}

// Reset rewinds the bump index to zero, making the whole backing
// slice available for reuse. It does not touch allocations that
// spilled to the heap: those are simply no longer referenced by
// whatever held them, and Go's GC reclaims them normally. Calling
// Reset twice in a row is a no-op.
func (a *Arena[T]) Reset() {
	a.used = 0
}

// Cap reports the capacity, in elements, of the arena's backing
// slice.
func (a *Arena[T]) Cap() int {
	return len(a.pool)
}

// Used reports how many elements of the backing slice are currently
// spoken for by the bump index.
func (a *Arena[T]) Used() int {
	return a.used
}

// InArena reports whether p points into this arena's backing slice
// (as opposed to having spilled to the heap).
func (a *Arena[T]) InArena(p *T) bool {
	if len(a.pool) == 0 {
		return false
	}
	base := uintptr(unsafe.Pointer(&a.pool[0]))
	addr := uintptr(unsafe.Pointer(p))
	end := base + uintptr(len(a.pool))*unsafe.Sizeof(a.pool[0])
	return addr >= base && addr < end
}
