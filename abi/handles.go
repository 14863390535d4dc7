package abi

import "sync"

// Dropper is implemented by values that hold something to free when their
// handle is deallocated.
type Dropper interface {
	Drop()
}

// Handles maps opaque handles to Go values that live across calls, the
// state behind a class of exports sharing a prefix:
//
//	var counters abi.Handles[*counter]
//
//	//go:wasmexport counter_alloc
//	func counterAlloc(start int32) float64 {
//		return abi.Call(abi.Default, func(*abi.Arena) abi.Pointer {
//			return counters.Alloc(&counter{n: start})
//		})
//	}
//
// Handle 0 is never issued. Freed handles are reused. The zero value is
// ready to use.
type Handles[T any] struct {
	entries  []handleEntry[T]
	freeList []Pointer
	mu       sync.Mutex
}

type handleEntry[T any] struct {
	value T
	valid bool
}

// Alloc stores x and returns its handle.
func (h *Handles[T]) Alloc(x T) Pointer {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := handleEntry[T]{value: x, valid: true}
	if n := len(h.freeList); n > 0 {
		p := h.freeList[n-1]
		h.freeList = h.freeList[:n-1]
		h.entries[p-1] = e
		return p
	}
	h.entries = append(h.entries, e)
	return Pointer(len(h.entries))
}

// Get returns the value behind p.
func (h *Handles[T]) Get(p Pointer) (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.lookup(p)
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Dealloc frees p, calling Drop on its value if it is a Dropper. It reports
// false for handles that were never issued or are already freed.
func (h *Handles[T]) Dealloc(p Pointer) bool {
	h.mu.Lock()
	e, ok := h.lookup(p)
	if !ok {
		h.mu.Unlock()
		return false
	}
	value := e.value
	*e = handleEntry[T]{}
	h.freeList = append(h.freeList, p)
	h.mu.Unlock()

	if d, ok := any(value).(Dropper); ok {
		d.Drop()
	}
	return true
}

// Len returns the number of live handles.
func (h *Handles[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries) - len(h.freeList)
}

func (h *Handles[T]) lookup(p Pointer) (*handleEntry[T], bool) {
	if p == 0 || int(p) > len(h.entries) {
		return nil, false
	}
	e := &h.entries[p-1]
	return e, e.valid
}
