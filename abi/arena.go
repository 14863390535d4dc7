package abi

import (
	"sync"

	"go.uber.org/zap"
)

// Heap gives payload bytes a stable 32-bit address for as long as the arena
// that placed them keeps them.
type Heap interface {
	// Place returns the address of data. data is non-empty.
	Place(data []byte) uint32
	// Reset releases everything placed since the last Reset.
	Reset()
}

// Arena owns the values whose encodings point into memory. A value returned
// by call N stays readable until the arena is cleared at the start of call
// N+1. Push and Clear are individually atomic, but one arena generation must
// only ever have one logical caller.
type Arena struct {
	heap    Heap
	name    string
	entries []any
	mu      sync.RWMutex
}

// NewArena creates an arena that places payloads on heap.
func NewArena(name string, heap Heap) *Arena {
	return &Arena{name: name, heap: heap}
}

// Push encodes v, then takes ownership of it. Encoding first means any
// payload v places lands at its final address before the encoding is taken.
func (a *Arena) Push(v Encoder) Value {
	enc := v.Encode(a)
	a.mu.Lock()
	a.entries = append(a.entries, v)
	a.mu.Unlock()
	return enc
}

// Pin places data on the heap, retains it and returns its address.
// Empty data has address 0.
func (a *Arena) Pin(data []byte) uint32 {
	if len(data) == 0 {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	addr := a.heap.Place(data)
	a.entries = append(a.entries, data)
	return addr
}

// Clear drops every entry and releases their memory.
func (a *Arena) Clear() {
	a.mu.Lock()
	n := len(a.entries)
	clear(a.entries)
	a.entries = a.entries[:0]
	a.heap.Reset()
	a.mu.Unlock()

	if n > 0 {
		Logger().Debug("arena cleared", zap.String("arena", a.name), zap.Int("entries", n))
	}
}

// Len returns the number of live entries.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

// Heap returns the heap backing the arena.
func (a *Arena) Heap() Heap {
	return a.heap
}
