package abi

import (
	"math"
	"testing"
)

type closer struct{ closed *int }

func (c closer) Drop() { *c.closed++ }

func TestHandlesLifecycle(t *testing.T) {
	var h Handles[string]

	a := h.Alloc("a")
	b := h.Alloc("b")
	if a != 1 || b != 2 {
		t.Fatalf("handles = %d, %d, want 1, 2", a, b)
	}
	if got, ok := h.Get(b); !ok || got != "b" {
		t.Errorf("Get(%d) = (%q, %v)", b, got, ok)
	}

	if !h.Dealloc(a) {
		t.Fatal("Dealloc of a live handle failed")
	}
	if h.Dealloc(a) {
		t.Error("second Dealloc succeeded")
	}
	if _, ok := h.Get(a); ok {
		t.Error("Get succeeded after Dealloc")
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}

	if c := h.Alloc("c"); c != a {
		t.Errorf("Alloc after Dealloc = %d, want reused %d", c, a)
	}
}

func TestHandlesRejectUnknown(t *testing.T) {
	var h Handles[int]
	h.Alloc(1)

	for _, p := range []Pointer{0, 2, math.MaxUint32} {
		if _, ok := h.Get(p); ok {
			t.Errorf("Get(%d) succeeded", p)
		}
		if h.Dealloc(p) {
			t.Errorf("Dealloc(%d) succeeded", p)
		}
	}
}

func TestHandlesDrop(t *testing.T) {
	var h Handles[closer]
	closed := 0

	p := h.Alloc(closer{closed: &closed})
	h.Dealloc(p)
	h.Dealloc(p)
	if closed != 1 {
		t.Errorf("Drop called %d times, want 1", closed)
	}
}

func TestHandleThroughCall(t *testing.T) {
	b, _ := newTestBoundary(t)
	var h Handles[*int]

	n := 5
	if got := Call(b, func(*Arena) Pointer { return h.Alloc(&n) }); got != 1 {
		t.Fatalf("handle = %v, want 1", got)
	}

	stale := Call(b, func(*Arena) Result[I32] {
		v, ok := h.Get(Pointer(7))
		if !ok {
			return Errorf[I32]("invalid handle %d", 7)
		}
		return Ok(I32(*v))
	})
	if msg, ok := NicheHighBitsNaN.Match(Value(math.Float64bits(stale))); !ok || msg == 0 {
		t.Errorf("stale handle result = %v, want an error sentinel", stale)
	}
}
