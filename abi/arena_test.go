package abi

import (
	"bytes"
	"testing"
)

func newTestArena(t *testing.T) (*Arena, *BufferHeap) {
	t.Helper()
	buf := NewBufferHeap(4096)
	return NewArena("test", buf.Region(64, 4096)), buf
}

func readPair(t *testing.T, buf *BufferHeap, v Value) []byte {
	t.Helper()
	ptr, n := v.Halves()
	data, err := buf.Read(ptr, n)
	if err != nil {
		t.Fatalf("Read(%d, %d): %v", ptr, n, err)
	}
	return data
}

func TestArenaPushString(t *testing.T) {
	a, buf := newTestArena(t)

	v := a.Push(String("hello"))
	ptr, n := v.Halves()
	if ptr != 64 || n != 5 {
		t.Fatalf("Push() = (%d, %d), want (64, 5)", ptr, n)
	}
	if got := readPair(t, buf, v); string(got) != "hello" {
		t.Errorf("memory = %q, want %q", got, "hello")
	}
	// The pinned bytes and the String itself.
	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}
}

func TestArenaPinEmpty(t *testing.T) {
	a, _ := newTestArena(t)
	if addr := a.Pin(nil); addr != 0 {
		t.Errorf("Pin(nil) = %d, want 0", addr)
	}
	if a.Len() != 0 {
		t.Errorf("Len() = %d, want 0", a.Len())
	}
}

func TestArenaAlignment(t *testing.T) {
	a, _ := newTestArena(t)
	first := a.Pin([]byte{1, 2, 3})
	second := a.Pin([]byte{4})
	if first != 64 || second != 72 {
		t.Errorf("addresses = (%d, %d), want (64, 72)", first, second)
	}
}

func TestArenaClearReusesMemory(t *testing.T) {
	a, buf := newTestArena(t)

	first := a.Push(String("first value"))
	a.Clear()
	if a.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", a.Len())
	}
	stale, err := buf.Read(64, 11)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(stale, make([]byte, 11)) {
		t.Errorf("released memory = %q, want zeros", stale)
	}

	second := a.Push(String("second"))
	p1, _ := first.Halves()
	p2, _ := second.Halves()
	if p1 != p2 {
		t.Errorf("second push at %d, want reuse of %d", p2, p1)
	}
	if got := readPair(t, buf, second); string(got) != "second" {
		t.Errorf("memory = %q, want %q", got, "second")
	}
}

func TestArenaEncodeBeforeRetain(t *testing.T) {
	a, buf := newTestArena(t)
	v := a.Push(Slice[uint16]{1, 0x0203})
	if got := readPair(t, buf, v); len(got) != 2 {
		t.Fatalf("pair length = %d, want 2 elements", len(got))
	}
	ptr, _ := v.Halves()
	raw, err := buf.Read(ptr, 4)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{1, 0, 3, 2}; !bytes.Equal(raw, want) {
		t.Errorf("memory = % x, want % x", raw, want)
	}
}

func TestRegionBounds(t *testing.T) {
	buf := NewBufferHeap(256)

	assertPanics(t, "marker base", func() { buf.Region(LowBitsMarker, 256) })
	assertPanics(t, "past end", func() { buf.Region(8, 512) })

	r := buf.Region(8, 32)
	r.Place(make([]byte, 16))
	assertPanics(t, "exhausted", func() { r.Place(make([]byte, 16)) })

	if r.Used() != 16 {
		t.Errorf("Used() = %d, want 16", r.Used())
	}
	r.Reset()
	if r.Used() != 0 {
		t.Errorf("Used() after Reset = %d, want 0", r.Used())
	}
}

func TestBufferHeapReads(t *testing.T) {
	buf := NewBufferHeap(64)
	r := buf.Region(8, 64)
	addr := r.Place([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})

	if v, _ := buf.ReadU8(addr); v != 0x01 {
		t.Errorf("ReadU8 = %#x", v)
	}
	if v, _ := buf.ReadU16(addr); v != 0x0201 {
		t.Errorf("ReadU16 = %#x", v)
	}
	if v, _ := buf.ReadU32(addr); v != 0x04030201 {
		t.Errorf("ReadU32 = %#x", v)
	}
	if v, _ := buf.ReadU64(addr); v != 0x0807060504030201 {
		t.Errorf("ReadU64 = %#x", v)
	}
	if _, err := buf.Read(60, 8); err == nil {
		t.Error("Read past end succeeded")
	}
	if !bytes.Equal(r.Image(), []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("Image() = % x", r.Image())
	}
}

func assertPanics(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}
