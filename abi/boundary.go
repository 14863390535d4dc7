package abi

import (
	_ "embed"
	"sync"

	"github.com/wippyai/wasm-tojs/typeinfo"
)

//go:embed decoder.js
var decoderSource []byte

// DecoderSource returns the JavaScript module that decodes the values of
// this package. Guests hand it to the host through their JS export.
func DecoderSource() []byte {
	return decoderSource
}

// Boundary is the state behind a set of exported functions: the call arena,
// cleared at the start of every call, and the keep-alive arena, cleared only
// on Release.
type Boundary struct {
	calls *Arena
	keep  *Arena

	mu    sync.Mutex
	js    Value
	jsSet bool
}

// NewBoundary creates a boundary whose arenas place payloads on the given
// heaps.
func NewBoundary(calls, keep Heap) *Boundary {
	return &Boundary{
		calls: NewArena("call", calls),
		keep:  NewArena("keep-alive", keep),
	}
}

// Default is the boundary of the running program.
var Default = NewBoundary(defaultHeaps())

// Call runs fn as the body of an exported function and returns its encoded
// result. Values returned by the previous call are released before fn runs.
//
//	//go:wasmexport area
//	func area(w, h uint32) float64 {
//		return abi.Call(abi.Default, func(*abi.Arena) abi.U32 { return abi.U32(w * h) })
//	}
func Call[R Encoder](b *Boundary, fn func(a *Arena) R) float64 {
	b.calls.Clear()
	return b.calls.Push(fn(b.calls)).Float64()
}

// Info returns the encoded descriptor of R, the body of an _info_ companion.
// It touches no arena.
func Info[R Encoder]() float64 {
	return DescriptorValue(DescriptorOf[R]()).Float64()
}

// Arena returns the call arena.
func (b *Boundary) Arena() *Arena {
	return b.calls
}

// KeepAliveArena returns the keep-alive arena.
func (b *Boundary) KeepAliveArena() *Arena {
	return b.keep
}

// Release clears the keep-alive arena.
func (b *Boundary) Release() {
	b.mu.Lock()
	b.jsSet = false
	b.mu.Unlock()
	b.keep.Clear()
}

// JS returns the decoder source as an encoded String held in the keep-alive
// arena. It is placed once and reused until Release.
func (b *Boundary) JS() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.jsSet {
		b.js = b.keep.Push(String(decoderSource))
		b.jsSet = true
	}
	return b.js.Float64()
}

// Kept is a value whose encoding lives in the keep-alive arena of a
// boundary. It is returned and described exactly like T, so Option and
// Result compose over it, but it stays readable across calls until Release.
type Kept[T Nichable] struct {
	b     *Boundary
	value T
}

// KeepAlive marks x to be encoded into b's keep-alive arena.
//
//	//go:wasmexport session
//	func session() float64 {
//		return abi.Call(abi.Default, func(*abi.Arena) abi.Kept[abi.String] {
//			return abi.KeepAlive(abi.Default, abi.String("token"))
//		})
//	}
func KeepAlive[T Nichable](b *Boundary, x T) Kept[T] {
	return Kept[T]{b: b, value: x}
}

// Get returns the wrapped value.
func (k Kept[T]) Get() T {
	return k.value
}

// Encode pushes the value into the keep-alive arena. The arena it is handed
// only holds the wrapper. A Kept without a boundary uses Default.
func (k Kept[T]) Encode(*Arena) Value {
	b := k.b
	if b == nil {
		b = Default
	}
	return b.keep.Push(k.value)
}

func (Kept[T]) Descriptor() typeinfo.Descriptor {
	return DescriptorOf[T]()
}

func (Kept[T]) Niche() Niche { return nicheOf[T]() }

// ReleaseExport is the body of a release export. It clears the keep-alive
// arena and returns Void.
func (b *Boundary) ReleaseExport() float64 {
	return Call(b, func(*Arena) Void {
		b.Release()
		return Void{}
	})
}
