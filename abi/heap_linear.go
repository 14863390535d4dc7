//go:build wasm

package abi

import "unsafe"

// LinearHeap places nothing: inside a wasm instance a Go slice already lives
// in linear memory and its data pointer is the address the host reads. The
// arena keeps the slice reachable, and the non-moving collector keeps the
// address stable, until the arena is cleared.
type LinearHeap struct{}

func (LinearHeap) Place(data []byte) uint32 {
	return uint32(uintptr(unsafe.Pointer(unsafe.SliceData(data))))
}

func (LinearHeap) Reset() {}

func defaultHeaps() (calls, keep Heap) {
	return LinearHeap{}, LinearHeap{}
}
