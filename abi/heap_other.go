//go:build !wasm

package abi

// defaultHeaps splits one simulated memory between the call arena and the
// keep-alive arena.
func defaultHeaps() (calls, keep Heap) {
	buf := NewBufferHeap(DefaultMemorySize)
	split := uint32(DefaultMemorySize / 4 * 3)
	return buf.Region(DefaultHeapBase, split), buf.Region(split, DefaultMemorySize)
}
