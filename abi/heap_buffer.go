package abi

import (
	"encoding/binary"

	"github.com/wippyai/wasm-tojs/errors"
)

const (
	// DefaultMemorySize is the size of the simulated memory used off-wasm.
	DefaultMemorySize = 1 << 20

	// DefaultHeapBase keeps the low addresses, and with them the low-bits
	// marker, out of reach of every placement.
	DefaultHeapBase = 1024

	placementAlign = 8
)

// BufferHeap simulates a linear memory for builds that are not running
// inside a wasm instance. Regions carve it into independently reset heaps,
// and the whole buffer can be read back through tojs.Memory.
type BufferHeap struct {
	mem []byte
}

// NewBufferHeap creates a zeroed simulated memory of size bytes.
func NewBufferHeap(size uint32) *BufferHeap {
	return &BufferHeap{mem: make([]byte, size)}
}

// Region returns a bump heap over [base, limit).
func (h *BufferHeap) Region(base, limit uint32) *Region {
	if base <= LowBitsMarker || limit <= base || limit > uint32(len(h.mem)) {
		panic("abi: invalid heap region")
	}
	return &Region{buf: h, base: base, limit: limit, top: base}
}

// Read returns a view of length bytes at offset.
func (h *BufferHeap) Read(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(h.mem)) {
		return nil, errors.OutOfBounds(errors.PhaseDecode, nil, offset, length)
	}
	return h.mem[offset:end], nil
}

func (h *BufferHeap) ReadU8(offset uint32) (uint8, error) {
	b, err := h.Read(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (h *BufferHeap) ReadU16(offset uint32) (uint16, error) {
	b, err := h.Read(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (h *BufferHeap) ReadU32(offset uint32) (uint32, error) {
	b, err := h.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (h *BufferHeap) ReadU64(offset uint32) (uint64, error) {
	b, err := h.Read(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Size returns the size of the simulated memory.
func (h *BufferHeap) Size() uint32 {
	return uint32(len(h.mem))
}

// Region is a bump-allocated slice of a BufferHeap. Placements are 8-byte
// aligned so typed-array views of them are valid.
type Region struct {
	buf   *BufferHeap
	base  uint32
	limit uint32
	top   uint32
}

// Place copies data into the region. Exhausting a region is fatal, the same
// way running out of linear memory is.
func (r *Region) Place(data []byte) uint32 {
	addr := alignUp(r.top, placementAlign)
	end := uint64(addr) + uint64(len(data))
	if end > uint64(r.limit) {
		panic("abi: heap region exhausted")
	}
	copy(r.buf.mem[addr:end], data)
	r.top = uint32(end)
	return addr
}

// Reset zeroes everything placed and rewinds the bump pointer, so the next
// placement reuses the released memory.
func (r *Region) Reset() {
	clear(r.buf.mem[r.base:r.top])
	r.top = r.base
}

// Base returns the first address of the region.
func (r *Region) Base() uint32 {
	return r.base
}

// Used returns the number of bytes between base and the bump pointer.
func (r *Region) Used() uint32 {
	return r.top - r.base
}

// Image copies the used part of the region, starting at Base.
func (r *Region) Image() []byte {
	return append([]byte(nil), r.buf.mem[r.base:r.top]...)
}

func alignUp(n, align uint32) uint32 {
	return (n + align - 1) &^ (align - 1)
}
