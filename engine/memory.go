package engine

import (
	"github.com/tetratelabs/wazero/api"

	tojs "github.com/wippyai/wasm-tojs"
	"github.com/wippyai/wasm-tojs/errors"
)

// WazeroMemory adapts wazero memory to tojs.Memory.
type WazeroMemory struct {
	mem api.Memory
}

// Read returns a view of memory. It is invalidated by the next call into
// the guest.
func (m *WazeroMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseRuntime, nil, offset, length)
	}
	return data, nil
}

func (m *WazeroMemory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseRuntime, nil, offset, 1)
	}
	return v, nil
}

func (m *WazeroMemory) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseRuntime, nil, offset, 2)
	}
	return v, nil
}

func (m *WazeroMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseRuntime, nil, offset, 4)
	}
	return v, nil
}

func (m *WazeroMemory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseRuntime, nil, offset, 8)
	}
	return v, nil
}

func (m *WazeroMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Compile-time check that WazeroMemory implements tojs.Memory and MemorySizer
var _ tojs.Memory = (*WazeroMemory)(nil)
var _ tojs.MemorySizer = (*WazeroMemory)(nil)
