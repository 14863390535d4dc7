// Package wasmgen assembles small core WebAssembly modules for tests.
package wasmgen

import (
	"encoding/binary"
	"math"
)

// ValType is a core value type.
type ValType byte

const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
	F32 ValType = 0x7d
	F64 ValType = 0x7c
)

// Opcodes used by the instruction helpers.
const (
	OpIf             = 0x04
	OpElse           = 0x05
	OpEnd            = 0x0b
	OpLocalGet       = 0x20
	OpI32Const       = 0x41
	OpI64Const       = 0x42
	OpF64Const       = 0x44
	OpI32Mul         = 0x6c
	OpF64ConvertI32U = 0xb8
)

const (
	exportFunc   = 0x00
	exportMemory = 0x02
	exportGlobal = 0x03
)

type function struct {
	typeIdx uint32
	body    []byte
}

type export struct {
	name  string
	kind  byte
	index uint32
}

type global struct {
	typ  ValType
	init []byte
}

type segment struct {
	offset uint32
	data   []byte
}

type signature struct {
	params, results []ValType
}

// Builder collects the parts of a module. Every function and global it
// defines is exported.
type Builder struct {
	types    []signature
	funcs    []function
	globals  []global
	exports  []export
	data     []segment
	memPages uint32
	hasMem   bool
}

func New() *Builder {
	return &Builder{}
}

// Memory defines a memory of pages 64 KiB pages exported as "memory".
func (b *Builder) Memory(pages uint32) *Builder {
	b.memPages = pages
	b.hasMem = true
	b.exports = append(b.exports, export{name: "memory", kind: exportMemory})
	return b
}

// Func defines an exported function. body is the instruction sequence
// without the final end.
func (b *Builder) Func(name string, params, results []ValType, body ...byte) *Builder {
	idx := b.typeIndex(signature{params: params, results: results})
	b.exports = append(b.exports, export{name: name, kind: exportFunc, index: uint32(len(b.funcs))})
	b.funcs = append(b.funcs, function{typeIdx: idx, body: body})
	return b
}

// Const defines an exported function with no parameters returning the f64
// with the given bit pattern.
func (b *Builder) Const(name string, bits uint64) *Builder {
	return b.Func(name, nil, []ValType{F64}, F64Bits(bits)...)
}

// GlobalI32 defines an immutable exported i32 global.
func (b *Builder) GlobalI32(name string, v int32) *Builder {
	b.exports = append(b.exports, export{name: name, kind: exportGlobal, index: uint32(len(b.globals))})
	b.globals = append(b.globals, global{typ: I32, init: I32Const(v)})
	return b
}

// Data places bytes at offset in memory 0.
func (b *Builder) Data(offset uint32, data []byte) *Builder {
	b.data = append(b.data, segment{offset: offset, data: data})
	return b
}

func (b *Builder) typeIndex(sig signature) uint32 {
	for i, t := range b.types {
		if string(valBytes(t.params)) == string(valBytes(sig.params)) &&
			string(valBytes(t.results)) == string(valBytes(sig.results)) {
			return uint32(i)
		}
	}
	b.types = append(b.types, sig)
	return uint32(len(b.types) - 1)
}

// Bytes encodes the module.
func (b *Builder) Bytes() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	var types []byte
	for _, t := range b.types {
		types = append(types, 0x60)
		types = appendVec(types, valBytes(t.params))
		types = appendVec(types, valBytes(t.results))
	}
	out = section(out, 1, len(b.types), types)

	var funcs []byte
	for _, f := range b.funcs {
		funcs = ULEB(funcs, uint64(f.typeIdx))
	}
	out = section(out, 3, len(b.funcs), funcs)

	if b.hasMem {
		out = section(out, 5, 1, ULEB([]byte{0x00}, uint64(b.memPages)))
	}

	var globals []byte
	for _, g := range b.globals {
		globals = append(globals, byte(g.typ), 0x00)
		globals = append(globals, g.init...)
		globals = append(globals, OpEnd)
	}
	out = section(out, 6, len(b.globals), globals)

	var exports []byte
	for _, e := range b.exports {
		exports = appendVec(exports, []byte(e.name))
		exports = append(exports, e.kind)
		exports = ULEB(exports, uint64(e.index))
	}
	out = section(out, 7, len(b.exports), exports)

	var code []byte
	for _, f := range b.funcs {
		body := append([]byte{0x00}, f.body...)
		body = append(body, OpEnd)
		code = appendVec(code, body)
	}
	out = section(out, 10, len(b.funcs), code)

	var data []byte
	for _, s := range b.data {
		data = append(data, 0x00)
		data = append(data, I32Const(int32(s.offset))...)
		data = append(data, OpEnd)
		data = appendVec(data, s.data)
	}
	return section(out, 11, len(b.data), data)
}

func section(out []byte, id byte, count int, contents []byte) []byte {
	if count == 0 {
		return out
	}
	payload := ULEB(nil, uint64(count))
	payload = append(payload, contents...)
	out = append(out, id)
	out = ULEB(out, uint64(len(payload)))
	return append(out, payload...)
}

func appendVec(out, items []byte) []byte {
	out = ULEB(out, uint64(len(items)))
	return append(out, items...)
}

func valBytes(ts []ValType) []byte {
	out := make([]byte, len(ts))
	for i, t := range ts {
		out[i] = byte(t)
	}
	return out
}

// ULEB appends v as unsigned LEB128.
func ULEB(out []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, c)
		}
		out = append(out, c|0x80)
	}
}

// SLEB appends v as signed LEB128.
func SLEB(out []byte, v int64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			return append(out, c)
		}
		out = append(out, c|0x80)
	}
}

// LocalGet reads parameter or local i.
func LocalGet(i uint32) []byte {
	return ULEB([]byte{OpLocalGet}, uint64(i))
}

func I32Const(v int32) []byte {
	return SLEB([]byte{OpI32Const}, int64(v))
}

// F64Bits pushes the f64 with exactly the given bit pattern.
func F64Bits(bits uint64) []byte {
	return binary.LittleEndian.AppendUint64([]byte{OpF64Const}, bits)
}

func F64Const(f float64) []byte {
	return F64Bits(math.Float64bits(f))
}

// IfF64 selects between two f64 producing sequences on the i32 on the stack.
func IfF64(then, otherwise []byte) []byte {
	out := append([]byte{OpIf, byte(F64)}, then...)
	out = append(out, OpElse)
	out = append(out, otherwise...)
	return append(out, OpEnd)
}

// Concat joins instruction sequences.
func Concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
