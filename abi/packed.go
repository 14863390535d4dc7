package abi

import (
	"math"

	"github.com/wippyai/wasm-tojs/typeinfo"
)

// Packed tuples occupy all 64 bits, lane 0 in the least significant bits.
// They have no niche and cannot be wrapped in Option or Result.

type (
	U8Octet    [8]uint8
	I8Octet    [8]int8
	U16Quartet [4]uint16
	I16Quartet [4]int16
	U32Pair    [2]uint32
	I32Pair    [2]int32
	F32Pair    [2]float32
)

func (t U8Octet) Encode(*Arena) Value {
	var bits uint64
	for i, x := range t {
		bits |= uint64(x) << (8 * i)
	}
	return Reinterpret(bits)
}

func (t I8Octet) Encode(a *Arena) Value {
	var u U8Octet
	for i, x := range t {
		u[i] = uint8(x)
	}
	return u.Encode(a)
}

func (t U16Quartet) Encode(*Arena) Value {
	var bits uint64
	for i, x := range t {
		bits |= uint64(x) << (16 * i)
	}
	return Reinterpret(bits)
}

func (t I16Quartet) Encode(a *Arena) Value {
	var u U16Quartet
	for i, x := range t {
		u[i] = uint16(x)
	}
	return u.Encode(a)
}

func (t U32Pair) Encode(*Arena) Value {
	return pair(t[0], t[1])
}

func (t I32Pair) Encode(a *Arena) Value {
	return U32Pair{uint32(t[0]), uint32(t[1])}.Encode(a)
}

func (t F32Pair) Encode(a *Arena) Value {
	return U32Pair{math.Float32bits(t[0]), math.Float32bits(t[1])}.Encode(a)
}

func (U8Octet) Descriptor() typeinfo.Descriptor { return packed(typeinfo.U8Octet) }
func (I8Octet) Descriptor() typeinfo.Descriptor { return packed(typeinfo.I8Octet) }
func (U16Quartet) Descriptor() typeinfo.Descriptor { return packed(typeinfo.U16Quartet) }
func (I16Quartet) Descriptor() typeinfo.Descriptor { return packed(typeinfo.I16Quartet) }
func (U32Pair) Descriptor() typeinfo.Descriptor { return packed(typeinfo.U32Pair) }
func (I32Pair) Descriptor() typeinfo.Descriptor { return packed(typeinfo.I32Pair) }
func (F32Pair) Descriptor() typeinfo.Descriptor { return packed(typeinfo.F32Pair) }

func packed(t typeinfo.Transform) typeinfo.Descriptor {
	return typeinfo.Base(typeinfo.None, t, false)
}
