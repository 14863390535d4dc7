package abi

import (
	"math"

	"github.com/wippyai/wasm-tojs/typeinfo"
)

// Value is the bit pattern of the float64 that leaves an exported call.
// Any pattern is legal, including non-canonical NaNs; compare bitwise.
type Value uint64

// Numeric encodes f by value. This is the path for every scalar up to 32 bits.
func Numeric(f float64) Value {
	return Value(math.Float64bits(f))
}

// Reinterpret encodes bits as the float64 with exactly that bit pattern.
func Reinterpret(bits uint64) Value {
	return Value(bits)
}

// Float64 returns the float handed to the boundary.
func (v Value) Float64() float64 {
	return math.Float64frombits(uint64(v))
}

// Bits returns the raw 64-bit pattern.
func (v Value) Bits() uint64 {
	return uint64(v)
}

// Halves splits v into its low and high 32-bit words.
func (v Value) Halves() (lo, hi uint32) {
	return uint32(v), uint32(v >> 32)
}

func pair(lo, hi uint32) Value {
	return Reinterpret(uint64(hi)<<32 | uint64(lo))
}

// Encoder is implemented by every type that can cross the boundary.
//
// Descriptor must not depend on the receiver's value: it is queried on the
// zero value to obtain the canonical descriptor of the type.
type Encoder interface {
	Encode(a *Arena) Value
	Descriptor() typeinfo.Descriptor
}

// DescriptorOf returns the canonical descriptor of T.
func DescriptorOf[T Encoder]() typeinfo.Descriptor {
	var zero T
	return zero.Descriptor()
}

// TypeInfo is a descriptor as an encodable value. It is what _info_ companions
// return and what Dynamic values carry next to their payload.
type TypeInfo typeinfo.Descriptor

func (i TypeInfo) Encode(a *Arena) Value {
	return U8Octet(typeinfo.Descriptor(i).Octet()).Encode(a)
}

func (TypeInfo) Descriptor() typeinfo.Descriptor {
	return typeinfo.Base(typeinfo.None, typeinfo.U8Octet, false)
}

// DescriptorValue encodes d. It never touches an arena.
func DescriptorValue(d typeinfo.Descriptor) Value {
	return TypeInfo(d).Encode(nil)
}
