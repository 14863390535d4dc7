package abi

import "github.com/wippyai/wasm-tojs/typeinfo"

// Scalars up to 32 bits and both float widths are widened numerically.
// The 64-bit integers are bit-reinterpreted because a numeric cast would
// lose precision; they therefore have no niche.

type (
	Bool bool
	U8   uint8
	I8   int8
	U16  uint16
	I16  int16
	U32  uint32
	I32  int32
	F32  float32
	F64  float64
	U64  uint64
	I64  int64

	// Pointer is a 32-bit linear memory address.
	Pointer uint32

	// Void is the unit return value.
	Void struct{}
)

func (b Bool) Encode(*Arena) Value {
	if b {
		return Numeric(1)
	}
	return Numeric(0)
}

func (Bool) Descriptor() typeinfo.Descriptor {
	return typeinfo.Base(typeinfo.None, typeinfo.Bool, false)
}

func (Bool) Niche() Niche { return NicheHighBitsNaN }

func (x U8) Encode(*Arena) Value { return Numeric(float64(x)) }
func (U8) Descriptor() typeinfo.Descriptor { return identity(typeinfo.U8) }
func (U8) Niche() Niche { return NicheHighBitsNaN }
func (x I8) Encode(*Arena) Value { return Numeric(float64(x)) }
func (I8) Descriptor() typeinfo.Descriptor { return identity(typeinfo.I8) }
func (I8) Niche() Niche { return NicheHighBitsNaN }
func (x U16) Encode(*Arena) Value { return Numeric(float64(x)) }
func (U16) Descriptor() typeinfo.Descriptor { return identity(typeinfo.U16) }
func (U16) Niche() Niche { return NicheHighBitsNaN }
func (x I16) Encode(*Arena) Value { return Numeric(float64(x)) }
func (I16) Descriptor() typeinfo.Descriptor { return identity(typeinfo.I16) }
func (I16) Niche() Niche { return NicheHighBitsNaN }
func (x U32) Encode(*Arena) Value { return Numeric(float64(x)) }
func (U32) Descriptor() typeinfo.Descriptor { return identity(typeinfo.U32) }
func (U32) Niche() Niche { return NicheHighBitsNaN }
func (x I32) Encode(*Arena) Value { return Numeric(float64(x)) }
func (I32) Descriptor() typeinfo.Descriptor { return identity(typeinfo.I32) }
func (I32) Niche() Niche { return NicheHighBitsNaN }
func (x F32) Encode(*Arena) Value { return Numeric(float64(x)) }
func (F32) Descriptor() typeinfo.Descriptor { return identity(typeinfo.F32) }
func (F32) Niche() Niche { return NicheHighBitsNaN }
func (x F64) Encode(*Arena) Value { return Numeric(float64(x)) }
func (F64) Descriptor() typeinfo.Descriptor { return identity(typeinfo.F64) }
func (F64) Niche() Niche { return NicheHighBitsNaN }
func (x Pointer) Encode(*Arena) Value { return Numeric(float64(x)) }
func (Pointer) Descriptor() typeinfo.Descriptor { return identity(typeinfo.None) }
func (Pointer) Niche() Niche { return NicheHighBitsNaN }

func (x U64) Encode(*Arena) Value { return Reinterpret(uint64(x)) }

func (U64) Descriptor() typeinfo.Descriptor {
	return typeinfo.Base(typeinfo.U64, typeinfo.AsU64, false)
}

func (x I64) Encode(a *Arena) Value { return U64(uint64(x)).Encode(a) }

func (I64) Descriptor() typeinfo.Descriptor {
	return typeinfo.Base(typeinfo.I64, typeinfo.AsI64, false)
}

func (Void) Encode(*Arena) Value { return Numeric(0) }

func (Void) Descriptor() typeinfo.Descriptor {
	return typeinfo.Base(typeinfo.None, typeinfo.Void, false)
}

func (Void) Niche() Niche { return NicheHighBitsNaN }

func identity(k typeinfo.ElementKind) typeinfo.Descriptor {
	return typeinfo.Base(k, typeinfo.Identity, false)
}
