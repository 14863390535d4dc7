package abi

import (
	"encoding/binary"
	"encoding/json"

	"github.com/wippyai/wasm-tojs/typeinfo"
)

// Heap values are (pointer, length) pairs into memory owned by the arena.
// Length counts elements, not bytes. An empty payload encodes pointer 0.

// String is UTF-8 text.
type String string

func (s String) Encode(a *Arena) Value {
	return pair(a.Pin([]byte(s)), uint32(len(s)))
}

func (String) Descriptor() typeinfo.Descriptor {
	return typeinfo.Base(typeinfo.U8, typeinfo.String, true)
}

func (String) Niche() Niche { return NicheLowBitsMarker }

// Bytes is a byte array. The slice is pinned as is; do not modify it until
// the arena is cleared.
type Bytes []byte

func (b Bytes) Encode(a *Arena) Value {
	return pair(a.Pin(b), uint32(len(b)))
}

func (Bytes) Descriptor() typeinfo.Descriptor {
	return typeinfo.Base(typeinfo.U8, typeinfo.Identity, true)
}

func (Bytes) Niche() Niche { return NicheLowBitsMarker }

// Number lists the element types a Slice can carry.
type Number interface {
	uint8 | int8 | uint16 | int16 | uint32 | int32 | float32 | uint64 | int64 | float64
}

// Slice is a homogeneous numeric array, serialized little-endian.
type Slice[T Number] []T

func (s Slice[T]) Encode(a *Arena) Value {
	if len(s) == 0 {
		return pair(0, 0)
	}
	buf, err := binary.Append(nil, binary.LittleEndian, []T(s))
	if err != nil {
		panic("abi: " + err.Error())
	}
	return pair(a.Pin(buf), uint32(len(s)))
}

func (Slice[T]) Descriptor() typeinfo.Descriptor {
	return typeinfo.Base(elementOf[T](), typeinfo.Identity, true)
}

func (Slice[T]) Niche() Niche { return NicheLowBitsMarker }

func elementOf[T Number]() typeinfo.ElementKind {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return typeinfo.U8
	case int8:
		return typeinfo.I8
	case uint16:
		return typeinfo.U16
	case int16:
		return typeinfo.I16
	case uint32:
		return typeinfo.U32
	case int32:
		return typeinfo.I32
	case float32:
		return typeinfo.F32
	case uint64:
		return typeinfo.U64
	case int64:
		return typeinfo.I64
	default:
		return typeinfo.F64
	}
}

// JSON is a document serialized when it is built, so marshalling errors
// surface before the call returns.
type JSON struct {
	data []byte
}

// NewJSON marshals v.
func NewJSON(v any) (JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return JSON{}, err
	}
	return JSON{data: data}, nil
}

// MustJSON is like NewJSON but panics on error.
func MustJSON(v any) JSON {
	j, err := NewJSON(v)
	if err != nil {
		panic(err)
	}
	return j
}

// RawJSON wraps an already serialized document.
func RawJSON(data []byte) JSON {
	return JSON{data: data}
}

// Bytes returns the serialized document.
func (j JSON) Bytes() []byte {
	return j.data
}

func (j JSON) Encode(a *Arena) Value {
	return pair(a.Pin(j.data), uint32(len(j.data)))
}

func (JSON) Descriptor() typeinfo.Descriptor {
	return typeinfo.Base(typeinfo.U8, typeinfo.JSON, true)
}

func (JSON) Niche() Niche { return NicheLowBitsMarker }
