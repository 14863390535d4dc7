package abi

import (
	"encoding/binary"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/wippyai/wasm-tojs/errors"
	"github.com/wippyai/wasm-tojs/typeinfo"
)

// Dynamic is a value that carries its own descriptor. It is encoded as a
// two-element f64 array [value, descriptor] so the decoder can dispatch at
// run time.
type Dynamic struct {
	value Value
	info  Value
}

// NewDynamic encodes x into a and pairs it with its descriptor.
func NewDynamic(a *Arena, x Encoder) Dynamic {
	value := a.Push(x)
	info := a.Push(TypeInfo(x.Descriptor()))
	return Dynamic{value: value, info: info}
}

// Value returns the encoding of the wrapped value.
func (d Dynamic) Value() Value {
	return d.value
}

// Info returns the descriptor of the wrapped value.
func (d Dynamic) Info() (typeinfo.Descriptor, error) {
	return typeinfo.FromBits(d.info.Bits())
}

func (d Dynamic) Encode(a *Arena) Value {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf, d.value.Bits())
	binary.LittleEndian.PutUint64(buf[8:], d.info.Bits())
	return pair(a.Pin(buf), 2)
}

func (Dynamic) Descriptor() typeinfo.Descriptor {
	return typeinfo.Base(typeinfo.F64, typeinfo.Dynamic, true)
}

func (Dynamic) Niche() Niche { return NicheLowBitsMarker }

// DynamicArray is a heterogeneous array. It is laid out as the f64 array
// [v0, d0, v1, d1, ...] and its length counts f64 slots.
type DynamicArray []Dynamic

func (arr DynamicArray) Encode(a *Arena) Value {
	if len(arr) == 0 {
		return pair(0, 0)
	}
	buf := make([]byte, 0, 16*len(arr))
	for _, d := range arr {
		buf = binary.LittleEndian.AppendUint64(buf, d.value.Bits())
		buf = binary.LittleEndian.AppendUint64(buf, d.info.Bits())
	}
	return pair(a.Pin(buf), uint32(2*len(arr)))
}

func (DynamicArray) Descriptor() typeinfo.Descriptor {
	return typeinfo.Base(typeinfo.F64, typeinfo.DynamicArray, true)
}

func (DynamicArray) Niche() Niche { return NicheLowBitsMarker }

// Field is one key/value entry of a DynamicObject.
type Field struct {
	Key   string
	Value Dynamic
}

// NewField encodes value into a and names it.
func NewField(a *Arena, key string, value Encoder) Field {
	return Field{Key: key, Value: NewDynamic(a, value)}
}

// DynamicObject is an ordered set of fields. Each field travels as a Dynamic
// two-element array [key, value], and the object as an array of those.
type DynamicObject []Field

func (o DynamicObject) Encode(a *Arena) Value {
	entries := make(DynamicArray, len(o))
	for i, f := range o {
		entries[i] = NewDynamic(a, DynamicArray{NewDynamic(a, String(f.Key)), f.Value})
	}
	return entries.Encode(a)
}

func (DynamicObject) Descriptor() typeinfo.Descriptor {
	return typeinfo.Base(typeinfo.F64, typeinfo.DynamicObject, true)
}

func (DynamicObject) Niche() Niche { return NicheLowBitsMarker }

// FromGo converts an ordinary Go value into a Dynamic. Maps become objects
// with sorted keys. nil becomes void.
func FromGo(a *Arena, x any) (Dynamic, error) {
	return fromGo(a, x, nil)
}

func fromGo(a *Arena, x any, path []string) (Dynamic, error) {
	var enc Encoder
	switch v := x.(type) {
	case nil:
		enc = Void{}
	case Dynamic:
		return v, nil
	case Encoder:
		enc = v
	case bool:
		enc = Bool(v)
	case uint8:
		enc = U8(v)
	case int8:
		enc = I8(v)
	case uint16:
		enc = U16(v)
	case int16:
		enc = I16(v)
	case uint32:
		enc = U32(v)
	case int32:
		enc = I32(v)
	case uint64:
		enc = U64(v)
	case int64:
		enc = I64(v)
	case uint:
		enc = U64(v)
	case int:
		enc = I64(v)
	case float32:
		enc = F32(v)
	case float64:
		enc = F64(v)
	case string:
		enc = String(v)
	case []byte:
		enc = Bytes(v)
	case []int8:
		enc = Slice[int8](v)
	case []uint16:
		enc = Slice[uint16](v)
	case []int16:
		enc = Slice[int16](v)
	case []uint32:
		enc = Slice[uint32](v)
	case []int32:
		enc = Slice[int32](v)
	case []float32:
		enc = Slice[float32](v)
	case []uint64:
		enc = Slice[uint64](v)
	case []int64:
		enc = Slice[int64](v)
	case []float64:
		enc = Slice[float64](v)
	case []Field:
		enc = DynamicObject(v)
	case []any:
		arr := make(DynamicArray, len(v))
		for i, elem := range v {
			d, err := fromGo(a, elem, append(path, strconv.Itoa(i)))
			if err != nil {
				return Dynamic{}, err
			}
			arr[i] = d
		}
		enc = arr
	case map[string]any:
		obj := make(DynamicObject, 0, len(v))
		for _, key := range slices.Sorted(maps.Keys(v)) {
			d, err := fromGo(a, v[key], append(path, key))
			if err != nil {
				return Dynamic{}, err
			}
			obj = append(obj, Field{Key: key, Value: d})
		}
		enc = obj
	default:
		e := errors.Unsupported(errors.PhaseEncode, slices.Clone(path), "no dynamic encoding")
		e.GoType = fmt.Sprintf("%T", x)
		return Dynamic{}, e
	}
	return NewDynamic(a, enc), nil
}
