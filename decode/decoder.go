package decode

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	tojs "github.com/wippyai/wasm-tojs"
	"github.com/wippyai/wasm-tojs/abi"
	"github.com/wippyai/wasm-tojs/errors"
	"github.com/wippyai/wasm-tojs/typeinfo"
)

// MaxErrorLength bounds the search for the terminator of an error string.
const MaxErrorLength = 1 << 20

// MaxDepth bounds the nesting of dynamic values. Guest memory can describe
// a dynamic array that contains itself.
const MaxDepth = 64

const cStringChunk = 256

// Decoder turns an encoded result and its descriptor into a Go value.
// Everything read from memory is copied, so results stay valid after the
// guest clears its arena.
type Decoder struct {
	mem tojs.Memory

	// KeepTypes wraps values that arrived as Dynamic in Typed.
	KeepTypes bool
}

// New creates a decoder reading heap values from mem.
func New(mem tojs.Memory) *Decoder {
	return &Decoder{mem: mem}
}

// Decode interprets bits according to d.
//
// Option None decodes to nil. Result Err decodes to a *GuestError. Arrays
// decode to Go slices of their element type, strings to string, JSON to the
// value produced by encoding/json, dynamic arrays to []any and dynamic
// objects to Object.
func (dec *Decoder) Decode(d typeinfo.Descriptor, bits uint64) (any, error) {
	return dec.decode(d, abi.Value(bits), nil, 0)
}

// DecodeFloat64 is Decode for the float an export returned.
func (dec *Decoder) DecodeFloat64(d typeinfo.Descriptor, f float64) (any, error) {
	return dec.Decode(d, math.Float64bits(f))
}

func (dec *Decoder) decode(d typeinfo.Descriptor, v abi.Value, path []string, depth int) (any, error) {
	if d.IsOption || d.IsResult {
		if payload, ok := abi.NicheOf(d).Match(v); ok {
			switch {
			case payload == 0 && d.IsOption:
				return nil, nil
			case payload != 0 && d.IsResult:
				msg, err := dec.cString(payload, path)
				if err != nil {
					return nil, err
				}
				return nil, &GuestError{Message: msg}
			}
		}
	}
	if d.IsArray {
		return dec.array(d, v, path, depth)
	}
	return dec.scalar(d, v, path)
}

func (dec *Decoder) scalar(d typeinfo.Descriptor, v abi.Value, path []string) (any, error) {
	f := v.Float64()
	switch t := d.Transform; {
	case t.Packed():
		return packed(t, v.Bits()), nil
	case t == typeinfo.AsU64:
		return v.Bits(), nil
	case t == typeinfo.AsI64:
		return int64(v.Bits()), nil
	case t == typeinfo.Void:
		return nil, nil
	case t == typeinfo.Bool:
		return f != 0, nil
	case t == typeinfo.Identity:
		switch d.Element {
		case typeinfo.U8:
			return uint8(f), nil
		case typeinfo.I8:
			return int8(f), nil
		case typeinfo.U16:
			return uint16(f), nil
		case typeinfo.I16:
			return int16(f), nil
		case typeinfo.U32, typeinfo.None:
			return uint32(f), nil
		case typeinfo.I32:
			return int32(f), nil
		case typeinfo.F32:
			return float32(f), nil
		case typeinfo.F64:
			return f, nil
		}
	}
	return nil, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
		Path(path...).
		Descriptor(d.String()).
		Detail("transform %s needs an array", d.Transform).
		Build()
}

func packed(t typeinfo.Transform, bits uint64) any {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], bits)
	switch t {
	case typeinfo.U8Octet:
		return b
	case typeinfo.I8Octet:
		var out [8]int8
		for i, x := range b {
			out[i] = int8(x)
		}
		return out
	case typeinfo.U16Quartet:
		var out [4]uint16
		for i := range out {
			out[i] = binary.LittleEndian.Uint16(b[2*i:])
		}
		return out
	case typeinfo.I16Quartet:
		var out [4]int16
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
		}
		return out
	case typeinfo.U32Pair:
		return [2]uint32{uint32(bits), uint32(bits >> 32)}
	case typeinfo.I32Pair:
		return [2]int32{int32(uint32(bits)), int32(uint32(bits >> 32))}
	default:
		return [2]float32{math.Float32frombits(uint32(bits)), math.Float32frombits(uint32(bits >> 32))}
	}
}

func (dec *Decoder) array(d typeinfo.Descriptor, v abi.Value, path []string, depth int) (any, error) {
	ptr, n := v.Halves()
	data, err := dec.read(d, ptr, n, path)
	if err != nil {
		return nil, err
	}

	switch d.Transform {
	case typeinfo.Identity:
		return elements(d.Element, data, n)
	case typeinfo.String:
		if d.Element != typeinfo.U8 {
			return nil, mismatch(d, path, "string must be a u8 array")
		}
		if !utf8.Valid(data) {
			return nil, errors.InvalidUTF8(errors.PhaseDecode, path, data)
		}
		return string(data), nil
	case typeinfo.JSON:
		if d.Element != typeinfo.U8 {
			return nil, mismatch(d, path, "json must be a u8 array")
		}
		var out any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Path(path...).
				Descriptor(d.String()).
				Detail("invalid JSON").
				Cause(err).
				Build()
		}
		return out, nil
	case typeinfo.Dynamic, typeinfo.DynamicArray, typeinfo.DynamicObject:
		if d.Element != typeinfo.F64 || n%2 != 0 {
			return nil, mismatch(d, path, "dynamic values are f64 pairs")
		}
		slots := f64Slots(data)
		switch d.Transform {
		case typeinfo.Dynamic:
			if n != 2 {
				return nil, mismatch(d, path, "dynamic value needs exactly 2 slots, got "+strconv.Itoa(int(n)))
			}
			return dec.dynamic(slots[0], slots[1], path, depth)
		case typeinfo.DynamicArray:
			return dec.dynamicArray(slots, path, depth)
		default:
			return dec.object(slots, path, depth)
		}
	}
	e := errors.Unsupported(errors.PhaseDecode, path, "transform "+d.Transform.String()+" is not valid on arrays")
	e.Descriptor = d.String()
	return nil, e
}

// read copies the n elements at ptr out of memory.
func (dec *Decoder) read(d typeinfo.Descriptor, ptr, n uint32, path []string) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if ptr == abi.LowBitsMarker {
		return nil, errors.InvalidData(errors.PhaseDecode, path, "array at the reserved marker address")
	}
	size := uint64(n) * uint64(d.Element.Size())
	if size > math.MaxUint32 || uint64(ptr)+size > math.MaxUint32+1 {
		return nil, errors.OutOfBounds(errors.PhaseDecode, path, ptr, uint32(min(size, math.MaxUint32)))
	}
	if dec.mem == nil {
		return nil, errors.NotInitialized(errors.PhaseDecode, "memory")
	}
	data, err := dec.mem.Read(ptr, uint32(size))
	if err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Path(path...).
			Descriptor(d.String()).
			Detail("read %d bytes at %d", size, ptr).
			Cause(err).
			Build()
	}
	return bytes.Clone(data), nil
}

func elements(k typeinfo.ElementKind, data []byte, n uint32) (any, error) {
	switch k {
	case typeinfo.U8:
		if data == nil {
			return []byte{}, nil
		}
		return data, nil
	case typeinfo.I8:
		return littleEndian[int8](data, n)
	case typeinfo.U16:
		return littleEndian[uint16](data, n)
	case typeinfo.I16:
		return littleEndian[int16](data, n)
	case typeinfo.U32:
		return littleEndian[uint32](data, n)
	case typeinfo.I32:
		return littleEndian[int32](data, n)
	case typeinfo.F32:
		return littleEndian[float32](data, n)
	case typeinfo.U64:
		return littleEndian[uint64](data, n)
	case typeinfo.I64:
		return littleEndian[int64](data, n)
	default:
		return littleEndian[float64](data, n)
	}
}

func littleEndian[T int8 | uint16 | int16 | uint32 | int32 | float32 | uint64 | int64 | float64](data []byte, n uint32) ([]T, error) {
	out := make([]T, n)
	if n == 0 {
		return out, nil
	}
	if _, err := binary.Decode(data, binary.LittleEndian, out); err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "decode array elements")
	}
	return out, nil
}

func f64Slots(data []byte) []uint64 {
	slots := make([]uint64, len(data)/8)
	for i := range slots {
		slots[i] = binary.LittleEndian.Uint64(data[8*i:])
	}
	return slots
}

func (dec *Decoder) dynamic(value, info uint64, path []string, depth int) (any, error) {
	if depth >= MaxDepth {
		return nil, errors.InvalidData(errors.PhaseDecode, path, "dynamic nesting too deep")
	}
	d, err := typeinfo.FromBits(info)
	if err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidDescriptor).
			Path(path...).
			Detail("dynamic value").
			Cause(err).
			Build()
	}
	out, err := dec.decode(d, abi.Value(value), path, depth+1)
	if err != nil {
		return nil, err
	}
	if dec.KeepTypes {
		return Typed{Descriptor: d, Value: out}, nil
	}
	return out, nil
}

func (dec *Decoder) dynamicArray(slots []uint64, path []string, depth int) ([]any, error) {
	out := make([]any, 0, len(slots)/2)
	for i := 0; i < len(slots); i += 2 {
		v, err := dec.dynamic(slots[i], slots[i+1], slices.Concat(path, []string{strconv.Itoa(i / 2)}), depth)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// object decodes [entry0, d0, entry1, d1, ...] where every entry is a
// dynamic [key, value] array.
func (dec *Decoder) object(slots []uint64, path []string, depth int) (Object, error) {
	entryType := typeinfo.Base(typeinfo.F64, typeinfo.DynamicArray, true)
	out := make(Object, 0, len(slots)/2)
	for i := 0; i < len(slots); i += 2 {
		fieldPath := slices.Concat(path, []string{strconv.Itoa(i / 2)})
		d, err := typeinfo.FromBits(slots[i+1])
		if err != nil || d != entryType {
			return nil, errors.InvalidData(errors.PhaseDecode, fieldPath, "object field is not a dynamic [key, value] array")
		}
		ptr, n := abi.Value(slots[i]).Halves()
		if n != 4 {
			return nil, errors.InvalidData(errors.PhaseDecode, fieldPath, "object field needs a key and a value")
		}
		data, err := dec.read(entryType, ptr, n, fieldPath)
		if err != nil {
			return nil, err
		}
		entry := f64Slots(data)

		keyType, err := typeinfo.FromBits(entry[1])
		if err != nil || keyType != typeinfo.Base(typeinfo.U8, typeinfo.String, true) {
			return nil, errors.InvalidData(errors.PhaseDecode, fieldPath, "object key is not a string")
		}
		key, err := dec.array(keyType, abi.Value(entry[0]), fieldPath, depth)
		if err != nil {
			return nil, err
		}
		value, err := dec.dynamic(entry[2], entry[3], slices.Concat(fieldPath, []string{key.(string)}), depth)
		if err != nil {
			return nil, err
		}
		out = append(out, Field{Key: key.(string), Value: value})
	}
	return out, nil
}

// cString reads the NUL-terminated message of a Result error. Invalid UTF-8
// is replaced rather than rejected, so the guest's error is never lost.
func (dec *Decoder) cString(addr uint32, path []string) (string, error) {
	if dec.mem == nil {
		return "", errors.NotInitialized(errors.PhaseDecode, "memory")
	}
	limit := uint64(addr) + MaxErrorLength
	if s, ok := dec.mem.(tojs.MemorySizer); ok {
		limit = min(limit, uint64(s.Size()))
	}

	var msg []byte
	for off := uint64(addr); ; {
		if off >= limit {
			return "", errors.InvalidData(errors.PhaseDecode, path, "unterminated error string at "+strconv.FormatUint(uint64(addr), 10))
		}
		chunk, err := dec.chunk(uint32(off), uint32(min(cStringChunk, limit-off)))
		if err != nil {
			return "", errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
				Path(path...).
				Detail("error string at %d", addr).
				Cause(err).
				Build()
		}
		if i := bytes.IndexByte(chunk, 0); i >= 0 {
			msg = append(msg, chunk[:i]...)
			break
		}
		msg = append(msg, chunk...)
		off += uint64(len(chunk))
	}
	return strings.ToValidUTF8(string(msg), string(utf8.RuneError)), nil
}

// chunk reads up to n bytes. Without a size bound it falls back to single
// bytes near the end of memory.
func (dec *Decoder) chunk(off, n uint32) ([]byte, error) {
	data, err := dec.mem.Read(off, n)
	if err == nil {
		return data, nil
	}
	b, err := dec.mem.ReadU8(off)
	if err != nil {
		return nil, err
	}
	return []byte{b}, nil
}

func mismatch(d typeinfo.Descriptor, path []string, detail string) error {
	return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
		Path(path...).
		Descriptor(d.String()).
		DetailText(detail).
		Build()
}
