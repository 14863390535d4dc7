package typeinfo

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/wippyai/wasm-tojs/errors"
)

// ElementKind is the typed-array element a value is read through.
// Variant order is the wire order and is mirrored by decoders.
type ElementKind uint8

const (
	U8 ElementKind = iota
	I8
	U16
	I16
	U32
	I32
	F32
	U64
	I64
	F64
	None
)

var elementNames = [...]string{"u8", "i8", "u16", "i16", "u32", "i32", "f32", "u64", "i64", "f64", "none"}

func (k ElementKind) String() string {
	if int(k) < len(elementNames) {
		return elementNames[k]
	}
	return fmt.Sprintf("element(%d)", uint8(k))
}

// Size returns the element width in bytes, 0 for None.
func (k ElementKind) Size() uint32 {
	switch k {
	case U8, I8:
		return 1
	case U16, I16:
		return 2
	case U32, I32, F32:
		return 4
	case U64, I64, F64:
		return 8
	}
	return 0
}

// Transform is applied by the caller after the base interpretation.
// Packed transforms share discriminants with the element kind of their lanes.
type Transform uint8

const (
	U8Octet    = Transform(U8)
	I8Octet    = Transform(I8)
	U16Quartet = Transform(U16)
	I16Quartet = Transform(I16)
	U32Pair    = Transform(U32)
	I32Pair    = Transform(I32)
	F32Pair    = Transform(F32)
	AsU64      = Transform(U64)
	AsI64      = Transform(I64)
)

const (
	Identity Transform = iota + Transform(F64)
	Void
	Bool
	String
	JSON
	Dynamic
	DynamicArray
	DynamicObject

	transformCount
)

var transformNames = [...]string{
	"u8x8", "i8x8", "u16x4", "i16x4", "u32x2", "i32x2", "f32x2", "u64", "i64",
	"identity", "void", "bool", "string", "json", "dynamic", "dynamic[]", "object",
}

func (t Transform) String() string {
	if int(t) < len(transformNames) {
		return transformNames[t]
	}
	return fmt.Sprintf("transform(%d)", uint8(t))
}

// Packed reports whether t is one of the seven packed tuple transforms.
func (t Transform) Packed() bool {
	return t <= F32Pair
}

// Lane returns the element kind of a packed tuple lane.
func (t Transform) Lane() ElementKind {
	if !t.Packed() {
		return None
	}
	return ElementKind(t)
}

// Descriptor describes how to decode one encoded value.
type Descriptor struct {
	Element   ElementKind
	Transform Transform
	IsArray   bool
	IsOption  bool
	IsResult  bool
}

// Base constructs the unmodified descriptor of a concrete type.
// Panics if isArray is set for an element kind of None.
func Base(element ElementKind, transform Transform, isArray bool) Descriptor {
	if isArray && element == None {
		panic("typeinfo: array descriptor requires an element kind")
	}
	return Descriptor{
		Element:   element,
		Transform: transform,
		IsArray:   isArray,
	}
}

// Array marks d as a homogeneous array of its element kind.
func (d Descriptor) Array() Descriptor {
	if d.Element == None {
		panic("typeinfo: cannot make an array of element kind none")
	}
	if d.IsArray {
		panic("typeinfo: array flag applied twice")
	}
	d.IsArray = true
	return d
}

// Option marks d as possibly absent.
func (d Descriptor) Option() Descriptor {
	if d.IsOption {
		panic("typeinfo: option flag applied twice")
	}
	d.IsOption = true
	return d
}

// Result marks d as fallible.
func (d Descriptor) Result() Descriptor {
	if d.IsResult {
		panic("typeinfo: result flag applied twice")
	}
	d.IsResult = true
	return d
}

// WithTransform returns d with its transform replaced.
func (d Descriptor) WithTransform(t Transform) Descriptor {
	d.Transform = t
	return d
}

// Octet lays d out as [result, option, array, element, transform, 0, 0, 0].
func (d Descriptor) Octet() [8]byte {
	return [8]byte{
		b2u(d.IsResult),
		b2u(d.IsOption),
		b2u(d.IsArray),
		byte(d.Element),
		byte(d.Transform),
	}
}

// Bits returns the octet as the little-endian 64-bit payload of its float.
func (d Descriptor) Bits() uint64 {
	o := d.Octet()
	return binary.LittleEndian.Uint64(o[:])
}

func b2u(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// FromOctet parses and validates a descriptor octet.
func FromOctet(o [8]byte) (Descriptor, error) {
	for i := 0; i < 3; i++ {
		if o[i] > 1 {
			return Descriptor{}, errors.InvalidDescriptor(o, fmt.Sprintf("flag byte %d is not 0 or 1", i))
		}
	}
	if o[3] > byte(None) {
		return Descriptor{}, errors.InvalidDescriptor(o, "unknown element kind")
	}
	if o[4] >= byte(transformCount) {
		return Descriptor{}, errors.InvalidDescriptor(o, "unknown transform")
	}
	if o[5] != 0 || o[6] != 0 || o[7] != 0 {
		return Descriptor{}, errors.InvalidDescriptor(o, "reserved bytes must be zero")
	}
	d := Descriptor{
		IsResult:  o[0] == 1,
		IsOption:  o[1] == 1,
		IsArray:   o[2] == 1,
		Element:   ElementKind(o[3]),
		Transform: Transform(o[4]),
	}
	if d.IsArray && d.Element == None {
		return Descriptor{}, errors.InvalidDescriptor(o, "array of element kind none")
	}
	return d, nil
}

// FromBits parses the 64-bit payload returned by an _info_ companion.
func FromBits(bits uint64) (Descriptor, error) {
	var o [8]byte
	binary.LittleEndian.PutUint64(o[:], bits)
	return FromOctet(o)
}

// FromFloat64 parses the float returned by an _info_ companion.
func FromFloat64(f float64) (Descriptor, error) {
	return FromBits(math.Float64bits(f))
}

// String renders d as a readable type, e.g. result<option<string>>.
func (d Descriptor) String() string {
	var base string
	switch {
	case d.Transform == Identity && d.IsArray:
		base = "[]" + d.Element.String()
	case d.Transform == Identity && d.Element == None:
		base = "pointer"
	case d.Transform == Identity:
		base = d.Element.String()
	default:
		base = d.Transform.String()
	}

	var b strings.Builder
	if d.IsResult {
		b.WriteString("result<")
	}
	if d.IsOption {
		b.WriteString("option<")
	}
	b.WriteString(base)
	if d.IsOption {
		b.WriteByte('>')
	}
	if d.IsResult {
		b.WriteByte('>')
	}
	return b.String()
}
