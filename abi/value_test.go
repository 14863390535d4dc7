package abi

import (
	"math"
	"testing"

	"github.com/wippyai/wasm-tojs/typeinfo"
)

func TestScalarEncoding(t *testing.T) {
	tests := []struct {
		name string
		enc  Encoder
		want uint64
	}{
		{"bool true", Bool(true), math.Float64bits(1)},
		{"bool false", Bool(false), 0},
		{"u8", U8(255), math.Float64bits(255)},
		{"i8", I8(-128), math.Float64bits(-128)},
		{"u16", U16(65535), math.Float64bits(65535)},
		{"i16", I16(-2), math.Float64bits(-2)},
		{"u32 max", U32(math.MaxUint32), math.Float64bits(math.MaxUint32)},
		{"i32 min", I32(math.MinInt32), math.Float64bits(math.MinInt32)},
		{"f32", F32(1.5), math.Float64bits(1.5)},
		{"f64", F64(-0.25), math.Float64bits(-0.25)},
		{"pointer", Pointer(4096), math.Float64bits(4096)},
		{"void", Void{}, 0},
		{"u64 reinterpreted", U64(1<<63 | 5), 1<<63 | 5},
		{"i64 minus one", I64(-1), math.MaxUint64},
		{"i64 positive", I64(42), 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.enc.Encode(nil)
			if got.Bits() != tt.want {
				t.Errorf("Encode() = %#016x, want %#016x", got.Bits(), tt.want)
			}
		})
	}
}

func TestU64NaNPatternSurvives(t *testing.T) {
	// A signalling NaN pattern must come back bit for bit.
	const bits = 0x7ff0_0000_0000_0001
	v := U64(bits).Encode(nil)
	if got := math.Float64bits(v.Float64()); got != bits {
		t.Errorf("Float64 bits = %#x, want %#x", got, bits)
	}
}

func TestPackedEncoding(t *testing.T) {
	tests := []struct {
		name string
		enc  Encoder
		want uint64
	}{
		{"u8 octet", U8Octet{1, 2, 3, 4, 5, 6, 7, 8}, 0x0807060504030201},
		{"i8 octet", I8Octet{-1, 0, 0, 0, 0, 0, 0, -128}, 0x80000000000000ff},
		{"u16 quartet", U16Quartet{1, 2, 3, 4}, 0x0004000300020001},
		{"i16 quartet", I16Quartet{-1, 0, 0, 1}, 0x000100000000ffff},
		{"u32 pair", U32Pair{0xdeadbeef, 7}, 0x00000007deadbeef},
		{"i32 pair", I32Pair{-1, 2}, 0x00000002ffffffff},
		{"f32 pair", F32Pair{1, 2}, 0x400000003f800000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.enc.Encode(nil).Bits(); got != tt.want {
				t.Errorf("Encode() = %#016x, want %#016x", got, tt.want)
			}
			d := tt.enc.Descriptor()
			if !d.Transform.Packed() || d.IsArray || d.Element != typeinfo.None {
				t.Errorf("Descriptor() = %+v, want a packed transform", d)
			}
		})
	}
}

func TestHalves(t *testing.T) {
	lo, hi := pair(0x10, 0x20).Halves()
	if lo != 0x10 || hi != 0x20 {
		t.Errorf("Halves() = (%#x, %#x), want (0x10, 0x20)", lo, hi)
	}
}

func TestDescriptorOf(t *testing.T) {
	tests := []struct {
		got  typeinfo.Descriptor
		want string
	}{
		{DescriptorOf[U32](), "u32"},
		{DescriptorOf[Pointer](), "pointer"},
		{DescriptorOf[U64](), "u64"},
		{DescriptorOf[Void](), "void"},
		{DescriptorOf[String](), "string"},
		{DescriptorOf[Slice[uint16]](), "[]u16"},
		{DescriptorOf[Bytes](), "[]u8"},
		{DescriptorOf[JSON](), "json"},
		{DescriptorOf[Option[String]](), "option<string>"},
		{DescriptorOf[Result[Bool]](), "result<bool>"},
		{DescriptorOf[ResultOption[String]](), "result<option<string>>"},
		{DescriptorOf[DynamicArray](), "dynamic[]"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.got.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescriptorValue(t *testing.T) {
	d := typeinfo.Base(typeinfo.U8, typeinfo.String, true).Option()
	v := DescriptorValue(d)
	if v.Bits() != d.Bits() {
		t.Errorf("DescriptorValue bits = %#x, want %#x", v.Bits(), d.Bits())
	}
	back, err := typeinfo.FromFloat64(v.Float64())
	if err != nil {
		t.Fatalf("FromFloat64: %v", err)
	}
	if back != d {
		t.Errorf("round trip = %+v, want %+v", back, d)
	}
}
