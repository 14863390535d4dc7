package abi

import (
	"math"
	"testing"

	"github.com/wippyai/wasm-tojs/typeinfo"
)

func TestSentinel(t *testing.T) {
	tests := []struct {
		name    string
		niche   Niche
		payload uint32
		want    uint64
	}{
		{"high bits none", NicheHighBitsNaN, 0, 0xfff8000000000000},
		{"high bits err", NicheHighBitsNaN, 0x400, 0xfff8000000000400},
		{"low bits none", NicheLowBitsMarker, 0, 0x0000000000000001},
		{"low bits err", NicheLowBitsMarker, 0x1234, 0x0000123400000001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.niche.Sentinel(tt.payload)
			if v.Bits() != tt.want {
				t.Fatalf("Sentinel(%d) = %#016x, want %#016x", tt.payload, v.Bits(), tt.want)
			}
			payload, ok := tt.niche.Match(v)
			if !ok || payload != tt.payload {
				t.Errorf("Match() = (%d, %v), want (%d, true)", payload, ok, tt.payload)
			}
		})
	}
}

func TestHighBitsSentinelIsNaN(t *testing.T) {
	if f := NicheHighBitsNaN.Sentinel(7).Float64(); !math.IsNaN(f) {
		t.Errorf("sentinel %v is not NaN", f)
	}
}

func TestGenuineValuesAvoidNiche(t *testing.T) {
	values := []Encoder{
		U32(0), U32(math.MaxUint32), I32(-1), F64(math.Inf(-1)), F64(math.NaN()),
		F32(float32(math.Inf(1))), Bool(true), Pointer(0), Void{},
	}
	for _, v := range values {
		if _, ok := NicheHighBitsNaN.Match(v.Encode(nil)); ok {
			t.Errorf("%T(%v) encodes into the high-bits niche", v, v)
		}
	}

	buf := NewBufferHeap(1024)
	a := NewArena("test", buf.Region(16, 1024))
	for _, v := range []Encoder{String(""), String("x"), Bytes{1, 2}, Slice[float64]{1}, MustJSON(1)} {
		if _, ok := NicheLowBitsMarker.Match(a.Push(v)); ok {
			t.Errorf("%T(%v) encodes into the low-bits niche", v, v)
		}
	}
}

func TestNicheOf(t *testing.T) {
	tests := []struct {
		d    typeinfo.Descriptor
		want Niche
	}{
		{DescriptorOf[U32](), NicheHighBitsNaN},
		{DescriptorOf[Bool](), NicheHighBitsNaN},
		{DescriptorOf[Void](), NicheHighBitsNaN},
		{DescriptorOf[String](), NicheLowBitsMarker},
		{DescriptorOf[Dynamic](), NicheLowBitsMarker},
		{DescriptorOf[Option[Slice[int32]]](), NicheLowBitsMarker},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			if got := NicheOf(tt.d); got != tt.want {
				t.Errorf("NicheOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNicheMatchesType(t *testing.T) {
	check := func(name string, got, want Niche) {
		t.Helper()
		if got != want {
			t.Errorf("%s: niche %v, descriptor implies %v", name, got, want)
		}
	}
	check("String", nicheOf[String](), NicheOf(DescriptorOf[String]()))
	check("JSON", nicheOf[JSON](), NicheOf(DescriptorOf[JSON]()))
	check("DynamicObject", nicheOf[DynamicObject](), NicheOf(DescriptorOf[DynamicObject]()))
	check("F32", nicheOf[F32](), NicheOf(DescriptorOf[F32]()))
	check("Pointer", nicheOf[Pointer](), NicheOf(DescriptorOf[Pointer]()))
}
