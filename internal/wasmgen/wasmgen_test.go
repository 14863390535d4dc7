package wasmgen

import (
	"bytes"
	"testing"
)

func TestLEB(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"uleb 0", ULEB(nil, 0), []byte{0x00}},
		{"uleb 127", ULEB(nil, 127), []byte{0x7f}},
		{"uleb 128", ULEB(nil, 128), []byte{0x80, 0x01}},
		{"uleb 624485", ULEB(nil, 624485), []byte{0xe5, 0x8e, 0x26}},
		{"sleb -1", SLEB(nil, -1), []byte{0x7f}},
		{"sleb 63", SLEB(nil, 63), []byte{0x3f}},
		{"sleb 64", SLEB(nil, 64), []byte{0xc0, 0x00}},
		{"sleb -123456", SLEB(nil, -123456), []byte{0xc0, 0xbb, 0x78}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.Equal(tt.got, tt.want) {
				t.Errorf("got % x, want % x", tt.got, tt.want)
			}
		})
	}
}

func TestEmptyModule(t *testing.T) {
	want := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	if got := New().Bytes(); !bytes.Equal(got, want) {
		t.Errorf("Bytes() = % x, want % x", got, want)
	}
}

func TestTypeDeduplication(t *testing.T) {
	b := New().Const("a", 0).Const("b", 1).Func("c", []ValType{I32}, []ValType{F64}, F64Const(0)...)
	if len(b.types) != 2 {
		t.Errorf("types = %d, want 2", len(b.types))
	}
}
