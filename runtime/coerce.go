package runtime

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-tojs/errors"
)

// param describes how one argument is lowered to its core value.
type param struct {
	name   string
	core   api.ValueType
	bits   int
	signed bool
	// loose accepts both the signed and the unsigned range of bits. Used
	// when no WIT type says which one the guest expects.
	loose   bool
	float   bool
	boolean bool
	char    bool
}

func newParam(name string, core api.ValueType, t wit.Type) param {
	p := param{name: name, core: core}
	switch t.(type) {
	case wit.Bool:
		p.bits, p.boolean = 1, true
	case wit.U8:
		p.bits = 8
	case wit.S8:
		p.bits, p.signed = 8, true
	case wit.U16:
		p.bits = 16
	case wit.S16:
		p.bits, p.signed = 16, true
	case wit.U32:
		p.bits = 32
	case wit.S32:
		p.bits, p.signed = 32, true
	case wit.U64:
		p.bits = 64
	case wit.S64:
		p.bits, p.signed = 64, true
	case wit.F32:
		p.bits, p.float = 32, true
	case wit.F64:
		p.bits, p.float = 64, true
	case wit.Char:
		p.bits, p.char = 32, true
	default:
		switch core {
		case api.ValueTypeI32:
			p.bits, p.signed, p.loose = 32, true, true
		case api.ValueTypeI64:
			p.bits, p.signed, p.loose = 64, true, true
		case api.ValueTypeF32:
			p.bits, p.float = 32, true
		default:
			p.bits, p.float = 64, true
		}
	}
	return p
}

// coreType returns the core value type a scalar WIT type lowers to.
func coreType(t wit.Type) (api.ValueType, bool) {
	switch t.(type) {
	case wit.Bool, wit.U8, wit.S8, wit.U16, wit.S16, wit.U32, wit.S32, wit.Char:
		return api.ValueTypeI32, true
	case wit.U64, wit.S64:
		return api.ValueTypeI64, true
	case wit.F32:
		return api.ValueTypeF32, true
	case wit.F64:
		return api.ValueTypeF64, true
	}
	return 0, false
}

// WITTypeName renders a scalar WIT type as it is spelled in WIT.
func WITTypeName(t wit.Type) string {
	switch t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	}
	return fmt.Sprintf("%T", t)
}

// lower converts a Go value, or a string to be parsed, to the raw core value.
func (p param) lower(fn string, arg any) (uint64, error) {
	rv := reflect.ValueOf(arg)
	switch rv.Kind() {
	case reflect.String:
		return p.parse(fn, rv.String())
	case reflect.Bool:
		if p.float {
			return 0, p.mismatch(fn, arg)
		}
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return p.fromInt(fn, rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return p.fromUint(fn, rv.Uint())
	case reflect.Float32, reflect.Float64:
		return p.fromFloat(fn, rv.Float())
	}
	return 0, p.mismatch(fn, arg)
}

func (p param) parse(fn, s string) (uint64, error) {
	switch {
	case p.boolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return 0, p.invalid(fn, s, err)
		}
		return p.lower(fn, b)
	case p.char:
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError || size != len(s) {
			return 0, p.invalid(fn, s, nil)
		}
		return uint64(r), nil
	case p.float:
		f, err := strconv.ParseFloat(s, p.bits)
		if err != nil {
			return 0, p.invalid(fn, s, err)
		}
		return p.fromFloat(fn, f)
	}

	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return p.fromInt(fn, n)
	}
	u, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, p.invalid(fn, s, err)
	}
	return p.fromUint(fn, u)
}

func (p param) fromInt(fn string, v int64) (uint64, error) {
	if p.float {
		return p.encodeFloat(float64(v)), nil
	}
	if v >= 0 {
		return p.fromUint(fn, uint64(v))
	}
	if p.boolean || p.char || (!p.signed && !p.loose) {
		return 0, errors.Overflow(errors.PhaseCall, []string{fn, p.name}, v, p.target())
	}
	if p.bits < 64 && v < -(1<<(p.bits-1)) {
		return 0, errors.Overflow(errors.PhaseCall, []string{fn, p.name}, v, p.target())
	}
	return p.encodeInt(uint64(v)), nil
}

func (p param) fromUint(fn string, u uint64) (uint64, error) {
	if p.float {
		return p.encodeFloat(float64(u)), nil
	}
	limit := uint64(math.MaxUint64)
	switch {
	case p.boolean:
		limit = 1
	case p.char:
		limit = utf8.MaxRune
	case p.signed && !p.loose:
		limit = 1<<(p.bits-1) - 1
	case p.bits < 64:
		limit = 1<<p.bits - 1
	}
	if u > limit {
		return 0, errors.Overflow(errors.PhaseCall, []string{fn, p.name}, u, p.target())
	}
	return p.encodeInt(u), nil
}

func (p param) fromFloat(fn string, f float64) (uint64, error) {
	if p.float {
		return p.encodeFloat(f), nil
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, p.mismatch(fn, f)
	}
	if f < 0 {
		if f < math.MinInt64 {
			return 0, errors.Overflow(errors.PhaseCall, []string{fn, p.name}, f, p.target())
		}
		return p.fromInt(fn, int64(f))
	}
	if f >= math.MaxUint64 {
		return 0, errors.Overflow(errors.PhaseCall, []string{fn, p.name}, f, p.target())
	}
	return p.fromUint(fn, uint64(f))
}

func (p param) encodeInt(v uint64) uint64 {
	if p.core == api.ValueTypeI32 {
		return uint64(uint32(v))
	}
	return v
}

func (p param) encodeFloat(f float64) uint64 {
	if p.core == api.ValueTypeF32 {
		return api.EncodeF32(float32(f))
	}
	return api.EncodeF64(f)
}

func (p param) target() string {
	switch {
	case p.boolean:
		return "bool"
	case p.char:
		return "char"
	case p.float:
		return fmt.Sprintf("f%d", p.bits)
	case p.loose:
		return api.ValueTypeName(p.core)
	case p.signed:
		return fmt.Sprintf("s%d", p.bits)
	}
	return fmt.Sprintf("u%d", p.bits)
}

func (p param) mismatch(fn string, arg any) error {
	return errors.TypeMismatch(errors.PhaseCall, []string{fn, p.name}, fmt.Sprintf("%T", arg), p.target())
}

func (p param) invalid(fn, s string, cause error) error {
	return errors.New(errors.PhaseCall, errors.KindInvalidInput).
		Path(fn, p.name).
		Value(s).
		Detail("cannot parse %q as %s", s, p.target()).
		Cause(cause).
		Build()
}

func apiTypeName(vt api.ValueType) string {
	return api.ValueTypeName(vt)
}
