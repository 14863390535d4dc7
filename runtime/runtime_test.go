package runtime

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/wasm-tojs/abi"
	"github.com/wippyai/wasm-tojs/decode"
	"github.com/wippyai/wasm-tojs/errors"
	"github.com/wippyai/wasm-tojs/internal/wasmgen"
)

const guestWIT = `
package test:guest;

world guest {
	export area: func(w: u32, h: u32) -> u32;
	export maybe-name: func(ok: bool) -> option<string>;
	export parse: func(valid: bool) -> result<s32, string>;
	export mixed: func() -> list<dynamic>;
}
`

type fixture struct {
	wasm     []byte
	parseErr string
}

// newFixture assembles a guest module. Results that live in memory are
// encoded ahead of time into a simulated heap, whose image becomes the
// module's data at the same addresses.
func newFixture(t *testing.T) fixture {
	t.Helper()

	mem := abi.NewBufferHeap(1 << 16)
	region := mem.Region(abi.DefaultHeapBase, 1<<16)
	a := abi.NewArena("fixture", region)

	someName := a.Push(abi.Some(abi.String("x")))
	noName := a.Push(abi.None[abi.String]())

	_, perr := strconv.ParseInt("forty-two", 10, 32)
	parseErr := a.Push(abi.Err[abi.I32](perr))
	parseOK := a.Push(abi.Ok(abi.I32(42)))

	mixed := a.Push(abi.DynamicArray{
		abi.NewDynamic(a, abi.Bool(true)),
		abi.NewDynamic(a, abi.U32(7)),
		abi.NewDynamic(a, abi.String("seven")),
	})
	js := a.Push(abi.String(abi.DecoderSource()))

	info := func(f float64) uint64 { return math.Float64bits(f) }
	params := func(n int) []wasmgen.ValType {
		out := make([]wasmgen.ValType, n)
		for i := range out {
			out[i] = wasmgen.I32
		}
		return out
	}
	f64 := []wasmgen.ValType{wasmgen.F64}

	wasm := wasmgen.New().
		Memory(1).
		Data(region.Base(), region.Image()).
		Func("area", params(2), f64, wasmgen.Concat(
			wasmgen.LocalGet(0),
			wasmgen.LocalGet(1),
			[]byte{wasmgen.OpI32Mul, wasmgen.OpF64ConvertI32U},
		)...).
		Const("area_info_", info(abi.Info[abi.U32]())).
		Func("maybe_name", params(1), f64, wasmgen.Concat(
			wasmgen.LocalGet(0),
			wasmgen.IfF64(wasmgen.F64Bits(someName.Bits()), wasmgen.F64Bits(noName.Bits())),
		)...).
		Const("maybe_name_info_", info(abi.Info[abi.Option[abi.String]]())).
		Func("parse", params(1), f64, wasmgen.Concat(
			wasmgen.LocalGet(0),
			wasmgen.IfF64(wasmgen.F64Bits(parseOK.Bits()), wasmgen.F64Bits(parseErr.Bits())),
		)...).
		Const("parse_info_", info(abi.Info[abi.Result[abi.I32]]())).
		Const("mixed", mixed.Bits()).
		Const("mixed_info_", info(abi.Info[abi.DynamicArray]())).
		Const("raw", math.Float64bits(5)).
		Const("JS", js.Bits()).
		Bytes()

	return fixture{wasm: wasm, parseErr: perr.Error()}
}

func newTestInstance(t *testing.T, witText string, opts *Options) (*Module, *Instance) {
	t.Helper()
	ctx := context.Background()

	rt, err := NewWithOptions(ctx, opts)
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	t.Cleanup(func() { rt.Close(ctx) })

	mod, err := rt.Load(ctx, newFixture(t).wasm, witText)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	t.Cleanup(func() { inst.Close(ctx) })
	return mod, inst
}

func TestScenarioArea(t *testing.T) {
	_, inst := newTestInstance(t, "", nil)
	ctx := context.Background()

	raw, err := inst.CallRaw(ctx, "area", 3, 4)
	if err != nil {
		t.Fatalf("CallRaw: %v", err)
	}
	if got := math.Float64frombits(raw); got != 12.0 {
		t.Errorf("area(3, 4) = %v, want 12.0", got)
	}

	d, ok := inst.Descriptor("area")
	if !ok || d != abi.DescriptorOf[abi.U32]() {
		t.Errorf("Descriptor(area) = %v, %v", d, ok)
	}

	for _, args := range [][]any{{3, 4}, {uint8(3), int64(4)}, {"3", "4"}, {3.0, "0x4"}} {
		got, err := inst.Call(ctx, "area", args...)
		if err != nil || got != uint32(12) {
			t.Errorf("area(%v) = (%v, %v), want 12", args, got, err)
		}
	}
}

func TestScenarioMaybeName(t *testing.T) {
	_, inst := newTestInstance(t, guestWIT, nil)
	ctx := context.Background()

	got, err := inst.Call(ctx, "maybe_name", false)
	if err != nil || got != nil {
		t.Errorf("maybe_name(false) = (%v, %v), want no value", got, err)
	}
	got, err = inst.Call(ctx, "maybe_name", "true")
	if err != nil || got != "x" {
		t.Errorf("maybe_name(true) = (%v, %v), want %q", got, err, "x")
	}
}

func TestScenarioParse(t *testing.T) {
	fx := newFixture(t)
	_, inst := newTestInstance(t, "", nil)
	ctx := context.Background()

	_, err := inst.Call(ctx, "parse", 0)
	ge, ok := err.(*decode.GuestError)
	if !ok {
		t.Fatalf("parse(invalid) error = %v (%T), want *decode.GuestError", err, err)
	}
	if ge.Function != "parse" || ge.Message != fx.parseErr {
		t.Errorf("GuestError = %+v, want message %q", ge, fx.parseErr)
	}

	got, err := inst.Call(ctx, "parse", 1)
	if err != nil || got != int32(42) {
		t.Errorf("parse(valid) = (%v, %v), want 42", got, err)
	}
}

func TestScenarioMixed(t *testing.T) {
	_, inst := newTestInstance(t, "", &Options{KeepTypes: true})

	got, err := inst.Call(context.Background(), "mixed")
	if err != nil {
		t.Fatalf("mixed: %v", err)
	}
	want := []any{
		decode.Typed{Descriptor: abi.DescriptorOf[abi.Bool](), Value: true},
		decode.Typed{Descriptor: abi.DescriptorOf[abi.U32](), Value: uint32(7)},
		decode.Typed{Descriptor: abi.DescriptorOf[abi.String](), Value: "seven"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mixed() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoderSource(t *testing.T) {
	_, inst := newTestInstance(t, "", nil)

	src, err := inst.DecoderSource(context.Background())
	if err != nil {
		t.Fatalf("DecoderSource: %v", err)
	}
	if !bytes.Equal(src, abi.DecoderSource()) {
		t.Error("DecoderSource does not match the embedded decoder")
	}
}

func TestFunctions(t *testing.T) {
	_, inst := newTestInstance(t, guestWIT, nil)

	got := inst.Functions()
	want := []FunctionInfo{
		{Name: "area", Params: []string{"w", "h"}, Descriptor: abi.DescriptorOf[abi.U32](), Described: true},
		{Name: "maybe_name", Params: []string{"ok"}, Descriptor: abi.DescriptorOf[abi.Option[abi.String]](), Described: true},
		{Name: "mixed", Descriptor: abi.DescriptorOf[abi.DynamicArray](), Described: true},
		{Name: "parse", Params: []string{"valid"}, Descriptor: abi.DescriptorOf[abi.Result[abi.I32]](), Described: true},
		{Name: "raw"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Functions() mismatch (-want +got):\n%s", diff)
	}
}

func TestCallErrors(t *testing.T) {
	ctx := context.Background()
	_, typed := newTestInstance(t, guestWIT, nil)
	_, untyped := newTestInstance(t, "", nil)

	tests := []struct {
		name string
		inst *Instance
		fn   string
		args []any
		kind errors.Kind
	}{
		{"unknown export", untyped, "nope", nil, errors.KindNotFound},
		{"no companion", untyped, "raw", nil, errors.KindNotFound},
		{"arity", untyped, "area", []any{1}, errors.KindArity},
		{"negative u32", typed, "area", []any{-1, 1}, errors.KindOverflow},
		{"too large i32", untyped, "area", []any{uint64(1) << 33, 1}, errors.KindOverflow},
		{"bad bool", typed, "maybe_name", []any{"maybe"}, errors.KindInvalidInput},
		{"fractional", untyped, "area", []any{1.5, 1}, errors.KindTypeMismatch},
		{"unsupported arg", untyped, "area", []any{[]int{1}, 1}, errors.KindTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.inst.Call(ctx, tt.fn, tt.args...)
			e, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("error = %v (%T), want *errors.Error", err, err)
			}
			if e.Kind != tt.kind {
				t.Errorf("error = %v, want kind %s", e, tt.kind)
			}
		})
	}
}

func TestLoadRejectsMismatchedWIT(t *testing.T) {
	ctx := context.Background()
	rt, err := New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close(ctx)

	tests := []struct {
		name string
		wit  string
		kind errors.Kind
	}{
		{"core type", "area: func(w: f64, h: u32) -> u32;", errors.KindTypeMismatch},
		{"arity", "area: func(w: u32) -> u32;", errors.KindArity},
		{"no functions", "package a:b;", errors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rt.Load(ctx, newFixture(t).wasm, tt.wit)
			e, ok := err.(*errors.Error)
			if !ok || e.Kind != tt.kind {
				t.Errorf("Load error = %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestSerializedCalls(t *testing.T) {
	_, inst := newTestInstance(t, "", nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for n := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if n%2 == 0 {
				got, err := inst.Call(ctx, "maybe_name", 1)
				if err != nil || got != "x" {
					errs <- fmt.Errorf("maybe_name(1) = (%v, %v)", got, err)
				}
				return
			}
			got, err := inst.Call(ctx, "area", n, 2)
			if err != nil || got != uint32(2*n) {
				errs <- fmt.Errorf("area(%d, 2) = (%v, %v)", n, got, err)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
