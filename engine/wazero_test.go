package engine

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/wippyai/wasm-tojs/errors"
	"github.com/wippyai/wasm-tojs/internal/wasmgen"
	"github.com/wippyai/wasm-tojs/typeinfo"
)

var u32Info = typeinfo.Base(typeinfo.U32, typeinfo.Identity, false)

// areaModule exports area(w, h) = w*h as f64, its companion, an i32
// helper and a string blob.
func areaModule() []byte {
	record := binary.LittleEndian.AppendUint32(nil, 64)
	record = binary.LittleEndian.AppendUint32(record, 5)

	return wasmgen.New().
		Memory(1).
		Func("area", []wasmgen.ValType{wasmgen.I32, wasmgen.I32}, []wasmgen.ValType{wasmgen.F64},
			wasmgen.Concat(
				wasmgen.LocalGet(0),
				wasmgen.LocalGet(1),
				[]byte{wasmgen.OpI32Mul, wasmgen.OpF64ConvertI32U},
			)...).
		Const("area_info_", u32Info.Bits()).
		Func("count", nil, []wasmgen.ValType{wasmgen.I32}, wasmgen.I32Const(3)...).
		Func("crash", nil, []wasmgen.ValType{wasmgen.F64}, 0x00).
		Const("bad_info_", 0x02).
		Const("bad", 0).
		Const(BlobExport, 5<<32|64).
		GlobalI32("JS_RECORD", 16).
		Data(16, record).
		Data(64, []byte("hello")).
		Bytes()
}

func newTestInstance(t *testing.T) (*WazeroModule, *WazeroInstance) {
	t.Helper()
	ctx := context.Background()

	eng, err := NewWazeroEngine(ctx, nil)
	if err != nil {
		t.Fatalf("NewWazeroEngine: %v", err)
	}
	t.Cleanup(func() { eng.Close(ctx) })

	mod, err := eng.LoadModule(ctx, areaModule())
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	inst, err := mod.Instantiate(ctx, nil)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	t.Cleanup(func() { inst.Close(ctx) })
	return mod, inst
}

func TestNewWazeroEngine(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		cfg  *Config
		name string
	}{
		{nil, "nil config"},
		{&Config{}, "default config"},
		{&Config{MemoryLimitPages: 256}, "16MB limit"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng, err := NewWazeroEngine(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("NewWazeroEngine failed: %v", err)
			}
			defer eng.Close(ctx)

			if eng.runtime == nil {
				t.Error("engine runtime should not be nil")
			}
		})
	}
}

func TestLoadModule_InvalidBytes(t *testing.T) {
	ctx := context.Background()
	eng, err := NewWazeroEngine(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close(ctx)

	_, err = eng.LoadModule(ctx, []byte("not wasm"))
	var e *errors.Error
	if !asError(err, &e) || e.Phase != errors.PhaseLoad {
		t.Errorf("LoadModule error = %v, want load phase error", err)
	}
}

func TestFunctions(t *testing.T) {
	mod, _ := newTestInstance(t)

	fns := mod.Functions()
	names := make([]string, len(fns))
	for i, f := range fns {
		names[i] = f.Name
	}
	want := []string{"area", "bad", "crash"}
	if len(names) != len(want) {
		t.Fatalf("Functions() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Functions() = %v, want %v", names, want)
		}
	}

	area, ok := mod.Function("area")
	if !ok || !area.HasInfo() || len(area.Params) != 2 {
		t.Errorf("Function(area) = %+v, %v", area, ok)
	}
	if crash, _ := mod.Function("crash"); crash.HasInfo() {
		t.Error("crash reported a companion")
	}
	if mod.ImportsWASI() {
		t.Error("module reported a WASI import")
	}
}

func TestCall(t *testing.T) {
	_, inst := newTestInstance(t)
	ctx := context.Background()

	bits, err := inst.Call(ctx, "area", 3, 4)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got := math.Float64frombits(bits); got != 12 {
		t.Errorf("area(3, 4) = %v, want 12", got)
	}
}

func TestCall_Errors(t *testing.T) {
	_, inst := newTestInstance(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		export string
		params []uint64
		kind   errors.Kind
	}{
		{"missing", "nope", nil, errors.KindNotFound},
		{"arity", "area", []uint64{1}, errors.KindArity},
		{"trap", "crash", nil, errors.KindTrap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inst.Call(ctx, tt.export, tt.params...)
			var e *errors.Error
			if !asError(err, &e) || e.Kind != tt.kind {
				t.Errorf("Call error = %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	_, inst := newTestInstance(t)
	ctx := context.Background()

	d, err := inst.Info(ctx, "area")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if d != u32Info {
		t.Errorf("Info(area) = %v, want u32", d)
	}

	_, err = inst.Info(ctx, "bad")
	var e *errors.Error
	if !asError(err, &e) || e.Kind != errors.KindInvalidDescriptor {
		t.Errorf("Info(bad) error = %v", err)
	}
}

func TestReadBlob(t *testing.T) {
	_, inst := newTestInstance(t)
	ctx := context.Background()

	for _, name := range []string{BlobExport, "JS_RECORD"} {
		t.Run(name, func(t *testing.T) {
			data, err := inst.ReadBlob(ctx, name)
			if err != nil {
				t.Fatalf("ReadBlob: %v", err)
			}
			if string(data) != "hello" {
				t.Errorf("ReadBlob = %q, want hello", data)
			}
		})
	}

	if _, err := inst.ReadBlob(ctx, "missing"); err == nil {
		t.Error("ReadBlob(missing) succeeded")
	}
}

func TestMemory(t *testing.T) {
	_, inst := newTestInstance(t)

	mem := inst.Memory()
	if inst.MemorySize() != 1<<16 {
		t.Errorf("MemorySize() = %d, want 65536", inst.MemorySize())
	}
	if v, err := mem.ReadU32(16); err != nil || v != 64 {
		t.Errorf("ReadU32(16) = (%d, %v), want 64", v, err)
	}
	if _, err := mem.Read(1<<16-2, 4); err == nil {
		t.Error("out of bounds read succeeded")
	}
}

func TestClose(t *testing.T) {
	_, inst := newTestInstance(t)
	ctx := context.Background()

	if err := inst.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_, err := inst.Call(ctx, "area", 1, 1)
	var e *errors.Error
	if !asError(err, &e) || e.Kind != errors.KindNotInitialized {
		t.Errorf("Call after Close = %v", err)
	}
}

func asError(err error, target **errors.Error) bool {
	e, ok := err.(*errors.Error)
	if ok {
		*target = e
	}
	return ok
}
