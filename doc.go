// Package tojs lets a WebAssembly module return rich values through exports
// that can only carry a single float64 per call.
//
// Every exported function f is paired with a companion f_info_ that returns an
// encoded type descriptor. The descriptor tells the caller how to read the
// float64 returned by f: as a plain number, as a packed tuple, as a
// (pointer, length) pair into linear memory, as a boolean, or, for Option and
// Result types, as a value that may carry a None/Err sentinel in its niche.
//
// # Architecture Overview
//
//	tojs/              Root package with the Memory read interfaces
//	├── typeinfo/      Descriptor protocol (element kind, transform, flags)
//	├── abi/           Guest side: value encoding, niches, arena, Option/Result, Dynamic
//	├── decode/        Host side: descriptor + float64 + memory -> Go value
//	├── engine/        wazero integration
//	├── runtime/       High-level host API with decoded calls
//	├── errors/        Structured error types
//	└── cmd/run/       CLI and interactive shell
//
// # Guest Quick Start
//
// Build with GOOS=wasip1 GOARCH=wasm:
//
//	//go:wasmexport area
//	func area(w, h uint32) float64 {
//	    return abi.Call(abi.Default, func(*abi.Arena) abi.U32 { return abi.U32(w * h) })
//	}
//
//	//go:wasmexport area_info_
//	func areaInfo() float64 { return abi.Info[abi.U32]() }
//
// # Host Quick Start
//
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.Load(ctx, wasmBytes, "")
//	inst, err := mod.Instantiate(ctx)
//	defer inst.Close(ctx)
//
//	v, err := inst.Call(ctx, "area", 3, 4) // uint32(12)
//
// # Lifetime
//
// Heap-backed results live in a call-scoped arena that is cleared at the start
// of the next exported call. A host has exactly one call to copy data out.
// The boundary is not re-entrant: calls on one instance must be serialized.
package tojs
