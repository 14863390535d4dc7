// Package runtime loads core WebAssembly modules whose exports return a
// single float64 and decodes those results into Go values.
//
// Every callable export has an `<name>_info_` companion returning the
// descriptor of its result. The descriptors are read once per instance and
// drive decoding of every later call.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.Load(ctx, wasmBytes, "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	v, err := inst.Call(ctx, "maybe_name", 1)
//	fmt.Println(v) // "x"
//
// # Arguments
//
// Arguments are Go numbers, bools, or strings. Strings are parsed as the
// parameter's type, which comes from the optional WIT text passed to Load
// and otherwise from the core signature:
//
//	mod, err := rt.Load(ctx, wasmBytes, `maybe-name: func(ok: bool) -> option<string>;`)
//	v, err := inst.Call(ctx, "maybe_name", "true")
//
// Out of range arguments fail with an overflow error instead of wrapping.
//
// # Results
//
//   - option<T> decodes to nil when absent
//   - result<T> decodes its error to a *decode.GuestError
//   - dynamic values decode to plain Go values, or to decode.Typed when
//     Options.KeepTypes is set
//
// Results are copied out of guest memory before Call returns, so they stay
// valid after later calls.
//
// # Thread Safety
//
// Calls on one Instance are serialized. Use one instance per goroutine for
// parallelism.
package runtime
