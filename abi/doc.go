// Package abi encodes the return values of exported guest functions.
//
// An export returns exactly one float64. Values are encoded into that
// float's 64 bits in one of three ways:
//
//   - Scalars up to 32 bits and floats are widened numerically.
//   - Packed tuples and 64-bit integers are reinterpreted bit for bit.
//   - Strings, slices, JSON and dynamic values are placed in memory and
//     encoded as a (pointer, length) pair, pointer in the low word.
//
// Option and Result reuse an encoding pattern that no genuine value of the
// wrapped type produces (its niche) to signal None and Err. Only types that
// implement Nichable can be wrapped.
//
// Every export f has a companion f_info_ returning the encoded descriptor of
// its result type:
//
//	//go:wasmexport maybe_name
//	func maybeName(flag uint32) float64 {
//		return abi.Call(abi.Default, func(*abi.Arena) abi.Option[abi.String] {
//			if flag == 0 {
//				return abi.None[abi.String]()
//			}
//			return abi.Some(abi.String("Ada"))
//		})
//	}
//
//	//go:wasmexport maybe_name_info_
//	func maybeNameInfo() float64 { return abi.Info[abi.Option[abi.String]]() }
//
// Memory behind a result belongs to the call arena of its Boundary and is
// released when the next call through that boundary starts. Return
// KeepAlive(b, x) for values that must outlive a call; they are released
// together by Boundary.Release, which a guest usually exports as release.
package abi
