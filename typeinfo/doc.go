// Package typeinfo defines the descriptor that tells a caller how to decode a
// float64 returned across the boundary.
//
// A descriptor has an element kind, a transform and three independent flags:
//
//	Field       Meaning
//	────────────────────────────────────────────────────────────
//	Element     typed-array element kind (u8..f64, none)
//	Transform   identity, packed tuple, bool, string, json, void,
//	            dynamic, dynamic array, dynamic object, u64/i64 bits
//	IsArray     value is a (pointer, length) pair of Element
//	IsOption    value may be the None sentinel
//	IsResult    value may be the Err sentinel
//
// # Wire Layout
//
// The descriptor crosses the boundary as its own float64, packed as one
// little-endian octet:
//
//	byte 0: result flag
//	byte 1: option flag
//	byte 2: array flag
//	byte 3: element kind
//	byte 4: transform
//	byte 5-7: reserved (zero)
//
// Array, Option and Result each set one flag and panic if applied twice.
package typeinfo
