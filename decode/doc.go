// Package decode reads the values returned by exports built with package abi.
//
// A caller obtains the descriptor of an export once, from its _info_
// companion, and decodes every result with it:
//
//	d, err := typeinfo.FromFloat64(infoResult)
//	v, err := decode.New(mem).DecodeFloat64(d, result)
//
// Decoding follows a fixed order. If the descriptor carries the option or
// result flag, the value is first checked against the niche of its type: a
// sentinel with payload 0 is None (nil) and a sentinel with any other payload
// is an Err whose message is the NUL-terminated string at that address. Then
// array values are copied out of memory and the transform is applied.
//
// Values copied out of memory do not alias it, so they remain valid after
// the guest's next call.
package decode
