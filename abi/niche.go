package abi

import "github.com/wippyai/wasm-tojs/typeinfo"

// Niche is the sentinel strategy of a type: where None and Err live in its
// encoding without colliding with a genuine value.
type Niche uint8

const (
	// NicheHighBitsNaN forces the high word to SentinelHigh and carries the
	// payload in the low word. Used by numeric scalars, bools, pointers and void.
	NicheHighBitsNaN Niche = iota + 1

	// NicheLowBitsMarker forces the low word to LowBitsMarker and carries the
	// payload in the high word. Used by (pointer, length) shaped values whose
	// low word is otherwise a pointer.
	NicheLowBitsMarker
)

const (
	// SentinelHigh is the reserved NaN high word of the high-bits strategy.
	SentinelHigh uint32 = 0xfff80000

	// LowBitsMarker is the reserved low word of the low-bits strategy.
	// No heap places data at address 1.
	LowBitsMarker uint32 = 1
)

// Sentinel writes payload x into the niche. Payload 0 means None, any other
// payload is the address of an error string.
func (n Niche) Sentinel(x uint32) Value {
	switch n {
	case NicheHighBitsNaN:
		return Reinterpret(uint64(SentinelHigh)<<32 | uint64(x))
	case NicheLowBitsMarker:
		return U32Pair{LowBitsMarker, x}.Encode(nil)
	}
	panic("abi: unknown niche")
}

// Match reports whether v lies in the niche and returns its payload.
func (n Niche) Match(v Value) (uint32, bool) {
	lo, hi := v.Halves()
	switch n {
	case NicheHighBitsNaN:
		return lo, hi == SentinelHigh
	case NicheLowBitsMarker:
		return hi, lo == LowBitsMarker
	}
	return 0, false
}

func (n Niche) String() string {
	switch n {
	case NicheHighBitsNaN:
		return "high-bits-nan"
	case NicheLowBitsMarker:
		return "low-bits-marker"
	}
	return "none"
}

// Nichable is implemented by exactly the types with spare encoding space.
// Option, Result and ResultOption only accept Nichable payloads, so wrapping
// a packed tuple or a 64-bit integer does not compile.
type Nichable interface {
	Encoder
	Niche() Niche
}

func nicheOf[T Nichable]() Niche {
	var zero T
	return zero.Niche()
}

// NicheOf recovers the niche of a type from its descriptor. Every
// (pointer, length) shaped type is an array and uses the low-bits marker.
func NicheOf(d typeinfo.Descriptor) Niche {
	if d.IsArray {
		return NicheLowBitsMarker
	}
	return NicheHighBitsNaN
}
