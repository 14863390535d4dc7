package decode

import (
	"github.com/wippyai/wasm-tojs/typeinfo"
)

// GuestError is the Err variant of a Result, carrying the message the guest
// wrote into its memory.
type GuestError struct {
	Function string
	Message  string
}

func (e *GuestError) Error() string {
	if e.Function == "" {
		return e.Message
	}
	return e.Function + ": " + e.Message
}

// Field is one entry of an Object.
type Field struct {
	Key   string
	Value any
}

// Object is a decoded dynamic object. Field order is preserved.
type Object []Field

// Get returns the value of the first field named key.
func (o Object) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Map converts o to a map. Later duplicates win.
func (o Object) Map() map[string]any {
	m := make(map[string]any, len(o))
	for _, f := range o {
		m[f.Key] = f.Value
	}
	return m
}

// Typed is a dynamic value together with the descriptor it was sent with.
// It is only produced when Decoder.KeepTypes is set.
type Typed struct {
	Descriptor typeinfo.Descriptor
	Value      any
}
