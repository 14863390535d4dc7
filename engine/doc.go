// Package engine runs modules that follow the single-float return
// convention on wazero.
//
// # Architecture
//
// The engine package provides three main types:
//
//	WazeroEngine   - Creates and manages the wazero runtime
//	WazeroModule   - A compiled module and its exported functions
//	WazeroInstance - A running instance with raw calls and memory access
//
// # Exports
//
// A module exports functions returning one f64. Each export f may have a
// companion f_info_ returning its encoded descriptor, and the module may
// export JS, the source of a JavaScript decoder, either as a function
// returning a (pointer, length) pair or as an i32 global pointing to a
// (pointer, length) record.
//
// Modules built with GOOS=wasip1 import wasi_snapshot_preview1, which the
// engine instantiates once per runtime. Reactors (modules exporting
// _initialize) are initialized on instantiation.
//
// # Thread Safety
//
// WazeroEngine and WazeroModule are safe for concurrent use.
// WazeroInstance is NOT thread-safe: a call clears the results of the
// previous one, so calls must be serialized.
//
// Most users should use the runtime package, which decodes results.
package engine
