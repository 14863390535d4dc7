// Package errors provides structured error types for the tojs module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: value path, Go type, rendered descriptor,
// and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
//		Path("area").
//		Descriptor("u32").
//		Detail("unexpected transform %d", 12).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseDecode, path, ptr, n)
//	err := errors.Arity("area", 2, 1)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
