package abi

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-tojs/typeinfo"
)

// MetaError replaces error messages that cannot be carried as a
// NUL-terminated string.
const MetaError = "Meta-error: The original error string contained a NUL byte."

// Option is a value that may be absent. None is the niche sentinel with
// payload 0.
type Option[T Nichable] struct {
	value T
	ok    bool
}

func Some[T Nichable](x T) Option[T] {
	return Option[T]{value: x, ok: true}
}

func None[T Nichable]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Option[T]) Encode(a *Arena) Value {
	if !o.ok {
		return nicheOf[T]().Sentinel(0)
	}
	return o.value.Encode(a)
}

func (Option[T]) Descriptor() typeinfo.Descriptor {
	return DescriptorOf[T]().Option()
}

// Result is a value or an error. The error message travels as a
// NUL-terminated string whose address is the sentinel payload.
type Result[T Nichable] struct {
	value T
	err   error
	isErr bool
}

func Ok[T Nichable](x T) Result[T] {
	return Result[T]{value: x}
}

// Err fails with err. A nil err still produces an error, with an empty
// message.
func Err[T Nichable](err error) Result[T] {
	return Result[T]{err: err, isErr: true}
}

func Errorf[T Nichable](format string, args ...any) Result[T] {
	return Err[T](fmt.Errorf(format, args...))
}

// Get returns the value and the error, if any.
func (r Result[T]) Get() (T, error) {
	if r.isErr {
		return r.value, errorOrEmpty(r.err)
	}
	return r.value, nil
}

func (r Result[T]) Encode(a *Arena) Value {
	if r.isErr {
		return nicheOf[T]().Sentinel(errorPayload(a, r.err))
	}
	return r.value.Encode(a)
}

func (Result[T]) Descriptor() typeinfo.Descriptor {
	return DescriptorOf[T]().Result()
}

// ResultOption is the flattened Result<Option<T>>. Option<Result<T>> has the
// same three states and the same encoding, so it is the same type.
type ResultOption[T Nichable] struct {
	value Option[T]
	err   error
	isErr bool
}

func OkSome[T Nichable](x T) ResultOption[T] {
	return ResultOption[T]{value: Some(x)}
}

func OkNone[T Nichable]() ResultOption[T] {
	return ResultOption[T]{}
}

// OkOption lifts an existing option.
func OkOption[T Nichable](o Option[T]) ResultOption[T] {
	return ResultOption[T]{value: o}
}

func ErrOption[T Nichable](err error) ResultOption[T] {
	return ResultOption[T]{err: err, isErr: true}
}

// Get returns the option and the error, if any.
func (r ResultOption[T]) Get() (Option[T], error) {
	if r.isErr {
		return Option[T]{}, errorOrEmpty(r.err)
	}
	return r.value, nil
}

func (r ResultOption[T]) Encode(a *Arena) Value {
	if r.isErr {
		return nicheOf[T]().Sentinel(errorPayload(a, r.err))
	}
	return r.value.Encode(a)
}

func (ResultOption[T]) Descriptor() typeinfo.Descriptor {
	return DescriptorOf[T]().Option().Result()
}

type emptyError struct{}

func (emptyError) Error() string { return "" }

func errorOrEmpty(err error) error {
	if err == nil {
		return emptyError{}
	}
	return err
}

// errorPayload stores the message of err in a as a C string and returns its
// address. The address is never 0, so the payload is never mistaken for None.
func errorPayload(a *Arena, err error) uint32 {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	if strings.IndexByte(msg, 0) >= 0 {
		Logger().Warn("error message contains a NUL byte, replaced",
			zap.String("message", strings.ReplaceAll(msg, "\x00", `\0`)))
		msg = MetaError
	}
	return uint32(a.Push(cString(msg)))
}

// cString is an error message pinned with a trailing NUL. It encodes as its
// address and is only ever used as a sentinel payload.
type cString string

func (s cString) Encode(a *Arena) Value {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return Value(a.Pin(buf))
}

func (cString) Descriptor() typeinfo.Descriptor {
	return typeinfo.Base(typeinfo.None, typeinfo.Identity, false)
}
