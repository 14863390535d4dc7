package engine

import (
	"bytes"
	"context"
	"math"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	tojs "github.com/wippyai/wasm-tojs"
	"github.com/wippyai/wasm-tojs/errors"
	"github.com/wippyai/wasm-tojs/typeinfo"
)

// WazeroInstance is a running module. It is not safe for concurrent calls:
// the guest clears its result arena at the start of every call.
type WazeroInstance struct {
	instance  api.Module
	module    *WazeroModule
	memory    *WazeroMemory
	funcCache map[string]api.Function
	cacheMu   sync.RWMutex
}

// getExportedFunction returns an exported function, caching the lookup.
func (i *WazeroInstance) getExportedFunction(name string) api.Function {
	i.cacheMu.RLock()
	fn, ok := i.funcCache[name]
	i.cacheMu.RUnlock()
	if ok {
		return fn
	}

	fn = i.instance.ExportedFunction(name)
	if fn != nil {
		i.cacheMu.Lock()
		i.funcCache[name] = fn
		i.cacheMu.Unlock()
	}
	return fn
}

// Call invokes an export with raw core values and returns its single
// result as raw bits.
func (i *WazeroInstance) Call(ctx context.Context, name string, params ...uint64) (uint64, error) {
	if i.instance == nil {
		return 0, errors.NotInitialized(errors.PhaseCall, "instance")
	}
	fn := i.getExportedFunction(name)
	if fn == nil {
		return 0, errors.NotFound(errors.PhaseCall, "export", name)
	}
	def := fn.Definition()
	if want := len(def.ParamTypes()); want != len(params) {
		return 0, errors.Arity(name, want, len(params))
	}
	if len(def.ResultTypes()) != 1 {
		return 0, errors.New(errors.PhaseCall, errors.KindTypeMismatch).
			Path(name).
			Detail("export returns %d values, want 1", len(def.ResultTypes())).
			Build()
	}

	results, err := fn.Call(ctx, params...)
	if err != nil {
		return 0, errors.Trap(name, err)
	}
	return results[0], nil
}

// Info calls the descriptor companion of name.
func (i *WazeroInstance) Info(ctx context.Context, name string) (typeinfo.Descriptor, error) {
	bits, err := i.Call(ctx, name+InfoSuffix)
	if err != nil {
		return typeinfo.Descriptor{}, err
	}
	d, err := typeinfo.FromBits(bits)
	if err != nil {
		return typeinfo.Descriptor{}, errors.New(errors.PhaseCall, errors.KindInvalidDescriptor).
			Path(name + InfoSuffix).
			Cause(err).
			Build()
	}
	return d, nil
}

// ReadBlob copies the bytes behind a (pointer, length) export. The export is
// either a function returning the pair as its float, or an i32 global holding
// the address of a two-word (pointer, length) record.
func (i *WazeroInstance) ReadBlob(ctx context.Context, name string) ([]byte, error) {
	if i.memory == nil {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "memory")
	}

	var ptr, n uint32
	switch {
	case i.getExportedFunction(name) != nil:
		bits, err := i.Call(ctx, name)
		if err != nil {
			return nil, err
		}
		ptr, n = uint32(bits), uint32(bits>>32)
	case i.instance.ExportedGlobal(name) != nil:
		g := i.instance.ExportedGlobal(name)
		if g.Type() != api.ValueTypeI32 {
			return nil, errors.New(errors.PhaseRuntime, errors.KindTypeMismatch).
				Path(name).
				Detail("global has type %s, want i32", api.ValueTypeName(g.Type())).
				Build()
		}
		record := api.DecodeU32(g.Get())
		var err error
		if ptr, err = i.memory.ReadU32(record); err != nil {
			return nil, err
		}
		if n, err = i.memory.ReadU32(record + 4); err != nil {
			return nil, err
		}
	default:
		return nil, errors.NotFound(errors.PhaseRuntime, "export", name)
	}

	data, err := i.memory.Read(ptr, n)
	if err != nil {
		return nil, err
	}
	Logger().Debug("blob read", zap.String("export", name), zap.Uint32("ptr", ptr), zap.Uint32("len", n))
	return bytes.Clone(data), nil
}

// Memory returns the instance's linear memory, nil if it exports none.
func (i *WazeroInstance) Memory() tojs.Memory {
	if i.memory == nil {
		return nil
	}
	return i.memory
}

// MemorySize returns the current linear memory size in bytes, or 0 if no memory.
func (i *WazeroInstance) MemorySize() uint32 {
	if i.memory == nil {
		return 0
	}
	return i.memory.Size()
}

func (i *WazeroInstance) Close(ctx context.Context) error {
	var err error
	if i.instance != nil {
		err = i.instance.Close(ctx)
		i.instance = nil
	}
	i.funcCache = nil
	i.memory = nil
	return err
}

// F64 is the raw form of a float argument.
func F64(f float64) uint64 {
	return math.Float64bits(f)
}
