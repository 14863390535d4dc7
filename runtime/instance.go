package runtime

import (
	"context"
	"sync"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-tojs/decode"
	"github.com/wippyai/wasm-tojs/engine"
	"github.com/wippyai/wasm-tojs/errors"
	"github.com/wippyai/wasm-tojs/typeinfo"
)

// Instance is a running module. Calls are serialized: the guest releases
// the previous result when the next call starts, so each result is decoded
// and copied out before the next call may begin.
type Instance struct {
	module         *Module
	wazeroInstance *engine.WazeroInstance
	descriptors    map[string]typeinfo.Descriptor
	decoder        *decode.Decoder
	mu             sync.Mutex
}

// FunctionInfo describes a callable export.
type FunctionInfo struct {
	Name       string
	Params     []string
	Descriptor typeinfo.Descriptor
	// Described is false for exports without an _info_ companion.
	Described bool
}

// Functions lists the exports in name order.
func (i *Instance) Functions() []FunctionInfo {
	fns := i.module.Functions()
	out := make([]FunctionInfo, len(fns))
	for n, fn := range fns {
		d, ok := i.descriptors[fn.Name]
		params := i.module.ParamNames(fn.Name)
		if params == nil {
			for _, vt := range fn.Params {
				params = append(params, apiTypeName(vt))
			}
		}
		out[n] = FunctionInfo{Name: fn.Name, Params: params, Descriptor: d, Described: ok}
	}
	return out
}

// Descriptor returns the cached descriptor of an export.
func (i *Instance) Descriptor(name string) (typeinfo.Descriptor, bool) {
	d, ok := i.descriptors[name]
	return d, ok
}

// Call invokes an export and decodes its result. Arguments may be Go
// numbers and bools, or strings that are parsed as the parameter's type.
//
// A Result Err is returned as a *decode.GuestError.
func (i *Instance) Call(ctx context.Context, name string, args ...any) (any, error) {
	d, ok := i.descriptors[name]
	if !ok {
		if _, exists := i.module.wazeroModule.Function(name); exists {
			return nil, errors.New(errors.PhaseCall, errors.KindNotFound).
				Path(name).
				Detail("export has no %s%s companion", name, engine.InfoSuffix).
				Build()
		}
		return nil, errors.NotFound(errors.PhaseCall, "export", name)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	bits, err := i.callLocked(ctx, name, args)
	if err != nil {
		return nil, err
	}
	v, err := i.decoder.Decode(d, bits)
	if err != nil {
		return nil, annotate(err, name)
	}
	return v, nil
}

// CallRaw invokes an export and returns the bits of its result undecoded.
func (i *Instance) CallRaw(ctx context.Context, name string, args ...any) (uint64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.callLocked(ctx, name, args)
}

func (i *Instance) callLocked(ctx context.Context, name string, args []any) (uint64, error) {
	fn, ok := i.module.wazeroModule.Function(name)
	if !ok {
		return 0, errors.NotFound(errors.PhaseCall, "export", name)
	}
	if len(args) != len(fn.Params) {
		return 0, errors.Arity(name, len(fn.Params), len(args))
	}

	var types []wit.Type
	if i.module.witText != "" {
		types, _ = i.module.GetFunctionTypes(name)
	}
	names := i.module.ParamNames(name)

	params := make([]uint64, len(args))
	for n, arg := range args {
		var t wit.Type
		if n < len(types) {
			t = types[n]
		}
		pname := apiTypeName(fn.Params[n])
		if n < len(names) {
			pname = names[n]
		}
		raw, err := newParam(pname, fn.Params[n], t).lower(name, arg)
		if err != nil {
			return 0, err
		}
		params[n] = raw
	}

	bits, err := i.wazeroInstance.Call(ctx, name, params...)
	if err != nil {
		return 0, err
	}
	Logger().Debug("call", zap.String("export", name), zap.Uint64s("params", params), zap.Uint64("result", bits))
	return bits, nil
}

// Release calls the module's release export, freeing values it kept alive
// across calls. Their decoded copies stay valid.
func (i *Instance) Release(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.module.wazeroModule.Function(engine.ReleaseExport); !ok {
		return errors.NotFound(errors.PhaseCall, "export", engine.ReleaseExport)
	}
	_, err := i.callLocked(ctx, engine.ReleaseExport, nil)
	return err
}

// DecoderSource returns the JavaScript decoder embedded in the module.
func (i *Instance) DecoderSource(ctx context.Context) ([]byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.wazeroInstance.ReadBlob(ctx, engine.BlobExport)
}

func (i *Instance) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.wazeroInstance.Close(ctx)
}

// annotate prefixes decode errors with the export they came from.
func annotate(err error, name string) error {
	switch e := err.(type) {
	case *decode.GuestError:
		e.Function = name
	case *errors.Error:
		e.Path = append([]string{name}, e.Path...)
	}
	return err
}
