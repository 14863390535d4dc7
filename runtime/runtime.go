package runtime

import (
	"context"
	"io"

	"github.com/wippyai/wasm-tojs/engine"
	"github.com/wippyai/wasm-tojs/errors"
)

// Options configures a Runtime. The zero value is usable.
type Options struct {
	// Stdout and Stderr receive the output of WASI guests.
	Stdout io.Writer
	Stderr io.Writer

	// MemoryLimitPages caps the memory of every instance, in 64 KiB pages.
	MemoryLimitPages uint32

	// KeepTypes makes dynamic results carry their descriptors.
	KeepTypes bool
}

type Runtime struct {
	engine *engine.WazeroEngine
	opts   Options
}

func New(ctx context.Context) (*Runtime, error) {
	return NewWithOptions(ctx, nil)
}

func NewWithOptions(ctx context.Context, opts *Options) (*Runtime, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	eng, err := engine.NewWazeroEngine(ctx, &engine.Config{MemoryLimitPages: o.MemoryLimitPages})
	if err != nil {
		return nil, errors.Load("create engine", err)
	}
	return &Runtime{engine: eng, opts: o}, nil
}

// Close releases all runtime resources.
// All instances must be closed before calling this.
func (r *Runtime) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}

// Load compiles a core WebAssembly module. witText optionally declares the
// exports' parameters, which names them and lets string arguments be parsed
// as the declared types. Result types always come from the _info_
// companions.
func (r *Runtime) Load(ctx context.Context, wasm []byte, witText string) (*Module, error) {
	wazeroModule, err := r.engine.LoadModule(ctx, wasm)
	if err != nil {
		return nil, err
	}

	m := &Module{
		runtime:      r,
		wazeroModule: wazeroModule,
		witText:      witText,
	}
	if witText != "" {
		if err := m.parseTypes(); err != nil {
			return nil, err
		}
	}
	return m, nil
}
