package engine

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-tojs/errors"
)

const (
	// InfoSuffix names the descriptor companion of an export.
	InfoSuffix = "_info_"

	// BlobExport is the export holding the embedded decoder source.
	BlobExport = "JS"

	// ReleaseExport is the export that clears the keep-alive arena.
	ReleaseExport = "release"

	wasiModule = "wasi_snapshot_preview1"
)

// WazeroEngine compiles and instantiates modules on one wazero runtime.
type WazeroEngine struct {
	runtime      wazero.Runtime
	wasiInitMu   sync.Mutex
	wasiInitDone atomic.Bool
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32
}

// NewWazeroEngine creates a new wazero-based engine. cfg may be nil.
func NewWazeroEngine(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return &WazeroEngine{runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg)}, nil
}

// LoadModule compiles a core WebAssembly module.
func (e *WazeroEngine) LoadModule(ctx context.Context, wasmBytes []byte) (*WazeroModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	m := &WazeroModule{engine: e, compiled: compiled}
	m.functions = collectFunctions(compiled.ExportedFunctions())
	for _, def := range compiled.ImportedFunctions() {
		if mod, _, _ := def.Import(); mod == wasiModule {
			m.importsWASI = true
			break
		}
	}
	_, m.reactor = compiled.ExportedFunctions()["_initialize"]

	Logger().Debug("module compiled",
		zap.Int("functions", len(m.functions)),
		zap.Bool("wasi", m.importsWASI),
		zap.Bool("reactor", m.reactor))
	return m, nil
}

func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// InitWASI instantiates the WASI singleton for this engine's runtime.
// Safe for concurrent calls from multiple modules sharing the same engine.
func (e *WazeroEngine) InitWASI(ctx context.Context) error {
	if e.wasiInitDone.Load() {
		return nil
	}

	e.wasiInitMu.Lock()
	defer e.wasiInitMu.Unlock()

	if e.wasiInitDone.Load() {
		return nil
	}
	if e.runtime.Module(wasiModule) == nil {
		if _, err := instantiateWASI(ctx, e.runtime); err != nil {
			return errors.Wrap(errors.PhaseRuntime, errors.KindInstantiation, err, "instantiate WASI")
		}
	}
	e.wasiInitDone.Store(true)
	return nil
}

// Function is an export that follows the single-float return convention.
type Function struct {
	Name   string
	Params []api.ValueType
	// Info is the name of the descriptor companion, empty if there is none.
	Info string
}

// HasInfo reports whether the export has a descriptor companion.
func (f Function) HasInfo() bool {
	return f.Info != ""
}

// collectFunctions lists exports returning a single f64, sorted by name,
// pairing each with its companion. Companions are not listed themselves.
func collectFunctions(defs map[string]api.FunctionDefinition) []Function {
	var out []Function
	for name, def := range defs {
		if strings.HasSuffix(name, InfoSuffix) || name == BlobExport {
			continue
		}
		if !returnsF64(def) {
			continue
		}
		fn := Function{Name: name, Params: def.ParamTypes()}
		if info, ok := defs[name+InfoSuffix]; ok && returnsF64(info) && len(info.ParamTypes()) == 0 {
			fn.Info = name + InfoSuffix
		}
		out = append(out, fn)
	}
	slices.SortFunc(out, func(a, b Function) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func returnsF64(def api.FunctionDefinition) bool {
	results := def.ResultTypes()
	return len(results) == 1 && results[0] == api.ValueTypeF64
}

// WazeroModule is a compiled WASM module
type WazeroModule struct {
	engine      *WazeroEngine
	compiled    wazero.CompiledModule
	functions   []Function
	importsWASI bool
	reactor     bool
}

// Functions returns the exports that return a single float, sorted by name.
func (m *WazeroModule) Functions() []Function {
	return m.functions
}

// Function looks up one export by name.
func (m *WazeroModule) Function(name string) (Function, bool) {
	i := slices.IndexFunc(m.functions, func(f Function) bool { return f.Name == name })
	if i < 0 {
		return Function{}, false
	}
	return m.functions[i], true
}

// ExportNames returns the names of all exported functions
func (m *WazeroModule) ExportNames() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ImportsWASI reports whether the module imports wasi_snapshot_preview1.
func (m *WazeroModule) ImportsWASI() bool {
	return m.importsWASI
}

// InstanceConfig holds configuration for module instantiation
type InstanceConfig struct {
	Name   string
	Stdout io.Writer
	Stderr io.Writer
	Args   []string
}

// Instantiate creates a running instance. Reactor modules have their
// _initialize export run first, command modules run nothing.
func (m *WazeroModule) Instantiate(ctx context.Context, cfg *InstanceConfig) (*WazeroInstance, error) {
	if m.importsWASI {
		if err := m.engine.InitWASI(ctx); err != nil {
			return nil, err
		}
	}

	modCfg := wazero.NewModuleConfig().WithStartFunctions()
	if m.reactor {
		modCfg = modCfg.WithStartFunctions("_initialize")
	}
	if cfg != nil {
		modCfg = modCfg.WithName(cfg.Name)
		if cfg.Stdout != nil {
			modCfg = modCfg.WithStdout(cfg.Stdout)
		}
		if cfg.Stderr != nil {
			modCfg = modCfg.WithStderr(cfg.Stderr)
		}
		if len(cfg.Args) > 0 {
			modCfg = modCfg.WithArgs(cfg.Args...)
		}
	} else {
		modCfg = modCfg.WithName("")
	}

	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modCfg)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	inst := &WazeroInstance{
		module:    m,
		instance:  mod,
		funcCache: make(map[string]api.Function),
	}
	if mem := mod.Memory(); mem != nil {
		inst.memory = &WazeroMemory{mem: mem}
	}
	return inst, nil
}

// Close releases the compiled module.
func (m *WazeroModule) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}
