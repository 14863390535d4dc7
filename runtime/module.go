package runtime

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-tojs/decode"
	"github.com/wippyai/wasm-tojs/engine"
	"github.com/wippyai/wasm-tojs/errors"
	"github.com/wippyai/wasm-tojs/typeinfo"
)

type Module struct {
	funcTypesErr  error
	runtime       *Runtime
	wazeroModule  *engine.WazeroModule
	funcTypes     map[string]*funcSignature
	witText       string
	funcTypesOnce sync.Once
}

// Instantiate starts an instance and reads the descriptor of every export
// once.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	wazeroInstance, err := m.wazeroModule.Instantiate(ctx, &engine.InstanceConfig{
		Stdout: m.runtime.opts.Stdout,
		Stderr: m.runtime.opts.Stderr,
	})
	if err != nil {
		return nil, err
	}

	descriptors := make(map[string]typeinfo.Descriptor)
	for _, fn := range m.wazeroModule.Functions() {
		if !fn.HasInfo() {
			continue
		}
		d, err := wazeroInstance.Info(ctx, fn.Name)
		if err != nil {
			wazeroInstance.Close(ctx)
			return nil, err
		}
		descriptors[fn.Name] = d
		Logger().Debug("export described", zap.String("export", fn.Name), zap.Stringer("type", d))
	}

	dec := decode.New(wazeroInstance.Memory())
	dec.KeepTypes = m.runtime.opts.KeepTypes

	return &Instance{
		module:         m,
		wazeroInstance: wazeroInstance,
		descriptors:    descriptors,
		decoder:        dec,
	}, nil
}

// Functions lists the exports that return a single float.
func (m *Module) Functions() []engine.Function {
	return m.wazeroModule.Functions()
}

// Close releases the compiled module.
func (m *Module) Close(ctx context.Context) error {
	return m.wazeroModule.Close(ctx)
}

type funcSignature struct {
	names  []string
	params []wit.Type
	result string
}

// GetFunctionTypes returns the WIT param types of a function.
// Parses witText lazily on first call.
func (m *Module) GetFunctionTypes(name string) ([]wit.Type, error) {
	if err := m.parseTypes(); err != nil {
		return nil, err
	}
	sig, ok := m.funcTypes[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseRuntime, "function", name)
	}
	return sig.params, nil
}

// DeclaredResult returns the result type text the WIT declares for a
// function, empty when there is none.
func (m *Module) DeclaredResult(name string) string {
	if m.witText == "" || m.parseTypes() != nil {
		return ""
	}
	if sig, ok := m.funcTypes[name]; ok {
		return sig.result
	}
	return ""
}

// ParamNames returns the WIT parameter names of a function, nil when no
// WIT declares it.
func (m *Module) ParamNames(name string) []string {
	if m.witText == "" || m.parseTypes() != nil {
		return nil
	}
	if sig, ok := m.funcTypes[name]; ok {
		return sig.names
	}
	return nil
}

func (m *Module) parseTypes() error {
	m.funcTypesOnce.Do(func() {
		m.funcTypes, m.funcTypesErr = parseWitFunctions(m.witText)
		if m.funcTypesErr == nil {
			m.funcTypesErr = m.checkSignatures()
		}
	})
	return m.funcTypesErr
}

// checkSignatures rejects WIT declarations that disagree with the core
// signature of an export.
func (m *Module) checkSignatures() error {
	for name, sig := range m.funcTypes {
		fn, ok := m.wazeroModule.Function(name)
		if !ok {
			continue
		}
		if len(fn.Params) != len(sig.params) {
			return errors.New(errors.PhaseParse, errors.KindArity).
				Path(name).
				Detail("WIT declares %d parameters, export takes %d", len(sig.params), len(fn.Params)).
				Build()
		}
		for i, t := range sig.params {
			vt, ok := coreType(t)
			if !ok || vt != fn.Params[i] {
				return errors.New(errors.PhaseParse, errors.KindTypeMismatch).
					Path(name, sig.names[i]).
					Detail("WIT type %s does not lower to %s", WITTypeName(t), api.ValueTypeName(fn.Params[i])).
					Build()
			}
		}
	}
	return nil
}

// parseWitFunctions extracts function signatures from WIT text. Parameters
// must be scalar types.
// Pattern: [export] name: func(params) -> result;
func parseWitFunctions(witText string) (map[string]*funcSignature, error) {
	funcs := make(map[string]*funcSignature)

	funcPattern := regexp.MustCompile(`(?:export\s+)?([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?`)

	matches := funcPattern.FindAllStringSubmatch(witText, -1)
	for _, match := range matches {
		name := witToExport(match[1])
		paramsStr := strings.TrimSpace(match[2])
		resultStr := strings.TrimSpace(match[3])

		sig := &funcSignature{}
		if paramsStr != "" {
			for i, p := range splitParams(paramsStr) {
				paramName, typStr := fmt.Sprintf("arg%d", i), p
				if idx := strings.LastIndex(p, ":"); idx != -1 {
					paramName = strings.TrimSpace(p[:idx])
					typStr = strings.TrimSpace(p[idx+1:])
				}
				t, err := parseWitType(typStr)
				if err != nil {
					return nil, errors.ParseFailed("param type "+typStr, err)
				}
				sig.names = append(sig.names, paramName)
				sig.params = append(sig.params, t)
			}
		}

		// Results are documentation only; the descriptor is authoritative.
		if resultStr != "()" {
			sig.result = resultStr
		}

		funcs[name] = sig
	}

	if len(funcs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseParse, "no functions found in WIT text")
	}
	return funcs, nil
}

// witToExport maps a kebab-case WIT name to the snake_case export name.
func witToExport(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// splitParams splits parameter list, handling nested angle brackets.
func splitParams(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '(', '<':
			depth++
			current.WriteRune(ch)
		case ')', '>':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				if str := strings.TrimSpace(current.String()); str != "" {
					result = append(result, str)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}

	if str := strings.TrimSpace(current.String()); str != "" {
		result = append(result, str)
	}

	return result
}

func parseWitType(s string) (wit.Type, error) {
	s = strings.TrimSpace(s)
	return wit.ParseType(s)
}
