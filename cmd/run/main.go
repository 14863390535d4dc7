package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-tojs/decode"
	"github.com/wippyai/wasm-tojs/engine"
	"github.com/wippyai/wasm-tojs/runtime"
)

type options struct {
	wasmFile    string
	witFile     string
	funcName    string
	args        string
	configPath  string
	format      string
	list        bool
	dumpJS      bool
	interactive bool
	verbose     bool
}

func main() {
	var o options
	flag.StringVar(&o.wasmFile, "wasm", "", "Path to core wasm module")
	flag.StringVar(&o.witFile, "wit", "", "WIT file declaring export parameters (optional)")
	flag.StringVar(&o.funcName, "func", "", "Function to call")
	flag.StringVar(&o.args, "args", "", "Arguments (comma-separated)")
	flag.StringVar(&o.configPath, "config", "", "YAML config file")
	flag.StringVar(&o.format, "format", "", "Result format: text or yaml")
	flag.BoolVar(&o.list, "list", false, "List exported functions and exit")
	flag.BoolVar(&o.dumpJS, "js", false, "Print the embedded JavaScript decoder and exit")
	flag.BoolVar(&o.interactive, "i", false, "Interactive mode with TUI")
	flag.BoolVar(&o.verbose, "v", false, "Debug logging")
	flag.Parse()

	if o.wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <file.wasm> -func name [-args a,b] [-wit file.wit]")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -js")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg = o.override(cfg)
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(o.verbose, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	engine.SetLogger(logger.Named("engine"))
	runtime.SetLogger(logger.Named("runtime"))

	if o.interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(o.wasmFile, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background(), os.Stdout, o, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// override applies the flags that were set on the command line.
func (o options) override(cfg Config) Config {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "wit":
			cfg.WIT = o.witFile
		case "format":
			cfg.Format = o.format
		}
	})
	return cfg
}

// session is a loaded and instantiated module.
type session struct {
	rt   *runtime.Runtime
	mod  *runtime.Module
	inst *runtime.Instance
}

func open(ctx context.Context, wasmFile string, cfg Config) (*session, error) {
	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var witText string
	if cfg.WIT != "" {
		wit, err := os.ReadFile(cfg.WIT)
		if err != nil {
			return nil, fmt.Errorf("read wit: %w", err)
		}
		witText = string(wit)
	}

	rt, err := runtime.NewWithOptions(ctx, &runtime.Options{
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		MemoryLimitPages: cfg.MemoryLimitPages,
	})
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}
	mod, err := rt.Load(ctx, data, witText)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("load module: %w", err)
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiate: %w", err)
	}
	return &session{rt: rt, mod: mod, inst: inst}, nil
}

func (s *session) Close(ctx context.Context) {
	s.inst.Close(ctx)
	s.rt.Close(ctx)
}

func run(ctx context.Context, w io.Writer, o options, cfg Config, logger *zap.Logger) error {
	s, err := open(ctx, o.wasmFile, cfg)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	switch {
	case o.dumpJS:
		src, err := s.inst.DecoderSource(ctx)
		if err != nil {
			return fmt.Errorf("read decoder: %w", err)
		}
		_, err = w.Write(src)
		return err
	case o.list || o.funcName == "":
		width := 0
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			width, _, _ = term.GetSize(int(f.Fd()))
		}
		writeListing(w, s.inst.Functions(), s.mod.DeclaredResult, width)
		return nil
	}

	var args []any
	if o.args != "" {
		for _, a := range strings.Split(o.args, ",") {
			args = append(args, strings.TrimSpace(a))
		}
	}
	logger.Debug("calling", zap.String("func", o.funcName), zap.Int("args", len(args)))

	result, err := s.inst.Call(ctx, o.funcName, args...)
	if ge, ok := err.(*decode.GuestError); ok {
		return fmt.Errorf("guest returned an error: %w", ge)
	}
	if err != nil {
		return fmt.Errorf("call %s: %w", o.funcName, err)
	}

	if cfg.Format == formatYAML {
		out, err := renderYAML(result)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}
	_, err = fmt.Fprintln(w, renderText(result))
	return err
}
