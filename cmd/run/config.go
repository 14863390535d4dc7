package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the optional file given with -config. Flags override it.
type Config struct {
	// WIT is the path of a WIT file declaring the exports' parameters.
	WIT              string `yaml:"wit"`
	LogLevel         string `yaml:"log_level"`
	Format           string `yaml:"format"`
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`
}

const (
	formatText = "text"
	formatYAML = "yaml"
)

func loadConfig(path string) (Config, error) {
	cfg := Config{Format: formatText}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Format {
	case formatText, formatYAML:
	default:
		return fmt.Errorf("unknown output format %q", c.Format)
	}
	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	return nil
}

// newLogger returns a development logger when verbose or a level is
// configured, and a no-op logger otherwise.
func newLogger(verbose bool, level string) (*zap.Logger, error) {
	if !verbose && level == "" {
		return zap.NewNop(), nil
	}
	zcfg := zap.NewDevelopmentConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = lvl
	}
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zcfg.Build()
}
