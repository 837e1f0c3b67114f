package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"typeck/internal/collect"
	"typeck/internal/layout"
)

const configFileName = "typeck.toml"

const defaultMaxDiagnostics = 200

type fileConfig struct {
	Check  checkConfig  `toml:"check"`
	Target targetConfig `toml:"target"`
	Trace  traceConfig  `toml:"trace"`
}

type checkConfig struct {
	Jobs           int `toml:"jobs"`
	MaxDiagnostics int `toml:"max_diagnostics"`
}

type targetConfig struct {
	Triple       string   `toml:"triple"`
	PointerWidth int      `toml:"pointer_width"`
	Abis         []string `toml:"abis"`
}

type traceConfig struct {
	Level string `toml:"level"`
}

// projectConfig is a loaded typeck.toml with defaults applied.
type projectConfig struct {
	Path   string // empty when no file was found
	Jobs   int
	Max    int
	Target layout.Target
	Abis   []string
	Trace  string
}

func defaultConfig() projectConfig {
	return projectConfig{
		Max:    defaultMaxDiagnostics,
		Target: layout.X86_64LinuxGNU(),
		Abis:   append([]string(nil), collect.DefaultAbis...),
		Trace:  "off",
	}
}

// findConfig walks up from startDir looking for typeck.toml.
func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadConfig reads the explicit config path, or the first typeck.toml
// above input. A missing file yields the defaults.
func loadConfig(explicit, input string) (projectConfig, error) {
	path := explicit
	if path == "" {
		start := input
		if info, err := os.Stat(input); err == nil && !info.IsDir() {
			start = filepath.Dir(input)
		}
		found, ok, err := findConfig(start)
		if err != nil {
			return projectConfig{}, err
		}
		if !ok {
			return defaultConfig(), nil
		}
		path = found
	}
	return loadConfigFile(path)
}

func loadConfigFile(path string) (projectConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return projectConfig{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}

	cfg := defaultConfig()
	cfg.Path = path
	if raw.Check.Jobs < 0 {
		return projectConfig{}, fmt.Errorf("%s: [check].jobs must not be negative", path)
	}
	cfg.Jobs = raw.Check.Jobs
	if meta.IsDefined("check", "max_diagnostics") {
		cfg.Max = raw.Check.MaxDiagnostics
	}
	if meta.IsDefined("target") {
		triple := raw.Target.Triple
		if triple == "" {
			triple = cfg.Target.Triple
		}
		width := raw.Target.PointerWidth
		if width == 0 {
			width = cfg.Target.PtrSize * 8
		}
		target, err := layout.TargetFor(triple, width)
		if err != nil {
			return projectConfig{}, fmt.Errorf("%s: [target]: %w", path, err)
		}
		cfg.Target = target
		if meta.IsDefined("target", "abis") {
			cfg.Abis = raw.Target.Abis
		}
	}
	if raw.Trace.Level != "" {
		cfg.Trace = raw.Trace.Level
	}
	return cfg, nil
}
