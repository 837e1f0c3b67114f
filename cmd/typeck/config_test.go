package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "prog.yaml")
	writeFile(t, input, "items: []\n")

	cfg, err := loadConfig("", input)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Path != "" {
		t.Skipf("found %s above the temp dir", cfg.Path)
	}
	if cfg.Max != defaultMaxDiagnostics || cfg.Target.PtrSize != 8 || cfg.Trace != "off" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigFoundAboveInput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, configFileName), `
[check]
jobs = 3
max_diagnostics = 0

[target]
triple = "i686-linux-gnu"
pointer_width = 32
abis = ["Rust", "C"]

[trace]
level = "phase"
`)
	input := filepath.Join(dir, "nested", "deeper", "prog.yaml")
	writeFile(t, input, "items: []\n")

	cfg, err := loadConfig("", input)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Path != filepath.Join(dir, configFileName) {
		t.Fatalf("config path = %q", cfg.Path)
	}
	if cfg.Jobs != 3 || cfg.Max != 0 {
		t.Fatalf("check section not applied: %+v", cfg)
	}
	if cfg.Target.Triple != "i686-linux-gnu" || cfg.Target.PtrSize != 4 || cfg.Target.PtrAlign != 4 {
		t.Fatalf("target not applied: %+v", cfg.Target)
	}
	if len(cfg.Abis) != 2 || cfg.Abis[1] != "C" {
		t.Fatalf("abis = %v", cfg.Abis)
	}
	if cfg.Trace != "phase" {
		t.Fatalf("trace level = %q", cfg.Trace)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	for name, content := range map[string]string{
		"width":   "[target]\npointer_width = 48\n",
		"unknown": "[check]\nthreads = 2\n",
		"jobs":    "[check]\njobs = -1\n",
		"syntax":  "[check\n",
	} {
		path := filepath.Join(t.TempDir(), configFileName)
		writeFile(t, path, content)
		if _, err := loadConfig(path, "."); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestTargetSectionKeepsDefaultAbis(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	writeFile(t, path, "[target]\ntriple = \"x86_64-unknown-none\"\n")
	cfg, err := loadConfig(path, ".")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Target.PtrSize != 8 || len(cfg.Abis) == 0 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
