package driver

import (
	"context"
	"os"
	"strings"
	"testing"

	"typeck/internal/diag"
	"typeck/internal/fix"
)

const placeholderProgram = `items:
  - const: X
    ty: _
    value: 5u8
  - fn: f
    ret: u8
    body: {path: X}
`

func TestApplyFixesReplacesPlaceholder(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "placeholder.yaml", placeholderProgram)
	in, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	res, err := Check(context.Background(), in, testOptions())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if n := res.Bag.Count(diag.TckPlaceholderInSignature); n != 1 {
		t.Fatalf("expected one placeholder error, got %d", n)
	}

	applied, err := ApplyFixes([]*Result{res}, fix.ApplyModeAll, false)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(applied[path].Applied) != 1 {
		t.Fatalf("expected one applied fix, got %+v", applied[path])
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(content), "ty: u8\n") {
		t.Fatalf("placeholder not replaced:\n%s", content)
	}

	in, err = Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	res, err = Check(context.Background(), in, testOptions())
	if err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if res.HasErrors() {
		t.Fatalf("fixed program still has errors: %+v", res.Bag.Items())
	}
}

func TestApplyFixesWithoutFixes(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "broken.yaml", brokenProgram)
	in, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	res, err := Check(context.Background(), in, testOptions())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	applied, err := ApplyFixes([]*Result{res}, fix.ApplyModeAll, false)
	if err != nil || len(applied) != 0 {
		t.Fatalf("expected nothing applied, got %v, %v", applied, err)
	}
}

func TestYAMLScalarQuoting(t *testing.T) {
	for in, want := range map[string]string{
		"u8":        "u8",
		"[u8; 4]":   `"[u8; 4]"`,
		"(i32, u8)": `"(i32, u8)"`,
		"&str":      `'&str'`,
	} {
		if got := yamlScalar(nil, in); got != want {
			t.Fatalf("yamlScalar(%q) = %q, want %q", in, got, want)
		}
	}
}
