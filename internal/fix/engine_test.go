package fix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"typeck/internal/diag"
	"typeck/internal/source"
)

func setupFile(t *testing.T, content string) (*source.FileSet, source.FileID, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := source.NewFileSet()
	return fs, fs.Add(path, []byte(content), 0), path
}

func replaceFix(file source.FileID, start, end uint32, old, text string) *diag.Diagnostic {
	span := source.Span{File: file, Start: start, End: end}
	return &diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.TckPlaceholderInSignature,
		Message:  "placeholder",
		Primary:  span,
		Fixes: []diag.Fix{{
			Title: "replace",
			Edits: []diag.FixEdit{{Span: span, NewText: text, OldText: old}},
		}},
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func TestApplyAllKeepsOffsets(t *testing.T) {
	fs, file, path := setupFile(t, "a: _\nb: _\n")
	diags := []*diag.Diagnostic{
		replaceFix(file, 8, 9, "_", "u32"),
		replaceFix(file, 3, 4, "_", "i64"),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 2 || len(res.FileChanges) != 1 || res.FileChanges[0].EditCount != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := readFile(t, path); got != "a: i64\nb: u32\n" {
		t.Fatalf("content = %q", got)
	}
}

func TestApplyOnceTakesFirstInSourceOrder(t *testing.T) {
	fs, file, path := setupFile(t, "a: _\nb: _\n")
	diags := []*diag.Diagnostic{
		replaceFix(file, 8, 9, "_", "u32"),
		replaceFix(file, 3, 4, "_", "i64"),
	}
	if _, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeOnce}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := readFile(t, path); got != "a: i64\nb: _\n" {
		t.Fatalf("content = %q", got)
	}
}

func TestApplyByID(t *testing.T) {
	fs, file, path := setupFile(t, "a: _\nb: _\n")
	diags := []*diag.Diagnostic{
		replaceFix(file, 3, 4, "_", "i64"),
		replaceFix(file, 8, 9, "_", "u32"),
	}
	id := diag.TckPlaceholderInSignature.ID() + "-1-8-0"
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: id})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Applied[0].ID != id {
		t.Fatalf("applied %q, want %q", res.Applied[0].ID, id)
	}
	if got := readFile(t, path); got != "a: _\nb: u32\n" {
		t.Fatalf("content = %q", got)
	}

	_, err = Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "missing"})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
}

func TestConflictingAndStaleEditsAreSkipped(t *testing.T) {
	fs, file, path := setupFile(t, "a: _\n")
	diags := []*diag.Diagnostic{
		replaceFix(file, 3, 4, "_", "i64"),
		replaceFix(file, 3, 4, "_", "u8"),
		replaceFix(file, 0, 1, "b", "c"),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 || len(res.Skipped) != 2 {
		t.Fatalf("expected 1 applied and 2 skipped, got %+v", res)
	}
	reasons := map[string]bool{}
	for _, s := range res.Skipped {
		reasons[s.Reason] = true
	}
	if !reasons["existing text does not match expected content"] {
		t.Fatalf("stale edit not reported: %+v", res.Skipped)
	}
	if got := readFile(t, path); got != "a: i64\n" {
		t.Fatalf("content = %q", got)
	}
}

func TestDryRunAndRewrite(t *testing.T) {
	fs, file, path := setupFile(t, "a: _\n")
	upper := func(_ *source.File, text string) string { return "<" + text + ">" }
	res, err := Apply(fs, []*diag.Diagnostic{replaceFix(file, 3, 4, "_", "i64")},
		ApplyOptions{Mode: ApplyModeAll, DryRun: true, Rewrite: upper})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := string(res.FileChanges[0].Content); got != "a: <i64>\n" {
		t.Fatalf("staged content = %q", got)
	}
	if got := readFile(t, path); got != "a: _\n" {
		t.Fatalf("dry run wrote the file: %q", got)
	}
}

func TestVirtualFilesAreNotTouched(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("mem.yaml", []byte("a: _\n"))
	_, err := Apply(fs, []*diag.Diagnostic{replaceFix(file, 3, 4, "_", "i64")}, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
}

func TestSpansConflict(t *testing.T) {
	edit := func(start, end uint32) diag.FixEdit {
		return diag.FixEdit{Span: source.Span{Start: start, End: end}}
	}
	cases := []struct {
		a, b diag.FixEdit
		want bool
	}{
		{edit(0, 0), edit(0, 0), false},
		{edit(2, 2), edit(1, 3), true},
		{edit(1, 3), edit(3, 3), false},
		{edit(0, 4), edit(3, 6), true},
		{edit(0, 3), edit(3, 6), false},
	}
	for i, c := range cases {
		if got := spansConflict(c.a, c.b); got != c.want {
			t.Fatalf("case %d: spansConflict = %v, want %v", i, got, c.want)
		}
	}
}
