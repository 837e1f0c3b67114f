package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"typeck/internal/diag"
	"typeck/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("dir/prog.yaml", []byte("let x = 1;\nlet y: u8 = x;\n"))
	bag := diag.NewBag(10)
	diag.ReportError(diag.BagReporter{Bag: bag}, diag.TckTypeMismatch,
		source.Span{File: id, Start: 23, End: 24}, "mismatched types: expected `u8`, found `i32`").
		WithNote(source.Span{File: id, Start: 4, End: 5}, "`x` defined here").
		WithFix("convert with `as`", diag.FixEdit{Span: source.Span{File: id, Start: 23, End: 24}, NewText: "x as u8", OldText: "x"}).
		Emit()
	return bag, fs
}

func TestPrettyPlain(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true})

	out := buf.String()
	wantLines := []string{
		"dir/prog.yaml:2:13: ERROR TCK3001: mismatched types: expected `u8`, found `i32`",
		"2 | let y: u8 = x;",
		"  |             ^",
		"dir/prog.yaml:1:5: NOTE: `x` defined here",
	}
	for _, want := range wantLines {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestPrettyBasename(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if !strings.HasPrefix(buf.String(), "prog.yaml:2:13:") {
		t.Fatalf("unexpected header: %s", buf.String())
	}
	if strings.Contains(buf.String(), "NOTE") {
		t.Fatalf("notes must be hidden unless requested")
	}
}

func TestPrettyFixes(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowFixes: true})
	out := buf.String()
	for _, want := range []string{"help: convert with `as`", `dir/prog.yaml:2:13: "x" -> "x as u8"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestJSON(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true}); err != nil {
		t.Fatalf("json: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 || out.Diagnostics[0].Code != "TCK3001" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out.Diagnostics[0].Location.StartLine != 2 || len(out.Diagnostics[0].Notes) != 1 {
		t.Fatalf("unexpected location/notes: %+v", out.Diagnostics[0])
	}
	if out.Errors != 1 {
		t.Fatalf("expected 1 error, got %d", out.Errors)
	}
	fixes := out.Diagnostics[0].Fixes
	if len(fixes) != 1 || fixes[0].Edits[0].NewText != "x as u8" || fixes[0].Edits[0].OldText != "x" {
		t.Fatalf("unexpected fixes: %+v", fixes)
	}
}

func TestJSONHidesNotesAndFixes(t *testing.T) {
	bag, fs := sampleBag(t)
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{})
	if len(out.Diagnostics[0].Notes) != 0 || len(out.Diagnostics[0].Fixes) != 0 {
		t.Fatalf("notes and fixes must be opt-in: %+v", out.Diagnostics[0])
	}
}
