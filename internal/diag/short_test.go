package diag

import (
	"testing"

	"typeck/internal/source"
)

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("./testdata/sample.yaml", []byte("a\nb\n"))

	diags := []*Diagnostic{
		{
			Severity: SevWarning,
			Code:     TckInfo,
			Message:  "another",
			Primary:  source.Span{File: file, Start: 2, End: 3},
		},
		{
			Severity: SevError,
			Code:     TckTypeMismatch,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: file, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{File: file, Start: 2, End: 3}, Msg: "note line"},
			},
		},
		{
			Severity: SevInfo,
			Code:     TckInfo,
			Message:  "same place",
			Primary:  source.Span{File: file, Start: 2, End: 3},
		},
	}

	want := "error TCK3001 testdata/sample.yaml:1:1 first line second\n" +
		"note TCK3001 testdata/sample.yaml:2:1 note line\n" +
		"warning TCK3000 testdata/sample.yaml:2:1 another\n" +
		"info TCK3000 testdata/sample.yaml:2:1 same place"
	if got := FormatShortDiagnostics(diags, fs, true); got != want {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", want, got)
	}

	withoutNotes := "error TCK3001 testdata/sample.yaml:1:1 first line second\n" +
		"warning TCK3000 testdata/sample.yaml:2:1 another\n" +
		"info TCK3000 testdata/sample.yaml:2:1 same place"
	if got := FormatShortDiagnostics(diags, fs, false); got != withoutNotes {
		t.Fatalf("unexpected output without notes:\n%s", got)
	}
}

func TestFormatShortDiagnosticsUnknownFile(t *testing.T) {
	d := NewError(TckAnnotationsNeeded, source.NoSpan, "type annotations needed")
	want := "error TCK3007 <unknown>:0:0 type annotations needed"
	if got := FormatShortDiagnostics([]*Diagnostic{d}, nil, false); got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
	if got := FormatShortDiagnostics(nil, nil, true); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
