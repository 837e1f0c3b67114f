package diag

import (
	"testing"

	"typeck/internal/source"
)

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	for i := range 3 {
		sp := source.Span{File: 1, Start: uint32(i), End: uint32(i + 1)}
		b.Add(NewError(TckTypeMismatch, sp, "mismatched types"))
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", b.Len())
	}
	if !b.HasErrors() {
		t.Fatalf("expected errors")
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(10)
	late := source.Span{File: 1, Start: 10, End: 12}
	early := source.Span{File: 1, Start: 1, End: 2}
	b.Add(NewError(TckUnsized, late, "size unknown"))
	b.Add(New(SevWarning, TckInfo, early, "hint"))
	b.Add(NewError(TckUnsized, late, "size unknown"))
	b.Add(NewError(TckTypeMismatch, early, "mismatched types"))

	b.Sort()
	b.Dedup()

	items := b.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items after dedup, got %d", len(items))
	}
	if items[0].Code != TckTypeMismatch || items[1].Code != TckInfo || items[2].Code != TckUnsized {
		t.Fatalf("unexpected order: %s, %s, %s", items[0].Code.ID(), items[1].Code.ID(), items[2].Code.ID())
	}
	if b.Count(TckUnsized) != 1 {
		t.Fatalf("expected one sized diagnostic")
	}
}

func TestBagMergeGrowsLimit(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(TckTypeMismatch, source.NoSpan, "a"))
	other := NewBag(2)
	other.Add(NewError(TckTypeMismatch, source.NoSpan, "b"))
	other.Add(NewError(TckTypeMismatch, source.NoSpan, "c"))
	a.Merge(other)
	if a.Len() != 3 {
		t.Fatalf("expected 3 after merge, got %d", a.Len())
	}
}

func TestReporters(t *testing.T) {
	bag := NewBag(10)
	dedup := NewDedupReporter(BagReporter{Bag: bag})
	counting := NewCountingReporter(dedup)
	sp := source.Span{File: 1, Start: 0, End: 1}

	ReportError(counting, TckBreakOutsideLoop, sp, "`break` outside of a loop").
		WithNote(sp, "cannot `break` outside of a loop").
		Emit()
	counting.Report(TckBreakOutsideLoop, SevError, sp, "`break` outside of a loop", nil, nil)
	ReportWarning(counting, TckInfo, sp, "unused").Emit()

	if counting.Errors() != 2 {
		t.Fatalf("expected 2 errors counted, got %d", counting.Errors())
	}
	if bag.Len() != 2 {
		t.Fatalf("expected dedup to keep 2 diagnostics, got %d", bag.Len())
	}
	if len(bag.Items()[0].Notes) != 1 {
		t.Fatalf("expected note to be preserved")
	}
	if dedup.Suppressed() != 1 {
		t.Fatalf("expected 1 suppressed duplicate, got %d", dedup.Suppressed())
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		TckTypeMismatch: "TCK3001",
		IOLoadFileError: "IO4001",
		PrjConfigError:  "PRJ5001",
		ObsTimings:      "OBS6001",
		UnknownCode:     "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Fatalf("code %d: want %s, got %s", code, want, got)
		}
	}
	if TckTypeMismatch.String() != "[TCK3001]: Mismatched types" {
		t.Fatalf("unexpected String(): %s", TckTypeMismatch.String())
	}
}

func TestSeverityLabels(t *testing.T) {
	cases := []struct {
		sev         Severity
		word, upper string
		err         bool
	}{
		{SevInfo, "info", "INFO", false},
		{SevWarning, "warning", "WARNING", false},
		{SevError, "error", "ERROR", true},
	}
	for _, tc := range cases {
		if tc.sev.Word() != tc.word || tc.sev.String() != tc.upper || tc.sev.IsError() != tc.err {
			t.Fatalf("%d: got %s/%s/%v", tc.sev, tc.sev.Word(), tc.sev.String(), tc.sev.IsError())
		}
	}
}
