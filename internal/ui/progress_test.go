package ui

import (
	"strings"
	"testing"
)

func newTestModel(files ...string) *progressModel {
	return NewProgressModel("checking", files, nil).(*progressModel)
}

func TestApplyEventTracksUnits(t *testing.T) {
	m := newTestModel("a.yaml", "b.yaml")
	m.applyEvent(Event{File: "a.yaml", Unit: "main", Done: 1, Total: 4, Errors: 2})
	m.applyEvent(Event{File: "a.yaml", Unit: "helper", Done: 2, Total: 4})

	a := m.items[0]
	if a.status != "checking" || a.done != 2 || a.total != 4 || a.errors != 2 {
		t.Fatalf("unexpected item state %+v", a)
	}
	if got := m.percent(); got != 0.25 {
		t.Fatalf("percent = %v, want 0.25", got)
	}
	if !strings.Contains(a.describe(), "[2/4] helper") {
		t.Fatalf("describe = %q", a.describe())
	}
}

func TestFinishedEventSettlesStatus(t *testing.T) {
	m := newTestModel("a.yaml", "b.yaml", "c.yaml")
	m.applyEvent(Event{File: "a.yaml", Finished: true})
	m.applyEvent(Event{File: "b.yaml", Finished: true, Errors: 3})
	m.applyEvent(Event{File: "c.yaml", Finished: true, Cached: true})
	m.applyEvent(Event{File: "unknown.yaml", Finished: true})

	want := []string{"ok", "errors", "cached"}
	for i, item := range m.items {
		if item.status != want[i] {
			t.Fatalf("item %d status = %q, want %q", i, item.status, want[i])
		}
	}
	if m.items[1].errors != 3 {
		t.Fatalf("errors = %d, want 3", m.items[1].errors)
	}
	if got := m.percent(); got != 1 {
		t.Fatalf("percent = %v, want 1", got)
	}
}

func TestFailedEvent(t *testing.T) {
	if got := statusLabel(Event{Failed: true, Finished: true}); got != "failed" {
		t.Fatalf("statusLabel = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("internal/typeck/testdata/long.yaml", 12); got != "intern..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
}

func TestViewListsFiles(t *testing.T) {
	m := newTestModel("a.yaml")
	m.applyEvent(Event{File: "a.yaml", Finished: true, Errors: 1})
	view := m.View()
	if !strings.Contains(view, "a.yaml (1 errors)") {
		t.Fatalf("view missing file row:\n%s", view)
	}
}
