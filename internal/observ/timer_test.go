package observ

import (
	"strings"
	"sync"
	"testing"
)

func TestTimerOrder(t *testing.T) {
	tm := NewTimer()
	for _, name := range []string{"classify", "build_session", "writeback"} {
		tm.End(tm.Begin(name), "")
	}
	names := tm.Names()
	if strings.Join(names, ",") != "classify,build_session,writeback" {
		t.Fatalf("unexpected order: %v", names)
	}
	if !strings.Contains(tm.Summary(), "build_session") {
		t.Fatalf("summary misses a phase:\n%s", tm.Summary())
	}
}

func TestNilTimerIsInert(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if len(tm.Report().Phases) != 0 {
		t.Fatalf("nil timer must not record")
	}
}

func TestTotalsConcurrent(t *testing.T) {
	totals := NewTotals()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm := NewTimer()
			tm.End(tm.Begin("fallback"), "")
			tm.End(tm.Begin("writeback"), "")
			totals.Add(tm.Report())
		}()
	}
	wg.Wait()

	r := totals.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(r.Phases))
	}
	for _, p := range r.Phases {
		if p.Count != 8 {
			t.Fatalf("phase %s: expected count 8, got %d", p.Name, p.Count)
		}
	}
}
