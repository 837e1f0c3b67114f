package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelFiltersScopes(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)

	unit := Begin(tr, ScopeUnit, "typeck", 0)
	step := Begin(tr, ScopePhase, "fallback", unit.ID())
	step.End("")
	unit.End("ok")

	out := buf.String()
	if !strings.Contains(out, "→ typeck") || !strings.Contains(out, "← typeck (ok)") {
		t.Fatalf("expected unit span in output:\n%s", out)
	}
	if strings.Contains(out, "fallback") {
		t.Fatalf("phase span must be filtered at LevelPhase:\n%s", out)
	}
	if step.ID() != 0 {
		t.Fatalf("filtered span must be inert")
	}
}

func TestNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)
	Begin(tr, ScopePhase, "check_casts", 7).WithExtra("casts", "2").End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 events, got %d", len(lines))
	}
	var ev jsonEvent
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != "end" || ev.Scope != "phase" || ev.ParentID != 7 || ev.Extra["casts"] != "2" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestRingKeepsLastEvents(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(r, ScopeNode, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 3 || snap[0].Name != "b" || snap[2].Name != "d" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestMultiAndContext(t *testing.T) {
	var buf bytes.Buffer
	ring := NewRingTracer(8, LevelDetail)
	multi := NewMultiTracer(LevelDetail, NewStreamTracer(&buf, LevelDetail, FormatText), ring)

	ctx := WithTracer(context.Background(), multi)
	span := Begin(FromContext(ctx), ScopeDriver, "check", 0)
	ctx = WithSpan(ctx, span)
	if CurrentSpan(ctx) != span.ID() {
		t.Fatalf("span not propagated")
	}
	span.End("")

	got, ok := Ring(FromContext(ctx))
	if !ok || got != ring {
		t.Fatalf("expected ring tracer to be found")
	}
	if len(ring.Snapshot()) != 2 || buf.Len() == 0 {
		t.Fatalf("expected both tracers to receive events")
	}
}

func TestNewOff(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("expected disabled tracer, got %v %v", tr, err)
	}
	if FromContext(context.Background()) != Nop {
		t.Fatalf("expected Nop from empty context")
	}
}

func TestHeartbeatReportsStatus(t *testing.T) {
	if StartHeartbeat(Nop, time.Millisecond, nil) != nil {
		t.Fatalf("heartbeat started on a disabled tracer")
	}
	r := NewRingTracer(16, LevelPhase)
	hb := StartHeartbeat(r, time.Millisecond, func() string { return "3 units" })
	deadline := time.Now().Add(2 * time.Second)
	for len(r.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	hb.Stop()
	hb.Stop()
	snap := r.Snapshot()
	if len(snap) == 0 {
		t.Fatalf("no heartbeat recorded")
	}
	if snap[0].Kind != KindHeartbeat || snap[0].Detail != "#1 3 units" {
		t.Fatalf("unexpected heartbeat: %+v", snap[0])
	}
}
