package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"typeck/internal/diag"
	"typeck/internal/layout"
	"typeck/internal/typeck"
)

const cleanProgram = `items:
  - fn: answer
    ret: i32
    body: 42
  - const: LIMIT
    ty: u32
    value: 5
`

const brokenProgram = `items:
  - fn: wrong
    ret: i32
    body: true
`

func writeProgram(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testOptions() Options {
	return Options{Jobs: 2, Target: layout.X86_64LinuxGNU()}
}

func TestIsProgramFile(t *testing.T) {
	for path, want := range map[string]bool{
		"a.yaml":    true,
		"b.YML":     true,
		"c.hir":     true,
		"d.go":      false,
		"README.md": false,
	} {
		if got := IsProgramFile(path); got != want {
			t.Fatalf("IsProgramFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestCheckCleanProgram(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "clean.yaml", cleanProgram)
	in, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	res, err := Check(context.Background(), in, testOptions())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.HasErrors() {
		t.Fatalf("unexpected errors: %+v", res.Bag.Items())
	}
	if res.Units != 2 {
		t.Fatalf("expected 2 checked units, got %d", res.Units)
	}
	if res.Cached || res.Context == nil {
		t.Fatalf("a fresh check must keep its context")
	}
}

func TestCheckReportsMismatch(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "broken.yaml", brokenProgram)
	in, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	res, err := Check(context.Background(), in, testOptions())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.HasErrors() {
		t.Fatalf("expected a type error")
	}
	if n := res.Bag.Count(diag.TckTypeMismatch); n != 1 {
		t.Fatalf("expected one mismatch, got %d", n)
	}
}

func TestDiskCacheServesSecondCheck(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	path := writeProgram(t, dir, "broken.yaml", brokenProgram)
	opts := testOptions()
	opts.Cache = cache

	var fresh, cached *Result
	for i, out := range []**Result{&fresh, &cached} {
		in, err := Load(path)
		if err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
		if *out, err = Check(context.Background(), in, opts); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}
	if fresh.Cached || !cached.Cached {
		t.Fatalf("expected miss then hit, got %v then %v", fresh.Cached, cached.Cached)
	}
	if cached.Context != nil {
		t.Fatalf("cached results have no context")
	}
	if cached.Units != fresh.Units || cached.Bag.Len() != fresh.Bag.Len() {
		t.Fatalf("cached result differs: %d/%d units, %d/%d diagnostics",
			cached.Units, fresh.Units, cached.Bag.Len(), fresh.Bag.Len())
	}
	if cached.Bag.Items()[0].Message != fresh.Bag.Items()[0].Message {
		t.Fatalf("cached diagnostic differs")
	}

	opts.MaxDiagnostics = 7
	in, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	res, err := Check(context.Background(), in, opts)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Cached {
		t.Fatalf("changed options must miss the cache")
	}
}

func TestDiskCacheDropAll(t *testing.T) {
	cache, err := NewDiskCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	key := Digest{1, 2, 3}
	if err := cache.Put(key, &DiskPayload{Path: "x.yaml", Units: 3}); err != nil {
		t.Fatalf("put: %v", err)
	}
	var got DiskPayload
	if ok, err := cache.Get(key, &got); err != nil || !ok || got.Units != 3 {
		t.Fatalf("get after put: ok=%v err=%v payload=%+v", ok, err, got)
	}
	if err := cache.DropAll(); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if ok, err := cache.Get(key, &got); err != nil || ok {
		t.Fatalf("entry survived DropAll: ok=%v err=%v", ok, err)
	}
}

func TestCheckDirKeepsFileOrder(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, "b.yaml", brokenProgram)
	writeProgram(t, dir, "a.yaml", cleanProgram)
	writeProgram(t, dir, "notes.txt", "not a program")

	events := map[string]int{}
	opts := testOptions()
	opts.Progress = func(path string, _ typeck.ProgressEvent) { events[filepath.Base(path)]++ }
	results, err := CheckPath(context.Background(), dir, opts)
	if err != nil {
		t.Fatalf("check dir: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if filepath.Base(results[0].Input.Path) != "a.yaml" || filepath.Base(results[1].Input.Path) != "b.yaml" {
		t.Fatalf("results out of order: %s, %s", results[0].Input.Path, results[1].Input.Path)
	}
	if results[0].HasErrors() || !results[1].HasErrors() {
		t.Fatalf("only b.yaml should have errors")
	}
	if events["a.yaml"] != 2 || events["b.yaml"] != 1 {
		t.Fatalf("expected one progress event per unit, got %v", events)
	}
}

func TestCheckDirCanceled(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, "a.yaml", cleanProgram)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := CheckDir(ctx, dir, testOptions()); err == nil {
		t.Fatalf("expected an error from a canceled check")
	}
}

func TestTimingDiagnostic(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "clean.yaml", cleanProgram)
	in, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	opts := testOptions()
	opts.Timings = true
	opts.MaxDiagnostics = 1
	res, err := Check(context.Background(), in, opts)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if n := res.Bag.Count(diag.ObsTimings); n != 1 {
		t.Fatalf("expected one timing diagnostic, got %d", n)
	}
	if res.HasErrors() {
		t.Fatalf("timings must not count as errors")
	}
	var timing *diag.Diagnostic
	for _, d := range res.Bag.Items() {
		if d.Code == diag.ObsTimings {
			timing = d
		}
	}
	var payload timingPayload
	if err := json.Unmarshal([]byte(timing.Notes[0].Msg), &payload); err != nil {
		t.Fatalf("decode timing note: %v", err)
	}
	if payload.Units != 2 || payload.Path != path {
		t.Fatalf("unexpected timing payload: %+v", payload)
	}
}

func TestEmitResults(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "clean.yaml", cleanProgram)
	in, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	res, err := Check(context.Background(), in, testOptions())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	var buf bytes.Buffer
	if err := EmitResults(&buf, []*Result{res, {Input: in, Cached: true}}, true); err != nil {
		t.Fatalf("emit: %v", err)
	}
	var dump ResultsDump
	if err := yaml.Unmarshal(buf.Bytes(), &dump); err != nil {
		t.Fatalf("decode dump: %v\n%s", err, buf.String())
	}
	if len(dump.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(dump.Units))
	}
	byName := map[string]UnitDump{}
	for _, u := range dump.Units {
		byName[u.Name] = u
	}
	answer, ok := byName["answer"]
	if !ok || answer.Errors != 0 || len(answer.Nodes) == 0 {
		t.Fatalf("unexpected dump for answer: %+v", answer)
	}
	if limit := byName["LIMIT"]; limit.Value != "u32" {
		t.Fatalf("LIMIT should have type u32, got %q", limit.Value)
	}
	if strings.Count(buf.String(), "path:") != 1 {
		t.Fatalf("cached results must not be dumped:\n%s", buf.String())
	}
}

func TestFinishedCalledPerInput(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, "a.yaml", cleanProgram)
	writeProgram(t, dir, "b.yaml", "items: [")

	files, err := ProgramFiles(dir)
	if err != nil || len(files) != 2 {
		t.Fatalf("ProgramFiles = %v, %v", files, err)
	}

	failed := map[string]bool{}
	opts := testOptions()
	opts.Jobs = 1
	opts.Finished = func(path string, res *Result, err error) {
		failed[filepath.Base(path)] = err != nil
		if (err == nil) != (res != nil) {
			t.Errorf("%s: result and error disagree", path)
		}
	}
	if _, err := CheckDir(context.Background(), dir, opts); err == nil {
		t.Fatalf("expected the load error of b.yaml")
	}
	if !failed["b.yaml"] {
		t.Fatalf("b.yaml should be reported as failed: %v", failed)
	}
}
