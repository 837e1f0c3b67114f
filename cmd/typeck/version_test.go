package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"typeck/internal/version"
)

func TestVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := renderVersionJSON(&buf, false); err != nil {
		t.Fatalf("render: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Tool != "typeck" || payload.Version != version.Plain() {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.GitCommit != "" {
		t.Fatalf("commit only shown with --full")
	}
}

func TestVersionPrettyFull(t *testing.T) {
	var buf bytes.Buffer
	renderVersionPretty(&buf, true)
	out := buf.String()
	for _, want := range []string{"typeck ", "commit:", "built:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "ON": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatalf("expected an error")
	}
	if uiModeOn.enabled(true) {
		t.Fatalf("quiet runs must not show the UI")
	}
	if !uiModeOn.enabled(false) || uiModeOff.enabled(false) {
		t.Fatalf("explicit modes ignored")
	}
}
