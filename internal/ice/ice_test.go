package ice

import (
	"fmt"
	"strings"
	"testing"
)

func TestCatchReturnsBug(t *testing.T) {
	err := Catch(func() {
		Bugf("deferred queue not empty: %d entries", 2)
	})
	if err == nil {
		t.Fatalf("expected bug")
	}
	bug, ok := AsBug(fmt.Errorf("wrapped: %w", err))
	if !ok {
		t.Fatalf("expected *Bug in chain, got %T", err)
	}
	if !strings.Contains(bug.Error(), "deferred queue not empty: 2 entries") {
		t.Fatalf("unexpected message %q", bug.Error())
	}
	if len(bug.StackTrace()) == 0 {
		t.Fatalf("expected a captured stack")
	}
	if !strings.Contains(bug.Detailed(), "ice_test.go") {
		t.Fatalf("expected stack to mention the raising file:\n%s", bug.Detailed())
	}
}

func TestCatchPassesThroughOtherPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != "boom" {
			t.Fatalf("expected foreign panic to propagate, got %v", r)
		}
	}()
	_ = Catch(func() { panic("boom") })
}

func TestAssert(t *testing.T) {
	if err := Catch(func() { Assert(true, "never") }); err != nil {
		t.Fatalf("unexpected bug: %v", err)
	}
	if err := Catch(func() { Assert(false, "owner mismatch") }); err == nil {
		t.Fatalf("expected bug")
	}
}
