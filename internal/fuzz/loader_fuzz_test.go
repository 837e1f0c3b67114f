package fuzztests

import (
	"bytes"
	"context"
	"testing"
	"time"

	"typeck/internal/hir"
	"typeck/internal/ice"
	"typeck/internal/source"
	"typeck/internal/typeck"
)

// checkTimeout bounds one check; a slower run is reported as a hang.
const checkTimeout = 5 * time.Second

// checkProgram runs the eager driver over prog. Internal compiler errors
// come back as errors; any other panic escapes and fails the fuzz run.
func checkProgram(t *testing.T, prog *hir.Program) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var err error
		if bugErr := ice.Catch(func() {
			cx := typeck.New(prog, nil, typeck.Config{Jobs: 2}, typeck.Services{})
			err = cx.TypeckItemBodies(ctx)
		}); bugErr != nil {
			err = bugErr
		}
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			if _, ok := ice.AsBug(err); !ok && ctx.Err() == nil {
				t.Fatalf("check returned a non-bug error: %v", err)
			}
		}
	case <-time.After(checkTimeout + time.Second):
		t.Fatalf("check did not finish within %s", checkTimeout)
	}
}

func FuzzLoadYAMLAndCheck(f *testing.F) {
	addYAMLSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		prog, err := hir.LoadYAML(source.NewFileSet(), "fuzz.yaml", input)
		if err != nil {
			return
		}
		checkProgram(t, prog)
	})
}

func FuzzDecodeHIR(f *testing.F) {
	addEncodedSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		prog, err := hir.Decode(bytes.NewReader(input), source.NewFileSet())
		if err != nil {
			return
		}
		var buf bytes.Buffer
		if err := hir.Encode(&buf, prog); err != nil {
			t.Fatalf("re-encode of a decoded program failed: %v", err)
		}
	})
}
