package typeck_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"typeck/internal/hir"
	"typeck/internal/source"
	"typeck/internal/testkit"
	"typeck/internal/typeck"
)

func TestPublishedResultsHoldInvariants(t *testing.T) {
	fs := source.NewFileSet()
	prog, err := hir.LoadYAMLFile(fs, "../hir/testdata/loops.yaml")
	require.NoError(t, err)

	cx := typeck.New(prog, nil, typeck.Config{Jobs: 2}, typeck.Services{})
	require.NoError(t, cx.TypeckItemBodies(context.Background()))

	roots := cx.Roots()
	require.NotEmpty(t, roots)
	for _, def := range roots {
		res := cx.Typeck(def)
		require.NoError(t, testkit.CheckResultInvariants(cx, res), "root %s", prog.Name(def))
	}
}
