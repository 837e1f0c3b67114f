package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"typeck/internal/hir"
	"typeck/internal/source"
	"typeck/internal/typeck"
	"typeck/internal/types"
)

// CheckResultInvariants runs the invariants every published result must hold:
// 1) the owner is a typeck root with a body
// 2) no type in the result mentions an inference variable
// 3) every typed node belongs to the program
// 4) diagnostic spans lie within their file
func CheckResultInvariants(cx *typeck.Context, res *typeck.TypeckResults) error {
	if cx == nil || res == nil {
		return fmt.Errorf("nil context or results")
	}
	prog, in := cx.Prog, cx.Types
	owner := prog.Unit(res.Owner())
	if owner == nil {
		return fmt.Errorf("results owner %d is not a definition", res.Owner())
	}
	if !cx.HasTypeckResults(owner.ID) {
		return fmt.Errorf("results owner %s has no body", prog.Name(owner.ID))
	}
	if cx.Typeck(owner.ID).Owner() != owner.ID {
		return fmt.Errorf("results owner %s is not its own root", prog.Name(owner.ID))
	}

	if in.HasInfer(res.ValueType()) {
		return fmt.Errorf("value type of %s holds inference variables: %s", prog.Name(owner.ID), types.Label(in, res.ValueType()))
	}
	var err error
	res.EachNodeType(func(id hir.NodeID, t types.TypeID) {
		if err != nil {
			return
		}
		if prog.Expr(id) == nil && prog.Pat(id) == nil {
			err = fmt.Errorf("typed node %d is neither an expression nor a pattern", id)
			return
		}
		if in.HasInfer(t) {
			err = fmt.Errorf("node %d holds inference variables: %s", id, types.Label(in, t))
		}
	})
	if err != nil {
		return err
	}

	for _, d := range res.Diagnostics() {
		if err := checkSpan(prog.Files, d.Primary); err != nil {
			return fmt.Errorf("diagnostic %s: %w", d.Code.ID(), err)
		}
	}
	return nil
}

func checkSpan(fs *source.FileSet, sp source.Span) error {
	if sp.File == 0 {
		return nil
	}
	if sp.End < sp.Start {
		return fmt.Errorf("inverted span %v", sp)
	}
	f := fs.Get(sp.File)
	if f == nil {
		return fmt.Errorf("span %v points to an unknown file", sp)
	}
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if sp.End > n {
		return fmt.Errorf("span end beyond content: %d > %d", sp.End, n)
	}
	return nil
}
