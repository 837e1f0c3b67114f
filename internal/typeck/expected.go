package typeck

import (
	"typeck/internal/hir"
	"typeck/internal/ice"
	"typeck/internal/types"
)

// expectedBodyType decides what a non-fn body must evaluate to. A declared
// type wins; anonymous constants otherwise get a type from where they
// appear, and everything else uses fallback.
func (fcx *FnCtxt) expectedBodyType(u *hir.Unit, declTy *hir.Ty, fallback func() types.TypeID) (types.TypeID, SigSource) {
	if declTy != nil {
		if declTy.HasPlaceholder() {
			return fcx.lowerTy(declTy), SigInferred
		}
		return fcx.lowerTy(declTy), SigDeclared
	}
	if u.Kind != hir.DefAnonConst {
		return fallback(), SigFallback
	}
	switch u.Placement {
	case hir.PlaceConstBlock, hir.PlaceTypeof:
		return fcx.freshTy(u.Span), SigPlacement
	case hir.PlaceAsmConst, hir.PlaceAsmSymFn:
		// Only an operand that names the const decides its type.
		op, ok := fcx.prog.AsmOperandOf(u)
		if !ok {
			return fallback(), SigFallback
		}
		if op.Kind == hir.AsmConst {
			return fcx.Sess.NewVar(types.InferInt, u.Span), SigPlacement
		}
		return fcx.freshTy(u.Span), SigPlacement
	case hir.PlaceArrayLength:
		return fcx.Sess.NewIntVarWithDefault(fcx.builtins().Usize, u.Span), SigPlacement
	case hir.PlaceConstArg, hir.PlaceEnumDiscriminant, hir.PlaceOther:
		return fallback(), SigFallback
	}
	ice.Unreachable("anon const placement", u.Placement)
	return types.NoTypeID, SigNone
}
