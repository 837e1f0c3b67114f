package typeck

import (
	"typeck/internal/hir"
	"typeck/internal/ice"
)

// primaryBodyOf returns the body a unit is checked for, together with its
// declared type (consts and statics) or signature (functions). Closures
// and coroutines are checked as part of their root and have no primary
// body of their own.
func primaryBodyOf(prog *hir.Program, u *hir.Unit) (body *hir.Body, declTy *hir.Ty, decl *hir.FnDecl, ok bool) {
	switch u.Kind {
	case hir.DefConst, hir.DefAssocConst, hir.DefTraitConst, hir.DefStatic:
		body = prog.BodyOf(u.ID)
		return body, u.Ty, nil, body != nil
	case hir.DefFn, hir.DefAssocFn, hir.DefTraitFn:
		body = prog.BodyOf(u.ID)
		return body, nil, u.Decl, body != nil
	case hir.DefAnonConst:
		body = prog.BodyOf(u.ID)
		return body, nil, nil, body != nil
	case hir.DefClosure, hir.DefCoroutine,
		hir.DefStruct, hir.DefEnum, hir.DefVariant, hir.DefTrait, hir.DefImpl,
		hir.DefTypeParam, hir.DefConstParam, hir.DefUse, hir.DefMod, hir.DefGlobalAsm:
		return nil, nil, nil, false
	}
	ice.Unreachable("definition kind", u.Kind)
	return nil, nil, nil, false
}

// typeckRootOf returns the definition whose run checks def: closures,
// coroutines and inline const blocks are checked with their enclosing body.
func typeckRootOf(prog *hir.Program, def hir.DefID) hir.DefID {
	for {
		u := prog.Unit(def)
		if u == nil || !nestedInParent(u) {
			return def
		}
		def = u.Parent
	}
}

func nestedInParent(u *hir.Unit) bool {
	switch u.Kind {
	case hir.DefClosure, hir.DefCoroutine:
		return true
	case hir.DefAnonConst:
		return u.Placement == hir.PlaceConstBlock
	}
	return false
}
