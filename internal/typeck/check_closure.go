package typeck

import (
	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/ice"
	"typeck/internal/infer"
	"typeck/internal/types"
)

func (fcx *FnCtxt) checkClosure(e *hir.Expr, d *hir.ClosureData, exp Expectation) types.TypeID {
	in := fcx.in
	u := fcx.prog.Unit(d.Def)
	body := fcx.prog.BodyOf(d.Def)
	if u == nil || body == nil || u.Decl == nil {
		ice.Bugf("closure %d has no body or signature", d.Def)
	}
	var expected *types.FnInfo
	if h, ok := fcx.resolvedHint(exp); ok {
		expected, _ = in.FnInfo(h)
	}
	params := make([]types.TypeID, len(u.Decl.Inputs))
	for i, t := range u.Decl.Inputs {
		params[i] = fcx.lowerTy(t)
		if expected != nil && i < len(expected.Params) {
			fcx.unify(params[i], expected.Params[i])
		}
	}
	ret := in.Builtins().Unit
	if u.Decl.Output != nil {
		ret = fcx.lowerTy(u.Decl.Output)
	} else if u.Kind == hir.DefClosure {
		ret = fcx.freshTy(e.Span)
	}
	if expected != nil {
		fcx.unify(ret, expected.Result)
	}

	if u.Kind == hir.DefCoroutine {
		return fcx.checkCoroutine(u, body, params, ret)
	}
	sig := in.RegisterFn(params, ret, types.AbiRust, false)
	fcx.tables.closureSigs[d.Def] = sig
	fcx.checkFn(d.Def, sig, u.Decl, body, nil)
	return in.RegisterClosure(uint32(d.Def), "{closure}", sig)
}

// checkCoroutine checks a coroutine literal. Its optional input is the
// resume type; the interior is resolved once every other type is known.
func (fcx *FnCtxt) checkCoroutine(u *hir.Unit, body *hir.Body, params []types.TypeID, ret types.TypeID) types.TypeID {
	in := fcx.in
	resume := in.Builtins().Unit
	if len(params) > 0 {
		resume = params[0]
	}
	if u.Decl.Output == nil {
		ret = fcx.freshTy(u.Span)
	}
	gen := &GeneratorTypes{
		Resume:     resume,
		Yield:      fcx.freshTy(u.Span),
		Return:     ret,
		Interior:   fcx.freshTy(u.Span),
		Movability: u.Movability,
	}
	sig := in.RegisterFn(params, ret, types.AbiRust, false)
	fcx.tables.closureSigs[u.ID] = sig
	fcx.tables.coroutines[u.ID] = gen
	fcx.checkFn(u.ID, sig, u.Decl, body, gen)
	fcx.Sess.DeferInterior(infer.CoroutineInterior{Def: u.ID, Ty: gen.Interior, Body: body})
	return in.RegisterCoroutine(types.CoroutineInfo{
		Def:      uint32(u.ID),
		Name:     "{coroutine}",
		Resume:   gen.Resume,
		Yield:    gen.Yield,
		Return:   gen.Return,
		Interior: gen.Interior,
		Movable:  u.Movability == hir.Movable,
	})
}

// checkConstBlock checks an inline `const { ... }` as part of the
// enclosing body, against a type of its own.
func (fcx *FnCtxt) checkConstBlock(e *hir.Expr, d *hir.ConstBlockData, exp Expectation) types.TypeID {
	u := fcx.prog.Unit(d.Def)
	body := fcx.prog.BodyOf(d.Def)
	if u == nil || body == nil {
		ice.Bugf("const block %d has no body", d.Def)
	}
	restore := fcx.enterBody(d.Def, false, nil, nil)
	defer restore()
	t, _ := fcx.expectedBodyType(u, nil, func() types.TypeID { return fcx.freshTy(e.Span) })
	if h, ok := exp.onlyHasType(); ok {
		fcx.unify(t, h)
	}
	fcx.requireSized(t, e.Span, infer.CauseConstSized)
	fcx.checkExprCoercibleTo(body.Value, t)
	return t
}

func (fcx *FnCtxt) checkInlineAsm(e *hir.Expr, d *hir.InlineAsmData) types.TypeID {
	for i, op := range d.Operands {
		check := infer.AsmCheck{Asm: e.ID, Operand: i, Kind: op.Kind, Span: op.Span}
		switch op.Kind {
		case hir.AsmIn:
			check.Ty = fcx.checkExpr(op.Expr, noExpectation)
		case hir.AsmOut, hir.AsmInOut:
			if op.Expr == nil {
				continue
			}
			if !fcx.isPlaceExpr(op.Expr) {
				fcx.errorf(diag.TckInvalidAssignTarget, op.Expr.Span, "invalid asm output").
					WithNote(op.Expr.Span, "cannot assign to this expression").
					Emit()
			}
			check.Ty = fcx.checkExprNeeds(op.Expr, noExpectation, NeedsMutPlace)
		}
		fcx.Sess.DeferAsm(check)
	}
	return fcx.builtins().Unit
}
