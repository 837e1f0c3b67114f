package typeck

import (
	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/types"
)

// targetOrFresh is the type a value-producing construct coerces its arms
// into: the expectation when there is one, a fresh variable otherwise.
func (fcx *FnCtxt) targetOrFresh(e *hir.Expr, exp Expectation) types.TypeID {
	if t, ok := exp.onlyHasType(); ok {
		return t
	}
	return fcx.freshTy(e.Span)
}

func (fcx *FnCtxt) checkBlock(e *hir.Expr, d *hir.BlockData, exp Expectation) types.TypeID {
	if d.Label == "" {
		return fcx.checkBlockInner(d, exp)
	}
	target := fcx.targetOrFresh(e, exp)
	ctxt := &BreakableCtxt{Coerce: NewCoerceMany(target)}
	fcx.WithBreakable(e.ID, ctxt, func() {
		t := fcx.checkBlockInner(d, hasType(target))
		tail := e
		if d.Tail != nil {
			tail = d.Tail
		}
		fcx.coerceInto(ctxt.Coerce, tail, t)
	})
	return ctxt.Coerce.Complete(fcx.in)
}

func (fcx *FnCtxt) checkBlockInner(d *hir.BlockData, exp Expectation) types.TypeID {
	b := fcx.builtins()
	diverges := false
	for _, s := range d.Stmts {
		switch sd := s.Data.(type) {
		case *hir.LetData:
			if fcx.checkLet(sd) {
				diverges = true
			}
		case *hir.ExprStmtData:
			var t types.TypeID
			if sd.Semi {
				t = fcx.checkExpr(sd.Expr, noExpectation)
			} else {
				t = fcx.checkExpr(sd.Expr, hasType(b.Unit))
			}
			if fcx.kindOf(t) == types.KindNever {
				diverges = true
			} else if !sd.Semi {
				fcx.demandCoerce(sd.Expr, t, b.Unit)
			}
		}
	}
	if d.Tail != nil {
		return fcx.checkExpr(d.Tail, exp)
	}
	if diverges {
		return b.Never
	}
	return b.Unit
}

// checkLet checks one `let` and reports whether its initializer diverges.
func (fcx *FnCtxt) checkLet(let *hir.LetData) bool {
	lt, ok := fcx.tables.letTys[let.Pat.ID]
	if !ok {
		lt = fcx.letType(let)
	}
	diverges := false
	if let.Init != nil {
		t := fcx.checkExpr(let.Init, hasType(lt))
		diverges = fcx.kindOf(t) == types.KindNever
		fcx.demandCoerce(let.Init, t, lt)
	}
	fcx.checkPat(let.Pat, lt)
	return diverges
}

func (fcx *FnCtxt) checkLoop(e *hir.Expr, d *hir.LoopData, exp Expectation) types.TypeID {
	b := fcx.builtins()
	if d.Source == hir.LoopWhile {
		fcx.checkExprCoercibleTo(d.Cond, b.Bool)
		fcx.WithBreakable(e.ID, &BreakableCtxt{}, func() {
			fcx.checkExprCoercibleTo(d.Body, b.Unit)
		})
		return b.Unit
	}
	ctxt := fcx.WithBreakable(e.ID, &BreakableCtxt{Coerce: NewCoerceMany(fcx.targetOrFresh(e, exp))}, func() {
		fcx.checkExprCoercibleTo(d.Body, b.Unit)
	})
	if !ctxt.MayBreak {
		return b.Never
	}
	return ctxt.Coerce.Complete(fcx.in)
}

func (fcx *FnCtxt) checkBreak(e *hir.Expr, d *hir.BreakData) types.TypeID {
	b := fcx.builtins()
	if !d.Target.IsValid() {
		msg := "`break` outside of a loop"
		if fcx.ownerIsClosure() {
			msg = "`break` inside of a closure"
		}
		fcx.errorf(diag.TckBreakOutsideLoop, e.Span, "%s", msg).
			WithNote(e.Span, "cannot `break` outside of a loop").
			Emit()
		if d.Value != nil {
			fcx.checkExpr(d.Value, noExpectation)
		}
		return b.Never
	}
	ctxt := fcx.breakables.Find(d.Target)
	ctxt.MayBreak = true
	if ctxt.Coerce == nil {
		if d.Value != nil {
			fcx.errorf(diag.TckBreakWithValue, e.Span, "`break` with value from a `while` loop").
				WithNote(e.Span, "can only break with a value inside `loop` or breakable block").
				Emit()
			fcx.checkExpr(d.Value, noExpectation)
		}
		return b.Never
	}
	if d.Value != nil {
		t := fcx.checkExpr(d.Value, hasType(ctxt.Coerce.Expected()))
		fcx.coerceInto(ctxt.Coerce, d.Value, t)
	} else {
		fcx.coerceUnitInto(ctxt.Coerce, e.Span)
	}
	return b.Never
}

func (fcx *FnCtxt) checkContinue(e *hir.Expr, d *hir.ContinueData) types.TypeID {
	if !d.Target.IsValid() {
		fcx.errorf(diag.TckBreakOutsideLoop, e.Span, "`continue` outside of a loop").
			WithNote(e.Span, "cannot `continue` outside of a loop").
			Emit()
		return fcx.builtins().Never
	}
	fcx.breakables.Find(d.Target)
	return fcx.builtins().Never
}

func (fcx *FnCtxt) ownerIsClosure() bool {
	u := fcx.prog.Unit(fcx.owner)
	return u != nil && u.Kind == hir.DefClosure
}

func (fcx *FnCtxt) checkReturn(e *hir.Expr, d *hir.ReturnData) types.TypeID {
	b := fcx.builtins()
	ret := fcx.retCoercion
	if ret == nil {
		fcx.errorf(diag.TckReturnOutsideFn, e.Span, "return statement outside of function body").Emit()
		if d.Value != nil {
			fcx.checkExpr(d.Value, noExpectation)
		}
		return b.Never
	}
	if d.Value != nil {
		t := fcx.checkExpr(d.Value, hasType(ret.Expected()))
		fcx.coerceInto(ret, d.Value, t)
	} else {
		fcx.coerceUnitInto(ret, e.Span)
	}
	return b.Never
}

func (fcx *FnCtxt) checkIf(e *hir.Expr, d *hir.IfData, exp Expectation) types.TypeID {
	b := fcx.builtins()
	fcx.checkExprCoercibleTo(d.Cond, b.Bool)
	if d.Else == nil {
		t := fcx.checkExpr(d.Then, hasType(b.Unit))
		fcx.demandCoerce(d.Then, t, b.Unit)
		return b.Unit
	}
	cm := NewCoerceMany(fcx.targetOrFresh(e, exp))
	then := fcx.checkExpr(d.Then, hasType(cm.Expected()))
	fcx.coerceInto(cm, d.Then, then)
	els := fcx.checkExpr(d.Else, hasType(cm.Expected()))
	fcx.coerceInto(cm, d.Else, els)
	return cm.Complete(fcx.in)
}

func (fcx *FnCtxt) checkYield(e *hir.Expr, d *hir.YieldData) types.TypeID {
	gen := fcx.coroutine
	if gen == nil {
		fcx.errorf(diag.TckYieldOutsideCoroutine, e.Span, "yield expression outside of coroutine literal").Emit()
		if d.Value != nil {
			fcx.checkExpr(d.Value, noExpectation)
		}
		return fcx.builtins().Error
	}
	if d.Value != nil {
		fcx.checkExprCoercibleTo(d.Value, gen.Yield)
	} else if !fcx.unify(gen.Yield, fcx.builtins().Unit) {
		fcx.reportMismatch(e.Span, gen.Yield, fcx.builtins().Unit)
	}
	return gen.Resume
}
