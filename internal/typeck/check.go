package typeck

import (
	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/ice"
	"typeck/internal/infer"
	"typeck/internal/source"
	"typeck/internal/types"
)

// DefaultExprChecker is the expression checker used when Services leaves
// Checker unset.
type DefaultExprChecker struct{}

func (DefaultExprChecker) CheckFnBody(fcx *FnCtxt, sig types.TypeID, decl *hir.FnDecl, body *hir.Body) *GeneratorTypes {
	return fcx.checkFnBody(sig, decl, body)
}

func (DefaultExprChecker) CheckExprCoercibleTo(fcx *FnCtxt, expr *hir.Expr, expected types.TypeID) types.TypeID {
	return fcx.checkExprCoercibleTo(expr, expected)
}

type expectKind uint8

const (
	expectNone expectKind = iota
	expectHasType
	expectCastableToType
)

// Expectation is the type hint flowing down into an expression.
type Expectation struct {
	kind expectKind
	ty   types.TypeID
}

// noExpectation leaves the expression to infer its own type.
var noExpectation = Expectation{}

func hasType(t types.TypeID) Expectation    { return Expectation{kind: expectHasType, ty: t} }
func castableTo(t types.TypeID) Expectation { return Expectation{kind: expectCastableToType, ty: t} }

// hint returns the expected type, if any.
func (e Expectation) hint() (types.TypeID, bool) {
	if e.kind == expectNone || e.ty == types.NoTypeID {
		return types.NoTypeID, false
	}
	return e.ty, true
}

// onlyHasType is the hint when it is a hard requirement.
func (e Expectation) onlyHasType() (types.TypeID, bool) {
	if e.kind != expectHasType || e.ty == types.NoTypeID {
		return types.NoTypeID, false
	}
	return e.ty, true
}

// resolvedHint shallow-resolves the hint, dropping unresolved variables.
func (fcx *FnCtxt) resolvedHint(exp Expectation) (types.TypeID, bool) {
	t, ok := exp.hint()
	if !ok {
		return types.NoTypeID, false
	}
	t = fcx.shallow(t)
	if fcx.in.KindOf(t) == types.KindInfer {
		return types.NoTypeID, false
	}
	return t, true
}

func (fcx *FnCtxt) checkFnBody(sig types.TypeID, decl *hir.FnDecl, body *hir.Body) *GeneratorTypes {
	fcx.gatherLocals(body)
	var gen *GeneratorTypes
	if body.Coroutine {
		info, ok := fcx.in.FnInfo(fcx.shallow(sig))
		if !ok {
			ice.Bugf("signature of coroutine %s is not a function", fcx.prog.Name(body.Owner))
		}
		resume := fcx.builtins().Unit
		if len(info.Params) > 0 {
			resume = info.Params[0]
		}
		gen = &GeneratorTypes{
			Resume:   resume,
			Yield:    fcx.freshTy(body.Value.Span),
			Return:   info.Result,
			Interior: fcx.freshTy(body.Value.Span),
		}
		fcx.tables.coroutines[body.Owner] = gen
		fcx.Sess.DeferInterior(infer.CoroutineInterior{Def: body.Owner, Ty: gen.Interior, Body: body})
	}
	fcx.checkFn(body.Owner, sig, decl, body, gen)
	return gen
}

// checkFn binds the parameters of body and checks its value against the
// return type of sig.
func (fcx *FnCtxt) checkFn(owner hir.DefID, sig types.TypeID, decl *hir.FnDecl, body *hir.Body, gen *GeneratorTypes) {
	info, ok := fcx.in.FnInfo(fcx.shallow(sig))
	if !ok {
		ice.Bugf("signature of %s is not a function: %s", fcx.prog.Name(owner), fcx.label(sig))
	}
	for i, p := range body.Params {
		t := fcx.builtins().Error
		if i < len(info.Params) {
			t = info.Params[i]
		}
		fcx.checkPat(p.Pat, t)
		fcx.deferSized(t, p.Span, infer.CauseSizedArgument)
	}
	ret := NewCoerceMany(info.Result)
	restore := fcx.enterBody(owner, true, ret, gen)
	defer restore()
	t := fcx.checkExpr(body.Value, hasType(info.Result))
	fcx.coerceInto(ret, body.Value, t)
	span := body.Value.Span
	if decl != nil {
		span = decl.Span
	}
	fcx.deferSized(info.Result, span, infer.CauseSizedReturn)
}

func (fcx *FnCtxt) checkExprCoercibleTo(e *hir.Expr, expected types.TypeID) types.TypeID {
	t := fcx.checkExpr(e, hasType(expected))
	return fcx.demandCoerce(e, t, expected)
}

func (fcx *FnCtxt) checkExpr(e *hir.Expr, exp Expectation) types.TypeID {
	return fcx.checkExprNeeds(e, exp, NeedsNone)
}

func (fcx *FnCtxt) checkExprNeeds(e *hir.Expr, exp Expectation, needs Needs) types.TypeID {
	if e == nil {
		return fcx.builtins().Unit
	}
	t := fcx.checkExprKind(e, exp, needs)
	return fcx.writeTy(e.ID, t)
}

func (fcx *FnCtxt) checkExprKind(e *hir.Expr, exp Expectation, needs Needs) types.TypeID {
	b := fcx.builtins()
	switch d := e.Data.(type) {
	case *hir.LitData:
		return fcx.checkLit(e, d, exp)
	case *hir.PathData:
		return fcx.checkPath(e, d)
	case *hir.BlockData:
		return fcx.checkBlock(e, d, exp)
	case *hir.LoopData:
		return fcx.checkLoop(e, d, exp)
	case *hir.BreakData:
		return fcx.checkBreak(e, d)
	case *hir.ContinueData:
		return fcx.checkContinue(e, d)
	case *hir.ReturnData:
		return fcx.checkReturn(e, d)
	case *hir.IfData:
		return fcx.checkIf(e, d, exp)
	case *hir.CastData:
		return fcx.checkCast(e, d)
	case *hir.BinaryData:
		return fcx.checkBinary(e, d)
	case *hir.UnaryData:
		return fcx.checkUnary(e, d, exp, needs)
	case *hir.AssignData:
		return fcx.checkAssign(e, d)
	case *hir.CallData:
		return fcx.checkCall(e, d)
	case *hir.MethodCallData:
		return fcx.checkMethodCall(e, d)
	case *hir.ClosureData:
		return fcx.checkClosure(e, d, exp)
	case *hir.YieldData:
		return fcx.checkYield(e, d)
	case *hir.ConstBlockData:
		return fcx.checkConstBlock(e, d, exp)
	case *hir.RepeatData:
		return fcx.checkRepeat(e, d, exp)
	case *hir.ArrayData:
		return fcx.checkArray(e, d, exp)
	case *hir.TupleData:
		return fcx.checkTuple(d, exp)
	case *hir.AddrOfData:
		return fcx.checkAddrOf(d, exp)
	case *hir.IndexData:
		return fcx.checkIndex(e, d, needs)
	case *hir.FieldData:
		return fcx.checkField(e, d, needs)
	case *hir.StructData:
		return fcx.checkStructLit(e, d, exp)
	case *hir.InlineAsmData:
		return fcx.checkInlineAsm(e, d)
	case *hir.ErrData, nil:
		fcx.Sess.Taint()
		return b.Error
	}
	ice.Unreachable("expression", e.Kind)
	return b.Error
}

// unify equates a and b, leaving the session untouched on failure.
func (fcx *FnCtxt) unify(expected, found types.TypeID) bool {
	return fcx.Sess.Try(func() bool { return fcx.Sess.Unify(expected, found) == nil })
}

// demandCoerce coerces the value of e from actual to expected and reports a
// mismatch when that is impossible. It returns the type e ends up with.
func (fcx *FnCtxt) demandCoerce(e *hir.Expr, actual, expected types.TypeID) types.TypeID {
	if fcx.tryCoerce(actual, expected) {
		return expected
	}
	fcx.reportMismatch(mismatchSpan(e), expected, actual)
	return expected
}

// tryCoerce applies the implicit coercions between actual and expected.
func (fcx *FnCtxt) tryCoerce(actual, expected types.TypeID) bool {
	in := fcx.in
	a, x := fcx.shallow(actual), fcx.shallow(expected)
	ak, xk := in.KindOf(a), in.KindOf(x)
	if ak == types.KindNever || ak == types.KindError || xk == types.KindError {
		return true
	}
	return fcx.Sess.Try(func() bool {
		at, _ := in.Lookup(a)
		xt, _ := in.Lookup(x)
		switch {
		case ak == types.KindRef && xk == types.KindRef && (at.Mutable || !xt.Mutable):
			// &mut T -> &T, and &[T; N] -> &[T].
			if fcx.unsizeElem(at.Elem, xt.Elem) {
				return true
			}
		case ak == types.KindRef && xk == types.KindPtr && (at.Mutable || !xt.Mutable):
			if fcx.unsizeElem(at.Elem, xt.Elem) {
				return true
			}
		case ak == types.KindPtr && xk == types.KindPtr && at.Mutable && !xt.Mutable:
			return fcx.Sess.Unify(xt.Elem, at.Elem) == nil
		case ak == types.KindClosure && xk == types.KindFn:
			info, _ := in.ClosureInfo(a)
			return fcx.Sess.Unify(x, info.Sig) == nil
		}
		return fcx.Sess.Unify(x, a) == nil
	})
}

// unsizeElem relates the pointee of a coerced reference: equal types, or an
// array coerced to a slice of the same element.
func (fcx *FnCtxt) unsizeElem(from, to types.TypeID) bool {
	in := fcx.in
	f, t := fcx.shallow(from), fcx.shallow(to)
	if in.KindOf(f) == types.KindArray && in.KindOf(t) == types.KindSlice {
		return fcx.Sess.Unify(in.Elem(t), in.Elem(f)) == nil
	}
	return fcx.Sess.Unify(to, from) == nil
}

func (fcx *FnCtxt) reportMismatch(span source.Span, expected, found types.TypeID) {
	if fcx.hasError(expected, found) {
		return
	}
	fcx.errorf(diag.TckTypeMismatch, span, "mismatched types").
		WithNote(span, "expected `"+fcx.label(expected)+"`, found `"+fcx.label(found)+"`").
		Emit()
}

// mismatchSpan points at the tail of a block rather than the whole block.
func mismatchSpan(e *hir.Expr) source.Span {
	for {
		d, ok := e.Data.(*hir.BlockData)
		if !ok || d.Tail == nil || d.Label != "" {
			return e.Span
		}
		e = d.Tail
	}
}

// coerceInto adds one incoming value to a CoerceMany site.
func (fcx *FnCtxt) coerceInto(cm *CoerceMany, e *hir.Expr, t types.TypeID) {
	cm.pushed++
	if fcx.kindOf(t) == types.KindNever {
		cm.diverged++
	}
	fcx.demandCoerce(e, t, cm.expected)
}

// coerceUnitInto adds the implicit `()` of a bare `break` or `return`.
func (fcx *FnCtxt) coerceUnitInto(cm *CoerceMany, span source.Span) {
	cm.pushed++
	unit := fcx.builtins().Unit
	if !fcx.tryCoerce(unit, cm.expected) {
		fcx.reportMismatch(span, cm.expected, unit)
	}
}

func (fcx *FnCtxt) checkLit(e *hir.Expr, d *hir.LitData, exp Expectation) types.TypeID {
	b, in := fcx.builtins(), fcx.in
	switch d.Kind {
	case hir.LitBool:
		return b.Bool
	case hir.LitChar:
		return b.Char
	case hir.LitStr:
		return in.Intern(types.MakeRef(b.Str, false))
	case hir.LitInt:
		if d.Suffix != "" {
			return fcx.litSuffix(e, d)
		}
		if t, ok := fcx.resolvedHint(exp); ok {
			switch in.KindOf(t) {
			case types.KindInt, types.KindUint:
				return t
			case types.KindChar:
				return b.U8
			case types.KindPtr, types.KindFn:
				return b.Usize
			case types.KindFloat:
				if exp.kind == expectCastableToType {
					return fcx.Sess.NewVar(types.InferInt, e.Span)
				}
			}
		}
		return fcx.Sess.NewVar(types.InferInt, e.Span)
	case hir.LitFloat:
		if d.Suffix != "" {
			return fcx.litSuffix(e, d)
		}
		if t, ok := fcx.resolvedHint(exp); ok && in.KindOf(t) == types.KindFloat {
			return t
		}
		return fcx.Sess.NewVar(types.InferFloat, e.Span)
	}
	ice.Unreachable("literal kind", d.Kind)
	return b.Error
}

func (fcx *FnCtxt) litSuffix(e *hir.Expr, d *hir.LitData) types.TypeID {
	t, ok := fcx.in.PrimitiveByName(d.Suffix)
	if ok && (d.Kind == hir.LitFloat && fcx.in.IsFloat(t) || d.Kind == hir.LitInt && fcx.in.IsNumeric(t)) {
		return t
	}
	fcx.errorf(diag.TckTypeMismatch, e.Span, "invalid suffix `%s` for number literal", d.Suffix).Emit()
	return fcx.builtins().Error
}

// gatherLocals assigns a type to every `let` of body and of the closures
// and const blocks nested in it, before any expression is checked.
func (fcx *FnCtxt) gatherLocals(body *hir.Body) {
	var visit func(e *hir.Expr)
	visit = func(e *hir.Expr) {
		hir.WalkExpr(e, func(n *hir.Expr) bool {
			switch d := n.Data.(type) {
			case *hir.BlockData:
				for _, s := range d.Stmts {
					if let, ok := s.Data.(*hir.LetData); ok {
						fcx.tables.letTys[let.Pat.ID] = fcx.letType(let)
					}
				}
			case *hir.ClosureData:
				if b := fcx.prog.BodyOf(d.Def); b != nil {
					visit(b.Value)
				}
			case *hir.ConstBlockData:
				if b := fcx.prog.BodyOf(d.Def); b != nil {
					visit(b.Value)
				}
			}
			return true
		})
	}
	visit(body.Value)
}

func (fcx *FnCtxt) letType(let *hir.LetData) types.TypeID {
	if let.Ty != nil {
		return fcx.lowerTy(let.Ty)
	}
	return fcx.freshTy(let.Pat.Span)
}

// checkPat gives p and its bindings the type expected.
func (fcx *FnCtxt) checkPat(p *hir.Pat, expected types.TypeID) {
	if p == nil {
		return
	}
	switch d := p.Data.(type) {
	case *hir.BindingData:
		fcx.declareLocal(p.ID, expected)
		fcx.deferSized(expected, p.Span, infer.CauseVariableSized)
		if d.Sub != nil {
			fcx.checkPat(d.Sub, expected)
		}
		return
	case *hir.PatLitData:
		t := fcx.checkExpr(d.Expr, hasType(expected))
		if !fcx.unify(expected, t) {
			fcx.reportMismatch(p.Span, expected, t)
		}
	case *hir.PatTupleData:
		elems := fcx.tupleElemsFor(p, expected, len(d.Elems))
		for i, el := range d.Elems {
			fcx.checkPat(el, elems[i])
		}
	case *hir.TupleStructData:
		fcx.checkTupleStructPat(p, d, expected)
	case nil:
		if p.Kind == hir.PatErr {
			fcx.Sess.Taint()
		}
	}
	fcx.writeTy(p.ID, expected)
}

// tupleElemsFor returns n element types for a tuple pattern against
// expected, reporting a mismatch when expected is not such a tuple.
func (fcx *FnCtxt) tupleElemsFor(p *hir.Pat, expected types.TypeID, n int) []types.TypeID {
	in := fcx.in
	t := fcx.shallow(expected)
	if in.KindOf(t) == types.KindTuple {
		if elems := in.TupleElems(t); len(elems) == n {
			return elems
		}
	}
	elems := make([]types.TypeID, n)
	for i := range elems {
		elems[i] = fcx.freshTy(p.Span)
	}
	if in.KindOf(t) == types.KindError {
		for i := range elems {
			elems[i] = fcx.builtins().Error
		}
		return elems
	}
	tup := in.RegisterTuple(elems)
	if !fcx.unify(expected, tup) {
		fcx.reportMismatch(p.Span, expected, tup)
		for i := range elems {
			elems[i] = fcx.builtins().Error
		}
	}
	return elems
}

func (fcx *FnCtxt) checkTupleStructPat(p *hir.Pat, d *hir.TupleStructData, expected types.TypeID) {
	errs := func() {
		for _, el := range d.Elems {
			fcx.checkPat(el, fcx.builtins().Error)
		}
	}
	if d.Res.Kind != hir.ResDef {
		if d.Res.Kind == hir.ResErr {
			fcx.Sess.Taint()
		}
		errs()
		return
	}
	u := fcx.prog.Unit(d.Res.Def)
	if u == nil || (u.Kind != hir.DefStruct && u.Kind != hir.DefVariant) || u.Ctor != hir.CtorFn {
		b := fcx.errorf(diag.TckExpectedTupleStruct, p.Span, "expected tuple struct or tuple variant, found %s", fcx.resDescr(d.Res.Def))
		if u != nil && u.Kind.IsFnLike() {
			b.WithNote(p.Span, "`fn` calls are not allowed in patterns").
				WithNote(p.Span, "for more information, visit https://doc.rust-lang.org/book/ch18-00-patterns.html")
		}
		b.Emit()
		errs()
		return
	}
	sig, _ := fcx.provider().CtorSig(u.ID)
	args := fcx.freshGenericArgs(adtOf(u), p.Span)
	info, _ := fcx.in.FnInfo(fcx.in.SubstParams(sig, args))
	if !fcx.unify(expected, info.Result) {
		fcx.reportMismatch(p.Span, expected, info.Result)
	}
	if len(d.Elems) != len(info.Params) {
		what := "struct"
		if u.Kind == hir.DefVariant {
			what = "variant"
		}
		fcx.errorf(diag.TckPatternArity, p.Span, "this pattern has %d field%s, but the corresponding tuple %s has %d field%s",
			len(d.Elems), plural(len(d.Elems)), what, len(info.Params), plural(len(info.Params))).Emit()
		errs()
		return
	}
	for i, el := range d.Elems {
		fcx.checkPat(el, info.Params[i])
	}
}

// resDescr names a definition for diagnostics, e.g. "unit struct `S`".
func (fcx *FnCtxt) resDescr(def hir.DefID) string {
	u := fcx.prog.Unit(def)
	if u == nil {
		return "item"
	}
	descr := u.Kind.Descr()
	switch u.Kind {
	case hir.DefStruct:
		switch u.Ctor {
		case hir.CtorConst:
			descr = "unit struct"
		case hir.CtorFn:
			descr = "tuple struct"
		}
	case hir.DefVariant:
		switch u.Ctor {
		case hir.CtorConst:
			descr = "unit variant"
		case hir.CtorFn:
			descr = "tuple variant"
		default:
			descr = "struct variant"
		}
	}
	return descr + " `" + fcx.prog.Name(def) + "`"
}

// adtOf is the definition whose generics a struct or variant uses.
func adtOf(u *hir.Unit) hir.DefID {
	if u.Kind == hir.DefVariant {
		return u.Parent
	}
	return u.ID
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
