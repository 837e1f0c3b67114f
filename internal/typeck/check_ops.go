package typeck

import (
	"fmt"
	"strconv"
	"strings"

	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/infer"
	"typeck/internal/types"
)

func (fcx *FnCtxt) checkCast(e *hir.Expr, d *hir.CastData) types.TypeID {
	to := fcx.lowerTy(d.Ty)
	from := fcx.checkExpr(d.Expr, castableTo(to))
	fcx.Sess.DeferCast(infer.CastCheck{
		Expr:     e.ID,
		From:     from,
		To:       to,
		Span:     e.Span,
		ExprSpan: d.Expr.Span,
	})
	return to
}

func (fcx *FnCtxt) checkBinary(e *hir.Expr, d *hir.BinaryData) types.TypeID {
	b := fcx.builtins()
	if d.Op.IsLazy() {
		fcx.checkExprCoercibleTo(d.Lhs, b.Bool)
		fcx.checkExprCoercibleTo(d.Rhs, b.Bool)
		return b.Bool
	}
	lt := fcx.checkExpr(d.Lhs, noExpectation)
	var rt types.TypeID
	if d.Op.IsComparison() || !d.Op.IsShift() && fcx.in.IsNumeric(fcx.shallow(lt)) {
		rt = fcx.checkExpr(d.Rhs, hasType(lt))
	} else {
		rt = fcx.checkExpr(d.Rhs, noExpectation)
	}
	return fcx.checkBinopTypes(e, d.Op, lt, rt, false)
}

// checkBinopTypes computes the result of `l op r` for the builtin
// operators.
func (fcx *FnCtxt) checkBinopTypes(e *hir.Expr, op hir.BinOp, lt, rt types.TypeID, assign bool) types.TypeID {
	b, in := fcx.builtins(), fcx.in
	l, r := fcx.shallow(lt), fcx.shallow(rt)
	result := l
	if op.IsComparison() {
		result = b.Bool
	}
	if fcx.hasError(l, r) {
		return result
	}
	lk := in.KindOf(l)
	switch {
	case op.IsShift():
		if in.IsIntegral(l) && in.IsIntegral(r) {
			return l
		}
	case op.IsComparison():
		if fcx.comparable(l) && fcx.unify(l, r) {
			return b.Bool
		}
		if fcx.comparable(l) && fcx.comparable(r) {
			fcx.reportMismatch(e.Span, l, r)
			return b.Bool
		}
	case op == hir.BinBitAnd || op == hir.BinBitOr || op == hir.BinBitXor:
		if (lk == types.KindBool || in.IsIntegral(l)) && fcx.unify(l, r) {
			return l
		}
	default:
		if lk == types.KindInfer && fcx.Sess.VarKind(l) == types.InferTy && in.IsNumeric(r) && fcx.unify(l, r) {
			return r
		}
		if in.IsNumeric(l) && in.IsNumeric(r) {
			if fcx.unify(l, r) {
				return l
			}
			fcx.reportMismatch(e.Span, l, r)
			return l
		}
	}
	fcx.errorf(diag.TckBinOp, e.Span, "%s", binopMessage(op, fcx.label(l), fcx.label(r), assign)).Emit()
	return fcx.builtins().Error
}

// comparable reports types with a builtin `==` and `<`.
func (fcx *FnCtxt) comparable(t types.TypeID) bool {
	in := fcx.in
	switch in.KindOf(t) {
	case types.KindBool, types.KindChar, types.KindInt, types.KindUint, types.KindFloat, types.KindPtr, types.KindInfer:
		return true
	case types.KindRef:
		return in.KindOf(fcx.shallow(in.Elem(t))) == types.KindStr
	case types.KindTuple:
		return in.IsUnit(t)
	}
	return false
}

func binopMessage(op hir.BinOp, l, r string, assign bool) string {
	if assign {
		return fmt.Sprintf("binary assignment operation `%s=` cannot be applied to type `%s`", op, l)
	}
	switch op {
	case hir.BinAdd:
		return fmt.Sprintf("cannot add `%s` to `%s`", r, l)
	case hir.BinSub:
		return fmt.Sprintf("cannot subtract `%s` from `%s`", r, l)
	case hir.BinMul:
		return fmt.Sprintf("cannot multiply `%s` by `%s`", l, r)
	case hir.BinDiv:
		return fmt.Sprintf("cannot divide `%s` by `%s`", l, r)
	case hir.BinRem:
		return fmt.Sprintf("cannot calculate the remainder of `%s` divided by `%s`", l, r)
	}
	if op.IsComparison() {
		return fmt.Sprintf("binary operation `%s` cannot be applied to type `%s`", op, l)
	}
	return fmt.Sprintf("no implementation for `%s %s %s`", l, op, r)
}

func (fcx *FnCtxt) checkUnary(e *hir.Expr, d *hir.UnaryData, exp Expectation, needs Needs) types.TypeID {
	in := fcx.in
	if d.Op == hir.UnDeref {
		t := fcx.shallow(fcx.checkExprNeeds(d.Operand, noExpectation, needs))
		switch in.KindOf(t) {
		case types.KindRef, types.KindPtr:
			fcx.tables.placeOps[e.ID] = PlaceOp{Op: PlaceDeref, Mutable: needs == NeedsMutPlace}
			return in.Elem(t)
		case types.KindError:
			return t
		}
		fcx.errorf(diag.TckDeref, e.Span, "type `%s` cannot be dereferenced", fcx.label(t)).Emit()
		return fcx.builtins().Error
	}
	operandExp := noExpectation
	if h, ok := fcx.resolvedHint(exp); ok && in.IsNumeric(h) {
		operandExp = hasType(h)
	}
	t := fcx.shallow(fcx.checkExpr(d.Operand, operandExp))
	if fcx.hasError(t) {
		return t
	}
	k := in.KindOf(t)
	switch d.Op {
	case hir.UnNeg:
		if k == types.KindInt || k == types.KindFloat || k == types.KindInfer && in.IsNumeric(t) {
			return t
		}
		b := fcx.errorf(diag.TckUnaryOp, e.Span, "cannot apply unary operator `-` to type `%s`", fcx.label(t))
		if k == types.KindUint {
			b.WithNote(e.Span, "unsigned values cannot be negated")
		}
		b.Emit()
	case hir.UnNot:
		if k == types.KindBool || in.IsIntegral(t) {
			return t
		}
		fcx.errorf(diag.TckUnaryOp, e.Span, "cannot apply unary operator `!` to type `%s`", fcx.label(t)).Emit()
	}
	return fcx.builtins().Error
}

// isPlaceExpr reports expressions that denote a memory location.
func (fcx *FnCtxt) isPlaceExpr(e *hir.Expr) bool {
	switch d := e.Data.(type) {
	case *hir.PathData:
		if d.Res.Kind == hir.ResLocal {
			return true
		}
		if d.Res.Kind == hir.ResDef {
			u := fcx.prog.Unit(d.Res.Def)
			return u != nil && u.Kind == hir.DefStatic
		}
		return d.Res.Kind == hir.ResErr
	case *hir.FieldData, *hir.IndexData:
		return true
	case *hir.UnaryData:
		return d.Op == hir.UnDeref
	case *hir.ErrData:
		return true
	}
	return false
}

func (fcx *FnCtxt) checkAssign(e *hir.Expr, d *hir.AssignData) types.TypeID {
	if !fcx.isPlaceExpr(d.Lhs) {
		fcx.errorf(diag.TckInvalidAssignTarget, d.Lhs.Span, "invalid left-hand side of assignment").
			WithNote(d.Lhs.Span, "cannot assign to this expression").
			Emit()
	}
	lt := fcx.checkExprNeeds(d.Lhs, noExpectation, NeedsMutPlace)
	if d.Compound {
		var rt types.TypeID
		if d.Op.IsShift() {
			rt = fcx.checkExpr(d.Rhs, noExpectation)
		} else {
			rt = fcx.checkExpr(d.Rhs, hasType(lt))
		}
		fcx.checkBinopTypes(e, d.Op, lt, rt, true)
	} else {
		fcx.checkExprCoercibleTo(d.Rhs, lt)
	}
	return fcx.builtins().Unit
}

func (fcx *FnCtxt) checkAddrOf(d *hir.AddrOfData, exp Expectation) types.TypeID {
	in := fcx.in
	inner := noExpectation
	if h, ok := fcx.resolvedHint(exp); ok && in.KindOf(h) == types.KindRef {
		elem := fcx.shallow(in.Elem(h))
		// &[T; N] coerces to &[T] later; do not push the slice down.
		if in.KindOf(elem) != types.KindSlice && in.KindOf(elem) != types.KindStr {
			inner = hasType(elem)
		}
	}
	needs := NeedsNone
	if d.Mutable {
		needs = NeedsMutPlace
	}
	t := fcx.checkExprNeeds(d.Expr, inner, needs)
	return in.Intern(types.MakeRef(t, d.Mutable))
}

// autoderefSteps lists t followed by the targets of successive reference
// dereferences.
func (fcx *FnCtxt) autoderefSteps(t types.TypeID) []types.TypeID {
	const limit = 8
	steps := []types.TypeID{t}
	cur := fcx.shallow(t)
	for range limit {
		if fcx.in.KindOf(cur) != types.KindRef {
			break
		}
		cur = fcx.shallow(fcx.in.Elem(cur))
		steps = append(steps, cur)
	}
	return steps
}

func (fcx *FnCtxt) checkIndex(e *hir.Expr, d *hir.IndexData, needs Needs) types.TypeID {
	in, b := fcx.in, fcx.builtins()
	base := fcx.checkExprNeeds(d.Base, noExpectation, needs)
	idx := fcx.checkExpr(d.Index, hasType(b.Usize))
	for _, st := range fcx.autoderefSteps(base) {
		s := fcx.shallow(st)
		switch in.KindOf(s) {
		case types.KindArray, types.KindSlice:
			fcx.demandCoerce(d.Index, idx, b.Usize)
			fcx.tables.placeOps[e.ID] = PlaceOp{Op: PlaceIndex, Mutable: needs == NeedsMutPlace}
			return in.Elem(s)
		case types.KindError:
			return b.Error
		}
	}
	fcx.errorf(diag.TckNotIndexable, e.Span, "cannot index into a value of type `%s`", fcx.label(base)).Emit()
	return b.Error
}

func (fcx *FnCtxt) checkField(e *hir.Expr, d *hir.FieldData, needs Needs) types.TypeID {
	in, b := fcx.in, fcx.builtins()
	base := fcx.checkExprNeeds(d.Base, noExpectation, needs)
	for _, st := range fcx.autoderefSteps(base) {
		s := fcx.shallow(st)
		switch in.KindOf(s) {
		case types.KindAdt:
			info, _ := in.AdtInfo(s)
			u := fcx.prog.Unit(hir.DefID(info.Def))
			if u == nil || u.Kind != hir.DefStruct {
				continue
			}
			for i, f := range u.Fields {
				if f.Name == d.Name {
					ft := fcx.provider().FieldTypes(u.ID)[i]
					return fcx.normalize(in.SubstParams(ft, info.Args), e.Span)
				}
			}
		case types.KindTuple:
			elems := in.TupleElems(s)
			if i, err := strconv.Atoi(d.Name); err == nil && i >= 0 && i < len(elems) {
				return elems[i]
			}
		case types.KindError:
			return b.Error
		case types.KindInfer:
			fcx.errorf(diag.TckAnnotationsNeeded, d.Base.Span, "type annotations needed").
				WithNote(d.Base.Span, "type must be known at this point").
				Emit()
			return b.Error
		}
	}
	fcx.errorf(diag.TckNoField, e.Span, "no field `%s` on type `%s`", d.Name, fcx.label(base)).Emit()
	return b.Error
}

func (fcx *FnCtxt) checkStructLit(e *hir.Expr, d *hir.StructData, exp Expectation) types.TypeID {
	in, b := fcx.in, fcx.builtins()
	checkRest := func() types.TypeID {
		for _, f := range d.Fields {
			fcx.checkExpr(f.Value, noExpectation)
		}
		return b.Error
	}
	path, _ := d.Path.Data.(*hir.PathData)
	if path == nil || path.Res.Kind != hir.ResDef {
		fcx.Sess.Taint()
		return checkRest()
	}
	u := fcx.prog.Unit(path.Res.Def)
	if u == nil || (u.Kind != hir.DefStruct && u.Kind != hir.DefVariant) {
		fcx.errorf(diag.TckExpectedValue, d.Path.Span, "expected struct, variant or union type, found %s", fcx.resDescr(path.Res.Def)).Emit()
		return checkRest()
	}
	args := fcx.freshGenericArgs(adtOf(u), e.Span)
	ty := in.SubstParams(fcx.provider().TypeOf(u.ID), args)
	fcx.writeTy(d.Path.ID, ty)
	if h, ok := exp.onlyHasType(); ok {
		fcx.unify(h, ty)
	}
	fieldTys := fcx.provider().FieldTypes(u.ID)
	seen := make([]bool, len(u.Fields))
	for _, init := range d.Fields {
		idx := -1
		for i, f := range u.Fields {
			if f.Name == init.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			fcx.errorf(diag.TckNoField, init.Span, "%s has no field named `%s`", fcx.resDescr(u.ID), init.Name).Emit()
			fcx.checkExpr(init.Value, noExpectation)
			continue
		}
		if seen[idx] {
			fcx.errorf(diag.TckNoField, init.Span, "field `%s` specified more than once", init.Name).Emit()
		}
		seen[idx] = true
		ft := fcx.normalize(in.SubstParams(fieldTys[idx], args), init.Span)
		fcx.checkExprCoercibleTo(init.Value, ft)
	}
	var missing []string
	for i, f := range u.Fields {
		if !seen[i] {
			missing = append(missing, "`"+f.Name+"`")
		}
	}
	if len(missing) > 0 {
		fcx.errorf(diag.TckMissingField, e.Span, "missing field%s %s in initializer of `%s`",
			plural(len(missing)), joinNames(missing), fcx.prog.Name(adtOf(u))).Emit()
	}
	return ty
}

// joinNames renders a, b and c.
func joinNames(names []string) string {
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

func (fcx *FnCtxt) elemHint(exp Expectation) Expectation {
	h, ok := fcx.resolvedHint(exp)
	if !ok {
		return noExpectation
	}
	switch fcx.in.KindOf(h) {
	case types.KindArray, types.KindSlice:
		return hasType(fcx.in.Elem(h))
	}
	return noExpectation
}

func (fcx *FnCtxt) checkArray(e *hir.Expr, d *hir.ArrayData, exp Expectation) types.TypeID {
	target, ok := fcx.elemHint(exp).onlyHasType()
	if !ok {
		target = fcx.freshTy(e.Span)
	}
	cm := NewCoerceMany(target)
	for _, el := range d.Elems {
		t := fcx.checkExpr(el, hasType(cm.Expected()))
		fcx.coerceInto(cm, el, t)
	}
	return fcx.in.Intern(types.MakeArray(cm.Expected(), uint32(len(d.Elems))))
}

func (fcx *FnCtxt) checkTuple(d *hir.TupleData, exp Expectation) types.TypeID {
	var hints []types.TypeID
	if h, ok := fcx.resolvedHint(exp); ok && fcx.in.KindOf(h) == types.KindTuple {
		hints = fcx.in.TupleElems(h)
	}
	elems := make([]types.TypeID, len(d.Elems))
	for i, el := range d.Elems {
		if i < len(hints) && len(hints) == len(d.Elems) {
			elems[i] = fcx.checkExpr(el, hasType(hints[i]))
			continue
		}
		elems[i] = fcx.checkExpr(el, noExpectation)
	}
	return fcx.in.RegisterTuple(elems)
}

func (fcx *FnCtxt) checkRepeat(e *hir.Expr, d *hir.RepeatData, exp Expectation) types.TypeID {
	et := fcx.checkExpr(d.Elem, fcx.elemHint(exp))
	value, generic, ok := fcx.provider().EvalConst(d.Count)
	if !ok {
		fcx.Sess.Taint()
		return fcx.builtins().Error
	}
	count := uint32(value)
	if generic {
		count = types.GenericLen
	}
	if count > 1 && !isConstPath(fcx.prog, d.Elem) {
		fcx.register(infer.Obligation{
			Kind:  infer.ObTrait,
			Self:  et,
			Trait: fcx.prog.Lang.Copy,
			Span:  d.Elem.Span,
			Cause: infer.CauseMisc,
		})
	}
	return fcx.in.Intern(types.MakeArray(et, count))
}

// isConstPath reports a path to a constant item, which may be repeated
// without being Copy.
func isConstPath(prog *hir.Program, e *hir.Expr) bool {
	p, ok := e.Data.(*hir.PathData)
	if !ok || p.Res.Kind != hir.ResDef {
		return false
	}
	u := prog.Unit(p.Res.Def)
	return u != nil && (u.Kind == hir.DefConst || u.Kind == hir.DefAssocConst)
}
