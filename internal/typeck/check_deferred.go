package typeck

import (
	"errors"
	"fmt"

	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/layout"
	"typeck/internal/source"
	"typeck/internal/types"
)

// checkCasts classifies every `as` expression of the run. It runs after
// fallback so that `1 as f64` sees `i32` rather than an integer variable.
func (fcx *FnCtxt) checkCasts() int {
	checks := fcx.Sess.TakeDeferredCasts()
	for _, cc := range checks {
		fcx.tables.casts[cc.Expr] = fcx.classifyCast(cc.From, cc.To, cc.Span, cc.ExprSpan)
	}
	return len(checks)
}

func (fcx *FnCtxt) classifyCast(fromTy, toTy types.TypeID, span, exprSpan source.Span) CastKind {
	in := fcx.in
	from, to := fcx.Sess.Resolve(fromTy), fcx.Sess.Resolve(toTy)
	if in.HasError(from) || in.HasError(to) {
		return CastInvalid
	}
	if in.HasInfer(from) || in.HasInfer(to) {
		fcx.errorf(diag.TckAnnotationsNeeded, exprSpan, "type annotations needed").
			WithNote(span, "type must be known at this point").
			Emit()
		return CastInvalid
	}
	if from == to {
		return CastIdentity
	}
	fk, tk := in.KindOf(from), in.KindOf(to)
	switch {
	case in.IsNumeric(from) && in.IsNumeric(to):
		return CastNumeric
	case fk == types.KindBool && in.IsIntegral(to):
		return CastBoolToInt
	case fk == types.KindChar && in.IsIntegral(to):
		return CastCharToInt
	case in.IsIntegral(from) && tk == types.KindChar:
		if from == fcx.builtins().U8 {
			return CastU8ToChar
		}
		fcx.errorf(diag.TckInvalidCast, span, "only `u8` can be cast as `char`, not `%s`", fcx.label(from)).Emit()
		return CastInvalid
	case fcx.isFieldlessEnum(from) && in.IsIntegral(to):
		return CastEnumToInt
	case fk == types.KindPtr && tk == types.KindPtr:
		return CastPtrToPtr
	case fk == types.KindPtr && in.IsIntegral(to):
		return CastPtrToAddr
	case in.IsIntegral(from) && tk == types.KindPtr:
		return CastAddrToPtr
	case fk == types.KindRef && tk == types.KindPtr:
		if fcx.tryCoerce(from, to) || fcx.arrayRefToPtr(from, to) {
			return CastRefToPtr
		}
	case fk == types.KindFn && (tk == types.KindPtr || in.IsIntegral(to)):
		return CastFnPtr
	}
	if fcx.tryCoerce(from, to) {
		return CastIdentity
	}
	if tk == types.KindBool && in.IsNumeric(from) {
		fcx.errorf(diag.TckInvalidCast, span, "cannot cast `%s` as `bool`", fcx.label(from)).
			WithNote(span, "compare with zero instead").
			Emit()
		return CastInvalid
	}
	if !in.IsScalar(to) || (!in.IsScalar(from) && fk != types.KindRef) {
		fcx.errorf(diag.TckNonPrimitiveCast, span, "non-primitive cast: `%s` as `%s`", fcx.label(from), fcx.label(to)).
			WithNote(span, "an `as` expression can only be used to convert between primitive types or to coerce to a specific trait object").
			Emit()
		return CastInvalid
	}
	fcx.errorf(diag.TckInvalidCast, span, "casting `%s` as `%s` is invalid", fcx.label(from), fcx.label(to)).Emit()
	return CastInvalid
}

// arrayRefToPtr accepts `&[T; N] as *const T`.
func (fcx *FnCtxt) arrayRefToPtr(from, to types.TypeID) bool {
	in := fcx.in
	rt, _ := in.Lookup(from)
	pt, _ := in.Lookup(to)
	if in.KindOf(rt.Elem) != types.KindArray || (pt.Mutable && !rt.Mutable) {
		return false
	}
	return fcx.unify(pt.Elem, in.Elem(rt.Elem))
}

func (fcx *FnCtxt) isFieldlessEnum(t types.TypeID) bool {
	info, ok := fcx.in.AdtInfo(t)
	if !ok {
		return false
	}
	u := fcx.prog.Unit(hir.DefID(info.Def))
	if u == nil || u.Kind != hir.DefEnum {
		return false
	}
	for _, v := range u.Variants {
		if vu := fcx.prog.Unit(v); vu == nil || len(vu.Fields) > 0 {
			return false
		}
	}
	return true
}

// checkTransmutes compares the sizes of every transmute of the run.
func (fcx *FnCtxt) checkTransmutes() int {
	checks := fcx.Sess.TakeDeferredTransmutes()
	in := fcx.in
	for _, tc := range checks {
		from, to := fcx.Sess.Resolve(tc.From), fcx.Sess.Resolve(tc.To)
		if in.HasError(from) || in.HasError(to) || in.HasInfer(from) || in.HasInfer(to) || from == to {
			continue
		}
		fs, ferr := fcx.cx.Layout.SizeOf(from)
		ts, terr := fcx.cx.Layout.SizeOf(to)
		if ferr == nil && terr == nil && fs == ts {
			continue
		}
		fcx.errorf(diag.TckTransmuteSize, tc.Span,
			"cannot transmute between types of different sizes, or dependently-sized types").
			WithNote(tc.Span, "source type: `"+fcx.label(from)+"` "+sizeNote(fs, ferr)).
			WithNote(tc.Span, "target type: `"+fcx.label(to)+"` "+sizeNote(ts, terr)).
			Emit()
	}
	return len(checks)
}

func sizeNote(size int, err error) string {
	if err == nil {
		return fmt.Sprintf("(%d bits)", size*8)
	}
	var le *layout.LayoutError
	if errors.As(err, &le) && le.Kind == layout.LayoutErrGeneric {
		return "(this type does not have a fixed size)"
	}
	return fmt.Sprintf("(%v)", err)
}

// checkAsms validates the operand types of every inline-asm expression.
func (fcx *FnCtxt) checkAsms() int {
	checks := fcx.Sess.TakeDeferredAsms()
	for _, ac := range checks {
		e := fcx.prog.Expr(ac.Asm)
		d, ok := e.Data.(*hir.InlineAsmData)
		if !ok || ac.Operand >= len(d.Operands) {
			continue
		}
		op := d.Operands[ac.Operand]
		switch ac.Kind {
		case hir.AsmIn, hir.AsmOut, hir.AsmInOut:
			fcx.checkAsmValue(ac.Ty, ac.Span)
		case hir.AsmConst:
			fcx.checkAsmConst(op)
		case hir.AsmSymFn:
			fcx.checkAsmSym(op)
		}
	}
	return len(checks)
}

func (fcx *FnCtxt) checkAsmValue(ty types.TypeID, span source.Span) {
	in := fcx.in
	t := fcx.Sess.Resolve(ty)
	if in.HasError(t) {
		return
	}
	if in.HasInfer(t) {
		fcx.errorf(diag.TckAnnotationsNeeded, span, "type annotations needed").
			WithNote(span, "type must be known at this point").
			Emit()
		return
	}
	tt, _ := in.Lookup(t)
	switch tt.Kind {
	case types.KindInt, types.KindUint, types.KindFloat:
		if tt.Width != types.Width128 {
			return
		}
	case types.KindPtr, types.KindFn:
		return
	}
	fcx.errorf(diag.TckAsmOperand, span, "cannot use value of type `%s` for inline assembly", fcx.label(t)).
		WithNote(span, "only integers, floats, SIMD vectors, pointers and function pointers can be used as arguments for inline assembly").
		Emit()
}

func (fcx *FnCtxt) checkAsmConst(op hir.AsmOperand) {
	t := fcx.cx.Typeck(op.Const).ValueType()
	if fcx.in.IsIntegral(t) || fcx.in.HasError(t) {
		return
	}
	fcx.errorf(diag.TckAsmOperand, op.Span, "invalid type for `const` operand").
		WithNote(op.Span, "is `"+types.Label(fcx.in, t)+"`").
		WithNote(op.Span, "`const` operands must be of an integer type").
		Emit()
}

func (fcx *FnCtxt) checkAsmSym(op hir.AsmOperand) {
	body := fcx.prog.BodyOf(op.Const)
	if body == nil {
		return
	}
	value := body.Value
	for {
		d, ok := value.Data.(*hir.BlockData)
		if !ok || len(d.Stmts) > 0 || d.Tail == nil {
			break
		}
		value = d.Tail
	}
	descr := "expression"
	if p, ok := value.Data.(*hir.PathData); ok {
		switch p.Res.Kind {
		case hir.ResErr:
			return
		case hir.ResDef:
			if u := fcx.prog.Unit(p.Res.Def); u != nil {
				if u.Kind.IsFnLike() || u.Kind == hir.DefStatic {
					return
				}
				descr = u.Kind.Descr()
			}
		case hir.ResLocal:
			descr = "local variable"
		}
	}
	fcx.errorf(diag.TckAsmSymbol, op.Span, "invalid `sym` operand").
		WithNote(value.Span, "is a `"+descr+"`").
		WithNote(op.Span, "`sym` operands must refer to either a function or a static").
		Emit()
}

// resolveRvalueScopes assigns a scope to the temporary of every `&expr`
// whose operand is not a place. Temporaries in the initializer of a `let`,
// reached through tuples, arrays, struct literals, casts and block tails,
// live until the end of the enclosing block; all others until the end of
// their statement.
func (fcx *FnCtxt) resolveRvalueScopes(body *hir.Body) int {
	n := 0
	var walk func(e *hir.Expr, stmt, extend hir.NodeID)
	walk = func(e *hir.Expr, stmt, extend hir.NodeID) {
		if e == nil {
			return
		}
		switch d := e.Data.(type) {
		case *hir.AddrOfData:
			if !fcx.isPlaceExpr(d.Expr) {
				scope := stmt
				if extend.IsValid() {
					scope = extend
				}
				fcx.Sess.SetRvalueScope(d.Expr.ID, scope)
				n++
			}
			walk(d.Expr, stmt, extend)
		case *hir.TupleData:
			for _, x := range d.Elems {
				walk(x, stmt, extend)
			}
		case *hir.ArrayData:
			for _, x := range d.Elems {
				walk(x, stmt, extend)
			}
		case *hir.StructData:
			for _, f := range d.Fields {
				walk(f.Value, stmt, extend)
			}
		case *hir.CastData:
			walk(d.Expr, stmt, extend)
		case *hir.BlockData:
			for _, s := range d.Stmts {
				switch sd := s.Data.(type) {
				case *hir.LetData:
					if sd.Init != nil {
						walk(sd.Init, sd.Init.ID, e.ID)
					}
				case *hir.ExprStmtData:
					walk(sd.Expr, sd.Expr.ID, hir.NoNodeID)
				}
			}
			walk(d.Tail, stmt, extend)
		case *hir.ClosureData:
			if b := fcx.prog.BodyOf(d.Def); b != nil {
				walk(b.Value, b.Value.ID, hir.NoNodeID)
			}
		case *hir.ConstBlockData:
			if b := fcx.prog.BodyOf(d.Def); b != nil {
				walk(b.Value, b.Value.ID, hir.NoNodeID)
			}
		default:
			for _, c := range hir.ExprChildren(e) {
				walk(c, stmt, hir.NoNodeID)
			}
		}
	}
	walk(body.Value, body.Value.ID, hir.NoNodeID)
	return n
}

// resolveGeneratorInteriors computes, for each coroutine, the tuple of the
// types of the `let` bindings introduced before its last `yield`.
func (fcx *FnCtxt) resolveGeneratorInteriors() int {
	pending := fcx.Sess.TakeDeferredInteriors()
	for _, ci := range pending {
		var bound []*hir.Pat
		live := 0
		var walk func(e *hir.Expr)
		walk = func(e *hir.Expr) {
			if e == nil {
				return
			}
			switch d := e.Data.(type) {
			case *hir.BlockData:
				for _, s := range d.Stmts {
					switch sd := s.Data.(type) {
					case *hir.LetData:
						walk(sd.Init)
						sd.Pat.Bindings(func(p *hir.Pat, _ *hir.BindingData) { bound = append(bound, p) })
					case *hir.ExprStmtData:
						walk(sd.Expr)
					}
				}
				walk(d.Tail)
			case *hir.YieldData:
				walk(d.Value)
				live = len(bound)
			default:
				for _, c := range hir.ExprChildren(e) {
					walk(c)
				}
			}
		}
		walk(ci.Body.Value)

		seen := make(map[types.TypeID]struct{})
		var elems []types.TypeID
		for _, p := range bound[:live] {
			lt, ok := fcx.tables.locals[p.ID]
			if !ok {
				continue
			}
			t := fcx.Sess.Resolve(lt.Decl)
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			elems = append(elems, t)
		}
		fcx.unify(ci.Ty, fcx.in.RegisterTuple(elems))
	}
	return len(pending)
}
