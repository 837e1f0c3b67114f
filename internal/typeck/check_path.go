package typeck

import (
	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/infer"
	"typeck/internal/source"
	"typeck/internal/types"
)

func (fcx *FnCtxt) checkPath(e *hir.Expr, d *hir.PathData) types.TypeID {
	b := fcx.builtins()
	switch d.Res.Kind {
	case hir.ResErr:
		fcx.Sess.Taint()
		return b.Error
	case hir.ResLocal:
		return fcx.LocalTy(d.Res.Local).Revealed
	case hir.ResPrim:
		fcx.errorf(diag.TckExpectedValue, e.Span, "expected value, found builtin type `%s`", d.Res.Prim).Emit()
		return b.Error
	case hir.ResSelfTy:
		fcx.errorf(diag.TckExpectedValue, e.Span, "expected value, found self type `Self`").Emit()
		return b.Error
	}
	return fcx.instantiateValuePath(e, d)
}

func (fcx *FnCtxt) instantiateValuePath(e *hir.Expr, d *hir.PathData) types.TypeID {
	b, in := fcx.builtins(), fcx.in
	u := fcx.prog.Unit(d.Res.Def)
	if u == nil {
		fcx.Sess.Taint()
		return b.Error
	}
	switch u.Kind {
	case hir.DefFn, hir.DefAssocFn, hir.DefTraitFn:
		return fcx.instantiateFn(u, d.Args, e.Span)
	case hir.DefConst, hir.DefAssocConst, hir.DefTraitConst, hir.DefStatic:
		args := fcx.freshGenericArgs(u.ID, e.Span)
		t := in.SubstParams(fcx.provider().TypeOf(u.ID), args)
		if u.Kind == hir.DefTraitConst {
			t = fcx.instantiateTraitSelf(u, t, args, e.Span)
		}
		return fcx.normalize(t, e.Span)
	case hir.DefConstParam:
		return fcx.provider().TypeOf(u.ID)
	case hir.DefStruct, hir.DefVariant:
		switch u.Ctor {
		case hir.CtorFn:
			sig, _ := fcx.provider().CtorSig(u.ID)
			return in.SubstParams(sig, fcx.freshGenericArgs(adtOf(u), e.Span))
		case hir.CtorConst:
			return in.SubstParams(fcx.provider().TypeOf(u.ID), fcx.freshGenericArgs(adtOf(u), e.Span))
		}
	}
	fcx.errorf(diag.TckExpectedValue, e.Span, "expected value, found %s", fcx.resDescr(u.ID)).Emit()
	return b.Error
}

// instantiateFn returns the signature of a function item with fresh
// variables for its generic parameters, or the explicit arguments written
// at the use site.
func (fcx *FnCtxt) instantiateFn(u *hir.Unit, explicit []*hir.Ty, span source.Span) types.TypeID {
	params := fcx.genericParams(u.ID)
	args := fcx.freshArgsFor(params, span)
	own := 0
	if u.Generics != nil {
		own = len(u.Generics.Params)
	}
	if len(explicit) > 0 {
		if len(explicit) != own {
			fcx.errorf(diag.TckGenericArgCount, span, "function takes %d generic argument%s but %d generic argument%s supplied",
				own, plural(own), len(explicit), wasWere(len(explicit))).Emit()
		} else {
			base := len(params) - own
			for i, t := range explicit {
				if fcx.prog.MustUnit(params[base+i]).Kind == hir.DefTypeParam {
					args[base+i] = fcx.lowerTy(t)
				}
			}
		}
	}
	sig := fcx.in.SubstParams(fcx.provider().FnSig(u.ID), args)
	if u.Kind == hir.DefTraitFn {
		sig = fcx.instantiateTraitSelf(u, sig, args, span)
	} else {
		fcx.instantiatePredicates(u.ID, args, types.NoTypeID, span)
	}
	return fcx.normalize(sig, span)
}

// instantiateTraitSelf replaces the `Self` of a trait item used through a
// path with a fresh variable that must implement the trait.
func (fcx *FnCtxt) instantiateTraitSelf(u *hir.Unit, t types.TypeID, args []types.TypeID, span source.Span) types.TypeID {
	self := fcx.freshTy(span)
	fcx.instantiatePredicates(u.ID, args, self, span)
	return fcx.in.SubstSelf(t, self)
}

// instantiatePredicates registers the where-clauses of def for one use,
// with generic parameters replaced by args and `Self` by self when set.
func (fcx *FnCtxt) instantiatePredicates(def hir.DefID, args []types.TypeID, self types.TypeID, span source.Span) {
	in := fcx.in
	subst := func(t types.TypeID) types.TypeID {
		t = in.SubstParams(t, args)
		if self != types.NoTypeID {
			t = in.SubstSelf(t, self)
		}
		return t
	}
	for _, p := range fcx.provider().ParamEnv(def).Caller {
		o := infer.Obligation{
			Kind:  infer.ObTrait,
			Self:  subst(p.Self),
			Trait: p.Trait,
			Span:  span,
			Cause: infer.CauseWhereClause,
		}
		for _, a := range p.Args {
			o.Args = append(o.Args, subst(a))
		}
		if p.Assoc != "" {
			o.Kind = infer.ObProjectionEq
			o.Assoc = p.Assoc
			o.Ty = subst(p.AssocTy)
		}
		fcx.register(o)
	}
}

// genericParams lists the generic parameter definitions in scope of def,
// inherited ones first, in index order.
func (fcx *FnCtxt) genericParams(def hir.DefID) []hir.DefID {
	u := fcx.prog.Unit(def)
	if u == nil {
		return nil
	}
	var out []hir.DefID
	if p := fcx.prog.Unit(u.Parent); p != nil && (p.Kind == hir.DefImpl || p.Kind == hir.DefTrait) && p.Generics != nil {
		out = append(out, p.Generics.Params...)
	}
	if u.Generics != nil {
		out = append(out, u.Generics.Params...)
	}
	return out
}

// freshArgsFor instantiates params: type parameters get fresh variables,
// const parameters their declared type.
func (fcx *FnCtxt) freshArgsFor(params []hir.DefID, span source.Span) []types.TypeID {
	args := make([]types.TypeID, len(params))
	for i, p := range params {
		if fcx.prog.MustUnit(p).Kind == hir.DefConstParam {
			args[i] = fcx.provider().TypeOf(p)
			continue
		}
		args[i] = fcx.freshTy(span)
	}
	return args
}

func (fcx *FnCtxt) freshGenericArgs(def hir.DefID, span source.Span) []types.TypeID {
	return fcx.freshArgsFor(fcx.genericParams(def), span)
}

func wasWere(n int) string {
	if n == 1 {
		return "was"
	}
	return "were"
}
