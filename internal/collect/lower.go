package collect

import (
	"fmt"

	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/source"
	"typeck/internal/types"
)

// LowerOpts controls LowerTy.
type LowerOpts struct {
	// Fresh supplies a type for each `_`; without it `_` is reported and
	// lowers to the error type.
	Fresh func(span source.Span) types.TypeID
	// Reporter overrides the provider's reporter, e.g. for types written
	// inside a body.
	Reporter diag.Reporter
	// Self overrides the meaning of `Self`.
	Self types.TypeID
}

type lowerer struct {
	p     *Provider
	owner hir.DefID
	opts  LowerOpts
}

// LowerTy turns a written type into a TypeID in the scope of owner.
func (p *Provider) LowerTy(t *hir.Ty, owner hir.DefID, opts LowerOpts) types.TypeID {
	if opts.Reporter == nil {
		opts.Reporter = p.Reporter
	}
	l := &lowerer{p: p, owner: owner, opts: opts}
	return l.lower(t)
}

func (l *lowerer) lower(t *hir.Ty) types.TypeID {
	in := l.p.Types
	b := in.Builtins()
	if t == nil {
		return b.Unit
	}
	switch t.Kind {
	case hir.TyErr:
		return b.Error
	case hir.TyInfer:
		if l.opts.Fresh != nil {
			return l.opts.Fresh(t.Span)
		}
		diag.ReportError(l.opts.Reporter, diag.TckPlaceholderInSignature, t.Span,
			"the placeholder `_` is not allowed within types on item signatures").Emit()
		return b.Error
	case hir.TyNever:
		return b.Never
	case hir.TyPath:
		return l.path(t, t.Data.(*hir.TyPathData))
	case hir.TyRef, hir.TyPtr:
		d := t.Data.(*hir.TyPtrData)
		elem := l.lower(d.Elem)
		if t.Kind == hir.TyRef {
			return in.Intern(types.MakeRef(elem, d.Mutable))
		}
		return in.Intern(types.MakePtr(elem, d.Mutable))
	case hir.TySlice:
		return in.Intern(types.MakeSlice(l.lower(t.Data.(*hir.TySliceData).Elem)))
	case hir.TyArray:
		d := t.Data.(*hir.TyArrayData)
		elem := l.lower(d.Elem)
		n, generic, ok := l.p.EvalConst(d.Len)
		switch {
		case generic:
			return in.Intern(types.MakeArray(elem, types.GenericLen))
		case !ok || n >= uint64(types.GenericLen):
			return b.Error
		}
		return in.Intern(types.MakeArray(elem, uint32(n)))
	case hir.TyTuple:
		d := t.Data.(*hir.TyTupleData)
		elems := make([]types.TypeID, len(d.Elems))
		for i, e := range d.Elems {
			elems[i] = l.lower(e)
		}
		return in.RegisterTuple(elems)
	case hir.TyFn:
		d := t.Data.(*hir.TyFnData)
		params := make([]types.TypeID, len(d.Params))
		for i, e := range d.Params {
			params[i] = l.lower(e)
		}
		ret := b.Unit
		if d.Ret != nil {
			ret = l.lower(d.Ret)
		}
		return in.RegisterFn(params, ret, d.Abi, d.Variadic)
	case hir.TyTypeof:
		return l.typeOf(t, t.Data.(*hir.TyTypeofData).Const)
	case hir.TyProjection:
		d := t.Data.(*hir.TyProjectionData)
		self := l.lower(d.Self)
		trait := l.p.Prog.Unit(d.Trait)
		if trait == nil || trait.Kind != hir.DefTrait {
			return b.Error
		}
		return in.RegisterProjection(self, uint32(d.Trait), trait.Name, d.Name)
	case hir.TyDyn:
		d := t.Data.(*hir.TyDynData)
		trait := l.p.Prog.Unit(d.Trait)
		if trait == nil {
			return b.Error
		}
		return in.RegisterDyn(uint32(d.Trait), trait.Name)
	}
	return b.Error
}

func (l *lowerer) path(t *hir.Ty, d *hir.TyPathData) types.TypeID {
	in := l.p.Types
	b := in.Builtins()
	switch d.Res.Kind {
	case hir.ResPrim:
		if prim, ok := in.PrimitiveByName(d.Res.Prim); ok {
			return prim
		}
		return b.Error
	case hir.ResSelfTy:
		if l.opts.Self != types.NoTypeID {
			return l.opts.Self
		}
		return l.p.SelfTy(l.owner)
	case hir.ResDef:
	default:
		return b.Error
	}
	u := l.p.Prog.Unit(d.Res.Def)
	if u == nil {
		return b.Error
	}
	switch u.Kind {
	case hir.DefTypeParam:
		return l.p.TypeOf(u.ID)
	case hir.DefStruct, hir.DefEnum:
		return l.adt(t, u, d)
	}
	diag.ReportError(l.opts.Reporter, diag.TckExpectedValue, t.Span,
		fmt.Sprintf("expected type, found %s `%s`", u.Kind.Descr(), u.Name)).Emit()
	return b.Error
}

// adt applies u to the written arguments. Const parameters are not part of
// the type's identity; their slot holds the parameter's declared type.
func (l *lowerer) adt(t *hir.Ty, u *hir.Unit, d *hir.TyPathData) types.TypeID {
	in := l.p.Types
	var wantTys, wantConsts int
	if u.Generics != nil {
		for _, id := range u.Generics.Params {
			if l.p.Prog.MustUnit(id).Kind == hir.DefConstParam {
				wantConsts++
			} else {
				wantTys++
			}
		}
	}
	if len(d.Args) != wantTys || len(d.ConstArgs) != wantConsts {
		diag.ReportError(l.opts.Reporter, diag.TckGenericArgCount, t.Span,
			fmt.Sprintf("%s `%s` takes %d generic arguments but %d were supplied",
				u.Kind.Descr(), u.Name, wantTys+wantConsts, len(d.Args)+len(d.ConstArgs))).Emit()
		return in.Builtins().Error
	}
	var args []types.TypeID
	next := 0
	if u.Generics != nil {
		for _, id := range u.Generics.Params {
			pu := l.p.Prog.MustUnit(id)
			if pu.Kind == hir.DefConstParam {
				args = append(args, l.p.TypeOf(id))
				continue
			}
			args = append(args, l.lower(d.Args[next]))
			next++
		}
	}
	return in.RegisterAdt(uint32(u.ID), u.Name, args)
}

func (l *lowerer) typeOf(t *hir.Ty, c hir.DefID) types.TypeID {
	b := l.p.Types.Builtins()
	if path, ok := l.p.typeofCycle(c, l.owner); ok {
		l.p.reportCycle(l.p.Prog.MustUnit(c), path)
		return b.Error
	}
	if l.p.AnonConstType == nil {
		return b.Error
	}
	return l.p.AnonConstType(c)
}

// SelfTy is the meaning of `Self` inside owner: the self type of the
// enclosing impl, or the implicit parameter of the enclosing trait.
func (p *Provider) SelfTy(owner hir.DefID) types.TypeID {
	for id := owner; id.IsValid(); {
		u := p.Prog.Unit(id)
		if u == nil {
			break
		}
		switch u.Kind {
		case hir.DefImpl:
			if u.SelfTy == nil {
				return p.Types.Builtins().Error
			}
			return p.LowerTy(u.SelfTy, u.ID, LowerOpts{Self: p.Types.Builtins().Error})
		case hir.DefTrait:
			return p.Types.RegisterParam(uint32(u.ID), types.SelfIndex, "Self")
		case hir.DefMod:
			return p.Types.Builtins().Error
		}
		id = u.Parent
	}
	return p.Types.Builtins().Error
}
