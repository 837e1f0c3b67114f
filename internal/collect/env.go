package collect

import (
	"fmt"

	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/traits"
	"typeck/internal/types"
)

// ParamEnv collects the where-clauses in scope for def: its own and those
// of every enclosing item up to the module. Inside a trait, `Self: Trait`
// is assumed.
func (p *Provider) ParamEnv(def hir.DefID) traits.ParamEnv {
	if v, ok := p.envs.Load(def); ok {
		return v.(traits.ParamEnv)
	}
	env := p.computeParamEnv(def)
	v, _ := p.envs.LoadOrStore(def, env)
	return v.(traits.ParamEnv)
}

func (p *Provider) computeParamEnv(def hir.DefID) traits.ParamEnv {
	var env traits.ParamEnv
	for id := def; id.IsValid(); {
		u := p.Prog.Unit(id)
		if u == nil || u.Kind == hir.DefMod {
			break
		}
		if u.Kind == hir.DefTrait {
			env.Caller = append(env.Caller, traits.Predicate{
				Self:  p.Types.RegisterParam(uint32(u.ID), types.SelfIndex, "Self"),
				Trait: u.ID,
				Args:  p.ownParams(u.ID),
				Span:  u.Span,
			})
		}
		if u.Generics != nil {
			for _, wp := range u.Generics.Predicates {
				if pred, ok := p.lowerPredicate(wp, u.ID); ok {
					env.Caller = append(env.Caller, pred)
				}
			}
		}
		id = u.Parent
	}
	return env
}

func (p *Provider) lowerPredicate(wp *hir.WherePredicate, owner hir.DefID) (traits.Predicate, bool) {
	trait := p.Prog.Unit(wp.Trait)
	if trait == nil || trait.Kind != hir.DefTrait {
		return traits.Predicate{}, false
	}
	if wp.Assoc == "" && !p.HasExpectedNumGenericArgs(wp.Trait, len(wp.Args)) {
		diag.ReportError(p.Reporter, diag.TckGenericArgCount, wp.Span,
			fmt.Sprintf("trait `%s` takes %d generic arguments but %d were supplied",
				trait.Name, p.GenericsCount(wp.Trait), len(wp.Args))).Emit()
		return traits.Predicate{}, false
	}
	pred := traits.Predicate{
		Self:  p.LowerTy(wp.Self, owner, LowerOpts{}),
		Trait: wp.Trait,
		Const: wp.Const,
		Span:  wp.Span,
	}
	for _, a := range wp.Args {
		pred.Args = append(pred.Args, p.LowerTy(a, owner, LowerOpts{}))
	}
	if wp.Assoc != "" {
		pred.Assoc = wp.Assoc
		pred.AssocTy = p.LowerTy(wp.AssocTy, owner, LowerOpts{})
	}
	return pred, true
}
