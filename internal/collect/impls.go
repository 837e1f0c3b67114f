package collect

import (
	"typeck/internal/hir"
	"typeck/internal/traits"
	"typeck/internal/types"
)

func (p *Provider) indexImpls() {
	p.implsOnce.Do(func() {
		p.byTrait = make(map[hir.DefID][]hir.DefID)
		for _, id := range p.Prog.Impls() {
			u := p.Prog.MustUnit(id)
			if u.OfTrait.IsValid() {
				p.byTrait[u.OfTrait] = append(p.byTrait[u.OfTrait], id)
			} else {
				p.inherent = append(p.inherent, id)
			}
		}
	})
}

// TraitImpls implements traits.ImplSource.
func (p *Provider) TraitImpls(trait hir.DefID) []*traits.ImplCandidate {
	p.indexImpls()
	ids := p.byTrait[trait]
	out := make([]*traits.ImplCandidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, p.Impl(id))
	}
	return out
}

// InherentImpls lists every impl without a trait.
func (p *Provider) InherentImpls() []*traits.ImplCandidate {
	p.indexImpls()
	out := make([]*traits.ImplCandidate, 0, len(p.inherent))
	for _, id := range p.inherent {
		out = append(out, p.Impl(id))
	}
	return out
}

// Impl lowers one impl block.
func (p *Provider) Impl(def hir.DefID) *traits.ImplCandidate {
	if v, ok := p.impls.Load(def); ok {
		return v.(*traits.ImplCandidate)
	}
	u := p.Prog.MustUnit(def)
	c := &traits.ImplCandidate{
		Def:    def,
		Trait:  u.OfTrait,
		Params: p.GenericsCount(def),
		Self:   p.TypeOf(def),
		Assoc:  make(map[string]types.TypeID, len(u.AssocTys)),
	}
	for _, a := range u.TraitArgs {
		c.TraitArgs = append(c.TraitArgs, p.LowerTy(a, def, LowerOpts{}))
	}
	for _, a := range u.AssocTys {
		c.Assoc[a.Name] = p.LowerTy(a.Ty, def, LowerOpts{})
	}
	if u.Generics != nil {
		for _, wp := range u.Generics.Predicates {
			if pred, ok := p.lowerPredicate(wp, def); ok {
				c.Predicates = append(c.Predicates, pred)
			}
		}
	}
	v, _ := p.impls.LoadOrStore(def, c)
	return v.(*traits.ImplCandidate)
}

var _ traits.ImplSource = (*Provider)(nil)
