package traits

import (
	"typeck/internal/hir"
	"typeck/internal/infer"
	"typeck/internal/source"
	"typeck/internal/types"
)

// outputAssoc is the associated type of the FnOnce lang item.
const outputAssoc = "Output"

func (sv *Solver) selectProjection(s *infer.Session, env ParamEnv, o infer.Obligation) Result {
	in := sv.Types
	self := s.Shallow(o.Self)
	if in.IsError(self) {
		return Selected
	}
	if o.Trait == sv.Prog.Lang.FnOnce && o.Assoc == outputAssoc {
		if r, ok := sv.fnOutput(s, o, self); ok {
			return r
		}
	}
	if in.KindOf(self) == types.KindInfer {
		return Ambiguous
	}
	for _, p := range env.Caller {
		if p.Trait != o.Trait || p.Assoc != o.Assoc {
			continue
		}
		if !s.Probe(func() bool { return s.Unify(p.Self, self) == nil }) {
			continue
		}
		return sv.equate(s, p.AssocTy, o.Ty, self, p.Self)
	}
	if in.KindOf(self) == types.KindParam {
		if sv.Implements(s, env, self, o.Trait, o.Args...) != Selected {
			return Unsatisfied
		}
		rigid := in.RegisterProjection(self, uint32(o.Trait), sv.Prog.Name(o.Trait), o.Assoc)
		return sv.equate(s, rigid, o.Ty)
	}
	cands := sv.candidates(s, o.Trait, self, o.Args, o.Span)
	switch len(cands) {
	case 0:
		if len(unresolvedIn(s, self)) > 0 {
			return Ambiguous
		}
		return Unsatisfied
	case 1:
		c := cands[0]
		assoc, ok := c.Assoc[o.Assoc]
		if !ok {
			return Unsatisfied
		}
		args, _ := sv.matchImpl(s, c, self, o.Args, o.Span)
		return sv.equate(s, in.SubstParams(assoc, args), o.Ty)
	}
	return Ambiguous
}

// equate unifies the pairs (a, b, c, d, ...) as one transaction.
func (sv *Solver) equate(s *infer.Session, pairs ...types.TypeID) Result {
	ok := s.Try(func() bool {
		for i := 0; i+1 < len(pairs); i += 2 {
			if s.Unify(pairs[i], pairs[i+1]) != nil {
				return false
			}
		}
		return true
	})
	if !ok {
		return Unsatisfied
	}
	return Selected
}

func (sv *Solver) fnOutput(s *infer.Session, o infer.Obligation, self types.TypeID) (Result, bool) {
	in := sv.Types
	var sig types.TypeID
	switch in.KindOf(self) {
	case types.KindFn:
		sig = self
	case types.KindClosure:
		info, _ := in.ClosureInfo(self)
		sig = s.Shallow(info.Sig)
	default:
		return Selected, false
	}
	fn, ok := in.FnInfo(sig)
	if !ok {
		return Ambiguous, true
	}
	return sv.equate(s, fn.Result, o.Ty), true
}

// Normalize replaces the projections in ty that can be resolved. Any other
// projection on a non-parameter self type becomes a fresh variable tied to
// it by a queued ProjectionEq obligation.
func (sv *Solver) Normalize(s *infer.Session, env ParamEnv, ty types.TypeID, span source.Span) types.TypeID {
	in := sv.Types
	if !in.HasProjections(ty) {
		return ty
	}
	return in.Fold(ty, func(t types.TypeID) types.TypeID {
		info, ok := in.ProjectionInfo(t)
		if !ok {
			return t
		}
		self := s.Shallow(info.Self)
		if in.KindOf(self) == types.KindParam && !sv.hasEnvEquality(env, hir.DefID(info.Trait), info.Name) {
			return t
		}
		o := infer.Obligation{
			Kind:  infer.ObProjectionEq,
			Self:  self,
			Trait: hir.DefID(info.Trait),
			Assoc: info.Name,
			Span:  span,
		}
		if s.IsUnresolvedVar(self) {
			o.Ty = s.NewTyVar(span)
			s.Register(o)
			return o.Ty
		}
		v := s.NewTyVar(span)
		o.Ty = v
		if sv.evaluate(s, env, o) == Selected {
			return s.Resolve(v)
		}
		// Reported by the next selection pass.
		s.Register(o)
		return v
	})
}

func (sv *Solver) hasEnvEquality(env ParamEnv, trait hir.DefID, assoc string) bool {
	for _, p := range env.Caller {
		if p.Trait == trait && p.Assoc == assoc {
			return true
		}
	}
	return false
}

// IsCopy reports whether t is known to be Copy in env.
func (sv *Solver) IsCopy(s *infer.Session, env ParamEnv, t types.TypeID) bool {
	return sv.Implements(s, env, t, sv.Prog.Lang.Copy) == Selected
}
