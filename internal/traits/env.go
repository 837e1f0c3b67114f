// Package traits proves the obligations registered during a run: trait
// bounds, projection equalities and well-formedness, against builtin rules,
// the caller's where clauses and the program's impls.
package traits

import (
	"typeck/internal/hir"
	"typeck/internal/source"
	"typeck/internal/types"
)

// Predicate is one where-clause of an item.
type Predicate struct {
	Self  types.TypeID
	Trait hir.DefID
	Args  []types.TypeID
	// Assoc, when set, makes this `<Self as Trait>::Assoc == AssocTy`.
	Assoc   string
	AssocTy types.TypeID
	// Const marks a `~const` bound.
	Const bool
	Span  source.Span
}

// ParamEnv is the set of where-clauses assumed while checking a body.
type ParamEnv struct {
	Caller []Predicate
}

// WithoutConst drops `~const` bounds. Capture analysis runs in this
// environment.
func (e ParamEnv) WithoutConst() ParamEnv {
	out := ParamEnv{Caller: make([]Predicate, 0, len(e.Caller))}
	for _, p := range e.Caller {
		if !p.Const {
			out.Caller = append(out.Caller, p)
		}
	}
	return out
}

// HasConstBounds reports whether any `~const` bound is present.
func (e ParamEnv) HasConstBounds() bool {
	for _, p := range e.Caller {
		if p.Const {
			return true
		}
	}
	return false
}

// ImplCandidate is an impl block lowered for selection. Its types refer to
// the impl's own generic parameters by index 0..Params-1.
type ImplCandidate struct {
	Def        hir.DefID
	Trait      hir.DefID
	Params     int
	Self       types.TypeID
	TraitArgs  []types.TypeID
	Assoc      map[string]types.TypeID
	Predicates []Predicate
}

// ImplSource lists the impls of a trait.
type ImplSource interface {
	TraitImpls(trait hir.DefID) []*ImplCandidate
}
