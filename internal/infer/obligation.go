package infer

import (
	"fmt"

	"typeck/internal/hir"
	"typeck/internal/source"
	"typeck/internal/types"
)

// ObligationKind distinguishes the predicates a run can be asked to prove.
type ObligationKind uint8

const (
	// ObTrait is `Self: Trait<Args>`.
	ObTrait ObligationKind = iota
	// ObProjectionEq is `<Self as Trait<Args>>::Assoc == Ty`.
	ObProjectionEq
	// ObWellFormed requires Ty to be well formed; type vars must resolve.
	ObWellFormed
)

func (k ObligationKind) String() string {
	switch k {
	case ObTrait:
		return "trait"
	case ObProjectionEq:
		return "projection"
	case ObWellFormed:
		return "well-formed"
	}
	return fmt.Sprintf("ObligationKind(%d)", k)
}

// Cause records why an obligation was registered; diagnostics use it.
type Cause uint8

const (
	CauseMisc Cause = iota
	CauseConstSized
	CauseVariableSized
	CauseSizedReturn
	CauseSizedArgument
	CauseWhereClause
	CauseBinOp
	CauseMethodReceiver
	CauseClosureCall
)

func (c Cause) String() string {
	switch c {
	case CauseConstSized:
		return "constant expressions must have a statically known size"
	case CauseVariableSized:
		return "all local variables must have a statically known size"
	case CauseSizedReturn:
		return "the return type of a function must have a statically known size"
	case CauseSizedArgument:
		return "all function arguments must have a statically known size"
	case CauseWhereClause:
		return "required by a bound in this item"
	case CauseBinOp:
		return "required by a binary operator"
	case CauseMethodReceiver:
		return "required by a method receiver"
	case CauseClosureCall:
		return "required by a closure call"
	}
	return ""
}

// Obligation is a predicate that must hold for the run to succeed.
type Obligation struct {
	Kind  ObligationKind
	Self  types.TypeID
	Trait hir.DefID
	Args  []types.TypeID
	Assoc string
	Ty    types.TypeID
	Span  source.Span
	Cause Cause
	// Depth bounds recursive impl selection.
	Depth int
}

// Register queues o for selection.
func (s *Session) Register(o Obligation) {
	s.pending = append(s.pending, o)
}

// Pending returns the queued obligations without removing them.
func (s *Session) Pending() []Obligation { return s.pending }

// TakePending removes and returns every queued obligation.
func (s *Session) TakePending() []Obligation {
	out := s.pending
	s.pending = nil
	return out
}

// ResolveObligation applies the current substitution to o's types.
func (s *Session) ResolveObligation(o Obligation) Obligation {
	o.Self = s.Resolve(o.Self)
	if o.Ty != types.NoTypeID {
		o.Ty = s.Resolve(o.Ty)
	}
	if len(o.Args) > 0 {
		args := make([]types.TypeID, len(o.Args))
		for i, a := range o.Args {
			args[i] = s.Resolve(a)
		}
		o.Args = args
	}
	return o
}
