package traits

import (
	"fmt"
	"strings"

	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/infer"
	"typeck/internal/source"
	"typeck/internal/types"
)

// Result is the outcome of evaluating one obligation.
type Result uint8

const (
	Selected Result = iota
	Ambiguous
	Unsatisfied
)

func (r Result) String() string {
	switch r {
	case Selected:
		return "selected"
	case Ambiguous:
		return "ambiguous"
	}
	return "unsatisfied"
}

const defaultMaxDepth = 32

// Solver is the default obligation service.
type Solver struct {
	Types *types.Interner
	Prog  *hir.Program
	Impls ImplSource
	// MaxDepth bounds nested impl selection; 0 means 32.
	MaxDepth int
}

// NewSolver creates a solver over prog's impls.
func NewSolver(in *types.Interner, prog *hir.Program, impls ImplSource) *Solver {
	return &Solver{Types: in, Prog: prog, Impls: impls}
}

func (sv *Solver) maxDepth() int {
	if sv.MaxDepth > 0 {
		return sv.MaxDepth
	}
	return defaultMaxDepth
}

// Register queues an obligation in the session.
func (sv *Solver) Register(s *infer.Session, o infer.Obligation) {
	s.Register(o)
}

// TryResolveAll selects every obligation that can be decided now, reports
// the unsatisfiable ones and keeps the ambiguous ones queued. It returns
// the number of obligations still pending.
func (sv *Solver) TryResolveAll(s *infer.Session, env ParamEnv, r diag.Reporter) int {
	for {
		progress := false
		pending := s.TakePending()
		var keep []infer.Obligation
		for _, o := range pending {
			switch sv.evaluate(s, env, o) {
			case Selected:
				progress = true
			case Ambiguous:
				keep = append(keep, o)
			case Unsatisfied:
				progress = true
				sv.reportUnsatisfied(s, o, r)
			}
		}
		// evaluate may have registered nested obligations.
		nested := s.TakePending()
		for _, o := range keep {
			s.Register(o)
		}
		for _, o := range nested {
			s.Register(o)
		}
		if len(nested) > 0 {
			progress = true
		}
		if !progress {
			return len(s.Pending())
		}
	}
}

// ForceResolveOrReport runs a final selection and reports every obligation
// that is still ambiguous as needing annotations.
func (sv *Solver) ForceResolveOrReport(s *infer.Session, env ParamEnv, r diag.Reporter) {
	if sv.TryResolveAll(s, env, r) == 0 {
		return
	}
	// Ambiguity is usually a consequence of an earlier error.
	suppress := s.Tainted()
	reported := make(map[types.TypeID]bool)
	for _, o := range s.TakePending() {
		o = s.ResolveObligation(o)
		if suppress || sv.Types.HasError(o.Self) {
			continue
		}
		self := o.Self
		if vars := unresolvedIn(s, self); len(vars) > 0 {
			if reported[vars[0]] {
				continue
			}
			reported[vars[0]] = true
			diag.ReportError(r, diag.TckAnnotationsNeeded, o.Span, "type annotations needed").
				WithNote(s.VarSpan(vars[0]), "cannot infer type").
				Emit()
			s.Taint()
			continue
		}
		diag.ReportError(r, diag.TckAmbiguousImpl, o.Span,
			fmt.Sprintf("type annotations needed: cannot satisfy `%s`", sv.describe(o))).
			WithNote(o.Span, "multiple impls satisfying this bound were found").
			Emit()
		s.Taint()
	}
}

func unresolvedIn(s *infer.Session, t types.TypeID) []types.TypeID {
	var out []types.TypeID
	s.Types.Walk(t, func(n types.TypeID) bool {
		if s.IsUnresolvedVar(n) {
			out = append(out, s.Shallow(n))
		}
		return true
	})
	return out
}

func (sv *Solver) reportUnsatisfied(s *infer.Session, o infer.Obligation, r diag.Reporter) {
	o = s.ResolveObligation(o)
	if sv.Types.HasError(o.Self) || sv.Types.HasError(o.Ty) {
		return
	}
	code := diag.TckUnsatisfiedBound
	msg := fmt.Sprintf("the trait bound `%s` is not satisfied", sv.describe(o))
	switch {
	case o.Kind == infer.ObTrait && o.Trait == sv.Prog.Lang.Sized:
		code = diag.TckUnsized
		msg = fmt.Sprintf("the size for values of type `%s` cannot be known at compilation time", types.Label(sv.Types, o.Self))
	case o.Kind == infer.ObProjectionEq:
		code = diag.TckUnresolvedProjection
		msg = fmt.Sprintf("type mismatch resolving `%s`", sv.describe(o))
	}
	b := diag.ReportError(r, code, o.Span, msg)
	if note := o.Cause.String(); note != "" {
		b = b.WithNote(o.Span, note)
	}
	b.Emit()
	s.Taint()
}

func (sv *Solver) describe(o infer.Obligation) string {
	in := sv.Types
	trait := sv.Prog.Name(o.Trait)
	if len(o.Args) > 0 {
		args := make([]string, len(o.Args))
		for i, a := range o.Args {
			args[i] = types.Label(in, a)
		}
		trait += "<" + strings.Join(args, ", ") + ">"
	}
	switch o.Kind {
	case infer.ObProjectionEq:
		return fmt.Sprintf("<%s as %s>::%s == %s", types.Label(in, o.Self), trait, o.Assoc, types.Label(in, o.Ty))
	case infer.ObWellFormed:
		return "well-formed(" + types.Label(in, o.Self) + ")"
	}
	return types.Label(in, o.Self) + ": " + trait
}

// Evaluate decides one obligation against env without reporting. Nested
// obligations of a selected impl are registered in s.
func (sv *Solver) Evaluate(s *infer.Session, env ParamEnv, o infer.Obligation) Result {
	return sv.evaluate(s, env, o)
}

// Implements probes whether self implements trait<args>, leaving no trace
// in s.
func (sv *Solver) Implements(s *infer.Session, env ParamEnv, self types.TypeID, trait hir.DefID, args ...types.TypeID) Result {
	var res Result
	s.Probe(func() bool {
		res = sv.evaluateDeep(s, env, infer.Obligation{Kind: infer.ObTrait, Self: self, Trait: trait, Args: args}, 0)
		return true
	})
	return res
}

// evaluateDeep evaluates o and then its nested obligations, inside the
// caller's snapshot.
func (sv *Solver) evaluateDeep(s *infer.Session, env ParamEnv, o infer.Obligation, depth int) Result {
	mark := len(s.Pending())
	res := sv.evaluate(s, env, o)
	if res != Selected || depth > sv.maxDepth() {
		return res
	}
	nested := append([]infer.Obligation(nil), s.Pending()[mark:]...)
	for _, n := range nested {
		switch sv.evaluateDeep(s, env, n, depth+1) {
		case Unsatisfied:
			return Unsatisfied
		case Ambiguous:
			res = Ambiguous
		}
	}
	return res
}

func (sv *Solver) evaluate(s *infer.Session, env ParamEnv, o infer.Obligation) Result {
	if o.Depth > sv.maxDepth() {
		return Unsatisfied
	}
	switch o.Kind {
	case infer.ObTrait:
		return sv.selectTrait(s, env, o)
	case infer.ObProjectionEq:
		return sv.selectProjection(s, env, o)
	case infer.ObWellFormed:
		if len(unresolvedIn(s, o.Self)) > 0 {
			return Ambiguous
		}
		return Selected
	}
	return Unsatisfied
}

func (sv *Solver) selectTrait(s *infer.Session, env ParamEnv, o infer.Obligation) Result {
	in := sv.Types
	self := s.Shallow(o.Self)
	if in.IsError(self) {
		return Selected
	}
	lang := sv.Prog.Lang
	switch o.Trait {
	case lang.Sized:
		return sv.sized(s, self)
	case lang.Copy:
		if r, ok := sv.builtinCopy(s, o, self); ok {
			return r
		}
	case lang.FnOnce, lang.FnMut, lang.Fn:
		if r, ok := sv.builtinFn(s, o, self); ok {
			return r
		}
	}
	if in.KindOf(self) == types.KindInfer {
		return Ambiguous
	}
	if r := sv.fromEnv(s, env, o, self); r != Unsatisfied {
		return r
	}
	return sv.fromImpls(s, o, self)
}

func (sv *Solver) sized(s *infer.Session, self types.TypeID) Result {
	in := sv.Types
	switch in.KindOf(self) {
	case types.KindStr, types.KindSlice, types.KindDyn:
		return Unsatisfied
	case types.KindInfer:
		if s.VarKind(self) != types.InferTy {
			return Selected
		}
		return Ambiguous
	}
	return Selected
}

func (sv *Solver) builtinCopy(s *infer.Session, o infer.Obligation, self types.TypeID) (Result, bool) {
	in := sv.Types
	tt := in.MustLookup(self)
	switch tt.Kind {
	case types.KindBool, types.KindChar, types.KindInt, types.KindUint, types.KindFloat,
		types.KindNever, types.KindPtr, types.KindFn:
		return Selected, true
	case types.KindRef:
		if tt.Mutable {
			return Unsatisfied, true
		}
		return Selected, true
	case types.KindStr, types.KindSlice, types.KindDyn, types.KindClosure, types.KindCoroutine:
		return Unsatisfied, true
	case types.KindInfer:
		if s.VarKind(self) != types.InferTy {
			return Selected, true
		}
		return Ambiguous, true
	case types.KindArray:
		sv.nested(s, o, tt.Elem, o.Trait)
		return Selected, true
	case types.KindTuple:
		for _, e := range in.TupleElems(self) {
			sv.nested(s, o, e, o.Trait)
		}
		return Selected, true
	}
	return Selected, false
}

func (sv *Solver) nested(s *infer.Session, parent infer.Obligation, self types.TypeID, trait hir.DefID, args ...types.TypeID) {
	s.Register(infer.Obligation{
		Kind:  infer.ObTrait,
		Self:  self,
		Trait: trait,
		Args:  args,
		Span:  parent.Span,
		Cause: parent.Cause,
		Depth: parent.Depth + 1,
	})
}

func (sv *Solver) fnKind(trait hir.DefID) infer.ClosureKind {
	switch trait {
	case sv.Prog.Lang.Fn:
		return infer.ClosureFn
	case sv.Prog.Lang.FnMut:
		return infer.ClosureFnMut
	}
	return infer.ClosureFnOnce
}

// builtinFn handles Fn* bounds on fn pointers and closures. The single
// trait argument is the tuple of parameter types.
func (sv *Solver) builtinFn(s *infer.Session, o infer.Obligation, self types.TypeID) (Result, bool) {
	in := sv.Types
	var sig types.TypeID
	switch in.KindOf(self) {
	case types.KindFn:
		sig = self
	case types.KindClosure:
		info, _ := in.ClosureInfo(self)
		kind := s.ClosureKind(hir.DefID(info.Def))
		if kind == infer.ClosureKindUnknown {
			return Ambiguous, true
		}
		if !kind.Extends(sv.fnKind(o.Trait)) {
			return Unsatisfied, true
		}
		sig = info.Sig
	default:
		return Selected, false
	}
	fn, _ := in.FnInfo(s.Shallow(sig))
	if fn == nil {
		return Ambiguous, true
	}
	if len(o.Args) == 1 {
		if !s.Try(func() bool { return s.Unify(o.Args[0], in.RegisterTuple(fn.Params)) == nil }) {
			return Unsatisfied, true
		}
	}
	return Selected, true
}

// fromEnv matches o against the caller's where-clauses.
func (sv *Solver) fromEnv(s *infer.Session, env ParamEnv, o infer.Obligation, self types.TypeID) Result {
	var matches []Predicate
	for _, p := range env.Caller {
		if p.Trait != o.Trait || p.Assoc != "" {
			continue
		}
		if s.Probe(func() bool { return sv.unifyPredicate(s, p, self, o.Args) }) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return Unsatisfied
	case 1:
		sv.unifyPredicate(s, matches[0], self, o.Args)
		return Selected
	}
	return Ambiguous
}

func (sv *Solver) unifyPredicate(s *infer.Session, p Predicate, self types.TypeID, args []types.TypeID) bool {
	if s.Unify(p.Self, self) != nil {
		return false
	}
	if len(args) == 0 {
		return true
	}
	if len(p.Args) != len(args) {
		return false
	}
	for i := range args {
		if s.Unify(p.Args[i], args[i]) != nil {
			return false
		}
	}
	return true
}

// instantiate replaces impl params with fresh variables.
func (sv *Solver) instantiate(s *infer.Session, c *ImplCandidate, span source.Span) []types.TypeID {
	args := make([]types.TypeID, c.Params)
	for i := range args {
		args[i] = s.NewTyVar(span)
	}
	return args
}

func (sv *Solver) matchImpl(s *infer.Session, c *ImplCandidate, self types.TypeID, traitArgs []types.TypeID, span source.Span) ([]types.TypeID, bool) {
	in := sv.Types
	args := sv.instantiate(s, c, span)
	if s.Unify(in.SubstParams(c.Self, args), self) != nil {
		return nil, false
	}
	if len(traitArgs) > 0 && len(traitArgs) == len(c.TraitArgs) {
		for i, a := range traitArgs {
			if s.Unify(in.SubstParams(c.TraitArgs[i], args), a) != nil {
				return nil, false
			}
		}
	}
	return args, true
}

// candidates returns the impls of trait that unify with self.
func (sv *Solver) candidates(s *infer.Session, trait hir.DefID, self types.TypeID, traitArgs []types.TypeID, span source.Span) []*ImplCandidate {
	if sv.Impls == nil {
		return nil
	}
	var out []*ImplCandidate
	for _, c := range sv.Impls.TraitImpls(trait) {
		ok := s.Probe(func() bool {
			_, ok := sv.matchImpl(s, c, self, traitArgs, span)
			return ok
		})
		if ok {
			out = append(out, c)
		}
	}
	return out
}

func (sv *Solver) fromImpls(s *infer.Session, o infer.Obligation, self types.TypeID) Result {
	cands := sv.candidates(s, o.Trait, self, o.Args, o.Span)
	switch len(cands) {
	case 0:
		if len(unresolvedIn(s, self)) > 0 {
			return Ambiguous
		}
		return Unsatisfied
	case 1:
		c := cands[0]
		args, _ := sv.matchImpl(s, c, self, o.Args, o.Span)
		for _, p := range c.Predicates {
			s.Register(infer.Obligation{
				Kind:  infer.ObTrait,
				Self:  sv.Types.SubstParams(p.Self, args),
				Trait: p.Trait,
				Args:  substAll(sv.Types, p.Args, args),
				Span:  o.Span,
				Cause: infer.CauseWhereClause,
				Depth: o.Depth + 1,
			})
		}
		return Selected
	}
	return Ambiguous
}

func substAll(in *types.Interner, ts, args []types.TypeID) []types.TypeID {
	if len(ts) == 0 {
		return nil
	}
	out := make([]types.TypeID, len(ts))
	for i, t := range ts {
		out[i] = in.SubstParams(t, args)
	}
	return out
}
