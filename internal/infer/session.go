package infer

import (
	"fmt"

	"typeck/internal/hir"
	"typeck/internal/source"
	"typeck/internal/types"
)

type varData struct {
	kind   types.InferKind
	parent uint32
	value  types.TypeID // bound type of a root; NoTypeID while unbound
	dflt   types.TypeID
	// diverging vars come from `!` expressions and fall back to `()`.
	diverging bool
	span      source.Span
}

type undoEntry struct {
	index uint32
	old   varData
}

// Session is the mutable inference state of one run.
type Session struct {
	Types *types.Interner
	Owner hir.DefID

	vars []varData
	undo []undoEntry
	// snapshots counts open snapshots; undo entries are only kept while one
	// is open.
	snapshots int

	pending []Obligation

	deferredCalls      queue[DeferredCall]
	deferredSized      queue[Obligation]
	deferredCasts      queue[CastCheck]
	deferredTransmutes queue[TransmuteCheck]
	deferredAsms       queue[AsmCheck]
	deferredInteriors  queue[CoroutineInterior]

	closureKinds map[hir.DefID]ClosureKind
	rvalueScopes map[hir.NodeID]hir.NodeID
	freeRegions  []FreeRegion
	regions      []RegionConstraint
	regionsDone  bool

	tainted bool
}

// NewSession starts an empty session for owner.
func NewSession(in *types.Interner, owner hir.DefID) *Session {
	return &Session{
		Types:        in,
		Owner:        owner,
		closureKinds: make(map[hir.DefID]ClosureKind),
		rvalueScopes: make(map[hir.NodeID]hir.NodeID),
	}
}

// NewVar creates a fresh inference variable.
func (s *Session) NewVar(kind types.InferKind, span source.Span) types.TypeID {
	vid := uint32(len(s.vars))
	s.vars = append(s.vars, varData{kind: kind, parent: vid, span: span})
	return s.Types.Intern(types.MakeVar(kind, vid))
}

// NewTyVar is NewVar(types.InferTy, span).
func (s *Session) NewTyVar(span source.Span) types.TypeID {
	return s.NewVar(types.InferTy, span)
}

// NewDivergingVar creates a type variable for a diverging expression.
func (s *Session) NewDivergingVar(span source.Span) types.TypeID {
	t := s.NewVar(types.InferTy, span)
	s.vars[s.vid(t)].diverging = true
	return t
}

// NewIntVarWithDefault creates an integer variable that falls back to dflt
// instead of i32.
func (s *Session) NewIntVarWithDefault(dflt types.TypeID, span source.Span) types.TypeID {
	t := s.NewVar(types.InferInt, span)
	s.vars[s.vid(t)].dflt = dflt
	return t
}

// NumVars is the number of variables created so far.
func (s *Session) NumVars() int { return len(s.vars) }

func (s *Session) vid(t types.TypeID) uint32 {
	tt := s.Types.MustLookup(t)
	if tt.Kind != types.KindInfer || int(tt.Count) >= len(s.vars) {
		panic(fmt.Sprintf("infer: %s is not a variable of this session", types.Label(s.Types, t)))
	}
	return tt.Count
}

func (s *Session) root(vid uint32) uint32 {
	for s.vars[vid].parent != vid {
		vid = s.vars[vid].parent
	}
	return vid
}

func (s *Session) set(vid uint32, d varData) {
	if s.snapshots > 0 {
		s.undo = append(s.undo, undoEntry{index: vid, old: s.vars[vid]})
	}
	s.vars[vid] = d
}

func (s *Session) canonical(root uint32) types.TypeID {
	return s.Types.Intern(types.MakeVar(s.vars[root].kind, root))
}

// Shallow resolves t one level: a bound variable becomes its value, an
// unbound one its canonical representative.
func (s *Session) Shallow(t types.TypeID) types.TypeID {
	for s.Types.KindOf(t) == types.KindInfer {
		r := s.root(s.vid(t))
		if s.vars[r].value == types.NoTypeID {
			return s.canonical(r)
		}
		t = s.vars[r].value
	}
	return t
}

// Resolve substitutes every bound variable in t, recursively.
func (s *Session) Resolve(t types.TypeID) types.TypeID {
	if !s.Types.HasInfer(t) {
		return t
	}
	return s.Types.Fold(t, func(n types.TypeID) types.TypeID {
		if s.Types.KindOf(n) != types.KindInfer {
			return n
		}
		sh := s.Shallow(n)
		if s.Types.KindOf(sh) == types.KindInfer {
			return sh
		}
		return s.Resolve(sh)
	})
}

// IsUnresolvedVar reports whether t is still an unbound variable.
func (s *Session) IsUnresolvedVar(t types.TypeID) bool {
	return s.Types.KindOf(s.Shallow(t)) == types.KindInfer
}

// VarKind is the kind of t's root variable.
func (s *Session) VarKind(t types.TypeID) types.InferKind {
	return s.vars[s.root(s.vid(t))].kind
}

// VarSpan is where t's variable was created.
func (s *Session) VarSpan(t types.TypeID) source.Span {
	return s.vars[s.vid(t)].span
}

// UnresolvedVars lists the canonical form of every unbound root variable.
func (s *Session) UnresolvedVars() []types.TypeID {
	var out []types.TypeID
	for i := range s.vars {
		vid := uint32(i)
		if s.vars[vid].parent == vid && s.vars[vid].value == types.NoTypeID {
			out = append(out, s.canonical(vid))
		}
	}
	return out
}

// Snapshot captures the variable table and pending obligations.
type Snapshot struct {
	vars    int
	undo    int
	pending int
}

// StartSnapshot opens a snapshot; it must be closed by Rollback or Commit
// in LIFO order.
func (s *Session) StartSnapshot() Snapshot {
	s.snapshots++
	return Snapshot{vars: len(s.vars), undo: len(s.undo), pending: len(s.pending)}
}

// Rollback undoes every binding and obligation since snap.
func (s *Session) Rollback(snap Snapshot) {
	for i := len(s.undo) - 1; i >= snap.undo; i-- {
		e := s.undo[i]
		if int(e.index) < snap.vars {
			s.vars[e.index] = e.old
		}
	}
	s.undo = s.undo[:snap.undo]
	s.vars = s.vars[:snap.vars]
	if len(s.pending) > snap.pending {
		s.pending = s.pending[:snap.pending]
	}
	s.snapshots--
}

// Commit keeps the changes made since snap.
func (s *Session) Commit(snap Snapshot) {
	s.snapshots--
	if s.snapshots == 0 {
		s.undo = s.undo[:0]
	}
}

// Probe runs fn inside a snapshot and always rolls back.
func (s *Session) Probe(fn func() bool) bool {
	snap := s.StartSnapshot()
	defer s.Rollback(snap)
	return fn()
}

// Try runs fn inside a snapshot and keeps its effects only on success.
func (s *Session) Try(fn func() bool) bool {
	snap := s.StartSnapshot()
	if fn() {
		s.Commit(snap)
		return true
	}
	s.Rollback(snap)
	return false
}

// Taint marks the run as having reported an error.
func (s *Session) Taint() { s.tainted = true }

// Tainted reports whether an error was reported during the run.
func (s *Session) Tainted() bool { return s.tainted }

// ClosureKind returns the inferred kind of a closure, if known.
func (s *Session) ClosureKind(def hir.DefID) ClosureKind {
	return s.closureKinds[def]
}

// SetClosureKind records the kind chosen by capture analysis.
func (s *Session) SetClosureKind(def hir.DefID, k ClosureKind) {
	s.closureKinds[def] = k
}

// ClosureKinds returns every recorded closure kind.
func (s *Session) ClosureKinds() map[hir.DefID]ClosureKind { return s.closureKinds }
