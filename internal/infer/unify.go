package infer

import (
	"fmt"

	"typeck/internal/types"
)

// TypeError is a unification failure between two (partially resolved)
// types.
type TypeError struct {
	Expected types.TypeID
	Found    types.TypeID
	in       *types.Interner
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("expected `%s`, found `%s`", types.Label(e.in, e.Expected), types.Label(e.in, e.Found))
}

// Unify makes expected and found equal, binding variables as needed. On
// failure the variable table may hold partial bindings; callers that need
// all-or-nothing behavior wrap the call in Try.
func (s *Session) Unify(expected, found types.TypeID) error {
	if s.unify(expected, found) {
		return nil
	}
	return &TypeError{Expected: s.Resolve(expected), Found: s.Resolve(found), in: s.Types}
}

// CanUnify reports whether Unify would succeed without changing anything.
func (s *Session) CanUnify(a, b types.TypeID) bool {
	return s.Probe(func() bool { return s.unify(a, b) })
}

func (s *Session) unify(a, b types.TypeID) bool {
	a, b = s.Shallow(a), s.Shallow(b)
	if a == b {
		return true
	}
	in := s.Types
	err := in.Builtins().Error
	if a == err || b == err {
		if in.KindOf(a) == types.KindInfer {
			return s.bind(a, err)
		}
		if in.KindOf(b) == types.KindInfer {
			return s.bind(b, err)
		}
		return true
	}
	if in.KindOf(a) == types.KindInfer {
		return s.bind(a, b)
	}
	if in.KindOf(b) == types.KindInfer {
		return s.bind(b, a)
	}

	ta, tb := in.MustLookup(a), in.MustLookup(b)
	if ta.Kind != tb.Kind {
		return false
	}
	switch ta.Kind {
	case types.KindArray:
		return ta.Count == tb.Count && s.unify(ta.Elem, tb.Elem)
	case types.KindSlice:
		return s.unify(ta.Elem, tb.Elem)
	case types.KindRef, types.KindPtr:
		return ta.Mutable == tb.Mutable && s.unify(ta.Elem, tb.Elem)
	case types.KindTuple:
		return s.unifyAll(in.TupleElems(a), in.TupleElems(b))
	case types.KindFn:
		fa, _ := in.FnInfo(a)
		fb, _ := in.FnInfo(b)
		return fa.Abi == fb.Abi && fa.Variadic == fb.Variadic &&
			s.unifyAll(fa.Params, fb.Params) && s.unify(fa.Result, fb.Result)
	case types.KindAdt:
		aa, _ := in.AdtInfo(a)
		ab, _ := in.AdtInfo(b)
		return aa.Def == ab.Def && s.unifyAll(aa.Args, ab.Args)
	case types.KindProjection:
		pa, _ := in.ProjectionInfo(a)
		pb, _ := in.ProjectionInfo(b)
		return pa.Trait == pb.Trait && pa.Name == pb.Name && s.unify(pa.Self, pb.Self)
	case types.KindClosure:
		ca, _ := in.ClosureInfo(a)
		cb, _ := in.ClosureInfo(b)
		return ca.Def == cb.Def && s.unify(ca.Sig, cb.Sig)
	case types.KindCoroutine:
		ga, _ := in.CoroutineInfo(a)
		gb, _ := in.CoroutineInfo(b)
		return ga.Def == gb.Def && s.unify(ga.Resume, gb.Resume) &&
			s.unify(ga.Yield, gb.Yield) && s.unify(ga.Return, gb.Return)
	case types.KindDyn:
		return ta.Count == tb.Count
	}
	// Scalars, params and never are interned uniquely, so a != b means
	// they differ.
	return false
}

func (s *Session) unifyAll(as, bs []types.TypeID) bool {
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !s.unify(as[i], bs[i]) {
			return false
		}
	}
	return true
}

// bind assigns t to the unbound variable v (both already shallow-resolved).
func (s *Session) bind(v, t types.TypeID) bool {
	in := s.Types
	rv := s.root(s.vid(v))
	dv := s.vars[rv]

	if in.KindOf(t) == types.KindInfer {
		rt := s.root(s.vid(t))
		dt := s.vars[rt]
		kind, ok := mergeKinds(dv.kind, dt.kind)
		if !ok {
			return false
		}
		// the merged root keeps the stricter kind, the default and the
		// diverging flag of both sides.
		dt.kind = kind
		if dt.dflt == types.NoTypeID {
			dt.dflt = dv.dflt
		}
		dt.diverging = dt.diverging && dv.diverging
		s.set(rt, dt)
		dv.parent = rt
		s.set(rv, dv)
		return true
	}

	if t != in.Builtins().Error {
		switch dv.kind {
		case types.InferInt:
			if k := in.KindOf(t); k != types.KindInt && k != types.KindUint {
				return false
			}
		case types.InferFloat:
			if in.KindOf(t) != types.KindFloat {
				return false
			}
		}
		if s.occurs(rv, t) {
			return false
		}
	}
	dv.value = t
	s.set(rv, dv)
	return true
}

func mergeKinds(a, b types.InferKind) (types.InferKind, bool) {
	switch {
	case a == b:
		return a, true
	case a == types.InferTy:
		return b, true
	case b == types.InferTy:
		return a, true
	}
	return a, false
}

func (s *Session) occurs(root uint32, t types.TypeID) bool {
	return s.Types.Any(t, func(n types.TypeID) bool {
		if s.Types.KindOf(n) != types.KindInfer {
			return false
		}
		sh := s.Shallow(n)
		if s.Types.KindOf(sh) != types.KindInfer {
			return s.occurs(root, sh)
		}
		return s.root(s.vid(sh)) == root
	})
}
