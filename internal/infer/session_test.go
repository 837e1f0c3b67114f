package infer

import (
	"testing"

	"typeck/internal/source"
	"typeck/internal/types"
)

func newSession() (*Session, types.Builtins) {
	in := types.NewInterner()
	return NewSession(in, 1), in.Builtins()
}

func TestUnifyBindsVariables(t *testing.T) {
	s, b := newSession()
	v := s.NewTyVar(source.NoSpan)
	ref := s.Types.Intern(types.MakeRef(v, false))
	if err := s.Unify(s.Types.Intern(types.MakeRef(b.U8, false)), ref); err != nil {
		t.Fatalf("unify: %v", err)
	}
	if got := s.Resolve(ref); got != s.Types.Intern(types.MakeRef(b.U8, false)) {
		t.Fatalf("resolved to %s", types.Label(s.Types, got))
	}
}

func TestUnifyRespectsVariableKinds(t *testing.T) {
	s, b := newSession()
	iv := s.NewVar(types.InferInt, source.NoSpan)
	if err := s.Unify(b.Bool, iv); err == nil {
		t.Fatalf("{integer} must not unify with bool")
	}
	fv := s.NewVar(types.InferFloat, source.NoSpan)
	if err := s.Unify(iv, fv); err == nil {
		t.Fatalf("{integer} must not unify with {float}")
	}
	tv := s.NewTyVar(source.NoSpan)
	if err := s.Unify(tv, iv); err != nil {
		t.Fatalf("type var should accept an int var: %v", err)
	}
	if s.VarKind(tv) != types.InferInt {
		t.Fatalf("merged variable should be an int var")
	}
	if err := s.Unify(tv, b.U64); err != nil {
		t.Fatal(err)
	}
	if s.Resolve(iv) != b.U64 {
		t.Fatalf("binding should flow through the union")
	}
}

func TestOccursCheck(t *testing.T) {
	s, _ := newSession()
	v := s.NewTyVar(source.NoSpan)
	slice := s.Types.Intern(types.MakeSlice(v))
	if err := s.Unify(v, slice); err == nil {
		t.Fatalf("v = [v] must fail the occurs check")
	}
}

func TestErrorTypeUnifiesWithAnything(t *testing.T) {
	s, b := newSession()
	if err := s.Unify(b.Error, b.Str); err != nil {
		t.Fatalf("error type must be compatible: %v", err)
	}
	v := s.NewTyVar(source.NoSpan)
	if err := s.Unify(v, b.Error); err != nil || s.Resolve(v) != b.Error {
		t.Fatalf("var should be bound to the error type")
	}
}

func TestSnapshotRollback(t *testing.T) {
	s, b := newSession()
	v := s.NewTyVar(source.NoSpan)
	ok := s.Probe(func() bool {
		s.NewTyVar(source.NoSpan)
		s.Register(Obligation{Kind: ObTrait, Self: v})
		return s.Unify(v, b.Bool) == nil
	})
	if !ok {
		t.Fatalf("probe should succeed")
	}
	if !s.IsUnresolvedVar(v) || s.NumVars() != 1 || len(s.Pending()) != 0 {
		t.Fatalf("probe leaked state: vars=%d pending=%d", s.NumVars(), len(s.Pending()))
	}
	if !s.Try(func() bool { return s.Unify(v, b.Char) == nil }) || s.Resolve(v) != b.Char {
		t.Fatalf("Try should keep a successful binding")
	}
}

func TestFallbackDefaults(t *testing.T) {
	s, b := newSession()
	iv := s.NewVar(types.InferInt, source.NoSpan)
	fv := s.NewVar(types.InferFloat, source.NoSpan)
	lv := s.NewIntVarWithDefault(b.Usize, source.NoSpan)
	dv := s.NewDivergingVar(source.NoSpan)
	tv := s.NewTyVar(source.NoSpan)

	if !(Fallback{}).ApplyDefaults(s) {
		t.Fatalf("expected defaults to apply")
	}
	want := map[types.TypeID]types.TypeID{iv: b.I32, fv: b.F64, lv: b.Usize, dv: b.Unit}
	for v, w := range want {
		if got := s.Resolve(v); got != w {
			t.Fatalf("%s fell back to %s, want %s", types.Label(s.Types, v), types.Label(s.Types, got), types.Label(s.Types, w))
		}
	}
	if !s.IsUnresolvedVar(tv) {
		t.Fatalf("plain type variables have no default")
	}
	if (Fallback{}).ApplyDefaults(s) {
		t.Fatalf("second application should be a no-op")
	}
}

func TestDeferredQueues(t *testing.T) {
	s, b := newSession()
	s.DeferCast(CastCheck{From: b.I32, To: b.U8})
	s.DeferCall(DeferredCall{Closure: 3})
	if s.DeferredTotal() != 2 {
		t.Fatalf("total = %d", s.DeferredTotal())
	}
	if got := s.TakeDeferredCasts(); len(got) != 1 || s.DeferredCasts() != 0 {
		t.Fatalf("take should drain the queue")
	}
	if !ClosureFn.Extends(ClosureFnOnce) || ClosureFnOnce.Extends(ClosureFn) {
		t.Fatalf("closure kind ordering broken")
	}
}
