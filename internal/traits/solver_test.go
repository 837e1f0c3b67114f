package traits

import (
	"testing"

	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/infer"
	"typeck/internal/source"
	"typeck/internal/types"
)

type fakeImpls map[hir.DefID][]*ImplCandidate

func (f fakeImpls) TraitImpls(trait hir.DefID) []*ImplCandidate { return f[trait] }

type fixture struct {
	prog  *hir.Program
	in    *types.Interner
	b     types.Builtins
	show  hir.DefID
	s     types.TypeID
	w     hir.DefID
	impls fakeImpls
	sv    *Solver
	sess  *infer.Session
	bag   *diag.Bag
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hb := hir.NewBuilder(nil)
	show := hb.Trait(hb.Root(), "Show", "Out")
	s := hb.Struct(hb.Root(), "S")
	w := hb.TupleStruct(hb.Root(), "W", hb.TyInfer())
	prog := hb.Program()
	in := types.NewInterner()
	f := &fixture{
		prog:  prog,
		in:    in,
		b:     in.Builtins(),
		show:  show.ID,
		s:     in.RegisterAdt(uint32(s.ID), "S", nil),
		w:     w.ID,
		impls: fakeImpls{},
		sess:  infer.NewSession(in, hb.Root()),
		bag:   diag.NewBag(32),
	}
	f.sv = NewSolver(in, prog, f.impls)
	return f
}

func (f *fixture) wrap(arg types.TypeID) types.TypeID {
	return f.in.RegisterAdt(uint32(f.w), "W", []types.TypeID{arg})
}

func (f *fixture) reporter() diag.Reporter { return diag.BagReporter{Bag: f.bag} }

func (f *fixture) bound(self types.TypeID, trait hir.DefID, args ...types.TypeID) infer.Obligation {
	return infer.Obligation{Kind: infer.ObTrait, Self: self, Trait: trait, Args: args, Span: source.NoSpan}
}

func TestSizedBuiltin(t *testing.T) {
	f := newFixture(t)
	v := f.sess.NewTyVar(source.NoSpan)
	f.sess.Register(infer.Obligation{
		Kind: infer.ObTrait, Self: f.b.Str, Trait: f.prog.Lang.Sized, Cause: infer.CauseVariableSized,
	})
	f.sess.Register(f.bound(v, f.prog.Lang.Sized))
	f.sess.Register(f.bound(f.sess.NewVar(types.InferInt, source.NoSpan), f.prog.Lang.Sized))

	if left := f.sv.TryResolveAll(f.sess, ParamEnv{}, f.reporter()); left != 1 {
		t.Fatalf("expected the type variable bound to stay pending, got %d", left)
	}
	if f.bag.Count(diag.TckUnsized) != 1 {
		t.Fatalf("expected one unsized error, got %v", f.bag.Items())
	}
	d := f.bag.Items()[0]
	if len(d.Notes) != 1 || d.Notes[0].Msg != infer.CauseVariableSized.String() {
		t.Fatalf("expected the cause note, got %+v", d.Notes)
	}
	if !f.sess.Tainted() {
		t.Fatalf("reporting must taint the session")
	}

	if err := f.sess.Unify(v, f.b.U8); err != nil {
		t.Fatal(err)
	}
	if left := f.sv.TryResolveAll(f.sess, ParamEnv{}, f.reporter()); left != 0 {
		t.Fatalf("expected nothing pending once the variable is known, got %d", left)
	}
}

func TestCopyBuiltin(t *testing.T) {
	f := newFixture(t)
	mutRef := f.in.Intern(types.MakeRef(f.b.U8, true))
	cases := []struct {
		ty   types.TypeID
		want bool
	}{
		{f.b.I32, true},
		{f.in.Intern(types.MakeRef(f.b.Str, false)), true},
		{mutRef, false},
		{f.in.RegisterTuple([]types.TypeID{f.b.I32, f.b.Bool}), true},
		{f.in.RegisterTuple([]types.TypeID{f.b.I32, mutRef}), false},
		{f.in.Intern(types.MakeArray(f.b.Char, 4)), true},
		{f.s, false},
	}
	for _, tc := range cases {
		if got := f.sv.IsCopy(f.sess, ParamEnv{}, tc.ty); got != tc.want {
			t.Fatalf("IsCopy(%s) = %v, want %v", types.Label(f.in, tc.ty), got, tc.want)
		}
	}
	if len(f.sess.Pending()) != 0 {
		t.Fatalf("probing must not leave obligations behind")
	}
}

func TestImplSelectionRegistersNestedBounds(t *testing.T) {
	f := newFixture(t)
	p0 := f.in.RegisterParam(1, 0, "T")
	f.impls[f.show] = []*ImplCandidate{
		{Def: 10, Trait: f.show, Self: f.s, Assoc: map[string]types.TypeID{"Out": f.b.I32}},
		{Def: 11, Trait: f.show, Params: 1, Self: f.wrap(p0),
			Predicates: []Predicate{{Self: p0, Trait: f.show}}},
	}
	f.sess.Register(f.bound(f.s, f.show))
	f.sess.Register(f.bound(f.wrap(f.s), f.show))
	f.sess.Register(f.bound(f.wrap(f.b.U8), f.show))

	if left := f.sv.TryResolveAll(f.sess, ParamEnv{}, f.reporter()); left != 0 {
		t.Fatalf("expected all obligations decided, %d left", left)
	}
	if n := f.bag.Count(diag.TckUnsatisfiedBound); n != 1 {
		t.Fatalf("expected exactly the u8 bound to fail, got %d: %v", n, f.bag.Items())
	}
	if msg := f.bag.Items()[0].Message; msg != "the trait bound `u8: Show` is not satisfied" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestParamBoundsComeFromEnv(t *testing.T) {
	f := newFixture(t)
	p0 := f.in.RegisterParam(1, 0, "T")
	env := ParamEnv{Caller: []Predicate{{Self: p0, Trait: f.show, Const: true}}}
	if f.sv.Implements(f.sess, env, p0, f.show) != Selected {
		t.Fatalf("T: Show should hold from the where clause")
	}
	if f.sv.Implements(f.sess, env.WithoutConst(), p0, f.show) != Unsatisfied {
		t.Fatalf("dropping ~const bounds must drop the where clause")
	}
	if !env.HasConstBounds() || env.WithoutConst().HasConstBounds() {
		t.Fatalf("HasConstBounds mismatch")
	}
}

func TestNormalizeProjections(t *testing.T) {
	f := newFixture(t)
	f.impls[f.show] = []*ImplCandidate{
		{Def: 10, Trait: f.show, Self: f.s, Assoc: map[string]types.TypeID{"Out": f.b.I32}},
	}
	known := f.in.RegisterProjection(f.s, uint32(f.show), "Show", "Out")
	ref := f.in.Intern(types.MakeRef(known, false))
	if got := f.sv.Normalize(f.sess, ParamEnv{}, ref, source.NoSpan); got != f.in.Intern(types.MakeRef(f.b.I32, false)) {
		t.Fatalf("normalized to %s", types.Label(f.in, got))
	}

	v := f.sess.NewTyVar(source.NoSpan)
	open := f.in.RegisterProjection(v, uint32(f.show), "Show", "Out")
	out := f.sv.Normalize(f.sess, ParamEnv{}, open, source.NoSpan)
	if !f.sess.IsUnresolvedVar(out) || len(f.sess.Pending()) != 1 {
		t.Fatalf("projection on an unknown self must become a variable with a pending obligation")
	}
	if err := f.sess.Unify(v, f.s); err != nil {
		t.Fatal(err)
	}
	if left := f.sv.TryResolveAll(f.sess, ParamEnv{}, f.reporter()); left != 0 {
		t.Fatalf("%d obligations left", left)
	}
	if got := f.sess.Resolve(out); got != f.b.I32 {
		t.Fatalf("projection resolved to %s", types.Label(f.in, got))
	}

	p0 := f.in.RegisterParam(1, 0, "T")
	rigid := f.in.RegisterProjection(p0, uint32(f.show), "Show", "Out")
	if got := f.sv.Normalize(f.sess, ParamEnv{}, rigid, source.NoSpan); got != rigid {
		t.Fatalf("projection on a parameter must stay rigid")
	}
}

func TestClosureFnTraits(t *testing.T) {
	f := newFixture(t)
	const def = hir.DefID(99)
	sig := f.in.RegisterFn([]types.TypeID{f.b.I32}, f.b.Bool, "rust-call", false)
	closure := f.in.RegisterClosure(uint32(def), "{closure}", sig)
	args := f.in.RegisterTuple([]types.TypeID{f.b.I32})
	lang := f.prog.Lang

	if r := f.sv.Evaluate(f.sess, ParamEnv{}, f.bound(closure, lang.Fn, args)); r != Ambiguous {
		t.Fatalf("unknown closure kind must be ambiguous, got %s", r)
	}
	f.sess.SetClosureKind(def, infer.ClosureFnMut)
	for trait, want := range map[hir.DefID]Result{lang.Fn: Unsatisfied, lang.FnMut: Selected, lang.FnOnce: Selected} {
		if r := f.sv.Implements(f.sess, ParamEnv{}, closure, trait, args); r != want {
			t.Fatalf("%s: got %s, want %s", f.prog.Name(trait), r, want)
		}
	}
	bad := f.in.RegisterTuple([]types.TypeID{f.b.Bool})
	if r := f.sv.Implements(f.sess, ParamEnv{}, closure, lang.FnOnce, bad); r != Unsatisfied {
		t.Fatalf("argument mismatch must fail, got %s", r)
	}

	out := f.sess.NewTyVar(source.NoSpan)
	o := infer.Obligation{Kind: infer.ObProjectionEq, Self: closure, Trait: lang.FnOnce, Assoc: "Output", Ty: out}
	if r := f.sv.Evaluate(f.sess, ParamEnv{}, o); r != Selected || f.sess.Resolve(out) != f.b.Bool {
		t.Fatalf("FnOnce::Output must be the closure result")
	}
}

func TestForceResolveReportsAmbiguity(t *testing.T) {
	f := newFixture(t)
	p0 := f.in.RegisterParam(1, 0, "T")
	env := ParamEnv{Caller: []Predicate{
		{Self: p0, Trait: f.show, Args: []types.TypeID{f.b.I32}},
		{Self: p0, Trait: f.show, Args: []types.TypeID{f.b.U8}},
	}}
	f.sess.Register(f.bound(p0, f.show, f.sess.NewVar(types.InferInt, source.NoSpan)))
	v := f.sess.NewTyVar(source.NoSpan)
	f.sess.Register(f.bound(v, f.show))
	f.sess.Register(f.bound(v, f.prog.Lang.Sized))

	f.sv.ForceResolveOrReport(f.sess, env, f.reporter())
	if f.bag.Count(diag.TckAmbiguousImpl) != 1 {
		t.Fatalf("expected E0283, got %v", f.bag.Items())
	}
	if f.bag.Count(diag.TckAnnotationsNeeded) != 1 {
		t.Fatalf("the same unknown variable must be reported once, got %v", f.bag.Items())
	}
	if len(f.sess.Pending()) != 0 {
		t.Fatalf("force resolution must drain the queue")
	}
}
