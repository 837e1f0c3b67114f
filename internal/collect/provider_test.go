package collect

import (
	"strings"
	"testing"

	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/source"
	"typeck/internal/types"
)

func newProvider(prog *hir.Program) (*Provider, *diag.Bag) {
	bag := diag.NewBag(64)
	return New(prog, types.NewInterner(), diag.BagReporter{Bag: bag}, nil), bag
}

func lenConst(b *hir.Builder, parent hir.DefID, value *hir.Expr) hir.DefID {
	c := b.AnonConst(parent, hir.PlaceArrayLength)
	b.SetBody(c.ID, nil, value)
	return c.ID
}

func TestLowerTyShapes(t *testing.T) {
	b := hir.NewBuilder(nil)
	wrap := b.Struct(b.Root(), "Wrap")
	tp := b.TypeParam(wrap.ID, "T")
	wrap.Fields = []*hir.FieldDef{b.FieldDecl("v", b.TyDef(tp.ID))}
	f := b.Fn(b.Root(), "f", nil, nil)
	n := b.ConstParam(f.ID, "N", b.TyPrim("usize"))
	four := lenConst(b, f.ID, b.Binary(hir.BinAdd, b.Int("1"), b.Int("3")))
	generic := lenConst(b, f.ID, b.Path(n.ID))
	prog := b.Program()
	p, bag := newProvider(prog)
	in := p.Types
	bi := in.Builtins()

	cases := []struct {
		ty   *hir.Ty
		want string
	}{
		{b.TyPrim("u8"), "u8"},
		{b.TyRef(true, b.TyPrim("str")), "&mut str"},
		{b.TyArray(b.TyPrim("i32"), four), "[i32; 4]"},
		{b.TyArray(b.TyPrim("i32"), generic), "[i32; N]"},
		{b.TyTuple(b.TyPrim("bool"), b.TyNever()), "(bool, !)"},
		{b.TyDef(wrap.ID, b.TyPrim("char")), "Wrap<char>"},
	}
	for _, tc := range cases {
		got := p.LowerTy(tc.ty, f.ID, LowerOpts{})
		if label := types.Label(in, got); label != tc.want {
			t.Fatalf("lowered to %q, want %q", label, tc.want)
		}
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}

	if got := p.LowerTy(b.TyDef(wrap.ID), f.ID, LowerOpts{}); got != bi.Error {
		t.Fatalf("missing generic argument must lower to the error type")
	}
	if bag.Count(diag.TckGenericArgCount) != 1 {
		t.Fatalf("expected E0107, got %v", bag.Items())
	}
	if got := p.LowerTy(b.TyInfer(), f.ID, LowerOpts{}); got != bi.Error || bag.Count(diag.TckPlaceholderInSignature) != 1 {
		t.Fatalf("`_` without fresh variables must be reported")
	}
	fresh := 0
	p.LowerTy(b.TyTuple(b.TyInfer(), b.TyInfer()), f.ID, LowerOpts{Fresh: func(_ source.Span) types.TypeID {
		fresh++
		return bi.U8
	}})
	if fresh != 2 {
		t.Fatalf("expected one fresh type per placeholder, got %d", fresh)
	}
}

func TestSelfTypes(t *testing.T) {
	b := hir.NewBuilder(nil)
	s := b.Struct(b.Root(), "S")
	tr := b.Trait(b.Root(), "Tr")
	inTrait := b.Fn(tr.ID, "m", []*hir.Ty{b.TySelf()}, nil)
	impl := b.Impl(b.Root(), tr.ID, b.TyDef(s.ID))
	inImpl := b.Fn(impl.ID, "m", []*hir.Ty{b.TySelf()}, b.TySelf())
	p, _ := newProvider(b.Program())
	in := p.Types

	sig, _ := in.FnInfo(p.FnSig(inImpl.ID))
	if types.Label(in, sig.Params[0]) != "S" || sig.Result != sig.Params[0] {
		t.Fatalf("Self in an impl must be the impl's self type, got %s", types.Label(in, p.FnSig(inImpl.ID)))
	}
	sig, _ = in.FnInfo(p.FnSig(inTrait.ID))
	info, ok := in.ParamInfo(sig.Params[0])
	if !ok || info.Index != types.SelfIndex || info.Name != "Self" {
		t.Fatalf("Self in a trait must be the implicit parameter, got %s", types.Label(in, sig.Params[0]))
	}
}

func TestParamEnvIncludesEnclosingBounds(t *testing.T) {
	b := hir.NewBuilder(nil)
	show := b.Trait(b.Root(), "Show")
	tr := b.Trait(b.Root(), "Tr")
	m := b.Fn(tr.ID, "m", nil, nil)
	tp := b.TypeParam(m.ID, "T")
	b.Bound(m.ID, b.TyDef(tp.ID), show.ID).Const = true
	b.Bound(m.ID, b.TyDef(tp.ID), show.ID, b.TyPrim("u8"))
	closure := b.Closure(m.ID, nil, nil)
	p, bag := newProvider(b.Program())

	env := p.ParamEnv(closure.ID)
	if len(env.Caller) != 2 {
		t.Fatalf("expected T: ~const Show and Self: Tr, got %+v", env.Caller)
	}
	if bag.Count(diag.TckGenericArgCount) != 1 {
		t.Fatalf("Show<u8> must be rejected, got %v", bag.Items())
	}
	if len(env.WithoutConst().Caller) != 1 {
		t.Fatalf("WithoutConst must keep only Self: Tr")
	}
	if !p.HasExpectedNumGenericArgs(show.ID, 0) || p.HasExpectedNumGenericArgs(show.ID, 1) {
		t.Fatalf("Show takes no arguments")
	}
	if p.GenericsCount(m.ID) != 1 {
		t.Fatalf("generics count = %d", p.GenericsCount(m.ID))
	}
}

func TestTraitImplsLowering(t *testing.T) {
	b := hir.NewBuilder(nil)
	show := b.Trait(b.Root(), "Show", "Out")
	s := b.Struct(b.Root(), "S")
	impl := b.Impl(b.Root(), show.ID, b.TyDef(s.ID))
	b.BindAssoc(impl.ID, "Out", b.TyPrim("i64"))
	inherent := b.Impl(b.Root(), hir.NoDefID, b.TyDef(s.ID))
	p, _ := newProvider(b.Program())

	impls := p.TraitImpls(show.ID)
	if len(impls) != 1 || impls[0].Def != impl.ID {
		t.Fatalf("expected the single Show impl, got %+v", impls)
	}
	if got := impls[0].Assoc["Out"]; got != p.Types.Builtins().I64 {
		t.Fatalf("Out = %s", types.Label(p.Types, got))
	}
	if p.Impl(impl.ID) != impls[0] {
		t.Fatalf("impls must be memoized")
	}
	if in := p.InherentImpls(); len(in) != 1 || in[0].Def != inherent.ID {
		t.Fatalf("inherent impls: %+v", in)
	}
}

func TestPlaceholderConstType(t *testing.T) {
	b := hir.NewBuilder(nil)
	c := b.Const(b.Root(), "C", b.TyInfer())
	b.SetBody(c.ID, nil, b.Int("3"))
	p, bag := newProvider(b.Program())
	calls := 0
	p.InferConstType = func(def hir.DefID) types.TypeID {
		calls++
		return p.Types.Builtins().I32
	}

	for range 2 {
		if got := p.TypeOf(c.ID); got != p.Types.Builtins().I32 {
			t.Fatalf("TypeOf = %s", types.Label(p.Types, got))
		}
	}
	if calls != 1 {
		t.Fatalf("inference must run once, ran %d times", calls)
	}
	if bag.Count(diag.TckPlaceholderInSignature) != 1 {
		t.Fatalf("expected E0121, got %v", bag.Items())
	}
	d := bag.Items()[0]
	if len(d.Notes) != 1 || !strings.Contains(d.Notes[0].Msg, "`i32`") {
		t.Fatalf("expected the inferred type in a note, got %+v", d.Notes)
	}
}

func TestPlaceholderCycle(t *testing.T) {
	b := hir.NewBuilder(nil)
	a := b.Const(b.Root(), "A", b.TyInfer())
	bc := b.Const(b.Root(), "B", b.TyInfer())
	b.SetBody(a.ID, nil, b.Path(bc.ID))
	b.SetBody(bc.ID, nil, b.Path(a.ID))
	p, bag := newProvider(b.Program())
	p.InferConstType = func(hir.DefID) types.TypeID {
		t.Fatalf("a cyclic item must not be checked")
		return types.NoTypeID
	}

	if got := p.TypeOf(a.ID); got != p.Types.Builtins().Error {
		t.Fatalf("a cycle must produce the error type")
	}
	if bag.Count(diag.TckCycle) != 1 {
		t.Fatalf("expected E0391, got %v", bag.Items())
	}
}

func TestTypeofCycle(t *testing.T) {
	b := hir.NewBuilder(nil)
	f := b.Fn(b.Root(), "f", nil, nil)
	c := b.AnonConst(f.ID, hir.PlaceTypeof)
	f.Decl.Output = b.TyTypeof(c.ID)
	b.SetBody(c.ID, nil, b.Call(b.Path(f.ID)))
	p, bag := newProvider(b.Program())
	p.AnonConstType = func(hir.DefID) types.TypeID {
		t.Fatalf("a cyclic typeof must not be checked")
		return types.NoTypeID
	}

	sig, _ := p.Types.FnInfo(p.FnSig(f.ID))
	if sig.Result != p.Types.Builtins().Error || bag.Count(diag.TckCycle) != 1 {
		t.Fatalf("expected E0391 and an error return type, got %v", bag.Items())
	}
}

func TestMutualTypeofCycle(t *testing.T) {
	b := hir.NewBuilder(nil)
	f := b.Fn(b.Root(), "f", nil, nil)
	g := b.Fn(b.Root(), "g", nil, nil)
	cf := b.AnonConst(f.ID, hir.PlaceTypeof)
	f.Decl.Output = b.TyTypeof(cf.ID)
	b.SetBody(cf.ID, nil, b.Call(b.Path(g.ID)))
	cg := b.AnonConst(g.ID, hir.PlaceTypeof)
	g.Decl.Output = b.TyTypeof(cg.ID)
	b.SetBody(cg.ID, nil, b.Call(b.Path(f.ID)))
	p, bag := newProvider(b.Program())
	p.AnonConstType = func(hir.DefID) types.TypeID {
		t.Fatalf("a cyclic typeof must not be checked")
		return types.NoTypeID
	}

	for i, fn := range []hir.DefID{f.ID, g.ID} {
		sig, _ := p.Types.FnInfo(p.FnSig(fn))
		if sig.Result != p.Types.Builtins().Error || bag.Count(diag.TckCycle) != i+1 {
			t.Fatalf("expected E0391 for %s, got %v", p.Prog.Name(fn), bag.Items())
		}
	}
}

func TestTypeofThroughPlainFnIsNotACycle(t *testing.T) {
	b := hir.NewBuilder(nil)
	g := b.Fn(b.Root(), "g", nil, b.TyPrim("u8"))
	f := b.Fn(b.Root(), "f", nil, nil)
	c := b.AnonConst(f.ID, hir.PlaceTypeof)
	f.Decl.Output = b.TyTypeof(c.ID)
	b.SetBody(c.ID, nil, b.Call(b.Path(g.ID)))
	b.SetBody(g.ID, nil, b.Call(b.Path(f.ID)))
	p, bag := newProvider(b.Program())
	called := false
	p.AnonConstType = func(hir.DefID) types.TypeID {
		called = true
		return p.Types.Builtins().U8
	}

	sig, _ := p.Types.FnInfo(p.FnSig(f.ID))
	if !called || sig.Result != p.Types.Builtins().U8 || bag.Count(diag.TckCycle) != 0 {
		t.Fatalf("g's body does not feed its signature, got %v", bag.Items())
	}
}

func TestEvalConst(t *testing.T) {
	b := hir.NewBuilder(nil)
	k := b.Const(b.Root(), "K", b.TyPrim("usize"))
	b.SetBody(k.ID, nil, b.Int("0x10"))
	mul := lenConst(b, b.Root(), b.Binary(hir.BinMul, b.Path(k.ID), b.Cast(b.Int("3"), b.TyPrim("usize"))))
	overflow := lenConst(b, b.Root(), b.Binary(hir.BinSub, b.Int("1"), b.Int("2")))
	p, _ := newProvider(b.Program())

	if v, generic, ok := p.EvalConst(mul); !ok || generic || v != 48 {
		t.Fatalf("K * 3 = %d (generic=%v ok=%v)", v, generic, ok)
	}
	if _, _, ok := p.EvalConst(overflow); ok {
		t.Fatalf("1 - 2 must not evaluate")
	}
}

func TestAdtShapeForLayout(t *testing.T) {
	b := hir.NewBuilder(nil)
	pair := b.TupleStruct(b.Root(), "Pair")
	tp := b.TypeParam(pair.ID, "T")
	pair.Fields = []*hir.FieldDef{b.FieldDecl("0", b.TyDef(tp.ID)), b.FieldDecl("1", b.TyPrim("u8"))}
	opt := b.Enum(b.Root(), "Opt", "u8")
	b.Variant(opt.ID, "None")
	b.Variant(opt.ID, "Some", b.TyPrim("u32"))
	p, _ := newProvider(b.Program())
	bi := p.Types.Builtins()

	shape, ok := p.AdtShape(uint32(pair.ID), []types.TypeID{bi.U16})
	if !ok || shape.IsEnum || len(shape.Variants[0]) != 2 || shape.Variants[0][0] != bi.U16 {
		t.Fatalf("struct shape: %+v", shape)
	}
	shape, ok = p.AdtShape(uint32(opt.ID), nil)
	if !ok || !shape.IsEnum || len(shape.Variants) != 2 || len(shape.Variants[1]) != 1 {
		t.Fatalf("enum shape: %+v", shape)
	}
	ctor, ok := p.CtorSig(pair.ID)
	if !ok || types.Label(p.Types, ctor) != "fn(T, u8) -> Pair<T>" {
		t.Fatalf("constructor: %s", types.Label(p.Types, ctor))
	}
}
