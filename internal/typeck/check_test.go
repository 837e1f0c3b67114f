package typeck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/ice"
	"typeck/internal/infer"
	"typeck/internal/trace"
)

// unitFn builds `fn name() { stmts... }` under the crate root.
func unitFn(b *hir.Builder, name string, stmts ...*hir.Stmt) *hir.Unit {
	f := b.Fn(b.Root(), name, nil, nil)
	b.SetBody(f.ID, nil, b.Block(nil, stmts...))
	return f
}

func TestCastSeesFallbackType(t *testing.T) {
	b := hir.NewBuilder(nil)
	x := b.Bind("x")
	cast := b.Cast(b.Local(x), b.TyPrim("f64"))
	f := unitFn(b, "f", b.Let(x, nil, b.Int("1")), b.Semi(cast))
	c := newTestContext(b, Config{}, Services{})

	res := c.Typeck(f.ID)
	require.Zero(t, res.ErrorCount(), "%v", res.Diagnostics())
	kind, ok := res.Cast(cast.ID)
	require.True(t, ok)
	require.Equal(t, CastNumeric, kind)
	local, ok := res.Local(x.ID)
	require.True(t, ok)
	require.Equal(t, c.Types.Builtins().I32, local.Decl)
}

func TestCastKinds(t *testing.T) {
	b := hir.NewBuilder(nil)
	toChar := b.Cast(b.Int("65"), b.TyPrim("char"))
	boolToInt := b.Cast(b.Bool(true), b.TyPrim("u8"))
	same := b.Cast(b.IntSuffixed("1", "i64"), b.TyPrim("i64"))
	badChar := b.Cast(b.IntSuffixed("5", "u32"), b.TyPrim("char"))
	toBool := b.Cast(b.IntSuffixed("5", "i32"), b.TyPrim("bool"))
	f := unitFn(b, "f", b.Semi(toChar), b.Semi(boolToInt), b.Semi(same), b.Semi(badChar), b.Semi(toBool))
	c := newTestContext(b, Config{}, Services{})

	res := c.Typeck(f.ID)
	for _, tc := range []struct {
		expr *hir.Expr
		want CastKind
	}{
		{toChar, CastU8ToChar},
		{boolToInt, CastBoolToInt},
		{same, CastIdentity},
		{badChar, CastInvalid},
		{toBool, CastInvalid},
	} {
		got, ok := res.Cast(tc.expr.ID)
		require.True(t, ok)
		require.Equal(t, tc.want, got, "cast %d", tc.expr.ID)
	}
	require.Equal(t, 2, countCode(res, diag.TckInvalidCast))
	var msgs []string
	for _, d := range res.Diagnostics() {
		msgs = append(msgs, d.Message)
	}
	require.Contains(t, msgs, "only `u8` can be cast as `char`, not `u32`")
	require.Contains(t, msgs, "cannot cast `i32` as `bool`")
	require.True(t, res.Tainted())
}

func TestUnsizedConstIsReportedOnce(t *testing.T) {
	b := hir.NewBuilder(nil)
	s := b.Const(b.Root(), "S", b.TyPrim("str"))
	b.SetBody(s.ID, nil, b.Unary(hir.UnDeref, b.Str("hi")))
	c := newTestContext(b, Config{}, Services{})

	res := c.Typeck(s.ID)
	require.Equal(t, 1, countCode(res, diag.TckUnsized))
	require.True(t, res.Tainted())
	require.Equal(t, c.Types.Builtins().Str, res.ValueType())
}

// strProjection builds `trait Tr { type Out; }` with `impl Tr for i32 { type Out = str; }`.
func strProjection(b *hir.Builder) *hir.Unit {
	tr := b.Trait(b.Root(), "Tr", "Out")
	impl := b.Impl(b.Root(), tr.ID, b.TyPrim("i32"))
	b.BindAssoc(impl.ID, "Out", b.TyPrim("str"))
	return tr
}

func TestDeferredSizedIsNormalized(t *testing.T) {
	b := hir.NewBuilder(nil)
	tr := strProjection(b)
	f := unitFn(b, "f")
	c := newTestContext(b, Config{}, Services{})

	r := &run{c: c, key: resultKey{def: f.ID}}
	r.buildSession()
	proj := c.Types.RegisterProjection(c.Types.Builtins().I32, uint32(tr.ID), "Tr", "Out")
	r.fcx.deferSized(proj, f.Span, infer.CauseSizedArgument)
	r.drainDeferredSized()
	r.selectAllOrError()
	require.Equal(t, 1, r.fcx.bag.Count(diag.TckUnsized), "%v", r.fcx.bag.Items())
}

func TestUnsizedProjectionArgument(t *testing.T) {
	b := hir.NewBuilder(nil)
	tr := strProjection(b)
	g := b.Fn(b.Root(), "g", nil, nil)
	tp := b.TypeParam(g.ID, "T")
	b.Bound(g.ID, b.TyDef(tp.ID), tr.ID)
	g.Decl.Inputs = []*hir.Ty{b.TyProjection(b.TyDef(tp.ID), tr.ID, "Out")}
	b.SetBody(g.ID, []*hir.Pat{b.Wild()}, b.Block(nil))
	call := b.Call(b.Path(g.ID, b.TyPrim("i32")), b.Unary(hir.UnDeref, b.Str("hi")))
	f := unitFn(b, "f", b.Semi(call))
	c := newTestContext(b, Config{}, Services{})

	res := c.Typeck(f.ID)
	require.GreaterOrEqual(t, countCode(res, diag.TckUnsized), 1, "%v", res.Diagnostics())
	require.True(t, res.Tainted())
}

func TestTupleStructPatternOnFunction(t *testing.T) {
	b := hir.NewBuilder(nil)
	g := b.Fn(b.Root(), "g", []*hir.Ty{b.TyPrim("i32")}, nil)
	b.SetBody(g.ID, []*hir.Pat{b.Wild()}, b.Block(nil))
	x := b.Bind("x")
	f := unitFn(b, "f", b.Let(b.PatTupleStruct(g.ID, x), nil, b.Int("1")))
	c := newTestContext(b, Config{}, Services{})

	res := c.Typeck(f.ID)
	require.Equal(t, 1, countCode(res, diag.TckExpectedTupleStruct))
	var d *diag.Diagnostic
	for _, it := range res.Diagnostics() {
		if it.Code == diag.TckExpectedTupleStruct {
			d = it
		}
	}
	require.Contains(t, d.Message, "expected tuple struct or tuple variant, found")
	require.Equal(t, "`fn` calls are not allowed in patterns", d.Notes[0].Msg)
	local, ok := res.Local(x.ID)
	require.True(t, ok)
	require.Equal(t, c.Types.Builtins().Error, local.Decl)
}

func TestTransmuteBetweenDifferentSizes(t *testing.T) {
	b := hir.NewBuilder(nil)
	tm := b.Fn(b.Root(), "transmute", []*hir.Ty{b.TyPrim("u8")}, b.TyPrim("u32"))
	tm.Intrinsic = "transmute"
	call := b.Call(b.Path(tm.ID), b.IntSuffixed("1", "u8"))
	f := unitFn(b, "f", b.Semi(call))
	c := newTestContext(b, Config{}, Services{})

	res := c.Typeck(f.ID)
	target, ok := res.Call(call.ID)
	require.True(t, ok)
	require.Equal(t, CallIntrinsic, target.Kind)
	require.Equal(t, 1, countCode(res, diag.TckTransmuteSize))
	d := res.Diagnostics()[0]
	require.Equal(t, "source type: `u8` (8 bits)", d.Notes[0].Msg)
	require.Equal(t, "target type: `u32` (32 bits)", d.Notes[1].Msg)
}

func TestInlineAsmOperandTypes(t *testing.T) {
	b := hir.NewBuilder(nil)
	asm := b.InlineAsm("nop",
		b.AsmOperandExpr(hir.AsmIn, "reg", b.IntSuffixed("1", "u64")),
		b.AsmOperandExpr(hir.AsmIn, "reg", b.Bool(true)),
	)
	f := unitFn(b, "f", b.Semi(asm))
	c := newTestContext(b, Config{}, Services{})

	res := c.Typeck(f.ID)
	require.Equal(t, 1, countCode(res, diag.TckAsmOperand))
	for _, d := range res.Diagnostics() {
		if d.Code == diag.TckAsmOperand {
			require.Equal(t, "cannot use value of type `bool` for inline assembly", d.Message)
		}
	}
}

func TestLabeledBreakSkipsInnerLoop(t *testing.T) {
	b := hir.NewBuilder(nil)
	brk := b.Break("outer", b.Int("5"))
	inner := b.Loop("", b.Block(nil, b.Semi(brk)))
	outer := b.Loop("outer", b.Block(nil, b.Semi(inner)))
	f := b.Fn(b.Root(), "f", nil, b.TyPrim("i32"))
	b.SetBody(f.ID, nil, outer)
	c := newTestContext(b, Config{}, Services{})

	res := c.Typeck(f.ID)
	require.Zero(t, res.ErrorCount(), "%v", res.Diagnostics())
	bi := c.Types.Builtins()
	got, _ := res.NodeType(outer.ID)
	require.Equal(t, bi.I32, got)
	got, _ = res.NodeType(inner.ID)
	require.Equal(t, bi.Never, got)
}

func TestBreakOutsideLoop(t *testing.T) {
	b := hir.NewBuilder(nil)
	f := unitFn(b, "f", b.Semi(b.Break("", nil)))
	c := newTestContext(b, Config{}, Services{})

	res := c.Typeck(f.ID)
	require.Equal(t, 1, countCode(res, diag.TckBreakOutsideLoop))
}

func TestBreakableStack(t *testing.T) {
	eb := newEnclosingBreakables()
	outer := &BreakableCtxt{}
	inner := &BreakableCtxt{}
	eb.push(1, outer)
	eb.push(2, inner)
	require.Equal(t, 2, eb.Depth())
	require.Same(t, outer, eb.Find(1))
	require.Nil(t, eb.OptFind(3))

	err := ice.Catch(func() { eb.Find(3) })
	bug, ok := ice.AsBug(err)
	require.True(t, ok)
	require.Contains(t, bug.Error(), "could not find enclosing breakable with id 3")

	err = ice.Catch(func() { eb.pop(1) })
	_, ok = ice.AsBug(err)
	require.True(t, ok)

	require.Same(t, inner, eb.pop(2))
	require.Same(t, outer, eb.pop(1))
	require.Zero(t, eb.Depth())
}

func TestPhasesRunInOrder(t *testing.T) {
	b := hir.NewBuilder(nil)
	f := unitFn(b, "f")
	ring := trace.NewRingTracer(0, trace.LevelDetail)
	c := newTestContext(b, Config{Tracer: ring}, Services{})
	c.Typeck(f.ID)

	var phases []string
	units := 0
	for _, ev := range ring.Snapshot() {
		if ev.Kind != trace.KindSpanBegin {
			continue
		}
		switch ev.Scope {
		case trace.ScopePhase:
			phases = append(phases, ev.Name)
		case trace.ScopeUnit:
			units++
		}
	}
	require.Equal(t, Steps, phases)
	require.Equal(t, 1, units)

	report := c.Timings()
	require.NotEmpty(t, report.Phases)
}
