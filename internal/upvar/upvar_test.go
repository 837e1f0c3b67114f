package upvar

import (
	"testing"

	"typeck/internal/hir"
	"typeck/internal/infer"
	"typeck/internal/source"
	"typeck/internal/types"
)

type fakeTables struct {
	in     *types.Interner
	nodes  map[hir.NodeID]types.TypeID
	noCopy types.TypeID
}

func (f *fakeTables) NodeType(id hir.NodeID) types.TypeID {
	if t, ok := f.nodes[id]; ok {
		return t
	}
	return f.in.Builtins().I32
}

func (f *fakeTables) IsCopy(t types.TypeID) bool { return t != f.noCopy }

func TestClosureKindsFromCaptures(t *testing.T) {
	b := hir.NewBuilder(nil)
	s := b.Struct(b.Root(), "S")
	main := b.Fn(b.Root(), "main", nil, nil)
	in := types.NewInterner()
	tables := &fakeTables{in: in, nodes: map[hir.NodeID]types.TypeID{}, noCopy: in.RegisterAdt(uint32(s.ID), "S", nil)}

	n := b.BindMut("n")
	v := b.Bind("v")
	vUse := func() *hir.Expr {
		e := b.Local(v)
		tables.nodes[e.ID] = tables.noCopy
		return e
	}

	incr := b.Closure(main.ID, nil, nil)
	b.SetBody(incr.ID, nil, b.Assign(b.Local(n), b.Binary(hir.BinAdd, b.Local(n), b.Int("1"))))
	read := b.Closure(main.ID, nil, nil)
	b.SetBody(read.ID, nil, b.Local(n))
	borrow := b.Closure(main.ID, nil, nil)
	b.SetBody(borrow.ID, nil, b.AddrOf(false, vUse()))

	outer := b.Closure(main.ID, nil, nil)
	inner := b.Closure(outer.ID, nil, nil)
	b.SetBody(inner.ID, nil, vUse())
	own := b.Bind("own")
	b.SetBody(outer.ID, nil, b.Block(b.ClosureExpr(inner.ID),
		b.Let(own, nil, b.Int("2")),
		b.Semi(b.Local(own))))

	f := b.Bind("f")
	call := b.Call(b.Local(f), b.Int("0"))
	body := b.SetBody(main.ID, nil, b.Block(call,
		b.Let(n, nil, b.Int("0")),
		b.Let(v, nil, b.StructLit(s.ID)),
		b.Let(f, nil, b.ClosureExpr(incr.ID)),
		b.Semi(b.ClosureExpr(read.ID)),
		b.Semi(b.ClosureExpr(borrow.ID)),
		b.Semi(b.ClosureExpr(outer.ID)),
	))
	prog := b.Program()

	sess := infer.NewSession(in, main.ID)
	sess.DeferCall(infer.DeferredCall{Call: call.ID, Closure: incr.ID, Span: source.NoSpan})
	caps := Analyzer{}.Analyze(sess, body, prog, tables)

	if sess.DeferredCalls() != 0 {
		t.Fatalf("deferred calls must be drained")
	}
	if got := caps.Calls[call.ID]; got != infer.ClosureFnMut {
		t.Fatalf("call through %s, want FnMut", got)
	}
	cases := []struct {
		def  hir.DefID
		kind infer.ClosureKind
		mode Mode
		name string
	}{
		{incr.ID, infer.ClosureFnMut, ByMutRef, "n"},
		{read.ID, infer.ClosureFn, ByRef, "n"},
		{borrow.ID, infer.ClosureFn, ByRef, "v"},
		{inner.ID, infer.ClosureFnOnce, ByValue, "v"},
		{outer.ID, infer.ClosureFnOnce, ByValue, "v"},
	}
	for _, tc := range cases {
		if got := sess.ClosureKind(tc.def); got != tc.kind {
			t.Fatalf("closure %d: kind %s, want %s", tc.def, got, tc.kind)
		}
		c := caps.Closures[tc.def]
		if len(c) != 1 || c[0].Mode != tc.mode || c[0].Name != tc.name {
			t.Fatalf("closure %d: captures %+v, want %s %s", tc.def, c, tc.name, tc.mode)
		}
	}
}

func TestCallingClosureCapturesByItsKind(t *testing.T) {
	b := hir.NewBuilder(nil)
	main := b.Fn(b.Root(), "main", nil, nil)
	in := types.NewInterner()
	tables := &fakeTables{in: in, nodes: map[hir.NodeID]types.TypeID{}}

	n := b.BindMut("n")
	bump := b.Closure(main.ID, nil, nil)
	b.SetBody(bump.ID, nil, b.Assign(b.Local(n), b.Int("1")))
	g := b.Bind("g")
	callee := b.Local(g)
	caller := b.Closure(main.ID, nil, nil)
	b.SetBody(caller.ID, nil, b.Call(callee))
	tables.nodes[callee.ID] = in.RegisterClosure(uint32(bump.ID), "{closure}", in.RegisterFn(nil, in.Builtins().Unit, "rust-call", false))

	body := b.SetBody(main.ID, nil, b.Block(nil,
		b.Let(n, nil, b.Int("0")),
		b.Let(g, nil, b.ClosureExpr(bump.ID)),
		b.Semi(b.ClosureExpr(caller.ID)),
	))
	prog := b.Program()
	sess := infer.NewSession(in, main.ID)
	caps := Analyzer{}.Analyze(sess, body, prog, tables)

	if got := sess.ClosureKind(caller.ID); got != infer.ClosureFnMut {
		t.Fatalf("calling an FnMut closure makes the caller FnMut, got %s", got)
	}
	if c := caps.Closures[caller.ID]; len(c) != 1 || c[0].Name != "g" || c[0].Mode != ByMutRef {
		t.Fatalf("captures %+v", c)
	}
}
