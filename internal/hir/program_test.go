package hir

import (
	"bytes"
	"fmt"
	"testing"
)

func TestBuilderPrelude(t *testing.T) {
	p := NewBuilder(nil).Program()
	for name, id := range map[string]DefID{
		"Sized": p.Lang.Sized, "Copy": p.Lang.Copy,
		"FnOnce": p.Lang.FnOnce, "FnMut": p.Lang.FnMut, "Fn": p.Lang.Fn,
	} {
		u := p.Unit(id)
		if u == nil || u.Kind != DefTrait || u.Name != name {
			t.Fatalf("lang item %s missing, got %+v", name, u)
		}
	}
	fnOnce := p.Unit(p.Lang.FnOnce)
	if len(fnOnce.AssocTypes) != 1 || fnOnce.AssocTypes[0] != "Output" {
		t.Fatalf("FnOnce must declare Output, got %v", fnOnce.AssocTypes)
	}
	if fnOnce.Generics == nil || len(fnOnce.Generics.Params) != 1 {
		t.Fatalf("FnOnce must take the argument tuple parameter")
	}
}

func TestProgramIndexAndAccessors(t *testing.T) {
	b := NewBuilder(nil)
	m := b.Mod(b.Root(), "m")
	tr := b.Trait(b.Root(), "Show")
	use := b.Use(m.ID, tr.ID)
	s := b.Struct(m.ID, "S")
	impl := b.Impl(m.ID, NoDefID, b.TyDef(s.ID))
	method := b.Fn(impl.ID, "get", nil, b.TyPrim("i32"))
	x := b.Bind("x")
	b.SetBody(method.ID, nil, b.Block(b.Local(x), b.Let(x, nil, b.Int("1"))))
	p := b.Program()

	if method.Kind != DefAssocFn {
		t.Fatalf("fn inside impl should be an associated fn, got %s", method.Kind)
	}
	if got, want := p.Name(method.ID), fmt.Sprintf("m::{impl#%d}::get", impl.ID); got != want {
		t.Fatalf("unexpected path %q", got)
	}
	if p.Module(method.ID) != m.ID {
		t.Fatalf("module of method should be m")
	}
	if imports := p.TraitImports(m.ID); len(imports) != 1 || imports[0] != use.ID {
		t.Fatalf("expected one trait import, got %v", imports)
	}
	if owners := p.BodyOwners(); len(owners) != 1 || owners[0] != method.ID {
		t.Fatalf("body owners = %v", owners)
	}
	if p.Pat(x.ID) != x {
		t.Fatalf("let pattern not indexed")
	}
	body := p.BodyOf(method.ID)
	tail := body.Value.Data.(*BlockData).Tail
	if p.Expr(tail.ID) != tail || p.MaxNodeID() < tail.ID {
		t.Fatalf("tail expression not indexed")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	b := NewBuilder(nil)
	f := b.Fn(b.Root(), "f", []*Ty{b.TyRef(false, b.TySlice(b.TyPrim("u8")))}, b.TyInfer())
	n := b.AnonConst(f.ID, PlaceArrayLength)
	b.SetBody(n.ID, nil, b.Int("4"))
	arg := b.Bind("buf")
	v := b.BindMut("v")
	brk := b.Break("", b.Local(v))
	b.SetBody(f.ID, []*Pat{arg}, b.Block(
		b.Loop("", b.Block(nil, b.Semi(brk))),
		b.Let(v, b.TyArray(b.TyPrim("u8"), n.ID), b.Repeat(b.IntSuffixed("0", "u8"), n.ID)),
	))
	p := b.Program()

	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		t.Fatalf("encode: %v", err)
	}
	q, err := Decode(&buf, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(q.Units) != len(p.Units) || len(q.Bodies) != len(p.Bodies) {
		t.Fatalf("unit/body counts differ")
	}
	qf := q.Unit(f.ID)
	if !qf.Decl.ReturnIsPlaceholder() || qf.Decl.Inputs[0].Kind != TyRef {
		t.Fatalf("signature not preserved: %+v", qf.Decl)
	}
	got, ok := q.Expr(brk.ID).Data.(*BreakData)
	if !ok || got.Target != brk.Data.(*BreakData).Target || got.Value.Data.(*PathData).Res.Local != v.ID {
		t.Fatalf("break payload not preserved: %+v", got)
	}
	if !q.Pat(v.ID).Data.(*BindingData).Mutable {
		t.Fatalf("binding mutability lost")
	}
	if q.Lang != p.Lang || q.Root != p.Root {
		t.Fatalf("lang items not preserved")
	}
}
