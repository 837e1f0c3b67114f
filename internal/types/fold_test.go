package types

import "testing"

func TestSubstParams(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	tp := in.RegisterParam(1, 0, "T")
	up := in.RegisterParam(1, 1, "U")
	fn := in.RegisterFn([]TypeID{in.Intern(MakeRef(tp, false))}, in.RegisterTuple([]TypeID{tp, up}), "", false)

	got := in.SubstParams(fn, []TypeID{b.U8, b.Bool})
	want := in.RegisterFn([]TypeID{in.Intern(MakeRef(b.U8, false))}, in.RegisterTuple([]TypeID{b.U8, b.Bool}), "", false)
	if got != want {
		t.Fatalf("want %s, got %s", Label(in, want), Label(in, got))
	}
	if in.HasParams(got) {
		t.Fatalf("substituted type still mentions params")
	}
}

func TestHasInferAndError(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	v := in.Intern(MakeVar(InferTy, 3))
	arr := in.Intern(MakeArray(v, 2))
	if !in.HasInfer(arr) || in.HasInfer(in.Intern(MakeArray(b.U8, 2))) {
		t.Fatalf("HasInfer mismatch")
	}
	if !in.HasError(in.RegisterTuple([]TypeID{b.U8, b.Error})) {
		t.Fatalf("HasError must see nested error")
	}
}

func TestFoldRebuildsOnlyChangedNodes(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	tuple := in.RegisterTuple([]TypeID{b.U8, b.Bool})
	same := in.Fold(tuple, func(id TypeID) TypeID { return id })
	if same != tuple {
		t.Fatalf("identity fold must preserve ids")
	}
	swapped := in.Fold(tuple, func(id TypeID) TypeID {
		if id == b.Bool {
			return b.Char
		}
		return id
	})
	if Label(in, swapped) != "(u8, char)" {
		t.Fatalf("unexpected fold result %s", Label(in, swapped))
	}
}
