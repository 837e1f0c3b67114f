package types

import (
	"sync"
	"testing"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Unit == NoTypeID || b.Bool == NoTypeID || b.Usize == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if !in.IsUnit(b.Unit) || len(in.TupleElems(b.Unit)) != 0 {
		t.Fatalf("unit must be the empty tuple")
	}
	if got := Label(in, b.Usize); got != "usize" {
		t.Fatalf("expected usize, got %s", got)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	u8 := in.Builtins().U8
	if in.Intern(MakeArray(u8, 4)) != in.Intern(MakeArray(u8, 4)) {
		t.Fatalf("array types should be deduplicated")
	}
	if in.Intern(MakeArray(u8, 4)) == in.Intern(MakeArray(u8, 5)) {
		t.Fatalf("array length is part of identity")
	}
	pair := []TypeID{u8, in.Builtins().Bool}
	if in.RegisterTuple(pair) != in.RegisterTuple([]TypeID{u8, in.Builtins().Bool}) {
		t.Fatalf("tuples should be deduplicated")
	}
	if in.RegisterFn(pair, u8, "", false) != in.RegisterFn(pair, u8, AbiRust, false) {
		t.Fatalf("empty abi is the default abi")
	}
	if in.RegisterFn(pair, u8, "C", false) == in.RegisterFn(pair, u8, AbiRust, false) {
		t.Fatalf("abi is part of identity")
	}
}

func TestReferenceMutabilityAffectsIdentity(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().I32
	if in.Intern(MakeRef(elem, true)) == in.Intern(MakeRef(elem, false)) {
		t.Fatalf("mutable and immutable references must differ")
	}
}

func TestConcurrentInterning(t *testing.T) {
	in := NewInterner()
	const workers = 16
	ids := make([]TypeID, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			elem := in.RegisterAdt(7, "Vec", []TypeID{in.Builtins().U8})
			ids[i] = in.RegisterTuple([]TypeID{elem, in.Intern(MakeSlice(elem))})
		}()
	}
	wg.Wait()
	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("concurrent interning produced distinct ids")
		}
	}
}

func TestLabels(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	param := in.RegisterParam(3, 0, "T")
	cases := []struct {
		id   TypeID
		want string
	}{
		{in.Intern(MakeRef(in.Intern(MakeArray(b.U8, 4)), true)), "&mut [u8; 4]"},
		{in.Intern(MakePtr(b.Str, false)), "*const str"},
		{in.RegisterTuple([]TypeID{b.I32}), "(i32,)"},
		{in.RegisterFn([]TypeID{b.I32}, b.Unit, "C", true), `extern "C" fn(i32, ...)`},
		{in.RegisterFn(nil, b.Bool, "", false), "fn() -> bool"},
		{in.RegisterAdt(1, "Option", []TypeID{param}), "Option<T>"},
		{in.Intern(MakeVar(InferInt, 0)), "{integer}"},
		{in.Intern(MakeVar(InferTy, 0)), "_"},
		{in.RegisterProjection(param, 9, "Iterator", "Item"), "<T as Iterator>::Item"},
		{in.RegisterDyn(4, "Debug"), "dyn Debug"},
		{b.Never, "!"},
		{b.Error, "{type error}"},
	}
	for _, tc := range cases {
		if got := Label(in, tc.id); got != tc.want {
			t.Fatalf("want %q, got %q", tc.want, got)
		}
	}
}
