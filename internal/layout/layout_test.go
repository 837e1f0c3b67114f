package layout

import (
	"errors"
	"testing"

	"typeck/internal/types"
)

type fakeAdts map[uint32]AdtShape

func (f fakeAdts) AdtShape(def uint32, _ []types.TypeID) (AdtShape, bool) {
	s, ok := f[def]
	return s, ok
}

func TestPrimitiveSizes(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	e := New(X86_64LinuxGNU(), in, nil)
	cases := []struct {
		id   types.TypeID
		size int
	}{
		{b.U8, 1}, {b.I32, 4}, {b.U64, 8}, {b.Usize, 8}, {b.F32, 4}, {b.Char, 4}, {b.Bool, 1},
		{b.Unit, 0},
		{in.Intern(types.MakeArray(b.U16, 3)), 6},
		{in.Intern(types.MakeRef(b.U8, false)), 8},
		{in.Intern(types.MakeRef(b.Str, false)), 16},
		{in.RegisterTuple([]types.TypeID{b.U8, b.U32}), 8},
	}
	for _, tc := range cases {
		got, err := e.SizeOf(tc.id)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", types.Label(in, tc.id), err)
		}
		if got != tc.size {
			t.Fatalf("%s: want %d, got %d", types.Label(in, tc.id), tc.size, got)
		}
	}
}

func TestPointerWidthFromTarget(t *testing.T) {
	target, err := TargetFor("i686-linux-gnu", 32)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	in := types.NewInterner()
	e := New(target, in, nil)
	if got, _ := e.SizeOf(in.Builtins().Usize); got != 4 {
		t.Fatalf("usize on 32-bit: want 4, got %d", got)
	}
	if _, err := TargetFor("x", 48); err == nil {
		t.Fatalf("expected error for 48-bit pointers")
	}
}

func TestGenericAndUnsizedFail(t *testing.T) {
	in := types.NewInterner()
	e := New(X86_64LinuxGNU(), in, nil)
	param := in.RegisterParam(1, 0, "T")

	var lerr *LayoutError
	if _, err := e.SizeOf(param); !errors.As(err, &lerr) || lerr.Kind != LayoutErrGeneric {
		t.Fatalf("expected generic error, got %v", err)
	}
	if _, err := e.SizeOf(in.Builtins().Str); !errors.As(err, &lerr) || lerr.Kind != LayoutErrUnsized {
		t.Fatalf("expected unsized error, got %v", err)
	}
}

func TestAdtLayouts(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	adts := fakeAdts{
		1: {Variants: [][]types.TypeID{{b.U8, b.U64, b.U16}}},
		2: {IsEnum: true, Variants: [][]types.TypeID{nil, {b.U32}}},
	}
	e := New(X86_64LinuxGNU(), in, adts)

	l, err := e.LayoutOf(in.RegisterAdt(1, "S", nil))
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	if l.Size != 24 || l.Align != 8 || l.FieldOffsets[1] != 8 || l.FieldOffsets[2] != 16 {
		t.Fatalf("unexpected struct layout %+v", l)
	}

	l, err = e.LayoutOf(in.RegisterAdt(2, "E", nil))
	if err != nil {
		t.Fatalf("enum: %v", err)
	}
	if l.Size != 8 || l.TagSize != 1 || l.PayloadOffset != 4 {
		t.Fatalf("unexpected enum layout %+v", l)
	}
}

func TestRecursiveAdt(t *testing.T) {
	in := types.NewInterner()
	self := in.RegisterAdt(5, "Node", nil)
	e := New(X86_64LinuxGNU(), in, fakeAdts{5: {Variants: [][]types.TypeID{{self}}}})

	var lerr *LayoutError
	if _, err := e.SizeOf(self); !errors.As(err, &lerr) || lerr.Kind != LayoutErrRecursive {
		t.Fatalf("expected recursive error, got %v", err)
	}
}
