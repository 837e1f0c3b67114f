package types

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for primitive types.
type Builtins struct {
	Error TypeID
	Never TypeID
	Unit  TypeID
	Bool  TypeID
	Char  TypeID
	Str   TypeID
	I8    TypeID
	I16   TypeID
	I32   TypeID
	I64   TypeID
	I128  TypeID
	Isize TypeID
	U8    TypeID
	U16   TypeID
	U32   TypeID
	U64   TypeID
	U128  TypeID
	Usize TypeID
	F32   TypeID
	F64   TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// It is shared by all pipeline runs; every method is goroutine-safe.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins

	tuples      []TupleInfo
	fns         []FnInfo
	adts        []AdtInfo
	params      []ParamInfo
	projections []ProjectionInfo
	closures    []ClosureInfo
	coroutines  []CoroutineInfo
	dyns        []string
}

// typeKey identifies a descriptor; ops encodes composite operands.
type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32
	Width   Width
	Mutable bool
	Infer   InferKind
	ops     string
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		types: make([]Type, 1, 64), // 0 is NoTypeID
		index: make(map[typeKey]TypeID, 64),
	}
	b := &in.builtins
	b.Error = in.Intern(Type{Kind: KindError})
	b.Never = in.Intern(Type{Kind: KindNever})
	b.Unit = in.RegisterTuple(nil)
	b.Bool = in.Intern(Type{Kind: KindBool})
	b.Char = in.Intern(Type{Kind: KindChar})
	b.Str = in.Intern(Type{Kind: KindStr})
	b.I8 = in.Intern(MakeInt(Width8))
	b.I16 = in.Intern(MakeInt(Width16))
	b.I32 = in.Intern(MakeInt(Width32))
	b.I64 = in.Intern(MakeInt(Width64))
	b.I128 = in.Intern(MakeInt(Width128))
	b.Isize = in.Intern(MakeInt(WidthSize))
	b.U8 = in.Intern(MakeUint(Width8))
	b.U16 = in.Intern(MakeUint(Width16))
	b.U32 = in.Intern(MakeUint(Width32))
	b.U64 = in.Intern(MakeUint(Width64))
	b.U128 = in.Intern(MakeUint(Width128))
	b.Usize = in.Intern(MakeUint(WidthSize))
	b.F32 = in.Intern(MakeFloat(Width32))
	b.F64 = in.Intern(MakeFloat(Width64))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern returns the TypeID for a descriptor without side-table operands.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	return in.intern(t, "", nil)
}

// intern looks up t+ops and, on a miss, stores it with the payload slot
// produced by alloc (called under the write lock).
func (in *Interner) intern(t Type, ops string, alloc func() uint32) TypeID {
	key := typeKey{Kind: t.Kind, Elem: t.Elem, Count: t.Count, Width: t.Width, Mutable: t.Mutable, Infer: t.Infer, ops: ops}

	in.mu.RLock()
	id, ok := in.index[key]
	in.mu.RUnlock()
	if ok {
		return id
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[key]; ok {
		return id
	}
	if alloc != nil {
		t.Payload = alloc()
	}
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id = TypeID(n)
	in.types = append(in.types, t)
	in.index[key] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("types: invalid TypeID %d", id))
	}
	return tt
}

// KindOf returns the kind of id, KindInvalid for unknown ids.
func (in *Interner) KindOf(id TypeID) Kind {
	tt, _ := in.Lookup(id)
	return tt.Kind
}

// Len returns the number of interned types including the reserved slot.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.types)
}

func encodeIDs(ids []TypeID) string {
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return sb.String()
}

func slotOf(n int) uint32 {
	slot, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("side table overflow: %w", err))
	}
	return slot
}

func cloneIDs(ids []TypeID) []TypeID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]TypeID, len(ids))
	copy(out, ids)
	return out
}
