package types

import "strconv"

// ClosureInfo describes the unique type of one closure expression.
type ClosureInfo struct {
	Def  uint32
	Name string
	// Sig is the closure's signature as a KindFn type with tupled inputs
	// flattened; calls go through the Fn* traits.
	Sig TypeID
}

func (in *Interner) RegisterClosure(def uint32, name string, sig TypeID) TypeID {
	return in.intern(Type{Kind: KindClosure, Count: def, Elem: sig}, "", func() uint32 {
		in.closures = append(in.closures, ClosureInfo{Def: def, Name: name, Sig: sig})
		return slotOf(len(in.closures) - 1)
	})
}

func (in *Interner) ClosureInfo(id TypeID) (*ClosureInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindClosure {
		return nil, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return &in.closures[tt.Payload], true
}

// CoroutineInfo describes the type of a resumable body.
type CoroutineInfo struct {
	Def      uint32
	Name     string
	Resume   TypeID
	Yield    TypeID
	Return   TypeID
	Interior TypeID // tuple of values live across a yield; NoTypeID until resolved
	Movable  bool
}

func (in *Interner) RegisterCoroutine(info CoroutineInfo) TypeID {
	ops := encodeIDs([]TypeID{info.Resume, info.Yield, info.Return, info.Interior}) + ";" + strconv.FormatBool(info.Movable)
	return in.intern(Type{Kind: KindCoroutine, Count: info.Def}, ops, func() uint32 {
		in.coroutines = append(in.coroutines, info)
		return slotOf(len(in.coroutines) - 1)
	})
}

func (in *Interner) CoroutineInfo(id TypeID) (*CoroutineInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindCoroutine {
		return nil, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return &in.coroutines[tt.Payload], true
}
