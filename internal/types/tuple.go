package types

// TupleInfo stores the element types for a tuple type.
type TupleInfo struct {
	Elems []TypeID
}

// RegisterTuple creates or finds the tuple of elems. The empty tuple is unit.
func (in *Interner) RegisterTuple(elems []TypeID) TypeID {
	return in.intern(Type{Kind: KindTuple}, encodeIDs(elems), func() uint32 {
		in.tuples = append(in.tuples, TupleInfo{Elems: cloneIDs(elems)})
		return slotOf(len(in.tuples) - 1)
	})
}

// TupleInfo returns the element types for a tuple TypeID.
func (in *Interner) TupleInfo(id TypeID) (*TupleInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTuple {
		return nil, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return &in.tuples[tt.Payload], true
}

// TupleElems returns the elements of a tuple, nil otherwise.
func (in *Interner) TupleElems(id TypeID) []TypeID {
	if info, ok := in.TupleInfo(id); ok {
		return info.Elems
	}
	return nil
}

// IsUnit reports whether id is the empty tuple.
func (in *Interner) IsUnit(id TypeID) bool {
	return id == in.builtins.Unit
}
