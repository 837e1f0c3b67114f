package types

// Children returns the direct type operands of id in a fixed order.
func (in *Interner) Children(id TypeID) []TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return nil
	}
	switch tt.Kind {
	case KindArray, KindSlice, KindRef, KindPtr:
		return []TypeID{tt.Elem}
	case KindTuple:
		return in.TupleElems(id)
	case KindFn:
		info, _ := in.FnInfo(id)
		return append(cloneIDs(info.Params), info.Result)
	case KindAdt:
		info, _ := in.AdtInfo(id)
		return info.Args
	case KindProjection:
		info, _ := in.ProjectionInfo(id)
		return []TypeID{info.Self}
	case KindClosure:
		info, _ := in.ClosureInfo(id)
		return []TypeID{info.Sig}
	case KindCoroutine:
		info, _ := in.CoroutineInfo(id)
		out := []TypeID{info.Resume, info.Yield, info.Return}
		if info.Interior != NoTypeID {
			out = append(out, info.Interior)
		}
		return out
	}
	return nil
}

// Walk visits id and its operands depth-first until visit returns false.
func (in *Interner) Walk(id TypeID, visit func(TypeID) bool) bool {
	if id == NoTypeID {
		return true
	}
	if !visit(id) {
		return false
	}
	for _, c := range in.Children(id) {
		if !in.Walk(c, visit) {
			return false
		}
	}
	return true
}

// Any reports whether pred holds for id or any nested operand.
func (in *Interner) Any(id TypeID, pred func(TypeID) bool) bool {
	found := false
	in.Walk(id, func(t TypeID) bool {
		if pred(t) {
			found = true
			return false
		}
		return true
	})
	return found
}

// HasInfer reports whether id mentions an inference variable.
func (in *Interner) HasInfer(id TypeID) bool {
	return in.Any(id, in.IsVar)
}

// HasError reports whether id mentions the error type.
func (in *Interner) HasError(id TypeID) bool {
	return in.Any(id, in.IsError)
}

// HasParams reports whether id mentions a generic parameter.
func (in *Interner) HasParams(id TypeID) bool {
	return in.Any(id, func(t TypeID) bool { return in.KindOf(t) == KindParam })
}

// HasProjections reports whether id mentions an associated-type projection.
func (in *Interner) HasProjections(id TypeID) bool {
	return in.Any(id, func(t TypeID) bool { return in.KindOf(t) == KindProjection })
}

// Fold rebuilds id bottom-up, replacing every node for which f returns a
// different id. f sees nodes after their operands were folded.
func (in *Interner) Fold(id TypeID, f func(TypeID) TypeID) TypeID {
	if id == NoTypeID {
		return id
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	rebuilt := id
	switch tt.Kind {
	case KindArray, KindSlice, KindRef, KindPtr:
		if elem := in.Fold(tt.Elem, f); elem != tt.Elem {
			tt.Elem = elem
			tt.Payload = 0
			rebuilt = in.Intern(tt)
		}
	case KindTuple:
		elems, changed := in.foldAll(in.TupleElems(id), f)
		if changed {
			rebuilt = in.RegisterTuple(elems)
		}
	case KindFn:
		info, _ := in.FnInfo(id)
		params, changed := in.foldAll(info.Params, f)
		result := in.Fold(info.Result, f)
		if changed || result != info.Result {
			rebuilt = in.RegisterFn(params, result, info.Abi, info.Variadic)
		}
	case KindAdt:
		info, _ := in.AdtInfo(id)
		if args, changed := in.foldAll(info.Args, f); changed {
			rebuilt = in.RegisterAdt(info.Def, info.Name, args)
		}
	case KindProjection:
		info, _ := in.ProjectionInfo(id)
		if self := in.Fold(info.Self, f); self != info.Self {
			rebuilt = in.RegisterProjection(self, info.Trait, info.TraitName, info.Name)
		}
	case KindClosure:
		info, _ := in.ClosureInfo(id)
		if sig := in.Fold(info.Sig, f); sig != info.Sig {
			rebuilt = in.RegisterClosure(info.Def, info.Name, sig)
		}
	case KindCoroutine:
		info, _ := in.CoroutineInfo(id)
		next := *info
		next.Resume = in.Fold(info.Resume, f)
		next.Yield = in.Fold(info.Yield, f)
		next.Return = in.Fold(info.Return, f)
		next.Interior = in.Fold(info.Interior, f)
		if next != *info {
			rebuilt = in.RegisterCoroutine(next)
		}
	}
	return f(rebuilt)
}

func (in *Interner) foldAll(ids []TypeID, f func(TypeID) TypeID) ([]TypeID, bool) {
	out := make([]TypeID, len(ids))
	changed := false
	for i, id := range ids {
		out[i] = in.Fold(id, f)
		changed = changed || out[i] != id
	}
	return out, changed
}

// SubstParams replaces generic parameters by index with args.
// Parameters whose index is out of range are kept.
func (in *Interner) SubstParams(id TypeID, args []TypeID) TypeID {
	if len(args) == 0 {
		return id
	}
	return in.Fold(id, func(t TypeID) TypeID {
		tt, _ := in.Lookup(t)
		if tt.Kind == KindParam && int(tt.Count) < len(args) && args[tt.Count] != NoTypeID {
			return args[tt.Count]
		}
		return t
	})
}

// SelfIndex is the parameter index of the implicit `Self` of a trait.
const SelfIndex = uint32(1) << 31

// SubstSelf replaces the trait `Self` parameter with self.
func (in *Interner) SubstSelf(id, self TypeID) TypeID {
	return in.Fold(id, func(t TypeID) TypeID {
		tt, _ := in.Lookup(t)
		if tt.Kind == KindParam && tt.Count == SelfIndex {
			return self
		}
		return t
	})
}
