package types

import "strconv"

// AdtInfo describes an instantiated struct or enum.
type AdtInfo struct {
	Def  uint32
	Name string
	Args []TypeID
}

// RegisterAdt creates or finds def<args...>.
func (in *Interner) RegisterAdt(def uint32, name string, args []TypeID) TypeID {
	return in.intern(Type{Kind: KindAdt, Count: def}, encodeIDs(args), func() uint32 {
		in.adts = append(in.adts, AdtInfo{Def: def, Name: name, Args: cloneIDs(args)})
		return slotOf(len(in.adts) - 1)
	})
}

func (in *Interner) AdtInfo(id TypeID) (*AdtInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindAdt {
		return nil, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return &in.adts[tt.Payload], true
}

// ParamInfo describes a generic type parameter.
type ParamInfo struct {
	Owner uint32
	Index uint32
	Name  string
}

// RegisterParam creates or finds the Index-th parameter of Owner.
func (in *Interner) RegisterParam(owner, index uint32, name string) TypeID {
	ops := strconv.FormatUint(uint64(owner), 10) + ":" + name
	return in.intern(Type{Kind: KindParam, Count: index}, ops, func() uint32 {
		in.params = append(in.params, ParamInfo{Owner: owner, Index: index, Name: name})
		return slotOf(len(in.params) - 1)
	})
}

func (in *Interner) ParamInfo(id TypeID) (*ParamInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindParam {
		return nil, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return &in.params[tt.Payload], true
}

// ProjectionInfo describes <Self as Trait>::Name.
type ProjectionInfo struct {
	Self      TypeID
	Trait     uint32
	TraitName string
	Name      string
}

func (in *Interner) RegisterProjection(self TypeID, trait uint32, traitName, name string) TypeID {
	return in.intern(Type{Kind: KindProjection, Elem: self, Count: trait}, name, func() uint32 {
		in.projections = append(in.projections, ProjectionInfo{Self: self, Trait: trait, TraitName: traitName, Name: name})
		return slotOf(len(in.projections) - 1)
	})
}

func (in *Interner) ProjectionInfo(id TypeID) (*ProjectionInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindProjection {
		return nil, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return &in.projections[tt.Payload], true
}

// RegisterDyn creates or finds dyn Trait.
func (in *Interner) RegisterDyn(trait uint32, name string) TypeID {
	return in.intern(MakeDyn(trait), "", func() uint32 {
		in.dyns = append(in.dyns, name)
		return slotOf(len(in.dyns) - 1)
	})
}

// DynName returns the trait name of a dyn type.
func (in *Interner) DynName(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindDyn {
		return ""
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.dyns[tt.Payload]
}
