package hir

import "typeck/internal/source"

// TyKind enumerates type syntax kinds.
type TyKind uint8

const (
	TyErr TyKind = iota
	// TyInfer is `_`.
	TyInfer
	TyPath
	TyRef
	TyPtr
	TySlice
	TyArray
	TyTuple
	TyFn
	TyTypeof
	TyNever
	TyProjection
	TyDyn
)

// Ty is a type as written in source.
type Ty struct {
	Kind TyKind
	Span source.Span
	Data TyData
}

// TyData is the kind-specific payload of a Ty, stored as a pointer.
// TyInfer, TyNever and TyErr carry no payload.
type TyData interface {
	tyData()
}

// TyPathData names a primitive, ADT, type parameter or Self.
type TyPathData struct {
	Name string
	Res  Res
	Args []*Ty
	// ConstArgs are anon consts passed for const parameters.
	ConstArgs []DefID
}

// TyPtrData serves both TyRef and TyPtr.
type TyPtrData struct {
	Elem    *Ty
	Mutable bool
}

type TySliceData struct {
	Elem *Ty
}

// TyArrayData is `[elem; len]`; Len is an anon const.
type TyArrayData struct {
	Elem *Ty
	Len  DefID
}

type TyTupleData struct {
	Elems []*Ty
}

type TyFnData struct {
	Params   []*Ty
	Ret      *Ty
	Abi      string
	Variadic bool
}

// TyTypeofData is `typeof(const)`.
type TyTypeofData struct {
	Const DefID
}

// TyProjectionData is `<Self as Trait>::Name`.
type TyProjectionData struct {
	Self  *Ty
	Trait DefID
	Name  string
}

type TyDynData struct {
	Trait DefID
}

func (TyPathData) tyData()       {}
func (TyPtrData) tyData()        {}
func (TySliceData) tyData()      {}
func (TyArrayData) tyData()      {}
func (TyTupleData) tyData()      {}
func (TyFnData) tyData()         {}
func (TyTypeofData) tyData()     {}
func (TyProjectionData) tyData() {}
func (TyDynData) tyData()        {}

// HasPlaceholder reports whether `_` appears anywhere in t.
func (t *Ty) HasPlaceholder() bool {
	found := false
	t.Walk(func(n *Ty) bool {
		if n.Kind == TyInfer {
			found = true
		}
		return !found
	})
	return found
}

// Walk visits t and its nested types depth-first while fn returns true.
func (t *Ty) Walk(fn func(*Ty) bool) {
	if t == nil || !fn(t) {
		return
	}
	var children []*Ty
	switch d := t.Data.(type) {
	case *TyPathData:
		children = d.Args
	case *TyPtrData:
		children = []*Ty{d.Elem}
	case *TySliceData:
		children = []*Ty{d.Elem}
	case *TyArrayData:
		children = []*Ty{d.Elem}
	case *TyTupleData:
		children = d.Elems
	case *TyFnData:
		children = append(append([]*Ty(nil), d.Params...), d.Ret)
	case *TyProjectionData:
		children = []*Ty{d.Self}
	}
	for _, c := range children {
		c.Walk(fn)
	}
}
