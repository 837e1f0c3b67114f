package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindError is the type of expressions whose checking already failed.
	KindError
	KindNever
	KindBool
	KindChar
	KindStr
	KindInt
	KindUint
	KindFloat
	KindArray
	KindSlice
	KindRef
	KindPtr
	KindTuple
	KindFn
	KindAdt
	KindParam
	KindInfer
	KindProjection
	KindClosure
	KindCoroutine
	KindDyn
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindError:
		return "error"
	case KindNever:
		return "never"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindStr:
		return "str"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindArray:
		return "array"
	case KindSlice:
		return "slice"
	case KindRef:
		return "ref"
	case KindPtr:
		return "ptr"
	case KindTuple:
		return "tuple"
	case KindFn:
		return "fn"
	case KindAdt:
		return "adt"
	case KindParam:
		return "param"
	case KindInfer:
		return "infer"
	case KindProjection:
		return "projection"
	case KindClosure:
		return "closure"
	case KindCoroutine:
		return "coroutine"
	case KindDyn:
		return "dyn"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers and floats.
type Width uint8

const (
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
	Width128 Width = 128
	// WidthSize is the pointer-sized width of isize/usize.
	WidthSize Width = 255
)

// InferKind distinguishes the three flavors of inference variables.
type InferKind uint8

const (
	// InferTy can unify with any type.
	InferTy InferKind = iota
	// InferInt is restricted to integer types ({integer}).
	InferInt
	// InferFloat is restricted to float types ({float}).
	InferFloat
)

func (k InferKind) String() string {
	switch k {
	case InferTy:
		return "ty"
	case InferInt:
		return "int"
	case InferFloat:
		return "float"
	}
	return fmt.Sprintf("InferKind(%d)", k)
}

// Type is a compact descriptor. Composite kinds keep their operands in side
// tables addressed by Payload.
type Type struct {
	Kind    Kind
	Elem    TypeID    // array/slice/ref/ptr element
	Count   uint32    // array length; definition id for adt/closure/coroutine/dyn; var id for infer; index for param
	Width   Width     // numeric primitives
	Mutable bool      // ref/ptr
	Infer   InferKind // infer
	Payload uint32
}

// Descriptor helpers ---------------------------------------------------------

func MakeInt(width Width) Type   { return Type{Kind: KindInt, Width: width} }
func MakeUint(width Width) Type  { return Type{Kind: KindUint, Width: width} }
func MakeFloat(width Width) Type { return Type{Kind: KindFloat, Width: width} }

// GenericLen is the array length of `[T; N]` when N is a const parameter.
const GenericLen = ^uint32(0)

// MakeArray describes [elem; count].
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

// MakeSlice describes the unsized [elem].
func MakeSlice(elem TypeID) Type {
	return Type{Kind: KindSlice, Elem: elem}
}

// MakeRef describes &T or &mut T.
func MakeRef(elem TypeID, mutable bool) Type {
	return Type{Kind: KindRef, Elem: elem, Mutable: mutable}
}

// MakePtr describes *const T or *mut T.
func MakePtr(elem TypeID, mutable bool) Type {
	return Type{Kind: KindPtr, Elem: elem, Mutable: mutable}
}

// MakeVar describes the inference variable vid of the given flavor.
func MakeVar(kind InferKind, vid uint32) Type {
	return Type{Kind: KindInfer, Infer: kind, Count: vid}
}

// MakeDyn describes dyn Trait for the trait definition id.
func MakeDyn(trait uint32) Type {
	return Type{Kind: KindDyn, Count: trait}
}
