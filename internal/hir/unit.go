package hir

import "typeck/internal/source"

// Unit is one definition.
type Unit struct {
	ID     DefID
	Kind   DefKind
	Name   string
	Span   source.Span
	Parent DefID // lexical owner; NoDefID for the crate root module

	Body BodyID
	// Ty is the declared type of consts, statics and const params.
	Ty   *Ty
	Decl *FnDecl

	Generics  *Generics
	Index     uint32 // position of a TypeParam/ConstParam in its owner's generics
	Constness bool   // const fn
	Mutable   bool   // static mut

	// AnonConst
	Placement     AnonConstPlacement
	PlacementNode NodeID // the inline-asm expression; unset inside global_asm
	ConstParamOf  DefID  // the const param an anon const is an argument for

	// Coroutine
	Movability Movability

	// Intrinsic names a compiler-provided function, e.g. "transmute".
	Intrinsic string

	// Struct, Enum (Variants) and Variant (Ctor, Fields, Discr).
	Variants []DefID
	Fields   []*FieldDef
	Ctor     CtorKind
	Discr    DefID  // anon const with PlaceEnumDiscriminant
	Repr     string // enum representation, e.g. "u8"; empty means isize

	// Items are the definitions nested directly inside this one.
	Items []DefID

	// Trait
	AssocTypes []string

	// Impl
	OfTrait   DefID // NoDefID for inherent impls
	TraitArgs []*Ty
	SelfTy    *Ty
	AssocTys  []AssocBinding

	// Use
	Target DefID

	// GlobalAsm: const and sym operands, each naming an anon const child.
	AsmOperands []AsmOperand
}

// FieldDef is a struct or variant field.
type FieldDef struct {
	Name string
	Ty   *Ty
	Span source.Span
}

// AssocBinding binds an associated type in an impl.
type AssocBinding struct {
	Name string
	Ty   *Ty
}

// FnDecl is a declared signature.
type FnDecl struct {
	Inputs []*Ty
	// Output is nil for `()`; a TyInfer output is the `_` placeholder.
	Output           *Ty
	Abi              string // empty means "Rust"
	Variadic         bool
	LateBoundRegions []string
	Span             source.Span
}

// ReturnIsPlaceholder reports whether the return type was written as `_`.
func (d *FnDecl) ReturnIsPlaceholder() bool {
	return d != nil && d.Output != nil && d.Output.Kind == TyInfer
}

// GenericParamKind distinguishes type and const parameters.
type GenericParamKind uint8

const (
	GenericType GenericParamKind = iota
	GenericConst
)

// Generics lists the parameters a definition introduces itself; parameters
// of the parent (impl or trait) come first in the combined list.
type Generics struct {
	Params     []DefID // TypeParam or ConstParam units
	Predicates []*WherePredicate
}

// WherePredicate is `Self: Trait<Args>` or, with Assoc set,
// `<Self as Trait>::Assoc == AssocTy`.
type WherePredicate struct {
	Self    *Ty
	Trait   DefID
	Args    []*Ty
	Assoc   string
	AssocTy *Ty
	// Const marks a `~const` bound, dropped by ParamEnv.WithoutConst.
	Const bool
	Span  source.Span
}

// Body is the executable part of a definition.
type Body struct {
	ID     BodyID
	Owner  DefID
	Params []*Param
	Value  *Expr
	// Coroutine marks bodies that may suspend with `yield`.
	Coroutine bool
}

// Param is one body parameter.
type Param struct {
	Pat  *Pat
	Span source.Span
}
