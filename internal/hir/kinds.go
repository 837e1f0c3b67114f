package hir

import "fmt"

// DefKind is the closed set of definition kinds.
type DefKind uint8

const (
	DefInvalid DefKind = iota
	DefFn
	DefAssocFn
	// DefTraitFn is provided iff it has a body.
	DefTraitFn
	DefConst
	DefAssocConst
	// DefTraitConst has a default iff it has a body.
	DefTraitConst
	DefStatic
	DefAnonConst
	DefClosure
	DefCoroutine
	DefStruct
	DefEnum
	DefVariant
	DefTrait
	DefImpl
	DefTypeParam
	DefConstParam
	DefUse
	DefMod
	DefGlobalAsm
)

var defKindNames = [...]string{
	DefInvalid:    "invalid",
	DefFn:         "fn",
	DefAssocFn:    "assoc_fn",
	DefTraitFn:    "trait_fn",
	DefConst:      "const",
	DefAssocConst: "assoc_const",
	DefTraitConst: "trait_const",
	DefStatic:     "static",
	DefAnonConst:  "anon_const",
	DefClosure:    "closure",
	DefCoroutine:  "coroutine",
	DefStruct:     "struct",
	DefEnum:       "enum",
	DefVariant:    "variant",
	DefTrait:      "trait",
	DefImpl:       "impl",
	DefTypeParam:  "type_param",
	DefConstParam: "const_param",
	DefUse:        "use",
	DefMod:        "mod",
	DefGlobalAsm:  "global_asm",
}

func (k DefKind) String() string {
	if int(k) < len(defKindNames) {
		return defKindNames[k]
	}
	return fmt.Sprintf("DefKind(%d)", k)
}

// ParseDefKind is the inverse of String.
func ParseDefKind(s string) (DefKind, bool) {
	for k, name := range defKindNames {
		if name == s && k != int(DefInvalid) {
			return DefKind(k), true
		}
	}
	return DefInvalid, false
}

// Descr is the article-prefixed noun used in diagnostics ("a struct").
func (k DefKind) Descr() string {
	switch k {
	case DefFn, DefAssocFn, DefTraitFn:
		return "function"
	case DefConst, DefAssocConst, DefTraitConst, DefAnonConst:
		return "constant"
	case DefStatic:
		return "static"
	case DefClosure:
		return "closure"
	case DefCoroutine:
		return "coroutine"
	case DefStruct:
		return "struct"
	case DefEnum:
		return "enum"
	case DefVariant:
		return "variant"
	case DefTrait:
		return "trait"
	case DefImpl:
		return "impl"
	case DefTypeParam:
		return "type parameter"
	case DefConstParam:
		return "const parameter"
	case DefUse:
		return "import"
	case DefMod:
		return "module"
	case DefGlobalAsm:
		return "global asm"
	}
	return "item"
}

// IsFnLike reports kinds that carry a FnDecl.
func (k DefKind) IsFnLike() bool {
	switch k {
	case DefFn, DefAssocFn, DefTraitFn, DefClosure, DefCoroutine:
		return true
	}
	return false
}

// AnonConstPlacement is the closed set of syntactic positions an anonymous
// constant can occupy.
type AnonConstPlacement uint8

const (
	PlaceOther AnonConstPlacement = iota
	// PlaceConstBlock is an inline `const { ... }` block inside a body.
	PlaceConstBlock
	PlaceTypeof
	PlaceAsmConst
	PlaceAsmSymFn
	// PlaceArrayLength covers `[T; N]` lengths and `[x; N]` repeat counts.
	PlaceArrayLength
	// PlaceConstArg is a const generic argument.
	PlaceConstArg
	PlaceEnumDiscriminant
)

var placementNames = [...]string{
	PlaceOther:            "other",
	PlaceConstBlock:       "const_block",
	PlaceTypeof:           "typeof",
	PlaceAsmConst:         "asm_const",
	PlaceAsmSymFn:         "asm_sym_fn",
	PlaceArrayLength:      "array_length",
	PlaceConstArg:         "const_arg",
	PlaceEnumDiscriminant: "enum_discriminant",
}

func (p AnonConstPlacement) String() string {
	if int(p) < len(placementNames) {
		return placementNames[p]
	}
	return fmt.Sprintf("AnonConstPlacement(%d)", p)
}

// ParsePlacement is the inverse of String.
func ParsePlacement(s string) (AnonConstPlacement, bool) {
	for p, name := range placementNames {
		if name == s {
			return AnonConstPlacement(p), true
		}
	}
	return PlaceOther, false
}

// Movability of a coroutine.
type Movability uint8

const (
	Movable Movability = iota
	Immovable
)

// CtorKind describes how a struct or variant is constructed.
type CtorKind uint8

const (
	// CtorNone is a braced struct; it is not a value.
	CtorNone CtorKind = iota
	// CtorFn is a tuple-like constructor function.
	CtorFn
	// CtorConst is a unit-like constant.
	CtorConst
)
