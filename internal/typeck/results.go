package typeck

import (
	"slices"

	"github.com/benbjohnson/immutable"

	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/infer"
	"typeck/internal/types"
	"typeck/internal/upvar"
)

// SigSource records where the expected type of a body came from.
type SigSource uint8

const (
	SigNone SigSource = iota
	// SigFnDecl is a fully written fn signature.
	SigFnDecl
	// SigInferred is a declared signature or type containing `_`.
	SigInferred
	// SigDeclared is a fully written const or static type.
	SigDeclared
	// SigPlacement comes from where an anonymous constant appears.
	SigPlacement
	// SigFallback is the caller-supplied fallback.
	SigFallback
)

func (s SigSource) String() string {
	switch s {
	case SigFnDecl:
		return "fn-decl"
	case SigInferred:
		return "inferred"
	case SigDeclared:
		return "declared"
	case SigPlacement:
		return "placement"
	case SigFallback:
		return "fallback"
	}
	return "none"
}

// CastKind classifies a checked `as` cast.
type CastKind uint8

const (
	CastInvalid CastKind = iota
	CastIdentity
	CastNumeric
	CastBoolToInt
	CastCharToInt
	CastU8ToChar
	CastEnumToInt
	CastPtrToPtr
	CastPtrToAddr
	CastAddrToPtr
	CastRefToPtr
	CastFnPtr
)

var castKindNames = [...]string{
	CastInvalid:   "invalid",
	CastIdentity:  "identity",
	CastNumeric:   "numeric",
	CastBoolToInt: "bool-to-int",
	CastCharToInt: "char-to-int",
	CastU8ToChar:  "u8-to-char",
	CastEnumToInt: "enum-to-int",
	CastPtrToPtr:  "ptr-to-ptr",
	CastPtrToAddr: "ptr-to-addr",
	CastAddrToPtr: "addr-to-ptr",
	CastRefToPtr:  "ref-to-ptr",
	CastFnPtr:     "fn-ptr",
}

func (k CastKind) String() string {
	if int(k) < len(castKindNames) {
		return castKindNames[k]
	}
	return "invalid"
}

// CallKind says how a call expression dispatches.
type CallKind uint8

const (
	CallFn CallKind = iota
	CallFnPtr
	CallCtor
	CallClosure
	CallMethod
	CallIntrinsic
)

var callKindNames = [...]string{
	CallFn:        "fn",
	CallFnPtr:     "fn-ptr",
	CallCtor:      "ctor",
	CallClosure:   "closure",
	CallMethod:    "method",
	CallIntrinsic: "intrinsic",
}

func (k CallKind) String() string {
	if int(k) < len(callKindNames) {
		return callKindNames[k]
	}
	return "unknown"
}

// CallTarget is the resolution of one call or method call.
type CallTarget struct {
	Kind CallKind
	Def  hir.DefID
	// Trait is set for method calls resolved through a trait.
	Trait hir.DefID
	// ClosureKind is the Fn* trait a closure call goes through.
	ClosureKind infer.ClosureKind
}

// PlaceOpKind is a built-in place projection recorded on an expression.
type PlaceOpKind uint8

const (
	PlaceDeref PlaceOpKind = iota
	PlaceIndex
)

// PlaceOp is a deref or index together with the mutability the use needs.
type PlaceOp struct {
	Op      PlaceOpKind
	Mutable bool
}

// GeneratorTypes are the signature types of a coroutine.
type GeneratorTypes struct {
	Resume     types.TypeID
	Yield      types.TypeID
	Return     types.TypeID
	Interior   types.TypeID
	Movability hir.Movability
}

// LocalTy is the type of one binding: as declared and as revealed to the
// body.
type LocalTy struct {
	Decl     types.TypeID
	Revealed types.TypeID
}

type idHasher[K ~uint32] struct{}

func (idHasher[K]) Hash(k K) uint32 {
	h := uint32(k)
	h ^= h >> 16
	h *= 0x7feb352d
	h ^= h >> 15
	h *= 0x846ca68b
	h ^= h >> 16
	return h
}

func (idHasher[K]) Equal(a, b K) bool { return a == b }

func newNodeMap[V any]() *immutable.MapBuilder[hir.NodeID, V] {
	return immutable.NewMapBuilder[hir.NodeID, V](idHasher[hir.NodeID]{})
}

func newDefMap[V any]() *immutable.MapBuilder[hir.DefID, V] {
	return immutable.NewMapBuilder[hir.DefID, V](idHasher[hir.DefID]{})
}

// TypeckResults is the published outcome of checking one root body. It is
// immutable: every accessor returns either a value or a copy.
type TypeckResults struct {
	owner     hir.DefID
	sigSource SigSource
	valueTy   types.TypeID
	tainted   bool

	nodeTypes    *immutable.Map[hir.NodeID, types.TypeID]
	locals       *immutable.Map[hir.NodeID, LocalTy]
	calls        *immutable.Map[hir.NodeID, CallTarget]
	casts        *immutable.Map[hir.NodeID, CastKind]
	placeOps     *immutable.Map[hir.NodeID, PlaceOp]
	rvalueScopes *immutable.Map[hir.NodeID, hir.NodeID]
	closureKinds *immutable.Map[hir.DefID, infer.ClosureKind]
	closureSigs  *immutable.Map[hir.DefID, types.TypeID]
	captures     *immutable.Map[hir.DefID, []upvar.Capture]
	coroutines   *immutable.Map[hir.DefID, GeneratorTypes]

	usedTraitImports []hir.DefID
	diagnostics      []*diag.Diagnostic
}

// Owner is the root definition the results belong to.
func (r *TypeckResults) Owner() hir.DefID { return r.owner }

// SigSource tells where the body's expected type came from.
func (r *TypeckResults) SigSource() SigSource { return r.sigSource }

// ValueType is the type of the body: the return type of a function or
// the type of a constant's value.
func (r *TypeckResults) ValueType() types.TypeID { return r.valueTy }

// Tainted reports that errors were found while checking; dependents should
// not trust the types.
func (r *TypeckResults) Tainted() bool { return r.tainted }

// NodeType is the fully resolved type of an expression or pattern.
func (r *TypeckResults) NodeType(id hir.NodeID) (types.TypeID, bool) {
	return r.nodeTypes.Get(id)
}

// NodeCount is the number of typed expressions and patterns.
func (r *TypeckResults) NodeCount() int { return r.nodeTypes.Len() }

// EachNodeType calls fn for every typed node in ascending NodeID order.
func (r *TypeckResults) EachNodeType(fn func(hir.NodeID, types.TypeID)) {
	ids := make([]hir.NodeID, 0, r.nodeTypes.Len())
	itr := r.nodeTypes.Iterator()
	for !itr.Done() {
		id, _, _ := itr.Next()
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		t, _ := r.nodeTypes.Get(id)
		fn(id, t)
	}
}

// Local is the type of the binding pattern id.
func (r *TypeckResults) Local(id hir.NodeID) (LocalTy, bool) { return r.locals.Get(id) }

// Call is the resolution of a call or method call expression.
func (r *TypeckResults) Call(id hir.NodeID) (CallTarget, bool) { return r.calls.Get(id) }

// Cast is the kind of an `as` expression.
func (r *TypeckResults) Cast(id hir.NodeID) (CastKind, bool) { return r.casts.Get(id) }

// PlaceOp is the deref or index recorded on an expression.
func (r *TypeckResults) PlaceOp(id hir.NodeID) (PlaceOp, bool) { return r.placeOps.Get(id) }

// RvalueScope is the node a temporary created by expr lives until.
func (r *TypeckResults) RvalueScope(expr hir.NodeID) (hir.NodeID, bool) {
	return r.rvalueScopes.Get(expr)
}

// ClosureKind is the Fn* trait implemented by a closure of the body.
func (r *TypeckResults) ClosureKind(def hir.DefID) (infer.ClosureKind, bool) {
	return r.closureKinds.Get(def)
}

// ClosureSig is the signature of a closure or coroutine of the body.
func (r *TypeckResults) ClosureSig(def hir.DefID) (types.TypeID, bool) {
	return r.closureSigs.Get(def)
}

// Captures lists what a closure captures, in first-use order.
func (r *TypeckResults) Captures(def hir.DefID) []upvar.Capture {
	c, _ := r.captures.Get(def)
	return slices.Clone(c)
}

// Coroutine returns the signature types of a coroutine of the body.
func (r *TypeckResults) Coroutine(def hir.DefID) (GeneratorTypes, bool) {
	return r.coroutines.Get(def)
}

// UsedTraitImports lists the trait `use` items method resolution relied on,
// in DefID order.
func (r *TypeckResults) UsedTraitImports() []hir.DefID {
	return slices.Clone(r.usedTraitImports)
}

// Diagnostics returns the diagnostics reported while checking the body.
func (r *TypeckResults) Diagnostics() []*diag.Diagnostic {
	return slices.Clone(r.diagnostics)
}

// ErrorCount is the number of error diagnostics.
func (r *TypeckResults) ErrorCount() int {
	n := 0
	for _, d := range r.diagnostics {
		if d.Severity.IsError() {
			n++
		}
	}
	return n
}
