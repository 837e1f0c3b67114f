package typeck

import (
	"fmt"

	"typeck/internal/collect"
	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/ice"
	"typeck/internal/infer"
	"typeck/internal/source"
	"typeck/internal/traits"
	"typeck/internal/types"
)

// Needs says whether an expression is used as a mutable place.
type Needs uint8

const (
	NeedsNone Needs = iota
	NeedsMutPlace
)

// TupleArgumentsFlag says whether call arguments are passed as one tuple,
// as for closure calls through the Fn* traits.
type TupleArgumentsFlag uint8

const (
	DontTupleArguments TupleArgumentsFlag = iota
	TupleArguments
)

// typeckTables is the mutable side of a run; writeback freezes it.
type typeckTables struct {
	nodeTypes   map[hir.NodeID]types.TypeID
	locals      map[hir.NodeID]LocalTy
	letTys      map[hir.NodeID]types.TypeID
	calls       map[hir.NodeID]CallTarget
	casts       map[hir.NodeID]CastKind
	placeOps    map[hir.NodeID]PlaceOp
	closureSigs map[hir.DefID]types.TypeID
	coroutines  map[hir.DefID]*GeneratorTypes
	usedImports map[hir.DefID]struct{}
}

func newTables() *typeckTables {
	return &typeckTables{
		nodeTypes:   make(map[hir.NodeID]types.TypeID),
		locals:      make(map[hir.NodeID]LocalTy),
		letTys:      make(map[hir.NodeID]types.TypeID),
		calls:       make(map[hir.NodeID]CallTarget),
		casts:       make(map[hir.NodeID]CastKind),
		placeOps:    make(map[hir.NodeID]PlaceOp),
		closureSigs: make(map[hir.DefID]types.TypeID),
		coroutines:  make(map[hir.DefID]*GeneratorTypes),
		usedImports: make(map[hir.DefID]struct{}),
	}
}

// FnCtxt is the checking context of one run. It borrows the run's session
// and is never shared between runs.
type FnCtxt struct {
	Sess *infer.Session
	Env  traits.ParamEnv
	// Root is the definition the run checks.
	Root hir.DefID

	cx   *Context
	prog *hir.Program
	in   *types.Interner
	svc  Services

	bag      *diag.Bag
	reporter *diag.CountingReporter

	// owner is the unit whose body is being checked: Root, or a closure,
	// coroutine or const block nested in it.
	owner       hir.DefID
	inFn        bool
	retCoercion *CoerceMany
	coroutine   *GeneratorTypes
	breakables  *EnclosingBreakables

	tables  *typeckTables
	valueTy types.TypeID
}

func newFnCtxt(cx *Context, root hir.DefID, sess *infer.Session, env traits.ParamEnv, maxDiags int) *FnCtxt {
	bag := diag.NewBag(maxDiags)
	return &FnCtxt{
		Sess:       sess,
		Env:        env,
		Root:       root,
		cx:         cx,
		prog:       cx.Prog,
		in:         cx.Types,
		svc:        cx.Services,
		bag:        bag,
		reporter:   diag.NewCountingReporter(diag.BagReporter{Bag: bag}),
		owner:      root,
		breakables: newEnclosingBreakables(),
		tables:     newTables(),
	}
}

// Program is the definition store being checked.
func (fcx *FnCtxt) Program() *hir.Program { return fcx.prog }

// Types is the shared interner.
func (fcx *FnCtxt) Types() *types.Interner { return fcx.in }

// Reporter is the run's diagnostic sink.
func (fcx *FnCtxt) Reporter() diag.Reporter { return fcx.reporter }

// Breakables is the enclosing breakable stack.
func (fcx *FnCtxt) Breakables() *EnclosingBreakables { return fcx.breakables }

func (fcx *FnCtxt) builtins() types.Builtins { return fcx.in.Builtins() }

func (fcx *FnCtxt) provider() SignatureProvider { return fcx.svc.Signatures }

// errorf reports a user error and taints the session.
func (fcx *FnCtxt) errorf(code diag.Code, span source.Span, format string, args ...any) *diag.ReportBuilder {
	fcx.Sess.Taint()
	return diag.ReportError(fcx.reporter, code, span, fmt.Sprintf(format, args...))
}

func (fcx *FnCtxt) writeTy(id hir.NodeID, t types.TypeID) types.TypeID {
	fcx.tables.nodeTypes[id] = t
	return t
}

// NodeType is the current type of a checked node, resolved as far as the
// session allows.
func (fcx *FnCtxt) NodeType(id hir.NodeID) types.TypeID {
	t, ok := fcx.tables.nodeTypes[id]
	if !ok {
		return types.NoTypeID
	}
	return fcx.Sess.Resolve(t)
}

// IsCopy asks the obligation service in the current environment.
func (fcx *FnCtxt) IsCopy(t types.TypeID) bool {
	return fcx.svc.Obligations.IsCopy(fcx.Sess, fcx.Env, t)
}

// LocalTy returns the type assigned to a binding.
func (fcx *FnCtxt) LocalTy(id hir.NodeID) LocalTy {
	lt, ok := fcx.tables.locals[id]
	if !ok {
		ice.Bugf("no type for local variable %d", id)
	}
	return lt
}

func (fcx *FnCtxt) declareLocal(id hir.NodeID, t types.TypeID) {
	fcx.tables.locals[id] = LocalTy{Decl: t, Revealed: t}
	fcx.writeTy(id, t)
}

func (fcx *FnCtxt) shallow(t types.TypeID) types.TypeID { return fcx.Sess.Shallow(t) }

func (fcx *FnCtxt) label(t types.TypeID) string {
	return types.Label(fcx.in, fcx.Sess.Resolve(t))
}

func (fcx *FnCtxt) kindOf(t types.TypeID) types.Kind {
	return fcx.in.KindOf(fcx.shallow(t))
}

func (fcx *FnCtxt) hasError(ts ...types.TypeID) bool {
	for _, t := range ts {
		if fcx.in.HasError(fcx.Sess.Resolve(t)) {
			return true
		}
	}
	return false
}

func (fcx *FnCtxt) freshTy(span source.Span) types.TypeID { return fcx.Sess.NewTyVar(span) }

// lowerTy lowers a type written inside the body; `_` becomes a fresh
// variable.
func (fcx *FnCtxt) lowerTy(t *hir.Ty) types.TypeID {
	ty := fcx.provider().LowerTy(t, fcx.owner, collect.LowerOpts{
		Fresh:    fcx.freshTy,
		Reporter: fcx.reporter,
	})
	return fcx.normalize(ty, t.Span)
}

func (fcx *FnCtxt) normalize(t types.TypeID, span source.Span) types.TypeID {
	if !fcx.in.HasProjections(t) {
		return t
	}
	return fcx.svc.Obligations.Normalize(fcx.Sess, fcx.Env, t, span)
}

func (fcx *FnCtxt) register(o infer.Obligation) {
	fcx.svc.Obligations.Register(fcx.Sess, o)
}

func (fcx *FnCtxt) requireSized(t types.TypeID, span source.Span, cause infer.Cause) {
	fcx.register(infer.Obligation{
		Kind:  infer.ObTrait,
		Self:  t,
		Trait: fcx.prog.Lang.Sized,
		Span:  span,
		Cause: cause,
	})
}

// deferSized queues a sized requirement checked after capture analysis.
func (fcx *FnCtxt) deferSized(t types.TypeID, span source.Span, cause infer.Cause) {
	fcx.Sess.DeferSized(infer.Obligation{
		Kind:  infer.ObTrait,
		Self:  t,
		Trait: fcx.prog.Lang.Sized,
		Span:  span,
		Cause: cause,
	})
}

// enterBody switches the context to a nested body and returns a function
// restoring the previous state.
func (fcx *FnCtxt) enterBody(owner hir.DefID, inFn bool, ret *CoerceMany, gen *GeneratorTypes) func() {
	prevOwner, prevFn, prevRet, prevGen, prevBrk := fcx.owner, fcx.inFn, fcx.retCoercion, fcx.coroutine, fcx.breakables
	fcx.owner, fcx.inFn, fcx.retCoercion, fcx.coroutine = owner, inFn, ret, gen
	fcx.breakables = newEnclosingBreakables()
	return func() {
		fcx.owner, fcx.inFn, fcx.retCoercion, fcx.coroutine, fcx.breakables = prevOwner, prevFn, prevRet, prevGen, prevBrk
	}
}
