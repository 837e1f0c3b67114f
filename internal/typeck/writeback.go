package typeck

import (
	"slices"

	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/infer"
	"typeck/internal/source"
	"typeck/internal/types"
	"typeck/internal/upvar"
)

// writeback resolves every recorded type and freezes the tables into the
// published results. Types still holding inference variables are reported
// once per variable, unless the run already failed, and become the error
// type.
func (fcx *FnCtxt) writeback(body *hir.Body, decl *hir.FnDecl, src SigSource, captures upvar.Captures) *TypeckResults {
	in := fcx.in
	suppress := fcx.Sess.Tainted()
	reported := make(map[types.TypeID]struct{})
	resolve := func(t types.TypeID, span source.Span) types.TypeID {
		t = fcx.Sess.Resolve(t)
		if !in.HasInfer(t) {
			return t
		}
		if !suppress {
			in.Walk(t, func(v types.TypeID) bool {
				if !in.IsVar(v) {
					return true
				}
				if _, ok := reported[v]; !ok {
					reported[v] = struct{}{}
					fcx.errorf(diag.TckAnnotationsNeeded, span, "type annotations needed").
						WithNote(fcx.Sess.VarSpan(v), "cannot infer type").
						Emit()
				}
				return false
			})
		}
		return fcx.eraseInfer(t)
	}

	ids := make([]hir.NodeID, 0, len(fcx.tables.nodeTypes))
	for id := range fcx.tables.nodeTypes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	nodeTypes := newNodeMap[types.TypeID]()
	for _, id := range ids {
		nodeTypes.Set(id, resolve(fcx.tables.nodeTypes[id], fcx.nodeSpan(id)))
	}

	locals := newNodeMap[LocalTy]()
	for id, lt := range fcx.tables.locals {
		span := fcx.nodeSpan(id)
		locals.Set(id, LocalTy{Decl: resolve(lt.Decl, span), Revealed: resolve(lt.Revealed, span)})
	}

	calls := newNodeMap[CallTarget]()
	for id, ct := range fcx.tables.calls {
		if ct.Kind == CallClosure {
			if k, ok := captures.Calls[id]; ok {
				ct.ClosureKind = k
			} else {
				ct.ClosureKind = fcx.Sess.ClosureKind(ct.Def)
			}
		}
		calls.Set(id, ct)
	}

	casts := newNodeMap[CastKind]()
	for id, k := range fcx.tables.casts {
		casts.Set(id, k)
	}
	placeOps := newNodeMap[PlaceOp]()
	for id, op := range fcx.tables.placeOps {
		placeOps.Set(id, op)
	}
	rvalues := newNodeMap[hir.NodeID]()
	for expr, scope := range fcx.Sess.RvalueScopes() {
		rvalues.Set(expr, scope)
	}
	kinds := newDefMap[infer.ClosureKind]()
	for def, k := range fcx.Sess.ClosureKinds() {
		kinds.Set(def, k)
	}
	sigs := newDefMap[types.TypeID]()
	for def, sig := range fcx.tables.closureSigs {
		sigs.Set(def, resolve(sig, fcx.defSpan(def)))
	}
	caps := newDefMap[[]upvar.Capture]()
	for def, c := range captures.Closures {
		caps.Set(def, slices.Clone(c))
	}
	coroutines := newDefMap[GeneratorTypes]()
	for def, g := range fcx.tables.coroutines {
		span := fcx.defSpan(def)
		coroutines.Set(def, GeneratorTypes{
			Resume:     resolve(g.Resume, span),
			Yield:      resolve(g.Yield, span),
			Return:     resolve(g.Return, span),
			Interior:   resolve(g.Interior, span),
			Movability: g.Movability,
		})
	}

	used := make([]hir.DefID, 0, len(fcx.tables.usedImports))
	for id := range fcx.tables.usedImports {
		used = append(used, id)
	}
	slices.Sort(used)

	valueTy := fcx.eraseInfer(fcx.Sess.Resolve(fcx.valueTy))
	if decl != nil && src == SigInferred {
		fcx.reportPlaceholders(decl, valueTy)
	}

	return &TypeckResults{
		owner:            fcx.Root,
		sigSource:        src,
		valueTy:          valueTy,
		tainted:          fcx.Sess.Tainted() || fcx.bag.HasErrors(),
		nodeTypes:        nodeTypes.Map(),
		locals:           locals.Map(),
		calls:            calls.Map(),
		casts:            casts.Map(),
		placeOps:         placeOps.Map(),
		rvalueScopes:     rvalues.Map(),
		closureKinds:     kinds.Map(),
		closureSigs:      sigs.Map(),
		captures:         caps.Map(),
		coroutines:       coroutines.Map(),
		usedTraitImports: used,
		diagnostics:      slices.Clone(fcx.bag.Items()),
	}
}

// eraseInfer replaces every remaining inference variable by the error type.
func (fcx *FnCtxt) eraseInfer(t types.TypeID) types.TypeID {
	in := fcx.in
	if !in.HasInfer(t) {
		return t
	}
	errTy := in.Builtins().Error
	return in.Fold(t, func(x types.TypeID) types.TypeID {
		if in.IsVar(x) {
			return errTy
		}
		return x
	})
}

// reportPlaceholders reports the `_` of a fn signature, suggesting the type
// the body inferred for the return position.
func (fcx *FnCtxt) reportPlaceholders(decl *hir.FnDecl, ret types.TypeID) {
	for _, t := range decl.Inputs {
		if t.HasPlaceholder() {
			fcx.errorf(diag.TckPlaceholderInSignature, t.Span,
				"the placeholder `_` is not allowed within types on item signatures for functions").Emit()
		}
	}
	if decl.Output == nil || !decl.Output.HasPlaceholder() {
		return
	}
	rb := fcx.errorf(diag.TckPlaceholderInSignature, decl.Output.Span,
		"the placeholder `_` is not allowed within types on item signatures for return types")
	if !fcx.in.HasError(ret) {
		label := types.Label(fcx.in, ret)
		rb = rb.WithNote(decl.Output.Span, "replace with the correct return type: `"+label+"`")
		if decl.Output.Kind == hir.TyInfer {
			rb = rb.WithFix("replace `_` with `"+label+"`",
				diag.FixEdit{Span: decl.Output.Span, NewText: label, OldText: "_"})
		}
	}
	rb.Emit()
}

func (fcx *FnCtxt) nodeSpan(id hir.NodeID) source.Span {
	if e := fcx.prog.Expr(id); e != nil {
		return e.Span
	}
	if p := fcx.prog.Pat(id); p != nil {
		return p.Span
	}
	return fcx.defSpan(fcx.Root)
}

func (fcx *FnCtxt) defSpan(def hir.DefID) source.Span {
	if u := fcx.prog.Unit(def); u != nil {
		return u.Span
	}
	return source.Span{}
}
