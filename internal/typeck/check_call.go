package typeck

import (
	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/infer"
	"typeck/internal/source"
	"typeck/internal/traits"
	"typeck/internal/types"
)

func (fcx *FnCtxt) checkCall(e *hir.Expr, d *hir.CallData) types.TypeID {
	in, b := fcx.in, fcx.builtins()
	calleeTy := fcx.checkExpr(d.Callee, noExpectation)
	target := CallTarget{Kind: CallFnPtr}
	var callee *hir.Unit
	if p, ok := d.Callee.Data.(*hir.PathData); ok && p.Res.Kind == hir.ResDef {
		callee = fcx.prog.Unit(p.Res.Def)
	}
	if callee != nil {
		switch {
		case callee.Intrinsic != "":
			target = CallTarget{Kind: CallIntrinsic, Def: callee.ID}
		case callee.Kind == hir.DefFn || callee.Kind == hir.DefAssocFn || callee.Kind == hir.DefTraitFn:
			target = CallTarget{Kind: CallFn, Def: callee.ID}
		case callee.Kind == hir.DefStruct || callee.Kind == hir.DefVariant:
			target = CallTarget{Kind: CallCtor, Def: callee.ID}
		}
	}

	t := fcx.shallow(calleeTy)
	switch in.KindOf(t) {
	case types.KindFn:
		info, _ := in.FnInfo(t)
		fcx.checkArgs(e, info.Params, info.Variadic, d.Args, DontTupleArguments)
		if target.Kind == CallIntrinsic && callee.Intrinsic == "transmute" && len(info.Params) == 1 {
			fcx.Sess.DeferTransmute(infer.TransmuteCheck{Call: e.ID, From: info.Params[0], To: info.Result, Span: e.Span})
		}
		fcx.tables.calls[e.ID] = target
		return info.Result
	case types.KindClosure:
		info, _ := in.ClosureInfo(t)
		sig, _ := in.FnInfo(fcx.shallow(info.Sig))
		fcx.checkArgs(e, sig.Params, false, d.Args, TupleArguments)
		def := hir.DefID(info.Def)
		kind := fcx.Sess.ClosureKind(def)
		if kind == infer.ClosureKindUnknown {
			fcx.Sess.DeferCall(infer.DeferredCall{Call: e.ID, Closure: def, Span: e.Span})
		}
		fcx.tables.calls[e.ID] = CallTarget{Kind: CallClosure, Def: def, ClosureKind: kind}
		return sig.Result
	case types.KindParam, types.KindProjection:
		if ret, ok := fcx.callThroughBound(e, d, t); ok {
			return ret
		}
	case types.KindError:
		fcx.checkArgsUnexpected(d.Args)
		return b.Error
	case types.KindInfer:
		fcx.errorf(diag.TckAnnotationsNeeded, d.Callee.Span, "type annotations needed").
			WithNote(d.Callee.Span, "type must be known at this point").
			Emit()
		fcx.checkArgsUnexpected(d.Args)
		return b.Error
	}
	fcx.errorf(diag.TckNotCallable, d.Callee.Span, "expected function, found `%s`", fcx.label(t)).
		WithNote(e.Span, "call expression requires function").
		Emit()
	fcx.checkArgsUnexpected(d.Args)
	return b.Error
}

// callThroughBound calls a generic value through an `Fn*` bound of the
// environment.
func (fcx *FnCtxt) callThroughBound(e *hir.Expr, d *hir.CallData, self types.TypeID) (types.TypeID, bool) {
	in, lang := fcx.in, fcx.prog.Lang
	for _, p := range fcx.Env.Caller {
		if p.Assoc != "" || p.Self != self || len(p.Args) != 1 {
			continue
		}
		if p.Trait != lang.Fn && p.Trait != lang.FnMut && p.Trait != lang.FnOnce {
			continue
		}
		args := fcx.shallow(p.Args[0])
		if in.KindOf(args) != types.KindTuple {
			continue
		}
		fcx.checkArgs(e, in.TupleElems(args), false, d.Args, TupleArguments)
		out := in.RegisterProjection(self, uint32(lang.FnOnce), fcx.prog.Name(lang.FnOnce), "Output")
		fcx.register(infer.Obligation{
			Kind:  infer.ObTrait,
			Self:  self,
			Trait: p.Trait,
			Args:  []types.TypeID{args},
			Span:  e.Span,
			Cause: infer.CauseClosureCall,
		})
		fcx.tables.calls[e.ID] = CallTarget{Kind: CallFnPtr, Trait: p.Trait}
		return fcx.normalize(out, e.Span), true
	}
	return types.NoTypeID, false
}

// checkArgs checks call arguments against params.
func (fcx *FnCtxt) checkArgs(call *hir.Expr, params []types.TypeID, variadic bool, args []*hir.Expr, tuple TupleArgumentsFlag) {
	if len(args) != len(params) && !(variadic && len(args) > len(params)) {
		what := "function"
		if tuple == TupleArguments {
			what = "closure"
		}
		fcx.errorf(diag.TckArgCount, call.Span, "this %s takes %d argument%s but %d argument%s %s supplied",
			what, len(params), plural(len(params)), len(args), plural(len(args)), wasWere(len(args))).Emit()
	}
	for i, a := range args {
		if i < len(params) {
			fcx.checkExprCoercibleTo(a, params[i])
			fcx.deferSized(params[i], a.Span, infer.CauseSizedArgument)
			continue
		}
		fcx.checkExpr(a, noExpectation)
	}
}

func (fcx *FnCtxt) checkArgsUnexpected(args []*hir.Expr) {
	for _, a := range args {
		fcx.checkExpr(a, noExpectation)
	}
}

// methodPick is the resolved target of a method call.
type methodPick struct {
	def   hir.DefID
	trait hir.DefID
	// use is the import that brought the trait into scope, if any.
	use  hir.DefID
	sig  types.TypeID
	step types.TypeID
}

func (fcx *FnCtxt) checkMethodCall(e *hir.Expr, d *hir.MethodCallData) types.TypeID {
	b := fcx.builtins()
	recv := fcx.Sess.Resolve(fcx.checkExpr(d.Receiver, noExpectation))
	if fcx.hasError(recv) {
		fcx.checkArgsUnexpected(d.Args)
		return b.Error
	}
	if fcx.Sess.IsUnresolvedVar(recv) {
		fcx.errorf(diag.TckAnnotationsNeeded, d.Receiver.Span, "type annotations needed").
			WithNote(d.Receiver.Span, "type must be known at this point").
			Emit()
		fcx.checkArgsUnexpected(d.Args)
		return b.Error
	}
	pick, ok := fcx.probeMethod(recv, d.Method, e.Span)
	if !ok {
		fcx.errorf(diag.TckNoMethod, d.MethodSpan, "no method named `%s` found for type `%s` in the current scope", d.Method, fcx.label(recv)).Emit()
		fcx.checkArgsUnexpected(d.Args)
		return b.Error
	}
	info, _ := fcx.in.FnInfo(pick.sig)
	if len(info.Params) == 0 {
		fcx.errorf(diag.TckNoMethod, d.MethodSpan, "no method named `%s` found for type `%s` in the current scope", d.Method, fcx.label(recv)).
			WithNote(d.MethodSpan, "this is an associated function, not a method").
			Emit()
		fcx.checkArgsUnexpected(d.Args)
		return b.Error
	}
	fcx.adjustReceiver(d.Receiver, pick.step, info.Params[0])
	fcx.checkArgs(e, info.Params[1:], info.Variadic, d.Args, DontTupleArguments)
	fcx.tables.calls[e.ID] = CallTarget{Kind: CallMethod, Def: pick.def, Trait: pick.trait}
	if pick.use.IsValid() {
		fcx.tables.usedImports[pick.use] = struct{}{}
	}
	return info.Result
}

// adjustReceiver relates the autoderefed receiver step to the method's
// self parameter, borrowing it when the method takes `&self`.
func (fcx *FnCtxt) adjustReceiver(recv *hir.Expr, step, param types.TypeID) {
	in := fcx.in
	p := fcx.shallow(param)
	if in.KindOf(p) == types.KindRef && fcx.unify(in.Elem(p), step) {
		return
	}
	if fcx.unify(param, step) {
		return
	}
	fcx.reportMismatch(recv.Span, param, step)
}

// probeMethod looks name up along the autoderef steps of recv: inherent
// impls first, then traits in scope.
func (fcx *FnCtxt) probeMethod(recv types.TypeID, name string, span source.Span) (methodPick, bool) {
	scope := fcx.traitsInScope()
	for _, step := range fcx.autoderefSteps(recv) {
		if pick, ok := fcx.probeInherent(step, name, span); ok {
			return pick, true
		}
		if pick, ok := fcx.probeTraits(step, name, scope, span); ok {
			return pick, true
		}
	}
	return methodPick{}, false
}

func (fcx *FnCtxt) probeInherent(step types.TypeID, name string, span source.Span) (methodPick, bool) {
	in := fcx.in
	for _, c := range fcx.provider().InherentImpls() {
		item := fcx.assocFn(c.Def, name)
		if !item.IsValid() {
			continue
		}
		matches := fcx.Sess.Probe(func() bool {
			args := fcx.freshGenericArgs(item, span)
			return fcx.Sess.Unify(in.SubstParams(c.Self, args), step) == nil
		})
		if !matches {
			continue
		}
		args := fcx.freshGenericArgs(item, span)
		fcx.unify(in.SubstParams(c.Self, args), step)
		u := fcx.prog.MustUnit(item)
		sig := in.SubstParams(fcx.provider().FnSig(item), args)
		fcx.instantiatePredicates(u.ID, args, types.NoTypeID, span)
		return methodPick{def: item, sig: fcx.normalize(sig, span), step: step}, true
	}
	return methodPick{}, false
}

func (fcx *FnCtxt) probeTraits(step types.TypeID, name string, scope []scopedTrait, span source.Span) (methodPick, bool) {
	in := fcx.in
	for _, st := range scope {
		item := fcx.assocFn(st.trait, name)
		if !item.IsValid() {
			continue
		}
		n := len(fcx.genericParams(st.trait))
		probeArgs := make([]types.TypeID, n)
		for i := range probeArgs {
			probeArgs[i] = fcx.freshTy(span)
		}
		if fcx.svc.Obligations.Implements(fcx.Sess, fcx.Env, step, st.trait, probeArgs...) == traits.Unsatisfied {
			continue
		}
		args := fcx.freshGenericArgs(item, span)
		fcx.instantiatePredicates(item, args, step, span)
		sig := in.SubstSelf(in.SubstParams(fcx.provider().FnSig(item), args), step)
		return methodPick{def: item, trait: st.trait, use: st.use, sig: fcx.normalize(sig, span), step: step}, true
	}
	return methodPick{}, false
}

// assocFn finds the method called name among the items of an impl or
// trait.
func (fcx *FnCtxt) assocFn(container hir.DefID, name string) hir.DefID {
	c := fcx.prog.Unit(container)
	if c == nil {
		return hir.NoDefID
	}
	for _, id := range c.Items {
		u := fcx.prog.Unit(id)
		if u != nil && u.Name == name && u.Decl != nil && (u.Kind == hir.DefAssocFn || u.Kind == hir.DefTraitFn) {
			return id
		}
	}
	return hir.NoDefID
}

type scopedTrait struct {
	trait hir.DefID
	use   hir.DefID
}

// traitsInScope lists the traits whose methods are callable from the
// current body: bounds of the environment, traits defined in enclosing
// modules and imported traits.
func (fcx *FnCtxt) traitsInScope() []scopedTrait {
	var out []scopedTrait
	seen := make(map[hir.DefID]bool)
	add := func(trait, use hir.DefID) {
		if !seen[trait] {
			seen[trait] = true
			out = append(out, scopedTrait{trait: trait, use: use})
		}
	}
	for _, p := range fcx.Env.Caller {
		add(p.Trait, hir.NoDefID)
	}
	mod := fcx.prog.Module(fcx.owner)
	for m := fcx.prog.Unit(mod); m != nil; m = fcx.prog.Unit(m.Parent) {
		if m.Kind != hir.DefMod {
			continue
		}
		for _, item := range m.Items {
			if u := fcx.prog.Unit(item); u != nil && u.Kind == hir.DefTrait {
				add(item, hir.NoDefID)
			}
		}
	}
	for _, use := range fcx.prog.TraitImports(mod) {
		add(fcx.prog.MustUnit(use).Target, use)
	}
	return out
}
