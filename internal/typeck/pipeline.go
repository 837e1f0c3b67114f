package typeck

import (
	"fmt"
	"strconv"

	"typeck/internal/collect"
	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/ice"
	"typeck/internal/infer"
	"typeck/internal/observ"
	"typeck/internal/trace"
	"typeck/internal/types"
	"typeck/internal/upvar"
)

// Step names, in execution order.
const (
	StepRedirectRoot             = "redirect_root"
	StepClassify                 = "classify"
	StepBuildSession             = "build_session"
	StepPrepareSignature         = "prepare_signature"
	StepCheckBody                = "check_body"
	StepFallback                 = "fallback"
	StepCheckCasts               = "check_casts"
	StepSelectWherePossible      = "select_where_possible"
	StepClosureAnalyze           = "closure_analyze"
	StepResolveRvalueScopes      = "resolve_rvalue_scopes"
	StepResolveGeneratorInterior = "resolve_generator_interiors"
	StepDrainDeferredSized       = "drain_deferred_sized"
	StepSelectAllOrError         = "select_all_or_error"
	StepCheckTransmutes          = "check_transmutes"
	StepCheckAsms                = "check_asms"
	StepSkipRegionResolution     = "skip_region_resolution"
	StepWriteback                = "writeback"
	StepAssertOwner              = "assert_owner"
)

// Steps lists every pipeline step in order.
var Steps = []string{
	StepRedirectRoot, StepClassify, StepBuildSession, StepPrepareSignature,
	StepCheckBody, StepFallback, StepCheckCasts, StepSelectWherePossible,
	StepClosureAnalyze, StepResolveRvalueScopes, StepResolveGeneratorInterior,
	StepDrainDeferredSized, StepSelectAllOrError, StepCheckTransmutes,
	StepCheckAsms, StepSkipRegionResolution, StepWriteback, StepAssertOwner,
}

// run is the state of one pipeline execution.
type run struct {
	c        *Context
	key      resultKey
	fallback func(*FnCtxt) types.TypeID

	tracer trace.Tracer
	span   *trace.Span
	timer  *observ.Timer

	unit   *hir.Unit
	body   *hir.Body
	declTy *hir.Ty
	decl   *hir.FnDecl

	sess      *infer.Session
	fcx       *FnCtxt
	sig       types.TypeID
	sigSource SigSource
	gen       *GeneratorTypes
	captures  upvar.Captures
	results   *TypeckResults
}

func (c *Context) typeckWithFallback(key resultKey, fallback func(*FnCtxt) types.TypeID) *TypeckResults {
	c.runs.Add(1)
	r := &run{
		c:        c,
		key:      key,
		fallback: fallback,
		tracer:   c.tracer,
		timer:    observ.NewTimer(),
	}
	r.span = trace.Begin(r.tracer, trace.ScopeUnit, "typeck:"+c.Prog.Name(key.def), c.parent.Load())
	if key.diagOnly {
		r.span.WithExtra("mode", "diagnostic-only")
	}

	r.step(StepRedirectRoot, r.redirectRoot)
	r.step(StepClassify, r.classify)
	r.step(StepBuildSession, r.buildSession)
	r.step(StepPrepareSignature, r.prepareSignature)
	r.step(StepCheckBody, r.checkBody)
	r.step(StepFallback, r.applyFallback)
	r.step(StepCheckCasts, r.checkCasts)
	r.step(StepSelectWherePossible, r.selectWherePossible)
	r.step(StepClosureAnalyze, r.closureAnalyze)
	r.step(StepResolveRvalueScopes, r.resolveRvalueScopes)
	r.step(StepResolveGeneratorInterior, r.resolveGeneratorInteriors)
	r.step(StepDrainDeferredSized, r.drainDeferredSized)
	r.step(StepSelectAllOrError, r.selectAllOrError)
	r.step(StepCheckTransmutes, r.checkTransmutes)
	r.step(StepCheckAsms, r.checkAsms)
	r.step(StepSkipRegionResolution, r.skipRegionResolution)
	r.step(StepWriteback, r.writeback)
	r.step(StepAssertOwner, r.assertOwner)

	c.totals.Add(r.timer.Report())
	r.span.WithExtra("errors", strconv.Itoa(r.results.ErrorCount()))
	r.span.End(r.timer.Summary())
	return r.results
}

// step runs one named phase. A phase returns a short note for the timer.
func (r *run) step(name string, fn func() string) {
	sp := trace.Begin(r.tracer, trace.ScopePhase, name, r.span.ID())
	idx := r.timer.Begin(name)
	note := fn()
	r.timer.End(idx, note)
	sp.End(note)
}

func (r *run) redirectRoot() string {
	root := typeckRootOf(r.c.Prog, r.key.def)
	ice.Assert(root == r.key.def, "typeck of %s must go through its root %s",
		r.c.Prog.Name(r.key.def), r.c.Prog.Name(root))
	return ""
}

func (r *run) classify() string {
	r.unit = r.c.unit(r.key.def)
	body, declTy, decl, ok := primaryBodyOf(r.c.Prog, r.unit)
	if !ok {
		ice.Bugf("can't type-check body of %s", r.c.Prog.Name(r.key.def))
	}
	r.body, r.declTy, r.decl = body, declTy, decl
	return r.unit.Kind.String()
}

func (r *run) buildSession() string {
	r.sess = infer.NewSession(r.c.Types, r.key.def)
	env := r.c.Services.Signatures.ParamEnv(r.key.def)
	r.fcx = newFnCtxt(r.c, r.key.def, r.sess, env, r.c.cfg.MaxDiagnostics)
	return fmt.Sprintf("%d where-clauses", len(env.Caller))
}

func (r *run) prepareSignature() string {
	if r.decl == nil {
		return "no signature"
	}
	fcx, sigs := r.fcx, r.c.Services.Signatures
	if declHasPlaceholder(r.decl) {
		r.sig = r.lowerSigWithFreshVars()
		r.sigSource = SigInferred
	} else {
		r.sig = sigs.FnSig(r.key.def)
		r.sigSource = SigFnDecl
	}
	if !sigs.AbiSupported(r.decl.Abi) {
		fcx.errorf(diag.TckUnsupportedAbi, r.decl.Span, "`%s` is not a supported ABI for the current target", r.decl.Abi).Emit()
	}
	r.sess.LiberateRegions(r.key.def, r.decl.LateBoundRegions)
	r.sig = fcx.normalize(r.sig, r.decl.Span)
	return r.sigSource.String()
}

func declHasPlaceholder(d *hir.FnDecl) bool {
	for _, t := range d.Inputs {
		if t.HasPlaceholder() {
			return true
		}
	}
	return d.Output != nil && d.Output.HasPlaceholder()
}

// lowerSigWithFreshVars lowers a signature mentioning `_` so that the
// body can infer the elided parts.
func (r *run) lowerSigWithFreshVars() types.TypeID {
	in, fcx := r.c.Types, r.fcx
	opts := collect.LowerOpts{Fresh: fcx.freshTy, Reporter: fcx.reporter}
	params := make([]types.TypeID, len(r.decl.Inputs))
	for i, t := range r.decl.Inputs {
		params[i] = r.c.Services.Signatures.LowerTy(t, r.key.def, opts)
	}
	out := in.Builtins().Unit
	if r.decl.Output != nil {
		out = r.c.Services.Signatures.LowerTy(r.decl.Output, r.key.def, opts)
	}
	return in.RegisterFn(params, out, r.decl.Abi, r.decl.Variadic)
}

func (r *run) checkBody() string {
	fcx := r.fcx
	checker := r.c.Services.Checker
	if r.decl != nil {
		r.gen = checker.CheckFnBody(fcx, r.sig, r.decl, r.body)
		if info, ok := r.c.Types.FnInfo(r.sig); ok {
			fcx.valueTy = info.Result
		}
		if r.gen != nil {
			return "coroutine"
		}
		return "fn"
	}
	expected, src := fcx.expectedBodyType(r.unit, r.declTy, func() types.TypeID { return r.fallback(fcx) })
	r.sigSource = src
	expected = fcx.normalize(expected, r.body.Value.Span)
	fcx.requireSized(expected, r.body.Value.Span, infer.CauseConstSized)
	fcx.gatherLocals(r.body)
	checker.CheckExprCoercibleTo(fcx, r.body.Value, expected)
	fcx.valueTy = expected
	return src.String()
}

func (r *run) applyFallback() string {
	if r.c.Services.Fallback.ApplyDefaults(r.sess) {
		return "defaults applied"
	}
	return ""
}

func (r *run) checkCasts() string {
	n := r.fcx.checkCasts()
	return fmt.Sprintf("%d casts", n)
}

func (r *run) selectWherePossible() string {
	n := r.c.Services.Obligations.TryResolveAll(r.sess, r.fcx.Env, r.fcx.reporter)
	return fmt.Sprintf("%d pending", n)
}

func (r *run) closureAnalyze() string {
	fcx := r.fcx
	saved := fcx.Env
	fcx.Env = saved.WithoutConst()
	r.captures = r.c.Services.Captures.Analyze(r.sess, r.body, r.c.Prog, fcx)
	fcx.Env = saved
	ice.Assert(r.sess.DeferredCalls() == 0, "%d deferred call resolutions left after closure analysis", r.sess.DeferredCalls())
	return fmt.Sprintf("%d closures", len(r.captures.Closures))
}

func (r *run) resolveRvalueScopes() string {
	n := r.fcx.resolveRvalueScopes(r.body)
	return fmt.Sprintf("%d temporaries", n)
}

func (r *run) resolveGeneratorInteriors() string {
	n := r.fcx.resolveGeneratorInteriors()
	return fmt.Sprintf("%d coroutines", n)
}

func (r *run) drainDeferredSized() string {
	deferred := r.sess.TakeDeferredSized()
	for _, o := range deferred {
		o.Self = r.fcx.normalize(r.sess.Resolve(o.Self), o.Span)
		r.c.Services.Obligations.Register(r.sess, o)
	}
	return fmt.Sprintf("%d obligations", len(deferred))
}

func (r *run) selectAllOrError() string {
	r.c.Services.Obligations.ForceResolveOrReport(r.sess, r.fcx.Env, r.fcx.reporter)
	return ""
}

func (r *run) checkTransmutes() string {
	if r.sess.Tainted() {
		r.sess.TakeDeferredTransmutes()
		return "skipped"
	}
	n := r.fcx.checkTransmutes()
	return fmt.Sprintf("%d transmutes", n)
}

func (r *run) checkAsms() string {
	n := r.fcx.checkAsms()
	return fmt.Sprintf("%d operands", n)
}

func (r *run) skipRegionResolution() string {
	n := r.sess.SkipRegionResolution()
	return fmt.Sprintf("%d region constraints", n)
}

func (r *run) writeback() string {
	r.results = r.fcx.writeback(r.body, r.decl, r.sigSource, r.captures)
	return fmt.Sprintf("%d nodes", r.results.NodeCount())
}

func (r *run) assertOwner() string {
	ice.Assert(r.results.Owner() == r.key.def, "typeck results for %s published with owner %s",
		r.c.Prog.Name(r.key.def), r.c.Prog.Name(r.results.Owner()))
	ice.Assert(r.sess.DeferredTotal() == 0, "%d deferred checks left at the end of typeck", r.sess.DeferredTotal())
	return ""
}
