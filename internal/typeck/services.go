package typeck

import (
	"typeck/internal/collect"
	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/infer"
	"typeck/internal/source"
	"typeck/internal/traits"
	"typeck/internal/types"
	"typeck/internal/upvar"
)

// ExprChecker type-checks the contents of a body.
type ExprChecker interface {
	// CheckFnBody checks a fn-like body against its signature. It returns
	// the coroutine types when the body is a coroutine.
	CheckFnBody(fcx *FnCtxt, sig types.TypeID, decl *hir.FnDecl, body *hir.Body) *GeneratorTypes
	// CheckExprCoercibleTo checks expr and coerces it to expected.
	CheckExprCoercibleTo(fcx *FnCtxt, expr *hir.Expr, expected types.TypeID) types.TypeID
}

// ObligationService proves trait obligations.
type ObligationService interface {
	Register(s *infer.Session, o infer.Obligation)
	TryResolveAll(s *infer.Session, env traits.ParamEnv, r diag.Reporter) int
	ForceResolveOrReport(s *infer.Session, env traits.ParamEnv, r diag.Reporter)
	Normalize(s *infer.Session, env traits.ParamEnv, ty types.TypeID, span source.Span) types.TypeID
	Implements(s *infer.Session, env traits.ParamEnv, self types.TypeID, trait hir.DefID, args ...types.TypeID) traits.Result
	IsCopy(s *infer.Session, env traits.ParamEnv, t types.TypeID) bool
}

// FallbackService applies default types to unconstrained variables.
type FallbackService interface {
	ApplyDefaults(s *infer.Session) bool
}

// CaptureAnalyzer infers closure captures and kinds.
type CaptureAnalyzer interface {
	Analyze(s *infer.Session, body *hir.Body, prog *hir.Program, cx upvar.Context) upvar.Captures
}

// SignatureProvider answers item-level questions about definitions.
type SignatureProvider interface {
	TypeOf(def hir.DefID) types.TypeID
	FnSig(def hir.DefID) types.TypeID
	CtorSig(def hir.DefID) (types.TypeID, bool)
	FieldTypes(def hir.DefID) []types.TypeID
	ParamEnv(def hir.DefID) traits.ParamEnv
	GenericsCount(def hir.DefID) int
	HasExpectedNumGenericArgs(trait hir.DefID, n int) bool
	AbiSupported(abi string) bool
	LowerTy(t *hir.Ty, owner hir.DefID, opts collect.LowerOpts) types.TypeID
	SelfTy(owner hir.DefID) types.TypeID
	EvalConst(def hir.DefID) (value uint64, generic, ok bool)
	InherentImpls() []*traits.ImplCandidate
	Impl(def hir.DefID) *traits.ImplCandidate
}

// Services bundles the collaborators of the pipeline. Zero fields are
// filled with the defaults by New.
type Services struct {
	Checker     ExprChecker
	Obligations ObligationService
	Fallback    FallbackService
	Captures    CaptureAnalyzer
	Signatures  SignatureProvider
}

var (
	_ ExprChecker       = DefaultExprChecker{}
	_ ObligationService = (*traits.Solver)(nil)
	_ FallbackService   = infer.Fallback{}
	_ CaptureAnalyzer   = upvar.Analyzer{}
	_ SignatureProvider = (*collect.Provider)(nil)
)
