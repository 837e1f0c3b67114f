package typeck

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"typeck/internal/collect"
	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/ice"
	"typeck/internal/infer"
	"typeck/internal/layout"
	"typeck/internal/observ"
	"typeck/internal/trace"
	"typeck/internal/traits"
	"typeck/internal/types"
	"typeck/internal/upvar"
)

// Config tunes a Context.
type Config struct {
	// Jobs bounds the eager driver's parallelism; 0 means GOMAXPROCS.
	Jobs int
	// MaxDiagnostics caps the diagnostics kept per run; 0 means unlimited.
	MaxDiagnostics int
	// Abis are the calling conventions of the target.
	Abis   []string
	Target layout.Target
	Tracer trace.Tracer
	// Progress receives one event per finished unit of the eager driver.
	// Calls are serialized.
	Progress func(ProgressEvent)
}

type resultKey struct {
	def      hir.DefID
	param    hir.DefID
	diagOnly bool
}

func (k resultKey) String() string {
	return fmt.Sprintf("typeck/%d/%d/%t", k.def, k.param, k.diagOnly)
}

// Context is the query surface over one program. Every query is computed
// at most once and its result is shared; all methods are safe for
// concurrent use.
type Context struct {
	Prog     *hir.Program
	Types    *types.Interner
	Services Services
	Layout   *layout.LayoutEngine

	cfg     Config
	tracer  trace.Tracer
	items   *diag.Bag
	results sync.Map // resultKey -> *TypeckResults
	flight  singleflight.Group
	totals  *observ.Totals
	runs    atomic.Int64
	parent  atomic.Uint64

	progressMu sync.Mutex
}

// New creates a context over prog. Nil services are replaced by the
// default implementations; the default signature provider calls back
// into the context for `_` item types and anonymous constants.
func New(prog *hir.Program, in *types.Interner, cfg Config, svc Services) *Context {
	if in == nil {
		in = types.NewInterner()
	}
	if cfg.Target.PtrSize == 0 {
		cfg.Target = layout.X86_64LinuxGNU()
	}
	c := &Context{
		Prog:   prog,
		Types:  in,
		cfg:    cfg,
		tracer: cfg.Tracer,
		items:  diag.NewBag(cfg.MaxDiagnostics),
		totals: observ.NewTotals(),
	}
	if c.tracer == nil {
		c.tracer = trace.Nop
	}
	if svc.Signatures == nil {
		p := collect.New(prog, in, diag.NewLockedReporter(diag.BagReporter{Bag: c.items}), cfg.Abis)
		p.InferConstType = c.inferConstType
		p.AnonConstType = c.anonConstType
		svc.Signatures = p
	}
	if svc.Obligations == nil {
		impls, ok := svc.Signatures.(traits.ImplSource)
		if !ok {
			impls = noImpls{}
		}
		svc.Obligations = traits.NewSolver(in, prog, impls)
	}
	if svc.Fallback == nil {
		svc.Fallback = infer.Fallback{}
	}
	if svc.Captures == nil {
		svc.Captures = upvar.Analyzer{}
	}
	if svc.Checker == nil {
		svc.Checker = DefaultExprChecker{}
	}
	c.Services = svc
	adts, _ := svc.Signatures.(layout.AdtSource)
	c.Layout = layout.New(cfg.Target, in, adts)
	return c
}

type noImpls struct{}

func (noImpls) TraitImpls(hir.DefID) []*traits.ImplCandidate { return nil }

func (c *Context) inferConstType(def hir.DefID) types.TypeID {
	return c.DiagnosticOnlyTypeck(def).ValueType()
}

// anonConstType is the type an anonymous constant was checked at. Const
// blocks live in the results of their root, under their body's value.
func (c *Context) anonConstType(def hir.DefID) types.TypeID {
	res := c.Typeck(def)
	if res.Owner() == def {
		return res.ValueType()
	}
	if body := c.Prog.BodyOf(def); body != nil {
		if t, ok := res.NodeType(body.Value.ID); ok {
			return t
		}
	}
	return c.Types.Builtins().Error
}

// Typeck returns the results of the body def belongs to. Closures,
// coroutines and const blocks share the result of their root.
func (c *Context) Typeck(def hir.DefID) *TypeckResults {
	if root := typeckRootOf(c.Prog, def); root != def {
		return c.Typeck(root)
	}
	u := c.unit(def)
	if u.Kind == hir.DefAnonConst && u.ConstParamOf.IsValid() {
		return c.TypeckConstArg(def, u.ConstParamOf)
	}
	return c.query(resultKey{def: def}, func(*FnCtxt) types.TypeID {
		return c.Services.Signatures.TypeOf(def)
	})
}

// TypeckConstArg checks an anonymous constant passed for the const
// parameter param.
func (c *Context) TypeckConstArg(def, param hir.DefID) *TypeckResults {
	c.unit(def)
	return c.query(resultKey{def: def, param: param}, func(*FnCtxt) types.TypeID {
		return c.Services.Signatures.TypeOf(param)
	})
}

// DiagnosticOnlyTypeck checks def without relying on its item type. It is
// what infers the type of `const X: _`.
func (c *Context) DiagnosticOnlyTypeck(def hir.DefID) *TypeckResults {
	if root := typeckRootOf(c.Prog, def); root != def {
		return c.DiagnosticOnlyTypeck(root)
	}
	u := c.unit(def)
	return c.query(resultKey{def: def, diagOnly: true}, func(fcx *FnCtxt) types.TypeID {
		diag.ReportInfo(fcx.reporter, diag.TckDelayedBug, u.Span, "diagnostic only typeck table used").Emit()
		return c.Types.Builtins().Error
	})
}

// HasTypeckResults reports whether def, or its root, has a body to check.
func (c *Context) HasTypeckResults(def hir.DefID) bool {
	root := c.Prog.Unit(typeckRootOf(c.Prog, def))
	if root == nil {
		return false
	}
	_, _, _, ok := primaryBodyOf(c.Prog, root)
	return ok
}

// UsedTraitImports lists the trait imports the body of def relied on.
func (c *Context) UsedTraitImports(def hir.DefID) []hir.DefID {
	return c.Typeck(def).UsedTraitImports()
}

// ItemDiagnostics returns the diagnostics reported while computing item
// signatures, outside of any body.
func (c *Context) ItemDiagnostics() []*diag.Diagnostic { return c.items.Items() }

// Runs is the number of pipeline runs performed so far.
func (c *Context) Runs() int64 { return c.runs.Load() }

// Timings aggregates the phase timings of every run.
func (c *Context) Timings() observ.Report { return c.totals.Report() }

// Cached returns every result computed so far, in no particular order.
func (c *Context) Cached() []*TypeckResults {
	var out []*TypeckResults
	c.results.Range(func(_, v any) bool {
		out = append(out, v.(*TypeckResults))
		return true
	})
	return out
}

func (c *Context) unit(def hir.DefID) *hir.Unit {
	u := c.Prog.Unit(def)
	if u == nil {
		ice.Bugf("typeck: unknown definition %d", def)
	}
	return u
}

func (c *Context) query(key resultKey, fallback func(*FnCtxt) types.TypeID) *TypeckResults {
	if v, ok := c.results.Load(key); ok {
		return v.(*TypeckResults)
	}
	v, err, _ := c.flight.Do(key.String(), func() (any, error) {
		if v, ok := c.results.Load(key); ok {
			return v, nil
		}
		var res *TypeckResults
		if err := ice.Catch(func() { res = c.typeckWithFallback(key, fallback) }); err != nil {
			return nil, err
		}
		c.results.Store(key, res)
		return res, nil
	})
	if err != nil {
		// Re-raise in every waiting goroutine so each caller sees the bug.
		panic(err)
	}
	return v.(*TypeckResults)
}
