package driver

import (
	"context"
	"fmt"

	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/layout"
	"typeck/internal/observ"
	"typeck/internal/trace"
	"typeck/internal/typeck"
)

// Options configures one check.
type Options struct {
	Jobs           int
	MaxDiagnostics int
	Target         layout.Target
	Abis           []string
	Tracer         trace.Tracer
	// Progress receives one event per checked unit, tagged with the input
	// path. Not called for inputs served from the disk cache.
	Progress func(path string, ev typeck.ProgressEvent)
	// Finished is called once per input by CheckPath and CheckDir, with
	// either its result or the error that stopped it.
	Finished func(path string, res *Result, err error)
	// Cache, when set, short-circuits inputs checked before with the same
	// options.
	Cache   *DiskCache
	Timings bool
}

// Result is the outcome of checking one input.
type Result struct {
	Input *Input
	// Context is nil when the diagnostics came from the disk cache.
	Context *typeck.Context
	Bag     *diag.Bag
	Units   int
	Timings observ.Report
	Cached  bool
}

// HasErrors reports whether any error diagnostic was produced.
func (r *Result) HasErrors() bool { return r.Bag.HasErrors() }

// Check type-checks every body of in. An internal compiler error raised by
// any unit is returned as an error wrapping the *ice.Bug.
func Check(ctx context.Context, in *Input, opts Options) (*Result, error) {
	key := cacheKey(in, opts)
	if opts.Cache != nil {
		var payload DiskPayload
		ok, err := opts.Cache.Get(key, &payload)
		if err != nil {
			return nil, fmt.Errorf("disk cache: %w", err)
		}
		if ok {
			bag := diag.NewBag(opts.MaxDiagnostics)
			for _, d := range payload.Diagnostics {
				bag.Add(d)
			}
			return &Result{Input: in, Bag: bag, Units: payload.Units, Cached: true}, nil
		}
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	var progress func(typeck.ProgressEvent)
	if report := opts.Progress; report != nil {
		progress = func(ev typeck.ProgressEvent) { report(in.Path, ev) }
	}
	cx := typeck.New(in.Prog, nil, typeck.Config{
		Jobs:           opts.Jobs,
		MaxDiagnostics: opts.MaxDiagnostics,
		Abis:           opts.Abis,
		Target:         opts.Target,
		Tracer:         tracer,
		Progress:       progress,
	}, typeck.Services{})
	if err := cx.TypeckItemBodies(ctx); err != nil {
		return nil, fmt.Errorf("check %s: %w", in.Path, err)
	}

	roots := cx.Roots()
	bag := collectDiagnostics(cx, roots, opts.MaxDiagnostics)
	res := &Result{
		Input:   in,
		Context: cx,
		Bag:     bag,
		Units:   len(roots),
		Timings: cx.Timings(),
	}
	if opts.Cache != nil {
		payload := &DiskPayload{
			Path:        in.Path,
			Units:       res.Units,
			Broken:      bag.HasErrors(),
			Diagnostics: bag.Items(),
		}
		if err := opts.Cache.Put(key, payload); err != nil {
			return nil, fmt.Errorf("disk cache: %w", err)
		}
	}
	if opts.Timings {
		if err := appendTimingDiagnostic(res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// collectDiagnostics gathers item-level diagnostics and the diagnostics of
// every root in a deterministic order.
func collectDiagnostics(cx *typeck.Context, roots []hir.DefID, max int) *diag.Bag {
	all := diag.NewBag(0)
	for _, d := range cx.ItemDiagnostics() {
		all.Add(d)
	}
	for _, def := range roots {
		for _, d := range cx.Typeck(def).Diagnostics() {
			all.Add(d)
		}
	}
	all.Sort()
	all.Dedup()
	out := diag.NewBag(max)
	for _, d := range all.Items() {
		out.Add(d)
	}
	return out
}
