package typeck

import (
	"context"
	"runtime"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"typeck/internal/hir"
	"typeck/internal/ice"
	"typeck/internal/trace"
)

// ProgressEvent reports one finished unit of the eager driver.
type ProgressEvent struct {
	Def    hir.DefID
	Name   string
	Done   int
	Total  int
	Errors int
	Err    error
}

// Roots lists the definitions the eager driver checks: the distinct roots
// of every body owner that has results, in DefID order.
func (c *Context) Roots() []hir.DefID {
	seen := make(map[hir.DefID]bool)
	var out []hir.DefID
	for _, def := range c.Prog.BodyOwners() {
		root := typeckRootOf(c.Prog, def)
		if seen[root] || !c.HasTypeckResults(root) {
			continue
		}
		seen[root] = true
		out = append(out, root)
	}
	return out
}

// TypeckItemBodies checks every body of the program in parallel. It stops
// scheduling new units once ctx is done and returns the first internal
// compiler error raised by a unit as an *ice.Bug.
func (c *Context) TypeckItemBodies(ctx context.Context) error {
	tracer := c.tracer
	if tracer == trace.Nop {
		tracer = trace.FromContext(ctx)
	}
	roots := c.Roots()
	span := trace.Begin(tracer, trace.ScopeDriver, "typeck_item_bodies", trace.CurrentSpan(ctx))
	span.WithExtra("units", strconv.Itoa(len(roots)))
	defer span.End("")
	c.parent.Store(span.ID())

	jobs := c.cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	var done atomic.Int64
	for _, def := range roots {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			var res *TypeckResults
			err := ice.Catch(func() { res = c.Typeck(def) })
			ev := ProgressEvent{
				Def:   def,
				Name:  c.Prog.Name(def),
				Done:  int(done.Add(1)),
				Total: len(roots),
				Err:   err,
			}
			if res != nil {
				ev.Errors = res.ErrorCount()
			}
			c.progress(ev)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (c *Context) progress(ev ProgressEvent) {
	if c.cfg.Progress == nil {
		return
	}
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	c.cfg.Progress(ev)
}
