// Package trace records what the checker is doing and for how long.
//
// Spans nest as driver > unit > phase > node: the eager driver opens one
// driver span, each pipeline run opens a unit span named after the checked
// definition, and every pipeline step opens a phase span beneath it.
//
//	typeck check --trace=- --trace-level=detail prog.yaml
//
// Tracers:
//
//   - Nop: zero cost when tracing is off
//   - StreamTracer: writes each event as it happens (text or NDJSON)
//   - RingTracer: keeps the last N events, dumped when a run hits an
//     internal compiler error
//   - MultiTracer: fans out to several tracers
//
// Levels gate scopes: phase shows driver and unit spans, detail adds
// pipeline steps, debug adds node-level points.
//
// Tracers travel in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeUnit, "typeck", parentID)
//	defer span.End("")
package trace
