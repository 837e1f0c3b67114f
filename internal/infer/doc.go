// Package infer holds the state of one type-checking run: inference
// variables and their unification, pending obligations, the deferred
// queues drained by the later pipeline steps, and region bookkeeping.
//
// A Session is owned by exactly one run and is never shared between
// goroutines.
package infer
