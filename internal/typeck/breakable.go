package typeck

import (
	"typeck/internal/hir"
	"typeck/internal/ice"
	"typeck/internal/types"
)

// CoerceMany accumulates the values flowing into one place (the arms of
// an `if`, the breaks of a loop, the returns of a function) and coerces
// each of them to a common type.
type CoerceMany struct {
	expected types.TypeID
	pushed   int
	diverged int
}

// NewCoerceMany starts an accumulator targeting expected, usually a fresh
// type variable when nothing is known yet.
func NewCoerceMany(expected types.TypeID) *CoerceMany {
	return &CoerceMany{expected: expected}
}

// Expected is the target type of every coercion.
func (cm *CoerceMany) Expected() types.TypeID { return cm.expected }

// Pushed is the number of values coerced so far.
func (cm *CoerceMany) Pushed() int { return cm.pushed }

// Complete returns the merged type; never when nothing but diverging
// values was pushed.
func (cm *CoerceMany) Complete(in *types.Interner) types.TypeID {
	if cm.pushed == cm.diverged {
		return in.Builtins().Never
	}
	return cm.expected
}

// BreakableCtxt is a loop or labeled block a break may target.
type BreakableCtxt struct {
	MayBreak bool
	// Coerce is nil where `break` cannot carry a value (while loops).
	Coerce *CoerceMany
}

type breakableEntry struct {
	id   hir.NodeID
	ctxt *BreakableCtxt
}

// EnclosingBreakables is the stack of breakable constructs around the
// expression being checked. Closure and const bodies start a fresh stack.
type EnclosingBreakables struct {
	stack []breakableEntry
	index map[hir.NodeID]int
}

func newEnclosingBreakables() *EnclosingBreakables {
	return &EnclosingBreakables{index: make(map[hir.NodeID]int)}
}

// Depth is the number of enclosing breakables.
func (eb *EnclosingBreakables) Depth() int { return len(eb.stack) }

func (eb *EnclosingBreakables) push(id hir.NodeID, ctxt *BreakableCtxt) {
	eb.index[id] = len(eb.stack)
	eb.stack = append(eb.stack, breakableEntry{id: id, ctxt: ctxt})
}

func (eb *EnclosingBreakables) pop(id hir.NodeID) *BreakableCtxt {
	n := len(eb.stack)
	ice.Assert(n > 0 && eb.stack[n-1].id == id, "breakable stack: pop of %d out of order", id)
	top := eb.stack[n-1]
	eb.stack = eb.stack[:n-1]
	delete(eb.index, id)
	return top.ctxt
}

// OptFind returns the context of the breakable target id, or nil.
func (eb *EnclosingBreakables) OptFind(id hir.NodeID) *BreakableCtxt {
	i, ok := eb.index[id]
	if !ok {
		return nil
	}
	return eb.stack[i].ctxt
}

// Find is OptFind for targets that must exist.
func (eb *EnclosingBreakables) Find(id hir.NodeID) *BreakableCtxt {
	ctxt := eb.OptFind(id)
	if ctxt == nil {
		ice.Bugf("could not find enclosing breakable with id %d", id)
	}
	return ctxt
}

// WithBreakable runs fn with ctxt pushed for target id and returns the
// context as fn left it.
func (fcx *FnCtxt) WithBreakable(id hir.NodeID, ctxt *BreakableCtxt, fn func()) *BreakableCtxt {
	fcx.breakables.push(id, ctxt)
	fn()
	return fcx.breakables.pop(id)
}
