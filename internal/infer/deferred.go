package infer

import (
	"typeck/internal/hir"
	"typeck/internal/source"
	"typeck/internal/types"
)

type queue[T any] struct {
	items []T
}

func (q *queue[T]) push(v T) { q.items = append(q.items, v) }
func (q *queue[T]) len() int { return len(q.items) }

func (q *queue[T]) take() []T {
	out := q.items
	q.items = nil
	return out
}

// ClosureKind is the strongest Fn* trait a closure implements.
type ClosureKind uint8

const (
	ClosureKindUnknown ClosureKind = iota
	ClosureFn
	ClosureFnMut
	ClosureFnOnce
)

func (k ClosureKind) String() string {
	switch k {
	case ClosureFn:
		return "Fn"
	case ClosureFnMut:
		return "FnMut"
	case ClosureFnOnce:
		return "FnOnce"
	}
	return "?"
}

// Extends reports whether a closure of kind k can be called through the
// trait of kind want (Fn closures are also FnMut and FnOnce).
func (k ClosureKind) Extends(want ClosureKind) bool {
	return k != ClosureKindUnknown && k <= want
}

// DeferredCall is a call of a local closure whose kind was unknown when
// the call was checked.
type DeferredCall struct {
	Call    hir.NodeID
	Closure hir.DefID
	Span    source.Span
}

// CastCheck is an `e as T` checked after fallback.
type CastCheck struct {
	Expr     hir.NodeID
	From, To types.TypeID
	Span     source.Span
	ExprSpan source.Span
}

// TransmuteCheck compares the sizes of From and To once types are known.
type TransmuteCheck struct {
	Call     hir.NodeID
	From, To types.TypeID
	Span     source.Span
}

// AsmCheck validates one inline-asm operand type.
type AsmCheck struct {
	Asm     hir.NodeID
	Operand int
	Kind    hir.AsmOperandKind
	Ty      types.TypeID
	Span    source.Span
}

// CoroutineInterior asks for the types live across a suspension point of
// Def once every other type is known.
type CoroutineInterior struct {
	Def  hir.DefID
	Ty   types.TypeID
	Body *hir.Body
}

func (s *Session) DeferCall(c DeferredCall)          { s.deferredCalls.push(c) }
func (s *Session) DeferredCalls() int                { return s.deferredCalls.len() }
func (s *Session) TakeDeferredCalls() []DeferredCall { return s.deferredCalls.take() }

// DeferSized queues a sized obligation registered before its type was
// known well enough; drained before the final selection.
func (s *Session) DeferSized(o Obligation)         { s.deferredSized.push(o) }
func (s *Session) DeferredSized() int              { return s.deferredSized.len() }
func (s *Session) TakeDeferredSized() []Obligation { return s.deferredSized.take() }

func (s *Session) DeferCast(c CastCheck)          { s.deferredCasts.push(c) }
func (s *Session) DeferredCasts() int             { return s.deferredCasts.len() }
func (s *Session) TakeDeferredCasts() []CastCheck { return s.deferredCasts.take() }

func (s *Session) DeferTransmute(c TransmuteCheck)          { s.deferredTransmutes.push(c) }
func (s *Session) DeferredTransmutes() int                  { return s.deferredTransmutes.len() }
func (s *Session) TakeDeferredTransmutes() []TransmuteCheck { return s.deferredTransmutes.take() }

func (s *Session) DeferAsm(c AsmCheck)          { s.deferredAsms.push(c) }
func (s *Session) DeferredAsms() int            { return s.deferredAsms.len() }
func (s *Session) TakeDeferredAsms() []AsmCheck { return s.deferredAsms.take() }

func (s *Session) DeferInterior(c CoroutineInterior)          { s.deferredInteriors.push(c) }
func (s *Session) DeferredInteriors() int                     { return s.deferredInteriors.len() }
func (s *Session) TakeDeferredInteriors() []CoroutineInterior { return s.deferredInteriors.take() }

// DeferredTotal is the number of items left in every deferred queue.
func (s *Session) DeferredTotal() int {
	return s.deferredCalls.len() + s.deferredSized.len() + s.deferredCasts.len() +
		s.deferredTransmutes.len() + s.deferredAsms.len() + s.deferredInteriors.len()
}
