package layout

import (
	"typeck/internal/types"
)

// TypeLayout is the size and alignment of a type for a specific Target.
type TypeLayout struct {
	Size  int
	Align int

	// Struct and tuple fields:
	FieldOffsets []int

	// Enums:
	TagSize       int
	PayloadOffset int
}

// AdtShape lists the field types of an instantiated struct or enum.
// A struct has exactly one variant.
type AdtShape struct {
	IsEnum   bool
	Variants [][]types.TypeID
}

// AdtSource resolves ADT definitions to field types with args substituted.
type AdtSource interface {
	AdtShape(def uint32, args []types.TypeID) (AdtShape, bool)
}

// LayoutEngine computes memory layout for fully resolved types.
// It is safe for concurrent use.
type LayoutEngine struct {
	Target Target
	Types  *types.Interner
	Adts   AdtSource

	cache *cache
}

// New creates a LayoutEngine for target.
func New(target Target, typesIn *types.Interner, adts AdtSource) *LayoutEngine {
	return &LayoutEngine{
		Target: target,
		Types:  typesIn,
		Adts:   adts,
		cache:  newCache(),
	}
}

type layoutState struct {
	stack []types.TypeID
	index map[types.TypeID]int
}

// LayoutOf computes and caches the layout of t.
func (e *LayoutEngine) LayoutOf(t types.TypeID) (TypeLayout, error) {
	l, err := e.layoutOf(t, &layoutState{index: make(map[types.TypeID]int, 8)})
	if err != nil {
		return l, err
	}
	return l, nil
}

// SizeOf returns the size of t in bytes.
func (e *LayoutEngine) SizeOf(t types.TypeID) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Size, err
}

// AlignOf returns the alignment of t in bytes.
func (e *LayoutEngine) AlignOf(t types.TypeID) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Align, err
}

func (e *LayoutEngine) layoutOf(t types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	if cached, ok := e.cache.get(t); ok {
		return cached.Layout, cached.Err
	}
	if idx, ok := state.index[t]; ok {
		cycle := append(append([]types.TypeID(nil), state.stack[idx:]...), t)
		return zeroLayout, &LayoutError{Kind: LayoutErrRecursive, Type: t, Cycle: cycle}
	}

	state.index[t] = len(state.stack)
	state.stack = append(state.stack, t)
	l, err := e.computeLayout(t, state)
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, t)

	// a failure inside a cycle depends on the entry point; cache only roots
	if err == nil || len(state.stack) == 0 {
		e.cache.put(t, cacheEntry{Layout: l, Err: err})
	}
	return l, err
}
