package infer

import (
	"typeck/internal/hir"
	"typeck/internal/source"
)

// FreeRegion is a late-bound region of a signature, liberated into a
// region scoped to the body being checked.
type FreeRegion struct {
	Scope hir.DefID
	Name  string
}

// RegionConstraint records that the borrow at Expr must outlive Scope.
type RegionConstraint struct {
	Expr  hir.NodeID
	Scope hir.NodeID
	Span  source.Span
}

// LiberateRegions turns the named late-bound regions into free regions
// of scope.
func (s *Session) LiberateRegions(scope hir.DefID, names []string) []FreeRegion {
	for _, n := range names {
		s.freeRegions = append(s.freeRegions, FreeRegion{Scope: scope, Name: n})
	}
	return s.freeRegions
}

// FreeRegions returns every liberated region.
func (s *Session) FreeRegions() []FreeRegion { return s.freeRegions }

// AddRegionConstraint records a borrow constraint.
func (s *Session) AddRegionConstraint(c RegionConstraint) {
	s.regions = append(s.regions, c)
}

// RegionConstraints returns the recorded constraints.
func (s *Session) RegionConstraints() []RegionConstraint { return s.regions }

// SkipRegionResolution discards region constraints; region checking is
// done by a later borrow-checking pass, not here. It returns how many
// constraints were dropped.
func (s *Session) SkipRegionResolution() int {
	n := len(s.regions)
	s.regions = nil
	s.regionsDone = true
	return n
}

// RegionsResolved reports whether SkipRegionResolution ran.
func (s *Session) RegionsResolved() bool { return s.regionsDone }

// SetRvalueScope records the scope a temporary lives until.
func (s *Session) SetRvalueScope(expr, scope hir.NodeID) {
	s.rvalueScopes[expr] = scope
}

// RvalueScopes returns every recorded temporary scope.
func (s *Session) RvalueScopes() map[hir.NodeID]hir.NodeID { return s.rvalueScopes }
