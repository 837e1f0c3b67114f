// Package hir is the read-only program store the type checker works on.
//
// A Program is a table of definitions (Unit, addressed by DefID) and bodies
// (Body, addressed by BodyID). Expressions, patterns and statements form
// pointer trees under each body; every expression and pattern carries a
// NodeID that is unique across the whole program, so results can be keyed
// by it. Types written in source (Ty) are syntax, lowered to types.TypeID
// by package collect.
//
// Programs are built with Builder, loaded from YAML (LoadYAML) or decoded
// from the binary form (Decode). All three run ResolveBreakTargets and
// Index before handing the program out, after which it is never mutated.
package hir

// DefID identifies a definition. 0 is "none".
type DefID uint32

// NodeID identifies an expression, pattern or local binding. 0 is "none".
type NodeID uint32

// BodyID identifies a body. 0 is "none".
type BodyID uint32

const (
	NoDefID  DefID  = 0
	NoNodeID NodeID = 0
	NoBodyID BodyID = 0
)

func (id DefID) IsValid() bool  { return id != NoDefID }
func (id NodeID) IsValid() bool { return id != NoNodeID }
func (id BodyID) IsValid() bool { return id != NoBodyID }
