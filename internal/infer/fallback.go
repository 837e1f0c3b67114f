package infer

import "typeck/internal/types"

// Fallback applies the default types of unconstrained variables:
// {integer} becomes i32 (or the variable's own default), {float} becomes
// f64 and diverging variables become `()`. Plain type variables without
// a default are left for the final selection to report.
type Fallback struct{}

// ApplyDefaults binds every defaultable variable and reports whether any
// binding was made.
func (Fallback) ApplyDefaults(s *Session) bool {
	b := s.Types.Builtins()
	changed := false
	for i := range s.vars {
		vid := uint32(i)
		d := s.vars[vid]
		if d.parent != vid || d.value != types.NoTypeID {
			continue
		}
		var dflt types.TypeID
		switch {
		case d.dflt != types.NoTypeID:
			dflt = d.dflt
		case d.kind == types.InferInt:
			dflt = b.I32
		case d.kind == types.InferFloat:
			dflt = b.F64
		case d.diverging:
			dflt = b.Unit
		default:
			continue
		}
		d.value = dflt
		s.set(vid, d)
		changed = true
	}
	return changed
}
