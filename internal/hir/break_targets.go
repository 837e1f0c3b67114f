package hir

type breakScope struct {
	label  string
	target NodeID
	loop   bool
}

// ResolveBreakTargets fills Target on every break and continue of b that
// does not carry one yet. A labeled jump targets the nearest enclosing loop
// or block with that label; an unlabeled break or continue targets the
// innermost loop. Jumps with no valid target keep NoNodeID so the checker
// can report them. Closure bodies are separate, so scopes never leak into
// them.
func ResolveBreakTargets(b *Body) {
	if b == nil {
		return
	}
	var stack []breakScope
	var walk func(e *Expr)
	walk = func(e *Expr) {
		if e == nil {
			return
		}
		switch d := e.Data.(type) {
		case *LoopData:
			stack = append(stack, breakScope{label: d.Label, target: e.ID, loop: true})
			walk(d.Cond)
			walk(d.Body)
			stack = stack[:len(stack)-1]
			return
		case *BlockData:
			if d.Label != "" {
				stack = append(stack, breakScope{label: d.Label, target: e.ID})
				defer func() { stack = stack[:len(stack)-1] }()
			}
		case *BreakData:
			if d.Target == NoNodeID {
				d.Target = findTarget(stack, d.Label, false)
			}
		case *ContinueData:
			if d.Target == NoNodeID {
				d.Target = findTarget(stack, d.Label, true)
			}
		}
		for _, c := range ExprChildren(e) {
			walk(c)
		}
	}
	walk(b.Value)
}

func findTarget(stack []breakScope, label string, loopOnly bool) NodeID {
	for i := len(stack) - 1; i >= 0; i-- {
		s := stack[i]
		if label != "" {
			if s.label == label {
				if loopOnly && !s.loop {
					return NoNodeID
				}
				return s.target
			}
			continue
		}
		if s.loop {
			return s.target
		}
	}
	return NoNodeID
}
