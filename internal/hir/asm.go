package hir

// AsmOperandOf returns the operand that refers to the anon const c. Consts
// of inline asm are looked up in the expression they were placed at, consts
// of a global_asm item in the item's operands. Only const and sym operands
// can refer to a const.
func (p *Program) AsmOperandOf(c *Unit) (AsmOperand, bool) {
	var ops []AsmOperand
	if e := p.Expr(c.PlacementNode); e != nil {
		if d, ok := e.Data.(*InlineAsmData); ok {
			ops = d.Operands
		}
	} else if owner := p.Unit(c.Parent); owner != nil && owner.Kind == DefGlobalAsm {
		ops = owner.AsmOperands
	}
	for _, op := range ops {
		if (op.Kind == AsmConst || op.Kind == AsmSymFn) && op.Const == c.ID {
			return op, true
		}
	}
	return AsmOperand{}, false
}
