package hir

// ExprChildren returns the direct sub-expressions of e in evaluation order.
// Bodies of closures and anon consts are separate and not included.
func ExprChildren(e *Expr) []*Expr {
	if e == nil {
		return nil
	}
	var out []*Expr
	add := func(xs ...*Expr) {
		for _, x := range xs {
			if x != nil {
				out = append(out, x)
			}
		}
	}
	switch d := e.Data.(type) {
	case *BlockData:
		for _, s := range d.Stmts {
			switch sd := s.Data.(type) {
			case *LetData:
				add(sd.Init)
			case *ExprStmtData:
				add(sd.Expr)
			}
		}
		add(d.Tail)
	case *LoopData:
		add(d.Cond, d.Body)
	case *BreakData:
		add(d.Value)
	case *ReturnData:
		add(d.Value)
	case *CastData:
		add(d.Expr)
	case *BinaryData:
		add(d.Lhs, d.Rhs)
	case *UnaryData:
		add(d.Operand)
	case *AssignData:
		add(d.Lhs, d.Rhs)
	case *CallData:
		add(d.Callee)
		add(d.Args...)
	case *MethodCallData:
		add(d.Receiver)
		add(d.Args...)
	case *YieldData:
		add(d.Value)
	case *RepeatData:
		add(d.Elem)
	case *ArrayData:
		add(d.Elems...)
	case *TupleData:
		add(d.Elems...)
	case *AddrOfData:
		add(d.Expr)
	case *IfData:
		add(d.Cond, d.Then, d.Else)
	case *IndexData:
		add(d.Base, d.Index)
	case *FieldData:
		add(d.Base)
	case *StructData:
		add(d.Path)
		for _, f := range d.Fields {
			add(f.Value)
		}
	case *InlineAsmData:
		for _, op := range d.Operands {
			add(op.Expr)
		}
	}
	return out
}

// WalkExpr visits e and its sub-expressions depth-first, pre-order.
// Returning false from fn skips the children of that node.
func WalkExpr(e *Expr, fn func(*Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range ExprChildren(e) {
		WalkExpr(c, fn)
	}
}

// WalkPat visits p and its sub-patterns.
func WalkPat(p *Pat, fn func(*Pat)) {
	if p == nil {
		return
	}
	fn(p)
	switch d := p.Data.(type) {
	case *BindingData:
		WalkPat(d.Sub, fn)
	case *PatTupleData:
		for _, e := range d.Elems {
			WalkPat(e, fn)
		}
	case *TupleStructData:
		for _, e := range d.Elems {
			WalkPat(e, fn)
		}
	case *PatLitData:
	}
}

// exprPats returns patterns introduced directly by e (let statements).
func exprPats(e *Expr) []*Pat {
	d, ok := e.Data.(*BlockData)
	if !ok {
		return nil
	}
	var out []*Pat
	for _, s := range d.Stmts {
		if let, ok := s.Data.(*LetData); ok {
			out = append(out, let.Pat)
		}
	}
	return out
}
