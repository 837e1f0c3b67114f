package hir

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var suffixedLit = regexp.MustCompile(`^([0-9][0-9_]*(?:\.[0-9_]+)?)(i8|i16|i32|i64|i128|isize|u8|u16|u32|u64|u128|usize|f32|f64)$`)

func (l *loader) expr(n *yaml.Node) *Expr {
	b := l.at(n)
	if n == nil {
		l.errf(nil, "missing expression")
		return b.ErrExpr()
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return l.scalarExpr(n)
	case yaml.SequenceNode:
		l.errf(n, "expression expected, found a sequence")
		return b.ErrExpr()
	case yaml.MappingNode:
	default:
		l.errf(n, "expression expected")
		return b.ErrExpr()
	}

	kind, v := head(n)
	switch kind {
	case "int":
		return b.IntSuffixed(l.str(v), l.str(l.field(n, "suffix")))
	case "float":
		e := b.Float(l.str(v))
		e.Data.(*LitData).Suffix = l.str(l.field(n, "suffix"))
		return e
	case "str":
		return b.Str(l.str(v))
	case "char":
		return b.Char(l.str(v))
	case "bool":
		return b.Bool(l.str(v) == "true")
	case "path":
		e := l.pathExpr(v, ident(l.str(v)))
		if pd, ok := e.Data.(*PathData); ok {
			for _, a := range l.seq(l.field(n, "args")) {
				pd.Args = append(pd.Args, l.ty(a))
			}
		}
		return e
	case "unresolved":
		return b.Unresolved(ident(l.str(v)))
	case "block":
		return l.block(n, v)
	case "loop":
		body := l.expr(v)
		return l.at(n).Loop(l.label(n), body)
	case "while":
		cond := l.expr(v)
		body := l.expr(l.field(n, "body"))
		return l.at(n).While(l.label(n), cond, body)
	case "break":
		var value *Expr
		if !isNull(v) {
			value = l.expr(v)
		}
		return l.at(n).Break(l.label(n), value)
	case "continue":
		return b.Continue(l.label(n))
	case "return":
		var value *Expr
		if !isNull(v) {
			value = l.expr(v)
		}
		return l.at(n).Return(value)
	case "cast":
		e := l.expr(v)
		t := l.ty(l.field(n, "to"))
		return l.at(n).Cast(e, t)
	case "bin":
		op, ok := ParseBinOp(l.str(v))
		if !ok {
			l.errf(v, "unknown binary operator %q", l.str(v))
		}
		lhs, rhs := l.expr(l.field(n, "lhs")), l.expr(l.field(n, "rhs"))
		return l.at(n).Binary(op, lhs, rhs)
	case "neg", "not", "deref":
		op := map[string]UnOp{"neg": UnNeg, "not": UnNot, "deref": UnDeref}[kind]
		e := l.expr(v)
		return l.at(n).Unary(op, e)
	case "assign":
		lhs, rhs := l.expr(v), l.expr(l.field(n, "value"))
		if opNode := l.field(n, "op"); opNode != nil {
			op, ok := ParseBinOp(l.str(opNode))
			if !ok {
				l.errf(opNode, "unknown compound operator %q", l.str(opNode))
			}
			return l.at(n).AssignOp(op, lhs, rhs)
		}
		return l.at(n).Assign(lhs, rhs)
	case "call":
		callee := l.expr(v)
		args := l.exprs(l.field(n, "args"))
		return l.at(n).Call(callee, args...)
	case "method":
		recv := l.expr(l.field(n, "recv"))
		args := l.exprs(l.field(n, "args"))
		e := l.at(n).MethodCall(recv, ident(l.str(v)), args...)
		e.Data.(*MethodCallData).MethodSpan = l.spanOf(v)
		return e
	case "closure":
		return l.closure(n, v)
	case "coroutine":
		return l.coroutine(n)
	case "yield":
		var value *Expr
		if !isNull(v) {
			value = l.expr(v)
		}
		return l.at(n).Yield(value)
	case "const":
		c := b.AnonConst(l.owner, PlaceConstBlock)
		l.body(c.ID, nil, v)
		return l.at(n).ConstBlock(c.ID)
	case "repeat":
		elem := l.expr(v)
		count := l.anonConst(l.field(n, "count"), PlaceArrayLength)
		return l.at(n).Repeat(elem, count)
	case "array":
		elems := l.exprs(v)
		return l.at(n).Array(elems...)
	case "tuple":
		elems := l.exprs(v)
		return l.at(n).Tuple(elems...)
	case "ref", "refmut":
		e := l.expr(v)
		return l.at(n).AddrOf(kind == "refmut", e)
	case "if":
		cond := l.expr(v)
		then := l.expr(l.field(n, "then"))
		var els *Expr
		if en := l.field(n, "else"); en != nil {
			els = l.expr(en)
		}
		return l.at(n).If(cond, then, els)
	case "index":
		base := l.expr(v)
		idx := l.expr(l.field(n, "at"))
		return l.at(n).Index(base, idx)
	case "field":
		base := l.expr(l.field(n, "of"))
		return l.at(n).Field(base, ident(l.str(v)))
	case "struct":
		def := l.resolveDef(v, ident(l.str(v)))
		var inits []FieldInit
		for _, f := range l.seq(l.field(n, "fields")) {
			if f.Kind != yaml.SequenceNode || len(f.Content) != 2 {
				l.errf(f, "field initializer must be [name, expr]")
				continue
			}
			value := l.expr(f.Content[1])
			inits = append(inits, l.at(f).Init(ident(l.str(f.Content[0])), value))
		}
		if def == NoDefID {
			return l.at(n).ErrExpr()
		}
		return l.at(n).StructLit(def, inits...)
	case "asm":
		return l.inlineAsm(n, v)
	case "err":
		return b.ErrExpr()
	}
	l.errf(n, "unknown expression form %q", kind)
	return b.ErrExpr()
}

func (l *loader) scalarExpr(n *yaml.Node) *Expr {
	b := l.at(n)
	switch n.Tag {
	case "!!int":
		return b.Int(n.Value)
	case "!!float":
		return b.Float(n.Value)
	case "!!bool":
		return b.Bool(n.Value == "true")
	case "!!null":
		return b.Tuple()
	}
	if n.Style == yaml.DoubleQuotedStyle {
		return b.Str(n.Value)
	}
	if n.Value == "()" {
		return b.Tuple()
	}
	if m := suffixedLit.FindStringSubmatch(n.Value); m != nil {
		if strings.HasPrefix(m[2], "f") || strings.Contains(m[1], ".") {
			e := b.Float(m[1])
			e.Data.(*LitData).Suffix = m[2]
			return e
		}
		return b.IntSuffixed(m[1], m[2])
	}
	return l.pathExpr(n, ident(n.Value))
}

func (l *loader) pathExpr(n *yaml.Node, name string) *Expr {
	b := l.at(n)
	if !strings.Contains(name, "::") {
		if p := l.lookupLocal(name); p != nil {
			return b.Local(p)
		}
	}
	def := l.resolveDef(n, name)
	if def == NoDefID {
		return b.Unresolved(name)
	}
	e := l.at(n).Path(def)
	e.Data.(*PathData).Name = name
	return e
}

func (l *loader) exprs(n *yaml.Node) []*Expr {
	var out []*Expr
	for _, e := range l.seq(n) {
		out = append(out, l.expr(e))
	}
	return out
}

func (l *loader) label(n *yaml.Node) string {
	return strings.TrimPrefix(ident(l.str(l.field(n, "label"))), "'")
}

func (l *loader) anonConst(n *yaml.Node, place AnonConstPlacement) DefID {
	c := l.at(n).AnonConst(l.owner, place)
	if n == nil {
		l.errf(nil, "missing %s constant", place)
		return c.ID
	}
	l.body(c.ID, nil, n)
	return c.ID
}

func (l *loader) block(n, stmts *yaml.Node) *Expr {
	l.pushScope()
	defer l.popScope()
	var out []*Stmt
	for _, s := range l.seq(stmts) {
		if st := l.stmt(s); st != nil {
			out = append(out, st)
		}
	}
	var tail *Expr
	if t := l.field(n, "tail"); t != nil {
		tail = l.expr(t)
	}
	e := l.at(n).Block(tail, out...)
	e.Data.(*BlockData).Label = l.label(n)
	return e
}

func (l *loader) stmt(n *yaml.Node) *Stmt {
	kind, v := head(n)
	switch kind {
	case "let":
		var init *Expr
		if in := l.field(n, "init"); in != nil {
			init = l.expr(in)
		}
		var ty *Ty
		if t := l.field(n, "ty"); t != nil {
			ty = l.ty(t)
		}
		pat := l.pat(v)
		l.bindPat(pat)
		return l.at(n).Let(pat, ty, init)
	case "item":
		mark := len(l.pending)
		def := l.declareItem(l.owner, v)
		fills := l.pending[mark:]
		l.pending = l.pending[:mark]
		for _, fill := range fills {
			fill()
		}
		if def == NoDefID {
			return nil
		}
		return l.at(n).Item(def)
	}
	e := l.expr(n)
	switch e.Kind {
	case ExprBlock, ExprLoop, ExprIf:
		if !l.flag(n, "semi") {
			return l.b.ExprStmt(e)
		}
	}
	return l.b.Semi(e)
}

func (l *loader) closure(n, params *yaml.Node) *Expr {
	var pats []*Pat
	var inputs []*Ty
	for _, p := range l.seq(params) {
		pat, ty := l.param(p)
		pats = append(pats, pat)
		inputs = append(inputs, ty)
	}
	var ret *Ty
	if r := l.field(n, "ret"); r != nil {
		ret = l.ty(r)
	}
	c := l.at(n).Closure(l.owner, inputs, ret)
	l.body(c.ID, pats, l.field(n, "body"))
	return l.at(n).ClosureExpr(c.ID)
}

func (l *loader) coroutine(n *yaml.Node) *Expr {
	var pats []*Pat
	var resume *Ty
	if r := l.field(n, "resume"); r != nil {
		pat, ty := l.param(r)
		pats, resume = []*Pat{pat}, ty
	}
	mov := Movable
	if l.flag(n, "static") {
		mov = Immovable
	}
	c := l.at(n).Coroutine(l.owner, resume, mov)
	l.body(c.ID, pats, l.field(n, "body"))
	return l.at(n).ClosureExpr(c.ID)
}

func (l *loader) inlineAsm(n, template *yaml.Node) *Expr {
	e := l.at(n).InlineAsm(l.str(template))
	data := e.Data.(*InlineAsmData)
	for _, op := range l.seq(l.field(n, "operands")) {
		kind, v := head(op)
		switch kind {
		case "in", "out", "inout":
			k := map[string]AsmOperandKind{"in": AsmIn, "out": AsmOut, "inout": AsmInOut}[kind]
			value := l.expr(l.field(op, "expr"))
			data.Operands = append(data.Operands, l.at(op).AsmOperandExpr(k, l.str(v), value))
		case "const", "sym":
			place, k := PlaceAsmConst, AsmConst
			if kind == "sym" {
				place, k = PlaceAsmSymFn, AsmSymFn
			}
			c := l.at(op).AnonConst(l.owner, place)
			c.PlacementNode = e.ID
			l.body(c.ID, nil, v)
			data.Operands = append(data.Operands, l.at(op).AsmOperandConst(k, c.ID))
		default:
			l.errf(op, "unknown asm operand %q", kind)
		}
	}
	return e
}

// Patterns.

func (l *loader) pat(n *yaml.Node) *Pat {
	b := l.at(n)
	if n == nil {
		l.errf(nil, "missing pattern")
		return b.pat(PatErr, nil)
	}
	switch n.Kind {
	case yaml.ScalarNode:
		switch {
		case n.Value == "_":
			return b.Wild()
		case n.Value == "()":
			return b.PatTuple()
		case n.Tag == "!!int" || n.Tag == "!!bool":
			return l.at(n).PatLit(l.scalarExpr(n))
		case strings.HasPrefix(n.Value, "mut "):
			return b.BindMut(ident(strings.TrimPrefix(n.Value, "mut ")))
		}
		return b.Bind(ident(n.Value))
	case yaml.SequenceNode:
		var elems []*Pat
		for _, e := range n.Content {
			elems = append(elems, l.pat(e))
		}
		return l.at(n).PatTuple(elems...)
	case yaml.MappingNode:
		kind, v := head(n)
		if kind == "ctor" {
			var elems []*Pat
			for _, e := range l.seq(l.field(n, "elems")) {
				elems = append(elems, l.pat(e))
			}
			name := ident(l.str(v))
			def := l.resolveDef(v, name)
			p := l.at(n).pat(PatTupleStruct, &TupleStructData{Name: name, Elems: elems})
			if def != NoDefID {
				p.Data.(*TupleStructData).Res = Res{Kind: ResDef, Def: def}
			}
			return p
		}
		l.errf(n, "unknown pattern form %q", kind)
	}
	return b.pat(PatErr, nil)
}
