// Package upvar decides how closures capture the locals they mention and,
// from that, which Fn* trait each closure implements. It runs once per
// body, after numeric defaulting, and resolves the closure calls whose
// kind was still unknown while the body was checked.
package upvar

import (
	"typeck/internal/hir"
	"typeck/internal/infer"
	"typeck/internal/source"
	"typeck/internal/types"
)

// Mode is how a local is captured. Later modes subsume earlier ones.
type Mode uint8

const (
	ByRef Mode = iota
	ByMutRef
	ByValue
)

func (m Mode) String() string {
	switch m {
	case ByMutRef:
		return "by-mut-ref"
	case ByValue:
		return "by-value"
	}
	return "by-ref"
}

// Capture is one captured local of a closure.
type Capture struct {
	Local hir.NodeID
	Name  string
	Mode  Mode
	// Span is the first use that required Mode.
	Span source.Span
}

// Captures is the outcome of analyzing one body.
type Captures struct {
	Closures map[hir.DefID][]Capture
	// Calls maps each deferred closure call to the trait it goes through.
	Calls map[hir.NodeID]infer.ClosureKind
}

// Context gives the analyzer the results of checking the body.
type Context interface {
	NodeType(id hir.NodeID) types.TypeID
	IsCopy(t types.TypeID) bool
}

// Analyzer is the default capture analyzer.
type Analyzer struct{}

// Analyze computes captures and closure kinds for every closure and
// coroutine in body, innermost first, records the kinds in s and drains
// the deferred call queue.
func (Analyzer) Analyze(s *infer.Session, body *hir.Body, prog *hir.Program, cx Context) Captures {
	out := Captures{
		Closures: make(map[hir.DefID][]Capture),
		Calls:    make(map[hir.NodeID]infer.ClosureKind),
	}
	if body == nil {
		return out
	}
	a := &analysis{s: s, prog: prog, cx: cx, out: out}
	for _, def := range nestedClosures(prog, body) {
		a.closure(def)
	}
	for _, call := range s.TakeDeferredCalls() {
		kind := s.ClosureKind(call.Closure)
		if kind == infer.ClosureKindUnknown {
			kind = infer.ClosureFnOnce
			s.SetClosureKind(call.Closure, kind)
		}
		out.Calls[call.Call] = kind
	}
	return out
}

// nestedClosures lists closure and coroutine definitions inside body in
// post-order, so inner closures come before the closures containing them.
func nestedClosures(prog *hir.Program, body *hir.Body) []hir.DefID {
	var out []hir.DefID
	var visit func(e *hir.Expr)
	visit = func(e *hir.Expr) {
		hir.WalkExpr(e, func(n *hir.Expr) bool {
			if d, ok := n.Data.(*hir.ClosureData); ok {
				if b := prog.BodyOf(d.Def); b != nil {
					visit(b.Value)
				}
				out = append(out, d.Def)
			}
			return true
		})
	}
	visit(body.Value)
	return out
}

type analysis struct {
	s    *infer.Session
	prog *hir.Program
	cx   Context
	out  Captures
}

// scope is the state while walking one closure body.
type scope struct {
	locals   map[hir.NodeID]bool
	captures []Capture
	index    map[hir.NodeID]int
	kind     infer.ClosureKind
}

func (a *analysis) closure(def hir.DefID) {
	body := a.prog.BodyOf(def)
	if body == nil {
		return
	}
	sc := &scope{
		locals: definedLocals(a.prog, body),
		index:  make(map[hir.NodeID]int),
		kind:   infer.ClosureFn,
	}
	a.expr(sc, body.Value, ByValue)
	a.out.Closures[def] = sc.captures
	if a.prog.MustUnit(def).Kind == hir.DefClosure {
		a.s.SetClosureKind(def, sc.kind)
	}
}

// definedLocals collects the bindings introduced inside body, nested
// closures included.
func definedLocals(prog *hir.Program, body *hir.Body) map[hir.NodeID]bool {
	locals := make(map[hir.NodeID]bool)
	bind := func(p *hir.Pat) {
		p.Bindings(func(b *hir.Pat, _ *hir.BindingData) { locals[b.ID] = true })
	}
	var visit func(b *hir.Body)
	visit = func(b *hir.Body) {
		for _, p := range b.Params {
			bind(p.Pat)
		}
		hir.WalkExpr(b.Value, func(e *hir.Expr) bool {
			switch d := e.Data.(type) {
			case *hir.BlockData:
				for _, st := range d.Stmts {
					if let, ok := st.Data.(*hir.LetData); ok {
						bind(let.Pat)
					}
				}
			case *hir.ClosureData:
				if nb := prog.BodyOf(d.Def); nb != nil {
					visit(nb)
				}
			}
			return true
		})
	}
	visit(body)
	return locals
}

func (a *analysis) record(sc *scope, local hir.NodeID, mode Mode, span source.Span) {
	if sc.locals[local] {
		return
	}
	if i, ok := sc.index[local]; ok {
		if mode > sc.captures[i].Mode {
			sc.captures[i].Mode = mode
			sc.captures[i].Span = span
		}
	} else {
		name := ""
		if p := a.prog.Pat(local); p != nil {
			if b, ok := p.Data.(*hir.BindingData); ok {
				name = b.Name
			}
		}
		sc.index[local] = len(sc.captures)
		sc.captures = append(sc.captures, Capture{Local: local, Name: name, Mode: mode, Span: span})
	}
	switch {
	case mode == ByValue:
		sc.kind = infer.ClosureFnOnce
	case mode == ByMutRef && sc.kind < infer.ClosureFnMut:
		sc.kind = infer.ClosureFnMut
	}
}

// valueMode is how a use of e by value captures: copies only borrow.
func (a *analysis) valueMode(e *hir.Expr) Mode {
	t := a.s.Resolve(a.cx.NodeType(e.ID))
	if t == types.NoTypeID || a.cx.IsCopy(t) {
		return ByRef
	}
	return ByValue
}

// expr walks e; use is how the enclosing expression consumes e's value.
func (a *analysis) expr(sc *scope, e *hir.Expr, use Mode) {
	if e == nil {
		return
	}
	switch d := e.Data.(type) {
	case *hir.PathData:
		if d.Res.Kind == hir.ResLocal {
			mode := use
			if use == ByValue {
				mode = a.valueMode(e)
			}
			a.record(sc, d.Res.Local, mode, e.Span)
		}
		return
	case *hir.AddrOfData:
		mode := ByRef
		if d.Mutable {
			mode = ByMutRef
		}
		a.expr(sc, d.Expr, mode)
		return
	case *hir.AssignData:
		a.expr(sc, d.Lhs, ByMutRef)
		a.expr(sc, d.Rhs, ByValue)
		return
	case *hir.FieldData:
		a.expr(sc, d.Base, a.placeUse(e, use))
		return
	case *hir.IndexData:
		a.expr(sc, d.Base, a.placeUse(e, use))
		a.expr(sc, d.Index, ByValue)
		return
	case *hir.UnaryData:
		if d.Op == hir.UnDeref {
			mode := ByRef
			if use == ByMutRef {
				mode = ByMutRef
			}
			a.expr(sc, d.Operand, mode)
			return
		}
	case *hir.MethodCallData:
		a.expr(sc, d.Receiver, ByRef)
		for _, arg := range d.Args {
			a.expr(sc, arg, ByValue)
		}
		return
	case *hir.CallData:
		a.expr(sc, d.Callee, a.calleeUse(d.Callee))
		for _, arg := range d.Args {
			a.expr(sc, arg, ByValue)
		}
		return
	case *hir.ClosureData:
		for _, c := range a.out.Closures[d.Def] {
			a.record(sc, c.Local, c.Mode, c.Span)
		}
		return
	}
	for _, c := range hir.ExprChildren(e) {
		a.expr(sc, c, ByValue)
	}
}

// placeUse is the use of a projection base given the use of the whole
// place.
func (a *analysis) placeUse(place *hir.Expr, use Mode) Mode {
	switch use {
	case ByMutRef:
		return ByMutRef
	case ByValue:
		return a.valueMode(place)
	}
	return ByRef
}

// calleeUse: calling a closure borrows, mutably borrows or consumes it
// according to its kind.
func (a *analysis) calleeUse(callee *hir.Expr) Mode {
	t := a.s.Resolve(a.cx.NodeType(callee.ID))
	info, ok := a.s.Types.ClosureInfo(t)
	if !ok {
		return ByRef
	}
	switch a.s.ClosureKind(hir.DefID(info.Def)) {
	case infer.ClosureFnMut:
		return ByMutRef
	case infer.ClosureFnOnce:
		return ByValue
	}
	return ByRef
}
