package hir

import "typeck/internal/source"

// PatKind enumerates pattern kinds.
type PatKind uint8

const (
	PatWild PatKind = iota
	PatBinding
	PatLit
	PatTuple
	PatTupleStruct
	PatErr
)

// Pat is a pattern node. A binding pattern's ID is the id of its local.
type Pat struct {
	ID   NodeID
	Kind PatKind
	Span source.Span
	Data PatData
}

// PatData is the kind-specific payload of a Pat, stored as a pointer.
type PatData interface {
	patData()
}

type BindingData struct {
	Name    string
	Mutable bool
	Sub     *Pat
}

type PatLitData struct {
	Expr *Expr
}

type PatTupleData struct {
	Elems []*Pat
}

// TupleStructData is `Path(elems...)`; Res may resolve to a non-constructor,
// which the checker reports.
type TupleStructData struct {
	Name  string
	Res   Res
	Elems []*Pat
}

func (BindingData) patData()     {}
func (PatLitData) patData()      {}
func (PatTupleData) patData()    {}
func (TupleStructData) patData() {}

// Bindings calls fn for every binding in p, outermost first.
func (p *Pat) Bindings(fn func(*Pat, *BindingData)) {
	if p == nil {
		return
	}
	switch d := p.Data.(type) {
	case *BindingData:
		fn(p, d)
		d.Sub.Bindings(fn)
	case *PatTupleData:
		for _, e := range d.Elems {
			e.Bindings(fn)
		}
	case *TupleStructData:
		for _, e := range d.Elems {
			e.Bindings(fn)
		}
	}
}

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	StmtLet StmtKind = iota
	// StmtExpr is an expression followed by `;` (Semi) or a block-like
	// expression without one.
	StmtExpr
	// StmtItem is a nested definition; the checker skips it.
	StmtItem
)

// Stmt is a statement inside a block.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData
}

// StmtData is the kind-specific payload of a Stmt, stored as a pointer.
type StmtData interface {
	stmtData()
}

// LetData is `let pat: ty = init;`. Ty and Init are optional.
type LetData struct {
	Pat  *Pat
	Ty   *Ty
	Init *Expr
}

type ExprStmtData struct {
	Expr *Expr
	Semi bool
}

type ItemStmtData struct {
	Def DefID
}

func (LetData) stmtData()      {}
func (ExprStmtData) stmtData() {}
func (ItemStmtData) stmtData() {}
