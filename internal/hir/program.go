package hir

import (
	"fmt"

	"typeck/internal/source"
)

// LangItems names definitions the checker treats specially.
type LangItems struct {
	Sized  DefID
	Copy   DefID
	FnOnce DefID
	FnMut  DefID
	Fn     DefID
}

// Program is the whole read-only definition store.
type Program struct {
	Units  []*Unit // indexed by DefID; slot 0 is nil
	Bodies []*Body // indexed by BodyID; slot 0 is nil
	Lang   LangItems
	Root   DefID // the crate root module

	Files *source.FileSet

	exprs  map[NodeID]*Expr
	pats   map[NodeID]*Pat
	maxID  NodeID
	owners []DefID
}

// Unit returns the definition for id or nil.
func (p *Program) Unit(id DefID) *Unit {
	if int(id) >= len(p.Units) {
		return nil
	}
	return p.Units[id]
}

// MustUnit panics on unknown ids.
func (p *Program) MustUnit(id DefID) *Unit {
	u := p.Unit(id)
	if u == nil {
		panic(fmt.Sprintf("hir: unknown DefID %d", id))
	}
	return u
}

// Body returns the body for id or nil.
func (p *Program) Body(id BodyID) *Body {
	if int(id) >= len(p.Bodies) {
		return nil
	}
	return p.Bodies[id]
}

// BodyOf returns the body owned by def, if any.
func (p *Program) BodyOf(def DefID) *Body {
	u := p.Unit(def)
	if u == nil || !u.Body.IsValid() {
		return nil
	}
	return p.Body(u.Body)
}

// Expr looks up an expression by id. Requires Index.
func (p *Program) Expr(id NodeID) *Expr { return p.exprs[id] }

// Pat looks up a pattern by id. Requires Index.
func (p *Program) Pat(id NodeID) *Pat { return p.pats[id] }

// MaxNodeID is the largest NodeID in the program.
func (p *Program) MaxNodeID() NodeID { return p.maxID }

// Name returns a printable path like "m::S::f" for diagnostics and tracing.
func (p *Program) Name(id DefID) string {
	u := p.Unit(id)
	if u == nil {
		return fmt.Sprintf("<def#%d>", id)
	}
	name := u.Name
	if name == "" {
		name = fmt.Sprintf("{%s#%d}", u.Kind, id)
	}
	if parent := p.Unit(u.Parent); parent != nil && u.Parent != p.Root {
		return p.Name(u.Parent) + "::" + name
	}
	return name
}

// Module returns the module that lexically contains id.
func (p *Program) Module(id DefID) DefID {
	for u := p.Unit(id); u != nil; u = p.Unit(u.Parent) {
		if u.Kind == DefMod {
			return u.ID
		}
	}
	return p.Root
}

// TraitImports returns the `use` definitions naming traits visible in mod,
// including the ones of enclosing modules.
func (p *Program) TraitImports(mod DefID) []DefID {
	var out []DefID
	for m := p.Unit(mod); m != nil; m = p.Unit(m.Parent) {
		if m.Kind != DefMod {
			continue
		}
		for _, item := range m.Items {
			u := p.Unit(item)
			if u != nil && u.Kind == DefUse {
				if t := p.Unit(u.Target); t != nil && t.Kind == DefTrait {
					out = append(out, item)
				}
			}
		}
	}
	return out
}

// Impls returns every impl definition, in DefID order.
func (p *Program) Impls() []DefID {
	var out []DefID
	for _, u := range p.Units {
		if u != nil && u.Kind == DefImpl {
			out = append(out, u.ID)
		}
	}
	return out
}

// BodyOwners lists every definition owning a body, in DefID order.
func (p *Program) BodyOwners() []DefID {
	return p.owners
}

// Index builds the node lookup tables and resolves break targets. Call it
// once after construction.
func (p *Program) Index() {
	p.exprs = make(map[NodeID]*Expr)
	p.pats = make(map[NodeID]*Pat)
	p.owners = p.owners[:0]
	p.maxID = 0
	for _, u := range p.Units {
		if u != nil && u.Body.IsValid() {
			p.owners = append(p.owners, u.ID)
		}
	}
	for _, b := range p.Bodies {
		if b == nil {
			continue
		}
		for _, param := range b.Params {
			p.indexPat(param.Pat)
		}
		ResolveBreakTargets(b)
		WalkExpr(b.Value, func(e *Expr) bool {
			p.exprs[e.ID] = e
			p.maxID = max(p.maxID, e.ID)
			for _, pat := range exprPats(e) {
				p.indexPat(pat)
			}
			return true
		})
	}
}

func (p *Program) indexPat(pat *Pat) {
	WalkPat(pat, func(n *Pat) {
		p.pats[n.ID] = n
		p.maxID = max(p.maxID, n.ID)
		if lit, ok := n.Data.(*PatLitData); ok && lit.Expr != nil {
			p.exprs[lit.Expr.ID] = lit.Expr
			p.maxID = max(p.maxID, lit.Expr.ID)
		}
	})
}
