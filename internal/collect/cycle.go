package collect

import (
	"fmt"
	"slices"

	"typeck/internal/diag"
	"typeck/internal/hir"
)

// references lists the definitions named by paths in def's body, including
// closures and anonymous constants nested in it.
func (p *Provider) references(def hir.DefID) []hir.DefID {
	var out []hir.DefID
	seen := make(map[hir.DefID]bool)
	var visitBody func(owner hir.DefID)
	visitBody = func(owner hir.DefID) {
		body := p.Prog.BodyOf(owner)
		if body == nil {
			return
		}
		hir.WalkExpr(body.Value, func(e *hir.Expr) bool {
			switch d := e.Data.(type) {
			case *hir.PathData:
				if d.Res.Kind == hir.ResDef && !seen[d.Res.Def] {
					seen[d.Res.Def] = true
					out = append(out, d.Res.Def)
				}
			case *hir.ClosureData:
				visitBody(d.Def)
			case *hir.ConstBlockData:
				visitBody(d.Def)
			case *hir.RepeatData:
				visitBody(d.Count)
			case *hir.InlineAsmData:
				for _, op := range d.Operands {
					if op.Const.IsValid() {
						visitBody(op.Const)
					}
				}
			}
			return true
		})
	}
	visitBody(def)
	return out
}

// inferredItem reports items whose type comes from their own body.
func (p *Provider) inferredItem(def hir.DefID) bool {
	u := p.Prog.Unit(def)
	if u == nil || u.Ty == nil {
		return false
	}
	switch u.Kind {
	case hir.DefConst, hir.DefAssocConst, hir.DefTraitConst, hir.DefStatic:
		return u.Ty.HasPlaceholder()
	}
	return false
}

// typeDeps lists the definitions whose types are needed to compute the type
// of def, when that type comes from checking a body: the body of a `_`-typed
// item, or the typeof constants in a fn signature. ok is false for items
// whose type is read from the declaration alone.
func (p *Provider) typeDeps(def hir.DefID) (deps []hir.DefID, ok bool) {
	if p.inferredItem(def) {
		return p.references(def), true
	}
	u := p.Prog.Unit(def)
	if u == nil || u.Decl == nil {
		return nil, false
	}
	for _, c := range p.signatureTypeofs(u) {
		deps = append(deps, p.references(c)...)
		ok = true
	}
	return deps, ok
}

// placeholderCycle finds a chain of `_`-typed items, or fns with typeof in
// their signature, leading from def back to itself.
func (p *Provider) placeholderCycle(def hir.DefID) ([]hir.DefID, bool) {
	return p.findPath(def, def)
}

// typeofCycle finds a reference from the body of the typeof constant c
// back to the item whose signature contains it.
func (p *Provider) typeofCycle(c, owner hir.DefID) ([]hir.DefID, bool) {
	if !p.signatureMentions(owner, c) {
		return nil, false
	}
	return p.findPath(c, owner)
}

// findPath searches from start for target, following only definitions
// whose types depend on checking a body.
func (p *Provider) findPath(start, target hir.DefID) ([]hir.DefID, bool) {
	state := make(map[hir.DefID]evalState)
	var path []hir.DefID
	var visit func(id hir.DefID, refs []hir.DefID) bool
	visit = func(id hir.DefID, refs []hir.DefID) bool {
		state[id] = evalVisiting
		path = append(path, id)
		for _, ref := range refs {
			if ref == target {
				return true
			}
			if state[ref] != evalUnvisited {
				continue
			}
			if deps, ok := p.typeDeps(ref); ok && visit(ref, deps) {
				return true
			}
		}
		path = path[:len(path)-1]
		state[id] = evalDone
		return false
	}
	if visit(start, p.references(start)) {
		return path, true
	}
	return nil, false
}

// signatureTypeofs lists the typeof constants in u's declared types.
func (p *Provider) signatureTypeofs(u *hir.Unit) []hir.DefID {
	var out []hir.DefID
	collect := func(t *hir.Ty) {
		t.Walk(func(n *hir.Ty) bool {
			if d, ok := n.Data.(*hir.TyTypeofData); ok {
				out = append(out, d.Const)
			}
			return true
		})
	}
	collect(u.Ty)
	if u.Decl != nil {
		for _, in := range u.Decl.Inputs {
			collect(in)
		}
		collect(u.Decl.Output)
	}
	return out
}

func (p *Provider) signatureMentions(owner, c hir.DefID) bool {
	u := p.Prog.Unit(owner)
	if u == nil {
		return false
	}
	return slices.Contains(p.signatureTypeofs(u), c)
}

func (p *Provider) reportCycle(u *hir.Unit, path []hir.DefID) {
	rb := diag.ReportError(p.Reporter, diag.TckCycle, u.Span,
		fmt.Sprintf("cycle detected when computing type of `%s`", p.Prog.Name(u.ID)))
	for _, id := range path[1:] {
		if next := p.Prog.Unit(id); next != nil {
			rb = rb.WithNote(next.Span, fmt.Sprintf("...which requires computing type of `%s`...", p.Prog.Name(id)))
		}
	}
	rb.WithNote(u.Span, "...which again requires computing type of `"+p.Prog.Name(u.ID)+"`, completing the cycle").Emit()
}
