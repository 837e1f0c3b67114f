package hir

import (
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

var primitiveTypes = map[string]bool{
	"bool": true, "char": true, "str": true,
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true, "isize": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "usize": true,
	"f32": true, "f64": true,
}

// ty decodes a type node: a string in surface syntax, a sequence for a
// tuple, or a mapping for `typeof`, arrays with computed lengths and fn
// pointers.
func (l *loader) ty(n *yaml.Node) *Ty {
	if n == nil {
		return l.b.TyInfer()
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return l.parseTy(n, n.Value)
	case yaml.SequenceNode:
		var elems []*Ty
		for _, e := range n.Content {
			elems = append(elems, l.ty(e))
		}
		return l.at(n).TyTuple(elems...)
	case yaml.MappingNode:
		kind, v := head(n)
		switch kind {
		case "typeof":
			c := l.anonConst(v, PlaceTypeof)
			return l.at(n).TyTypeof(c)
		case "array":
			elem := l.ty(v)
			length := l.anonConst(l.field(n, "len"), PlaceArrayLength)
			return l.at(n).TyArray(elem, length)
		case "fn":
			var params []*Ty
			for _, p := range l.seq(v) {
				params = append(params, l.ty(p))
			}
			var ret *Ty
			if r := l.field(n, "ret"); r != nil {
				ret = l.ty(r)
			}
			t := l.at(n).TyFn(l.str(l.field(n, "abi")), params, ret)
			t.Data.(*TyFnData).Variadic = l.flag(n, "variadic")
			return t
		}
		l.errf(n, "unknown type form %q", kind)
	}
	return l.at(n).TyErr()
}

// parseTy parses the surface type syntax used in fixtures:
//
//	_  !  ()  (A, B)  &'a mut T  *const T  [T]  [T; 4]  [T; N]
//	dyn Trait  <T as Trait>::Name  fn(A, ...) -> R  extern "C" fn(A)
//	Path<Args, 3>  Self
func (l *loader) parseTy(n *yaml.Node, text string) *Ty {
	p := &tyParser{l: l, n: n, toks: lexTy(text)}
	t := p.ty()
	if !p.eof() {
		l.errf(n, "unexpected %q in type %q", p.peek(), text)
		return l.at(n).TyErr()
	}
	return t
}

type tyParser struct {
	l    *loader
	n    *yaml.Node
	toks []string
	pos  int
}

func lexTy(s string) []string {
	var toks []string
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '\'':
			// lifetimes carry no meaning for checking
			j := i + 1
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
				j++
			}
			i = j
		case r == '"':
			j := i + 1
			for j < len(rs) && rs[j] != '"' {
				j++
			}
			toks = append(toks, string(rs[i:min(j+1, len(rs))]))
			i = j + 1
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			j := i
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
				j++
			}
			toks = append(toks, ident(string(rs[i:j])))
			i = j
		case r == ':' && i+1 < len(rs) && rs[i+1] == ':':
			toks = append(toks, "::")
			i += 2
		case r == '-' && i+1 < len(rs) && rs[i+1] == '>':
			toks = append(toks, "->")
			i += 2
		case r == '.' && i+2 < len(rs) && rs[i+1] == '.' && rs[i+2] == '.':
			toks = append(toks, "...")
			i += 3
		default:
			toks = append(toks, string(r))
			i++
		}
	}
	return toks
}

func (p *tyParser) eof() bool { return p.pos >= len(p.toks) }

func (p *tyParser) peek() string {
	if p.eof() {
		return ""
	}
	return p.toks[p.pos]
}

func (p *tyParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *tyParser) accept(tok string) bool {
	if p.peek() == tok {
		p.pos++
		return true
	}
	return false
}

func (p *tyParser) expect(tok string) {
	if !p.accept(tok) {
		p.l.errf(p.n, "expected %q in type, found %q", tok, p.peek())
	}
}

func (p *tyParser) b() *Builder { return p.l.at(p.n) }

func (p *tyParser) ty() *Ty {
	switch tok := p.peek(); tok {
	case "_":
		p.next()
		return p.b().TyInfer()
	case "!":
		p.next()
		return p.b().TyNever()
	case "(":
		p.next()
		var elems []*Ty
		trailing := false
		for !p.eof() && p.peek() != ")" {
			elems = append(elems, p.ty())
			trailing = p.accept(",")
			if !trailing {
				break
			}
		}
		p.expect(")")
		if len(elems) == 1 && !trailing {
			return elems[0]
		}
		return p.b().TyTuple(elems...)
	case "&":
		p.next()
		mut := p.accept("mut")
		return p.b().TyRef(mut, p.ty())
	case "*":
		p.next()
		mut := p.accept("mut")
		if !mut {
			p.expect("const")
		}
		return p.b().TyPtr(mut, p.ty())
	case "[":
		p.next()
		elem := p.ty()
		if !p.accept(";") {
			p.expect("]")
			return p.b().TySlice(elem)
		}
		length := p.constArg(PlaceArrayLength)
		p.expect("]")
		return p.b().TyArray(elem, length.ID)
	case "dyn":
		p.next()
		name := p.pathName()
		trait := p.l.resolveDef(p.n, name)
		if trait == NoDefID {
			return p.b().TyErr()
		}
		return p.b().TyDyn(trait)
	case "<":
		p.next()
		self := p.ty()
		p.expect("as")
		trait := p.l.resolveDef(p.n, p.pathName())
		p.expect(">")
		p.expect("::")
		name := p.next()
		return p.b().TyProjection(self, trait, name)
	case "extern", "fn":
		abi := ""
		if p.accept("extern") {
			abi = strings.Trim(p.next(), `"`)
		}
		p.expect("fn")
		p.expect("(")
		var params []*Ty
		variadic := false
		for !p.eof() && p.peek() != ")" {
			if p.accept("...") {
				variadic = true
				break
			}
			params = append(params, p.ty())
			if !p.accept(",") {
				break
			}
		}
		p.expect(")")
		var ret *Ty
		if p.accept("->") {
			ret = p.ty()
		}
		t := p.b().TyFn(abi, params, ret)
		t.Data.(*TyFnData).Variadic = variadic
		return t
	}
	return p.path()
}

func (p *tyParser) pathName() string {
	var segs []string
	segs = append(segs, p.next())
	for p.accept("::") {
		segs = append(segs, p.next())
	}
	return strings.Join(segs, "::")
}

func (p *tyParser) path() *Ty {
	name := p.pathName()
	switch {
	case name == "":
		p.l.errf(p.n, "type expected")
		return p.b().TyErr()
	case name == "Self":
		return p.b().TySelf()
	case primitiveTypes[name]:
		return p.b().TyPrim(name)
	}
	def := p.l.resolveDef(p.n, name)
	if def == NoDefID {
		return p.b().TyErr()
	}
	var args []*Ty
	var consts []DefID
	if p.accept("<") {
		for !p.eof() && p.peek() != ">" {
			if isConstArgToken(p.peek()) {
				c := p.constArg(PlaceConstArg)
				c.ConstParamOf = p.constParam(def, len(consts))
				consts = append(consts, c.ID)
			} else {
				args = append(args, p.ty())
			}
			if !p.accept(",") {
				break
			}
		}
		p.expect(">")
	}
	t := p.b().TyDef(def, args...)
	t.Data.(*TyPathData).Name = name
	t.Data.(*TyPathData).ConstArgs = consts
	return t
}

func isConstArgToken(tok string) bool {
	return tok == "{" || (tok != "" && unicode.IsDigit([]rune(tok)[0]))
}

// constArg builds an anon const from an integer literal, `{NAME}` or a
// bare const parameter name.
func (p *tyParser) constArg(place AnonConstPlacement) *Unit {
	c := p.b().AnonConst(p.l.owner, place)
	braced := p.accept("{")
	tok := p.next()
	var value *Expr
	if tok != "" && unicode.IsDigit([]rune(tok)[0]) {
		value = p.b().Int(tok)
	} else if def := p.l.resolveDef(p.n, tok); def != NoDefID {
		value = p.b().Path(def)
	} else {
		value = p.b().ErrExpr()
	}
	if braced {
		p.expect("}")
	}
	p.l.b.SetBody(c.ID, nil, value)
	return c
}

// constParam returns the i-th const parameter of def, or NoDefID.
func (p *tyParser) constParam(def DefID, i int) DefID {
	u := p.l.b.prog.Unit(def)
	if u == nil || u.Generics == nil {
		return NoDefID
	}
	for _, g := range u.Generics.Params {
		if p.l.b.prog.Units[g].Kind != DefConstParam {
			continue
		}
		if i == 0 {
			return g
		}
		i--
	}
	return NoDefID
}
