package hir

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"typeck/internal/source"
)

// LoadYAMLFile reads a program description from disk. See LoadYAML.
func LoadYAMLFile(files *source.FileSet, path string) (*Program, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return LoadYAML(files, path, content)
}

// LoadYAML builds a program from its YAML description. The document is a
// mapping with an `items` sequence; every item, expression, pattern and type
// is a small YAML node (see testdata/ for the shapes). Spans point into the
// YAML text itself, which is registered in files under path.
func LoadYAML(files *source.FileSet, path string, content []byte) (*Program, error) {
	if files == nil {
		files = source.NewFileSet()
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fid := files.Add(path, content, 0)
	l := &loader{
		b:    NewBuilder(files),
		file: files.Get(fid),
		path: path,
	}
	l.owner = l.b.Root()
	if len(doc.Content) == 0 {
		return l.b.Program(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: top level must be a mapping", path)
	}
	if items := l.field(root, "items"); items != nil {
		l.declareItems(l.b.Root(), items)
	}
	for _, fill := range l.uses {
		fill()
	}
	for _, fill := range l.pending {
		fill()
	}
	l.inBodies = true
	for _, fill := range l.bodies {
		fill()
	}
	if len(l.errs) > 0 {
		return nil, errors.Join(l.errs...)
	}
	return l.b.Program(), nil
}

type itemFill func()

type loader struct {
	b    *Builder
	file *source.File
	path string

	owner    DefID
	scopes   []map[string]*Pat
	uses     []itemFill
	pending  []itemFill
	bodies   []itemFill
	inBodies bool
	errs     []error
}

func ident(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func (l *loader) spanOf(n *yaml.Node) source.Span {
	if n == nil || l.file == nil {
		return source.NoSpan
	}
	start := l.file.Offset(uint32(max(n.Line, 0)), uint32(max(n.Column, 0)))
	width := len(n.Value)
	if n.Kind == yaml.MappingNode && len(n.Content) > 0 {
		width = len(n.Content[0].Value)
	}
	return source.Span{File: l.file.ID, Start: start, End: start + uint32(width)}
}

func (l *loader) at(n *yaml.Node) *Builder {
	return l.b.At(l.spanOf(n))
}

func (l *loader) errf(n *yaml.Node, format string, args ...any) {
	line, col := 0, 0
	if n != nil {
		line, col = n.Line, n.Column
	}
	l.errs = append(l.errs, fmt.Errorf("%s:%d:%d: %s", l.path, line, col, fmt.Sprintf(format, args...)))
}

// field returns the value of key in a mapping node.
func (l *loader) field(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// head returns the first key of a mapping and its value; it selects the
// node's form.
func head(n *yaml.Node) (string, *yaml.Node) {
	if n == nil || n.Kind != yaml.MappingNode || len(n.Content) < 2 {
		return "", nil
	}
	return n.Content[0].Value, n.Content[1]
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func (l *loader) str(n *yaml.Node) string {
	if isNull(n) {
		return ""
	}
	if n.Kind != yaml.ScalarNode {
		l.errf(n, "expected a scalar")
		return ""
	}
	return n.Value
}

func (l *loader) flag(n *yaml.Node, key string) bool {
	v := l.field(n, key)
	return v != nil && v.Kind == yaml.ScalarNode && v.Value == "true"
}

func (l *loader) seq(n *yaml.Node) []*yaml.Node {
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		l.errf(n, "expected a sequence")
		return nil
	}
	return n.Content
}

// Items.

func (l *loader) declareItems(parent DefID, n *yaml.Node) {
	for _, item := range l.seq(n) {
		l.declareItem(parent, item)
	}
}

// itemKeys lists the fields each item form accepts besides its head key.
var itemKeys = map[string][]string{
	"fn":         {"generics", "where", "abi", "variadic", "const", "intrinsic", "late_bound", "params", "ret", "body"},
	"const":      {"ty", "value"},
	"static":     {"ty", "value", "mut"},
	"struct":     {"generics", "where", "tuple", "fields"},
	"enum":       {"generics", "where", "repr", "variants"},
	"trait":      {"generics", "where", "assoc", "items"},
	"impl":       {"generics", "where", "for", "assoc", "items"},
	"use":        nil,
	"mod":        {"items"},
	"global_asm": {"operands"},
}

// checkItemKeys reports fields the item form does not know. A misspelled
// field would otherwise be dropped without a trace.
func (l *loader) checkItemKeys(kind string, n *yaml.Node) {
	allowed := itemKeys[kind]
	for i := 2; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if !slices.Contains(allowed, key.Value) {
			l.errf(key, "unknown field %q for %s item", key.Value, kind)
		}
	}
}

func (l *loader) declareItem(parent DefID, n *yaml.Node) DefID {
	kind, v := head(n)
	if _, known := itemKeys[kind]; known {
		l.checkItemKeys(kind, n)
	}
	b := l.at(n)
	var u *Unit
	switch kind {
	case "fn":
		u = b.Fn(parent, ident(l.str(v)), nil, nil)
		l.declareGenerics(u.ID, n)
		l.later(func() { l.fillFn(u, n) })
	case "const":
		u = b.Const(parent, ident(l.str(v)), nil)
		l.later(func() { l.fillValue(u, n) })
	case "static":
		u = b.Static(parent, ident(l.str(v)), nil, l.flag(n, "mut"))
		l.later(func() { l.fillValue(u, n) })
	case "struct":
		u = b.Struct(parent, ident(l.str(v)))
		l.declareGenerics(u.ID, n)
		l.later(func() { l.fillStruct(u, n) })
	case "enum":
		u = b.Enum(parent, ident(l.str(v)), l.str(l.field(n, "repr")))
		l.declareGenerics(u.ID, n)
		for _, vn := range l.seq(l.field(n, "variants")) {
			name := vn
			if vn.Kind == yaml.MappingNode {
				name = l.field(vn, "name")
			}
			variant := l.at(vn).Variant(u.ID, ident(l.str(name)))
			l.later(func() { l.fillVariant(variant, vn) })
		}
	case "trait":
		u = b.Trait(parent, ident(l.str(v)))
		for _, a := range l.seq(l.field(n, "assoc")) {
			u.AssocTypes = append(u.AssocTypes, ident(l.str(a)))
		}
		l.declareGenerics(u.ID, n)
		l.declareItems(u.ID, l.field(n, "items"))
	case "impl":
		u = b.Impl(parent, NoDefID, nil)
		l.declareGenerics(u.ID, n)
		l.later(func() { l.fillImpl(u, v, n) })
		l.declareItems(u.ID, l.field(n, "items"))
	case "use":
		u = b.NewDef(DefUse, "", parent)
		l.uses = append(l.uses, func() {
			l.inside(parent, func() {
				u.Target = l.resolveDef(v, ident(l.str(v)))
			})
			if t := l.b.prog.Unit(u.Target); t != nil {
				u.Name = t.Name
			}
		})
	case "mod":
		u = b.Mod(parent, ident(l.str(v)))
		l.declareItems(u.ID, l.field(n, "items"))
	case "global_asm":
		u = b.GlobalAsm(parent)
		for _, op := range l.seq(l.field(n, "operands")) {
			opKind, value := head(op)
			var k AsmOperandKind
			switch opKind {
			case "const":
				k = AsmConst
			case "sym":
				k = AsmSymFn
			default:
				l.errf(op, "global_asm only takes const and sym operands, got %q", opKind)
				continue
			}
			c := l.at(op).GlobalAsmConst(u.ID, k)
			l.body(c.ID, nil, value)
		}
	default:
		l.errf(n, "unknown item form %q", kind)
		return NoDefID
	}
	return u.ID
}

func (l *loader) later(fn itemFill) {
	l.pending = append(l.pending, fn)
}

// inside runs fn with owner as the name-resolution context.
func (l *loader) inside(owner DefID, fn func()) {
	saved, savedScopes := l.owner, l.scopes
	l.owner, l.scopes = owner, nil
	defer func() { l.owner, l.scopes = saved, savedScopes }()
	fn()
}

func (l *loader) declareGenerics(owner DefID, n *yaml.Node) {
	for _, g := range l.seq(l.field(n, "generics")) {
		if g.Kind == yaml.MappingNode {
			cp := l.at(g).ConstParam(owner, ident(l.str(l.field(g, "const"))), nil)
			tyNode := l.field(g, "ty")
			l.later(func() { l.inside(owner, func() { cp.Ty = l.ty(tyNode) }) })
			continue
		}
		l.at(g).TypeParam(owner, ident(l.str(g)))
	}
	if where := l.field(n, "where"); where != nil {
		l.later(func() {
			l.inside(owner, func() {
				for _, w := range l.seq(where) {
					l.wherePredicate(owner, w)
				}
			})
		})
	}
}

var whereRe = regexp.MustCompile(`^\s*(.+?)\s*:\s*(~const\s+)?(.+?)\s*$`)

// wherePredicate parses "T: Trait<Args>" or "<T as Trait>::Assoc == U".
func (l *loader) wherePredicate(owner DefID, n *yaml.Node) {
	text := l.str(n)
	b := l.at(n)
	if lhs, rhs, ok := strings.Cut(text, "=="); ok {
		proj := l.parseTy(n, strings.TrimSpace(lhs))
		d, isProj := proj.Data.(*TyProjectionData)
		if !isProj {
			l.errf(n, "equality bound needs a projection on the left: %q", text)
			return
		}
		pred := b.Bound(owner, d.Self, d.Trait)
		pred.Assoc = d.Name
		pred.AssocTy = l.parseTy(n, strings.TrimSpace(rhs))
		return
	}
	m := whereRe.FindStringSubmatch(text)
	if m == nil {
		l.errf(n, "malformed bound %q", text)
		return
	}
	self := l.parseTy(n, m[1])
	bound := l.parseTy(n, m[3])
	pd, ok := bound.Data.(*TyPathData)
	if !ok || pd.Res.Kind != ResDef || l.b.prog.Unit(pd.Res.Def).Kind != DefTrait {
		l.errf(n, "%q is not a trait", m[3])
		return
	}
	pred := b.Bound(owner, self, pd.Res.Def, pd.Args...)
	pred.Const = m[2] != ""
}

func (l *loader) fillFn(u *Unit, n *yaml.Node) {
	l.inside(u.ID, func() {
		decl := u.Decl
		decl.Abi = l.str(l.field(n, "abi"))
		decl.Variadic = l.flag(n, "variadic")
		u.Constness = l.flag(n, "const")
		u.Intrinsic = l.str(l.field(n, "intrinsic"))
		for _, lt := range l.seq(l.field(n, "late_bound")) {
			decl.LateBoundRegions = append(decl.LateBoundRegions, ident(l.str(lt)))
		}
		var params []*Pat
		for _, p := range l.seq(l.field(n, "params")) {
			pat, ty := l.param(p)
			params = append(params, pat)
			decl.Inputs = append(decl.Inputs, ty)
		}
		if ret := l.field(n, "ret"); ret != nil {
			decl.Output = l.ty(ret)
		}
		if body := l.field(n, "body"); body != nil {
			l.body(u.ID, params, body)
		}
	})
}

// param decodes `[pat, ty]`; a bare pattern gets the `_` type.
func (l *loader) param(n *yaml.Node) (*Pat, *Ty) {
	if n.Kind == yaml.SequenceNode && len(n.Content) == 2 {
		return l.pat(n.Content[0]), l.ty(n.Content[1])
	}
	return l.pat(n), l.at(n).TyInfer()
}

func (l *loader) fillValue(u *Unit, n *yaml.Node) {
	l.inside(u.ID, func() {
		if t := l.field(n, "ty"); t != nil {
			u.Ty = l.ty(t)
		} else {
			u.Ty = l.at(n).TyInfer()
		}
		if v := l.field(n, "value"); v != nil {
			l.body(u.ID, nil, v)
		} else if u.Kind != DefTraitConst {
			l.errf(n, "%s %s needs a value", u.Kind, u.Name)
		}
	})
}

func (l *loader) fillStruct(u *Unit, n *yaml.Node) {
	l.inside(u.ID, func() {
		if tup := l.field(n, "tuple"); tup != nil {
			var tys []*Ty
			for _, t := range l.seq(tup) {
				tys = append(tys, l.ty(t))
			}
			u.Fields = positional(tys, l.spanOf(tup))
			u.Ctor = CtorFn
			return
		}
		for _, f := range l.seq(l.field(n, "fields")) {
			if f.Kind != yaml.SequenceNode || len(f.Content) != 2 {
				l.errf(f, "field must be [name, type]")
				continue
			}
			u.Fields = append(u.Fields, l.at(f).FieldDecl(ident(l.str(f.Content[0])), l.ty(f.Content[1])))
		}
		if len(u.Fields) == 0 {
			u.Ctor = CtorConst
		}
	})
}

func (l *loader) fillVariant(v *Unit, n *yaml.Node) {
	if n.Kind != yaml.MappingNode {
		return
	}
	l.inside(v.Parent, func() {
		var tys []*Ty
		for _, t := range l.seq(l.field(n, "tuple")) {
			tys = append(tys, l.ty(t))
		}
		if len(tys) > 0 {
			v.Fields = positional(tys, l.spanOf(n))
			v.Ctor = CtorFn
		}
	})
	if d := l.field(n, "discr"); d != nil {
		c := l.at(d).AnonConst(v.ID, PlaceEnumDiscriminant)
		v.Discr = c.ID
		l.body(c.ID, nil, d)
	}
}

func (l *loader) fillImpl(u *Unit, trait, n *yaml.Node) {
	l.inside(u.ID, func() {
		u.SelfTy = l.ty(l.field(n, "for"))
		if !isNull(trait) {
			t := l.parseTy(trait, l.str(trait))
			if pd, ok := t.Data.(*TyPathData); ok && pd.Res.Kind == ResDef && l.b.prog.Unit(pd.Res.Def).Kind == DefTrait {
				u.OfTrait = pd.Res.Def
				u.TraitArgs = pd.Args
			} else {
				l.errf(trait, "%q is not a trait", l.str(trait))
			}
		}
		for _, a := range l.seq(l.field(n, "assoc")) {
			if a.Kind != yaml.SequenceNode || len(a.Content) != 2 {
				l.errf(a, "associated type binding must be [name, type]")
				continue
			}
			l.b.BindAssoc(u.ID, ident(l.str(a.Content[0])), l.ty(a.Content[1]))
		}
	})
}

// body attaches the expression n as owner's body. Outside the body phase
// the work is queued until every signature is known.
func (l *loader) body(owner DefID, params []*Pat, n *yaml.Node) {
	if !l.inBodies {
		l.bodies = append(l.bodies, func() {
			l.inside(owner, func() { l.body(owner, params, n) })
		})
		return
	}
	saved := l.owner
	l.owner = owner
	defer func() { l.owner = saved }()
	l.pushScope()
	for _, p := range params {
		l.bindPat(p)
	}
	value := l.expr(n)
	l.popScope()
	l.b.SetBody(owner, params, value)
}

// Name resolution.

func (l *loader) pushScope() { l.scopes = append(l.scopes, map[string]*Pat{}) }
func (l *loader) popScope()  { l.scopes = l.scopes[:len(l.scopes)-1] }

func (l *loader) bindPat(p *Pat) {
	if len(l.scopes) == 0 {
		l.pushScope()
	}
	p.Bindings(func(bp *Pat, d *BindingData) {
		l.scopes[len(l.scopes)-1][d.Name] = bp
	})
}

func (l *loader) lookupLocal(name string) *Pat {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if p, ok := l.scopes[i][name]; ok {
			return p
		}
	}
	return nil
}

// lookupDef resolves a single path segment from the current owner
// outwards: generic parameters first, then module items.
func (l *loader) lookupDef(name string) DefID {
	prog := l.b.prog
	for u := prog.Unit(l.owner); u != nil; u = prog.Unit(u.Parent) {
		if u.Generics != nil {
			for _, p := range u.Generics.Params {
				if prog.Units[p].Name == name {
					return p
				}
			}
		}
		if u.Kind == DefTrait || u.Kind == DefImpl || u.Kind == DefEnum {
			continue
		}
		for _, item := range u.Items {
			it := prog.Units[item]
			if it.Name != name {
				continue
			}
			if it.Kind == DefUse {
				return it.Target
			}
			return item
		}
	}
	return NoDefID
}

// resolveDef resolves a `::`-separated path.
func (l *loader) resolveDef(n *yaml.Node, path string) DefID {
	segs := strings.Split(path, "::")
	def := l.lookupDef(segs[0])
	for _, seg := range segs[1:] {
		if def == NoDefID {
			break
		}
		def = l.member(def, seg)
	}
	if def == NoDefID {
		l.errf(n, "cannot resolve %q", path)
	}
	return def
}

// member finds name inside a module, trait, enum or the inherent impls of
// a type.
func (l *loader) member(parent DefID, name string) DefID {
	prog := l.b.prog
	u := prog.Units[parent]
	for _, v := range u.Variants {
		if prog.Units[v].Name == name {
			return v
		}
	}
	for _, item := range u.Items {
		if prog.Units[item].Name == name {
			return item
		}
	}
	for _, impl := range prog.Units {
		if impl == nil || impl.Kind != DefImpl || impl.SelfTy == nil {
			continue
		}
		if pd, ok := impl.SelfTy.Data.(*TyPathData); ok && pd.Res.Kind == ResDef && pd.Res.Def == parent {
			for _, item := range impl.Items {
				if prog.Units[item].Name == name {
					return item
				}
			}
		}
	}
	return NoDefID
}
