package hir

import (
	"strings"
	"testing"
)

func loadFixture(t *testing.T, name string) *Program {
	t.Helper()
	p, err := LoadYAMLFile(nil, "testdata/"+name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return p
}

func findDef(p *Program, kind DefKind, name string) *Unit {
	for _, u := range p.Units {
		if u != nil && u.Kind == kind && u.Name == name {
			return u
		}
	}
	return nil
}

func TestLoadYAMLResolvesNames(t *testing.T) {
	p := loadFixture(t, "loops.yaml")

	main := findDef(p, DefFn, "main")
	if main == nil || !main.Body.IsValid() {
		t.Fatalf("main not loaded")
	}
	if len(main.Decl.Inputs) != 1 || main.Decl.Inputs[0].Data.(*TyPathData).Res.Prim != "u8" {
		t.Fatalf("unexpected params %+v", main.Decl.Inputs)
	}

	block := p.BodyOf(main.ID).Value.Data.(*BlockData)
	if len(block.Stmts) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(block.Stmts))
	}
	x := block.Stmts[0].Data.(*LetData).Pat
	cast := block.Tail.Data.(*CastData)
	if res := cast.Expr.Data.(*PathData).Res; res.Kind != ResLocal || res.Local != x.ID {
		t.Fatalf("x should resolve to its let binding, got %+v", res)
	}

	let := block.Stmts[1].Data.(*LetData)
	arr := let.Ty.Data.(*TyArrayData)
	length := p.Unit(arr.Len)
	if length.Kind != DefAnonConst || length.Placement != PlaceArrayLength || length.Parent != main.ID {
		t.Fatalf("array length should be an anon const of main, got %+v", length)
	}
	rep := let.Init.Data.(*RepeatData)
	if lit := rep.Elem.Data.(*LitData); lit.Text != "0" || lit.Suffix != "u8" {
		t.Fatalf("suffixed literal not split: %+v", lit)
	}

	loop := block.Stmts[2].Data.(*ExprStmtData).Expr
	brk := loop.Data.(*LoopData).Body.Data.(*BlockData).Stmts[0].Data.(*ExprStmtData).Expr
	if brk.Data.(*BreakData).Target != loop.ID {
		t.Fatalf("labeled break not resolved to its loop")
	}
}

func TestLoadYAMLImplsAndProjections(t *testing.T) {
	p := loadFixture(t, "loops.yaml")
	show := findDef(p, DefTrait, "Show")
	var impl *Unit
	for _, id := range p.Impls() {
		impl = p.Unit(id)
	}
	if impl == nil || impl.OfTrait != show.ID {
		t.Fatalf("impl should implement Show")
	}
	if len(impl.AssocTys) != 1 || impl.AssocTys[0].Name != "Out" {
		t.Fatalf("associated type binding missing: %+v", impl.AssocTys)
	}
	decl := findDef(p, DefTraitFn, "show")
	if decl == nil || decl.Body.IsValid() {
		t.Fatalf("trait method should be required")
	}
	proj, ok := decl.Decl.Output.Data.(*TyProjectionData)
	if !ok || proj.Trait != show.ID || proj.Name != "Out" {
		t.Fatalf("projection not parsed: %+v", decl.Decl.Output)
	}
	if findDef(p, DefAssocFn, "show") == nil {
		t.Fatalf("impl method should be an associated fn")
	}
}

func TestLoadYAMLReportsErrors(t *testing.T) {
	src := `
items:
  - fn: f
    body: {call: missing}
  - fn: g
    ret: "Nope"
`
	_, err := LoadYAML(nil, "bad.yaml", []byte(src))
	if err == nil {
		t.Fatalf("expected an error")
	}
	msg := err.Error()
	if !strings.Contains(msg, `cannot resolve "missing"`) || !strings.Contains(msg, `cannot resolve "Nope"`) {
		t.Fatalf("unexpected error: %v", msg)
	}
	if !strings.Contains(msg, "bad.yaml:4:") {
		t.Fatalf("error should carry a position: %v", msg)
	}
}

func TestLoadYAMLSpansPointIntoSource(t *testing.T) {
	src := "items:\n  - fn: f\n    body: 42\n"
	p, err := LoadYAML(nil, "s.yaml", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	f := findDef(p, DefFn, "f")
	lit := p.BodyOf(f.ID).Value
	if got := src[lit.Span.Start:lit.Span.End]; got != "42" {
		t.Fatalf("span covers %q", got)
	}
}

func TestLoadYAMLRejectsUnknownItemFields(t *testing.T) {
	src := "items:\n  - const: LIMIT\n    ty: u32\n    init: 5\n"
	_, err := LoadYAML(nil, "typo.yaml", []byte(src))
	if err == nil {
		t.Fatalf("expected an error for the misspelled field")
	}
	msg := err.Error()
	if !strings.Contains(msg, `unknown field "init" for const item`) || !strings.Contains(msg, "typo.yaml:4:") {
		t.Fatalf("unexpected error: %v", msg)
	}
	if !strings.Contains(msg, "const LIMIT needs a value") {
		t.Fatalf("bodiless const not reported: %v", msg)
	}
}

func TestLoadYAMLTraitConstMayOmitValue(t *testing.T) {
	src := "items:\n  - trait: Tr\n    items:\n      - const: N\n        ty: usize\n  - static: S\n    ty: u8\n    mut: true\n    value: 1\n"
	p, err := LoadYAML(nil, "ok.yaml", []byte(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c := findDef(p, DefTraitConst, "N"); c == nil || c.Body.IsValid() {
		t.Fatalf("trait const should load without a body")
	}
	if s := findDef(p, DefStatic, "S"); s == nil || !s.Body.IsValid() || !s.Mutable {
		t.Fatalf("static not loaded: %+v", s)
	}
}

func TestLoadYAMLGlobalAsmOperands(t *testing.T) {
	src := "items:\n  - global_asm: \"call {}\"\n    operands:\n      - const: 4\n      - sym: f\n  - fn: f\n    body: {block: []}\n"
	p, err := LoadYAML(nil, "asm.yaml", []byte(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var asm *Unit
	for _, u := range p.Units {
		if u != nil && u.Kind == DefGlobalAsm {
			asm = u
		}
	}
	if asm == nil || len(asm.AsmOperands) != 2 {
		t.Fatalf("global_asm operands not loaded: %+v", asm)
	}
	f := findDef(p, DefFn, "f")
	for i, want := range []AnonConstPlacement{PlaceAsmConst, PlaceAsmSymFn} {
		c := p.Unit(asm.AsmOperands[i].Const)
		if c.Placement != want || c.Parent != asm.ID || !c.Body.IsValid() {
			t.Fatalf("operand %d: unexpected anon const %+v", i, c)
		}
		op, ok := p.AsmOperandOf(c)
		if !ok || op.Const != c.ID {
			t.Fatalf("operand %d not found from its anon const", i)
		}
	}
	sym := p.BodyOf(asm.AsmOperands[1].Const).Value.Data.(*PathData)
	if sym.Res.Kind != ResDef || sym.Res.Def != f.ID {
		t.Fatalf("sym operand should resolve to f, got %+v", sym.Res)
	}
}

func TestAsmOperandOfUnreferencedConst(t *testing.T) {
	b := NewBuilder(nil)
	f := b.Fn(b.Root(), "f", nil, nil)
	c := b.AnonConst(f.ID, PlaceAsmConst)
	b.SetBody(c.ID, nil, b.Int("1"))
	used := b.AnonConst(f.ID, PlaceAsmConst)
	b.SetBody(used.ID, nil, b.Int("2"))
	asm := b.InlineAsm("nop", b.AsmOperandConst(AsmConst, used.ID))
	b.SetBody(f.ID, nil, b.Block(nil, b.Semi(asm)))
	p := b.Program()

	if _, ok := p.AsmOperandOf(p.Unit(c.ID)); ok {
		t.Fatalf("unreferenced asm const should have no operand")
	}
	if op, ok := p.AsmOperandOf(p.Unit(used.ID)); !ok || op.Kind != AsmConst {
		t.Fatalf("referenced asm const lost its operand")
	}
	if got := p.Unit(used.ID).PlacementNode; got != asm.ID {
		t.Fatalf("placement node = %v, want %v", got, asm.ID)
	}
}
