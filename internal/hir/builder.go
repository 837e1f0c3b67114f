package hir

import (
	"fmt"

	"fortio.org/safecast"

	"typeck/internal/source"
)

// Builder assembles a Program. It is used by the YAML loader and by tests.
// Every node it creates gets a fresh NodeID and the builder's current span.
type Builder struct {
	prog *Program
	node NodeID
	span source.Span
}

// NewBuilder creates a program holding the crate root module and the
// prelude lang-item traits.
func NewBuilder(files *source.FileSet) *Builder {
	if files == nil {
		files = source.NewFileSet()
	}
	b := &Builder{prog: &Program{
		Units:  []*Unit{nil},
		Bodies: []*Body{nil},
		Files:  files,
	}}
	root := b.NewDef(DefMod, "crate", NoDefID)
	b.prog.Root = root.ID

	lang := &b.prog.Lang
	lang.Sized = b.Trait(root.ID, "Sized").ID
	lang.Copy = b.Trait(root.ID, "Copy").ID
	for _, slot := range []struct {
		id   *DefID
		name string
	}{{&lang.FnOnce, "FnOnce"}, {&lang.FnMut, "FnMut"}, {&lang.Fn, "Fn"}} {
		tr := b.Trait(root.ID, slot.name, "Output")
		b.TypeParam(tr.ID, "Args")
		*slot.id = tr.ID
	}
	return b
}

// Root is the crate root module.
func (b *Builder) Root() DefID { return b.prog.Root }

// Unit returns a definition created so far.
func (b *Builder) Unit(id DefID) *Unit { return b.prog.MustUnit(id) }

// At sets the span attached to nodes created afterwards.
func (b *Builder) At(span source.Span) *Builder {
	b.span = span
	return b
}

// Span is the current span.
func (b *Builder) Span() source.Span { return b.span }

// Program indexes and returns the built program. The builder must not be
// used afterwards.
func (b *Builder) Program() *Program {
	b.prog.Index()
	return b.prog
}

func mustU32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("hir: id overflow: %w", err))
	}
	return v
}

func (b *Builder) nextNode() NodeID {
	b.node++
	return b.node
}

// NewDef registers a definition under parent and records it in the
// parent's Items. Generic params and variants are tracked separately.
func (b *Builder) NewDef(kind DefKind, name string, parent DefID) *Unit {
	u := &Unit{
		ID:     DefID(mustU32(len(b.prog.Units))),
		Kind:   kind,
		Name:   name,
		Span:   b.span,
		Parent: parent,
	}
	b.prog.Units = append(b.prog.Units, u)
	if p := b.prog.Unit(parent); p != nil {
		switch kind {
		case DefTypeParam, DefConstParam, DefVariant:
		default:
			p.Items = append(p.Items, u.ID)
		}
	}
	return u
}

func (b *Builder) itemKind(parent DefID, inMod, inImpl, inTrait DefKind) DefKind {
	p := b.prog.Unit(parent)
	if p == nil {
		return inMod
	}
	switch p.Kind {
	case DefImpl:
		return inImpl
	case DefTrait:
		return inTrait
	default:
		return inMod
	}
}

// Mod creates a module.
func (b *Builder) Mod(parent DefID, name string) *Unit {
	return b.NewDef(DefMod, name, parent)
}

// Fn creates a function, associated function or trait method depending on
// parent. A nil output is `()`.
func (b *Builder) Fn(parent DefID, name string, inputs []*Ty, output *Ty) *Unit {
	u := b.NewDef(b.itemKind(parent, DefFn, DefAssocFn, DefTraitFn), name, parent)
	u.Decl = &FnDecl{Inputs: inputs, Output: output, Span: b.span}
	return u
}

// Const creates a const item, associated const or trait const.
func (b *Builder) Const(parent DefID, name string, ty *Ty) *Unit {
	u := b.NewDef(b.itemKind(parent, DefConst, DefAssocConst, DefTraitConst), name, parent)
	u.Ty = ty
	return u
}

// Static creates a static item.
func (b *Builder) Static(parent DefID, name string, ty *Ty, mutable bool) *Unit {
	u := b.NewDef(DefStatic, name, parent)
	u.Ty = ty
	u.Mutable = mutable
	return u
}

// AnonConst creates an anonymous constant nested in parent.
func (b *Builder) AnonConst(parent DefID, placement AnonConstPlacement) *Unit {
	u := b.NewDef(DefAnonConst, "", parent)
	u.Placement = placement
	return u
}

// Closure creates a closure definition. Parameter types may be TyInfer; a
// nil output means the return type is inferred.
func (b *Builder) Closure(parent DefID, inputs []*Ty, output *Ty) *Unit {
	if output == nil {
		output = b.TyInfer()
	}
	u := b.NewDef(DefClosure, "", parent)
	u.Decl = &FnDecl{Inputs: inputs, Output: output, Abi: "rust-call", Span: b.span}
	return u
}

// Coroutine creates a coroutine definition with a resume argument type.
func (b *Builder) Coroutine(parent DefID, resume *Ty, mov Movability) *Unit {
	u := b.NewDef(DefCoroutine, "", parent)
	var inputs []*Ty
	if resume != nil {
		inputs = []*Ty{resume}
	}
	u.Decl = &FnDecl{Inputs: inputs, Output: b.TyInfer(), Span: b.span}
	u.Movability = mov
	return u
}

// Struct creates a struct with named fields.
func (b *Builder) Struct(parent DefID, name string, fields ...*FieldDef) *Unit {
	u := b.NewDef(DefStruct, name, parent)
	u.Fields = fields
	u.Ctor = CtorNone
	if len(fields) == 0 {
		u.Ctor = CtorConst
	}
	return u
}

// TupleStruct creates a struct with positional fields and a constructor fn.
func (b *Builder) TupleStruct(parent DefID, name string, tys ...*Ty) *Unit {
	u := b.NewDef(DefStruct, name, parent)
	u.Fields = positional(tys, b.span)
	u.Ctor = CtorFn
	return u
}

// FieldDecl declares a named field.
func (b *Builder) FieldDecl(name string, ty *Ty) *FieldDef {
	return &FieldDef{Name: name, Ty: ty, Span: b.span}
}

// Enum creates an enum; repr may be empty.
func (b *Builder) Enum(parent DefID, name, repr string) *Unit {
	u := b.NewDef(DefEnum, name, parent)
	u.Repr = repr
	return u
}

// Variant adds a variant to enum. With tys it is tuple-like, otherwise a
// unit variant.
func (b *Builder) Variant(enum DefID, name string, tys ...*Ty) *Unit {
	e := b.Unit(enum)
	v := b.NewDef(DefVariant, name, enum)
	v.Fields = positional(tys, b.span)
	v.Ctor = CtorConst
	if len(tys) > 0 {
		v.Ctor = CtorFn
	}
	e.Variants = append(e.Variants, v.ID)
	return v
}

// Discriminant attaches an explicit discriminant anon const to a variant.
func (b *Builder) Discriminant(variant DefID, value *Expr) *Unit {
	c := b.AnonConst(variant, PlaceEnumDiscriminant)
	b.SetBody(c.ID, nil, value)
	b.Unit(variant).Discr = c.ID
	return c
}

func positional(tys []*Ty, span source.Span) []*FieldDef {
	fields := make([]*FieldDef, len(tys))
	for i, t := range tys {
		fields[i] = &FieldDef{Name: fmt.Sprint(i), Ty: t, Span: span}
	}
	return fields
}

// Trait creates a trait with the given associated type names.
func (b *Builder) Trait(parent DefID, name string, assoc ...string) *Unit {
	u := b.NewDef(DefTrait, name, parent)
	u.AssocTypes = assoc
	return u
}

// Impl creates an impl block. trait is NoDefID for inherent impls.
func (b *Builder) Impl(parent, trait DefID, self *Ty, traitArgs ...*Ty) *Unit {
	u := b.NewDef(DefImpl, "", parent)
	u.OfTrait = trait
	u.SelfTy = self
	u.TraitArgs = traitArgs
	return u
}

// BindAssoc binds an associated type inside an impl.
func (b *Builder) BindAssoc(impl DefID, name string, ty *Ty) {
	u := b.Unit(impl)
	u.AssocTys = append(u.AssocTys, AssocBinding{Name: name, Ty: ty})
}

// Use brings target into scope of the module parent.
func (b *Builder) Use(parent, target DefID) *Unit {
	u := b.NewDef(DefUse, b.Unit(target).Name, parent)
	u.Target = target
	return u
}

// GlobalAsm creates a module-level asm block.
func (b *Builder) GlobalAsm(parent DefID) *Unit {
	return b.NewDef(DefGlobalAsm, "", parent)
}

// GlobalAsmConst adds a const (AsmConst) or sym (AsmSymFn) operand to a
// global_asm item and returns the anon const holding its value.
func (b *Builder) GlobalAsmConst(asm DefID, kind AsmOperandKind) *Unit {
	place := PlaceAsmConst
	if kind == AsmSymFn {
		place = PlaceAsmSymFn
	}
	c := b.AnonConst(asm, place)
	u := b.Unit(asm)
	u.AsmOperands = append(u.AsmOperands, b.AsmOperandConst(kind, c.ID))
	return c
}

func (b *Builder) generics(owner DefID) *Generics {
	u := b.Unit(owner)
	if u.Generics == nil {
		u.Generics = &Generics{}
	}
	return u.Generics
}

// ParentGenerics counts the generic params inherited from the owner's
// parent impl or trait.
func (p *Program) ParentGenerics(owner DefID) int {
	u := p.Unit(owner)
	if u == nil {
		return 0
	}
	parent := p.Unit(u.Parent)
	if parent == nil || (parent.Kind != DefImpl && parent.Kind != DefTrait) || parent.Generics == nil {
		return 0
	}
	return len(parent.Generics.Params)
}

// TypeParam declares a type parameter of owner.
func (b *Builder) TypeParam(owner DefID, name string) *Unit {
	g := b.generics(owner)
	u := b.NewDef(DefTypeParam, name, owner)
	u.Index = mustU32(b.prog.ParentGenerics(owner) + len(g.Params))
	g.Params = append(g.Params, u.ID)
	return u
}

// ConstParam declares a const generic parameter of owner.
func (b *Builder) ConstParam(owner DefID, name string, ty *Ty) *Unit {
	g := b.generics(owner)
	u := b.NewDef(DefConstParam, name, owner)
	u.Ty = ty
	u.Index = mustU32(b.prog.ParentGenerics(owner) + len(g.Params))
	g.Params = append(g.Params, u.ID)
	return u
}

// Bound adds `self: trait<args>` to owner's where clause.
func (b *Builder) Bound(owner DefID, self *Ty, trait DefID, args ...*Ty) *WherePredicate {
	pred := &WherePredicate{Self: self, Trait: trait, Args: args, Span: b.span}
	g := b.generics(owner)
	g.Predicates = append(g.Predicates, pred)
	return pred
}

// SetBody attaches a body to def.
func (b *Builder) SetBody(def DefID, params []*Pat, value *Expr) *Body {
	u := b.Unit(def)
	body := &Body{
		ID:        BodyID(mustU32(len(b.prog.Bodies))),
		Owner:     def,
		Value:     value,
		Coroutine: u.Kind == DefCoroutine,
	}
	for _, p := range params {
		body.Params = append(body.Params, &Param{Pat: p, Span: p.Span})
	}
	b.prog.Bodies = append(b.prog.Bodies, body)
	u.Body = body.ID
	return body
}

// Expressions.

func (b *Builder) expr(kind ExprKind, data ExprData) *Expr {
	return &Expr{ID: b.nextNode(), Kind: kind, Span: b.span, Data: data}
}

func (b *Builder) lit(kind LitKind, text, suffix string) *Expr {
	return b.expr(ExprLit, &LitData{Kind: kind, Text: text, Suffix: suffix})
}

func (b *Builder) Int(text string) *Expr                 { return b.lit(LitInt, text, "") }
func (b *Builder) IntSuffixed(text, suffix string) *Expr { return b.lit(LitInt, text, suffix) }
func (b *Builder) Float(text string) *Expr               { return b.lit(LitFloat, text, "") }
func (b *Builder) Char(text string) *Expr                { return b.lit(LitChar, text, "") }
func (b *Builder) Str(text string) *Expr                 { return b.lit(LitStr, text, "") }

func (b *Builder) Bool(v bool) *Expr {
	if v {
		return b.lit(LitBool, "true", "")
	}
	return b.lit(LitBool, "false", "")
}

// Local refers to the binding introduced by pat.
func (b *Builder) Local(pat *Pat) *Expr {
	name := ""
	if d, ok := pat.Data.(*BindingData); ok {
		name = d.Name
	}
	return b.expr(ExprPath, &PathData{Name: name, Res: Res{Kind: ResLocal, Local: pat.ID}})
}

// Path refers to a definition, with optional explicit generic arguments.
func (b *Builder) Path(def DefID, args ...*Ty) *Expr {
	return b.expr(ExprPath, &PathData{Name: b.Unit(def).Name, Res: Res{Kind: ResDef, Def: def}, Args: args})
}

// Unresolved is a path whose resolution failed upstream.
func (b *Builder) Unresolved(name string) *Expr {
	return b.expr(ExprPath, &PathData{Name: name, Res: Res{Kind: ResErr}})
}

func (b *Builder) Block(tail *Expr, stmts ...*Stmt) *Expr {
	return b.expr(ExprBlock, &BlockData{Stmts: stmts, Tail: tail})
}

func (b *Builder) LabeledBlock(label string, tail *Expr, stmts ...*Stmt) *Expr {
	return b.expr(ExprBlock, &BlockData{Stmts: stmts, Tail: tail, Label: label})
}

func (b *Builder) Let(pat *Pat, ty *Ty, init *Expr) *Stmt {
	return &Stmt{Kind: StmtLet, Span: b.span, Data: &LetData{Pat: pat, Ty: ty, Init: init}}
}

// Semi is an expression statement terminated by `;`.
func (b *Builder) Semi(e *Expr) *Stmt {
	return &Stmt{Kind: StmtExpr, Span: e.Span, Data: &ExprStmtData{Expr: e, Semi: true}}
}

// ExprStmt is a block-like expression statement without `;`.
func (b *Builder) ExprStmt(e *Expr) *Stmt {
	return &Stmt{Kind: StmtExpr, Span: e.Span, Data: &ExprStmtData{Expr: e}}
}

func (b *Builder) Item(def DefID) *Stmt {
	return &Stmt{Kind: StmtItem, Span: b.span, Data: &ItemStmtData{Def: def}}
}

func (b *Builder) Loop(label string, body *Expr) *Expr {
	return b.expr(ExprLoop, &LoopData{Source: LoopLoop, Body: body, Label: label})
}

func (b *Builder) While(label string, cond, body *Expr) *Expr {
	return b.expr(ExprLoop, &LoopData{Source: LoopWhile, Cond: cond, Body: body, Label: label})
}

func (b *Builder) Break(label string, value *Expr) *Expr {
	return b.expr(ExprBreak, &BreakData{Label: label, Value: value})
}

func (b *Builder) Continue(label string) *Expr {
	return b.expr(ExprContinue, &ContinueData{Label: label})
}

func (b *Builder) Return(value *Expr) *Expr {
	return b.expr(ExprReturn, &ReturnData{Value: value})
}

func (b *Builder) Cast(e *Expr, ty *Ty) *Expr {
	return b.expr(ExprCast, &CastData{Expr: e, Ty: ty})
}

func (b *Builder) Binary(op BinOp, lhs, rhs *Expr) *Expr {
	return b.expr(ExprBinary, &BinaryData{Op: op, Lhs: lhs, Rhs: rhs})
}

func (b *Builder) Unary(op UnOp, e *Expr) *Expr {
	return b.expr(ExprUnary, &UnaryData{Op: op, Operand: e})
}

func (b *Builder) Assign(lhs, rhs *Expr) *Expr {
	return b.expr(ExprAssign, &AssignData{Lhs: lhs, Rhs: rhs})
}

func (b *Builder) AssignOp(op BinOp, lhs, rhs *Expr) *Expr {
	return b.expr(ExprAssign, &AssignData{Lhs: lhs, Rhs: rhs, Compound: true, Op: op})
}

func (b *Builder) Call(callee *Expr, args ...*Expr) *Expr {
	return b.expr(ExprCall, &CallData{Callee: callee, Args: args})
}

func (b *Builder) MethodCall(recv *Expr, method string, args ...*Expr) *Expr {
	return b.expr(ExprMethodCall, &MethodCallData{Receiver: recv, Method: method, MethodSpan: b.span, Args: args})
}

// ClosureExpr instantiates the closure (or coroutine) definition def.
func (b *Builder) ClosureExpr(def DefID) *Expr {
	return b.expr(ExprClosure, &ClosureData{Def: def})
}

func (b *Builder) Yield(value *Expr) *Expr {
	return b.expr(ExprYield, &YieldData{Value: value})
}

func (b *Builder) ConstBlock(def DefID) *Expr {
	return b.expr(ExprConstBlock, &ConstBlockData{Def: def})
}

func (b *Builder) Repeat(elem *Expr, count DefID) *Expr {
	return b.expr(ExprRepeat, &RepeatData{Elem: elem, Count: count})
}

func (b *Builder) Array(elems ...*Expr) *Expr {
	return b.expr(ExprArray, &ArrayData{Elems: elems})
}

func (b *Builder) Tuple(elems ...*Expr) *Expr {
	return b.expr(ExprTuple, &TupleData{Elems: elems})
}

func (b *Builder) AddrOf(mutable bool, e *Expr) *Expr {
	return b.expr(ExprAddrOf, &AddrOfData{Mutable: mutable, Expr: e})
}

func (b *Builder) If(cond, then, els *Expr) *Expr {
	return b.expr(ExprIf, &IfData{Cond: cond, Then: then, Else: els})
}

func (b *Builder) Index(base, index *Expr) *Expr {
	return b.expr(ExprIndex, &IndexData{Base: base, Index: index})
}

func (b *Builder) Field(base *Expr, name string) *Expr {
	return b.expr(ExprField, &FieldData{Base: base, Name: name})
}

func (b *Builder) StructLit(def DefID, fields ...FieldInit) *Expr {
	return b.expr(ExprStruct, &StructData{Path: b.Path(def), Fields: fields})
}

func (b *Builder) Init(name string, value *Expr) FieldInit {
	return FieldInit{Name: name, Value: value, Span: b.span}
}

// InlineAsm builds an asm expression. Anon consts used as const or sym
// operands are placed at the new expression.
func (b *Builder) InlineAsm(template string, ops ...AsmOperand) *Expr {
	e := b.expr(ExprInlineAsm, &InlineAsmData{Template: template, Operands: ops})
	for _, op := range ops {
		if op.Const.IsValid() {
			b.Unit(op.Const).PlacementNode = e.ID
		}
	}
	return e
}

// AsmOperandExpr builds a register operand.
func (b *Builder) AsmOperandExpr(kind AsmOperandKind, reg string, e *Expr) AsmOperand {
	return AsmOperand{Kind: kind, Reg: reg, Expr: e, Span: b.span}
}

// AsmOperandConst builds a const or sym operand.
func (b *Builder) AsmOperandConst(kind AsmOperandKind, def DefID) AsmOperand {
	return AsmOperand{Kind: kind, Const: def, Span: b.span}
}

func (b *Builder) ErrExpr() *Expr {
	return b.expr(ExprErr, &ErrData{})
}

// Patterns.

func (b *Builder) pat(kind PatKind, data PatData) *Pat {
	return &Pat{ID: b.nextNode(), Kind: kind, Span: b.span, Data: data}
}

func (b *Builder) Bind(name string) *Pat {
	return b.pat(PatBinding, &BindingData{Name: name})
}

func (b *Builder) BindMut(name string) *Pat {
	return b.pat(PatBinding, &BindingData{Name: name, Mutable: true})
}

func (b *Builder) Wild() *Pat { return b.pat(PatWild, nil) }

func (b *Builder) PatTuple(elems ...*Pat) *Pat {
	return b.pat(PatTuple, &PatTupleData{Elems: elems})
}

func (b *Builder) PatTupleStruct(def DefID, elems ...*Pat) *Pat {
	return b.pat(PatTupleStruct, &TupleStructData{Name: b.Unit(def).Name, Res: Res{Kind: ResDef, Def: def}, Elems: elems})
}

func (b *Builder) PatLit(e *Expr) *Pat {
	return b.pat(PatLit, &PatLitData{Expr: e})
}

// Types.

func (b *Builder) ty(kind TyKind, data TyData) *Ty {
	return &Ty{Kind: kind, Span: b.span, Data: data}
}

// TyPrim names a primitive such as "i32" or "str".
func (b *Builder) TyPrim(name string) *Ty {
	return b.ty(TyPath, &TyPathData{Name: name, Res: Res{Kind: ResPrim, Prim: name}})
}

// TyInfer is the `_` placeholder.
func (b *Builder) TyInfer() *Ty { return b.ty(TyInfer, nil) }

func (b *Builder) TyNever() *Ty { return b.ty(TyNever, nil) }

func (b *Builder) TyErr() *Ty { return b.ty(TyErr, nil) }

func (b *Builder) TyUnit() *Ty { return b.TyTuple() }

// TyDef refers to an ADT, type param or trait-less path by definition.
func (b *Builder) TyDef(def DefID, args ...*Ty) *Ty {
	return b.ty(TyPath, &TyPathData{Name: b.Unit(def).Name, Res: Res{Kind: ResDef, Def: def}, Args: args})
}

// TyDefConst is TyDef with const generic arguments given as anon consts.
func (b *Builder) TyDefConst(def DefID, args []*Ty, consts ...DefID) *Ty {
	t := b.TyDef(def, args...)
	t.Data.(*TyPathData).ConstArgs = consts
	return t
}

func (b *Builder) TySelf() *Ty {
	return b.ty(TyPath, &TyPathData{Name: "Self", Res: Res{Kind: ResSelfTy}})
}

func (b *Builder) TyRef(mutable bool, elem *Ty) *Ty {
	return b.ty(TyRef, &TyPtrData{Elem: elem, Mutable: mutable})
}

func (b *Builder) TyPtr(mutable bool, elem *Ty) *Ty {
	return b.ty(TyPtr, &TyPtrData{Elem: elem, Mutable: mutable})
}

func (b *Builder) TySlice(elem *Ty) *Ty {
	return b.ty(TySlice, &TySliceData{Elem: elem})
}

func (b *Builder) TyArray(elem *Ty, length DefID) *Ty {
	return b.ty(TyArray, &TyArrayData{Elem: elem, Len: length})
}

func (b *Builder) TyTuple(elems ...*Ty) *Ty {
	return b.ty(TyTuple, &TyTupleData{Elems: elems})
}

func (b *Builder) TyFn(abi string, params []*Ty, ret *Ty) *Ty {
	return b.ty(TyFn, &TyFnData{Params: params, Ret: ret, Abi: abi})
}

func (b *Builder) TyTypeof(c DefID) *Ty {
	return b.ty(TyTypeof, &TyTypeofData{Const: c})
}

func (b *Builder) TyProjection(self *Ty, trait DefID, name string) *Ty {
	return b.ty(TyProjection, &TyProjectionData{Self: self, Trait: trait, Name: name})
}

func (b *Builder) TyDyn(trait DefID) *Ty {
	return b.ty(TyDyn, &TyDynData{Trait: trait})
}
