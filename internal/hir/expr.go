package hir

import (
	"fmt"

	"typeck/internal/source"
)

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	ExprErr ExprKind = iota
	ExprLit
	ExprPath
	ExprBlock
	ExprLoop
	ExprBreak
	ExprContinue
	ExprReturn
	ExprCast
	ExprBinary
	ExprUnary
	ExprAssign
	ExprCall
	ExprMethodCall
	ExprClosure
	ExprYield
	ExprConstBlock
	ExprRepeat
	ExprArray
	ExprTuple
	ExprAddrOf
	ExprIf
	ExprIndex
	ExprField
	ExprStruct
	ExprInlineAsm
)

var exprKindNames = [...]string{
	ExprErr:        "err",
	ExprLit:        "lit",
	ExprPath:       "path",
	ExprBlock:      "block",
	ExprLoop:       "loop",
	ExprBreak:      "break",
	ExprContinue:   "continue",
	ExprReturn:     "return",
	ExprCast:       "cast",
	ExprBinary:     "binary",
	ExprUnary:      "unary",
	ExprAssign:     "assign",
	ExprCall:       "call",
	ExprMethodCall: "method_call",
	ExprClosure:    "closure",
	ExprYield:      "yield",
	ExprConstBlock: "const_block",
	ExprRepeat:     "repeat",
	ExprArray:      "array",
	ExprTuple:      "tuple",
	ExprAddrOf:     "addr_of",
	ExprIf:         "if",
	ExprIndex:      "index",
	ExprField:      "field",
	ExprStruct:     "struct",
	ExprInlineAsm:  "inline_asm",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return fmt.Sprintf("ExprKind(%d)", k)
}

// Expr is an expression node.
type Expr struct {
	ID   NodeID
	Kind ExprKind
	Span source.Span
	Data ExprData
}

// ExprData is the kind-specific payload of an Expr. Payloads are always
// stored as pointers (*LitData, *PathData, ...).
type ExprData interface {
	exprData()
}

// LitKind enumerates literal kinds.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitChar
	LitStr
)

// LitData holds data for ExprLit. Suffix is the type suffix ("u8", "f32").
type LitData struct {
	Kind   LitKind
	Text   string
	Suffix string
}

// ResKind classifies what a path resolved to.
type ResKind uint8

const (
	ResErr ResKind = iota
	ResLocal
	ResDef
	// ResPrim is a primitive type name; only valid in type position.
	ResPrim
	// ResSelfTy is `Self` inside a trait or impl.
	ResSelfTy
)

// Res is the resolution of a path.
type Res struct {
	Kind  ResKind
	Def   DefID
	Local NodeID // the binding pattern
	Prim  string
}

// PathData holds data for ExprPath.
type PathData struct {
	Name string
	Res  Res
	Args []*Ty // explicit generic arguments
}

// BlockData holds data for ExprBlock. A labeled block is breakable with a value.
type BlockData struct {
	Stmts []*Stmt
	Tail  *Expr
	Label string
}

// LoopSource records how a loop was written.
type LoopSource uint8

const (
	LoopLoop LoopSource = iota
	LoopWhile
)

// LoopData holds data for ExprLoop. Cond is set for while loops.
type LoopData struct {
	Source LoopSource
	Cond   *Expr
	Body   *Expr
	Label  string
}

// BreakData holds data for ExprBreak. Target is filled by ResolveBreakTargets;
// NoNodeID means no enclosing target exists.
type BreakData struct {
	Label  string
	Target NodeID
	Value  *Expr
}

// ContinueData holds data for ExprContinue.
type ContinueData struct {
	Label  string
	Target NodeID
}

type ReturnData struct {
	Value *Expr
}

type CastData struct {
	Expr *Expr
	Ty   *Ty
}

// BinOp enumerates binary operators.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinAnd
	BinOr
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
)

var binOpNames = [...]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinRem: "%",
	BinAnd: "&&", BinOr: "||",
	BinBitAnd: "&", BinBitOr: "|", BinBitXor: "^", BinShl: "<<", BinShr: ">>",
	BinEq: "==", BinNe: "!=", BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=",
}

func (op BinOp) String() string {
	if int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return fmt.Sprintf("BinOp(%d)", op)
}

// ParseBinOp is the inverse of String.
func ParseBinOp(s string) (BinOp, bool) {
	for op, name := range binOpNames {
		if name == s {
			return BinOp(op), true
		}
	}
	return 0, false
}

// IsComparison reports ==, !=, <, <=, >, >=.
func (op BinOp) IsComparison() bool { return op >= BinEq }

// IsLazy reports && and ||.
func (op BinOp) IsLazy() bool { return op == BinAnd || op == BinOr }

// IsShift reports << and >>.
func (op BinOp) IsShift() bool { return op == BinShl || op == BinShr }

type BinaryData struct {
	Op  BinOp
	Lhs *Expr
	Rhs *Expr
}

// UnOp enumerates unary operators.
type UnOp uint8

const (
	UnNeg UnOp = iota
	UnNot
	UnDeref
)

type UnaryData struct {
	Op      UnOp
	Operand *Expr
}

// AssignData holds `lhs = rhs`, or `lhs op= rhs` when Compound is set.
type AssignData struct {
	Lhs      *Expr
	Rhs      *Expr
	Compound bool
	Op       BinOp
}

type CallData struct {
	Callee *Expr
	Args   []*Expr
}

type MethodCallData struct {
	Receiver   *Expr
	Method     string
	MethodSpan source.Span
	Args       []*Expr
}

// ClosureData points at the closure or coroutine definition.
type ClosureData struct {
	Def DefID
}

type YieldData struct {
	Value *Expr
}

// ConstBlockData points at the inline-const anon const.
type ConstBlockData struct {
	Def DefID
}

// RepeatData is `[elem; count]`; Count is an anon const.
type RepeatData struct {
	Elem  *Expr
	Count DefID
}

type ArrayData struct {
	Elems []*Expr
}

type TupleData struct {
	Elems []*Expr
}

type AddrOfData struct {
	Mutable bool
	Expr    *Expr
}

type IfData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

type IndexData struct {
	Base  *Expr
	Index *Expr
}

type FieldData struct {
	Base *Expr
	Name string
}

// FieldInit is one `name: value` in a struct expression.
type FieldInit struct {
	Name  string
	Value *Expr
	Span  source.Span
}

type StructData struct {
	Path   *Expr // an ExprPath
	Fields []FieldInit
}

// AsmOperandKind enumerates inline assembly operand kinds.
type AsmOperandKind uint8

const (
	AsmIn AsmOperandKind = iota
	AsmOut
	AsmInOut
	AsmConst
	AsmSymFn
)

// AsmOperand is one operand of an inline assembly expression.
// Const and SymFn operands refer to an anon const in Const.
type AsmOperand struct {
	Kind  AsmOperandKind
	Reg   string
	Expr  *Expr
	Const DefID
	Span  source.Span
}

type InlineAsmData struct {
	Template string
	Operands []AsmOperand
}

type ErrData struct{}

func (LitData) exprData()        {}
func (PathData) exprData()       {}
func (BlockData) exprData()      {}
func (LoopData) exprData()       {}
func (BreakData) exprData()      {}
func (ContinueData) exprData()   {}
func (ReturnData) exprData()     {}
func (CastData) exprData()       {}
func (BinaryData) exprData()     {}
func (UnaryData) exprData()      {}
func (AssignData) exprData()     {}
func (CallData) exprData()       {}
func (MethodCallData) exprData() {}
func (ClosureData) exprData()    {}
func (YieldData) exprData()      {}
func (ConstBlockData) exprData() {}
func (RepeatData) exprData()     {}
func (ArrayData) exprData()      {}
func (TupleData) exprData()      {}
func (AddrOfData) exprData()     {}
func (IfData) exprData()         {}
func (IndexData) exprData()      {}
func (FieldData) exprData()      {}
func (StructData) exprData()     {}
func (InlineAsmData) exprData()  {}
func (ErrData) exprData()        {}
