package hir

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"typeck/internal/source"
)

// codecSchema is bumped whenever the encoded layout changes.
const codecSchema uint16 = 2

type wireFile struct {
	Path    string
	Content []byte
	Flags   source.FileFlags
}

type wireProgram struct {
	Schema uint16
	Files  []wireFile
	Units  []*Unit
	Bodies []*Body
	Lang   LangItems
	Root   DefID
}

// wireNode is the envelope of every tagged union: the payload is decoded
// once Kind tells which concrete type it holds.
type wireNode struct {
	ID   uint32
	Kind uint8
	Span source.Span
	Data msgpack.RawMessage
}

// Encode writes p in binary form. File contents are included so spans stay
// resolvable after decoding.
func Encode(w io.Writer, p *Program) error {
	wp := wireProgram{
		Schema: codecSchema,
		Units:  p.Units,
		Bodies: p.Bodies,
		Lang:   p.Lang,
		Root:   p.Root,
	}
	if p.Files != nil {
		for id := source.FileID(1); p.Files.HasFile(id); id++ {
			f := p.Files.Get(id)
			wp.Files = append(wp.Files, wireFile{Path: f.Path, Content: f.Content, Flags: f.Flags})
		}
	}
	return msgpack.NewEncoder(w).Encode(&wp)
}

// Decode reads a program written by Encode and indexes it. Files are
// registered in files in their original order, so FileIDs are preserved
// when files starts empty.
func Decode(r io.Reader, files *source.FileSet) (*Program, error) {
	var wp wireProgram
	if err := msgpack.NewDecoder(r).Decode(&wp); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	if wp.Schema != codecSchema {
		return nil, fmt.Errorf("decode program: schema %d, want %d", wp.Schema, codecSchema)
	}
	if files == nil {
		files = source.NewFileSet()
	}
	for _, f := range wp.Files {
		files.Add(f.Path, f.Content, f.Flags)
	}
	p := &Program{
		Units:  wp.Units,
		Bodies: wp.Bodies,
		Lang:   wp.Lang,
		Root:   wp.Root,
		Files:  files,
	}
	if len(p.Units) == 0 || len(p.Bodies) == 0 {
		return nil, fmt.Errorf("decode program: missing reserved slots")
	}
	p.Index()
	return p, nil
}

func encodeNode(enc *msgpack.Encoder, id uint32, kind uint8, span source.Span, data any) error {
	raw, err := msgpack.Marshal(data)
	if err != nil {
		return err
	}
	return enc.Encode(&wireNode{ID: id, Kind: kind, Span: span, Data: raw})
}

func decodePayload(w *wireNode, into any) error {
	if into == nil || len(w.Data) == 0 {
		return nil
	}
	return msgpack.Unmarshal(w.Data, into)
}

var (
	_ msgpack.CustomEncoder = (*Expr)(nil)
	_ msgpack.CustomDecoder = (*Expr)(nil)
	_ msgpack.CustomEncoder = (*Pat)(nil)
	_ msgpack.CustomDecoder = (*Pat)(nil)
	_ msgpack.CustomEncoder = (*Stmt)(nil)
	_ msgpack.CustomDecoder = (*Stmt)(nil)
	_ msgpack.CustomEncoder = (*Ty)(nil)
	_ msgpack.CustomDecoder = (*Ty)(nil)
)

func (e *Expr) EncodeMsgpack(enc *msgpack.Encoder) error {
	return encodeNode(enc, uint32(e.ID), uint8(e.Kind), e.Span, e.Data)
}

func (e *Expr) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w wireNode
	if err := dec.Decode(&w); err != nil {
		return err
	}
	e.ID, e.Kind, e.Span = NodeID(w.ID), ExprKind(w.Kind), w.Span
	e.Data = newExprData(e.Kind)
	if e.Data == nil {
		return fmt.Errorf("unknown expression kind %d", w.Kind)
	}
	return decodePayload(&w, e.Data)
}

func newExprData(k ExprKind) ExprData {
	switch k {
	case ExprErr:
		return &ErrData{}
	case ExprLit:
		return &LitData{}
	case ExprPath:
		return &PathData{}
	case ExprBlock:
		return &BlockData{}
	case ExprLoop:
		return &LoopData{}
	case ExprBreak:
		return &BreakData{}
	case ExprContinue:
		return &ContinueData{}
	case ExprReturn:
		return &ReturnData{}
	case ExprCast:
		return &CastData{}
	case ExprBinary:
		return &BinaryData{}
	case ExprUnary:
		return &UnaryData{}
	case ExprAssign:
		return &AssignData{}
	case ExprCall:
		return &CallData{}
	case ExprMethodCall:
		return &MethodCallData{}
	case ExprClosure:
		return &ClosureData{}
	case ExprYield:
		return &YieldData{}
	case ExprConstBlock:
		return &ConstBlockData{}
	case ExprRepeat:
		return &RepeatData{}
	case ExprArray:
		return &ArrayData{}
	case ExprTuple:
		return &TupleData{}
	case ExprAddrOf:
		return &AddrOfData{}
	case ExprIf:
		return &IfData{}
	case ExprIndex:
		return &IndexData{}
	case ExprField:
		return &FieldData{}
	case ExprStruct:
		return &StructData{}
	case ExprInlineAsm:
		return &InlineAsmData{}
	}
	return nil
}

func (p *Pat) EncodeMsgpack(enc *msgpack.Encoder) error {
	return encodeNode(enc, uint32(p.ID), uint8(p.Kind), p.Span, p.Data)
}

func (p *Pat) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w wireNode
	if err := dec.Decode(&w); err != nil {
		return err
	}
	p.ID, p.Kind, p.Span = NodeID(w.ID), PatKind(w.Kind), w.Span
	switch p.Kind {
	case PatBinding:
		p.Data = &BindingData{}
	case PatLit:
		p.Data = &PatLitData{}
	case PatTuple:
		p.Data = &PatTupleData{}
	case PatTupleStruct:
		p.Data = &TupleStructData{}
	case PatWild, PatErr:
		return nil
	default:
		return fmt.Errorf("unknown pattern kind %d", w.Kind)
	}
	return decodePayload(&w, p.Data)
}

func (s *Stmt) EncodeMsgpack(enc *msgpack.Encoder) error {
	return encodeNode(enc, 0, uint8(s.Kind), s.Span, s.Data)
}

func (s *Stmt) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w wireNode
	if err := dec.Decode(&w); err != nil {
		return err
	}
	s.Kind, s.Span = StmtKind(w.Kind), w.Span
	switch s.Kind {
	case StmtLet:
		s.Data = &LetData{}
	case StmtExpr:
		s.Data = &ExprStmtData{}
	case StmtItem:
		s.Data = &ItemStmtData{}
	default:
		return fmt.Errorf("unknown statement kind %d", w.Kind)
	}
	return decodePayload(&w, s.Data)
}

func (t *Ty) EncodeMsgpack(enc *msgpack.Encoder) error {
	return encodeNode(enc, 0, uint8(t.Kind), t.Span, t.Data)
}

func (t *Ty) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w wireNode
	if err := dec.Decode(&w); err != nil {
		return err
	}
	t.Kind, t.Span = TyKind(w.Kind), w.Span
	switch t.Kind {
	case TyPath:
		t.Data = &TyPathData{}
	case TyRef, TyPtr:
		t.Data = &TyPtrData{}
	case TySlice:
		t.Data = &TySliceData{}
	case TyArray:
		t.Data = &TyArrayData{}
	case TyTuple:
		t.Data = &TyTupleData{}
	case TyFn:
		t.Data = &TyFnData{}
	case TyTypeof:
		t.Data = &TyTypeofData{}
	case TyProjection:
		t.Data = &TyProjectionData{}
	case TyDyn:
		t.Data = &TyDynData{}
	case TyErr, TyInfer, TyNever:
		return nil
	default:
		return fmt.Errorf("unknown type kind %d", w.Kind)
	}
	return decodePayload(&w, t.Data)
}
