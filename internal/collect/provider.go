// Package collect answers item-level type questions: the declared type of a
// definition, function signatures, where-clause environments and lowered
// impls. Results are memoized and safe to share between concurrent runs.
package collect

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"typeck/internal/diag"
	"typeck/internal/hir"
	"typeck/internal/layout"
	"typeck/internal/source"
	"typeck/internal/types"
)

// DefaultAbis are the calling conventions accepted when none are configured.
var DefaultAbis = []string{types.AbiRust, "C", "system", "rust-call"}

// Provider is the default signature provider.
type Provider struct {
	Prog  *hir.Program
	Types *types.Interner
	// Reporter receives item-level diagnostics; it must tolerate concurrent
	// use.
	Reporter diag.Reporter

	// InferConstType infers the type of a const or static declared with `_`.
	InferConstType func(def hir.DefID) types.TypeID
	// AnonConstType returns the checked type of an anonymous constant.
	AnonConstType func(def hir.DefID) types.TypeID

	abis map[string]bool

	typeOf sync.Map // hir.DefID -> types.TypeID
	sigs   sync.Map // hir.DefID -> types.TypeID
	envs   sync.Map // hir.DefID -> traits.ParamEnv
	flight singleflight.Group

	implsOnce sync.Once
	byTrait   map[hir.DefID][]hir.DefID
	inherent  []hir.DefID
	impls     sync.Map // hir.DefID -> *traits.ImplCandidate
}

// New creates a provider. A nil reporter drops item diagnostics.
func New(prog *hir.Program, in *types.Interner, r diag.Reporter, abis []string) *Provider {
	if r == nil {
		r = diag.NopReporter{}
	}
	if len(abis) == 0 {
		abis = DefaultAbis
	}
	p := &Provider{
		Prog:     prog,
		Types:    in,
		Reporter: diag.NewLockedReporter(diag.NewDedupReporter(r)),
		abis:     make(map[string]bool, len(abis)),
	}
	for _, a := range abis {
		p.abis[a] = true
	}
	return p
}

// AbiSupported reports whether abi is a calling convention of the target.
func (p *Provider) AbiSupported(abi string) bool {
	if abi == "" {
		abi = types.AbiRust
	}
	return p.abis[abi]
}

// GenericsCount is the number of generic parameters of def, inherited
// ones included.
func (p *Provider) GenericsCount(def hir.DefID) int {
	u := p.Prog.Unit(def)
	if u == nil {
		return 0
	}
	n := p.Prog.ParentGenerics(def)
	if u.Generics != nil {
		n += len(u.Generics.Params)
	}
	return n
}

// HasExpectedNumGenericArgs reports whether trait takes exactly n generic
// arguments.
func (p *Provider) HasExpectedNumGenericArgs(trait hir.DefID, n int) bool {
	u := p.Prog.Unit(trait)
	if u == nil || u.Kind != hir.DefTrait {
		return false
	}
	return p.GenericsCount(trait) == n
}

// identity returns the ADT type of def applied to its own parameters.
func (p *Provider) identity(def hir.DefID) types.TypeID {
	u := p.Prog.MustUnit(def)
	args := p.ownParams(def)
	return p.Types.RegisterAdt(uint32(def), u.Name, args)
}

// ownParams lowers the generic parameters of def (inherited first) to
// param types; const params contribute their declared type.
func (p *Provider) ownParams(def hir.DefID) []types.TypeID {
	var out []types.TypeID
	for _, g := range p.genericChain(def) {
		for _, id := range g.Params {
			out = append(out, p.TypeOf(id))
		}
	}
	return out
}

// genericChain lists the generics of the enclosing impl or trait, then
// def's own.
func (p *Provider) genericChain(def hir.DefID) []*hir.Generics {
	u := p.Prog.Unit(def)
	if u == nil {
		return nil
	}
	var chain []*hir.Generics
	if parent := p.Prog.Unit(u.Parent); parent != nil && (parent.Kind == hir.DefImpl || parent.Kind == hir.DefTrait) && parent.Generics != nil {
		chain = append(chain, parent.Generics)
	}
	if u.Generics != nil {
		chain = append(chain, u.Generics)
	}
	return chain
}

// TypeOf returns the type of a definition used as a value or type.
func (p *Provider) TypeOf(def hir.DefID) types.TypeID {
	if v, ok := p.typeOf.Load(def); ok {
		return v.(types.TypeID)
	}
	v, _, _ := p.flight.Do(fmt.Sprintf("type_of/%d", def), func() (any, error) {
		if v, ok := p.typeOf.Load(def); ok {
			return v, nil
		}
		t := p.computeTypeOf(def)
		p.typeOf.Store(def, t)
		return t, nil
	})
	return v.(types.TypeID)
}

func (p *Provider) computeTypeOf(def hir.DefID) types.TypeID {
	in := p.Types
	b := in.Builtins()
	u := p.Prog.Unit(def)
	if u == nil {
		return b.Error
	}
	switch u.Kind {
	case hir.DefConst, hir.DefAssocConst, hir.DefTraitConst, hir.DefStatic:
		if u.Ty == nil {
			return b.Error
		}
		if u.Ty.HasPlaceholder() {
			return p.inferItemType(u)
		}
		return p.LowerTy(u.Ty, def, LowerOpts{})
	case hir.DefFn, hir.DefAssocFn, hir.DefTraitFn:
		return p.FnSig(def)
	case hir.DefStruct, hir.DefEnum:
		return p.identity(def)
	case hir.DefVariant:
		return p.identity(u.Parent)
	case hir.DefTypeParam:
		return in.RegisterParam(uint32(u.Parent), u.Index, u.Name)
	case hir.DefConstParam:
		return p.LowerTy(u.Ty, u.Parent, LowerOpts{})
	case hir.DefAnonConst:
		return p.anonConstType(u)
	case hir.DefImpl:
		return p.LowerTy(u.SelfTy, def, LowerOpts{})
	}
	return b.Error
}

func (p *Provider) anonConstType(u *hir.Unit) types.TypeID {
	b := p.Types.Builtins()
	switch u.Placement {
	case hir.PlaceArrayLength:
		return b.Usize
	case hir.PlaceConstArg:
		if u.ConstParamOf.IsValid() {
			return p.TypeOf(u.ConstParamOf)
		}
		return b.Error
	case hir.PlaceEnumDiscriminant:
		return p.discrType(u.Parent)
	case hir.PlaceAsmConst, hir.PlaceAsmSymFn:
		// An asm const no operand names is checked against this very
		// type, so it must not come from checking the const.
		if _, ok := p.Prog.AsmOperandOf(u); !ok {
			return b.Error
		}
		if p.AnonConstType != nil {
			return p.AnonConstType(u.ID)
		}
	case hir.PlaceConstBlock, hir.PlaceTypeof:
		// Checked against a fresh variable, never against their own TypeOf.
		if p.AnonConstType != nil {
			return p.AnonConstType(u.ID)
		}
	}
	return b.Error
}

// discrType is the integer type of a variant's discriminant.
func (p *Provider) discrType(variant hir.DefID) types.TypeID {
	b := p.Types.Builtins()
	v := p.Prog.Unit(variant)
	if v == nil {
		return b.Isize
	}
	enum := p.Prog.Unit(v.Parent)
	if enum == nil || enum.Repr == "" {
		return b.Isize
	}
	if t, ok := p.Types.PrimitiveByName(enum.Repr); ok && p.Types.IsIntegral(t) {
		return t
	}
	return b.Isize
}

// inferItemType handles `const X: _` and `static X: _`: the body is checked
// in diagnostic-only mode and the placeholder is reported with the type
// that was inferred.
func (p *Provider) inferItemType(u *hir.Unit) types.TypeID {
	b := p.Types.Builtins()
	if path, ok := p.placeholderCycle(u.ID); ok {
		p.reportCycle(u, path)
		return b.Error
	}
	inferred := b.Error
	if p.InferConstType != nil && u.Body.IsValid() {
		inferred = p.InferConstType(u.ID)
	}
	placeholder := u.Ty.Span
	u.Ty.Walk(func(t *hir.Ty) bool {
		if t.Kind == hir.TyInfer {
			placeholder = t.Span
			return false
		}
		return true
	})
	rb := diag.ReportError(p.Reporter, diag.TckPlaceholderInSignature, placeholder,
		"the placeholder `_` is not allowed within types on item signatures for "+itemNoun(u.Kind))
	if !p.Types.HasError(inferred) && !p.Types.HasInfer(inferred) {
		label := types.Label(p.Types, inferred)
		rb = rb.WithNote(placeholder, fmt.Sprintf("replace with the correct type: `%s`", label))
		if u.Ty.Kind == hir.TyInfer {
			rb = rb.WithFix("replace `_` with `"+label+"`",
				diag.FixEdit{Span: placeholder, NewText: label, OldText: "_"})
		}
	}
	rb.Emit()
	return inferred
}

func itemNoun(k hir.DefKind) string {
	if k == hir.DefStatic {
		return "static variables"
	}
	return "constants"
}

// FnSig returns the signature of a function-like item as a fn type. A `_`
// return type lowers to the error type here; the function's own check
// infers it.
func (p *Provider) FnSig(def hir.DefID) types.TypeID {
	if v, ok := p.sigs.Load(def); ok {
		return v.(types.TypeID)
	}
	sig := p.computeFnSig(def)
	v, _ := p.sigs.LoadOrStore(def, sig)
	return v.(types.TypeID)
}

func (p *Provider) computeFnSig(def hir.DefID) types.TypeID {
	in := p.Types
	b := in.Builtins()
	u := p.Prog.Unit(def)
	if u == nil || u.Decl == nil {
		return in.RegisterFn(nil, b.Error, types.AbiRust, false)
	}
	d := u.Decl
	opts := LowerOpts{Fresh: func(source.Span) types.TypeID { return b.Error }}
	params := make([]types.TypeID, len(d.Inputs))
	for i, t := range d.Inputs {
		params[i] = p.LowerTy(t, def, opts)
	}
	out := b.Unit
	if d.Output != nil {
		out = p.LowerTy(d.Output, def, opts)
	}
	return in.RegisterFn(params, out, d.Abi, d.Variadic)
}

// CtorSig is the constructor function of a tuple-like struct or variant.
func (p *Provider) CtorSig(def hir.DefID) (types.TypeID, bool) {
	u := p.Prog.Unit(def)
	if u == nil || u.Ctor != hir.CtorFn {
		return types.NoTypeID, false
	}
	owner := def
	if u.Kind == hir.DefVariant {
		owner = u.Parent
	}
	params := make([]types.TypeID, len(u.Fields))
	for i, f := range u.Fields {
		params[i] = p.LowerTy(f.Ty, owner, LowerOpts{})
	}
	return p.Types.RegisterFn(params, p.TypeOf(def), types.AbiRust, false), true
}

// FieldTypes lowers the fields of a struct or variant, in declaration
// order, against the parameters of the owning ADT.
func (p *Provider) FieldTypes(def hir.DefID) []types.TypeID {
	u := p.Prog.Unit(def)
	if u == nil {
		return nil
	}
	owner := def
	if u.Kind == hir.DefVariant {
		owner = u.Parent
	}
	out := make([]types.TypeID, len(u.Fields))
	for i, f := range u.Fields {
		out[i] = p.LowerTy(f.Ty, owner, LowerOpts{})
	}
	return out
}

// AdtShape implements layout.AdtSource.
func (p *Provider) AdtShape(def uint32, args []types.TypeID) (layout.AdtShape, bool) {
	u := p.Prog.Unit(hir.DefID(def))
	if u == nil {
		return layout.AdtShape{}, false
	}
	subst := func(ts []types.TypeID) []types.TypeID {
		out := make([]types.TypeID, len(ts))
		for i, t := range ts {
			out[i] = p.Types.SubstParams(t, args)
		}
		return out
	}
	switch u.Kind {
	case hir.DefStruct:
		return layout.AdtShape{Variants: [][]types.TypeID{subst(p.FieldTypes(u.ID))}}, true
	case hir.DefEnum:
		shape := layout.AdtShape{IsEnum: true}
		for _, v := range u.Variants {
			shape.Variants = append(shape.Variants, subst(p.FieldTypes(v)))
		}
		return shape, true
	}
	return layout.AdtShape{}, false
}

var _ layout.AdtSource = (*Provider)(nil)
