package collect

import (
	"math/bits"
	"strconv"
	"strings"

	"typeck/internal/hir"
)

type evalState uint8

const (
	evalUnvisited evalState = iota
	evalVisiting
	evalDone
)

type constEvaluator struct {
	p     *Provider
	state map[hir.DefID]evalState
}

// EvalConst evaluates the body of a constant to an unsigned value. generic
// is set when the value depends on a const parameter; ok is false for
// anything outside the small integer subset array lengths use.
func (p *Provider) EvalConst(def hir.DefID) (value uint64, generic, ok bool) {
	ev := &constEvaluator{p: p, state: make(map[hir.DefID]evalState)}
	return ev.def(def)
}

func (ev *constEvaluator) def(def hir.DefID) (uint64, bool, bool) {
	if ev.state[def] == evalVisiting {
		return 0, false, false
	}
	u := ev.p.Prog.Unit(def)
	if u == nil {
		return 0, false, false
	}
	if u.Kind == hir.DefConstParam {
		return 0, true, true
	}
	body := ev.p.Prog.BodyOf(def)
	if body == nil {
		return 0, false, false
	}
	ev.state[def] = evalVisiting
	v, generic, ok := ev.expr(body.Value)
	ev.state[def] = evalDone
	return v, generic, ok
}

func (ev *constEvaluator) expr(e *hir.Expr) (uint64, bool, bool) {
	if e == nil {
		return 0, false, false
	}
	switch d := e.Data.(type) {
	case *hir.LitData:
		switch d.Kind {
		case hir.LitInt:
			v, err := strconv.ParseUint(d.Text, 0, 64)
			return v, false, err == nil
		case hir.LitBool:
			if d.Text == "true" {
				return 1, false, true
			}
			return 0, false, true
		case hir.LitChar:
			r := []rune(strings.Trim(d.Text, "'"))
			if len(r) != 1 {
				return 0, false, false
			}
			return uint64(r[0]), false, true
		}
	case *hir.PathData:
		if d.Res.Kind != hir.ResDef {
			return 0, false, false
		}
		switch ev.p.Prog.MustUnit(d.Res.Def).Kind {
		case hir.DefConst, hir.DefAssocConst, hir.DefAnonConst, hir.DefConstParam:
			return ev.def(d.Res.Def)
		}
	case *hir.ConstBlockData:
		return ev.def(d.Def)
	case *hir.CastData:
		return ev.expr(d.Expr)
	case *hir.BlockData:
		if len(d.Stmts) == 0 {
			return ev.expr(d.Tail)
		}
	case *hir.BinaryData:
		l, lg, lok := ev.expr(d.Lhs)
		r, rg, rok := ev.expr(d.Rhs)
		if !lok || !rok {
			return 0, false, false
		}
		if lg || rg {
			return 0, true, true
		}
		v, ok := binop(d.Op, l, r)
		return v, false, ok
	}
	return 0, false, false
}

func binop(op hir.BinOp, l, r uint64) (uint64, bool) {
	switch op {
	case hir.BinAdd:
		v, carry := bits.Add64(l, r, 0)
		return v, carry == 0
	case hir.BinSub:
		v, borrow := bits.Sub64(l, r, 0)
		return v, borrow == 0
	case hir.BinMul:
		hi, lo := bits.Mul64(l, r)
		return lo, hi == 0
	case hir.BinDiv:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case hir.BinRem:
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case hir.BinShl:
		if r >= 64 {
			return 0, false
		}
		return l << r, true
	case hir.BinShr:
		if r >= 64 {
			return 0, false
		}
		return l >> r, true
	case hir.BinBitAnd:
		return l & r, true
	case hir.BinBitOr:
		return l | r, true
	case hir.BinBitXor:
		return l ^ r, true
	}
	return 0, false
}
