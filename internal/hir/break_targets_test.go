package hir

import "testing"

func TestResolveBreakTargets(t *testing.T) {
	b := NewBuilder(nil)
	f := b.Fn(b.Root(), "f", nil, nil)

	innerBreak := b.Break("", nil)
	outerBreak := b.Break("outer", b.Int("1"))
	inner := b.Loop("", b.Block(nil, b.Semi(innerBreak), b.Semi(outerBreak)))
	outer := b.Loop("outer", b.Block(nil, b.ExprStmt(inner)))

	blockBreak := b.Break("blk", b.Int("2"))
	bareInBlock := b.Break("", nil)
	contToBlock := b.Continue("blk")
	labeled := b.LabeledBlock("blk", b.Int("3"), b.Semi(blockBreak), b.Semi(bareInBlock), b.Semi(contToBlock))

	stray := b.Break("", nil)
	b.SetBody(f.ID, nil, b.Block(nil, b.ExprStmt(outer), b.Semi(labeled), b.Semi(stray)))
	b.Program()

	cases := []struct {
		name string
		e    *Expr
		want NodeID
	}{
		{"unlabeled break targets innermost loop", innerBreak, inner.ID},
		{"labeled break skips unlabeled loop", outerBreak, outer.ID},
		{"labeled block break", blockBreak, labeled.ID},
		{"unlabeled break ignores labeled blocks", bareInBlock, NoNodeID},
		{"continue cannot target a block", contToBlock, NoNodeID},
		{"break outside loop", stray, NoNodeID},
	}
	for _, tc := range cases {
		var got NodeID
		switch d := tc.e.Data.(type) {
		case *BreakData:
			got = d.Target
		case *ContinueData:
			got = d.Target
		}
		if got != tc.want {
			t.Fatalf("%s: target %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestResolveBreakTargetsStopsAtClosures(t *testing.T) {
	b := NewBuilder(nil)
	f := b.Fn(b.Root(), "f", nil, nil)
	c := b.Closure(f.ID, nil, nil)
	inClosure := b.Break("", nil)
	b.SetBody(c.ID, nil, b.Block(nil, b.Semi(inClosure)))
	loop := b.Loop("", b.Block(nil, b.Semi(b.ClosureExpr(c.ID))))
	b.SetBody(f.ID, nil, loop)
	b.Program()

	if d := inClosure.Data.(*BreakData); d.Target != NoNodeID {
		t.Fatalf("break inside closure resolved to enclosing loop %d", d.Target)
	}
}
