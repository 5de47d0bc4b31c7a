package build

import (
	"github.com/opencodelex/parce"
	"github.com/opencodelex/parce/lexer"
)

// treeBuilder mirrors a lexer's stack with a parallel stack of
// *parce.Context, turning a sequence of (lexemes, ops) steps into a tree,
// honoring `consume` (redirecting a firing rule's lexemes into the
// lexicon it just pushed instead of the pushing context) and the
// never-empty-context lifecycle rule.
type treeBuilder struct {
	root  *parce.Context
	stack []*parce.Context
	chain []*parce.Lexicon // stack's lexicons, kept in sync for ancestry comparisons
}

func newTreeBuilder(root *parce.Lexicon) *treeBuilder {
	rc := parce.NewContext(root, nil)
	return &treeBuilder{root: rc, stack: []*parce.Context{rc}, chain: []*parce.Lexicon{root}}
}

// step attaches lexemes and applies ops: emit lexemes as children of the
// current context, then mutate the stack — except when ops push a
// lexicon whose Consume is true, in which case the lexemes are
// redirected into that newly pushed context.
func (tb *treeBuilder) step(lexemes []lexer.Lexeme, ops []parce.TargetOp) {
	cur0 := tb.stack[len(tb.stack)-1]
	slot := consumingPushSlot(cur0, ops)
	if slot == -1 {
		attach(cur0, lexemes)
		tb.stack, _ = applyContextOps(tb.stack, ops)
	} else {
		var pushed []*parce.Context
		tb.stack, pushed = applyContextOps(tb.stack, ops)
		if slot < len(pushed) {
			attach(pushed[slot], lexemes)
		} else {
			attach(cur0, lexemes)
		}
	}
	tb.chain = lexiconsOf(tb.stack)
}

// replay places an already-known old token (from flatten) at pos, moving the
// stack to match chain first. Unlike step, it never needs the
// consumingPushSlot heuristic: chain is the token's actual recorded
// ancestry, not a target to be inferred from ops fired alongside it, so the
// token always attaches to the context chain puts on top, not to whatever
// was on top before the transition.
func (tb *treeBuilder) replay(tok *parce.Token, chain []*parce.Lexicon, pos int) {
	ops := diffChain(tb.chain, chain)
	tb.stack, _ = applyContextOps(tb.stack, ops)
	tb.chain = lexiconsOf(tb.stack)
	attach(tb.stack[len(tb.stack)-1], []lexer.Lexeme{tokenLexeme(tok, pos)})
}

// transitionTo moves the stack to chain with no token attached. Rebuild
// uses this once, after replaying every token up through the restart point
// under its own pre-op ancestry, to bring the stack the rest of the way to
// the post-op chain the resumed lexer actually starts from.
func (tb *treeBuilder) transitionTo(chain []*parce.Lexicon) {
	ops := diffChain(tb.chain, chain)
	tb.stack, _ = applyContextOps(tb.stack, ops)
	tb.chain = lexiconsOf(tb.stack)
}

func lexiconsOf(stack []*parce.Context) []*parce.Lexicon {
	out := make([]*parce.Lexicon, len(stack))
	for i, c := range stack {
		out[i] = c.Lexicon
	}
	return out
}

func attach(ctx *parce.Context, lexemes []lexer.Lexeme) {
	for _, lm := range lexemes {
		ctx.Append(&parce.Token{Text: lm.Text, Pos: lm.Pos, Action: lm.Action, Group: lm.Group})
	}
}

// applyContextOps mutates a context stack the way parce.Apply mutates a
// plain lexicon stack, creating a fresh child Context per push (attached
// immediately to whatever is on top at that moment) and discarding each
// popped context if it ended up empty. It returns the new
// stack and the contexts created by push-kind ops, in op order, so the
// caller can redirect a consuming rule's lexemes into the right one.
func applyContextOps(stack []*parce.Context, ops []parce.TargetOp) ([]*parce.Context, []*parce.Context) {
	var pushed []*parce.Context
	for _, op := range ops {
		switch op.Kind {
		case parce.TargetNoop:
		case parce.TargetPushCurrent:
			top := stack[len(stack)-1]
			nc := parce.NewContext(top.Lexicon, top)
			top.Append(nc)
			stack = append(stack, nc)
			pushed = append(pushed, nc)
		case parce.TargetPop:
			n := op.N
			if n > len(stack)-1 {
				n = len(stack) - 1
			}
			for i := 0; i < n; i++ {
				popped := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				popped.DiscardIfEmpty()
			}
		case parce.TargetPush:
			top := stack[len(stack)-1]
			nc := parce.NewContext(op.Lexicon, top)
			top.Append(nc)
			stack = append(stack, nc)
			pushed = append(pushed, nc)
		}
	}
	return stack, pushed
}

// consumingPushSlot returns the index, among this step's push-kind ops, of
// the one whose lexicon should receive the triggering lexemes (the last
// such push with Consume() true), or -1 if none does. A TargetPushCurrent's
// consume-ness is approximated from cur0's own lexicon, since "current" at
// that point in a multi-op target is whatever cur0 is — exact for the
// overwhelmingly common case of a single push per rule, documented as a
// simplification for the rarer multi-push target (DESIGN.md).
func consumingPushSlot(cur0 *parce.Context, ops []parce.TargetOp) int {
	slot, idx := -1, -1
	for _, op := range ops {
		switch op.Kind {
		case parce.TargetPushCurrent:
			idx++
			if cur0.Lexicon.Consume() {
				slot = idx
			}
		case parce.TargetPush:
			idx++
			if op.Lexicon.Consume() {
				slot = idx
			}
		}
	}
	return slot
}
