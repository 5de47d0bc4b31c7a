package parce

// TargetKind distinguishes the four effects a resolved target step can have
// on the lexicon stack.
type TargetKind int

const (
	// TargetNoop does nothing (an evaluated 0).
	TargetNoop TargetKind = iota
	// TargetPushCurrent pushes a copy of whatever lexicon is on top of the
	// stack at application time (an evaluated positive int, repeated n
	// times — "push current n times").
	TargetPushCurrent
	// TargetPop pops N levels, never past the root.
	TargetPop
	// TargetPush pushes a specific lexicon.
	TargetPush
)

// TargetOp is one step of a resolved, expanded target: the flattened
// int|*Lexicon sequence, turned into a form the lexer can apply directly
// to its stack without re-interpreting integers.
type TargetOp struct {
	Kind    TargetKind
	N       int // pop count, for TargetPop
	Lexicon *Lexicon
}

// ExpandTarget turns an already-flattened, already-validated target sequence
// (as returned by evalTargets) into the ops the lexer applies in order. A
// positive int n expands into n TargetPushCurrent ops since "current" is
// only known once earlier ops in the same sequence have been applied.
func ExpandTarget(flat []interface{}) []TargetOp {
	var ops []TargetOp
	for _, v := range flat {
		switch t := v.(type) {
		case int:
			switch {
			case t > 0:
				for i := 0; i < t; i++ {
					ops = append(ops, TargetOp{Kind: TargetPushCurrent})
				}
			case t < 0:
				ops = append(ops, TargetOp{Kind: TargetPop, N: -t})
			default:
				ops = append(ops, TargetOp{Kind: TargetNoop})
			}
		case *Lexicon:
			ops = append(ops, TargetOp{Kind: TargetPush, Lexicon: t})
		}
	}
	return ops
}

// Apply runs ops against stack (bottom = root, stack[0]), returning the new
// stack. It never pops the root: a TargetPop that would empty the stack
// truncates to length 1 instead. Safe to call with a nil stack only if ops
// contains no TargetPop/TargetPushCurrent (there is no "current" to push).
func Apply(stack []*Lexicon, ops []TargetOp) []*Lexicon {
	for _, op := range ops {
		switch op.Kind {
		case TargetNoop:
		case TargetPushCurrent:
			if len(stack) > 0 {
				stack = append(stack, stack[len(stack)-1])
			}
		case TargetPop:
			n := op.N
			if n > len(stack)-1 {
				n = len(stack) - 1
			}
			stack = stack[:len(stack)-n]
		case TargetPush:
			stack = append(stack, op.Lexicon)
		}
	}
	return stack
}
