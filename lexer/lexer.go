// Package lexer runs a stack machine: a stack of active lexicons, a
// current position, and a step function that turns matches (and the gaps
// between them) into Events.
//
// The stack-of-lexicons state and push(n)/pop(n)/push(Lexicon) target
// semantics are grounded on alecthomas-participle's
// lexer/stateful/stateful.go (Lexer.stack []lexerState, ActionPush /
// ActionPop / Include), generalized from single push/pop to parce's signed
// integer target. The pull-based iterator shape — one Next() per call,
// internally looping over non-emitting steps (defaults, pops, forced
// advances) — is grounded on tamurashingo-chroma/regexp.go's
// LexerState.Iterator closure-based generator.
package lexer

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/opencodelex/parce"
	"github.com/opencodelex/parce/regex"
)

// Lexeme is one (pos, text, action) event payload element. Group mirrors
// Token.Group for ByGroup fan-out.
type Lexeme struct {
	Pos    int
	Text   string
	Action interface{}
	Group  int
}

// Event is one step of the lexer: the lexemes produced (possibly none, for
// a pure stack mutation) and the target applied, if the firing rule had one.
type Event struct {
	Lexemes   []Lexeme
	Ops       []parce.TargetOp
	HasTarget bool
}

// cycleBound is the bounded revisit count before a DEFAULT_TARGET chain
// that never advances pos is broken by forcing a one-character advance.
// Chosen generously: legitimate grammars rarely chain more than a handful
// of default-target hops at one position.
const cycleBound = 64

// Lexer is a single run of the stack machine over a fixed Stack and Text,
// starting at Pos (callers resuming a restart point set these directly;
// New is the common case of starting fresh at 0).
type Lexer struct {
	Stack []*parce.Lexicon
	Text  string
	Pos   int

	// Errors accumulates LexErrors from skipped rule/default-action
	// evaluation failures: never fatal, always recorded.
	Errors []*parce.LexError

	samePos   int
	cycleHits int
}

// New starts a lexer at the beginning of text with root as the sole stack
// entry.
func New(root *parce.Lexicon, text string) *Lexer {
	return &Lexer{Stack: []*parce.Lexicon{root}, Text: text}
}

// Resume starts a lexer at pos with an existing stack (the builder's
// restart-point replay).
func Resume(stack []*parce.Lexicon, text string, pos int) *Lexer {
	return &Lexer{Stack: slices.Clone(stack), Text: text, Pos: pos}
}

// Next produces the next Event, or ok=false at end of input. err is a
// *parce.GrammarError when a lexicon failed to compile, or a wrapped error
// from the regex engine's search; every other failure is recorded in
// Errors and handled internally by skipping ahead.
func (lx *Lexer) Next() (Event, bool, error) {
	for {
		if lx.Pos >= len(lx.Text) {
			return Event{}, false, nil
		}
		top := lx.Stack[len(lx.Stack)-1]
		alt, err := top.Compiled()
		if err != nil {
			return Event{}, false, err
		}

		if !alt.Empty() {
			m, err := alt.FindAt(lx.Text, lx.Pos)
			if err != nil {
				return Event{}, false, fmt.Errorf("lexer: %w", err)
			}
			if m != nil {
				ev, lerr := lx.fire(top, m)
				if lerr != nil {
					lx.Errors = append(lx.Errors, lerr)
					lx.Pos++ // skip the offending rule's match, advance minimally
					lx.resetCycle()
					continue
				}
				lx.resetCycle()
				return ev, true, nil
			}
		}

		if dt := top.DefaultTarget(); dt != nil {
			if lx.bumpCycle() {
				lx.Pos++
				continue
			}
			flat, err := parce.EvalTargets(dt, "", []string{""}, top.Arg)
			if err != nil {
				lx.Errors = append(lx.Errors, parce.NewLexError(top.String(), lx.Pos, err))
				lx.Pos++
				lx.resetCycle()
				continue
			}
			ops := parce.ExpandTarget(flat)
			lx.Stack = parce.Apply(lx.Stack, ops)
			return Event{Ops: ops, HasTarget: true}, true, nil
		}

		if len(lx.Stack) > 1 {
			lx.Stack = lx.Stack[:len(lx.Stack)-1]
			return Event{Ops: []parce.TargetOp{{Kind: parce.TargetPop, N: 1}}, HasTarget: true}, true, nil
		}

		lx.Pos++
		lx.resetCycle()
	}
}

func (lx *Lexer) bumpCycle() bool {
	if lx.samePos == lx.Pos {
		lx.cycleHits++
	} else {
		lx.samePos = lx.Pos
		lx.cycleHits = 1
	}
	return lx.cycleHits > cycleBound
}

func (lx *Lexer) resetCycle() { lx.cycleHits = 0 }

// fire evaluates the rule that matched m, returning the Event it produces.
// A non-nil error is a LexError: the caller skips this match entirely.
func (lx *Lexer) fire(top *parce.Lexicon, m *regex.Match) (Event, *parce.LexError) {
	rule, _ := top.Rule(m.RuleIndex)

	var lexemes []Lexeme
	if m.Start > lx.Pos {
		if da := top.DefaultAction(); da != nil {
			gap := lx.Text[lx.Pos:m.Start]
			act, err := parce.EvalAction(da, gap, []string{gap}, top.Arg)
			if err != nil {
				lx.Errors = append(lx.Errors, parce.NewLexError(top.String(), lx.Pos, err))
			} else if act != parce.Skip {
				lexemes = append(lexemes, Lexeme{Pos: lx.Pos, Text: gap, Action: act})
			}
		}
	}

	action, err := parce.EvalAction(rule.Action, m.Groups[0], m.Groups, top.Arg)
	if err != nil {
		return Event{}, parce.NewLexError(top.String(), m.Start, err)
	}
	switch {
	case action == parce.Skip:
		// no lexeme, target still applies
	case parce.IsByGroup(action):
		toks, err := parce.EmitGroupTokens(action, m.Groups, m.GroupStarts, top.Arg)
		if err != nil {
			return Event{}, parce.NewLexError(top.String(), m.Start, err)
		}
		for _, t := range toks {
			lexemes = append(lexemes, Lexeme{Pos: t.Pos, Text: t.Text, Action: t.Action, Group: t.Group})
		}
	default:
		lexemes = append(lexemes, Lexeme{Pos: m.Start, Text: m.Groups[0], Action: action})
	}

	flat, err := parce.EvalTargets(rule.Targets, m.Groups[0], m.Groups, top.Arg)
	if err != nil {
		return Event{}, parce.NewLexError(top.String(), m.Start, err)
	}
	ops := parce.ExpandTarget(flat)
	lx.Stack = parce.Apply(lx.Stack, ops)
	lx.Pos = m.End

	return Event{Lexemes: lexemes, Ops: ops, HasTarget: len(rule.Targets) > 0}, nil
}
