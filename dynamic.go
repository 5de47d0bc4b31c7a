package parce

import "fmt"

// Item is a dynamic rule item: a small tagged-union AST evaluated against a
// regex match to produce a pattern, an action, or a target: Text, Match,
// MatchIndex(n), Arg, Call(fn, args), Select(index, items), plus a Literal
// wrapper for static values mixed into a dynamic sequence.
//
// Evaluation happens eagerly at rule-fire time (match-time items) or at
// lexicon-compile time (pattern items, which may only reference Arg: TEXT
// and MATCH are undefined before a match exists).
type Item interface {
	eval(ctx *evalContext) (interface{}, error)
}

type evalPhase int

const (
	phasePattern evalPhase = iota // compiling a lexicon; only ARG is defined
	phaseMatch                    // a rule just matched; TEXT/MATCH/ARG all defined
)

type evalContext struct {
	phase evalPhase
	text  string   // TEXT: m[0]
	match []string // MATCH: full group list, match[0] == text
	arg   interface{}
}

func (c *evalContext) requireMatch(what string) error {
	if c.phase != phaseMatch {
		return fmt.Errorf("%s is not available while compiling a pattern (no match yet)", what)
	}
	return nil
}

// literalItem wraps a plain Go value (string, int, *Lexicon, Action, a
// []interface{} of further items, ...) so it can sit alongside dynamic
// Items in the same slice.
type literalItem struct{ v interface{} }

func (l literalItem) eval(*evalContext) (interface{}, error) { return l.v, nil }

// toItem lifts a raw value into an Item, leaving Items untouched.
func toItem(v interface{}) Item {
	if it, ok := v.(Item); ok {
		return it
	}
	return literalItem{v}
}

func toItems(vs []interface{}) []Item {
	items := make([]Item, len(vs))
	for i, v := range vs {
		items[i] = toItem(v)
	}
	return items
}

type textItem struct{}

// Text evaluates to the full matched text (TEXT, i.e. m[0]).
func Text() Item { return textItem{} }

func (textItem) eval(ctx *evalContext) (interface{}, error) {
	if err := ctx.requireMatch("TEXT"); err != nil {
		return nil, err
	}
	return ctx.text, nil
}

type matchItem struct{}

// Match evaluates to the full group list of the match (MATCH).
func Match() Item { return matchItem{} }

func (matchItem) eval(ctx *evalContext) (interface{}, error) {
	if err := ctx.requireMatch("MATCH"); err != nil {
		return nil, err
	}
	return append([]string(nil), ctx.match...), nil
}

type matchIndexItem struct{ n int }

// MatchIndex evaluates to the n'th capture group of the match (MATCH[n]).
// An out-of-range or non-participating group evaluates to "".
func MatchIndex(n int) Item { return matchIndexItem{n} }

func (m matchIndexItem) eval(ctx *evalContext) (interface{}, error) {
	if err := ctx.requireMatch("MATCH[n]"); err != nil {
		return nil, err
	}
	if m.n < 0 || m.n >= len(ctx.match) {
		return "", nil
	}
	return ctx.match[m.n], nil
}

type argItem struct{}

// Arg evaluates to the enclosing lexicon's derived-lexicon argument (ARG).
func Arg() Item { return argItem{} }

func (argItem) eval(ctx *evalContext) (interface{}, error) { return ctx.arg, nil }

type callItem struct {
	fn   func(args ...interface{}) (interface{}, error)
	args []Item
}

// Call evaluates each of args, then invokes fn with the evaluated values.
func Call(fn func(args ...interface{}) (interface{}, error), args ...interface{}) Item {
	return callItem{fn: fn, args: toItems(args)}
}

func (c callItem) eval(ctx *evalContext) (interface{}, error) {
	args := make([]interface{}, len(c.args))
	for i, a := range c.args {
		v, err := a.eval(ctx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return c.fn(args...)
}

type selectItem struct {
	index Item
	items []Item
}

// Select evaluates index, then evaluates and returns items[index]. index
// must evaluate to an int in range, otherwise evaluation fails and the
// enclosing rule is skipped for this match.
func Select(index interface{}, items ...interface{}) Item {
	return selectItem{index: toItem(index), items: toItems(items)}
}

func (s selectItem) eval(ctx *evalContext) (interface{}, error) {
	iv, err := s.index.eval(ctx)
	if err != nil {
		return nil, err
	}
	i, ok := iv.(int)
	if !ok || i < 0 || i >= len(s.items) {
		return nil, fmt.Errorf("select: index %v out of range for %d items", iv, len(s.items))
	}
	return s.items[i].eval(ctx)
}

// flatten reduces a possibly-nested evaluated value into a flat slice,
// unwrapping []interface{} results produced by Select/Call returning a
// list. Rule targets, in particular, are always flattened this way.
func flatten(v interface{}) []interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case []interface{}:
		var out []interface{}
		for _, e := range t {
			out = append(out, flatten(e)...)
		}
		return out
	default:
		return []interface{}{v}
	}
}

func evalFlatten(items []Item, ctx *evalContext) ([]interface{}, error) {
	var out []interface{}
	for _, it := range items {
		v, err := it.eval(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, flatten(v)...)
	}
	return out, nil
}
