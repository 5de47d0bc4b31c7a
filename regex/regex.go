// Package regex compiles a lexicon's rule patterns into a single logical
// alternation, and runs the "find the next match at or after position p"
// search the lexer needs.
//
// It is built on github.com/dlclark/regexp2 rather than stdlib regexp:
// parce grammars lean on lookbehind/lookahead and backreferences the same
// way participle's lexer/stateful/pattern.go anticipates ("getPattern"'s
// backref substitution), which Go's RE2-based stdlib regexp cannot express.
//
// regexp2 gives no API to learn, ahead of time, how many alternatives in a
// combined pattern fired or which one did (unlike stdlib's SubexpNames).
// Rather than fight that, Alternation keeps each rule's pattern as its own
// independently compiled *regexp2.Regexp — one alternation realized as N
// automata evaluated at the same position — and picks the earliest,
// tie-broken by declaration order — the same external behavior a single
// combined NFA would produce, grounded on tamurashingo-chroma's
// regexp.go, whose matchRules tries each CompiledRule.Regexp in turn.
package regex

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// Flags configures per-lexicon regex compile-time options.
type Flags struct {
	IgnoreCase bool
	Multiline  bool
	DotAll     bool // "." matches newline too
}

func (f Flags) options() regexp2.RegexOptions {
	opts := regexp2.None
	if f.IgnoreCase {
		opts |= regexp2.IgnoreCase
	}
	if f.Multiline {
		opts |= regexp2.Multiline
	}
	if f.DotAll {
		opts |= regexp2.Singleline // regexp2's "Singleline" is .NET's RegexOptions.Singleline: "." matches \n
	}
	return opts
}

type compiledRule struct {
	index int // original rule index within the lexicon
	re    *regexp2.Regexp
}

// Alternation is a lexicon's compiled rule set: an ordered list of
// independently-compiled rule patterns, searched together as one logical
// alternation (see package doc).
type Alternation struct {
	rules []compiledRule
}

// Compile builds an Alternation from patterns, compiling every entry in
// order, so a Match's RuleIndex is the entry's position in patterns.
// Omitted dynamic-pattern rules never reach here: grammar.go drops them
// before calling Compile and maps RuleIndex back to its own rule list
// with bookkeeping it keeps itself.
func Compile(patterns []string, flags Flags) (*Alternation, error) {
	opts := flags.options()
	a := &Alternation{rules: make([]compiledRule, 0, len(patterns))}
	for i, p := range patterns {
		re, err := regexp2.Compile(p, opts)
		if err != nil {
			return nil, fmt.Errorf("pattern %d (%q): %w", i, p, err)
		}
		a.rules = append(a.rules, compiledRule{index: i, re: re})
	}
	return a, nil
}

// Match is one successful rule firing: which rule (by its position in the
// slice passed to Compile), where it matched, and its capture groups.
type Match struct {
	RuleIndex int
	Start     int
	End       int
	// Groups holds each capture group's text, Groups[0] is the whole
	// match. GroupStarts holds matching absolute start offsets, -1 for a
	// group that did not participate (needed to position ByGroup tokens).
	Groups      []string
	GroupStarts []int
}

// FindAt returns the earliest match, across every compiled rule, starting
// at or after pos — a walk-forward search for the next match from a given
// position — or nil if no rule matches again before the end of text. Ties
// (two rules matching at the same start) are
// broken by declaration order: the rule that appeared earlier in the
// lexicon wins, matching priority semantics.
func (a *Alternation) FindAt(text string, pos int) (*Match, error) {
	var best *Match
	for _, r := range a.rules {
		m, err := r.re.FindStringMatchStartingAt(text, pos)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", r.index, err)
		}
		if m == nil {
			continue
		}
		start := m.Index
		if best != nil && start >= best.Start {
			continue
		}
		groups := m.Groups()
		texts := make([]string, len(groups))
		starts := make([]int, len(groups))
		for i, g := range groups {
			if len(g.Captures) == 0 {
				starts[i] = -1
				continue
			}
			texts[i] = g.String()
			starts[i] = g.Captures[0].Index
		}
		best = &Match{
			RuleIndex:   r.index,
			Start:       start,
			End:         start + m.Length,
			Groups:      texts,
			GroupStarts: starts,
		}
	}
	return best, nil
}

// Empty reports whether the alternation has no rules at all (every rule's
// pattern evaluated to nil at compile time); such a lexicon never matches
// and every position falls through to DEFAULT_TARGET/pop/advance.
func (a *Alternation) Empty() bool { return len(a.rules) == 0 }
