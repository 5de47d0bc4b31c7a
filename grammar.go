package parce

import (
	"fmt"
	"regexp"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/opencodelex/parce/regex"
)

// Skip is the action sentinel meaning "no token". A rule whose action
// evaluates to Skip still applies its target.
var Skip = skipMarker{}

type skipMarker struct{}

// Language is a namespace grouping lexicons. It is never instantiated for
// lexing directly; it only holds lexicon templates and the derived-lexicon
// cache keyed by (Language, name, arg). There is no subclass mechanism: a
// Language is one shared template map. Calling Define again for a name that
// already has a Lexicon leaves that non-derived Lexicon on its first
// builder; only derived instances created afterwards use the new builder.
type Language struct {
	Name string

	mu        sync.Mutex
	templates map[string]LexiconBuilder
	instances sync.Map // derivedKey -> *Lexicon
}

// LexiconDef is everything a lexicon template supplies besides its identity.
// ReFlags and Consume are static per lexicon name (they do not vary with
// Arg); Rules, DefaultAction and DefaultTarget may reference Arg() to
// specialize per derived instance.
type LexiconDef struct {
	Rules         []Rule
	ReFlags       regex.Flags
	Consume       bool
	DefaultAction interface{} // nil, Skip, an opaque action, a byGroupAction, or an Item
	DefaultTarget []interface{}
}

// LexiconBuilder produces the static definition of a lexicon. The same
// builder is reused for every derived instance (every Arg value); per-arg
// variance is expressed inside the builder via Arg().
type LexiconBuilder func() LexiconDef

type derivedKey struct {
	name string
	arg  interface{}
}

// NewLanguage creates an empty namespace.
func NewLanguage(name string) *Language {
	return &Language{Name: name, templates: map[string]LexiconBuilder{}}
}

// Define registers name's builder and returns its non-derived (Arg == nil)
// Lexicon. Call Define while constructing a Language, before any lexicon
// referencing name by name is compiled.
func (l *Language) Define(name string, build LexiconBuilder) *Lexicon {
	l.mu.Lock()
	l.templates[name] = build
	l.mu.Unlock()
	return l.Get(name, nil)
}

// Get returns the cached Lexicon for (name, arg), creating it if this is the
// first request for that identity. arg must be comparable; Get panics on
// an uncomparable arg the same way a Go map index would.
func (l *Language) Get(name string, arg interface{}) *Lexicon {
	key := derivedKey{name, arg}
	if v, ok := l.instances.Load(key); ok {
		return v.(*Lexicon)
	}
	l.mu.Lock()
	build, ok := l.templates[name]
	l.mu.Unlock()
	lex := &Lexicon{language: l, Name: name, Arg: arg, build: build, known: ok}
	v, _ := l.instances.LoadOrStore(key, lex)
	return v.(*Lexicon)
}

// Derived is Get with an explicit, more readable name at call sites that
// construct a parameterized lexicon from a dynamic target.
func (l *Language) Derived(name string, arg interface{}) *Lexicon { return l.Get(name, arg) }

// Names returns every lexicon name defined on l, sorted — for callers and
// tests that need deterministic iteration over what would otherwise be an
// unordered map.
func (l *Language) Names() []string {
	l.mu.Lock()
	names := maps.Keys(l.templates)
	l.mu.Unlock()
	slices.Sort(names)
	return names
}

// Lexicon is a named, lazily-compiled ordered set of rules. Use
// Language.Define/Get/Derived to obtain one; the zero value is not useful.
type Lexicon struct {
	language *Language
	Name     string
	Arg      interface{}
	build    LexiconBuilder
	known    bool

	once          sync.Once
	compileErr    error
	rules         []Rule
	reFlags       regex.Flags
	consume       bool
	defaultAction interface{}
	defaultTarget []interface{}
	alt           *regex.Alternation
	compiledToRule []int // compiled rule index -> index into rules
}

// String identifies the lexicon as "Language.name" or "Language.name(arg)"
// for derived instances, matching the (Language, name, arg) identity.
func (lex *Lexicon) String() string {
	if lex.Arg == nil {
		return lex.language.Name + "." + lex.Name
	}
	return lex.language.Name + "." + lex.Name + derivedSuffix(lex.Arg)
}

func derivedSuffix(arg interface{}) string { return "(" + stringifyArg(arg) + ")" }

func stringifyArg(arg interface{}) string {
	if s, ok := arg.(string); ok {
		return s
	}
	return regexp.MustCompile(`\s+`).ReplaceAllString(stringifyAny(arg), " ")
}

func stringifyAny(v interface{}) string {
	type stringer interface{ String() string }
	if s, ok := v.(stringer); ok {
		return s.String()
	}
	return "?"
}

// Language returns the lexicon's owning namespace.
func (lex *Lexicon) Language() *Language { return lex.language }

// Consume reports whether tokens produced by the rule that pushed this
// lexicon are attributed to it rather than to the pushing context.
func (lex *Lexicon) Consume() bool { lex.compile(); return lex.consume }

// Compiled forces compilation (a GrammarError compile failure surfaces
// here, the one place it is allowed to raise) and returns the compiled
// alternation to search against.
func (lex *Lexicon) Compiled() (*regex.Alternation, error) {
	if err := lex.compile(); err != nil {
		return nil, err
	}
	return lex.alt, nil
}

// Rule returns the original Rule at ruleIndex and its index, translating a
// regex.Match.RuleIndex (a position in the compiled, omitted-rules-skipped
// pattern list) back to the authored rule.
func (lex *Lexicon) Rule(compiledIndex int) (Rule, int) {
	i := lex.compiledToRule[compiledIndex]
	return lex.rules[i], i
}

// DefaultAction returns the lexicon's DEFAULT_ACTION (nil if none).
func (lex *Lexicon) DefaultAction() interface{} { lex.compile(); return lex.defaultAction }

// DefaultTarget returns the lexicon's DEFAULT_TARGET (nil if none).
func (lex *Lexicon) DefaultTarget() []interface{} { lex.compile(); return lex.defaultTarget }

// compile lazily builds lex.rules and lex.alt exactly once; safe to call
// repeatedly and concurrently.
func (lex *Lexicon) compile() error {
	lex.once.Do(func() {
		if !lex.known {
			lex.compileErr = grammarErrorID(lex.Name, -1, "grammar.unknown_lexicon",
				"unknown lexicon", "Name", lex.Name)
			return
		}
		def := lex.build()
		lex.rules = def.Rules
		lex.reFlags = def.ReFlags
		lex.consume = def.Consume
		lex.defaultAction = def.DefaultAction
		lex.defaultTarget = def.DefaultTarget
		if lex.defaultAction != nil && lex.defaultTarget != nil {
			lex.compileErr = grammarErrorID(lex.Name, -1, "grammar.both_default",
				"lexicon declares both DEFAULT_ACTION and DEFAULT_TARGET", "Name", lex.Name)
			return
		}

		patterns := make([]string, 0, len(lex.rules))
		lex.compiledToRule = make([]int, 0, len(lex.rules))
		pctx := &evalContext{phase: phasePattern, arg: lex.Arg}
		for i, r := range lex.rules {
			pat, omit, err := resolvePattern(r.Pattern, pctx)
			if err != nil {
				lex.compileErr = grammarErrorID(lex.Name, i, "grammar.bad_pattern",
					fmt.Sprintf("pattern: %v", err), "Name", lex.Name, "Rule", i, "Err", err)
				return
			}
			if omit {
				continue // pattern is nil, or a dynamic item that evaluated to nil
			}
			patterns = append(patterns, pat)
			lex.compiledToRule = append(lex.compiledToRule, i)
		}
		alt, err := regex.Compile(patterns, lex.reFlags)
		if err != nil {
			lex.compileErr = grammarErrorID(lex.Name, -1, "grammar.compile_failed",
				fmt.Sprintf("compile: %v", err), "Name", lex.Name, "Err", err)
			return
		}
		lex.alt = alt
	})
	return lex.compileErr
}

// resolvePattern evaluates a rule's pattern at lexicon-compile time. A nil
// Pattern (or one whose dynamic item evaluates to nil) means the rule is
// omitted.
func resolvePattern(pattern interface{}, ctx *evalContext) (s string, omit bool, err error) {
	if pattern == nil {
		return "", true, nil
	}
	v, err := toItem(pattern).eval(ctx)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", true, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, grammarErrorID("", -1, "grammar.bad_pattern_type",
			fmt.Sprintf("pattern must evaluate to a string, got %T", v), "Type", fmt.Sprintf("%T", v))
	}
	return s, false, nil
}

// Rule is the (pattern, action, targets) triple.
type Rule struct {
	Pattern interface{} // string, an Item evaluating to string|nil, or nil
	Action  interface{} // Skip, an opaque value, a byGroupAction, or an Item
	Targets []interface{}
}

// ByGroup builds a per-group dynamic action: when the owning rule fires, one
// token is emitted per non-empty numbered capture group, in group order,
// each carrying the corresponding element of actions (grounded on
// chroma's ByGroups emitter).
func ByGroup(actions ...interface{}) interface{} {
	return byGroupAction{toItems(actions)}
}

type byGroupAction struct{ perGroup []Item }

// WordSet returns a pattern matching any of words as a whole alternative,
// longest first so prefixes don't shadow longer words, each individually
// escaped (grounded on tamurashingo-chroma/regexp.go's Words()).
func WordSet(words ...string) string {
	sorted := append([]string(nil), words...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && len(sorted[j]) > len(sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	out := ""
	for i, w := range sorted {
		if i > 0 {
			out += "|"
		}
		out += regexp.QuoteMeta(w)
	}
	return out
}

// CharSet returns a character-class pattern "[chars]" with chars escaped for
// use inside a class.
func CharSet(chars string) string {
	esc := regexp.MustCompile(`([\]\\^-])`).ReplaceAllString(chars, `\$1`)
	return "[" + esc + "]"
}

// EvalAction resolves a fired rule's Action against its match: text is the
// whole match (TEXT), groups its capture groups (MATCH, with groups[0] ==
// text), arg the enclosing lexicon's Arg. The result is Skip, a ByGroup
// action (see IsByGroup/EmitGroupTokens), or an opaque value.
func EvalAction(action interface{}, text string, groups []string, arg interface{}) (interface{}, error) {
	ctx := &evalContext{phase: phaseMatch, text: text, match: groups, arg: arg}
	return toItem(action).eval(ctx)
}

// EvalTargets resolves a fired rule's Targets against its match, returning
// the flattened int|*Lexicon sequence ExpandTarget consumes.
func EvalTargets(targets []interface{}, text string, groups []string, arg interface{}) ([]interface{}, error) {
	ctx := &evalContext{phase: phaseMatch, text: text, match: groups, arg: arg}
	return evalTargets(targets, ctx)
}

// evalTargets resolves a rule's Targets to a flat sequence of int|*Lexicon.
func evalTargets(targets []interface{}, ctx *evalContext) ([]interface{}, error) {
	flat, err := evalFlatten(toItems(targets), ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range flat {
		switch v.(type) {
		case int, *Lexicon:
		default:
			return nil, grammarErrorID("", -1, "grammar.bad_target_type",
				fmt.Sprintf("target must be int or *Lexicon, got %T", v), "Type", fmt.Sprintf("%T", v))
		}
	}
	return flat, nil
}
