package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencodelex/parce"
)

func drain(t *testing.T, lx *Lexer) []Event {
	t.Helper()
	var evs []Event
	for {
		ev, ok, err := lx.Next()
		require.NoError(t, err)
		if !ok {
			return evs
		}
		evs = append(evs, ev)
	}
}

func TestNextEmitsOneLexemePerMatch(t *testing.T) {
	lang := parce.NewLanguage("test")
	root := lang.Define("root", func() parce.LexiconDef {
		return parce.LexiconDef{Rules: []parce.Rule{
			{Pattern: `\d+`, Action: "Number"},
			{Pattern: `\s+`, Action: parce.Skip},
			{Pattern: `\w+`, Action: "Word"},
		}}
	})

	lx := New(root, "42 abc")
	evs := drain(t, lx)

	var lexemes []Lexeme
	for _, ev := range evs {
		lexemes = append(lexemes, ev.Lexemes...)
	}
	require.Len(t, lexemes, 2)
	require.Equal(t, Lexeme{Pos: 0, Text: "42", Action: "Number"}, lexemes[0])
	require.Equal(t, Lexeme{Pos: 3, Text: "abc", Action: "Word"}, lexemes[1])
}

func TestDefaultActionFillsGapBeforeMatch(t *testing.T) {
	lang := parce.NewLanguage("test")
	root := lang.Define("root", func() parce.LexiconDef {
		return parce.LexiconDef{
			Rules:         []parce.Rule{{Pattern: `the`, Action: "Keyword"}},
			DefaultAction: "Text",
		}
	})

	lx := New(root, "xx the yy")
	evs := drain(t, lx)

	var lexemes []Lexeme
	for _, ev := range evs {
		lexemes = append(lexemes, ev.Lexemes...)
	}
	require.Equal(t, []Lexeme{
		{Pos: 0, Text: "xx ", Action: "Text"},
		{Pos: 3, Text: "the", Action: "Keyword"},
	}, lexemes)
}

func TestByGroupFansOutMultipleLexemes(t *testing.T) {
	lang := parce.NewLanguage("test")
	root := lang.Define("root", func() parce.LexiconDef {
		return parce.LexiconDef{Rules: []parce.Rule{
			{Pattern: `(\d+)-(\w+)`, Action: parce.ByGroup("Number", "Word")},
		}}
	})

	lx := New(root, "42-abc")
	evs := drain(t, lx)
	require.Len(t, evs, 1)
	require.Len(t, evs[0].Lexemes, 2)

	require.Equal(t, "42", evs[0].Lexemes[0].Text)
	require.Equal(t, "Number", evs[0].Lexemes[0].Action)
	require.Equal(t, 1, evs[0].Lexemes[0].Group)

	require.Equal(t, "abc", evs[0].Lexemes[1].Text)
	require.Equal(t, "Word", evs[0].Lexemes[1].Action)
	require.Equal(t, -2, evs[0].Lexemes[1].Group)
}

func TestRuleTargetPushesChildLexicon(t *testing.T) {
	lang := parce.NewLanguage("test")
	var str *parce.Lexicon
	root := lang.Define("root", func() parce.LexiconDef {
		return parce.LexiconDef{Rules: []parce.Rule{
			{Pattern: `"`, Action: "Quote", Targets: []interface{}{str}},
		}}
	})
	str = lang.Define("string", func() parce.LexiconDef {
		return parce.LexiconDef{
			Rules:         []parce.Rule{{Pattern: `"`, Action: "Quote", Targets: []interface{}{-1}}},
			DefaultAction: "Char",
		}
	})

	lx := New(root, `"hi"`)
	evs := drain(t, lx)

	require.Len(t, lx.Stack, 1) // popped back to root by end
	var texts []string
	for _, ev := range evs {
		for _, l := range ev.Lexemes {
			texts = append(texts, l.Text)
		}
	}
	require.Equal(t, []string{`"`, "hi", `"`}, texts)
}

func TestImplicitPopOnNoMatchWithNestedStack(t *testing.T) {
	lang := parce.NewLanguage("test")
	var inner *parce.Lexicon
	root := lang.Define("root", func() parce.LexiconDef {
		return parce.LexiconDef{Rules: []parce.Rule{
			{Pattern: `\(`, Action: "Open", Targets: []interface{}{inner}},
			{Pattern: `\)`, Action: "Close"},
		}}
	})
	// inner has no rule for ")" and no DEFAULT_TARGET/DEFAULT_ACTION: a char
	// that matches nothing forces an implicit pop back to root. inner
	// is assigned after root's builder closure is formed but before root is
	// ever compiled, the same forward-reference shape grammars/nonsense uses.
	inner = lang.Define("inner", func() parce.LexiconDef {
		return parce.LexiconDef{Rules: []parce.Rule{{Pattern: `x`, Action: "X"}}}
	})

	lx := New(root, "(x)")
	evs := drain(t, lx)

	var kinds []string
	for _, ev := range evs {
		for _, l := range ev.Lexemes {
			kinds = append(kinds, l.Text)
		}
	}
	require.Equal(t, []string{"(", "x", ")"}, kinds)
	require.Len(t, lx.Stack, 1)
}

func TestDefaultTargetCycleIsBoundedAndForcesAdvance(t *testing.T) {
	lang := parce.NewLanguage("test")
	root := lang.Define("root", func() parce.LexiconDef {
		return parce.LexiconDef{
			DefaultTarget: []interface{}{0}, // a no-op target: never advances pos on its own
		}
	})

	lx := New(root, "zzzz")
	evs := drain(t, lx)
	// every iteration is a no-op target application until the cycle bound
	// forces lx.Pos++, eventually consuming all 4 bytes.
	require.NotEmpty(t, evs)
	require.Equal(t, 4, lx.Pos)
}

func TestResumeStartsAtGivenPosWithClonedStack(t *testing.T) {
	lang := parce.NewLanguage("test")
	root := lang.Define("root", func() parce.LexiconDef {
		return parce.LexiconDef{Rules: []parce.Rule{{Pattern: `\w+`, Action: "Word"}}}
	})
	stack := []*parce.Lexicon{root}
	lx := Resume(stack, "abc def", 4)

	ev, ok, err := lx.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "def", ev.Lexemes[0].Text)

	// mutating the resumed lexer's stack must not affect the caller's slice
	lx.Stack = append(lx.Stack, root)
	require.Len(t, stack, 1)
}
