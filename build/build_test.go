package build

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencodelex/parce"
	"github.com/opencodelex/parce/grammars/nonsense"
	"github.com/opencodelex/parce/internal/config"
)

func TestNewWithTuningUsesConfigValuesInsteadOfDefaults(t *testing.T) {
	lang := nonsense.New()
	b := NewWithTuning(nonsense.Root(lang), config.Tuning{StabilityWindow: 4, RestartMargin: 1})

	require.Equal(t, 4, b.K)
	require.Equal(t, 1, b.RestartMargin)
}

func tokenTexts(toks []*parce.Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

func TestBuildPlainTextTokens(t *testing.T) {
	lang := nonsense.New()
	b := New(nonsense.Root(lang))

	tree, err := b.Build(context.Background(), "ab 12 cd.")
	require.NoError(t, err)

	toks := tree.Tokens()
	require.Equal(t, []string{"ab", "12", "cd", "."}, tokenTexts(toks))
	require.Equal(t, []interface{}{nonsense.Text, nonsense.Number, nonsense.Text, nonsense.Delimiter},
		[]interface{}{toks[0].Action, toks[1].Action, toks[2].Action, toks[3].Action})
	require.Empty(t, b.OpenLexicons())
}

func TestBuildQuotedStringChildContext(t *testing.T) {
	lang := nonsense.New()
	b := New(nonsense.Root(lang))

	tree, err := b.Build(context.Background(), `"hi"`)
	require.NoError(t, err)

	require.Equal(t, 2, tree.Len())
	openQuote, ok := tree.Children()[0].(*parce.Token)
	require.True(t, ok)
	require.Equal(t, `"`, openQuote.Text)

	strCtx, ok := tree.Children()[1].(*parce.Context)
	require.True(t, ok)
	require.Equal(t, "nonsense.string", strCtx.Lexicon.String())
	require.Equal(t, []string{"hi", `"`}, tokenTexts(strCtx.Tokens()))
	require.Empty(t, b.OpenLexicons())
}

func TestBuildLeavesUnterminatedStringOpen(t *testing.T) {
	lang := nonsense.New()
	b := New(nonsense.Root(lang))

	// the opening quote is the very last byte of input, so the stack
	// machine suspends with "string" still pushed rather than ever
	// discovering "no closing quote exists anywhere" and popping back out.
	_, err := b.Build(context.Background(), `"`)
	require.NoError(t, err)
	require.Len(t, b.OpenLexicons(), 1)
	require.Equal(t, "nonsense.string", b.OpenLexicons()[0].String())
}

func TestRebuildClosesUnterminatedStringOnInsertion(t *testing.T) {
	lang := nonsense.New()
	b := New(nonsense.Root(lang))
	ctx := context.Background()

	_, err := b.Build(ctx, `"`)
	require.NoError(t, err)
	require.Len(t, b.OpenLexicons(), 1)

	tree, err := b.Rebuild(ctx, `"hi"`, Edit{Pos: 1, Removed: 0, Added: 3})
	require.NoError(t, err)
	require.Empty(t, b.OpenLexicons())

	require.Equal(t, 2, tree.Len())
	strCtx := tree.Children()[1].(*parce.Context)
	require.Equal(t, []string{"hi", `"`}, tokenTexts(strCtx.Tokens()))
}

func TestRebuildNoOpEditReturnsSameRootOnHashMatch(t *testing.T) {
	lang := nonsense.New()
	b := New(nonsense.Root(lang))
	ctx := context.Background()

	tree, err := b.Build(ctx, "ab cd")
	require.NoError(t, err)

	same, err := b.Rebuild(ctx, "ab cd", Edit{})
	require.NoError(t, err)
	require.Same(t, tree, same)
	require.Equal(t, 0, b.Start())
	require.Equal(t, 0, b.End())
}

// parenLanguage is a small inline grammar whose pushed "paren" lexicon
// tokenizes one character at a time, so a mid-span edit crosses several
// token boundaries and exercises the restart-point/suffix-reuse machinery
// rather than completing in a single token's gap-fill.
func parenLanguage() (*parce.Language, *parce.Lexicon) {
	lang := parce.NewLanguage("paren")
	var paren *parce.Lexicon
	root := lang.Define("root", func() parce.LexiconDef {
		return parce.LexiconDef{Rules: []parce.Rule{
			{Pattern: `\(`, Action: "Open", Targets: []interface{}{paren}},
		}}
	})
	paren = lang.Define("paren", func() parce.LexiconDef {
		return parce.LexiconDef{Rules: []parce.Rule{
			{Pattern: `[A-Za-z]`, Action: "Char"},
			{Pattern: `\)`, Action: "Close", Targets: []interface{}{-1}},
		}}
	})
	return lang, root
}

func TestRebuildUpdatesContainingContextEnd(t *testing.T) {
	_, root := parenLanguage()
	b := &Builder{Root: root, K: 1, RestartMargin: 0}
	ctx := context.Background()

	text := "(abcdefghij)"
	tree, err := b.Build(ctx, text)
	require.NoError(t, err)

	parenCtx := tree.Children()[1].(*parce.Context)
	require.Equal(t, len(text), parenCtx.End())

	edited := "(abcdXefghij)"
	tree2, err := b.Rebuild(ctx, edited, Edit{Pos: 5, Removed: 0, Added: 1})
	require.NoError(t, err)

	parenCtx2 := tree2.Children()[1].(*parce.Context)
	require.Equal(t, len(edited), parenCtx2.End())
	require.Equal(t, []string{"a", "b", "c", "d", "X", "e", "f", "g", "h", "i", "j", ")"},
		tokenTexts(parenCtx2.Tokens()))
}

// TestRebuildRestartOnOpeningDelimiterUsesPostOpChain exercises a restart
// point that, after subtracting the default RestartMargin, lands exactly on
// the "(" token itself. Resuming under "("'s own pre-op ancestry ([root])
// rather than the chain its push actually left behind ([root, paren]) would
// have the resumed lexer matching root's rules against the remainder — which
// never see another "(" — so it advances one byte at a time emitting
// nothing, and the whole unaffected suffix silently vanishes instead of
// being lexed into the new tree. (The old suffix here is shorter than the
// default K, so the correct rebuild relexes it rather than splicing it.)
func TestRebuildRestartOnOpeningDelimiterUsesPostOpChain(t *testing.T) {
	_, root := parenLanguage()
	b := New(root) // default RestartMargin (3) snaps the restart point onto index 0, the "(" token
	ctx := context.Background()

	text := "(abcdefghij)"
	_, err := b.Build(ctx, text)
	require.NoError(t, err)

	edited := "(abcXdefghij)"
	tree, err := b.Rebuild(ctx, edited, Edit{Pos: 4, Removed: 0, Added: 1})
	require.NoError(t, err)

	require.Equal(t, 2, tree.Len())
	parenCtx := tree.Children()[1].(*parce.Context)
	require.Equal(t, []string{"a", "b", "c", "X", "d", "e", "f", "g", "h", "i", "j", ")"},
		tokenTexts(parenCtx.Tokens()))
	require.Equal(t, len(edited), parenCtx.End())
	require.Empty(t, b.OpenLexicons())
}

func TestDefaultTargetPopsBackToRootWithoutAttachingEmptyContext(t *testing.T) {
	lang := parce.NewLanguage("comment")
	var comment *parce.Lexicon
	root := lang.Define("root", func() parce.LexiconDef {
		return parce.LexiconDef{Rules: []parce.Rule{
			{Pattern: `%`, Action: "Percent", Targets: []interface{}{comment}},
			{Pattern: `\w+`, Action: "Word"},
		}}
	})
	comment = lang.Define("silent", func() parce.LexiconDef {
		return parce.LexiconDef{DefaultTarget: []interface{}{-1}}
	})

	b := New(root)
	tree, err := b.Build(context.Background(), "%x")
	require.NoError(t, err)

	require.Equal(t, 2, tree.Len())
	require.Equal(t, []string{"%", "x"}, tokenTexts(tree.Tokens()))
	for _, c := range tree.Children() {
		_, isCtx := c.(*parce.Context)
		require.False(t, isCtx, "the empty comment context must be discarded, not attached")
	}
}

func TestHeredocDerivedLexiconScenario(t *testing.T) {
	lang := nonsense.New()
	b := New(nonsense.Root(lang))

	tree, err := b.Build(context.Background(), "@MARK@ hi MARK")
	require.NoError(t, err)

	require.Equal(t, 2, tree.Len())
	opener := tree.Children()[0].(*parce.Token)
	require.Equal(t, "@MARK@", opener.Text)
	require.Equal(t, nonsense.HeredocOpen, opener.Action)

	heredocCtx := tree.Children()[1].(*parce.Context)
	require.Equal(t, "nonsense.heredoc(MARK)", heredocCtx.Lexicon.String())
	require.Equal(t, []string{" hi ", "MARK"}, tokenTexts(heredocCtx.Tokens()))
	require.Equal(t, nonsense.Text, heredocCtx.Tokens()[0].Action)
	require.Equal(t, nonsense.HeredocClose, heredocCtx.Tokens()[1].Action)
	require.Empty(t, b.OpenLexicons())
}
