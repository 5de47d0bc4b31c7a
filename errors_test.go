package parce

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGrammarErrorFormatsLexiconAndRule(t *testing.T) {
	err := grammarErrorf("root", 2, "bad pattern %q", "(")
	require.Equal(t, `root.2: bad pattern "("`, err.Error())
}

func TestGrammarErrorFormatsLexiconOnlyWhenRuleNegative(t *testing.T) {
	err := grammarErrorf("root", -1, "no rules defined")
	require.Equal(t, "root: no rules defined", err.Error())
}

func TestGrammarErrorFormatsMessageOnlyWhenLexiconEmpty(t *testing.T) {
	require.Equal(t, "detached", formatError("", 3, "detached"))
}

func TestGrammarErrorLocalizedMessageFallsBackWithoutMsgID(t *testing.T) {
	err := grammarErrorf("root", 0, "plain english")
	require.Equal(t, "plain english", err.Message())
	require.Equal(t, "plain english", err.LocalizedMessage("fr-FR"))
}

func TestGrammarErrorLocalizedMessageUsesMsgID(t *testing.T) {
	err := grammarErrorID("root", -1, "grammar.unknown_lexicon", "fallback text", "Name", "root")
	require.Equal(t, "lexicon root: unknown lexicon", err.Message())
}

func TestLexErrorFormatsLexiconPosAndErr(t *testing.T) {
	err := lexErrorf("string", 12, "unterminated: %s", "eof")
	require.Equal(t, "string@12: unterminated: eof", err.Error())
}

func TestLexErrorUnwrapReturnsWrappedErr(t *testing.T) {
	inner := errors.New("boom")
	err := NewLexError("string", 3, inner)
	require.Same(t, inner, errors.Unwrap(err))
	require.True(t, errors.Is(err, inner))
}

func TestBuildErrorPrefixesMessage(t *testing.T) {
	err := buildErrorf("chain mismatch at %d", 7)
	require.Equal(t, "build: chain mismatch at 7", err.Error())
}

func TestNewBuildErrorMatchesInternalConstructor(t *testing.T) {
	err := NewBuildError("resume chain %v not rooted at %s", []int{1, 2}, "root")
	require.Equal(t, `build: resume chain [1 2] not rooted at root`, err.Error())
}
