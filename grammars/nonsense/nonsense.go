// Package nonsense is a small demo grammar exercising the engine's
// features end to end: root recognizes numbers, words, double-quoted strings,
// percent-delimited comments and punctuation delimiters; strings and
// comments are pushed sub-lexicons that default-collect their body and
// pop on their own terminator; a heredoc form pushes a lexicon derived
// from its own opening marker. It exists for tests and for the
// parcedump/parcebench CLIs to have something to run against, the same
// role lexer_test.go's little inline grammars play in
// alecthomas-participle.
package nonsense

import (
	"fmt"
	"regexp"

	"github.com/opencodelex/parce"
	"github.com/opencodelex/parce/regex"
)

// Token kinds, used as the Action value on emitted tokens.
const (
	Number    = "Number"
	Text      = "Text"
	String    = "String"
	Comment   = "Comment"
	Delimiter = "Delimiter"
	HeredocOpen = "HeredocOpen"
	HeredocClose = "HeredocClose"
)

// New builds a small demo language exercising the engine end to end:
// root / string / comment, plus a heredoc lexicon derived per opening
// marker (scenario 6).
func New() *parce.Language {
	lang := parce.NewLanguage("nonsense")

	var root, stringLex, commentLex *parce.Lexicon

	root = lang.Define("root", func() parce.LexiconDef {
		return parce.LexiconDef{
			Rules: []parce.Rule{
				{Pattern: `\d+`, Action: Number},
				{Pattern: `@(\w+)@`, Action: HeredocOpen,
					Targets: []interface{}{parce.Call(func(args ...interface{}) (interface{}, error) {
						mark, _ := args[0].(string)
						return lang.Derived("heredoc", mark), nil
					}, parce.MatchIndex(1))}},
				{Pattern: `\w+`, Action: Text},
				{Pattern: `"`, Action: String, Targets: []interface{}{stringLex}},
				{Pattern: `%`, Action: Comment, Targets: []interface{}{commentLex}},
				{Pattern: `[.,:?!]`, Action: Delimiter},
			},
		}
	})

	stringLex = lang.Define("string", func() parce.LexiconDef {
		return parce.LexiconDef{
			Rules: []parce.Rule{
				{Pattern: `"`, Action: String, Targets: []interface{}{-1}},
			},
			DefaultAction: String,
		}
	})

	commentLex = lang.Define("comment", func() parce.LexiconDef {
		return parce.LexiconDef{
			Rules: []parce.Rule{
				{Pattern: `$`, Action: Comment, Targets: []interface{}{-1}},
			},
			// Without Multiline, `$` only matches end-of-text, so a
			// comment would swallow every following line instead of
			// stopping at its own.
			ReFlags:       regex.Flags{Multiline: true},
			DefaultAction: Comment,
		}
	})

	// heredoc: derived per opening marker (Arg holds the marker word).
	// Its only rule's pattern is built from Arg at compile time, the
	// canonical use of a pattern Item.
	lang.Define("heredoc", func() parce.LexiconDef {
		return parce.LexiconDef{
			Rules: []parce.Rule{
				{
					Pattern: parce.Call(func(args ...interface{}) (interface{}, error) {
						mark, ok := args[0].(string)
						if !ok {
							return nil, fmt.Errorf("heredoc: arg must be a string marker")
						}
						return `\b` + regexp.QuoteMeta(mark) + `\b`, nil
					}, parce.Arg()),
					Action:  HeredocClose,
					Targets: []interface{}{-1},
				},
			},
			DefaultAction: Text,
		}
	})

	_ = root
	return lang
}

// Root returns lang's entry lexicon.
func Root(lang *parce.Language) *parce.Lexicon { return lang.Get("root", nil) }

// Heredoc returns the derived lexicon for mark, for callers (tests, CLIs)
// that want to push it directly rather than drive it through root's
// @mark@ rule.
func Heredoc(lang *parce.Language, mark string) *parce.Lexicon {
	return lang.Derived("heredoc", mark)
}
