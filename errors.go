package parce

import (
	"errors"
	"fmt"

	"github.com/opencodelex/parce/internal/i18n"
)

// Cancelled is returned internally when a rebuild is interrupted by a newer
// submission. It is never surfaced to callers of Worker; see parce/worker.
var Cancelled = errors.New("parce: rebuild cancelled")

// GrammarError reports a structural problem in a grammar: an unknown
// lexicon, an invalid pattern, or a lexicon declaring both DEFAULT_ACTION
// and DEFAULT_TARGET fail loudly the first time the offending Lexicon is
// compiled. A target or group action of the wrong shape is also a
// GrammarError, but it is found at match time, where the lexer records it
// inside a LexError and skips ahead. A default-target cycle is not
// reported at all: the lexer breaks it by forcing a one-character advance.
// GrammarErrors are the only error class surfaced to end users.
type GrammarError struct {
	Lexicon string
	Rule    int
	Msg     string

	// msgID/msgData let Message look the diagnostic up through go-i18n
	// (internal/i18n); left zero for GrammarErrors built before a message
	// ID existed for their case, which fall back to Msg verbatim.
	msgID   string
	msgData []interface{}
}

func (e *GrammarError) Error() string {
	return formatError(e.Lexicon, e.Rule, e.Message())
}

// Message is the unadorned diagnostic, before lexicon/rule context is
// attached, keeping callers that want to localize or reformat from having
// to re-parse Error(). Localized through LocalizedMessage when the error
// carries a message ID; english text otherwise.
func (e *GrammarError) Message() string { return e.LocalizedMessage("en-US") }

// LocalizedMessage renders the diagnostic in lang via internal/i18n,
// falling back to the plain english Msg for errors with no message ID
// (those built through grammarErrorf; every GrammarError the grammar and
// group code raises carries an ID).
func (e *GrammarError) LocalizedMessage(lang string) string {
	if e.msgID == "" {
		return e.Msg
	}
	return i18n.T(lang, e.msgID, e.msgData...)
}

func grammarErrorf(lexicon string, rule int, format string, args ...interface{}) *GrammarError {
	return &GrammarError{Lexicon: lexicon, Rule: rule, Msg: fmt.Sprintf(format, args...)}
}

// grammarErrorID builds a GrammarError whose Message looks itself up
// through internal/i18n by id, with data as flat key/value pairs; plain
// is the english fallback used if the bundle can't be loaded.
func grammarErrorID(lexicon string, rule int, id string, plain string, data ...interface{}) *GrammarError {
	return &GrammarError{Lexicon: lexicon, Rule: rule, Msg: plain, msgID: id, msgData: data}
}

func formatError(lexicon string, rule int, msg string) string {
	if lexicon == "" {
		return msg
	}
	if rule < 0 {
		return fmt.Sprintf("%s: %s", lexicon, msg)
	}
	return fmt.Sprintf("%s.%d: %s", lexicon, rule, msg)
}

// LexError reports a dynamic rule item (action or target) that raised
// while being evaluated against a match. It never aborts a build: the
// offending rule is skipped, lexing advances, and the error is not logged:
// it is observable through the lexer's Errors, which Builder.LastLexErrors
// retains for the most recent build, and indirectly through OpenLexicons
// if it leaves a construct unterminated.
type LexError struct {
	Lexicon string
	Pos     int
	Err     error
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s@%d: %s", e.Lexicon, e.Pos, e.Err)
}

func (e *LexError) Unwrap() error { return e.Err }

func lexErrorf(lexicon string, pos int, format string, args ...interface{}) *LexError {
	return &LexError{Lexicon: lexicon, Pos: pos, Err: fmt.Errorf(format, args...)}
}

// NewLexError wraps an evaluation error raised by a dynamic action/target
// item into the LexError the lexer package records and skips past.
func NewLexError(lexicon string, pos int, err error) *LexError {
	return &LexError{Lexicon: lexicon, Pos: pos, Err: err}
}

// BuildError reports an invariant violated while splicing a rebuild's
// output into the tree. The worker catches it, republishes the previous
// root unchanged, and returns to idle.
type BuildError struct {
	Msg string
}

func (e *BuildError) Error() string { return "build: " + e.Msg }

func buildErrorf(format string, args ...interface{}) *BuildError {
	return &BuildError{Msg: fmt.Sprintf(format, args...)}
}

// NewBuildError builds a BuildError for an invariant the build package
// detects broken while splicing a rebuild's output into the tree.
func NewBuildError(format string, args ...interface{}) *BuildError {
	return buildErrorf(format, args...)
}
