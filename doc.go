// Package parce implements an incremental lexing engine: a stack-based
// tokenizer over a grammar of lexicons and rules, and a tree builder that
// rebuilds only the suffix of a token tree touched by a small text edit.
//
// A Language groups named Lexicons. A Lexicon is an ordered set of Rules,
// lazily compiled to a single regex alternation. Lexing runs a stack of
// active lexicons over the input, producing Events; the builder turns
// Events into a Context tree of Tokens, and can rebuild that tree after an
// edit by replaying only from a restart point and reusing the unaffected
// suffix.
//
// The grammar-authoring surface lives in this package (Language, Lexicon,
// Rule, dynamic items, Token, Context). Compiling a lexicon's rules to a
// regex lives in parce/regex. Running the stack machine over compiled
// rules lives in parce/lexer. Building and incrementally rebuilding the
// tree lives in parce/build. The background scheduling envelope lives in
// parce/worker, and the cached incremental transform hook in
// parce/transform.
package parce
