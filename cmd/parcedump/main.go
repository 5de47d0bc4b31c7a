// Command parcedump tokenizes a file (or stdin) and prints the resulting
// tree: a kong cli struct of subcommands, kong.Parse, kctx.Run().
package main

import (
	"github.com/alecthomas/kong"
)

var (
	version = "dev"
	cli     struct {
		Version kong.VersionFlag
		Lex     lexCmd  `cmd:"" help:"Tokenize input and print the flat token list."`
		Tree    treeCmd `cmd:"" help:"Tokenize input and print the nested context tree."`
		Dot     dotCmd  `cmd:"" help:"Tokenize input and print a Graphviz dot export."`
		Rules   rulesCmd `cmd:"" help:"Print the nonsense grammar as YAML rules."`
	}
)

func main() {
	kctx := kong.Parse(&cli,
		kong.Description("A command-line tool for inspecting parce lexer output."),
		kong.Vars{"version": version},
	)
	err := kctx.Run()
	kctx.FatalIfErrorf(err)
}
