// Command parcebench compares a full Build against an incremental
// Rebuild of the same single-character edit, in a kingpin-flagged
// demo-binary style (gopkg.in/alecthomas/kingpin.v2, kingpin.FatalIfError).
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/opencodelex/parce/build"
	"github.com/opencodelex/parce/grammars/nonsense"
)

var (
	file   = kingpin.Arg("file", "Input file to lex (stdin if omitted).").String()
	pos    = kingpin.Flag("pos", "Byte offset at which to insert a character for the incremental run.").Default("0").Int()
	insert = kingpin.Flag("insert", "Text to insert at --pos.").Default("x").String()
	reps   = kingpin.Flag("reps", "Repetitions to average over.").Default("10").Int()
)

func main() {
	kingpin.Parse()

	var text string
	var err error
	if *file == "" {
		data, rerr := io.ReadAll(os.Stdin)
		text, err = string(data), rerr
	} else {
		var data []byte
		data, err = os.ReadFile(*file)
		text = string(data)
	}
	kingpin.FatalIfError(err, "read input")

	lang := nonsense.New()
	root := nonsense.Root(lang)
	ctx := context.Background()

	full := time.Duration(0)
	for i := 0; i < *reps; i++ {
		b := build.New(root)
		start := time.Now()
		_, err := b.Build(ctx, text)
		kingpin.FatalIfError(err, "full build")
		full += time.Since(start)
	}

	edited := text[:*pos] + *insert + text[*pos:]
	incr := time.Duration(0)
	for i := 0; i < *reps; i++ {
		b := build.New(root)
		_, err := b.Build(ctx, text)
		kingpin.FatalIfError(err, "warm build")
		start := time.Now()
		_, err = b.Rebuild(ctx, edited, build.Edit{Pos: *pos, Removed: 0, Added: len(*insert)})
		kingpin.FatalIfError(err, "incremental rebuild")
		incr += time.Since(start)
	}

	fmt.Printf("full build:   %v (avg over %d reps)\n", full/time.Duration(*reps), *reps)
	fmt.Printf("incr rebuild: %v (avg over %d reps)\n", incr/time.Duration(*reps), *reps)
}
