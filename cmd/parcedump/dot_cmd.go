package main

import (
	_ "embed"
	"os"

	"github.com/alecthomas/template"

	"github.com/opencodelex/parce"
)

//go:embed dot.go.tmpl
var dotTemplateSource string

var dotTemplate = template.Must(template.New("dot").Parse(dotTemplateSource))

type dotCmd struct {
	inputArg
}

func (c *dotCmd) Run() error {
	root, err := c.buildTree()
	if err != nil {
		return err
	}
	return dotTemplate.Execute(os.Stdout, parce.Dump(root))
}
