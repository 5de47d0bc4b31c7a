package main

import (
	"github.com/alecthomas/repr"

	"github.com/opencodelex/parce"
)

type treeCmd struct {
	inputArg
}

func (c *treeCmd) Run() error {
	root, err := c.buildTree()
	if err != nil {
		return err
	}
	repr.Println(parce.Dump(root))
	return nil
}
