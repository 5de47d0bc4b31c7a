package main

import "fmt"

type lexCmd struct {
	inputArg
}

func (c *lexCmd) Run() error {
	root, err := c.buildTree()
	if err != nil {
		return err
	}
	for _, t := range root.Tokens() {
		fmt.Printf("%-12v @%-4d %q\n", t.Action, t.Pos, t.Text)
	}
	return nil
}
