package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/opencodelex/parce/grammars/nonsense"
)

// yamlRule is a printable projection of one parce.Rule: dynamic
// Pattern/Action/Targets (Call/Arg/MatchIndex items) render as a
// hand-written descriptive placeholder string rather than attempting to
// serialize Go closures — a rule's dynamic parts degrade to a marker
// instead of failing to encode. The output is not read back anywhere.
type yamlRule struct {
	Pattern       string   `yaml:"pattern"`
	Action        string   `yaml:"action,omitempty"`
	Targets       []string `yaml:"targets,omitempty"`
}

type yamlLexicon struct {
	Rules         []yamlRule `yaml:"rules"`
	DefaultAction string     `yaml:"default_action,omitempty"`
}

type rulesCmd struct{}

func (c *rulesCmd) Run() error {
	grammar := map[string]yamlLexicon{
		"root": {
			Rules: []yamlRule{
				{Pattern: `\d+`, Action: nonsense.Number},
				{Pattern: `@(\w+)@`, Action: nonsense.HeredocOpen, Targets: []string{"<heredoc(MATCH[1])>"}},
				{Pattern: `\w+`, Action: nonsense.Text},
				{Pattern: `"`, Action: nonsense.String, Targets: []string{"string"}},
				{Pattern: `%`, Action: nonsense.Comment, Targets: []string{"comment"}},
				{Pattern: `[.,:?!]`, Action: nonsense.Delimiter},
			},
		},
		"string": {
			Rules:         []yamlRule{{Pattern: `"`, Action: nonsense.String, Targets: []string{"-1"}}},
			DefaultAction: nonsense.String,
		},
		"comment": {
			Rules:         []yamlRule{{Pattern: `$`, Action: nonsense.Comment, Targets: []string{"-1"}}},
			DefaultAction: nonsense.Comment,
		},
		"heredoc": {
			Rules:         []yamlRule{{Pattern: `<word-boundary(ARG)>`, Action: nonsense.HeredocClose, Targets: []string{"-1"}}},
			DefaultAction: nonsense.Text,
		},
	}
	out, err := yaml.Marshal(grammar)
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
