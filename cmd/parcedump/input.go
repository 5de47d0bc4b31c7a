package main

import (
	"context"
	"io"
	"os"

	"github.com/opencodelex/parce"
	"github.com/opencodelex/parce/build"
	"github.com/opencodelex/parce/grammars/nonsense"
	"github.com/opencodelex/parce/internal/config"
)

type inputArg struct {
	File   string `arg:"" optional:"" type:"existingfile" help:"Input file (read from stdin if omitted)."`
	Config string `name:"config" optional:"" type:"existingfile" help:"TOML tuning file (internal/config.Tuning); defaults used if omitted."`
}

func (a inputArg) read() (string, error) {
	if a.File == "" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(a.File)
	return string(data), err
}

func (a inputArg) tuning() (config.Tuning, error) {
	if a.Config == "" {
		return config.Default(), nil
	}
	data, err := os.ReadFile(a.Config)
	if err != nil {
		return config.Tuning{}, err
	}
	return config.Load(data)
}

func (a inputArg) buildTree() (*parce.Context, error) {
	text, err := a.read()
	if err != nil {
		return nil, err
	}
	tuning, err := a.tuning()
	if err != nil {
		return nil, err
	}
	lang := nonsense.New()
	b := build.NewWithTuning(nonsense.Root(lang), tuning)
	return b.Build(context.Background(), text)
}
