package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/Neumenon/toontab/toon"
	"github.com/Neumenon/toontab/toonio"
)

var inspectCommand = &cli.Command{
	Name:      "inspect",
	Usage:     "print the schema and row summary of a TOON-TAB file",
	ArgsUsage: "<input.toon[.gz]>",
	Action:    runInspect,
}

func runInspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("inspect needs an input path")
	}
	inPath := c.Args().Get(0)

	text, err := toonio.ReadAll(inPath)
	if err != nil {
		return err
	}

	res, err := toon.DecodeWithOptions(text, toon.DecodeOptions{})
	if err != nil {
		return errors.Wrapf(err, "decoding %s", inPath)
	}

	s := res.Table.Schema
	bold := color.New(color.Bold)
	bold.Println(s.Name)
	if s.DatasetLabel != "" {
		fmt.Printf("  label:  %s\n", s.DatasetLabel)
	}
	if s.Source != "" {
		fmt.Printf("  source: %s\n", s.Source)
	}
	fmt.Printf("  rows:   %d (%d declared)\n", len(res.Table.Rows), s.DeclaredRows)
	fmt.Printf("  columns:\n")
	for _, col := range s.Columns {
		line := fmt.Sprintf("    %-20s %s", col.Name, col.Kind)
		if col.Kind == toon.KindCharacter {
			line += fmt.Sprintf("(%d)", col.Length)
		}
		if col.Format != "" {
			line += " format=" + col.Format
		}
		if col.Label != "" {
			line += fmt.Sprintf(" %q", col.Label)
		}
		fmt.Println(line)
	}

	reportRowErrors(res)
	return nil
}
