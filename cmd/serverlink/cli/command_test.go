// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatch(t *testing.T) {
	var (
		ran   []string
		depth int
	)
	leaf := &Command{
		Name: "find",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("find", pflag.ContinueOnError)
			flagSet.IntVar(&depth, "depth", 5, "")
			return flagSet
		},
		Run: func(args []string) error {
			ran = args
			return nil
		},
	}
	root := &Command{Name: "serverlink", Subcommands: []*Command{leaf}}

	if err := root.Execute([]string{"find", "--depth", "3", "42", "level.dat"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if depth != 3 || strings.Join(ran, " ") != "42 level.dat" {
		t.Errorf("depth = %d, args = %v", depth, ran)
	}
}

func TestExecuteUnknownCommandSuggests(t *testing.T) {
	root := &Command{Name: "serverlink", Subcommands: []*Command{{Name: "unlink", Run: func([]string) error { return nil }}}}

	err := root.Execute([]string{"unlnk"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "unlink"`) {
		t.Errorf("Execute error = %v", err)
	}
	err = root.Execute([]string{"teleport"})
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("Execute error = %v, want no suggestion", err)
	}
}

func TestExecuteFlagErrors(t *testing.T) {
	command := &Command{
		Name:  "exec",
		Flags: func() *pflag.FlagSet { return pflag.NewFlagSet("exec", pflag.ContinueOnError) },
		Run:   func([]string) error { return errors.New("should not run") },
	}
	err := command.Execute([]string{"--bogus"})
	if err == nil || !strings.Contains(err.Error(), "unknown flag") {
		t.Errorf("Execute error = %v", err)
	}
}

func TestPrintHelp(t *testing.T) {
	root := &Command{
		Name:    "serverlink",
		Summary: "Link game servers",
		Subcommands: []*Command{
			{Name: "link", Summary: "Link a server or user"},
			{Name: "find", Summary: "Search a server's files"},
		},
		Examples: []Example{{Description: "Link a plugin server", Command: "serverlink link server 42"}},
	}
	var buffer bytes.Buffer
	root.PrintHelp(&buffer)
	output := buffer.String()
	for _, want := range []string{"Link game servers", "serverlink <command> [flags]", "link", "Search a server's files", "# Link a plugin server"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q:\n%s", want, output)
		}
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"find", "find", 0},
		{"unlnk", "unlink", 1},
		{"lnk", "link", 1},
		{"get", "put", 2},
		{"abc", "xyz", 3},
		{"link", "", 4},
	}
	for _, test := range tests {
		if got := editDistance(test.a, test.b); got != test.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}
