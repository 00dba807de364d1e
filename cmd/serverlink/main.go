// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/bureau-foundation/serverlink/cmd/serverlink/commands"
	"github.com/bureau-foundation/serverlink/lib/process"
)

func main() {
	if err := run(); err != nil {
		// Commands that already reported their outcome return an
		// error carrying the exit code.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}
