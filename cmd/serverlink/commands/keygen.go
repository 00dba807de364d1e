// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/serverlink/cmd/serverlink/cli"
	"github.com/bureau-foundation/serverlink/lib/codec"
	"github.com/bureau-foundation/serverlink/lib/sealed"
)

func keygenCommand() *cli.Command {
	var output string
	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate the age identity that seals stored credentials",
		Description: `Generate an age identity for sealing.identity_file. The identity is
written with mode 0600; the command refuses to overwrite an existing
file. The public recipient is printed.`,
		Usage: "serverlink keygen --out <path>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
			flagSet.StringVar(&output, "out", "", "identity file to create (required)")
			return flagSet
		},
		Run: func(args []string) error {
			if output == "" {
				return fmt.Errorf("--out is required")
			}
			identity, recipient, err := sealed.GenerateIdentity()
			if err != nil {
				return err
			}
			file, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
			if err != nil {
				return fmt.Errorf("creating identity file: %w", err)
			}
			if _, err := fmt.Fprintf(file, "# serverlink sealing identity\n# public key: %s\n%s", recipient, identity); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintln(stdout, recipient)
			return nil
		},
	}
}

func cborCommand() *cli.Command {
	return &cli.Command{
		Name:    "cbor",
		Summary: "Print a captured CBOR message in diagnostic notation",
		Description: `Print CBOR data (a captured plugin response or shard event) in
diagnostic notation. Reads the named file, or stdin.`,
		Usage: "serverlink cbor [file]",
		Run: func(args []string) error {
			var (
				data []byte
				err  error
			)
			switch len(args) {
			case 0:
				data, err = io.ReadAll(os.Stdin)
			case 1:
				data, err = os.ReadFile(args[0])
			default:
				return fmt.Errorf("expected at most one file")
			}
			if err != nil {
				return err
			}
			diagnostic, err := codec.Diagnose(data)
			if err != nil {
				return fmt.Errorf("decoding CBOR: %w", err)
			}
			fmt.Fprintln(stdout, diagnostic)
			return nil
		},
	}
}
