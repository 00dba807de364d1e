// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/serverlink/lib/secret"
)

// ReadSecret reads a secret such as a server password. On a terminal
// it prompts on stderr without echo; otherwise it reads one line from
// stdin, so secrets can be piped in. The caller must Close the buffer.
func ReadSecret(prompt string) (*secret.Buffer, error) {
	descriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(descriptor) {
		return secret.ReadLine(os.Stdin)
	}

	fmt.Fprint(os.Stderr, prompt)
	typed, err := term.ReadPassword(descriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading secret: %w", err)
	}
	if len(typed) == 0 {
		return nil, fmt.Errorf("empty secret")
	}
	return secret.NewFromBytes(typed)
}
