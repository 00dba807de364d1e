// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadFile reads a secret from path, or one line from stdin if path is
// "-". Trailing line endings are removed; other whitespace is part of
// the secret, since server passwords may contain it. An empty secret
// is an error. The caller must Close the returned buffer.
func ReadFile(path string) (*Buffer, error) {
	if path == "-" {
		return ReadLine(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return fromLine(data)
}

// ReadLine reads a secret from the first line of r.
func ReadLine(r io.Reader) (*Buffer, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		clear(line)
		return nil, fmt.Errorf("reading secret: %w", err)
	}
	return fromLine(line)
}

// fromLine moves data, minus trailing "\r\n", into a Buffer and zeros
// data.
func fromLine(data []byte) (*Buffer, error) {
	trimmed := bytes.TrimRight(data, "\r\n")
	if len(trimmed) == 0 {
		clear(data)
		return nil, fmt.Errorf("secret is empty")
	}
	buffer, err := NewFromBytes(trimmed)
	clear(data)
	return buffer, err
}
