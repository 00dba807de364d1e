// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies connection errors shared by the shard bus
// socket server and the companion plugin server.
package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// hangups are the errors a server sees when its peer went away: a
// shard ping that dials and disconnects, or a CLI that gave up on its
// own deadline.
var hangups = []error{
	io.EOF,
	io.ErrUnexpectedEOF,
	net.ErrClosed,
	syscall.EPIPE,
	syscall.ECONNRESET,
}

// IsExpectedCloseError reports whether err only says the peer hung up.
// Servers send no error response and log nothing for these.
func IsExpectedCloseError(err error) bool {
	for _, hangup := range hangups {
		if errors.Is(err, hangup) {
			return true
		}
	}
	return false
}
