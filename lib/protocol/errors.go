// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/serverlink/lib/link"
)

// ErrUnsupported is returned by transports that cannot perform an
// operation at all, such as executing a command over FTP.
var ErrUnsupported = errors.New("operation not supported by transport")

// Stage names the part of an established session that failed.
type Stage string

const (
	StageVerify  Stage = "verify"
	StageGet     Stage = "get"
	StagePut     Stage = "put"
	StageList    Stage = "list"
	StageExecute Stage = "execute"

	// StageClose is a failure tearing down the session or closing a
	// transfer stream after the operation itself succeeded.
	StageClose Stage = "close"
)

// ConnectError reports that a session could not be established:
// network failure, handshake failure or rejected credentials.
type ConnectError struct {
	Kind link.Kind
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("%s connect to %s: %v", e.Kind, e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// OperationError reports a failure after the session was established.
type OperationError struct {
	Kind  link.Kind
	Stage Stage
	Path  string
	Err   error
}

func (e *OperationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Kind, e.Stage, e.Path, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// StatusError is a non-success status returned by the companion
// plugin.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("plugin returned status %d", e.Status)
}
