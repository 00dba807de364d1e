// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"time"

	"github.com/bureau-foundation/serverlink/lib/link"
)

// Client performs operations against one transport. Every method opens
// a dedicated session, performs one logical operation and closes the
// session before returning.
type Client interface {
	// Verify connects (and authenticates) without performing an
	// operation. Used before a link is stored.
	Verify(ctx context.Context, server *link.Server) error

	Get(ctx context.Context, server *link.Server, remotePath, localPath string) error
	Put(ctx context.Context, server *link.Server, localPath, remotePath string) error

	// Find returns ("", nil) when the search is exhausted.
	Find(ctx context.Context, server *link.Server, file, start string, maxDepth int) (string, error)

	// Execute returns ErrUnsupported on file-transfer transports.
	Execute(ctx context.Context, server *link.Server, command string) (*Response, error)
}

// Response is the answer to an executed command.
type Response struct {
	Status int
	// Body is the raw encoded body as the transport returned it.
	Body []byte
}

// StatusPartialContent is the status with which the companion plugin
// reports that a command was applied with a caveat.
const StatusPartialContent = 206

// Outcome classifies an executed command.
type Outcome int

const (
	// Failed means no action was taken.
	Failed Outcome = iota
	Succeeded
	// SucceededWithWarning means the action was taken but the caller
	// should surface a warning.
	SucceededWithWarning
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case SucceededWithWarning:
		return "succeeded_with_warning"
	}
	return "failed"
}

// Classify maps a status code to an Outcome.
func Classify(status int) Outcome {
	switch {
	case status == StatusPartialContent:
		return SucceededWithWarning
	case status >= 200 && status < 300:
		return Succeeded
	}
	return Failed
}

// Timeouts bound the two phases of a session.
type Timeouts struct {
	// Dial bounds connecting and authenticating.
	Dial time.Duration
	// Operation bounds a single request/response exchange.
	Operation time.Duration
}

// DefaultTimeouts are used for zero fields.
var DefaultTimeouts = Timeouts{
	Dial:      10 * time.Second,
	Operation: 30 * time.Second,
}

// WithDefaults fills zero fields from DefaultTimeouts.
func (t Timeouts) WithDefaults() Timeouts {
	if t.Dial <= 0 {
		t.Dial = DefaultTimeouts.Dial
	}
	if t.Operation <= 0 {
		t.Operation = DefaultTimeouts.Operation
	}
	return t
}
