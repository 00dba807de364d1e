// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"log/slog"
	"sync"
)

// Message keys. A messaging layer renders each key as a localized,
// user-facing message using Fields.
const (
	KeyNotLinked        = "protocol.errors.not_linked"
	KeyUnsupported      = "protocol.errors.unsupported"
	KeyMalformedAddress = "protocol.errors.malformed_address"
	KeyCouldNotConnect  = "protocol.errors.could_not_connect"
	KeyCouldNotGet      = "protocol.errors.could_not_get"
	KeyCouldNotPut      = "protocol.errors.could_not_put"
	KeyCouldNotList     = "protocol.errors.could_not_list"
	KeyCouldNotExecute  = "protocol.errors.could_not_execute"
	KeyCouldNotClose    = "protocol.errors.could_not_close"
	KeyUnknownError     = "protocol.errors.unknown"

	KeyVerified       = "protocol.success.verify"
	KeyGetSuccess     = "protocol.success.get"
	KeyPutSuccess     = "protocol.success.put"
	KeyFindSuccess    = "protocol.success.find"
	KeyNotFound       = "protocol.success.not_found"
	KeyExecuteSuccess = "protocol.success.execute"
	KeyExecuteWarning = "protocol.warnings.execute"
)

// Severity is how a message should be presented.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Message is the one outward-facing result of a Router call.
type Message struct {
	Key      string
	Severity Severity
	// ID is the identity the call was made for. Empty for Verify.
	ID     string
	Fields map[string]string
}

// Notifier receives Router messages.
type Notifier interface {
	Notify(ctx context.Context, message Message)
}

// LogNotifier writes messages to a logger. It is the notifier of
// processes without a chat surface, such as the operator CLI.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(ctx context.Context, message Message) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attributes := []any{"key", message.Key}
	if message.ID != "" {
		attributes = append(attributes, "id", message.ID)
	}
	for name, value := range message.Fields {
		attributes = append(attributes, name, value)
	}

	level := slog.LevelInfo
	switch message.Severity {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityError:
		level = slog.LevelError
	}
	logger.Log(ctx, level, "protocol result", attributes...)
}

// RecordingNotifier keeps every message in memory.
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []Message
}

// Notify implements Notifier.
func (n *RecordingNotifier) Notify(ctx context.Context, message Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

// Messages returns a copy of the recorded messages.
func (n *RecordingNotifier) Messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.messages...)
}

// Reset discards the recorded messages.
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = nil
}
