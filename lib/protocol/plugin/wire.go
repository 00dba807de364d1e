// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package plugin implements the companion plugin transport: one CBOR
// request and one CBOR response per TCP connection.
//
// Requests carry the link's hash, which the plugin checks before acting.
// Responses carry an HTTP-like status: 206 means the command was
// applied with a caveat, other 2xx mean success, anything else is a
// failure. [Server] implements the plugin side of the protocol for
// tests and local development.
package plugin

import (
	"fmt"

	"github.com/bureau-foundation/serverlink/lib/codec"
	"github.com/bureau-foundation/serverlink/lib/protocol"
)

// Actions understood by the plugin.
const (
	ActionVerify  = "verify"
	ActionExecute = "execute"
	ActionGet     = "get"
	ActionPut     = "put"
	ActionList    = "list"
)

// Status codes used by the plugin.
const (
	StatusOK             = 200
	StatusPartialContent = protocol.StatusPartialContent
	StatusBadRequest     = 400
	StatusUnauthorized   = 401
	StatusNotFound       = 404
	StatusInternalError  = 500
)

// Request is one plugin request.
type Request struct {
	Action  string `cbor:"action"`
	Command string `cbor:"command,omitempty"`
	Path    string `cbor:"path,omitempty"`
	Data    []byte `cbor:"data,omitempty"`
	Hash    string `cbor:"hash,omitempty"`
}

// Response is one plugin response. Body is action-specific: text for
// execute, a byte string for get, a list of entries for list.
type Response struct {
	Status int              `cbor:"status"`
	Body   codec.RawMessage `cbor:"body,omitempty"`
}

// OK reports whether the status is in the success family.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// decodeEntries converts a list body into entries. Plugins send either
// structured {type, name} records or raw ls-style lines, possibly
// mixed.
func decodeEntries(body codec.RawMessage) ([]protocol.Entry, error) {
	var items []any
	if err := codec.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decoding listing: %w", err)
	}
	entries := make([]protocol.Entry, 0, len(items))
	for index, item := range items {
		switch value := item.(type) {
		case string:
			entries = append(entries, protocol.Entry{Raw: value})
		case map[string]any:
			entryType, _ := value["type"].(string)
			name, _ := value["name"].(string)
			entries = append(entries, protocol.Entry{Type: protocol.EntryType(entryType), Name: name})
		default:
			return nil, fmt.Errorf("listing item %d has unexpected type %T", index, item)
		}
	}
	return entries, nil
}
