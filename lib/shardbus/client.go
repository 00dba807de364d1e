// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shardbus

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/bureau-foundation/serverlink/lib/codec"
)

const (
	dialTimeout         = 2 * time.Second
	responseReadTimeout = 15 * time.Second
	maxResponseSize     = 1024 * 1024
)

// RemoteError is returned by Call when the peer answered ok=false.
type RemoteError struct {
	Action  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("shard error on %q: %s", e.Action, e.Message)
}

// Call sends one request to the socket at socketPath and decodes the
// response data into result (which may be nil). fields must not
// contain "action".
func Call(ctx context.Context, socketPath, action string, fields map[string]any, result any) error {
	request := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		request[key] = value
	}
	request["action"] = action

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return fmt.Errorf("calling %q on %s: connecting: %w", action, socketPath, err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return fmt.Errorf("calling %q on %s: writing request: %w", action, socketPath, err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return fmt.Errorf("calling %q on %s: reading response: %w", action, socketPath, err)
	}
	if !response.OK {
		return &RemoteError{Action: action, Message: response.Error}
	}
	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}
