// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/serverlink/lib/codec"
	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/protocol"
)

// maxResponseSize bounds one response. Downloaded files travel in a
// single response body.
const maxResponseSize = 64 * 1024 * 1024

// Config configures a Client.
type Config struct {
	Timeouts protocol.Timeouts
	Logger   *slog.Logger
}

// Client implements protocol.Client for the companion plugin.
type Client struct {
	timeouts protocol.Timeouts
	logger   *slog.Logger
}

// New creates a plugin client.
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{timeouts: cfg.Timeouts.WithDefaults(), logger: logger}
}

// Verify implements protocol.Client.
func (c *Client) Verify(ctx context.Context, server *link.Server) error {
	_, err := c.call(ctx, server, protocol.StageVerify, Request{Action: ActionVerify})
	return err
}

// Execute implements protocol.Client. A non-2xx status is returned as
// a response, not an error, so the caller can classify it.
func (c *Client) Execute(ctx context.Context, server *link.Server, command string) (*protocol.Response, error) {
	response, err := c.roundTrip(ctx, server, protocol.StageExecute, command, Request{Action: ActionExecute, Command: command})
	if err != nil {
		return nil, err
	}
	return &protocol.Response{Status: response.Status, Body: response.Body}, nil
}

// Get implements protocol.Client.
func (c *Client) Get(ctx context.Context, server *link.Server, remotePath, localPath string) error {
	response, err := c.call(ctx, server, protocol.StageGet, Request{Action: ActionGet, Path: remotePath})
	if err != nil {
		return err
	}
	var data []byte
	if err := codec.Unmarshal(response.Body, &data); err != nil {
		return &protocol.OperationError{Kind: link.Plugin, Stage: protocol.StageGet, Path: remotePath, Err: fmt.Errorf("decoding file body: %w", err)}
	}
	if err := writeLocal(localPath, data); err != nil {
		return &protocol.OperationError{Kind: link.Plugin, Stage: protocol.StageClose, Path: localPath, Err: err}
	}
	return nil
}

// Put implements protocol.Client.
func (c *Client) Put(ctx context.Context, server *link.Server, localPath, remotePath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return &protocol.OperationError{Kind: link.Plugin, Stage: protocol.StagePut, Path: localPath, Err: err}
	}
	_, err = c.call(ctx, server, protocol.StagePut, Request{Action: ActionPut, Path: remotePath, Data: data})
	return err
}

// Find implements protocol.Client. Each listing is its own request, so
// the search opens one connection per directory.
func (c *Client) Find(ctx context.Context, server *link.Server, file, start string, maxDepth int) (string, error) {
	return protocol.Find(ctx, c.Lister(server), file, start, maxDepth)
}

// Lister returns a protocol.Lister backed by the plugin's list action.
func (c *Client) Lister(server *link.Server) protocol.Lister {
	return protocol.ListerFunc(func(ctx context.Context, path string) ([]protocol.Entry, error) {
		response, err := c.call(ctx, server, protocol.StageList, Request{Action: ActionList, Path: path})
		if err != nil {
			return nil, err
		}
		entries, err := decodeEntries(response.Body)
		if err != nil {
			return nil, &protocol.OperationError{Kind: link.Plugin, Stage: protocol.StageList, Path: path, Err: err}
		}
		return entries, nil
	})
}

// call performs a round trip and turns a non-2xx status into an
// operation error.
func (c *Client) call(ctx context.Context, server *link.Server, stage protocol.Stage, request Request) (*Response, error) {
	response, err := c.roundTrip(ctx, server, stage, request.Path, request)
	if err != nil {
		return nil, err
	}
	if !response.OK() {
		return nil, &protocol.OperationError{
			Kind:  link.Plugin,
			Stage: stage,
			Path:  request.Path,
			Err:   &protocol.StatusError{Status: response.Status, Body: response.Body},
		}
	}
	return response, nil
}

// roundTrip opens a connection, sends request, reads one response and
// closes the connection.
func (c *Client) roundTrip(ctx context.Context, server *link.Server, stage protocol.Stage, subject string, request Request) (response *Response, err error) {
	address, err := server.Address()
	if err != nil {
		return nil, err
	}
	request.Hash = server.Hash

	session := protocol.NewSession(link.Plugin, address, c.logger)
	var conn net.Conn
	err = session.Connect(func() error {
		dialer := net.Dialer{Timeout: c.timeouts.Dial}
		var dialErr error
		conn, dialErr = dialer.DialContext(ctx, "tcp", address)
		return dialErr
	})
	if err != nil {
		return nil, err
	}
	defer session.Finish(&err, conn.Close)

	err = session.Do(stage, subject, func() error {
		deadline := time.Now().Add(c.timeouts.Operation)
		if contextDeadline, ok := ctx.Deadline(); ok && contextDeadline.Before(deadline) {
			deadline = contextDeadline
		}
		conn.SetDeadline(deadline)

		if err := codec.NewEncoder(conn).Encode(request); err != nil {
			return fmt.Errorf("writing request: %w", err)
		}
		if tcpConn, ok := conn.(*net.TCPConn); ok {
			tcpConn.CloseWrite()
		}
		var decoded Response
		if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&decoded); err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		response = &decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("plugin request completed", "action", request.Action, "address", address, "status", response.Status)
	return response, nil
}

func writeLocal(path string, data []byte) error {
	if directory := filepath.Dir(path); directory != "" {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
