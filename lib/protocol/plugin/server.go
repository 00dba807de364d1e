// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/serverlink/lib/codec"
	"github.com/bureau-foundation/serverlink/lib/netutil"
)

// HandlerFunc handles one request. body is encoded into the response;
// a nil body produces an empty one.
type HandlerFunc func(ctx context.Context, request Request) (status int, body any)

// Server is the plugin side of the protocol.
type Server struct {
	hash     string
	handlers map[string]HandlerFunc
	logger   *slog.Logger

	// Delay, when set, is slept before each handler runs. Tests use it
	// to provoke client timeouts.
	Delay time.Duration

	activeConnections sync.WaitGroup
}

// NewServer creates a server that requires hash on every request.
// An empty hash accepts any request.
func NewServer(hash string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		hash:     hash,
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Handle registers handler for action. Panics on duplicates.
func (s *Server) Handle(action string, handler HandlerFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("plugin.Server: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Serve accepts connections on listener until ctx is cancelled, then
// waits for in-flight requests.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

const serverReadTimeout = 10 * time.Second

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(serverReadTimeout))

	var request Request
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&request); err != nil {
		if netutil.IsExpectedCloseError(err) {
			return
		}
		s.writeResponse(conn, StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if s.hash != "" && request.Hash != s.hash {
		s.writeResponse(conn, StatusUnauthorized, "invalid hash")
		return
	}
	handler, exists := s.handlers[request.Action]
	if !exists {
		s.writeResponse(conn, StatusBadRequest, fmt.Sprintf("unknown action %q", request.Action))
		return
	}

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return
		}
	}
	status, body := handler(ctx, request)
	s.writeResponse(conn, status, body)
}

func (s *Server) writeResponse(conn net.Conn, status int, body any) {
	response := Response{Status: status}
	if body != nil {
		encoded, err := codec.Marshal(body)
		if err != nil {
			response = Response{Status: StatusInternalError}
			s.logger.Error("encoding response body", "error", err)
		} else {
			response.Body = encoded
		}
	}
	conn.SetWriteDeadline(time.Now().Add(serverReadTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}
