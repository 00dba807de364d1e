// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ftp implements the classic file transfer transport on top of
// github.com/jlaffaye/ftp. Every call dials, logs in, performs one
// operation and quits.
package ftp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	ftpconn "github.com/jlaffaye/ftp"

	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/protocol"
)

// Config configures a Client.
type Config struct {
	Timeouts protocol.Timeouts

	// ExplicitTLS upgrades the control connection with AUTH TLS.
	// Server certificates are not verified: game hosts commonly serve
	// self-signed ones.
	ExplicitTLS bool

	Logger *slog.Logger
}

// conn is the part of an FTP session the client uses.
type conn interface {
	Login(user, password string) error
	Retrieve(path string) (io.ReadCloser, error)
	Store(path string, r io.Reader) error
	List(path string) ([]protocol.Entry, error)
	Quit() error
}

type dialFunc func(ctx context.Context, address string) (conn, error)

// Client implements protocol.Client over FTP.
type Client struct {
	dial   dialFunc
	logger *slog.Logger
}

// New creates an FTP client.
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeouts := cfg.Timeouts.WithDefaults()
	return &Client{
		dial: func(ctx context.Context, address string) (conn, error) {
			options := []ftpconn.DialOption{
				ftpconn.DialWithContext(ctx),
				ftpconn.DialWithTimeout(timeouts.Dial),
			}
			if cfg.ExplicitTLS {
				options = append(options, ftpconn.DialWithExplicitTLS(&tls.Config{InsecureSkipVerify: true}))
			}
			serverConn, err := ftpconn.Dial(address, options...)
			if err != nil {
				return nil, err
			}
			return serverConnection{serverConn}, nil
		},
		logger: logger,
	}
}

// open dials and logs in. On success the caller must defer
// session.Finish with the returned connection's Quit.
func (c *Client) open(ctx context.Context, server *link.Server) (*protocol.Session, conn, error) {
	address, err := server.Address()
	if err != nil {
		return nil, nil, err
	}
	session := protocol.NewSession(link.FTP, address, c.logger)
	var connection conn
	err = session.Connect(func() error {
		var dialErr error
		connection, dialErr = c.dial(ctx, address)
		if dialErr != nil {
			return dialErr
		}
		if loginErr := connection.Login(server.Username, server.Password); loginErr != nil {
			connection.Quit()
			return fmt.Errorf("login as %q: %w", server.Username, loginErr)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return session, connection, nil
}

// Verify implements protocol.Client.
func (c *Client) Verify(ctx context.Context, server *link.Server) (err error) {
	session, connection, err := c.open(ctx, server)
	if err != nil {
		return err
	}
	defer session.Finish(&err, connection.Quit)
	return nil
}

// Get implements protocol.Client. A failed RETR and a failed close of
// the transfer stream are reported as distinct stages.
func (c *Client) Get(ctx context.Context, server *link.Server, remotePath, localPath string) (err error) {
	session, connection, err := c.open(ctx, server)
	if err != nil {
		return err
	}
	defer session.Finish(&err, connection.Quit)

	return session.Do(protocol.StageGet, remotePath, func() error {
		stream, err := connection.Retrieve(remotePath)
		if err != nil {
			return err
		}
		copyErr := writeLocal(localPath, stream)
		closeErr := stream.Close()
		if copyErr != nil {
			return copyErr
		}
		if closeErr != nil {
			return &protocol.OperationError{Kind: link.FTP, Stage: protocol.StageClose, Path: remotePath, Err: closeErr}
		}
		return nil
	})
}

// Put implements protocol.Client.
func (c *Client) Put(ctx context.Context, server *link.Server, localPath, remotePath string) (err error) {
	file, err := os.Open(localPath)
	if err != nil {
		return &protocol.OperationError{Kind: link.FTP, Stage: protocol.StagePut, Path: localPath, Err: err}
	}
	defer file.Close()

	session, connection, err := c.open(ctx, server)
	if err != nil {
		return err
	}
	defer session.Finish(&err, connection.Quit)

	return session.Do(protocol.StagePut, remotePath, func() error {
		return connection.Store(remotePath, file)
	})
}

// Find implements protocol.Client. The whole search runs in one
// session.
func (c *Client) Find(ctx context.Context, server *link.Server, file, start string, maxDepth int) (found string, err error) {
	session, connection, err := c.open(ctx, server)
	if err != nil {
		return "", err
	}
	defer session.Finish(&err, connection.Quit)

	lister := protocol.ListerFunc(func(ctx context.Context, path string) ([]protocol.Entry, error) {
		var entries []protocol.Entry
		err := session.Do(protocol.StageList, path, func() error {
			var listErr error
			entries, listErr = connection.List(path)
			return listErr
		})
		return entries, err
	})
	return protocol.Find(ctx, lister, file, start, maxDepth)
}

// Execute implements protocol.Client. FTP has no command channel.
func (c *Client) Execute(ctx context.Context, server *link.Server, command string) (*protocol.Response, error) {
	return nil, &protocol.OperationError{Kind: link.FTP, Stage: protocol.StageExecute, Err: protocol.ErrUnsupported}
}

// serverConnection adapts *ftpconn.ServerConn to conn.
type serverConnection struct {
	*ftpconn.ServerConn
}

func (s serverConnection) Retrieve(path string) (io.ReadCloser, error) {
	return s.Retr(path)
}

func (s serverConnection) Store(path string, r io.Reader) error {
	return s.Stor(path, r)
}

func (s serverConnection) List(path string) ([]protocol.Entry, error) {
	entries, err := s.ServerConn.List(path)
	if err != nil {
		return nil, err
	}
	return convertEntries(entries), nil
}

func convertEntries(entries []*ftpconn.Entry) []protocol.Entry {
	converted := make([]protocol.Entry, 0, len(entries))
	for _, entry := range entries {
		entryType := protocol.EntryOther
		switch entry.Type {
		case ftpconn.EntryTypeFile:
			entryType = protocol.EntryFile
		case ftpconn.EntryTypeFolder:
			entryType = protocol.EntryDirectory
		}
		converted = append(converted, protocol.Entry{Type: entryType, Name: entry.Name})
	}
	return converted
}

func writeLocal(path string, source io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, source); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
