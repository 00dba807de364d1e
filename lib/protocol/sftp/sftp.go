// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sftp implements the secure file transfer transport: an SSH
// connection (golang.org/x/crypto/ssh) carrying an SFTP subsystem
// (github.com/pkg/sftp). Every call performs the key exchange,
// authenticates, performs one operation and closes both layers.
package sftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	sftpconn "github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/protocol"
)

// Config configures a Client.
type Config struct {
	Timeouts protocol.Timeouts
	Logger   *slog.Logger
}

// dialFunc opens an SFTP session. closeAll tears down the SFTP client
// and everything beneath it.
type dialFunc func(ctx context.Context, server *link.Server, address string) (client *sftpconn.Client, closeAll func() error, err error)

// Client implements protocol.Client over SFTP.
type Client struct {
	dial   dialFunc
	logger *slog.Logger
}

// New creates an SFTP client.
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeouts := cfg.Timeouts.WithDefaults()
	return &Client{
		dial: func(ctx context.Context, server *link.Server, address string) (*sftpconn.Client, func() error, error) {
			return dialSSH(ctx, server, address, timeouts)
		},
		logger: logger,
	}
}

// ClientConfig builds the SSH configuration for server. A private key
// takes precedence over the password. When HostKey is empty any host
// key is accepted.
func ClientConfig(server *link.Server) (*ssh.ClientConfig, error) {
	config := &ssh.ClientConfig{User: server.Username}

	if server.PrivateKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(server.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("parsing private key: %w", err)
		}
		config.Auth = []ssh.AuthMethod{ssh.PublicKeys(signer)}
	} else {
		config.Auth = []ssh.AuthMethod{ssh.Password(server.Password)}
	}

	if server.HostKey != "" {
		hostKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(server.HostKey))
		if err != nil {
			return nil, fmt.Errorf("parsing host key: %w", err)
		}
		config.HostKeyCallback = ssh.FixedHostKey(hostKey)
	} else {
		config.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}
	return config, nil
}

func dialSSH(ctx context.Context, server *link.Server, address string, timeouts protocol.Timeouts) (*sftpconn.Client, func() error, error) {
	config, err := ClientConfig(server)
	if err != nil {
		return nil, nil, err
	}
	config.Timeout = timeouts.Dial

	dialer := net.Dialer{Timeout: timeouts.Dial}
	netConn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, nil, err
	}
	sshConn, channels, requests, err := ssh.NewClientConn(netConn, address, config)
	if err != nil {
		netConn.Close()
		return nil, nil, fmt.Errorf("ssh handshake: %w", err)
	}
	sshClient := ssh.NewClient(sshConn, channels, requests)

	sftpClient, err := sftpconn.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, nil, fmt.Errorf("starting sftp subsystem: %w", err)
	}
	closeAll := func() error {
		return errors.Join(sftpClient.Close(), ignoreClosed(sshClient.Close()))
	}
	return sftpClient, closeAll, nil
}

// ignoreClosed drops the error from closing an SSH connection that the
// SFTP client's close already shut down.
func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (c *Client) open(ctx context.Context, server *link.Server) (*protocol.Session, *sftpconn.Client, func() error, error) {
	address, err := server.Address()
	if err != nil {
		return nil, nil, nil, err
	}
	session := protocol.NewSession(link.SFTP, address, c.logger)
	var (
		client   *sftpconn.Client
		closeAll func() error
	)
	err = session.Connect(func() error {
		var dialErr error
		client, closeAll, dialErr = c.dial(ctx, server, address)
		return dialErr
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return session, client, closeAll, nil
}

// Verify implements protocol.Client.
func (c *Client) Verify(ctx context.Context, server *link.Server) (err error) {
	session, client, closeAll, err := c.open(ctx, server)
	if err != nil {
		return err
	}
	defer session.Finish(&err, closeAll)
	return session.Do(protocol.StageVerify, "", func() error {
		_, err := client.Getwd()
		return err
	})
}

// Get implements protocol.Client.
func (c *Client) Get(ctx context.Context, server *link.Server, remotePath, localPath string) (err error) {
	session, client, closeAll, err := c.open(ctx, server)
	if err != nil {
		return err
	}
	defer session.Finish(&err, closeAll)

	return session.Do(protocol.StageGet, remotePath, func() error {
		remote, err := client.Open(remotePath)
		if err != nil {
			return err
		}
		copyErr := writeLocal(localPath, remote)
		closeErr := remote.Close()
		if copyErr != nil {
			return copyErr
		}
		if closeErr != nil {
			return &protocol.OperationError{Kind: link.SFTP, Stage: protocol.StageClose, Path: remotePath, Err: closeErr}
		}
		return nil
	})
}

// Put implements protocol.Client.
func (c *Client) Put(ctx context.Context, server *link.Server, localPath, remotePath string) (err error) {
	local, err := os.Open(localPath)
	if err != nil {
		return &protocol.OperationError{Kind: link.SFTP, Stage: protocol.StagePut, Path: localPath, Err: err}
	}
	defer local.Close()

	session, client, closeAll, err := c.open(ctx, server)
	if err != nil {
		return err
	}
	defer session.Finish(&err, closeAll)

	return session.Do(protocol.StagePut, remotePath, func() error {
		remote, err := client.Create(remotePath)
		if err != nil {
			return err
		}
		if _, err := remote.ReadFrom(local); err != nil {
			remote.Close()
			return err
		}
		if err := remote.Close(); err != nil {
			return &protocol.OperationError{Kind: link.SFTP, Stage: protocol.StageClose, Path: remotePath, Err: err}
		}
		return nil
	})
}

// Find implements protocol.Client. The whole search runs in one
// session.
func (c *Client) Find(ctx context.Context, server *link.Server, file, start string, maxDepth int) (found string, err error) {
	session, client, closeAll, err := c.open(ctx, server)
	if err != nil {
		return "", err
	}
	defer session.Finish(&err, closeAll)

	lister := protocol.ListerFunc(func(ctx context.Context, path string) ([]protocol.Entry, error) {
		var entries []protocol.Entry
		err := session.Do(protocol.StageList, path, func() error {
			infos, err := client.ReadDir(path)
			if err != nil {
				return err
			}
			entries = convertEntries(infos)
			return nil
		})
		return entries, err
	})
	return protocol.Find(ctx, lister, file, start, maxDepth)
}

// Execute implements protocol.Client. Commands go through the
// companion plugin only.
func (c *Client) Execute(ctx context.Context, server *link.Server, command string) (*protocol.Response, error) {
	return nil, &protocol.OperationError{Kind: link.SFTP, Stage: protocol.StageExecute, Err: protocol.ErrUnsupported}
}

func convertEntries(infos []os.FileInfo) []protocol.Entry {
	entries := make([]protocol.Entry, 0, len(infos))
	for _, info := range infos {
		entryType := protocol.EntryOther
		switch {
		case info.Mode().IsRegular():
			entryType = protocol.EntryFile
		case info.IsDir():
			entryType = protocol.EntryDirectory
		}
		entries = append(entries, protocol.Entry{Type: entryType, Name: info.Name()})
	}
	return entries
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
