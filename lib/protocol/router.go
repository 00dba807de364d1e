// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/bureau-foundation/serverlink/lib/link"
)

// Resolver looks up the server links of a guild.
// *registry.Registry[*link.Guild] implements it.
type Resolver interface {
	Get(id string) (*link.Guild, bool)
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Servers Resolver

	// Clients maps each transport kind to its client. One client may
	// serve several kinds.
	Clients map[link.Kind]Client

	Notifier Notifier
	Logger   *slog.Logger
}

// Router dispatches operations to the client of a linked server's
// transport. It holds no state of its own.
type Router struct {
	servers  Resolver
	clients  map[link.Kind]Client
	notifier Notifier
	logger   *slog.Logger
}

// NewRouter creates a router. A nil Notifier logs messages.
func NewRouter(cfg RouterConfig) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	return &Router{
		servers:  cfg.Servers,
		clients:  cfg.Clients,
		notifier: notifier,
		logger:   logger,
	}
}

// Target is a Router bound to one server of a guild.
type Target struct {
	router   *Router
	serverID string
}

// On binds calls to the server with the given id. The plain Router
// methods use the guild's primary (first linked) server.
func (r *Router) On(serverID string) Target {
	return Target{router: r, serverID: serverID}
}

// Get downloads remotePath of id's server to localPath.
func (r *Router) Get(ctx context.Context, id, remotePath, localPath string) (bool, error) {
	return r.On("").Get(ctx, id, remotePath, localPath)
}

// Put uploads localPath to remotePath on id's server.
func (r *Router) Put(ctx context.Context, id, localPath, remotePath string) (bool, error) {
	return r.On("").Put(ctx, id, localPath, remotePath)
}

// Execute runs command on id's server.
func (r *Router) Execute(ctx context.Context, id, command string) (Outcome, error) {
	return r.On("").Execute(ctx, id, command)
}

// Find searches id's server for file below start.
func (r *Router) Find(ctx context.Context, id, file, start string, maxDepth int) (string, bool, error) {
	return r.On("").Find(ctx, id, file, start, maxDepth)
}

// Verify checks that server is reachable with its credentials. It is
// called before a link exists, so the server is passed directly.
func (r *Router) Verify(ctx context.Context, server *link.Server) (bool, error) {
	address, err := server.Address()
	if err != nil {
		r.notify(ctx, Message{Key: KeyMalformedAddress, Severity: SeverityError, Fields: map[string]string{"error": err.Error()}})
		return false, err
	}
	client, ok := r.clients[server.Kind]
	if !ok {
		r.notify(ctx, Message{Key: KeyUnsupported, Severity: SeverityError, Fields: map[string]string{"kind": string(server.Kind)}})
		return false, nil
	}
	if err := client.Verify(ctx, server); err != nil {
		r.fail(ctx, "", err, map[string]string{"address": address})
		return false, nil
	}
	r.notify(ctx, Message{Key: KeyVerified, Severity: SeverityInfo, Fields: map[string]string{"address": address}})
	return true, nil
}

// Get downloads remotePath to localPath.
func (t Target) Get(ctx context.Context, id, remotePath, localPath string) (bool, error) {
	server, client, ok, err := t.resolve(ctx, id)
	if !ok {
		return false, err
	}
	if err := client.Get(ctx, server, remotePath, localPath); err != nil {
		t.router.fail(ctx, id, err, map[string]string{"path": remotePath})
		return false, nil
	}
	t.router.notify(ctx, Message{Key: KeyGetSuccess, Severity: SeverityInfo, ID: id, Fields: map[string]string{"path": localPath}})
	return true, nil
}

// Put uploads localPath to remotePath.
func (t Target) Put(ctx context.Context, id, localPath, remotePath string) (bool, error) {
	server, client, ok, err := t.resolve(ctx, id)
	if !ok {
		return false, err
	}
	if err := client.Put(ctx, server, localPath, remotePath); err != nil {
		t.router.fail(ctx, id, err, map[string]string{"path": remotePath})
		return false, nil
	}
	t.router.notify(ctx, Message{Key: KeyPutSuccess, Severity: SeverityInfo, ID: id, Fields: map[string]string{"path": remotePath}})
	return true, nil
}

// Execute runs command. A 206 status is reported as a warning with the
// action taken; a transport failure or non-2xx status as a failure
// with no action taken.
func (t Target) Execute(ctx context.Context, id, command string) (Outcome, error) {
	server, client, ok, err := t.resolve(ctx, id)
	if !ok {
		return Failed, err
	}
	response, err := client.Execute(ctx, server, command)
	if err != nil {
		t.router.fail(ctx, id, err, map[string]string{"command": command})
		return Failed, nil
	}

	outcome := Classify(response.Status)
	fields := map[string]string{"command": command, "status": strconv.Itoa(response.Status)}
	switch outcome {
	case Succeeded:
		t.router.notify(ctx, Message{Key: KeyExecuteSuccess, Severity: SeverityInfo, ID: id, Fields: fields})
	case SucceededWithWarning:
		t.router.notify(ctx, Message{Key: KeyExecuteWarning, Severity: SeverityWarning, ID: id, Fields: fields})
	default:
		t.router.notify(ctx, Message{Key: KeyCouldNotExecute, Severity: SeverityError, ID: id, Fields: fields})
	}
	return outcome, nil
}

// Find searches for file below start. The bool is false both when the
// search failed and when nothing was found; the message tells which.
func (t Target) Find(ctx context.Context, id, file, start string, maxDepth int) (string, bool, error) {
	server, client, ok, err := t.resolve(ctx, id)
	if !ok {
		return "", false, err
	}
	found, err := client.Find(ctx, server, file, start, maxDepth)
	if err != nil {
		t.router.fail(ctx, id, err, map[string]string{"path": start})
		return "", false, nil
	}
	if found == "" {
		t.router.notify(ctx, Message{Key: KeyNotFound, Severity: SeverityWarning, ID: id, Fields: map[string]string{"file": file, "path": start}})
		return "", false, nil
	}
	t.router.notify(ctx, Message{Key: KeyFindSuccess, Severity: SeverityInfo, ID: id, Fields: map[string]string{"file": file, "path": found}})
	return found, true, nil
}

// resolve finds the server and client for id. When ok is false the
// failure message has already been sent; err is non-nil only for a
// malformed address.
func (t Target) resolve(ctx context.Context, id string) (*link.Server, Client, bool, error) {
	r := t.router
	guild, found := r.servers.Get(id)
	var server *link.Server
	if found {
		if t.serverID == "" {
			server = guild.Primary()
		} else {
			server, _ = guild.Server(t.serverID)
		}
	}
	if server == nil {
		fields := map[string]string{}
		if t.serverID != "" {
			fields["server"] = t.serverID
		}
		r.notify(ctx, Message{Key: KeyNotLinked, Severity: SeverityError, ID: id, Fields: fields})
		return nil, nil, false, nil
	}

	if _, err := server.Address(); err != nil {
		r.logger.Error("stored server address is malformed", "id", id, "server", server.ServerID, "error", err)
		r.notify(ctx, Message{Key: KeyMalformedAddress, Severity: SeverityError, ID: id, Fields: map[string]string{"error": err.Error()}})
		return nil, nil, false, err
	}

	client, ok := r.clients[server.Kind]
	if !ok {
		r.notify(ctx, Message{Key: KeyUnsupported, Severity: SeverityError, ID: id, Fields: map[string]string{"kind": string(server.Kind)}})
		return nil, nil, false, nil
	}
	return server, client, true, nil
}

// fail reports err with the key of its failure class.
func (r *Router) fail(ctx context.Context, id string, err error, fields map[string]string) {
	fields["error"] = err.Error()
	key := KeyUnknownError

	var (
		connectError   *ConnectError
		operationError *OperationError
		statusError    *StatusError
	)
	switch {
	case errors.Is(err, ErrUnsupported):
		key = KeyUnsupported
	case errors.As(err, &connectError):
		key = KeyCouldNotConnect
	case errors.As(err, &operationError):
		key = stageKeys[operationError.Stage]
		if operationError.Path != "" {
			fields["path"] = operationError.Path
		}
		if key == "" {
			key = KeyUnknownError
		}
	}
	if errors.As(err, &statusError) {
		fields["status"] = strconv.Itoa(statusError.Status)
	}

	r.logger.Debug("protocol operation failed", "id", id, "key", key, "error", err)
	r.notify(ctx, Message{Key: key, Severity: SeverityError, ID: id, Fields: fields})
}

var stageKeys = map[Stage]string{
	StageVerify:  KeyCouldNotConnect,
	StageGet:     KeyCouldNotGet,
	StagePut:     KeyCouldNotPut,
	StageList:    KeyCouldNotList,
	StageExecute: KeyCouldNotExecute,
	StageClose:   KeyCouldNotClose,
}

func (r *Router) notify(ctx context.Context, message Message) {
	r.notifier.Notify(ctx, message)
}
