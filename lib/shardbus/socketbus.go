// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shardbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/serverlink/lib/codec"
)

// Socket actions served by every shard.
const (
	ActionEvent  = "shard/event"
	ActionPing   = "shard/ping"
	ActionStatus = "shard/status"
	ActionReload = "shard/reload"
)

// Status is the response to ActionStatus.
type Status struct {
	Shard         string  `cbor:"shard"`
	UptimeSeconds float64 `cbor:"uptime_seconds"`

	// Cached entity counts per category.
	Servers  int `cbor:"servers"`
	Users    int `cbor:"users"`
	Settings int `cbor:"settings"`
}

// Peer is a sibling shard reachable over a Unix socket.
type Peer struct {
	ID         string
	SocketPath string
}

// SocketBusConfig configures a SocketBus.
type SocketBusConfig struct {
	// Self is this shard's id.
	Self string
	// SocketPath is where this shard listens.
	SocketPath string
	// Peers lists every shard of the deployment. An entry whose ID
	// equals Self is skipped.
	Peers  []Peer
	Logger *slog.Logger
}

// SocketBus replicates events to sibling processes over Unix sockets.
type SocketBus struct {
	*Dispatcher
	peers  []Peer
	server *SocketServer
	logger *slog.Logger
}

// NewSocketBus creates the bus. Call Serve to start receiving.
func NewSocketBus(cfg SocketBusConfig) *SocketBus {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	bus := &SocketBus{
		Dispatcher: NewDispatcher(cfg.Self, logger),
		server:     NewSocketServer(cfg.SocketPath, logger),
		logger:     logger,
	}
	for _, peer := range cfg.Peers {
		if peer.ID != cfg.Self {
			bus.peers = append(bus.peers, peer)
		}
	}
	bus.server.Handle(ActionEvent, bus.handleEvent)
	bus.server.Handle(ActionPing, func(context.Context, []byte) (any, error) {
		return map[string]any{"shard": cfg.Self}, nil
	})
	return bus
}

// Handle registers an additional socket action, such as a status
// query. Call before Serve.
func (b *SocketBus) Handle(action string, handler ActionFunc) {
	b.server.Handle(action, handler)
}

// Serve receives sibling events until ctx is cancelled.
func (b *SocketBus) Serve(ctx context.Context) error {
	return b.server.Serve(ctx)
}

// Broadcast sends event to every peer sequentially. Peers that cannot
// be reached are reported in the joined error; the event is not
// queued or retried.
func (b *SocketBus) Broadcast(ctx context.Context, event Event) error {
	event.Origin = b.Self()

	var errs []error
	for _, peer := range b.peers {
		if err := Call(ctx, peer.SocketPath, ActionEvent, map[string]any{"event": event}, nil); err != nil {
			errs = append(errs, fmt.Errorf("shard %s: %w", peer.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Ping checks that peer is serving.
func (b *SocketBus) Ping(ctx context.Context, peer Peer) error {
	var reply struct {
		Shard string `cbor:"shard"`
	}
	if err := Call(ctx, peer.SocketPath, ActionPing, nil, &reply); err != nil {
		return err
	}
	if reply.Shard != peer.ID {
		return fmt.Errorf("socket %s answers as shard %q, expected %q", peer.SocketPath, reply.Shard, peer.ID)
	}
	return nil
}

// Peers returns the configured siblings.
func (b *SocketBus) Peers() []Peer { return b.peers }

func (b *SocketBus) handleEvent(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		Event Event `cbor:"event"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}
	b.logger.Debug("sibling event received",
		"kind", request.Event.Kind,
		"category", request.Event.Category,
		"id", request.Event.ID,
		"origin", request.Event.Origin,
	)
	return nil, b.Dispatch(ctx, request.Event)
}
