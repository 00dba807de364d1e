// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shardbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Fabric connects in-process shard endpoints.
type Fabric struct {
	mu        sync.RWMutex
	endpoints []*Endpoint
}

// NewFabric creates an empty fabric.
func NewFabric() *Fabric {
	return &Fabric{}
}

// Join adds a shard to the fabric and returns its endpoint. The
// endpoint's Dispatcher receives the other shards' broadcasts.
func (f *Fabric) Join(shardID string, logger *slog.Logger) *Endpoint {
	endpoint := &Endpoint{
		fabric:     f,
		Dispatcher: NewDispatcher(shardID, logger),
	}
	f.mu.Lock()
	f.endpoints = append(f.endpoints, endpoint)
	f.mu.Unlock()
	return endpoint
}

// Endpoint is one shard's attachment to a Fabric.
type Endpoint struct {
	*Dispatcher
	fabric *Fabric

	mu       sync.Mutex
	detached bool
}

// Detach makes the endpoint unreachable: it stops receiving events
// until Attach. Broadcasts it misses are lost, as with a crashed
// process.
func (e *Endpoint) Detach() {
	e.mu.Lock()
	e.detached = true
	e.mu.Unlock()
}

// Attach reverses Detach.
func (e *Endpoint) Attach() {
	e.mu.Lock()
	e.detached = false
	e.mu.Unlock()
}

func (e *Endpoint) reachable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.detached
}

// Broadcast delivers event to every other reachable endpoint before
// returning. Per-shard failures are joined into the returned error;
// delivery to the remaining shards continues regardless.
func (e *Endpoint) Broadcast(ctx context.Context, event Event) error {
	event.Origin = e.Self()

	e.fabric.mu.RLock()
	peers := make([]*Endpoint, 0, len(e.fabric.endpoints))
	for _, peer := range e.fabric.endpoints {
		if peer != e {
			peers = append(peers, peer)
		}
	}
	e.fabric.mu.RUnlock()

	var errs []error
	for _, peer := range peers {
		if !peer.reachable() {
			errs = append(errs, fmt.Errorf("shard %s: unreachable", peer.Self()))
			continue
		}
		if err := peer.Dispatch(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("shard %s: %w", peer.Self(), err))
		}
	}
	return errors.Join(errs...)
}
