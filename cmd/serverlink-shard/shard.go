// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/serverlink/lib/clock"
	"github.com/bureau-foundation/serverlink/lib/registry"
	"github.com/bureau-foundation/serverlink/lib/shardbus"
)

// shard serves the status and reload actions of one shard process.
type shard struct {
	id         string
	registries *registry.Set
	clock      clock.Clock
	startedAt  time.Time
	logger     *slog.Logger

	// reloadMu keeps operator reloads from overlapping.
	reloadMu sync.Mutex
}

func newShard(id string, registries *registry.Set, shardClock clock.Clock, logger *slog.Logger) *shard {
	return &shard{
		id:         id,
		registries: registries,
		clock:      shardClock,
		startedAt:  shardClock.Now(),
		logger:     logger,
	}
}

func (s *shard) registerActions(bus *shardbus.SocketBus) {
	bus.Handle(shardbus.ActionStatus, s.handleStatus)
	bus.Handle(shardbus.ActionReload, s.handleReload)
}

func (s *shard) status() shardbus.Status {
	return shardbus.Status{
		Shard:         s.id,
		UptimeSeconds: s.clock.Now().Sub(s.startedAt).Seconds(),
		Servers:       s.registries.Servers.Len(),
		Users:         s.registries.Users.Len(),
		Settings:      s.registries.Settings.Len(),
	}
}

func (s *shard) handleStatus(ctx context.Context, raw []byte) (any, error) {
	return s.status(), nil
}

// handleReload re-reads every category from the store and answers with
// the resulting status.
func (s *shard) handleReload(ctx context.Context, raw []byte) (any, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if err := s.registries.Reload(ctx); err != nil {
		s.logger.Error("operator reload failed", "error", err)
		return nil, err
	}
	status := s.status()
	s.logger.Info("operator reload complete",
		"servers", status.Servers,
		"users", status.Users,
		"settings", status.Settings,
	)
	return status, nil
}

// pingGrace is how long a starting shard waits before pinging siblings
// that were unreachable at first.
const pingGrace = 5 * time.Second

// pingPeers logs which siblings are reachable, retrying unreachable
// ones once after pingGrace since siblings often start together.
// Unreachable siblings are not an error: they reload from the store
// when they start. It returns the ids still unreachable.
func (s *shard) pingPeers(ctx context.Context, bus *shardbus.SocketBus) []string {
	var unreachable []shardbus.Peer
	for _, peer := range bus.Peers() {
		if !s.ping(ctx, bus, peer) {
			unreachable = append(unreachable, peer)
		}
	}
	if len(unreachable) == 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return peerIDs(unreachable)
	case <-s.clock.After(pingGrace):
	}
	var still []shardbus.Peer
	for _, peer := range unreachable {
		if !s.ping(ctx, bus, peer) {
			s.logger.Warn("sibling not reachable", "peer", peer.ID)
			still = append(still, peer)
		}
	}
	return peerIDs(still)
}

func (s *shard) ping(ctx context.Context, bus *shardbus.SocketBus, peer shardbus.Peer) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := bus.Ping(pingCtx, peer); err != nil {
		s.logger.Debug("sibling ping failed", "peer", peer.ID, "error", err)
		return false
	}
	s.logger.Info("sibling reachable", "peer", peer.ID)
	return true
}

func peerIDs(peers []shardbus.Peer) []string {
	ids := make([]string, 0, len(peers))
	for _, peer := range peers {
		ids = append(ids, peer.ID)
	}
	return ids
}
