// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/serverlink/lib/clock"
	"github.com/bureau-foundation/serverlink/lib/config"
	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/linkstore"
	"github.com/bureau-foundation/serverlink/lib/registry"
	"github.com/bureau-foundation/serverlink/lib/shardbus"
	"github.com/bureau-foundation/serverlink/lib/testutil"
)

func TestStatusAndReloadOverSocket(t *testing.T) {
	ctx := context.Background()
	store := linkstore.NewMemoryStore()
	socketPath := filepath.Join(testutil.SocketDir(t), "shard-0.sock")

	bus := shardbus.NewSocketBus(shardbus.SocketBusConfig{Self: "0", SocketPath: socketPath})
	registries := registry.NewSet(registry.SetConfig{Store: store, Bus: bus, CacheRoot: t.TempDir()})
	if err := registries.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	fakeClock := clock.Fake(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	shard := newShard("0", registries, fakeClock, slog.New(slog.DiscardHandler))
	shard.registerActions(bus)

	serveCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.Serve(serveCtx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	testutil.WaitForSocket(t, socketPath, 5*time.Second)

	fakeClock.Advance(90 * time.Second)
	var status shardbus.Status
	if err := shardbus.Call(ctx, socketPath, shardbus.ActionStatus, nil, &status); err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Shard != "0" || status.Servers != 0 || status.UptimeSeconds != 90 {
		t.Errorf("status = %+v", status)
	}

	// A link written by another process without a broadcast reaching
	// this shard shows up after an operator reload.
	document, err := json.Marshal(&link.User{ID: "7", UUID: "069a79f4", Username: "Notch"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, link.Users, "7", document); err != nil {
		t.Fatal(err)
	}
	if err := shardbus.Call(ctx, socketPath, shardbus.ActionReload, nil, &status); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if status.Users != 1 {
		t.Errorf("status after reload = %+v", status)
	}
	if _, ok := registries.Users.Get("7"); !ok {
		t.Error("reload did not load the new user")
	}
}

func TestPeers(t *testing.T) {
	cfg := config.Default()
	cfg.Shard.RunDir = "/run/serverlink"
	cfg.Shard.Peers = []config.PeerConfig{{ID: "0"}, {ID: "1", Socket: "/tmp/one.sock"}}

	got := peers(cfg)
	want := []shardbus.Peer{
		{ID: "0", SocketPath: "/run/serverlink/shard-0.sock"},
		{ID: "1", SocketPath: "/tmp/one.sock"},
	}
	if len(got) != len(want) {
		t.Fatalf("peers = %+v", got)
	}
	for index := range want {
		if got[index] != want[index] {
			t.Errorf("peer %d = %+v, want %+v", index, got[index], want[index])
		}
	}
}

func TestPingPeersRetriesLateSiblings(t *testing.T) {
	socketDir := testutil.SocketDir(t)
	selfSocket := filepath.Join(socketDir, "shard-0.sock")
	siblingSocket := filepath.Join(socketDir, "shard-1.sock")
	peers := []shardbus.Peer{
		{ID: "0", SocketPath: selfSocket},
		{ID: "1", SocketPath: siblingSocket},
	}

	bus := shardbus.NewSocketBus(shardbus.SocketBusConfig{Self: "0", SocketPath: selfSocket, Peers: peers})
	registries := registry.NewSet(registry.SetConfig{Store: linkstore.NewMemoryStore(), CacheRoot: t.TempDir()})
	fakeClock := clock.Fake(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	shard := newShard("0", registries, fakeClock, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	result := make(chan []string, 1)
	go func() { result <- shard.pingPeers(ctx, bus) }()

	// The sibling is down for the first round and comes up before the
	// retry.
	fakeClock.WaitForTimers(1)
	sibling := shardbus.NewSocketBus(shardbus.SocketBusConfig{Self: "1", SocketPath: siblingSocket, Peers: peers})
	siblingDone := make(chan struct{})
	go func() {
		defer close(siblingDone)
		sibling.Serve(ctx)
	}()
	testutil.WaitForSocket(t, siblingSocket, 5*time.Second)
	fakeClock.Advance(pingGrace)

	select {
	case unreachable := <-result:
		if len(unreachable) != 0 {
			t.Errorf("unreachable after retry = %v", unreachable)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("pingPeers did not return")
	}
	cancel()
	<-siblingDone
}
