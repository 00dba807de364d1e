// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package shardbus replicates registry mutations between shards.
//
// A shard is one worker process holding a full in-memory copy of the
// link registries. When a registry persists a change it broadcasts an
// [Event] (add or remove, category, id, CBOR payload); every other
// shard applies it to its own cache without touching the store again.
// Delivery is fire-and-forget: a shard that is down or slow misses the
// event and catches up on its next reload. Receivers must treat events
// as idempotent (upsert on add, delete-if-present on remove).
//
// Registries depend on the [Broadcaster] interface only. Incoming
// events are routed to the registry of their category by a
// [Dispatcher]. Two fabrics are provided:
//
//   - [Fabric]: in-process endpoints, one per shard. Used by tests and
//     by deployments that run several shards in one process.
//   - [SocketBus]: each shard serves a CBOR Unix socket and broadcasts
//     by dialing every configured peer. One request per connection,
//     like every other serverlink socket.
//
// Both stamp the sending shard's id into Event.Origin; receivers drop
// events that carry their own id, so a misconfigured peer list that
// includes the sender cannot loop an event back.
package shardbus
