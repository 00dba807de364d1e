// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// serverlink-shard is one worker process of a serverlink deployment.
// It loads every link from the SQLite store into its registries,
// listens on its shard socket for sibling events, and applies them to
// its cache without writing to the store again.
//
// Besides shard/event and shard/ping the socket serves shard/status
// (cached entity counts) and shard/reload (re-read the store, used to
// recover from missed broadcasts).
//
// Usage:
//
//	serverlink-shard --config /etc/serverlink/serverlink.yaml [--shard-id 1]
package main
