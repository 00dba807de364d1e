// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// serverlink is the operator CLI: it links and unlinks game servers
// and users, runs file transfers, searches and commands against linked
// servers, toggles guild settings, and queries the shard processes.
//
// Mutations are written to the link store and broadcast to every
// configured shard, exactly as a shard would broadcast its own.
package main
