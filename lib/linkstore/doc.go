// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package linkstore is the durable side of the connection registries:
// one JSON document per identity, grouped into category-scoped
// collections (servers, users, settings).
//
// The registries depend only on the [Store] interface. Two
// implementations ship here: [SQLiteStore], a single table keyed by
// (category, id) on top of lib/sqlitepool, which every shard of a
// machine can open concurrently thanks to WAL mode; and [MemoryStore],
// used in tests and by single-process tooling. MemoryStore can be told
// to fail writes so that tests can exercise the registry's rollback
// paths.
package linkstore
