// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool behind the
// durable link store.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool and applies the same
// pragmas to every connection: WAL journaling so that shard reloads
// never block a concurrent link write, NORMAL synchronous mode, a busy
// timeout that absorbs write contention between shards sharing one
// database file, and an in-memory temp store.
//
// Callers either Take/Put connections themselves or use [Pool.With],
// which guarantees the connection is returned on every exit path:
//
//	err := pool.With(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, query, options)
//	})
//
// Config.Schema is executed once per connection after the pragmas, so
// every connection sees the tables it needs without a separate
// migration step.
package sqlitepool
