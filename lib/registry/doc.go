// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry holds the per-shard cache of links for one category
// and keeps it consistent with the durable store and with sibling
// shards.
//
// A [Registry] is generic over the entity it holds (*link.Guild,
// *link.User, *link.Settings). Category-specific behaviour is supplied
// by composition through a [Policy]: how a new entity merges into an
// existing one, which fields are stripped before broadcast, how
// credentials are sealed for the store, and which associations are
// resolved once other registries have loaded.
//
// # Mutations
//
// Connect and Replace insert speculatively, persist, and only then
// broadcast an add event. A failed write restores the cache entry that
// was there before the call, so a caller sees either the old state or
// the new state, never a dangling speculative entry. Disconnect deletes
// the durable record first and leaves the cache untouched when that
// fails, so the caller can retry.
//
// # Replication
//
// Replication is eventual and fire-and-forget. Siblings apply events
// through [Registry.Apply] as idempotent upserts and deletes and never
// write to the store. A broadcast that fails to reach a sibling is
// logged with replication_gap=true; that sibling stays stale until its
// next [Registry.Reload].
//
// The registry does not lock per identity. Two concurrent mutations of
// the same id can interleave their broadcasts; callers serialize them
// (see lib/linker).
//
// # Initialization
//
// Reload reads every record of the category into the cache, waits for
// the [Readiness] of every registry listed in Policy.DependsOn, runs
// Policy.Associate over the cache, and then closes its own Ready
// channel. The server registry depends on the settings registry this
// way, instead of guessing from cache sizes whether settings have
// loaded.
package registry
