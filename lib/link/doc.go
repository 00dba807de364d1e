// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package link defines the entities held by the connection registries:
// server links ([Guild] and its [Server] entries), user links ([User]),
// and per-guild toggles ([Settings]).
//
// Every entity is keyed by the chat-platform identity it belongs to (a
// guild or user id) and is serialized as one JSON document per identity
// in the durable store. The same structs travel between shards as CBOR;
// fxamacker/cbor reads the json tags, so one tag set controls both
// formats (see lib/codec). Fields tagged `json:"-"` are process-local:
// they are never persisted and never broadcast.
//
// Entities are treated as values once they are in a registry cache.
// Mutating helpers ([Guild.WithServer], [Settings.WithDisabled], ...)
// return modified copies so that a failed persist can restore the
// previous cache entry untouched.
package link
