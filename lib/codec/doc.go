// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration shared by
// every serverlink component.
//
// Two serialization formats are in use, with a clear boundary:
//
//   - JSON for external interfaces: the link documents persisted in
//     the store, operator import files, and CLI output.
//   - CBOR for internal protocols: shard bus events and the companion
//     plugin socket protocol.
//
// Link entities cross both boundaries. They carry `json` tags only;
// fxamacker/cbor falls back to json tags when no cbor tag is present,
// so one tag set names the fields in both formats and `json:"-"`
// keeps process-local fields (live sessions, settings associations)
// out of both the store and the bus. Purely internal envelopes use
// `cbor` tags.
//
// For buffer-oriented operations (event payloads):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
package codec
