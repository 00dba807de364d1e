// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts link credentials (FTP/SFTP passwords, SSH
// private keys) before they reach the durable store or the shard bus.
// It wraps filippo.io/age with a single x25519 identity shared by all
// shards of a deployment.
//
// Sealed values are strings of the form "sealed:<base64 age payload>"
// so that they fit the string fields of a link document unchanged.
// [Sealer.Open] passes unprefixed values through untouched, which lets
// records written before sealing was configured keep loading.
//
// Key exports:
//
//   - [GenerateIdentity] -- new identity file contents and recipient
//   - [LoadIdentityFile] / [NewSealer] -- construct a [Sealer]
//   - [Sealer.Seal] / [Sealer.Open] -- field-level encrypt/decrypt
package sealed
