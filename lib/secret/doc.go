// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret keeps operator-supplied credentials (SFTP passwords
// entered at "serverlink link server" and the age identity that seals
// stored credentials) off the Go heap while they are read and parsed.
//
// A [Buffer] lives in mmap'd memory that is mlock'ed and marked
// MADV_DONTDUMP; Close wipes it. [ReadFile] and [ReadLine] read a
// secret straight into a Buffer and wipe the input they read it from.
//
// Link records store passwords as strings, so [Buffer.String] is
// where a password ends its time in protected memory. lib/sealed
// parses the identity file directly from [Buffer.Bytes].
package secret
