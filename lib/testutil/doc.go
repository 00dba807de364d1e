// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [SocketDir] creates a short temporary directory for Unix sockets,
// whose paths are limited to 108 bytes (t.TempDir() paths can exceed
// that). [WaitForSocket] blocks until a server has created its socket
// file.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so individual tests do not call time.After directly.
//
// All helpers call t.Fatalf on failure.
package testutil
