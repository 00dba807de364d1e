// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol presents one operation contract (verify, get, put,
// execute, find) over the transports a server link can use.
//
// Transport implementations live in the ftp, sftp and plugin
// subpackages and implement [Client]. Every Client call opens its own
// session, performs one logical operation and tears the session down
// on every exit path. [Session] tracks that lifecycle and classifies
// failures into [ConnectError] (the session never became ready) and
// [OperationError] (a stage of an established session failed).
//
// [Router] is what callers use. It resolves an identity to its linked
// server through the registry, dispatches on the server's transport
// kind, and reports the result of every call through a [Notifier]
// exactly once. Transport failures become a false result plus a
// message; only a malformed stored address is returned as an error.
//
// [Find] is the bounded depth-first remote search shared by the
// transports. It needs only a [Lister].
package protocol
