// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers shared by the
// shard daemon and the operator CLI: the structured logger every
// binary starts with, and fatal error reporting for errors returned
// from run() before or after that logger exists.
package process
