// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework of the serverlink operator CLI:
// a tree of [Command] values with pflag flag sets, generated help,
// [ExitError] for handled non-zero exits, and terminal helpers for
// reading secrets.
package cli
