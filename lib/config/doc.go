// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the shard
// daemon and the operator CLI.
//
// Configuration is loaded from a single file specified by either the
// SERVERLINK_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks, no ~/.config
// discovery, and no automatic file search.
//
// The configuration file supports environment-specific sections
// (development, production) that override base values when
// [Config].Environment matches. Production requires a sealing
// identity so that credentials are never stored in plaintext.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${SERVERLINK_RUN_DIR}, and ${VAR:-default} patterns are
// expanded. No other environment variables override config values.
//
// This package depends on no other serverlink packages.
package config
