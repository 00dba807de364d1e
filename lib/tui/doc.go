// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui renders serverlink's terminal output: bordered tables
// via lipgloss and syntax-highlighted JSON via chroma.
//
// Callers use it only when stdout is a terminal; piped output stays
// plain so that scripts can parse it. [Theme] holds the palette and
// [DefaultTheme] is the one the CLI uses.
package tui
