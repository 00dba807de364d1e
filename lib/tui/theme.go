// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the palette of serverlink's terminal output. Colors
// are ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	NormalText       lipgloss.Color
	FaintText        lipgloss.Color
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color

	// Warning marks cells that report a problem, such as a server
	// address that no longer parses.
	Warning lipgloss.Color

	// HighlightStyle is the chroma style used for JSON output.
	HighlightStyle string
}

// DefaultTheme is used when no theme is configured.
var DefaultTheme = Theme{
	NormalText:       lipgloss.Color("252"),
	FaintText:        lipgloss.Color("243"),
	HeaderForeground: lipgloss.Color("75"),
	BorderColor:      lipgloss.Color("238"),
	Warning:          lipgloss.Color("214"),
	HighlightStyle:   "monokai",
}
