// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// HighlightJSON returns source with ANSI syntax highlighting. On a
// chroma error the source is returned unchanged.
func (theme Theme) HighlightJSON(source string) string {
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, source, "json", "terminal256", theme.HighlightStyle); err != nil {
		return source
	}
	return buffer.String()
}
