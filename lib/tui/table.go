// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// WarningPrefix marks a cell that RenderTable draws in the warning
// color. The prefix itself is not printed.
const WarningPrefix = "!"

// RenderTable renders rows under headers as a bordered table.
func (theme Theme) RenderTable(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(theme.NormalText).Padding(0, 1)
	warningStyle := cellStyle.Foreground(theme.Warning)

	cells := make([][]string, len(rows))
	warnings := make(map[[2]int]bool)
	for rowIndex, row := range rows {
		cells[rowIndex] = make([]string, len(row))
		for column, cell := range row {
			if strings.HasPrefix(cell, WarningPrefix) {
				warnings[[2]int{rowIndex, column}] = true
				cell = strings.TrimPrefix(cell, WarningPrefix)
			}
			cells[rowIndex][column] = cell
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.BorderColor)).
		StyleFunc(func(row, column int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case warnings[[2]int{row, column}]:
				return warningStyle
			default:
				return cellStyle
			}
		}).
		Headers(headers...).
		Rows(cells...).
		String()
}

// Faint renders text in the faint color, for notes such as "no links".
func (theme Theme) Faint(text string) string {
	return lipgloss.NewStyle().Foreground(theme.FaintText).Render(text)
}
