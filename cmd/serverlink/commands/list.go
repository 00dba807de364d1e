// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/serverlink/cmd/serverlink/cli"
	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/tui"
)

const redacted = "********"

func listCommand() *cli.Command {
	var (
		global     globalFlags
		jsonOutput bool
	)
	return &cli.Command{
		Name:    "list",
		Summary: "List links of one category",
		Usage:   "serverlink list servers|users|settings [--json]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			global.register(flagSet)
			flagSet.BoolVar(&jsonOutput, "json", false, "print JSON instead of a table")
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "servers|users|settings"); err != nil {
				return err
			}
			category := link.Category(args[0])
			if !category.Valid() {
				return fmt.Errorf("unknown category %q", args[0])
			}
			return withEnvironment(&global, func(ctx context.Context, env *environment) error {
				return listCategory(env, category, jsonOutput)
			})
		},
	}
}

func listCategory(env *environment, category link.Category, jsonOutput bool) error {
	var rows []any
	switch category {
	case link.Servers:
		env.registries.Servers.Each(func(guild *link.Guild) bool {
			rows = append(rows, redactGuild(guild))
			return true
		})
	case link.Users:
		env.registries.Users.Each(func(user *link.User) bool {
			rows = append(rows, user)
			return true
		})
	case link.GuildSettings:
		env.registries.Settings.Each(func(settings *link.Settings) bool {
			rows = append(rows, settings)
			return true
		})
	}

	if jsonOutput {
		if rows == nil {
			rows = []any{}
		}
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		if isTerminal(stdout) {
			fmt.Fprintln(stdout, tui.DefaultTheme.HighlightJSON(string(data)))
			return nil
		}
		_, err = fmt.Fprintf(stdout, "%s\n", data)
		return err
	}

	headers, cells := tableOf(category, rows)
	if isTerminal(stdout) {
		if len(cells) == 0 {
			fmt.Fprintln(stdout, tui.DefaultTheme.Faint("no "+string(category)+" linked"))
			return nil
		}
		fmt.Fprintln(stdout, tui.DefaultTheme.RenderTable(headers, cells))
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range cells {
		for index := range row {
			row[index] = strings.TrimPrefix(row[index], tui.WarningPrefix)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func tableOf(category link.Category, rows []any) ([]string, [][]string) {
	var cells [][]string
	switch category {
	case link.Servers:
		for _, row := range rows {
			guild := row.(*link.Guild)
			for _, server := range guild.Servers {
				address, err := server.Address()
				if err != nil {
					address = tui.WarningPrefix + "(" + err.Error() + ")"
				}
				cells = append(cells, []string{guild.ID, server.ServerID, string(server.Kind),
					address, server.Path, server.LinkedAt.Format("2006-01-02 15:04")})
			}
		}
		return []string{"GUILD", "SERVER", "KIND", "ADDRESS", "PATH", "LINKED"}, cells
	case link.Users:
		for _, row := range rows {
			user := row.(*link.User)
			cells = append(cells, []string{user.ID, user.Username, user.UUID})
		}
		return []string{"USER", "USERNAME", "UUID"}, cells
	default:
		for _, row := range rows {
			settings := row.(*link.Settings)
			cells = append(cells, []string{settings.ID, formatDisabled(settings)})
		}
		return []string{"ID", "DISABLED"}, cells
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// redactGuild returns a copy of guild without credential values.
func redactGuild(guild *link.Guild) *link.Guild {
	result := guild.Detached()
	for _, server := range result.Servers {
		if server.Password != "" {
			server.Password = redacted
		}
		if server.PrivateKey != "" {
			server.PrivateKey = redacted
		}
		if server.Hash != "" {
			server.Hash = redacted
		}
	}
	return result
}

func formatDisabled(settings *link.Settings) string {
	classes := make([]string, 0, len(settings.Disabled))
	for class := range settings.Disabled {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	var parts []string
	for _, class := range classes {
		parts = append(parts, class+"="+strings.Join(settings.Disabled[class], ","))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
