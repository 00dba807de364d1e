// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/serverlink/cmd/serverlink/cli"
	"github.com/bureau-foundation/serverlink/lib/link"
)

var toggleClasses = []string{
	link.ToggleCommands,
	link.ToggleChatCommands,
	link.ToggleAdvancements,
	link.ToggleStats,
	link.ToggleBot,
}

// settingsCommand builds "disable" (disable=true) or "enable".
func settingsCommand(disable bool) *cli.Command {
	var global globalFlags
	name, verb := "enable", "Re-enable"
	if disable {
		name, verb = "disable", "Disable"
	}
	return &cli.Command{
		Name:    name,
		Summary: verb + " a command, advancement or other toggle for a guild",
		Usage:   fmt.Sprintf("serverlink %s <guild-id> <class> <name>", name),
		Description: fmt.Sprintf(`%s one name within a toggle class for a guild.
Classes: %v`, verb, toggleClasses),
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
			global.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 3, "<guild-id> <class> <name>"); err != nil {
				return err
			}
			id, class, toggle := args[0], args[1], args[2]
			if !slices.Contains(toggleClasses, class) {
				return fmt.Errorf("unknown toggle class %q (want one of %v)", class, toggleClasses)
			}
			return withEnvironment(&global, func(ctx context.Context, env *environment) error {
				change := env.linker.Enable
				if disable {
					change = env.linker.Disable
				}
				settings, err := change(ctx, id, class, toggle)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "%s: %s\n", settings.ID, formatDisabled(settings))
				return nil
			})
		},
	}
}
