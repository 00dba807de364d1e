// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/serverlink/cmd/serverlink/cli"
	"github.com/bureau-foundation/serverlink/lib/version"
)

// stdout receives command output. Tests replace it.
var stdout io.Writer = os.Stdout

// Root returns the command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "serverlink",
		Summary: "Link chat guilds to game servers",
		Description: `serverlink links chat guilds and users to game servers reached over
FTP, SFTP or the companion plugin, and operates on those servers.`,
		Subcommands: []*cli.Command{
			linkCommand(),
			unlinkCommand(),
			listCommand(),
			getCommand(),
			putCommand(),
			findCommand(),
			execCommand(),
			banCommand(),
			settingsCommand(true),
			settingsCommand(false),
			importCommand(),
			shardCommand(),
			keygenCommand(),
			cborCommand(),
			pluginCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Fprintf(stdout, "serverlink %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Link a plugin server to guild 42",
				Command:     "serverlink link server 42 --server-id survival --kind plugin --host mc.example.net --hash a3f1c2",
			},
			{
				Description: "Find the world data of guild 42's server",
				Command:     "serverlink find 42 level.dat --start /srv --depth 4",
			},
		},
	}
}

// commandContext is cancelled on SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// withEnvironment opens the environment, runs action and closes it.
func withEnvironment(flags *globalFlags, action func(ctx context.Context, env *environment) error) error {
	ctx, cancel := commandContext()
	defer cancel()

	env, err := openEnvironment(ctx, flags)
	if err != nil {
		return err
	}
	defer env.Close()
	return action(ctx, env)
}

func requireArgs(args []string, count int, usage string) error {
	if len(args) != count {
		return fmt.Errorf("expected %d argument(s): %s", count, usage)
	}
	return nil
}
