// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/serverlink/cmd/serverlink/cli"
	"github.com/bureau-foundation/serverlink/lib/protocol"
	"github.com/bureau-foundation/serverlink/lib/protocol/plugin"
)

// failed is returned after the router has already reported a failure.
var failed = &cli.ExitError{Code: 1}

// remoteFlags are shared by every command that acts on a linked server.
type remoteFlags struct {
	global   globalFlags
	serverID string
}

func (r *remoteFlags) flagSet(name string, extra func(*pflag.FlagSet)) func() *pflag.FlagSet {
	return func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
		r.global.register(flagSet)
		flagSet.StringVar(&r.serverID, "server", "", "server id within the guild (default: the first linked server)")
		if extra != nil {
			extra(flagSet)
		}
		return flagSet
	}
}

func (r *remoteFlags) run(action func(ctx context.Context, target protocol.Target, env *environment) error) error {
	return withEnvironment(&r.global, func(ctx context.Context, env *environment) error {
		return action(ctx, env.router.On(r.serverID), env)
	})
}

// succeeded turns a router result into the command's result: the
// router has already reported the outcome through its notifier.
func succeeded(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return failed
	}
	return nil
}

func getCommand() *cli.Command {
	var flags remoteFlags
	return &cli.Command{
		Name:    "get",
		Summary: "Download a file from a linked server",
		Usage:   "serverlink get <guild-id> <remote-path> <local-path> [--server <id>]",
		Flags:   flags.flagSet("get", nil),
		Run: func(args []string) error {
			if err := requireArgs(args, 3, "<guild-id> <remote-path> <local-path>"); err != nil {
				return err
			}
			return flags.run(func(ctx context.Context, target protocol.Target, env *environment) error {
				return succeeded(target.Get(ctx, args[0], args[1], args[2]))
			})
		},
	}
}

func putCommand() *cli.Command {
	var flags remoteFlags
	return &cli.Command{
		Name:    "put",
		Summary: "Upload a file to a linked server",
		Usage:   "serverlink put <guild-id> <local-path> <remote-path> [--server <id>]",
		Flags:   flags.flagSet("put", nil),
		Run: func(args []string) error {
			if err := requireArgs(args, 3, "<guild-id> <local-path> <remote-path>"); err != nil {
				return err
			}
			return flags.run(func(ctx context.Context, target protocol.Target, env *environment) error {
				return succeeded(target.Put(ctx, args[0], args[1], args[2]))
			})
		},
	}
}

func findCommand() *cli.Command {
	var (
		flags remoteFlags
		start string
		depth int
	)
	return &cli.Command{
		Name:    "find",
		Summary: "Search a linked server for a file",
		Description: `Search a linked server depth-first for a file and print the directory
containing the first match. Paths deeper than --depth segments are not
listed. Exits 1 when nothing matches.`,
		Usage: "serverlink find <guild-id> <file> [--start <path>] [--depth <n>] [--server <id>]",
		Flags: flags.flagSet("find", func(flagSet *pflag.FlagSet) {
			flagSet.StringVar(&start, "start", "", "directory to search from (default: the server's base path)")
			flagSet.IntVar(&depth, "depth", 0, "maximum path depth (default: transport.find_depth)")
		}),
		Run: func(args []string) error {
			if err := requireArgs(args, 2, "<guild-id> <file>"); err != nil {
				return err
			}
			return flags.run(func(ctx context.Context, target protocol.Target, env *environment) error {
				searchStart := start
				if searchStart == "" {
					if guild, ok := env.registries.Servers.Get(args[0]); ok && guild.Primary() != nil {
						searchStart = guild.Primary().Path
					}
				}
				if searchStart == "" {
					searchStart = "/"
				}
				maxDepth := depth
				if maxDepth == 0 {
					maxDepth = env.cfg.Transport.FindDepth
				}

				directory, found, err := target.Find(ctx, args[0], args[1], searchStart, maxDepth)
				if err := succeeded(found, err); err != nil {
					return err
				}
				fmt.Fprintln(stdout, directory)
				return nil
			})
		},
	}
}

func execCommand() *cli.Command {
	var flags remoteFlags
	return &cli.Command{
		Name:    "exec",
		Summary: "Run a command through the companion plugin",
		Usage:   "serverlink exec <guild-id> <command...> [--server <id>]",
		Flags:   flags.flagSet("exec", nil),
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("expected <guild-id> <command...>")
			}
			return flags.run(func(ctx context.Context, target protocol.Target, env *environment) error {
				return reportOutcome(target.Execute(ctx, args[0], strings.Join(args[1:], " ")))
			})
		},
	}
}

func banCommand() *cli.Command {
	var flags remoteFlags
	return &cli.Command{
		Name:    "ban",
		Summary: "Ban a player through the companion plugin",
		Description: `Ban a player through the companion plugin. A player the server has
never seen is banned anyway and reported as a warning.`,
		Usage: "serverlink ban <guild-id> <player> [reason...] [--server <id>]",
		Flags: flags.flagSet("ban", nil),
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("expected <guild-id> <player> [reason...]")
			}
			command := plugin.BanCommand(args[1], strings.Join(args[2:], " "))
			return flags.run(func(ctx context.Context, target protocol.Target, env *environment) error {
				return reportOutcome(target.Execute(ctx, args[0], command))
			})
		},
	}
}

// reportOutcome prints the outcome of a remote command. A warning is
// still a success: the command was applied.
func reportOutcome(outcome protocol.Outcome, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, outcome)
	if outcome == protocol.Failed {
		return failed
	}
	return nil
}
