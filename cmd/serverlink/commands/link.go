// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/serverlink/cmd/serverlink/cli"
	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/secret"
)

// serverFlags describe one server link on the command line.
type serverFlags struct {
	serverID     string
	kind         string
	host         string
	port         int
	username     string
	passwordFile string
	keyFile      string
	hostKeyFile  string
	path         string
	hash         string
	version      string
	channel      string
	chatTypes    []string
}

func (s *serverFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&s.serverID, "server-id", "", "id distinguishing this server within the guild (required)")
	flagSet.StringVar(&s.kind, "kind", "", "transport: ftp, sftp or plugin (required)")
	flagSet.StringVar(&s.host, "host", "", "server host (required)")
	flagSet.IntVar(&s.port, "port", 0, "server port (default: 21 for ftp, 22 for sftp, transport.plugin_port for plugin)")
	flagSet.StringVar(&s.username, "user", "", "ftp/sftp user name")
	flagSet.StringVar(&s.passwordFile, "password-file", "", "read the ftp/sftp password from this file instead of prompting")
	flagSet.StringVar(&s.keyFile, "key-file", "", "sftp private key (PEM)")
	flagSet.StringVar(&s.hostKeyFile, "host-key-file", "", "pin the sftp host key (authorized_keys format)")
	flagSet.StringVar(&s.path, "path", "", "remote base path of the server installation")
	flagSet.StringVar(&s.hash, "hash", "", "companion plugin hash")
	flagSet.StringVar(&s.version, "game-version", "", "minor game version of the server")
	flagSet.StringVar(&s.channel, "channel", "", "chat channel receiving relayed events")
	flagSet.StringSliceVar(&s.chatTypes, "chat-types", nil, "event types relayed to --channel")
}

// server builds the link from the flags, reading secrets from files or
// the terminal.
func (s *serverFlags) server(defaultPluginPort int) (*link.Server, error) {
	kind, err := link.ParseKind(s.kind)
	if err != nil {
		return nil, err
	}
	server := &link.Server{
		ServerID: s.serverID,
		Kind:     kind,
		Host:     s.host,
		Port:     s.port,
		Username: s.username,
		Path:     s.path,
		Hash:     s.hash,
		Version:  s.version,
	}
	if server.Port == 0 {
		switch kind {
		case link.FTP:
			server.Port = 21
		case link.SFTP:
			server.Port = 22
		case link.Plugin:
			server.Port = defaultPluginPort
		}
	}

	if s.channel != "" {
		channel := link.Channel{ID: s.channel}
		for _, chatType := range s.chatTypes {
			channel.Types = append(channel.Types, link.ChatType(chatType))
		}
		server.Channels = []link.Channel{channel}
	}

	if s.hostKeyFile != "" {
		data, err := os.ReadFile(s.hostKeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading host key: %w", err)
		}
		server.HostKey = string(data)
	}

	switch {
	case kind == link.Plugin:
		if server.Hash == "" {
			return nil, fmt.Errorf("--hash is required for plugin servers")
		}
	case s.keyFile != "":
		data, err := os.ReadFile(s.keyFile)
		if err != nil {
			return nil, fmt.Errorf("reading private key: %w", err)
		}
		server.PrivateKey = string(data)
	default:
		var (
			password *secret.Buffer
			err      error
		)
		if s.passwordFile != "" {
			password, err = secret.ReadFile(s.passwordFile)
		} else {
			password, err = cli.ReadSecret(fmt.Sprintf("Password for %s@%s: ", server.Username, server.Host))
		}
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		server.Password = password.String()
		password.Close()
	}
	if kind != link.Plugin && server.Username == "" {
		return nil, fmt.Errorf("--user is required for %s servers", kind)
	}
	return server, nil
}

func linkCommand() *cli.Command {
	return &cli.Command{
		Name:    "link",
		Summary: "Link a server to a guild, or a user to a game account",
		Subcommands: []*cli.Command{
			linkServerCommand(),
			linkUserCommand(),
		},
	}
}

func linkServerCommand() *cli.Command {
	var (
		global globalFlags
		flags  serverFlags
	)
	return &cli.Command{
		Name:    "server",
		Summary: "Verify a server and link it to a guild",
		Description: `Verify a server over its transport and link it to a guild. A guild
may link several servers; linking an existing server id replaces it.
The transport of a linked server cannot change: unlink it first.`,
		Usage: "serverlink link server <guild-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("link server", pflag.ContinueOnError)
			global.register(flagSet)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "<guild-id>"); err != nil {
				return err
			}
			return withEnvironment(&global, func(ctx context.Context, env *environment) error {
				server, err := flags.server(env.cfg.Transport.PluginPort)
				if err != nil {
					return err
				}
				guild, err := env.linker.LinkServer(ctx, args[0], server)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "linked %s server %s to guild %s (%d server(s) linked)\n",
					server.Kind, server.ServerID, guild.ID, len(guild.Servers))
				return nil
			})
		},
	}
}

func linkUserCommand() *cli.Command {
	var (
		global   globalFlags
		uuid     string
		username string
	)
	return &cli.Command{
		Name:    "user",
		Summary: "Link a chat user to a game account",
		Usage:   "serverlink link user <user-id> --username <name> [--uuid <uuid>]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("link user", pflag.ContinueOnError)
			global.register(flagSet)
			flagSet.StringVar(&username, "username", "", "game account name (required)")
			flagSet.StringVar(&uuid, "uuid", "", "game account uuid")
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "<user-id>"); err != nil {
				return err
			}
			return withEnvironment(&global, func(ctx context.Context, env *environment) error {
				user, err := env.linker.LinkUser(ctx, &link.User{ID: args[0], UUID: uuid, Username: username})
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "linked user %s to %s\n", user.ID, user.Username)
				return nil
			})
		},
	}
}

func unlinkCommand() *cli.Command {
	var global globalFlags
	flagSet := func(name string) func() *pflag.FlagSet {
		return func() *pflag.FlagSet {
			flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
			global.register(flags)
			return flags
		}
	}
	return &cli.Command{
		Name:    "unlink",
		Summary: "Remove a server or user link",
		Subcommands: []*cli.Command{
			{
				Name:    "server",
				Summary: "Unlink one server of a guild",
				Description: `Unlink one server of a guild. Unlinking the last server removes the
guild's link and its download cache.`,
				Usage: "serverlink unlink server <guild-id> <server-id>",
				Flags: flagSet("unlink server"),
				Run: func(args []string) error {
					if err := requireArgs(args, 2, "<guild-id> <server-id>"); err != nil {
						return err
					}
					return withEnvironment(&global, func(ctx context.Context, env *environment) error {
						if err := env.linker.UnlinkServer(ctx, args[0], args[1]); err != nil {
							return err
						}
						fmt.Fprintf(stdout, "unlinked server %s from guild %s\n", args[1], args[0])
						return nil
					})
				},
			},
			{
				Name:    "user",
				Summary: "Unlink a chat user",
				Usage:   "serverlink unlink user <user-id>",
				Flags:   flagSet("unlink user"),
				Run: func(args []string) error {
					if err := requireArgs(args, 1, "<user-id>"); err != nil {
						return err
					}
					return withEnvironment(&global, func(ctx context.Context, env *environment) error {
						if err := env.linker.UnlinkUser(ctx, args[0]); err != nil {
							return err
						}
						fmt.Fprintf(stdout, "unlinked user %s\n", args[0])
						return nil
					})
				},
			},
		},
	}
}
