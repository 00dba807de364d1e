// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/serverlink/cmd/serverlink/cli"
	"github.com/bureau-foundation/serverlink/lib/process"
	"github.com/bureau-foundation/serverlink/lib/protocol"
	"github.com/bureau-foundation/serverlink/lib/protocol/plugin"
)

func pluginCommand() *cli.Command {
	var (
		listen   string
		hash     string
		root     string
		logLevel string
	)
	return &cli.Command{
		Name:    "plugin",
		Summary: "Development stand-in for the companion plugin",
		Subcommands: []*cli.Command{
			{
				Name:    "serve",
				Summary: "Serve a local directory over the plugin protocol",
				Description: `Serve a local directory over the companion plugin protocol, for testing
links without a game server. get, put and list act on --root; execute
logs the command and succeeds.`,
				Usage: "serverlink plugin serve --root <dir> --hash <hash> [--listen <addr>]",
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("plugin serve", pflag.ContinueOnError)
					flagSet.StringVar(&listen, "listen", "127.0.0.1:21000", "address to listen on")
					flagSet.StringVar(&hash, "hash", "", "hash clients must present (required)")
					flagSet.StringVar(&root, "root", "", "directory to serve (required)")
					flagSet.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
					return flagSet
				},
				Run: func(args []string) error {
					if hash == "" || root == "" {
						return fmt.Errorf("--hash and --root are required")
					}
					level, err := process.ParseLevel(logLevel)
					if err != nil {
						return err
					}
					logger := process.NewLogger(level)

					directory, err := os.OpenRoot(root)
					if err != nil {
						return err
					}
					defer directory.Close()

					listener, err := net.Listen("tcp", listen)
					if err != nil {
						return err
					}
					ctx, cancel := commandContext()
					defer cancel()

					logger.Info("plugin stand-in listening", "address", listener.Addr().String(), "root", root)
					return newDirectoryPlugin(directory, hash, logger).Serve(ctx, listener)
				},
			},
		},
	}
}

// newDirectoryPlugin answers plugin requests from directory.
func newDirectoryPlugin(directory *os.Root, hash string, logger *slog.Logger) *plugin.Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	server := plugin.NewServer(hash, logger)

	server.Handle(plugin.ActionVerify, func(ctx context.Context, request plugin.Request) (int, any) {
		return plugin.StatusOK, nil
	})
	server.Handle(plugin.ActionExecute, func(ctx context.Context, request plugin.Request) (int, any) {
		logger.Info("command received", "command", request.Command)
		return plugin.StatusOK, "executed: " + request.Command
	})
	server.Handle(plugin.ActionGet, func(ctx context.Context, request plugin.Request) (int, any) {
		data, err := directory.ReadFile(rootRelative(request.Path))
		if err != nil {
			return errorStatus(err), err.Error()
		}
		return plugin.StatusOK, data
	})
	server.Handle(plugin.ActionPut, func(ctx context.Context, request plugin.Request) (int, any) {
		name := rootRelative(request.Path)
		if parent := path.Dir(name); parent != "." {
			if err := directory.MkdirAll(parent, 0o755); err != nil {
				return errorStatus(err), err.Error()
			}
		}
		if err := directory.WriteFile(name, request.Data, 0o644); err != nil {
			return errorStatus(err), err.Error()
		}
		return plugin.StatusOK, nil
	})
	server.Handle(plugin.ActionList, func(ctx context.Context, request plugin.Request) (int, any) {
		dir, err := directory.Open(rootRelative(request.Path))
		if err != nil {
			return errorStatus(err), err.Error()
		}
		defer dir.Close()
		entries, err := dir.ReadDir(-1)
		if err != nil {
			return errorStatus(err), err.Error()
		}
		listing := make([]map[string]string, 0, len(entries))
		for _, entry := range entries {
			entryType := protocol.EntryOther
			switch {
			case entry.Type().IsRegular():
				entryType = protocol.EntryFile
			case entry.IsDir():
				entryType = protocol.EntryDirectory
			}
			listing = append(listing, map[string]string{"type": string(entryType), "name": entry.Name()})
		}
		return plugin.StatusOK, listing
	})
	return server
}

// rootRelative maps a remote path onto the served directory: "/srv/a"
// and "srv/a" both name <root>/srv/a.
func rootRelative(remotePath string) string {
	cleaned := strings.TrimPrefix(path.Clean("/"+remotePath), "/")
	if cleaned == "" {
		return "."
	}
	return cleaned
}

func errorStatus(err error) int {
	if os.IsNotExist(err) {
		return plugin.StatusNotFound
	}
	return plugin.StatusInternalError
}
