// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/serverlink/cmd/serverlink/cli"
	"github.com/bureau-foundation/serverlink/lib/shardbus"
)

func shardCommand() *cli.Command {
	return &cli.Command{
		Name:    "shard",
		Summary: "Query or reload the shard processes",
		Subcommands: []*cli.Command{
			shardActionCommand("status", "Show every shard's cached link counts", shardbus.ActionStatus),
			shardActionCommand("reload", "Make every shard re-read the link store", shardbus.ActionReload),
		},
	}
}

func shardActionCommand(name, summary, action string) *cli.Command {
	var global globalFlags
	return &cli.Command{
		Name:    name,
		Summary: summary,
		Usage:   "serverlink shard " + name,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("shard "+name, pflag.ContinueOnError)
			global.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			return queryShards(ctx, shardPeers(cfg), action)
		},
	}
}

// queryShards sends action to every peer and prints one status row
// per shard. Unreachable shards are listed and make the command fail.
func queryShards(ctx context.Context, peers []shardbus.Peer, action string) error {
	tw := tabwriter.NewWriter(stdout, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SHARD\tUPTIME\tSERVERS\tUSERS\tSETTINGS\tERROR")

	unreachable := 0
	for _, peer := range peers {
		var status shardbus.Status
		callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := shardbus.Call(callCtx, peer.SocketPath, action, nil, &status)
		cancel()
		if err != nil {
			unreachable++
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t%v\n", peer.ID, err)
			continue
		}
		uptime := time.Duration(status.UptimeSeconds * float64(time.Second)).Truncate(time.Second)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t\n", status.Shard, uptime, status.Servers, status.Users, status.Settings)
	}
	tw.Flush()
	if unreachable > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}
