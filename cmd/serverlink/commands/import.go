// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/serverlink/cmd/serverlink/cli"
	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/linker"
)

// importFile is the format of "serverlink import": JSON with //
// comments, /* block comments */ and trailing commas.
type importFile struct {
	Servers []struct {
		Guild  string       `json:"guild"`
		Server *link.Server `json:"server"`
	} `json:"servers"`
	Users    []*link.User     `json:"users"`
	Settings []*link.Settings `json:"settings"`
}

func parseImport(data []byte) (*importFile, error) {
	var file importFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	for index, entry := range file.Servers {
		if entry.Guild == "" || entry.Server == nil {
			return nil, fmt.Errorf("servers[%d]: guild and server are required", index)
		}
	}
	return &file, nil
}

func importCommand() *cli.Command {
	var (
		global   globalFlags
		noVerify bool
	)
	return &cli.Command{
		Name:    "import",
		Summary: "Link servers, users and settings from a JSONC file",
		Description: `Link every server, user and settings entry of a JSONC file. Entries are
applied one by one; a failing entry is reported and the rest are still
applied. Servers are verified over their transport unless --no-verify.`,
		Usage: "serverlink import <file.jsonc> [--no-verify]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("import", pflag.ContinueOnError)
			global.register(flagSet)
			flagSet.BoolVar(&noVerify, "no-verify", false, "link servers without a transport handshake")
			return flagSet
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "<file.jsonc>"); err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			file, err := parseImport(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return withEnvironment(&global, func(ctx context.Context, env *environment) error {
				service := env.linker
				if noVerify {
					service = linker.New(linker.Config{Registries: env.registries, Logger: env.logger})
				}
				return applyImport(ctx, service, file)
			})
		},
	}
}

func applyImport(ctx context.Context, service *linker.Service, file *importFile) error {
	var applied, failures int
	report := func(subject string, err error) {
		if err != nil {
			failures++
			fmt.Fprintf(stdout, "FAILED %s: %v\n", subject, err)
			return
		}
		applied++
	}

	for _, entry := range file.Servers {
		_, err := service.LinkServer(ctx, entry.Guild, entry.Server)
		report(fmt.Sprintf("server %s/%s", entry.Guild, entry.Server.ServerID), err)
	}
	for _, user := range file.Users {
		_, err := service.LinkUser(ctx, user)
		report("user "+user.ID, err)
	}
	for _, settings := range file.Settings {
		classes := make([]string, 0, len(settings.Disabled))
		for class := range settings.Disabled {
			classes = append(classes, class)
		}
		sort.Strings(classes)
		for _, class := range classes {
			for _, name := range settings.Disabled[class] {
				_, err := service.Disable(ctx, settings.ID, class, name)
				report(fmt.Sprintf("settings %s %s/%s", settings.ID, class, name), err)
			}
		}
	}

	fmt.Fprintf(stdout, "imported %d entries, %d failed\n", applied, failures)
	if failures > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}
