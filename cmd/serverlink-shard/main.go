// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/serverlink/lib/clock"
	"github.com/bureau-foundation/serverlink/lib/config"
	"github.com/bureau-foundation/serverlink/lib/linkstore"
	"github.com/bureau-foundation/serverlink/lib/process"
	"github.com/bureau-foundation/serverlink/lib/registry"
	"github.com/bureau-foundation/serverlink/lib/sealed"
	"github.com/bureau-foundation/serverlink/lib/shardbus"
	"github.com/bureau-foundation/serverlink/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		shardID     string
		logLevel    string
		showVersion bool
	)

	flags := pflag.NewFlagSet("serverlink-shard", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "config file (default: $SERVERLINK_CONFIG)")
	flags.StringVar(&shardID, "shard-id", "", "override shard.id from the config file")
	flags.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if showVersion {
		fmt.Printf("serverlink-shard %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if shardID != "" {
		cfg.Shard.ID = shardID
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	level, err := process.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger := process.NewLogger(level).With("shard", cfg.Shard.ID)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := linkstore.OpenSQLite(linkstore.SQLiteConfig{
		Path:     cfg.Store.Path,
		PoolSize: cfg.Store.PoolSize,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	var sealer registry.Sealer
	if cfg.Sealing.IdentityFile != "" {
		identity, err := sealed.LoadIdentityFile(cfg.Sealing.IdentityFile)
		if err != nil {
			return err
		}
		sealer = identity
		logger.Info("credential sealing enabled", "recipient", identity.Recipient())
	} else {
		logger.Warn("credential sealing disabled; passwords are stored in plaintext")
	}

	bus := shardbus.NewSocketBus(shardbus.SocketBusConfig{
		Self:       cfg.Shard.ID,
		SocketPath: cfg.SocketPath(cfg.Shard.ID),
		Peers:      peers(cfg),
		Logger:     logger,
	})
	registries := registry.NewSet(registry.SetConfig{
		Store:     store,
		Bus:       bus,
		Sealer:    sealer,
		CacheRoot: cfg.Cache.Root,
		Logger:    logger,
	})
	shard := newShard(cfg.Shard.ID, registries, clock.Real(), logger)
	shard.registerActions(bus)

	// Serve before reloading so that sibling events sent during the
	// reload are not lost.
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- bus.Serve(ctx)
	}()

	if err := registries.Reload(ctx); err != nil {
		stop()
		<-serveDone
		return fmt.Errorf("loading links: %w", err)
	}
	logger.Info("shard ready",
		"servers", registries.Servers.Len(),
		"users", registries.Users.Len(),
		"settings", registries.Settings.Len(),
		"peers", len(bus.Peers()),
	)

	go shard.pingPeers(ctx, bus)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return <-serveDone
	case err := <-serveDone:
		return err
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func peers(cfg *config.Config) []shardbus.Peer {
	result := make([]shardbus.Peer, 0, len(cfg.Shard.Peers))
	for _, peer := range cfg.Shard.Peers {
		result = append(result, shardbus.Peer{ID: peer.ID, SocketPath: cfg.SocketPath(peer.ID)})
	}
	return result
}
