// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/serverlink/lib/config"
	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/linker"
	"github.com/bureau-foundation/serverlink/lib/linkstore"
	"github.com/bureau-foundation/serverlink/lib/process"
	"github.com/bureau-foundation/serverlink/lib/protocol"
	"github.com/bureau-foundation/serverlink/lib/protocol/ftp"
	"github.com/bureau-foundation/serverlink/lib/protocol/plugin"
	"github.com/bureau-foundation/serverlink/lib/protocol/sftp"
	"github.com/bureau-foundation/serverlink/lib/registry"
	"github.com/bureau-foundation/serverlink/lib/sealed"
	"github.com/bureau-foundation/serverlink/lib/shardbus"
)

// globalFlags are accepted by every command that touches the store.
type globalFlags struct {
	configPath string
	logLevel   string
}

func (g *globalFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&g.configPath, "config", "", "config file (default: $SERVERLINK_CONFIG)")
	flagSet.StringVar(&g.logLevel, "log-level", "warn", "debug, info, warn or error")
}

func (g *globalFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (g *globalFlags) logger() (*slog.Logger, error) {
	level, err := process.ParseLevel(g.logLevel)
	if err != nil {
		return nil, err
	}
	return process.NewLogger(level), nil
}

// environment is everything a command needs to act on links. The CLI
// joins the deployment as a short-lived bus member: its mutations are
// written to the store once and broadcast to every shard.
type environment struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *linkstore.SQLiteStore
	registries *registry.Set
	router     *protocol.Router
	linker     *linker.Service
}

func openEnvironment(ctx context.Context, flags *globalFlags) (*environment, error) {
	cfg, err := flags.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := flags.logger()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}

	store, err := linkstore.OpenSQLite(linkstore.SQLiteConfig{
		Path:     cfg.Store.Path,
		PoolSize: cfg.Store.PoolSize,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	var sealer registry.Sealer
	if cfg.Sealing.IdentityFile != "" {
		identity, err := sealed.LoadIdentityFile(cfg.Sealing.IdentityFile)
		if err != nil {
			store.Close()
			return nil, err
		}
		sealer = identity
	}

	bus := shardbus.NewSocketBus(shardbus.SocketBusConfig{
		Self:   fmt.Sprintf("cli-%d", os.Getpid()),
		Peers:  shardPeers(cfg),
		Logger: logger,
	})
	registries := registry.NewSet(registry.SetConfig{
		Store:     store,
		Bus:       bus,
		Sealer:    sealer,
		CacheRoot: cfg.Cache.Root,
		Logger:    logger,
	})
	if err := registries.Reload(ctx); err != nil {
		store.Close()
		return nil, err
	}

	router := protocol.NewRouter(protocol.RouterConfig{
		Servers: registries.Servers,
		Clients: transportClients(cfg, logger),
		Logger:  logger,
	})
	return &environment{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		registries: registries,
		router:     router,
		linker: linker.New(linker.Config{
			Registries: registries,
			Verifier:   router,
			Logger:     logger,
		}),
	}, nil
}

func (e *environment) Close() error {
	return e.store.Close()
}

// shardPeers lists every configured shard. In a single-shard
// deployment without peers the default shard is the only target.
func shardPeers(cfg *config.Config) []shardbus.Peer {
	if len(cfg.Shard.Peers) == 0 {
		return []shardbus.Peer{{ID: cfg.Shard.ID, SocketPath: cfg.SocketPath(cfg.Shard.ID)}}
	}
	peers := make([]shardbus.Peer, 0, len(cfg.Shard.Peers))
	for _, peer := range cfg.Shard.Peers {
		peers = append(peers, shardbus.Peer{ID: peer.ID, SocketPath: cfg.SocketPath(peer.ID)})
	}
	return peers
}

func transportClients(cfg *config.Config, logger *slog.Logger) map[link.Kind]protocol.Client {
	timeouts := protocol.Timeouts{
		Dial:      cfg.Transport.DialTimeout,
		Operation: cfg.Transport.OperationTimeout,
	}
	return map[link.Kind]protocol.Client{
		link.FTP: ftp.New(ftp.Config{
			Timeouts:    timeouts,
			ExplicitTLS: cfg.Transport.FTPExplicitTLS,
			Logger:      logger,
		}),
		link.SFTP:   sftp.New(sftp.Config{Timeouts: timeouts, Logger: logger}),
		link.Plugin: plugin.New(plugin.Config{Timeouts: timeouts, Logger: logger}),
	}
}
