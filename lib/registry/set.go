// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/linkstore"
	"github.com/bureau-foundation/serverlink/lib/shardbus"
)

// Bus is a broadcaster that also routes incoming events by category.
// *shardbus.Endpoint and *shardbus.SocketBus implement it.
type Bus interface {
	shardbus.Broadcaster
	Register(category link.Category, applier shardbus.Applier)
}

// SetConfig configures NewSet.
type SetConfig struct {
	Store linkstore.Store
	// Bus may be nil for a single-shard deployment.
	Bus       Bus
	Sealer    Sealer
	CacheRoot string
	Logger    *slog.Logger
}

// Set is the three registries of one shard, wired together: guilds
// associate with settings, settings changes re-associate guilds, and
// every registry receives its category's sibling events.
type Set struct {
	Servers  *Registry[*link.Guild]
	Users    *Registry[*link.User]
	Settings *Registry[*link.Settings]
}

// NewSet creates the registries. They are empty until Reload.
func NewSet(cfg SetConfig) *Set {
	set := &Set{}

	var bus shardbus.Broadcaster
	if cfg.Bus != nil {
		bus = cfg.Bus
	}

	set.Settings = New(Config[*link.Settings]{
		Category: link.GuildSettings,
		Store:    cfg.Store,
		Bus:      bus,
		Policy: SettingsPolicy(func(id string) {
			set.Servers.Reassociate(id)
		}),
		CacheRoot: cfg.CacheRoot,
		Logger:    cfg.Logger,
	})
	set.Servers = New(Config[*link.Guild]{
		Category: link.Servers,
		Store:    cfg.Store,
		Bus:      bus,
		Policy: GuildPolicy(GuildPolicyConfig{
			Settings: set.Settings,
			Sealer:   cfg.Sealer,
		}),
		CacheRoot: cfg.CacheRoot,
		Logger:    cfg.Logger,
	})
	set.Users = New(Config[*link.User]{
		Category:  link.Users,
		Store:     cfg.Store,
		Bus:       bus,
		Policy:    UserPolicy(),
		CacheRoot: cfg.CacheRoot,
		Logger:    cfg.Logger,
	})

	if cfg.Bus != nil {
		cfg.Bus.Register(link.Servers, set.Servers)
		cfg.Bus.Register(link.Users, set.Users)
		cfg.Bus.Register(link.GuildSettings, set.Settings)
	}
	return set
}

// Reload reloads all three registries concurrently. The server
// registry finishes after the settings registry because it waits on
// its readiness.
func (s *Set) Reload(ctx context.Context) error {
	reloads := []func(context.Context) error{
		s.Settings.Reload,
		s.Servers.Reload,
		s.Users.Reload,
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for _, reload := range reloads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reload(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				// Unblock a server reload waiting on settings that
				// will never become ready.
				cancel()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
