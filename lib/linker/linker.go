// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package linker implements the link workflows on top of a shard's
// registries: verifying and linking servers, unlinking them, linking
// users and toggling settings.
//
// The registries do not serialize mutations of the same identity; the
// Service does, with one mutex per id, so that a second mutation never
// starts before the first one's broadcast has been sent.
package linker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/serverlink/lib/clock"
	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/registry"
)

var (
	// ErrNotLinked is returned when the guild, server or user to
	// change has no link.
	ErrNotLinked = errors.New("not linked")

	// ErrVerifyFailed is returned when the transport handshake with a
	// server failed; the link was not stored.
	ErrVerifyFailed = errors.New("server could not be verified")
)

// Verifier checks a server before it is linked. *protocol.Router
// implements it.
type Verifier interface {
	Verify(ctx context.Context, server *link.Server) (bool, error)
}

// Config configures a Service.
type Config struct {
	Registries *registry.Set
	Verifier   Verifier

	// Clock stamps new links. Defaults to clock.Real().
	Clock clock.Clock

	Logger *slog.Logger
}

// Service runs link workflows against one shard.
type Service struct {
	registries *registry.Set
	verifier   Verifier
	clock      clock.Clock
	logger     *slog.Logger

	locks keyedMutex
}

// New creates a Service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	linkClock := cfg.Clock
	if linkClock == nil {
		linkClock = clock.Real()
	}
	return &Service{
		registries: cfg.Registries,
		verifier:   cfg.Verifier,
		clock:      linkClock,
		logger:     logger,
	}
}

// LinkServer verifies server and adds it to the guild, replacing a
// server with the same ServerID. The transport kind of an existing
// server cannot change; unlink it first.
func (s *Service) LinkServer(ctx context.Context, guildID string, server *link.Server) (*link.Guild, error) {
	if guildID == "" {
		return nil, errors.New("guild id is required")
	}
	if err := server.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server: %w", err)
	}

	unlock := s.locks.lock(link.Servers, guildID)
	defer unlock()

	if guild, ok := s.registries.Servers.Get(guildID); ok {
		if existing, ok := guild.Server(server.ServerID); ok && existing.Kind != server.Kind {
			return nil, fmt.Errorf("server %s is linked over %s; unlink it before switching to %s",
				server.ServerID, existing.Kind, server.Kind)
		}
	}

	if s.verifier != nil {
		verified, err := s.verifier.Verify(ctx, server)
		if err != nil {
			return nil, err
		}
		if !verified {
			return nil, ErrVerifyFailed
		}
	}

	linked := server.Clone()
	linked.LinkedAt = s.clock.Now().UTC()
	guild, err := s.registries.Servers.Connect(ctx, &link.Guild{ID: guildID, Servers: []*link.Server{linked}})
	if err != nil {
		return nil, err
	}
	s.logger.Info("server linked", "id", guildID, "server", server.ServerID, "kind", server.Kind)
	return guild, nil
}

// UnlinkServer removes one server from the guild. Removing the last
// server removes the guild's link and its download cache.
func (s *Service) UnlinkServer(ctx context.Context, guildID, serverID string) error {
	unlock := s.locks.lock(link.Servers, guildID)
	defer unlock()

	guild, ok := s.registries.Servers.Get(guildID)
	if !ok {
		return fmt.Errorf("guild %s: %w", guildID, ErrNotLinked)
	}
	if _, ok := guild.Server(serverID); !ok {
		return fmt.Errorf("guild %s server %s: %w", guildID, serverID, ErrNotLinked)
	}

	remaining := guild.WithoutServer(serverID)
	if len(remaining.Servers) > 0 {
		if _, err := s.registries.Servers.Replace(ctx, remaining); err != nil {
			return err
		}
		s.logger.Info("server unlinked", "id", guildID, "server", serverID, "remaining", len(remaining.Servers))
		return nil
	}

	removed, err := s.registries.Servers.Disconnect(ctx, guildID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("guild %s: %w", guildID, ErrNotLinked)
	}
	purged := s.registries.Servers.PurgeCache(guildID)
	s.logger.Info("guild unlinked", "id", guildID, "server", serverID, "cache_purged", purged)
	return nil
}

// LinkUser links a chat user to a game account, replacing any previous
// link of that user.
func (s *Service) LinkUser(ctx context.Context, user *link.User) (*link.User, error) {
	if user.ID == "" || user.Username == "" {
		return nil, errors.New("user id and username are required")
	}
	unlock := s.locks.lock(link.Users, user.ID)
	defer unlock()

	linked, err := s.registries.Users.Connect(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user linked", "id", user.ID, "username", user.Username)
	return linked, nil
}

// UnlinkUser removes a user's link and download cache.
func (s *Service) UnlinkUser(ctx context.Context, userID string) error {
	unlock := s.locks.lock(link.Users, userID)
	defer unlock()

	removed, err := s.registries.Users.Disconnect(ctx, userID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("user %s: %w", userID, ErrNotLinked)
	}
	s.registries.Users.PurgeCache(userID)
	s.logger.Info("user unlinked", "id", userID)
	return nil
}

// Disable disables name within toggle class for id.
func (s *Service) Disable(ctx context.Context, id, class, name string) (*link.Settings, error) {
	return s.toggle(ctx, id, func(settings *link.Settings) *link.Settings {
		return settings.WithDisabled(class, name)
	})
}

// Enable re-enables name within toggle class for id.
func (s *Service) Enable(ctx context.Context, id, class, name string) (*link.Settings, error) {
	return s.toggle(ctx, id, func(settings *link.Settings) *link.Settings {
		return settings.WithEnabled(class, name)
	})
}

func (s *Service) toggle(ctx context.Context, id string, change func(*link.Settings) *link.Settings) (*link.Settings, error) {
	if id == "" {
		return nil, errors.New("settings id is required")
	}
	unlock := s.locks.lock(link.GuildSettings, id)
	defer unlock()

	current, ok := s.registries.Settings.Get(id)
	if !ok {
		current = &link.Settings{ID: id}
	}
	return s.registries.Settings.Replace(ctx, change(current))
}

// keyedMutex hands out one mutex per (category, id). Entries are
// dropped when no goroutine holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu      sync.Mutex
	waiters int
}

func (k *keyedMutex) lock(category link.Category, id string) (unlock func()) {
	key := string(category) + "/" + id

	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedEntry)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.waiters++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.waiters--
		if entry.waiters == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
