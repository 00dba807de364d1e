// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"

	"github.com/bureau-foundation/serverlink/lib/link"
)

// Sealer encrypts and decrypts credential fields. *sealed.Sealer
// implements it.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(value string) (string, error)
}

// Lookup resolves an entity by id. *Registry implements it.
type Lookup[E Entity] interface {
	Get(id string) (E, bool)
}

// GuildPolicyConfig configures GuildPolicy.
type GuildPolicyConfig struct {
	// Settings resolves each guild's settings association. It must
	// also be the Readiness the guild registry waits on.
	Settings interface {
		Lookup[*link.Settings]
		Readiness
	}

	// Sealer, when set, encrypts passwords and private keys in the
	// stored form.
	Sealer Sealer
}

// GuildPolicy is the policy of the server-link registry: connecting a
// guild that is already cached adds (or replaces, by ServerID) the
// incoming servers instead of overwriting the other ones.
func GuildPolicy(cfg GuildPolicyConfig) Policy[*link.Guild] {
	policy := Policy[*link.Guild]{
		Merge: func(existing, incoming *link.Guild) *link.Guild {
			merged := existing
			for _, server := range incoming.Servers {
				merged = merged.WithServer(server)
			}
			return merged
		},
		Sanitize: func(guild *link.Guild) *link.Guild {
			return guild.Detached()
		},
	}

	if cfg.Settings != nil {
		settings := cfg.Settings
		policy.DependsOn = []Readiness{settings}
		policy.Associate = func(guild *link.Guild) *link.Guild {
			associated := guild.Detached()
			if entry, ok := settings.Get(guild.ID); ok {
				associated.Settings = entry
			}
			return associated
		}
	}

	if cfg.Sealer != nil {
		sealer := cfg.Sealer
		policy.Seal = func(guild *link.Guild) (*link.Guild, error) {
			return transformCredentials(guild, sealer.Seal)
		}
		policy.Unseal = func(guild *link.Guild) (*link.Guild, error) {
			return transformCredentials(guild, sealer.Open)
		}
	}
	return policy
}

func transformCredentials(guild *link.Guild, transform func(string) (string, error)) (*link.Guild, error) {
	result := guild.Detached()
	result.Settings = guild.Settings
	for _, server := range result.Servers {
		password, err := transform(server.Password)
		if err != nil {
			return nil, fmt.Errorf("server %s password: %w", server.ServerID, err)
		}
		privateKey, err := transform(server.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("server %s private key: %w", server.ServerID, err)
		}
		server.Password = password
		server.PrivateKey = privateKey
	}
	return result, nil
}

// SettingsPolicy is the policy of the settings registry. onChange is
// typically the guild registry's Reassociate, so that cached guilds
// pick up toggled settings.
func SettingsPolicy(onChange func(id string)) Policy[*link.Settings] {
	return Policy[*link.Settings]{Changed: onChange}
}

// UserPolicy is the policy of the user-link registry. Users have no
// transient state and no associations.
func UserPolicy() Policy[*link.User] {
	return Policy[*link.User]{}
}
