// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Production is for production deployments.
	Production Environment = "production"
)

// EnvVar names the environment variable Load reads the config path from.
const EnvVar = "SERVERLINK_CONFIG"

// Config is the configuration shared by the shard daemon and the CLI.
type Config struct {
	// Environment identifies the deployment type (development, production).
	Environment Environment `yaml:"environment"`

	// Shard identifies this process and its siblings.
	Shard ShardConfig `yaml:"shard"`

	// Store configures the link database.
	Store StoreConfig `yaml:"store"`

	// Cache configures the download cache.
	Cache CacheConfig `yaml:"cache"`

	// Sealing configures credential encryption at rest.
	Sealing SealingConfig `yaml:"sealing"`

	// Transport configures the protocol clients.
	Transport TransportConfig `yaml:"transport"`

	// Per-environment overrides, applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Shard     *ShardConfig     `yaml:"shard,omitempty"`
	Store     *StoreConfig     `yaml:"store,omitempty"`
	Cache     *CacheConfig     `yaml:"cache,omitempty"`
	Sealing   *SealingConfig   `yaml:"sealing,omitempty"`
	Transport *TransportConfig `yaml:"transport,omitempty"`
}

// ShardConfig identifies this shard and every sibling.
type ShardConfig struct {
	// ID is this shard's id. It must appear in Peers when Peers is set.
	ID string `yaml:"id"`

	// RunDir holds the shard sockets. A peer without an explicit
	// socket listens on RunDir/shard-<id>.sock.
	RunDir string `yaml:"run_dir"`

	// Peers lists every shard of the deployment, this one included.
	// Empty means a single-shard deployment.
	Peers []PeerConfig `yaml:"peers"`
}

// PeerConfig is one shard of the deployment.
type PeerConfig struct {
	ID     string `yaml:"id"`
	Socket string `yaml:"socket,omitempty"`
}

// StoreConfig configures the SQLite link database.
type StoreConfig struct {
	// Path is the database file.
	Path string `yaml:"path"`

	// PoolSize is the number of pooled connections.
	// Default: 4
	PoolSize int `yaml:"pool_size"`
}

// CacheConfig configures the per-identity download cache.
type CacheConfig struct {
	// Root is the cache directory. Entries live at Root/<category>/<id>.
	Root string `yaml:"root"`
}

// SealingConfig configures credential sealing.
type SealingConfig struct {
	// IdentityFile is an age identity file. Empty stores credentials
	// in plaintext, which Validate rejects in production.
	IdentityFile string `yaml:"identity_file"`
}

// TransportConfig configures the protocol clients.
type TransportConfig struct {
	// DialTimeout bounds session establishment.
	// Default: 10s
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// OperationTimeout bounds one plugin round trip.
	// Default: 30s
	OperationTimeout time.Duration `yaml:"operation_timeout"`

	// PluginPort is used for plugin links that name no port.
	// Default: 21000
	PluginPort int `yaml:"plugin_port"`

	// FindDepth is the default search depth, counted in path segments.
	// Default: 5
	FindDepth int `yaml:"find_depth"`

	// FTPExplicitTLS upgrades FTP control connections with AUTH TLS.
	FTPExplicitTLS bool `yaml:"ftp_explicit_tls"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "serverlink")

	return &Config{
		Environment: Development,
		Shard: ShardConfig{
			ID:     "0",
			RunDir: filepath.Join(defaultRoot, "run"),
		},
		Store: StoreConfig{
			Path:     filepath.Join(defaultRoot, "links.db"),
			PoolSize: 4,
		},
		Cache: CacheConfig{
			Root: filepath.Join(defaultRoot, "download"),
		},
		Transport: TransportConfig{
			DialTimeout:      10 * time.Second,
			OperationTimeout: 30 * time.Second,
			PluginPort:       21000,
			FindDepth:        5,
		},
	}
}

// Load loads configuration from the SERVERLINK_CONFIG environment
// variable. There are no fallbacks: if the variable is not set, this
// fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your serverlink.yaml config file, or use --config flag", EnvVar)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. The only expansion
// performed is ${HOME}, ${SERVERLINK_RUN_DIR} and ${VAR:-default} in
// path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.Shard != nil {
		if overrides.Shard.ID != "" {
			c.Shard.ID = overrides.Shard.ID
		}
		if overrides.Shard.RunDir != "" {
			c.Shard.RunDir = overrides.Shard.RunDir
		}
		if len(overrides.Shard.Peers) > 0 {
			c.Shard.Peers = overrides.Shard.Peers
		}
	}

	if overrides.Store != nil {
		if overrides.Store.Path != "" {
			c.Store.Path = overrides.Store.Path
		}
		if overrides.Store.PoolSize != 0 {
			c.Store.PoolSize = overrides.Store.PoolSize
		}
	}

	if overrides.Cache != nil && overrides.Cache.Root != "" {
		c.Cache.Root = overrides.Cache.Root
	}

	if overrides.Sealing != nil && overrides.Sealing.IdentityFile != "" {
		c.Sealing.IdentityFile = overrides.Sealing.IdentityFile
	}

	if overrides.Transport != nil {
		if overrides.Transport.DialTimeout != 0 {
			c.Transport.DialTimeout = overrides.Transport.DialTimeout
		}
		if overrides.Transport.OperationTimeout != 0 {
			c.Transport.OperationTimeout = overrides.Transport.OperationTimeout
		}
		if overrides.Transport.PluginPort != 0 {
			c.Transport.PluginPort = overrides.Transport.PluginPort
		}
		if overrides.Transport.FindDepth != 0 {
			c.Transport.FindDepth = overrides.Transport.FindDepth
		}
		// A bool cannot be told apart from unset, so it always applies.
		c.Transport.FTPExplicitTLS = overrides.Transport.FTPExplicitTLS
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Shard.RunDir = expandVars(c.Shard.RunDir, vars)
	vars["SERVERLINK_RUN_DIR"] = c.Shard.RunDir

	for index := range c.Shard.Peers {
		c.Shard.Peers[index].Socket = expandVars(c.Shard.Peers[index].Socket, vars)
	}
	c.Store.Path = expandVars(c.Store.Path, vars)
	c.Cache.Root = expandVars(c.Cache.Root, vars)
	c.Sealing.IdentityFile = expandVars(c.Sealing.IdentityFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// SocketPath returns the socket shard id listens on.
func (c *Config) SocketPath(id string) string {
	for _, peer := range c.Shard.Peers {
		if peer.ID == id && peer.Socket != "" {
			return peer.Socket
		}
	}
	return filepath.Join(c.Shard.RunDir, "shard-"+id+".sock")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Shard.ID == "" {
		errs = append(errs, errors.New("shard.id is required"))
	}
	if c.Shard.RunDir == "" {
		errs = append(errs, errors.New("shard.run_dir is required"))
	}
	if len(c.Shard.Peers) > 0 {
		seen := make(map[string]bool, len(c.Shard.Peers))
		for _, peer := range c.Shard.Peers {
			if peer.ID == "" {
				errs = append(errs, errors.New("shard.peers: entry without id"))
				continue
			}
			if seen[peer.ID] {
				errs = append(errs, fmt.Errorf("shard.peers: duplicate id %q", peer.ID))
			}
			seen[peer.ID] = true
		}
		if !seen[c.Shard.ID] {
			errs = append(errs, fmt.Errorf("shard.peers does not list this shard (%q)", c.Shard.ID))
		}
	}

	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	if c.Store.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("store.pool_size must be positive, got %d", c.Store.PoolSize))
	}

	if c.Cache.Root == "" {
		errs = append(errs, errors.New("cache.root is required"))
	}

	if c.Environment == Production && c.Sealing.IdentityFile == "" {
		errs = append(errs, errors.New("sealing.identity_file is required in production"))
	}

	if c.Transport.DialTimeout <= 0 {
		errs = append(errs, errors.New("transport.dial_timeout must be positive"))
	}
	if c.Transport.OperationTimeout <= 0 {
		errs = append(errs, errors.New("transport.operation_timeout must be positive"))
	}
	if c.Transport.PluginPort <= 0 || c.Transport.PluginPort > 65535 {
		errs = append(errs, fmt.Errorf("transport.plugin_port %d out of range", c.Transport.PluginPort))
	}
	if c.Transport.FindDepth < 1 {
		errs = append(errs, errors.New("transport.find_depth must be at least 1"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the run directory, the cache root and the
// store's parent directory.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Shard.RunDir,
		c.Cache.Root,
		filepath.Dir(c.Store.Path),
	}

	for _, path := range paths {
		if path == "" || path == "." {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
