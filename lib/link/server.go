// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package link

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"time"
)

// DefaultPluginPort is the port the companion plugin listens on when
// the link request does not name one.
const DefaultPluginPort = 21000

// ErrMalformedAddress is returned by [Server.Address] when the stored
// host or port cannot form a dialable address. It indicates corrupt
// configuration rather than a transport failure and is the one
// protocol-layer condition surfaced as fatal.
var ErrMalformedAddress = errors.New("malformed server address")

// Channel is a chat channel that receives relayed game events.
type Channel struct {
	ID      string     `json:"id"`
	Types   []ChatType `json:"types"`
	Webhook string     `json:"webhook,omitempty"`
}

// Server is one game server linked to a guild. ServerID is the
// secondary key distinguishing servers that share a guild.
type Server struct {
	ServerID string `json:"server_id"`
	Kind     Kind   `json:"protocol"`
	Host     string `json:"host"`
	Port     int    `json:"port"`

	// Username and Password authenticate FTP and SFTP sessions.
	Username string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`

	// PrivateKey is PEM key material for SFTP public-key auth. When
	// set it takes precedence over Password.
	PrivateKey string `json:"private_key,omitempty"`

	// HostKey pins the SFTP server's host key (authorized_keys
	// format). Empty accepts any host key.
	HostKey string `json:"host_key,omitempty"`

	// Path is the remote base path of the server installation.
	Path string `json:"path"`

	// Version is the minor game version reported at link time.
	Version string `json:"version,omitempty"`

	// Hash authenticates requests to the companion plugin.
	Hash string `json:"hash,omitempty"`

	Online   bool      `json:"online,omitempty"`
	Channels []Channel `json:"channels,omitempty"`
	LinkedAt time.Time `json:"linked_at"`
}

// Address returns the dialable host:port of the server.
func (s *Server) Address() (string, error) {
	if s.Host == "" {
		return "", fmt.Errorf("%w: empty host", ErrMalformedAddress)
	}
	if s.Port <= 0 || s.Port > 65535 {
		return "", fmt.Errorf("%w: port %d out of range", ErrMalformedAddress, s.Port)
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port)), nil
}

// Clone returns a deep copy of the server.
func (s *Server) Clone() *Server {
	clone := *s
	clone.Channels = make([]Channel, len(s.Channels))
	for index, channel := range s.Channels {
		channel.Types = slices.Clone(channel.Types)
		clone.Channels[index] = channel
	}
	return &clone
}

// Validate checks the fields every transport needs.
func (s *Server) Validate() error {
	if s.ServerID == "" {
		return errors.New("server id is required")
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("invalid transport %q", s.Kind)
	}
	if _, err := s.Address(); err != nil {
		return err
	}
	for _, channel := range s.Channels {
		for _, chatType := range channel.Types {
			if !chatType.Valid() {
				return fmt.Errorf("channel %s: unknown chat type %q", channel.ID, chatType)
			}
		}
	}
	return nil
}

// Guild is the server-link entity: every game server linked to one
// chat guild, in link order.
type Guild struct {
	ID      string    `json:"id"`
	Servers []*Server `json:"servers"`

	// Settings is the guild's settings entity, associated by id after
	// both registries have loaded. Not owned, not persisted.
	Settings *Settings `json:"-"`
}

// EntityID implements the registry entity contract.
func (g *Guild) EntityID() string { return g.ID }

// Primary returns the first linked server, or nil for an empty guild.
func (g *Guild) Primary() *Server {
	if len(g.Servers) == 0 {
		return nil
	}
	return g.Servers[0]
}

// Server returns the server with the given id.
func (g *Guild) Server(serverID string) (*Server, bool) {
	for _, server := range g.Servers {
		if server.ServerID == serverID {
			return server, true
		}
	}
	return nil, false
}

// WithServer returns a copy of g with server appended, or replacing
// the existing server of the same ServerID in place.
func (g *Guild) WithServer(server *Server) *Guild {
	clone := g.clone()
	for index, existing := range clone.Servers {
		if existing.ServerID == server.ServerID {
			clone.Servers[index] = server.Clone()
			return clone
		}
	}
	clone.Servers = append(clone.Servers, server.Clone())
	return clone
}

// WithoutServer returns a copy of g without the named server.
func (g *Guild) WithoutServer(serverID string) *Guild {
	clone := g.clone()
	clone.Servers = slices.DeleteFunc(clone.Servers, func(server *Server) bool {
		return server.ServerID == serverID
	})
	return clone
}

// Detached returns a copy of g without its settings association.
func (g *Guild) Detached() *Guild {
	clone := g.clone()
	clone.Settings = nil
	return clone
}

func (g *Guild) clone() *Guild {
	clone := &Guild{
		ID:       g.ID,
		Servers:  make([]*Server, len(g.Servers)),
		Settings: g.Settings,
	}
	for index, server := range g.Servers {
		clone.Servers[index] = server.Clone()
	}
	return clone
}
