// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package link

import "fmt"

// Kind identifies the transport a server link is reached over. The kind
// is fixed when the link is created; switching transports means
// unlinking and linking again.
type Kind string

const (
	// FTP is classic file transfer (optionally with explicit TLS).
	FTP Kind = "ftp"
	// SFTP is file transfer over an SSH session.
	SFTP Kind = "sftp"
	// Plugin is the companion plugin's socket protocol.
	Plugin Kind = "plugin"
)

// Valid reports whether k is a recognized transport.
func (k Kind) Valid() bool {
	switch k {
	case FTP, SFTP, Plugin:
		return true
	}
	return false
}

// ParseKind converts a user-supplied transport name into a Kind.
func ParseKind(value string) (Kind, error) {
	kind := Kind(value)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown transport %q (want ftp, sftp or plugin)", value)
	}
	return kind, nil
}

// Category names one logical collection of links. Each category has
// its own registry instance and its own collection in the store.
type Category string

const (
	// Servers holds guild → game server links.
	Servers Category = "servers"
	// Users holds chat user → game account links.
	Users Category = "users"
	// GuildSettings holds per-guild toggles.
	GuildSettings Category = "settings"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case Servers, Users, GuildSettings:
		return true
	}
	return false
}

// ChatType is one class of in-game event the companion plugin can
// relay to a chat channel.
type ChatType string

const (
	ChatMessage     ChatType = "chat"
	ChatJoin        ChatType = "join"
	ChatLeave       ChatType = "leave"
	ChatAdvancement ChatType = "advancement"
	ChatDeath       ChatType = "death"
	ChatCommand     ChatType = "player_command"
	ChatConsole     ChatType = "console_command"
	ChatStart       ChatType = "start"
	ChatClose       ChatType = "close"
)

var chatTypes = map[ChatType]bool{
	ChatMessage: true, ChatJoin: true, ChatLeave: true,
	ChatAdvancement: true, ChatDeath: true, ChatCommand: true,
	ChatConsole: true, ChatStart: true, ChatClose: true,
}

// Valid reports whether t is a known chat event type.
func (t ChatType) Valid() bool { return chatTypes[t] }
