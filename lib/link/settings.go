// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package link

import (
	"maps"
	"slices"
)

// Toggle classes understood by [Settings].
const (
	ToggleCommands     = "commands"
	ToggleChatCommands = "chat-commands"
	ToggleAdvancements = "advancements"
	ToggleStats        = "stats"
	ToggleBot          = "bot"
)

// Settings holds one guild's feature toggles and shares the guild's
// id. Users have no settings. Disabled maps a toggle class to the
// names disabled within it.
type Settings struct {
	ID       string              `json:"id"`
	Language string              `json:"language,omitempty"`
	Disabled map[string][]string `json:"disabled,omitempty"`
}

// EntityID implements the registry entity contract.
func (s *Settings) EntityID() string { return s.ID }

// IsDisabled reports whether name is disabled in class.
func (s *Settings) IsDisabled(class, name string) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.Disabled[class], name)
}

// WithDisabled returns a copy with name disabled in class.
func (s *Settings) WithDisabled(class, name string) *Settings {
	clone := s.clone()
	if !slices.Contains(clone.Disabled[class], name) {
		clone.Disabled[class] = append(clone.Disabled[class], name)
	}
	return clone
}

// WithEnabled returns a copy with name removed from the disabled list
// of class.
func (s *Settings) WithEnabled(class, name string) *Settings {
	clone := s.clone()
	remaining := slices.DeleteFunc(clone.Disabled[class], func(entry string) bool {
		return entry == name
	})
	if len(remaining) == 0 {
		delete(clone.Disabled, class)
	} else {
		clone.Disabled[class] = remaining
	}
	return clone
}

func (s *Settings) clone() *Settings {
	clone := &Settings{
		ID:       s.ID,
		Language: s.Language,
		Disabled: make(map[string][]string, len(s.Disabled)),
	}
	for class, names := range maps.All(s.Disabled) {
		clone.Disabled[class] = slices.Clone(names)
	}
	return clone
}
