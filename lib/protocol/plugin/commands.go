// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import "strings"

// DefaultBanReason is used when a ban names no reason.
const DefaultBanReason = "Banned by an operator."

// BanCommand returns the console command that bans user.
func BanCommand(user, reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultBanReason
	}
	return "ban " + user + " " + reason
}

// UnbanCommand returns the console command that lifts a ban on user.
func UnbanCommand(user string) string {
	return "pardon " + user
}
