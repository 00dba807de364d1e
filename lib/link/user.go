// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package link

// User links a chat user to a game account.
type User struct {
	ID       string `json:"id"`
	UUID     string `json:"uuid"`
	Username string `json:"username"`
}

// EntityID implements the registry entity contract.
func (u *User) EntityID() string { return u.ID }
