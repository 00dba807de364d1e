// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"

	"github.com/bureau-foundation/serverlink/lib/link"
)

// PersistenceError reports that the durable store rejected a write or
// delete. The registry cache is unchanged when it is returned.
type PersistenceError struct {
	// Op is "write" or "delete".
	Op       string
	Category link.Category
	ID       string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting %s %s/%s: %v", e.Op, e.Category, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
