// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package linkstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bureau-foundation/serverlink/lib/link"
)

// ErrNotFound is returned by Delete when no record exists for the id.
var ErrNotFound = errors.New("link record not found")

// Record is one persisted link document.
type Record struct {
	ID       string
	Document json.RawMessage
}

// Filter narrows Find. The zero Filter matches every record of the
// category.
type Filter struct {
	ID string
}

// Store is the read/write contract the registries use.
type Store interface {
	// Find returns the records of category matching filter, ordered
	// by id.
	Find(ctx context.Context, category link.Category, filter Filter) ([]Record, error)

	// Upsert inserts or replaces the document for id.
	Upsert(ctx context.Context, category link.Category, id string, document json.RawMessage) error

	// Delete removes the document for id, returning ErrNotFound if
	// there was none.
	Delete(ctx context.Context, category link.Category, id string) error
}
