// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package linkstore

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sync"

	"github.com/bureau-foundation/serverlink/lib/link"
)

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[link.Category]map[string]json.RawMessage

	// failWrites, when non-nil, is returned by Upsert and Delete.
	failWrites error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[link.Category]map[string]json.RawMessage)}
}

// FailWrites makes every subsequent Upsert and Delete return err.
// Pass nil to restore normal behaviour.
func (s *MemoryStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = err
}

// Find implements Store.
func (s *MemoryStore) Find(ctx context.Context, category link.Category, filter Filter) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection := s.collections[category]
	var records []Record
	for _, id := range slices.Sorted(maps.Keys(collection)) {
		if filter.ID != "" && filter.ID != id {
			continue
		}
		records = append(records, Record{ID: id, Document: slices.Clone(collection[id])})
	}
	return records, nil
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(ctx context.Context, category link.Category, id string, document json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites != nil {
		return s.failWrites
	}
	collection, ok := s.collections[category]
	if !ok {
		collection = make(map[string]json.RawMessage)
		s.collections[category] = collection
	}
	collection[id] = slices.Clone(document)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, category link.Category, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites != nil {
		return s.failWrites
	}
	if _, ok := s.collections[category][id]; !ok {
		return ErrNotFound
	}
	delete(s.collections[category], id)
	return nil
}

// Len returns the number of records in category.
func (s *MemoryStore) Len(category link.Category) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[category])
}
