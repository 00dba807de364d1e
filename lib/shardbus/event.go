// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shardbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/serverlink/lib/codec"
	"github.com/bureau-foundation/serverlink/lib/link"
)

// EventKind is the mutation an event replicates.
type EventKind string

const (
	// Add carries the full sanitized entity; receivers upsert it.
	Add EventKind = "add"
	// Remove carries only the id; receivers delete it if present.
	Remove EventKind = "remove"
)

// Event is one replicated registry mutation.
type Event struct {
	Kind     EventKind        `cbor:"kind"`
	Category link.Category    `cbor:"category"`
	ID       string           `cbor:"id"`
	Payload  codec.RawMessage `cbor:"payload,omitempty"`
	Origin   string           `cbor:"origin"`
}

// Validate checks the fields every receiver relies on.
func (e Event) Validate() error {
	switch e.Kind {
	case Add:
		if len(e.Payload) == 0 {
			return fmt.Errorf("add event for %s/%s has no payload", e.Category, e.ID)
		}
	case Remove:
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.ID == "" {
		return fmt.Errorf("%s event for %s has no id", e.Kind, e.Category)
	}
	return nil
}

// Broadcaster sends an event to every sibling shard. Implementations
// stamp Origin and never deliver to the sender.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) error
}

// Applier applies a sibling's event to a local cache.
type Applier interface {
	Apply(ctx context.Context, event Event) error
}

// Dispatcher routes incoming events to the applier registered for
// their category.
type Dispatcher struct {
	self   string
	logger *slog.Logger

	mu       sync.RWMutex
	appliers map[link.Category]Applier
}

// NewDispatcher creates a dispatcher for the shard named self.
func NewDispatcher(self string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		self:     self,
		logger:   logger,
		appliers: make(map[link.Category]Applier),
	}
}

// Self returns the shard id this dispatcher belongs to.
func (d *Dispatcher) Self() string { return d.self }

// Register routes events of category to applier. Panics on duplicate
// registration.
func (d *Dispatcher) Register(category link.Category, applier Applier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.appliers[category]; exists {
		panic(fmt.Sprintf("shardbus: duplicate applier for category %q", category))
	}
	d.appliers[category] = applier
}

// Dispatch applies event locally. Events originating from this shard
// are dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	if event.Origin == d.self {
		d.logger.Debug("dropping self-originated event",
			"category", event.Category,
			"id", event.ID,
		)
		return nil
	}
	if err := event.Validate(); err != nil {
		return err
	}

	d.mu.RLock()
	applier, ok := d.appliers[event.Category]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no registry for category %q", event.Category)
	}
	return applier.Apply(ctx, event)
}
