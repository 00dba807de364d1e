// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bureau-foundation/serverlink/lib/codec"
	"github.com/bureau-foundation/serverlink/lib/link"
	"github.com/bureau-foundation/serverlink/lib/linkstore"
	"github.com/bureau-foundation/serverlink/lib/shardbus"
)

// Entity is anything a registry can hold. Implementations are pointer
// types; the cache compares them by identity.
type Entity interface {
	comparable
	EntityID() string
}

// Readiness is satisfied by registries that other registries wait on
// during Reload.
type Readiness interface {
	Ready() <-chan struct{}
}

// Policy is the category-specific behaviour of a registry. Every field
// is optional.
type Policy[E Entity] struct {
	// Merge folds incoming into the cached entity with the same id
	// during Connect. Without Merge, Connect replaces.
	Merge func(existing, incoming E) E

	// Sanitize returns a copy of the entity without process-local
	// state. Its result is what gets persisted and broadcast.
	Sanitize func(E) E

	// Seal transforms the sanitized entity into its stored form
	// (credentials encrypted). Unseal reverses it after loading a
	// record or decoding a sibling's event.
	Seal   func(E) (E, error)
	Unseal func(E) (E, error)

	// Associate returns the entity with its non-owning associations
	// resolved. It runs once DependsOn are all ready.
	Associate func(E) E
	DependsOn []Readiness

	// Changed is called after the cached entry for id was set or
	// removed, locally or by a sibling event.
	Changed func(id string)
}

// Config configures a Registry.
type Config[E Entity] struct {
	Category link.Category
	Store    linkstore.Store

	// Bus may be nil for a single-shard deployment.
	Bus shardbus.Broadcaster

	Policy Policy[E]

	// CacheRoot is the root of the per-identity download cache. Empty
	// disables PurgeCache and CacheDir.
	CacheRoot string

	Logger *slog.Logger
}

// Registry is one shard's cache of one link category.
type Registry[E Entity] struct {
	category  link.Category
	store     linkstore.Store
	bus       shardbus.Broadcaster
	policy    Policy[E]
	cacheRoot string
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[string]E

	readyOnce sync.Once
	ready     chan struct{}
}

// New creates an empty registry. Call Reload to populate it from the
// store.
func New[E Entity](cfg Config[E]) *Registry[E] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry[E]{
		category:  cfg.Category,
		store:     cfg.Store,
		bus:       cfg.Bus,
		policy:    cfg.Policy,
		cacheRoot: cfg.CacheRoot,
		logger:    logger.With("category", string(cfg.Category)),
		cache:     make(map[string]E),
		ready:     make(chan struct{}),
	}
}

// Category returns the category this registry holds.
func (r *Registry[E]) Category() link.Category { return r.category }

// Ready is closed once the first Reload has completed.
func (r *Registry[E]) Ready() <-chan struct{} { return r.ready }

// Get returns the cached entity for id.
func (r *Registry[E]) Get(id string) (E, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entity, ok := r.cache[id]
	return entity, ok
}

// Len returns the number of cached entities.
func (r *Registry[E]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// IDs returns the cached ids in sorted order.
func (r *Registry[E]) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.cache))
}

// Each calls visit for every cached entity in id order until visit
// returns false. The cache is not locked while visit runs.
func (r *Registry[E]) Each(visit func(E) bool) {
	r.mu.RLock()
	entities := make([]E, 0, len(r.cache))
	for _, id := range slices.Sorted(maps.Keys(r.cache)) {
		entities = append(entities, r.cache[id])
	}
	r.mu.RUnlock()
	for _, entity := range entities {
		if !visit(entity) {
			return
		}
	}
}

// Connect adds entity to the cache and the store and replicates it to
// sibling shards. When the policy has a Merge function and the id is
// already cached, the merged entity is what gets stored. On a store
// failure the previous cache entry is restored and a
// *PersistenceError is returned.
func (r *Registry[E]) Connect(ctx context.Context, entity E) (E, error) {
	return r.mutate(ctx, entity, true)
}

// Replace stores entity as-is, bypassing Merge. Used for updates that
// are already computed from the cached entity (toggles, removing one
// server of several).
func (r *Registry[E]) Replace(ctx context.Context, entity E) (E, error) {
	return r.mutate(ctx, entity, false)
}

func (r *Registry[E]) mutate(ctx context.Context, entity E, merge bool) (E, error) {
	var zero E
	if entity == zero {
		return zero, errors.New("registry: nil entity")
	}
	id := entity.EntityID()
	if id == "" {
		return zero, errors.New("registry: entity has no id")
	}

	r.mu.Lock()
	previous, existed := r.cache[id]
	next := entity
	if merge && existed && r.policy.Merge != nil {
		next = r.policy.Merge(previous, entity)
	}
	if r.dependenciesReady() {
		next = r.associate(next)
	}
	r.cache[id] = next
	r.mu.Unlock()

	stored, err := r.persist(ctx, id, next)
	if err != nil {
		r.mu.Lock()
		if current, ok := r.cache[id]; ok && current == next {
			if existed {
				r.cache[id] = previous
			} else {
				delete(r.cache, id)
			}
		}
		r.mu.Unlock()
		r.logger.Warn("link write failed, cache rolled back", "id", id, "error", err)
		return zero, err
	}

	r.changed(id)
	r.broadcastAdd(ctx, id, stored)
	r.logger.Info("link stored", "id", id, "merged", merge && existed)
	return next, nil
}

// persist writes the stored form of entity and returns it for
// broadcasting.
func (r *Registry[E]) persist(ctx context.Context, id string, entity E) (E, error) {
	var zero E
	stored, err := r.storedForm(entity)
	if err != nil {
		return zero, &PersistenceError{Op: "write", Category: r.category, ID: id, Err: err}
	}
	document, err := json.Marshal(stored)
	if err != nil {
		return zero, &PersistenceError{Op: "write", Category: r.category, ID: id, Err: err}
	}
	if err := r.store.Upsert(ctx, r.category, id, document); err != nil {
		return zero, &PersistenceError{Op: "write", Category: r.category, ID: id, Err: err}
	}
	return stored, nil
}

func (r *Registry[E]) storedForm(entity E) (E, error) {
	if r.policy.Sanitize != nil {
		entity = r.policy.Sanitize(entity)
	}
	if r.policy.Seal != nil {
		return r.policy.Seal(entity)
	}
	return entity, nil
}

func (r *Registry[E]) broadcastAdd(ctx context.Context, id string, stored E) {
	if r.bus == nil {
		return
	}
	payload, err := codec.Marshal(stored)
	if err != nil {
		r.logger.Error("encoding add event", "id", id, "error", err)
		return
	}
	r.broadcast(ctx, shardbus.Event{Kind: shardbus.Add, Category: r.category, ID: id, Payload: payload})
}

func (r *Registry[E]) broadcast(ctx context.Context, event shardbus.Event) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Broadcast(ctx, event); err != nil {
		r.logger.Warn("broadcast incomplete",
			"kind", event.Kind,
			"id", event.ID,
			"replication_gap", true,
			"error", err,
		)
	}
}

// Disconnect deletes the link for id from the store, replicates the
// removal and drops it from the cache. It returns false without error
// when id is not cached, and false with a *PersistenceError when the
// store delete fails; the cache is untouched in both cases. A record
// already missing from the store counts as deleted.
func (r *Registry[E]) Disconnect(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	_, ok := r.cache[id]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := r.store.Delete(ctx, r.category, id); err != nil && !errors.Is(err, linkstore.ErrNotFound) {
		r.logger.Warn("link delete failed, cache kept", "id", id, "error", err)
		return false, &PersistenceError{Op: "delete", Category: r.category, ID: id, Err: err}
	}

	r.broadcast(ctx, shardbus.Event{Kind: shardbus.Remove, Category: r.category, ID: id})

	r.mu.Lock()
	delete(r.cache, id)
	r.mu.Unlock()
	r.changed(id)
	r.logger.Info("link removed", "id", id)
	return true, nil
}

// Reload reads every record of the category into the cache. Existing
// entries are overwritten by their stored versions; nothing is cleared.
// Records that fail to decode are logged and skipped. Reload then
// waits for the policy's dependencies, associates every cached entity
// and marks the registry ready.
func (r *Registry[E]) Reload(ctx context.Context) error {
	records, err := r.store.Find(ctx, r.category, linkstore.Filter{})
	if err != nil {
		return fmt.Errorf("loading %s links: %w", r.category, err)
	}

	loaded := 0
	for _, record := range records {
		entity, err := r.decodeStored(record)
		if err != nil {
			r.logger.Warn("skipping unreadable link record", "id", record.ID, "error", err)
			continue
		}
		r.mu.Lock()
		r.cache[record.ID] = entity
		r.mu.Unlock()
		loaded++
	}

	for _, dependency := range r.policy.DependsOn {
		select {
		case <-dependency.Ready():
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s dependencies: %w", r.category, ctx.Err())
		}
	}

	r.mu.Lock()
	for id, entity := range r.cache {
		r.cache[id] = r.associate(entity)
	}
	r.mu.Unlock()

	r.readyOnce.Do(func() { close(r.ready) })
	r.logger.Info("links loaded", "count", loaded, "skipped", len(records)-loaded)
	return nil
}

func (r *Registry[E]) decodeStored(record linkstore.Record) (E, error) {
	var entity E
	if err := json.Unmarshal(record.Document, &entity); err != nil {
		return entity, fmt.Errorf("decoding document: %w", err)
	}
	return r.restore(record.ID, entity)
}

func (r *Registry[E]) restore(id string, entity E) (E, error) {
	var zero E
	if entity == zero {
		return zero, errors.New("empty document")
	}
	if entity.EntityID() != id {
		return zero, fmt.Errorf("document id %q does not match key %q", entity.EntityID(), id)
	}
	if r.policy.Unseal != nil {
		return r.policy.Unseal(entity)
	}
	return entity, nil
}

// Apply applies a sibling shard's event to the cache without touching
// the store. Add upserts; remove deletes if present. Applying the same
// event twice leaves the cache as applying it once.
func (r *Registry[E]) Apply(ctx context.Context, event shardbus.Event) error {
	if event.Category != r.category {
		return fmt.Errorf("event for %s routed to %s registry", event.Category, r.category)
	}

	switch event.Kind {
	case shardbus.Add:
		var entity E
		if err := codec.Unmarshal(event.Payload, &entity); err != nil {
			return fmt.Errorf("decoding %s/%s: %w", event.Category, event.ID, err)
		}
		entity, err := r.restore(event.ID, entity)
		if err != nil {
			return fmt.Errorf("applying %s/%s: %w", event.Category, event.ID, err)
		}
		r.mu.Lock()
		if r.dependenciesReady() {
			entity = r.associate(entity)
		}
		r.cache[event.ID] = entity
		r.mu.Unlock()
	case shardbus.Remove:
		r.mu.Lock()
		delete(r.cache, event.ID)
		r.mu.Unlock()
	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}

	r.changed(event.ID)
	r.logger.Debug("sibling event applied", "kind", event.Kind, "id", event.ID, "origin", event.Origin)
	return nil
}

// Reassociate re-resolves the associations of the cached entity for
// id, if any. Registries whose entities another registry associates
// with call this through their Changed hook.
func (r *Registry[E]) Reassociate(id string) {
	if r.policy.Associate == nil || !r.dependenciesReady() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity, ok := r.cache[id]; ok {
		r.cache[id] = r.policy.Associate(entity)
	}
}

func (r *Registry[E]) associate(entity E) E {
	if r.policy.Associate == nil {
		return entity
	}
	return r.policy.Associate(entity)
}

func (r *Registry[E]) dependenciesReady() bool {
	for _, dependency := range r.policy.DependsOn {
		select {
		case <-dependency.Ready():
		default:
			return false
		}
	}
	return true
}

func (r *Registry[E]) changed(id string) {
	if r.policy.Changed != nil {
		r.policy.Changed(id)
	}
}

// CacheDir returns the download cache directory for id. The directory
// is not created.
func (r *Registry[E]) CacheDir(id string) (string, error) {
	if r.cacheRoot == "" {
		return "", errors.New("registry: no cache root configured")
	}
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("registry: invalid cache id %q", id)
	}
	return filepath.Join(r.cacheRoot, string(r.category), id), nil
}

// PurgeCache removes the download cache directory of id. Failures,
// including a directory that does not exist, are logged and reported
// as false.
func (r *Registry[E]) PurgeCache(id string) bool {
	directory, err := r.CacheDir(id)
	if err != nil {
		r.logger.Debug("cache purge skipped", "id", id, "error", err)
		return false
	}
	if _, err := os.Stat(directory); err != nil {
		r.logger.Debug("cache purge skipped", "id", id, "error", err)
		return false
	}
	if err := os.RemoveAll(directory); err != nil {
		r.logger.Warn("cache purge failed", "id", id, "error", err)
		return false
	}
	return true
}
