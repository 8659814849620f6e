package persistence

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Collection is a typed repository over one persisted JSON array.
//
// The collection caches the last payload it successfully read or wrote and decodes a fresh copy
// for every read, so callers never share records with each other or with the cache. A mutation
// encodes the full resulting collection and writes it through the backend before the cache is
// replaced; a failed write leaves the cache at the previous payload.
type Collection[T any] struct {
	store  *Store
	key    string
	idOf   func(T) string
	withID func(T, string) T

	mu      sync.Mutex
	payload []byte
	loaded  bool
}

func newCollection[T any](store *Store, key string, idOf func(T) string, withID func(T, string) T) *Collection[T] {
	return &Collection[T]{store: store, key: key, idOf: idOf, withID: withID}
}

// Key returns the storage key of the collection.
func (c *Collection[T]) Key() string {
	return c.key
}

// List returns every record in stored order.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(ctx)
}

// Get returns the record with the given id or ErrNotFound.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	items, err := c.List(ctx)
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if c.idOf(item) == id {
			return item, nil
		}
	}
	return zero, ErrNotFound
}

// Create assigns a fresh identifier, appends the record and persists the collection.
func (c *Collection[T]) Create(ctx context.Context, record T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	items, err := c.snapshotLocked(ctx)
	if err != nil {
		return zero, err
	}
	created := c.withID(record, c.store.nextID())
	items = append(items, created)
	if err := c.writeLocked(ctx, "create", items); err != nil {
		return zero, err
	}
	return created, nil
}

// Update replaces the record carrying the same identifier. When no such record exists the
// collection is left untouched and found is false.
func (c *Collection[T]) Update(ctx context.Context, record T) (updated T, found bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.snapshotLocked(ctx)
	if err != nil {
		return record, false, err
	}
	id := c.idOf(record)
	for i := range items {
		if c.idOf(items[i]) == id {
			items[i] = record
			found = true
			break
		}
	}
	if !found {
		return record, false, nil
	}
	if err := c.writeLocked(ctx, "update", items); err != nil {
		return record, true, err
	}
	return record, true, nil
}

// Delete removes the record with the given identifier. Removing an absent id is a no-op.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.snapshotLocked(ctx)
	if err != nil {
		return false, err
	}
	kept := items[:0]
	removed := false
	for _, item := range items {
		if c.idOf(item) == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return false, nil
	}
	if err := c.writeLocked(ctx, "delete", kept); err != nil {
		return true, err
	}
	return true, nil
}

// Replace overwrites the whole collection.
func (c *Collection[T]) Replace(ctx context.Context, items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if items == nil {
		items = []T{}
	}
	return c.writeLocked(ctx, "replace", items)
}

// Refresh drops the cached payload so the next read goes to the backend.
func (c *Collection[T]) Refresh() {
	c.mu.Lock()
	c.payload = nil
	c.loaded = false
	c.mu.Unlock()
}

func (c *Collection[T]) snapshotLocked(ctx context.Context) ([]T, error) {
	if !c.loaded {
		started := time.Now()
		raw, err := c.store.backend.Read(ctx, c.key)
		c.store.observe(c.key, "read", started, err)
		switch {
		case errors.Is(err, ErrKeyNotFound):
			raw = nil
		case err != nil:
			return nil, storageError("read", c.key, err)
		}
		c.payload = raw
		c.loaded = true
	}
	items := []T{}
	if len(c.payload) == 0 {
		return items, nil
	}
	if err := c.store.codec.Unmarshal(c.payload, &items); err != nil {
		return nil, storageError("decode", c.key, err)
	}
	return items, nil
}

func (c *Collection[T]) writeLocked(ctx context.Context, op string, items []T) error {
	payload, err := c.store.codec.Marshal(items)
	if err != nil {
		return storageError("encode", c.key, err)
	}
	if err := c.store.write(ctx, op, c.key, payload, len(items)); err != nil {
		return err
	}
	c.payload = payload
	c.loaded = true
	return nil
}
