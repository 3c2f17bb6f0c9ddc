// Package collections keeps each record list under its own local key and
// rewrites the whole list on every change.
package collections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"folio/api/internal/localstore"
	"folio/api/internal/portfolio"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrValidation = portfolio.ErrInvalid
	// ErrCorrupt means the stored value is not a list of records.
	ErrCorrupt = errors.New("stored value does not decode")
)

type IDStrategy int

const (
	// MaxPlusOne assigns one more than the largest ID, or 1 when empty.
	MaxPlusOne IDStrategy = iota
	// Timestamp assigns the current Unix time in milliseconds, moved past
	// the largest ID when the clock has not advanced.
	Timestamp
)

type Spec[T any] struct {
	Key      string
	Seed     func() []T
	ID       func(T) int64
	SetID    func(*T, int64)
	Strategy IDStrategy
	// Prepend puts new records first.
	Prepend bool
}

type Collection[T any] struct {
	mu   sync.Mutex
	kv   localstore.KV
	spec Spec[T]
	now  func() time.Time
}

func New[T any](kv localstore.KV, spec Spec[T]) *Collection[T] {
	return &Collection[T]{kv: kv, spec: spec, now: time.Now}
}

func (c *Collection[T]) Key() string {
	return c.spec.Key
}

// List returns the stored records, or the seed when the key is absent.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	return localstore.Load(ctx, c.kv, c.spec.Key, c.seed)
}

func (c *Collection[T]) Get(ctx context.Context, id int64) (T, error) {
	items, err := c.List(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	for _, item := range items {
		if c.spec.ID(item) == id {
			return item, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%s %d: %w", c.spec.Key, id, ErrNotFound)
}

// Add assigns an ID to item and stores it.
func (c *Collection[T]) Add(ctx context.Context, item T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.List(ctx)
	if err != nil {
		return item, err
	}
	c.spec.SetID(&item, c.nextID(items))
	if c.spec.Prepend {
		items = append([]T{item}, items...)
	} else {
		items = append(items, item)
	}
	if err := c.save(ctx, items); err != nil {
		return item, err
	}
	return item, nil
}

// Update runs fn on the record with id and stores the result. The ID is
// kept whatever fn does to it.
func (c *Collection[T]) Update(ctx context.Context, id int64, fn func(*T) error) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	items, err := c.List(ctx)
	if err != nil {
		return zero, err
	}
	for i := range items {
		if c.spec.ID(items[i]) != id {
			continue
		}
		next := items[i]
		if err := fn(&next); err != nil {
			return zero, err
		}
		c.spec.SetID(&next, id)
		items[i] = next
		if err := c.save(ctx, items); err != nil {
			return zero, err
		}
		return next, nil
	}
	return zero, fmt.Errorf("%s %d: %w", c.spec.Key, id, ErrNotFound)
}

// Delete removes the record with id. Deleting a missing ID changes nothing
// and reports false.
func (c *Collection[T]) Delete(ctx context.Context, id int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.List(ctx)
	if err != nil {
		return false, err
	}
	kept := make([]T, 0, len(items))
	for _, item := range items {
		if c.spec.ID(item) != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}
	return true, c.save(ctx, kept)
}

// ReplaceAll stores items as the whole collection.
func (c *Collection[T]) ReplaceAll(ctx context.Context, items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if items == nil {
		items = []T{}
	}
	return c.save(ctx, items)
}

// Clear removes the key, so the next read sees the seed again.
func (c *Collection[T]) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Remove(ctx, c.spec.Key)
}

func (c *Collection[T]) seed() []T {
	if c.spec.Seed == nil {
		return []T{}
	}
	return c.spec.Seed()
}

// stored decodes the value under the key without seed fallback. ok is false
// when the key is absent.
func (c *Collection[T]) stored(ctx context.Context) (items []T, ok bool, err error) {
	raw, ok, err := c.kv.Get(ctx, c.spec.Key)
	if err != nil || !ok {
		return nil, ok, err
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, true, fmt.Errorf("%s: %w: %v", c.spec.Key, ErrCorrupt, err)
	}
	return items, true, nil
}

// ensureKeys gives every stored record without a client key a new one. An
// absent key is left absent and a corrupt value is left untouched.
func (c *Collection[T]) ensureKeys(ctx context.Context, key func(*T) *string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok, err := c.stored(ctx)
	if err != nil || !ok {
		return 0, err
	}
	n := 0
	for i := range items {
		if k := key(&items[i]); *k == "" {
			*k = uuid.NewString()
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, c.save(ctx, items)
}

func (c *Collection[T]) save(ctx context.Context, items []T) error {
	return localstore.Save(ctx, c.kv, c.spec.Key, items)
}

func (c *Collection[T]) nextID(items []T) int64 {
	var max int64
	for _, item := range items {
		if id := c.spec.ID(item); id > max {
			max = id
		}
	}
	if c.spec.Strategy == Timestamp {
		if ts := c.now().UnixMilli(); ts > max {
			return ts
		}
	}
	return max + 1
}
