package localstore

import (
	"context"
	"encoding/json"
	"fmt"

	"folio/api/internal/logging"
)

// KV is the slice of Store the typed helpers need.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, keys ...string) error
}

// Load decodes the value under key. A missing key or a value that does not
// decode as T yields fallback(); only storage failures are returned.
func Load[T any](ctx context.Context, kv KV, key string, fallback func() T) (T, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	if !ok {
		return fallback(), nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		logging.New("localstore").Warn("corrupt value, using fallback", "key", key, "error", err)
		return fallback(), nil
	}
	return out, nil
}

// LoadMerged decodes the value under key over base(), so fields absent from
// the stored document keep their base values. Use it for single documents,
// not collections.
func LoadMerged[T any](ctx context.Context, kv KV, key string, base func() T) (T, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	out := base()
	if !ok {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		logging.New("localstore").Warn("corrupt value, using fallback", "key", key, "error", err)
		return base(), nil
	}
	return out, nil
}

// Save encodes value and writes it under key.
func Save[T any](ctx context.Context, kv KV, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, raw)
}

// LoadRaw returns the stored JSON text, or "" when the key is absent.
func LoadRaw(ctx context.Context, kv KV, key string) (string, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil || !ok {
		return "", err
	}
	return string(raw), nil
}

func Exists(ctx context.Context, kv KV, key string) (bool, error) {
	_, ok, err := kv.Get(ctx, key)
	return ok, err
}
