// Package store provides the hierarchical key-value store the caches, the
// activity log and the recommendation snapshots are persisted in. Paths are
// /-delimited strings; every stored value is a single JSON document at its
// exact path. There are no transactions and no secondary indexes — all
// indexing above this layer is application-level denormalization.
package store

import (
	"context"
	"encoding/json"
)

// Store 分层KV存储抽象。Get 未命中返回 (nil, nil) 而不是错误
type Store interface {
	// Get returns the raw JSON document at path, or nil when absent.
	Get(ctx context.Context, path string) ([]byte, error)

	// Set JSON-encodes value and stores it at path, overwriting in place.
	Set(ctx context.Context, path string, value any) error

	// Update shallow-merges fields into the JSON object stored at path,
	// creating the object if it does not exist.
	Update(ctx context.Context, path string, fields map[string]any) error

	// Push stores value under a generated child key of path and returns the key.
	Push(ctx context.Context, path string, value any) (string, error)

	// Delete removes the document at path.
	Delete(ctx context.Context, path string) error

	// List returns the immediate child documents of path keyed by child name.
	List(ctx context.Context, path string) (map[string]json.RawMessage, error)

	// IncrBy atomically increments the integer counter at path and returns
	// the new value. Counters are plain JSON numbers.
	IncrBy(ctx context.Context, path string, delta int64) (int64, error)
}

// GetJSON loads the document at path into out. Absent documents leave out
// untouched and return false. Documents that fail to decode are treated as
// absent: a malformed entry is a cache miss, not an error.
func GetJSON(ctx context.Context, s Store, path string, out any) (bool, error) {
	raw, err := s.Get(ctx, path)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, nil
	}
	return true, nil
}
