package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"EchoFM/store"
)

// genericEntry 通用缓存条目，负载形状对本层不透明
type genericEntry struct {
	Results   json.RawMessage `json:"results"`
	Timestamp int64           `json:"timestamp"`
}

// GenericCache is a TTL-gated cache for opaque JSON payloads keyed by
// (namespace, key). Trending snapshots, raw multi-category search payloads
// and per-seed suggestion lists all live here.
type GenericCache struct {
	store store.Store
	now   func() int64
}

// NewGenericCache creates a generic cache backed by s.
func NewGenericCache(s store.Store) *GenericCache {
	return &GenericCache{
		store: s,
		now:   func() int64 { return time.Now().Unix() },
	}
}

func genericPath(namespace, key string) string {
	return namespace + "/" + NormalizeKey(key)
}

// Get returns the raw payload for (namespace, key), or nil on miss or when
// the entry has aged past ttl.
func (c *GenericCache) Get(ctx context.Context, namespace, key string, ttl time.Duration) (json.RawMessage, error) {
	var entry genericEntry
	ok, err := store.GetJSON(ctx, c.store, genericPath(namespace, key), &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to load cache entry %s/%s: %w", namespace, key, err)
	}
	if !ok || entry.Results == nil {
		return nil, nil
	}
	if c.now()-entry.Timestamp >= int64(ttl.Seconds()) {
		return nil, nil
	}
	return entry.Results, nil
}

// GetJSON loads the payload for (namespace, key) into out, reporting whether
// a fresh entry existed. Payloads that fail to decode count as a miss.
func (c *GenericCache) GetJSON(ctx context.Context, namespace, key string, ttl time.Duration, out any) (bool, error) {
	raw, err := c.Get(ctx, namespace, key, ttl)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, nil
	}
	return true, nil
}

// Put stores value under (namespace, key) with a fresh timestamp.
func (c *GenericCache) Put(ctx context.Context, namespace, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload %s/%s: %w", namespace, key, err)
	}
	entry := genericEntry{Results: raw, Timestamp: c.now()}
	if err := c.store.Set(ctx, genericPath(namespace, key), entry); err != nil {
		return fmt.Errorf("failed to store cache entry %s/%s: %w", namespace, key, err)
	}
	return nil
}
