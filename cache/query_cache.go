package cache

import (
	"context"
	"fmt"
	"time"

	"EchoFM/logger"
	"EchoFM/model"
	"EchoFM/store"
)

const (
	queryIndexPath = "search_index/"

	// queryIndexCap 单个查询缓存条目最多记录的歌曲数
	queryIndexCap = 20
)

// queryIndexEntry 查询缓存条目：归一化键 → 有序歌曲id列表（插入序即相关性序）
type queryIndexEntry struct {
	SongIDs   []string `json:"songIds"`
	Timestamp int64    `json:"timestamp"`
}

// QueryCache maps a normalized query string to an ordered list of song ids,
// rehydrated through the entity cache on read. Entries are valid for the
// caller supplied TTL.
type QueryCache struct {
	store store.Store
	songs *EntityCache
	index *PrefixIndex
	now   func() int64
}

// NewQueryCache creates a query cache. index may be nil when prefix indexing
// is not wanted (tests).
func NewQueryCache(s store.Store, songs *EntityCache, index *PrefixIndex) *QueryCache {
	return &QueryCache{
		store: s,
		songs: songs,
		index: index,
		now:   func() int64 { return time.Now().Unix() },
	}
}

// Get returns the cached results for query, or nil on a miss. A non-empty id
// list that rehydrates to zero live entities is a full miss, not an empty
// success: the caller must go back to the provider.
func (c *QueryCache) Get(ctx context.Context, query string, ttl time.Duration) ([]model.SlimSong, error) {
	key := NormalizeKey(query)

	var entry queryIndexEntry
	ok, err := store.GetJSON(ctx, c.store, queryIndexPath+key, &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to load query cache entry %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	if c.now()-entry.Timestamp >= int64(ttl.Seconds()) {
		logger.Debug("查询缓存过期", logger.String("key", key))
		return nil, nil
	}
	if len(entry.SongIDs) == 0 {
		return nil, nil
	}

	results := make([]model.SlimSong, 0, len(entry.SongIDs))
	for _, id := range entry.SongIDs {
		song, err := c.songs.PeekSong(ctx, id)
		if err != nil {
			return nil, err
		}
		if song != nil {
			results = append(results, *song)
		}
	}
	if len(results) == 0 {
		// 索引里有id但深缓存一个都取不出来，按整体未命中处理
		logger.Warn("查询缓存条目无法回填，按未命中处理", logger.String("key", key))
		return nil, nil
	}

	logger.Debug("查询缓存命中",
		logger.String("key", key),
		logger.Int("results", len(results)))
	return results, nil
}

// Put caches a result list: the top ids become the index entry, every result
// is written to the entity cache, and every result's title and artist feed
// the prefix index.
func (c *QueryCache) Put(ctx context.Context, query string, results []model.SlimSong) error {
	key := NormalizeKey(query)

	ids := make([]string, 0, queryIndexCap)
	for _, song := range results {
		if song.ID == "" {
			continue
		}
		if len(ids) < queryIndexCap {
			ids = append(ids, song.ID)
		}
		if err := c.songs.PutSong(ctx, song); err != nil {
			logger.Warn("查询缓存写入歌曲失败", logger.String("songId", song.ID), logger.ErrorField(err))
		}
		if c.index != nil {
			if err := c.index.Index(ctx, song.ID, song.Title, song.Artist); err != nil {
				logger.Warn("前缀索引写入失败", logger.String("songId", song.ID), logger.ErrorField(err))
			}
		}
	}

	entry := queryIndexEntry{SongIDs: ids, Timestamp: c.now()}
	if err := c.store.Set(ctx, queryIndexPath+key, entry); err != nil {
		return fmt.Errorf("failed to store query cache entry %s: %w", key, err)
	}
	return nil
}
