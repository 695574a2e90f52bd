package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EchoFM/model"
	"EchoFM/store"
)

func newTestQueryCache() (*QueryCache, *EntityCache, *PrefixIndex) {
	kv := store.NewMemoryStore()
	songs := NewEntityCache(kv)
	songs.probe = func(ctx context.Context, url string) bool { return true }
	index := NewPrefixIndex(kv, songs)
	return NewQueryCache(kv, songs, index), songs, index
}

func TestQueryCacheRoundtrip(t *testing.T) {
	ctx := context.Background()
	qc, _, _ := newTestQueryCache()

	put := []model.SlimSong{testSong("s1"), testSong("s2")}
	require.NoError(t, qc.Put(ctx, "Blinding Lights", put))

	got, err := qc.Get(ctx, "  blinding lights ", time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].ID)
	assert.Equal(t, "s2", got[1].ID)
}

func TestQueryCacheTTLBoundary(t *testing.T) {
	ctx := context.Background()
	qc, _, _ := newTestQueryCache()

	base := int64(1_000_000)
	qc.now = func() int64 { return base }
	require.NoError(t, qc.Put(ctx, "query", []model.SlimSong{testSong("s1")}))

	ttl := time.Hour

	// 差1秒仍然新鲜
	qc.now = func() int64 { return base + int64(ttl.Seconds()) - 1 }
	got, err := qc.Get(ctx, "query", ttl)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// 年龄恰好等于TTL即过期
	qc.now = func() int64 { return base + int64(ttl.Seconds()) }
	got, err = qc.Get(ctx, "query", ttl)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQueryCacheRehydrateZeroIsFullMiss(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	songs := NewEntityCache(kv)
	qc := NewQueryCache(kv, songs, nil)

	// 索引条目指向从未写入深缓存的id
	entry := queryIndexEntry{SongIDs: []string{"ghost1", "ghost2"}, Timestamp: qc.now()}
	require.NoError(t, kv.Set(ctx, queryIndexPath+"query", entry))

	got, err := qc.Get(ctx, "query", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQueryCachePartialRehydration(t *testing.T) {
	ctx := context.Background()
	qc, songs, _ := newTestQueryCache()

	require.NoError(t, qc.Put(ctx, "query", []model.SlimSong{testSong("s1"), testSong("s2")}))
	// 人为抹掉一条深缓存
	require.NoError(t, songs.store.Delete(ctx, songPath+"s1"))

	got, err := qc.Get(ctx, "query", time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s2", got[0].ID)
}

func TestQueryCacheCapsIndexAtTwenty(t *testing.T) {
	ctx := context.Background()
	qc, _, _ := newTestQueryCache()

	var put []model.SlimSong
	for i := 0; i < 25; i++ {
		put = append(put, testSong(fmt.Sprintf("s%02d", i)))
	}
	require.NoError(t, qc.Put(ctx, "big", put))

	got, err := qc.Get(ctx, "big", time.Hour)
	require.NoError(t, err)
	assert.Len(t, got, queryIndexCap)
}

func TestQueryCachePutFeedsPrefixIndex(t *testing.T) {
	ctx := context.Background()
	qc, _, index := newTestQueryCache()

	song := testSong("s1")
	song.Title = "Starboy"
	song.Artist = "The Weeknd"
	require.NoError(t, qc.Put(ctx, "starboy", []model.SlimSong{song}))

	for _, q := range []string{"st", "starb", "weeknd", "starboythe"} {
		got, err := index.Query(ctx, q, 10)
		require.NoError(t, err)
		require.Len(t, got, 1, "prefix %q", q)
		assert.Equal(t, "s1", got[0].ID)
	}
}

func TestQueryCacheSkipsResultsWithoutID(t *testing.T) {
	ctx := context.Background()
	qc, _, _ := newTestQueryCache()

	require.NoError(t, qc.Put(ctx, "query", []model.SlimSong{{Title: "no id"}, testSong("s1")}))

	got, err := qc.Get(ctx, "query", time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
}
