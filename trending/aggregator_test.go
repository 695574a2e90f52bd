package trending

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EchoFM/activity"
	"EchoFM/cache"
	"EchoFM/model"
	"EchoFM/provider"
	"EchoFM/store"
)

type fakeCatalog struct {
	songs []provider.RawSong
	err   error
	calls int
}

func (f *fakeCatalog) SearchSongs(ctx context.Context, query string, page, limit int, language string) ([]provider.RawSong, error) {
	f.calls++
	return f.songs, f.err
}

func rawSong(id, name string) provider.RawSong {
	return provider.RawSong{
		ID:   provider.FlexString(id),
		Name: name,
		DownloadURL: []provider.QualityLink{
			{URL: "https://aac.saavncdn.com/" + id + "_96.mp4"},
			{URL: "https://aac.saavncdn.com/" + id + "_160.mp4"},
			{URL: "https://aac.saavncdn.com/" + id + "_320.mp4"},
		},
	}
}

func newTestAggregator(catalog Catalog) (*Aggregator, *activity.Repository, store.Store) {
	kv := store.NewMemoryStore()
	act := activity.NewRepository(kv)
	songs := cache.NewEntityCache(kv)
	generic := cache.NewGenericCache(kv)
	return NewAggregator(act, generic, songs, catalog, time.Hour), act, kv
}

func TestRecomputeScoresAreDoublePlayCount(t *testing.T) {
	ctx := context.Background()
	agg, act, _ := newTestAggregator(&fakeCatalog{})

	require.NoError(t, act.RecordPlay(ctx, "u1", "hot"))
	require.NoError(t, act.RecordPlay(ctx, "u2", "hot"))
	require.NoError(t, act.RecordPlay(ctx, "u3", "hot"))
	require.NoError(t, act.RecordPlay(ctx, "u1", "warm"))

	scored, err := agg.Recompute(ctx)
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, "hot", scored[0].SongID)
	assert.Equal(t, 6.0, scored[0].Score)
	assert.Equal(t, int64(3), scored[0].PlayCount)
	assert.Equal(t, "warm", scored[1].SongID)
	assert.Equal(t, 2.0, scored[1].Score)
}

func TestRecomputeKeepsTopFifty(t *testing.T) {
	ctx := context.Background()
	agg, act, _ := newTestAggregator(&fakeCatalog{})

	for i := 0; i < 60; i++ {
		require.NoError(t, act.RecordPlay(ctx, "u1", fmt.Sprintf("s%03d", i)))
	}

	scored, err := agg.Recompute(ctx)
	require.NoError(t, err)
	assert.Len(t, scored, 50)
}

func TestRecomputeTieBreaksBySongID(t *testing.T) {
	ctx := context.Background()
	agg, act, _ := newTestAggregator(&fakeCatalog{})

	require.NoError(t, act.RecordPlay(ctx, "u1", "bbb"))
	require.NoError(t, act.RecordPlay(ctx, "u1", "aaa"))

	scored, err := agg.Recompute(ctx)
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, "aaa", scored[0].SongID)
	assert.Equal(t, "bbb", scored[1].SongID)
}

func TestColdStartFallsBackToProvider(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{songs: []provider.RawSong{rawSong("f1", "One"), rawSong("f2", "Two")}}
	agg, _, _ := newTestAggregator(catalog)

	scored, err := agg.Recompute(ctx)
	require.NoError(t, err)
	require.Len(t, scored, 2)
	for _, s := range scored {
		assert.Equal(t, fallbackScore, s.Score)
		assert.NotNil(t, s.Song)
	}
	assert.Equal(t, 1, catalog.calls)
}

func TestColdStartProviderFailureIsEmptyNotError(t *testing.T) {
	ctx := context.Background()
	agg, _, _ := newTestAggregator(&fakeCatalog{err: errors.New("upstream down")})

	scored, err := agg.Recompute(ctx)
	require.NoError(t, err)
	assert.Empty(t, scored)
}

func TestGetTrendingServesCachedSnapshot(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{songs: []provider.RawSong{rawSong("f1", "One")}}
	agg, _, _ := newTestAggregator(catalog)

	first, err := agg.GetTrending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// 第二次命中快照，不再访问目录服务
	second, err := agg.GetTrending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, catalog.calls)
}

func TestGetTrendingRespectsLimit(t *testing.T) {
	ctx := context.Background()
	agg, act, _ := newTestAggregator(&fakeCatalog{})

	for i := 0; i < 5; i++ {
		require.NoError(t, act.RecordPlay(ctx, "u1", fmt.Sprintf("s%d", i)))
	}

	scored, err := agg.GetTrending(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, scored, 3)
}

func TestRecomputeAttachesCachedSongs(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	act := activity.NewRepository(kv)
	songs := cache.NewEntityCache(kv)
	generic := cache.NewGenericCache(kv)
	agg := NewAggregator(act, generic, songs, &fakeCatalog{}, time.Hour)

	require.NoError(t, act.RecordPlay(ctx, "u1", "s1"))
	require.NoError(t, songs.PutSong(ctx, model.SlimSong{ID: "s1", Title: "Known", Language: "hindi"}))

	scored, err := agg.Recompute(ctx)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	require.NotNil(t, scored[0].Song)
	assert.Equal(t, "Known", scored[0].Song.Title)
}
