package recommender

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EchoFM/model"
	"EchoFM/provider"
)

func TestBuildDailyMixFromRecentSeeds(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{suggestions: map[string][]provider.RawSong{
		"seed": {
			rawSongWith("m1", "One", "a1", "A", ""),
			rawSongWith("m2", "Two", "a2", "B", ""),
			rawSongWith("m3", "Three", "a3", "C", ""),
			rawSongWith("m4", "Four", "a4", "D", ""),
			rawSongWith("m5", "Five", "a5", "E", ""),
		},
	}}
	engine, act, _ := newTestEngine(catalog)
	require.NoError(t, act.RecordPlay(ctx, "u1", "seed"))

	mix, err := engine.BuildDailyMix(ctx, "u1")
	require.NoError(t, err)
	// 每个种子最多取4首
	assert.Len(t, mix, dailyMixPerSeed)
}

func TestBuildDailyMixDeduplicatesAcrossSeeds(t *testing.T) {
	ctx := context.Background()
	shared := rawSongWith("dup", "Shared", "a1", "A", "")
	catalog := &fakeCatalog{suggestions: map[string][]provider.RawSong{
		"seed1": {shared, rawSongWith("u1s", "Unique1", "a2", "B", "")},
		"seed2": {shared, rawSongWith("u2s", "Unique2", "a3", "C", "")},
	}}
	engine, act, _ := newTestEngine(catalog)
	require.NoError(t, act.RecordPlay(ctx, "u1", "seed1"))
	require.NoError(t, act.RecordPlay(ctx, "u1", "seed2"))

	mix, err := engine.BuildDailyMix(ctx, "u1")
	require.NoError(t, err)

	seen := map[string]int{}
	for _, s := range mix {
		seen[s.ID]++
	}
	assert.Equal(t, 1, seen["dup"])
}

func TestBuildDailyMixBackfillsFromFavoriteArtists(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{
		suggestions: map[string][]provider.RawSong{},
		searchSongs: map[string][]provider.RawSong{
			"Drake": {
				rawSongWith("d1", "Back One", "a1", "Drake", ""),
				rawSongWith("d2", "Back Two", "a1", "Drake", ""),
			},
		},
	}
	engine, act, songs := newTestEngine(catalog)

	require.NoError(t, songs.PutSong(ctx, model.SlimSong{ID: "h1", Title: "H", Artist: "Drake"}))
	require.NoError(t, act.RecordPlay(ctx, "u1", "h1"))

	mix, err := engine.BuildDailyMix(ctx, "u1")
	require.NoError(t, err)

	ids := make([]string, 0, len(mix))
	for _, s := range mix {
		ids = append(ids, s.ID)
	}
	assert.Contains(t, ids, "d1")
	assert.Contains(t, ids, "d2")
}

func TestBuildDailyMixCapAtThirty(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{suggestions: map[string][]provider.RawSong{}}
	for i := 0; i < 5; i++ {
		seed := fmt.Sprintf("seed%d", i)
		var sugs []provider.RawSong
		for j := 0; j < 10; j++ {
			id := fmt.Sprintf("s%d_%d", i, j)
			sugs = append(sugs, rawSongWith(id, "Song "+id, "a", "Artist", ""))
		}
		catalog.suggestions[seed] = sugs
	}
	engine, act, _ := newTestEngine(catalog)
	for i := 0; i < 5; i++ {
		require.NoError(t, act.RecordPlay(ctx, "u1", fmt.Sprintf("seed%d", i)))
	}

	mix, err := engine.BuildDailyMix(ctx, "u1")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(mix), dailyMixCap)
	// 5个种子各4首
	assert.Len(t, mix, 20)
}
