package recommender

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EchoFM/activity"
	"EchoFM/cache"
	"EchoFM/model"
	"EchoFM/provider"
	"EchoFM/store"
	"EchoFM/trending"
)

// fakeCatalog 可编程目录服务替身
type fakeCatalog struct {
	suggestions map[string][]provider.RawSong
	searchSongs map[string][]provider.RawSong
	artists     map[string][]provider.RawArtist
	albums      map[string][]provider.RawAlbum
	songByID    map[string]*provider.RawSong
	artistSongs map[string][]provider.RawSong

	artistSongsErr error

	searchCalls      int
	suggestionsCalls int
}

func (f *fakeCatalog) SearchSongs(ctx context.Context, query string, page, limit int, language string) ([]provider.RawSong, error) {
	f.searchCalls++
	return f.searchSongs[query], nil
}

func (f *fakeCatalog) SearchAlbums(ctx context.Context, query string, page, limit int) ([]provider.RawAlbum, error) {
	return f.albums[query], nil
}

func (f *fakeCatalog) SearchArtists(ctx context.Context, query string, page, limit int) ([]provider.RawArtist, error) {
	return f.artists[query], nil
}

func (f *fakeCatalog) GetSong(ctx context.Context, id string) (*provider.RawSong, error) {
	return f.songByID[id], nil
}

func (f *fakeCatalog) GetSuggestions(ctx context.Context, id string, limit int) ([]provider.RawSong, error) {
	f.suggestionsCalls++
	return f.suggestions[id], nil
}

func (f *fakeCatalog) GetArtistSongs(ctx context.Context, artistID string, page int) ([]provider.RawSong, error) {
	if f.artistSongsErr != nil {
		return nil, f.artistSongsErr
	}
	return f.artistSongs[artistID], nil
}

func rawSongWith(id, name, artistID, artistName, language string) provider.RawSong {
	return provider.RawSong{
		ID:   provider.FlexString(id),
		Name: name,
		Artists: &provider.ArtistRefs{Primary: []provider.ArtistRef{
			{ID: provider.FlexString(artistID), Name: artistName},
		}},
		Language: language,
		DownloadURL: []provider.QualityLink{
			{URL: "https://aac.saavncdn.com/" + id + "_96.mp4"},
			{URL: "https://aac.saavncdn.com/" + id + "_160.mp4"},
			{URL: "https://aac.saavncdn.com/" + id + "_320.mp4"},
		},
	}
}

func newTestEngine(catalog *fakeCatalog) (*Engine, *activity.Repository, *cache.EntityCache) {
	kv := store.NewMemoryStore()
	act := activity.NewRepository(kv)
	songs := cache.NewEntityCache(kv)
	generic := cache.NewGenericCache(kv)
	trend := trending.NewAggregator(act, generic, songs, catalog, time.Hour)
	return NewEngine(act, songs, generic, catalog, trend), act, songs
}

func TestBoostForStacksMultiplicatively(t *testing.T) {
	engine, _, _ := newTestEngine(&fakeCatalog{})

	song := model.SlimSong{ID: "s1", Artist: "The Weeknd", ArtistID: "a1"}
	followed := map[string]bool{"a1": true}
	favs := []string{"The Weeknd"}
	liked := map[string]bool{"s1": true}

	assert.Equal(t, 6.75, engine.boostFor(song, followed, favs, liked))
}

func TestBoostForIndividualSignals(t *testing.T) {
	engine, _, _ := newTestEngine(&fakeCatalog{})
	song := model.SlimSong{ID: "s1", Artist: "Artist", ArtistID: "a1"}

	assert.Equal(t, 1.0, engine.boostFor(song, nil, nil, nil))
	assert.Equal(t, 3.0, engine.boostFor(song, map[string]bool{"a1": true}, nil, nil))
	assert.Equal(t, 1.5, engine.boostFor(song, nil, []string{"Artist"}, nil))
	assert.Equal(t, 1.5, engine.boostFor(song, nil, nil, map[string]bool{"s1": true}))
}

func TestTimeContextBuckets(t *testing.T) {
	mk := func(hour int) time.Time {
		return time.Date(2025, 6, 1, hour, 0, 0, 0, time.UTC)
	}
	assert.Equal(t, "morning", timeContext(mk(5)))
	assert.Equal(t, "morning", timeContext(mk(11)))
	assert.Equal(t, "afternoon", timeContext(mk(12)))
	assert.Equal(t, "afternoon", timeContext(mk(16)))
	assert.Equal(t, "evening", timeContext(mk(17)))
	assert.Equal(t, "evening", timeContext(mk(20)))
	assert.Equal(t, "night", timeContext(mk(21)))
	assert.Equal(t, "night", timeContext(mk(3)))
}

func TestFavoriteArtistsByHistoryCounts(t *testing.T) {
	ctx := context.Background()
	engine, _, songs := newTestEngine(&fakeCatalog{})

	require.NoError(t, songs.PutSong(ctx, model.SlimSong{ID: "s1", Title: "A", Artist: "Drake"}))
	require.NoError(t, songs.PutSong(ctx, model.SlimSong{ID: "s2", Title: "B", Artist: "Drake"}))
	require.NoError(t, songs.PutSong(ctx, model.SlimSong{ID: "s3", Title: "C", Artist: "Adele"}))

	favs := engine.favoriteArtists(ctx, []string{"s1", "s2", "s3", "missing"})
	require.Len(t, favs, 2)
	assert.Equal(t, "Drake", favs[0])
	assert.Equal(t, "Adele", favs[1])
}

func TestFavoriteArtistsCapAtFive(t *testing.T) {
	ctx := context.Background()
	engine, _, songs := newTestEngine(&fakeCatalog{})

	ids := make([]string, 0, 7)
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		id := "song" + name
		require.NoError(t, songs.PutSong(ctx, model.SlimSong{ID: id, Title: name, Artist: "Artist " + name}))
		ids = append(ids, id)
	}

	favs := engine.favoriteArtists(ctx, ids)
	assert.Len(t, favs, maxFavoriteArtists)
}

func TestContentBasedCachesSuggestions(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{suggestions: map[string][]provider.RawSong{
		"seed": {rawSongWith("r1", "Rec One", "a1", "Artist", "hindi")},
	}}
	engine, _, _ := newTestEngine(catalog)

	first := engine.contentBased(ctx, "seed", nil, 10)
	require.Len(t, first, 1)
	second := engine.contentBased(ctx, "seed", nil, 10)
	require.Len(t, second, 1)
	assert.Equal(t, 1, catalog.suggestionsCalls)
}

func TestContentBasedAppliesSkipSet(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{suggestions: map[string][]provider.RawSong{
		"seed": {
			rawSongWith("keep", "Keep", "a1", "Artist", ""),
			rawSongWith("skip", "Skip", "a1", "Artist", ""),
		},
	}}
	engine, _, _ := newTestEngine(catalog)

	got := engine.contentBased(ctx, "seed", map[string]bool{"skip": true}, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "keep", got[0].ID)
}

func TestGetRecommendationsServesFreshSnapshotVerbatim(t *testing.T) {
	ctx := context.Background()
	engine, act, _ := newTestEngine(&fakeCatalog{})

	snap := &model.StoredRecommendation{
		Personalized: []model.SlimSong{{ID: "stored", Title: "Stored"}},
		Context:      "evening",
	}
	require.NoError(t, act.StoreRecommendations(ctx, "u1", snap))

	got, err := engine.GetRecommendations(ctx, "u1", 20, false)
	require.NoError(t, err)
	require.Len(t, got.Personalized, 1)
	assert.Equal(t, "stored", got.Personalized[0].ID)
	assert.Equal(t, "evening", got.Context)
}

func TestGetRecommendationsRegeneratesStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	engine, act, _ := newTestEngine(&fakeCatalog{})

	snap := &model.StoredRecommendation{Context: "evening"}
	require.NoError(t, act.StoreRecommendations(ctx, "u1", snap))

	// 把时钟拨过新鲜度窗口
	engine.now = func() time.Time {
		return time.Now().Add(time.Duration(model.RecommendationTTLSeconds+1) * time.Second)
	}

	got, err := engine.GetRecommendations(ctx, "u1", 20, false)
	require.NoError(t, err)
	assert.NotEqual(t, "evening-stale-marker", got.Context)
	// 重新生成后快照被整体覆盖
	stored, err := act.StoredRecommendations(ctx, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, int64(0), stored.UpdatedAt)
}

func TestGetRecommendationsForceRefreshBypassesSnapshot(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{}
	engine, act, _ := newTestEngine(catalog)

	require.NoError(t, act.StoreRecommendations(ctx, "u1", &model.StoredRecommendation{Context: "evening"}))

	fixed := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return fixed }

	got, err := engine.GetRecommendations(ctx, "u1", 20, true)
	require.NoError(t, err)
	assert.Equal(t, "morning", got.Context)
}

func TestGenerateFreshLanguageFilterAndScoring(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{
		suggestions: map[string][]provider.RawSong{
			"seed": {
				rawSongWith("hi1", "Hindi One", "a1", "Artist A", "hindi"),
				rawSongWith("en1", "English One", "a2", "Artist B", "english"),
				rawSongWith("hi2", "Hindi Two", "a3", "Artist C", "hindi"),
			},
		},
	}
	engine, act, _ := newTestEngine(catalog)

	require.NoError(t, act.RecordPlay(ctx, "u1", "seed"))
	require.NoError(t, act.SetLanguages(ctx, "u1", []string{"hindi"}))
	// hi2 更热门
	require.NoError(t, act.RecordPlay(ctx, "other", "hi2"))
	require.NoError(t, act.RecordPlay(ctx, "other2", "hi2"))

	got, err := engine.GenerateFresh(ctx, "u1", 20)
	require.NoError(t, err)

	ids := make([]string, 0, len(got.Personalized))
	for _, s := range got.Personalized {
		ids = append(ids, s.ID)
	}
	assert.NotContains(t, ids, "en1")
	assert.Contains(t, ids, "hi1")
	assert.Contains(t, ids, "hi2")
	// 播放计数×boost决定排序，hi2在前
	assert.Equal(t, "hi2", ids[0])
}

func TestGenerateFreshExcludesRecentlyPlayed(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{
		suggestions: map[string][]provider.RawSong{
			"seed": {
				rawSongWith("seen", "Seen", "a1", "Artist", ""),
				rawSongWith("fresh", "Fresh", "a2", "Artist B", ""),
			},
		},
	}
	engine, act, _ := newTestEngine(catalog)

	// seen 在最近10首窗口内
	require.NoError(t, act.RecordPlay(ctx, "u1", "seen"))
	require.NoError(t, act.RecordPlay(ctx, "u1", "seed"))

	got, err := engine.GenerateFresh(ctx, "u1", 20)
	require.NoError(t, err)

	for _, s := range got.Personalized {
		assert.NotEqual(t, "seen", s.ID)
	}
}
