// Package recommender builds personalized song, artist and album bundles by
// fusing listening history, explicit likes, artist follows, language
// preference and global popularity into ranked, deduplicated result sets.
// 排序是确定性的启发式打分，不是统计模型
package recommender

import (
	"context"
	"sort"
	"strings"
	"time"

	"EchoFM/activity"
	"EchoFM/cache"
	"EchoFM/logger"
	"EchoFM/model"
	"EchoFM/provider"
	"EchoFM/trending"
)

// Catalog 推荐管线所需的目录服务能力
type Catalog interface {
	SearchSongs(ctx context.Context, query string, page, limit int, language string) ([]provider.RawSong, error)
	SearchAlbums(ctx context.Context, query string, page, limit int) ([]provider.RawAlbum, error)
	SearchArtists(ctx context.Context, query string, page, limit int) ([]provider.RawArtist, error)
	GetSong(ctx context.Context, id string) (*provider.RawSong, error)
	GetSuggestions(ctx context.Context, id string, limit int) ([]provider.RawSong, error)
	GetArtistSongs(ctx context.Context, artistID string, page int) ([]provider.RawSong, error)
}

// 打分参数。boost是乘性的，叠加关注、偏好艺术家与喜欢三类信号
const (
	boostFollowedArtist = 3.0
	boostFavoriteArtist = 1.5
	boostLikedSong      = 1.5

	suggestionsTTL = 24 * time.Hour

	maxFavoriteArtists = 5
	contentSeeds       = 5
	followSeeds        = 3
	recentSeenWindow   = 10
)

// Engine orchestrates the caches, the activity signals and the catalog into
// recommendation bundles. It holds no state between calls; every snapshot is
// persisted through the activity repository.
type Engine struct {
	activity *activity.Repository
	songs    *cache.EntityCache
	generic  *cache.GenericCache
	catalog  Catalog
	trending *trending.Aggregator
	now      func() time.Time
}

// NewEngine creates a recommendation engine.
func NewEngine(act *activity.Repository, songs *cache.EntityCache, generic *cache.GenericCache, catalog Catalog, trend *trending.Aggregator) *Engine {
	return &Engine{
		activity: act,
		songs:    songs,
		generic:  generic,
		catalog:  catalog,
		trending: trend,
		now:      time.Now,
	}
}

// GetRecommendations serves the stored snapshot when it is inside the
// staleness window, regenerating otherwise (or when forced).
func (e *Engine) GetRecommendations(ctx context.Context, userID string, limit int, forceRefresh bool) (*model.StoredRecommendation, error) {
	if !forceRefresh {
		stored, err := e.activity.StoredRecommendations(ctx, userID)
		if err != nil {
			logger.Warn("读取推荐快照失败", logger.String("userId", userID), logger.ErrorField(err))
		}
		if stored != nil && stored.Fresh(e.now().Unix()) {
			return stored, nil
		}
	}

	recs, err := e.GenerateFresh(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if err := e.activity.StoreRecommendations(ctx, userID, recs); err != nil {
		logger.Warn("写入推荐快照失败", logger.String("userId", userID), logger.ErrorField(err))
	}
	return recs, nil
}

// GenerateFresh runs the full regeneration pipeline.
func (e *Engine) GenerateFresh(ctx context.Context, userID string, limit int) (*model.StoredRecommendation, error) {
	history, err := e.activity.RecentlyPlayed(ctx, userID, 50)
	if err != nil {
		return nil, err
	}
	skipped := map[string]bool{} // 显式跳过信号暂未启用
	liked, err := e.activity.LikedSongs(ctx, userID)
	if err != nil {
		return nil, err
	}
	followed, err := e.activity.FollowedArtists(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefLangs, err := e.activity.Languages(ctx, userID)
	if err != nil {
		return nil, err
	}
	timeCtx := timeContext(e.now())
	favArtists := e.favoriteArtists(ctx, history)

	// 1. 内容候选：最近播放的前5首做种子
	var candidates []model.SlimSong
	for _, seed := range firstN(history, contentSeeds) {
		candidates = append(candidates, e.contentBased(ctx, seed, skipped, 10)...)
	}

	// 2. 关注候选：最多3个关注艺术家各取5首
	followedIDs := make(map[string]bool, len(followed))
	for id := range followed {
		followedIDs[id] = true
	}
	for _, id := range firstN(sortedKeys(followed), followSeeds) {
		name := followed[id].Name
		if name == "" {
			continue
		}
		raw, err := e.catalog.SearchSongs(ctx, name, 1, 5, "")
		if err != nil {
			logger.Debug("关注艺术家搜索失败", logger.String("artist", name), logger.ErrorField(err))
			continue
		}
		candidates = append(candidates, provider.SlimSongs(raw, model.QualityMedium)...)
	}

	// 3. 过滤与打分
	seen := make(map[string]bool, recentSeenWindow)
	for _, id := range firstN(history, recentSeenWindow) {
		seen[id] = true
	}
	for id := range skipped {
		seen[id] = true
	}

	type scoredSong struct {
		song  model.SlimSong
		score float64
	}
	var ranked []scoredSong
	for _, song := range candidates {
		if song.ID == "" || seen[song.ID] {
			continue
		}
		seen[song.ID] = true

		if len(prefLangs) > 0 && !prefLangs[strings.ToLower(song.Language)] {
			continue
		}

		boost := e.boostFor(song, followedIDs, favArtists, liked)
		count, err := e.activity.PlayCount(ctx, song.ID)
		if err != nil {
			count = 0
		}
		ranked = append(ranked, scoredSong{song: song, score: float64(count) * boost})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	personalized := make([]model.SlimSong, 0, limit)
	for _, r := range firstN(ranked, limit) {
		personalized = append(personalized, r.song)
	}

	// 4. 艺术家与专辑推荐
	artists := e.artistRecommendations(ctx, prefLangs, followedIDs, 10)
	albums := e.albumRecommendations(ctx, prefLangs, favArtists, 10)

	// 5. 趋势兜底：按语言过滤，最多10条
	trendingSongs := e.trendingFiltered(ctx, prefLangs, 10)

	return &model.StoredRecommendation{
		Personalized:    personalized,
		Artists:         artists,
		Albums:          albums,
		Trending:        trendingSongs,
		Context:         timeCtx,
		FavoriteArtists: favArtists,
		UpdatedAt:       e.now().Unix(),
	}, nil
}

// boostFor composes the multiplicative boost for a candidate song.
func (e *Engine) boostFor(song model.SlimSong, followedIDs map[string]bool, favArtists []string, liked map[string]bool) float64 {
	boost := 1.0
	if song.ArtistID != "" && followedIDs[song.ArtistID] {
		boost *= boostFollowedArtist
	}
	for _, fav := range favArtists {
		if fav != "" && strings.Contains(song.Artist, fav) {
			boost *= boostFavoriteArtist
			break
		}
	}
	if liked[song.ID] {
		boost *= boostLikedSong
	}
	return boost
}

// contentBased returns provider "similar songs" for a seed, cached for 24h
// per seed, with the skip set applied after the cache read.
func (e *Engine) contentBased(ctx context.Context, seedSongID string, skip map[string]bool, limit int) []model.SlimSong {
	cacheKey := "suggestions_" + seedSongID

	var slim []model.SlimSong
	ok, err := e.generic.GetJSON(ctx, "songs_cache", cacheKey, suggestionsTTL, &slim)
	if err != nil {
		logger.Warn("读取相似歌曲缓存失败", logger.String("seed", seedSongID), logger.ErrorField(err))
	}
	if !ok {
		raw, err := e.catalog.GetSuggestions(ctx, seedSongID, 20)
		if err != nil {
			logger.Debug("相似歌曲获取失败", logger.String("seed", seedSongID), logger.ErrorField(err))
			return nil
		}
		slim = provider.SlimSongs(raw, model.QualityMedium)
		if err := e.generic.Put(ctx, "songs_cache", cacheKey, slim); err != nil {
			logger.Warn("写入相似歌曲缓存失败", logger.String("seed", seedSongID), logger.ErrorField(err))
		}
	}

	out := make([]model.SlimSong, 0, limit)
	for _, s := range slim {
		if skip[s.ID] {
			continue
		}
		out = append(out, s)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// favoriteArtists derives up to 5 favorite artists by counting artist
// occurrences across the play history, resolved through the entity cache.
func (e *Engine) favoriteArtists(ctx context.Context, songIDs []string) []string {
	counts := make(map[string]int)
	for _, id := range songIDs {
		song, err := e.songs.PeekSong(ctx, id)
		if err != nil || song == nil || song.Artist == "" {
			continue
		}
		counts[song.Artist]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return firstN(names, maxFavoriteArtists)
}

// artistRecommendations returns top artists in the preferred languages,
// excluding artists the user already follows.
func (e *Engine) artistRecommendations(ctx context.Context, prefLangs map[string]bool, followedIDs map[string]bool, limit int) []model.SlimArtist {
	languages := sortedLangs(prefLangs)
	if len(languages) == 0 {
		languages = []string{"english", "hindi"}
	}

	seen := make(map[string]bool)
	out := make([]model.SlimArtist, 0, limit)
	for _, lang := range languages {
		raw, err := e.catalog.SearchArtists(ctx, lang, 1, limit)
		if err != nil {
			logger.Debug("艺术家发现搜索失败", logger.String("language", lang), logger.ErrorField(err))
			continue
		}
		for i := range raw {
			slim := provider.SlimArtist(&raw[i], model.QualityMedium)
			if slim.ID == "" || seen[slim.ID] || followedIDs[slim.ID] {
				continue
			}
			seen[slim.ID] = true
			out = append(out, slim)
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// albumRecommendations searches albums seeded by the top favorite artists,
// filtered by language preference.
func (e *Engine) albumRecommendations(ctx context.Context, prefLangs map[string]bool, favArtists []string, limit int) []model.SlimAlbum {
	seen := make(map[string]bool)
	out := make([]model.SlimAlbum, 0, limit)
	for _, name := range firstN(favArtists, 3) {
		raw, err := e.catalog.SearchAlbums(ctx, name, 1, 5)
		if err != nil {
			logger.Debug("专辑推荐搜索失败", logger.String("artist", name), logger.ErrorField(err))
			continue
		}
		for i := range raw {
			slim := provider.SlimAlbum(&raw[i], model.QualityMedium)
			if slim.ID == "" || seen[slim.ID] {
				continue
			}
			if len(prefLangs) > 0 && !prefLangs[strings.ToLower(slim.Language)] {
				continue
			}
			seen[slim.ID] = true
			out = append(out, slim)
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// trendingFiltered 趋势兜底：取前20条按语言偏好过滤，无偏好则不过滤
func (e *Engine) trendingFiltered(ctx context.Context, prefLangs map[string]bool, limit int) []model.ScoredSong {
	raw, err := e.trending.GetTrending(ctx, 20)
	if err != nil {
		logger.Warn("获取趋势榜失败", logger.ErrorField(err))
		return nil
	}
	out := make([]model.ScoredSong, 0, limit)
	for _, entry := range raw {
		if len(prefLangs) > 0 {
			lang := ""
			if entry.Song != nil {
				lang = strings.ToLower(entry.Song.Language)
			}
			if !prefLangs[lang] {
				continue
			}
		}
		out = append(out, entry)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// timeContext buckets the hour into the listening context.
func timeContext(now time.Time) string {
	hour := now.Hour()
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func sortedKeys(m map[string]model.FollowedArtist) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedLangs(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
