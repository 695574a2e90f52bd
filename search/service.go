// Package search 歌曲检索服务：查询缓存优先，未命中回源再回填，
// 另提供跨类型搜索与前缀补全
package search

import (
	"context"
	"encoding/json"
	"time"

	"EchoFM/cache"
	"EchoFM/logger"
	"EchoFM/model"
	"EchoFM/provider"
)

const (
	queryCacheTTL  = time.Hour
	searchAllTTL   = time.Hour
	searchAllSpace = "search_all_cache"
)

// Catalog 检索所需的目录服务能力
type Catalog interface {
	SearchSongs(ctx context.Context, query string, page, limit int, language string) ([]provider.RawSong, error)
	SearchAll(ctx context.Context, query string) (map[string]any, error)
}

// Service fronts the catalog with the query cache and the prefix index.
type Service struct {
	catalog Catalog
	queries *cache.QueryCache
	generic *cache.GenericCache
	prefix  *cache.PrefixIndex
}

// NewService creates a search service.
func NewService(catalog Catalog, queries *cache.QueryCache, generic *cache.GenericCache, prefix *cache.PrefixIndex) *Service {
	return &Service{catalog: catalog, queries: queries, generic: generic, prefix: prefix}
}

// Songs resolves a song search. Cache hits that still rehydrate to at least
// one live song short-circuit the provider; anything else falls through to
// the catalog and backfills the cache.
func (s *Service) Songs(ctx context.Context, query string, limit int, quality model.Quality, language string) ([]model.SlimSong, error) {
	cached, err := s.queries.Get(ctx, query, queryCacheTTL)
	if err != nil {
		logger.Warn("查询缓存读取失败", logger.String("query", query), logger.ErrorField(err))
	}
	if len(cached) > 0 {
		return s.requalify(cached, quality, limit), nil
	}

	raw, err := s.catalog.SearchSongs(ctx, query, 1, limit, language)
	if err != nil {
		return nil, err
	}
	results := provider.SlimSongs(raw, model.QualityMedium)
	if len(results) > 0 {
		if err := s.queries.Put(ctx, query, results); err != nil {
			logger.Warn("查询缓存写入失败", logger.String("query", query), logger.ErrorField(err))
		}
	}
	return s.requalify(results, quality, limit), nil
}

// All resolves a cross-type search (songs, albums, artists, playlists as the
// provider shapes it), cached opaquely for an hour.
func (s *Service) All(ctx context.Context, query string) (json.RawMessage, error) {
	cached, err := s.generic.Get(ctx, searchAllSpace, query, searchAllTTL)
	if err != nil {
		logger.Warn("聚合搜索缓存读取失败", logger.String("query", query), logger.ErrorField(err))
	}
	if cached != nil {
		return cached, nil
	}

	result, err := s.catalog.SearchAll(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := s.generic.Put(ctx, searchAllSpace, query, result); err != nil {
		logger.Warn("聚合搜索缓存写入失败", logger.String("query", query), logger.ErrorField(err))
	}
	return json.Marshal(result)
}

// Suggest serves typeahead completions straight from the prefix index; it
// never touches the provider.
func (s *Service) Suggest(ctx context.Context, text string, limit int) ([]model.SlimSong, error) {
	return s.prefix.Query(ctx, text, limit)
}

// requalify 缓存统一存中等音质，出口按请求音质改写
func (s *Service) requalify(songs []model.SlimSong, quality model.Quality, limit int) []model.SlimSong {
	if len(songs) > limit {
		songs = songs[:limit]
	}
	if quality == model.QualityMedium {
		return songs
	}
	out := make([]model.SlimSong, len(songs))
	for i, song := range songs {
		out[i] = song.WithQuality(quality)
	}
	return out
}
