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
	songPath   = "songs/"
	artistPath = "artists/"
	albumPath  = "albums/"
)

// EntityCache 按 id 缓存精简实体的深缓存。没有TTL：条目有效直到被覆盖。
// 写入歌曲前调用方需保证流地址通过了存活探测，避免死链固化进缓存
type EntityCache struct {
	store store.Store
	probe func(ctx context.Context, url string) bool
}

// NewEntityCache creates an entity cache backed by s.
func NewEntityCache(s store.Store) *EntityCache {
	return &EntityCache{store: s, probe: ProbeURL}
}

// PutSong overwrites the cached song in place, stamping updatedAt.
func (c *EntityCache) PutSong(ctx context.Context, song model.SlimSong) error {
	if song.ID == "" {
		return fmt.Errorf("cannot cache song without id")
	}
	song.UpdatedAt = time.Now().Unix()
	if err := c.store.Set(ctx, songPath+song.ID, song); err != nil {
		return fmt.Errorf("failed to cache song %s: %w", song.ID, err)
	}
	return nil
}

// CacheIfPlayable probes the stream URL and caches the song only if the probe
// passes. The song is still usable by the caller either way; a dead link just
// never makes it into the cache. Returns whether the song was cached.
func (c *EntityCache) CacheIfPlayable(ctx context.Context, song model.SlimSong) bool {
	if song.StreamURL == "" || !c.probe(ctx, song.StreamURL) {
		logger.Debug("流地址不可用，跳过缓存",
			logger.String("songId", song.ID),
			logger.String("streamUrl", song.StreamURL))
		return false
	}
	if err := c.PutSong(ctx, song); err != nil {
		logger.Warn("写入歌曲缓存失败", logger.String("songId", song.ID), logger.ErrorField(err))
		return false
	}
	return true
}

// PeekSong loads a cached song without probing its stream URL. Used by the
// list rehydration paths where per-item probing would add a HEAD request for
// every row. Malformed entries are a miss, not an error.
func (c *EntityCache) PeekSong(ctx context.Context, id string) (*model.SlimSong, error) {
	var song model.SlimSong
	ok, err := store.GetJSON(ctx, c.store, songPath+id, &song)
	if err != nil {
		return nil, fmt.Errorf("failed to load song %s: %w", id, err)
	}
	if !ok || song.ID == "" {
		return nil, nil
	}
	return &song, nil
}

// GetSong loads a cached song and verifies its stream URL is still alive.
// A dead link is reported as a cache miss so the caller refetches from the
// provider instead of serving a broken stream.
func (c *EntityCache) GetSong(ctx context.Context, id string) (*model.SlimSong, error) {
	song, err := c.PeekSong(ctx, id)
	if err != nil || song == nil {
		return nil, err
	}
	if song.StreamURL == "" || !c.probe(ctx, song.StreamURL) {
		logger.Debug("缓存的流地址已失效，按未命中处理", logger.String("songId", id))
		return nil, nil
	}
	return song, nil
}

// PutArtist overwrites the cached artist, stamping updatedAt.
func (c *EntityCache) PutArtist(ctx context.Context, artist model.SlimArtist) error {
	if artist.ID == "" {
		return fmt.Errorf("cannot cache artist without id")
	}
	artist.UpdatedAt = time.Now().Unix()
	if err := c.store.Set(ctx, artistPath+artist.ID, artist); err != nil {
		return fmt.Errorf("failed to cache artist %s: %w", artist.ID, err)
	}
	return nil
}

// GetArtist loads a cached artist; malformed entries are a miss.
func (c *EntityCache) GetArtist(ctx context.Context, id string) (*model.SlimArtist, error) {
	var artist model.SlimArtist
	ok, err := store.GetJSON(ctx, c.store, artistPath+id, &artist)
	if err != nil {
		return nil, fmt.Errorf("failed to load artist %s: %w", id, err)
	}
	if !ok || artist.ID == "" {
		return nil, nil
	}
	return &artist, nil
}

// PutAlbum overwrites the cached album, stamping updatedAt.
func (c *EntityCache) PutAlbum(ctx context.Context, album model.SlimAlbum) error {
	if album.ID == "" {
		return fmt.Errorf("cannot cache album without id")
	}
	album.UpdatedAt = time.Now().Unix()
	if err := c.store.Set(ctx, albumPath+album.ID, album); err != nil {
		return fmt.Errorf("failed to cache album %s: %w", album.ID, err)
	}
	return nil
}

// GetAlbum loads a cached album; malformed entries are a miss.
func (c *EntityCache) GetAlbum(ctx context.Context, id string) (*model.SlimAlbum, error) {
	var album model.SlimAlbum
	ok, err := store.GetJSON(ctx, c.store, albumPath+id, &album)
	if err != nil {
		return nil, fmt.Errorf("failed to load album %s: %w", id, err)
	}
	if !ok || album.ID == "" {
		return nil, nil
	}
	return &album, nil
}
