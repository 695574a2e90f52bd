package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"EchoFM/cache"
	"EchoFM/model"
	"EchoFM/store"
)

const playlistPath = "playlists"

// CreatePlaylist 新建歌单，返回生成的歌单id
func (r *Repository) CreatePlaylist(ctx context.Context, userID, name string) (string, error) {
	playlist := model.Playlist{
		Name:      name,
		Owner:     userID,
		Songs:     map[string]bool{},
		CreatedAt: time.Now().Unix(),
	}
	id, err := r.store.Push(ctx, playlistPath, playlist)
	if err != nil {
		return "", fmt.Errorf("failed to create playlist: %w", err)
	}
	return id, nil
}

// Playlist loads a playlist by id, nil when absent.
func (r *Repository) Playlist(ctx context.Context, playlistID string) (*model.Playlist, error) {
	var p model.Playlist
	ok, err := store.GetJSON(ctx, r.store, playlistPath+"/"+playlistID, &p)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist: %w", err)
	}
	if !ok {
		return nil, nil
	}
	p.ID = playlistID
	return &p, nil
}

// AddPlaylistSong adds a song to the playlist's set.
func (r *Repository) AddPlaylistSong(ctx context.Context, playlistID, songID string) error {
	p, err := r.Playlist(ctx, playlistID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("playlist %s not found", playlistID)
	}
	if p.Songs == nil {
		p.Songs = map[string]bool{}
	}
	p.Songs[songID] = true
	p.ID = ""
	if err := r.store.Set(ctx, playlistPath+"/"+playlistID, p); err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	return nil
}

// PlaylistSongs rehydrates the playlist's songs through the entity cache.
// Songs missing from the cache are dropped.
func (r *Repository) PlaylistSongs(ctx context.Context, playlistID string, songs *cache.EntityCache) ([]model.SlimSong, error) {
	p, err := r.Playlist(ctx, playlistID)
	if err != nil || p == nil {
		return nil, err
	}
	out := make([]model.SlimSong, 0, len(p.Songs))
	for id := range p.Songs {
		song, err := songs.PeekSong(ctx, id)
		if err != nil {
			return nil, err
		}
		if song != nil {
			out = append(out, *song)
		}
	}
	return out, nil
}

// UserPlaylists returns every playlist owned by userID.
// KV存储没有二级索引，这里是O(N)扫描，歌单规模下可接受
func (r *Repository) UserPlaylists(ctx context.Context, userID string) ([]model.Playlist, error) {
	children, err := r.store.List(ctx, playlistPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	out := make([]model.Playlist, 0)
	for id, raw := range children {
		var p model.Playlist
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		if p.Owner == userID {
			p.ID = id
			out = append(out, p)
		}
	}
	return out, nil
}
