package recommender

import (
	"context"

	"EchoFM/model"
)

// BuildSmartQueue 以当前播放为种子构建续播队列，避开最近播放，
// 并打散相邻的同名艺术家
func (e *Engine) BuildSmartQueue(ctx context.Context, userID, seedSongID string, size int) ([]model.SlimSong, error) {
	history, err := e.activity.RecentlyPlayed(ctx, userID, 20)
	if err != nil {
		return nil, err
	}

	avoid := make(map[string]bool, recentSeenWindow+1)
	for _, id := range firstN(history, recentSeenWindow) {
		avoid[id] = true
	}
	avoid[seedSongID] = true

	suggestions := e.contentBased(ctx, seedSongID, avoid, size)

	// 相邻去重：同名艺术家连播时先押后，末尾再补回
	queue := make([]model.SlimSong, 0, size)
	var deferred []model.SlimSong
	lastArtist := ""
	for _, song := range suggestions {
		if song.Artist != "" && song.Artist == lastArtist {
			deferred = append(deferred, song)
			continue
		}
		queue = append(queue, song)
		lastArtist = song.Artist
	}
	queue = append(queue, deferred...)

	return firstN(queue, size), nil
}
