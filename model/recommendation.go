package model

// ScoredSong 趋势榜条目，score = 播放计数 * 2；冷启动回退条目使用固定占位分
type ScoredSong struct {
	SongID    string    `json:"songId"`
	Score     float64   `json:"score"`
	PlayCount int64     `json:"playCount"`
	Song      *SlimSong `json:"song,omitempty"` // 命中实体缓存时附带精简歌曲
}

// StoredRecommendation 每个用户一份的推荐快照，整体覆盖写入，从不合并
type StoredRecommendation struct {
	Personalized    []SlimSong   `json:"personalized"`
	Artists         []SlimArtist `json:"artists"`
	Albums          []SlimAlbum  `json:"albums"`
	Trending        []ScoredSong `json:"trending"`
	Context         string       `json:"context"` // morning / afternoon / evening / night
	FavoriteArtists []string     `json:"favoriteArtists"`
	UpdatedAt       int64        `json:"updatedAt"`
}

// RecommendationTTLSeconds 推荐快照的新鲜度窗口
const RecommendationTTLSeconds = 1800

// Fresh reports whether the snapshot is inside the staleness window.
func (r *StoredRecommendation) Fresh(now int64) bool {
	return now-r.UpdatedAt < RecommendationTTLSeconds
}
