package model

import "time"

// User represents a registered account. Account rows live in MySQL; all
// listening activity lives in the key-value store under users/<id>.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Photo        string    `json:"photo"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile 用户画像节点，首次认证请求时惰性创建
type Profile struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Photo              string `json:"photo"`
	CreatedAt          int64  `json:"createdAt"`
	OnboardingComplete bool   `json:"onboardingComplete"`
}

// PlayEvent 一次播放记录，追加写入 users/<id>/recently_played
type PlayEvent struct {
	SongID   string `json:"songId"`
	PlayedAt int64  `json:"playedAt"`
}

// FollowedArtist 关注的艺术家元数据
type FollowedArtist struct {
	Name       string `json:"name"`
	FollowedAt int64  `json:"followedAt"`
}

// SearchEvent 搜索历史记录
type SearchEvent struct {
	Query     string `json:"query"`
	Timestamp int64  `json:"timestamp"`
}

// Playlist 用户自建歌单
type Playlist struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Owner     string          `json:"owner"`
	Songs     map[string]bool `json:"songs"`
	CreatedAt int64           `json:"createdAt"`
}
