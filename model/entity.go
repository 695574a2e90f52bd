package model

import "strings"

// Quality selects the image resolution and stream bitrate tier for entities
// returned to clients.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// ParseQuality maps a client supplied tier to a known value, defaulting to medium.
func ParseQuality(s string) Quality {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return QualityLow
	case "high":
		return QualityHigh
	default:
		return QualityMedium
	}
}

// SlimSong 歌曲的规范化精简表示，按 id 唯一；重复写入同一 id 直接整体覆盖
type SlimSong struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	ArtistID  string `json:"artistId,omitempty"`
	Album     string `json:"album"`
	AlbumID   string `json:"albumId"`
	Image     string `json:"image"`
	Duration  int    `json:"duration"` // 时长（秒）
	Language  string `json:"language"`
	Year      string `json:"year"`
	StreamURL string `json:"streamUrl"` // 仅当可达性校验通过才会被缓存
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

// SlimArtist 艺术家的精简表示
type SlimArtist struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Follower  int64  `json:"follower"`
	URL       string `json:"url"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

// SlimAlbum 专辑的精简表示
type SlimAlbum struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Artist    string `json:"artist"`
	Language  string `json:"language"`
	Year      string `json:"year"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

// WithQuality returns a copy adjusted to the requested tier. Cached entries are
// stored at medium quality; the provider CDN encodes resolution and bitrate in
// the URL, so tiers are a pure string substitution.
func (s SlimSong) WithQuality(q Quality) SlimSong {
	out := s
	switch q {
	case QualityLow:
		out.Image = strings.ReplaceAll(out.Image, "500x500", "150x150")
		out.StreamURL = strings.Replace(out.StreamURL, "_320.", "_96.", 1)
		out.StreamURL = strings.Replace(out.StreamURL, "_160.", "_96.", 1)
	case QualityHigh:
		out.Image = strings.ReplaceAll(out.Image, "150x150", "500x500")
		out.StreamURL = strings.Replace(out.StreamURL, "_96.", "_320.", 1)
		out.StreamURL = strings.Replace(out.StreamURL, "_160.", "_320.", 1)
	default:
		// medium与high共用大图，只有low降到150x150
		out.Image = strings.ReplaceAll(out.Image, "150x150", "500x500")
	}
	return out
}

// WithQuality returns a copy of the artist adjusted to the requested tier.
func (a SlimArtist) WithQuality(q Quality) SlimArtist {
	out := a
	if q == QualityLow {
		out.Image = strings.ReplaceAll(out.Image, "500x500", "150x150")
		out.Image = strings.ReplaceAll(out.Image, "450x450", "150x150")
	} else {
		out.Image = strings.ReplaceAll(out.Image, "150x150", "500x500")
		out.Image = strings.ReplaceAll(out.Image, "50x50", "500x500")
	}
	return out
}

// WithQuality returns a copy of the album adjusted to the requested tier.
func (a SlimAlbum) WithQuality(q Quality) SlimAlbum {
	out := a
	if q == QualityLow {
		out.Image = strings.ReplaceAll(out.Image, "500x500", "150x150")
		out.Image = strings.ReplaceAll(out.Image, "450x450", "150x150")
	} else {
		out.Image = strings.ReplaceAll(out.Image, "150x150", "500x500")
		out.Image = strings.ReplaceAll(out.Image, "50x50", "500x500")
	}
	return out
}
