package provider

import (
	"html"
	"strings"

	"EchoFM/model"
)

// 精简转换：把上游的原始结构压成规范的slim实体。缓存里永远只存medium档，
// 具体画质/码率在响应时通过 model.WithQuality 调整。

const streamCDNHost = "aac.saavncdn.com"

// pickImage selects the image URL for the tier from an ordered low→high list.
func pickImage(img ImageField, q model.Quality) string {
	if img.Flat != "" {
		return img.Flat
	}
	links := img.Links
	if len(links) == 0 {
		return ""
	}
	switch q {
	case model.QualityLow:
		return links[0].URL
	case model.QualityHigh:
		return links[len(links)-1].URL
	default:
		if len(links) > 1 {
			return links[1].URL
		}
		return links[0].URL
	}
}

// pickStream selects the stream URL for the tier from an ordered low→high
// bitrate list (roughly 12/48/96/160/320 kbps).
func pickStream(s *RawSong, q model.Quality) string {
	downloads := s.DownloadURL
	if len(downloads) == 0 {
		return s.StreamURL
	}
	switch q {
	case model.QualityLow:
		if len(downloads) > 1 {
			return downloads[1].URL
		}
		return downloads[0].URL
	case model.QualityHigh:
		return downloads[len(downloads)-1].URL
	default:
		if len(downloads) > 2 {
			return downloads[2].URL
		}
		return downloads[len(downloads)-1].URL
	}
}

// normalizeStreamURL 统一走aac CDN域名，并剔除偶发的图片链接冒充流地址
func normalizeStreamURL(u string) string {
	if u == "" {
		return ""
	}
	if strings.HasSuffix(u, ".jpg") || strings.HasSuffix(u, ".png") {
		return ""
	}
	if idx := strings.Index(u, "saavncdn.com/"); idx >= 0 {
		return "https://" + streamCDNHost + "/" + u[idx+len("saavncdn.com/"):]
	}
	return u
}

// SlimSong normalizes a raw provider song into the canonical slim shape.
func SlimSong(s *RawSong, q model.Quality) model.SlimSong {
	var artistName, artistID string
	if s.Artists != nil && len(s.Artists.Primary) > 0 {
		names := make([]string, 0, len(s.Artists.Primary))
		for _, a := range s.Artists.Primary {
			names = append(names, a.Name)
		}
		artistName = strings.Join(names, ", ")
		artistID = string(s.Artists.Primary[0].ID)
	} else if s.Artist != "" {
		artistName = string(s.Artist)
	} else {
		artistName = "Unknown Artist"
	}

	albumName := s.Album.Name
	albumID := string(s.Album.ID)
	if albumID == "" {
		albumID = string(s.AlbumID)
	}

	title := s.Name
	if title == "" {
		title = s.Title
	}

	return model.SlimSong{
		ID:        string(s.ID),
		Title:     html.UnescapeString(title),
		Artist:    html.UnescapeString(artistName),
		ArtistID:  artistID,
		Album:     html.UnescapeString(albumName),
		AlbumID:   albumID,
		Image:     pickImage(s.Image, q),
		Duration:  int(s.Duration),
		Language:  s.Language,
		Year:      string(s.Year),
		StreamURL: normalizeStreamURL(pickStream(s, q)),
	}.WithQuality(q)
}

// SlimSongs normalizes a batch, dropping entries without an id or title.
func SlimSongs(raw []RawSong, q model.Quality) []model.SlimSong {
	out := make([]model.SlimSong, 0, len(raw))
	for i := range raw {
		slim := SlimSong(&raw[i], q)
		if slim.ID == "" || slim.Title == "" {
			continue
		}
		out = append(out, slim)
	}
	return out
}

// SlimArtist normalizes a raw provider artist.
func SlimArtist(a *RawArtist, q model.Quality) model.SlimArtist {
	img := a.Image.Flat
	if img == "" && len(a.Image.Links) > 0 {
		img = a.Image.Links[len(a.Image.Links)-1].URL
	}
	return model.SlimArtist{
		ID:       string(a.ID),
		Name:     html.UnescapeString(a.Name),
		Image:    img,
		Follower: a.FollowerCount,
		URL:      a.URL,
	}.WithQuality(q)
}

// SlimAlbum normalizes a raw provider album.
func SlimAlbum(a *RawAlbum, q model.Quality) model.SlimAlbum {
	img := a.Image.Flat
	if img == "" && len(a.Image.Links) > 0 {
		img = a.Image.Links[len(a.Image.Links)-1].URL
	}
	var artistName string
	if a.Artists != nil && len(a.Artists.Primary) > 0 {
		names := make([]string, 0, len(a.Artists.Primary))
		for _, ar := range a.Artists.Primary {
			names = append(names, ar.Name)
		}
		artistName = strings.Join(names, ", ")
	}
	return model.SlimAlbum{
		ID:       string(a.ID),
		Name:     html.UnescapeString(a.Name),
		Image:    img,
		Artist:   html.UnescapeString(artistName),
		Language: a.Language,
		Year:     string(a.Year),
	}.WithQuality(q)
}
