package provider

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// 上游返回的schema并不稳定：artist/album 有时是扁平字符串有时是嵌套对象，
// id/year 有时是数字有时是字符串。这里用显式的联合类型承接，归一化只发生
// 在本包内，调用方永远拿到规范形状。

// FlexString decodes a JSON string or number into a string.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// FlexInt decodes a JSON number or numeric string into an int.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// QualityLink 一档画质/码率对应的URL
type QualityLink struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

// ImageField decodes either an ordered low→high list of quality links or a
// flat URL string.
type ImageField struct {
	Links []QualityLink
	Flat  string
}

func (f *ImageField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &f.Flat)
	}
	return json.Unmarshal(b, &f.Links)
}

// MarshalJSON 按原始形态输出，保证编解码往返对称
func (f ImageField) MarshalJSON() ([]byte, error) {
	if f.Flat != "" {
		return json.Marshal(f.Flat)
	}
	if f.Links == nil {
		return []byte("null"), nil
	}
	return json.Marshal(f.Links)
}

// ArtistRef 嵌套形式的艺术家引用
type ArtistRef struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
}

// ArtistRefs groups the artist credits of a song or album.
type ArtistRefs struct {
	Primary []ArtistRef `json:"primary"`
}

// AlbumRef decodes either a nested {id, name} object or a flat album name.
type AlbumRef struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
}

func (a *AlbumRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &a.Name)
	}
	type alias AlbumRef
	var tmp alias
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*a = AlbumRef(tmp)
	return nil
}

// RawSong 上游歌曲原始结构
type RawSong struct {
	ID          FlexString    `json:"id"`
	Name        string        `json:"name"`
	Title       string        `json:"title"`
	Artists     *ArtistRefs   `json:"artists"`
	Artist      FlexString    `json:"artist"`
	Album       AlbumRef      `json:"album"`
	AlbumID     FlexString    `json:"albumId"`
	Image       ImageField    `json:"image"`
	DownloadURL []QualityLink `json:"downloadUrl"`
	StreamURL   string        `json:"streamUrl"`
	Duration    FlexInt       `json:"duration"`
	Language    string        `json:"language"`
	Year        FlexString    `json:"year"`
}

// RawArtist 上游艺术家原始结构
type RawArtist struct {
	ID            FlexString `json:"id"`
	Name          string     `json:"name"`
	Image         ImageField `json:"image"`
	FollowerCount int64      `json:"followerCount"`
	URL           string     `json:"url"`
	Description   string     `json:"description"`
	Bio           string     `json:"bio"`
}

// RawAlbum 上游专辑原始结构
type RawAlbum struct {
	ID       FlexString  `json:"id"`
	Name     string      `json:"name"`
	Image    ImageField  `json:"image"`
	Artists  *ArtistRefs `json:"artists"`
	Language string      `json:"language"`
	Year     FlexString  `json:"year"`
	Songs    []RawSong   `json:"songs"`
}
