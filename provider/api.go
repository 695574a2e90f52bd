package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"EchoFM/logger"
)

// SearchSongs 搜索歌曲。空结果时做查询扩展：先试首词，再试倒序，最后逐词尝试
func (c *Client) SearchSongs(ctx context.Context, query string, page, limit int, language string) ([]RawSong, error) {
	fetch := func(q string) ([]RawSong, error) {
		params := url.Values{}
		params.Set("query", q)
		params.Set("page", fmt.Sprintf("%d", page))
		params.Set("limit", fmt.Sprintf("%d", limit))
		if language != "" {
			params.Set("language", language)
		}

		var result struct {
			Data struct {
				Total   int       `json:"total"`
				Results []RawSong `json:"results"`
			} `json:"data"`
		}
		if err := c.getJSON(ctx, "search_songs", "/api/search/songs?"+params.Encode(), &result); err != nil {
			return nil, err
		}
		return result.Data.Results, nil
	}

	results, err := fetch(query)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 || page > 1 {
		return results, nil
	}

	// 查询扩展只针对第一页的多词查询
	parts := strings.Fields(query)
	if len(parts) < 2 {
		return results, nil
	}

	logger.Debug("搜索无结果，尝试查询扩展", logger.String("query", query))

	if results, err = fetch(parts[0]); err == nil && len(results) > 0 {
		return results, nil
	}

	reversed := make([]string, len(parts))
	for i, p := range parts {
		reversed[len(parts)-1-i] = p
	}
	if results, err = fetch(strings.Join(reversed, " ")); err == nil && len(results) > 0 {
		return results, nil
	}

	for _, word := range parts {
		if len(word) <= 2 {
			continue // 跳过短噪声词
		}
		if results, err = fetch(word); err == nil && len(results) > 0 {
			return results, nil
		}
	}
	return nil, nil
}

// SearchAll 跨类别搜索，返回上游原始负载
func (c *Client) SearchAll(ctx context.Context, query string) (map[string]any, error) {
	var result struct {
		Data map[string]any `json:"data"`
	}
	if err := c.getJSON(ctx, "search_all", "/api/search?query="+url.QueryEscape(query), &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// SearchAlbums 搜索专辑
func (c *Client) SearchAlbums(ctx context.Context, query string, page, limit int) ([]RawAlbum, error) {
	var result struct {
		Data struct {
			Results []RawAlbum `json:"results"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/api/search/albums?query=%s&page=%d&limit=%d", url.QueryEscape(query), page, limit)
	if err := c.getJSON(ctx, "search_albums", path, &result); err != nil {
		return nil, err
	}
	return result.Data.Results, nil
}

// SearchArtists 搜索艺术家
func (c *Client) SearchArtists(ctx context.Context, query string, page, limit int) ([]RawArtist, error) {
	var result struct {
		Data struct {
			Results []RawArtist `json:"results"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/api/search/artists?query=%s&page=%d&limit=%d", url.QueryEscape(query), page, limit)
	if err := c.getJSON(ctx, "search_artists", path, &result); err != nil {
		return nil, err
	}
	return result.Data.Results, nil
}

// GetSong 获取单曲详情
func (c *Client) GetSong(ctx context.Context, id string) (*RawSong, error) {
	var result struct {
		Data []RawSong `json:"data"`
	}
	if err := c.getJSON(ctx, "get_song", "/api/songs/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, &Error{Op: "get_song", StatusCode: 404}
	}
	return &result.Data[0], nil
}

// GetSuggestions 获取相似歌曲（内容推荐种子）
func (c *Client) GetSuggestions(ctx context.Context, id string, limit int) ([]RawSong, error) {
	var result struct {
		Data []RawSong `json:"data"`
	}
	path := fmt.Sprintf("/api/songs/%s/suggestions?limit=%d", url.PathEscape(id), limit)
	if err := c.getJSON(ctx, "get_suggestions", path, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// GetArtist 获取艺术家详情
func (c *Client) GetArtist(ctx context.Context, id string) (*RawArtist, error) {
	var result struct {
		Data *RawArtist `json:"data"`
	}
	if err := c.getJSON(ctx, "get_artist", "/api/artists/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	if result.Data == nil {
		return nil, &Error{Op: "get_artist", StatusCode: 404}
	}
	return result.Data, nil
}

// GetArtistSongs 获取艺术家热门歌曲
func (c *Client) GetArtistSongs(ctx context.Context, artistID string, page int) ([]RawSong, error) {
	var result struct {
		Data struct {
			Songs []RawSong `json:"songs"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/api/artists/%s/songs?page=%d&sortBy=latest", url.PathEscape(artistID), page)
	if err := c.getJSON(ctx, "get_artist_songs", path, &result); err != nil {
		return nil, err
	}
	return result.Data.Songs, nil
}

// GetArtistAlbums 获取艺术家专辑列表
func (c *Client) GetArtistAlbums(ctx context.Context, artistID string, page int) ([]RawAlbum, error) {
	var result struct {
		Data struct {
			Albums []RawAlbum `json:"albums"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/api/artists/%s/albums?page=%d&sortBy=latest", url.PathEscape(artistID), page)
	if err := c.getJSON(ctx, "get_artist_albums", path, &result); err != nil {
		return nil, err
	}
	return result.Data.Albums, nil
}

// GetAlbum 获取专辑详情（含曲目）
func (c *Client) GetAlbum(ctx context.Context, id string) (*RawAlbum, error) {
	var result struct {
		Data *RawAlbum `json:"data"`
	}
	if err := c.getJSON(ctx, "get_album", "/api/albums?id="+url.QueryEscape(id), &result); err != nil {
		return nil, err
	}
	if result.Data == nil {
		return nil, &Error{Op: "get_album", StatusCode: 404}
	}
	return result.Data, nil
}
