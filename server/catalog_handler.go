package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"EchoFM/logger"
	"EchoFM/model"
	"EchoFM/provider"
)

// GetSongHandler resolves a song by id: the entity cache answers when the
// stored stream URL still probes alive, otherwise the provider is asked again
// and the fresh copy re-cached.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	quality := h.qualityFrom(r)

	song, err := h.songs.GetSong(r.Context(), id)
	if err != nil {
		logger.Warn("歌曲缓存读取失败", logger.String("songId", id), logger.ErrorField(err))
	}
	if song != nil {
		writeJSON(w, http.StatusOK, song.WithQuality(quality))
		return
	}

	raw, err := h.catalog.GetSong(r.Context(), id)
	if err != nil || raw == nil {
		logger.Warn("歌曲详情获取失败", logger.String("songId", id), logger.ErrorField(err))
		writeError(w, http.StatusNotFound, "Song not found")
		return
	}
	slim := provider.SlimSong(raw, model.QualityMedium)
	if slim.ID == "" {
		writeError(w, http.StatusNotFound, "Song not found")
		return
	}
	h.songs.CacheIfPlayable(r.Context(), slim)
	writeJSON(w, http.StatusOK, slim.WithQuality(quality))
}

// GetArtistHandler serves the full artist page: bio, top songs and albums.
// Sub-fetch failures degrade to empty sections.
func (h *APIHandler) GetArtistHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	quality := h.qualityFrom(r)

	var artist model.SlimArtist
	if cached, err := h.songs.GetArtist(r.Context(), id); err == nil && cached != nil {
		artist = *cached
	} else {
		raw, err := h.catalog.GetArtist(r.Context(), id)
		if err != nil || raw == nil {
			logger.Warn("艺术家详情获取失败", logger.String("artistId", id), logger.ErrorField(err))
			writeError(w, http.StatusNotFound, "Artist not found")
			return
		}
		artist = provider.SlimArtist(raw, model.QualityMedium)
		if err := h.songs.PutArtist(r.Context(), artist); err != nil {
			logger.Warn("艺术家缓存写入失败", logger.String("artistId", id), logger.ErrorField(err))
		}
	}

	topSongs := []model.SlimSong{}
	if raw, err := h.catalog.GetArtistSongs(r.Context(), id, 0); err == nil {
		if len(raw) > 10 {
			raw = raw[:10]
		}
		topSongs = provider.SlimSongs(raw, quality)
	} else {
		logger.Debug("艺术家歌曲获取失败", logger.String("artistId", id), logger.ErrorField(err))
	}

	albums := []model.SlimAlbum{}
	if raw, err := h.catalog.GetArtistAlbums(r.Context(), id, 0); err == nil {
		for i := range raw {
			albums = append(albums, provider.SlimAlbum(&raw[i], quality))
		}
	} else {
		logger.Debug("艺术家专辑获取失败", logger.String("artistId", id), logger.ErrorField(err))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"artist":   artist.WithQuality(quality),
		"topSongs": topSongs,
		"albums":   albums,
	})
}

// GetAlbumHandler serves an album with its track list.
func (h *APIHandler) GetAlbumHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	quality := h.qualityFrom(r)

	raw, err := h.catalog.GetAlbum(r.Context(), id)
	if err != nil || raw == nil {
		logger.Warn("专辑详情获取失败", logger.String("albumId", id), logger.ErrorField(err))
		writeError(w, http.StatusNotFound, "Album not found")
		return
	}

	album := provider.SlimAlbum(raw, quality)
	if err := h.songs.PutAlbum(r.Context(), provider.SlimAlbum(raw, model.QualityMedium)); err != nil {
		logger.Warn("专辑缓存写入失败", logger.String("albumId", id), logger.ErrorField(err))
	}
	songs := provider.SlimSongs(raw.Songs, quality)
	if songs == nil {
		songs = []model.SlimSong{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"album": album,
		"songs": songs,
	})
}
