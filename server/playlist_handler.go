package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"EchoFM/logger"
	"EchoFM/model"
)

// CreatePlaylistHandler creates an empty playlist for the user.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := h.activity.CreatePlaylist(r.Context(), userID, req.Name)
	if err != nil {
		logger.Error("创建歌单失败", logger.String("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create playlist")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// UserPlaylistsHandler lists the user's playlists.
func (h *APIHandler) UserPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	playlists, err := h.activity.UserPlaylists(r.Context(), userID)
	if err != nil {
		logger.Error("读取歌单列表失败", logger.String("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load playlists")
		return
	}
	if playlists == nil {
		playlists = []model.Playlist{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}

// GetPlaylistHandler serves one playlist with its songs rehydrated.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id := mux.Vars(r)["id"]

	playlist, err := h.activity.Playlist(r.Context(), id)
	if err != nil {
		logger.Error("读取歌单失败", logger.String("playlistId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load playlist")
		return
	}
	if playlist == nil || playlist.Owner != userID {
		writeError(w, http.StatusNotFound, "Playlist not found")
		return
	}

	songs, err := h.activity.PlaylistSongs(r.Context(), id, h.songs)
	if err != nil {
		logger.Warn("歌单歌曲回填失败", logger.String("playlistId", id), logger.ErrorField(err))
		songs = []model.SlimSong{}
	}
	if songs == nil {
		songs = []model.SlimSong{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"playlist": playlist,
		"songs":    songs,
	})
}

// AddPlaylistSongHandler adds a song to a playlist.
func (h *APIHandler) AddPlaylistSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id := mux.Vars(r)["id"]

	var req struct {
		SongID string `json:"songId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SongID == "" {
		writeError(w, http.StatusBadRequest, "songId is required")
		return
	}

	playlist, err := h.activity.Playlist(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load playlist")
		return
	}
	if playlist == nil || playlist.Owner != userID {
		writeError(w, http.StatusNotFound, "Playlist not found")
		return
	}

	if err := h.activity.AddPlaylistSong(r.Context(), id, req.SongID); err != nil {
		logger.Error("歌单加曲失败", logger.String("playlistId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to add song")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}
