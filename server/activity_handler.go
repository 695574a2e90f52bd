package server

import (
	"encoding/json"
	"net/http"

	"EchoFM/logger"
	"EchoFM/model"
)

// EventRequest represents a client-reported interaction.
type EventRequest struct {
	Type   string `json:"type"` // play / like / unlike / click
	SongID string `json:"songId"`
}

// EventHandler records interaction events. Play events additionally enqueue
// the song for background preindexing.
func (h *APIHandler) EventHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SongID == "" {
		writeError(w, http.StatusBadRequest, "songId is required")
		return
	}

	switch req.Type {
	case "play":
		err = h.activity.RecordPlay(r.Context(), userID, req.SongID)
		if err == nil {
			h.preindexer.Enqueue(req.SongID)
		}
	case "like":
		err = h.activity.RecordLike(r.Context(), userID, req.SongID)
	case "unlike":
		err = h.activity.Unlike(r.Context(), userID, req.SongID)
	case "click":
		err = h.activity.RecordClick(r.Context(), req.SongID)
	default:
		writeError(w, http.StatusBadRequest, "Unknown event type")
		return
	}
	if err != nil {
		logger.Error("记录事件失败",
			logger.String("userId", userID),
			logger.String("type", req.Type),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to record event")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// OnboardingLanguagesHandler stores the language selection; an empty
// selection is rejected so onboarding cannot complete vacuously.
func (h *APIHandler) OnboardingLanguagesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Languages []string `json:"languages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.activity.SetLanguages(r.Context(), userID, req.Languages); err != nil {
		writeError(w, http.StatusBadRequest, "At least one language is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// FollowArtistHandler records an artist follow.
func (h *APIHandler) FollowArtistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		ArtistID string `json:"artistId"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ArtistID == "" {
		writeError(w, http.StatusBadRequest, "artistId is required")
		return
	}

	if err := h.activity.FollowArtist(r.Context(), userID, req.ArtistID, req.Name); err != nil {
		logger.Error("记录关注失败", logger.String("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to follow artist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "followed"})
}

// FollowedArtistsHandler lists the user's followed artists.
func (h *APIHandler) FollowedArtistsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	followed, err := h.activity.FollowedArtists(r.Context(), userID)
	if err != nil {
		logger.Error("读取关注失败", logger.String("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load followed artists")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"artists": followed})
}

// RecentlyPlayedHandler lists recently played songs, rehydrated through the
// entity cache; songs that fell out of the cache are dropped silently.
func (h *APIHandler) RecentlyPlayedHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	limit := intParam(r, "limit", 20, 50)
	quality := h.qualityFrom(r)

	ids, err := h.activity.RecentlyPlayed(r.Context(), userID, limit)
	if err != nil {
		logger.Error("读取播放历史失败", logger.String("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load play history")
		return
	}

	songs := make([]model.SlimSong, 0, len(ids))
	for _, id := range ids {
		song, err := h.songs.PeekSong(r.Context(), id)
		if err != nil || song == nil {
			continue
		}
		songs = append(songs, song.WithQuality(quality))
	}
	writeJSON(w, http.StatusOK, map[string]any{"songs": songs})
}

// LikedSongsHandler lists liked songs rehydrated through the entity cache.
func (h *APIHandler) LikedSongsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	quality := h.qualityFrom(r)

	liked, err := h.activity.LikedSongs(r.Context(), userID)
	if err != nil {
		logger.Error("读取喜欢列表失败", logger.String("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load liked songs")
		return
	}

	songs := make([]model.SlimSong, 0, len(liked))
	for id := range liked {
		song, err := h.songs.PeekSong(r.Context(), id)
		if err != nil || song == nil {
			continue
		}
		songs = append(songs, song.WithQuality(quality))
	}
	writeJSON(w, http.StatusOK, map[string]any{"songs": songs})
}

// ProfileHandler returns the user's profile node, creating it lazily.
func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.activity.GetOrCreateProfile(r.Context(), userID, model.Profile{})
	if err != nil {
		logger.Error("读取画像失败", logger.String("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
