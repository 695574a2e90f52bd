package server

import (
	"net/http"

	"EchoFM/logger"
	"EchoFM/model"
)

// SearchSongsHandler serves song search. Authenticated searches are recorded
// into the user's search history; provider failures degrade to an empty list.
func (h *APIHandler) SearchSongsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}
	limit := intParam(r, "limit", 20, 50)
	language := r.URL.Query().Get("language")

	if userID, err := GetUserIDFromContext(r.Context()); err == nil {
		if err := h.activity.RecordSearch(r.Context(), userID, query); err != nil {
			logger.Warn("记录搜索历史失败", logger.String("userId", userID), logger.ErrorField(err))
		}
	}

	results, err := h.searchSvc.Songs(r.Context(), query, limit, h.qualityFrom(r), language)
	if err != nil {
		logger.Warn("歌曲搜索失败", logger.String("query", query), logger.ErrorField(err))
		results = []model.SlimSong{}
	}
	if results == nil {
		results = []model.SlimSong{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// SearchAllHandler serves the cross-type search passthrough.
func (h *APIHandler) SearchAllHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	result, err := h.searchSvc.All(r.Context(), query)
	if err != nil {
		logger.Warn("聚合搜索失败", logger.String("query", query), logger.ErrorField(err))
		writeJSON(w, http.StatusOK, map[string]any{"results": map[string]any{}})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"results":`))
	w.Write(result)
	w.Write([]byte(`}`))
}

// SuggestionsHandler serves typeahead completions from the prefix index only.
func (h *APIHandler) SuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}
	limit := intParam(r, "limit", 10, 25)

	results, err := h.searchSvc.Suggest(r.Context(), query, limit)
	if err != nil {
		logger.Warn("前缀补全失败", logger.String("query", query), logger.ErrorField(err))
	}
	if results == nil {
		results = []model.SlimSong{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": results})
}
