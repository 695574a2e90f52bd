package server

import (
	"net/http"

	"EchoFM/logger"
	"EchoFM/model"
)

// TrendingHandler serves the global trending chart.
func (h *APIHandler) TrendingHandler(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 20, 50)
	entries, err := h.trending.GetTrending(r.Context(), limit)
	if err != nil {
		logger.Warn("趋势榜读取失败", logger.ErrorField(err))
		entries = []model.ScoredSong{}
	}
	if entries == nil {
		entries = []model.ScoredSong{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"trending": entries})
}

// RecommendationsHandler serves the personalized bundle for the
// authenticated user.
func (h *APIHandler) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	limit := intParam(r, "limit", 20, 50)
	force := r.URL.Query().Get("refresh") == "true"

	recs, err := h.engine.GetRecommendations(r.Context(), userID, limit, force)
	if err != nil {
		logger.Error("推荐生成失败", logger.String("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to build recommendations")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// SmartQueueHandler serves the continuation queue seeded by the current song.
func (h *APIHandler) SmartQueueHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	seed := r.URL.Query().Get("songId")
	if seed == "" {
		writeError(w, http.StatusBadRequest, "Query parameter 'songId' is required")
		return
	}
	size := intParam(r, "size", 10, 30)

	queue, err := h.engine.BuildSmartQueue(r.Context(), userID, seed, size)
	if err != nil {
		logger.Warn("智能队列构建失败", logger.String("userId", userID), logger.ErrorField(err))
		queue = []model.SlimSong{}
	}
	if queue == nil {
		queue = []model.SlimSong{}
	}
	if quality := h.qualityFrom(r); quality != model.QualityMedium {
		for i := range queue {
			queue[i] = queue[i].WithQuality(quality)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"queue": queue})
}

// DailyMixHandler serves the daily playlist.
func (h *APIHandler) DailyMixHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	mix, err := h.engine.BuildDailyMix(r.Context(), userID)
	if err != nil {
		logger.Warn("每日歌单构建失败", logger.String("userId", userID), logger.ErrorField(err))
		mix = []model.SlimSong{}
	}
	if mix == nil {
		mix = []model.SlimSong{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"mix": mix})
}

// HomeFeedHandler 首页信息流：游客回退到趋势榜，登录用户返回个性化组合
func (h *APIHandler) HomeFeedHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		entries, err := h.trending.GetTrending(r.Context(), 20)
		if err != nil {
			logger.Warn("游客首页趋势读取失败", logger.ErrorField(err))
			entries = []model.ScoredSong{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"personalized": false,
			"trending":     entries,
		})
		return
	}

	recs, err := h.engine.GetRecommendations(r.Context(), userID, 20, false)
	if err != nil {
		logger.Error("首页推荐生成失败", logger.String("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to build home feed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"personalized": true,
		"feed":         recs,
	})
}
