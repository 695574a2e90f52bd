package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"EchoFM/activity"
	"EchoFM/cache"
	"EchoFM/config"
	"EchoFM/core/auth"
	"EchoFM/logger"
	"EchoFM/model"
	"EchoFM/provider"
	"EchoFM/recommender"
	"EchoFM/repository"
	"EchoFM/search"
	"EchoFM/trending"
)

// APIHandler holds the collaborators behind the HTTP surface.
type APIHandler struct {
	userRepo   repository.UserRepository
	tokens     *auth.TokenIssuer
	searchSvc  *search.Service
	songs      *cache.EntityCache
	catalog    *provider.Client
	activity   *activity.Repository
	engine     *recommender.Engine
	trending   *trending.Aggregator
	preindexer *recommender.Preindexer
	cfg        *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	userRepo repository.UserRepository,
	tokens *auth.TokenIssuer,
	searchSvc *search.Service,
	songs *cache.EntityCache,
	catalog *provider.Client,
	act *activity.Repository,
	engine *recommender.Engine,
	trend *trending.Aggregator,
	preindexer *recommender.Preindexer,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:   userRepo,
		tokens:     tokens,
		searchSvc:  searchSvc,
		songs:      songs,
		catalog:    catalog,
		activity:   act,
		engine:     engine,
		trending:   trend,
		preindexer: preindexer,
		cfg:        cfg,
	}
}

// writeJSON serializes the payload with the standard response envelope.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("响应序列化失败", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// qualityFrom reads the requested quality tier from the x-quality header,
// falling back to the configured default.
func (h *APIHandler) qualityFrom(r *http.Request) model.Quality {
	if v := r.Header.Get("x-quality"); v != "" {
		return model.ParseQuality(v)
	}
	return model.ParseQuality(h.cfg.DefaultQuality)
}

// intParam reads a positive integer query parameter with a default and cap.
func intParam(r *http.Request, name string, def, max int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
