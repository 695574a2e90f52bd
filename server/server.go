package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"EchoFM/activity"
	"EchoFM/cache"
	"EchoFM/config"
	"EchoFM/core/auth"
	"EchoFM/db"
	"EchoFM/logger"
	"EchoFM/provider"
	"EchoFM/recommender"
	"EchoFM/repository"
	"EchoFM/search"
	"EchoFM/store"
	"EchoFM/trending"
)

// Start initializes the collaborators and runs the HTTP server until
// interrupted.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
	defer logger.Sync()

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("数据库连接失败", logger.ErrorField(err))
	}
	defer db.CloseDB()
	if err := db.InitDB(); err != nil {
		logger.Fatal("数据库初始化失败", logger.ErrorField(err))
	}

	// Connect to the key-value store
	kv, err := store.NewRedisStore(cfg)
	if err != nil {
		logger.Fatal("Redis连接失败", logger.ErrorField(err))
	}
	defer kv.Close()

	// Catalog provider client
	catalog := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderTimeout)

	// Caches and index
	songs := cache.NewEntityCache(kv)
	generic := cache.NewGenericCache(kv)
	prefix := cache.NewPrefixIndex(kv, songs)
	queries := cache.NewQueryCache(kv, songs, prefix)

	// Domain services
	act := activity.NewRepository(kv)
	trend := trending.NewAggregator(act, generic, songs, catalog, cfg.TrendingInterval)
	engine := recommender.NewEngine(act, songs, generic, catalog, trend)
	preindexer := recommender.NewPreindexer(catalog, songs, prefix, cfg.PreindexWorkers, cfg.PreindexQueue)
	searchSvc := search.NewService(catalog, queries, generic, prefix)

	userRepo := repository.NewMySQLUserRepository(db.DB)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	trend.Start()
	defer trend.Stop()
	preindexer.Start()
	defer preindexer.Stop()

	apiHandler := NewAPIHandler(userRepo, tokens, searchSvc, songs, catalog, act, engine, trend, preindexer, cfg)

	router := mux.NewRouter()

	// CORS中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, x-quality")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 健康检查与认证
	router.HandleFunc("/api/health", apiHandler.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// 搜索
	router.HandleFunc("/api/search/songs", apiHandler.OptionalAuthMiddleware(apiHandler.SearchSongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/search/all", apiHandler.SearchAllHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/suggestions", apiHandler.SuggestionsHandler).Methods(http.MethodGet)

	// 目录
	router.HandleFunc("/api/songs/{id}", apiHandler.GetSongHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artists/{id}", apiHandler.GetArtistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/albums/{id}", apiHandler.GetAlbumHandler).Methods(http.MethodGet)

	// 发现
	router.HandleFunc("/api/trending", apiHandler.TrendingHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/home", apiHandler.OptionalAuthMiddleware(apiHandler.HomeFeedHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/recommendations", apiHandler.AuthMiddleware(apiHandler.RecommendationsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/queue", apiHandler.AuthMiddleware(apiHandler.SmartQueueHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/daily-mix", apiHandler.AuthMiddleware(apiHandler.DailyMixHandler)).Methods(http.MethodGet)

	// 行为与画像
	router.HandleFunc("/api/events", apiHandler.AuthMiddleware(apiHandler.EventHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/onboarding/languages", apiHandler.AuthMiddleware(apiHandler.OnboardingLanguagesHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/artists/follow", apiHandler.AuthMiddleware(apiHandler.FollowArtistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/me/following", apiHandler.AuthMiddleware(apiHandler.FollowedArtistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/me/recently-played", apiHandler.AuthMiddleware(apiHandler.RecentlyPlayedHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/me/likes", apiHandler.AuthMiddleware(apiHandler.LikedSongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/me/profile", apiHandler.AuthMiddleware(apiHandler.ProfileHandler)).Methods(http.MethodGet)

	// 歌单
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.UserPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}", apiHandler.AuthMiddleware(apiHandler.GetPlaylistHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}/songs", apiHandler.AuthMiddleware(apiHandler.AddPlaylistSongHandler)).Methods(http.MethodPost)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("HTTP服务启动", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP服务启动失败", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("收到停止信号，开始优雅关闭")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("服务关闭超时", logger.ErrorField(err))
	}
	logger.Info("服务已停止")
}
