package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"GuessFM/cache"
	"GuessFM/catalog"
	"GuessFM/config"
	"GuessFM/core/audio"
	"GuessFM/core/game"
	"GuessFM/logger"
	"GuessFM/storage"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogOutputPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Redis为可选依赖，仅用于片段字节缓存
	if cfg.RedisEnabled {
		if err := cache.ConnectRedis(cfg); err != nil {
			logger.Warn("Redis连接失败，片段缓存已禁用", logger.ErrorField(err))
		} else {
			defer cache.CloseRedis()
			logger.Info("Redis连接成功，片段缓存已启用")
		}
	}

	// 配置了MinIO时，先把音乐桶同步到本地缓存目录再扫描
	scanRoot := cfg.RootDirectory
	if cfg.MinioEndpoint != "" {
		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to initialize MinIO: %v", err)
		}

		syncCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		if err := storage.SyncBucketToDir(syncCtx, cfg, cfg.MusicCacheDir); err != nil {
			cancel()
			log.Fatalf("Failed to sync music bucket: %v", err)
		}
		cancel()
		scanRoot = cfg.MusicCacheDir
	}

	// 启动时扫描一次音乐目录，此后目录只读
	cat, err := catalog.Scan(scanRoot)
	if err != nil {
		log.Fatalf("Failed to scan music directory: %v", err)
	}
	if cat.Len() == 0 {
		log.Fatalf("No audio files found under %s", scanRoot)
	}

	codec := audio.NewFFmpegCodec(cfg.FFmpegPath)
	musicCache := game.NewMusicCache(codec)
	registry := game.NewSessionRegistry()

	apiHandler := NewAPIHandler(cat, musicCache, registry, codec, cfg)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 游戏相关的API端点
	router.HandleFunc("/api/login", apiHandler.LoginHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/logout", apiHandler.LogoutHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/music", apiHandler.FullMusicHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/test-music", apiHandler.TestMusicHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/answer", apiHandler.AnswerHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/guess", apiHandler.GuessHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/next", apiHandler.NextHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/summarize", apiHandler.SummarizeHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/candidates", apiHandler.CandidatesHandler).Methods(http.MethodGet)

	// 实时进度推送
	router.HandleFunc("/api/live", apiHandler.LiveHandler).Methods(http.MethodGet)

	// Frontend UI serving
	uiFileServer := http.FileServer(http.Dir(cfg.WebAppDir))
	router.PathPrefix("/").Handler(uiFileServer)

	server.Handler = router

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		logger.Info("GuessFM服务器启动",
			logger.String("addr", cfg.ServerAddr),
			logger.Int("trackCount", cat.Len()),
			logger.Duration("segmentLength", cfg.SegmentLength))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待中断信号
	<-stop
	logger.Info("服务器关闭中...")

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("服务器已停止")
}
