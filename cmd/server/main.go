package main

import (
	"log"

	"go.uber.org/zap"

	"storyboard-backend/internal/cache"
	"storyboard-backend/internal/config"
	"storyboard-backend/internal/database"
	"storyboard-backend/internal/logging"
	"storyboard-backend/internal/server"
)

func main() {
	// 설정 로드
	cfg := config.Load()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}
	defer logger.Sync()

	opts := server.Options{}

	// 데이터베이스 연결 (선택적, 내보내기 보관용)
	if cfg.Database.Enabled() {
		db, err := database.ConnectDB(cfg.Database, logger)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer database.Close()

		if err := database.Ping(); err != nil {
			logger.Fatal("database ping failed", zap.Error(err))
		}
		logger.Info("database connected", zap.String("host", cfg.Database.Host))
		opts.DB = db
	} else {
		logger.Info("database not configured, export archive disabled")
	}

	// Redis 연결 (선택적, 렌더 잠금 공유)
	if cfg.Redis.Enabled() {
		rc, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Renderer.LockTTL, logger.Named("redis"))
		if err != nil {
			logger.Warn("redis connection failed, using in-process render lock", zap.Error(err))
		} else {
			defer rc.Close()
			opts.Redis = rc
		}
	}

	// 서버 생성 및 설정
	srv, err := server.New(cfg, opts, logger)
	if err != nil {
		logger.Fatal("server initialization failed", zap.Error(err))
	}
	srv.SetupMiddleware()
	srv.SetupRoutes()

	// 서버 시작
	if err := srv.Start(); err != nil {
		logger.Fatal("server failed to start", zap.Error(err))
	}
}
