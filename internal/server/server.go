package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storyboard-backend/internal/auth"
	"storyboard-backend/internal/cache"
	"storyboard-backend/internal/config"
	"storyboard-backend/internal/editor"
	"storyboard-backend/internal/export"
	"storyboard-backend/internal/handler"
	"storyboard-backend/internal/library"
	"storyboard-backend/internal/model"
	"storyboard-backend/internal/render"
	"storyboard-backend/internal/service"
	"storyboard-backend/internal/storage"
)

// Server Fiber 서버 래퍼
type Server struct {
	app               *fiber.App
	cfg               *config.Config
	logger            *zap.Logger
	hub               *editor.Hub
	jwtManager        *auth.JWTManager
	storyboardHandler *handler.StoryboardHandler
	exportHandler     *handler.ExportHandler
	assetHandler      *handler.AssetHandler
	editorWSHandler   *handler.EditorWSHandler
	healthHandler     *handler.HealthHandler
}

// Options 선택적 외부 의존성. nil 이면 해당 기능은 로컬 대체 또는 비활성화
type Options struct {
	DB       *gorm.DB
	Redis    *cache.RedisClient
	Renderer render.Renderer
	Ingestor storage.Ingestor
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, opts Options, zl *zap.Logger) (*Server, error) {
	if zl == nil {
		zl = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "Storyboard Editor API",
		ServerHeader:          "Fiber",
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		Prefork:               false, // WebSocket과 호환성 문제로 비활성화
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,
		BodyLimit:             cfg.Server.BodyLimit,
		DisableStartupMessage: true,
	})

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.SessionExpiry)
	hub := editor.NewHub(zl.Named("editor"))

	// 에셋 라이브러리 시드
	var seed []model.Asset
	switch {
	case cfg.Library.SeedFile != "":
		assets, err := library.LoadSeedFile(cfg.Library.SeedFile)
		if err != nil {
			return nil, err
		}
		seed = assets
		zl.Info("asset library seeded from file", zap.String("file", cfg.Library.SeedFile), zap.Int("assets", len(assets)))
	case cfg.Library.SeedSamples:
		seed = library.Samples()
	}
	lib := library.New(seed)

	// 업로드 저장소
	ingestor := opts.Ingestor
	var local *storage.LocalStore
	if ingestor == nil {
		var err error
		ingestor, local, err = NewIngestor(context.Background(), cfg, zl.Named("storage"))
		if err != nil {
			return nil, err
		}
	} else if ls, ok := ingestor.(*storage.LocalStore); ok {
		local = ls
	}

	// 렌더 게이트: Redis 가 있으면 분산 잠금, 없으면 프로세스 내 잠금
	renderer := opts.Renderer
	if renderer == nil {
		renderer = NewRenderer(cfg.Renderer, zl.Named("renderer"))
	}
	var (
		locker render.Locker
		status interface {
			render.StatusRecorder
			handler.RenderStatusReader
		}
		pinger handler.Pinger
	)
	if opts.Redis != nil {
		locker, status, pinger = opts.Redis, opts.Redis, opts.Redis
	} else {
		locker, status = render.NewLocalLocker(), render.NewMemoryStatus()
	}
	renders := render.NewService(renderer, locker, status, zl.Named("render"))

	var archive *service.ExportArchive
	if opts.DB != nil {
		archive = service.NewExportArchive(opts.DB)
	}

	editorWSHandler := handler.NewEditorWSHandler(hub, zl.Named("ws"))

	return &Server{
		app:               app,
		cfg:               cfg,
		logger:            zl,
		hub:               hub,
		jwtManager:        jwtManager,
		storyboardHandler: handler.NewStoryboardHandler(hub, lib, jwtManager, editorWSHandler, zl.Named("storyboard")),
		exportHandler:     handler.NewExportHandler(hub, export.NewExporter(), archive, renders, status, zl.Named("export")),
		assetHandler:      handler.NewAssetHandler(lib, ingestor, local, zl.Named("assets")),
		editorWSHandler:   editorWSHandler,
		healthHandler:     handler.NewHealthHandler(opts.DB, pinger, hub),
	}, nil
}

// NewIngestor 설정에 맞는 업로드 저장소 생성. 디스크 저장소면 local 도 반환
func NewIngestor(ctx context.Context, cfg *config.Config, zl *zap.Logger) (storage.Ingestor, *storage.LocalStore, error) {
	if zl == nil {
		zl = zap.NewNop()
	}
	switch cfg.Storage.Driver {
	case "s3":
		s3Store, err := storage.NewS3Store(ctx, cfg.S3, cfg.Storage.ThumbnailSize, zl)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		zl.Info("s3 storage initialized", zap.String("bucket", cfg.S3.BucketName))
		return s3Store, nil, nil
	case "local", "":
		local, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.PublicPrefix, cfg.Storage.ThumbnailSize, zl)
		if err != nil {
			return nil, nil, err
		}
		zl.Info("local storage initialized", zap.String("dir", cfg.Storage.UploadDir))
		return local, local, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// NewRenderer 설정에 맞는 렌더러 생성
func NewRenderer(cfg config.RendererConfig, zl *zap.Logger) render.Renderer {
	if cfg.Mode == "http" {
		return &render.HTTPRenderer{Endpoint: cfg.Endpoint, Timeout: cfg.Timeout}
	}
	return &render.ProcessRenderer{
		Python:   cfg.PythonBin,
		Script:   cfg.Script,
		WorkDir:  cfg.WorkDir,
		Output:   cfg.OutputFile,
		VideoURL: cfg.VideoURL,
		Timeout:  cfg.Timeout,
		Logger:   zl,
	}
}

// App 내부 Fiber 앱 (테스트용)
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub 편집 세션 허브
func (s *Server) Hub() *editor.Hub {
	return s.hub
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORS.AllowOrigins,
		AllowHeaders: s.cfg.CORS.AllowHeaders,
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// Rate Limiter 설정 (세션 생성/업로드용)
	createLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() // IP 기반 제한
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	api := s.app.Group("/api")

	// 에셋 라이브러리
	api.Get("/assets", s.assetHandler.List)
	api.Post("/assets", createLimiter, s.assetHandler.Upload)
	api.Delete("/assets/:id", s.assetHandler.Delete)
	api.Get("/images/thumbs/:filename", s.assetHandler.Thumbnail)
	api.Get("/images/:filename", s.assetHandler.Image)

	// 렌더 결과 영상 (프로세스 렌더러 출력)
	if s.cfg.Renderer.Mode != "http" && s.cfg.Renderer.VideoURL != "" {
		s.app.Get(s.cfg.Renderer.VideoURL, func(c *fiber.Ctx) error {
			return c.SendFile(s.cfg.Renderer.OutputFile)
		})
	}

	// 스토리보드 세션
	api.Post("/storyboards", createLimiter, s.storyboardHandler.Create)

	sb := api.Group("/storyboards/:id", auth.SessionMiddleware(s.jwtManager, "id"))
	sb.Get("", s.storyboardHandler.Get)
	sb.Delete("", s.storyboardHandler.Close)

	// 스테이지
	sb.Post("/stages", s.storyboardHandler.AddStage)
	sb.Post("/stages/duplicate", s.storyboardHandler.DuplicateStage)
	sb.Delete("/stages/:stageId", s.storyboardHandler.DeleteStage)
	sb.Put("/stages/:stageId/activate", s.storyboardHandler.ActivateStage)
	sb.Put("/stages/:stageId/position", s.storyboardHandler.MoveStage)
	sb.Put("/stages/:stageId", s.storyboardHandler.RenameStage)

	// 배치
	sb.Post("/placements", s.storyboardHandler.Place)
	sb.Patch("/stages/:stageId/placements/:placedId", s.storyboardHandler.PatchPlacement)
	sb.Delete("/stages/:stageId/placements/:placedId", s.storyboardHandler.RemovePlacement)

	// 선택
	sb.Put("/selection", s.storyboardHandler.Select)
	sb.Delete("/selection", s.storyboardHandler.ClearSelection)
	sb.Delete("/selection/placement", s.storyboardHandler.DeleteSelected)
	sb.Post("/selection/rotate", s.storyboardHandler.Rotate)
	sb.Put("/selection/animation", s.storyboardHandler.SetAnimation)
	sb.Post("/selection/front", s.storyboardHandler.BringToFront)

	// 제스처
	sb.Post("/gestures/drag", s.storyboardHandler.BeginDrag)
	sb.Post("/gestures/resize", s.storyboardHandler.BeginResize)
	sb.Post("/gestures/move", s.storyboardHandler.Move)
	sb.Delete("/gestures", s.storyboardHandler.EndGesture)

	// 내보내기/렌더
	sb.Get("/export", s.exportHandler.Export)
	sb.Get("/exports", s.exportHandler.ListExports)
	sb.Get("/exports/:exportId", s.exportHandler.GetExport)
	sb.Post("/render", s.exportHandler.Render)
	sb.Get("/render", s.exportHandler.RenderStatus)

	// WebSocket 업그레이드 체크 미들웨어
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket 스토리보드 변경 구독 (token 쿼리로 인증)
	s.app.Get("/ws/storyboards/:id",
		auth.SessionMiddleware(s.jwtManager, "id"),
		websocket.New(s.editorWSHandler.HandleWebSocket, websocket.Config{
			ReadBufferSize:  s.cfg.Editor.WSBufferSize,
			WriteBufferSize: s.cfg.Editor.WSBufferSize,
		}))
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 유휴 편집 세션 정리
	go s.hub.RunJanitor(ctx, s.cfg.Editor.JanitorEvery, s.cfg.Editor.MaxIdle)

	// Graceful Shutdown 설정
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		s.logger.Info("shutting down server")
		cancel()
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			s.logger.Error("server shutdown error", zap.Error(err))
		}
	}()

	s.logger.Info("storyboard editor API starting",
		zap.String("addr", s.cfg.Server.Port),
		zap.String("storage", s.cfg.Storage.Driver),
		zap.String("renderer", s.cfg.Renderer.Mode))

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
