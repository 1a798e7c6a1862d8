package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"storyboard-backend/internal/editor"
)

// Pinger 상태 확인이 가능한 외부 의존성
type Pinger interface {
	Health(ctx context.Context) error
}

// HealthHandler 헬스체크 핸들러
type HealthHandler struct {
	db    *gorm.DB
	redis Pinger
	hub   *editor.Hub
}

// NewHealthHandler HealthHandler 생성. db 와 redis 는 nil 허용
func NewHealthHandler(db *gorm.DB, redis Pinger, hub *editor.Hub) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, hub: hub}
}

// ComponentCheck 컴포넌트 상태
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse 헬스체크 응답
type HealthResponse struct {
	Status    string                    `json:"status"`
	Timestamp string                    `json:"timestamp"`
	Editors   int                       `json:"editors"`
	Checks    map[string]ComponentCheck `json:"checks"`
}

func (h *HealthHandler) checkDB() ComponentCheck {
	if h.db == nil {
		return ComponentCheck{Status: "not_configured"}
	}
	start := time.Now()
	sqlDB, err := h.db.DB()
	if err != nil {
		return ComponentCheck{Status: "unhealthy", Error: "failed to get database connection"}
	}
	if err := sqlDB.Ping(); err != nil {
		return ComponentCheck{Status: "unhealthy", Error: "database ping failed"}
	}
	return ComponentCheck{Status: "healthy", Latency: time.Since(start).String()}
}

func (h *HealthHandler) checkRedis(ctx context.Context) ComponentCheck {
	if h.redis == nil {
		return ComponentCheck{Status: "not_configured"}
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.redis.Health(ctx); err != nil {
		return ComponentCheck{Status: "degraded", Error: "redis unreachable"}
	}
	return ComponentCheck{Status: "healthy", Latency: time.Since(start).String()}
}

// Check 전체 상태 확인 (DB + Redis)
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Checks: map[string]ComponentCheck{
			"database": h.checkDB(),
			"redis":    h.checkRedis(c.UserContext()),
		},
	}
	if h.hub != nil {
		response.Editors = h.hub.Len()
	}

	// Redis 장애는 degraded
	if response.Checks["database"].Status == "unhealthy" {
		response.Status = "unhealthy"
	} else if response.Checks["redis"].Status == "degraded" {
		response.Status = "degraded"
	}

	statusCode := fiber.StatusOK
	if response.Status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(response)
}

// Liveness K8s liveness probe용 (단순 체크)
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Readiness K8s readiness probe용 (DB 연결 체크, 미설정이면 통과)
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	if h.checkDB().Status == "unhealthy" {
		return c.Status(fiber.StatusServiceUnavailable).SendString("NOT READY")
	}
	return c.SendString("READY")
}
