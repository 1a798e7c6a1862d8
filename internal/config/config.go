package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 애플리케이션 전체 설정
type Config struct {
	Server   ServerConfig
	CORS     CORSConfig
	Auth     AuthConfig
	Editor   EditorConfig
	Library  LibraryConfig
	Storage  StorageConfig
	S3       S3Config
	Renderer RendererConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Log      LogConfig
}

// ServerConfig HTTP 서버 설정
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	BodyLimit    int
}

// CORSConfig CORS 설정
type CORSConfig struct {
	AllowOrigins string
	AllowHeaders string
}

// AuthConfig 편집 세션 토큰 설정
type AuthConfig struct {
	JWTSecret     string
	SessionExpiry time.Duration
}

// EditorConfig 편집기 세션 수명 설정
type EditorConfig struct {
	MaxIdle      time.Duration
	JanitorEvery time.Duration
	WSBufferSize int
}

// LibraryConfig 에셋 라이브러리 시드 설정
type LibraryConfig struct {
	SeedFile    string
	SeedSamples bool
}

// StorageConfig 업로드 저장소 설정
type StorageConfig struct {
	Driver        string // local, s3
	UploadDir     string
	PublicPrefix  string
	ThumbnailSize int
}

// S3Config AWS S3 설정
type S3Config struct {
	Region          string
	BucketName      string
	AccessKeyID     string
	SecretAccessKey string
	PresignExpiry   time.Duration
}

// RendererConfig 외부 렌더러 설정
type RendererConfig struct {
	Mode       string // process, http
	PythonBin  string
	Script     string
	WorkDir    string
	OutputFile string
	VideoURL   string
	Endpoint   string
	Timeout    time.Duration
	LockTTL    time.Duration
}

// RedisConfig Redis 설정
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether Redis was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// DatabaseConfig 내보내기 보관용 데이터베이스 설정
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

// Enabled reports whether an archive database was configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// LogConfig 로깅 설정
type LogConfig struct {
	Level       string
	Development bool
}

// Load 환경 변수에서 설정 로드
func Load() *Config {
	// .env 파일 로드 (없어도 에러 무시)
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using environment variables")
	}

	// 필수 환경 변수 검증
	jwtSecret := getRequiredEnv("JWT_SECRET")
	if jwtSecret == "change-this-secret-in-production" {
		log.Fatal("🚨 CRITICAL: JWT_SECRET must be changed from default value in production!")
	}

	cfg := FromEnv()
	cfg.Auth.JWTSecret = jwtSecret
	return cfg
}

// FromEnv 환경 변수만으로 설정 구성 (필수 값 검증 없음)
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Minute),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
			BodyLimit:    getInt("BODY_LIMIT", 20*1024*1024),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
			AllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin, Content-Type, Accept, Authorization"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			SessionExpiry: getDuration("SESSION_EXPIRY", 24*time.Hour),
		},
		Editor: EditorConfig{
			MaxIdle:      getDuration("EDITOR_MAX_IDLE", 6*time.Hour),
			JanitorEvery: getDuration("EDITOR_JANITOR_INTERVAL", 10*time.Minute),
			WSBufferSize: getInt("WS_BUFFER_SIZE", 4096),
		},
		Library: LibraryConfig{
			SeedFile:    getEnv("LIBRARY_SEED_FILE", ""),
			SeedSamples: getBool("LIBRARY_SEED_SAMPLES", true),
		},
		Storage: StorageConfig{
			Driver:        getEnv("STORAGE_DRIVER", "local"),
			UploadDir:     getEnv("UPLOAD_DIR", "./local_assets"),
			PublicPrefix:  getEnv("UPLOAD_PUBLIC_PREFIX", "/api/images/"),
			ThumbnailSize: getInt("THUMBNAIL_SIZE", 100),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			BucketName:      getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			PresignExpiry:   getDuration("S3_PRESIGN_EXPIRY", 7*24*time.Hour),
		},
		Renderer: RendererConfig{
			Mode:       getEnv("RENDERER_MODE", "process"),
			PythonBin:  getEnv("RENDERER_PYTHON", "renderer/venv/bin/python3"),
			Script:     getEnv("RENDERER_SCRIPT", "renderer/render.py"),
			WorkDir:    getEnv("RENDERER_WORKDIR", os.TempDir()),
			OutputFile: getEnv("RENDERER_OUTPUT", "public/rendered_video.mp4"),
			VideoURL:   getEnv("RENDERER_VIDEO_URL", "/rendered_video.mp4"),
			Endpoint:   getEnv("RENDERER_ENDPOINT", ""),
			Timeout:    getDuration("RENDERER_TIMEOUT", 10*time.Minute),
			LockTTL:    getDuration("RENDERER_LOCK_TTL", 15*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getBool("LOG_DEVELOPMENT", false),
		},
	}
}

// getRequiredEnv 필수 환경 변수 조회 (없으면 Fatal)
func getRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("🚨 CRITICAL: Required environment variable %s is not set!", key)
	}
	return value
}

// getEnv 환경 변수 조회 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt 정수형 환경 변수 조회
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getBool 불리언 환경 변수 조회
func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getDuration 시간 환경 변수 조회
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// 숫자만 있으면 초로 간주
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
