package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RenderStatus is the last known state of a storyboard's render.
type RenderStatus struct {
	StoryboardID string    `json:"storyboardId"`
	State        string    `json:"state"` // rendering, succeeded, failed
	VideoURL     string    `json:"videoUrl,omitempty"`
	Error        string    `json:"error,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Render states
const (
	RenderStateRendering = "rendering"
	RenderStateSucceeded = "succeeded"
	RenderStateFailed    = "failed"
)

// releaseScript deletes the lock only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClient wraps the Redis client for render coordination
type RedisClient struct {
	client    *redis.Client
	logger    *zap.Logger
	lockTTL   time.Duration
	statusTTL time.Duration
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, db int, lockTTL time.Duration, logger *zap.Logger) (*RedisClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("redis connected", zap.String("addr", addr))
	return &RedisClient{
		client:    client,
		logger:    logger,
		lockTTL:   lockTTL,
		statusTTL: 24 * time.Hour,
	}, nil
}

func renderLockKey(storyboardID string) string {
	return "storyboard:" + storyboardID + ":render:lock"
}

func renderStatusKey(storyboardID string) string {
	return "storyboard:" + storyboardID + ":render:status"
}

// TryLock takes the render lock for a storyboard. The lock expires after the
// configured TTL so a crashed replica cannot hold it forever.
func (r *RedisClient) TryLock(ctx context.Context, storyboardID string) (func(), bool, error) {
	key := renderLockKey(storyboardID)
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
			r.logger.Warn("failed to release render lock", zap.String("storyboard", storyboardID), zap.Error(err))
		}
	}
	return release, true, nil
}

// SetRenderStatus records the render state of a storyboard
func (r *RedisClient) SetRenderStatus(ctx context.Context, s *RenderStatus) error {
	s.UpdatedAt = time.Now()

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, renderStatusKey(s.StoryboardID), data, r.statusTTL).Err(); err != nil {
		r.logger.Warn("failed to store render status", zap.String("storyboard", s.StoryboardID), zap.Error(err))
		return err
	}
	return nil
}

// GetRenderStatus returns the recorded render state, or nil when none exists
func (r *RedisClient) GetRenderStatus(ctx context.Context, storyboardID string) (*RenderStatus, error) {
	data, err := r.client.Get(ctx, renderStatusKey(storyboardID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s RenderStatus
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Health checks if Redis is healthy
func (r *RedisClient) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
