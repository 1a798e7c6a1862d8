package render

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"storyboard-backend/internal/cache"
	"storyboard-backend/internal/export"
)

// Locker grants at most one holder per storyboard.
type Locker interface {
	TryLock(ctx context.Context, storyboardID string) (release func(), ok bool, err error)
}

// StatusRecorder keeps the last render state per storyboard.
type StatusRecorder interface {
	SetRenderStatus(ctx context.Context, s *cache.RenderStatus) error
}

// LocalLocker is an in-process Locker.
type LocalLocker struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{active: make(map[string]struct{})}
}

func (l *LocalLocker) TryLock(_ context.Context, storyboardID string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.active[storyboardID]; busy {
		return nil, false, nil
	}
	l.active[storyboardID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, storyboardID)
			l.mu.Unlock()
		})
	}, true, nil
}

// Service triggers renders, one in flight per storyboard. A second request
// while one is running is rejected, never queued or retried.
type Service struct {
	renderer Renderer
	locker   Locker
	status   StatusRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a renderer with a lock. status may be nil.
func NewService(renderer Renderer, locker Locker, status StatusRecorder, logger *zap.Logger) *Service {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		renderer: renderer,
		locker:   locker,
		status:   status,
		logger:   logger,
		now:      time.Now,
	}
}

// Trigger renders doc for storyboardID. doc must already be a snapshot copy.
func (s *Service) Trigger(ctx context.Context, storyboardID string, doc *export.Document) (*Result, error) {
	release, ok, err := s.locker.TryLock(ctx, storyboardID)
	if err != nil {
		return nil, failure(fmt.Errorf("failed to acquire render lock: %w", err), "")
	}
	if !ok {
		return nil, ErrRenderInProgress
	}
	defer release()

	s.record(ctx, &cache.RenderStatus{StoryboardID: storyboardID, State: cache.RenderStateRendering})
	s.logger.Info("render started",
		zap.String("storyboard", storyboardID),
		zap.Int("stages", len(doc.Stages)),
		zap.Int("assets", doc.AssetCount()))

	res, err := s.renderer.Render(ctx, doc)
	if err != nil {
		rerr := failure(err, "")
		s.record(ctx, &cache.RenderStatus{StoryboardID: storyboardID, State: cache.RenderStateFailed, Error: rerr.Message})
		s.logger.Error("render failed", zap.String("storyboard", storyboardID), zap.Error(rerr))
		return nil, rerr
	}

	out := &Result{
		VideoURL: cacheBust(res.VideoURL, s.now()),
		Logs:     res.Logs,
	}
	s.record(ctx, &cache.RenderStatus{StoryboardID: storyboardID, State: cache.RenderStateSucceeded, VideoURL: out.VideoURL})
	s.logger.Info("render finished", zap.String("storyboard", storyboardID), zap.String("video", out.VideoURL))
	return out, nil
}

// cacheBust sets t=<unix ms> on the video URL, keeping any existing query.
func cacheBust(raw string, at time.Time) string {
	ms := strconv.FormatInt(at.UnixMilli(), 10)
	u, err := url.Parse(raw)
	if err != nil {
		sep := "?"
		if strings.Contains(raw, "?") {
			sep = "&"
		}
		return raw + sep + "t=" + ms
	}
	q := u.Query()
	q.Set("t", ms)
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Service) record(ctx context.Context, st *cache.RenderStatus) {
	if s.status == nil {
		return
	}
	if err := s.status.SetRenderStatus(ctx, st); err != nil {
		s.logger.Warn("failed to record render status", zap.String("storyboard", st.StoryboardID), zap.Error(err))
	}
}

// MemoryStatus keeps render status in process memory.
type MemoryStatus struct {
	mu     sync.RWMutex
	states map[string]cache.RenderStatus
	now    func() time.Time
}

// NewMemoryStatus creates an empty MemoryStatus.
func NewMemoryStatus() *MemoryStatus {
	return &MemoryStatus{states: make(map[string]cache.RenderStatus), now: time.Now}
}

func (m *MemoryStatus) SetRenderStatus(_ context.Context, s *cache.RenderStatus) error {
	st := *s
	st.UpdatedAt = m.now()
	m.mu.Lock()
	m.states[s.StoryboardID] = st
	m.mu.Unlock()
	return nil
}

// GetRenderStatus returns nil when nothing was recorded for storyboardID.
func (m *MemoryStatus) GetRenderStatus(_ context.Context, storyboardID string) (*cache.RenderStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[storyboardID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}
