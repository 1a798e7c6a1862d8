package editor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub keeps the live editors of the process, keyed by storyboard id.
type Hub struct {
	editors map[string]*Editor
	mu      sync.RWMutex
	opts    []Option
	logger  *zap.Logger
}

// NewHub creates an empty hub. opts are applied to every editor it creates.
func NewHub(logger *zap.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		editors: make(map[string]*Editor),
		opts:    opts,
		logger:  logger,
	}
}

// Create starts a new editor session.
func (h *Hub) Create() *Editor {
	e := New(h.opts...)
	id := e.ID()

	h.mu.Lock()
	h.editors[id] = e
	total := len(h.editors)
	h.mu.Unlock()

	h.logger.Info("editor created", zap.String("storyboard", id), zap.Int("total", total))
	return e
}

// Get returns the editor for a storyboard id.
func (h *Hub) Get(id string) (*Editor, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.editors[id]
	return e, ok
}

// Remove drops an editor session.
func (h *Hub) Remove(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.editors[id]; !ok {
		return false
	}
	delete(h.editors, id)
	h.logger.Info("editor removed", zap.String("storyboard", id))
	return true
}

// Len returns the number of live editors.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.editors)
}

// EvictIdle removes editors untouched since before now-maxIdle.
func (h *Hub) EvictIdle(now time.Time, maxIdle time.Duration) int {
	cutoff := now.Add(-maxIdle)

	h.mu.Lock()
	defer h.mu.Unlock()

	evicted := 0
	for id, e := range h.editors {
		if e.LastTouched().Before(cutoff) {
			delete(h.editors, id)
			evicted++
		}
	}
	if evicted > 0 {
		h.logger.Info("evicted idle editors", zap.Int("count", evicted), zap.Int("remaining", len(h.editors)))
	}
	return evicted
}

// RunJanitor evicts idle editors every interval until ctx is done.
func (h *Hub) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.EvictIdle(now, maxIdle)
		}
	}
}
