package handler

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"storyboard-backend/internal/editor"
)

// EditorWSHandler 스토리보드 변경 WebSocket 핸들러
type EditorWSHandler struct {
	hub     *editor.Hub
	clients map[string]map[*websocket.Conn]bool // storyboardID -> connections
	mu      sync.Mutex
	logger  *zap.Logger
}

// EditorWSMessage WebSocket 메시지
type EditorWSMessage struct {
	Type    string      `json:"type"` // storyboard, ping, pong, error
	Payload interface{} `json:"payload,omitempty"`
}

// NewEditorWSHandler EditorWSHandler 생성
func NewEditorWSHandler(hub *editor.Hub, logger *zap.Logger) *EditorWSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorWSHandler{
		hub:     hub,
		clients: make(map[string]map[*websocket.Conn]bool),
		logger:  logger,
	}
}

// HandleWebSocket WebSocket 연결 처리. 연결 직후 현재 상태를 보냄
func (h *EditorWSHandler) HandleWebSocket(c *websocket.Conn) {
	// 패닉 복구 - 서버 크래시 방지
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("editor websocket panic recovered", zap.Any("panic", r))
		}
	}()

	storyboardID, _ := c.Locals("storyboardID").(string)
	e, ok := h.hub.Get(storyboardID)
	if !ok {
		c.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":"storyboard not found"}`))
		c.Close()
		return
	}

	// 클라이언트 등록
	h.mu.Lock()
	if h.clients[storyboardID] == nil {
		h.clients[storyboardID] = make(map[*websocket.Conn]bool)
	}
	h.clients[storyboardID][c] = true
	h.mu.Unlock()

	h.logger.Info("editor websocket connected", zap.String("storyboard", storyboardID))

	// 연결 해제 시 정리
	defer func() {
		h.mu.Lock()
		delete(h.clients[storyboardID], c)
		if len(h.clients[storyboardID]) == 0 {
			delete(h.clients, storyboardID)
		}
		h.mu.Unlock()
		c.Close()
		h.logger.Info("editor websocket disconnected", zap.String("storyboard", storyboardID))
	}()

	h.send(c, EditorWSMessage{Type: "storyboard", Payload: e.State()})

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			break
		}

		var msg EditorWSMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			continue
		}

		// ping 메시지에 pong 응답
		if msg.Type == "ping" {
			h.send(c, EditorWSMessage{Type: "pong"})
		}
	}
}

func (h *EditorWSHandler) send(c *websocket.Conn, msg EditorWSMessage) {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := c.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
		h.logger.Debug("editor websocket write failed", zap.Error(err))
	}
}

// Broadcast 스토리보드 구독자 전체에 상태 전송
func (h *EditorWSHandler) Broadcast(storyboardID string, state editor.State) {
	msgBytes, err := json.Marshal(EditorWSMessage{Type: "storyboard", Payload: state})
	if err != nil {
		h.logger.Error("failed to encode storyboard state", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients[storyboardID] {
		if err := conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
			h.logger.Debug("editor websocket write failed",
				zap.String("storyboard", storyboardID),
				zap.Error(err))
		}
	}
}

// Subscribers 스토리보드의 연결 수
func (h *EditorWSHandler) Subscribers(storyboardID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[storyboardID])
}
