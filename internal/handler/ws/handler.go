package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/handler/httperr"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/onboarding"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/pkg/logger"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/pkg/utils"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Handler WebSocket会话处理器
type Handler struct {
	onboarding  *onboarding.Service
	typingDelay time.Duration
	readTimeout time.Duration
	pingPeriod  time.Duration
	log         *logger.Logger
	upgrader    websocket.Upgrader
}

// New 创建WebSocket处理器
func New(svc *onboarding.Service, typingDelay time.Duration, log *logger.Logger) *Handler {
	return &Handler{
		onboarding:  svc,
		typingDelay: typingDelay,
		readTimeout: pongWait,
		pingPeriod:  pingPeriod,
		log:         log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

// ToggleMessage 多选切换
type ToggleMessage struct {
	Option string `json:"option"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// connection serialises writes; gorilla allows a single concurrent writer.
type connection struct {
	conn      *websocket.Conn
	sessionID string
	mu        sync.Mutex
}

func (c *connection) send(msgType string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(outgoingMessage{
		Type:      msgType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (c *connection) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	snapshot, err := h.onboarding.State(r.Context(), sessionID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "session", sessionID, "error", err)
		return
	}
	defer raw.Close()

	conn := &connection{conn: raw, sessionID: sessionID}
	h.log.Info("websocket connected", "session", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	raw.SetReadDeadline(time.Now().Add(h.readTimeout))
	raw.SetPongHandler(func(string) error {
		raw.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	if err := conn.send("connected", snapshot); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := raw.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Warn("websocket read error", "session", sessionID, "error", err)
				}
				return
			}

			raw.SetReadDeadline(time.Now().Add(h.readTimeout))

			if msg.SessionID != "" && msg.SessionID != sessionID {
				h.sendError(conn, "session mismatch")
				continue
			}

			h.handleMessage(ctx, conn, &msg)
			// 回合期间未读取 pong，需重新计时
			raw.SetReadDeadline(time.Now().Add(h.readTimeout))
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *connection, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		var payload TextMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.sendError(conn, "invalid text payload")
			return
		}
		h.handleText(ctx, conn, payload.Text)
	case "toggle":
		var payload ToggleMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.sendError(conn, "invalid toggle payload")
			return
		}
		input, err := h.onboarding.Toggle(ctx, conn.sessionID, payload.Option)
		if err != nil {
			h.sendError(conn, err.Error())
			return
		}
		conn.send("state", map[string]any{"input": input})
	case "submit":
		h.showTyping(ctx, conn)
		turn, err := h.onboarding.Submit(ctx, conn.sessionID)
		if err != nil {
			h.sendError(conn, err.Error())
			return
		}
		h.sendTurn(conn, turn)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) handleText(ctx context.Context, conn *connection, text string) {
	h.showTyping(ctx, conn)

	turn, err := h.onboarding.Reply(ctx, conn.sessionID, text, onboarding.WithDelta(func(delta string) {
		conn.send("delta", map[string]string{"content": delta})
	}))
	if err != nil {
		h.log.Debug("websocket turn rejected", "session", conn.sessionID, "error", err)
		h.sendError(conn, err.Error())
		return
	}
	h.sendTurn(conn, turn)
}

func (h *Handler) showTyping(ctx context.Context, conn *connection) {
	conn.send("typing", chat.Typing(conn.sessionID))
	if h.typingDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(h.typingDelay):
	}
}

func (h *Handler) sendTurn(conn *connection, turn onboarding.Turn) {
	for _, msg := range turn.Messages {
		if err := conn.send("message", msg); err != nil {
			h.log.Warn("websocket write failed", "session", conn.sessionID, "error", err)
			return
		}
	}
	conn.send("state", map[string]any{
		"profile":  turn.Profile,
		"missing":  turn.Missing,
		"progress": turn.Progress,
		"complete": turn.Complete,
		"input":    turn.Input,
	})
}

func (h *Handler) sendError(conn *connection, message string) {
	if err := conn.send("error", map[string]string{"message": message}); err != nil {
		h.log.Warn("websocket write error failed", "session", conn.sessionID, "error", err)
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *connection) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}
