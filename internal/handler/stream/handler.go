package stream

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/handler/httperr"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/onboarding"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/pkg/logger"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/pkg/utils"
)

// Handler streams onboarding turns via Server-Sent Events
type Handler struct {
	onboarding  *onboarding.Service
	typingDelay time.Duration
	log         *logger.Logger
}

// New creates a new stream handler. typingDelay is how long the typing
// indicator stays up before the reply is produced.
func New(svc *onboarding.Service, typingDelay time.Duration, log *logger.Logger) *Handler {
	return &Handler{
		onboarding:  svc,
		typingDelay: typingDelay,
		log:         log,
	}
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	SessionID string `json:"sessionId,omitempty"`
	Content   string `json:"content,omitempty"`
	Message   any    `json:"message,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ProfileEvent carries the profile state after a turn.
type ProfileEvent struct {
	SessionID string `json:"sessionId"`
	Profile   any    `json:"profile"`
	Missing   any    `json:"missing"`
	Progress  int    `json:"progress"`
	Complete  bool   `json:"complete"`
	Input     any    `json:"input"`
}

// RegisterRoutes 注册SSE路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := strings.TrimSpace(r.URL.Query().Get("message"))
	if userMessage == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// 在切换到事件流之前校验会话，便于返回正确的状态码。
	snapshot, err := h.onboarding.State(r.Context(), sessionID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	if snapshot.Input.Disabled {
		httperr.Respond(w, onboarding.ErrConversationComplete)
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	h.HandleStreamRequest(r.Context(), w, flusher, sessionID, userMessage)
}

// HandleStreamRequest runs one onboarding turn and narrates it as SSE events.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID, userMessage string) {
	send := func(event string, payload any) bool {
		if err := utils.SendSSEEvent(w, flusher, event, payload); err != nil {
			h.log.Warn("sse write failed", "session", sessionID, "event", event, "error", err)
			return false
		}
		return true
	}

	if !send("start", StreamResponse{SessionID: sessionID}) {
		return
	}
	send("typing", StreamResponse{SessionID: sessionID, Message: chat.Typing(sessionID)})

	if h.typingDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(h.typingDelay):
		}
	}

	turn, err := h.onboarding.Reply(ctx, sessionID, userMessage, onboarding.WithDelta(func(delta string) {
		send("delta", StreamResponse{SessionID: sessionID, Content: delta})
	}))
	if err != nil {
		h.log.Warn("stream turn failed", "session", sessionID, "error", err)
		send("error", StreamResponse{SessionID: sessionID, Error: err.Error()})
		send("end", StreamResponse{SessionID: sessionID, Finished: true})
		return
	}

	for _, msg := range turn.Messages {
		if msg.Sender != chat.SenderBot {
			continue
		}
		send("message", StreamResponse{SessionID: sessionID, Content: msg.Content, Message: msg})
	}

	send("profile", ProfileEvent{
		SessionID: sessionID,
		Profile:   turn.Profile,
		Missing:   turn.Missing,
		Progress:  turn.Progress,
		Complete:  turn.Complete,
		Input:     turn.Input,
	})
	if turn.Complete && turn.Input.Disabled {
		send("complete", StreamResponse{SessionID: sessionID, Finished: true})
	}
	send("end", StreamResponse{SessionID: sessionID, Finished: true})

	h.log.Debug("stream turn completed", "session", sessionID, "replies", len(turn.Messages)-1)
}
