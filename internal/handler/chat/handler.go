package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/handler/httperr"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/onboarding"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/pkg/logger"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/pkg/utils"
)

// Handler 引导会话的HTTP处理器
type Handler struct {
	onboarding *onboarding.Service
	log        *logger.Logger
}

// New 创建会话处理器
func New(svc *onboarding.Service, log *logger.Logger) *Handler {
	return &Handler{
		onboarding: svc,
		log:        log,
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/flow", h.handleGetFlow)
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Post("/reply", h.handleReply)
		r.Post("/selections", h.handleToggle)
		r.Post("/selections/submit", h.handleSubmit)
	})
}

func (h *Handler) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"flow":      h.onboarding.Flow(),
		"aiEnabled": h.onboarding.AIEnabled(),
	})
}

// handleCreateSession 创建会话；空请求体使用默认 persona 和模式
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string    `json:"personaId"`
		Mode      chat.Mode `json:"mode"`
	}

	if err := utils.DecodeJSON(w, r, &payload); err != nil && !errors.Is(err, utils.ErrEmptyBody) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Mode != "" && !payload.Mode.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "mode must be linear or assistant")
		return
	}

	snapshot, err := h.onboarding.Start(r.Context(), payload.PersonaID, payload.Mode)
	if err != nil {
		h.log.Warn("create session failed", "persona", payload.PersonaID, "error", err)
		httperr.Respond(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, snapshot)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.onboarding.State(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snapshot)
}

// handleReply 处理用户文本回复
func (h *Handler) handleReply(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	turn, err := h.onboarding.Reply(r.Context(), sessionID, payload.Content)
	if err != nil {
		h.log.Debug("reply rejected", "session", sessionID, "error", err)
		httperr.Respond(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turn)
}

// handleToggle 切换多选项
func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Option string `json:"option"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := h.onboarding.Toggle(r.Context(), chi.URLParam(r, "sessionID"), payload.Option)
	if err != nil {
		status := httperr.Status(err)
		utils.RespondJSON(w, status, map[string]any{
			"error": err.Error(),
			"input": input,
		})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"input": input})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	turn, err := h.onboarding.Submit(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turn)
}
