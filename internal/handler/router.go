package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/handler/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/handler/persona"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/handler/stream"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/mentorcloud-onboarding/backend/internal/middleware"
	personaModel "github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/persona"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/onboarding"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/pkg/logger"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/pkg/utils"
)

// Deps are the services the HTTP layer renders.
type Deps struct {
	Personas       personaModel.Store
	Onboarding     *onboarding.Service
	Log            *logger.Logger
	AllowedOrigins []string
	TypingDelay    time.Duration
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(deps.Log))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		persona.New(deps.Personas).RegisterRoutes(api)
		chat.New(deps.Onboarding, deps.Log).RegisterRoutes(api)
		stream.New(deps.Onboarding, deps.TypingDelay, deps.Log).RegisterRoutes(api)
		ws.New(deps.Onboarding, deps.TypingDelay, deps.Log).RegisterRoutes(api)
	})

	return r
}
