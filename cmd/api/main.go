package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/config"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/handler"
	chatModel "github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/flow"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/persona"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/ai"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/onboarding"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer appLog.Sync()
	zap.ReplaceGlobals(appLog.SugaredLogger.Desugar())

	if envErr != nil {
		appLog.Info("no .env file loaded, using system environment only", "error", envErr)
	}

	questionFlow, err := flow.Load(cfg.Flow.Path)
	if err != nil {
		appLog.Fatal("failed to load onboarding flow", "path", cfg.Flow.Path, "error", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())
	chatService := chat.NewService(chat.Limits{
		MaxMessages: cfg.Conversation.MaxLength,
		IdleTimeout: cfg.Conversation.Timeout,
	})

	// AI 仅在助手模式下使用，缺少凭证时退回线性问卷
	var aiService *ai.Service
	if cfg.AI.Enabled() {
		aiService, err = ai.NewService(ctx, cfg.AI, cfg.Conversation.HistoryLimit, appLog.With("component", "ai"))
		if err != nil {
			appLog.Warn("failed to initialize AI service, assistant mode disabled", "provider", cfg.AI.Provider, "error", err)
			aiService = nil
		} else {
			appLog.Info("AI service initialized", "provider", cfg.AI.Provider, "stream", cfg.AI.StreamResponse)
		}
	} else {
		appLog.Info("LLM credentials not configured, assistant mode disabled", "provider", cfg.AI.Provider)
	}

	defaultMode := cfg.Conversation.DefaultMode
	if aiService == nil && defaultMode == chatModel.ModeAssistant {
		appLog.Warn("default mode needs an LLM, falling back to linear", "mode", defaultMode)
		defaultMode = chatModel.ModeLinear
	}

	onboardingService := onboarding.NewService(chatService, personaStore, questionFlow, aiService, appLog.With("component", "onboarding"), onboarding.Options{
		DefaultMode: defaultMode,
	})

	if timeout := cfg.Conversation.Timeout; timeout > 0 {
		go onboardingService.RunJanitor(ctx, timeout/2)
	}

	router := handler.NewRouter(handler.Deps{
		Personas:       personaStore,
		Onboarding:     onboardingService,
		Log:            appLog.With("component", "http"),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TypingDelay:    cfg.Conversation.TypingDelay,
	})

	startServer(ctx, cfg.Server, router, appLog)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, appLog *logger.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	appLog.Info("MentorCloud onboarding backend listening", "addr", addr)
	if err := runServer(ctx, srv); err != nil {
		appLog.Fatal("server error", "error", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
