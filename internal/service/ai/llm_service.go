package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/config"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/persona"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/profile"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/pkg/logger"
)

// Request carries everything the assistant needs for one reply.
type Request struct {
	SessionID   string
	Persona     *persona.Persona
	Profile     profile.Profile
	Focus       []profile.Field
	History     []chat.Message
	UserMessage string
}

// Options tune a Service independently of the model provider.
type Options struct {
	Streaming    bool
	HistoryLimit int
}

// Service encapsulates the LLM side of assistant-mode onboarding.
type Service struct {
	chain compose.Runnable[map[string]any, *schema.Message]
	opts  Options
	log   *logger.Logger
}

// NewService creates the chat model described by cfg and wraps it in a chain.
func NewService(ctx context.Context, cfg config.AIConfig, historyLimit int, log *logger.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, Options{
		Streaming:    cfg.StreamResponse,
		HistoryLimit: historyLimit,
	}, log)
}

// NewServiceWithModel builds the prompt chain around an existing chat model.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, opts Options, log *logger.Logger) (*Service, error) {
	if opts.HistoryLimit < 0 {
		opts.HistoryLimit = 0
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chain: runnable,
		opts:  opts,
		log:   log,
	}, nil
}

// StreamingEnabled 指示是否开启流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.opts.Streaming
}

// GenerateResponse produces the assistant reply in one call.
func (s *Service) GenerateResponse(ctx context.Context, req Request) (*schema.Message, error) {
	response, err := s.chain.Invoke(ctx, s.buildChainInput(req))
	if err != nil {
		return nil, fmt.Errorf("failed to run AI chain: %w", err)
	}

	s.log.Debug("generated assistant reply", "session", req.SessionID, "length", len(response.Content))
	return response, nil
}

// StreamResponse streams the assistant reply chunk by chunk.
func (s *Service) StreamResponse(ctx context.Context, req Request) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	stream, err := s.chain.Stream(ctx, s.buildChainInput(req))
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}
	return stream, nil
}

func (s *Service) buildChainInput(req Request) map[string]any {
	return map[string]any{
		"system":  BuildSystemPrompt(req.Persona, req.Profile, req.Focus),
		"history": s.buildHistoryMessages(req.History),
		"query":   req.UserMessage,
	}
}

func (s *Service) buildHistoryMessages(messages []chat.Message) []*schema.Message {
	stored := make([]chat.Message, 0, len(messages))
	for _, msg := range messages {
		if !msg.IsTyping {
			stored = append(stored, msg)
		}
	}

	limit := s.opts.HistoryLimit
	if len(stored) == 0 || limit == 0 {
		return nil
	}

	startIdx := 0
	if len(stored) > limit {
		startIdx = len(stored) - limit
	}

	history := make([]*schema.Message, 0, len(stored)-startIdx)
	for _, msg := range stored[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderBot:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}
