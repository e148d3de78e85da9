// Package onboarding 负责把会话驱动、LLM 与转录存储串起来。
// REST、SSE、WebSocket 和终端渲染器都只调用这里的操作。
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/conversation"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/flow"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/persona"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/profile"
	aiService "github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/ai"
	chatService "github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/pkg/logger"
)

var (
	ErrConversationComplete = errors.New("conversation already complete")
	ErrPersonaNotFound      = errors.New("persona not found")
	ErrAIUnavailable        = errors.New("assistant mode requires an LLM provider")
)

// FallbackReply is sent when the LLM cannot be reached.
const FallbackReply = "I'm having trouble connecting right now. Could you please try again in a moment?"

// Turn is what a renderer needs after one user action.
type Turn struct {
	SessionID string             `json:"sessionId"`
	Messages  []chat.Message     `json:"messages"`
	Profile   profile.Profile    `json:"profile"`
	Missing   []profile.Field    `json:"missing"`
	Progress  int                `json:"progress"`
	Complete  bool               `json:"complete"`
	Input     conversation.Input `json:"input"`
}

// Snapshot is the full state of one onboarding conversation.
type Snapshot struct {
	Session  chat.Session       `json:"session"`
	Persona  persona.Persona    `json:"persona"`
	Messages []chat.Message     `json:"messages"`
	Profile  profile.Profile    `json:"profile"`
	Missing  []profile.Field    `json:"missing"`
	Progress int                `json:"progress"`
	Complete bool               `json:"complete"`
	Input    conversation.Input `json:"input"`
}

// Options tune the orchestration layer.
type Options struct {
	DefaultMode chat.Mode
	// Intn picks the assistant opening line; defaults to math/rand.
	Intn func(n int) int
}

// Service runs onboarding conversations on top of the chat store.
type Service struct {
	chats    *chatService.Service
	personas persona.Store
	flow     *flow.Flow
	ai       *aiService.Service
	log      *logger.Logger
	opts     Options

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu        sync.Mutex
	persona   persona.Persona
	mode      chat.Mode
	linear    *conversation.Linear
	assistant *conversation.Assistant
}

func (s *session) driver() conversation.Driver {
	if s.mode == chat.ModeAssistant {
		return s.assistant
	}
	return s.linear
}

// NewService wires the orchestrator. aiSvc may be nil, in which case only
// linear conversations can be started.
func NewService(chats *chatService.Service, personas persona.Store, f *flow.Flow, aiSvc *aiService.Service, log *logger.Logger, opts Options) *Service {
	if f == nil {
		f = flow.Default()
	}
	if !opts.DefaultMode.Valid() {
		opts.DefaultMode = chat.ModeLinear
	}
	if opts.Intn == nil {
		opts.Intn = rand.Intn
	}
	return &Service{
		chats:    chats,
		personas: personas,
		flow:     f,
		ai:       aiSvc,
		log:      log,
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// Flow exposes the question table used by linear conversations.
func (s *Service) Flow() *flow.Flow {
	return s.flow
}

// AIEnabled reports whether assistant mode is available.
func (s *Service) AIEnabled() bool {
	return s.ai != nil
}

// Start creates a session and stores its greeting.
func (s *Service) Start(ctx context.Context, personaID string, mode chat.Mode) (Snapshot, error) {
	p, ok := s.personas.Resolve(personaID)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrPersonaNotFound, personaID)
	}
	if mode == "" {
		mode = s.opts.DefaultMode
	}
	if mode == chat.ModeAssistant && s.ai == nil {
		return Snapshot{}, ErrAIUnavailable
	}

	created, err := s.chats.CreateSession(ctx, p.ID, mode)
	if err != nil {
		return Snapshot{}, err
	}

	state := &session{persona: p, mode: mode}
	var greeting string
	switch mode {
	case chat.ModeAssistant:
		state.assistant = conversation.NewAssistant(nil, nil)
		greeting = s.openingLine(p)
	default:
		state.linear = conversation.NewLinear(s.flow)
		greeting = state.linear.Start()
	}

	if _, err := s.chats.SaveMessage(ctx, chat.Message{
		SessionID: created.ID,
		Sender:    chat.SenderBot,
		Content:   greeting,
	}); err != nil {
		s.chats.DeleteSession(ctx, created.ID)
		return Snapshot{}, fmt.Errorf("failed to store greeting: %w", err)
	}

	s.mu.Lock()
	s.sessions[created.ID] = state
	s.mu.Unlock()

	s.log.Info("onboarding session started", "session", created.ID, "persona", p.ID, "mode", mode)
	return s.State(ctx, created.ID)
}

// ReplyOption customises a single Reply call.
type ReplyOption func(*replyOptions)

type replyOptions struct {
	onDelta func(string)
}

// WithDelta streams partial assistant text to fn while the LLM is generating.
// Linear conversations never call it.
func WithDelta(fn func(string)) ReplyOption {
	return func(o *replyOptions) {
		o.onDelta = fn
	}
}

// Reply stores the user message, advances the conversation and stores the bot replies.
func (s *Service) Reply(ctx context.Context, sessionID, text string, opts ...ReplyOption) (Turn, error) {
	var ro replyOptions
	for _, opt := range opts {
		opt(&ro)
	}

	state, err := s.lookup(ctx, sessionID)
	if err != nil {
		return Turn{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.driver().Finished() {
		return Turn{}, ErrConversationComplete
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, conversation.ErrEmptyReply
	}

	// 先取历史，当前用户消息单独作为 query 传给模型。
	history, err := s.chats.LoadTranscript(ctx, sessionID)
	if err != nil {
		return Turn{}, err
	}

	userMsg, err := s.chats.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderUser,
		Content:   text,
	})
	if err != nil {
		return Turn{}, err
	}

	var replies []string
	switch state.mode {
	case chat.ModeAssistant:
		replies = s.assistantReplies(ctx, sessionID, state, history, text, ro)
	default:
		turn, err := state.linear.Answer(text)
		if err != nil {
			return Turn{}, err
		}
		replies = turn.Replies
	}

	return s.finishTurn(ctx, sessionID, state, []chat.Message{userMsg}, replies)
}

// Toggle flips an option on the current multi-select step.
func (s *Service) Toggle(ctx context.Context, sessionID, option string) (conversation.Input, error) {
	state, err := s.lookup(ctx, sessionID)
	if err != nil {
		return conversation.Input{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.mode != chat.ModeLinear {
		return state.driver().Input(), conversation.ErrNotMultiSelect
	}
	if state.linear.Finished() {
		return state.linear.Input(), ErrConversationComplete
	}
	return state.linear.Toggle(option)
}

// Submit commits the toggled options of the current step. The selection is
// recorded as the user's message.
func (s *Service) Submit(ctx context.Context, sessionID string) (Turn, error) {
	state, err := s.lookup(ctx, sessionID)
	if err != nil {
		return Turn{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.mode != chat.ModeLinear {
		return Turn{}, conversation.ErrNotMultiSelect
	}
	if state.linear.Finished() {
		return Turn{}, ErrConversationComplete
	}
	if remaining, err := s.chats.Remaining(ctx, sessionID); err != nil {
		return Turn{}, err
	} else if remaining == 0 {
		return Turn{}, chatService.ErrConversationTooLong
	}

	selected := state.linear.Input().Selected
	turn, err := state.linear.Submit()
	if err != nil {
		return Turn{}, err
	}

	content := strings.Join(selected, ", ")
	if content == "" {
		content = "skip"
	}
	userMsg, err := s.chats.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderUser,
		Content:   content,
	})
	if err != nil {
		return Turn{}, err
	}

	return s.finishTurn(ctx, sessionID, state, []chat.Message{userMsg}, turn.Replies)
}

// State returns a snapshot of the conversation.
func (s *Service) State(ctx context.Context, sessionID string) (Snapshot, error) {
	state, err := s.lookup(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	current, err := s.chats.GetSession(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	transcript, err := s.chats.LoadTranscript(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	d := state.driver()
	return Snapshot{
		Session:  current,
		Persona:  state.persona,
		Messages: transcript,
		Profile:  d.Profile(),
		Missing:  d.Missing(),
		Progress: d.Progress(),
		Complete: d.Complete(),
		Input:    d.Input(),
	}, nil
}

func (s *Service) assistantReplies(ctx context.Context, sessionID string, state *session, history []chat.Message, text string, ro replyOptions) []string {
	plan := state.assistant.Plan(text)
	req := aiService.Request{
		SessionID:   sessionID,
		Persona:     &state.persona,
		Profile:     plan.Profile,
		Focus:       plan.Focus,
		History:     history,
		UserMessage: text,
	}

	response, err := s.generate(ctx, req, ro)
	if err != nil {
		s.log.Warn("assistant reply failed, sending fallback", "session", sessionID, "error", err)
		return []string{FallbackReply}
	}

	replies := []string{strings.TrimSpace(response.Content)}
	if summary, ok := state.assistant.Commit(plan); ok {
		replies = append(replies, summary)
	}
	return replies
}

func (s *Service) generate(ctx context.Context, req aiService.Request, ro replyOptions) (*schema.Message, error) {
	if ro.onDelta == nil || !s.ai.StreamingEnabled() {
		return s.ai.GenerateResponse(ctx, req)
	}

	stream, err := s.ai.StreamResponse(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return nil, recvErr
		}
		if chunk == nil {
			continue
		}
		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			ro.onDelta(chunk.Content)
		}
	}
	if len(chunks) == 0 {
		return nil, errors.New("empty model stream")
	}
	return schema.ConcatMessages(chunks)
}

func (s *Service) finishTurn(ctx context.Context, sessionID string, state *session, stored []chat.Message, replies []string) (Turn, error) {
	for _, reply := range replies {
		if strings.TrimSpace(reply) == "" {
			continue
		}
		msg, err := s.chats.SaveMessage(ctx, chat.Message{
			SessionID: sessionID,
			Sender:    chat.SenderBot,
			Content:   reply,
		})
		if err != nil {
			return Turn{}, fmt.Errorf("failed to store reply: %w", err)
		}
		stored = append(stored, msg)
	}

	d := state.driver()
	turn := Turn{
		SessionID: sessionID,
		Messages:  stored,
		Profile:   d.Profile(),
		Missing:   d.Missing(),
		Progress:  d.Progress(),
		Complete:  d.Complete(),
		Input:     d.Input(),
	}
	if turn.Complete {
		s.log.Info("onboarding profile complete", "session", sessionID, "profile", turn.Profile)
	}
	return turn, nil
}

// Sweep prunes idle sessions from the chat store and drops their driver state.
func (s *Service) Sweep(ctx context.Context) int {
	pruned := s.chats.PruneExpired(ctx)
	if len(pruned) == 0 {
		return 0
	}

	s.mu.Lock()
	for _, id := range pruned {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	s.log.Debug("pruned idle sessions", "count", len(pruned))
	return len(pruned)
}

// RunJanitor calls Sweep every interval until ctx is cancelled.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *Service) lookup(ctx context.Context, sessionID string) (*session, error) {
	if _, err := s.chats.GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, chatService.ErrSessionExpired) {
			s.mu.Lock()
			delete(s.sessions, sessionID)
			s.mu.Unlock()
		}
		return nil, err
	}

	s.mu.Lock()
	state, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, chatService.ErrSessionNotFound
	}
	return state, nil
}

func (s *Service) openingLine(p persona.Persona) string {
	if len(p.OpeningLines) == 0 {
		return fmt.Sprintf("Hi there! I'm %s from MentorCloud. What should I call you?", p.Name)
	}
	return p.OpeningLines[s.opts.Intn(len(p.OpeningLines))]
}
