package onboarding

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/conversation"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/flow"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/persona"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/profile"
	aiService "github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/ai"
	chatService "github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/chat"
)

type fakeModel struct {
	mu    sync.Mutex
	reply string
	fail  bool
	calls int
}

func (f *fakeModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errors.New("upstream unavailable")
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errors.New("upstream unavailable")
	}
	parts := strings.SplitAfter(f.reply, " ")
	chunks := make([]*schema.Message, len(parts))
	for i, part := range parts {
		chunks[i] = schema.AssistantMessage(part, nil)
	}
	return schema.StreamReaderFromArray(chunks), nil
}

func (f *fakeModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func newTestService(t *testing.T, fake *fakeModel, limits chatService.Limits) *Service {
	t.Helper()
	var aiSvc *aiService.Service
	if fake != nil {
		var err error
		aiSvc, err = aiService.NewServiceWithModel(context.Background(), fake, aiService.Options{Streaming: true, HistoryLimit: 4}, nil)
		if err != nil {
			t.Fatalf("NewServiceWithModel err: %v", err)
		}
	}
	return NewService(
		chatService.NewService(limits),
		persona.NewMemoryStore(persona.Seed()),
		flow.Default(),
		aiSvc,
		nil,
		Options{Intn: func(int) int { return 0 }},
	)
}

func mustReply(t *testing.T, svc *Service, sessionID, text string) Turn {
	t.Helper()
	turn, err := svc.Reply(context.Background(), sessionID, text)
	if err != nil {
		t.Fatalf("Reply(%q) err: %v", text, err)
	}
	return turn
}

func TestStartLinearStoresFirstPrompt(t *testing.T) {
	svc := newTestService(t, nil, chatService.Limits{})

	snap, err := svc.Start(context.Background(), "", "")
	if err != nil {
		t.Fatalf("Start err: %v", err)
	}
	if snap.Session.Mode != chat.ModeLinear || snap.Persona.ID != persona.DefaultID {
		t.Fatalf("unexpected session: %+v", snap.Session)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Sender != chat.SenderBot {
		t.Fatalf("expected greeting, got %+v", snap.Messages)
	}
	if !strings.Contains(snap.Messages[0].Content, "What's your name?") {
		t.Fatalf("greeting should be the first flow prompt: %q", snap.Messages[0].Content)
	}
	if snap.Input.Field != profile.FieldName || snap.Progress != 0 {
		t.Fatalf("unexpected input/progress: %+v %d", snap.Input, snap.Progress)
	}
}

func TestStartValidation(t *testing.T) {
	svc := newTestService(t, nil, chatService.Limits{})
	ctx := context.Background()

	if _, err := svc.Start(ctx, "nobody", chat.ModeLinear); !errors.Is(err, ErrPersonaNotFound) {
		t.Fatalf("expected ErrPersonaNotFound, got %v", err)
	}
	if _, err := svc.Start(ctx, "maya", chat.ModeAssistant); !errors.Is(err, ErrAIUnavailable) {
		t.Fatalf("expected ErrAIUnavailable, got %v", err)
	}
}

func TestLinearConversationToCompletion(t *testing.T) {
	svc := newTestService(t, nil, chatService.Limits{})
	ctx := context.Background()
	snap, _ := svc.Start(ctx, "maya", chat.ModeLinear)
	id := snap.Session.ID

	mustReply(t, svc, id, "Ada")
	mustReply(t, svc, id, "ada@example.com")
	turn := mustReply(t, svc, id, "skip")
	if turn.Input.Kind != flow.InputMultiSelect || turn.Input.Field != profile.FieldExperience {
		t.Fatalf("expected experience selection, got %+v", turn.Input)
	}

	if _, err := svc.Toggle(ctx, id, "intermediate"); err != nil {
		t.Fatalf("Toggle err: %v", err)
	}
	turn, err := svc.Submit(ctx, id)
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	if turn.Messages[0].Sender != chat.SenderUser || turn.Messages[0].Content != "intermediate" {
		t.Fatalf("selection should be recorded as the user message: %+v", turn.Messages[0])
	}

	mustReply(t, svc, id, "programming, design")
	mustReply(t, svc, id, "lead a product team")
	mustReply(t, svc, id, "skip")

	if _, err := svc.Toggle(ctx, id, "weekends"); err != nil {
		t.Fatalf("Toggle err: %v", err)
	}
	turn, err = svc.Submit(ctx, id)
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	if !turn.Complete || turn.Progress != 100 || !turn.Input.Disabled {
		t.Fatalf("expected completed turn, got %+v", turn)
	}
	if len(turn.Messages) != 3 || !strings.Contains(turn.Messages[1].Content, "• Name: Ada") {
		t.Fatalf("expected selection + summary + completion, got %+v", turn.Messages)
	}

	if _, err := svc.Reply(ctx, id, "one more thing"); !errors.Is(err, ErrConversationComplete) {
		t.Fatalf("expected ErrConversationComplete, got %v", err)
	}

	state, err := svc.State(ctx, id)
	if err != nil {
		t.Fatalf("State err: %v", err)
	}
	if !state.Complete || state.Profile.Get(profile.FieldAvailability).String() != "weekends" {
		t.Fatalf("unexpected final state: %+v", state.Profile)
	}
}

func TestReplyRejectsEmptyText(t *testing.T) {
	svc := newTestService(t, nil, chatService.Limits{})
	snap, _ := svc.Start(context.Background(), "maya", chat.ModeLinear)

	if _, err := svc.Reply(context.Background(), snap.Session.ID, "   "); !errors.Is(err, conversation.ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
}

func TestToggleOnTextStep(t *testing.T) {
	svc := newTestService(t, nil, chatService.Limits{})
	snap, _ := svc.Start(context.Background(), "maya", chat.ModeLinear)

	if _, err := svc.Toggle(context.Background(), snap.Session.ID, "design"); !errors.Is(err, conversation.ErrNotMultiSelect) {
		t.Fatalf("expected ErrNotMultiSelect, got %v", err)
	}
}

func TestReplyHonoursLengthLimit(t *testing.T) {
	svc := newTestService(t, nil, chatService.Limits{MaxMessages: 3})
	snap, _ := svc.Start(context.Background(), "maya", chat.ModeLinear)
	id := snap.Session.ID

	mustReply(t, svc, id, "Ada")
	if _, err := svc.Reply(context.Background(), id, "ada@example.com"); !errors.Is(err, chatService.ErrConversationTooLong) {
		t.Fatalf("expected ErrConversationTooLong, got %v", err)
	}
}

func TestUnknownSession(t *testing.T) {
	svc := newTestService(t, nil, chatService.Limits{})
	if _, err := svc.Reply(context.Background(), "missing", "hi"); !errors.Is(err, chatService.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAssistantConversation(t *testing.T) {
	fake := &fakeModel{reply: "Lovely to meet you! What's your email?"}
	svc := newTestService(t, fake, chatService.Limits{})
	ctx := context.Background()

	snap, err := svc.Start(ctx, "maya", chat.ModeAssistant)
	if err != nil {
		t.Fatalf("Start err: %v", err)
	}
	if snap.Messages[0].Content != persona.Seed()[0].OpeningLines[0] {
		t.Fatalf("greeting should be an opening line: %q", snap.Messages[0].Content)
	}
	id := snap.Session.ID

	var deltas []string
	turn, err := svc.Reply(ctx, id, "My name is Ada Lovelace", WithDelta(func(d string) {
		deltas = append(deltas, d)
	}))
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}
	if strings.Join(deltas, "") != fake.reply {
		t.Fatalf("deltas %q do not add up to the reply", deltas)
	}
	if len(turn.Messages) != 2 || turn.Messages[1].Content != fake.reply {
		t.Fatalf("unexpected messages: %+v", turn.Messages)
	}
	if !turn.Profile.Has(profile.FieldName) {
		t.Fatalf("name should be committed: %+v", turn.Profile)
	}

	for _, msg := range []string{
		"ada@example.com",
		"I'm a beginner interested in backend programming",
		"I want to become a staff engineer",
	} {
		mustReply(t, svc, id, msg)
	}

	turn = mustReply(t, svc, id, "evenings work best")
	if !turn.Complete || len(turn.Messages) != 3 {
		t.Fatalf("expected reply + summary on completion, got %+v", turn)
	}
	if !strings.Contains(turn.Messages[2].Content, "• Availability: evenings") {
		t.Fatalf("missing summary card: %q", turn.Messages[2].Content)
	}

	if _, err := svc.Reply(ctx, id, "thanks"); !errors.Is(err, ErrConversationComplete) {
		t.Fatalf("expected ErrConversationComplete, got %v", err)
	}
}

func TestAssistantFallbackCommitsNothing(t *testing.T) {
	fake := &fakeModel{fail: true}
	svc := newTestService(t, fake, chatService.Limits{})
	ctx := context.Background()
	snap, _ := svc.Start(ctx, "maya", chat.ModeAssistant)

	turn := mustReply(t, svc, snap.Session.ID, "My name is Ada and my email is ada@example.com")
	if turn.Messages[1].Content != FallbackReply {
		t.Fatalf("expected fallback reply, got %q", turn.Messages[1].Content)
	}
	if turn.Profile.Has(profile.FieldName) || turn.Profile.Has(profile.FieldEmail) {
		t.Fatalf("failed turn must not commit fields: %+v", turn.Profile)
	}
}

func TestAssistantToggleRejected(t *testing.T) {
	svc := newTestService(t, &fakeModel{reply: "ok"}, chatService.Limits{})
	snap, _ := svc.Start(context.Background(), "maya", chat.ModeAssistant)

	if _, err := svc.Toggle(context.Background(), snap.Session.ID, "design"); !errors.Is(err, conversation.ErrNotMultiSelect) {
		t.Fatalf("expected ErrNotMultiSelect, got %v", err)
	}
	if _, err := svc.Submit(context.Background(), snap.Session.ID); !errors.Is(err, conversation.ErrNotMultiSelect) {
		t.Fatalf("expected ErrNotMultiSelect, got %v", err)
	}
}

func TestSweepDropsIdleSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	chats := chatService.NewServiceWithClock(chatService.Limits{IdleTimeout: time.Minute}, func() time.Time { return now })
	svc := NewService(chats, persona.NewMemoryStore(persona.Seed()), flow.Default(), nil, nil, Options{})
	ctx := context.Background()

	idle, _ := svc.Start(ctx, "maya", chat.ModeLinear)
	now = now.Add(45 * time.Second)
	busy, _ := svc.Start(ctx, "maya", chat.ModeLinear)

	now = now.Add(30 * time.Second)
	if n := svc.Sweep(ctx); n != 1 {
		t.Fatalf("expected one session swept, got %d", n)
	}
	if len(svc.sessions) != 1 {
		t.Fatalf("driver state not dropped: %d sessions left", len(svc.sessions))
	}
	if _, err := svc.Reply(ctx, idle.Session.ID, "Ada"); !errors.Is(err, chatService.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	mustReply(t, svc, busy.Session.ID, "Ada")
}

func TestRunJanitorStopsOnCancel(t *testing.T) {
	svc := newTestService(t, nil, chatService.Limits{IdleTimeout: 10 * time.Millisecond})
	if _, err := svc.Start(context.Background(), "maya", chat.ModeLinear); err != nil {
		t.Fatalf("Start err: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		svc.mu.Lock()
		left := len(svc.sessions)
		svc.mu.Unlock()
		if left == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("janitor never swept the idle session")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}
