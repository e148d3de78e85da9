package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/chat"
)

var (
	ErrPersonaRequired     = errors.New("persona id is required")
	ErrInvalidMode         = errors.New("invalid conversation mode")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExpired      = errors.New("session expired")
	ErrConversationTooLong = errors.New("conversation length limit reached")
	ErrInvalidSender       = errors.New("invalid sender")
)

// Limits bound a single conversation. Zero values disable the check.
// MaxMessages counts every stored message but only refuses user messages,
// so the replies to an accepted turn are never dropped.
type Limits struct {
	MaxMessages int
	IdleTimeout time.Duration
}

// Service keeps sessions and their append-only transcripts in memory.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
	// expired 记录已被清理的会话，在下一个空闲周期内仍返回 ErrSessionExpired
	expired map[string]time.Time
	limits  Limits
	now     func() time.Time
}

// NewService bootstraps the in-memory chat service.
func NewService(limits Limits) *Service {
	return NewServiceWithClock(limits, func() time.Time { return time.Now().UTC() })
}

// NewServiceWithClock is NewService with an injected clock.
func NewServiceWithClock(limits Limits, now func() time.Time) *Service {
	return &Service{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
		expired:  make(map[string]time.Time),
		limits:   limits,
		now:      now,
	}
}

// CreateSession provisions an anonymous session bound to a persona.
func (s *Service) CreateSession(_ context.Context, personaID string, mode chat.Mode) (chat.Session, error) {
	if personaID == "" {
		return chat.Session{}, ErrPersonaRequired
	}
	if !mode.Valid() {
		return chat.Session{}, ErrInvalidMode
	}

	now := s.now()
	session := chat.Session{
		ID:           uuid.NewString(),
		PersonaID:    personaID,
		Mode:         mode,
		CreatedAt:    now,
		LastActiveAt: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// SaveMessage appends a message to the session history and returns it with
// its assigned identifier. Typing indicators are rejected; they are never stored.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) (chat.Message, error) {
	if message.SessionID == "" {
		return chat.Message{}, ErrSessionNotFound
	}
	if message.Sender != chat.SenderUser && message.Sender != chat.SenderBot {
		return chat.Message{}, ErrInvalidSender
	}
	if message.IsTyping {
		return chat.Message{}, errors.New("typing indicators are not stored")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.activeSessionLocked(message.SessionID)
	if err != nil {
		return chat.Message{}, err
	}
	if message.Sender == chat.SenderUser && s.limits.MaxMessages > 0 && len(s.messages[session.ID]) >= s.limits.MaxMessages {
		return chat.Message{}, ErrConversationTooLong
	}

	now := s.now()
	message.ID = uuid.NewString()
	if message.Timestamp.IsZero() {
		message.Timestamp = now
	}

	s.messages[session.ID] = append(s.messages[session.ID], message)
	session.LastActiveAt = now
	s.sessions[session.ID] = session
	return message, nil
}

// Remaining reports how many more messages the session can take, or -1 when unlimited.
func (s *Service) Remaining(_ context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.activeSessionLocked(sessionID); err != nil {
		return 0, err
	}
	if s.limits.MaxMessages <= 0 {
		return -1, nil
	}
	left := s.limits.MaxMessages - len(s.messages[sessionID])
	if left < 0 {
		left = 0
	}
	return left, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSessionLocked(sessionID)
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.activeSessionLocked(sessionID); err != nil {
		return nil, err
	}

	messages := s.messages[sessionID]
	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// DeleteSession drops a session and its transcript.
func (s *Service) DeleteSession(_ context.Context, sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	delete(s.messages, sessionID)
	s.mu.Unlock()
}

// PruneExpired drops every idle session with its transcript and returns the
// pruned ids. Pruned ids keep answering ErrSessionExpired for one more idle
// period, after which they are forgotten.
func (s *Service) PruneExpired(_ context.Context) []string {
	if s.limits.IdleTimeout <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, at := range s.expired {
		if now.Sub(at) > s.limits.IdleTimeout {
			delete(s.expired, id)
		}
	}

	var pruned []string
	for id, session := range s.sessions {
		if now.Sub(session.LastActiveAt) <= s.limits.IdleTimeout {
			continue
		}
		delete(s.sessions, id)
		delete(s.messages, id)
		s.expired[id] = now
		pruned = append(pruned, id)
	}
	return pruned
}

func (s *Service) activeSessionLocked(sessionID string) (chat.Session, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		if _, gone := s.expired[sessionID]; gone {
			return chat.Session{}, ErrSessionExpired
		}
		return chat.Session{}, ErrSessionNotFound
	}
	if s.limits.IdleTimeout > 0 && s.now().Sub(session.LastActiveAt) > s.limits.IdleTimeout {
		return chat.Session{}, ErrSessionExpired
	}
	return session, nil
}
