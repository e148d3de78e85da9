package chat

import "time"

// Sender identifies who produced a transcript entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one transcript entry. Stored messages are never mutated;
// typing indicators (IsTyping) are only pushed to streaming clients.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsTyping  bool      `json:"isTyping"`
}

// Typing builds the transient indicator shown while the bot composes a reply.
func Typing(sessionID string) Message {
	return Message{
		SessionID: sessionID,
		Sender:    SenderBot,
		Timestamp: time.Now().UTC(),
		IsTyping:  true,
	}
}
