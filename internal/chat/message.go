package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem marks transient placeholders; they are never persisted.
	RoleSystem Role = "system"
)

// Message is one transcript entry.
type Message struct {
	ID                 string    `json:"id"`
	Role               Role      `json:"role"`
	Content            string    `json:"content"`
	ReferencedPaperIDs []string  `json:"referencedPaperIds,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

func newMessage(role Role, content string, refs []string) Message {
	return Message{
		ID:                 uuid.NewString(),
		Role:               role,
		Content:            content,
		ReferencedPaperIDs: refs,
		CreatedAt:          time.Now(),
	}
}

// Phase is the state of the current exchange.
type Phase int

const (
	// Idle accepts a new question.
	Idle Phase = iota
	// Sending has appended the question and placeholder; input is locked.
	Sending
	// Awaiting has a backend call in flight.
	Awaiting
	// Resolved replaced the placeholder with the assistant's answer.
	Resolved
	// Failed replaced the placeholder with a failure notice.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Awaiting:
		return "awaiting"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	}
	return "unknown"
}
