package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a ConversationMessage.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationMessage is a single turn in a chat. Messages are never mutated
// after creation; a conversation only ever appends.
type ConversationMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a message with a fresh random ID.
func NewMessage(role Role, text string, at time.Time) ConversationMessage {
	return ConversationMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: at,
	}
}

// ConversationHandle is the opaque reference to a remote chat session.
// A handle belongs to exactly one conversation and is only meaningful to the
// client that created it.
type ConversationHandle interface {
	ConversationID() string
}
