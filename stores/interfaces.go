package stores

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Desarso/babyzen/models"
)

// Message is one journaled chat turn.
type Message struct {
	gorm.Model
	ConversationID string    `gorm:"index;not null"`
	MessageID      string    `gorm:"uniqueIndex;not null"`
	Sequence       int       `gorm:"not null"`
	Role           string    `gorm:"not null"` // "user", "assistant"
	Text           string    `gorm:"type:text"`
	SentAt         time.Time `gorm:"not null"`
}

// Conversation holds metadata for a journaled chat conversation.
type Conversation struct {
	gorm.Model
	ConversationID string    `gorm:"uniqueIndex;not null"`
	SessionID      string    `gorm:"index"`
	MessageCount   int       `gorm:"default:0"`
	Messages       []Message `gorm:"foreignKey:ConversationID;references:ConversationID"`
}

// Analysis is one completed cry or food analysis. The payload itself is not
// kept, only its size and type.
type Analysis struct {
	gorm.Model
	SessionID    string `gorm:"index"`
	Kind         string `gorm:"index;not null"` // "audio", "image"
	MIMEType     string
	PayloadBytes int
	AgeMonths    int
	ResultJSON   string `gorm:"type:text"`
	Valid        bool
	Error        string `gorm:"type:text"`
}

// Journal records completed analyses and chat turns for auditing. Nothing
// written here is ever loaded back into a live conversation.
type Journal interface {
	SaveAnalysis(ctx context.Context, entry *Analysis) error
	ListAnalyses(ctx context.Context, sessionID string, limit int) ([]Analysis, error)

	SaveMessage(ctx context.Context, sessionID, conversationID string, msg models.ConversationMessage) error
	FetchTranscript(ctx context.Context, conversationID string, limit int) ([]Message, error)

	Ping() error
	Close() error
}

// StoreConfig holds configuration for database stores
type StoreConfig struct {
	Type       string            `json:"type"`       // "sqlite", "postgres", "none"
	Connection string            `json:"connection"` // path or DSN
	Options    map[string]string `json:"options"`
}

// NewStoreConfig creates a new store configuration
func NewStoreConfig(storeType, connection string) *StoreConfig {
	return &StoreConfig{
		Type:       storeType,
		Connection: connection,
		Options:    make(map[string]string),
	}
}

// WithOption adds an option to the store configuration
func (c *StoreConfig) WithOption(key, value string) *StoreConfig {
	if c.Options == nil {
		c.Options = make(map[string]string)
	}
	c.Options[key] = value
	return c
}

// ToResponse converts a journaled message for the transcript endpoint.
func (m Message) ToResponse() models.ChatMessageResponse {
	return models.ChatMessageResponse{
		ID:             m.MessageID,
		ConversationID: m.ConversationID,
		Sequence:       m.Sequence,
		Role:           models.Role(m.Role),
		Text:           m.Text,
		CreatedAt:      m.SentAt,
	}
}
