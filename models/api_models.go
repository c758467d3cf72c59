package models

import (
	"encoding/json"
	"time"
)

// ChatMessageResponse is a journaled chat turn as returned by the transcript
// endpoint. It leaves out the gorm bookkeeping columns.
type ChatMessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sequence       int       `json:"sequence"`
	Role           Role      `json:"role"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

// AnalysisResponse is a journaled analysis as returned by the history
// endpoint.
type AnalysisResponse struct {
	ID           uint            `json:"id"`
	SessionID    string          `json:"session_id"`
	Kind         AnalysisKind    `json:"kind"`
	MIMEType     string          `json:"mime_type"`
	PayloadBytes int             `json:"payload_bytes"`
	AgeMonths    int             `json:"age_months,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	Valid        bool            `json:"valid"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
