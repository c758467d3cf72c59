package models

// Client_Event is one inbound websocket message from the client. Only the
// fields relevant to Type are populated.
type Client_Event struct {
	Type string `json:"type"`

	// navigate
	Route Route `json:"route,omitempty"`

	// chat.input
	Text string `json:"text,omitempty"`

	// cry.start
	MimeType string `json:"mimeType,omitempty"`
	Denied   bool   `json:"denied,omitempty"`

	// cry.chunk, food.select
	InlineData *InlineData `json:"inline_data,omitempty"`

	// food.age
	AgeMonths int `json:"age_months,omitempty"`
}

// InlineData is a base64 payload tagged with its MIME type.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

const (
	EventNavigate             = "navigate"
	EventChatInput            = "chat.input"
	EventChatCompositionStart = "chat.composition_start"
	EventChatCompositionEnd   = "chat.composition_end"
	EventChatCommit           = "chat.commit"
	EventChatSend             = "chat.send"
	EventCryStart             = "cry.start"
	EventCryChunk             = "cry.chunk"
	EventCryStop              = "cry.stop"
	EventCryReset             = "cry.reset"
	EventFoodAge              = "food.age"
	EventFoodSelect           = "food.select"
	EventFoodClear            = "food.clear"
)
