package controllers

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Desarso/babyzen/metrics"
	"github.com/Desarso/babyzen/models"
	"github.com/Desarso/babyzen/sanitizer"
)

const (
	WelcomeMessageID = "welcome"
	WelcomeText      = "你好呀！我是你的育兒助手。無論是關於睡眠、餵食還是發展里程碑，我都可以陪你聊聊喔。今天有什麼我可以幫忙的嗎？"

	FallbackReply       = "抱歉，我暫時無法回答這個問題。"
	ChatErrorNotice     = "【System Notice】 Encountered an issue while analyzing. Please try again later."
	CredentialErrorText = "API Key error. Please check your project configuration."

	placeholderOnline  = "Ask me anything..."
	placeholderOffline = "Please fix API Key..."
)

type ChatState string

const (
	ChatIdle    ChatState = "idle"
	ChatSending ChatState = "sending"
)

// ChatSnapshot is what the chat screen renders.
type ChatSnapshot struct {
	ConversationID string                       `json:"conversation_id"`
	State          ChatState                    `json:"state"`
	Messages       []models.ConversationMessage `json:"messages"`
	Input          string                       `json:"input"`
	Composing      bool                         `json:"composing"`
	InitError      string                       `json:"init_error,omitempty"`
	Online         bool                         `json:"online"`
	InputDisabled  bool                         `json:"input_disabled"`
	SendDisabled   bool                         `json:"send_disabled"`
	Placeholder    string                       `json:"placeholder"`
}

// ChatController drives the parenting assistant conversation.
type ChatController struct {
	deps Deps
	id   string
	// pub orders renders; it is never held together with a model call.
	pub sync.Mutex

	mu        sync.Mutex
	handle    models.ConversationHandle
	messages  []models.ConversationMessage
	input     string
	composing bool
	state     ChatState
	initError string
	closed    bool
}

// NewChatController creates a conversation holding only the welcome message.
func NewChatController(deps Deps) *ChatController {
	deps = deps.withDefaults()
	c := &ChatController{
		deps:  deps,
		id:    uuid.NewString(),
		state: ChatIdle,
	}
	c.deps.Logger = deps.Logger.With(zap.String("view", "chat"), zap.String("conversation", c.id))
	c.messages = []models.ConversationMessage{{
		ID:        WelcomeMessageID,
		Role:      models.RoleAssistant,
		Text:      WelcomeText,
		CreatedAt: deps.Now(),
	}}
	return c
}

func (c *ChatController) Route() models.Route { return models.RouteChat }

// ConversationID identifies this conversation in the journal.
func (c *ChatController) ConversationID() string { return c.id }

// Mount opens the remote conversation. A failure only marks the view
// offline; the controller stays usable for rendering.
func (c *ChatController) Mount(ctx context.Context) {
	handle, err := c.deps.Assistant.NewConversation(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.deps.Logger.Warn("failed to open conversation", zap.Error(err))
		c.initError = err.Error()
	} else {
		c.handle = handle
		c.initError = ""
	}
	c.mu.Unlock()
	c.publish()
}

// Unmount discards the conversation. Replies still in flight are dropped
// and nothing renders once Unmount returns.
func (c *ChatController) Unmount() {
	c.pub.Lock()
	defer c.pub.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.handle = nil
}

// SetInput replaces the draft text.
func (c *ChatController) SetInput(text string) error {
	c.mu.Lock()
	if c.initError != "" || c.closed {
		c.mu.Unlock()
		return ErrUnavailable
	}
	c.input = text
	c.mu.Unlock()
	c.publish()
	return nil
}

func (c *ChatController) CompositionStart() {
	c.mu.Lock()
	c.composing = true
	c.mu.Unlock()
	c.publish()
}

func (c *ChatController) CompositionEnd() {
	c.mu.Lock()
	c.composing = false
	c.mu.Unlock()
	c.publish()
}

// PendingTurn is a user message that has been appended to the conversation
// and is waiting for its reply.
type PendingTurn struct {
	message models.ConversationMessage
	handle  models.ConversationHandle
}

// Text is the submitted draft.
func (p PendingTurn) Text() string { return p.message.Text }

// Commit is the Enter key. It sends unless an input method is still
// composing, in which case Enter only picks the candidate.
func (c *ChatController) Commit(ctx context.Context) error {
	turn, err := c.BeginCommit()
	if err != nil {
		return err
	}
	return c.Finish(ctx, turn)
}

// Send submits the draft and waits for the reply. The returned error is
// either a rejection (see IsRejection) or the model failure, which is also
// already reflected in the conversation.
func (c *ChatController) Send(ctx context.Context) error {
	turn, err := c.BeginSend()
	if err != nil {
		return err
	}
	return c.Finish(ctx, turn)
}

// BeginCommit is BeginSend for the Enter key: it is refused while an input
// method is composing.
func (c *ChatController) BeginCommit() (PendingTurn, error) {
	return c.begin(true)
}

// BeginSend checks the draft against the current state, appends it as the
// user message and clears the input. It does not wait for the model; pass
// the turn to Finish for that.
func (c *ChatController) BeginSend() (PendingTurn, error) {
	return c.begin(false)
}

func (c *ChatController) begin(enterKey bool) (PendingTurn, error) {
	c.mu.Lock()
	text := c.input
	switch {
	case c.initError != "" || c.closed:
		c.mu.Unlock()
		return PendingTurn{}, ErrUnavailable
	case enterKey && c.composing:
		c.mu.Unlock()
		return PendingTurn{}, ErrComposing
	case c.state == ChatSending:
		c.mu.Unlock()
		return PendingTurn{}, models.ErrBusy
	case strings.TrimSpace(text) == "":
		c.mu.Unlock()
		return PendingTurn{}, ErrEmptyInput
	}

	turn := PendingTurn{
		message: models.NewMessage(models.RoleUser, text, c.deps.Now()),
		handle:  c.handle,
	}
	c.messages = append(c.messages, turn.message)
	c.input = ""
	c.state = ChatSending
	metrics.Transition("chat", string(ChatSending))
	c.mu.Unlock()

	c.publish()
	return turn, nil
}

// Finish asks the model for the reply to turn and appends it, or the error
// notice when the call fails.
func (c *ChatController) Finish(ctx context.Context, turn PendingTurn) error {
	c.deps.journalMessage(c.id, turn.message)
	reply, err := c.exchange(ctx, turn.handle, turn.message.Text)

	c.mu.Lock()
	c.state = ChatIdle
	metrics.Transition("chat", string(ChatIdle))

	var botMsg models.ConversationMessage
	if err != nil {
		c.deps.Logger.Error("chat turn failed", zap.Error(err))
		botMsg = models.NewMessage(models.RoleAssistant, ChatErrorNotice, c.deps.Now())
		if models.IsCredentialError(err) {
			c.initError = CredentialErrorText
		}
	} else {
		botMsg = models.NewMessage(models.RoleAssistant, reply, c.deps.Now())
		c.initError = ""
	}
	c.messages = append(c.messages, botMsg)
	c.mu.Unlock()

	c.publish()
	c.deps.journalMessage(c.id, botMsg)
	return err
}

// exchange sends one turn, opening the remote conversation first when Mount
// did not.
func (c *ChatController) exchange(ctx context.Context, handle models.ConversationHandle, text string) (string, error) {
	if handle == nil {
		h, err := c.deps.Assistant.NewConversation(ctx)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		if !c.closed && c.handle == nil {
			c.handle = h
		}
		c.mu.Unlock()
		handle = h
	}

	raw, err := c.deps.Assistant.Chat(ctx, handle, text)
	if err != nil {
		return "", err
	}
	if raw == "" {
		raw = FallbackReply
	}
	reply := sanitizer.StripMarkdown(raw)
	if reply == "" {
		reply = FallbackReply
	}
	return reply, nil
}

// Snapshot returns the current chat state.
func (c *ChatController) Snapshot() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// ChatSnapshot is Snapshot with its concrete type.
func (c *ChatController) ChatSnapshot() ChatSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *ChatController) snapshotLocked() ChatSnapshot {
	online := c.initError == ""
	placeholder := placeholderOnline
	if !online {
		placeholder = placeholderOffline
	}
	return ChatSnapshot{
		ConversationID: c.id,
		State:          c.state,
		Messages:       append([]models.ConversationMessage(nil), c.messages...),
		Input:          c.input,
		Composing:      c.composing,
		InitError:      c.initError,
		Online:         online,
		InputDisabled:  !online,
		SendDisabled:   c.state == ChatSending,
		Placeholder:    placeholder,
	}
}

// publish renders the state as it is now. Renders are serialized, so the
// last one always shows the latest state.
func (c *ChatController) publish() {
	c.pub.Lock()
	defer c.pub.Unlock()
	c.mu.Lock()
	snap, closed := c.snapshotLocked(), c.closed
	c.mu.Unlock()
	if !closed {
		c.deps.Renderer.Render(models.RouteChat, snap)
	}
}
