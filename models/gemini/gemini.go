// Package gemini is the generative model client behind the three features.
// It holds no hidden conversation state: chats are addressed through an
// explicit models.ConversationHandle.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Desarso/babyzen/logger"
	"github.com/Desarso/babyzen/media"
	"github.com/Desarso/babyzen/metrics"
	"github.com/Desarso/babyzen/models"
	"github.com/Desarso/babyzen/schemas"
)

// Config configures a Client.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// BaseURL overrides the service endpoint. Tests point it at a local
	// server.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client calls the Gemini API.
type Client struct {
	genai   *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger

	// configErr is set when the client was built without credentials. Every
	// operation then fails with it before touching the network.
	configErr error
}

// NewClient builds a client. A missing API key does not fail construction;
// it is reported by each operation instead so the app can still start and
// render its offline state.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	c := &Client{
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.OrNop(cfg.Logger).Named("gemini"),
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		c.configErr = &models.ConfigurationError{
			Key:     "GEMINI_API_KEY",
			Message: "API Key is missing. Please check your environment configuration.",
		}
		c.logger.Warn("no API key configured, AI features are offline")
		return c, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.genai = client
	return c, nil
}

// Model returns the model name used for every call.
func (c *Client) Model() string { return c.model }

// Ready reports whether the client has credentials.
func (c *Client) Ready() error { return c.configErr }

// AnalyzeAudio asks for a cry analysis of the recording. The returned text is
// the raw JSON produced by the model, "{}" when it produced nothing.
func (c *Client) AnalyzeAudio(ctx context.Context, req models.AnalysisRequest) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Payload, media.AudioType(req.MIMEType)),
		genai.NewPartFromText(audioPrompt),
	}
	return c.generate(ctx, OpAnalyzeAudio, parts, schemas.AudioAnalysis)
}

// AnalyzeImage asks whether the pictured food suits a baby of the age in
// req.Context.
func (c *Client) AnalyzeImage(ctx context.Context, req models.AnalysisRequest) (string, error) {
	age := req.Context.SubjectAgeMonths
	if age <= 0 {
		age = models.DefaultAgeMonths
	}
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Payload, req.MIMEType),
		genai.NewPartFromText(fmt.Sprintf(imagePromptFormat, age)),
	}
	return c.generate(ctx, OpAnalyzeImage, parts, schemas.FoodAnalysis)
}

func (c *Client) generate(ctx context.Context, op string, parts []*genai.Part, schemaName string) (string, error) {
	if c.configErr != nil {
		return "", c.configErr
	}
	schema, err := schemas.Genai(schemaName)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, config)
	metrics.ObserveAI(op, started, err)
	if err != nil {
		c.logger.Error("model call failed", zap.String("op", op), zap.Error(err))
		return "", &models.TransportError{Op: op, Err: err}
	}

	text := resp.Text()
	c.logger.Debug("model call finished",
		zap.String("op", op),
		zap.Duration("took", time.Since(started)),
		zap.Int("chars", len(text)))
	if strings.TrimSpace(text) == "" {
		return "{}", nil
	}
	return text, nil
}

// conversation is the handle of one remote chat session.
type conversation struct {
	id   string
	chat *genai.Chat
}

func (h *conversation) ConversationID() string { return h.id }

// NewConversation opens a chat session that carries the assistant persona.
func (c *Client) NewConversation(ctx context.Context) (models.ConversationHandle, error) {
	if c.configErr != nil {
		return nil, c.configErr
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(ChatTemperature),
	}
	chat, err := c.genai.Chats.Create(ctx, c.model, config, nil)
	if err != nil {
		return nil, &models.TransportError{Op: OpNewConversation, Err: err}
	}
	h := &conversation{id: uuid.NewString(), chat: chat}
	c.logger.Debug("conversation created", zap.String("conversation", h.id))
	return h, nil
}

// ErrForeignHandle is returned when Chat gets a handle this client did not
// create.
var ErrForeignHandle = errors.New("conversation handle was not created by this client")

// Chat sends one user turn on the conversation and returns the reply text,
// which may be empty.
func (c *Client) Chat(ctx context.Context, handle models.ConversationHandle, text string) (string, error) {
	if c.configErr != nil {
		return "", c.configErr
	}
	h, ok := handle.(*conversation)
	if !ok || h == nil {
		return "", fmt.Errorf("%s: %w", OpChat, ErrForeignHandle)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	resp, err := h.chat.SendMessage(ctx, genai.Part{Text: text})
	metrics.ObserveAI(OpChat, started, err)
	if err != nil {
		c.logger.Error("chat turn failed", zap.String("conversation", h.id), zap.Error(err))
		return "", &models.TransportError{Op: OpChat, Err: err}
	}
	return resp.Text(), nil
}
