// Package controllers holds the view state machines of the app. Each
// controller owns its state behind a mutex and publishes an immutable
// snapshot to its Renderer after every change. Neither model calls nor
// renders happen while the state lock is held.
//
// Operations that wait on the model come in two steps. The Begin step
// checks and applies the state change synchronously; Finish makes the call
// and applies its outcome. Callers that dispatch events from one goroutine
// run Begin inline so later events observe its effect.
package controllers

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Desarso/babyzen/logger"
	"github.com/Desarso/babyzen/models"
	"github.com/Desarso/babyzen/stores"
)

var (
	ErrEmptyInput   = errors.New("message is empty")
	ErrComposing    = errors.New("input method composition in progress")
	ErrUnavailable  = errors.New("assistant is unavailable")
	ErrInvalidAge   = errors.New("age is not one of the allowed values")
	ErrInvalidState = errors.New("operation not allowed in the current state")
)

// IsRejection reports whether err means the operation was refused up front,
// as opposed to failing while it ran.
func IsRejection(err error) bool {
	return errors.Is(err, models.ErrBusy) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrComposing) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrInvalidAge) ||
		errors.Is(err, ErrInvalidState)
}

// Assistant is the AI client as seen by the controllers.
type Assistant interface {
	AnalyzeAudio(ctx context.Context, req models.AnalysisRequest) (string, error)
	AnalyzeImage(ctx context.Context, req models.AnalysisRequest) (string, error)
	NewConversation(ctx context.Context) (models.ConversationHandle, error)
	Chat(ctx context.Context, handle models.ConversationHandle, text string) (string, error)
}

// PendingAnalysis is a capture handed to the model but not answered yet.
type PendingAnalysis struct {
	req        models.AnalysisRequest
	generation int
}

// Renderer receives view snapshots.
type Renderer interface {
	Render(route models.Route, snapshot any)
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(route models.Route, snapshot any)

func (f RenderFunc) Render(route models.Route, snapshot any) { f(route, snapshot) }

type discardRenderer struct{}

func (discardRenderer) Render(models.Route, any) {}

// View is a mountable screen.
type View interface {
	Route() models.Route
	Mount(ctx context.Context)
	Unmount()
	Snapshot() any
}

// Deps are the collaborators shared by every controller of a session.
type Deps struct {
	Assistant Assistant
	Journal   stores.Journal
	Renderer  Renderer
	Logger    *zap.Logger
	// Now defaults to time.Now. Tests inject a fake clock.
	Now       func() time.Time
	SessionID string
}

func (d Deps) withDefaults() Deps {
	if d.Journal == nil {
		d.Journal = stores.NopStore{}
	}
	if d.Renderer == nil {
		d.Renderer = discardRenderer{}
	}
	d.Logger = logger.OrNop(d.Logger)
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// journalTimeout bounds journal writes, which run detached from the request.
const journalTimeout = 5 * time.Second

func (d Deps) journalAnalysis(entry *stores.Analysis) {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := d.Journal.SaveAnalysis(ctx, entry); err != nil {
		d.Logger.Warn("failed to journal analysis", zap.String("kind", entry.Kind), zap.Error(err))
	}
}

func (d Deps) journalMessage(conversationID string, msg models.ConversationMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := d.Journal.SaveMessage(ctx, d.SessionID, conversationID, msg); err != nil {
		d.Logger.Warn("failed to journal chat message", zap.String("conversation", conversationID), zap.Error(err))
	}
}
