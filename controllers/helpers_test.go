package controllers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Desarso/babyzen/models"
	"github.com/Desarso/babyzen/stores"
)

type fakeHandle struct{ id string }

func (h *fakeHandle) ConversationID() string { return h.id }

// fakeAssistant answers from the configured funcs. Unset funcs return an
// error so tests notice unexpected calls.
type fakeAssistant struct {
	mu            sync.Mutex
	audio         func(ctx context.Context, req models.AnalysisRequest) (string, error)
	image         func(ctx context.Context, req models.AnalysisRequest) (string, error)
	newConvErr    error
	chat          func(ctx context.Context, h models.ConversationHandle, text string) (string, error)
	conversations int
	chatCalls     []string
}

var errUnexpected = errors.New("unexpected call")

func (f *fakeAssistant) AnalyzeAudio(ctx context.Context, req models.AnalysisRequest) (string, error) {
	if f.audio == nil {
		return "", errUnexpected
	}
	return f.audio(ctx, req)
}

func (f *fakeAssistant) AnalyzeImage(ctx context.Context, req models.AnalysisRequest) (string, error) {
	if f.image == nil {
		return "", errUnexpected
	}
	return f.image(ctx, req)
}

func (f *fakeAssistant) NewConversation(context.Context) (models.ConversationHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.newConvErr != nil {
		return nil, f.newConvErr
	}
	f.conversations++
	return &fakeHandle{id: "conv"}, nil
}

func (f *fakeAssistant) Chat(ctx context.Context, h models.ConversationHandle, text string) (string, error) {
	f.mu.Lock()
	f.chatCalls = append(f.chatCalls, text)
	fn := f.chat
	f.mu.Unlock()
	if fn == nil {
		return "", errUnexpected
	}
	return fn(ctx, h, text)
}

func (f *fakeAssistant) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.chatCalls...)
}

func (f *fakeAssistant) conversationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conversations
}

type frame struct {
	route    models.Route
	snapshot any
}

// recordingRenderer keeps every frame it was given.
type recordingRenderer struct {
	mu     sync.Mutex
	frames []frame
}

func (r *recordingRenderer) Render(route models.Route, snapshot any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame{route: route, snapshot: snapshot})
}

func (r *recordingRenderer) all() []frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]frame(nil), r.frames...)
}

func (r *recordingRenderer) chatFrames() []ChatSnapshot {
	var out []ChatSnapshot
	for _, f := range r.all() {
		if s, ok := f.snapshot.(ChatSnapshot); ok {
			out = append(out, s)
		}
	}
	return out
}

func (r *recordingRenderer) cryFrames() []CrySnapshot {
	var out []CrySnapshot
	for _, f := range r.all() {
		if s, ok := f.snapshot.(CrySnapshot); ok {
			out = append(out, s)
		}
	}
	return out
}

func (r *recordingRenderer) foodFrames() []FoodSnapshot {
	var out []FoodSnapshot
	for _, f := range r.all() {
		if s, ok := f.snapshot.(FoodSnapshot); ok {
			out = append(out, s)
		}
	}
	return out
}

// fakeClock only moves when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memoryJournal records journal writes.
type memoryJournal struct {
	stores.NopStore
	mu       sync.Mutex
	analyses []*stores.Analysis
	messages []models.ConversationMessage
}

func (j *memoryJournal) SaveAnalysis(_ context.Context, e *stores.Analysis) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.analyses = append(j.analyses, e)
	return nil
}

func (j *memoryJournal) SaveMessage(_ context.Context, _, _ string, m models.ConversationMessage) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.messages = append(j.messages, m)
	return nil
}

func (j *memoryJournal) savedAnalyses() []*stores.Analysis {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]*stores.Analysis(nil), j.analyses...)
}

func (j *memoryJournal) savedMessages() []models.ConversationMessage {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]models.ConversationMessage(nil), j.messages...)
}

type harness struct {
	assistant *fakeAssistant
	renderer  *recordingRenderer
	clock     *fakeClock
	journal   *memoryJournal
	deps      Deps
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		assistant: &fakeAssistant{},
		renderer:  &recordingRenderer{},
		clock:     newFakeClock(),
		journal:   &memoryJournal{},
	}
	h.deps = Deps{
		Assistant: h.assistant,
		Journal:   h.journal,
		Renderer:  h.renderer,
		Logger:    zaptest.NewLogger(t),
		Now:       h.clock.Now,
		SessionID: "test-session",
	}
	return h
}

// gate blocks a fake call until released.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) {
	g.entered <- struct{}{}
	select {
	case <-g.release:
	case <-ctx.Done():
	}
}
