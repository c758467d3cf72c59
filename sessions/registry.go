package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Desarso/babyzen/controllers"
	"github.com/Desarso/babyzen/logger"
	"github.com/Desarso/babyzen/metrics"
)

// DefaultIdleTimeout is how long an HTTP conversation survives without use.
const DefaultIdleTimeout = 30 * time.Minute

type registryEntry struct {
	chat     *controllers.ChatController
	lastUsed time.Time
}

// ConversationRegistry holds the chat conversations of the REST API in
// memory. Conversations nobody touched for the idle timeout are dropped by a
// periodic sweep; nothing survives a restart.
type ConversationRegistry struct {
	deps controllers.Deps
	idle time.Duration
	now  func() time.Time
	log  *zap.Logger

	mu      sync.Mutex
	entries map[string]*registryEntry
	cron    *cron.Cron
}

func NewConversationRegistry(deps controllers.Deps, idle time.Duration) *ConversationRegistry {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	log := logger.OrNop(deps.Logger).Named("conversations")
	deps.Logger = log
	return &ConversationRegistry{
		deps:    deps,
		idle:    idle,
		now:     now,
		log:     log,
		entries: make(map[string]*registryEntry),
	}
}

// Create opens a new conversation and registers it under its ID.
func (r *ConversationRegistry) Create(ctx context.Context) *controllers.ChatController {
	chat := controllers.NewChatController(r.deps)
	chat.Mount(ctx)

	r.mu.Lock()
	r.entries[chat.ConversationID()] = &registryEntry{chat: chat, lastUsed: r.now()}
	n := len(r.entries)
	r.mu.Unlock()

	metrics.Conversations.Set(float64(n))
	r.log.Debug("conversation created", zap.String("conversation", chat.ConversationID()))
	return chat
}

// Get returns the conversation and marks it used.
func (r *ConversationRegistry) Get(id string) (*controllers.ChatController, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.chat, true
}

// Delete drops the conversation. A reply still in flight is discarded.
func (r *ConversationRegistry) Delete(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	n := len(r.entries)
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.chat.Unmount()
	metrics.Conversations.Set(float64(n))
	return true
}

func (r *ConversationRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops every idle conversation that is not waiting on a reply and
// returns how many it removed.
func (r *ConversationRegistry) Sweep() int {
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	var expired []*controllers.ChatController
	for id, e := range r.entries {
		if e.lastUsed.After(cutoff) {
			continue
		}
		if e.chat.ChatSnapshot().State == controllers.ChatSending {
			continue
		}
		expired = append(expired, e.chat)
		delete(r.entries, id)
	}
	n := len(r.entries)
	r.mu.Unlock()

	for _, chat := range expired {
		chat.Unmount()
	}
	metrics.Conversations.Set(float64(n))
	if len(expired) > 0 {
		r.log.Info("swept idle conversations", zap.Int("removed", len(expired)), zap.Int("remaining", n))
	}
	return len(expired)
}

// Start schedules Sweep with a cron spec such as "@every 1m".
func (r *ConversationRegistry) Start(spec string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return fmt.Errorf("conversation sweep already started")
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { r.Sweep() }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	c.Start()
	r.cron = c
	return nil
}

// Stop halts the sweep, waits for a running one, and drops every
// conversation.
func (r *ConversationRegistry) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}

	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mu.Unlock()
	for _, e := range entries {
		e.chat.Unmount()
	}
	metrics.Conversations.Set(0)
}
