// Package babyzen assembles the parenting assistant service: the Gemini
// client, the journal, the live websocket views and the HTTP API.
package babyzen

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Desarso/babyzen/controllers"
	"github.com/Desarso/babyzen/logger"
	"github.com/Desarso/babyzen/models/gemini"
	"github.com/Desarso/babyzen/sessions"
	"github.com/Desarso/babyzen/stores"
)

// App is the composition root. The AI client is built once and shared by
// every session.
type App struct {
	Config        *Config
	Logger        *zap.Logger
	Client        *gemini.Client
	Journal       stores.Journal
	Conversations *sessions.ConversationRegistry
	Router        *gin.Engine
}

func NewApp(ctx context.Context, cfg *Config, log *zap.Logger) (*App, error) {
	log = logger.OrNop(log)

	client, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		Timeout: cfg.Gemini.Timeout,
		BaseURL: cfg.Gemini.BaseURL,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	journal, err := stores.NewStore(cfg.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	deps := controllers.Deps{
		Assistant: client,
		Journal:   journal,
		Logger:    log,
	}
	registry := sessions.NewConversationRegistry(deps, cfg.Conversations.IdleTimeout)
	handlers := sessions.NewHandlers(deps, registry)
	handlers.Model = client.Model()

	if err := client.Ready(); err != nil {
		log.Warn("starting without AI credentials", zap.Error(err))
	}
	log.Info("app configured",
		zap.String("model", client.Model()),
		zap.String("store", cfg.Store.Type),
	)

	return &App{
		Config:        cfg,
		Logger:        log,
		Client:        client,
		Journal:       journal,
		Conversations: registry,
		Router:        sessions.NewRouter(handlers),
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
// Websocket sessions end with ctx as well.
func (a *App) Run(ctx context.Context) error {
	if err := a.Conversations.Start(a.Config.Conversations.SweepSchedule); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.Config.Server.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// Close stops the conversation sweep and closes the journal.
func (a *App) Close() error {
	a.Conversations.Stop()
	return a.Journal.Close()
}
