package sessions

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Desarso/babyzen/controllers"
	"github.com/Desarso/babyzen/logger"
	"github.com/Desarso/babyzen/media"
)

// NewWebSocketSession binds one client connection to a fresh navigation
// shell. Every view the shell mounts renders straight to the connection.
func NewWebSocketSession(conn *websocket.Conn, deps controllers.Deps) *WebSocketSession {
	sessionID := uuid.NewString()
	log := logger.OrNop(deps.Logger).With(zap.String("session", sessionID))
	writer := &WebSocketWriter{
		Conn:   conn,
		Logger: log,
	}

	s := &WebSocketSession{
		SessionID: sessionID,
		Writer:    writer,
		Recorder:  media.NewStreamRecorder(""),
		Logger:    log,
	}

	deps.SessionID = sessionID
	deps.Logger = log
	deps.Renderer = controllers.RenderFunc(s.render)
	s.Shell = controllers.NewShell(controllers.NewViewFactory(deps, s.Recorder), log)
	return s
}

// NewHandlers creates the HTTP handlers. conversations backs the REST chat
// endpoints.
func NewHandlers(deps controllers.Deps, conversations *ConversationRegistry) *Handlers {
	log := logger.OrNop(deps.Logger)
	deps.Logger = log
	return &Handlers{
		Deps:          deps,
		Conversations: conversations,
		Logger:        log,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The app is served from a different origin than the API.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}
