package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Desarso/babyzen/controllers"
	"github.com/Desarso/babyzen/media"
	"github.com/Desarso/babyzen/models"
)

const (
	writeWait = 10 * time.Second
	// maxEventBytes fits a base64 encoded image plus the JSON envelope.
	maxEventBytes = media.MaxImageBytes*4/3 + 64<<10
)

// ErrViewNotMounted is returned for an event addressed to a screen the
// client is not currently on.
var ErrViewNotMounted = errors.New("view is not mounted")

// SessionError represents errors that can occur while handling client
// events. Fatal errors end the session.
type SessionError struct {
	Message string
	Fatal   bool
}

func (e *SessionError) Error() string {
	return e.Message
}

// WebSocketWriter serializes all writes to one connection. Controllers
// publish from several goroutines.
type WebSocketWriter struct {
	Conn   *websocket.Conn
	Logger *zap.Logger
	mu     sync.Mutex
}

func (w *WebSocketWriter) WriteEvent(ev models.Server_Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.Conn.WriteJSON(ev)
}

// WriteState sends the snapshot of the view mounted at route.
func (w *WebSocketWriter) WriteState(route models.Route, view any) error {
	return w.WriteEvent(models.Server_Event{Type: models.EventState, Route: route, View: view})
}

func (w *WebSocketWriter) WriteNavigation(snap controllers.ShellSnapshot) error {
	return w.WriteEvent(models.Server_Event{Type: models.EventNavigation, Route: snap.Current, View: snap})
}

func (w *WebSocketWriter) WriteError(message string) error {
	return w.WriteEvent(models.Server_Event{Type: models.EventError, Error: message})
}
