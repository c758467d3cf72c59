package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Desarso/babyzen/controllers"
	"github.com/Desarso/babyzen/media"
	"github.com/Desarso/babyzen/metrics"
	"github.com/Desarso/babyzen/models"
)

// WebSocketSession runs the whole app for one connected client. Client
// events are read and applied in order by a single goroutine. Only the wait
// for the model runs in its own goroutine, so the client can still navigate
// or clear while it is in flight.
type WebSocketSession struct {
	SessionID string
	Writer    *WebSocketWriter
	Shell     *controllers.Shell
	Recorder  *media.StreamRecorder
	Logger    *zap.Logger

	wg sync.WaitGroup
}

// Run serves the connection until the client goes away or ctx ends. Pending
// model calls are cancelled and awaited before Run returns.
func (s *WebSocketSession) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	metrics.WebSocketSessions.Inc()
	s.Logger.Info("websocket session started")
	defer func() {
		cancel()
		s.Shell.Close()
		s.wg.Wait()
		metrics.WebSocketSessions.Dec()
		s.Logger.Info("websocket session ended")
	}()

	go func() {
		<-ctx.Done()
		// Unblocks ReadMessage when the server shuts down.
		_ = s.Writer.Conn.SetReadDeadline(time.Now())
	}()

	s.Writer.Conn.SetReadLimit(maxEventBytes)
	s.Shell.Start(ctx)
	s.writeNavigation()

	for {
		_, data, err := s.Writer.Conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return &SessionError{Message: "read failed: " + err.Error(), Fatal: true}
		}

		var ev models.Client_Event
		if err := json.Unmarshal(data, &ev); err != nil {
			s.report("decode", &SessionError{Message: "invalid event: " + err.Error()})
			continue
		}
		if err := s.Dispatch(ctx, ev); err != nil {
			s.report(ev.Type, err)
		}
	}
}

// Dispatch applies one client event to the mounted view. Operations that
// call the model take effect before Dispatch returns; their outcome is
// reported later through the view snapshot.
func (s *WebSocketSession) Dispatch(ctx context.Context, ev models.Client_Event) error {
	s.Logger.Debug("client event", zap.String("type", ev.Type))

	switch ev.Type {
	case models.EventNavigate:
		s.Shell.Navigate(ctx, ev.Route)
		s.writeNavigation()
		return nil

	case models.EventChatInput:
		chat, err := mounted[*controllers.ChatController](s.Shell)
		if err != nil {
			return err
		}
		return chat.SetInput(ev.Text)
	case models.EventChatCompositionStart:
		chat, err := mounted[*controllers.ChatController](s.Shell)
		if err != nil {
			return err
		}
		chat.CompositionStart()
		return nil
	case models.EventChatCompositionEnd:
		chat, err := mounted[*controllers.ChatController](s.Shell)
		if err != nil {
			return err
		}
		chat.CompositionEnd()
		return nil
	case models.EventChatCommit:
		chat, err := mounted[*controllers.ChatController](s.Shell)
		if err != nil {
			return err
		}
		turn, err := chat.BeginCommit()
		if err != nil {
			return err
		}
		s.async(ctx, ev.Type, func(ctx context.Context) error {
			return chat.Finish(ctx, turn)
		})
		return nil
	case models.EventChatSend:
		chat, err := mounted[*controllers.ChatController](s.Shell)
		if err != nil {
			return err
		}
		if ev.Text != "" {
			if err := chat.SetInput(ev.Text); err != nil {
				return err
			}
		}
		turn, err := chat.BeginSend()
		if err != nil {
			return err
		}
		s.async(ctx, ev.Type, func(ctx context.Context) error {
			return chat.Finish(ctx, turn)
		})
		return nil

	case models.EventCryStart:
		cry, err := mounted[*controllers.CryController](s.Shell)
		if err != nil {
			return err
		}
		s.Recorder.SetMIMEType(ev.MimeType)
		if ev.Denied {
			s.Recorder.Deny("NotAllowedError")
		} else {
			s.Recorder.Allow()
		}
		return cry.Start(ctx)
	case models.EventCryChunk:
		if _, err := mounted[*controllers.CryController](s.Shell); err != nil {
			return err
		}
		blob, err := decodeInline(ev.InlineData)
		if err != nil {
			return err
		}
		_, err = s.Recorder.Write(blob.Data)
		return err
	case models.EventCryStop:
		cry, err := mounted[*controllers.CryController](s.Shell)
		if err != nil {
			return err
		}
		pending, err := cry.BeginStop()
		if err != nil {
			return err
		}
		s.async(ctx, ev.Type, func(ctx context.Context) error {
			return cry.Finish(ctx, pending)
		})
		return nil
	case models.EventCryReset:
		cry, err := mounted[*controllers.CryController](s.Shell)
		if err != nil {
			return err
		}
		return cry.Reset()

	case models.EventFoodAge:
		food, err := mounted[*controllers.FoodController](s.Shell)
		if err != nil {
			return err
		}
		return food.SetAge(ev.AgeMonths)
	case models.EventFoodSelect:
		food, err := mounted[*controllers.FoodController](s.Shell)
		if err != nil {
			return err
		}
		blob, err := decodeInline(ev.InlineData)
		if err != nil {
			return err
		}
		img, err := media.ReadImage(bytes.NewReader(blob.Data), blob.MIMEType, media.MaxImageBytes)
		if err != nil {
			return err
		}
		pending, err := food.BeginSelect(img)
		if err != nil {
			return err
		}
		s.async(ctx, ev.Type, func(ctx context.Context) error {
			return food.Finish(ctx, pending)
		})
		return nil
	case models.EventFoodClear:
		food, err := mounted[*controllers.FoodController](s.Shell)
		if err != nil {
			return err
		}
		food.Clear()
		return nil
	}

	return &SessionError{Message: "unknown event type: " + ev.Type}
}

// Wait blocks until every operation started by Dispatch has finished.
func (s *WebSocketSession) Wait() {
	s.wg.Wait()
}

func (s *WebSocketSession) async(ctx context.Context, op string, fn func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(ctx); err != nil {
			s.report(op, err)
		}
	}()
}

// report tells the client about refused events and bad payloads. Failures of
// the model call itself are already part of the view state and are only
// logged.
func (s *WebSocketSession) report(op string, err error) {
	if !clientFault(err) {
		s.Logger.Warn("operation failed", zap.String("op", op), zap.Error(err))
		return
	}
	s.Logger.Debug("event rejected", zap.String("op", op), zap.Error(err))
	if werr := s.Writer.WriteError(err.Error()); werr != nil {
		s.Logger.Debug("failed to write error event", zap.Error(werr))
	}
}

func (s *WebSocketSession) render(route models.Route, snapshot any) {
	if err := s.Writer.WriteState(route, snapshot); err != nil {
		s.Logger.Debug("failed to write state", zap.String("route", string(route)), zap.Error(err))
	}
}

func (s *WebSocketSession) writeNavigation() {
	if err := s.Writer.WriteNavigation(s.Shell.Snapshot()); err != nil {
		s.Logger.Debug("failed to write navigation", zap.Error(err))
	}
}

func clientFault(err error) bool {
	var (
		sessionErr *SessionError
		captureErr *models.CaptureError
	)
	return controllers.IsRejection(err) ||
		errors.Is(err, ErrViewNotMounted) ||
		errors.As(err, &sessionErr) ||
		errors.As(err, &captureErr) ||
		errors.Is(err, media.ErrMalformedDataURL) ||
		errors.Is(err, media.ErrTooLarge) ||
		errors.Is(err, media.ErrNotRecording)
}

func decodeInline(data *models.InlineData) (media.Blob, error) {
	if data == nil || data.Data == "" {
		return media.Blob{}, &SessionError{Message: "inline_data is required"}
	}
	blob, err := media.Decode(data.Data, data.MimeType)
	if err != nil {
		return media.Blob{}, &SessionError{Message: err.Error()}
	}
	return blob, nil
}

// mounted returns the current view if it is a T.
func mounted[T controllers.View](shell *controllers.Shell) (T, error) {
	v, ok := shell.Current().(T)
	if !ok {
		var zero T
		return zero, ErrViewNotMounted
	}
	return v, nil
}
