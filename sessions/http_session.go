package sessions

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Desarso/babyzen/controllers"
	"github.com/Desarso/babyzen/media"
	"github.com/Desarso/babyzen/models"
	"github.com/Desarso/babyzen/stores"
)

const (
	defaultTranscriptLimit = 100
	defaultAnalysesLimit   = 20
)

// Handlers serves the HTTP API. The analysis endpoints drive a throwaway
// controller per request, so they behave exactly like the live views.
type Handlers struct {
	Deps          controllers.Deps
	Conversations *ConversationRegistry
	Upgrader      websocket.Upgrader
	Logger        *zap.Logger
	// Model is reported by the health check.
	Model string
}

// Health godoc
// @Summary  Liveness and journal connectivity
// @Tags     system
// @Produce  json
// @Success  200 {object} map[string]string
// @Failure  503 {object} models.Error_Response
// @Router   /healthz [get]
func (h *Handlers) Health(c *gin.Context) {
	if err := h.journal().Ping(); err != nil {
		h.Logger.Warn("journal ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, models.Error_Response{Error: "journal unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "model": h.Model})
}

// AnalyzeCry godoc
// @Summary  Interpret a recorded cry
// @Tags     cry
// @Accept   multipart/form-data
// @Produce  json
// @Param    audio formData file true "Recorded audio"
// @Success  200 {object} controllers.CrySnapshot
// @Failure  400 {object} models.Error_Response
// @Failure  413 {object} models.Error_Response
// @Failure  502 {object} models.Error_Response
// @Failure  503 {object} models.Error_Response
// @Router   /cry/analyze [post]
func (h *Handlers) AnalyzeCry(c *gin.Context) {
	fh, err := c.FormFile("audio")
	if err != nil {
		h.fail(c, &SessionError{Message: "audio file is required"})
		return
	}
	blob, err := openUpload(fh, func(f multipart.File) (media.Blob, error) {
		return media.ReadAudio(f, fh.Header.Get("Content-Type"), media.MaxAudioBytes)
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	rec := media.NewStreamRecorder(blob.MIMEType)
	cry := controllers.NewCryController(h.requestDeps(c), rec).WithTickInterval(0)
	if err := cry.Start(ctx); err != nil {
		h.fail(c, err)
		return
	}
	if _, err := rec.Write(blob.Data); err != nil {
		cry.Unmount()
		h.fail(c, err)
		return
	}
	if err := cry.Stop(ctx); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cry.CrySnapshot())
}

// AnalyzeFood godoc
// @Summary  Check whether a photographed food suits the baby's age
// @Tags     food
// @Accept   multipart/form-data
// @Produce  json
// @Param    image      formData file true  "Food photo"
// @Param    age_months formData int  false "Baby age in months (default 6)"
// @Success  200 {object} controllers.FoodSnapshot
// @Failure  400 {object} models.Error_Response
// @Failure  413 {object} models.Error_Response
// @Failure  502 {object} models.Error_Response
// @Failure  503 {object} models.Error_Response
// @Router   /food/analyze [post]
func (h *Handlers) AnalyzeFood(c *gin.Context) {
	var form models.Food_Analysis_Form
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, &SessionError{Message: "invalid form: " + err.Error()})
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		h.fail(c, &SessionError{Message: "image file is required"})
		return
	}
	img, err := openUpload(fh, func(f multipart.File) (media.Blob, error) {
		return media.ReadImage(f, fh.Header.Get("Content-Type"), media.MaxImageBytes)
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	food := controllers.NewFoodController(h.requestDeps(c))
	if form.AgeMonths != 0 {
		if err := food.SetAge(form.AgeMonths); err != nil {
			h.fail(c, err)
			return
		}
	}
	if err := food.Select(c.Request.Context(), img); err != nil {
		h.fail(c, err)
		return
	}
	snap := food.FoodSnapshot()
	// The client already has the image.
	snap.Preview = ""
	c.JSON(http.StatusOK, snap)
}

// CreateChat godoc
// @Summary  Start a conversation with the parenting assistant
// @Tags     chat
// @Produce  json
// @Success  201 {object} controllers.ChatSnapshot
// @Router   /chat [post]
func (h *Handlers) CreateChat(c *gin.Context) {
	chat := h.Conversations.Create(c.Request.Context())
	c.JSON(http.StatusCreated, chat.ChatSnapshot())
}

// SendChat godoc
// @Summary  Send a message and wait for the reply
// @Tags     chat
// @Accept   json
// @Produce  json
// @Param    conversationID path string              true "Conversation ID"
// @Param    request        body models.Chat_Request true "Message"
// @Success  200 {object} controllers.ChatSnapshot
// @Failure  400 {object} models.Error_Response
// @Failure  404 {object} models.Error_Response
// @Failure  409 {object} models.Error_Response
// @Failure  502 {object} models.Error_Response
// @Failure  503 {object} models.Error_Response
// @Router   /chat/{conversationID} [post]
func (h *Handlers) SendChat(c *gin.Context) {
	chat, ok := h.conversation(c)
	if !ok {
		return
	}
	var req models.Chat_Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, &SessionError{Message: "invalid request: " + err.Error()})
		return
	}
	if err := chat.SetInput(req.Message); err != nil {
		h.fail(c, err)
		return
	}
	if err := chat.Send(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chat.ChatSnapshot())
}

// GetChat godoc
// @Summary  Current state of a conversation
// @Tags     chat
// @Produce  json
// @Param    conversationID path string true "Conversation ID"
// @Success  200 {object} controllers.ChatSnapshot
// @Failure  404 {object} models.Error_Response
// @Router   /chat/{conversationID} [get]
func (h *Handlers) GetChat(c *gin.Context) {
	chat, ok := h.conversation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, chat.ChatSnapshot())
}

// DeleteChat godoc
// @Summary  End a conversation
// @Tags     chat
// @Param    conversationID path string true "Conversation ID"
// @Success  204
// @Failure  404 {object} models.Error_Response
// @Router   /chat/{conversationID} [delete]
func (h *Handlers) DeleteChat(c *gin.Context) {
	if !h.Conversations.Delete(c.Param("conversationID")) {
		c.JSON(http.StatusNotFound, models.Error_Response{Error: "conversation not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTranscript godoc
// @Summary  Journaled messages of a conversation
// @Tags     journal
// @Produce  json
// @Param    conversationID path  string true  "Conversation ID"
// @Param    limit          query int    false "Keep only the last N messages"
// @Success  200 {object} map[string][]models.ChatMessageResponse
// @Failure  500 {object} models.Error_Response
// @Router   /chat/{conversationID}/transcript [get]
func (h *Handlers) GetTranscript(c *gin.Context) {
	limit := queryInt(c, "limit", defaultTranscriptLimit)
	msgs, err := h.journal().FetchTranscript(c.Request.Context(), c.Param("conversationID"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]models.ChatMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// ListAnalyses godoc
// @Summary  Journaled analyses, newest first
// @Tags     journal
// @Produce  json
// @Param    session_id query string false "Only this session"
// @Param    limit      query int    false "Maximum number of entries"
// @Success  200 {object} map[string][]models.AnalysisResponse
// @Failure  500 {object} models.Error_Response
// @Router   /analyses [get]
func (h *Handlers) ListAnalyses(c *gin.Context) {
	limit := queryInt(c, "limit", defaultAnalysesLimit)
	entries, err := h.journal().ListAnalyses(c.Request.Context(), c.Query("session_id"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]models.AnalysisResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"analyses": out})
}

// ServeWS godoc
// @Summary  Live session: client events in, view snapshots out
// @Tags     live
// @Success  101
// @Router   /ws [get]
func (h *Handlers) ServeWS(c *gin.Context) {
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session := NewWebSocketSession(conn, h.Deps)
	if err := session.Run(c.Request.Context()); err != nil {
		session.Logger.Warn("websocket session closed with error", zap.Error(err))
	}
}

func (h *Handlers) conversation(c *gin.Context) (*controllers.ChatController, bool) {
	chat, ok := h.Conversations.Get(c.Param("conversationID"))
	if !ok {
		c.JSON(http.StatusNotFound, models.Error_Response{Error: "conversation not found"})
	}
	return chat, ok
}

// requestDeps are the controller deps of one stateless request.
func (h *Handlers) requestDeps(c *gin.Context) controllers.Deps {
	deps := h.Deps
	deps.SessionID = c.GetHeader("X-Session-ID")
	if deps.SessionID == "" {
		deps.SessionID = uuid.NewString()
	}
	deps.Logger = h.Logger.With(zap.String("session", deps.SessionID))
	deps.Renderer = nil
	return deps
}

func (h *Handlers) journal() stores.Journal {
	if h.Deps.Journal == nil {
		return stores.NopStore{}
	}
	return h.Deps.Journal
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, models.Error_Response{Error: err.Error()})
}

// StatusFor maps an error onto the HTTP status returned for it.
func StatusFor(err error) int {
	var (
		configErr    *models.ConfigurationError
		captureErr   *models.CaptureError
		transportErr *models.TransportError
		sessionErr   *SessionError
	)
	switch {
	case errors.Is(err, models.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &configErr), errors.Is(err, controllers.ErrUnavailable), models.IsCredentialError(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case controllers.IsRejection(err), errors.As(err, &captureErr), errors.As(err, &sessionErr):
		return http.StatusBadRequest
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func openUpload(fh *multipart.FileHeader, read func(multipart.File) (media.Blob, error)) (media.Blob, error) {
	f, err := fh.Open()
	if err != nil {
		return media.Blob{}, &SessionError{Message: "failed to open upload: " + err.Error()}
	}
	defer f.Close()
	return read(f)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
