package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/Desarso/babyzen/controllers"
	"github.com/Desarso/babyzen/models"
	"github.com/Desarso/babyzen/stores"
)

const (
	hungryJSON = `{"reason":"肚子餓","explanation":"哭聲短促有節奏","advice":["先餵奶","餵完拍嗝"]}`
	honeyJSON  = `{"itemName":"蜂蜜","isSafe":false,"riskLevel":"High","summary":"一歲以下不可食用","details":"可能含有肉毒桿菌孢子"}`
)

// pngBytes is enough of a PNG for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

type stubHandle struct{ id string }

func (h stubHandle) ConversationID() string { return h.id }

// stubAssistant answers every call with fixed output.
type stubAssistant struct {
	mu         sync.Mutex
	audioReply string
	imageReply string
	chatReply  string
	err        error
	newConvErr error
	lastAge    int
	lastAudio  []byte
	sent       []string
}

func (s *stubAssistant) AnalyzeAudio(_ context.Context, req models.AnalysisRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(req.Payload) == 0 {
		return "", errors.New("empty payload")
	}
	s.lastAudio = append([]byte(nil), req.Payload...)
	return s.audioReply, s.err
}

func (s *stubAssistant) AnalyzeImage(_ context.Context, req models.AnalysisRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAge = req.Context.SubjectAgeMonths
	return s.imageReply, s.err
}

func (s *stubAssistant) NewConversation(context.Context) (models.ConversationHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.newConvErr != nil {
		return nil, s.newConvErr
	}
	return stubHandle{id: "stub"}, nil
}

func (s *stubAssistant) Chat(_ context.Context, _ models.ConversationHandle, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, text)
	return s.chatReply, s.err
}

func (s *stubAssistant) sentTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func (s *stubAssistant) audio() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAudio
}

func (s *stubAssistant) age() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAge
}

type testServer struct {
	assistant *stubAssistant
	journal   *stores.SQLiteStore
	registry  *ConversationRegistry
	handlers  *Handlers
	router    *gin.Engine
}

func newTestServer(t *testing.T, assistant *stubAssistant) *testServer {
	return newTestServerWithLogger(t, assistant, zaptest.NewLogger(t))
}

// newTestServerWithLogger is for tests whose server goroutines may outlive
// the test, where a zaptest logger would fail the run.
func newTestServerWithLogger(t *testing.T, assistant *stubAssistant, log *zap.Logger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	journal, err := stores.NewSQLiteStoreSimple("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	deps := controllers.Deps{
		Assistant: assistant,
		Journal:   journal,
		Logger:    log,
	}
	registry := NewConversationRegistry(deps, 0)
	t.Cleanup(registry.Stop)

	h := NewHandlers(deps, registry)
	h.Model = "test-model"
	return &testServer{
		assistant: assistant,
		journal:   journal,
		registry:  registry,
		handlers:  h,
		router:    NewRouter(h),
	}
}

func (s *testServer) do(t *testing.T, method, path string, body *httptestBody) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body.reader())
	if body != nil && body.contentType != "" {
		req.Header.Set("Content-Type", body.contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type httptestBody struct {
	contentType string
	data        []byte
}

func (b *httptestBody) reader() io.Reader {
	if b == nil {
		return nil
	}
	return bytes.NewReader(b.data)
}

func jsonBody(t *testing.T, v any) *httptestBody {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return &httptestBody{contentType: "application/json", data: data}
}

// multipartBody builds a form with one file part and optional fields.
func multipartBody(t *testing.T, field, filename, contentType string, content []byte, fields map[string]string) *httptestBody {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &httptestBody{contentType: w.FormDataContentType(), data: buf.Bytes()}
}
